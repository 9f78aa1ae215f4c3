// Package logger provides structured logging for respkv.
//
// It wraps log/slog:
//
//   - logger.go: handler construction, global level, default logger
//   - context.go: context propagation of loggers and connection IDs
//   - redact.go: masking of payloads and credentials
//
// The level is held in a process-wide slog.LevelVar so it can be changed
// at runtime when the configuration file is reloaded.
package logger
