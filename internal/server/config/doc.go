// Package config provides server configuration for respkv.
//
// This package defines the server configuration structure and validation:
//
//   - spec.go: ServerConfig struct definition
//   - default.go: Default configuration values
//   - verify.go: Validation (addresses, sync mode, TLS files, password hash)
//   - sanitize.go: Log sanitization (hide sensitive values)
//   - convert.go: Mapping onto component configs
//
// Configuration is loaded via internal/infra/confloader and supports
// multiple sources: files, environment variables, and flags.
package config
