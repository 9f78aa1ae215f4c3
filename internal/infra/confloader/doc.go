// Package confloader provides the configuration loading mechanism.
//
// It wraps koanf to load a typed configuration from several sources:
//
//   - YAML file (providers/file + parsers/yaml)
//   - Environment variables (providers/env), RESPKV_ prefix by default
//   - Command-line flags, passed in as a map of dotted keys
//
// Priority (highest to lowest):
//
//  1. Command-line flags
//  2. Environment variables
//  3. Configuration file
//  4. Values already present in the target struct (defaults)
//
// Watcher reports changes to the configuration file via fsnotify so the
// server can reload settings that may change at runtime.
package confloader
