// Package command provides CLI command definitions for respkv-cli.
//
// This package defines all CLI commands using urfave/cli/v2:
//
//   - root.go: App, global flags, profile and TLS resolution
//   - data.go: ping, echo, get, set, exists and do
//   - repl.go: interactive mode, also used when no command is given
//   - bench.go: load generator over a connection pool
//   - password.go: hash-password for the server's requirepass_hash
//
// Commands follow a consistent pattern of resolving the global flags,
// dialing the server and formatting the reply with the output package.
package command
