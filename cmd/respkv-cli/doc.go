// Package main provides the entry point for respkv-cli.
//
// The CLI talks RESP to a respkv server (or any RESP2 server) for:
//
//   - one-shot commands (ping, echo, get, set, exists, do)
//   - interactive mode, the default when no command is given
//   - load generation (bench)
//   - hashing the AUTH password for the server config (hash-password)
//
// Usage:
//
//	respkv-cli [global flags] [command] [args]
//	respkv-cli -s 127.0.0.1:6379 set --ex 60 session:1 alice
//	respkv-cli -o json get session:1
//	respkv-cli bench -c 50 -n 100000 -t set,get
package main
