// Package main provides the entry point for respkv-server.
//
// respkv-server is a single-node, in-memory key-value server that speaks
// the Redis RESP2 protocol. It serves:
//
//   - the RESP listener (plain TCP, and optionally TLS with certificate
//     hot reload and client certificate verification)
//   - an admin HTTP listener with /metrics, /healthz, /readyz and /v1/status
//
// Mutations are appended to an optional write-ahead log and replayed at
// startup.
//
// Usage:
//
//	respkv-server [flags]
//	respkv-server --config /etc/respkv/server.yaml
//	RESPKV_STORAGE__WAL_PATH=/var/lib/respkv/appendonly.wal respkv-server
//
// Configuration priority is flag > environment > file > default.
package main
