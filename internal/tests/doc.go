// Package tests holds end-to-end tests that run a respkv server with its
// write-ahead log on loopback and drive it with the CLI client.
//
// Run them with:
//
//	go test ./internal/tests/...
//
// They are skipped in -short mode.
package tests
