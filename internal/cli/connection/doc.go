// Package connection provides the RESP client used by respkv-cli.
//
//   - client.go: one connection, request/reply over pkg/resp, AUTH on dial
//   - pool.go: a bounded pool of clients for concurrent load (bench)
//
// Error replies from the server are returned as values, not Go errors;
// a Go error means the connection itself failed and should be discarded.
package connection
