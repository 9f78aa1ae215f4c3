// Package redisserver provides the RESP2 network front end of respkv.
//
// Each accepted connection is served by its own goroutine. Bytes read from
// the socket accumulate in a per-connection buffer which is drained by
// parsing as many complete frames as it holds, so pipelined requests are
// answered in order with one flush per read. A frame that can never become
// valid, or that is not an array of bulk strings, closes the connection.
//
// Connection-level commands handled here:
//   - AUTH, when a password hash is configured
//   - QUIT
//
// Everything else is passed to the command dispatcher.
package redisserver
