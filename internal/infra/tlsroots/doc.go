// Package tlsroots loads the certificates respkv uses for TLS.
//
// Pool holds trusted CA certificates: the CLI uses one to verify the
// server, and the server uses one to verify client certificates when
// mutual TLS is configured. Watcher serves the server key pair and
// reloads it when the files are replaced, so renewed certificates take
// effect without a restart.
package tlsroots
