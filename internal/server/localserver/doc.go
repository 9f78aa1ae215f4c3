// Package localserver manages the Unix domain socket respkv serves RESP
// on for local clients.
//
// Listen takes over a stale socket file left by a crashed process,
// refuses to steal a socket another server still answers on, applies the
// configured permissions, and removes the file again on Close.
package localserver
