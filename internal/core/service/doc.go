// Package service implements the respkv command layer.
//
// A Dispatcher maps a command, given as its list of arguments, to a
// reply value. It owns the closed command table and the ordering between
// the write-ahead log and the store: a mutating command is appended to
// the log before it is applied, and both happen under one dispatch lock
// so the log records mutations in the order the store saw them.
//
// This package contains:
//
//   - Dispatcher: command table, argument validation and replay
//   - CommandError: error replies in their RESP form
//   - PasswordVerifier: argon2id password checks for AUTH
package service
