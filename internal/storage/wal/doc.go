// Package wal provides the write-ahead log for respkv.
//
// Every accepted mutating command is appended to a single file before the
// client sees its reply. On restart the file is replayed through the
// command dispatcher, so recovery runs exactly the code that served the
// original requests.
//
// Format:
//
//	<command array><command array>...
//
// Each record is the RESP2 array the client sent, for example
//
//	*3\r\n$3\r\nSET\r\n$1\r\nk\r\n$1\r\nv\r\n
//
// There is no header, length prefix or checksum. A partial or corrupt
// tail ends replay at the last complete record.
//
// Sync modes:
//
//   - always: fsync after every append (default)
//   - everysec: fsync from a background loop once per interval
//   - os: write only, the kernel decides when data reaches disk
package wal
