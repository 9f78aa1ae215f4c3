package wal

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/yndnr/respkv-go/pkg/resp"
)

// ReadChunkSize is the number of bytes read from the log per read call.
const ReadChunkSize = 2048

// Applier executes a replayed command. The dispatcher implements it with
// persistence bypassed.
type Applier interface {
	Replay(cmd [][]byte) resp.Value
}

// ReplayStats summarizes a replay.
type ReplayStats struct {
	// Commands is the number of records handed to the applier.
	Commands int
	// Rejected counts records the applier answered with an error reply.
	Rejected int
	// Bytes is the length of the valid prefix of the log.
	Bytes int64
	// Truncated is set when replay stopped before the end of the file.
	Truncated bool
	// TornTail is set when the only unread bytes are an incomplete record
	// at end of file, as left by a crash mid-append. Cutting the file back
	// to Bytes loses nothing.
	TornTail bool
	// Corrupt is set when replay stopped at a malformed or non-command
	// record. Complete records may follow it, so the file must not be
	// truncated or appended to.
	Corrupt bool
}

// Replay reads the log at path from the beginning and feeds every complete
// command array to applier, in order. It stops at end of file or at the
// first record that is malformed or not a command array; the remainder is
// reported through ReplayStats (Truncated plus TornTail or Corrupt) and a
// warning, not an error.
//
// A missing file means there is nothing to replay. Only I/O failures are
// returned as errors.
func Replay(path string, applier Applier, logger *slog.Logger) (ReplayStats, error) {
	var stats ReplayStats
	if logger == nil {
		logger = slog.Default()
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return stats, nil
		}
		return stats, fmt.Errorf("wal: open for replay: %w", err)
	}
	defer f.Close()

	limits := resp.DefaultLimits()
	chunk := make([]byte, ReadChunkSize)
	var buf []byte

	for {
		n, readErr := f.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
		}

		pos := 0
		for pos < len(buf) {
			v, used, err := limits.Parse(buf[pos:])
			if errors.Is(err, resp.ErrIncomplete) {
				break
			}
			if err != nil {
				logger.Warn("wal replay stopped at malformed record",
					"path", path, "offset", stats.Bytes, "error", err)
				stats.Truncated = true
				stats.Corrupt = true
				return stats, nil
			}
			args, ok := v.CommandArgs()
			if !ok || len(args) == 0 {
				logger.Warn("wal replay stopped at non-command record",
					"path", path, "offset", stats.Bytes, "record", v.Kind.String())
				stats.Truncated = true
				stats.Corrupt = true
				return stats, nil
			}

			if reply := applier.Replay(args); reply.IsError() {
				stats.Rejected++
				logger.Debug("wal replay record rejected",
					"offset", stats.Bytes, "reply", reply.Str)
			}
			stats.Commands++
			stats.Bytes += int64(used)
			pos += used
		}
		if pos > 0 {
			buf = append(buf[:0], buf[pos:]...)
		}

		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return stats, fmt.Errorf("wal: read: %w", readErr)
		}
	}

	if len(buf) > 0 {
		logger.Warn("wal replay ignored partial trailing record",
			"path", path, "offset", stats.Bytes, "bytes", len(buf))
		stats.Truncated = true
		stats.TornTail = true
	}
	return stats, nil
}

// TruncateTail cuts the log at path back to size bytes, normally
// ReplayStats.Bytes after a replay that reported TornTail. Without it,
// appends would land behind the torn record and be lost on the next replay.
func TruncateTail(path string, size int64) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("wal: stat: %w", err)
	}
	if size < 0 || size > info.Size() {
		return fmt.Errorf("wal: truncate to %d beyond file size %d", size, info.Size())
	}
	if size == info.Size() {
		return nil
	}
	if err := os.Truncate(path, size); err != nil {
		return fmt.Errorf("wal: truncate: %w", err)
	}
	return nil
}
