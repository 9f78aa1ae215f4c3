package wal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ErrClosed is returned by Append after Close.
var ErrClosed = errors.New("wal: writer is closed")

// File permissions.
const (
	DefaultFilePerm = 0600
	DefaultDirPerm  = 0750
)

// DefaultSyncInterval is the fsync period in SyncModeEverySec.
const DefaultSyncInterval = time.Second

// SyncMode defines how appends reach disk.
type SyncMode string

const (
	SyncModeAlways   SyncMode = "always"
	SyncModeEverySec SyncMode = "everysec"
	SyncModeOS       SyncMode = "os"
)

// ParseSyncMode validates a configured sync mode. Empty means always.
func ParseSyncMode(s string) (SyncMode, error) {
	switch SyncMode(s) {
	case "":
		return SyncModeAlways, nil
	case SyncModeAlways, SyncModeEverySec, SyncModeOS:
		return SyncMode(s), nil
	default:
		return "", fmt.Errorf("wal: unknown sync mode %q", s)
	}
}

// Config configures the WAL writer.
type Config struct {
	Path string

	SyncMode     SyncMode
	SyncInterval time.Duration

	FilePerm os.FileMode
}

// DefaultConfig returns the default WAL configuration.
func DefaultConfig(path string) Config {
	return Config{
		Path:         path,
		SyncMode:     SyncModeAlways,
		SyncInterval: DefaultSyncInterval,
		FilePerm:     DefaultFilePerm,
	}
}

func applyDefaults(cfg *Config) {
	if cfg.SyncMode == "" {
		cfg.SyncMode = SyncModeAlways
	}
	if cfg.SyncInterval <= 0 {
		cfg.SyncInterval = DefaultSyncInterval
	}
	if cfg.FilePerm == 0 {
		cfg.FilePerm = DefaultFilePerm
	}
}

// WriterStats is a point-in-time view of writer counters.
type WriterStats struct {
	Appends uint64
	Bytes   uint64
	Syncs   uint64
}

// Writer appends command frames to the log file.
type Writer struct {
	cfg Config

	mu     sync.Mutex
	file   *os.File
	stats  WriterStats
	dirty  bool
	closed bool

	syncTicker *time.Ticker
	stopCh     chan struct{}
	wg         sync.WaitGroup
}

// Open opens (or creates) the log at cfg.Path for appending.
func Open(cfg Config) (*Writer, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("wal: path is required")
	}
	applyDefaults(&cfg)
	if _, err := ParseSyncMode(string(cfg.SyncMode)); err != nil {
		return nil, err
	}

	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, DefaultDirPerm); err != nil {
			return nil, fmt.Errorf("wal: create dir: %w", err)
		}
	}

	file, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, cfg.FilePerm)
	if err != nil {
		return nil, fmt.Errorf("wal: open: %w", err)
	}

	w := &Writer{
		cfg:    cfg,
		file:   file,
		stopCh: make(chan struct{}),
	}

	if cfg.SyncMode == SyncModeEverySec {
		w.startSyncLoop()
	}

	return w, nil
}

// Path returns the log file path.
func (w *Writer) Path() string {
	return w.cfg.Path
}

// Append writes one encoded command frame. In SyncModeAlways it returns
// only after the frame has been fsynced.
func (w *Writer) Append(frame []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrClosed
	}

	// os.File.Write loops until the whole frame is written or fails.
	n, err := w.file.Write(frame)
	if n > 0 {
		w.stats.Bytes += uint64(n)
	}
	if err != nil {
		return fmt.Errorf("wal: write: %w", err)
	}
	w.stats.Appends++

	switch w.cfg.SyncMode {
	case SyncModeAlways:
		return w.syncLocked()
	case SyncModeEverySec:
		w.dirty = true
	}
	return nil
}

// Sync forces buffered data to disk.
func (w *Writer) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrClosed
	}
	return w.syncLocked()
}

func (w *Writer) syncLocked() error {
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("wal: sync: %w", err)
	}
	w.stats.Syncs++
	w.dirty = false
	return nil
}

// Stats returns the writer counters.
func (w *Writer) Stats() WriterStats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func (w *Writer) startSyncLoop() {
	w.syncTicker = time.NewTicker(w.cfg.SyncInterval)
	w.wg.Add(1)

	go func() {
		defer w.wg.Done()
		for {
			select {
			case <-w.syncTicker.C:
				w.mu.Lock()
				if w.dirty && !w.closed {
					_ = w.syncLocked()
				}
				w.mu.Unlock()
			case <-w.stopCh:
				return
			}
		}
	}()
}

// Close syncs and closes the log file. It is safe to call more than once.
func (w *Writer) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.stopCh)
	w.mu.Unlock()

	if w.syncTicker != nil {
		w.syncTicker.Stop()
	}
	w.wg.Wait()

	w.mu.Lock()
	defer w.mu.Unlock()

	syncErr := w.file.Sync()
	closeErr := w.file.Close()
	if syncErr != nil {
		return fmt.Errorf("wal: sync: %w", syncErr)
	}
	if closeErr != nil {
		return fmt.Errorf("wal: close: %w", closeErr)
	}
	return nil
}
