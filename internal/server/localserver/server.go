package localserver

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DefaultPerm is the socket file mode when none is configured.
const DefaultPerm os.FileMode = 0700

// probeTimeout bounds the dial used to tell a live socket from a stale one.
const probeTimeout = 200 * time.Millisecond

var (
	// ErrSocketInUse means another process accepts on the socket path.
	ErrSocketInUse = errors.New("localserver: socket in use")

	// ErrNotSocket means the path exists and is not a socket.
	ErrNotSocket = errors.New("localserver: path exists and is not a socket")
)

// Listener is a Unix socket listener that removes its file on Close.
type Listener struct {
	net.Listener
	path      string
	closeOnce sync.Once
	closeErr  error
}

// Listen opens a Unix socket at path with the given permissions. A zero
// perm uses DefaultPerm.
func Listen(path string, perm os.FileMode) (*Listener, error) {
	if path == "" {
		return nil, errors.New("localserver: empty socket path")
	}
	if perm == 0 {
		perm = DefaultPerm
	}

	if err := removeStale(path); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("localserver: create socket dir: %w", err)
	}

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("localserver: listen %s: %w", path, err)
	}
	// Close must not unlink; Listener.Close does that itself.
	if ul, ok := ln.(*net.UnixListener); ok {
		ul.SetUnlinkOnClose(false)
	}

	if err := os.Chmod(path, perm); err != nil {
		_ = ln.Close()
		_ = os.Remove(path)
		return nil, fmt.Errorf("localserver: chmod %s: %w", path, err)
	}

	return &Listener{Listener: ln, path: path}, nil
}

// Path returns the socket file path.
func (l *Listener) Path() string {
	return l.path
}

// Close stops accepting and removes the socket file. It is idempotent.
func (l *Listener) Close() error {
	l.closeOnce.Do(func() {
		l.closeErr = l.Listener.Close()
		if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) && l.closeErr == nil {
			l.closeErr = err
		}
	})
	return l.closeErr
}

// removeStale deletes a socket file nobody accepts on.
func removeStale(path string) error {
	info, err := os.Lstat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("localserver: stat %s: %w", path, err)
	}
	if info.Mode()&os.ModeSocket == 0 {
		return fmt.Errorf("%w: %s", ErrNotSocket, path)
	}

	conn, err := net.DialTimeout("unix", path, probeTimeout)
	if err == nil {
		_ = conn.Close()
		return fmt.Errorf("%w: %s", ErrSocketInUse, path)
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("localserver: remove stale socket: %w", err)
	}
	return nil
}
