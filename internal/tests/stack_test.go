package tests

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/yndnr/respkv-go/internal/cli/connection"
	"github.com/yndnr/respkv-go/internal/core/service"
	"github.com/yndnr/respkv-go/internal/server/redisserver"
	"github.com/yndnr/respkv-go/internal/storage/memory"
	"github.com/yndnr/respkv-go/internal/storage/wal"
	"github.com/yndnr/respkv-go/pkg/resp"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// stack is one server process worth of components: it replays the log,
// opens it for appends and serves RESP on loopback.
type stack struct {
	t      *testing.T
	store  *memory.Store
	writer *wal.Writer
	srv    *redisserver.Server
	stats  wal.ReplayStats
}

func startStack(t *testing.T, walPath string, mode wal.SyncMode) *stack {
	t.Helper()

	store := memory.New(memory.WithSweepInterval(10*time.Millisecond), memory.WithLogger(discard))
	stats, err := wal.Replay(walPath, service.NewDispatcher(store, service.WithLogger(discard)), discard)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if stats.TornTail {
		if err := wal.TruncateTail(walPath, stats.Bytes); err != nil {
			t.Fatalf("TruncateTail: %v", err)
		}
	}

	cfg := wal.DefaultConfig(walPath)
	cfg.SyncMode = mode
	writer, err := wal.Open(cfg)
	if err != nil {
		t.Fatalf("wal.Open: %v", err)
	}

	rcfg := redisserver.DefaultConfig()
	rcfg.Address = "127.0.0.1:0"
	d := service.NewDispatcher(store, service.WithPersister(writer), service.WithLogger(discard))
	srv := redisserver.New(rcfg, d, redisserver.WithLogger(discard))
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	s := &stack{t: t, store: store, writer: writer, srv: srv, stats: stats}
	t.Cleanup(s.stop)
	return s
}

// stop shuts down in the server's hook order. It is idempotent.
func (s *stack) stop() {
	if s.srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = s.srv.Shutdown(ctx)
	_ = s.writer.Close()
	_ = s.store.Close()
	s.srv = nil
}

func (s *stack) client() *connection.Client {
	s.t.Helper()
	c, err := connection.Dial(context.Background(), connection.Options{Addr: s.srv.Addr().String()})
	if err != nil {
		s.t.Fatalf("Dial: %v", err)
	}
	s.t.Cleanup(func() { _ = c.Close() })
	return c
}

func do(t *testing.T, c *connection.Client, want resp.Value, args ...string) {
	t.Helper()
	got, err := c.Do(args...)
	if err != nil {
		t.Fatalf("Do(%q) error = %v", args, err)
	}
	if !resp.Equal(got, want) {
		t.Fatalf("Do(%q) = %v, want %v", args, got, want)
	}
}

func walPath(t *testing.T) string {
	return filepath.Join(t.TempDir(), "appendonly.wal")
}
