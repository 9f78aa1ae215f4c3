package benchmark

import (
	"context"
	"crypto/rand"
	"io"
	"log/slog"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/respkv-go/internal/core/service"
	"github.com/yndnr/respkv-go/internal/server/redisserver"
	"github.com/yndnr/respkv-go/internal/storage/memory"
)

// KeyCounts defines the store sizes for benchmarking.
var KeyCounts = []int{1000, 10000, 100000, 500000}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// newKeys generates n distinct session-style keys.
func newKeys(n int) []string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	keys := make([]string, n)
	for i := range keys {
		id := ulid.MustNew(ulid.Timestamp(time.Now()), entropy)
		keys[i] = "session:" + strings.ToLower(id.String())
	}
	return keys
}

// prefillStore stores every key with a 64 byte value. Every fourth key
// gets a TTL far enough out that it never expires during the run.
func prefillStore(store *memory.Store, keys []string) {
	value := []byte(strings.Repeat("v", 64))
	expireAt := time.Now().Add(time.Hour)
	for i, k := range keys {
		if i%4 == 0 {
			store.SetWithExpiry(k, value, expireAt)
		} else {
			store.Set(k, value)
		}
	}
}

// startServer serves RESP on loopback over a fresh store.
func startServer(b *testing.B, persister service.Persister) *redisserver.Server {
	b.Helper()

	store := memory.New(memory.WithLogger(discard))
	var opts []service.Option
	if persister != nil {
		opts = append(opts, service.WithPersister(persister))
	}

	cfg := redisserver.DefaultConfig()
	cfg.Address = "127.0.0.1:0"
	srv := redisserver.New(cfg, service.NewDispatcher(store, opts...), redisserver.WithLogger(discard))
	if err := srv.Start(context.Background()); err != nil {
		b.Fatalf("Start: %v", err)
	}
	b.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
		_ = store.Close()
	})
	return srv
}

// reportMemory reports heap usage after a GC.
func reportMemory(b *testing.B, prefix string) {
	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	b.ReportMetric(float64(m.HeapAlloc)/1024/1024, prefix+"_heap_MB")
}
