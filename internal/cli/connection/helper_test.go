package connection

import (
	"context"
	"testing"
	"time"

	"github.com/yndnr/respkv-go/internal/core/service"
	"github.com/yndnr/respkv-go/internal/server/redisserver"
	"github.com/yndnr/respkv-go/internal/storage/memory"
)

// startServer runs a respkv RESP listener on a loopback port. A non-empty
// password enables AUTH.
func startServer(t *testing.T, password string) *redisserver.Server {
	t.Helper()

	store := memory.New(memory.WithoutSweeper())
	cfg := redisserver.DefaultConfig()
	cfg.Address = "127.0.0.1:0"

	var opts []redisserver.Option
	if password != "" {
		hash, err := service.HashPassword(password)
		if err != nil {
			t.Fatalf("HashPassword: %v", err)
		}
		v, err := service.ParsePasswordHash(hash)
		if err != nil {
			t.Fatalf("ParsePasswordHash: %v", err)
		}
		opts = append(opts, redisserver.WithPassword(v))
	}

	srv := redisserver.New(cfg, service.NewDispatcher(store), opts...)
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
		_ = store.Close()
	})
	return srv
}
