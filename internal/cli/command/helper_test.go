package command

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/urfave/cli/v2"

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

// result is the outcome of one CLI invocation.
type result struct {
	stdout   string
	stderr   string
	err      error
	exitCode int
}

// runCLI runs the app with args and the given stdin. It never reads the
// user's CLI config and never exits the process.
func runCLI(t *testing.T, stdin string, args ...string) result {
	t.Helper()

	var stdout, stderr bytes.Buffer
	app := App()
	app.Reader = strings.NewReader(stdin)
	app.Writer = &stdout
	app.ErrWriter = &stderr
	app.ExitErrHandler = func(*cli.Context, error) {}

	cfgPath := filepath.Join(t.TempDir(), "cli.yaml")
	argv := append([]string{"respkv-cli", "--config", cfgPath}, args...)
	err := app.Run(argv)

	res := result{stdout: stdout.String(), stderr: stderr.String(), err: err}
	if coder, ok := err.(cli.ExitCoder); ok {
		res.exitCode = coder.ExitCode()
	} else if err != nil {
		res.exitCode = 1
	}
	return res
}
