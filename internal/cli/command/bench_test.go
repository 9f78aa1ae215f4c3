package command

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/yndnr/respkv-go/internal/cli/connection"
)

func TestRunBench(t *testing.T) {
	srv := startServer(t, "")

	ctx := context.Background()
	p := connection.NewPool(ctx, connection.Options{Addr: srv.Addr().String()}, 4)
	t.Cleanup(func() { p.Close(ctx) })

	tests := []struct {
		name string
		opts BenchOptions
	}{
		{"ping", BenchOptions{Clients: 4, Requests: 200}},
		{"set", BenchOptions{Clients: 4, Requests: 200, DataSize: 64, Keyspace: 10}},
		{"get", BenchOptions{Clients: 2, Requests: 50, Keyspace: 10}},
		{"exists", BenchOptions{Clients: 1, Requests: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := RunBench(ctx, p, tt.name, tt.opts, nil)
			if err != nil {
				t.Fatalf("RunBench() error = %v", err)
			}
			if res.Requests != tt.opts.Requests {
				t.Errorf("Requests = %d, want %d", res.Requests, tt.opts.Requests)
			}
			if res.Errors != 0 {
				t.Errorf("Errors = %d, want 0", res.Errors)
			}
			if res.Test != strings.ToUpper(tt.name) {
				t.Errorf("Test = %q", res.Test)
			}
			if res.P50 > res.P95 || res.P95 > res.P99 {
				t.Errorf("percentiles out of order: %v %v %v", res.P50, res.P95, res.P99)
			}
			if res.OpsPerSec <= 0 {
				t.Errorf("OpsPerSec = %v, want > 0", res.OpsPerSec)
			}
		})
	}

	if p.Active() != 0 {
		t.Errorf("Active() = %d after runs, want 0", p.Active())
	}
}

func TestRunBench_RateLimited(t *testing.T) {
	srv := startServer(t, "")

	ctx := context.Background()
	p := connection.NewPool(ctx, connection.Options{Addr: srv.Addr().String()}, 2)
	t.Cleanup(func() { p.Close(ctx) })

	// A burst of 2 and 100/s: 22 requests need at least 200ms.
	res, err := RunBench(ctx, p, "ping", BenchOptions{Clients: 2, Requests: 22, RPS: 100}, nil)
	if err != nil {
		t.Fatalf("RunBench() error = %v", err)
	}
	if res.Duration < 150*time.Millisecond {
		t.Errorf("Duration = %v, want rate limiting to slow the run", res.Duration)
	}
}

func TestRunBench_UnknownTest(t *testing.T) {
	if _, err := RunBench(context.Background(), nil, "flushall", BenchOptions{Clients: 1, Requests: 1}, nil); err == nil {
		t.Error("RunBench() error = nil, want unknown test")
	}
}

func TestRunBench_ServerDown(t *testing.T) {
	ctx := context.Background()
	p := connection.NewPool(ctx, connection.Options{Addr: "127.0.0.1:1", DialTimeout: 200 * time.Millisecond}, 2)
	t.Cleanup(func() { p.Close(ctx) })

	if _, err := RunBench(ctx, p, "ping", BenchOptions{Clients: 2, Requests: 10}, nil); err == nil {
		t.Error("RunBench() error = nil, want dial error")
	}
}

func TestPercentile(t *testing.T) {
	samples := make([]time.Duration, 100)
	for i := range samples {
		samples[i] = time.Duration(i+1) * time.Millisecond
	}

	tests := []struct {
		p    int
		want time.Duration
	}{
		{50, 50 * time.Millisecond},
		{95, 95 * time.Millisecond},
		{99, 99 * time.Millisecond},
		{100, 100 * time.Millisecond},
	}
	for _, tt := range tests {
		if got := percentile(samples, tt.p); got != tt.want {
			t.Errorf("percentile(%d) = %v, want %v", tt.p, got, tt.want)
		}
	}

	if got := percentile(nil, 50); got != 0 {
		t.Errorf("percentile(nil) = %v, want 0", got)
	}
	if got := percentile([]time.Duration{7}, 1); got != 7 {
		t.Errorf("percentile(single) = %v, want 7", got)
	}
}

func TestBenchKey(t *testing.T) {
	if got := benchKey(42, 0); got != "key:bench" {
		t.Errorf("benchKey(42, 0) = %q", got)
	}
	if got := benchKey(42, 10); got != "key:2" {
		t.Errorf("benchKey(42, 10) = %q", got)
	}
}

func TestParseTests(t *testing.T) {
	got := parseTests(" SET, get,,ping ")
	want := []string{"set", "get", "ping"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("parseTests() = %q, want %q", got, want)
	}
}

// ============================================================
// bench command
// ============================================================

func TestBenchCommand(t *testing.T) {
	srv := startServer(t, "")
	addr := srv.Addr().String()

	t.Run("text", func(t *testing.T) {
		res := runCLI(t, "", "-s", addr, "bench", "-c", "2", "-n", "20", "-t", "set,get")
		if res.err != nil {
			t.Fatalf("bench error = %v", res.err)
		}
		for _, want := range []string{"TEST", "OPS/SEC", "SET", "GET"} {
			if !strings.Contains(res.stdout, want) {
				t.Errorf("stdout missing %q: %q", want, res.stdout)
			}
		}
		if !strings.Contains(res.stderr, "SET") {
			t.Errorf("progress bar not drawn on stderr: %q", res.stderr)
		}
	})

	t.Run("json quiet", func(t *testing.T) {
		res := runCLI(t, "", "-s", addr, "-o", "json", "bench", "-q", "-c", "1", "-n", "5", "-t", "ping")
		if res.err != nil {
			t.Fatalf("bench error = %v", res.err)
		}
		var results []BenchResult
		if err := json.Unmarshal([]byte(res.stdout), &results); err != nil {
			t.Fatalf("output is not JSON: %v\n%s", err, res.stdout)
		}
		if len(results) != 1 || results[0].Test != "PING" || results[0].Requests != 5 {
			t.Errorf("results = %+v", results)
		}
		if res.stderr != "" {
			t.Errorf("quiet run wrote to stderr: %q", res.stderr)
		}
	})

	t.Run("bad flags", func(t *testing.T) {
		for _, args := range [][]string{
			{"bench", "-c", "0"},
			{"bench", "-t", "flushall"},
		} {
			if res := runCLI(t, "", append([]string{"-s", addr}, args...)...); res.exitCode != 2 {
				t.Errorf("%v: exit = %d (err %v), want 2", args, res.exitCode, res.err)
			}
		}
	})
}
