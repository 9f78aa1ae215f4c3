package command

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/time/rate"

	"github.com/yndnr/respkv-go/internal/cli/connection"
	"github.com/yndnr/respkv-go/internal/cli/output"
	"github.com/yndnr/respkv-go/pkg/resp"
)

// BenchResult summarizes one benchmark run.
type BenchResult struct {
	Test      string        `json:"test" yaml:"test"`
	Requests  int64         `json:"requests" yaml:"requests"`
	Errors    int64         `json:"errors" yaml:"errors"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
	OpsPerSec float64       `json:"ops_per_sec" yaml:"ops_per_sec"`
	P50       time.Duration `json:"p50" yaml:"p50"`
	P95       time.Duration `json:"p95" yaml:"p95"`
	P99       time.Duration `json:"p99" yaml:"p99"`
}

// BenchOptions configures a benchmark.
type BenchOptions struct {
	Clients  int
	Requests int64
	DataSize int
	Keyspace int
	// RPS caps the total request rate; zero means unlimited.
	RPS float64
}

// BenchCommand returns the bench command.
func BenchCommand() *cli.Command {
	return &cli.Command{
		Name:  "bench",
		Usage: "Measure throughput and latency",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "clients",
				Aliases: []string{"c"},
				Usage:   "Parallel connections",
				Value:   50,
			},
			&cli.Int64Flag{
				Name:    "requests",
				Aliases: []string{"n"},
				Usage:   "Requests per test",
				Value:   100000,
			},
			&cli.IntFlag{
				Name:    "data-size",
				Aliases: []string{"d"},
				Usage:   "Value size in bytes for SET",
				Value:   3,
			},
			&cli.IntFlag{
				Name:    "keyspace",
				Aliases: []string{"r"},
				Usage:   "Spread keys over this many names; 0 uses a single key",
			},
			&cli.StringFlag{
				Name:    "tests",
				Aliases: []string{"t"},
				Usage:   "Comma separated tests: ping, set, get, exists",
				Value:   "ping,set,get",
			},
			&cli.Float64Flag{
				Name:  "rps",
				Usage: "Cap the total request rate",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Do not draw the progress bar",
			},
		},
		Action: benchAction,
	}
}

func benchAction(c *cli.Context) error {
	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return err
	}
	connOpts, err := flags.ClientOptions()
	if err != nil {
		return err
	}

	opts := BenchOptions{
		Clients:  c.Int("clients"),
		Requests: c.Int64("requests"),
		DataSize: c.Int("data-size"),
		Keyspace: c.Int("keyspace"),
		RPS:      c.Float64("rps"),
	}
	if opts.Clients <= 0 || opts.Requests <= 0 || opts.DataSize < 0 || opts.Keyspace < 0 {
		return cli.Exit("clients and requests must be positive", 2)
	}

	tests := parseTests(c.String("tests"))
	for _, name := range tests {
		if _, ok := benchCommands[name]; !ok {
			return cli.Exit(fmt.Sprintf("unknown test %q", name), 2)
		}
	}

	p := connection.NewPool(c.Context, connOpts, opts.Clients)
	defer p.Close(context.Background())

	results := make([]BenchResult, 0, len(tests))
	for _, name := range tests {
		var bar *output.ProgressBar
		if !c.Bool("quiet") {
			bar = output.NewProgressBar(c.App.ErrWriter, strings.ToUpper(name), opts.Requests)
		}
		res, err := RunBench(c.Context, p, name, opts, bar)
		if err != nil {
			return err
		}
		results = append(results, res)
	}

	return printBench(c, flags.Output, results)
}

// benchCommands builds the request for the i-th operation of a test.
var benchCommands = map[string]func(key string, value []byte) [][]byte{
	"ping": func(string, []byte) [][]byte {
		return [][]byte{[]byte("PING")}
	},
	"set": func(key string, value []byte) [][]byte {
		return [][]byte{[]byte("SET"), []byte(key), value}
	},
	"get": func(key string, _ []byte) [][]byte {
		return [][]byte{[]byte("GET"), []byte(key)}
	},
	"exists": func(key string, _ []byte) [][]byte {
		return [][]byte{[]byte("EXISTS"), []byte(key)}
	},
}

func parseTests(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// RunBench sends opts.Requests commands of one test through the pool
// from opts.Clients goroutines. bar may be nil.
func RunBench(ctx context.Context, p *connection.Pool, test string, opts BenchOptions, bar *output.ProgressBar) (BenchResult, error) {
	build, ok := benchCommands[test]
	if !ok {
		return BenchResult{}, fmt.Errorf("unknown test %q", test)
	}

	value := []byte(strings.Repeat("x", opts.DataSize))
	var limiter *rate.Limiter
	if opts.RPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RPS), max(1, opts.Clients))
	}

	var (
		next    atomic.Int64
		done    atomic.Int64
		errs    atomic.Int64
		mu      sync.Mutex
		samples = make([]time.Duration, 0, opts.Requests)
		wg      sync.WaitGroup
		firstMu sync.Mutex
		first   error
	)

	stopBar := make(chan struct{})
	barDone := make(chan struct{})
	go func() {
		defer close(barDone)
		if bar == nil {
			return
		}
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stopBar:
				bar.Set(done.Load())
				bar.Finish()
				return
			case <-ticker.C:
				bar.Set(done.Load())
			}
		}
	}()

	start := time.Now()
	for w := 0; w < opts.Clients; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			client, err := p.Get(ctx)
			if err != nil {
				firstMu.Lock()
				if first == nil {
					first = err
				}
				firstMu.Unlock()
				return
			}

			local := make([]time.Duration, 0, opts.Requests/int64(opts.Clients)+1)
			broken := false
			for {
				i := next.Add(1) - 1
				if i >= opts.Requests || ctx.Err() != nil {
					break
				}
				if limiter != nil {
					if err := limiter.Wait(ctx); err != nil {
						break
					}
				}

				t0 := time.Now()
				reply, err := client.DoBytes(build(benchKey(i, opts.Keyspace), value))
				local = append(local, time.Since(t0))
				done.Add(1)
				if err != nil {
					errs.Add(1)
					broken = true
					break
				}
				if reply.Kind == resp.KindError {
					errs.Add(1)
				}
			}

			if broken {
				_ = p.Discard(ctx, client)
			} else {
				_ = p.Put(ctx, client)
			}
			mu.Lock()
			samples = append(samples, local...)
			mu.Unlock()
		}()
	}
	wg.Wait()
	elapsed := time.Since(start)
	close(stopBar)
	<-barDone

	if len(samples) == 0 && first != nil {
		return BenchResult{}, first
	}
	return summarize(test, samples, errs.Load(), elapsed), nil
}

func benchKey(i int64, keyspace int) string {
	if keyspace <= 0 {
		return "key:bench"
	}
	return "key:" + strconv.FormatInt(i%int64(keyspace), 10)
}

func summarize(test string, samples []time.Duration, errs int64, elapsed time.Duration) BenchResult {
	res := BenchResult{
		Test:     strings.ToUpper(test),
		Requests: int64(len(samples)),
		Errors:   errs,
		Duration: elapsed,
	}
	if elapsed > 0 {
		res.OpsPerSec = float64(len(samples)) / elapsed.Seconds()
	}
	slices.Sort(samples)
	res.P50 = percentile(samples, 50)
	res.P95 = percentile(samples, 95)
	res.P99 = percentile(samples, 99)
	return res
}

// percentile uses the nearest-rank method on sorted samples.
func percentile(sorted []time.Duration, p int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	rank := (p*len(sorted) + 99) / 100
	if rank < 1 {
		rank = 1
	}
	return sorted[rank-1]
}

func printBench(c *cli.Context, format output.Format, results []BenchResult) error {
	if format != output.FormatText {
		return output.NewFormatter(format).Format(c.App.Writer, results)
	}

	table := &output.Table{Headers: []string{"TEST", "REQUESTS", "ERRORS", "OPS/SEC", "P50", "P95", "P99"}}
	for _, r := range results {
		table.AddRow(
			r.Test,
			strconv.FormatInt(r.Requests, 10),
			strconv.FormatInt(r.Errors, 10),
			fmt.Sprintf("%.0f", r.OpsPerSec),
			r.P50.String(),
			r.P95.String(),
			r.P99.String(),
		)
	}
	if err := table.Render(c.App.Writer); err != nil {
		return err
	}

	for _, r := range results {
		if r.Errors > 0 {
			fmt.Fprintf(os.Stderr, "warning: %s had %d errors\n", r.Test, r.Errors)
		}
	}
	return nil
}
