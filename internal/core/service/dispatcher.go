package service

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/yndnr/respkv-go/pkg/resp"
)

// KVStore is the storage used by the dispatcher.
type KVStore interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
	SetWithExpiry(key string, value []byte, at time.Time)
	Exists(key string) bool
}

// Persister appends encoded command frames to durable storage.
type Persister interface {
	Append(frame []byte) error
}

// Observer receives one call per live command.
type Observer interface {
	ObserveCommand(name string, elapsed time.Duration, failed bool)
}

// Dispatcher executes commands against a KVStore.
type Dispatcher struct {
	store     KVStore
	persister Persister
	observer  Observer
	now       func() time.Time
	logger    *slog.Logger

	// writeMu orders log appends with store mutations.
	writeMu sync.Mutex
}

// Option configures the Dispatcher.
type Option func(*Dispatcher)

// WithPersister enables write-ahead logging of mutations. A nil persister
// leaves persistence disabled.
func WithPersister(p Persister) Option {
	return func(d *Dispatcher) {
		d.persister = p
	}
}

// WithObserver sets the command observer.
func WithObserver(o Observer) Option {
	return func(d *Dispatcher) {
		d.observer = o
	}
}

// WithClock replaces time.Now for expiry computation.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		if now != nil {
			d.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDispatcher creates a Dispatcher over store.
func NewDispatcher(store KVStore, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		store:  store,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// PersistenceEnabled reports whether mutations are logged.
func (d *Dispatcher) PersistenceEnabled() bool {
	return d.persister != nil
}

// call is one command invocation.
type call struct {
	name string
	args [][]byte
	// raw is the frame as received, or nil to re-encode args.
	raw     []byte
	persist bool
}

func (c *call) frame() []byte {
	if c.raw != nil {
		return c.raw
	}
	return resp.AppendCommand(nil, c.args)
}

type handler func(d *Dispatcher, c *call) resp.Value

// commands is the closed command table, keyed by uppercase name.
var commands = map[string]handler{
	"PING":   (*Dispatcher).ping,
	"ECHO":   (*Dispatcher).echo,
	"SET":    (*Dispatcher).set,
	"GET":    (*Dispatcher).get,
	"EXISTS": (*Dispatcher).exists,
	"CONFIG": (*Dispatcher).config,
}

// IsCommand reports whether name (any case) is in the command table.
func IsCommand(name string) bool {
	_, ok := commands[strings.ToUpper(name)]
	return ok
}

// Dispatch executes a live command. Mutations are persisted before they
// are applied. Dispatch never fails; errors are error replies.
func (d *Dispatcher) Dispatch(cmd [][]byte) resp.Value {
	return d.DispatchFrame(cmd, nil)
}

// DispatchFrame is Dispatch for a command whose wire frame is already at
// hand. raw is logged verbatim instead of re-encoding cmd.
func (d *Dispatcher) DispatchFrame(cmd [][]byte, raw []byte) resp.Value {
	start := time.Now()
	name, reply := d.run(&call{args: cmd, raw: raw, persist: true})
	if d.observer != nil {
		d.observer.ObserveCommand(name, time.Since(start), reply.IsError())
	}
	if d.logger.Enabled(context.Background(), slog.LevelDebug) {
		d.logger.Debug("command dispatched", "command", name, "args", len(cmd), "error", reply.IsError())
	}
	return reply
}

// Replay executes a command read back from the write-ahead log. It runs
// the same handlers as Dispatch but never persists.
func (d *Dispatcher) Replay(cmd [][]byte) resp.Value {
	_, reply := d.run(&call{args: cmd})
	return reply
}

func (d *Dispatcher) run(c *call) (string, resp.Value) {
	if len(c.args) == 0 {
		return "", ErrEmptyCommand.Reply()
	}
	c.name = normalizeName(c.args[0])
	h, ok := commands[c.name]
	if !ok {
		return "unknown", ErrUnsupportedCommand.Reply()
	}
	return c.name, h(d, c)
}

func normalizeName(b []byte) string {
	if bytes.ContainsAny(b, "abcdefghijklmnopqrstuvwxyz") {
		return strings.ToUpper(string(b))
	}
	return string(b)
}
