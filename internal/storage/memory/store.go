// Package memory provides the in-memory key-value store for respkv.
//
// All entries live in one map guarded by one mutex. Expired entries are
// removed lazily when Get or Exists touches them, and actively by a
// background sweeper that samples a bounded number of keys per pass.
package memory

import (
	"log/slog"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"
)

// Active expiry defaults.
const (
	// DefaultSweepInterval is how often the sweeper wakes up.
	DefaultSweepInterval = 100 * time.Millisecond

	// DefaultSampleSize is the number of keys examined per sweep pass.
	DefaultSampleSize = 20

	// repeatRatio: a pass that expires at least 1/repeatRatio of its
	// sample is followed immediately by another pass.
	repeatRatio = 4
)

type entry struct {
	value    []byte
	expireAt time.Time // zero means no expiry
	slot     int       // position in Store.keys
}

func (e *entry) expired(now time.Time) bool {
	return !e.expireAt.IsZero() && now.After(e.expireAt)
}

// Stats is a point-in-time view of store counters.
type Stats struct {
	Keys          int
	LazyExpired   uint64
	ActiveExpired uint64
}

// Store is a concurrency-safe string key-value store with expiry.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
	// keys mirrors the map keys densely so a uniform sample costs
	// O(sample) instead of O(len).
	keys []string

	now           func() time.Time
	sweepInterval time.Duration
	sampleSize    int
	sweeper       bool
	logger        *slog.Logger

	lazyExpired   atomic.Uint64
	activeExpired atomic.Uint64

	stopCh    chan struct{}
	doneCh    chan struct{}
	closeOnce sync.Once
}

// Option configures the Store.
type Option func(*Store)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithSweepInterval sets the active expiry interval.
func WithSweepInterval(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.sweepInterval = d
		}
	}
}

// WithSampleSize sets how many keys one sweep pass examines.
func WithSampleSize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.sampleSize = n
		}
	}
}

// WithoutSweeper disables the background sweeper. SweepExpired can still
// be called directly.
func WithoutSweeper() Option {
	return func(s *Store) {
		s.sweeper = false
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a store and starts its sweeper. The sweeper runs until
// Close is called or the process exits.
func New(opts ...Option) *Store {
	s := &Store{
		entries:       make(map[string]*entry),
		now:           time.Now,
		sweepInterval: DefaultSweepInterval,
		sampleSize:    DefaultSampleSize,
		sweeper:       true,
		logger:        slog.Default(),
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.sweeper {
		go s.sweepLoop()
	} else {
		close(s.doneCh)
	}

	return s
}

// Get returns the value stored at key. An expired entry is deleted and
// reported as absent. The returned slice must not be modified.
func (s *Store) Get(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if e.expired(s.now()) {
		s.removeLocked(key, e)
		s.lazyExpired.Add(1)
		return nil, false
	}
	return e.value, true
}

// Set stores value at key, replacing any previous entry and its expiry.
func (s *Store) Set(key string, value []byte) {
	s.put(key, value, time.Time{})
}

// SetWithExpiry stores value at key and expires it at the given instant.
func (s *Store) SetWithExpiry(key string, value []byte, at time.Time) {
	s.put(key, value, at)
}

func (s *Store) put(key string, value []byte, at time.Time) {
	v := make([]byte, len(value))
	copy(v, value)

	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[key]; ok {
		s.entries[key] = &entry{value: v, expireAt: at, slot: e.slot}
		return
	}
	s.entries[key] = &entry{value: v, expireAt: at, slot: len(s.keys)}
	s.keys = append(s.keys, key)
}

// Exists reports whether key holds a live entry, expiring it lazily.
func (s *Store) Exists(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// Count returns the number of stored entries, including expired entries
// that have not been removed yet.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Stats returns the current counters.
func (s *Store) Stats() Stats {
	return Stats{
		Keys:          s.Count(),
		LazyExpired:   s.lazyExpired.Load(),
		ActiveExpired: s.activeExpired.Load(),
	}
}

// SweepExpired runs one active expiry pass: it samples up to the
// configured number of distinct keys uniformly at random and deletes the
// expired ones. It returns how many keys were removed and how many were
// examined.
func (s *Store) SweepExpired() (removed, sampled int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sample := s.sampleLocked(s.sampleSize)
	now := s.now()
	for _, key := range sample {
		e, ok := s.entries[key]
		if !ok {
			continue
		}
		if e.expired(now) {
			s.removeLocked(key, e)
			removed++
		}
	}
	if removed > 0 {
		s.activeExpired.Add(uint64(removed))
	}
	return removed, len(sample)
}

// sampleLocked picks min(k, len) distinct keys using Floyd's algorithm.
func (s *Store) sampleLocked(k int) []string {
	n := len(s.keys)
	if k > n {
		k = n
	}
	if k == 0 {
		return nil
	}

	chosen := make(map[int]struct{}, k)
	out := make([]string, 0, k)
	for j := n - k; j < n; j++ {
		t := rand.IntN(j + 1)
		if _, dup := chosen[t]; dup {
			t = j
		}
		chosen[t] = struct{}{}
		out = append(out, s.keys[t])
	}
	return out
}

// removeLocked deletes key, keeping keys dense by moving the last key
// into the freed slot.
func (s *Store) removeLocked(key string, e *entry) {
	last := len(s.keys) - 1
	if e.slot != last {
		moved := s.keys[last]
		s.keys[e.slot] = moved
		s.entries[moved].slot = e.slot
	}
	s.keys[last] = ""
	s.keys = s.keys[:last]
	delete(s.entries, key)
}

func (s *Store) sweepLoop() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
		}

		passes := 0
		total := 0
		for {
			removed, sampled := s.SweepExpired()
			passes++
			total += removed
			if sampled == 0 || removed*repeatRatio < sampled {
				break
			}
			select {
			case <-s.stopCh:
				return
			default:
			}
		}
		if total > 0 {
			s.logger.Debug("active expiry", "removed", total, "passes", passes)
		}
	}
}

// Close stops the sweeper and waits for it to exit. The store stays
// usable; only active expiry stops.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopCh)
	})
	<-s.doneCh
	return nil
}
