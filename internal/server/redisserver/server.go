package redisserver

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yndnr/respkv-go/internal/core/service"
	"github.com/yndnr/respkv-go/internal/server/localserver"
	"github.com/yndnr/respkv-go/pkg/resp"
)

// Config holds the Redis server configuration.
type Config struct {
	// Address is the plaintext listen address. Empty disables it.
	Address string
	// TLSEnabled enables the TLS listener.
	TLSEnabled bool
	// TLSAddress is the address for the TLS listener.
	TLSAddress string
	// TLSConfig is required if TLSEnabled is true.
	TLSConfig *tls.Config
	// UnixSocket is a Unix socket path to also serve on. Empty disables it.
	UnixSocket string
	// UnixSocketPerm is the socket file mode. Zero uses 0700.
	UnixSocketPerm os.FileMode
	// ReadTimeout bounds how long a partially received command may take
	// to arrive. Zero disables it.
	ReadTimeout time.Duration
	// WriteTimeout bounds writing one batch of replies. Zero disables it.
	WriteTimeout time.Duration
	// IdleTimeout closes connections idle between commands. Zero means
	// connections may idle forever.
	IdleTimeout time.Duration
	// RateLimit is the maximum number of commands per second per
	// connection. Zero disables rate limiting.
	RateLimit int
	// MaxBulkLen caps a single bulk string in a request.
	MaxBulkLen int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Address:      "0.0.0.0:6379",
		TLSAddress:   "0.0.0.0:6380",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		MaxBulkLen:   resp.DefaultMaxBulkLen,
	}
}

// Dispatcher executes commands. service.Dispatcher implements it.
type Dispatcher interface {
	DispatchFrame(cmd [][]byte, raw []byte) resp.Value
}

// ConnObserver receives connection lifecycle events.
type ConnObserver interface {
	ConnOpened()
	ConnClosed()
	ProtocolError()
}

type nopObserver struct{}

func (nopObserver) ConnOpened()    {}
func (nopObserver) ConnClosed()    {}
func (nopObserver) ProtocolError() {}

// Server represents the Redis protocol server.
type Server struct {
	cfg        *Config
	limits     resp.Limits
	dispatcher Dispatcher
	password   *service.PasswordVerifier
	observer   ConnObserver
	logger     *slog.Logger

	mu      sync.Mutex
	plainLn net.Listener
	tlsLn   net.Listener
	unixLn  *localserver.Listener
	conns   map[*Conn]struct{}

	running atomic.Bool
	wg      sync.WaitGroup
}

// Option configures the Server.
type Option func(*Server)

// WithPassword requires clients to AUTH against v before running
// commands other than PING, ECHO and QUIT.
func WithPassword(v *service.PasswordVerifier) Option {
	return func(s *Server) {
		s.password = v
	}
}

// WithConnObserver sets the connection observer.
func WithConnObserver(o ConnObserver) Option {
	return func(s *Server) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a new Redis protocol server.
func New(cfg *Config, dispatcher Dispatcher, opts ...Option) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	s := &Server{
		cfg:        cfg,
		limits:     resp.Limits{MaxBulkLen: cfg.MaxBulkLen},
		dispatcher: dispatcher,
		observer:   nopObserver{},
		logger:     slog.Default(),
		conns:      make(map[*Conn]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens the configured listeners and serves them in the background.
// Listen errors are returned; accept errors are logged.
func (s *Server) Start(ctx context.Context) error {
	if s.cfg.Address == "" && !s.cfg.TLSEnabled && s.cfg.UnixSocket == "" {
		return errors.New("redisserver: no listener configured")
	}
	if s.cfg.TLSEnabled && s.cfg.TLSConfig == nil {
		return errors.New("redisserver: TLS enabled without TLS config")
	}

	s.running.Store(true)

	if s.cfg.Address != "" {
		ln, err := net.Listen("tcp", s.cfg.Address)
		if err != nil {
			s.running.Store(false)
			return fmt.Errorf("redisserver: listen %s: %w", s.cfg.Address, err)
		}
		s.mu.Lock()
		s.plainLn = ln
		s.mu.Unlock()
		s.logger.Info("redis server listening", "address", ln.Addr().String())
		s.serve(ctx, ln, "plain")
	}

	if s.cfg.TLSEnabled {
		ln, err := tls.Listen("tcp", s.cfg.TLSAddress, s.cfg.TLSConfig)
		if err != nil {
			_ = s.Shutdown(context.Background())
			return fmt.Errorf("redisserver: listen tls %s: %w", s.cfg.TLSAddress, err)
		}
		s.mu.Lock()
		s.tlsLn = ln
		s.mu.Unlock()
		s.logger.Info("redis TLS server listening", "address", ln.Addr().String())
		s.serve(ctx, ln, "tls")
	}

	if s.cfg.UnixSocket != "" {
		ln, err := localserver.Listen(s.cfg.UnixSocket, s.cfg.UnixSocketPerm)
		if err != nil {
			_ = s.Shutdown(context.Background())
			return fmt.Errorf("redisserver: %w", err)
		}
		s.mu.Lock()
		s.unixLn = ln
		s.mu.Unlock()
		s.logger.Info("redis unix socket listening", "path", ln.Path())
		s.serve(ctx, ln, "unix")
	}

	return nil
}

func (s *Server) serve(ctx context.Context, ln net.Listener, kind string) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.acceptLoop(ctx, ln); err != nil && s.running.Load() {
			s.logger.Error("redis accept loop failed", "listener", kind, "error", err)
		}
	}()
}

// Addr returns the plaintext listener address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.plainLn == nil {
		return nil
	}
	return s.plainLn.Addr()
}

// TLSAddr returns the TLS listener address, or nil if not listening.
func (s *Server) TLSAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tlsLn == nil {
		return nil
	}
	return s.tlsLn.Addr()
}

// UnixPath returns the Unix socket path, or "" if not listening.
func (s *Server) UnixPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unixLn == nil {
		return ""
	}
	return s.unixLn.Path()
}

// Shutdown closes the listeners and every open connection, then waits for
// connection goroutines to exit or ctx to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	s.running.Store(false)

	var firstErr error

	s.mu.Lock()
	listeners := []net.Listener{s.plainLn, s.tlsLn}
	if s.unixLn != nil {
		listeners = append(listeners, s.unixLn)
	}
	for _, ln := range listeners {
		if ln == nil {
			continue
		}
		if err := ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) && firstErr == nil {
			firstErr = err
		}
	}
	for c := range s.conns {
		_ = c.Close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	return firstErr
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) error {
	for {
		nc, err := ln.Accept()
		if err != nil {
			if !s.running.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				time.Sleep(5 * time.Millisecond)
				continue
			}
			return err
		}

		c := newConn(nc, s.cfg.RateLimit)
		if !s.track(c) {
			_ = c.Close()
			return nil
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.untrack(c)
			s.serveConn(ctx, c)
		}()
	}
}

func (s *Server) track(c *Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running.Load() {
		return false
	}
	s.conns[c] = struct{}{}
	s.observer.ConnOpened()
	return true
}

func (s *Server) untrack(c *Conn) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
	s.observer.ConnClosed()
}

// ConnCount returns the number of open client connections.
func (s *Server) ConnCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// Running reports whether Start succeeded and Shutdown has not been
// called.
func (s *Server) Running() bool {
	return s.running.Load()
}
