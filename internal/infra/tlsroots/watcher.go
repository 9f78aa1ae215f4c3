package tlsroots

import (
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last change to the
// certificate or key before they are reloaded. Renewal tools usually
// write both files in quick succession.
const DefaultDebounce = 500 * time.Millisecond

// Watcher serves a certificate and key pair and reloads them when either
// file changes on disk. A failed reload keeps the previous certificate.
type Watcher struct {
	certFile string
	keyFile  string
	logger   *slog.Logger
	debounce time.Duration

	cert    atomic.Pointer[tls.Certificate]
	reloads atomic.Uint64

	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	timer    *time.Timer
	done     chan struct{}
	exited   chan struct{}
	stopOnce sync.Once
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithLogger sets the logger for the watcher.
func WithLogger(logger *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithDebounce sets the reload debounce. Zero reloads on every event.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d >= 0 {
			w.debounce = d
		}
	}
}

// NewWatcher loads the key pair. Watching starts with Start.
func NewWatcher(certFile, keyFile string, opts ...WatcherOption) (*Watcher, error) {
	w := &Watcher{
		certFile: filepath.Clean(certFile),
		keyFile:  filepath.Clean(keyFile),
		logger:   slog.Default(),
		debounce: DefaultDebounce,
		done:     make(chan struct{}),
		exited:   make(chan struct{}),
	}

	for _, opt := range opts {
		opt(w)
	}

	if err := w.reload(); err != nil {
		return nil, fmt.Errorf("tlsroots: initial load: %w", err)
	}
	return w, nil
}

// Start begins watching the directories holding the certificate and key.
// Directories are watched rather than files so that atomic replacement by
// rename is seen. Start returns once the watches are in place.
func (w *Watcher) Start() error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("tlsroots: create watcher: %w", err)
	}

	dirs := []string{filepath.Dir(w.certFile)}
	if d := filepath.Dir(w.keyFile); d != dirs[0] {
		dirs = append(dirs, d)
	}
	for _, dir := range dirs {
		if err := fw.Add(dir); err != nil {
			_ = fw.Close()
			return fmt.Errorf("tlsroots: watch %s: %w", dir, err)
		}
	}

	w.mu.Lock()
	if w.watcher != nil {
		w.mu.Unlock()
		_ = fw.Close()
		return errors.New("tlsroots: watcher already started")
	}
	w.watcher = fw
	w.mu.Unlock()

	w.logger.Info("certificate watcher started",
		"cert_file", w.certFile,
		"key_file", w.keyFile,
	)

	go w.loop(fw)
	return nil
}

func (w *Watcher) loop(fw *fsnotify.Watcher) {
	defer close(w.exited)

	for {
		select {
		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			name := filepath.Clean(event.Name)
			if name != w.certFile && name != w.keyFile {
				continue
			}
			w.logger.Debug("certificate file changed",
				"file", name,
				"op", event.Op.String(),
			)
			w.schedule()

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger.Error("certificate watcher error",
				"error", err,
				"cert_file", w.certFile,
			)

		case <-w.done:
			return
		}
	}
}

func (w *Watcher) schedule() {
	if w.debounce == 0 {
		w.reloadLogged()
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reloadLogged)
}

func (w *Watcher) reloadLogged() {
	select {
	case <-w.done:
		return
	default:
	}
	if err := w.reload(); err != nil {
		w.logger.Error("certificate reload failed, keeping previous certificate",
			"error", err,
			"cert_file", w.certFile,
			"key_file", w.keyFile,
		)
	}
}

// Stop stops watching and waits for the watch loop to exit. It is safe
// to call more than once, and before Start.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)

		w.mu.Lock()
		fw := w.watcher
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()

		if fw == nil {
			return
		}
		<-w.exited
		if err := fw.Close(); err != nil {
			w.logger.Error("failed to close certificate watcher", "error", err)
		}
	})
}

// GetCertificate returns the current certificate. It has the signature
// of tls.Config.GetCertificate.
func (w *Watcher) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	return w.cert.Load(), nil
}

// GetClientCertificate returns the current certificate. It has the
// signature of tls.Config.GetClientCertificate.
func (w *Watcher) GetClientCertificate(*tls.CertificateRequestInfo) (*tls.Certificate, error) {
	return w.cert.Load(), nil
}

// Reloads returns how many times the pair was loaded, including the
// initial load.
func (w *Watcher) Reloads() uint64 {
	return w.reloads.Load()
}

func (w *Watcher) reload() error {
	cert, err := tls.LoadX509KeyPair(w.certFile, w.keyFile)
	if err != nil {
		return fmt.Errorf("load key pair: %w", err)
	}
	w.cert.Store(&cert)
	n := w.reloads.Add(1)

	w.logger.Info("certificate loaded",
		"cert_file", w.certFile,
		"generation", n,
	)
	return nil
}
