package httpserver

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/yndnr/respkv-go/internal/server/httpserver/handler"
	"github.com/yndnr/respkv-go/internal/storage/memory"
	"github.com/yndnr/respkv-go/internal/telemetry/metric"
)

func TestNew(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	s := New(":8080", h)
	if s == nil {
		t.Fatal("New returned nil")
	}
	if s.httpServer == nil {
		t.Error("httpServer is nil")
	}
	if s.handler == nil {
		t.Error("handler is nil")
	}
	if s.httpServer.ReadHeaderTimeout != DefaultReadHeaderTimeout {
		t.Errorf("ReadHeaderTimeout = %v, want %v", s.httpServer.ReadHeaderTimeout, DefaultReadHeaderTimeout)
	}
	if s.Addr() != ":8080" {
		t.Errorf("Addr() = %q before Start, want :8080", s.Addr())
	}
}

func TestServer_Shutdown(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	s := New("127.0.0.1:0", h)

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.ListenAndServe()
	}()

	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown error: %v", err)
	}

	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			t.Errorf("ListenAndServe returned unexpected error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Error("timeout waiting for ListenAndServe to return")
	}
}

func TestServer_StartServesAndShutsDown(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "pong")
	})
	s := New("127.0.0.1:0", h)

	errCh := make(chan error, 1)
	if err := s.Start(errCh); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	resp, err := http.Get("http://" + s.Addr() + "/")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "pong" {
		t.Errorf("body = %q, want pong", body)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	select {
	case err := <-errCh:
		t.Errorf("unexpected serve error after shutdown: %v", err)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestServer_StartAddressInUse(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	s := New(ln.Addr().String(), http.NotFoundHandler())
	if err := s.Start(nil); err == nil {
		_ = s.Shutdown(context.Background())
		t.Fatal("Start() on a bound address succeeded")
	}
}

// ============================================================
// Router
// ============================================================

func newTestRouter(t *testing.T) (http.Handler, *memory.Store) {
	t.Helper()
	store := memory.New(memory.WithoutSweeper())
	t.Cleanup(func() { _ = store.Close() })

	reg := metric.NewRegistry()
	reg.MustRegister(metric.NewCollector(store, nil))

	router := NewRouter(&RouterConfig{
		Handler: handler.Config{Store: store, Version: "test"},
		Metrics: reg.Handler(),
	})
	return router, store
}

func TestNewRouter_Routes(t *testing.T) {
	router, _ := newTestRouter(t)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/healthz", http.StatusOK},
		{http.MethodGet, "/readyz", http.StatusOK},
		{http.MethodGet, "/v1/status", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodPost, "/metrics", http.StatusMethodNotAllowed},
		{http.MethodGet, "/admin/v1/config", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestNewRouter_MetricsExposeStore(t *testing.T) {
	router, store := newTestRouter(t)
	store.Set("a", []byte("1"))
	store.Set("b", []byte("2"))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if !strings.Contains(rec.Body.String(), "respkv_keys 2") {
		t.Errorf("metrics output missing respkv_keys 2:\n%s", rec.Body.String())
	}
}

func TestNewRouter_RequestIDOnEveryRoute(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, path := range []string{"/healthz", "/v1/status", "/metrics"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if !strings.HasPrefix(rec.Header().Get("X-Request-ID"), "req-") {
			t.Errorf("%s: X-Request-ID = %q", path, rec.Header().Get("X-Request-ID"))
		}
	}
}

func TestNewRouter_NoMetrics(t *testing.T) {
	store := memory.New(memory.WithoutSweeper())
	defer store.Close()

	router := NewRouter(&RouterConfig{Handler: handler.Config{Store: store}})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 without a metrics handler", rec.Code)
	}
}
