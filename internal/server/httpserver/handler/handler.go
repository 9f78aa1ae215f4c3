package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/yndnr/respkv-go/internal/storage/memory"
	"github.com/yndnr/respkv-go/internal/storage/wal"
)

// StoreSource exposes store counters.
type StoreSource interface {
	Stats() memory.Stats
}

// WALSource exposes write-ahead log counters.
type WALSource interface {
	Path() string
	Stats() wal.WriterStats
}

// Config holds the handler dependencies. Only Store is required.
type Config struct {
	Store StoreSource

	// WAL is nil when persistence is disabled.
	WAL WALSource

	// Ready reports whether the node accepts RESP traffic. Nil means
	// always ready.
	Ready func() error

	Version string
	Logger  *slog.Logger
}

// Handler serves the admin endpoints.
type Handler struct {
	store   StoreSource
	wal     WALSource
	ready   func() error
	version string
	started time.Time
	logger  *slog.Logger
	mux     *http.ServeMux
}

// New creates a Handler.
func New(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		store:   cfg.Store,
		wal:     cfg.WAL,
		ready:   cfg.Ready,
		version: cfg.Version,
		started: time.Now(),
		logger:  logger,
		mux:     http.NewServeMux(),
	}

	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("GET /healthz", h.handleHealth)
	h.mux.HandleFunc("GET /readyz", h.handleReady)
	h.mux.HandleFunc("GET /v1/status", h.handleStatus)
}

// writeJSON writes a JSON response with standard envelope format.
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	requestID := getRequestID(r)
	response := NewResponse(requestID, data)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// writeError writes an error response with standard envelope format.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, details any) {
	requestID := getRequestID(r)
	response := NewErrorResponse(requestID, code, message, details)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", code)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// getRequestID returns the id set by the RequestID middleware, which
// stores it on the request header.
func getRequestID(r *http.Request) string {
	return r.Header.Get("X-Request-ID")
}
