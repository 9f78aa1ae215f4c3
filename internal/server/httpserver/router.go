package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/yndnr/respkv-go/internal/server/httpserver/handler"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// Handler serves /healthz, /readyz and /v1/status.
	Handler handler.Config

	// Metrics serves /metrics. Nil leaves the route unregistered.
	Metrics http.Handler

	// Logger for request logging.
	Logger *slog.Logger
}

// NewRouter creates the admin HTTP router.
func NewRouter(cfg *RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Handler.Logger == nil {
		cfg.Handler.Logger = logger
	}

	h := handler.New(cfg.Handler)
	mux := http.NewServeMux()

	// Order: RequestID -> Recover -> AccessLog -> handler.
	chain := []Middleware{RequestID(), Recover(logger), AccessLog(logger)}

	mux.Handle("GET /healthz", Chain(h, chain...))
	mux.Handle("GET /readyz", Chain(h, chain...))
	mux.Handle("GET /v1/status", Chain(h, chain...))

	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", Chain(cfg.Metrics, chain...))
	}

	return mux
}
