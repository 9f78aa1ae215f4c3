package handler

import (
	"net/http"
	"time"
)

// handleStatus handles GET /v1/status.
func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats := h.store.Stats()
	resp := StatusResponse{
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
		Keys:          stats.Keys,
		LazyExpired:   stats.LazyExpired,
		ActiveExpired: stats.ActiveExpired,
	}
	if h.wal != nil {
		ws := h.wal.Stats()
		resp.WAL = &WALStatus{
			Path:    h.wal.Path(),
			Appends: ws.Appends,
			Bytes:   ws.Bytes,
			Syncs:   ws.Syncs,
		}
	}
	h.writeJSON(w, r, http.StatusOK, resp)
}
