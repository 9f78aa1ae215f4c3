package handler

import "time"

// Response is the standard admin API response envelope.
type Response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
	Details   any    `json:"details,omitempty"`
}

// NewResponse creates a success response.
func NewResponse(requestID string, data any) *Response {
	return &Response{
		Code:      "OK",
		Message:   "Success",
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(requestID, code, message string, details any) *Response {
	return &Response{
		Code:      code,
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Details:   details,
	}
}

// HealthResponse is the data of GET /healthz and GET /readyz.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// StatusResponse is the data of GET /v1/status.
type StatusResponse struct {
	Version       string     `json:"version"`
	UptimeSeconds int64      `json:"uptime_seconds"`
	Keys          int        `json:"keys"`
	LazyExpired   uint64     `json:"lazy_expired"`
	ActiveExpired uint64     `json:"active_expired"`
	WAL           *WALStatus `json:"wal,omitempty"`
}

// WALStatus describes the write-ahead log. It is omitted when persistence
// is disabled.
type WALStatus struct {
	Path    string `json:"path"`
	Appends uint64 `json:"appends"`
	Bytes   uint64 `json:"bytes"`
	Syncs   uint64 `json:"syncs"`
}
