// Package handler provides the admin HTTP handlers for respkv.
//
// Endpoints:
//
//   - GET /healthz: liveness, always 200 while the process serves HTTP
//   - GET /readyz: 200 once the RESP listener accepts connections, 503 before
//   - GET /v1/status: key count, expiry counters and WAL statistics
//
// JSON responses share the envelope defined in types.go. /metrics is not
// served here; the router mounts the Prometheus handler directly.
package handler
