// Package httpserver provides the admin HTTP server for respkv.
//
// It serves Prometheus metrics and health endpoints using stdlib net/http:
//
//   - /metrics: Prometheus exposition
//   - /healthz, /readyz: liveness and readiness
//   - /v1/status: store and WAL statistics
//
// Every route runs behind the RequestID, Recover and AccessLog
// middlewares. The RESP listener lives in package redisserver.
package httpserver
