// Package metric provides Prometheus metrics for respkv.
//
//   - prometheus.go: registry, event counters and the /metrics handler
//   - collector.go: collectors that read store and WAL counters at scrape
//     time
//
// Metrics exposed:
//
//   - respkv_commands_total{command,result}
//   - respkv_command_duration_seconds{command}
//   - respkv_connections_active, respkv_connections_total
//   - respkv_protocol_errors_total
//   - respkv_keys, respkv_expired_keys_total{mode}
//   - respkv_wal_appends_total, respkv_wal_bytes_total,
//     respkv_wal_replayed_commands_total
package metric
