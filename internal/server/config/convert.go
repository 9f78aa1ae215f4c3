package config

import (
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/yndnr/respkv-go/internal/server/redisserver"
	"github.com/yndnr/respkv-go/internal/storage/memory"
	"github.com/yndnr/respkv-go/internal/storage/wal"
)

// ToRedisConfig maps the redis section onto redisserver.Config. tlsConfig
// is required when TLS is enabled.
func ToRedisConfig(cfg *ServerConfig, tlsConfig *tls.Config) (*redisserver.Config, error) {
	if cfg == nil {
		return nil, errors.New("server config is nil")
	}
	r := cfg.Server.Redis
	if r.TLSEnabled && tlsConfig == nil {
		return nil, errors.New("tls_enabled is set but no TLS config was built")
	}

	out := redisserver.DefaultConfig()
	out.Address = r.Addr
	out.TLSEnabled = r.TLSEnabled
	if r.TLSAddr != "" {
		out.TLSAddress = r.TLSAddr
	}
	out.TLSConfig = tlsConfig
	out.UnixSocket = r.UnixSocket
	perm, err := ParseSocketPerm(r.UnixSocketPerm)
	if err != nil {
		return nil, fmt.Errorf("server.redis.unix_socket_perm: %w", err)
	}
	out.UnixSocketPerm = perm
	out.ReadTimeout = r.ReadTimeout
	out.WriteTimeout = r.WriteTimeout
	out.IdleTimeout = r.IdleTimeout
	out.RateLimit = r.RateLimit
	if r.MaxBulkLen > 0 {
		out.MaxBulkLen = r.MaxBulkLen
	}
	return out, nil
}

// ParseSocketPerm parses an octal file mode such as "0770". Empty yields
// zero, which leaves the listener default.
func ParseSocketPerm(s string) (os.FileMode, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(s, 8, 32)
	if err != nil || n > 0777 {
		return 0, fmt.Errorf("invalid octal mode %q", s)
	}
	return os.FileMode(n), nil
}

// ToWALConfig maps the storage section onto wal.Config. ok is false when
// persistence is disabled.
func ToWALConfig(cfg *ServerConfig) (walCfg wal.Config, ok bool, err error) {
	if cfg == nil {
		return wal.Config{}, false, errors.New("server config is nil")
	}
	s := cfg.Storage
	if s.WALPath == "" {
		return wal.Config{}, false, nil
	}

	mode, err := wal.ParseSyncMode(s.WALSync)
	if err != nil {
		return wal.Config{}, false, fmt.Errorf("storage.wal_sync: %w", err)
	}

	walCfg = wal.DefaultConfig(s.WALPath)
	walCfg.SyncMode = mode
	if s.WALSyncInterval > 0 {
		walCfg.SyncInterval = s.WALSyncInterval
	}
	return walCfg, true, nil
}

// StoreOptions maps the storage section onto memory store options.
func StoreOptions(cfg *ServerConfig, logger *slog.Logger) []memory.Option {
	opts := []memory.Option{memory.WithLogger(logger)}
	if cfg == nil {
		return opts
	}
	// Zero values are ignored by the options, leaving the defaults.
	opts = append(opts,
		memory.WithSweepInterval(cfg.Storage.SweepInterval),
		memory.WithSampleSize(cfg.Storage.SweepSample),
	)
	return opts
}
