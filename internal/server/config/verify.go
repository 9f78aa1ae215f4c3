package config

import (
	"errors"
	"fmt"
	"net"
	"os"

	"github.com/yndnr/respkv-go/internal/core/service"
	"github.com/yndnr/respkv-go/internal/storage/wal"
	"github.com/yndnr/respkv-go/internal/telemetry/logger"
)

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifyStorage(&cfg.Storage); err != nil {
		return err
	}
	if err := verifySecurity(&cfg.Security); err != nil {
		return err
	}
	return verifyLog(&cfg.Log)
}

func verifyServer(cfg *ServerSection) error {
	r := &cfg.Redis
	if r.Addr == "" && !r.TLSEnabled && r.UnixSocket == "" {
		return errors.New("server.redis.addr is required unless tls_enabled or unix_socket is set")
	}
	if _, err := ParseSocketPerm(r.UnixSocketPerm); err != nil {
		return fmt.Errorf("server.redis.unix_socket_perm: %w", err)
	}
	if err := verifyAddr("server.redis.addr", r.Addr); err != nil {
		return err
	}

	if r.TLSEnabled {
		if err := verifyAddr("server.redis.tls_addr", r.TLSAddr); err != nil {
			return err
		}
		if r.TLSAddr == "" {
			return errors.New("server.redis.tls_addr is required when tls_enabled is set")
		}
		if r.TLSAddr == r.Addr {
			return fmt.Errorf("server.redis.tls_addr conflicts with server.redis.addr (%s)", r.Addr)
		}
		if err := verifyFile("server.redis.tls_cert_file", r.TLSCertFile, true); err != nil {
			return err
		}
		if err := verifyFile("server.redis.tls_key_file", r.TLSKeyFile, true); err != nil {
			return err
		}
		if err := verifyFile("server.redis.tls_client_ca_file", r.TLSClientCAFile, false); err != nil {
			return err
		}
	}

	if r.ReadTimeout < 0 || r.WriteTimeout < 0 || r.IdleTimeout < 0 {
		return errors.New("server.redis timeouts must not be negative")
	}
	if r.RateLimit < 0 {
		return errors.New("server.redis.rate_limit must not be negative")
	}
	if r.MaxBulkLen < 0 {
		return errors.New("server.redis.max_bulk_len must not be negative")
	}

	if err := verifyAddr("server.http.addr", cfg.HTTP.Addr); err != nil {
		return err
	}
	if cfg.HTTP.Addr != "" && (cfg.HTTP.Addr == r.Addr || (r.TLSEnabled && cfg.HTTP.Addr == r.TLSAddr)) {
		return fmt.Errorf("server.http.addr conflicts with a redis listener (%s)", cfg.HTTP.Addr)
	}
	return nil
}

func verifyStorage(cfg *StorageSection) error {
	if _, err := wal.ParseSyncMode(cfg.WALSync); err != nil {
		return fmt.Errorf("storage.wal_sync: %w", err)
	}
	if cfg.WALSyncInterval < 0 {
		return errors.New("storage.wal_sync_interval must not be negative")
	}
	if cfg.SweepInterval < 0 {
		return errors.New("storage.sweep_interval must not be negative")
	}
	if cfg.SweepSample < 0 {
		return errors.New("storage.sweep_sample must not be negative")
	}
	return nil
}

func verifySecurity(cfg *SecuritySection) error {
	if cfg.RequirePassHash == "" {
		return nil
	}
	if _, err := service.ParsePasswordHash(cfg.RequirePassHash); err != nil {
		return fmt.Errorf("security.requirepass_hash: %w", err)
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	if _, err := logger.ParseLevel(cfg.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch cfg.Format {
	case "", "json", "text":
		return nil
	default:
		return fmt.Errorf("log.format: unknown format %q (want json or text)", cfg.Format)
	}
}

// verifyAddr checks host:port syntax. Empty is accepted.
func verifyAddr(name, addr string) error {
	if addr == "" {
		return nil
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return fmt.Errorf("%s: invalid address %q: %w", name, addr, err)
	}
	return nil
}

func verifyFile(name, path string, required bool) error {
	if path == "" {
		if required {
			return fmt.Errorf("%s is required when tls_enabled is set", name)
		}
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s: %s is a directory", name, path)
	}
	return nil
}
