package config

import "time"

// ServerConfig is the root configuration for respkv-server.
type ServerConfig struct {
	Server   ServerSection   `koanf:"server"`
	Storage  StorageSection  `koanf:"storage"`
	Security SecuritySection `koanf:"security"`
	Log      LogSection      `koanf:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	Redis RedisConfig `koanf:"redis"`
	HTTP  HTTPConfig  `koanf:"http"`
}

// RedisConfig configures the RESP listener.
type RedisConfig struct {
	Addr string `koanf:"addr"`

	TLSEnabled      bool   `koanf:"tls_enabled"`
	TLSAddr         string `koanf:"tls_addr"`
	TLSCertFile     string `koanf:"tls_cert_file"`
	TLSKeyFile      string `koanf:"tls_key_file"`
	TLSClientCAFile string `koanf:"tls_client_ca_file"` // non-empty requires client certificates

	UnixSocket     string `koanf:"unix_socket"`
	UnixSocketPerm string `koanf:"unix_socket_perm"` // octal, e.g. "0700"

	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"`

	// RateLimit is commands per second per connection. 0 disables it.
	RateLimit int `koanf:"rate_limit"`

	MaxBulkLen int `koanf:"max_bulk_len"`
}

// HTTPConfig configures the admin HTTP server. An empty Addr disables it.
type HTTPConfig struct {
	Addr string `koanf:"addr"`
}

// StorageSection configures the store and the write-ahead log.
type StorageSection struct {
	// WALPath is the log file. Empty disables persistence.
	WALPath         string        `koanf:"wal_path"`
	WALSync         string        `koanf:"wal_sync"`
	WALSyncInterval time.Duration `koanf:"wal_sync_interval"`

	SweepInterval time.Duration `koanf:"sweep_interval"`
	SweepSample   int           `koanf:"sweep_sample"`
}

// SecuritySection configures security settings.
type SecuritySection struct {
	// RequirePassHash is an argon2id PHC string. Empty disables AUTH.
	RequirePassHash string `koanf:"requirepass_hash"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
