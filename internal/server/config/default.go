package config

import (
	"time"

	"github.com/yndnr/respkv-go/internal/storage/memory"
	"github.com/yndnr/respkv-go/internal/storage/wal"
	"github.com/yndnr/respkv-go/pkg/resp"
)

// Default configuration values.
const (
	DefaultRedisAddr    = "0.0.0.0:6379"
	DefaultRedisTLSAddr = "0.0.0.0:6380"
	DefaultHTTPAddr     = "127.0.0.1:9121"

	DefaultReadTimeout  = 30 * time.Second
	DefaultWriteTimeout = 30 * time.Second

	DefaultWALSync = string(wal.SyncModeAlways)

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			Redis: RedisConfig{
				Addr:         DefaultRedisAddr,
				TLSAddr:      DefaultRedisTLSAddr,
				ReadTimeout:  DefaultReadTimeout,
				WriteTimeout: DefaultWriteTimeout,
				MaxBulkLen:   resp.DefaultMaxBulkLen,
			},
			HTTP: HTTPConfig{
				Addr: DefaultHTTPAddr,
			},
		},
		Storage: StorageSection{
			WALSync:         DefaultWALSync,
			WALSyncInterval: wal.DefaultSyncInterval,
			SweepInterval:   memory.DefaultSweepInterval,
			SweepSample:     memory.DefaultSampleSize,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
