package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/respkv-go/internal/core/service"
	"github.com/yndnr/respkv-go/internal/infra/buildinfo"
	"github.com/yndnr/respkv-go/internal/infra/confloader"
	"github.com/yndnr/respkv-go/internal/infra/shutdown"
	"github.com/yndnr/respkv-go/internal/infra/tlsroots"
	"github.com/yndnr/respkv-go/internal/server/config"
	"github.com/yndnr/respkv-go/internal/server/httpserver"
	"github.com/yndnr/respkv-go/internal/server/httpserver/handler"
	"github.com/yndnr/respkv-go/internal/server/redisserver"
	"github.com/yndnr/respkv-go/internal/storage/memory"
	"github.com/yndnr/respkv-go/internal/storage/wal"
	"github.com/yndnr/respkv-go/internal/telemetry/logger"
	"github.com/yndnr/respkv-go/internal/telemetry/metric"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// flagKeys maps command line flags onto configuration keys.
var flagKeys = map[string]string{
	"addr":        "server.redis.addr",
	"unix-socket": "server.redis.unix_socket",
	"http-addr":   "server.http.addr",
	"wal":         "storage.wal_path",
	"log-level":   "log.level",
	"log-format":  "log.format",
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "respkv-server",
		Usage:   "Redis-compatible in-memory key-value server",
		Version: buildinfo.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to configuration file",
				EnvVars: []string{"RESPKV_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "addr",
				Usage: "RESP listen address",
			},
			&cli.StringFlag{
				Name:  "unix-socket",
				Usage: "also serve RESP on this Unix socket",
			},
			&cli.StringFlag{
				Name:  "http-addr",
				Usage: "admin HTTP listen address, empty disables it",
			},
			&cli.StringFlag{
				Name:  "wal",
				Usage: "write-ahead log path, empty disables persistence",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level (debug, info, warn, error)",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "log format (json, text)",
			},
		},
		Action: func(c *cli.Context) error {
			return run(c.Context, c.String("config"), flagOverrides(c.IsSet, c.String))
		},
	}
}

// flagOverrides returns the explicitly set flags as dotted config keys.
func flagOverrides(isSet func(string) bool, value func(string) string) map[string]any {
	out := make(map[string]any)
	for name, key := range flagKeys {
		if isSet(name) {
			out[key] = value(name)
		}
	}
	return out
}

func run(ctx context.Context, configFile string, flags map[string]any) error {
	// Load configuration
	loader := newLoader(configFile, flags)
	cfg, err := loadConfig(loader)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stderr,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)
	slogLogger := log.Slog()

	info := buildinfo.Get()
	log.Info("starting respkv-server",
		"version", info.Version,
		"commit", info.Commit,
		"config", configFile)
	log.Debug("effective configuration", "config", config.Sanitize(cfg))

	// Hooks run in reverse order of registration.
	sh := shutdown.NewHandler(shutdown.DefaultTimeout, slogLogger)
	abort := func(err error) error {
		sh.Trigger("startup failed")
		if hookErr := sh.Wait(context.Background()); hookErr != nil {
			return errors.Join(err, hookErr)
		}
		return err
	}

	// Store
	store := memory.New(config.StoreOptions(cfg, slogLogger)...)
	sh.OnShutdown("store", func(context.Context) error {
		return store.Close()
	})

	registry := metric.NewRegistry()

	// Write-ahead log: replay, then open for append
	writer, err := openWAL(cfg, store, registry, slogLogger)
	if err != nil {
		return abort(err)
	}

	var walSource handler.WALSource
	dispatcherOpts := []service.Option{
		service.WithObserver(registry),
		service.WithLogger(slogLogger),
	}
	if writer != nil {
		walSource = writer
		dispatcherOpts = append(dispatcherOpts, service.WithPersister(writer))
		registry.MustRegister(metric.NewCollector(store, writer))
		sh.OnShutdown("wal", func(context.Context) error {
			return writer.Close()
		})
	} else {
		registry.MustRegister(metric.NewCollector(store, nil))
	}

	dispatcher := service.NewDispatcher(store, dispatcherOpts...)

	// RESP server
	tlsConfig, certWatcher, err := buildRedisTLS(cfg, slogLogger)
	if err != nil {
		return abort(err)
	}
	if certWatcher != nil {
		sh.OnShutdown("certificate watcher", func(context.Context) error {
			certWatcher.Stop()
			return nil
		})
	}

	redisCfg, err := config.ToRedisConfig(cfg, tlsConfig)
	if err != nil {
		return abort(err)
	}
	redisOpts := []redisserver.Option{
		redisserver.WithConnObserver(registry),
		redisserver.WithLogger(slogLogger),
	}
	if hash := cfg.Security.RequirePassHash; hash != "" {
		verifier, err := service.ParsePasswordHash(hash)
		if err != nil {
			return abort(fmt.Errorf("security.requirepass_hash: %w", err))
		}
		redisOpts = append(redisOpts, redisserver.WithPassword(verifier))
	}

	redisSrv := redisserver.New(redisCfg, dispatcher, redisOpts...)
	if err := redisSrv.Start(ctx); err != nil {
		return abort(err)
	}
	sh.OnShutdown("redis server", redisSrv.Shutdown)

	// Admin HTTP server
	if addr := cfg.Server.HTTP.Addr; addr != "" {
		router := httpserver.NewRouter(&httpserver.RouterConfig{
			Handler: handler.Config{
				Store: store,
				WAL:   walSource,
				Ready: func() error {
					if !redisSrv.Running() {
						return errors.New("redis listener is not running")
					}
					return nil
				},
				Version: info.Version,
			},
			Metrics: registry.Handler(),
			Logger:  slogLogger,
		})

		httpSrv := httpserver.New(addr, router)
		errCh := make(chan error, 1)
		if err := httpSrv.Start(errCh); err != nil {
			return abort(fmt.Errorf("start http server: %w", err))
		}
		sh.OnShutdown("http server", httpSrv.Shutdown)
		log.Info("admin HTTP server listening", "addr", httpSrv.Addr())

		go func() {
			select {
			case err := <-errCh:
				log.Error("admin HTTP server failed", "error", err)
				sh.Trigger("http server failed")
			case <-sh.Done():
			}
		}()
	}

	// Config watcher
	if path := loader.FilePath(); path != "" {
		if stop, err := watchConfig(path, loader, log); err != nil {
			log.Warn("config file will not be watched", "path", path, "error", err)
		} else {
			sh.OnShutdown("config watcher", func(context.Context) error { return stop() })
		}
	}

	log.Info("server started, press Ctrl+C to stop")
	if err := sh.Wait(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}

	log.Info("server stopped gracefully")
	return nil
}

func newLoader(configFile string, flags map[string]any) *confloader.Loader {
	opts := []confloader.Option{confloader.WithFlags(flags)}
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}
	return confloader.NewLoader(opts...)
}

// loadConfig reads every source over the defaults and validates the result.
func loadConfig(loader *confloader.Loader) (*config.ServerConfig, error) {
	cfg := config.Default()
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}
	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// openWAL replays the log into store and opens it for appending. It
// returns a nil writer when persistence is disabled or the log cannot be
// opened; only invalid configuration is an error.
func openWAL(cfg *config.ServerConfig, store *memory.Store, registry *metric.Registry, logger *slog.Logger) (*wal.Writer, error) {
	walCfg, enabled, err := config.ToWALConfig(cfg)
	if err != nil {
		return nil, err
	}
	if !enabled {
		logger.Info("persistence disabled")
		return nil, nil
	}

	replayer := service.NewDispatcher(store, service.WithLogger(logger))
	stats, err := wal.Replay(walCfg.Path, replayer, logger)
	if err != nil {
		logger.Warn("wal replay stopped early", "path", walCfg.Path, "error", err)
	}
	registry.AddReplayed(stats.Commands)
	logger.Info("wal replayed",
		"path", walCfg.Path,
		"commands", stats.Commands,
		"rejected", stats.Rejected,
		"bytes", stats.Bytes,
		"truncated", stats.Truncated)

	if stats.Corrupt {
		logger.Warn("wal has a corrupt record, persistence disabled",
			"path", walCfg.Path, "offset", stats.Bytes)
		return nil, nil
	}
	if stats.TornTail && err == nil {
		if err := wal.TruncateTail(walCfg.Path, stats.Bytes); err != nil {
			logger.Warn("wal tail not repaired, persistence disabled", "path", walCfg.Path, "error", err)
			return nil, nil
		}
		logger.Warn("wal tail truncated", "path", walCfg.Path, "size", stats.Bytes)
	}

	writer, err := wal.Open(walCfg)
	if err != nil {
		logger.Warn("wal unavailable, persistence disabled", "path", walCfg.Path, "error", err)
		return nil, nil
	}
	logger.Info("wal opened", "path", walCfg.Path, "sync", string(walCfg.SyncMode))
	return writer, nil
}

// buildRedisTLS returns the RESP TLS config, or nil when TLS is off. The
// certificate is served through a watcher so renewals apply without a
// restart.
func buildRedisTLS(cfg *config.ServerConfig, logger *slog.Logger) (*tls.Config, *tlsroots.Watcher, error) {
	r := cfg.Server.Redis
	if !r.TLSEnabled {
		return nil, nil, nil
	}

	var clientCAs *tlsroots.Pool
	if r.TLSClientCAFile != "" {
		pool, err := tlsroots.LoadPool(r.TLSClientCAFile)
		if err != nil {
			return nil, nil, fmt.Errorf("server.redis.tls_client_ca_file: %w", err)
		}
		clientCAs = pool
	}

	watcher, err := tlsroots.NewWatcher(r.TLSCertFile, r.TLSKeyFile, tlsroots.WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}
	if err := watcher.Start(); err != nil {
		logger.Warn("certificate changes will not be picked up", "error", err)
	}

	return tlsroots.ServerTLSConfig(watcher.GetCertificate, clientCAs), watcher, nil
}

// watchConfig reloads the config file on change and applies the log
// level. It returns a function that stops watching.
func watchConfig(path string, loader *confloader.Loader, log logger.Logger) (func() error, error) {
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(log.Slog()))
	if err != nil {
		return nil, err
	}
	if err := w.Watch(path); err != nil {
		_ = w.Stop()
		return nil, err
	}

	w.OnChange(func(string) {
		applyReload(loader, log)
	})
	w.StartAsync()
	return w.Stop, nil
}

// applyReload re-reads every source. Only log.level takes effect at
// runtime.
func applyReload(loader *confloader.Loader, log logger.Logger) {
	next := config.Default()
	if err := loader.Reload(next); err != nil {
		log.Warn("config reload failed", "error", err)
		return
	}
	if err := config.Verify(next); err != nil {
		log.Warn("reloaded config rejected", "error", err)
		return
	}

	before := logger.GetLevel()
	if err := logger.SetLevel(next.Log.Level); err != nil {
		log.Warn("log level not applied", "level", next.Log.Level, "error", err)
		return
	}
	log.Info("config reloaded", "log_level_before", before, "log_level", logger.GetLevel())
}
