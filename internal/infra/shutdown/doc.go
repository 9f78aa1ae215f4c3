// Package shutdown provides graceful shutdown for respkv.
//
// A Handler collects named hooks during startup and runs them in reverse
// registration order once SIGINT or SIGTERM arrives, Trigger is called or
// the context passed to Wait is cancelled. All hooks share one timeout.
//
// Usage:
//
//	h := shutdown.NewHandler(30*time.Second, logger)
//	h.OnShutdown("store", func(context.Context) error { return store.Close() })
//	h.OnShutdown("redis", srv.Shutdown)
//	err := h.Wait(ctx) // redis first, then store
package shutdown
