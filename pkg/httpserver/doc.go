// Package httpserver runs an http.Handler until its context ends and then
// shuts it down gracefully.
//
//	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
//	err := srv.Run(ctx, router)
//
// HealthCheckHandler serves liveness and readiness probes over named
// dependency checks.
package httpserver
