// Package httpserver runs the small HTTP listener that exposes liveness,
// readiness and queue statistics for the mail worker.
//
//	srv := httpserver.NewFromConfig(cfg, httpserver.WithLogger(log))
//	handler := httpserver.OpsRouter(log, func() any { return worker.Stats() },
//		httpserver.Check{Name: "postgres", Probe: pg.Healthcheck(pool)},
//	)
//	g.Go(func() error { return srv.Run(ctx, handler) })
//
// Run returns once its context is cancelled and the server has shut down.
package httpserver
