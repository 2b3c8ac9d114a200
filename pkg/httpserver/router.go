package httpserver

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// OpsRouter serves the operational endpoints of the queue worker:
//
//	GET /healthz  liveness
//	GET /readyz   readiness over checks
//	GET /stats    JSON from stats, when set
func OpsRouter(log *slog.Logger, stats func() any, checks ...Check) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", LivenessHandler())
	r.Get("/readyz", ReadinessHandler(log, 5*time.Second, checks...))
	if stats != nil {
		r.Get("/stats", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, stats())
		})
	}
	return r
}
