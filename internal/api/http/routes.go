package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter creates the HTTP router with configured routes, middleware and
// handlers: submissions, job lookup, health check and Prometheus metrics.
func NewRouter(pipeline PipelineI, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	handler := NewSubmissionHandler(pipeline, logger)

	r.Post("/submissions", handler.Submit)
	r.Route("/jobs", func(r chi.Router) {
		r.Get("/{jobID}", handler.GetJob)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
