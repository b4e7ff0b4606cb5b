package http

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robertarktes/flightdesk/internal/config"
	"github.com/robertarktes/flightdesk/internal/observability"
)

// SetupRouter wires the API. rl may be nil, which disables rate limiting.
func SetupRouter(h *Handlers, logger observability.Logger, rl Limiter, cfg *config.Config) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(RequestIDMiddleware)
	r.Use(LoggerMiddleware(logger))
	r.Use(TracingMiddleware)
	r.Use(MetricsMiddleware)
	r.Use(CORSMiddleware(cfg.CORSOrigins))

	r.Route("/api", func(r chi.Router) {
		r.Get("/flights", h.ListFlights)
		r.With(RateLimitMiddleware(rl, cfg.AttemptRateLimit, time.Minute)).
			Post("/log-attempt/{id}", h.LogAttempt)
		r.Get("/user", h.GetUser)
		r.Post("/book", h.Book)
		r.Post("/chat", h.Chat)
	})

	r.Get("/healthz", h.Healthz)
	r.Get("/readyz", h.Readyz)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	return r
}
