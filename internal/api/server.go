// Package api wires the Chi router for the ingestion and read APIs.
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	corslib "github.com/rs/cors"

	"github.com/hoopslive/hoops-data/internal/api/handler"
	"github.com/hoopslive/hoops-data/internal/config"
)

// NewRouter creates and configures the Chi router with all middleware and routes.
func NewRouter(h *handler.Handler, cfg *config.Config) *chi.Mux {
	r := chi.NewRouter()

	// --- Middleware stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(TimingMiddleware)
	r.Use(middleware.Compress(5)) // gzip

	// CORS
	c := corslib.New(corslib.Options{
		AllowedOrigins:   cfg.CORSAllowOrigins,
		AllowedMethods:   []string{"GET", "HEAD", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Encoding", "Content-Type"},
		ExposedHeaders:   []string{"X-Process-Time", "X-Cache"},
		AllowCredentials: false,
	})
	r.Use(c.Handler)

	// Rate limiting
	if cfg.RateLimitEnabled {
		r.Use(RateLimitMiddleware(cfg.RateLimitRequests, cfg.RateLimitWindow))
	}

	// --- Routes ---

	// Root
	r.Get("/", h.Root)

	// Health checks
	r.Route("/health", func(r chi.Router) {
		r.Get("/", h.HealthCheck)
		r.Get("/db", h.HealthCheckDB)
		r.Get("/redis", h.HealthCheckRedis)
	})

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Ingestion
		r.Post("/ingest/event", h.IngestEvent)

		// Stats read path (cache-aside)
		r.Get("/players/{playerID}/stats", h.GetPlayerStats)
		r.Get("/teams/{teamID}/stats", h.GetTeamStats)
	})

	// WebSocket ingestion
	r.Get("/ws/events", h.GameEventsSocket)

	return r
}
