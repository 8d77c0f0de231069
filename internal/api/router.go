package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"redflag/internal/api/handlers"
	"redflag/internal/api/middleware"
	"redflag/internal/config"
	"redflag/internal/infrastructure/cache"
	"redflag/pkg/logger"
)

// NewRouter builds the HTTP router with all routes and middleware
func NewRouter(cfg *config.Config, h *handlers.Handlers, c *cache.RedisCache, log *logger.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           cfg.CORS.MaxAge,
	}))

	if cfg.RateLimit.Enabled && c != nil {
		r.Use(middleware.RateLimiter(c, cfg.RateLimit))
	}

	// Public endpoints
	r.Get("/health", h.Health.Check)
	r.Get("/ready", h.Health.Ready)

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/stats", h.Stats.Get)

		// Authenticated endpoints
		r.Group(func(r chi.Router) {
			r.Use(middleware.APIKeyAuth(cfg.Auth.APIKey))

			r.Post("/chat/analyze", h.Analysis.Analyze)
			r.Post("/chat/analyze/transcript", h.Analysis.AnalyzeTranscript)

			r.Get("/reports", h.Reports.List)
			r.Get("/reports/{id}", h.Reports.Get)

			r.Get("/patterns", h.Patterns.Get)

			r.Get("/ws", h.Streaming.ServeWS)
			r.Get("/ws/status", h.Streaming.Status)
		})

		// Admin endpoints
		r.Group(func(r chi.Router) {
			r.Use(middleware.APIKeyAuth(cfg.Auth.APIKey))
			r.Use(middleware.AdminAuth(cfg.Auth.AdminToken))

			r.Delete("/reports/{id}", h.Reports.Delete)
		})
	})

	return r
}
