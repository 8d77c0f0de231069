package handlers

import (
	"net/http"
	"time"

	"redflag/internal/infrastructure/cache"
	"redflag/internal/infrastructure/database/repository"
	"redflag/pkg/logger"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	cache  *cache.RedisCache
	repos  *repository.Repositories
	logger *logger.Logger

	startTime time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(c *cache.RedisCache, repos *repository.Repositories, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		cache:     c,
		repos:     repos,
		logger:    log.WithComponent("health-handler"),
		startTime: time.Now(),
	}
}

// Check handles GET /health - liveness probe
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "healthy",
		"uptime": time.Since(h.startTime).String(),
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready handles GET /ready - readiness probe, checks backing services
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	checks := make(map[string]string)
	healthy := true

	if h.repos != nil {
		if err := h.repos.Ping(ctx); err != nil {
			checks["postgres"] = "unhealthy: " + err.Error()
			healthy = false
		} else {
			checks["postgres"] = "healthy"
		}
	} else {
		checks["postgres"] = "not configured"
	}

	if h.cache != nil {
		if err := h.cache.Client().Ping(ctx).Err(); err != nil {
			checks["redis"] = "unhealthy: " + err.Error()
			healthy = false
		} else {
			checks["redis"] = "healthy"
		}
	} else {
		checks["redis"] = "not configured"
	}

	status := http.StatusOK
	overall := "ready"
	if !healthy {
		status = http.StatusServiceUnavailable
		overall = "not ready"
	}

	respondJSON(w, status, map[string]any{
		"status": overall,
		"checks": checks,
	})
}
