package handlers

import (
	"net/http"
	"time"

	"redflag/internal/domain/models"
	"redflag/internal/infrastructure/cache"
	"redflag/internal/infrastructure/database/repository"
	"redflag/pkg/logger"
)

// statsCacheTTL bounds how stale the public stats endpoint may be
const statsCacheTTL = 30 * time.Second

// StatsHandler serves aggregate statistics over persisted reports
type StatsHandler struct {
	repos  *repository.Repositories
	cache  *cache.RedisCache
	logger *logger.Logger
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(repos *repository.Repositories, c *cache.RedisCache, log *logger.Logger) *StatsHandler {
	return &StatsHandler{
		repos:  repos,
		cache:  c,
		logger: log.WithComponent("stats-handler"),
	}
}

// Get handles GET /api/v1/stats
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.repos == nil {
		respondError(w, http.StatusServiceUnavailable, "persistence not configured")
		return
	}

	ctx := r.Context()

	if h.cache != nil {
		var cached models.Stats
		if err := h.cache.GetJSON(ctx, cache.KeyStats, &cached); err == nil {
			respondJSON(w, http.StatusOK, &cached)
			return
		}
	}

	stats, err := h.repos.Reports.GetStats(ctx)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to compute stats")
		respondError(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}

	if h.cache != nil {
		if err := h.cache.SetJSON(ctx, cache.KeyStats, stats, statsCacheTTL); err != nil {
			h.logger.Debug().Err(err).Msg("failed to cache stats")
		}
	}

	respondJSON(w, http.StatusOK, stats)
}
