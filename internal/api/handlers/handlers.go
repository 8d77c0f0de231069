package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"redflag/internal/domain/services/risk"
	"redflag/internal/infrastructure/cache"
	"redflag/internal/infrastructure/database/repository"
	"redflag/internal/streaming"
	"redflag/pkg/logger"
)

// Handlers holds all API handlers
type Handlers struct {
	Health    *HealthHandler
	Analysis  *AnalysisHandler
	Reports   *ReportsHandler
	Patterns  *PatternsHandler
	Stats     *StatsHandler
	Streaming *StreamingHandler
}

// Dependencies holds dependencies for handlers. Repos, Cache, EventBus and
// WSHub may be nil; handlers degrade gracefully without them.
type Dependencies struct {
	Scorer   *risk.Scorer
	Repos    *repository.Repositories
	Cache    *cache.RedisCache
	EventBus *streaming.EventBus
	WSHub    *streaming.WebSocketHub
	Logger   *logger.Logger

	PersistReports bool
	CacheTTL       time.Duration
}

// NewHandlers creates all handlers
func NewHandlers(deps Dependencies) *Handlers {
	return &Handlers{
		Health:    NewHealthHandler(deps.Cache, deps.Repos, deps.Logger),
		Analysis:  NewAnalysisHandler(deps),
		Reports:   NewReportsHandler(deps.Repos, deps.EventBus, deps.Logger),
		Patterns:  NewPatternsHandler(deps.Scorer, deps.Logger),
		Stats:     NewStatsHandler(deps.Repos, deps.Cache, deps.Logger),
		Streaming: NewStreamingHandler(deps.WSHub, deps.Logger),
	}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}
