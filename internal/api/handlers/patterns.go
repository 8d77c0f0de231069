package handlers

import (
	"net/http"

	"redflag/internal/domain/services/risk"
	"redflag/pkg/logger"
)

// PatternsHandler exposes the active pattern configuration
type PatternsHandler struct {
	scorer *risk.Scorer
	logger *logger.Logger
}

// NewPatternsHandler creates a new patterns handler
func NewPatternsHandler(scorer *risk.Scorer, log *logger.Logger) *PatternsHandler {
	return &PatternsHandler{
		scorer: scorer,
		logger: log.WithComponent("patterns-handler"),
	}
}

// Get handles GET /api/v1/patterns - returns the pattern categories and
// escalation settings the scorer is running with
func (h *PatternsHandler) Get(w http.ResponseWriter, r *http.Request) {
	cfg := h.scorer.Config()

	respondJSON(w, http.StatusOK, map[string]any{
		"categories":          cfg.Categories,
		"intensifiers":        cfg.Intensifiers,
		"frequency_threshold": cfg.FrequencyThreshold,
		"frequency_bonus":     cfg.FrequencyBonus,
	})
}
