package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"redflag/internal/infrastructure/database/repository"
	"redflag/internal/streaming"
	"redflag/pkg/logger"
)

// ReportsHandler handles persisted report endpoints
type ReportsHandler struct {
	repos    *repository.Repositories
	eventBus *streaming.EventBus
	logger   *logger.Logger
}

// NewReportsHandler creates a new reports handler
func NewReportsHandler(repos *repository.Repositories, eventBus *streaming.EventBus, log *logger.Logger) *ReportsHandler {
	return &ReportsHandler{
		repos:    repos,
		eventBus: eventBus,
		logger:   log.WithComponent("reports-handler"),
	}
}

// List handles GET /api/v1/reports
func (h *ReportsHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.repos == nil {
		respondError(w, http.StatusServiceUnavailable, "persistence not configured")
		return
	}

	level := r.URL.Query().Get("level")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}

	reports, total, err := h.repos.Reports.List(r.Context(), level, limit, offset)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list reports")
		respondError(w, http.StatusInternalServerError, "failed to list reports")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"reports": reports,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}

// Get handles GET /api/v1/reports/{id}
func (h *ReportsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.repos == nil {
		respondError(w, http.StatusServiceUnavailable, "persistence not configured")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid report ID")
		return
	}

	report, err := h.repos.Reports.GetByID(r.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		respondError(w, http.StatusNotFound, "report not found")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("report_id", id.String()).Msg("failed to get report")
		respondError(w, http.StatusInternalServerError, "failed to get report")
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// Delete handles DELETE /api/v1/reports/{id}
func (h *ReportsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h.repos == nil {
		respondError(w, http.StatusServiceUnavailable, "persistence not configured")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid report ID")
		return
	}

	err = h.repos.Reports.Delete(r.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		respondError(w, http.StatusNotFound, "report not found")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("report_id", id.String()).Msg("failed to delete report")
		respondError(w, http.StatusInternalServerError, "failed to delete report")
		return
	}

	h.logger.Info().Str("report_id", id.String()).Msg("report deleted")

	if h.eventBus != nil {
		event := &streaming.AnalysisEvent{
			ID:        uuid.New().String(),
			Type:      streaming.EventTypeReportDeleted,
			ReportID:  id.String(),
			Timestamp: time.Now(),
		}
		if err := h.eventBus.Publish(r.Context(), event); err != nil {
			h.logger.Warn().Err(err).Msg("failed to publish deletion event")
		}
	}

	w.WriteHeader(http.StatusNoContent)
}
