package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	"redflag/internal/domain/models"
	"redflag/internal/domain/services/risk"
	"redflag/internal/infrastructure/cache"
	"redflag/internal/infrastructure/database/repository"
	"redflag/internal/streaming"
	"redflag/internal/transcript"
	"redflag/pkg/logger"
)

// AnalysisHandler handles chat analysis endpoints
type AnalysisHandler struct {
	scorer   *risk.Scorer
	repos    *repository.Repositories
	cache    *cache.RedisCache
	eventBus *streaming.EventBus
	logger   *logger.Logger

	persist  bool
	cacheTTL time.Duration
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(deps Dependencies) *AnalysisHandler {
	ttl := deps.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &AnalysisHandler{
		scorer:   deps.Scorer,
		repos:    deps.Repos,
		cache:    deps.Cache,
		eventBus: deps.EventBus,
		logger:   deps.Logger.WithComponent("analysis-handler"),
		persist:  deps.PersistReports,
		cacheTTL: ttl,
	}
}

// AnalyzeRequest is the request body for chat analysis
type AnalyzeRequest struct {
	Title    string               `json:"title,omitempty"`
	Text     string               `json:"text"`
	Messages []models.ChatMessage `json:"messages,omitempty"`
}

// AnalyzeTranscriptRequest is the request body for raw transcript analysis
type AnalyzeTranscriptRequest struct {
	Title   string `json:"title,omitempty"`
	Content string `json:"content"`
}

// Analyze handles POST /api/v1/chat/analyze - scores pre-parsed chat content
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Debug().Err(err).Msg("invalid request body")
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Text == "" && len(req.Messages) == 0 {
		respondError(w, http.StatusBadRequest, "text or messages required")
		return
	}

	text := req.Text
	if text == "" {
		text = transcript.Flatten(req.Messages)
	}

	report := h.analyze(r, req.Title, text, req.Messages)
	respondJSON(w, http.StatusOK, report)
}

// AnalyzeTranscript handles POST /api/v1/chat/analyze/transcript - parses a
// raw chat export and scores it
func (h *AnalysisHandler) AnalyzeTranscript(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeTranscriptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Debug().Err(err).Msg("invalid request body")
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Content == "" {
		respondError(w, http.StatusBadRequest, "transcript content is required")
		return
	}

	messages := transcript.Parse(req.Content)
	report := h.analyze(r, req.Title, req.Content, messages)
	respondJSON(w, http.StatusOK, report)
}

// analyze runs the scorer and performs the side work around it: optional
// persistence, caching, event publication. Scoring itself never fails.
func (h *AnalysisHandler) analyze(r *http.Request, title, text string, messages []models.ChatMessage) *models.AnalysisReport {
	ctx := r.Context()

	// identical transcripts hit the cache when nothing is persisted
	contentHash := hashContent(text)
	if !h.persist && h.cache != nil {
		var cached models.AnalysisReport
		if err := h.cache.GetCachedAssessment(ctx, contentHash, &cached); err == nil {
			h.logger.Debug().Str("hash", contentHash[:12]).Msg("assessment cache hit")
			return &cached
		}
	}

	assessment := h.scorer.Score(text, messages)

	report := &models.AnalysisReport{
		Title:        title,
		MessageCount: len(messages),
		Assessment:   assessment,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if h.persist && h.repos != nil {
		if _, err := h.repos.Reports.Create(ctx, report); err != nil {
			h.logger.Error().Err(err).Msg("failed to persist report, returning transient result")
		}
	} else if h.cache != nil {
		if err := h.cache.CacheAssessment(ctx, contentHash, report, h.cacheTTL); err != nil {
			h.logger.Debug().Err(err).Msg("failed to cache assessment")
		}
	}

	h.logger.Info().
		Int("risk_score", assessment.RiskScore).
		Str("risk_level", assessment.RiskLevel()).
		Int("red_flags", len(assessment.RedFlags)).
		Int("messages", len(messages)).
		Msg("chat analyzed")

	if h.eventBus != nil {
		reportID := ""
		if h.persist && h.repos != nil {
			reportID = report.ID.String()
		}
		event := streaming.NewAnalysisEvent(reportID, assessment)
		if err := h.eventBus.Publish(ctx, event); err != nil {
			h.logger.Warn().Err(err).Msg("failed to publish analysis event")
		}
	}

	return report
}

func hashContent(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
