package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"redflag/internal/domain/models"
	"redflag/internal/domain/services/risk"
	"redflag/pkg/logger"
)

// newTestHandlers builds handlers with no backing services, which is the
// degraded mode the service runs in during local development
func newTestHandlers(t *testing.T) *Handlers {
	t.Helper()
	return NewHandlers(Dependencies{
		Scorer: risk.NewScorer(risk.DefaultConfig()),
		Logger: logger.NewDefault(),
	})
}

func postJSON(t *testing.T, handler http.HandlerFunc, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestAnalyzeHighRiskText(t *testing.T) {
	h := newTestHandlers(t)

	rec := postJSON(t, h.Analysis.Analyze, AnalyzeRequest{
		Title: "suspicious chat",
		Text:  "send me money or I will file a police case",
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var report models.AnalysisReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))

	assert.Equal(t, "suspicious chat", report.Title)
	assert.Equal(t, 100, report.Assessment.RiskScore)
	assert.NotEmpty(t, report.Assessment.RedFlags)
	assert.True(t, strings.HasPrefix(report.Assessment.Summary, "CRITICAL RISK"))
}

func TestAnalyzeBenignText(t *testing.T) {
	h := newTestHandlers(t)

	rec := postJSON(t, h.Analysis.Analyze, AnalyzeRequest{
		Text: "hello, shall we meet for coffee tomorrow?",
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var report models.AnalysisReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))

	assert.Equal(t, 0, report.Assessment.RiskScore)
	assert.Empty(t, report.Assessment.RedFlags)
	assert.Empty(t, report.Assessment.KeywordsDetected)
}

func TestAnalyzeFromMessagesOnly(t *testing.T) {
	h := newTestHandlers(t)

	rec := postJSON(t, h.Analysis.Analyze, AnalyzeRequest{
		Messages: []models.ChatMessage{
			{Date: "12/01/24", Sender: "A", Text: "hello"},
			{Date: "12/01/24", Sender: "B", Text: "send me money"},
			{Date: "12/01/24", Sender: "A", Text: "no"},
		},
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var report models.AnalysisReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))

	assert.Equal(t, 3, report.MessageCount)
	assert.Greater(t, report.Assessment.RiskScore, 0)
	assert.Contains(t, report.Assessment.KeywordsDetected, "money")
}

func TestAnalyzeInvalidBody(t *testing.T) {
	h := newTestHandlers(t)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("not json"))
	rec := httptest.NewRecorder()
	h.Analysis.Analyze(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "error")
}

func TestAnalyzeEmptyInput(t *testing.T) {
	h := newTestHandlers(t)

	rec := postJSON(t, h.Analysis.Analyze, AnalyzeRequest{})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeTranscript(t *testing.T) {
	h := newTestHandlers(t)

	content := "12/01/24, 10:30 - Alice: you must send me money today\n" +
		"12/01/24, 10:31 - Bob: I don't have any\n" +
		"12/01/24, 10:32 - Alice: pay or else"

	rec := postJSON(t, h.Analysis.AnalyzeTranscript, AnalyzeTranscriptRequest{
		Title:   "exported chat",
		Content: content,
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var report models.AnalysisReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))

	assert.Equal(t, 3, report.MessageCount)
	assert.Greater(t, report.Assessment.RiskScore, 0)
	assert.Contains(t, report.Assessment.KeywordsDetected, "money")
}

func TestAnalyzeTranscriptEmptyContent(t *testing.T) {
	h := newTestHandlers(t)

	rec := postJSON(t, h.Analysis.AnalyzeTranscript, AnalyzeTranscriptRequest{})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReportsUnavailableWithoutDatabase(t *testing.T) {
	h := newTestHandlers(t)

	endpoints := []http.HandlerFunc{h.Reports.List, h.Reports.Get, h.Reports.Delete}
	for _, endpoint := range endpoints {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		endpoint(rec, req)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), "persistence not configured")
	}
}

func TestStatsUnavailableWithoutDatabase(t *testing.T) {
	h := newTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.Stats.Get(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestPatternsGet(t *testing.T) {
	h := newTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.Patterns.Get(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Categories         []risk.PatternCategory `json:"categories"`
		Intensifiers       []string               `json:"intensifiers"`
		FrequencyThreshold float64                `json:"frequency_threshold"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.Len(t, body.Categories, 8)
	assert.Contains(t, body.Intensifiers, "definitely")
	assert.Equal(t, float64(50), body.FrequencyThreshold)
}

func TestHealthCheck(t *testing.T) {
	h := newTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.Health.Check(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestReadyWithoutBackingServices(t *testing.T) {
	h := newTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	rec := httptest.NewRecorder()
	h.Health.Ready(rec, req)

	// nothing configured is still ready, nothing is unhealthy
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.Equal(t, "ready", body.Status)
	assert.Equal(t, "not configured", body.Checks["postgres"])
	assert.Equal(t, "not configured", body.Checks["redis"])
}

func TestStreamingStatusDisabled(t *testing.T) {
	h := newTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.Streaming.Status(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"enabled":false`)
}

func TestStreamingServeWSUnavailable(t *testing.T) {
	h := newTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.Streaming.ServeWS(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
