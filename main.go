// main.go - Standalone chat risk analysis server (legacy, pre-platform)
package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"redflag/internal/domain/models"
	"redflag/internal/domain/services/risk"
	"redflag/internal/transcript"
)

// ============================================================================
// DATA MODELS
// ============================================================================

type AnalyzeRequest struct {
	Title    string               `json:"title,omitempty"`
	Text     string               `json:"text,omitempty"`
	Content  string               `json:"content,omitempty"`
	Messages []models.ChatMessage `json:"messages,omitempty"`
}

type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

type reportStore struct {
	mu      sync.RWMutex
	reports map[uuid.UUID]*models.AnalysisReport
	order   []uuid.UUID
}

// ============================================================================
// GLOBAL STATE
// ============================================================================

var (
	scorer    *risk.Scorer
	store     *reportStore
	apiKey    string
	startTime time.Time
)

// ============================================================================
// INITIALIZATION
// ============================================================================

func init() {
	scorer = risk.NewScorer(risk.DefaultConfig())
	store = &reportStore{reports: make(map[uuid.UUID]*models.AnalysisReport)}
	startTime = time.Now()

	// Load API key from environment
	apiKey = os.Getenv("API_KEY")
	if apiKey == "" {
		apiKey = "default-dev-key" // For development only
		log.Println("WARNING: Using default API key. Set API_KEY environment variable for production.")
	}
}

// ============================================================================
// REPORT STORE
// ============================================================================

func (s *reportStore) add(report *models.AnalysisReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[report.ID] = report
	s.order = append(s.order, report.ID)
}

func (s *reportStore) get(id uuid.UUID) (*models.AnalysisReport, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	report, ok := s.reports[id]
	return report, ok
}

func (s *reportStore) list() []*models.AnalysisReport {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// newest first
	out := make([]*models.AnalysisReport, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		out = append(out, s.reports[s.order[i]])
	}
	return out
}

func (s *reportStore) stats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byLevel := make(map[string]int)
	var scoreSum int
	for _, r := range s.reports {
		byLevel[r.Assessment.RiskLevel()]++
		scoreSum += r.Assessment.RiskScore
	}

	avg := 0.0
	if len(s.reports) > 0 {
		avg = float64(scoreSum) / float64(len(s.reports))
	}

	return map[string]any{
		"total":        len(s.reports),
		"byLevel":      byLevel,
		"averageScore": avg,
	}
}

// ============================================================================
// HTTP HANDLERS
// ============================================================================

// Middleware for API key authentication
func authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Allow OPTIONS for CORS preflight
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		// Check API key
		providedKey := r.Header.Get("Authorization")
		if providedKey == "" || providedKey != "Bearer "+apiKey {
			respondWithError(w, http.StatusUnauthorized, "Invalid or missing API key")
			return
		}

		next(w, r)
	}
}

// CORS middleware
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Health check
func handleHealth(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"version": "1.0.0",
		"uptime":  time.Since(startTime).String(),
	})
}

// Analyze a chat transcript
func handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	text := req.Text
	messages := req.Messages

	// A raw export can be submitted instead of parsed messages
	if req.Content != "" {
		text = req.Content
		messages = transcript.Parse(req.Content)
	}
	if text == "" && len(messages) > 0 {
		text = transcript.Flatten(messages)
	}
	if text == "" {
		respondWithError(w, http.StatusBadRequest, "Missing text, content or messages")
		return
	}

	assessment := scorer.Score(text, messages)

	now := time.Now()
	report := &models.AnalysisReport{
		ID:           uuid.New(),
		Title:        req.Title,
		MessageCount: len(messages),
		Assessment:   assessment,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	store.add(report)

	log.Printf("[Analyze] Scored transcript: score=%d level=%s flags=%d",
		assessment.RiskScore, assessment.RiskLevel(), len(assessment.RedFlags))

	respondWithJSON(w, http.StatusOK, report)
}

// List stored reports
func handleListReports(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, store.list())
}

// Get a single report
func handleGetReport(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid report ID")
		return
	}

	report, ok := store.get(id)
	if !ok {
		respondWithError(w, http.StatusNotFound, "Report not found")
		return
	}

	respondWithJSON(w, http.StatusOK, report)
}

// Get statistics
func handleGetStatistics(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, store.stats())
}

// Get pattern configuration
func handleGetPatterns(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, scorer.Config())
}

// ============================================================================
// HELPER FUNCTIONS
// ============================================================================

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"Internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, APIResponse{
		Success: false,
		Error:   message,
	})
}

// ============================================================================
// MAIN
// ============================================================================

func main() {
	// Setup router
	r := mux.NewRouter()

	// Public endpoints
	r.HandleFunc("/health", handleHealth).Methods("GET")
	r.HandleFunc("/api/v1/stats", handleGetStatistics).Methods("GET")

	// Protected endpoints
	r.HandleFunc("/api/v1/chat/analyze", authMiddleware(handleAnalyze)).Methods("POST")
	r.HandleFunc("/api/v1/reports", authMiddleware(handleListReports)).Methods("GET")
	r.HandleFunc("/api/v1/reports/{id}", authMiddleware(handleGetReport)).Methods("GET")
	r.HandleFunc("/api/v1/patterns", authMiddleware(handleGetPatterns)).Methods("GET")

	// Apply CORS middleware
	handler := corsMiddleware(r)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Printf("Chat analysis server starting on port %s", port)
	log.Fatal(server.ListenAndServe())
}
