package streaming

import (
	"time"

	"github.com/google/uuid"

	"redflag/internal/domain/models"
)

// EventType represents the type of analysis event
type EventType string

const (
	EventTypeAnalysisCompleted EventType = "analysis_completed"
	EventTypeReportDeleted     EventType = "report_deleted"
)

// AnalysisEvent is a real-time notification about a completed analysis.
// It carries only the assessment digest, never the transcript text.
type AnalysisEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`

	ReportID     string `json:"report_id,omitempty"`
	RiskScore    int    `json:"risk_score"`
	RiskLevel    string `json:"risk_level"`
	RedFlagCount int    `json:"red_flag_count"`
	KeywordCount int    `json:"keyword_count"`
	Summary      string `json:"summary,omitempty"`
}

// NewAnalysisEvent creates an event from a scored assessment
func NewAnalysisEvent(reportID string, assessment models.RiskAssessment) *AnalysisEvent {
	return &AnalysisEvent{
		ID:           uuid.New().String(),
		Type:         EventTypeAnalysisCompleted,
		Timestamp:    time.Now(),
		ReportID:     reportID,
		RiskScore:    assessment.RiskScore,
		RiskLevel:    assessment.RiskLevel(),
		RedFlagCount: len(assessment.RedFlags),
		KeywordCount: len(assessment.KeywordsDetected),
		Summary:      assessment.Summary,
	}
}

// Subscription filters which events a client receives
type Subscription struct {
	MinScore int      `json:"min_score,omitempty"`
	Levels   []string `json:"levels,omitempty"`
}

// Matches reports whether an event passes the subscription filter
func (s *Subscription) Matches(event *AnalysisEvent) bool {
	if s == nil {
		return true
	}
	if event.RiskScore < s.MinScore {
		return false
	}
	if len(s.Levels) > 0 {
		for _, l := range s.Levels {
			if l == event.RiskLevel {
				return true
			}
		}
		return false
	}
	return true
}
