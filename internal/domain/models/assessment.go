package models

import (
	"time"

	"github.com/google/uuid"
)

// Severity represents how concerning a red flag is
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank returns the ordinal rank of a severity (critical=4 > high=3 > medium=2 > low=1)
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// Escalate returns the severity one step up. Critical stays critical.
func (s Severity) Escalate() Severity {
	switch s {
	case SeverityLow:
		return SeverityMedium
	case SeverityMedium:
		return SeverityHigh
	case SeverityHigh:
		return SeverityCritical
	default:
		return s
	}
}

// ChatMessage is a single parsed message from a chat transcript.
// Date is the calendar date string used as the grouping key for
// frequency analysis.
type ChatMessage struct {
	Date   string `json:"date"`
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

// RedFlag is a single detected indicator of a concerning pattern
type RedFlag struct {
	Category       string   `json:"category"`
	Severity       Severity `json:"severity"`
	Message        string   `json:"message"`
	Context        string   `json:"context"`
	MatchedKeyword string   `json:"matched_keyword,omitempty"`
}

// RiskAssessment is the result of scoring a chat transcript
type RiskAssessment struct {
	RiskScore        int       `json:"risk_score"`
	RedFlags         []RedFlag `json:"red_flags"`
	KeywordsDetected []string  `json:"keywords_detected"`
	Summary          string    `json:"summary"`
}

// RiskLevel maps the clamped 0-100 score to the summary band
func (a RiskAssessment) RiskLevel() string {
	switch {
	case a.RiskScore >= 80:
		return "critical"
	case a.RiskScore >= 60:
		return "high"
	case a.RiskScore >= 40:
		return "moderate"
	case a.RiskScore >= 20:
		return "low"
	default:
		return "minimal"
	}
}

// AnalysisReport is a persisted analysis of one transcript
type AnalysisReport struct {
	ID           uuid.UUID      `json:"id"`
	Title        string         `json:"title,omitempty"`
	MessageCount int            `json:"message_count"`
	Assessment   RiskAssessment `json:"assessment"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// Stats holds aggregate counters over persisted reports
type Stats struct {
	TotalReports   int64            `json:"total_reports"`
	ReportsByLevel map[string]int64 `json:"reports_by_level"`
	AverageScore   float64          `json:"average_score"`
	LastAnalysis   time.Time        `json:"last_analysis"`
}
