package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"redflag/internal/domain/models"
)

// ErrNotFound is returned when a report does not exist
var ErrNotFound = errors.New("report not found")

// ReportRepository handles analysis report persistence. The assessment is
// stored as a JSONB column; the score and level are denormalized for
// filtering and stats.
type ReportRepository struct {
	pool *pgxpool.Pool
}

// NewReportRepository creates a new report repository
func NewReportRepository(pool *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{pool: pool}
}

const reportsSchema = `
	CREATE TABLE IF NOT EXISTS analysis_reports (
		id            UUID PRIMARY KEY,
		title         TEXT NOT NULL DEFAULT '',
		message_count INTEGER NOT NULL DEFAULT 0,
		risk_score    INTEGER NOT NULL,
		risk_level    TEXT NOT NULL,
		assessment    JSONB NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL,
		updated_at    TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_analysis_reports_created_at ON analysis_reports (created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_analysis_reports_risk_level ON analysis_reports (risk_level);`

// Migrate creates the reports table if it does not exist
func (r *ReportRepository) Migrate(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, reportsSchema); err != nil {
		return fmt.Errorf("failed to migrate analysis_reports: %w", err)
	}
	return nil
}

// Create inserts a new analysis report
func (r *ReportRepository) Create(ctx context.Context, report *models.AnalysisReport) (*models.AnalysisReport, error) {
	if report.ID == uuid.Nil {
		report.ID = uuid.New()
	}
	now := time.Now()
	report.CreatedAt = now
	report.UpdatedAt = now

	assessment, err := json.Marshal(report.Assessment)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal assessment: %w", err)
	}

	query := `
		INSERT INTO analysis_reports (
			id, title, message_count, risk_score, risk_level,
			assessment, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err = r.pool.Exec(ctx, query,
		report.ID, report.Title, report.MessageCount,
		report.Assessment.RiskScore, report.Assessment.RiskLevel(),
		assessment, report.CreatedAt, report.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}

	return report, nil
}

// GetByID retrieves a report by ID
func (r *ReportRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.AnalysisReport, error) {
	query := `
		SELECT id, title, message_count, assessment, created_at, updated_at
		FROM analysis_reports
		WHERE id = $1`

	return scanReport(r.pool.QueryRow(ctx, query, id))
}

// List retrieves reports ordered by recency, with the total count for
// pagination
func (r *ReportRepository) List(ctx context.Context, level string, limit, offset int) ([]*models.AnalysisReport, int64, error) {
	countQuery := "SELECT COUNT(*) FROM analysis_reports"
	listQuery := `
		SELECT id, title, message_count, assessment, created_at, updated_at
		FROM analysis_reports`

	var args []any
	if level != "" {
		countQuery += " WHERE risk_level = $1"
		listQuery += " WHERE risk_level = $1"
		args = append(args, level)
	}

	var total int64
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count reports: %w", err)
	}

	if limit <= 0 {
		limit = 50
	}
	listQuery += fmt.Sprintf(" ORDER BY created_at DESC LIMIT %d OFFSET %d", limit, offset)

	rows, err := r.pool.Query(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	var reports []*models.AnalysisReport
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, 0, err
		}
		reports = append(reports, report)
	}

	return reports, total, rows.Err()
}

// Delete removes a report
func (r *ReportRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM analysis_reports WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetStats computes aggregate counters over persisted reports
func (r *ReportRepository) GetStats(ctx context.Context) (*models.Stats, error) {
	stats := &models.Stats{
		ReportsByLevel: make(map[string]int64),
	}

	query := `
		SELECT risk_level, COUNT(*), COALESCE(AVG(risk_score), 0), COALESCE(MAX(created_at), 'epoch')
		FROM analysis_reports
		GROUP BY risk_level`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query stats: %w", err)
	}
	defer rows.Close()

	var weightedSum float64
	for rows.Next() {
		var level string
		var count int64
		var avg float64
		var last time.Time
		if err := rows.Scan(&level, &count, &avg, &last); err != nil {
			return nil, fmt.Errorf("failed to scan stats row: %w", err)
		}
		stats.ReportsByLevel[level] = count
		stats.TotalReports += count
		weightedSum += avg * float64(count)
		if last.After(stats.LastAnalysis) {
			stats.LastAnalysis = last
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if stats.TotalReports > 0 {
		stats.AverageScore = weightedSum / float64(stats.TotalReports)
	}

	return stats, nil
}

func scanReport(row pgx.Row) (*models.AnalysisReport, error) {
	var report models.AnalysisReport
	var assessment []byte

	err := row.Scan(
		&report.ID, &report.Title, &report.MessageCount,
		&assessment, &report.CreatedAt, &report.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan report: %w", err)
	}

	if err := json.Unmarshal(assessment, &report.Assessment); err != nil {
		return nil, fmt.Errorf("failed to unmarshal assessment: %w", err)
	}

	return &report, nil
}
