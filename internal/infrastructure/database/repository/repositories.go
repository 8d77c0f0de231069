package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repositories bundles all repositories sharing one connection pool
type Repositories struct {
	Reports *ReportRepository

	pool *pgxpool.Pool
}

// NewRepositories creates all repositories
func NewRepositories(pool *pgxpool.Pool) *Repositories {
	return &Repositories{
		Reports: NewReportRepository(pool),
		pool:    pool,
	}
}

// Migrate runs the schema migrations for all repositories
func (r *Repositories) Migrate(ctx context.Context) error {
	return r.Reports.Migrate(ctx)
}

// Ping verifies database connectivity
func (r *Repositories) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
