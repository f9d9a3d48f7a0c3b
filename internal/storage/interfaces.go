package storage

import (
	"context"

	"pooldash/internal/domain"
)

// PoolStore provides read access to the dashboard's pools. Pools and
// chains are owned by the dashboard CRUD layer; this pipeline only lists
// and looks them up.
type PoolStore interface {
	// ListActive retrieves all active pools with a non-empty contract
	// address, ordered by id.
	ListActive(ctx context.Context) ([]*domain.Pool, error)

	// GetByID retrieves a pool by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, poolID string) (*domain.Pool, error)
}

// HolderMetricStore provides access to holder_metrics storage.
// Exactly one row per pool: Upsert inserts on first write and updates in
// place afterwards, never appends.
type HolderMetricStore interface {
	// Upsert writes the metric for its pool, replacing any existing row.
	Upsert(ctx context.Context, m *domain.HolderMetric) error

	// Get retrieves the metric for a pool. Returns ErrNotFound if the pool
	// has never been reconciled.
	Get(ctx context.Context, poolID string) (*domain.HolderMetric, error)
}

// RunReportStore provides access to batch run telemetry (append-only).
type RunReportStore interface {
	// Insert records one finished batch run.
	Insert(ctx context.Context, r *domain.RunReport) error

	// GetRecent retrieves the most recent runs, newest first.
	GetRecent(ctx context.Context, limit int) ([]*domain.RunReport, error)
}
