package postgres

import (
	"context"
	"fmt"

	"pooldash/internal/domain"
	"pooldash/internal/storage"
)

// HolderMetricStore implements storage.HolderMetricStore using PostgreSQL.
type HolderMetricStore struct {
	pool *Pool
}

// NewHolderMetricStore creates a new HolderMetricStore.
func NewHolderMetricStore(pool *Pool) *HolderMetricStore {
	return &HolderMetricStore{pool: pool}
}

// Compile-time interface check.
var _ storage.HolderMetricStore = (*HolderMetricStore)(nil)

// Upsert writes the metric for its pool. The unique constraint on
// pool_id plus ON CONFLICT DO UPDATE guarantees one row per pool.
func (s *HolderMetricStore) Upsert(ctx context.Context, m *domain.HolderMetric) error {
	if m == nil || m.PoolID == "" || m.HoldersCount < 0 {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO holder_metrics (pool_id, holders_count, status, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (pool_id) DO UPDATE SET
			holders_count = EXCLUDED.holders_count,
			status        = EXCLUDED.status,
			updated_at    = EXCLUDED.updated_at
	`

	_, err := s.pool.Exec(ctx, query,
		m.PoolID,
		m.HoldersCount,
		string(m.Status),
		m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert holder metric: %w", err)
	}
	return nil
}

// Get retrieves the metric for a pool. Returns ErrNotFound if the pool
// has never been reconciled.
func (s *HolderMetricStore) Get(ctx context.Context, poolID string) (*domain.HolderMetric, error) {
	query := `
		SELECT pool_id, holders_count, status, updated_at
		FROM holder_metrics
		WHERE pool_id = $1
	`

	var m domain.HolderMetric
	var status string
	err := s.pool.QueryRow(ctx, query, poolID).Scan(
		&m.PoolID,
		&m.HoldersCount,
		&status,
		&m.UpdatedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get holder metric: %w", err)
	}
	m.Status = domain.MetricStatus(status)
	return &m, nil
}
