package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"pooldash/internal/domain"
	"pooldash/internal/storage"
)

// PoolStore implements storage.PoolStore using PostgreSQL. The pools and
// chains tables are written by the dashboard; this store only reads.
type PoolStore struct {
	pool *Pool
}

// NewPoolStore creates a new PoolStore.
func NewPoolStore(pool *Pool) *PoolStore {
	return &PoolStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PoolStore = (*PoolStore)(nil)

// ListActive retrieves all active pools with a non-empty contract
// address, ordered by id.
func (s *PoolStore) ListActive(ctx context.Context) ([]*domain.Pool, error) {
	query := `
		SELECT p.id, p.contract_address, c.name, p.is_active
		FROM pools p
		JOIN chains c ON c.id = p.chain_id
		WHERE p.is_active AND btrim(p.contract_address) <> ''
		ORDER BY p.id
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list active pools: %w", err)
	}
	defer rows.Close()

	var pools []*domain.Pool
	for rows.Next() {
		p, err := scanPool(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pool: %w", err)
		}
		pools = append(pools, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pools: %w", err)
	}
	return pools, nil
}

// GetByID retrieves a pool by its ID. Returns ErrNotFound if not exists.
func (s *PoolStore) GetByID(ctx context.Context, poolID string) (*domain.Pool, error) {
	query := `
		SELECT p.id, p.contract_address, c.name, p.is_active
		FROM pools p
		JOIN chains c ON c.id = p.chain_id
		WHERE p.id = $1
	`

	p, err := scanPool(s.pool.QueryRow(ctx, query, poolID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get pool by id: %w", err)
	}
	return p, nil
}

// scanPool scans a single row into a Pool.
func scanPool(row pgx.Row) (*domain.Pool, error) {
	var p domain.Pool
	err := row.Scan(
		&p.ID,
		&p.ContractAddress,
		&p.ChainName,
		&p.IsActive,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
