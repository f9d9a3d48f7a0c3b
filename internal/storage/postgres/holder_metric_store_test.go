package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pooldash/internal/domain"
	"pooldash/internal/storage"
	"pooldash/internal/storage/postgres"
)

func TestHolderMetricStore_UpsertInsertsThenUpdates(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	seedPool(t, pool, "pool1", "0xabc", "ethereum", true)
	store := postgres.NewHolderMetricStore(pool)

	first := &domain.HolderMetric{
		PoolID:       "pool1",
		HoldersCount: 100,
		Status:       domain.StatusSuccess,
		UpdatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, store.Upsert(ctx, first))

	got, err := store.Get(ctx, "pool1")
	require.NoError(t, err)
	assert.Equal(t, 100, got.HoldersCount)
	assert.Equal(t, domain.StatusSuccess, got.Status)

	second := &domain.HolderMetric{
		PoolID:       "pool1",
		HoldersCount: 250,
		Status:       domain.StatusUnknown,
		UpdatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, store.Upsert(ctx, second))

	got, err = store.Get(ctx, "pool1")
	require.NoError(t, err)
	assert.Equal(t, 250, got.HoldersCount)
	assert.Equal(t, domain.StatusUnknown, got.Status)

	// Single row per pool, not append.
	var rows int
	require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM holder_metrics WHERE pool_id = 'pool1'`).Scan(&rows))
	assert.Equal(t, 1, rows)
}

func TestHolderMetricStore_GetMissing(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewHolderMetricStore(pool)
	_, err := store.Get(context.Background(), "never-reconciled")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestHolderMetricStore_InvalidInput(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewHolderMetricStore(pool)
	ctx := context.Background()

	assert.ErrorIs(t, store.Upsert(ctx, nil), storage.ErrInvalidInput)
	assert.ErrorIs(t, store.Upsert(ctx, &domain.HolderMetric{PoolID: "p", HoldersCount: -5}), storage.ErrInvalidInput)
}
