package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pooldash/internal/storage"
	"pooldash/internal/storage/postgres"
)

func TestPoolStore_ListActive(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	seedPool(t, pool, "p1", "0x01", "ethereum", true)
	seedPool(t, pool, "p2", "0x02", "base", true)
	seedPool(t, pool, "p3", "0x03", "ethereum", false)
	seedPool(t, pool, "p4", "   ", "ethereum", true)

	store := postgres.NewPoolStore(pool)
	pools, err := store.ListActive(ctx)
	require.NoError(t, err)

	require.Len(t, pools, 2, "inactive and blank-address pools excluded")
	assert.Equal(t, "p1", pools[0].ID)
	assert.Equal(t, "ethereum", pools[0].ChainName)
	assert.Equal(t, "p2", pools[1].ID)
	assert.Equal(t, "base", pools[1].ChainName)
}

func TestPoolStore_GetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	seedPool(t, pool, "p1", "0xae7ab96520de3a18e5e111b5eaab095312d7fe84", "ethereum", true)

	store := postgres.NewPoolStore(pool)

	p, err := store.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "0xae7ab96520de3a18e5e111b5eaab095312d7fe84", p.ContractAddress)
	assert.True(t, p.IsActive)

	_, err = store.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
