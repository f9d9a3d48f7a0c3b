package memory

import (
	"context"
	"sync"

	"pooldash/internal/domain"
	"pooldash/internal/storage"
)

// HolderMetricStore is an in-memory implementation of
// storage.HolderMetricStore. Used by tests and -use-memory runs.
type HolderMetricStore struct {
	mu     sync.RWMutex
	byPool map[string]*domain.HolderMetric
}

// NewHolderMetricStore creates a new in-memory holder metric store.
func NewHolderMetricStore() *HolderMetricStore {
	return &HolderMetricStore{
		byPool: make(map[string]*domain.HolderMetric),
	}
}

// Upsert writes the metric for its pool, replacing any existing row.
func (s *HolderMetricStore) Upsert(_ context.Context, m *domain.HolderMetric) error {
	if m == nil || m.PoolID == "" || m.HoldersCount < 0 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	metricCopy := *m
	s.byPool[m.PoolID] = &metricCopy
	return nil
}

// Get retrieves the metric for a pool. Returns ErrNotFound if absent.
func (s *HolderMetricStore) Get(_ context.Context, poolID string) (*domain.HolderMetric, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, exists := s.byPool[poolID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	metricCopy := *m
	return &metricCopy, nil
}

var _ storage.HolderMetricStore = (*HolderMetricStore)(nil)
