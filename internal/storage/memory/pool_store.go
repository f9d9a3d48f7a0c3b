package memory

import (
	"context"
	"sort"
	"sync"

	"pooldash/internal/domain"
	"pooldash/internal/storage"
)

// PoolStore is an in-memory implementation of storage.PoolStore.
// Pools are seeded up front; the pipeline itself never writes them.
type PoolStore struct {
	mu   sync.RWMutex
	byID map[string]*domain.Pool
}

// NewPoolStore creates a new in-memory pool store.
func NewPoolStore() *PoolStore {
	return &PoolStore{
		byID: make(map[string]*domain.Pool),
	}
}

// Seed adds or replaces a pool. Test/setup helper, not part of the
// storage.PoolStore interface.
func (s *PoolStore) Seed(p *domain.Pool) {
	if p == nil || p.ID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	poolCopy := *p
	s.byID[p.ID] = &poolCopy
}

// ListActive retrieves all active pools with a non-empty contract
// address, ordered by id.
func (s *PoolStore) ListActive(_ context.Context) ([]*domain.Pool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Pool
	for _, p := range s.byID {
		if !p.Eligible() {
			continue
		}
		poolCopy := *p
		out = append(out, &poolCopy)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetByID retrieves a pool by its ID. Returns ErrNotFound if not exists.
func (s *PoolStore) GetByID(_ context.Context, poolID string) (*domain.Pool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.byID[poolID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	poolCopy := *p
	return &poolCopy, nil
}

var _ storage.PoolStore = (*PoolStore)(nil)
