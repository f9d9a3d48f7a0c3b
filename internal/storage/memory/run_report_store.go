package memory

import (
	"context"
	"sync"

	"pooldash/internal/domain"
	"pooldash/internal/storage"
)

// RunReportStore is an in-memory implementation of storage.RunReportStore.
type RunReportStore struct {
	mu      sync.RWMutex
	reports []*domain.RunReport // append order == chronological order
}

// NewRunReportStore creates a new in-memory run report store.
func NewRunReportStore() *RunReportStore {
	return &RunReportStore{}
}

// Insert records one finished batch run.
func (s *RunReportStore) Insert(_ context.Context, r *domain.RunReport) error {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	reportCopy := *r
	s.reports = append(s.reports, &reportCopy)
	return nil
}

// GetRecent retrieves the most recent runs, newest first.
func (s *RunReportStore) GetRecent(_ context.Context, limit int) ([]*domain.RunReport, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.RunReport
	for i := len(s.reports) - 1; i >= 0 && len(out) < limit; i-- {
		reportCopy := *s.reports[i]
		out = append(out, &reportCopy)
	}
	return out, nil
}

var _ storage.RunReportStore = (*RunReportStore)(nil)
