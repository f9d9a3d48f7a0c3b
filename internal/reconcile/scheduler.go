package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"pooldash/internal/domain"
	"pooldash/internal/idhash"
	"pooldash/internal/observability"
	"pooldash/internal/storage"
)

// ErrBatchRunning is returned by Run when another batch is already in
// flight. Batches are strictly serialized: every trigger surface (cron,
// admin API, CLI) shares the same scheduler, so this is the single
// enforcement point.
var ErrBatchRunning = errors.New("batch already running")

// Pacing defaults. Explorer pages are scraped HTML; anything faster
// than this trips their bot protection.
const (
	DefaultRequestInterval  = 2 * time.Second
	DefaultRateLimitBackoff = 30 * time.Second
)

// BatchResult aggregates one full batch run over all active pools.
type BatchResult struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time

	Attempted int
	Updated   int
	Skipped   int
	Failed    int

	// Errors collects per-pool storage failures. One pool's failure
	// never aborts the batch.
	Errors []string
}

// Report converts the batch result into its persisted form.
func (b *BatchResult) Report() *domain.RunReport {
	return &domain.RunReport{
		RunID:      b.RunID,
		StartedAt:  b.StartedAt,
		FinishedAt: b.FinishedAt,
		Attempted:  b.Attempted,
		Updated:    b.Updated,
		Skipped:    b.Skipped,
		Failed:     b.Failed,
	}
}

// Scheduler runs the reconciler sequentially over every active pool,
// pacing outbound requests with a rate limiter.
type Scheduler struct {
	poolStore   storage.PoolStore
	reportStore storage.RunReportStore
	reconciler  *Reconciler

	limiter *rate.Limiter
	backoff time.Duration
	logger  *zap.Logger
	metrics *observability.Metrics
	now     func() time.Time

	mu      sync.Mutex
	running bool
}

// SchedulerOptions for creating a Scheduler.
type SchedulerOptions struct {
	// Required
	PoolStore  storage.PoolStore
	Reconciler *Reconciler

	// Optional: batch telemetry sink; nil disables run reports.
	ReportStore storage.RunReportStore

	// Options
	RequestInterval  time.Duration // defaults to DefaultRequestInterval
	RateLimitBackoff time.Duration // defaults to DefaultRateLimitBackoff
	Logger           *zap.Logger
	Metrics          *observability.Metrics
	Now              func() time.Time // test hook
}

// NewScheduler creates a new Scheduler.
func NewScheduler(opts SchedulerOptions) *Scheduler {
	interval := opts.RequestInterval
	if interval <= 0 {
		interval = DefaultRequestInterval
	}
	backoff := opts.RateLimitBackoff
	if backoff <= 0 {
		backoff = DefaultRateLimitBackoff
	}
	s := &Scheduler{
		poolStore:   opts.PoolStore,
		reportStore: opts.ReportStore,
		reconciler:  opts.Reconciler,
		limiter:     rate.NewLimiter(rate.Every(interval), 1),
		backoff:     backoff,
		logger:      opts.Logger,
		metrics:     opts.Metrics,
		now:         opts.Now,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Running reports whether a batch is currently in flight.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) tryStart() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	s.running = true
	return true
}

func (s *Scheduler) finish() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// Run reconciles every active pool once, sequentially. Pools whose
// stored metric is still fresh cost no outbound requests and no limiter
// wait. At most one batch runs at a time; a second call while one is in
// flight returns ErrBatchRunning. Otherwise a non-nil error means the
// pool listing itself failed or the context was cancelled mid-batch;
// per-pool failures are aggregated in the result.
func (s *Scheduler) Run(ctx context.Context) (*BatchResult, error) {
	if !s.tryStart() {
		return nil, ErrBatchRunning
	}
	defer s.finish()

	pools, err := s.poolStore.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active pools: %w", err)
	}

	result := &BatchResult{StartedAt: s.now()}
	result.RunID = idhash.ComputeRunID(result.StartedAt, len(pools))

	s.logger.Info("batch run starting",
		zap.String("run_id", result.RunID),
		zap.Int("pools", len(pools)))

	for _, pool := range pools {
		if err := ctx.Err(); err != nil {
			result.FinishedAt = s.now()
			return result, fmt.Errorf("batch cancelled after %d pools: %w", result.Attempted, err)
		}

		result.Attempted++
		out, err := s.reconciler.ReconcileOne(ctx, pool)
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("pool %s: %v", pool.ID, err))
			s.logger.Error("pool reconciliation errored",
				zap.String("pool_id", pool.ID), zap.Error(err))
			continue
		}

		switch out.Action {
		case ActionUpdated:
			result.Updated++
		case ActionSkippedFresh, ActionSkippedIneligible:
			result.Skipped++
		case ActionFailed:
			result.Failed++
		}

		// Only resolutions that actually hit the network owe a wait;
		// fresh skips and override hits cost the explorers nothing.
		if out.Network {
			if out.RateLimited {
				if err := s.sleep(ctx, s.backoff); err != nil {
					result.FinishedAt = s.now()
					return result, fmt.Errorf("batch cancelled during backoff: %w", err)
				}
			}
			if err := s.limiter.Wait(ctx); err != nil {
				result.FinishedAt = s.now()
				return result, fmt.Errorf("batch cancelled during pacing: %w", err)
			}
		}
	}

	result.FinishedAt = s.now()
	s.logger.Info("batch run finished",
		zap.String("run_id", result.RunID),
		zap.Int("attempted", result.Attempted),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
		zap.Duration("elapsed", result.FinishedAt.Sub(result.StartedAt)))

	if s.metrics != nil {
		s.metrics.BatchRunsTotal.Inc()
		s.metrics.BatchDuration.Observe(result.FinishedAt.Sub(result.StartedAt).Seconds())
		s.metrics.LastSuccessfulBatch.SetToCurrentTime()
	}

	s.recordReport(ctx, result)
	return result, nil
}

// recordReport persists the run report. Telemetry is best-effort: a
// sink failure is logged, never propagated.
func (s *Scheduler) recordReport(ctx context.Context, result *BatchResult) {
	if s.reportStore == nil {
		return
	}
	if err := s.reportStore.Insert(ctx, result.Report()); err != nil {
		s.logger.Warn("record run report", zap.String("run_id", result.RunID), zap.Error(err))
	}
}

func (s *Scheduler) sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
