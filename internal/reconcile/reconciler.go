// Package reconcile resolves the best-available holder count for each
// pool and persists exactly one canonical value per pool.
// Precedence: override > explorer > indexer > keep previous.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"pooldash/internal/chains"
	"pooldash/internal/domain"
	"pooldash/internal/explorer"
	"pooldash/internal/indexer"
	"pooldash/internal/observability"
	"pooldash/internal/override"
	"pooldash/internal/storage"
)

// DefaultFreshnessWindow is how long a stored metric suppresses all
// outbound fetches for its pool.
const DefaultFreshnessWindow = 4 * time.Hour

// HolderSource fetches a holder count for a contract on a routed chain.
type HolderSource interface {
	HolderCount(ctx context.Context, route chains.Route, contractAddress string) (domain.ScrapeResult, error)
}

// IndexerSource is a HolderSource that may be disabled (no API key).
type IndexerSource interface {
	HolderSource
	Enabled() bool
}

var (
	_ HolderSource  = (*explorer.Client)(nil)
	_ IndexerSource = (*indexer.Client)(nil)
)

// Action classifies the outcome of one per-pool reconciliation.
type Action string

const (
	// ActionUpdated means a fresh count was resolved and persisted.
	ActionUpdated Action = "updated"

	// ActionSkippedFresh means the stored metric was inside the
	// freshness window; no outbound calls were made.
	ActionSkippedFresh Action = "skipped_fresh"

	// ActionSkippedIneligible means the pool is inactive or has no
	// contract address.
	ActionSkippedIneligible Action = "skipped_ineligible"

	// ActionFailed means every source came up empty. The previous count,
	// if any, was preserved with status unknown.
	ActionFailed Action = "failed"
)

// Outcome describes what one ReconcileOne call did.
type Outcome struct {
	PoolID    string
	Action    Action
	Count     int
	Source    domain.CountSource
	Truncated bool

	// RateLimited is set when any source returned a rate-limit response
	// during this attempt. The scheduler backs off on it.
	RateLimited bool

	// Network is set when resolution made at least one outbound request.
	// Override hits, fresh skips, and unroutable chains leave it false;
	// the scheduler only paces attempts that cost the sources something.
	Network bool
}

// Reconciler resolves and persists holder counts one pool at a time.
type Reconciler struct {
	metricStore storage.HolderMetricStore
	explorer    HolderSource
	indexer     IndexerSource

	window  time.Duration
	logger  *zap.Logger
	metrics *observability.Metrics
	now     func() time.Time

	lookupOverride func(string) (int, bool)
}

// Options for creating a Reconciler.
type Options struct {
	// Required stores and sources
	MetricStore storage.HolderMetricStore
	Explorer    HolderSource
	Indexer     IndexerSource

	// Options
	FreshnessWindow time.Duration // defaults to DefaultFreshnessWindow
	Logger          *zap.Logger
	Metrics         *observability.Metrics
	Now             func() time.Time // test hook
}

// New creates a new Reconciler.
func New(opts Options) *Reconciler {
	r := &Reconciler{
		metricStore:    opts.MetricStore,
		explorer:       opts.Explorer,
		indexer:        opts.Indexer,
		window:         opts.FreshnessWindow,
		logger:         opts.Logger,
		metrics:        opts.Metrics,
		now:            opts.Now,
		lookupOverride: override.Lookup,
	}
	if r.window <= 0 {
		r.window = DefaultFreshnessWindow
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

// ReconcileOne resolves and persists the holder count for a single pool.
// A non-nil error means a storage failure; resolution failures are
// reported through Outcome.Action instead, so one bad source never
// looks like a broken pipeline.
func (r *Reconciler) ReconcileOne(ctx context.Context, pool *domain.Pool) (Outcome, error) {
	out := Outcome{PoolID: pool.ID}

	if !pool.Eligible() {
		out.Action = ActionSkippedIneligible
		r.observe(out)
		return out, nil
	}

	existing, err := r.metricStore.Get(ctx, pool.ID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return out, fmt.Errorf("get holder metric for pool %s: %w", pool.ID, err)
	}

	if existing.FreshAt(r.now(), r.window) {
		out.Action = ActionSkippedFresh
		out.Count = existing.HoldersCount
		r.observe(out)
		return out, nil
	}

	result := r.resolve(ctx, pool, &out)

	if result.Found {
		m := &domain.HolderMetric{
			PoolID:       pool.ID,
			HoldersCount: result.Count,
			Status:       domain.StatusSuccess,
			UpdatedAt:    r.now(),
		}
		if err := r.metricStore.Upsert(ctx, m); err != nil {
			return out, fmt.Errorf("upsert holder metric for pool %s: %w", pool.ID, err)
		}
		out.Action = ActionUpdated
		out.Count = result.Count
		out.Source = result.Source
		out.Truncated = result.Truncated
		r.logger.Info("holder count updated",
			zap.String("pool_id", pool.ID),
			zap.String("source", string(result.Source)),
			zap.Int("count", result.Count),
			zap.Bool("truncated", result.Truncated))
		r.observe(out)
		return out, nil
	}

	// Every source came up empty. Never zero out a count we once had:
	// carry the previous value forward under status unknown.
	preserved := 0
	if existing != nil {
		preserved = existing.HoldersCount
	}
	m := &domain.HolderMetric{
		PoolID:       pool.ID,
		HoldersCount: preserved,
		Status:       domain.StatusUnknown,
		UpdatedAt:    r.now(),
	}
	if err := r.metricStore.Upsert(ctx, m); err != nil {
		return out, fmt.Errorf("upsert holder metric for pool %s: %w", pool.ID, err)
	}
	out.Action = ActionFailed
	out.Count = preserved
	r.logger.Warn("holder count unresolved",
		zap.String("pool_id", pool.ID),
		zap.String("chain", pool.ChainName),
		zap.Int("preserved_count", preserved),
		zap.Bool("rate_limited", out.RateLimited))
	r.observe(out)
	return out, nil
}

// resolve walks the source precedence chain and returns the first found
// result. It mutates out.RateLimited as a side channel for the
// scheduler.
func (r *Reconciler) resolve(ctx context.Context, pool *domain.Pool, out *Outcome) domain.ScrapeResult {
	addr := pool.NormalizedAddress()

	if count, ok := r.lookupOverride(addr); ok {
		r.observeFetch(domain.SourceOverride, true, 0)
		return domain.FoundCount(count, domain.SourceOverride)
	}

	route, err := chains.Resolve(pool.ChainName)
	if err != nil {
		r.logger.Warn("no route for pool chain",
			zap.String("pool_id", pool.ID),
			zap.String("chain", pool.ChainName))
		return domain.NotFound()
	}

	if r.explorer != nil {
		out.Network = true
		start := r.now()
		result, err := r.explorer.HolderCount(ctx, route, addr)
		r.observeFetch(domain.SourceExplorer, result.Found, r.now().Sub(start))
		if err != nil {
			if errors.Is(err, explorer.ErrRateLimited) {
				out.RateLimited = true
				r.observeRateLimit(domain.SourceExplorer)
			}
			r.logger.Debug("explorer lookup failed",
				zap.String("pool_id", pool.ID), zap.Error(err))
		}
		if result.Found {
			return result
		}
	}

	if r.indexer != nil && r.indexer.Enabled() {
		out.Network = true
		start := r.now()
		result, err := r.indexer.HolderCount(ctx, route, addr)
		r.observeFetch(domain.SourceIndexer, result.Found, r.now().Sub(start))
		if err != nil {
			if errors.Is(err, indexer.ErrRateLimited) {
				out.RateLimited = true
				r.observeRateLimit(domain.SourceIndexer)
			}
			r.logger.Debug("indexer lookup failed",
				zap.String("pool_id", pool.ID), zap.Error(err))
		}
		if result.Found {
			return result
		}
	}

	return domain.NotFound()
}

func (r *Reconciler) observe(out Outcome) {
	if r.metrics == nil {
		return
	}
	r.metrics.PoolsReconciled.WithLabelValues(string(out.Action)).Inc()
	if out.Action == ActionUpdated {
		r.metrics.CountsBySource.WithLabelValues(string(out.Source)).Inc()
	}
}

func (r *Reconciler) observeFetch(source domain.CountSource, found bool, elapsed time.Duration) {
	if r.metrics == nil {
		return
	}
	result := "not_found"
	if found {
		result = "found"
	}
	r.metrics.SourceFetches.WithLabelValues(string(source), result).Inc()
	if source != domain.SourceOverride {
		r.metrics.FetchLatency.WithLabelValues(string(source)).Observe(elapsed.Seconds())
	}
}

func (r *Reconciler) observeRateLimit(source domain.CountSource) {
	if r.metrics == nil {
		return
	}
	r.metrics.RateLimitHits.WithLabelValues(string(source)).Inc()
}
