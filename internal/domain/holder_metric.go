package domain

import "time"

// MetricStatus records whether the stored holder count came from a
// successful fetch or is a stale/unknown best-effort value.
type MetricStatus string

const (
	// StatusSuccess marks a count produced by a verified source
	// (override, explorer, or indexer).
	StatusSuccess MetricStatus = "success"

	// StatusUnknown marks a count whose last refresh attempt failed.
	// The count itself is the last good value, never a fabricated zero.
	StatusUnknown MetricStatus = "unknown"
)

// HolderMetric is the canonical per-pool holder count.
// Corresponds to holder_metrics table in PostgreSQL.
// Invariant: at most one row per PoolID; upsert semantics, never append.
type HolderMetric struct {
	PoolID       string // PK + FK to pools
	HoldersCount int    // non-negative
	Status       MetricStatus
	UpdatedAt    time.Time
}

// FreshAt reports whether the metric was refreshed within the given
// window as of now. A fresh metric lets the reconciler skip all
// outbound fetches for the pool.
func (m *HolderMetric) FreshAt(now time.Time, window time.Duration) bool {
	if m == nil || window <= 0 {
		return false
	}
	return now.Sub(m.UpdatedAt) < window
}
