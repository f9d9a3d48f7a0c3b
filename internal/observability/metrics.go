// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the reconciliation pipeline.
type Metrics struct {
	// Reconciliation metrics
	PoolsReconciled *prometheus.CounterVec
	CountsBySource  *prometheus.CounterVec

	// Source fetch metrics
	SourceFetches *prometheus.CounterVec
	FetchLatency  *prometheus.HistogramVec
	RateLimitHits *prometheus.CounterVec

	// Batch metrics
	BatchRunsTotal      prometheus.Counter
	BatchDuration       prometheus.Histogram
	LastSuccessfulBatch prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "pooldash"
	}

	return &Metrics{
		PoolsReconciled: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "pools_total",
			Help:      "Total number of per-pool reconciliations by outcome",
		}, []string{"outcome"}),
		CountsBySource: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "counts_by_source_total",
			Help:      "Total number of persisted counts by winning source",
		}, []string{"source"}),

		SourceFetches: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "source_fetches_total",
			Help:      "Total number of source lookups by source and result",
		}, []string{"source", "result"}),
		FetchLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "latency_seconds",
			Help:      "Source lookup latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),
		RateLimitHits: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "rate_limit_hits_total",
			Help:      "Total number of rate-limit responses by source",
		}, []string{"source"}),

		BatchRunsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "runs_total",
			Help:      "Total number of batch reconciliation runs",
		}),
		BatchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "duration_seconds",
			Help:      "Batch run duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		LastSuccessfulBatch: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix timestamp of the last completed batch run",
		}),
	}
}

// Handler returns the HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
