package domain

import "time"

// RunReport summarizes one batch reconciliation run.
// Corresponds to run_reports table in ClickHouse (append-only telemetry;
// the per-pool holder_metrics rows themselves keep no history).
type RunReport struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Attempted  int
	Updated    int
	Skipped    int
	Failed     int
}
