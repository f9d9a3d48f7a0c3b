package clickhouse

import (
	"context"
	"fmt"

	"pooldash/internal/domain"
	"pooldash/internal/storage"
)

// RunReportStore implements storage.RunReportStore using ClickHouse.
// Reports are append-only telemetry; MergeTree ordering by started_at
// serves the "recent runs" dashboard query directly.
type RunReportStore struct {
	conn *Conn
}

// NewRunReportStore creates a new RunReportStore.
func NewRunReportStore(conn *Conn) *RunReportStore {
	return &RunReportStore{conn: conn}
}

// Compile-time interface check.
var _ storage.RunReportStore = (*RunReportStore)(nil)

// Insert records one finished batch run.
func (s *RunReportStore) Insert(ctx context.Context, r *domain.RunReport) error {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO run_reports (
			run_id, started_at, finished_at, attempted, updated, skipped, failed
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	err := s.conn.Exec(ctx, query,
		r.RunID,
		r.StartedAt,
		r.FinishedAt,
		uint32(r.Attempted),
		uint32(r.Updated),
		uint32(r.Skipped),
		uint32(r.Failed),
	)
	if err != nil {
		return fmt.Errorf("insert run report: %w", err)
	}
	return nil
}

// GetRecent retrieves the most recent runs, newest first.
func (s *RunReportStore) GetRecent(ctx context.Context, limit int) ([]*domain.RunReport, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidInput
	}

	query := `
		SELECT run_id, started_at, finished_at, attempted, updated, skipped, failed
		FROM run_reports
		ORDER BY started_at DESC
		LIMIT ?
	`

	rows, err := s.conn.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent run reports: %w", err)
	}
	defer rows.Close()

	var reports []*domain.RunReport
	for rows.Next() {
		var r domain.RunReport
		var attempted, updated, skipped, failed uint32
		if err := rows.Scan(
			&r.RunID,
			&r.StartedAt,
			&r.FinishedAt,
			&attempted,
			&updated,
			&skipped,
			&failed,
		); err != nil {
			return nil, fmt.Errorf("scan run report: %w", err)
		}
		r.Attempted = int(attempted)
		r.Updated = int(updated)
		r.Skipped = int(skipped)
		r.Failed = int(failed)
		reports = append(reports, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run reports: %w", err)
	}
	return reports, nil
}
