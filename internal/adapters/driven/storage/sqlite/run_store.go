package sqlite

import (
	"context"
	"time"

	"github.com/custodia-labs/prokb/internal/core/domain"
	"github.com/custodia-labs/prokb/internal/core/ports/driven"
)

// runStore implements driven.RunStore.
type runStore struct {
	store *Store
}

var _ driven.RunStore = (*runStore)(nil)

// Record logs the totals of a finished ingestion run.
// Per-document results are not persisted.
func (s *runStore) Record(ctx context.Context, report *domain.IngestReport) error {
	if report == nil || report.RunID == "" {
		return domain.ErrInvalidInput
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO ingest_runs (id, started_at, ended_at, candidates, stored, skipped, failed, fragments)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			started_at = excluded.started_at,
			ended_at = excluded.ended_at,
			candidates = excluded.candidates,
			stored = excluded.stored,
			skipped = excluded.skipped,
			failed = excluded.failed,
			fragments = excluded.fragments
	`, report.RunID,
		report.StartedAt.UnixNano(),
		report.EndedAt.UnixNano(),
		report.Candidates,
		report.Stored,
		report.Skipped,
		report.Failed,
		report.Fragments)

	if err != nil {
		return storageError("recording run", err)
	}
	return nil
}

// Latest returns the most recent run.
// Returns nil and no error if no run has been recorded.
func (s *runStore) Latest(ctx context.Context) (*domain.IngestReport, error) {
	runs, err := s.History(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return &runs[0], nil
}

// History returns recent runs ordered by start time descending.
func (s *runStore) History(ctx context.Context, limit int) ([]domain.IngestReport, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, started_at, ended_at, candidates, stored, skipped, failed, fragments
		FROM ingest_runs
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, storageError("querying run history", err)
	}
	defer rows.Close()

	var runs []domain.IngestReport //nolint:prealloc // size unknown from query
	for rows.Next() {
		var r domain.IngestReport
		var startedAt, endedAt int64
		if err := rows.Scan(&r.RunID, &startedAt, &endedAt, &r.Candidates,
			&r.Stored, &r.Skipped, &r.Failed, &r.Fragments); err != nil {
			return nil, storageError("scanning run", err)
		}
		r.StartedAt = time.Unix(0, startedAt).UTC()
		r.EndedAt = time.Unix(0, endedAt).UTC()
		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, storageError("iterating run history", err)
	}

	return runs, nil
}

// Prune removes runs beyond the retention limit, keeping the most recent.
func (s *runStore) Prune(ctx context.Context, keep int) error {
	_, err := s.store.db.ExecContext(ctx, `
		DELETE FROM ingest_runs
		WHERE id NOT IN (
			SELECT id FROM ingest_runs ORDER BY started_at DESC, rowid DESC LIMIT ?
		)
	`, keep)
	if err != nil {
		return storageError("pruning run history", err)
	}
	return nil
}
