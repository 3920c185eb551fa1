package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/prokb/internal/core/domain"
	"github.com/custodia-labs/prokb/internal/core/ports/driven"
)

// Ensure RunStore implements the interface.
var _ driven.RunStore = (*RunStore)(nil)

// RunStore is an in-memory implementation of driven.RunStore.
type RunStore struct {
	mu   sync.RWMutex
	runs []domain.IngestReport
}

// NewRunStore creates a new in-memory run store.
func NewRunStore() *RunStore {
	return &RunStore{}
}

// Record stores the run totals. Per-document results are dropped.
func (s *RunStore) Record(_ context.Context, report *domain.IngestReport) error {
	if report == nil || report.RunID == "" {
		return domain.ErrInvalidInput
	}
	r := *report
	r.Documents = nil

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.runs {
		if s.runs[i].RunID == r.RunID {
			s.runs[i] = r
			return nil
		}
	}
	s.runs = append(s.runs, r)
	return nil
}

// Latest returns the most recent run, or nil if none.
func (s *RunStore) Latest(ctx context.Context) (*domain.IngestReport, error) {
	runs, _ := s.History(ctx, 1)
	if len(runs) == 0 {
		return nil, nil
	}
	return &runs[0], nil
}

// History returns up to limit runs, most recent first.
func (s *RunStore) History(_ context.Context, limit int) ([]domain.IngestReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sorted := s.sortedLocked()
	if limit >= 0 && limit < len(sorted) {
		sorted = sorted[:limit]
	}
	return sorted, nil
}

// Prune keeps only the most recent keep runs.
func (s *RunStore) Prune(_ context.Context, keep int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sorted := s.sortedLocked()
	if keep < len(sorted) {
		sorted = sorted[:keep]
	}
	s.runs = sorted
	return nil
}

// sortedLocked returns a copy of runs ordered newest first. Runs with equal
// start times keep reverse insertion order.
func (s *RunStore) sortedLocked() []domain.IngestReport {
	out := make([]domain.IngestReport, len(s.runs))
	for i := range s.runs {
		out[len(s.runs)-1-i] = s.runs[i]
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out
}
