package driven

import (
	"context"

	"github.com/custodia-labs/prokb/internal/core/domain"
)

// RunStore persists ingestion run history.
type RunStore interface {
	// Record stores the totals of a finished run.
	Record(ctx context.Context, report *domain.IngestReport) error

	// Latest returns the most recent run, or nil and no error if none exist.
	Latest(ctx context.Context) (*domain.IngestReport, error)

	// History returns up to limit runs, most recent first.
	History(ctx context.Context, limit int) ([]domain.IngestReport, error)

	// Prune keeps only the most recent keep runs.
	Prune(ctx context.Context, keep int) error
}
