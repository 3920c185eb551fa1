package driving

import (
	"context"

	"github.com/custodia-labs/prokb/internal/core/domain"
)

// IngestionService turns catalog documents into stored fragments.
type IngestionService interface {
	// Ingest runs the pipeline over approved catalog entries. Per-document
	// failures are recorded in the report and never abort the run.
	Ingest(ctx context.Context, opts domain.IngestOptions) (*domain.IngestReport, error)

	// Status returns progress of the current or last run.
	Status(ctx context.Context) (*IngestStatus, error)

	// Reset wipes every stored fragment.
	Reset(ctx context.Context) error

	// DeleteDocument removes one document's fragments.
	DeleteDocument(ctx context.Context, documentID string) (int, error)
}

// IngestStatus represents the current state of an ingestion run.
type IngestStatus struct {
	// RunID identifies the run.
	RunID string

	// Running indicates if ingestion is currently in progress.
	Running bool

	// DocumentsTotal is the number of documents selected for the run.
	DocumentsTotal int

	// DocumentsProcessed is the count of documents that reached a terminal state.
	DocumentsProcessed int

	// ErrorCount is the number of documents that failed.
	ErrorCount int
}
