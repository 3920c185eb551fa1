package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/prokb/internal/core/domain"
)

// Catalog supplies per-document metadata for ingestion.
type Catalog interface {
	// Approved returns entries marked for ingestion, in catalog order.
	Approved(ctx context.Context) ([]domain.Video, error)

	// MarkIngested flags the given documents as ingested.
	MarkIngested(ctx context.Context, documentIDs []string) error

	// LatestUploadDates returns the newest upload date per channel.
	LatestUploadDates(ctx context.Context) (map[string]string, error)

	// Path returns the catalog location, used for change watching.
	Path() string
}

// CatalogWatcher reports changes to the catalog made by other processes.
type CatalogWatcher interface {
	// Watch returns a channel that receives a value after each debounced
	// external change. The channel is closed when ctx is done.
	Watch(ctx context.Context, debounce time.Duration) (<-chan struct{}, error)
}
