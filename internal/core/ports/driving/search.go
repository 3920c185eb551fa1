package driving

import (
	"context"

	"github.com/custodia-labs/prokb/internal/core/domain"
)

// SearchService provides knowledge base queries to external actors.
type SearchService interface {
	// Search embeds the query and returns ranked fragments.
	// Embedding failures and empty matches are reported through the
	// outcome status, not as errors. Errors are reserved for storage faults.
	Search(ctx context.Context, query string, opts domain.SearchOptions) (*domain.SearchOutcome, error)

	// Count returns the number of stored fragments.
	Count(ctx context.Context) (int, error)

	// Ready reports whether the knowledge base can answer queries.
	Ready(ctx context.Context) bool

	// Health returns a readiness summary.
	Health(ctx context.Context) (*domain.Health, error)
}
