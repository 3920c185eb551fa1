package driven

import (
	"context"

	"github.com/custodia-labs/prokb/internal/core/domain"
)

// VectorIndex ranks stored fragments by similarity to a query vector.
// The default implementation scans the fragment store; an approximate
// nearest-neighbour index can replace it behind the same interface.
type VectorIndex interface {
	// Search returns at most k fragments passing the filter, ordered by
	// descending cosine similarity. Ties keep storage order. A zero-norm
	// query yields an empty result.
	Search(ctx context.Context, query []float32, k int, filter domain.Filter) ([]domain.ScoredFragment, error)
}
