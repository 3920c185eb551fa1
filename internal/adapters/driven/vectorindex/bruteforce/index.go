// Package bruteforce ranks fragments by exact cosine similarity.
//
// Every search scans the fragment store. At knowledge-base scale (a few
// thousand fragments) this stays well under interactive latency, and an
// approximate index can replace it behind driven.VectorIndex.
package bruteforce

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/custodia-labs/prokb/internal/core/domain"
	"github.com/custodia-labs/prokb/internal/core/ports/driven"
	"github.com/custodia-labs/prokb/internal/logger"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Index is an exhaustive cosine-similarity search over a FragmentStore.
type Index struct {
	store driven.FragmentStore
}

// New creates an index reading from the given store.
func New(store driven.FragmentStore) *Index {
	return &Index{store: store}
}

// Search returns the k most similar fragments passing the filter.
// Stored rows with a zero-norm embedding are skipped. A zero-norm query
// returns an empty result. A query whose length differs from the stored
// embeddings fails with domain.ErrDimensionMismatch.
func (idx *Index) Search(
	ctx context.Context,
	query []float32,
	k int,
	filter domain.Filter,
) ([]domain.ScoredFragment, error) {
	if k <= 0 {
		return []domain.ScoredFragment{}, nil
	}

	qNorm := norm(query)
	if qNorm == 0 {
		return []domain.ScoredFragment{}, nil
	}

	fragments, err := idx.store.All(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("loading fragments: %w", err)
	}

	scored := make([]domain.ScoredFragment, 0, len(fragments))
	skipped := 0
	for i := range fragments {
		if i%256 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		emb := fragments[i].Embedding
		if len(emb) != len(query) {
			return nil, fmt.Errorf("%w: query has %d dimensions, fragment %s has %d",
				domain.ErrDimensionMismatch, len(query), fragments[i].ID, len(emb))
		}
		eNorm := norm(emb)
		if eNorm == 0 {
			skipped++
			continue
		}

		scored = append(scored, domain.ScoredFragment{
			Fragment:   fragments[i],
			Similarity: clamp(dot(query, emb) / (qNorm * eNorm)),
		})
	}
	if skipped > 0 {
		logger.Warn("skipped %d fragments with zero-norm embeddings", skipped)
	}

	// Stable sort keeps storage order among equal similarities.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

// CosineSimilarity returns dot(a, b) / (|a| |b|), or 0 when either vector
// has zero norm or the lengths differ.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	na, nb := norm(a), norm(b)
	if na == 0 || nb == 0 {
		return 0
	}
	return clamp(dot(a, b) / (na * nb))
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func norm(v []float32) float64 {
	return math.Sqrt(dot(v, v))
}

// clamp absorbs floating point error so results stay within [-1, 1].
func clamp(s float64) float64 {
	return math.Max(-1, math.Min(1, s))
}
