package driven

import (
	"context"

	"github.com/custodia-labs/prokb/internal/core/domain"
)

// FragmentStore provides durable keyed storage of fragments.
// It is queried by exact-match metadata, never by similarity.
type FragmentStore interface {
	// Upsert inserts or fully replaces each fragment by ID.
	// The batch is applied atomically. I/O failures wrap domain.ErrStorage.
	Upsert(ctx context.Context, fragments []domain.Fragment) error

	// Exists reports whether any fragment for the document is stored.
	// It never reports true for a document with no fragments.
	Exists(ctx context.Context, documentID string) (bool, error)

	// Count returns the total number of stored fragments.
	Count(ctx context.Context) (int, error)

	// All returns fragments matching the filter, in storage order.
	All(ctx context.Context, filter domain.Filter) ([]domain.Fragment, error)

	// Reset deletes every fragment and clears the pinned model.
	// Callers are responsible for confirming the operation.
	Reset(ctx context.Context) error

	// DeleteDocument removes all fragments for a document and returns
	// how many were removed.
	DeleteDocument(ctx context.Context, documentID string) (int, error)

	// ReplaceDocument swaps a document's fragments for the given set in
	// one atomic step. On error the previous fragments are kept. Every
	// fragment must belong to documentID.
	ReplaceDocument(ctx context.Context, documentID string, fragments []domain.Fragment) error

	// EmbeddingModel returns the model the store is pinned to.
	// A zero ModelInfo means nothing has been pinned yet.
	EmbeddingModel(ctx context.Context) (domain.ModelInfo, error)

	// PinEmbeddingModel records the model on first use and rejects a
	// different one afterwards with domain.ErrModelMismatch.
	PinEmbeddingModel(ctx context.Context, model domain.ModelInfo) error
}
