package driven

import (
	"context"

	"github.com/custodia-labs/prokb/internal/core/domain"
)

// SegmentProcessor cleans or transforms transcript segments before chunking.
type SegmentProcessor interface {
	// Name returns the processor identifier used in configuration.
	Name() string

	// Process returns the transformed segments. Order must be preserved.
	Process(ctx context.Context, segments []domain.Segment) ([]domain.Segment, error)
}

// TranscriptChunker turns ordered segments into token-bounded chunks.
type TranscriptChunker interface {
	// Chunk returns the chunks in transcript order. Empty input yields
	// an empty result, not an error.
	Chunk(ctx context.Context, segments []domain.Segment) ([]domain.TranscriptChunk, error)
}
