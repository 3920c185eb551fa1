// Package postprocessors prepares raw transcript segments for embedding.
package postprocessors

import (
	"context"
	"fmt"

	"github.com/custodia-labs/prokb/internal/core/domain"
	"github.com/custodia-labs/prokb/internal/core/ports/driven"
)

// Ensure Pipeline implements the interface.
var _ driven.TranscriptChunker = (*Pipeline)(nil)

// Pipeline runs segment processors in order and hands the result to a chunker.
type Pipeline struct {
	processors []driven.SegmentProcessor
	chunker    driven.TranscriptChunker
}

// NewPipeline creates a processing pipeline ending in the given chunker.
// Processors are executed in the order provided.
func NewPipeline(chunker driven.TranscriptChunker, processors ...driven.SegmentProcessor) *Pipeline {
	return &Pipeline{
		processors: processors,
		chunker:    chunker,
	}
}

// Chunk cleans the segments and splits them into chunks.
func (p *Pipeline) Chunk(ctx context.Context, segments []domain.Segment) ([]domain.TranscriptChunk, error) {
	if p.chunker == nil {
		return nil, fmt.Errorf("pipeline has no chunker")
	}

	for _, processor := range p.processors {
		var err error
		segments, err = processor.Process(ctx, segments)
		if err != nil {
			return nil, fmt.Errorf("processor %s: %w", processor.Name(), err)
		}
	}

	return p.chunker.Chunk(ctx, segments)
}

// Add appends a processor to the pipeline.
func (p *Pipeline) Add(processor driven.SegmentProcessor) {
	p.processors = append(p.processors, processor)
}

// Len returns the number of processors in the pipeline.
func (p *Pipeline) Len() int {
	return len(p.processors)
}
