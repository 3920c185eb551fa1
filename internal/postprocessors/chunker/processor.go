// Package chunker splits timed transcript segments into token-bounded,
// overlapping chunks.
package chunker

import (
	"context"
	"strings"

	"github.com/custodia-labs/prokb/internal/core/domain"
	"github.com/custodia-labs/prokb/internal/core/ports/driven"
)

// DefaultChunkSize is the default token budget per chunk.
const DefaultChunkSize = domain.DefaultChunkTokens

// DefaultChunkOverlap is the default token budget carried into the next chunk.
const DefaultChunkOverlap = domain.DefaultOverlapTokens

// Ensure Chunker implements the interface.
var _ driven.TranscriptChunker = (*Chunker)(nil)

// Chunker greedily packs segments into chunks of at most chunkSize tokens.
// A segment is never split, so a single oversized segment becomes its own chunk.
type Chunker struct {
	tokenizer driven.Tokenizer
	chunkSize int
	overlap   int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the chunk size in tokens.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in tokens.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// New creates a chunker measuring text with the given tokenizer.
func New(tokenizer driven.Tokenizer, opts ...Option) *Chunker {
	c := &Chunker{
		tokenizer: tokenizer,
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Ensure overlap doesn't exceed chunk size
	if c.overlap >= c.chunkSize {
		c.overlap = c.chunkSize / 4
	}

	return c
}

// Name returns the processor name.
func (c *Chunker) Name() string {
	return "chunker"
}

// ChunkSize returns the configured token budget.
func (c *Chunker) ChunkSize() int {
	return c.chunkSize
}

// Overlap returns the configured overlap budget.
func (c *Chunker) Overlap() int {
	return c.overlap
}

// Chunk packs segments into chunks. Blank segments are skipped.
// When the next segment would exceed the budget the current chunk closes
// at that segment's start, and the next chunk opens with the trailing
// overlap words of the closed one followed by the segment text. The final
// chunk ends at the last segment's start plus its duration.
func (c *Chunker) Chunk(ctx context.Context, segments []domain.Segment) ([]domain.TranscriptChunk, error) {
	if len(segments) == 0 {
		return nil, nil
	}

	var (
		chunks        []domain.TranscriptChunk
		current       string
		currentTokens int
		chunkStart    float64
	)

	for i := range segments {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		text := strings.TrimSpace(segments[i].Text)
		if text == "" {
			continue
		}
		segTokens := c.tokenizer.Count(text)

		if current != "" && currentTokens+segTokens > c.chunkSize {
			chunks = append(chunks, domain.TranscriptChunk{
				Text:       strings.TrimSpace(current),
				Start:      chunkStart,
				End:        segments[i].Start,
				TokenCount: currentTokens,
			})

			current = strings.TrimSpace(c.trailingOverlap(current) + " " + text)
			currentTokens = c.tokenizer.Count(current)
			chunkStart = segments[i].Start
			continue
		}

		if current == "" {
			current = text
			chunkStart = segments[i].Start
		} else {
			current += " " + text
		}
		currentTokens += segTokens
	}

	if strings.TrimSpace(current) != "" {
		last := segments[len(segments)-1]
		chunks = append(chunks, domain.TranscriptChunk{
			Text:       strings.TrimSpace(current),
			Start:      chunkStart,
			End:        last.Start + last.Duration,
			TokenCount: currentTokens,
		})
	}

	return chunks, nil
}

// trailingOverlap returns the longest run of trailing words whose summed
// token counts fit the overlap budget.
func (c *Chunker) trailingOverlap(text string) string {
	if c.overlap == 0 {
		return ""
	}

	words := strings.Fields(text)
	tokens := 0
	start := len(words)
	for i := len(words) - 1; i >= 0; i-- {
		wt := c.tokenizer.Count(words[i])
		if tokens+wt > c.overlap {
			break
		}
		tokens += wt
		start = i
	}
	return strings.Join(words[start:], " ")
}
