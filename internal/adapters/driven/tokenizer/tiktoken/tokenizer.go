// Package tiktoken counts tokens with OpenAI's BPE encodings.
package tiktoken

import (
	"fmt"
	"sync"

	tiktoken "github.com/pkoukk/tiktoken-go"

	"github.com/custodia-labs/prokb/internal/core/ports/driven"
	"github.com/custodia-labs/prokb/internal/logger"
)

// Ensure Tokenizer implements the interface.
var _ driven.Tokenizer = (*Tokenizer)(nil)

// DefaultEncoding is the encoding used by the gpt-4o model family.
const DefaultEncoding = "o200k_base"

// Tokenizer counts tokens using a tiktoken encoding. The encoding is loaded
// on first use; if loading fails the tokenizer falls back to the fallback
// counter for the rest of its lifetime.
type Tokenizer struct {
	encoding string
	fallback driven.Tokenizer

	once sync.Once
	enc  *tiktoken.Tiktoken
	err  error
}

// Option configures a Tokenizer.
type Option func(*Tokenizer)

// WithEncoding overrides the BPE encoding name.
func WithEncoding(name string) Option {
	return func(t *Tokenizer) {
		t.encoding = name
	}
}

// New creates a tiktoken tokenizer. The fallback is used when the encoding
// cannot be loaded and must not be nil.
func New(fallback driven.Tokenizer, opts ...Option) *Tokenizer {
	t := &Tokenizer{
		encoding: DefaultEncoding,
		fallback: fallback,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Load eagerly loads the encoding and reports any failure.
func (t *Tokenizer) Load() error {
	t.once.Do(func() {
		t.enc, t.err = tiktoken.GetEncoding(t.encoding)
		if t.err != nil {
			t.err = fmt.Errorf("load encoding %s: %w", t.encoding, t.err)
			logger.Warn("tiktoken unavailable, falling back to %s: %v", t.fallback.Name(), t.err)
		}
	})
	return t.err
}

// Count returns the number of tokens in text.
func (t *Tokenizer) Count(text string) int {
	if text == "" {
		return 0
	}
	if err := t.Load(); err != nil {
		return t.fallback.Count(text)
	}
	return len(t.enc.Encode(text, nil, nil))
}

// Name returns the encoding name, or the fallback name when the encoding
// failed to load. It loads the encoding if that has not happened yet.
func (t *Tokenizer) Name() string {
	if err := t.Load(); err != nil {
		return t.fallback.Name()
	}
	return t.encoding
}
