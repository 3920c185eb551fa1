// Package words provides a whitespace token counter.
//
// It approximates a BPE tokenizer without needing any encoding files, and is
// used when tiktoken is unavailable or disabled in settings.
package words

import (
	"strings"

	"github.com/custodia-labs/prokb/internal/core/ports/driven"
)

// Ensure Tokenizer implements the interface.
var _ driven.Tokenizer = (*Tokenizer)(nil)

// Name is the tokenizer identifier.
const Name = "words"

// Tokenizer counts whitespace-separated words.
type Tokenizer struct{}

// New creates a word tokenizer.
func New() *Tokenizer {
	return &Tokenizer{}
}

// Count returns the number of words in text.
func (t *Tokenizer) Count(text string) int {
	return len(strings.Fields(text))
}

// Name returns the tokenizer identifier.
func (t *Tokenizer) Name() string {
	return Name
}
