// Package cleaner provides segment processors that tidy auto-generated
// captions before chunking. Processors never drop segments; they blank the
// text so timing information survives for the chunker.
package cleaner

import (
	"context"
	"regexp"
	"strings"

	"github.com/custodia-labs/prokb/internal/core/domain"
	"github.com/custodia-labs/prokb/internal/core/ports/driven"
)

// Processor names used in configuration.
const (
	AnnotationsName = "annotations"
	DedupeName      = "dedupe"
)

var (
	bracketed     = regexp.MustCompile(`\[[^\]]*\]`)
	parenthesised = regexp.MustCompile(`\([^)]*\)`)
)

var (
	_ driven.SegmentProcessor = (*Annotations)(nil)
	_ driven.SegmentProcessor = (*Dedupe)(nil)
)

// Annotations strips caption annotations such as "[Music]" and collapses
// whitespace.
type Annotations struct {
	keepParentheses bool
}

// NewAnnotations creates an annotation stripper.
func NewAnnotations(keepParentheses bool) *Annotations {
	return &Annotations{keepParentheses: keepParentheses}
}

// Name returns the processor name.
func (a *Annotations) Name() string {
	return AnnotationsName
}

// Process returns a cleaned copy of the segments.
func (a *Annotations) Process(_ context.Context, segments []domain.Segment) ([]domain.Segment, error) {
	out := make([]domain.Segment, len(segments))
	for i, seg := range segments {
		text := bracketed.ReplaceAllString(seg.Text, " ")
		if !a.keepParentheses {
			text = parenthesised.ReplaceAllString(text, " ")
		}
		seg.Text = strings.Join(strings.Fields(text), " ")
		out[i] = seg
	}
	return out, nil
}

// Dedupe blanks a segment whose text repeats the previous non-blank segment,
// a common artefact of rolling auto-captions.
type Dedupe struct{}

// NewDedupe creates a duplicate-line remover.
func NewDedupe() *Dedupe {
	return &Dedupe{}
}

// Name returns the processor name.
func (d *Dedupe) Name() string {
	return DedupeName
}

// Process returns a copy with repeated lines blanked.
func (d *Dedupe) Process(_ context.Context, segments []domain.Segment) ([]domain.Segment, error) {
	out := make([]domain.Segment, len(segments))
	previous := ""
	for i, seg := range segments {
		key := strings.ToLower(strings.TrimSpace(seg.Text))
		if key != "" {
			if key == previous {
				seg.Text = ""
			} else {
				previous = key
			}
		}
		out[i] = seg
	}
	return out, nil
}
