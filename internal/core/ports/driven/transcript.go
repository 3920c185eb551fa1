package driven

import (
	"context"

	"github.com/custodia-labs/prokb/internal/core/domain"
)

// TranscriptSource supplies timed transcript segments for a document.
type TranscriptSource interface {
	// Fetch returns the ordered segments for the video.
	// Returns domain.ErrTranscriptUnavailable when none exist.
	Fetch(ctx context.Context, video domain.Video) ([]domain.Segment, error)
}
