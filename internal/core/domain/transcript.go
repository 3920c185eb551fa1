package domain

import "strings"

// DefaultCaptionSeconds is the assumed length of one caption line when the
// video duration is unknown.
const DefaultCaptionSeconds = 3.0

// Segment is a timed piece of raw transcript text.
type Segment struct {
	// Text is the spoken text.
	Text string

	// Start is the offset from the beginning of the video, in seconds.
	Start float64

	// Duration is how long the segment lasts, in seconds.
	Duration float64
}

// TranscriptChunk is a token-bounded run of segments, ready for embedding.
type TranscriptChunk struct {
	// Text is the trimmed chunk content, including any leading overlap.
	Text string

	// Start is the first segment's start offset.
	Start float64

	// End is the next chunk's first segment start, or the final
	// segment's end for the last chunk.
	End float64

	// TokenCount is the measured size of Text.
	TokenCount int
}

// CaptionsToSegments spreads untimed caption lines evenly over the video.
// When durationSeconds is unknown each line is assumed to last
// DefaultCaptionSeconds. Blank lines are dropped but keep their slot.
func CaptionsToSegments(captions []string, durationSeconds int) []Segment {
	if len(captions) == 0 {
		return nil
	}

	perSegment := DefaultCaptionSeconds
	if durationSeconds > 0 {
		perSegment = float64(durationSeconds) / float64(len(captions))
	}

	segments := make([]Segment, 0, len(captions))
	for i, caption := range captions {
		text := strings.TrimSpace(caption)
		if text == "" {
			continue
		}
		segments = append(segments, Segment{
			Text:     text,
			Start:    float64(i) * perSegment,
			Duration: perSegment,
		})
	}
	return segments
}
