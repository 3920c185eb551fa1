// Package cache serves transcripts from a JSON transcript cache file.
//
// The file maps video IDs to either plain caption lines or timed segments:
//
//	{"abc": ["first line", "second line"],
//	 "def": [{"text": "hello", "start": 0.0, "duration": 2.5}]}
//
// Plain captions carry no timing, so they are spread evenly over the
// video duration from the catalog.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/custodia-labs/prokb/internal/core/domain"
	"github.com/custodia-labs/prokb/internal/core/ports/driven"
)

// DefaultFileName is the transcript cache file name inside the data directory.
const DefaultFileName = "transcript_cache.json"

// Ensure Source implements the interface.
var _ driven.TranscriptSource = (*Source)(nil)

type timedSegment struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// Source reads transcripts from the cache file. The file is loaded once
// and reloaded when its modification time changes.
type Source struct {
	path string

	mu      sync.Mutex
	modTime int64
	entries map[string]json.RawMessage
}

// New creates a transcript source backed by the file at path.
func New(path string) *Source {
	return &Source{path: path}
}

// Fetch returns the segments for a video. A video with no cache entry, or
// an empty one, yields domain.ErrTranscriptUnavailable.
func (s *Source) Fetch(ctx context.Context, video domain.Video) ([]domain.Segment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := s.lookup(video.ID)
	if err != nil {
		return nil, err
	}

	segments, err := decodeSegments(raw, video.DurationSeconds)
	if err != nil {
		return nil, fmt.Errorf("%w: transcript for %s: %w", domain.ErrTranscriptUnavailable, video.ID, err)
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("%w: transcript for %s is empty", domain.ErrTranscriptUnavailable, video.ID)
	}
	return segments, nil
}

func (s *Source) lookup(videoID string) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := os.Stat(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: no transcript cache at %s", domain.ErrTranscriptUnavailable, s.path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading transcript cache: %w", err)
	}

	if s.entries == nil || info.ModTime().UnixNano() != s.modTime {
		data, err := os.ReadFile(s.path)
		if err != nil {
			return nil, fmt.Errorf("reading transcript cache: %w", err)
		}
		var entries map[string]json.RawMessage
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("%w: transcript cache is not a JSON object: %w", domain.ErrInvalidInput, err)
		}
		s.entries = entries
		s.modTime = info.ModTime().UnixNano()
	}

	raw, ok := s.entries[videoID]
	if !ok {
		return nil, fmt.Errorf("%w: no cached transcript for %s", domain.ErrTranscriptUnavailable, videoID)
	}
	return raw, nil
}

// decodeSegments accepts either caption strings or timed segments.
func decodeSegments(raw json.RawMessage, durationSeconds int) ([]domain.Segment, error) {
	var captions []string
	if err := json.Unmarshal(raw, &captions); err == nil {
		return domain.CaptionsToSegments(captions, durationSeconds), nil
	}

	var timed []timedSegment
	if err := json.Unmarshal(raw, &timed); err != nil {
		return nil, fmt.Errorf("unrecognised transcript format: %w", err)
	}
	segments := make([]domain.Segment, 0, len(timed))
	for _, t := range timed {
		if t.Text == "" {
			continue
		}
		segments = append(segments, domain.Segment{Text: t.Text, Start: t.Start, Duration: t.Duration})
	}
	return segments, nil
}
