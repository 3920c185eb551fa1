package domain

import (
	"fmt"
	"net/url"
)

// SourceKindYouTube marks fragments cut from YouTube video transcripts.
const SourceKindYouTube = "youtube"

// Fragment is a unit of retrievable knowledge: a chunk of transcript text
// with its embedding and provenance.
type Fragment struct {
	// ID is stable across re-ingestion: FragmentID(DocumentID, ordinal).
	ID string

	// Text is the trimmed, non-empty fragment content.
	Text string

	// Embedding is the vector representation. Its length is constant
	// for every fragment in a store.
	Embedding []float32

	// SourceKind is the provenance category (e.g. "youtube").
	SourceKind string

	// Channel is the publishing channel name.
	Channel string

	// Title is the source document title.
	Title string

	// DocumentID identifies the source document this fragment belongs to.
	DocumentID string

	// URL is the canonical link, including the time offset.
	URL string

	// PublishedDate is the source publication date (YYYYMMDD).
	PublishedDate string

	// Language is the transcript language code.
	Language string

	// TimeRange locates the fragment within the source document.
	// Nil when the source has no timing information.
	TimeRange *TimeRange
}

// TimeRange is a (start, end) offset pair in whole seconds.
type TimeRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// FragmentID derives the deterministic fragment identifier for the
// n-th chunk of a document.
func FragmentID(documentID string, ordinal int) string {
	return fmt.Sprintf("%s_chunk_%d", documentID, ordinal)
}

// YouTubeURL returns the watch URL for a video starting at the given offset.
func YouTubeURL(videoID string, startSeconds int) string {
	return fmt.Sprintf("https://www.youtube.com/watch?v=%s&t=%d", url.QueryEscape(videoID), startSeconds)
}

// Filter restricts a scan to fragments with matching metadata.
// Empty fields place no restriction; set fields are ANDed.
type Filter struct {
	Channel  string
	Language string
}

// IsEmpty reports whether the filter places no restriction.
func (f Filter) IsEmpty() bool {
	return f.Channel == "" && f.Language == ""
}

// Matches reports whether a fragment passes the filter.
func (f Filter) Matches(fr *Fragment) bool {
	if f.Channel != "" && fr.Channel != f.Channel {
		return false
	}
	if f.Language != "" && fr.Language != f.Language {
		return false
	}
	return true
}

// ScoredFragment pairs a fragment with its similarity to a query.
type ScoredFragment struct {
	Fragment   Fragment
	Similarity float64
}

// ModelInfo identifies the embedding model and chunk tokenizer a store
// was populated with. Fragment ids depend on both.
type ModelInfo struct {
	// Name is the embedding model name.
	Name string

	// Dimensions is the embedding vector length.
	Dimensions int

	// Tokenizer names the counter that measured chunk budgets.
	// Empty means untracked.
	Tokenizer string
}

// IsZero reports whether no model has been recorded.
func (m ModelInfo) IsZero() bool {
	return m.Name == "" && m.Dimensions == 0
}

// Merge returns what a store pinned to m should record when next writes
// to it. A zero m accepts next as is. A different model or dimensionality
// fails with ErrModelMismatch, as does a different tokenizer when both are
// known. An untracked tokenizer on either side is filled in, not compared.
func (m ModelInfo) Merge(next ModelInfo) (ModelInfo, error) {
	if m.IsZero() {
		return next, nil
	}
	if m.Name != next.Name || m.Dimensions != next.Dimensions {
		return m, fmt.Errorf("%w: store uses %s (%d dims), got %s (%d dims)",
			ErrModelMismatch, m.Name, m.Dimensions, next.Name, next.Dimensions)
	}
	if m.Tokenizer == "" {
		m.Tokenizer = next.Tokenizer
		return m, nil
	}
	if next.Tokenizer != "" && next.Tokenizer != m.Tokenizer {
		return m, fmt.Errorf("%w: store was chunked with the %s tokenizer, got %s",
			ErrModelMismatch, m.Tokenizer, next.Tokenizer)
	}
	return m, nil
}
