package domain

import (
	"fmt"
	"math"
)

// Search defaults.
const (
	DefaultTopK         = 5
	DefaultMaxTopK      = 10
	DefaultSnippetChars = 800
)

// SearchOptions configures a knowledge base query.
type SearchOptions struct {
	// TopK is the number of results requested. Zero means the default.
	TopK int

	// Channel restricts results to one channel.
	Channel string

	// Language restricts results to one language.
	Language string
}

// Filter returns the metadata filter implied by the options.
func (o SearchOptions) Filter() Filter {
	return Filter{Channel: o.Channel, Language: o.Language}
}

// SearchResult is a single ranked hit. It never exposes the embedding.
type SearchResult struct {
	FragmentID    string     `json:"fragment_id"`
	Text          string     `json:"text"`
	Similarity    float64    `json:"similarity"`
	Channel       string     `json:"channel"`
	Title         string     `json:"title"`
	DocumentID    string     `json:"document_id"`
	URL           string     `json:"url"`
	PublishedDate string     `json:"published_date"`
	Language      string     `json:"language"`
	TimeRange     *TimeRange `json:"time_range,omitempty"`
}

// NewSearchResult projects a scored fragment into a result.
func NewSearchResult(sf ScoredFragment) SearchResult {
	fr := sf.Fragment
	return SearchResult{
		FragmentID:    fr.ID,
		Text:          fr.Text,
		Similarity:    sf.Similarity,
		Channel:       fr.Channel,
		Title:         fr.Title,
		DocumentID:    fr.DocumentID,
		URL:           fr.URL,
		PublishedDate: fr.PublishedDate,
		Language:      fr.Language,
		TimeRange:     fr.TimeRange,
	}
}

// RelevancePercent returns the similarity as a rounded percentage.
func (r SearchResult) RelevancePercent() int {
	return int(math.Round(r.Similarity * 100))
}

// Timestamp formats the start offset as m:ss.
func (r SearchResult) Timestamp() string {
	start := 0
	if r.TimeRange != nil {
		start = r.TimeRange.Start
	}
	return fmt.Sprintf("%d:%02d", start/60, start%60)
}

// PublishedDisplay renders a YYYYMMDD date as YYYY-MM-DD.
// Other formats yield an empty string.
func (r SearchResult) PublishedDisplay() string {
	d := r.PublishedDate
	if len(d) != 8 {
		return ""
	}
	return d[:4] + "-" + d[4:6] + "-" + d[6:]
}

// Snippet returns at most n runes of the text.
func (r SearchResult) Snippet(n int) string {
	if n <= 0 {
		return r.Text
	}
	runes := []rune(r.Text)
	if len(runes) <= n {
		return r.Text
	}
	return string(runes[:n])
}

// Citation is the reference handed to callers for attributing an answer.
type Citation struct {
	Type  string `json:"type"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Citation builds the source reference for this result.
func (r SearchResult) Citation() Citation {
	channel := r.Channel
	if channel == "" {
		channel = "Unknown"
	}
	title := r.Title
	if title == "" {
		title = "Unknown"
	}
	return Citation{
		Type:  SourceKindYouTube,
		Title: fmt.Sprintf("%s: %s (%s)", channel, title, r.Timestamp()),
		URL:   r.URL,
	}
}

// SearchStatus classifies the outcome of a search.
type SearchStatus string

const (
	// SearchStatusOK means at least one result was found.
	SearchStatusOK SearchStatus = "ok"

	// SearchStatusServiceUnavailable means the query could not be embedded.
	SearchStatusServiceUnavailable SearchStatus = "service_unavailable"

	// SearchStatusEmpty means nothing matched: an empty store, a filter with
	// no hits, or a degenerate query vector.
	SearchStatusEmpty SearchStatus = "empty"
)

// SearchOutcome is the typed result of a search.
type SearchOutcome struct {
	Status   SearchStatus   `json:"status"`
	Query    string         `json:"query"`
	Results  []SearchResult `json:"results"`
	Advisory string         `json:"advisory,omitempty"`
}

// Citations returns one citation per result, in rank order.
func (o *SearchOutcome) Citations() []Citation {
	citations := make([]Citation, len(o.Results))
	for i := range o.Results {
		citations[i] = o.Results[i].Citation()
	}
	return citations
}
