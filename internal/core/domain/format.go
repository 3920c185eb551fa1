package domain

import (
	"fmt"
	"strings"
)

// Advisory messages returned in place of results.
const (
	AdvisoryEmptyKnowledgeBase = "Pro content knowledge base is empty. No transcripts have been ingested yet."
	AdvisoryUnavailable        = "Pro content search is unavailable right now. Answer from other sources."
	AdvisoryEmptyQuery         = "No search query given."
)

// NoMatchAdvisory is returned when the store holds fragments but none pass
// the filters.
func NoMatchAdvisory(query string) string {
	return fmt.Sprintf("No relevant pro content found for '%s'.", query)
}

// FormatOutcome renders a search outcome as the markdown block handed to
// the tool-calling layer. Non-OK outcomes render as their advisory.
// snippetChars bounds each quoted excerpt; zero means the default.
func FormatOutcome(outcome *SearchOutcome, snippetChars int) string {
	if outcome == nil {
		return AdvisoryUnavailable
	}
	if outcome.Status != SearchStatusOK || len(outcome.Results) == 0 {
		if outcome.Advisory != "" {
			return outcome.Advisory
		}
		return NoMatchAdvisory(outcome.Query)
	}
	if snippetChars <= 0 {
		snippetChars = DefaultSnippetChars
	}

	var b strings.Builder
	for i := range outcome.Results {
		r := &outcome.Results[i]
		channel := orUnknown(r.Channel)
		title := orUnknown(r.Title)

		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "### %s — %s\n", title, channel)
		fmt.Fprintf(&b, "**Relevance:** %d%% | **Timestamp:** %s | **Date:** %s\n",
			r.RelevancePercent(), r.Timestamp(), r.PublishedDisplay())
		fmt.Fprintf(&b, "**Link:** %s\n", r.URL)
		fmt.Fprintf(&b, "\n> %s\n", r.Snippet(snippetChars))
	}
	return b.String()
}

func orUnknown(s string) string {
	if s == "" {
		return unknownDescription
	}
	return s
}
