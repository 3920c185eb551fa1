package mcp

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/prokb/internal/core/domain"
	"github.com/custodia-labs/prokb/internal/logger"
)

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query    string `json:"query" jsonschema:"what to look up in pro player commentary, e.g. 'fast castle build order'"`
	Channel  string `json:"channel,omitempty" jsonschema:"restrict results to one channel"`
	Language string `json:"language,omitempty" jsonschema:"restrict results to one transcript language, e.g. 'en'"`
	NResults int    `json:"n_results,omitempty" jsonschema:"number of excerpts to return (default 5, max 10)"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Status    domain.SearchStatus  `json:"status"`
	Advisory  string               `json:"advisory,omitempty"`
	Count     int                  `json:"count"`
	Results   []SearchResultOutput `json:"results"`
	Citations []domain.Citation    `json:"citations"`
}

// SearchResultOutput represents a single excerpt. Similarity, PublishedDate
// and TimeRange carry the raw values; Timestamp, Published and Relevance
// are their display forms.
type SearchResultOutput struct {
	FragmentID    string            `json:"fragment_id"`
	DocumentID    string            `json:"document_id"`
	Title         string            `json:"title"`
	Channel       string            `json:"channel"`
	Language      string            `json:"language,omitempty"`
	URL           string            `json:"url"`
	Similarity    float64           `json:"similarity"`
	PublishedDate string            `json:"published_date,omitempty"`
	TimeRange     *domain.TimeRange `json:"time_range,omitempty"`
	Timestamp     string            `json:"timestamp"`
	Published     string            `json:"published,omitempty"`
	Relevance     int               `json:"relevance"`
	Text          string            `json:"text"`
}

// StatusInput is the (empty) input schema for the status tool.
type StatusInput struct{}

// StatusOutput is the output schema for the status tool.
type StatusOutput struct {
	Ready          bool   `json:"ready"`
	Fragments      int    `json:"fragments"`
	EmbeddingModel string `json:"embedding_model,omitempty"`
	Dimensions     int    `json:"dimensions,omitempty"`
	LastRun        string `json:"last_run,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name: "search_pro_content",
		Description: "Search transcripts of professional players' videos for strategy advice. " +
			"Returns excerpts with the channel, a timestamped link and a relevance score. " +
			"Cite the links when using an excerpt.",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "knowledge_status",
		Description: "Report whether the pro content knowledge base is ready and how much it holds",
	}, s.handleStatus)
}

// handleSearch handles the search tool invocation. Search faults never
// surface as tool errors; the caller gets the unavailable advisory instead.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	opts := domain.SearchOptions{
		TopK:     input.NResults,
		Channel:  input.Channel,
		Language: input.Language,
	}

	outcome, err := s.ports.Search.Search(ctx, input.Query, opts)
	if err != nil {
		if ctx.Err() != nil {
			return nil, SearchOutput{}, ctx.Err()
		}
		logger.Warn("search_pro_content failed: %v", err)
		outcome = &domain.SearchOutcome{
			Status:   domain.SearchStatusServiceUnavailable,
			Query:    input.Query,
			Advisory: domain.AdvisoryUnavailable,
		}
	}

	output := SearchOutput{
		Status:    outcome.Status,
		Advisory:  outcome.Advisory,
		Count:     len(outcome.Results),
		Results:   make([]SearchResultOutput, len(outcome.Results)),
		Citations: outcome.Citations(),
	}
	for i := range outcome.Results {
		r := &outcome.Results[i]
		output.Results[i] = SearchResultOutput{
			FragmentID:    r.FragmentID,
			DocumentID:    r.DocumentID,
			Title:         r.Title,
			Channel:       r.Channel,
			Language:      r.Language,
			URL:           r.URL,
			Similarity:    r.Similarity,
			PublishedDate: r.PublishedDate,
			TimeRange:     r.TimeRange,
			Timestamp:     r.Timestamp(),
			Published:     r.PublishedDisplay(),
			Relevance:     r.RelevancePercent(),
			Text:          r.Snippet(s.ports.SnippetChars),
		}
	}

	result := &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: domain.FormatOutcome(outcome, s.ports.SnippetChars)},
		},
	}
	return result, output, nil
}

// handleStatus handles the status tool invocation.
func (s *Server) handleStatus(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ StatusInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	health, err := s.ports.Search.Health(ctx)
	if err != nil {
		return nil, StatusOutput{}, err
	}
	return nil, statusOutput(health), nil
}

func statusOutput(h *domain.Health) StatusOutput {
	out := StatusOutput{
		Ready:          h.Ready,
		Fragments:      h.Count,
		EmbeddingModel: h.Model.Name,
		Dimensions:     h.Model.Dimensions,
	}
	if h.LastRun != nil && !h.LastRun.EndedAt.IsZero() {
		out.LastRun = h.LastRun.EndedAt.Format(time.RFC3339)
	}
	return out
}
