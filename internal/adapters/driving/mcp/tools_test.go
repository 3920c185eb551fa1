package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/prokb/internal/core/domain"
)

func newTestServer(t *testing.T, ports *Ports) *Server {
	t.Helper()
	server, err := NewServer(ports)
	require.NoError(t, err)
	return server
}

func toolText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok, "content should be text")
	return text.Text
}

func TestServer_handleSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("returns search results", func(t *testing.T) {
		mockSearch := &mockSearchService{
			outcome: &domain.SearchOutcome{
				Status: domain.SearchStatusOK,
				Query:  "fast castle",
				Results: []domain.SearchResult{{
					FragmentID:    "abc_chunk_0",
					DocumentID:    "abc",
					Text:          "Click up at 22 villagers.",
					Similarity:    0.91,
					Channel:       "Beasty",
					Title:         "FC Guide",
					URL:           "https://www.youtube.com/watch?v=abc&t=75",
					PublishedDate: "20240301",
					Language:      "en",
					TimeRange:     &domain.TimeRange{Start: 75, End: 90},
				}},
			},
		}
		server := newTestServer(t, &Ports{Search: mockSearch})

		result, output, err := server.handleSearch(ctx, nil, SearchInput{Query: "fast castle"})
		require.NoError(t, err)

		assert.Equal(t, domain.SearchStatusOK, output.Status)
		assert.Equal(t, 1, output.Count)
		require.Len(t, output.Results, 1)
		got := output.Results[0]
		assert.Equal(t, "abc_chunk_0", got.FragmentID)
		assert.Equal(t, "abc", got.DocumentID)
		assert.Equal(t, "FC Guide", got.Title)
		assert.Equal(t, "1:15", got.Timestamp)
		assert.Equal(t, "2024-03-01", got.Published)
		assert.Equal(t, 91, got.Relevance)
		assert.Equal(t, "Click up at 22 villagers.", got.Text)
		assert.InDelta(t, 0.91, got.Similarity, 1e-9)
		assert.Equal(t, "20240301", got.PublishedDate)
		assert.Equal(t, "en", got.Language)
		assert.Equal(t, &domain.TimeRange{Start: 75, End: 90}, got.TimeRange)

		require.Len(t, output.Citations, 1)
		assert.Equal(t, "Beasty: FC Guide (1:15)", output.Citations[0].Title)
		assert.Equal(t, domain.SourceKindYouTube, output.Citations[0].Type)

		text := toolText(t, result)
		assert.Contains(t, text, "### FC Guide — Beasty")
		assert.Contains(t, text, "**Relevance:** 91%")
	})

	t.Run("passes options through", func(t *testing.T) {
		mockSearch := &mockSearchService{}
		server := newTestServer(t, &Ports{Search: mockSearch})

		_, _, err := server.handleSearch(ctx, nil, SearchInput{
			Query:    "scouting",
			Channel:  "Hera",
			Language: "en",
			NResults: 3,
		})
		require.NoError(t, err)
		assert.Equal(t, "scouting", mockSearch.lastQuery)
		assert.Equal(t, domain.SearchOptions{TopK: 3, Channel: "Hera", Language: "en"}, mockSearch.lastOpts)
	})

	t.Run("no match renders the advisory", func(t *testing.T) {
		server := newTestServer(t, &Ports{Search: &mockSearchService{}})

		result, output, err := server.handleSearch(ctx, nil, SearchInput{Query: "tier list"})
		require.NoError(t, err)
		assert.Equal(t, domain.SearchStatusEmpty, output.Status)
		assert.Zero(t, output.Count)
		assert.Empty(t, output.Citations)
		assert.Equal(t, "No relevant pro content found for 'tier list'.", toolText(t, result))
	})

	t.Run("search failure degrades to unavailable", func(t *testing.T) {
		mockSearch := &mockSearchService{err: errors.New("disk on fire")}
		server := newTestServer(t, &Ports{Search: mockSearch})

		result, output, err := server.handleSearch(ctx, nil, SearchInput{Query: "test"})
		require.NoError(t, err)
		assert.Equal(t, domain.SearchStatusServiceUnavailable, output.Status)
		assert.Equal(t, domain.AdvisoryUnavailable, toolText(t, result))
	})

	t.Run("cancelled request returns error", func(t *testing.T) {
		mockSearch := &mockSearchService{err: context.Canceled}
		server := newTestServer(t, &Ports{Search: mockSearch})

		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, _, err := server.handleSearch(cctx, nil, SearchInput{Query: "test"})
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("truncates excerpts", func(t *testing.T) {
		mockSearch := &mockSearchService{
			outcome: &domain.SearchOutcome{
				Status:  domain.SearchStatusOK,
				Results: []domain.SearchResult{{Text: "0123456789"}},
			},
		}
		server := newTestServer(t, &Ports{Search: mockSearch, SnippetChars: 4})

		_, output, err := server.handleSearch(ctx, nil, SearchInput{Query: "test"})
		require.NoError(t, err)
		assert.Equal(t, "0123", output.Results[0].Text)
	})
}

func TestServer_handleStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("reports health", func(t *testing.T) {
		ended := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		mockSearch := &mockSearchService{health: &domain.Health{
			Count:   42,
			Ready:   true,
			Model:   domain.ModelInfo{Name: "text-embedding-3-small", Dimensions: 1536},
			LastRun: &domain.IngestReport{RunID: "r1", EndedAt: ended},
		}}
		server := newTestServer(t, &Ports{Search: mockSearch})

		_, output, err := server.handleStatus(ctx, nil, StatusInput{})
		require.NoError(t, err)
		assert.Equal(t, StatusOutput{
			Ready:          true,
			Fragments:      42,
			EmbeddingModel: "text-embedding-3-small",
			Dimensions:     1536,
			LastRun:        "2026-03-01T12:00:00Z",
		}, output)
	})

	t.Run("empty knowledge base", func(t *testing.T) {
		server := newTestServer(t, &Ports{Search: &mockSearchService{}})

		_, output, err := server.handleStatus(ctx, nil, StatusInput{})
		require.NoError(t, err)
		assert.False(t, output.Ready)
		assert.Empty(t, output.LastRun)
	})

	t.Run("health error", func(t *testing.T) {
		server := newTestServer(t, &Ports{Search: &mockSearchService{err: domain.ErrStorage}})

		_, _, err := server.handleStatus(ctx, nil, StatusInput{})
		assert.ErrorIs(t, err, domain.ErrStorage)
	})
}
