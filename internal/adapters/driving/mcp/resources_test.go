package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/prokb/internal/core/domain"
)

func TestExtractChannel(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{
			name:     "valid channel URI",
			uri:      "prokb://channels/Beasty",
			expected: "Beasty",
		},
		{
			name:     "escaped channel name",
			uri:      "prokb://channels/Spirit%20of%20the%20Law",
			expected: "Spirit of the Law",
		},
		{
			name:     "invalid prefix",
			uri:      "file://channels/Beasty",
			expected: "",
		},
		{
			name:     "nested path",
			uri:      "prokb://channels/Beasty/videos",
			expected: "",
		},
		{
			name:     "bad escape",
			uri:      "prokb://channels/%zz",
			expected: "",
		},
		{
			name:     "empty URI",
			uri:      "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := extractChannel(tt.uri)
			assert.Equal(t, tt.expected, result)
		})
	}
}

// Helper to create a ReadResourceRequest with the given URI.
func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestServer_handleStatusResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns health as JSON", func(t *testing.T) {
		mockSearch := &mockSearchService{health: &domain.Health{
			Count: 7,
			Ready: true,
			Model: domain.ModelInfo{Name: "nomic-embed-text", Dimensions: 768},
		}}
		server := newTestServer(t, &Ports{Search: mockSearch})

		req := makeReadResourceRequest("prokb://status")
		result, err := server.handleStatusResource(ctx, req)
		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)

		var got StatusOutput
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &got))
		assert.Equal(t, 7, got.Fragments)
		assert.True(t, got.Ready)
		assert.Equal(t, "nomic-embed-text", got.EmbeddingModel)
	})

	t.Run("returns error on health failure", func(t *testing.T) {
		server := newTestServer(t, &Ports{Search: &mockSearchService{err: errors.New("database error")}})

		_, err := server.handleStatusResource(ctx, makeReadResourceRequest("prokb://status"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "reading health")
	})
}

func TestServer_handleChannelsResource(t *testing.T) {
	ctx := context.Background()

	t.Run("nil channel index returns empty list", func(t *testing.T) {
		server := newTestServer(t, &Ports{Search: &mockSearchService{}})

		result, err := server.handleChannelsResource(ctx, makeReadResourceRequest("prokb://channels"))
		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "[]", result.Contents[0].Text)
	})

	t.Run("returns channels sorted by name", func(t *testing.T) {
		channels := &mockChannels{latest: map[string]string{
			"Hera":   "20240210",
			"Beasty": "20240301",
		}}
		server := newTestServer(t, &Ports{Search: &mockSearchService{}, Channels: channels})

		result, err := server.handleChannelsResource(ctx, makeReadResourceRequest("prokb://channels"))
		require.NoError(t, err)

		var got []channelInfo
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &got))
		assert.Equal(t, []channelInfo{
			{Channel: "Beasty", LatestUpload: "20240301"},
			{Channel: "Hera", LatestUpload: "20240210"},
		}, got)
	})

	t.Run("returns error on catalog failure", func(t *testing.T) {
		channels := &mockChannels{err: domain.ErrCatalogNotFound}
		server := newTestServer(t, &Ports{Search: &mockSearchService{}, Channels: channels})

		_, err := server.handleChannelsResource(ctx, makeReadResourceRequest("prokb://channels"))
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrCatalogNotFound)
		assert.Contains(t, err.Error(), "listing channels")
	})
}

func TestServer_handleChannelResource(t *testing.T) {
	ctx := context.Background()
	channels := &mockChannels{latest: map[string]string{"Spirit of the Law": "20231105"}}
	server := newTestServer(t, &Ports{Search: &mockSearchService{}, Channels: channels})

	t.Run("returns the channel", func(t *testing.T) {
		result, err := server.handleChannelResource(ctx,
			makeReadResourceRequest("prokb://channels/Spirit%20of%20the%20Law"))
		require.NoError(t, err)
		assert.Contains(t, result.Contents[0].Text, `"latest_upload": "20231105"`)
	})

	t.Run("unknown channel returns not found", func(t *testing.T) {
		_, err := server.handleChannelResource(ctx, makeReadResourceRequest("prokb://channels/Nobody"))
		require.Error(t, err)
	})

	t.Run("invalid URI returns not found", func(t *testing.T) {
		_, err := server.handleChannelResource(ctx, makeReadResourceRequest("prokb://invalid/uri"))
		require.Error(t, err)
	})
}
