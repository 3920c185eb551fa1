package mcp

import (
	"context"

	"github.com/custodia-labs/prokb/internal/core/ports/driving"
)

// ChannelIndex reports the newest upload date per channel.
// Satisfied by the catalog adapter.
type ChannelIndex interface {
	LatestUploadDates(ctx context.Context) (map[string]string, error)
}

// Ports aggregates the dependencies required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Search provides knowledge base queries.
	Search driving.SearchService

	// Channels lists catalog channels. Optional.
	Channels ChannelIndex

	// SnippetChars truncates result text in tool output. Zero means the default.
	SnippetChars int
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	return nil
}
