// Package mcp provides an MCP (Model Context Protocol) server adapter for prokb.
// It exposes pro content search to assistant runtimes as tools and resources.
package mcp

import "errors"

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("mcp: search service is required")
