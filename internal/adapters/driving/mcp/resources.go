package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// URIScheme is the custom URI scheme for prokb resources.
	uriScheme = "prokb://"
)

// channelInfo is one entry of the channels resource.
type channelInfo struct {
	Channel      string `json:"channel"`
	LatestUpload string `json:"latest_upload"`
}

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "status",
		Name:        "status",
		Description: "Knowledge base readiness, fragment count and pinned embedding model",
		MIMEType:    "application/json",
	}, s.handleStatusResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "channels",
		Name:        "channels",
		Description: "Catalog channels with their newest upload date",
		MIMEType:    "application/json",
	}, s.handleChannelsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "channels/{channel}",
		Name:        "channel",
		Description: "Newest upload date of a single channel",
		MIMEType:    "application/json",
	}, s.handleChannelResource)
}

// handleStatusResource returns the knowledge base health.
func (s *Server) handleStatusResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	health, err := s.ports.Search.Health(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading health: %w", err)
	}
	return jsonResource(req.Params.URI, statusOutput(health))
}

// handleChannelsResource lists every catalog channel.
func (s *Server) handleChannelsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	channels, err := s.channels(ctx)
	if err != nil {
		return nil, err
	}
	return jsonResource(req.Params.URI, channels)
}

// handleChannelResource returns one channel.
func (s *Server) handleChannelResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	name := extractChannel(req.Params.URI)
	if name == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	channels, err := s.channels(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range channels {
		if c.Channel == name {
			return jsonResource(req.Params.URI, c)
		}
	}
	return nil, mcp.ResourceNotFoundError(req.Params.URI)
}

// channels returns catalog channels sorted by name. Without a catalog
// the list is empty.
func (s *Server) channels(ctx context.Context) ([]channelInfo, error) {
	if s.ports.Channels == nil {
		return []channelInfo{}, nil
	}

	latest, err := s.ports.Channels.LatestUploadDates(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing channels: %w", err)
	}

	infos := make([]channelInfo, 0, len(latest))
	for channel, date := range latest {
		infos = append(infos, channelInfo{Channel: channel, LatestUpload: date})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Channel < infos[j].Channel })
	return infos, nil
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractChannel extracts the channel name from a URI like prokb://channels/{channel}.
func extractChannel(uri string) string {
	const prefix = uriScheme + "channels/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	name, err := url.PathUnescape(strings.TrimPrefix(uri, prefix))
	if err != nil || strings.Contains(name, "/") {
		return ""
	}
	return name
}
