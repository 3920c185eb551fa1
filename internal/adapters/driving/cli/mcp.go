package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/prokb/internal/adapters/driving/mcp"
	"github.com/custodia-labs/prokb/internal/logger"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so an assistant can call the
search_pro_content and knowledge_status tools.

By default, the server communicates over stdio using JSON-RPC.

Use --port to start an HTTP server instead, which enables:
  - Testing with MCP Inspector web UI
  - Remote access via HTTP

Use --schedule to keep the knowledge base fresh while serving.

Examples:
  # Stdio mode (default)
  prokb mcp serve

  # HTTP mode (for MCP Inspector, remote access)
  prokb mcp serve --port 8080

Client configuration:
  {
    "mcpServers": {
      "prokb": {
        "command": "/path/to/prokb",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpServeCmd.Flags().Bool("schedule", false, "run scheduled ingestion in the background")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}
	schedule, err := cmd.Flags().GetBool("schedule")
	if err != nil {
		return fmt.Errorf("getting schedule flag: %w", err)
	}

	ports := &mcp.Ports{
		Search:       searchService,
		Channels:     channelIndex,
		SnippetChars: snippetChars,
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if schedule && scheduler != nil {
		schedulerCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		go func() {
			if err := scheduler.Start(schedulerCtx); err != nil && schedulerCtx.Err() == nil {
				// Scheduler errors shouldn't stop the server
				logger.Error("scheduler stopped: %v", err)
			}
		}()
		defer func() {
			if err := scheduler.Stop(); err != nil {
				logger.Warn("stopping scheduler: %v", err)
			}
		}()
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(ctx, addr)
	}

	return server.Run(ctx)
}
