package cli

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show knowledge base status",
	Long: `Shows whether the knowledge base can answer queries, the number of stored
fragments, the pinned embedding model, the last ingestion run and the newest
catalog upload per channel.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if searchService == nil {
		return errNotConfigured("search")
	}
	ctx := cmd.Context()

	health, err := searchService.Health(ctx)
	if err != nil {
		return fmt.Errorf("failed to read status: %w", err)
	}

	state := "empty"
	if health.Ready {
		state = "ready"
	}
	cmd.Printf("Knowledge base: %s\n", state)
	cmd.Printf("Fragments: %d\n", health.Count)
	if health.Model.IsZero() {
		cmd.Println("Embedding model: (not pinned)")
	} else {
		cmd.Printf("Embedding model: %s (%d dimensions)\n", health.Model.Name, health.Model.Dimensions)
	}

	if ingestService != nil {
		if status, err := ingestService.Status(ctx); err == nil && status.Running {
			cmd.Printf("Ingestion: running, %d/%d documents\n", status.DocumentsProcessed, status.DocumentsTotal)
		}
	}

	if run := health.LastRun; run != nil {
		cmd.Printf("Last run: %s at %s: %d stored, %d skipped, %d failed\n",
			run.RunID, run.EndedAt.Local().Format(time.DateTime), run.Stored, run.Skipped, run.Failed)
	} else {
		cmd.Println("Last run: never")
	}

	if channelIndex == nil {
		return nil
	}
	latest, err := channelIndex.LatestUploadDates(ctx)
	if err != nil {
		cmd.Printf("Channels: unavailable (%v)\n", err)
		return nil
	}
	names := make([]string, 0, len(latest))
	for name := range latest {
		names = append(names, name)
	}
	sort.Strings(names)

	cmd.Println()
	cmd.Println("Channels (newest upload):")
	for _, name := range names {
		cmd.Printf("  %-24s %s\n", name, displayDate(latest[name]))
	}
	return nil
}

// displayDate renders YYYYMMDD as YYYY-MM-DD, leaving other values as is.
func displayDate(d string) string {
	if t, err := time.Parse("20060102", d); err == nil {
		return t.Format(time.DateOnly)
	}
	return d
}
