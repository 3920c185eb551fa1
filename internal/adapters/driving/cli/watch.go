package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/prokb/internal/core/domain"
)

var watchNow bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-ingest on a schedule and on catalog changes",
	Long: `Runs in the foreground, ingesting new approved catalog entries on the
configured cron schedule (ingest.schedule) and whenever the catalog file
changes (scheduler.watch_catalog). Stop with Ctrl+C.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchNow, "now", false, "run one ingestion before waiting")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	if scheduler == nil {
		return errNotConfigured("scheduler")
	}
	ctx := cmd.Context()

	if watchNow && ingestService != nil {
		report, err := ingestService.Ingest(ctx, domain.IngestOptions{})
		if err != nil {
			return fmt.Errorf("ingestion failed: %w", err)
		}
		printReport(cmd, report)
	}

	cmd.Println("Watching for scheduled and catalog-triggered ingestion. Press Ctrl+C to stop.")
	err := scheduler.Start(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
