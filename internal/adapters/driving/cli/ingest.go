package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/prokb/internal/core/domain"
	"github.com/custodia-labs/prokb/internal/core/ports/driving"
	"github.com/custodia-labs/prokb/internal/logger"
)

var (
	ingestForce     bool
	ingestReset     bool
	ingestYes       bool
	ingestDocuments []string
	resetYes        bool
)

// progressInterval is how often a running ingestion is polled for progress.
var progressInterval = 500 * time.Millisecond

// isTerminal reports whether stdin is interactive.
var isTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest approved catalog videos",
	Long: `Runs the ingestion pipeline over approved catalog entries: fetch the
transcript, clean and chunk it, embed the chunks and store the fragments.

Documents that already have fragments are skipped unless --force is given.
A failure on one document is reported and never stops the run.`,
	Args: cobra.NoArgs,
	RunE: runIngest,
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every stored fragment",
	Long: `Wipes the knowledge base and the pinned embedding model.
Asks for confirmation unless --yes is given.`,
	Args: cobra.NoArgs,
	RunE: runReset,
}

var deleteCmd = &cobra.Command{
	Use:   "delete [document-id]",
	Short: "Delete the fragments of one document",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestForce, "force", false, "re-ingest documents that already have fragments")
	ingestCmd.Flags().BoolVar(&ingestReset, "reset", false, "wipe the knowledge base before ingesting")
	ingestCmd.Flags().BoolVarP(&ingestYes, "yes", "y", false, "do not ask for confirmation")
	ingestCmd.Flags().StringSliceVar(&ingestDocuments, "document", nil, "only ingest these document ids")
	resetCmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "do not ask for confirmation")

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(deleteCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	if ingestService == nil {
		return errNotConfigured("ingestion")
	}
	ctx := cmd.Context()

	opts := domain.IngestOptions{
		Force:       ingestForce,
		DocumentIDs: ingestDocuments,
	}

	if ingestReset {
		if err := resetKnowledgeBase(ctx, cmd, ingestYes); err != nil {
			return err
		}
		opts.Force = true
	}

	if len(opts.DocumentIDs) > 0 {
		cmd.Printf("Ingesting %d document(s)...\n", len(opts.DocumentIDs))
	} else {
		cmd.Println("Ingesting approved catalog entries...")
	}

	report, err := ingestWithProgress(ctx, cmd, ingestService, opts)
	if report != nil {
		printReport(cmd, report)
	}
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}
	return nil
}

func runReset(cmd *cobra.Command, _ []string) error {
	if ingestService == nil {
		return errNotConfigured("ingestion")
	}
	return resetKnowledgeBase(cmd.Context(), cmd, resetYes)
}

func runDelete(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errNotConfigured("ingestion")
	}

	n, err := ingestService.DeleteDocument(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}
	cmd.Printf("Deleted %d fragments of %s.\n", n, args[0])
	return nil
}

// resetKnowledgeBase wipes the store after confirmation.
func resetKnowledgeBase(ctx context.Context, cmd *cobra.Command, yes bool) error {
	if !yes {
		ok, err := confirm(cmd, "Delete every stored fragment?")
		if err != nil {
			return err
		}
		if !ok {
			return errors.New("reset cancelled")
		}
	}

	if err := ingestService.Reset(ctx); err != nil {
		return fmt.Errorf("reset failed: %w", err)
	}
	cmd.Println("Knowledge base reset.")
	return nil
}

// confirm asks a yes/no question on an interactive terminal.
// Non-interactive input is refused so scripts must pass --yes.
func confirm(cmd *cobra.Command, question string) (bool, error) {
	if !isTerminal() {
		return false, errors.New("refusing to reset without a terminal; pass --yes to confirm")
	}
	cmd.Printf("%s [y/N]: ", question)
	return readYes(cmd.InOrStdin()), nil
}

//nolint:errcheck // CLI helper, error ignored for UX
func readYes(r io.Reader) bool {
	input, _ := bufio.NewReader(r).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// ingestWithProgress runs ingestion while displaying progress updates.
func ingestWithProgress(
	ctx context.Context,
	cmd *cobra.Command,
	svc driving.IngestionService,
	opts domain.IngestOptions,
) (*domain.IngestReport, error) {
	type result struct {
		report *domain.IngestReport
		err    error
	}

	// Start ingestion in goroutine
	done := make(chan result, 1)
	go func() {
		report, err := svc.Ingest(ctx, opts)
		done <- result{report, err}
	}()

	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()

	lastCount := 0
	for {
		select {
		case res := <-done:
			if lastCount > 0 {
				cmd.Println()
			}
			return res.report, res.err
		case <-ticker.C:
			// Check progress (ignore status error - best effort)
			status, statusErr := svc.Status(ctx)
			if statusErr == nil && status != nil && status.Running && status.DocumentsProcessed > lastCount {
				cmd.Printf("\rProcessed %d/%d documents (%d errors)",
					status.DocumentsProcessed, status.DocumentsTotal, status.ErrorCount)
				lastCount = status.DocumentsProcessed
			}
		}
	}
}

// printReport writes run totals and, for failed documents, the reason.
func printReport(cmd *cobra.Command, report *domain.IngestReport) {
	cmd.Printf("Run %s: %d stored, %d skipped, %d failed, %d fragments (%s)\n",
		report.RunID, report.Stored, report.Skipped, report.Failed, report.Fragments,
		report.Duration().Round(time.Millisecond))

	for _, doc := range report.Documents {
		switch {
		case doc.State.IsFailure():
			cmd.Printf("  %s [%s] %s\n", doc.DocumentID, doc.State, doc.Error)
		case logger.IsVerbose():
			cmd.Printf("  %s [%s] %d fragments\n", doc.DocumentID, doc.State, doc.Fragments)
		}
	}
}
