package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/prokb/internal/core/domain"
)

var (
	searchLimit    int
	searchChannel  string
	searchLanguage string
	searchJSON     bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search pro content",
	Long: `Embeds the query and ranks stored transcript fragments by cosine similarity.
Results carry the channel, a timestamped link and a relevance score.

Examples:
  prokb search "fast castle into boom"
  prokb search -n 3 --channel Beasty "how to wall early"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "number of results (default search.default_top_k)")
	searchCmd.Flags().StringVar(&searchChannel, "channel", "", "only return results from this channel")
	searchCmd.Flags().StringVar(&searchLanguage, "language", "", "only return results in this language")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	if searchService == nil {
		return errNotConfigured("search")
	}

	opts := domain.SearchOptions{
		TopK:     searchLimit,
		Channel:  searchChannel,
		Language: searchLanguage,
	}

	outcome, err := searchService.Search(cmd.Context(), query, opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, outcome)
	}

	cmd.Println(domain.FormatOutcome(outcome, snippetChars))
	return nil
}

func outputSearchJSON(cmd *cobra.Command, outcome *domain.SearchOutcome) error {
	data, err := json.MarshalIndent(outcome, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
