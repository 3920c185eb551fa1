package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change embedding, search, ingestion, storage and scheduler settings.
Settings are stored in ~/.prokb/config.toml; the embedding API key is read
from the environment variable named by embedding.api_key_env.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Change a setting",
	Long: `Change one setting by its dotted key, e.g.

  prokb settings set embedding.provider ollama
  prokb settings set search.default_top_k 8
  prokb settings set ingest.schedule "@every 2h"

Run 'prokb settings keys' for the full list.`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List setting keys",
	RunE:  runSettingsKeys,
}

var settingsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the embedding provider",
	Long:  `Connects to the configured embedding provider to confirm the settings work.`,
	RunE:  runSettingsCheck,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	settingsCmd.AddCommand(settingsCheckCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNotConfigured("settings")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	// Embedding settings
	emb := settings.Embedding
	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", emb.Provider.Description())
	cmd.Printf("  Model: %s\n", emb.Model)
	if emb.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", emb.BaseURL)
	}
	if emb.Dimensions > 0 {
		cmd.Printf("  Dimensions: %d\n", emb.Dimensions)
	}
	if emb.Provider.RequiresAPIKey() {
		if emb.APIKey != "" {
			cmd.Printf("  API Key: %s (from $%s)\n", maskAPIKey(emb.APIKey), emb.APIKeyEnv)
		} else {
			cmd.Printf("  API Key: (not set, export %s)\n", emb.APIKeyEnv)
		}
	}
	cmd.Printf("  Query cache: %d entries, %s TTL\n", emb.CacheSize, emb.CacheTTL)
	cmd.Printf("  Rate limit: %g req/s, burst %d\n", emb.RequestsPerSecond, emb.Burst)
	status := "configured"
	if !emb.IsConfigured() {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
	cmd.Println()

	// Search settings
	cmd.Println("[Search]")
	cmd.Printf("  Default results: %d\n", settings.Search.DefaultTopK)
	cmd.Printf("  Max results: %d\n", settings.Search.MaxTopK)
	cmd.Printf("  Snippet length: %d\n", settings.Search.SnippetChars)
	cmd.Println()

	// Ingest settings
	ing := settings.Ingest
	cmd.Println("[Ingest]")
	cmd.Printf("  Chunk tokens: %d (overlap %d, %s)\n", ing.ChunkTokens, ing.OverlapTokens, ing.Tokenizer)
	cmd.Printf("  Batch size: %d\n", ing.BatchSize)
	cmd.Printf("  Workers: %d\n", ing.Workers)
	cmd.Printf("  Cleaners: %s\n", orNone(strings.Join(ing.Processors, ", ")))
	cmd.Printf("  Catalog: %s\n", orDefault(ing.CatalogPath))
	cmd.Printf("  Transcript cache: %s\n", orDefault(ing.TranscriptCachePath))
	cmd.Println()

	// Storage and scheduler settings
	cmd.Println("[Storage]")
	cmd.Printf("  Data directory: %s\n", orDefault(settings.Storage.DataDir))
	cmd.Println()

	cmd.Println("[Scheduler]")
	cmd.Printf("  Enabled: %s\n", yesNo(settings.Scheduler.Enabled))
	cmd.Printf("  Schedule: %s\n", orNone(settings.Scheduler.Spec))
	cmd.Printf("  Watch catalog: %s\n", yesNo(settings.Scheduler.WatchCatalog))

	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errNotConfigured("settings")
	}

	key, value := args[0], args[1]
	if err := settingsService.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	cmd.Printf("Set %s = %s\n", key, value)
	return nil
}

func runSettingsKeys(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNotConfigured("settings")
	}
	for _, key := range settingsService.Keys() {
		cmd.Println(key)
	}
	return nil
}

func runSettingsCheck(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errNotConfigured("settings")
	}

	cmd.Print("Validating embedding provider... ")
	if err := settingsService.ValidateEmbeddingConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("embedding configuration validation failed: %w", err)
	}
	cmd.Println("OK")
	return nil
}

// Helper functions.

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func orDefault(s string) string {
	if s == "" {
		return "(default)"
	}
	return s
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
