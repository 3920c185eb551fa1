package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/prokb/internal/adapters/driven/ai"
	catalogfile "github.com/custodia-labs/prokb/internal/adapters/driven/catalog/file"
	configfile "github.com/custodia-labs/prokb/internal/adapters/driven/config/file"
	"github.com/custodia-labs/prokb/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/prokb/internal/adapters/driven/tokenizer/tiktoken"
	"github.com/custodia-labs/prokb/internal/adapters/driven/tokenizer/words"
	transcriptcache "github.com/custodia-labs/prokb/internal/adapters/driven/transcript/cache"
	"github.com/custodia-labs/prokb/internal/adapters/driven/vectorindex/bruteforce"
	"github.com/custodia-labs/prokb/internal/adapters/driving/cli"
	"github.com/custodia-labs/prokb/internal/core/domain"
	"github.com/custodia-labs/prokb/internal/core/ports/driven"
	"github.com/custodia-labs/prokb/internal/core/services"
	"github.com/custodia-labs/prokb/internal/logger"
	"github.com/custodia-labs/prokb/internal/postprocessors"
	"github.com/custodia-labs/prokb/internal/postprocessors/chunker"
)

// buildServices wires adapters and services from the effective settings.
func buildServices(opts cli.Options) (*cli.Services, error) {
	configStore, err := configfile.NewConfigStore(opts.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore, ai.Validator{})

	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("load settings from %s: %w", configStore.Path(), err)
	}

	dataDir, err := resolveDataDir(opts.DataDir, settings.Storage.DataDir)
	if err != nil {
		return nil, err
	}
	logger.Debug("Data directory: %s", dataDir)

	store, err := sqlite.NewStore(dataDir)
	if err != nil {
		return nil, err
	}
	fragments := store.FragmentStore()
	runs := store.RunStore()

	embedder := buildEmbedder(&settings.Embedding)

	catalogPath := orDefault(settings.Ingest.CatalogPath, filepath.Join(dataDir, catalogfile.DefaultFileName))
	catalog := catalogfile.New(catalogPath)
	transcripts := transcriptcache.New(
		orDefault(settings.Ingest.TranscriptCachePath, filepath.Join(dataDir, transcriptcache.DefaultFileName)))

	tokenizer := buildTokenizer(settings.Ingest.Tokenizer)
	pipeline, err := buildPipeline(&settings.Ingest, tokenizer)
	if err != nil {
		store.Close()
		return nil, err
	}

	searchService := services.NewSearchService(fragments, bruteforce.New(fragments), embedder, settings.Search)
	searchService.SetRunStore(runs)
	if embedder != nil {
		if err := searchService.CheckModel(context.Background()); err != nil {
			logger.Warn("%v. Run 'prokb ingest --reset' to rebuild with the configured model", err)
		}
	}

	ingestService := services.NewIngestionService(catalog, transcripts, pipeline, embedder, fragments,
		services.IngestConfig{
			BatchSize: settings.Ingest.BatchSize,
			Workers:   settings.Ingest.Workers,
			Tokenizer: tokenizer,
		})
	ingestService.SetRunStore(runs)

	return &cli.Services{
		Search:       searchService,
		Ingest:       ingestService,
		Settings:     settingsService,
		Scheduler:    services.NewScheduler(settings.Scheduler, ingestService, catalog),
		Channels:     catalog,
		SnippetChars: settings.Search.SnippetChars,
		Close: func() error {
			var errs []error
			if embedder != nil {
				errs = append(errs, embedder.Close())
			}
			errs = append(errs, store.Close())
			return errors.Join(errs...)
		},
	}, nil
}

// buildEmbedder creates the decorated embedding service without contacting
// the provider. A missing or invalid configuration yields nil: search then
// reports itself unavailable and ingestion refuses to run.
func buildEmbedder(settings *domain.EmbeddingSettings) driven.EmbeddingService {
	if !settings.IsConfigured() {
		logger.Debug("Embedding provider %s not configured", settings.Provider)
		return nil
	}
	svc, err := ai.CreateEmbeddingService(settings)
	if err != nil || svc == nil {
		logger.Warn("Embedding provider unavailable: %v", err)
		return nil
	}
	return ai.Decorate(svc, settings)
}

// buildTokenizer returns the configured chunk budget counter. The tiktoken
// encoding loads on first use and falls back to word counts; ingestion pins
// whichever name results, so a later switch is rejected.
func buildTokenizer(kind domain.TokenizerKind) driven.Tokenizer {
	if kind == domain.TokenizerTiktoken {
		return tiktoken.New(words.New())
	}
	return words.New()
}

// buildPipeline assembles the segment cleaners and the chunker.
func buildPipeline(settings *domain.IngestSettings, tokenizer driven.Tokenizer) (*postprocessors.Pipeline, error) {
	registry := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(registry)

	processors, err := registry.BuildAll(settings.Processors)
	if err != nil {
		return nil, fmt.Errorf("build segment processors: %w", err)
	}

	c := chunker.New(tokenizer,
		chunker.WithChunkSize(settings.ChunkTokens),
		chunker.WithOverlap(settings.OverlapTokens))
	return postprocessors.NewPipeline(c, processors...), nil
}

// resolveDataDir picks the flag value, then the setting, then ~/.prokb/data.
func resolveDataDir(flagValue, setting string) (string, error) {
	if dir := orDefault(flagValue, setting); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".prokb", "data"), nil
}

func orDefault(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}
