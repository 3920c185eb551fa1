package services

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/custodia-labs/prokb/internal/core/domain"
	"github.com/custodia-labs/prokb/internal/core/ports/driven"
	"github.com/custodia-labs/prokb/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider   = "embedding.provider"
	keyEmbedModel      = "embedding.model"
	keyEmbedBaseURL    = "embedding.base_url"
	keyEmbedAPIKey     = "embedding.api_key"
	keyEmbedAPIKeyEnv  = "embedding.api_key_env"
	keyEmbedDimensions = "embedding.dimensions"
	keyEmbedCacheSize  = "embedding.cache_size"
	keyEmbedCacheTTL   = "embedding.cache_ttl"
	keyEmbedRPS        = "embedding.requests_per_second"
	keyEmbedBurst      = "embedding.burst"

	keySearchDefaultTopK  = "search.default_top_k"
	keySearchMaxTopK      = "search.max_top_k"
	keySearchSnippetChars = "search.snippet_chars"

	keyIngestChunkTokens     = "ingest.chunk_tokens"
	keyIngestOverlapTokens   = "ingest.overlap_tokens"
	keyIngestBatchSize       = "ingest.batch_size"
	keyIngestWorkers         = "ingest.workers"
	keyIngestTokenizer       = "ingest.tokenizer"
	keyIngestCatalogPath     = "ingest.catalog_path"
	keyIngestTranscriptCache = "ingest.transcript_cache_path"
	keyIngestSchedule        = "ingest.schedule"
	keyIngestProcessors      = "ingest.processors"

	keyStorageDataDir = "storage.data_dir"

	keySchedulerEnabled      = "scheduler.enabled"
	keySchedulerWatchCatalog = "scheduler.watch_catalog"
)

// valueKind says how Set parses a raw string for a key.
type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindFloat
	kindBool
	kindDuration
	kindList
	kindProvider
	kindTokenizer
	kindSchedule
)

var settingKinds = map[string]valueKind{
	keyEmbedProvider:   kindProvider,
	keyEmbedModel:      kindString,
	keyEmbedBaseURL:    kindString,
	keyEmbedAPIKey:     kindString,
	keyEmbedAPIKeyEnv:  kindString,
	keyEmbedDimensions: kindInt,
	keyEmbedCacheSize:  kindInt,
	keyEmbedCacheTTL:   kindDuration,
	keyEmbedRPS:        kindFloat,
	keyEmbedBurst:      kindInt,

	keySearchDefaultTopK:  kindInt,
	keySearchMaxTopK:      kindInt,
	keySearchSnippetChars: kindInt,

	keyIngestChunkTokens:     kindInt,
	keyIngestOverlapTokens:   kindInt,
	keyIngestBatchSize:       kindInt,
	keyIngestWorkers:         kindInt,
	keyIngestTokenizer:       kindTokenizer,
	keyIngestCatalogPath:     kindString,
	keyIngestTranscriptCache: kindString,
	keyIngestSchedule:        kindSchedule,
	keyIngestProcessors:      kindList,

	keyStorageDataDir: kindString,

	keySchedulerEnabled:      kindBool,
	keySchedulerWatchCatalog: kindBool,
}

// SettingsService manages application settings stored in a ConfigStore.
// Unset keys fall back to domain.DefaultAppSettings. The embedding API key
// is read from the environment variable named by embedding.api_key_env,
// which wins over a key stored in the config file.
type SettingsService struct {
	configStore driven.ConfigStore
	validator   driven.EmbeddingValidator
}

// NewSettingsService creates a new settings service. The validator may be nil.
func NewSettingsService(configStore driven.ConfigStore, validator driven.EmbeddingValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		validator:   validator,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	provider := s.getProvider(keyEmbedProvider, defaults.Embedding.Provider)
	model := s.getString(keyEmbedModel, domain.DefaultEmbeddingModels()[provider])
	keyEnv := s.getString(keyEmbedAPIKeyEnv, provider.DefaultAPIKeyEnv())
	apiKey := s.configStore.GetString(keyEmbedAPIKey)
	if keyEnv != "" {
		if v := os.Getenv(keyEnv); v != "" {
			apiKey = v
		}
	}

	processors := s.configStore.GetStringSlice(keyIngestProcessors)
	if _, exists := s.configStore.Get(keyIngestProcessors); !exists {
		processors = defaults.Ingest.Processors
	}

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider:          provider,
			Model:             model,
			BaseURL:           s.configStore.GetString(keyEmbedBaseURL),
			APIKey:            apiKey,
			APIKeyEnv:         keyEnv,
			Dimensions:        s.configStore.GetInt(keyEmbedDimensions),
			CacheSize:         s.getIntAllowZero(keyEmbedCacheSize, defaults.Embedding.CacheSize),
			CacheTTL:          s.getDuration(keyEmbedCacheTTL, defaults.Embedding.CacheTTL),
			RequestsPerSecond: s.getFloatAllowZero(keyEmbedRPS, defaults.Embedding.RequestsPerSecond),
			Burst:             s.getInt(keyEmbedBurst, defaults.Embedding.Burst),
		},
		Search: domain.SearchSettings{
			DefaultTopK:  s.getInt(keySearchDefaultTopK, defaults.Search.DefaultTopK),
			MaxTopK:      s.getInt(keySearchMaxTopK, defaults.Search.MaxTopK),
			SnippetChars: s.getInt(keySearchSnippetChars, defaults.Search.SnippetChars),
		},
		Ingest: domain.IngestSettings{
			ChunkTokens:         s.getInt(keyIngestChunkTokens, defaults.Ingest.ChunkTokens),
			OverlapTokens:       s.getIntAllowZero(keyIngestOverlapTokens, defaults.Ingest.OverlapTokens),
			BatchSize:           s.getInt(keyIngestBatchSize, defaults.Ingest.BatchSize),
			Workers:             s.getInt(keyIngestWorkers, defaults.Ingest.Workers),
			Tokenizer:           s.getTokenizer(defaults.Ingest.Tokenizer),
			CatalogPath:         s.configStore.GetString(keyIngestCatalogPath),
			TranscriptCachePath: s.configStore.GetString(keyIngestTranscriptCache),
			Processors:          processors,
		},
		Storage: domain.StorageSettings{
			DataDir: s.configStore.GetString(keyStorageDataDir),
		},
		Scheduler: domain.SchedulerConfig{
			Enabled:      s.getBool(keySchedulerEnabled, defaults.Scheduler.Enabled),
			Spec:         s.getString(keyIngestSchedule, defaults.Scheduler.Spec),
			WatchCatalog: s.getBool(keySchedulerWatchCatalog, defaults.Scheduler.WatchCatalog),
		},
	}

	if settings.Ingest.OverlapTokens >= settings.Ingest.ChunkTokens {
		return nil, fmt.Errorf("%w: %s (%d) must be smaller than %s (%d)", domain.ErrInvalidInput,
			keyIngestOverlapTokens, settings.Ingest.OverlapTokens,
			keyIngestChunkTokens, settings.Ingest.ChunkTokens)
	}
	if settings.Search.DefaultTopK > settings.Search.MaxTopK {
		settings.Search.DefaultTopK = settings.Search.MaxTopK
	}

	return settings, nil
}

// Set parses value for the key's type and persists it.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingKinds[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	parsed, err := parseSetting(kind, strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, key, err)
	}

	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Keys lists the configuration keys Set accepts, sorted.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settingKinds))
	for k := range settingKinds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("%w: embedding provider %s needs an API key in $%s",
			domain.ErrNotConfigured, settings.Embedding.Provider, settings.Embedding.APIKeyEnv)
	}
	if s.validator == nil {
		return nil
	}
	return s.validator.ValidateEmbedding(&settings.Embedding)
}

// ConfigPath returns where settings are persisted.
func (s *SettingsService) ConfigPath() string {
	return s.configStore.Path()
}

func parseSetting(kind valueKind, value string) (any, error) {
	switch kind {
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("expected an integer, got %q", value)
		}
		if n < 0 {
			return nil, fmt.Errorf("must not be negative")
		}
		return n, nil
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("expected a number, got %q", value)
		}
		if f < 0 {
			return nil, fmt.Errorf("must not be negative")
		}
		return f, nil
	case kindBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("expected true or false, got %q", value)
		}
		return b, nil
	case kindDuration:
		if _, err := time.ParseDuration(value); err != nil {
			return nil, fmt.Errorf("expected a duration like 30m, got %q", value)
		}
		return value, nil
	case kindList:
		var items []string
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		if items == nil {
			items = []string{}
		}
		return items, nil
	case kindProvider:
		if !domain.AIProvider(value).IsValid() {
			return nil, fmt.Errorf("unknown provider %q", value)
		}
		return value, nil
	case kindTokenizer:
		switch domain.TokenizerKind(value) {
		case domain.TokenizerTiktoken, domain.TokenizerWords:
			return value, nil
		default:
			return nil, fmt.Errorf("unknown tokenizer %q", value)
		}
	case kindSchedule:
		if _, err := cron.ParseStandard(value); err != nil {
			return nil, fmt.Errorf("invalid cron expression: %w", err)
		}
		return value, nil
	default:
		return value, nil
	}
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

// getIntAllowZero honours an explicit zero, which disables a feature.
func (s *SettingsService) getIntAllowZero(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloatAllowZero(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getTokenizer(defaultVal domain.TokenizerKind) domain.TokenizerKind {
	switch kind := domain.TokenizerKind(s.configStore.GetString(keyIngestTokenizer)); kind {
	case domain.TokenizerTiktoken, domain.TokenizerWords:
		return kind
	default:
		return defaultVal
	}
}
