package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an embedding service provider.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderGemini is Google Gemini cloud API.
	AIProviderGemini AIProvider = "gemini"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderGemini:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderGemini
}

// DefaultAPIKeyEnv returns the environment variable conventionally holding the key.
func (p AIProvider) DefaultAPIKeyEnv() string {
	switch p {
	case AIProviderOpenAI:
		return "OPENAI_API_KEY"
	case AIProviderGemini:
		return "GEMINI_API_KEY"
	default:
		return ""
	}
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderGemini:
		return "Gemini (cloud)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama and OpenAI-compatible APIs).
	BaseURL string

	// APIKey is the resolved API key.
	APIKey string

	// APIKeyEnv names the environment variable the key is read from.
	APIKeyEnv string

	// Dimensions overrides the model's default output size. Zero keeps the default.
	Dimensions int

	// CacheSize is the number of query embeddings kept in memory. Zero disables the cache.
	CacheSize int

	// CacheTTL bounds how long a cached query embedding is reused.
	CacheTTL time.Duration

	// RequestsPerSecond throttles embedding requests. Zero disables throttling.
	RequestsPerSecond float64

	// Burst is the maximum number of requests issued back to back.
	Burst int
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// SearchSettings holds query-time configuration.
type SearchSettings struct {
	// DefaultTopK is used when a caller does not ask for a result count.
	DefaultTopK int

	// MaxTopK caps the result count to bound response size.
	MaxTopK int

	// SnippetChars truncates result text in formatted output.
	SnippetChars int
}

// TokenizerKind selects how chunk token budgets are measured.
type TokenizerKind string

const (
	// TokenizerTiktoken counts BPE tokens with the o200k_base encoding.
	TokenizerTiktoken TokenizerKind = "tiktoken"

	// TokenizerWords approximates one token per whitespace-separated word.
	TokenizerWords TokenizerKind = "words"
)

// IngestSettings holds ingestion pipeline configuration.
type IngestSettings struct {
	// ChunkTokens is the token budget per fragment.
	ChunkTokens int

	// OverlapTokens is the trailing context carried into the next fragment.
	OverlapTokens int

	// BatchSize is the number of texts per embedding request.
	BatchSize int

	// Workers bounds how many documents are processed concurrently.
	Workers int

	// Tokenizer selects the token counter.
	Tokenizer TokenizerKind

	// CatalogPath is the JSON document catalog.
	CatalogPath string

	// TranscriptCachePath is the JSON transcript cache.
	TranscriptCachePath string

	// Processors names the segment cleaners run before chunking, in order.
	Processors []string
}

// StorageSettings holds persistence configuration.
type StorageSettings struct {
	// DataDir holds the SQLite database. Empty means ~/.prokb/data.
	DataDir string
}

// AppSettings holds all application settings.
type AppSettings struct {
	// Embedding holds embedding provider settings.
	Embedding EmbeddingSettings

	// Search holds query-time settings.
	Search SearchSettings

	// Ingest holds ingestion pipeline settings.
	Ingest IngestSettings

	// Storage holds persistence settings.
	Storage StorageSettings

	// Scheduler holds unattended re-ingestion settings.
	Scheduler SchedulerConfig
}

// Ingestion defaults.
const (
	DefaultChunkTokens   = 500
	DefaultOverlapTokens = 50
	DefaultBatchSize     = 50
	DefaultWorkers       = 2
	DefaultSchedule      = "0 */6 * * *"
)

// DefaultSegmentProcessors returns the cleaner chain applied to captions.
func DefaultSegmentProcessors() []string {
	return []string{"annotations", "dedupe"}
}

// DefaultAppSettings returns settings with sensible defaults.
// The embedding provider defaults to OpenAI text-embedding-3-small; the
// API key is resolved from the environment at load time.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider:          AIProviderOpenAI,
			Model:             DefaultEmbeddingModels()[AIProviderOpenAI],
			APIKeyEnv:         AIProviderOpenAI.DefaultAPIKeyEnv(),
			CacheSize:         1000,
			CacheTTL:          time.Hour,
			RequestsPerSecond: 5,
			Burst:             5,
		},
		Search: SearchSettings{
			DefaultTopK:  DefaultTopK,
			MaxTopK:      DefaultMaxTopK,
			SnippetChars: DefaultSnippetChars,
		},
		Ingest: IngestSettings{
			ChunkTokens:   DefaultChunkTokens,
			OverlapTokens: DefaultOverlapTokens,
			BatchSize:     DefaultBatchSize,
			Workers:       DefaultWorkers,
			Tokenizer:     TokenizerTiktoken,
			Processors:    DefaultSegmentProcessors(),
		},
		Scheduler: DefaultSchedulerConfig(),
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderGemini,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
		AIProviderGemini: "gemini-embedding-001",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
		// Gemini models
		"gemini-embedding-001": 3072,
		"text-embedding-004":   768,
	}
}
