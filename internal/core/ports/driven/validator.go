package driven

import "github.com/custodia-labs/prokb/internal/core/domain"

// EmbeddingValidator validates embedding provider configurations by testing
// connectivity to the underlying service.
type EmbeddingValidator interface {
	// ValidateEmbedding pings the provider described by config.
	ValidateEmbedding(config *domain.EmbeddingSettings) error
}
