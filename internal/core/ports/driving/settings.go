package driving

import "github.com/custodia-labs/prokb/internal/core/domain"

// SettingsService reads and updates application settings.
type SettingsService interface {
	// Get returns the effective settings, defaults filled in.
	Get() (*domain.AppSettings, error)

	// Set updates a single dotted configuration key.
	Set(key, value string) error

	// Keys lists the configuration keys Set accepts.
	Keys() []string

	// ValidateEmbeddingConfig pings the configured embedding provider.
	ValidateEmbeddingConfig() error
}
