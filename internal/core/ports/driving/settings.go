package driving

import "github.com/custodia-labs/udirag/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get returns the effective settings: defaults, then the config file,
	// then environment overrides.
	Get() (*domain.AppSettings, error)

	// Set stores a single config key.
	Set(key, value string) error

	// SetAPIKey stores the API key for a provider.
	SetAPIKey(provider domain.AIProvider, apiKey string) error

	// Validate checks the settings needed by the given roles. With no roles
	// only the embedding provider is checked.
	// Returns domain.ErrConfigMissing when a required key is absent.
	Validate(roles ...domain.LLMRole) error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// ValidateEmbeddingConfig validates the embedding configuration by pinging the provider.
	ValidateEmbeddingConfig() error

	// ValidateLLMConfig validates a role's LLM configuration by pinging the provider.
	ValidateLLMConfig(role domain.LLMRole) error
}
