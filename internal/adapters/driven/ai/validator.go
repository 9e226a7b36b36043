package ai

import (
	"fmt"

	"github.com/custodia-labs/udirag/internal/core/domain"
	"github.com/custodia-labs/udirag/internal/core/ports/driven"
)

// Ensure ConfigValidator implements the interface.
var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// ConfigValidator checks that a configured model endpoint answers before the
// settings are saved. Failures name the provider and model so that the
// settings command can tell the user which role is misconfigured.
type ConfigValidator struct{}

// NewConfigValidator creates a new AI config validator.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{}
}

// ValidateEmbedding pings the embedding provider.
func (v *ConfigValidator) ValidateEmbedding(config *domain.EmbeddingSettings) error {
	if err := ValidateEmbeddingConfig(config); err != nil {
		if config == nil {
			return err
		}
		return fmt.Errorf("embedding %s: %w", describe(config.Provider, config.Model), err)
	}
	return nil
}

// ValidateLLM pings the chat model provider.
func (v *ConfigValidator) ValidateLLM(config *domain.LLMSettings) error {
	if err := ValidateLLMConfig(config); err != nil {
		if config == nil {
			return err
		}
		return fmt.Errorf("llm %s: %w", describe(config.Provider, config.Model), err)
	}
	return nil
}

func describe(provider domain.AIProvider, model string) string {
	if model == "" {
		return string(provider)
	}
	return fmt.Sprintf("%s/%s", provider, model)
}
