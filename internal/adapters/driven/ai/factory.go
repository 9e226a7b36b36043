// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	ollamaembed "github.com/custodia-labs/udirag/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/udirag/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/udirag/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/udirag/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/udirag/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/udirag/internal/core/domain"
	"github.com/custodia-labs/udirag/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// ValidateEmbeddingConfig validates an embedding configuration by creating a service and pinging it.
func ValidateEmbeddingConfig(settings *domain.EmbeddingSettings) error {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}

// ValidateLLMConfig validates an LLM configuration by creating a service and pinging it.
func ValidateLLMConfig(settings *domain.LLMSettings) error {
	svc, err := CreateLLMService(settings)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}

// CreateEmbeddingService creates the embedding service selected by settings.
// A provider that needs a key but has none returns domain.ErrConfigMissing.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil {
		return nil, fmt.Errorf("%w: embedding settings", domain.ErrConfigMissing)
	}
	if settings.Provider.RequiresAPIKey() && settings.APIKey == "" {
		return nil, fmt.Errorf("%w: %s embeddings need an API key", domain.ErrConfigMissing, settings.Provider)
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return createOllamaEmbedding(settings), nil

	case domain.AIProviderOpenAI:
		return createOpenAIEmbedding(settings)

	case domain.AIProviderAnthropic:
		return nil, fmt.Errorf("%w: anthropic does not support embeddings, use ollama or openai",
			domain.ErrUnsupportedType)

	default:
		return nil, fmt.Errorf("%w: embedding provider %q", domain.ErrUnsupportedType, settings.Provider)
	}
}

// CreateLLMService creates the LLM service selected by settings.
// A provider that needs a key but has none returns domain.ErrConfigMissing.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil {
		return nil, fmt.Errorf("%w: llm settings", domain.ErrConfigMissing)
	}
	if settings.Provider.RequiresAPIKey() && settings.APIKey == "" {
		return nil, fmt.Errorf("%w: %s needs an API key", domain.ErrConfigMissing, settings.Provider)
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return createOllamaLLM(settings), nil

	case domain.AIProviderOpenAI:
		return createOpenAILLM(settings)

	case domain.AIProviderAnthropic:
		return createAnthropicLLM(settings)

	default:
		return nil, fmt.Errorf("%w: llm provider %q", domain.ErrUnsupportedType, settings.Provider)
	}
}

// CreateRoleLLMs creates one retrying LLM service per role. Roles that
// resolve to the same provider, model and endpoint share an instance.
func CreateRoleLLMs(settings *domain.AppSettings, roles ...domain.LLMRole) (map[domain.LLMRole]driven.LLMService, error) {
	policy := RetryPolicy{Attempts: settings.Retry.Attempts, BaseDelay: settings.Retry.BaseDelay}
	shared := make(map[domain.LLMSettings]driven.LLMService)
	out := make(map[domain.LLMRole]driven.LLMService, len(roles))

	for _, role := range roles {
		cfg := settings.LLMFor(role)
		if svc, ok := shared[cfg]; ok {
			out[role] = svc
			continue
		}
		svc, err := CreateLLMService(&cfg)
		if err != nil {
			for _, s := range shared {
				s.Close()
			}
			return nil, fmt.Errorf("%s model: %w", role, err)
		}
		wrapped := WithRetryLLM(svc, policy)
		shared[cfg] = wrapped
		out[role] = wrapped
	}
	return out, nil
}

// createOllamaEmbedding creates an Ollama embedding service.
func createOllamaEmbedding(settings *domain.EmbeddingSettings) driven.EmbeddingService {
	dimensions := domain.EmbeddingDimensions()[settings.Model]
	if dimensions == 0 {
		dimensions = ollamaembed.DefaultDimensions
	}

	return ollamaembed.NewEmbeddingService(ollamaembed.Config{
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: dimensions,
	})
}

// createOpenAIEmbedding creates an OpenAI embedding service.
func createOpenAIEmbedding(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	return openaiembed.NewEmbeddingService(openaiembed.Config{
		APIKey:  settings.APIKey,
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
	})
}

// createOllamaLLM creates an Ollama LLM service.
func createOllamaLLM(settings *domain.LLMSettings) driven.LLMService {
	return ollamallm.NewLLMService(ollamallm.LLMConfig{
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
	})
}

// createOpenAILLM creates an OpenAI LLM service.
func createOpenAILLM(settings *domain.LLMSettings) (driven.LLMService, error) {
	return openaillm.NewLLMService(openaillm.LLMConfig{
		APIKey:  settings.APIKey,
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
	})
}

// createAnthropicLLM creates an Anthropic LLM service.
func createAnthropicLLM(settings *domain.LLMSettings) (driven.LLMService, error) {
	return anthropicllm.NewLLMService(anthropicllm.Config{
		APIKey:  settings.APIKey,
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
	})
}
