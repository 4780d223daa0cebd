// Package ai provides factory functions for creating generation service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/noteforge-labs/noteforge-cli/internal/adapters/driven/llm/ollama"
	"github.com/noteforge-labs/noteforge-cli/internal/adapters/driven/llm/openai"
	"github.com/noteforge-labs/noteforge-cli/internal/core/domain"
	"github.com/noteforge-labs/noteforge-cli/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// CreateGenerationService creates the appropriate generation service
// based on settings. Returns nil if the provider is not configured.
func CreateGenerationService(settings *domain.GenerationSettings) (driven.GenerationService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollama.NewGenerationService(ollama.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	case domain.AIProviderOpenAI:
		return openai.NewGenerationService(openai.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	default:
		return nil, fmt.Errorf("unsupported provider: %s", settings.Provider)
	}
}

// CreateAndValidateGenerationService creates a generation service and
// validates connectivity. Note generation cannot run without a provider,
// so an unconfigured install is an error here, not a nil service.
func CreateAndValidateGenerationService(settings *domain.GenerationSettings) (driven.GenerationService, error) {
	svc, err := CreateGenerationService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'noteforge config wizard' to fix",
			domain.ErrLLMUnavailable, err)
	}
	if svc == nil {
		return nil, fmt.Errorf("%w: no AI provider configured. Run 'noteforge config wizard' first",
			domain.ErrLLMUnavailable)
	}

	// Validate connectivity.
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). Run 'noteforge config wizard' to fix",
			domain.ErrLLMUnavailable, err)
	}

	return svc, nil
}

// ValidateGenerationConfig validates a configuration by creating a service
// and pinging it. This is intended for use in the config wizard to validate
// credentials on configuration.
func ValidateGenerationConfig(settings *domain.GenerationSettings) error {
	svc, err := CreateGenerationService(settings)
	if err != nil {
		return err
	}
	if svc == nil {
		return nil
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}
