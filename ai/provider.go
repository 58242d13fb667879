package ai

import (
	"context"
	"errors"

	"deal-scout/config"
)

// ErrNoProviders is returned when no AI provider has credentials.
var ErrNoProviders = errors.New("ai: no provider configured (set OPENAI_API_KEY, ANTHROPIC_API_KEY or GEMINI_API_KEY)")

// Provider turns a prompt into raw completion text.
type Provider interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// NewProviders builds the configured providers in fallback order:
// OpenAI first, then Anthropic, then Gemini.
func NewProviders(ctx context.Context, cfg *config.Config) ([]Provider, error) {
	var providers []Provider

	if cfg.OpenAIKey != "" {
		providers = append(providers, NewOpenAIProvider(cfg.OpenAIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL))
	}
	if cfg.AnthropicKey != "" {
		providers = append(providers, NewAnthropicProvider(cfg.AnthropicKey, cfg.AnthropicModel, ""))
	}
	if cfg.GeminiKey != "" {
		g, err := NewGeminiProvider(ctx, cfg.GeminiKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		providers = append(providers, g)
	}

	if len(providers) == 0 {
		return nil, ErrNoProviders
	}
	return providers, nil
}
