package ai

import (
	"context"
	"fmt"
	"log"
)

// DynamicConfig holds provider settings. Ollama values are read through
// getters so the settings API can change them without a restart.
type DynamicConfig struct {
	Provider ProviderType

	GeminiAPIKey string
	GeminiModel  string

	GatewayBaseURL string
	GatewayAPIKey  string
	GatewayModel   string

	GetOllamaBaseURL func() string
	GetOllamaModel   func() string
}

// NewService builds the provider selected by cfg.Provider. "auto" pairs the
// first configured hosted provider (gateway, then Gemini) with Ollama.
func NewService(ctx context.Context, cfg DynamicConfig) (Service, error) {
	ollama := NewOllamaServiceWithGetters(cfg.GetOllamaBaseURL, cfg.GetOllamaModel)

	switch cfg.Provider {
	case ProviderGemini:
		return NewGeminiService(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)

	case ProviderGateway:
		return NewGatewayService(cfg.GatewayBaseURL, cfg.GatewayAPIKey, cfg.GatewayModel)

	case ProviderOllama:
		return ollama, nil

	default:
		var primary Service
		if cfg.GatewayAPIKey != "" {
			gw, err := NewGatewayService(cfg.GatewayBaseURL, cfg.GatewayAPIKey, cfg.GatewayModel)
			if err != nil {
				return nil, err
			}
			primary = gw
		} else if cfg.GeminiAPIKey != "" {
			gem, err := NewGeminiService(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
			if err != nil {
				log.Printf("[AI] Gemini unavailable, using Ollama only: %v", err)
			} else {
				primary = gem
			}
		}
		if primary == nil {
			return ollama, nil
		}
		return NewFallbackService(primary, ollama), nil
	}
}

// ParseProvider validates a provider name from configuration.
func ParseProvider(name string) (ProviderType, error) {
	switch p := ProviderType(name); p {
	case ProviderGemini, ProviderOllama, ProviderGateway, ProviderAuto, "":
		if p == "" {
			return ProviderAuto, nil
		}
		return p, nil
	default:
		return "", fmt.Errorf("unknown AI provider %q", name)
	}
}
