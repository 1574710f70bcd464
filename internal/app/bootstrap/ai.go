package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/wolfman30/support-ai-platform/internal/ai"
	appconfig "github.com/wolfman30/support-ai-platform/internal/config"
	"github.com/wolfman30/support-ai-platform/pkg/logging"
)

// BuildAIRegistry registers every provider that has credentials. When
// AIFallbackProvider is configured, the other providers retry through it.
// The returned cleanup closes provider clients.
func BuildAIRegistry(ctx context.Context, cfg *appconfig.Config, awsCfg aws.Config, logger *logging.Logger) (*ai.Registry, func(), error) {
	if cfg == nil {
		return nil, nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	clients := map[string]ai.LLMClient{}
	cleanup := func() {}

	if strings.TrimSpace(cfg.OpenAIAPIKey) != "" {
		client, err := ai.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
		if err != nil {
			return nil, nil, fmt.Errorf("bootstrap: openai: %w", err)
		}
		clients[ai.ProviderOpenAI] = client
	}
	if strings.TrimSpace(cfg.GeminiAPIKey) != "" {
		client, err := ai.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, nil, fmt.Errorf("bootstrap: gemini: %w", err)
		}
		clients[ai.ProviderGemini] = client
		cleanup = func() { _ = client.Close() }
	}
	if model := strings.TrimSpace(cfg.BedrockModelID); model != "" {
		clients[ai.ProviderBedrock] = ai.NewBedrockClient(bedrockruntime.NewFromConfig(awsCfg), model)
	}

	fallbackName := strings.ToLower(strings.TrimSpace(cfg.AIFallbackProvider))
	fallback := clients[fallbackName]
	if fallbackName != "" && fallback == nil {
		logger.Warn("ai fallback provider not configured, fallback disabled", "provider", fallbackName)
	}

	registry := ai.NewRegistry()
	for name, client := range clients {
		if fallback != nil && name != fallbackName {
			client = ai.NewFallbackLLMClient(client, fallback, logger)
		}
		registry.Register(name, client)
	}
	if len(clients) == 0 {
		logger.Warn("no ai providers configured; conversational replies will carry provider errors")
	} else {
		logger.Info("ai providers registered", "providers", registry.Names(), "default", cfg.DefaultAIProvider, "fallback", fallbackName)
	}
	return registry, cleanup, nil
}
