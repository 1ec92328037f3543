package services

import (
	"context"
	"fmt"

	"alfredoptarigan/career-copilot/internal/config"
)

// NewCompletionProvider builds the provider named by LLM_PROVIDER.
func NewCompletionProvider(ctx context.Context, cfg config.LLMConfig) (CompletionProvider, error) {
	switch cfg.Provider {
	case "", "openai":
		return NewOpenAIProvider(cfg)
	case "gemini":
		return NewGeminiProvider(ctx, cfg)
	case "claude":
		return NewClaudeProvider(cfg)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}

func SupportedProviders() []string {
	return []string{"openai", "gemini", "claude"}
}
