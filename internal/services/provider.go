package services

import (
	"context"
	"fmt"

	"flint/internal/config"
)

// NewCompleter builds the completer for cfg.Provider. The returned close
// func releases provider resources and is never nil.
func NewCompleter(ctx context.Context, cfg *config.Config) (Completer, func(), error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return NewOpenAICompleter(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL), func() {}, nil
	case config.ProviderGemini:
		g, err := NewGeminiCompleter(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, nil, err
		}
		return g, g.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported provider %q", cfg.Provider)
	}
}
