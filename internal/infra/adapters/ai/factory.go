package ai

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"humaine-chatbot/internal/config"
	"humaine-chatbot/internal/domain/ports/adapter"
)

// New builds the adapter stack for cfg: every provider with a key is registered,
// cfg.Provider is the default, and the result is rate limited and observed.
func New(ctx context.Context, cfg config.AIConfig, logger *zerolog.Logger) (adapter.AIServiceAdapter, error) {
	byProvider := map[string]adapter.AIServiceAdapter{}
	if cfg.OpenAIKey != "" {
		oa, err := NewOpenAIAdapter(cfg.OpenAIKey, cfg.DefaultModel, cfg.OpenAIBaseURL)
		if err != nil {
			return nil, fmt.Errorf("openai adapter: %w", err)
		}
		byProvider["openai"] = oa
	}
	if cfg.GeminiKey != "" {
		ga, err := NewGeminiAdapter(ctx, cfg.GeminiKey, cfg.GeminiURL, cfg.GeminiModel)
		if err != nil {
			return nil, fmt.Errorf("gemini adapter: %w", err)
		}
		byProvider["gemini"] = ga
	}

	var inner adapter.AIServiceAdapter
	switch {
	case cfg.Provider == "mock" || len(byProvider) == 0:
		inner = NewMockAdapter(0, logger)
	case len(byProvider) == 1:
		for _, a := range byProvider {
			inner = a
		}
	default:
		inner = NewMultiAIAdapter(cfg.Provider, byProvider, nil)
	}
	return NewObservedAI(NewLimitedAI(inner, cfg.ConcurrentLimit), logger), nil
}
