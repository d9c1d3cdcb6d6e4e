package ai

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"humaine-chatbot/internal/domain/ports/adapter"
	"humaine-chatbot/internal/persona"
)

var _ adapter.AIServiceAdapter = (*MockAdapter)(nil)

// MockAdapter generates personalised canned replies without a model. It is the
// default when no provider key is configured, so the chatbot stays usable offline.
type MockAdapter struct {
	delay time.Duration
	log   *zerolog.Logger
}

func NewMockAdapter(delay time.Duration, logger *zerolog.Logger) *MockAdapter {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &MockAdapter{delay: delay, log: logger}
}

func (a *MockAdapter) Provider() string { return "mock" }
func (a *MockAdapter) Model() string    { return "mock-personalised" }

func (a *MockAdapter) ListModels(ctx context.Context) ([]string, error) {
	return []string{a.Model()}, nil
}

func (a *MockAdapter) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	return EstimateTokens(messages), nil
}

// Chat answers the last user message, styled by the preferences encoded in the system prompt.
func (a *MockAdapter) Chat(ctx context.Context, model string, messages []adapter.Message, opts adapter.GenerateOptions) (string, adapter.Usage, error) {
	if a.delay > 0 {
		select {
		case <-time.After(a.delay):
		case <-ctx.Done():
			return "", adapter.Usage{}, ctx.Err()
		}
	}
	system, rest := splitSystem(messages)
	var text string
	for i := len(rest) - 1; i >= 0; i-- {
		if strings.ToLower(rest[i].Role) == "user" {
			text = rest[i].Content
			break
		}
	}
	prefs := persona.FromSystemPrompt(system)
	reply := persona.OfflineReply(text, prefs)
	a.log.Debug().Str("detail", string(prefs.Detail)).Str("style", string(prefs.Style)).Msg("mock reply")

	in := EstimateTokens(messages)
	out := EstimateTokens([]adapter.Message{{Role: "assistant", Content: reply}})
	return reply, adapter.Usage{PromptTokens: in, CompletionTokens: out, TotalTokens: in + out}, nil
}

func (a *MockAdapter) Probe(ctx context.Context) error { return nil }
