package ai_test

import (
	"context"
	"errors"
	"testing"

	"humaine-chatbot/internal/domain/ports/adapter"
	ai "humaine-chatbot/internal/infra/adapters/ai"
)

type stubAI struct {
	name      string
	calls     int
	lastModel string
	probeErr  error
}

func (s *stubAI) Provider() string { return s.name }
func (s *stubAI) Model() string    { return s.name + "-model" }
func (s *stubAI) ListModels(ctx context.Context) ([]string, error) {
	return []string{s.name + "-model"}, nil
}
func (s *stubAI) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	return 1, nil
}
func (s *stubAI) Chat(ctx context.Context, model string, messages []adapter.Message, _ adapter.GenerateOptions) (string, adapter.Usage, error) {
	s.calls++
	s.lastModel = model
	return s.name, adapter.Usage{PromptTokens: 1, CompletionTokens: 1}, nil
}
func (s *stubAI) Probe(ctx context.Context) error { return s.probeErr }

func TestRouting_ExplicitMap_Heuristics_And_Fallback(t *testing.T) {
	t.Parallel()
	openai := &stubAI{name: "openai"}
	gemini := &stubAI{name: "gemini"}
	m := ai.NewMultiAIAdapter("openai",
		map[string]adapter.AIServiceAdapter{"openai": openai, "gemini": gemini},
		map[string]string{"house-model": "gemini"},
	)
	ctx := context.Background()
	msgs := []adapter.Message{{Role: "user", Content: "hi"}}

	tests := []struct {
		model string
		want  string
	}{
		{"house-model", "gemini"},
		{"gemini-2.0-flash", "gemini"},
		{"gpt-4o-mini", "openai"},
		{"", "openai"},
		{"unknown", "openai"},
	}
	for _, tc := range tests {
		got, _, err := m.Chat(ctx, tc.model, msgs, adapter.GenerateOptions{})
		if err != nil {
			t.Fatalf("Chat(%q): %v", tc.model, err)
		}
		if got != tc.want {
			t.Errorf("Chat(%q) routed to %s, want %s", tc.model, got, tc.want)
		}
	}
	if m.Provider() != "openai" || m.Model() != "openai-model" {
		t.Errorf("default = %s/%s", m.Provider(), m.Model())
	}
	models, _ := m.ListModels(ctx)
	if len(models) != 3 {
		t.Errorf("models = %v", models)
	}
}

func TestRouting_MissingDefaultFallsBack(t *testing.T) {
	t.Parallel()
	gemini := &stubAI{name: "gemini", probeErr: errors.New("bad key")}
	m := ai.NewMultiAIAdapter("openai", map[string]adapter.AIServiceAdapter{"gemini": gemini}, nil)
	got, _, err := m.Chat(context.Background(), "", nil, adapter.GenerateOptions{})
	if err != nil || got != "gemini" {
		t.Fatalf("got %q %v", got, err)
	}
	if err := m.Probe(context.Background()); err == nil {
		t.Fatal("probe should surface the provider error")
	}

	empty := ai.NewMultiAIAdapter("openai", nil, nil)
	if _, _, err := empty.Chat(context.Background(), "", nil, adapter.GenerateOptions{}); err == nil {
		t.Fatal("expected error with no providers")
	}
}
