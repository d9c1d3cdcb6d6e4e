package persona

import (
	"strings"
	"testing"

	"humaine-chatbot/internal/domain/model"
)

func TestOptions(t *testing.T) {
	tests := []struct {
		name      string
		prefs     Prefs
		maxTokens int
		temp      float64
	}{
		{"defaults", Prefs{Complexity: model.ComplexityMedium, Style: model.StyleBalanced, Detail: model.DetailMedium}, 1000, 0.7},
		{"concise conversational", Prefs{Style: model.StyleConversational, Detail: model.DetailConcise}, 500, 0.8},
		{"detailed complex professional", Prefs{Complexity: model.ComplexityComplex, Style: model.StyleProfessional, Detail: model.DetailDetailed}, 1700, 0.5},
		{"enthusiastic complex", Prefs{Complexity: model.ComplexityComplex, Style: model.StyleEnthusiastic}, 1200, 0.9},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			o := Options(tc.prefs)
			if o.MaxTokens != tc.maxTokens || o.Temperature != tc.temp {
				t.Fatalf("got %+v, want max=%d temp=%v", o, tc.maxTokens, tc.temp)
			}
		})
	}
}

func TestSystemPromptRoundTrip(t *testing.T) {
	in := Prefs{Complexity: model.ComplexitySimple, Style: model.StyleEnthusiastic, Detail: model.DetailConcise, Engagement: "high"}
	s := SystemPrompt(in)
	if !strings.HasPrefix(s, BasePrompt) {
		t.Fatalf("prompt does not start with base: %q", s)
	}
	if got := FromSystemPrompt(s); got != in {
		t.Fatalf("round trip: got %+v want %+v", got, in)
	}
}

func TestFromProfileNil(t *testing.T) {
	p := FromProfile(nil)
	if p.Detail != model.DetailMedium || p.Style != model.StyleBalanced {
		t.Fatalf("unexpected defaults %+v", p)
	}
}

func TestOfflineReply(t *testing.T) {
	if got := OfflineReply("Hello there", Prefs{}); !strings.HasPrefix(got, "Hi there!") {
		t.Fatalf("greeting: %q", got)
	}
	// "this" must not be read as a greeting
	got := OfflineReply("explain this", Prefs{Style: model.StyleProfessional, Detail: model.DetailConcise})
	if !strings.Contains(got, "focused response") {
		t.Fatalf("professional concise: %q", got)
	}
	if got := OfflineReply("money tips", Prefs{Detail: model.DetailDetailed}); !strings.Contains(got, "several key strategies") {
		t.Fatalf("detailed wealth: %q", got)
	}
}
