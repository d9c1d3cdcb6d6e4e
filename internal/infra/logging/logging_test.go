package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"humaine-chatbot/internal/config"
)

func TestWithAddsContextFields(t *testing.T) {
	var buf bytes.Buffer
	base := NewTo(&buf, config.LogConfig{Level: "debug", Format: "json"}, false)

	ctx := WithTraceID(context.Background(), "t-1")
	ctx = WithUserID(ctx, "u-1")
	ctx = WithSessID(ctx, "s-1")
	ctx = WithChatID(ctx, 42)
	With(ctx, Component(base, "api")).Info().Msg("hello")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("not json: %v (%q)", err, buf.String())
	}
	for k, want := range map[string]any{"trace_id": "t-1", "user_id": "u-1", "session_id": "s-1", "chat_id": float64(42), "component": "api"} {
		if line[k] != want {
			t.Errorf("%s = %v, want %v", k, line[k], want)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewTo(&buf, config.LogConfig{Level: "warn", Format: "json"}, false)
	l.Info().Msg("dropped")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn: %q", buf.String())
	}
}

func TestRedact(t *testing.T) {
	if Redact("secret", false) != "***" {
		t.Error("short values are fully hidden")
	}
	if got := Redact("sk-abcdefghij", false); got != "sk-a...ij" {
		t.Errorf("Redact = %q", got)
	}
	if Redact("visible", true) != "visible" {
		t.Error("dev mode keeps values")
	}
}
