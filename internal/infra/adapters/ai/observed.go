package ai

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"humaine-chatbot/internal/domain/ports/adapter"
	"humaine-chatbot/internal/infra/metrics"
)

var _ adapter.AIServiceAdapter = (*observedAI)(nil)

// observedAI records latency and token usage of every chat call.
type observedAI struct {
	inner adapter.AIServiceAdapter
	log   *zerolog.Logger
}

func NewObservedAI(inner adapter.AIServiceAdapter, logger *zerolog.Logger) adapter.AIServiceAdapter {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &observedAI{inner: inner, log: logger}
}

func (o *observedAI) Provider() string { return o.inner.Provider() }
func (o *observedAI) Model() string    { return o.inner.Model() }

func (o *observedAI) ListModels(ctx context.Context) ([]string, error) {
	return o.inner.ListModels(ctx)
}

func (o *observedAI) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	return o.inner.CountTokens(ctx, model, messages)
}

func (o *observedAI) Chat(ctx context.Context, model string, messages []adapter.Message, opts adapter.GenerateOptions) (string, adapter.Usage, error) {
	start := time.Now()
	reply, u, err := o.inner.Chat(ctx, model, messages, opts)
	elapsed := time.Since(start)
	if model == "" {
		model = o.inner.Model()
	}
	metrics.ObserveChatUsage(o.inner.Provider(), model, u.PromptTokens, u.CompletionTokens, u.TotalTokens, int(elapsed.Milliseconds()), err == nil)

	ev := o.log.Debug()
	if err != nil {
		ev = o.log.Warn().Err(err)
	}
	ev.Str("provider", o.inner.Provider()).
		Str("model", model).
		Int("tokens_in", u.PromptTokens).
		Int("tokens_out", u.CompletionTokens).
		Dur("latency", elapsed).
		Msg("ai_chat")
	return reply, u, err
}

func (o *observedAI) Probe(ctx context.Context) error {
	return o.inner.Probe(ctx)
}
