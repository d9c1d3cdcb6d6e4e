package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"humaine-chatbot/internal/infra/metrics"
)

// IdleRetirer stops conversations that have gone unused and reports how many.
type IdleRetirer interface {
	RetireIdle(ctx context.Context) int
	Conversations() int
}

// ConversationSweeper periodically releases idle chat conversations so a
// long-running bot does not keep one manager per chat it has ever seen.
type ConversationSweeper struct {
	interval time.Duration
	target   IdleRetirer
	log      *zerolog.Logger
}

func NewConversationSweeper(interval time.Duration, target IdleRetirer, logger *zerolog.Logger) *ConversationSweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	compLog := logger.With().Str("component", "ConversationSweeper").Logger()
	return &ConversationSweeper{interval: interval, target: target, log: &compLog}
}

func (w *ConversationSweeper) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting conversation sweeper")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping conversation sweeper")
			return ctx.Err()
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *ConversationSweeper) sweep(ctx context.Context) int {
	n := w.target.RetireIdle(ctx)
	metrics.SetConversations(w.target.Conversations())
	if n > 0 {
		w.log.Info().Int("count", n).Msg("idle conversations retired")
	}
	return n
}
