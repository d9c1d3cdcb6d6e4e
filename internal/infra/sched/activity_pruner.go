package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"humaine-chatbot/internal/domain/ports/repository"
	"humaine-chatbot/internal/infra/metrics"
)

// ActivityPruner periodically drops live sessions that have gone quiet.
type ActivityPruner struct {
	interval  time.Duration
	idleAfter time.Duration
	activity  repository.ActivityStore
	now       func() time.Time
	log       *zerolog.Logger
}

func NewActivityPruner(interval, idleAfter time.Duration, activity repository.ActivityStore, logger *zerolog.Logger) *ActivityPruner {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if idleAfter <= 0 {
		idleAfter = 30 * time.Minute
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	compLog := logger.With().Str("component", "ActivityPruner").Logger()
	return &ActivityPruner{
		interval:  interval,
		idleAfter: idleAfter,
		activity:  activity,
		now:       time.Now,
		log:       &compLog,
	}
}

func (w *ActivityPruner) Run(ctx context.Context) error {
	w.log.Info().Dur("idle_after", w.idleAfter).Msg("Starting activity pruner")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping activity pruner")
			return ctx.Err()
		case <-ticker.C:
			w.prune(ctx)
		}
	}
}

func (w *ActivityPruner) prune(ctx context.Context) int {
	cutoff := w.now().Add(-w.idleAfter).UnixMilli()
	n, err := w.activity.PruneIdle(ctx, cutoff)
	if err != nil {
		w.log.Error().Err(err).Msg("activity prune failed")
		return 0
	}
	if n > 0 {
		metrics.AddPruned(n)
		w.log.Info().Int("count", n).Msg("idle sessions pruned")
	}
	return n
}
