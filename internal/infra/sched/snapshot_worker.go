package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"humaine-chatbot/internal/domain/ports/repository"
)

// SnapshotWorker flushes in-memory profiles to disk on every tick and once
// more on shutdown.
type SnapshotWorker struct {
	interval time.Duration
	store    repository.ProfileSnapshotter
	log      *zerolog.Logger
}

func NewSnapshotWorker(interval time.Duration, store repository.ProfileSnapshotter, logger *zerolog.Logger) *SnapshotWorker {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	compLog := logger.With().Str("component", "SnapshotWorker").Logger()
	return &SnapshotWorker{interval: interval, store: store, log: &compLog}
}

func (w *SnapshotWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting snapshot worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			w.snapshot(shutdownCtx)
			cancel()
			w.log.Info().Msg("Stopping snapshot worker")
			return ctx.Err()
		case <-ticker.C:
			w.snapshot(ctx)
		}
	}
}

func (w *SnapshotWorker) snapshot(ctx context.Context) {
	start := time.Now()
	if err := w.store.Snapshot(ctx); err != nil {
		w.log.Error().Err(err).Msg("profile snapshot failed")
		return
	}
	w.log.Debug().Dur("took", time.Since(start)).Msg("profiles snapshotted")
}
