package sched

import (
	"context"
	"time"
)

// PoolStatsWorker calls report on every tick, e.g. to publish DB pool gauges.
type PoolStatsWorker struct {
	interval time.Duration
	report   func()
}

func NewPoolStatsWorker(interval time.Duration, report func()) *PoolStatsWorker {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &PoolStatsWorker{interval: interval, report: report}
}

func (w *PoolStatsWorker) Run(ctx context.Context) error {
	w.report()
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.report()
		}
	}
}
