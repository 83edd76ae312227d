// Package engine advances worlds: the batch scheduler, the per-world tick
// procedure and the adaptive budget controller that throttles it.
package engine

import (
	"context"
	"log/slog"
	"time"
)

// Runner invokes the scheduler on a fixed cadence.
type Runner struct {
	Scheduler *Scheduler
	Interval  time.Duration
}

// NewRunner creates a runner with a default 5s cadence.
func NewRunner(s *Scheduler, interval time.Duration) *Runner {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Runner{Scheduler: s, Interval: interval}
}

// Run blocks until ctx is cancelled. A failed batch is logged and the next
// run proceeds on schedule.
func (r *Runner) Run(ctx context.Context) {
	slog.Info("world scheduler started", "interval", r.Interval)
	t := time.NewTicker(r.Interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("world scheduler stopped")
			return
		case now := <-t.C:
			n, err := r.Scheduler.RunSchedulerTick(ctx, now)
			if err != nil {
				slog.Error("scheduler tick failed", "error", err)
				continue
			}
			if n > 0 {
				m := r.Scheduler.Metrics()
				slog.Info("worlds advanced",
					"count", n,
					"budget", m.AdaptiveBudget,
					"pressure", m.TickPressure,
					"last_ms", m.LastSchedulerDurationMs,
				)
			}
		}
	}
}
