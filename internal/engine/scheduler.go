package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultBatchCap is the most worlds one scheduler run claims.
const DefaultBatchCap = 12

const tracerName = "github.com/talgya/warfront/internal/engine"

// Scheduler is the periodic batch entry point.
type Scheduler struct {
	store    Store
	ticker   *Ticker
	ctrl     *Controller
	batchCap int
	tracer   trace.Tracer

	// Clock measures tick durations. Tests replace it.
	Clock func() time.Time
}

// NewScheduler wires a scheduler around a ticker and its controller.
func NewScheduler(store Store, ticker *Ticker, ctrl *Controller, batchCap int) *Scheduler {
	if batchCap <= 0 {
		batchCap = DefaultBatchCap
	}
	return &Scheduler{
		store:    store,
		ticker:   ticker,
		ctrl:     ctrl,
		batchCap: batchCap,
		tracer:   otel.Tracer(tracerName),
		Clock:    time.Now,
	}
}

// Metrics exposes the adaptive controller.
func (s *Scheduler) Metrics() Metrics {
	return s.ctrl.Metrics()
}

// RunSchedulerTick advances every due world in one transaction and returns
// how many advanced. Any error rolls back the whole batch.
func (s *Scheduler) RunSchedulerTick(ctx context.Context, now time.Time) (int, error) {
	ctx, span := s.tracer.Start(ctx, "scheduler.tick")
	defer span.End()

	start := s.Clock()
	advanced := 0
	var durations []time.Duration
	err := s.store.Batch(ctx, func(tx Tx) error {
		advanced = 0
		durations = durations[:0]
		ids, err := tx.ClaimDueWorlds(ctx, now, s.ticker.cfg.MsPerDay, s.batchCap)
		if err != nil {
			return fmt.Errorf("claim due worlds: %w", err)
		}
		span.SetAttributes(attribute.Int("worlds.claimed", len(ids)))

		for _, id := range ids {
			ok, took, err := s.tickWorld(ctx, tx, id, now)
			if err != nil {
				return err
			}
			durations = append(durations, took)
			if ok {
				advanced++
			}
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Error("scheduler batch rolled back", "error", err)
		return 0, err
	}

	// Only committed work moves the budget.
	for _, d := range durations {
		s.ctrl.ObserveWorld(d)
	}
	elapsed := s.Clock().Sub(start)
	pressure := s.ctrl.ObserveBatch(elapsed)
	span.SetAttributes(
		attribute.Int("worlds.advanced", advanced),
		attribute.String("tick.pressure", string(pressure)),
	)
	slog.Debug("scheduler batch",
		"advanced", advanced,
		"duration_ms", elapsed.Milliseconds(),
		"pressure", pressure,
		"budget", s.ctrl.Budget(),
	)
	return advanced, nil
}

// tickWorld advances one world and reports how long it took.
func (s *Scheduler) tickWorld(ctx context.Context, tx Tx, worldID string, now time.Time) (bool, time.Duration, error) {
	ctx, span := s.tracer.Start(ctx, "world.tick", trace.WithAttributes(attribute.String("world.id", worldID)))
	defer span.End()

	start := s.Clock()
	res, err := s.ticker.tick(ctx, tx, worldID, now, Options{})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, 0, fmt.Errorf("tick world %s: %w", worldID, err)
	}
	took := s.Clock().Sub(start)
	span.SetAttributes(attribute.Bool("world.advanced", res.Advanced))
	return res.Advanced, took, nil
}
