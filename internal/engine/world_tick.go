package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/talgya/warfront/internal/career"
	"github.com/talgya/warfront/internal/npc"
	"github.com/talgya/warfront/internal/scoring"
	"github.com/talgya/warfront/internal/world"
)

// MaxDayGain bounds how many simulated days one tick may advance.
const MaxDayGain = 3

// Config tunes the world tick.
type Config struct {
	MsPerDay       int64 // wall-clock milliseconds per simulated day at time scale 1
	HardCap        int   // most NPC rows a tick may lock
	DeltaRetention int   // delta versions kept per world
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		MsPerDay:       4000,
		HardCap:        240,
		DeltaRetention: 140,
	}
}

// Options override per-call tick behaviour.
type Options struct {
	MaxNPCOps int // 0 uses the adaptive budget
}

// Result is what a world tick returns.
type Result struct {
	Advanced bool
	Delta    *world.Delta
	Snapshot *world.Snapshot
}

// Ticker runs the World Tick Procedure.
type Ticker struct {
	store   Store
	planner *career.Planner
	roster  npc.Roster
	noise   scoring.Noise
	ctrl    *Controller
	cfg     Config
}

// NewTicker wires a ticker. ctrl supplies the default NPC budget.
func NewTicker(store Store, planner *career.Planner, roster npc.Roster, noise scoring.Noise, ctrl *Controller, cfg Config) *Ticker {
	if cfg.MsPerDay <= 0 {
		cfg.MsPerDay = DefaultConfig().MsPerDay
	}
	if cfg.HardCap <= 0 {
		cfg.HardCap = DefaultConfig().HardCap
	}
	if cfg.DeltaRetention <= 0 {
		cfg.DeltaRetention = DefaultConfig().DeltaRetention
	}
	return &Ticker{
		store:   store,
		planner: planner,
		roster:  roster,
		noise:   noise,
		ctrl:    ctrl,
		cfg:     cfg,
	}
}

// DayGain is the number of whole simulated days elapsed, capped at MaxDayGain.
func DayGain(elapsed time.Duration, timeScale int, msPerDay int64) int {
	if msPerDay <= 0 || elapsed <= 0 {
		return 0
	}
	if timeScale <= 0 {
		timeScale = 1
	}
	gain := elapsed.Milliseconds() * int64(timeScale) / msPerDay
	if gain > MaxDayGain {
		return MaxDayGain
	}
	return int(gain)
}

// RunWorldTick advances one world in its own transaction.
func (t *Ticker) RunWorldTick(ctx context.Context, worldID string, now time.Time, opts Options) (Result, error) {
	var res Result
	err := t.store.Batch(ctx, func(tx Tx) error {
		var err error
		res, err = t.tick(ctx, tx, worldID, now, opts)
		return err
	})
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

// tick runs the procedure inside the caller's transaction.
func (t *Ticker) tick(ctx context.Context, tx Tx, worldID string, now time.Time, opts Options) (Result, error) {
	w, err := tx.LockWorld(ctx, worldID)
	if errors.Is(err, ErrWorldNotFound) {
		return Result{}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("lock world %s: %w", worldID, err)
	}

	gain := DayGain(now.Sub(w.LastTickAt), w.TimeScale, t.cfg.MsPerDay)
	if gain <= 0 {
		snap, err := tx.Snapshot(ctx, worldID)
		if err != nil {
			return Result{}, fmt.Errorf("snapshot %s: %w", worldID, err)
		}
		return Result{Snapshot: snap}, nil
	}

	budget := t.budget(opts)
	frame, err := t.load(ctx, tx, w, gain, budget)
	if err != nil {
		return Result{}, err
	}

	out := t.advance(frame, gain, budget, now)

	if err := tx.Save(ctx, out); err != nil {
		return Result{}, fmt.Errorf("save world %s: %w", worldID, err)
	}
	snap, err := tx.Snapshot(ctx, worldID)
	if err != nil {
		return Result{}, fmt.Errorf("snapshot %s: %w", worldID, err)
	}

	slog.Debug("world advanced",
		"world", worldID,
		"day", out.World.CurrentDay,
		"version", out.World.StateVersion,
		"npcs", len(frame.NPCs),
		"events", len(out.Effects.Lifecycle),
	)
	delta := out.Delta
	return Result{Advanced: true, Delta: &delta, Snapshot: snap}, nil
}

// budget is the NPC row limit for one tick.
func (t *Ticker) budget(opts Options) int {
	requested := opts.MaxNPCOps
	if requested <= 0 && t.ctrl != nil {
		requested = t.ctrl.Budget()
	}
	if requested <= 0 || requested > t.cfg.HardCap {
		requested = t.cfg.HardCap
	}
	return requested
}

func (t *Ticker) load(ctx context.Context, tx Tx, w *world.State, gain, budget int) (*Frame, error) {
	id := w.WorldID
	day := w.CurrentDay + gain
	f := &Frame{World: w}

	var err error
	if f.NPCs, err = tx.LockCurrentNPCs(ctx, id, budget); err != nil {
		return nil, fmt.Errorf("lock npcs %s: %w", id, err)
	}
	ids := make([]string, len(f.NPCs))
	for i, n := range f.NPCs {
		ids[i] = n.NpcID
	}
	if f.Plans, f.Applications, err = tx.LoadCareer(ctx, id, ids); err != nil {
		return nil, fmt.Errorf("load career %s: %w", id, err)
	}
	if f.Quotas, err = tx.LockQuotas(ctx, id); err != nil {
		return nil, fmt.Errorf("lock quotas %s: %w", id, err)
	}
	if f.Queue, err = tx.PendingReplacements(ctx, id); err != nil {
		return nil, fmt.Errorf("replacements %s: %w", id, err)
	}
	if f.OverdueOrders, err = tx.OverdueOrders(ctx, id, day); err != nil {
		return nil, fmt.Errorf("orders %s: %w", id, err)
	}
	if f.OpenCases, err = tx.OpenCaseNPCs(ctx, id); err != nil {
		return nil, fmt.Errorf("court cases %s: %w", id, err)
	}
	if cycle := day / CeremonyCycleDays; cycle > 0 {
		if f.CeremonyExists, err = tx.CeremonyExists(ctx, id, cycle); err != nil {
			return nil, fmt.Errorf("ceremony %s: %w", id, err)
		}
		if f.RecentKIA, err = tx.CountKIASince(ctx, id, day-CeremonyCycleDays); err != nil {
			return nil, fmt.Errorf("kia count %s: %w", id, err)
		}
	}
	return f, nil
}
