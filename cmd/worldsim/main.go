// Command worldsim runs the warfront world scheduler.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/warfront/internal/career"
	"github.com/talgya/warfront/internal/config"
	"github.com/talgya/warfront/internal/engine"
	"github.com/talgya/warfront/internal/entropy"
	"github.com/talgya/warfront/internal/npc"
	"github.com/talgya/warfront/internal/persistence"
	"github.com/talgya/warfront/internal/scoring"
	"github.com/talgya/warfront/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	slog.Info("warfront world scheduler",
		"tick_interval", cfg.TickInterval,
		"ms_per_day", cfg.MsPerDay,
		"max_npcs", cfg.MaxNPCs,
		"batch_cap", cfg.BatchCap,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Tracing ───────────────────────────────────────────────────────
	shutdown, err := telemetry.Setup(ctx, "worldsim", cfg.OtelEndpoint)
	if err != nil {
		slog.Error("failed to set up tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(sctx); err != nil {
			slog.Warn("tracer shutdown", "error", err)
		}
	}()

	// ── Tuning ────────────────────────────────────────────────────────
	tuning, err := config.LoadTuning(cfg.TuningPath)
	if err != nil {
		slog.Error("failed to load tuning", "error", err)
		os.Exit(1)
	}
	slog.Info("division catalog loaded", "divisions", len(tuning.Divisions), "population", tuning.Population)

	// ── Database ──────────────────────────────────────────────────────
	if dir := filepath.Dir(cfg.DBPath); dir != "" {
		os.MkdirAll(dir, 0755)
	}
	db, err := persistence.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.DBPath)

	roster := npc.NewNameRoster()

	// ── Seed demo worlds on first start ───────────────────────────────
	hasWorlds, err := db.HasWorlds(ctx)
	if err != nil {
		slog.Error("failed to inspect database", "error", err)
		os.Exit(1)
	}
	if !hasWorlds {
		slog.Info("no saved worlds found, seeding...", "worlds", cfg.SeedWorlds)
		for i := 0; i < cfg.SeedWorlds; i++ {
			if _, err := db.SeedWorld(ctx, persistence.SeedParams{
				Now:       time.Now(),
				Session:   cfg.Session,
				TimeScale: 1,
				NPCs:      tuning.Population,
				Divisions: tuning.Divisions,
				Roster:    roster,
			}); err != nil {
				slog.Error("failed to seed world", "error", err)
				os.Exit(1)
			}
		}
	}
	ids, err := db.WorldIDs(ctx)
	if err != nil {
		slog.Error("failed to list worlds", "error", err)
		os.Exit(1)
	}
	for _, id := range ids {
		if err := db.ExtendSession(ctx, id, time.Now().Add(cfg.Session)); err != nil {
			slog.Warn("could not extend session", "world", id, "error", err)
		}
	}

	// ── Engine ────────────────────────────────────────────────────────
	var src entropy.Source = entropy.Crypto{}
	if cfg.NoiseSeed != 0 {
		src = entropy.NewField(cfg.NoiseSeed)
		slog.Info("deterministic noise field", "seed", cfg.NoiseSeed)
	}

	ctrl := engine.NewController(cfg.MaxNPCs)
	ticker := engine.NewTicker(db, career.NewPlanner(tuning.Divisions), roster, scoring.NewNoise(src), ctrl, engine.Config{
		MsPerDay:       cfg.MsPerDay,
		HardCap:        cfg.MaxNPCs,
		DeltaRetention: cfg.DeltaRetention,
	})
	sched := engine.NewScheduler(db, ticker, ctrl, cfg.BatchCap)
	runner := engine.NewRunner(sched, cfg.TickInterval)

	fmt.Printf("\nWarfront is live: %s worlds, %s NPCs per world, one day every %s.\n",
		humanize.Comma(int64(len(ids))), humanize.Comma(int64(tuning.Population)),
		time.Duration(cfg.MsPerDay)*time.Millisecond)
	fmt.Println("Starting scheduler... (Ctrl+C to stop)")

	runner.Run(ctx)

	m := sched.Metrics()
	slog.Info("final controller state",
		"budget", m.AdaptiveBudget,
		"pressure", m.TickPressure,
		"last_batch_ms", m.LastSchedulerDurationMs,
	)
	fmt.Println("Scheduler stopped.")
}
