package persistence

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/warfront/internal/career"
	"github.com/talgya/warfront/internal/engine"
	"github.com/talgya/warfront/internal/npc"
	"github.com/talgya/warfront/internal/world"
)

// SeedParams describes a fresh world.
type SeedParams struct {
	WorldID   string // generated when empty
	Now       time.Time
	Session   time.Duration // how long the world stays eligible for ticks
	TimeScale int
	NPCs      int
	Divisions []career.Division
	Roster    npc.Roster
}

// HasWorlds reports whether any world has been created.
func (db *DB) HasWorlds(ctx context.Context) (bool, error) {
	var n int
	if err := db.conn.GetContext(ctx, &n, "SELECT COUNT(*) FROM worlds"); err != nil {
		return false, err
	}
	return n > 0, nil
}

// WorldIDs lists every world.
func (db *DB) WorldIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := db.conn.SelectContext(ctx, &ids, "SELECT world_id FROM worlds ORDER BY world_id")
	return ids, err
}

// SeedWorld creates a world with its player, a first generation of NPCs,
// the division quotas and an opening command order.
func (db *DB) SeedWorld(ctx context.Context, p SeedParams) (string, error) {
	if p.WorldID == "" {
		p.WorldID = uuid.NewString()
	}
	if p.TimeScale <= 0 {
		p.TimeScale = 1
	}
	until := p.Now.Add(p.Session)

	w := &world.State{
		WorldID:            p.WorldID,
		LastTickAt:         p.Now,
		SessionActiveUntil: &until,
		TimeScale:          p.TimeScale,
		Player: world.Player{
			Money:            1000,
			Morale:           60,
			Health:           100,
			Assignment:       "Command Staff",
			CommandAuthority: 50,
		},
		Governance: world.Governance{
			NationalStability: 65,
			MilitaryStability: 60,
			Corruption:        20,
		},
	}

	err := db.Batch(ctx, func(etx engine.Tx) error {
		t := etx.(*Tx)
		if err := t.insertWorld(ctx, w); err != nil {
			return fmt.Errorf("world: %w", err)
		}
		var first *npc.NPC
		for slot := 1; slot <= p.NPCs; slot++ {
			n := p.Roster.Recruit(p.WorldID, slot, 1)
			if first == nil {
				first = n
			}
			if err := t.upsertNPC(ctx, n, true); err != nil {
				return fmt.Errorf("npc slot %d: %w", slot, err)
			}
		}
		for _, d := range p.Divisions {
			if err := t.upsertQuota(ctx, d.NewQuota(p.WorldID)); err != nil {
				return fmt.Errorf("quota %s: %w", d.Code, err)
			}
		}
		if first != nil {
			if _, err := t.tx.NamedExecContext(ctx, `INSERT INTO command_orders
				(order_id, world_id, target_npc_id, title, priority, issued_day, ack_deadline_day, status)
				VALUES (:order_id, :world_id, :target_npc_id, :title, :priority, :issued_day, :ack_deadline_day, :status)`,
				world.CommandOrder{
					OrderID:        uuid.NewString(),
					WorldID:        p.WorldID,
					TargetNpcID:    first.NpcID,
					Title:          "Report perimeter readiness",
					Priority:       world.PriorityHigh,
					AckDeadlineDay: 2,
					Status:         world.OrderPending,
				}); err != nil {
				return fmt.Errorf("opening order: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("seed world: %w", err)
	}

	slog.Info("world seeded", "world", p.WorldID, "npcs", p.NPCs, "divisions", len(p.Divisions))
	return p.WorldID, nil
}
