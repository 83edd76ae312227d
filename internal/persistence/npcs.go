package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/talgya/warfront/internal/npc"
)

type npcRow struct {
	NpcID           string        `db:"npc_id"`
	WorldID         string        `db:"world_id"`
	SlotNo          int           `db:"slot_no"`
	Generation      int           `db:"generation"`
	Name            string        `db:"name"`
	Division        string        `db:"division"`
	Unit            string        `db:"unit"`
	Position        string        `db:"position"`
	Status          string        `db:"status"`
	TraitsJSON      string        `db:"traits_json"`
	XP              float64       `db:"xp"`
	PromotionPoints float64       `db:"promotion_points"`
	AcademyTier     int           `db:"academy_tier"`
	RankIndex       int           `db:"rank_index"`
	StrategyMode    string        `db:"strategy_mode"`
	CareerStage     string        `db:"career_stage"`
	DesiredDivision string        `db:"desired_division"`
	LastTask        string        `db:"last_task"`
	DeathDay        sql.NullInt64 `db:"death_day"`
	IsCurrent       int           `db:"is_current"`
}

func (r npcRow) npc() (*npc.NPC, error) {
	n := &npc.NPC{
		WorldID:         r.WorldID,
		NpcID:           r.NpcID,
		SlotNo:          r.SlotNo,
		Generation:      r.Generation,
		Name:            r.Name,
		Division:        r.Division,
		Unit:            r.Unit,
		Position:        r.Position,
		Status:          npc.Status(r.Status),
		XP:              r.XP,
		PromotionPoints: r.PromotionPoints,
		AcademyTier:     r.AcademyTier,
		RankIndex:       r.RankIndex,
		StrategyMode:    npc.Strategy(r.StrategyMode),
		CareerStage:     npc.Stage(r.CareerStage),
		DesiredDivision: r.DesiredDivision,
		LastTask:        r.LastTask,
	}
	if err := json.Unmarshal([]byte(r.TraitsJSON), &n.Traits); err != nil {
		return nil, fmt.Errorf("traits %s: %w", r.NpcID, err)
	}
	if r.DeathDay.Valid {
		d := int(r.DeathDay.Int64)
		n.DeathDay = &d
	}
	return n, nil
}

func rowFromNPC(n *npc.NPC, current bool) (npcRow, error) {
	traits, err := json.Marshal(n.Traits)
	if err != nil {
		return npcRow{}, err
	}
	r := npcRow{
		NpcID:           n.NpcID,
		WorldID:         n.WorldID,
		SlotNo:          n.SlotNo,
		Generation:      n.Generation,
		Name:            n.Name,
		Division:        n.Division,
		Unit:            n.Unit,
		Position:        n.Position,
		Status:          string(n.Status),
		TraitsJSON:      string(traits),
		XP:              n.XP,
		PromotionPoints: n.PromotionPoints,
		AcademyTier:     n.AcademyTier,
		RankIndex:       n.RankIndex,
		StrategyMode:    string(n.StrategyMode),
		CareerStage:     string(n.CareerStage),
		DesiredDivision: n.DesiredDivision,
		LastTask:        n.LastTask,
	}
	if n.DeathDay != nil {
		r.DeathDay = sql.NullInt64{Int64: int64(*n.DeathDay), Valid: true}
	}
	if current {
		r.IsCurrent = 1
	}
	return r, nil
}

// LockCurrentNPCs loads up to limit current occupants ordered by slot.
func (t *Tx) LockCurrentNPCs(ctx context.Context, worldID string, limit int) ([]*npc.NPC, error) {
	return t.currentNPCs(ctx, worldID, limit)
}

// currentNPCs loads current occupants; a negative limit loads all.
func (t *Tx) currentNPCs(ctx context.Context, worldID string, limit int) ([]*npc.NPC, error) {
	var rows []npcRow
	err := t.tx.SelectContext(ctx, &rows, `SELECT * FROM npcs
		WHERE world_id = ? AND is_current = 1
		ORDER BY slot_no, generation
		LIMIT ?`, worldID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]*npc.NPC, 0, len(rows))
	for _, r := range rows {
		n, err := r.npc()
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func (t *Tx) upsertNPC(ctx context.Context, n *npc.NPC, current bool) error {
	r, err := rowFromNPC(n, current)
	if err != nil {
		return err
	}
	_, err = t.tx.NamedExecContext(ctx, `INSERT OR REPLACE INTO npcs
		(npc_id, world_id, slot_no, generation, name, division, unit, position, status,
		 traits_json, xp, promotion_points, academy_tier, rank_index, strategy_mode,
		 career_stage, desired_division, last_task, death_day, is_current)
		VALUES (:npc_id, :world_id, :slot_no, :generation, :name, :division, :unit, :position, :status,
		 :traits_json, :xp, :promotion_points, :academy_tier, :rank_index, :strategy_mode,
		 :career_stage, :desired_division, :last_task, :death_day, :is_current)`, r)
	return err
}

func (t *Tx) retireNPCs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`UPDATE npcs SET is_current = 0 WHERE npc_id IN (?)`, ids)
	if err != nil {
		return err
	}
	_, err = t.tx.ExecContext(ctx, t.tx.Rebind(query), args...)
	return err
}
