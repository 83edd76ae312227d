package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/talgya/warfront/internal/engine"
	"github.com/talgya/warfront/internal/world"
)

type worldRow struct {
	WorldID              string         `db:"world_id"`
	StateVersion         int64          `db:"state_version"`
	LastTickMs           int64          `db:"last_tick_ms"`
	SessionActiveUntilMs sql.NullInt64  `db:"session_active_until_ms"`
	TimeScale            int            `db:"time_scale"`
	CurrentDay           int            `db:"current_day"`
	NextRaidDay          int            `db:"next_raid_day"`
	NationalStability    float64        `db:"national_stability"`
	MilitaryStability    float64        `db:"military_stability"`
	Corruption           float64        `db:"corruption"`
	MissionJSON          sql.NullString `db:"mission_json"`

	Money            float64 `db:"money"`
	Morale           float64 `db:"morale"`
	Health           float64 `db:"health"`
	RankIndex        int     `db:"rank_index"`
	Assignment       string  `db:"assignment"`
	CommandAuthority float64 `db:"command_authority"`
}

func (r worldRow) state() (*world.State, error) {
	w := &world.State{
		WorldID:      r.WorldID,
		StateVersion: r.StateVersion,
		LastTickAt:   fromMs(r.LastTickMs),
		TimeScale:    r.TimeScale,
		CurrentDay:   r.CurrentDay,
		NextRaidDay:  r.NextRaidDay,
		Player: world.Player{
			Money:            r.Money,
			Morale:           r.Morale,
			Health:           r.Health,
			RankIndex:        r.RankIndex,
			Assignment:       r.Assignment,
			CommandAuthority: r.CommandAuthority,
		},
		Governance: world.Governance{
			NationalStability: r.NationalStability,
			MilitaryStability: r.MilitaryStability,
			Corruption:        r.Corruption,
		},
	}
	if r.SessionActiveUntilMs.Valid {
		t := fromMs(r.SessionActiveUntilMs.Int64)
		w.SessionActiveUntil = &t
	}
	if r.MissionJSON.Valid {
		var m world.Mission
		if err := json.Unmarshal([]byte(r.MissionJSON.String), &m); err != nil {
			return nil, fmt.Errorf("mission: %w", err)
		}
		w.Mission = &m
	}
	return w, nil
}

const selectWorld = `SELECT w.world_id, w.state_version, w.last_tick_ms, w.session_active_until_ms,
	w.time_scale, w.current_day, w.next_raid_day, w.national_stability, w.military_stability,
	w.corruption, w.mission_json, p.money, p.morale, p.health, p.rank_index, p.assignment,
	p.command_authority
	FROM worlds w JOIN players p ON p.world_id = w.world_id`

// ClaimDueWorlds returns up to limit worlds with a live session whose last
// tick is at least one simulated day old. The IMMEDIATE transaction already
// holds the database write lock, so no concurrent batch can claim the same
// rows before this one commits.
func (t *Tx) ClaimDueWorlds(ctx context.Context, now time.Time, msPerDay int64, limit int) ([]string, error) {
	var ids []string
	err := t.tx.SelectContext(ctx, &ids, `SELECT world_id FROM worlds
		WHERE session_active_until_ms IS NOT NULL
		  AND session_active_until_ms > ?
		  AND (? - last_tick_ms) * MAX(time_scale, 1) >= ?
		ORDER BY last_tick_ms, world_id
		LIMIT ?`, toMs(now), toMs(now), msPerDay, limit)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// LockWorld loads the world and player rows.
func (t *Tx) LockWorld(ctx context.Context, worldID string) (*world.State, error) {
	var r worldRow
	err := t.tx.GetContext(ctx, &r, selectWorld+` WHERE w.world_id = ?`, worldID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, engine.ErrWorldNotFound
	}
	if err != nil {
		return nil, err
	}
	return r.state()
}

func (t *Tx) saveWorld(ctx context.Context, w *world.State, prevVersion int64) error {
	mission, err := nullJSON(w.Mission)
	if err != nil {
		return fmt.Errorf("mission: %w", err)
	}
	var session sql.NullInt64
	if w.SessionActiveUntil != nil {
		session = sql.NullInt64{Int64: toMs(*w.SessionActiveUntil), Valid: true}
	}

	res, err := t.tx.ExecContext(ctx, `UPDATE worlds SET
		state_version = ?, last_tick_ms = ?, session_active_until_ms = ?, time_scale = ?,
		current_day = ?, next_raid_day = ?, national_stability = ?, military_stability = ?,
		corruption = ?, mission_json = ?
		WHERE world_id = ? AND state_version = ?`,
		w.StateVersion, toMs(w.LastTickAt), session, w.TimeScale,
		w.CurrentDay, w.NextRaidDay, w.Governance.NationalStability, w.Governance.MilitaryStability,
		w.Governance.Corruption, mission,
		w.WorldID, prevVersion)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n != 1 {
		return fmt.Errorf("world %s moved past version %d", w.WorldID, prevVersion)
	}

	p := w.Player
	_, err = t.tx.ExecContext(ctx, `UPDATE players SET
		money = ?, morale = ?, health = ?, rank_index = ?, assignment = ?, command_authority = ?
		WHERE world_id = ?`,
		p.Money, p.Morale, p.Health, p.RankIndex, p.Assignment, p.CommandAuthority, w.WorldID)
	return err
}

func (t *Tx) insertWorld(ctx context.Context, w *world.State) error {
	mission, err := nullJSON(w.Mission)
	if err != nil {
		return fmt.Errorf("mission: %w", err)
	}
	var session sql.NullInt64
	if w.SessionActiveUntil != nil {
		session = sql.NullInt64{Int64: toMs(*w.SessionActiveUntil), Valid: true}
	}
	if _, err := t.tx.ExecContext(ctx, `INSERT INTO worlds
		(world_id, state_version, last_tick_ms, session_active_until_ms, time_scale, current_day,
		 next_raid_day, national_stability, military_stability, corruption, mission_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		w.WorldID, w.StateVersion, toMs(w.LastTickAt), session, w.TimeScale, w.CurrentDay,
		w.NextRaidDay, w.Governance.NationalStability, w.Governance.MilitaryStability,
		w.Governance.Corruption, mission); err != nil {
		return err
	}
	p := w.Player
	_, err = t.tx.ExecContext(ctx, `INSERT INTO players
		(world_id, money, morale, health, rank_index, assignment, command_authority)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		w.WorldID, p.Money, p.Morale, p.Health, p.RankIndex, p.Assignment, p.CommandAuthority)
	return err
}

// Snapshot reads the world and its current NPCs.
func (t *Tx) Snapshot(ctx context.Context, worldID string) (*world.Snapshot, error) {
	w, err := t.LockWorld(ctx, worldID)
	if err != nil {
		return nil, err
	}
	npcs, err := t.currentNPCs(ctx, worldID, -1)
	if err != nil {
		return nil, err
	}
	return &world.Snapshot{World: w, NPCs: npcs}, nil
}

// Save writes everything a tick decided.
func (t *Tx) Save(ctx context.Context, out *engine.Outcome) error {
	w := out.World
	if err := t.saveWorld(ctx, w, out.PrevVersion); err != nil {
		return fmt.Errorf("world: %w", err)
	}
	for _, n := range out.NPCs {
		if err := t.upsertNPC(ctx, n, true); err != nil {
			return fmt.Errorf("npc %s: %w", n.NpcID, err)
		}
	}
	for _, n := range out.Recruits {
		if err := t.upsertNPC(ctx, n, true); err != nil {
			return fmt.Errorf("recruit %s: %w", n.NpcID, err)
		}
	}
	if err := t.retireNPCs(ctx, out.Retired); err != nil {
		return fmt.Errorf("retire: %w", err)
	}
	if err := t.saveCareer(ctx, out.Plans, out.Applications, out.Quotas); err != nil {
		return err
	}
	for _, o := range out.Orders {
		if _, err := t.tx.ExecContext(ctx, `UPDATE command_orders SET status = ? WHERE order_id = ?`,
			o.Status, o.OrderID); err != nil {
			return fmt.Errorf("order %s: %w", o.OrderID, err)
		}
	}
	if out.Effects != nil {
		if err := t.writeEffects(ctx, out.Effects); err != nil {
			return err
		}
	}
	if err := t.appendDelta(ctx, out.Delta); err != nil {
		return fmt.Errorf("delta: %w", err)
	}
	if out.Retention > 0 {
		if err := t.pruneDeltas(ctx, w.WorldID, w.StateVersion-int64(out.Retention)); err != nil {
			return fmt.Errorf("prune deltas: %w", err)
		}
	}
	return nil
}

func (t *Tx) appendDelta(ctx context.Context, d world.Delta) error {
	payload, err := encodeDelta(d)
	if err != nil {
		return err
	}
	_, err = t.tx.ExecContext(ctx, `INSERT INTO world_deltas
		(world_id, to_version, from_version, day, created_ms, payload)
		VALUES (?, ?, ?, ?, ?, ?)`,
		d.WorldID, d.ToVersion, d.FromVersion, d.Day, toMs(d.CreatedAt), payload)
	return err
}

// pruneDeltas drops history at or below floor.
func (t *Tx) pruneDeltas(ctx context.Context, worldID string, floor int64) error {
	if floor <= 0 {
		return nil
	}
	_, err := t.tx.ExecContext(ctx, `DELETE FROM world_deltas WHERE world_id = ? AND to_version <= ?`,
		worldID, floor)
	return err
}

// DeltasSince returns the retained deltas newer than version, oldest first.
func (db *DB) DeltasSince(ctx context.Context, worldID string, version int64) ([]world.Delta, error) {
	var payloads [][]byte
	err := db.conn.SelectContext(ctx, &payloads, `SELECT payload FROM world_deltas
		WHERE world_id = ? AND to_version > ? ORDER BY to_version`, worldID, version)
	if err != nil {
		return nil, fmt.Errorf("deltas %s: %w", worldID, err)
	}
	out := make([]world.Delta, 0, len(payloads))
	for _, p := range payloads {
		d, err := decodeDelta(p)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// CatchUp coalesces every retained delta newer than version.
func (db *DB) CatchUp(ctx context.Context, worldID string, version int64) (world.Delta, error) {
	deltas, err := db.DeltasSince(ctx, worldID, version)
	if err != nil {
		return world.Delta{}, err
	}
	return world.MergeDeltas(version, deltas), nil
}

// ExtendSession keeps a world eligible for scheduling until the given time.
func (db *DB) ExtendSession(ctx context.Context, worldID string, until time.Time) error {
	res, err := db.conn.ExecContext(ctx, `UPDATE worlds SET session_active_until_ms = ? WHERE world_id = ?`,
		toMs(until), worldID)
	if err != nil {
		return fmt.Errorf("extend session %s: %w", worldID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return engine.ErrWorldNotFound
	}
	return nil
}
