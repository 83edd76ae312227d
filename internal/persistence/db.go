// Package persistence is the SQLite storage adapter for worlds, NPCs,
// career state, side-effect records and delta history.
package persistence

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/warfront/internal/engine"
)

// DB wraps a SQLite connection.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path. Write
// transactions begin IMMEDIATE so the world rows a tick reads are held
// until it commits.
func Open(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_txlock=immediate"
	conn, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Batch runs fn in one transaction, committing only when fn succeeds.
func (db *DB) Batch(ctx context.Context, fn func(tx engine.Tx) error) error {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&Tx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

var (
	_ engine.Store = (*DB)(nil)
	_ engine.Tx    = (*Tx)(nil)
)

// Tx is one storage transaction.
type Tx struct {
	tx *sqlx.Tx
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS worlds (
		world_id TEXT PRIMARY KEY,
		state_version INTEGER NOT NULL,
		last_tick_ms INTEGER NOT NULL,
		session_active_until_ms INTEGER,
		time_scale INTEGER NOT NULL DEFAULT 1,
		current_day INTEGER NOT NULL DEFAULT 0,
		next_raid_day INTEGER NOT NULL DEFAULT 0,
		national_stability REAL NOT NULL,
		military_stability REAL NOT NULL,
		corruption REAL NOT NULL,
		mission_json TEXT
	);

	CREATE TABLE IF NOT EXISTS players (
		world_id TEXT PRIMARY KEY REFERENCES worlds(world_id),
		money REAL NOT NULL,
		morale REAL NOT NULL,
		health REAL NOT NULL,
		rank_index INTEGER NOT NULL,
		assignment TEXT NOT NULL,
		command_authority REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS npcs (
		npc_id TEXT PRIMARY KEY,
		world_id TEXT NOT NULL REFERENCES worlds(world_id),
		slot_no INTEGER NOT NULL,
		generation INTEGER NOT NULL,
		name TEXT NOT NULL,
		division TEXT NOT NULL,
		unit TEXT NOT NULL,
		position TEXT NOT NULL,
		status TEXT NOT NULL,
		traits_json TEXT NOT NULL,
		xp REAL NOT NULL,
		promotion_points REAL NOT NULL,
		academy_tier INTEGER NOT NULL,
		rank_index INTEGER NOT NULL,
		strategy_mode TEXT NOT NULL,
		career_stage TEXT NOT NULL,
		desired_division TEXT NOT NULL,
		last_task TEXT NOT NULL,
		death_day INTEGER,
		is_current INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS career_plans (
		npc_id TEXT PRIMARY KEY,
		world_id TEXT NOT NULL,
		strategy_mode TEXT NOT NULL,
		career_stage TEXT NOT NULL,
		desired_division TEXT NOT NULL,
		target_tier INTEGER NOT NULL,
		next_action_day INTEGER NOT NULL,
		last_action_day INTEGER NOT NULL,
		last_application_id TEXT NOT NULL,
		academy_timer_json TEXT
	);

	CREATE TABLE IF NOT EXISTS pipeline_applications (
		application_id TEXT PRIMARY KEY,
		world_id TEXT NOT NULL,
		npc_id TEXT NOT NULL,
		npc_name TEXT NOT NULL,
		division TEXT NOT NULL,
		track TEXT NOT NULL,
		status TEXT NOT NULL,
		registered_day INTEGER NOT NULL,
		tryout_day INTEGER,
		selection_day INTEGER,
		announcement_day INTEGER,
		tryout_score REAL NOT NULL,
		final_score REAL NOT NULL,
		reject_reason TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS division_quotas (
		world_id TEXT NOT NULL,
		division TEXT NOT NULL,
		quota_total INTEGER NOT NULL,
		quota_used INTEGER NOT NULL,
		quota_remaining INTEGER NOT NULL,
		status TEXT NOT NULL,
		cooldown_until_day INTEGER NOT NULL,
		cooldown_days INTEGER NOT NULL,
		PRIMARY KEY (world_id, division)
	);

	CREATE TABLE IF NOT EXISTS lifecycle_events (
		event_id TEXT PRIMARY KEY,
		world_id TEXT NOT NULL,
		npc_id TEXT NOT NULL,
		day INTEGER NOT NULL,
		kind TEXT NOT NULL,
		description TEXT NOT NULL,
		meta_json TEXT
	);

	CREATE TABLE IF NOT EXISTS mailbox_messages (
		message_id TEXT PRIMARY KEY,
		world_id TEXT NOT NULL,
		day INTEGER NOT NULL,
		sender TEXT NOT NULL,
		category TEXT NOT NULL,
		subject TEXT NOT NULL,
		body TEXT NOT NULL,
		related_npc_id TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS timeline_events (
		event_id TEXT PRIMARY KEY,
		world_id TEXT NOT NULL,
		day INTEGER NOT NULL,
		kind TEXT NOT NULL,
		text TEXT NOT NULL,
		meta_json TEXT
	);

	CREATE TABLE IF NOT EXISTS court_cases (
		case_id TEXT PRIMARY KEY,
		world_id TEXT NOT NULL,
		npc_id TEXT NOT NULL,
		day INTEGER NOT NULL,
		reason TEXT NOT NULL,
		severity INTEGER NOT NULL,
		status TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS command_orders (
		order_id TEXT PRIMARY KEY,
		world_id TEXT NOT NULL,
		target_npc_id TEXT NOT NULL,
		title TEXT NOT NULL,
		priority TEXT NOT NULL,
		issued_day INTEGER NOT NULL,
		ack_deadline_day INTEGER NOT NULL,
		status TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS command_acks (
		ack_id TEXT PRIMARY KEY,
		world_id TEXT NOT NULL,
		order_id TEXT NOT NULL,
		day INTEGER NOT NULL,
		status TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS replacement_queue (
		queue_id TEXT PRIMARY KEY,
		world_id TEXT NOT NULL,
		slot_no INTEGER NOT NULL,
		old_npc_id TEXT NOT NULL,
		generation INTEGER NOT NULL,
		queued_day INTEGER NOT NULL,
		due_day INTEGER NOT NULL,
		status TEXT NOT NULL,
		fulfilled_npc_id TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS assignment_history (
		record_id TEXT PRIMARY KEY,
		world_id TEXT NOT NULL,
		npc_id TEXT NOT NULL,
		day INTEGER NOT NULL,
		division TEXT NOT NULL,
		unit TEXT NOT NULL,
		position TEXT NOT NULL,
		reason TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS ceremonies (
		ceremony_id TEXT PRIMARY KEY,
		world_id TEXT NOT NULL,
		cycle INTEGER NOT NULL,
		day INTEGER NOT NULL,
		status TEXT NOT NULL,
		awards_json TEXT NOT NULL,
		kia_memorial_count INTEGER NOT NULL,
		UNIQUE (world_id, cycle)
	);

	CREATE TABLE IF NOT EXISTS world_deltas (
		world_id TEXT NOT NULL,
		to_version INTEGER NOT NULL,
		from_version INTEGER NOT NULL,
		day INTEGER NOT NULL,
		created_ms INTEGER NOT NULL,
		payload BLOB NOT NULL,
		PRIMARY KEY (world_id, to_version)
	);

	CREATE INDEX IF NOT EXISTS idx_worlds_due ON worlds(session_active_until_ms, last_tick_ms);
	CREATE INDEX IF NOT EXISTS idx_npcs_current ON npcs(world_id, is_current, slot_no);
	CREATE INDEX IF NOT EXISTS idx_events_world_day ON lifecycle_events(world_id, day);
	CREATE INDEX IF NOT EXISTS idx_queue_world ON replacement_queue(world_id, status);
	CREATE INDEX IF NOT EXISTS idx_orders_world ON command_orders(world_id, status);
	CREATE INDEX IF NOT EXISTS idx_cases_world ON court_cases(world_id, status);
	`
	_, err := db.conn.Exec(schema)
	return err
}
