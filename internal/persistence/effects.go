package persistence

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/talgya/warfront/internal/effects"
	"github.com/talgya/warfront/internal/world"
)

// PendingReplacements returns the queued replacements, oldest due first.
func (t *Tx) PendingReplacements(ctx context.Context, worldID string) ([]effects.ReplacementQueueItem, error) {
	var rows []effects.ReplacementQueueItem
	err := t.tx.SelectContext(ctx, &rows, `SELECT * FROM replacement_queue
		WHERE world_id = ? AND status = ?
		ORDER BY due_day, slot_no`, worldID, effects.QueueQueued)
	return rows, err
}

// OverdueOrders returns pending orders whose deadline is before day.
func (t *Tx) OverdueOrders(ctx context.Context, worldID string, day int) ([]world.CommandOrder, error) {
	var rows []world.CommandOrder
	err := t.tx.SelectContext(ctx, &rows, `SELECT * FROM command_orders
		WHERE world_id = ? AND status = ? AND ack_deadline_day < ?
		ORDER BY ack_deadline_day, order_id`, worldID, world.OrderPending, day)
	return rows, err
}

// OpenCaseNPCs returns the NPCs with an open court case.
func (t *Tx) OpenCaseNPCs(ctx context.Context, worldID string) (map[string]bool, error) {
	var ids []string
	if err := t.tx.SelectContext(ctx, &ids, `SELECT DISTINCT npc_id FROM court_cases
		WHERE world_id = ? AND status = 'OPEN'`, worldID); err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

// CeremonyExists reports whether the cycle's ceremony was already recorded.
func (t *Tx) CeremonyExists(ctx context.Context, worldID string, cycle int) (bool, error) {
	var n int
	err := t.tx.GetContext(ctx, &n, `SELECT COUNT(*) FROM ceremonies WHERE world_id = ? AND cycle = ?`, worldID, cycle)
	return n > 0, err
}

// CountKIASince counts KIA events after sinceDay.
func (t *Tx) CountKIASince(ctx context.Context, worldID string, sinceDay int) (int, error) {
	var n int
	err := t.tx.GetContext(ctx, &n, `SELECT COUNT(*) FROM lifecycle_events
		WHERE world_id = ? AND kind = ? AND day > ?`, worldID, effects.KindKIA, sinceDay)
	return n, err
}

// writeEffects appends every record of a batch.
func (t *Tx) writeEffects(ctx context.Context, b *effects.Batch) error {
	for _, e := range b.Lifecycle {
		meta, err := nullJSON(e.Meta)
		if err != nil {
			return fmt.Errorf("event meta: %w", err)
		}
		if _, err := t.tx.ExecContext(ctx, `INSERT INTO lifecycle_events
			(event_id, world_id, npc_id, day, kind, description, meta_json)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			e.EventID, e.WorldID, e.NpcID, e.Day, e.Kind, e.Description, meta); err != nil {
			return fmt.Errorf("lifecycle event: %w", err)
		}
	}

	for _, m := range b.Mailbox {
		if _, err := t.tx.NamedExecContext(ctx, `INSERT INTO mailbox_messages
			(message_id, world_id, day, sender, category, subject, body, related_npc_id)
			VALUES (:message_id, :world_id, :day, :sender, :category, :subject, :body, :related_npc_id)`, m); err != nil {
			return fmt.Errorf("mailbox: %w", err)
		}
	}

	for _, e := range b.Timeline {
		meta, err := nullJSON(e.Meta)
		if err != nil {
			return fmt.Errorf("timeline meta: %w", err)
		}
		if _, err := t.tx.ExecContext(ctx, `INSERT INTO timeline_events
			(event_id, world_id, day, kind, text, meta_json) VALUES (?, ?, ?, ?, ?, ?)`,
			e.EventID, e.WorldID, e.Day, e.Kind, e.Text, meta); err != nil {
			return fmt.Errorf("timeline: %w", err)
		}
	}

	for _, c := range b.CourtCases {
		if _, err := t.tx.NamedExecContext(ctx, `INSERT INTO court_cases
			(case_id, world_id, npc_id, day, reason, severity, status)
			VALUES (:case_id, :world_id, :npc_id, :day, :reason, :severity, :status)`, c); err != nil {
			return fmt.Errorf("court case: %w", err)
		}
	}

	for _, a := range b.OrderAcks {
		if _, err := t.tx.NamedExecContext(ctx, `INSERT INTO command_acks
			(ack_id, world_id, order_id, day, status)
			VALUES (:ack_id, :world_id, :order_id, :day, :status)`, a); err != nil {
			return fmt.Errorf("order ack: %w", err)
		}
	}

	for _, q := range b.Replacements {
		if _, err := t.tx.NamedExecContext(ctx, `INSERT INTO replacement_queue
			(queue_id, world_id, slot_no, old_npc_id, generation, queued_day, due_day, status, fulfilled_npc_id)
			VALUES (:queue_id, :world_id, :slot_no, :old_npc_id, :generation, :queued_day, :due_day, :status, :fulfilled_npc_id)`, q); err != nil {
			return fmt.Errorf("replacement: %w", err)
		}
	}
	for _, q := range b.Fulfilled {
		if _, err := t.tx.ExecContext(ctx, `UPDATE replacement_queue SET status = ?, fulfilled_npc_id = ?
			WHERE queue_id = ?`, q.Status, q.FulfilledNpcID, q.QueueID); err != nil {
			return fmt.Errorf("fulfil replacement: %w", err)
		}
	}

	for _, a := range b.Assignments {
		if _, err := t.tx.NamedExecContext(ctx, `INSERT INTO assignment_history
			(record_id, world_id, npc_id, day, division, unit, position, reason)
			VALUES (:record_id, :world_id, :npc_id, :day, :division, :unit, :position, :reason)`, a); err != nil {
			return fmt.Errorf("assignment: %w", err)
		}
	}

	for _, c := range b.Ceremonies {
		awards, err := json.Marshal(c.Awards)
		if err != nil {
			return fmt.Errorf("awards: %w", err)
		}
		if _, err := t.tx.ExecContext(ctx, `INSERT INTO ceremonies
			(ceremony_id, world_id, cycle, day, status, awards_json, kia_memorial_count)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			c.CeremonyID, c.WorldID, c.Cycle, c.Day, c.Status, string(awards), c.KIAMemorialCount); err != nil {
			return fmt.Errorf("ceremony: %w", err)
		}
	}
	return nil
}

// IssueOrder records a new command-chain order.
func (db *DB) IssueOrder(ctx context.Context, o world.CommandOrder) error {
	if o.Status == "" {
		o.Status = world.OrderPending
	}
	_, err := db.conn.NamedExecContext(ctx, `INSERT INTO command_orders
		(order_id, world_id, target_npc_id, title, priority, issued_day, ack_deadline_day, status)
		VALUES (:order_id, :world_id, :target_npc_id, :title, :priority, :issued_day, :ack_deadline_day, :status)`, o)
	if err != nil {
		return fmt.Errorf("issue order %s: %w", o.OrderID, err)
	}
	return nil
}

// CloseCase closes a court case.
func (db *DB) CloseCase(ctx context.Context, caseID string) error {
	_, err := db.conn.ExecContext(ctx, `UPDATE court_cases SET status = 'CLOSED' WHERE case_id = ?`, caseID)
	return err
}

// Mailbox returns a world's mailbox messages, newest first.
func (db *DB) Mailbox(ctx context.Context, worldID string, limit int) ([]effects.MailboxMessage, error) {
	var rows []effects.MailboxMessage
	err := db.conn.SelectContext(ctx, &rows, `SELECT * FROM mailbox_messages
		WHERE world_id = ? ORDER BY day DESC, rowid DESC LIMIT ?`, worldID, limit)
	return rows, err
}
