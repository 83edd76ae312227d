// Package effects holds the append-only side-effect records a world tick
// produces. The tick collects them into a Batch and returns it; the store
// writes the batch in the same transaction as the state it describes.
package effects

import "github.com/google/uuid"

// Kind classifies a lifecycle event.
type Kind string

const (
	KindPromotion         Kind = "PROMOTION"
	KindDemotion          Kind = "DEMOTION"
	KindDisciplinary      Kind = "DISCIPLINARY"
	KindRecovery          Kind = "RECOVERY"
	KindKIA               Kind = "KIA"
	KindReplacementJoined Kind = "REPLACEMENT_JOINED"
	KindAcademyPass       Kind = "ACADEMY_PASS"
	KindPipeline          Kind = "PIPELINE"
	KindAssignment        Kind = "ASSIGNMENT"
	KindRename            Kind = "RENAME"
	KindCareer            Kind = "CAREER"
)

// LifecycleEvent is a fact about one NPC on one day.
type LifecycleEvent struct {
	EventID     string         `json:"event_id" db:"event_id"`
	WorldID     string         `json:"world_id" db:"world_id"`
	NpcID       string         `json:"npc_id" db:"npc_id"`
	Day         int            `json:"day" db:"day"`
	Kind        Kind           `json:"kind" db:"kind"`
	Description string         `json:"description" db:"description"`
	Meta        map[string]any `json:"meta,omitempty" db:"-"`
}

// MailboxMessage is a notice delivered to the player's mailbox.
type MailboxMessage struct {
	MessageID    string `json:"message_id" db:"message_id"`
	WorldID      string `json:"world_id" db:"world_id"`
	Day          int    `json:"day" db:"day"`
	Sender       string `json:"sender" db:"sender"`
	Category     string `json:"category" db:"category"`
	Subject      string `json:"subject" db:"subject"`
	Body         string `json:"body" db:"body"`
	RelatedNpcID string `json:"related_npc_id,omitempty" db:"related_npc_id"`
}

// TimelineEvent is an entry on the world's social timeline.
type TimelineEvent struct {
	EventID string         `json:"event_id" db:"event_id"`
	WorldID string         `json:"world_id" db:"world_id"`
	Day     int            `json:"day" db:"day"`
	Kind    string         `json:"kind" db:"kind"`
	Text    string         `json:"text" db:"text"`
	Meta    map[string]any `json:"meta,omitempty" db:"-"`
}

// CourtCase is a case opened against an NPC.
type CourtCase struct {
	CaseID   string `json:"case_id" db:"case_id"`
	WorldID  string `json:"world_id" db:"world_id"`
	NpcID    string `json:"npc_id" db:"npc_id"`
	Day      int    `json:"day" db:"day"`
	Reason   string `json:"reason" db:"reason"`
	Severity int    `json:"severity" db:"severity"`
	Status   string `json:"status" db:"status"`
}

// OrderAck records the resolution of a command-chain order.
type OrderAck struct {
	AckID   string `json:"ack_id" db:"ack_id"`
	WorldID string `json:"world_id" db:"world_id"`
	OrderID string `json:"order_id" db:"order_id"`
	Day     int    `json:"day" db:"day"`
	Status  string `json:"status" db:"status"`
}

// Replacement queue statuses.
const (
	QueueQueued    = "QUEUED"
	QueueFulfilled = "FULFILLED"
)

// ReplacementQueueItem schedules a new generation for a slot whose occupant died.
type ReplacementQueueItem struct {
	QueueID        string `json:"queue_id" db:"queue_id"`
	WorldID        string `json:"world_id" db:"world_id"`
	SlotNo         int    `json:"slot_no" db:"slot_no"`
	OldNpcID       string `json:"old_npc_id" db:"old_npc_id"`
	Generation     int    `json:"generation" db:"generation"`
	QueuedDay      int    `json:"queued_day" db:"queued_day"`
	DueDay         int    `json:"due_day" db:"due_day"`
	Status         string `json:"status" db:"status"`
	FulfilledNpcID string `json:"fulfilled_npc_id,omitempty" db:"fulfilled_npc_id"`
}

// AssignmentHistory records an NPC moving into a division.
type AssignmentHistory struct {
	RecordID string `json:"record_id" db:"record_id"`
	WorldID  string `json:"world_id" db:"world_id"`
	NpcID    string `json:"npc_id" db:"npc_id"`
	Day      int    `json:"day" db:"day"`
	Division string `json:"division" db:"division"`
	Unit     string `json:"unit" db:"unit"`
	Position string `json:"position" db:"position"`
	Reason   string `json:"reason" db:"reason"`
}

// Award is one honoree of a ceremony.
type Award struct {
	NpcID string  `json:"npc_id"`
	Name  string  `json:"name"`
	Score float64 `json:"score"`
	Place int     `json:"place"`
}

// Ceremony is a pending awards ceremony for one 15-day cycle.
type Ceremony struct {
	CeremonyID       string  `json:"ceremony_id"`
	WorldID          string  `json:"world_id"`
	Cycle            int     `json:"cycle"`
	Day              int     `json:"day"`
	Status           string  `json:"status"`
	Awards           []Award `json:"awards"`
	KIAMemorialCount int     `json:"kia_memorial_count"`
}

func newID() string {
	return uuid.NewString()
}
