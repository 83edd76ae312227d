// Package world provides the per-tenant world state owned by the tick
// procedure, and the versioned deltas it emits for the sync boundary.
package world

import (
	"time"

	"github.com/talgya/warfront/internal/npc"
)

// State is one tenant's world core row plus its player runtime row.
type State struct {
	WorldID            string     `json:"world_id"`
	StateVersion       int64      `json:"state_version"`
	LastTickAt         time.Time  `json:"last_tick_at"`
	SessionActiveUntil *time.Time `json:"session_active_until,omitempty"`
	TimeScale          int        `json:"time_scale"` // 1 or 3
	CurrentDay         int        `json:"current_day"`
	NextRaidDay        int        `json:"next_raid_day"`

	Player     Player     `json:"player"`
	Governance Governance `json:"governance"`
	Mission    *Mission   `json:"mission,omitempty"`
}

// Player holds the player's economy and standing scalars.
type Player struct {
	Money            float64 `json:"money"`
	Morale           float64 `json:"morale"` // 0–100
	Health           float64 `json:"health"` // 0–100
	RankIndex        int     `json:"rank_index"`
	Assignment       string  `json:"assignment"`
	CommandAuthority float64 `json:"command_authority"` // 0–100
}

// Governance holds the nation-level stability scalars, each 0–100.
type Governance struct {
	NationalStability float64 `json:"national_stability"`
	MilitaryStability float64 `json:"military_stability"`
	Corruption        float64 `json:"corruption"`
}

// Add applies a governance delta and keeps every scalar in [0, 100].
func (g *Governance) Add(d Governance) {
	g.NationalStability = clamp100(g.NationalStability + d.NationalStability)
	g.MilitaryStability = clamp100(g.MilitaryStability + d.MilitaryStability)
	g.Corruption = clamp100(g.Corruption + d.Corruption)
}

// IsZero reports whether the delta changes nothing.
func (g Governance) IsZero() bool {
	return g == Governance{}
}

// DangerTier grades an active mission.
type DangerTier string

const (
	DangerLow     DangerTier = "LOW"
	DangerMedium  DangerTier = "MEDIUM"
	DangerHigh    DangerTier = "HIGH"
	DangerExtreme DangerTier = "EXTREME"
)

// MissionActive is the only mission status that exerts pressure.
const MissionActive = "ACTIVE"

// Mission is the player's current mission, planned and scored elsewhere.
type Mission struct {
	MissionID string     `json:"mission_id"`
	Title     string     `json:"title"`
	Status    string     `json:"status"`
	Danger    DangerTier `json:"danger"`
}

// Pressure is the mission pressure factor applied to the world and its NPCs.
func (m *Mission) Pressure() float64 {
	if m == nil || m.Status != MissionActive {
		return 0
	}
	switch m.Danger {
	case DangerLow:
		return 1
	case DangerMedium:
		return 2
	case DangerHigh:
		return 4
	case DangerExtreme:
		return 6
	}
	return 0
}

// Order statuses.
const (
	OrderPending      = "PENDING"
	OrderAcknowledged = "ACKNOWLEDGED"
	OrderBreached     = "BREACHED"
)

// Priority of a command-chain order.
type Priority string

const (
	PriorityLow      Priority = "LOW"
	PriorityMedium   Priority = "MEDIUM"
	PriorityHigh     Priority = "HIGH"
	PriorityCritical Priority = "CRITICAL"
)

// Weight scales breach penalties.
func (p Priority) Weight() float64 {
	switch p {
	case PriorityCritical:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	default:
		return 1
	}
}

// CommandOrder is an order issued down the command chain.
type CommandOrder struct {
	OrderID        string   `json:"order_id" db:"order_id"`
	WorldID        string   `json:"world_id" db:"world_id"`
	TargetNpcID    string   `json:"target_npc_id,omitempty" db:"target_npc_id"`
	Title          string   `json:"title" db:"title"`
	Priority       Priority `json:"priority" db:"priority"`
	IssuedDay      int      `json:"issued_day" db:"issued_day"`
	AckDeadlineDay int      `json:"ack_deadline_day" db:"ack_deadline_day"`
	Status         string   `json:"status" db:"status"`
}

func clamp100(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// Snapshot is the full readable state of one world.
type Snapshot struct {
	World *State     `json:"world"`
	NPCs  []*npc.NPC `json:"npcs"`
}
