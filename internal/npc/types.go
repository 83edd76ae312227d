// Package npc provides the NPC runtime model: lifecycle status, traits,
// progression, career fields and the identity roster used for replacements.
package npc

import "github.com/talgya/warfront/internal/scoring"

// Status is an NPC lifecycle status. KIA is terminal.
type Status string

const (
	StatusActive     Status = "ACTIVE"
	StatusInjured    Status = "INJURED"
	StatusKIA        Status = "KIA"
	StatusReserve    Status = "RESERVE"
	StatusRecruiting Status = "RECRUITING"
)

// Strategy is how aggressively an NPC climbs academy tiers.
type Strategy string

const (
	StrategyRushT1     Strategy = "RUSH_T1"
	StrategyBalancedT2 Strategy = "BALANCED_T2"
	StrategyDeepT3     Strategy = "DEEP_T3"
)

// Tier returns the academy tier the strategy aims for.
func (s Strategy) Tier() int {
	switch s {
	case StrategyDeepT3:
		return 3
	case StrategyBalancedT2:
		return 2
	default:
		return 1
	}
}

// Stage is one state of the career state machine.
type Stage string

const (
	StageCivilianStart    Stage = "CIVILIAN_START"
	StageAcademy          Stage = "ACADEMY"
	StageDivisionPipeline Stage = "DIVISION_PIPELINE"
	StageInDivision       Stage = "IN_DIVISION"
	StageMutationPipeline Stage = "MUTATION_PIPELINE"
)

// Traits are the NPC's scalar attributes, each kept in [0, 100].
type Traits struct {
	Tactical      float64 `json:"tactical"`
	Support       float64 `json:"support"`
	Leadership    float64 `json:"leadership"`
	Resilience    float64 `json:"resilience"`
	Intelligence  float64 `json:"intelligence"`
	Competence    float64 `json:"competence"`
	Loyalty       float64 `json:"loyalty"`
	IntegrityRisk float64 `json:"integrity_risk"`
	BetrayalRisk  float64 `json:"betrayal_risk"`
	Fatigue       float64 `json:"fatigue"`
	Trauma        float64 `json:"trauma"`
}

// Clamp bounds every trait to [0, 100].
func (t *Traits) Clamp() {
	for _, v := range []*float64{
		&t.Tactical, &t.Support, &t.Leadership, &t.Resilience, &t.Intelligence,
		&t.Competence, &t.Loyalty, &t.IntegrityRisk, &t.BetrayalRisk, &t.Fatigue, &t.Trauma,
	} {
		*v = scoring.Clamp100(*v)
	}
}

// NPC is the runtime state of one non-player character.
type NPC struct {
	WorldID    string `json:"world_id"`
	NpcID      string `json:"npc_id"`
	SlotNo     int    `json:"slot_no"`
	Generation int    `json:"generation"`
	Name       string `json:"name"`
	Division   string `json:"division"`
	Unit       string `json:"unit"`
	Position   string `json:"position"`

	Status Status `json:"status"`
	Traits Traits `json:"traits"`

	XP              float64 `json:"xp"`
	PromotionPoints float64 `json:"promotion_points"`
	AcademyTier     int     `json:"academy_tier"` // 0–3
	RankIndex       int     `json:"rank_index"`

	StrategyMode    Strategy `json:"strategy_mode"`
	CareerStage     Stage    `json:"career_stage"`
	DesiredDivision string   `json:"desired_division,omitempty"`

	LastTask string `json:"last_task,omitempty"`
	DeathDay *int   `json:"death_day,omitempty"`
}

// Terminal reports whether the NPC can no longer change status.
func (n *NPC) Terminal() bool {
	return n.Status == StatusKIA
}

// SetStatus moves the NPC to s. It refuses to leave KIA and reports whether
// the status changed.
func (n *NPC) SetStatus(s Status) bool {
	if n.Terminal() || n.Status == s {
		return false
	}
	n.Status = s
	return true
}

// Kill marks the NPC KIA on the given day. It reports false if already dead.
func (n *NPC) Kill(day int) bool {
	if n.Terminal() {
		return false
	}
	n.Status = StatusKIA
	d := day
	n.DeathDay = &d
	return true
}

// Clone returns a deep copy.
func (n *NPC) Clone() *NPC {
	c := *n
	if n.DeathDay != nil {
		d := *n.DeathDay
		c.DeathDay = &d
	}
	return &c
}
