// Package career implements the NPC career planner: a bounded per-tick
// state machine that walks NPCs from civilian start through the academy,
// division recruitment pipelines and lateral mutation pipelines.
package career

import "github.com/talgya/warfront/internal/npc"

// AcademyTimer tracks an in-progress academy course.
type AcademyTimer struct {
	StartDay   int `json:"start_day"`
	TargetTier int `json:"target_tier"`
}

// Plan is the planner's working memory for one NPC. Plans are created on
// first visit and never deleted.
type Plan struct {
	WorldID           string        `json:"world_id"`
	NpcID             string        `json:"npc_id"`
	StrategyMode      npc.Strategy  `json:"strategy_mode"`
	CareerStage       npc.Stage     `json:"career_stage"`
	DesiredDivision   string        `json:"desired_division,omitempty"`
	TargetTier        int           `json:"target_tier"`
	NextActionDay     int           `json:"next_action_day"`
	LastActionDay     int           `json:"last_action_day"`
	LastApplicationID string        `json:"last_application_id,omitempty"`
	AcademyTimer      *AcademyTimer `json:"academy_timer,omitempty"`
}

// NewPlan derives a plan from the NPC's stored career fields.
func NewPlan(n *npc.NPC) *Plan {
	strategy := n.StrategyMode
	if strategy == "" {
		strategy = npc.StrategyRushT1
	}
	stage := n.CareerStage
	if stage == "" {
		stage = npc.StageCivilianStart
		if n.Division != "" {
			stage = npc.StageInDivision
		}
	}
	return &Plan{
		WorldID:         n.WorldID,
		NpcID:           n.NpcID,
		StrategyMode:    strategy,
		CareerStage:     stage,
		DesiredDivision: n.DesiredDivision,
		TargetTier:      strategy.Tier(),
	}
}

// academyDays is the course length to reach each tier.
func academyDays(tier int) int {
	switch {
	case tier <= 1:
		return 4
	case tier == 2:
		return 5
	default:
		return 6
	}
}
