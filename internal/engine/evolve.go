package engine

import (
	"fmt"

	"github.com/talgya/warfront/internal/effects"
	"github.com/talgya/warfront/internal/npc"
	"github.com/talgya/warfront/internal/scoring"
)

// Status thresholds.
const (
	injuryThreshold    = 75
	kiaThreshold       = 72
	recoveryFatigueMax = 45
	recoveryTraumaMax  = 35
	betrayalCaseAt     = 85
	integrityCaseAt    = 88
)

// taskEffect is the per-day change a task applies.
type taskEffect struct {
	xp, points                                        float64
	tactical, support, leadership, intelligence, comp float64
	fatigue, trauma                                   float64
}

var taskEffects = map[scoring.Task]taskEffect{
	scoring.TaskTraining:       {xp: 6, points: 2, tactical: 1.2, comp: 0.4, fatigue: 5},
	scoring.TaskPatrol:         {xp: 5, points: 3, tactical: 0.8, leadership: 0.2, fatigue: 6, trauma: 1.5},
	scoring.TaskLogistics:      {xp: 4, points: 2, support: 1.0, comp: 0.8, fatigue: 3},
	scoring.TaskMedicalSupport: {xp: 4, points: 2, support: 1.2, intelligence: 0.2, fatigue: 2, trauma: -2},
	scoring.TaskIntelReview:    {xp: 4, points: 2, intelligence: 1.0, comp: 0.3, fatigue: 2},
	scoring.TaskAcademyDrill:   {xp: 5, points: 1, leadership: 0.8, comp: 0.5, fatigue: 3},
}

// evolveAll runs the daily routine for every living NPC.
func (s *tickState) evolveAll(noise scoring.Noise) {
	for _, n := range s.npcs {
		if n.Terminal() {
			continue
		}
		seed := scoring.SeedFor(s.world.WorldID, n.NpcID, s.day)
		s.evolve(n, seed, noise.Draw())
		s.touch(n)
	}
}

// evolve applies one NPC's task, trait drift, rank and risk resolution.
func (s *tickState) evolve(n *npc.NPC, seed uint32, noise float64) {
	g := float64(s.gain)
	t := &n.Traits

	switch n.Status {
	case npc.StatusActive:
		task := scoring.SelectTask(scoring.TaskInputs{
			Tactical:     t.Tactical,
			Support:      t.Support,
			Leadership:   t.Leadership,
			Resilience:   t.Resilience,
			Intelligence: t.Intelligence,
			Competence:   t.Competence,
			Fatigue:      t.Fatigue,
			Trauma:       t.Trauma,
			RiskPenalty:  (t.IntegrityRisk+t.BetrayalRisk)/50 + noise*0.1,
		}, seed)
		e := taskEffects[task]
		n.LastTask = string(task)
		n.XP += e.xp * g
		n.PromotionPoints += e.points * g
		t.Tactical += e.tactical * g
		t.Support += e.support * g
		t.Leadership += e.leadership * g
		t.Intelligence += e.intelligence * g
		t.Competence += e.comp * g
		t.Fatigue += (e.fatigue - 4) * g
		t.Trauma += (e.trauma + s.pressure*0.8 - 0.5) * g
	case npc.StatusInjured:
		n.LastTask = "recovery"
		t.Fatigue -= 10 * g
		t.Trauma -= 6 * g
	default:
		n.LastTask = "standby"
		t.Fatigue -= 6 * g
		t.Trauma -= 1 * g
	}

	t.Loyalty += g * (s.world.Player.Morale - 50) / 100
	t.Clamp()
	t.IntegrityRisk = scoring.IntegrityRisk(t.Loyalty, t.Competence, t.Trauma, t.Fatigue, s.world.Governance.Corruption, noise)
	t.BetrayalRisk = scoring.BetrayalRisk(t.Loyalty, t.Trauma, t.Leadership, t.IntegrityRisk, noise)

	if rank := scoring.RankIndex(n.XP, n.PromotionPoints, n.AcademyTier, t.Leadership); rank != n.RankIndex {
		kind := effects.KindPromotion
		if rank < n.RankIndex {
			kind = effects.KindDemotion
		}
		s.batch.Event(n.NpcID, kind, fmt.Sprintf("%s moves from rank %d to %d", n.Name, n.RankIndex, rank),
			map[string]any{"from": n.RankIndex, "to": rank})
		n.RankIndex = rank
	}

	injury := scoring.InjuryRisk(t.Fatigue, t.Trauma, s.pressure, seed, noise)
	kia := scoring.KIARisk(t.Fatigue, t.Trauma, s.pressure, seed, noise)
	s.resolveHealth(n, injury, kia, seed)
	s.checkConduct(n)
}

// resolveHealth applies the status transitions implied by the risk scores.
func (s *tickState) resolveHealth(n *npc.NPC, injuryRisk, kiaRisk float64, seed uint32) {
	switch {
	case kiaRisk >= kiaThreshold:
		s.kill(n, "DUTY", int(seed%6)+2, map[string]any{"kia_risk": kiaRisk})
	case n.Status == npc.StatusActive && injuryRisk >= injuryThreshold:
		n.SetStatus(npc.StatusInjured)
		s.batch.Event(n.NpcID, effects.KindDisciplinary, n.Name+" is injured and stood down",
			map[string]any{"type": "INJURY", "injury_risk": injuryRisk})
	case n.Status == npc.StatusInjured && n.Traits.Fatigue <= recoveryFatigueMax && n.Traits.Trauma <= recoveryTraumaMax:
		n.SetStatus(npc.StatusActive)
		s.batch.Event(n.NpcID, effects.KindRecovery, n.Name+" returns to active duty", nil)
	}
}

// checkConduct opens a court case when an NPC's risk crosses the line.
func (s *tickState) checkConduct(n *npc.NPC) {
	if n.Terminal() || s.openCases[n.NpcID] {
		return
	}
	t := n.Traits
	if t.BetrayalRisk < betrayalCaseAt && t.IntegrityRisk < integrityCaseAt {
		return
	}
	reason := "INTEGRITY"
	if t.BetrayalRisk >= betrayalCaseAt {
		reason = "BETRAYAL"
	}
	s.batch.OpenCase(n.NpcID, reason, int(max(t.BetrayalRisk, t.IntegrityRisk)/20))
	s.openCases[n.NpcID] = true
	s.batch.Mail("COURT", "Court case opened",
		fmt.Sprintf("A %s case has been opened against %s.", reason, n.Name), n.NpcID)
}
