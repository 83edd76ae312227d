package career

import (
	"math"

	"github.com/talgya/warfront/internal/npc"
	"github.com/talgya/warfront/internal/scoring"
)

// Weights are a division's trait preferences.
type Weights struct {
	Tactical     float64 `yaml:"tactical"`
	Support      float64 `yaml:"support"`
	Leadership   float64 `yaml:"leadership"`
	Intelligence float64 `yaml:"intelligence"`
	Resilience   float64 `yaml:"resilience"`
}

// Division is one entry of the division catalog.
type Division struct {
	Code         string  `yaml:"code"`
	Name         string  `yaml:"name"`
	Unit         string  `yaml:"unit"`
	Position     string  `yaml:"position"`
	MinTier      int     `yaml:"min_tier"`
	QuotaTotal   int     `yaml:"quota_total"`
	CooldownDays int     `yaml:"cooldown_days"`
	Weights      Weights `yaml:"weights"`
}

// Fit is the weighted trait average the division cares about, in [0, 100].
func (d Division) Fit(t npc.Traits) float64 {
	w := d.Weights
	sum := w.Tactical + w.Support + w.Leadership + w.Intelligence + w.Resilience
	if sum <= 0 {
		return (t.Tactical + t.Support + t.Leadership + t.Intelligence + t.Resilience) / 5
	}
	return (w.Tactical*t.Tactical + w.Support*t.Support + w.Leadership*t.Leadership +
		w.Intelligence*t.Intelligence + w.Resilience*t.Resilience) / sum
}

// NewQuota builds the initial quota row for a division in a world.
func (d Division) NewQuota(worldID string) *Quota {
	return &Quota{
		WorldID:      worldID,
		Division:     d.Code,
		Total:        d.QuotaTotal,
		Remaining:    d.QuotaTotal,
		Status:       QuotaOpen,
		CooldownDays: d.CooldownDays,
	}
}

// divisionScore rates how attractive a division is to an NPC on its strategy.
func divisionScore(n *npc.NPC, strategy npc.Strategy, d Division) float64 {
	bias := -math.Abs(float64(d.MinTier-strategy.Tier())) * 6
	jitter := float64(scoring.Jitter(scoring.Seed(n.WorldID, n.NpcID, d.Code), "division", 4))
	return d.Fit(n.Traits) + bias + jitter
}

// chooseDivision picks the best-scoring division. Ties go to catalog order.
func chooseDivision(n *npc.NPC, strategy npc.Strategy, divisions []Division) (Division, bool) {
	var best Division
	bestScore := math.Inf(-1)
	found := false
	for _, d := range divisions {
		if s := divisionScore(n, strategy, d); s > bestScore {
			best, bestScore, found = d, s, true
		}
	}
	return best, found
}
