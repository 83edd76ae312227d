package engine

import (
	"github.com/talgya/warfront/internal/scoring"
	"github.com/talgya/warfront/internal/world"
)

// applyEconomy advances the player's scalars by gain days in closed form.
// Pay rises with rank; upkeep, morale drain and wear rise with mission pressure.
func applyEconomy(p *world.Player, gain int, pressure float64) {
	g := float64(gain)
	rank := float64(p.RankIndex)

	salary := 120 + rank*35
	upkeep := 45 + pressure*15
	p.Money += g * (salary - upkeep)

	// Morale relaxes toward 60 and is drained by pressure.
	p.Morale = scoring.Clamp100(p.Morale + g*((60-p.Morale)*0.05-pressure*0.9))
	p.Health = scoring.Clamp100(p.Health + g*(1.5-pressure*1.1))
	p.CommandAuthority = scoring.Clamp100(p.CommandAuthority + g*(0.3+rank*0.05-pressure*0.35))
}
