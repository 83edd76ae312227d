// Raider attacks.
package engine

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/talgya/warfront/internal/npc"
	"github.com/talgya/warfront/internal/scoring"
)

const maxRaidCasualties = 4

// averageRisk is the mean conduct risk of the living population.
func averageRisk(npcs []*npc.NPC) float64 {
	var sum float64
	var count int
	for _, n := range npcs {
		if n.Terminal() {
			continue
		}
		sum += (n.Traits.IntegrityRisk + n.Traits.BetrayalRisk) / 2
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// raidCadence is the number of days until the next attack. Unstable worlds
// are hit more often.
func raidCadence(threat float64) int {
	c := 14 - int(threat/10)
	if c < 3 {
		return 3
	}
	return c
}

// raidCasualties is 1–4, weighted toward higher threat.
func raidCasualties(threat float64, seed uint32) int {
	c := 1 + int(threat/30)
	if threat >= 50 && seed%2 == 1 {
		c++
	}
	if c > maxRaidCasualties {
		return maxRaidCasualties
	}
	return c
}

// exposure ranks who falls first in a raid.
func exposure(n *npc.NPC) float64 {
	return n.Traits.Fatigue*0.45 + n.Traits.Trauma*0.45 - n.Traits.Resilience*0.3
}

// raid fires a raider attack when the scheduled day has arrived.
func (s *tickState) raid() {
	w := s.world
	gov := w.Governance
	gov.Add(s.gov)
	threat := scoring.RaiderThreat(gov.NationalStability, gov.MilitaryStability, gov.Corruption, averageRisk(s.npcs))

	if w.NextRaidDay <= 0 {
		w.NextRaidDay = s.day + raidCadence(threat)
		return
	}
	if s.day < w.NextRaidDay {
		return
	}

	var living []*npc.NPC
	for _, n := range s.npcs {
		if !n.Terminal() {
			living = append(living, n)
		}
	}
	sort.SliceStable(living, func(i, j int) bool {
		ei, ej := exposure(living[i]), exposure(living[j])
		if ei != ej {
			return ei > ej
		}
		return living[i].NpcID < living[j].NpcID
	})

	seed := scoring.Seed(w.WorldID, "raid", fmt.Sprint(s.day))
	want := raidCasualties(threat, seed)
	killed := 0
	for _, n := range living {
		if killed == want {
			break
		}
		if s.kill(n, "RAID", int(scoring.Seed(n.NpcID, "raid-replacement")%6)+2, map[string]any{"threat": threat}) {
			killed++
		}
	}

	c := float64(killed)
	p := &w.Player
	p.Morale = scoring.Clamp100(p.Morale - 3*c)
	p.Health = scoring.Clamp100(p.Health - 2*c)
	p.CommandAuthority = scoring.Clamp100(p.CommandAuthority - 1.5*c)
	s.gov.MilitaryStability -= 1.2 * c
	s.gov.NationalStability -= 0.6 * c

	cadence := raidCadence(threat)
	w.NextRaidDay = s.day + cadence

	s.batch.Mail("RAID", "Raider attack",
		fmt.Sprintf("Raiders struck on day %d. %d personnel lost. Next attack expected in %d days.", s.day, killed, cadence), "")
	s.batch.Post("RAID", fmt.Sprintf("Raider attack: %d lost", killed),
		map[string]any{"threat": threat, "casualties": killed, "cadence_days": cadence, "next_raid_day": w.NextRaidDay})

	slog.Info("raider attack",
		"world", w.WorldID,
		"day", s.day,
		"threat", fmt.Sprintf("%.1f", threat),
		"casualties", killed,
		"next_raid_day", w.NextRaidDay,
	)
}
