// Awards ceremonies.
package engine

import (
	"sort"

	"github.com/talgya/warfront/internal/effects"
	"github.com/talgya/warfront/internal/npc"
)

// CeremonyCycleDays is the length of one ceremony cycle.
const CeremonyCycleDays = 15

const ceremonyAwards = 5

func ceremonyScore(n *npc.NPC) float64 {
	return n.PromotionPoints + n.Traits.Leadership + n.Traits.Resilience - n.Traits.Fatigue
}

// ceremonyCycle records the pending ceremony for the current cycle once.
func (s *tickState) ceremonyCycle() {
	cycle := s.day / CeremonyCycleDays
	if cycle <= 0 || s.frame.CeremonyExists {
		return
	}

	var living []*npc.NPC
	for _, n := range s.npcs {
		if !n.Terminal() {
			living = append(living, n)
		}
	}
	sort.SliceStable(living, func(i, j int) bool {
		si, sj := ceremonyScore(living[i]), ceremonyScore(living[j])
		if si != sj {
			return si > sj
		}
		return living[i].NpcID < living[j].NpcID
	})
	if len(living) > ceremonyAwards {
		living = living[:ceremonyAwards]
	}

	awards := make([]effects.Award, len(living))
	for i, n := range living {
		awards[i] = effects.Award{NpcID: n.NpcID, Name: n.Name, Score: ceremonyScore(n), Place: i + 1}
	}
	c := s.batch.Ceremony(cycle, awards, s.frame.RecentKIA+s.kiaToday)
	s.ceremony = &c
}
