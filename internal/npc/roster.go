package npc

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"github.com/talgya/warfront/internal/scoring"
)

// Roster is the identity registry consulted when a slot needs a new occupant.
type Roster interface {
	// Recruit returns a fresh NPC for the slot and generation. The result is
	// ACTIVE, at CIVILIAN_START, with no division.
	Recruit(worldID string, slotNo, generation int) *NPC
}

// rosterSpace namespaces deterministic NPC ids.
var rosterSpace = uuid.MustParse("6f1c7c1e-3b0a-4f55-9a51-0c5e4c2f7a10")

// NameRoster generates reproducible identities from name tables. The same
// (world, slot, generation) always produces the same recruit.
type NameRoster struct{}

// NewNameRoster creates the default roster.
func NewNameRoster() *NameRoster {
	return &NameRoster{}
}

// Recruit implements Roster.
func (r *NameRoster) Recruit(worldID string, slotNo, generation int) *NPC {
	key := fmt.Sprintf("%s/%d/%d", worldID, slotNo, generation)
	rng := rand.New(rand.NewSource(int64(scoring.Seed("roster", key))))

	traits := Traits{
		Tactical:     35 + rng.Float64()*40,
		Support:      35 + rng.Float64()*40,
		Leadership:   25 + rng.Float64()*45,
		Resilience:   40 + rng.Float64()*40,
		Intelligence: 30 + rng.Float64()*45,
		Competence:   30 + rng.Float64()*40,
		Loyalty:      55 + rng.Float64()*35,
		Fatigue:      5 + rng.Float64()*20,
		Trauma:       rng.Float64() * 10,
	}
	traits.IntegrityRisk = scoring.IntegrityRisk(traits.Loyalty, traits.Competence, traits.Trauma, traits.Fatigue, 0, 0)
	traits.BetrayalRisk = scoring.BetrayalRisk(traits.Loyalty, traits.Trauma, traits.Leadership, traits.IntegrityRisk, 0)
	traits.Clamp()

	return &NPC{
		WorldID:      worldID,
		NpcID:        uuid.NewSHA1(rosterSpace, []byte(key)).String(),
		SlotNo:       slotNo,
		Generation:   generation,
		Name:         generateName(rng),
		Status:       StatusActive,
		Traits:       traits,
		StrategyMode: strategyFor(traits, rng),
		CareerStage:  StageCivilianStart,
	}
}

// strategyFor leans thoughtful recruits toward the deep academy track.
func strategyFor(t Traits, rng *rand.Rand) Strategy {
	drive := (t.Intelligence+t.Leadership)/2 + rng.Float64()*20
	switch {
	case drive >= 62:
		return StrategyDeepT3
	case drive >= 45:
		return StrategyBalancedT2
	default:
		return StrategyRushT1
	}
}

func generateName(rng *rand.Rand) string {
	firsts := maleNames
	if rng.Float32() < 0.5 {
		firsts = femaleNames
	}
	first := firsts[rng.Intn(len(firsts))]
	last := lastNames[rng.Intn(len(lastNames))]
	return first + " " + last
}

var maleNames = []string{
	"Aldric", "Bram", "Cedric", "Doran", "Erik", "Finn", "Gareth",
	"Halvard", "Ivan", "Jasper", "Kael", "Leif", "Magnus", "Nils",
	"Oswin", "Per", "Quinn", "Rowan", "Stellan", "Theron", "Ulric",
}

var femaleNames = []string{
	"Astrid", "Brenna", "Calla", "Daria", "Elara", "Freya", "Greta",
	"Helene", "Iris", "Juno", "Kira", "Lena", "Mira", "Nessa",
	"Olwen", "Petra", "Runa", "Senna", "Thea", "Una", "Vera",
}

var lastNames = []string{
	"Voss", "Thornwood", "Blackwood", "Ashford", "Ironhand", "Dunmore",
	"Greenvale", "Stormcrow", "Frostborn", "Hearthstone", "Millward",
	"Copperfield", "Ravenmoor", "Silverdale", "Wolfsbane", "Stoneheart",
}
