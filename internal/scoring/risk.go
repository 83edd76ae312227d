package scoring

import "math"

// InjuryRisk scores how likely an NPC is to be injured this tick.
func InjuryRisk(fatigue, trauma, missionPressure float64, seed uint32, noise float64) float64 {
	return (fatigue + trauma + missionPressure*4 + float64(seed%9) + noise) / 2
}

// KIARisk scores how likely an NPC is to be killed this tick.
func KIARisk(fatigue, trauma, missionPressure float64, seed uint32, noise float64) float64 {
	return fatigue*0.3 + trauma*0.35 + missionPressure*5 + float64(seed%11) + noise
}

// IntegrityRisk recomputes the integrity risk trait.
func IntegrityRisk(loyalty, competence, trauma, fatigue, corruption, noise float64) float64 {
	return Clamp100(65 - loyalty*0.45 - competence*0.15 + trauma*0.35 + fatigue*0.1 + corruption*0.2 + noise)
}

// BetrayalRisk recomputes the betrayal risk trait from the fresh integrity risk.
func BetrayalRisk(loyalty, trauma, leadership, integrityRisk, noise float64) float64 {
	return Clamp100((100-loyalty)*0.6 + trauma*0.25 + integrityRisk*0.15 - leadership*0.05 + noise)
}

// RaiderThreat scores a world's exposure to raider attacks, in [0, 100].
func RaiderThreat(nationalStability, militaryStability, corruption, avgNPCRisk float64) float64 {
	return Clamp100((100-nationalStability)*0.3 + (100-militaryStability)*0.3 + corruption*0.25 + avgNPCRisk*0.15)
}

// RankIndex derives the rank from weighted career progress, in [0, 9].
func RankIndex(xp, promotionPoints float64, academyTier int, leadership float64) int {
	progress := xp*0.02 + promotionPoints*0.35 + float64(academyTier)*10 + leadership*0.15
	idx := int(math.Floor(progress / 20))
	if idx < 0 {
		return 0
	}
	if idx > 9 {
		return 9
	}
	return idx
}
