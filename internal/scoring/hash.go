// Package scoring holds the deterministic math behind NPC decisions: a
// stable string-keyed seed, a small-probability noise injector, task
// utilities and the risk formulas used by the world tick.
package scoring

import (
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Seed hashes the parts into a reproducible 32-bit value. The same parts
// always yield the same seed across processes and releases.
func Seed(parts ...string) uint32 {
	h := xxhash.Sum64String(strings.Join(parts, "|"))
	return uint32(h ^ (h >> 32))
}

// SeedFor is the per-(world, npc, day) seed used by the tick.
func SeedFor(worldID, npcID string, day int) uint32 {
	return Seed(worldID, npcID, strconv.Itoa(day))
}

// Unit maps a seed and salt to [0, 1).
func Unit(seed uint32, salt string) float64 {
	h := Seed(strconv.FormatUint(uint64(seed), 10), salt)
	return float64(h%10000) / 10000
}

// Jitter maps a seed and salt to an integer in [-span, span].
func Jitter(seed uint32, salt string, span int) int {
	if span <= 0 {
		return 0
	}
	h := Seed(strconv.FormatUint(uint64(seed), 10), salt)
	return int(h%uint32(2*span+1)) - span
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clamp100 bounds v to the trait range [0, 100].
func Clamp100(v float64) float64 {
	return Clamp(v, 0, 100)
}
