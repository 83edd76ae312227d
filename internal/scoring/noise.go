package scoring

import "github.com/talgya/warfront/internal/entropy"

const (
	// DefaultNoiseProbability is the chance that a draw is non-zero.
	DefaultNoiseProbability = 0.15
	// DefaultNoiseMagnitude bounds the absolute value of a non-zero draw.
	DefaultNoiseMagnitude = 4.0
)

// Noise injects small perturbations. A draw is zero most of the time and
// never exceeds Magnitude, so it can tip a close call but cannot carry an
// outcome on its own.
type Noise struct {
	Src         entropy.Source
	Probability float64
	Magnitude   float64
}

// NewNoise creates a Noise with the default probability and magnitude.
func NewNoise(src entropy.Source) Noise {
	return Noise{Src: src, Probability: DefaultNoiseProbability, Magnitude: DefaultNoiseMagnitude}
}

// Draw returns 0 or a value in [-Magnitude, Magnitude].
func (n Noise) Draw() float64 {
	if n.Src == nil || n.Probability <= 0 {
		return 0
	}
	if n.Src.Float() >= n.Probability {
		return 0
	}
	return (n.Src.Float()*2 - 1) * n.Magnitude
}
