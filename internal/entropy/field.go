package entropy

import (
	"math"
	"sync"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// Field is a Source that walks a normalized simplex noise plane. Raw samples
// bunch around 0.5, so Float folds the fine digits of each sample back into
// [0, 1) to keep draws uniform.
type Field struct {
	mu    sync.Mutex
	noise opensimplex.Noise
	x, y  float64
	step  float64
}

// NewField creates a Field seeded for one process.
func NewField(seed int64) *Field {
	return &Field{
		noise: opensimplex.NewNormalized(seed),
		step:  0.618,
	}
}

// Float returns the next sample in [0, 1).
func (f *Field) Float() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	v := octaveNoise(f.noise, f.x, f.y, 3, 1.0, 0.5) * 1e4
	f.x += f.step
	f.y += f.step * 0.5
	return v - math.Floor(v)
}

// At samples the plane at an explicit coordinate without advancing the walk.
func (f *Field) At(x, y float64) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return octaveNoise(f.noise, x, y, 3, 1.0, 0.5)
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}
