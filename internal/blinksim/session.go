package blinksim

import (
	"math/rand"
)

// Residual levels the simulated gaze encoder settles at. The encoder
// residual is large while the eyes are closed and near zero while open.
const (
	closedLevel = 0.92
	openLevel   = 0.08
)

// signalSource synthesizes plausible encoder residual samples.
type signalSource struct {
	rng   *rand.Rand
	noise float64
	ts    int64
}

func newSignalSource(seed int64, noise float64) *signalSource {
	return &signalSource{rng: rand.New(rand.NewSource(seed)), noise: noise}
}

// next produces one 3-D residual sample around the given level with a
// strictly increasing timestamp.
func (s *signalSource) next(level float64) ([3]float64, int64) {
	s.ts++
	jitter := func() float64 { return (s.rng.Float64()*2 - 1) * s.noise }
	return [3]float64{
		level + jitter(),
		level*0.8 + jitter(),
		level*0.6 + jitter(),
	}, s.ts
}

// staringLevels produces n samples at one level.
func (s *signalSource) staringLevels(level float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = level
	}
	return out
}

// blinkLevels produces the level sequence for a blink phase: cycles of
// closed then open half-periods.
func (s *signalSource) blinkLevels(cycles, perHalf int) []float64 {
	out := make([]float64, 0, cycles*perHalf*2)
	for c := 0; c < cycles; c++ {
		for i := 0; i < perHalf; i++ {
			out = append(out, closedLevel)
		}
		for i := 0; i < perHalf; i++ {
			out = append(out, openLevel)
		}
	}
	return out
}
