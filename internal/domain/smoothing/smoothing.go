// Package smoothing implements the zero-phase filter used to denoise
// predicted openness sequences.
//
// The filter is a median pass followed by a forward and a backward
// exponential moving average whose outputs are averaged. The median pass
// removes spike noise; averaging the causal and anti-causal EMA cancels the
// phase lag a causal-only EMA would introduce, which matters because the
// extrema labeling downstream is sensitive to shifted blink edges.
package smoothing

import "sort"

// Default filter parameters.
const (
	defaultMedianWindow = 5
	defaultAlpha        = 0.35
)

// Option applies a configuration option to the filter.
type Option func(*filter)

// WithMedianWindow sets the median window size. Values < 1 or even values
// are ignored.
func WithMedianWindow(w int) Option {
	return func(f *filter) {
		if w >= 1 && w%2 == 1 {
			f.medianWindow = w
		}
	}
}

// WithAlpha sets the EMA smoothing factor. Values outside (0, 1] are ignored.
func WithAlpha(a float64) Option {
	return func(f *filter) {
		if a > 0 && a <= 1 {
			f.alpha = a
		}
	}
}

type filter struct {
	medianWindow int
	alpha        float64
}

// Smooth filters in and returns a new slice of the same length with every
// value clamped to [0, 1]. Empty input yields empty output. The input is not
// modified.
func Smooth(in []float64, opts ...Option) []float64 {
	f := &filter{
		medianWindow: defaultMedianWindow,
		alpha:        defaultAlpha,
	}
	for _, opt := range opts {
		opt(f)
	}

	n := len(in)
	if n == 0 {
		return []float64{}
	}

	med := medianPass(in, f.medianWindow)

	fwd := make([]float64, n)
	fwd[0] = med[0]
	for i := 1; i < n; i++ {
		fwd[i] = f.alpha*med[i] + (1-f.alpha)*fwd[i-1]
	}

	bwd := make([]float64, n)
	bwd[n-1] = med[n-1]
	for i := n - 2; i >= 0; i-- {
		bwd[i] = f.alpha*med[i] + (1-f.alpha)*bwd[i+1]
	}

	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = Clamp((fwd[i] + bwd[i]) / 2)
	}
	return out
}

// medianPass computes a running median with a window truncated at both ends
// of the sequence. Even-length edge windows use the mean of the two central
// values.
func medianPass(in []float64, window int) []float64 {
	n := len(in)
	half := window / 2
	out := make([]float64, n)
	buf := make([]float64, 0, window)

	for i := 0; i < n; i++ {
		lo := i - half
		if lo < 0 {
			lo = 0
		}
		hi := i + half + 1
		if hi > n {
			hi = n
		}

		buf = append(buf[:0], in[lo:hi]...)
		sort.Float64s(buf)

		m := len(buf)
		if m%2 == 1 {
			out[i] = buf[m/2]
		} else {
			out[i] = (buf[m/2-1] + buf[m/2]) / 2
		}
	}
	return out
}

// Clamp limits v to [0, 1].
func Clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
