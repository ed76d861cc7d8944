// Package extrema walks a smoothed openness sequence with a hysteresis
// state machine and labels alternating blink extrema: peaks (open events)
// and valleys (closed events).
package extrema

import (
	"sort"

	"github.com/ocumetry/eyelid/internal/domain/smoothing"
)

// Fixed labeling parameters. The thresholds are the calibration pipeline's
// own contract and are independent of any user-adjustable display thresholds.
const (
	DefaultOpenThreshold  = 0.8
	DefaultCloseThreshold = 0.2

	// minRun is the number of consecutive samples beyond a threshold
	// required before a state transition commits. Shorter excursions are
	// treated as noise.
	minRun = 3
)

// segment states.
type state int

const (
	stateClosed state = iota
	stateOpen
)

// Label smooths raw and returns the indices of labeled peaks and valleys.
// Both slices index into the smoothed sequence (which has the same length
// as raw). Empty input yields empty results.
//
// After post-processing the merged, sorted extrema alternate and every
// valley precedes the peak that follows it; a leading unpaired peak and a
// trailing unpaired valley are dropped.
func Label(raw []float64, openTh, closeTh float64) (peaks, valleys []int) {
	peaks, valleys = []int{}, []int{}

	smooth := smoothing.Smooth(raw)
	if len(smooth) == 0 {
		return peaks, valleys
	}

	mid := (openTh + closeTh) / 2
	st := stateClosed
	if smooth[0] >= mid {
		st = stateOpen
	}

	segStart := 0
	overRun, underRun := 0, 0

	for i := 0; i < len(smooth); i++ {
		switch st {
		case stateClosed:
			if smooth[i] >= openTh {
				overRun++
			} else {
				overRun = 0
			}
			if overRun == minRun {
				valleys = append(valleys, plateauMin(smooth, segStart, i-minRun))
				st = stateOpen
				segStart = i - minRun + 1
				overRun, underRun = 0, 0
			}
		case stateOpen:
			if smooth[i] <= closeTh {
				underRun++
			} else {
				underRun = 0
			}
			if underRun == minRun {
				peaks = append(peaks, plateauMax(smooth, segStart, i-minRun))
				st = stateClosed
				segStart = i - minRun + 1
				overRun, underRun = 0, 0
			}
		}
	}

	// The run always ends inside an open segment; finalize it.
	if st == stateOpen {
		peaks = append(peaks, plateauMax(smooth, segStart, len(smooth)-1))
	} else {
		valleys = append(valleys, plateauMin(smooth, segStart, len(smooth)-1))
	}

	// Enforce valley-peak-valley pairing at the boundaries.
	if len(peaks) > 0 && len(valleys) > 0 && peaks[0] < valleys[0] {
		peaks = peaks[1:]
	}
	if len(peaks) > 0 && len(valleys) > 0 && valleys[len(valleys)-1] > peaks[len(peaks)-1] {
		valleys = valleys[:len(valleys)-1]
	}

	return peaks, valleys
}

// plateauMin returns the middle index of the plateau of minimum values in
// s[a..b] (inclusive). The midpoint tie-break gives a reproducible extremum
// location when several samples tie.
func plateauMin(s []float64, a, b int) int {
	best := s[a]
	for i := a + 1; i <= b; i++ {
		if s[i] < best {
			best = s[i]
		}
	}
	plateau := make([]int, 0, 4)
	for i := a; i <= b; i++ {
		if s[i] == best {
			plateau = append(plateau, i)
		}
	}
	return plateau[len(plateau)/2]
}

// plateauMax is the mirror of plateauMin for maxima.
func plateauMax(s []float64, a, b int) int {
	best := s[a]
	for i := a + 1; i <= b; i++ {
		if s[i] > best {
			best = s[i]
		}
	}
	plateau := make([]int, 0, 4)
	for i := a; i <= b; i++ {
		if s[i] == best {
			plateau = append(plateau, i)
		}
	}
	return plateau[len(plateau)/2]
}

// OrderingSigns builds the per-adjacent-pair expected-direction array for a
// sequence of length n. Position j covers the pair (j, j+1): +1 inside a
// valley-to-peak interval (expected rise), -1 inside a peak-to-valley
// interval (expected fall), 0 outside any extrema-bounded interval.
func OrderingSigns(n int, peaks, valleys []int) []int {
	if n <= 1 {
		return []int{}
	}
	signs := make([]int, n-1)

	type extremum struct {
		idx  int
		peak bool
	}
	merged := make([]extremum, 0, len(peaks)+len(valleys))
	for _, p := range peaks {
		merged = append(merged, extremum{idx: p, peak: true})
	}
	for _, v := range valleys {
		merged = append(merged, extremum{idx: v, peak: false})
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].idx < merged[j].idx })

	for k := 0; k+1 < len(merged); k++ {
		sign := 1
		if merged[k].peak {
			sign = -1
		}
		for j := merged[k].idx; j < merged[k+1].idx && j < n-1; j++ {
			if j >= 0 {
				signs[j] = sign
			}
		}
	}
	return signs
}
