package extrema_test

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/ocumetry/eyelid/internal/domain/extrema"
	. "github.com/smartystreets/goconvey/convey"
)

// squareWave builds a sequence of alternating low/high runs, starting low.
func squareWave(length, runLen int) []float64 {
	out := make([]float64, length)
	for i := range out {
		if (i/runLen)%2 == 1 {
			out[i] = 1.0
		}
	}
	return out
}

// alternates verifies that merged peaks and valleys strictly alternate and
// start with a valley when both lists are populated.
func alternates(peaks, valleys []int) bool {
	type tagged struct {
		idx  int
		peak bool
	}
	merged := make([]tagged, 0, len(peaks)+len(valleys))
	for _, p := range peaks {
		merged = append(merged, tagged{p, true})
	}
	for _, v := range valleys {
		merged = append(merged, tagged{v, false})
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].idx < merged[j].idx })

	if len(peaks) > 0 && len(valleys) > 0 {
		if merged[0].peak {
			return false // leading unmatched peak
		}
		if !merged[len(merged)-1].peak {
			return false // trailing unmatched valley
		}
	}
	for i := 1; i < len(merged); i++ {
		if merged[i].peak == merged[i-1].peak {
			return false
		}
	}
	return true
}

func TestLabel(t *testing.T) {
	Convey("Given the hysteresis extrema labeler", t, func() {
		openTh := extrema.DefaultOpenThreshold
		closeTh := extrema.DefaultCloseThreshold

		Convey("When the input is empty", func() {
			peaks, valleys := extrema.Label(nil, openTh, closeTh)

			Convey("Then both lists are empty", func() {
				So(peaks, ShouldBeEmpty)
				So(valleys, ShouldBeEmpty)
			})
		})

		Convey("When labeling five clean blink cycles", func() {
			// 100 samples, runs of 10: closed, open, ... ending open.
			wave := squareWave(100, 10)
			peaks, valleys := extrema.Label(wave, openTh, closeTh)

			Convey("Then exactly five peaks and five valleys are found", func() {
				So(peaks, ShouldHaveLength, 5)
				So(valleys, ShouldHaveLength, 5)
			})

			Convey("And they alternate with each valley preceding its peak", func() {
				So(alternates(peaks, valleys), ShouldBeTrue)
				for i := range peaks {
					So(valleys[i], ShouldBeLessThan, peaks[i])
				}
			})

			Convey("And each extremum sits inside its own run", func() {
				for i, v := range valleys {
					So(v, ShouldBeBetweenOrEqual, i*20, i*20+9)
				}
				for i, p := range peaks {
					So(p, ShouldBeBetweenOrEqual, i*20+10, i*20+19)
				}
			})
		})

		Convey("When labeling a sequence that never crosses the thresholds", func() {
			flat := make([]float64, 50)
			for i := range flat {
				flat[i] = 0.5
			}
			peaks, valleys := extrema.Label(flat, openTh, closeTh)

			Convey("Then the single open segment yields no usable pairing", func() {
				// One trailing extremum at most; alternation still holds.
				So(alternates(peaks, valleys), ShouldBeTrue)
			})
		})

		Convey("When labeling random noise", func() {
			rng := rand.New(rand.NewSource(11))
			for trial := 0; trial < 20; trial++ {
				noisy := make([]float64, 80)
				for i := range noisy {
					noisy[i] = rng.Float64()
				}
				peaks, valleys := extrema.Label(noisy, openTh, closeTh)

				So(alternates(peaks, valleys), ShouldBeTrue)
			}
		})

		Convey("When single-sample spikes are injected into clean cycles", func() {
			clean := squareWave(100, 10)
			spiked := append([]float64(nil), clean...)
			for _, idx := range []int{3, 17, 42, 66, 88} {
				spiked[idx] = 1.0 - spiked[idx]
			}

			basePeaks, baseValleys := extrema.Label(clean, openTh, closeTh)
			gotPeaks, gotValleys := extrema.Label(spiked, openTh, closeTh)

			Convey("Then the extrema counts are unchanged", func() {
				So(gotPeaks, ShouldHaveLength, len(basePeaks))
				So(gotValleys, ShouldHaveLength, len(baseValleys))
			})

			Convey("And no extremum moves by more than two samples", func() {
				for i := range basePeaks {
					So(gotPeaks[i], ShouldBeBetweenOrEqual, basePeaks[i]-2, basePeaks[i]+2)
				}
				for i := range baseValleys {
					So(gotValleys[i], ShouldBeBetweenOrEqual, baseValleys[i]-2, baseValleys[i]+2)
				}
			})
		})
	})
}

func TestOrderingSigns(t *testing.T) {
	Convey("Given the ordering-sign construction", t, func() {
		Convey("When building signs for a rise-then-fall structure", func() {
			signs := extrema.OrderingSigns(100, []int{40}, []int{10, 70})

			Convey("Then the array has length n-1", func() {
				So(signs, ShouldHaveLength, 99)
			})

			Convey("And the intervals carry the expected directions", func() {
				for j := 0; j < 10; j++ {
					So(signs[j], ShouldEqual, 0)
				}
				for j := 10; j < 40; j++ {
					So(signs[j], ShouldEqual, 1)
				}
				for j := 40; j < 70; j++ {
					So(signs[j], ShouldEqual, -1)
				}
				for j := 70; j < 99; j++ {
					So(signs[j], ShouldEqual, 0)
				}
			})
		})

		Convey("When the sequence is too short", func() {
			So(extrema.OrderingSigns(1, nil, nil), ShouldBeEmpty)
			So(extrema.OrderingSigns(0, nil, nil), ShouldBeEmpty)
		})

		Convey("When there are no extrema", func() {
			signs := extrema.OrderingSigns(10, nil, nil)

			Convey("Then all positions are zero", func() {
				for _, s := range signs {
					So(s, ShouldEqual, 0)
				}
			})
		})
	})
}
