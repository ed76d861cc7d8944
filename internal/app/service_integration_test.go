package service

import (
	"context"
	"math/rand"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/ocumetry/eyelid/internal/adapters/bus"
	"github.com/ocumetry/eyelid/internal/adapters/store"
	"github.com/ocumetry/eyelid/internal/domain/classifier"
	"github.com/ocumetry/eyelid/internal/domain/mapper"
	"github.com/ocumetry/eyelid/internal/domain/model"
)

func closedSample(rng *rand.Rand) model.Sample {
	return model.Sample{0.05 + rng.Float64()*0.05, 0.1, 0.1}
}

func openSample(rng *rand.Rand) model.Sample {
	return model.Sample{0.9 + rng.Float64()*0.05, 0.9, 0.9}
}

// feedPhase runs one guided phase: activation, a stream of samples, then
// deactivation.
func feedPhase(ctx context.Context, s *Service, phase model.Phase, samples []model.Sample) bool {
	if !s.Enqueue(ctx, bus.PhaseEdge(phase, true)) {
		return false
	}
	for i, sample := range samples {
		if !s.Enqueue(ctx, bus.EncoderSample(model.Combined, sample, int64(i+1))) {
			return false
		}
	}
	return s.Enqueue(ctx, bus.PhaseEdge(phase, false))
}

// waitForSource polls until predictions for the sample come from the
// wanted model source.
func waitForSource(s *Service, x model.Sample, want string) bool {
	deadline := time.Now().Add(15 * time.Second)
	for time.Now().Before(deadline) {
		if _, src := s.Predict(x, model.Combined); src == want {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return false
}

func TestCalibrationFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping calibration flow in short mode")
	}

	Convey("Given a running calibration service", t, func() {
		ctx := context.Background()
		rng := rand.New(rand.NewSource(7))

		s := New(WithBusSize(2048))
		So(s.Start(ctx), ShouldBeNil)
		defer s.Stop()

		closed := make([]model.Sample, 40)
		open := make([]model.Sample, 40)
		for i := range closed {
			closed[i] = closedSample(rng)
			open[i] = openSample(rng)
		}

		Convey("When both staring phases complete", func() {
			So(feedPhase(ctx, s, model.PhaseClosed, closed), ShouldBeTrue)
			So(feedPhase(ctx, s, model.PhaseOpen, open), ShouldBeTrue)

			Convey("Then a binary model starts serving predictions", func() {
				So(waitForSource(s, model.Sample{0.5, 0.5, 0.5}, mapper.SourceBinary), ShouldBeTrue)

				vClosed, _ := s.Predict(closedSample(rng), model.Combined)
				vOpen, _ := s.Predict(openSample(rng), model.Combined)
				So(vClosed, ShouldBeLessThan, vOpen)
			})

			Convey("And when a blink phase streams alternating samples", func() {
				So(waitForSource(s, model.Sample{0.5, 0.5, 0.5}, mapper.SourceBinary), ShouldBeTrue)

				blink := make([]model.Sample, 100)
				for i := range blink {
					if (i/10)%2 == 0 {
						blink[i] = closedSample(rng)
					} else {
						blink[i] = openSample(rng)
					}
				}
				So(feedPhase(ctx, s, model.PhaseBlink, blink), ShouldBeTrue)

				Convey("Then the smooth model takes over", func() {
					So(waitForSource(s, model.Sample{0.5, 0.5, 0.5}, mapper.SourceSmooth), ShouldBeTrue)
				})
			})
		})

		Convey("When a phase ends without any samples", func() {
			So(s.Enqueue(ctx, bus.PhaseEdge(model.PhaseClosed, true)), ShouldBeTrue)
			So(s.Enqueue(ctx, bus.PhaseEdge(model.PhaseClosed, false)), ShouldBeTrue)

			Convey("Then no model appears", func() {
				time.Sleep(200 * time.Millisecond)
				_, src := s.Predict(model.Sample{0.5, 0.5, 0.5}, model.Combined)
				So(src, ShouldEqual, mapper.SourceDefault)
			})
		})
	})
}

func TestModelPersistence(t *testing.T) {
	Convey("Given a persisted binary model artifact", t, func() {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "models.db")

		st, err := store.Open(path)
		So(err, ShouldBeNil)

		samples := []model.Sample{
			{0.05, 0.1, 0.1}, {0.08, 0.1, 0.1},
			{0.9, 0.9, 0.9}, {0.95, 0.9, 0.9},
		}
		labels := []float64{0, 0, 1, 1}

		m, err := classifier.NewBinaryTrainer().Train(ctx, samples, labels)
		So(err, ShouldBeNil)

		payload, err := classifier.Encode(m)
		So(err, ShouldBeNil)

		key := model.ModelKey{Kind: model.KindBinary, Variant: model.Left, Version: 2}
		So(st.Save(ctx, key, payload), ShouldBeNil)
		So(st.Close(), ShouldBeNil)

		Convey("When a service starts over that store", func() {
			s := New(WithStorePath(path), WithModelVersion(2))
			So(s.Start(ctx), ShouldBeNil)
			defer s.Stop()

			Convey("Then the restored model serves predictions", func() {
				_, src := s.Predict(model.Sample{0.5, 0.5, 0.5}, model.Left)
				So(src, ShouldEqual, mapper.SourceBinary)
			})

			Convey("Then variants without artifacts still fall back", func() {
				_, src := s.Predict(model.Sample{0.5, 0.5, 0.5}, model.Right)
				So(src, ShouldEqual, mapper.SourceDefault)
			})
		})
	})
}
