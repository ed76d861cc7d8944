// Package capture accumulates labeled sample batches for each calibration
// phase, driven by phase-flag edges and encoder sample arrivals.
package capture

import (
	"context"

	"github.com/ocumetry/eyelid/internal/domain/model"
	"github.com/ocumetry/eyelid/pkg/logger"
	"github.com/ocumetry/eyelid/pkg/metrics"
)

// Batch is a frozen phase buffer for one eye variant, handed downstream when
// the phase deactivates.
type Batch struct {
	Phase   model.Phase
	Variant model.EyeVariant
	Samples []model.Sample
}

// phaseBuffer holds samples for one (phase, variant) pair while the phase is
// active. lastTS deduplicates repeated notifications: the triggering rate is
// decoupled from the encoder's sample rate, so the same (sample, timestamp)
// pair can be observed many times.
type phaseBuffer struct {
	samples []model.Sample
	lastTS  int64
	hasTS   bool
}

func (b *phaseBuffer) reset() {
	b.samples = nil
	b.lastTS = 0
	b.hasTS = false
}

// Capture owns the phase buffers. Not safe for concurrent use; the pipeline
// runner is its single caller.
type Capture struct {
	buffers   map[model.Phase]map[model.EyeVariant]*phaseBuffer
	capturing map[model.Phase]bool
	logger    logger.Logger
}

// Option applies a configuration option to the Capture.
type Option func(*Capture)

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Capture) {
		if l != nil {
			c.logger = l
		}
	}
}

// New constructs an empty Capture.
func New(opts ...Option) *Capture {
	c := &Capture{
		buffers:   make(map[model.Phase]map[model.EyeVariant]*phaseBuffer),
		capturing: make(map[model.Phase]bool),
	}
	for _, p := range model.Phases() {
		c.buffers[p] = make(map[model.EyeVariant]*phaseBuffer)
		for _, v := range model.Variants() {
			c.buffers[p][v] = &phaseBuffer{}
		}
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logger.Get().Named("capture")
	}
	return c
}

// Capturing reports whether the given phase is currently buffering samples.
func (c *Capture) Capturing(phase model.Phase) bool {
	return c.capturing[phase]
}

// ObservePhase handles a phase activation edge. An activation always starts
// from empty buffers regardless of any prior processing state. A
// deactivation freezes the buffers and returns one batch per eye variant
// that collected at least one sample.
func (c *Capture) ObservePhase(ctx context.Context, phase model.Phase, active bool) []Batch {
	if !phase.Valid() {
		return nil
	}

	if active {
		if c.capturing[phase] {
			return nil // already capturing, nothing to do
		}
		for _, v := range model.Variants() {
			c.buffers[phase][v].reset()
		}
		c.capturing[phase] = true
		c.logger.Debug(ctx, "phase activated", logger.String("phase", string(phase)))
		return nil
	}

	if !c.capturing[phase] {
		return nil
	}
	c.capturing[phase] = false

	var out []Batch
	for _, v := range model.Variants() {
		buf := c.buffers[phase][v]
		if len(buf.samples) == 0 {
			continue
		}
		frozen := make([]model.Sample, len(buf.samples))
		copy(frozen, buf.samples)
		out = append(out, Batch{Phase: phase, Variant: v, Samples: frozen})
	}
	c.logger.Info(ctx, "phase deactivated",
		logger.String("phase", string(phase)),
		logger.Int("batches", len(out)),
	)
	return out
}

// ObserveSample feeds the latest encoder output for one eye variant into
// every capturing phase. A timestamp equal to the last recorded one for that
// (phase, variant) is skipped so duplicate notifications never produce
// duplicate samples.
func (c *Capture) ObserveSample(ctx context.Context, variant model.EyeVariant, sample model.Sample, ts int64) {
	if !variant.Valid() {
		return
	}
	for _, phase := range model.Phases() {
		if !c.capturing[phase] {
			continue
		}
		buf := c.buffers[phase][variant]
		if buf.hasTS && buf.lastTS == ts {
			metrics.RecordSampleDeduplicated()
			continue
		}
		buf.samples = append(buf.samples, sample)
		buf.lastTS = ts
		buf.hasTS = true
		metrics.RecordSampleCaptured(string(phase), string(variant))
	}
}

// Len returns the number of buffered samples for a (phase, variant) pair.
func (c *Capture) Len(phase model.Phase, variant model.EyeVariant) int {
	if !phase.Valid() || !variant.Valid() {
		return 0
	}
	return len(c.buffers[phase][variant].samples)
}
