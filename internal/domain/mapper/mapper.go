// Package mapper resolves runtime openness queries against the best model
// currently available for an eye variant.
package mapper

import (
	"github.com/ocumetry/eyelid/internal/domain/classifier"
	"github.com/ocumetry/eyelid/internal/domain/model"
	"github.com/ocumetry/eyelid/internal/domain/smoothing"
	"github.com/ocumetry/eyelid/pkg/metrics"
)

// Prediction sources reported alongside each openness value.
const (
	SourceSmooth  = "smooth"
	SourceBinary  = "binary"
	SourceDefault = "default"
)

const defaultOpenness = 0.5

// Registry looks up registered models.
type Registry interface {
	Get(key model.ModelKey) (classifier.Model, bool)
}

// Mapper maps encoder samples to calibrated openness values. It prefers
// the smooth model, falls back to the binary one, and answers with a
// neutral half-open value before any calibration has run.
type Mapper struct {
	registry Registry
	version  int
}

// New creates a mapper reading models of the given version.
func New(registry Registry, version int) *Mapper {
	return &Mapper{registry: registry, version: version}
}

// Predict returns the openness in [0, 1] for one sample and the source
// that produced it.
func (m *Mapper) Predict(x model.Sample, variant model.EyeVariant) (float64, string) {
	if sm, ok := m.registry.Get(model.ModelKey{Kind: model.KindSmooth, Variant: variant, Version: m.version}); ok {
		metrics.RecordPrediction(SourceSmooth)
		return smoothing.Clamp(sm.Predict(x)), SourceSmooth
	}

	if bm, ok := m.registry.Get(model.ModelKey{Kind: model.KindBinary, Variant: variant, Version: m.version}); ok {
		metrics.RecordPrediction(SourceBinary)
		return smoothing.Clamp(bm.Predict(x)), SourceBinary
	}

	metrics.RecordPrediction(SourceDefault)
	return defaultOpenness, SourceDefault
}
