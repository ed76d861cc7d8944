// Package classifier provides the trainable-classifier capability consumed
// by the training orchestrator: small feed-forward networks that map a
// residual triple to an openness scalar.
//
// Two trainer variants exist behind the same Model contract: a binary
// open/closed classifier and an ordered regressor shaped by an anchor loss
// at labeled extrema plus a monotonicity (ordering) penalty between them.
// The orchestrator depends only on the train/predict contracts, not on the
// network internals.
package classifier

import (
	"github.com/ocumetry/eyelid/internal/domain/model"
)

// Default network and training parameters.
const (
	defaultHiddenUnits = 8
	defaultInitSeed    = 42

	defaultBinaryEpochs = 200
	defaultBinaryRate   = 0.01

	defaultOrderedEpochs = 150
	defaultOrderedRate   = 0.001

	// orderingWeight scales the ordering penalty relative to the anchor
	// term.
	orderingWeight = 0.5
)

// Model is a trained artifact mapping a residual triple to an openness
// scalar in [0, 1]. Implementations are safe for concurrent reads.
type Model interface {
	Predict(x model.Sample) float64
}

// Anchor is a supervised target at one index of a training sequence: 1 at
// peaks (open), 0 at valleys (closed).
type Anchor struct {
	Index  int
	Target float64
}

// config carries tunables shared by both trainers.
type config struct {
	epochs int
	rate   float64
	hidden int
	seed   int64
}

// Option applies a configuration option to a trainer.
type Option func(*config)

// WithEpochs overrides the number of training epochs.
func WithEpochs(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.epochs = n
		}
	}
}

// WithLearningRate overrides the optimizer learning rate.
func WithLearningRate(r float64) Option {
	return func(c *config) {
		if r > 0 {
			c.rate = r
		}
	}
}

// WithHiddenUnits overrides the hidden layer width.
func WithHiddenUnits(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.hidden = n
		}
	}
}

// WithSeed overrides the weight initialization seed.
func WithSeed(seed int64) Option {
	return func(c *config) {
		c.seed = seed
	}
}
