package classifier

import (
	"context"
	"fmt"

	"github.com/ocumetry/eyelid/internal/domain/model"
)

// BinaryTrainer fits an open/closed classifier against labeled samples
// (label 0 for closed, 1 for open).
type BinaryTrainer struct {
	cfg config
}

// NewBinaryTrainer creates a binary trainer with default parameters.
func NewBinaryTrainer(opts ...Option) *BinaryTrainer {
	t := &BinaryTrainer{
		cfg: config{
			epochs: defaultBinaryEpochs,
			rate:   defaultBinaryRate,
			hidden: defaultHiddenUnits,
			seed:   defaultInitSeed,
		},
	}
	for _, opt := range opts {
		opt(&t.cfg)
	}
	return t
}

// Train fits a model with full-batch Adam on mean squared error. It honors
// ctx between epochs.
func (t *BinaryTrainer) Train(ctx context.Context, samples []model.Sample, labels []float64) (Model, error) {
	if len(samples) == 0 {
		return nil, ErrNoSamples
	}
	if len(samples) != len(labels) {
		return nil, ErrLengthMismatch
	}

	n := newNetwork(t.cfg.hidden, t.cfg.seed)
	opt := newAdam(t.cfg.hidden, t.cfg.rate)
	g := newGrads(t.cfg.hidden)
	scale := 2.0 / float64(len(samples))

	for epoch := 0; epoch < t.cfg.epochs; epoch++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("binary training cancelled: %w", ctx.Err())
		default:
		}

		g.zero()
		for i, x := range samples {
			a1, y := n.forward(x)
			n.accumulate(g, x, a1, y, scale*(y-labels[i]))
		}
		opt.apply(n, g)
	}
	return n, nil
}
