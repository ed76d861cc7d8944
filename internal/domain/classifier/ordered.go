package classifier

import (
	"context"
	"fmt"

	"github.com/ocumetry/eyelid/internal/domain/model"
)

// OrderedTrainer fits the smooth-blink regressor. The loss combines an
// anchor term (mean squared error against the 0/1 targets, evaluated only at
// the labeled extrema indices) with an ordering term: a hinge penalty for
// moving against the expected direction between adjacent samples inside a
// valley-to-peak or peak-to-valley interval. The ordering term is what makes
// the output rise and fall monotonically through a blink instead of snapping
// between classes.
type OrderedTrainer struct {
	cfg config
}

// NewOrderedTrainer creates an ordered trainer with default parameters.
func NewOrderedTrainer(opts ...Option) *OrderedTrainer {
	t := &OrderedTrainer{
		cfg: config{
			epochs: defaultOrderedEpochs,
			rate:   defaultOrderedRate,
			hidden: defaultHiddenUnits,
			seed:   defaultInitSeed,
		},
	}
	for _, opt := range opts {
		opt(&t.cfg)
	}
	return t
}

// Train fits a model with full-batch Adam. signs must have one entry per
// adjacent sample pair (length len(samples)-1); +1 expects a rise across the
// pair, -1 a fall, 0 no constraint. It honors ctx between epochs.
func (t *OrderedTrainer) Train(ctx context.Context, samples []model.Sample, anchors []Anchor, signs []int) (Model, error) {
	if len(samples) == 0 {
		return nil, ErrNoSamples
	}
	if len(anchors) == 0 {
		return nil, ErrNoAnchors
	}
	if len(signs) != len(samples)-1 {
		return nil, ErrBadSigns
	}
	for _, a := range anchors {
		if a.Index < 0 || a.Index >= len(samples) {
			return nil, fmt.Errorf("%w: anchor index %d out of range", ErrNoAnchors, a.Index)
		}
	}

	n := newNetwork(t.cfg.hidden, t.cfg.seed)
	opt := newAdam(t.cfg.hidden, t.cfg.rate)
	g := newGrads(t.cfg.hidden)

	count := len(samples)
	preds := make([]float64, count)
	dOut := make([]float64, count)
	anchorScale := 2.0 / float64(len(anchors))
	pairScale := orderingWeight / float64(len(signs))

	for epoch := 0; epoch < t.cfg.epochs; epoch++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("ordered training cancelled: %w", ctx.Err())
		default:
		}

		// Forward pass over the whole sequence; activations are recomputed
		// during accumulation to keep memory flat.
		for i, x := range samples {
			_, preds[i] = n.forward(x)
		}

		for i := range dOut {
			dOut[i] = 0
		}
		for _, a := range anchors {
			dOut[a.Index] += anchorScale * (preds[a.Index] - a.Target)
		}
		for j, s := range signs {
			if s == 0 {
				continue
			}
			// relu(-s * (pred[j+1] - pred[j]))
			if -float64(s)*(preds[j+1]-preds[j]) > 0 {
				dOut[j+1] -= float64(s) * pairScale
				dOut[j] += float64(s) * pairScale
			}
		}

		g.zero()
		for i, x := range samples {
			if dOut[i] == 0 {
				continue
			}
			a1, y := n.forward(x)
			n.accumulate(g, x, a1, y, dOut[i])
		}
		opt.apply(n, g)
	}
	return n, nil
}
