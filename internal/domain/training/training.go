// Package training orchestrates calibration rounds: binary open/closed
// classification after the staring phases, then per-sample openness
// regression after the blink phase.
package training

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/ocumetry/eyelid/internal/domain/classifier"
	"github.com/ocumetry/eyelid/internal/domain/extrema"
	"github.com/ocumetry/eyelid/internal/domain/model"
	"github.com/ocumetry/eyelid/internal/domain/smoothing"
	"github.com/ocumetry/eyelid/pkg/logger"
	"github.com/ocumetry/eyelid/pkg/metrics"
)

const defaultVersion = 2

// BinaryTrainer fits an open/closed classifier on labelled samples.
type BinaryTrainer interface {
	Train(ctx context.Context, samples []model.Sample, labels []float64) (classifier.Model, error)
}

// OrderedTrainer fits an openness regressor on a blink sequence with
// extrema anchors and monotonicity signs.
type OrderedTrainer interface {
	Train(ctx context.Context, samples []model.Sample, anchors []classifier.Anchor, signs []int) (classifier.Model, error)
}

// Registry holds the live models used for inference.
type Registry interface {
	Put(key model.ModelKey, m classifier.Model)
	Get(key model.ModelKey) (classifier.Model, bool)
}

// Persister stores model artifacts across restarts.
type Persister interface {
	Save(ctx context.Context, key model.ModelKey, payload []byte) error
}

// Publisher fans out plot frames after a smooth round.
type Publisher interface {
	Publish(frame model.PlotFrame)
}

type inflightKey struct {
	kind    model.ModelKind
	variant model.EyeVariant
}

// Orchestrator runs training rounds. A round for a given kind and variant
// is exclusive; concurrent requests for the same pair are rejected rather
// than queued, since a newer round with fresher data follows anyway.
type Orchestrator struct {
	binary   BinaryTrainer
	ordered  OrderedTrainer
	registry Registry
	store    Persister
	plots    Publisher
	version  int
	openTh   float64
	closeTh  float64
	rng      *rand.Rand
	logger   logger.Logger

	mu       sync.Mutex
	inflight map[inflightKey]bool
}

// Option applies a configuration option to the orchestrator.
type Option func(*Orchestrator)

// WithBinaryTrainer sets the binary trainer.
func WithBinaryTrainer(t BinaryTrainer) Option {
	return func(o *Orchestrator) {
		if t != nil {
			o.binary = t
		}
	}
}

// WithOrderedTrainer sets the ordered trainer.
func WithOrderedTrainer(t OrderedTrainer) Option {
	return func(o *Orchestrator) {
		if t != nil {
			o.ordered = t
		}
	}
}

// WithStore enables artifact persistence.
func WithStore(s Persister) Option {
	return func(o *Orchestrator) {
		o.store = s
	}
}

// WithPublisher enables plot frame publication.
func WithPublisher(p Publisher) Option {
	return func(o *Orchestrator) {
		o.plots = p
	}
}

// WithVersion sets the model version trained rounds write under.
func WithVersion(v int) Option {
	return func(o *Orchestrator) {
		if v > 0 {
			o.version = v
		}
	}
}

// WithSeed seeds the downsampling source for reproducible rounds.
func WithSeed(seed int64) Option {
	return func(o *Orchestrator) {
		o.rng = rand.New(rand.NewSource(seed))
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// New creates a training orchestrator writing into the given registry.
func New(registry Registry, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		binary:   classifier.NewBinaryTrainer(),
		ordered:  classifier.NewOrderedTrainer(),
		registry: registry,
		version:  defaultVersion,
		openTh:   extrema.DefaultOpenThreshold,
		closeTh:  extrema.DefaultCloseThreshold,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		inflight: make(map[inflightKey]bool),
	}

	for _, opt := range opts {
		opt(o)
	}

	if o.logger == nil {
		o.logger = logger.Get().Named("training")
	}

	return o
}

// Version returns the model version rounds are written under.
func (o *Orchestrator) Version() int {
	return o.version
}

func (o *Orchestrator) acquire(kind model.ModelKind, variant model.EyeVariant) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	k := inflightKey{kind: kind, variant: variant}
	if o.inflight[k] {
		return false
	}
	o.inflight[k] = true
	return true
}

func (o *Orchestrator) release(kind model.ModelKind, variant model.EyeVariant) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.inflight, inflightKey{kind: kind, variant: variant})
}

// TrainBinary runs a binary round for one eye variant from the closed and
// open staring buffers. Empty buffers skip the round; a failed fit leaves
// any previously registered model in place.
func (o *Orchestrator) TrainBinary(ctx context.Context, variant model.EyeVariant, closed, open []model.Sample) error {
	kind := model.KindBinary
	if len(closed) == 0 || len(open) == 0 {
		metrics.RecordTrainingSkipped(string(kind), string(variant))
		o.logger.Info(ctx, "binary round skipped, empty buffer",
			logger.String("variant", string(variant)),
			logger.Int("closed", len(closed)),
			logger.Int("open", len(open)))
		return nil
	}

	if !o.acquire(kind, variant) {
		metrics.RecordTrainingRejected(string(kind), string(variant))
		return ErrTrainingInFlight
	}
	defer o.release(kind, variant)

	metrics.RecordTrainingStarted(string(kind), string(variant))
	start := time.Now()

	closed, open = o.balance(closed, open)

	samples := make([]model.Sample, 0, len(closed)+len(open))
	labels := make([]float64, 0, len(closed)+len(open))
	for _, s := range closed {
		samples = append(samples, s)
		labels = append(labels, 0)
	}
	for _, s := range open {
		samples = append(samples, s)
		labels = append(labels, 1)
	}

	m, err := o.binary.Train(ctx, samples, labels)
	if err != nil {
		metrics.RecordTrainingFailed(string(kind), string(variant))
		o.logger.Error(ctx, "binary round failed",
			logger.String("variant", string(variant)),
			logger.Err(err))
		return err
	}

	key := model.ModelKey{Kind: kind, Variant: variant, Version: o.version}
	o.registry.Put(key, m)
	o.persist(ctx, key, m)

	metrics.ObserveTrainingDuration(string(kind), time.Since(start).Seconds())
	o.logger.Info(ctx, "binary round complete",
		logger.String("model", key.String()),
		logger.Int("samples", len(samples)))
	return nil
}

// TrainSmooth runs a smooth round for one eye variant from the blink
// buffer. It requires a registered binary model for the same variant and
// aborts when the predicted signal yields no extrema.
func (o *Orchestrator) TrainSmooth(ctx context.Context, variant model.EyeVariant, blink []model.Sample) error {
	kind := model.KindSmooth
	if len(blink) == 0 {
		metrics.RecordTrainingSkipped(string(kind), string(variant))
		o.logger.Info(ctx, "smooth round skipped, empty blink buffer",
			logger.String("variant", string(variant)))
		return nil
	}

	if !o.acquire(kind, variant) {
		metrics.RecordTrainingRejected(string(kind), string(variant))
		return ErrTrainingInFlight
	}
	defer o.release(kind, variant)

	binaryKey := model.ModelKey{Kind: model.KindBinary, Variant: variant, Version: o.version}
	binary, ok := o.registry.Get(binaryKey)
	if !ok {
		metrics.RecordTrainingSkipped(string(kind), string(variant))
		o.logger.Warn(ctx, "smooth round needs a binary model first",
			logger.String("model", binaryKey.String()))
		return ErrNoBinaryModel
	}

	metrics.RecordTrainingStarted(string(kind), string(variant))
	start := time.Now()

	raw := make([]float64, len(blink))
	for i, s := range blink {
		raw[i] = binary.Predict(s)
	}

	peaks, valleys := extrema.Label(raw, o.openTh, o.closeTh)

	if o.plots != nil {
		o.plots.Publish(model.PlotFrame{
			Variant:        variant,
			Raw:            raw,
			Smoothed:       smoothing.Smooth(raw),
			OpenThreshold:  o.openTh,
			CloseThreshold: o.closeTh,
			Peaks:          peaks,
			Valleys:        valleys,
		})
	}

	if len(peaks) == 0 || len(valleys) == 0 {
		metrics.RecordTrainingSkipped(string(kind), string(variant))
		o.logger.Warn(ctx, "smooth round aborted, no extrema",
			logger.String("variant", string(variant)),
			logger.Int("peaks", len(peaks)),
			logger.Int("valleys", len(valleys)))
		return ErrNoExtrema
	}

	anchors := make([]classifier.Anchor, 0, len(peaks)+len(valleys))
	for _, p := range peaks {
		anchors = append(anchors, classifier.Anchor{Index: p, Target: 1})
	}
	for _, v := range valleys {
		anchors = append(anchors, classifier.Anchor{Index: v, Target: 0})
	}
	signs := extrema.OrderingSigns(len(blink), peaks, valleys)

	m, err := o.ordered.Train(ctx, blink, anchors, signs)
	if err != nil {
		metrics.RecordTrainingFailed(string(kind), string(variant))
		o.logger.Error(ctx, "smooth round failed",
			logger.String("variant", string(variant)),
			logger.Err(err))
		return err
	}

	key := model.ModelKey{Kind: kind, Variant: variant, Version: o.version}
	o.registry.Put(key, m)
	o.persist(ctx, key, m)

	metrics.ObserveTrainingDuration(string(kind), time.Since(start).Seconds())
	o.logger.Info(ctx, "smooth round complete",
		logger.String("model", key.String()),
		logger.Int("samples", len(blink)),
		logger.Int("peaks", len(peaks)),
		logger.Int("valleys", len(valleys)))
	return nil
}

// balance downsamples the larger class uniformly at random so both sides
// contribute equally to the fit.
func (o *Orchestrator) balance(closed, open []model.Sample) ([]model.Sample, []model.Sample) {
	switch {
	case len(closed) > len(open):
		return o.sample(closed, len(open)), open
	case len(open) > len(closed):
		return closed, o.sample(open, len(closed))
	default:
		return closed, open
	}
}

func (o *Orchestrator) sample(in []model.Sample, n int) []model.Sample {
	o.mu.Lock()
	perm := o.rng.Perm(len(in))
	o.mu.Unlock()

	out := make([]model.Sample, n)
	for i := 0; i < n; i++ {
		out[i] = in[perm[i]]
	}
	return out
}

// persist encodes and stores the model. Persistence is best effort; the
// freshly trained model already serves traffic from the registry.
func (o *Orchestrator) persist(ctx context.Context, key model.ModelKey, m classifier.Model) {
	if o.store == nil {
		return
	}

	payload, err := classifier.Encode(m)
	if err != nil {
		o.logger.Warn(ctx, "model encode failed",
			logger.String("model", key.String()),
			logger.Err(err))
		return
	}

	if err := o.store.Save(ctx, key, payload); err != nil {
		o.logger.Warn(ctx, "model save failed",
			logger.String("model", key.String()),
			logger.Err(err))
	}
}
