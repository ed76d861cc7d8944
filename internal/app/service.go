// Package service provides the core calibration service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/ocumetry/eyelid/internal/adapters/bus"
	"github.com/ocumetry/eyelid/internal/adapters/http/api"
	"github.com/ocumetry/eyelid/internal/adapters/plot"
	"github.com/ocumetry/eyelid/internal/adapters/registry"
	"github.com/ocumetry/eyelid/internal/adapters/store"
	"github.com/ocumetry/eyelid/internal/domain/capture"
	"github.com/ocumetry/eyelid/internal/domain/classifier"
	"github.com/ocumetry/eyelid/internal/domain/mapper"
	"github.com/ocumetry/eyelid/internal/domain/model"
	"github.com/ocumetry/eyelid/internal/domain/training"
	"github.com/ocumetry/eyelid/pkg/logger"
)

// Service wires the calibration pipeline: events arrive on the bus, a
// single runner feeds the capture buffers, and phase deactivations
// dispatch training rounds.
type Service struct {
	mu sync.RWMutex

	// Core components
	bus      *bus.InMemoryBus
	capture  *capture.Capture
	registry *registry.Registry
	store    *store.Store
	plots    *plot.Hub
	trainer  *training.Orchestrator
	mapper   *mapper.Mapper

	// Latest staring batches per phase and variant, paired into binary
	// rounds once both phases have data.
	staring map[model.Phase]map[model.EyeVariant][]model.Sample

	// Configuration
	busSize      int
	storePath    string
	modelVersion int
	plotBuffer   int

	// State
	started bool
	cancel  context.CancelFunc
	runners sync.WaitGroup

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithBusSize bounds the event bus.
func WithBusSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.busSize = size
		}
	}
}

// WithStorePath locates the artifact store. Empty disables persistence.
func WithStorePath(path string) Option {
	return func(s *Service) {
		s.storePath = path
	}
}

// WithModelVersion selects the model generation to train and serve.
func WithModelVersion(v int) Option {
	return func(s *Service) {
		if v > 0 {
			s.modelVersion = v
		}
	}
}

// WithPlotBuffer sets the per-client frame buffer on the plot stream.
func WithPlotBuffer(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.plotBuffer = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		busSize:      4096,
		modelVersion: 2,
		plotBuffer:   8,
		staring:      make(map[model.Phase]map[model.EyeVariant][]model.Sample),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes the service components and launches the pipeline
// runner.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting calibration service")

	s.bus = bus.NewInMemoryBus(bus.WithCapacity(s.busSize))
	s.capture = capture.New(capture.WithLogger(s.logger.Named("capture")))
	s.registry = registry.New()
	s.plots = plot.NewHub(
		plot.WithClientBuffer(s.plotBuffer),
		plot.WithLogger(s.logger.Named("plot")),
	)

	trainerOpts := []training.Option{
		training.WithVersion(s.modelVersion),
		training.WithPublisher(s.plots),
		training.WithLogger(s.logger.Named("training")),
	}

	if s.storePath != "" {
		st, err := store.Open(s.storePath)
		if err != nil {
			return fmt.Errorf("open artifact store: %w", err)
		}
		s.store = st
		trainerOpts = append(trainerOpts, training.WithStore(st))
		s.warmLoad(ctx)
	}

	s.trainer = training.New(s.registry, trainerOpts...)
	s.mapper = mapper.New(s.registry, s.modelVersion)

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.runners.Add(1)
	go s.run(runCtx)

	s.started = true
	s.logger.Info(ctx, "calibration service started",
		logger.Int("busSize", s.busSize),
		logger.Int("modelVersion", s.modelVersion),
		logger.String("storePath", s.storePath),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	b := s.bus
	cancel := s.cancel
	s.mu.Unlock()

	ctx := context.Background()
	s.logger.Info(ctx, "stopping calibration service")

	// Closing the bus drains pending events through the runner before
	// the dequeue channel closes.
	_ = b.Close()
	s.runners.Wait()
	cancel()

	if s.plots != nil {
		_ = s.plots.Close(ctx)
	}
	if s.store != nil {
		_ = s.store.Close()
	}

	s.logger.Info(ctx, "calibration service stopped")
}

// warmLoad restores persisted models into the registry so predictions
// survive a restart. Undecodable artifacts are skipped.
func (s *Service) warmLoad(ctx context.Context) {
	for _, kind := range model.Kinds() {
		for _, variant := range model.Variants() {
			key := model.ModelKey{Kind: kind, Variant: variant, Version: s.modelVersion}

			payload, ok, err := s.store.LoadIfPresent(ctx, key)
			if err != nil {
				s.logger.Warn(ctx, "artifact load failed",
					logger.String("model", key.String()),
					logger.Err(err))
				continue
			}
			if !ok {
				continue
			}

			m, err := classifier.Decode(payload)
			if err != nil {
				s.logger.Warn(ctx, "artifact decode failed",
					logger.String("model", key.String()),
					logger.Err(err))
				continue
			}

			s.registry.Put(key, m)
			s.logger.Info(ctx, "model restored", logger.String("model", key.String()))
		}
	}
}

// run is the single pipeline consumer. Capture state is only touched
// here and in Stats, under the service lock.
func (s *Service) run(ctx context.Context) {
	defer s.runners.Done()

	for e := range s.bus.Dequeue(ctx) {
		switch e.Kind {
		case bus.KindPhaseEdge:
			s.handlePhaseEdge(ctx, e)
		case bus.KindSample:
			s.mu.Lock()
			s.capture.ObserveSample(ctx, e.Variant, e.Sample, e.Timestamp)
			s.mu.Unlock()
		}
	}
}

func (s *Service) handlePhaseEdge(ctx context.Context, e bus.Event) {
	s.mu.Lock()
	batches := s.capture.ObservePhase(ctx, e.Phase, e.Active)
	s.mu.Unlock()

	if e.Active || len(batches) == 0 {
		return
	}

	if e.Phase == model.PhaseBlink {
		for _, b := range batches {
			s.dispatchSmooth(ctx, b.Variant, b.Samples)
		}
		return
	}

	s.mu.Lock()
	if s.staring[e.Phase] == nil {
		s.staring[e.Phase] = make(map[model.EyeVariant][]model.Sample)
	}
	for _, b := range batches {
		s.staring[e.Phase][b.Variant] = b.Samples
	}

	other := model.PhaseOpen
	if e.Phase == model.PhaseOpen {
		other = model.PhaseClosed
	}

	type pair struct {
		variant      model.EyeVariant
		closed, open []model.Sample
	}
	var ready []pair
	for _, b := range batches {
		counterpart, ok := s.staring[other][b.Variant]
		if !ok {
			continue
		}
		p := pair{variant: b.Variant, closed: b.Samples, open: counterpart}
		if e.Phase == model.PhaseOpen {
			p.closed, p.open = counterpart, b.Samples
		}
		ready = append(ready, p)
	}
	s.mu.Unlock()

	for _, p := range ready {
		s.dispatchBinary(ctx, p.variant, p.closed, p.open)
	}
}

func (s *Service) dispatchBinary(ctx context.Context, variant model.EyeVariant, closed, open []model.Sample) {
	s.runners.Add(1)
	go func() {
		defer s.runners.Done()
		if err := s.trainer.TrainBinary(ctx, variant, closed, open); err != nil {
			s.logger.Warn(ctx, "binary round not run",
				logger.String("variant", string(variant)),
				logger.Err(err))
		}
	}()
}

func (s *Service) dispatchSmooth(ctx context.Context, variant model.EyeVariant, blink []model.Sample) {
	s.runners.Add(1)
	go func() {
		defer s.runners.Done()
		if err := s.trainer.TrainSmooth(ctx, variant, blink); err != nil {
			s.logger.Warn(ctx, "smooth round not run",
				logger.String("variant", string(variant)),
				logger.Err(err))
		}
	}()
}

// Enqueue submits a calibration event for asynchronous processing.
func (s *Service) Enqueue(ctx context.Context, e bus.Event) bool {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()
	if !started {
		return false
	}
	return s.bus.Enqueue(ctx, e)
}

// Predict maps one encoder sample to an openness value and the model
// source that answered.
func (s *Service) Predict(x model.Sample, variant model.EyeVariant) (float64, string) {
	s.mu.RLock()
	m := s.mapper
	s.mu.RUnlock()
	if m == nil {
		return 0.5, mapper.SourceDefault
	}
	return m.Predict(x, variant)
}

// PlotHandler exposes the websocket plot stream, or nil before Start.
func (s *Service) PlotHandler() http.Handler {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.plots
}

// Stats returns a point-in-time snapshot of pipeline state.
func (s *Service) Stats(ctx context.Context) api.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := api.Stats{
		Capturing:       make(map[string]bool),
		BufferedSamples: make(map[string]int),
	}
	if !s.started {
		return stats
	}

	stats.BusSize = s.bus.Len()
	stats.RegisteredModels = s.registry.Len()
	for _, phase := range model.Phases() {
		stats.Capturing[string(phase)] = s.capture.Capturing(phase)
		for _, variant := range model.Variants() {
			if n := s.capture.Len(phase, variant); n > 0 {
				stats.BufferedSamples[string(phase)+"/"+string(variant)] = n
			}
		}
	}
	return stats
}
