// Package bus carries typed calibration events from the outside world to
// the pipeline consumer: phase-flag edges and encoder sample arrivals.
//
// This replaces re-scanning a shared state store on every mutation; only
// discrete, relevant events reach the pipeline.
package bus

import (
	"context"
	"sync"

	"github.com/ocumetry/eyelid/internal/domain/model"
	"github.com/ocumetry/eyelid/pkg/metrics"
)

const defaultCapacity = 4096

// EventKind discriminates bus events.
type EventKind string

// Event kinds.
const (
	KindPhaseEdge EventKind = "phase_edge"
	KindSample    EventKind = "sample"
)

// Event is a single calibration event. Exactly one of the two payload
// groups is meaningful, selected by Kind.
type Event struct {
	Kind EventKind

	// Phase edge payload.
	Phase  model.Phase
	Active bool

	// Sample payload.
	Variant   model.EyeVariant
	Sample    model.Sample
	Timestamp int64
}

// PhaseEdge builds a phase activation/deactivation event.
func PhaseEdge(phase model.Phase, active bool) Event {
	return Event{Kind: KindPhaseEdge, Phase: phase, Active: active}
}

// EncoderSample builds a new-sample event for one eye variant.
func EncoderSample(variant model.EyeVariant, sample model.Sample, ts int64) Event {
	return Event{Kind: KindSample, Variant: variant, Sample: sample, Timestamp: ts}
}

// Bus provides non-blocking enqueue and channel-based dequeue semantics.
type Bus interface {
	// Enqueue adds an event. Returns false when the bus is full or closed;
	// producers must never block on the pipeline.
	Enqueue(ctx context.Context, e Event) bool

	// Dequeue returns a channel that receives events in order. The channel
	// closes when the bus closes.
	Dequeue(ctx context.Context) <-chan Event

	// Len returns the number of pending events.
	Len() int

	// Close stops the bus. Subsequent enqueues fail.
	Close() error

	// IsClosed reports whether the bus has been closed.
	IsClosed() bool
}

// InMemoryBus implements Bus with a buffered channel.
type InMemoryBus struct {
	events   chan Event
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// Option applies a configuration option to the bus.
type Option func(*InMemoryBus)

// WithCapacity bounds the number of buffered events.
func WithCapacity(n int) Option {
	return func(b *InMemoryBus) {
		if n > 0 {
			b.capacity = n
		}
	}
}

// NewInMemoryBus creates a bounded in-memory bus.
func NewInMemoryBus(opts ...Option) *InMemoryBus {
	b := &InMemoryBus{capacity: defaultCapacity}
	for _, opt := range opts {
		opt(b)
	}
	b.events = make(chan Event, b.capacity)
	metrics.UpdateBusSize(0)
	return b
}

// Enqueue adds an event without blocking.
func (b *InMemoryBus) Enqueue(ctx context.Context, e Event) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		metrics.RecordEventDropped()
		return false
	}

	if ctx.Err() != nil {
		metrics.RecordEventDropped()
		return false
	}

	select {
	case b.events <- e:
		metrics.RecordEventIngested(string(e.Kind))
		metrics.UpdateBusSize(len(b.events))
		return true
	default:
		metrics.RecordEventDropped()
		return false
	}
}

// Dequeue returns a channel that receives events as they become available.
func (b *InMemoryBus) Dequeue(ctx context.Context) <-chan Event {
	out := make(chan Event)
	go func() {
		defer close(out)
		for {
			select {
			case e, ok := <-b.events:
				if !ok {
					return
				}
				select {
				case out <- e:
					metrics.UpdateBusSize(len(b.events))
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the number of pending events.
func (b *InMemoryBus) Len() int {
	return len(b.events)
}

// Close stops the bus.
func (b *InMemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	close(b.events)
	b.closed = true
	return nil
}

// IsClosed reports whether the bus has been closed.
func (b *InMemoryBus) IsClosed() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.closed
}
