// Package registry holds the trained models currently visible to the
// runtime mapper. Writes replace the whole value for a key, so a reader
// never observes a partially-written artifact.
package registry

import (
	"sync"

	"github.com/ocumetry/eyelid/internal/domain/classifier"
	"github.com/ocumetry/eyelid/internal/domain/model"
	"github.com/ocumetry/eyelid/pkg/metrics"
)

// Registry maps ModelKeys to trained models. Safe for concurrent use; reads
// are lock-cheap so the prediction hot path never blocks on training.
type Registry struct {
	mu     sync.RWMutex
	models map[model.ModelKey]classifier.Model
}

// New constructs an empty registry.
func New() *Registry {
	return &Registry{
		models: make(map[model.ModelKey]classifier.Model),
	}
}

// Put registers m under key, replacing any previous model atomically.
func (r *Registry) Put(key model.ModelKey, m classifier.Model) {
	if m == nil {
		return
	}
	r.mu.Lock()
	r.models[key] = m
	n := len(r.models)
	r.mu.Unlock()
	metrics.UpdateRegisteredModels(n)
}

// Get returns the model registered under key, if any.
func (r *Registry) Get(key model.ModelKey) (classifier.Model, bool) {
	r.mu.RLock()
	m, ok := r.models[key]
	r.mu.RUnlock()
	return m, ok
}

// Len returns the number of registered models.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.models)
}
