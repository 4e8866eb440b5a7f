// Package source contains the upstream market-data adapters and the
// aggregator that combines their output into one exposition body.
package source

import (
	"context"
	"sync"

	"github.com/davidkirwan/asset-monitoring/internal/model"
)

// Source is one upstream data adapter. Fetch performs the outbound calls and
// returns normalized samples, or an error when the source as a whole failed
// (network failure, structurally invalid response, zero usable records).
// Per-record problems are absorbed inside the adapter.
type Source interface {
	// ID returns the unique identifier for this source.
	ID() string
	// Name returns a human-readable name.
	Name() string
	// Description returns a description of what this source reports.
	Description() string
	// Fetch gathers metrics and returns samples.
	Fetch(ctx context.Context) ([]model.MetricSample, error)
}

// Registry holds sources in registration order. The order fixes the layout
// of the aggregated output regardless of fetch completion order.
type Registry struct {
	mu      sync.RWMutex
	order   []string
	sources map[string]Source
}

// NewRegistry creates an empty source registry.
func NewRegistry() *Registry {
	return &Registry{sources: make(map[string]Source)}
}

// Register adds a source to the registry.
func (r *Registry) Register(s Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sources[s.ID()]; !ok {
		r.order = append(r.order, s.ID())
	}
	r.sources[s.ID()] = s
}

// Get returns a source by ID.
func (r *Registry) Get(id string) (Source, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sources[id]
	return s, ok
}

// Sources returns all sources in registration order.
func (r *Registry) Sources() []Source {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]Source, 0, len(r.order))
	for _, id := range r.order {
		result = append(result, r.sources[id])
	}
	return result
}
