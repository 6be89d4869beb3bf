package layer

import (
	"context"
	"fmt"
	"sync"
)

type memoryRegistry struct {
	layers map[string]*Layer
	mu     sync.RWMutex
}

// NewMemoryRegistry creates a Registry kept in memory.
func NewMemoryRegistry() Registry {
	return &memoryRegistry{layers: make(map[string]*Layer)}
}

func (r *memoryRegistry) Get(_ context.Context, id string) (*Layer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.layers[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLayerNotFound, id)
	}
	return l.Clone(), nil
}

func (r *memoryRegistry) Put(_ context.Context, l *Layer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.layers[l.ID] = l.Clone()
	return nil
}

func (r *memoryRegistry) Remove(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.layers, id)
	return nil
}
