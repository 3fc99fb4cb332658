package engine

import (
	"fmt"
	"runtime/debug"

	"github.com/petrijr/nodeflux/pkg/api"
)

// registryEntry relates an id to the factory producing its nodes. Broken
// entries come from factories whose id could not be read; they are listed
// but never dispatched.
type registryEntry struct {
	id      string
	factory api.Factory
	broken  error
}

// Registry maps node ids to factories. It is built once and never mutated
// afterwards, so concurrent reads need no locking.
type Registry struct {
	entries []registryEntry
	byID    map[string]api.Factory
}

// NewRegistry builds a registry from factories in catalogue order.
// Duplicate ids fail with api.ErrDuplicateNode.
func NewRegistry(factories ...api.Factory) (*Registry, error) {
	r := &Registry{
		entries: make([]registryEntry, 0, len(factories)),
		byID:    make(map[string]api.Factory, len(factories)),
	}

	for i, f := range factories {
		if f == nil {
			return nil, fmt.Errorf("catalogue entry %d has nil factory", i)
		}

		id, err := readID(f)
		if err != nil {
			r.entries = append(r.entries, registryEntry{id: api.UnknownNodeID, factory: f, broken: err})
			continue
		}
		if id == "" {
			return nil, fmt.Errorf("catalogue entry %d has empty node id", i)
		}
		if _, exists := r.byID[id]; exists {
			return nil, fmt.Errorf("%w: %q", api.ErrDuplicateNode, id)
		}

		r.byID[id] = f
		r.entries = append(r.entries, registryEntry{id: id, factory: f})
	}

	return r, nil
}

// readID constructs a throwaway instance to learn its id.
func readID(f api.Factory) (id string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic while reading node id: %v", rec)
		}
	}()
	n := f()
	if n == nil {
		return "", fmt.Errorf("factory returned nil node")
	}
	return n.Descriptor().ID, nil
}

// Lookup returns a fresh node for id. An unknown id gives an error
// wrapping api.ErrNodeNotFound; a factory that panics or returns nil gives
// any other error.
func (r *Registry) Lookup(id string) (api.Node, error) {
	f, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", api.ErrNodeNotFound, id)
	}
	return construct(id, f)
}

func construct(id string, f api.Factory) (n api.Node, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			n = nil
			err = &panicError{value: rec, stack: debug.Stack()}
		}
	}()
	n = f()
	if n == nil {
		return nil, fmt.Errorf("factory for node %q returned nil", id)
	}
	return n, nil
}

// IDs returns the dispatchable ids in catalogue order.
func (r *Registry) IDs() []string {
	out := make([]string, 0, len(r.byID))
	for _, e := range r.entries {
		if e.broken == nil {
			out = append(out, e.id)
		}
	}
	return out
}

// Len reports the number of catalogue entries, broken ones included.
func (r *Registry) Len() int { return len(r.entries) }
