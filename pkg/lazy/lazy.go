// Package lazy provides a load-once value for expensive node resources
// such as lookup tables and API clients.
package lazy

import (
	"context"
	"sync"
)

// Loader produces the value held by a Value.
type Loader[T any] func(ctx context.Context) (T, error)

// Value loads its content on first use and caches it after the first
// successful load. A failed load is not cached; the next caller retries.
// Concurrent first callers block until the in-flight load finishes.
//
// The zero Value has no loader and every Get fails; create one with New
// or Of.
type Value[T any] struct {
	mu     sync.Mutex
	load   Loader[T]
	value  T
	loaded bool
}

// New returns a Value backed by load.
func New[T any](load Loader[T]) *Value[T] {
	return &Value[T]{load: load}
}

// Of returns a Value that is already loaded with v. Tests use it to inject
// fixtures in place of the real loader.
func Of[T any](v T) *Value[T] {
	return &Value[T]{value: v, loaded: true}
}

// Get returns the cached value, loading it first if needed.
func (v *Value[T]) Get(ctx context.Context) (T, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.loaded {
		return v.value, nil
	}

	var zero T
	if v.load == nil {
		return zero, errNoLoader
	}
	val, err := v.load(ctx)
	if err != nil {
		return zero, err
	}
	v.value = val
	v.loaded = true
	return val, nil
}

// Loaded reports whether a value has been cached.
func (v *Value[T]) Loaded() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loaded
}

// Reset drops the cached value so the next Get loads again.
func (v *Value[T]) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	var zero T
	v.value = zero
	v.loaded = false
}
