package flow

import (
	"fmt"
	"sort"
	"sync"
)

// Registry provides named lookup for dynamic pipeline construction.
// Operations registered here can be referenced from YAML definitions;
// transforms registered here can be resolved by process-pool workers.
type Registry[T any] struct {
	mu      sync.RWMutex
	entries map[string]T
}

// NewRegistry creates a new empty Registry.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{entries: make(map[string]T)}
}

// Register adds an entry under name. Empty or duplicate names are errors.
func (r *Registry[T]) Register(name string, v T) error {
	if name == "" {
		return fmt.Errorf("flow: registry: empty name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[name]; exists {
		return fmt.Errorf("flow: registry: %q already registered", name)
	}
	r.entries[name] = v
	return nil
}

// MustRegister is Register that panics on error. For package init blocks.
func (r *Registry[T]) MustRegister(name string, v T) {
	if err := r.Register(name, v); err != nil {
		panic(err)
	}
}

// Get retrieves an entry by name.
func (r *Registry[T]) Get(name string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.entries[name]
	return v, ok
}

// List returns sorted names of all registered entries.
func (r *Registry[T]) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
