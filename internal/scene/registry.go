package scene

import (
	"fmt"
	"sort"
	"sync"
)

// Registry is the in-memory collection of named scenes.
//
// Thread Safety: all methods are safe for concurrent use. Reads take a
// shared lock; mutations take an exclusive lock. Scenes are stored by
// value, so a caller can never mutate a registered scene in place.
type Registry struct {
	mu           sync.RWMutex
	scenes       map[string]Scene
	universeSize int
}

// NewRegistry creates an empty registry that validates scenes against the
// given universe size.
func NewRegistry(universeSize int) *Registry {
	return &Registry{
		scenes:       make(map[string]Scene),
		universeSize: universeSize,
	}
}

// Add validates and registers a scene, replacing any existing scene with
// the same name.
func (r *Registry) Add(name string, s Scene) error {
	if name == "" {
		return ErrEmptyName
	}
	if err := s.Validate(r.universeSize); err != nil {
		return fmt.Errorf("scene %q: %w", name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.scenes[name] = s
	return nil
}

// Remove deletes a scene by name.
func (r *Registry) Remove(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.scenes[name]; !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	delete(r.scenes, name)
	return nil
}

// Get returns the named scene.
func (r *Registry) Get(name string) (Scene, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.scenes[name]
	if !ok {
		return Scene{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return s, nil
}

// List returns all scene names in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.scenes))
	for name := range r.scenes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered scenes.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.scenes)
}
