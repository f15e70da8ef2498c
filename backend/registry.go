package backend

import (
	"fmt"
	"sort"
	"sync"

	"github.com/gogpu/quad"
)

// Factory creates a new, uninitialized graphics context.
type Factory func() quad.GraphicsContext

// registry holds registered backends.
var (
	registryMu sync.RWMutex
	factories  = make(map[string]Factory)
	// Priority order for backend selection (first available wins).
	backendPriority = []string{BackendWGPU, BackendSoftware}
)

// Register registers a backend factory with the given name.
// This is typically called from init() functions in backend packages.
// If a backend with the same name is already registered, it is replaced.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	factories[name] = factory
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(factories, name)
}

// Available returns the registered backend names in sorted order.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered checks if a backend with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := factories[name]
	return ok
}

// Get returns a new context from the named backend.
// Returns nil if the backend is not registered.
func Get(name string) quad.GraphicsContext {
	registryMu.RLock()
	factory, ok := factories[name]
	registryMu.RUnlock()

	if !ok {
		return nil
	}
	return factory()
}

// Default returns a context from the best available backend based on
// priority: wgpu, then software, then any other registered backend.
// Returns nil if no backends are registered.
func Default() quad.GraphicsContext {
	registryMu.RLock()
	defer registryMu.RUnlock()

	for _, name := range backendPriority {
		if factory, ok := factories[name]; ok {
			if gc := factory(); gc != nil {
				return gc
			}
		}
	}

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if gc := factories[name](); gc != nil {
			return gc
		}
	}
	return nil
}

// Select returns a context for name, or for the default backend when name
// is empty or BackendAuto.
func Select(name string) (quad.GraphicsContext, error) {
	var gc quad.GraphicsContext
	if name == "" || name == BackendAuto {
		gc = Default()
	} else {
		gc = Get(name)
	}
	if gc == nil {
		return nil, fmt.Errorf("%w: %q (registered: %v)", ErrBackendNotAvailable, name, Available())
	}
	return gc, nil
}
