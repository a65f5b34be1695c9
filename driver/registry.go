package driver

import (
	"sort"
	"sync"
)

// Well-known backend names.
const (
	// BackendVulkan is the gogpu/wgpu HAL driver.
	BackendVulkan = "vulkan"

	// BackendSoft is the in-memory software driver.
	BackendSoft = "soft"
)

// Factory creates a backend.
type Factory func() Backend

var (
	registryMu sync.RWMutex
	backends   = make(map[string]Factory)
	// Priority order for backend selection (first available wins).
	backendPriority = []string{BackendVulkan, BackendSoft}
)

// Register registers a backend factory with the given name.
// This is typically called from init() functions in driver packages.
// A backend with the same name is replaced.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	backends[name] = factory
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(backends, name)
}

// Available returns the sorted names of registered backends.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns a backend by name, or nil if it is not registered.
func Get(name string) Backend {
	registryMu.RLock()
	defer registryMu.RUnlock()

	factory, ok := backends[name]
	if !ok {
		return nil
	}
	return factory()
}

// Default returns the best available backend based on priority.
// Returns nil if no backends are registered.
func Default() Backend {
	if bs := Prioritized(); len(bs) > 0 {
		return bs[0]
	}
	return nil
}

// Prioritized returns the available backends of the priority list, best
// first. Callers that fail to open one may fall through to the next.
func Prioritized() []Backend {
	registryMu.RLock()
	defer registryMu.RUnlock()

	var out []Backend
	for _, name := range backendPriority {
		if factory, ok := backends[name]; ok {
			if b := factory(); b != nil {
				out = append(out, b)
			}
		}
	}
	return out
}
