package plugin

import (
	"fmt"
	"sort"
	"sync"

	muleopserrors "github.com/muleops/muleops/pkg/errors"
)

// Registry maps step types to plugin implementations. Plugins carry injected
// collaborators (CLI, REST client, build tool), so registration happens per
// invocation rather than through package init.
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]Plugin
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{plugins: make(map[string]Plugin)}
}

// Register adds a plugin implementation for the provided step type.
func (r *Registry) Register(stepType string, p Plugin) error {
	if p == nil {
		return muleopserrors.NewPluginError(stepType, fmt.Errorf("plugin is nil"))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.plugins[stepType]; exists {
		return muleopserrors.NewPluginError(stepType, fmt.Errorf("plugin already registered"))
	}

	r.plugins[stepType] = p
	return nil
}

// Get retrieves a plugin by step type.
func (r *Registry) Get(stepType string) (Plugin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.plugins[stepType]
	if !ok {
		return nil, muleopserrors.NewPluginError(stepType, fmt.Errorf("no plugin registered"))
	}

	return p, nil
}

// Types returns the registered step types in sorted order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.plugins))
	for t := range r.plugins {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
