// Package provider defines the interface extraction providers must satisfy
// to participate in fusion, and the registry the orchestrator resolves them
// from.
package provider

import (
	"context"
	"sort"
	"sync"

	"github.com/sells-group/blueprint-cli/internal/model"
)

// Provider is one extraction backend (OCR engine, layout model, doc-VQA
// model, vision LLM). ParseRegion must return a usable ProviderResult even
// on internal failure: empty candidates with Raw["error"] populated. The
// orchestrator treats a returned error the same way, so failure never
// propagates past this boundary.
type Provider interface {
	// Name returns the provider identifier used in weights and priority.
	Name() string
	// Supports reports whether the provider can parse a region type.
	Supports(rt model.RegionType) bool
	// ParseRegion extracts candidate entities from one region.
	ParseRegion(ctx context.Context, region model.Region) (*model.ProviderResult, error)
}

// Registry manages the available extraction providers.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
	}
}

// Register adds a provider to the registry.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
}

// Get returns a provider by name, or nil if not found.
func (r *Registry) Get(name string) Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.providers[name]
}

// List returns all registered provider names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}

// ForRegion returns the registered providers supporting a region type, in
// the order given by priority.
func (r *Registry) ForRegion(rt model.RegionType, priority []string) []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Provider
	seen := make(map[string]bool)
	for _, name := range priority {
		if p, ok := r.providers[name]; ok && p.Supports(rt) {
			out = append(out, p)
			seen[name] = true
		}
	}
	// Providers missing from the priority list still run, in name order so
	// dispatch stays deterministic.
	rest := make([]string, 0, len(r.providers))
	for name := range r.providers {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	for _, name := range rest {
		if p := r.providers[name]; p.Supports(rt) {
			out = append(out, p)
		}
	}
	return out
}
