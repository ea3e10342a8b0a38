package metadata

import (
	"fmt"
	"sort"
	"sync"
)

// ProviderInfo describes a registered provider.
type ProviderInfo struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Capabilities []Capability `json:"capabilities"`
}

type registeredProvider struct {
	provider Provider
	caps     capabilitySet
}

// Registry holds the registered providers, keyed by normalized id.
// It is read concurrently by in-flight aggregations and mutated by plugin load/unload.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]registeredProvider
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]registeredProvider)}
}

// Register validates and adds a provider.
func (r *Registry) Register(p Provider) error {
	if p == nil {
		return fmt.Errorf("%w: provider is nil", ErrInvalidProvider)
	}
	id := NormalizeProviderID(p.ID())
	if id == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidProvider)
	}

	caps, err := newCapabilitySet(p)
	if err != nil {
		return fmt.Errorf("register provider %q: %w", id, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[id]; exists {
		return fmt.Errorf("%w: %q", ErrProviderAlreadyRegistered, id)
	}
	r.providers[id] = registeredProvider{provider: p, caps: caps}
	return nil
}

// Unregister removes a provider. It reports whether the provider was registered.
func (r *Registry) Unregister(id string) bool {
	id = NormalizeProviderID(id)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[id]; !exists {
		return false
	}
	delete(r.providers, id)
	return true
}

// Has reports whether a provider id is registered.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.providers[NormalizeProviderID(id)]
	return ok
}

func (r *Registry) get(id string) (registeredProvider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rp, ok := r.providers[NormalizeProviderID(id)]
	return rp, ok
}

// Get returns the provider registered under id.
func (r *Registry) Get(id string) (Provider, bool) {
	rp, ok := r.get(id)
	if !ok {
		return nil, false
	}
	return rp.provider, true
}

// Supports reports whether the provider declared the slot for the media type.
func (r *Registry) Supports(id string, mt MediaType, slot Slot) bool {
	rp, ok := r.get(id)
	return ok && rp.caps.has(mt, slot)
}

// List returns all registered providers sorted by id.
func (r *Registry) List() []ProviderInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ProviderInfo, 0, len(r.providers))
	for id, rp := range r.providers {
		out = append(out, ProviderInfo{
			ID:           id,
			Name:         rp.provider.Name(),
			Capabilities: rp.caps.list(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
