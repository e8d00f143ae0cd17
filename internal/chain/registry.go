package chain

import "strings"

// registryEntry pairs a Provider with its static configuration and owned
// breaker state.
type registryEntry struct {
	provider Provider
	config   ProviderConfig
	circuit  *CircuitState
}

// ProviderRegistry is an immutable name→provider mapping built at startup
// (spec §4.5). Lookups are case-insensitive. Membership does not imply
// Enabled — that bit lives on each entry's ProviderConfig and is re-checked
// by the chain on every request.
type ProviderRegistry struct {
	byName map[string]*registryEntry
	order  []*registryEntry // insertion order; chain re-sorts by priority
}

// NewProviderRegistry builds an immutable registry from providers paired
// with their static config, each given its own CircuitState driven by
// clock. Construction panics if two entries collide on a case-insensitive
// name, or if a provider's own Name() disagrees with its ProviderConfig.Name
// — both indicate a wiring bug at startup, not a runtime condition.
func NewProviderRegistry(clock Clock, entries ...RegistryEntry) *ProviderRegistry {
	r := &ProviderRegistry{byName: make(map[string]*registryEntry, len(entries))}
	for _, e := range entries {
		if !strings.EqualFold(e.Provider.Name(), e.Config.Name) {
			panic("chain: provider name " + e.Provider.Name() + " does not match config name " + e.Config.Name)
		}
		key := strings.ToLower(e.Config.Name)
		if _, exists := r.byName[key]; exists {
			panic("chain: duplicate provider name " + e.Config.Name)
		}
		entry := &registryEntry{
			provider: e.Provider,
			config:   e.Config,
			circuit:  NewCircuitState(e.Config.Name, e.Config.Breaker, clock),
		}
		r.byName[key] = entry
		r.order = append(r.order, entry)
	}
	return r
}

// RegistryEntry is the construction-time pairing of a Provider with its
// static ProviderConfig, passed to NewProviderRegistry.
type RegistryEntry struct {
	Provider Provider
	Config   ProviderConfig
}

// lookup returns the registry entry for name (case-insensitive), or nil.
func (r *ProviderRegistry) lookup(name string) *registryEntry {
	return r.byName[strings.ToLower(name)]
}

// enabledInPriorityOrder returns every enabled entry sorted ascending by
// Priority, breaking ties by registration order (a stable sort).
func (r *ProviderRegistry) enabledInPriorityOrder() []*registryEntry {
	out := make([]*registryEntry, 0, len(r.order))
	for _, e := range r.order {
		if e.config.Enabled {
			out = append(out, e)
		}
	}
	// Stable insertion sort keeps registration order for equal priorities
	// without pulling in sort.SliceStable for a handful of providers.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].config.Priority < out[j-1].config.Priority; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// CircuitStateFor exposes a provider's breaker state for diagnostics and
// tests; returns nil if name is not registered.
func (r *ProviderRegistry) CircuitStateFor(name string) *CircuitState {
	e := r.lookup(name)
	if e == nil {
		return nil
	}
	return e.circuit
}

// All returns every registered entry in registration order, regardless of
// Enabled.
func (r *ProviderRegistry) All() []*registryEntry {
	return r.order
}
