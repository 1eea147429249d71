// Package modellimit resolves context-window sizes for observed model
// strings by longest-prefix match against an immutable registry.
package modellimit

import "strings"

// Spec describes one model family: the identifier prefix it matches, its
// context window in tokens, and the percentage of the window the runtime
// reserves before compacting.
type Spec struct {
	Prefix              string
	ContextWindow       int
	CompactionBufferPct float64
}

// Registry is an immutable prefix table built once at startup. Resolution
// is a pure function of (model string, registry).
type Registry struct {
	specs []Spec
}

// NewRegistry builds a registry from the given spec groups. Later groups
// (e.g. user overrides) replace earlier entries with the same prefix.
func NewRegistry(groups ...[]Spec) *Registry {
	byPrefix := make(map[string]int)
	var specs []Spec
	for _, group := range groups {
		for _, s := range group {
			if i, ok := byPrefix[s.Prefix]; ok {
				specs[i] = s
				continue
			}
			byPrefix[s.Prefix] = len(specs)
			specs = append(specs, s)
		}
	}
	return &Registry{specs: specs}
}

// Resolve returns the spec with the longest prefix matching model. An
// unmatched model yields ok == false, never an error.
func (r *Registry) Resolve(model string) (Spec, bool) {
	var best Spec
	found := false
	for _, s := range r.specs {
		if !strings.HasPrefix(model, s.Prefix) {
			continue
		}
		if !found || len(s.Prefix) > len(best.Prefix) {
			best = s
			found = true
		}
	}
	return best, found
}

// Window returns the context-window size for model, or ok == false when the
// model is unknown.
func (r *Registry) Window(model string) (int, bool) {
	s, ok := r.Resolve(model)
	if !ok {
		return 0, false
	}
	return s.ContextWindow, true
}
