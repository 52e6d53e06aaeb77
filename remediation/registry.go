package remediation

import (
	"fmt"
	"slices"

	"github.com/swipswaps/kde-memory-guardian-sub002/severity"
)

// Registry holds the ordered set of remediation plugins. All registration
// happens at startup; afterwards the registry is read-only, so concurrent
// PluginsFor calls need no locking. Priority is expressed by registration
// order: higher-impact, lower-risk plugins register first.
type Registry struct {
	plugins []Plugin
}

func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) Register(p Plugin) error {
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin %q is already registered", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	return nil
}

// PluginsFor returns the plugins participating in the given level, in
// registration order. An empty result is a valid answer, not an error.
func (r *Registry) PluginsFor(level severity.Level) []Plugin {
	var applicable []Plugin
	for _, p := range r.plugins {
		if slices.Contains(p.AppliesTo(), level) {
			applicable = append(applicable, p)
		}
	}

	return applicable
}

func (r *Registry) Len() int {
	return len(r.plugins)
}
