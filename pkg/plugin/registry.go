// Package plugin implements the PluginRegistry and Router: a name-indexed
// registry of Plugin implementations, each advertising an interest filter,
// routed to via a small JSON-selector DSL and @type-prefix dispatch.
package plugin

import (
	"context"
	"fmt"
	"sync"

	"github.com/unionlabs/voyager/pkg/opqueue"
)

// Info is what a Plugin advertises about itself at registration time.
type Info struct {
	Name           string
	InterestFilter Filter
}

// Plugin is the contract every chain module, consensus module, proof
// module and transaction plugin implements. Call handles a single Op
// synchronously, returning whatever continuation Op should run next: a
// terminal Effect on success, a Noop to drop a fatal failure, or a Defer
// wrapping a retry Call for a transient one. RunPass offers a plugin the
// chance to fuse/reorder a bucket of its own ready ops before any of them
// run; Callback resolves a Promise this plugin previously registered.
type Plugin interface {
	Info() Info
	Call(ctx context.Context, call opqueue.CallOp) (opqueue.Op, error)
	RunPass(ctx context.Context, ops []opqueue.Op) ([]opqueue.Op, error)
	Callback(ctx context.Context, name string, effect opqueue.EffectOp) (opqueue.Op, error)
}

// Registry is a name-indexed set of Plugins, generalized from this tree's
// attestation/chain strategy registry into a single registry keyed by
// plugin name, since here a "plugin" already encompasses what that
// registry split across two maps (chain strategy + attestation strategy).
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]Plugin
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{plugins: map[string]Plugin{}}
}

// Register adds p under its own advertised name, erroring on a duplicate
// so a misconfigured second instance of a plugin is caught at startup
// rather than silently shadowing the first.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := p.Info().Name
	if name == "" {
		return fmt.Errorf("plugin: registered plugin must advertise a non-empty name")
	}
	if _, exists := r.plugins[name]; exists {
		return fmt.Errorf("plugin: %q is already registered", name)
	}
	r.plugins[name] = p
	return nil
}

// Get returns the plugin registered under name, or (nil, false).
func (r *Registry) Get(name string) (Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plugins[name]
	return p, ok
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// List returns every registered plugin's Info, for the admin /plugins
// endpoint.
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Info, 0, len(r.plugins))
	for _, p := range r.plugins {
		out = append(out, p.Info())
	}
	return out
}

// Interested returns the names of every registered plugin whose interest
// filter matches summary, used by the Router to decide who a bare Data/Call
// (with no Plugin field set) should go to.
func (r *Registry) Interested(summary map[string]any) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var names []string
	for name, p := range r.plugins {
		if p.Info().InterestFilter.Match(summary) {
			names = append(names, name)
		}
	}
	return names
}

var (
	globalRegistry     *Registry
	globalRegistryOnce sync.Once
)

// Global returns the process-wide Registry singleton, created on first
// use.
func Global() *Registry {
	globalRegistryOnce.Do(func() { globalRegistry = NewRegistry() })
	return globalRegistry
}

// SetGlobal overrides the process-wide singleton; for tests only.
func SetGlobal(r *Registry) {
	globalRegistry = r
}
