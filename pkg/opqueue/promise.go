package opqueue

import (
	"context"
	"fmt"
	"sync"
)

// Continuation resolves a Promise's Effect into the Op that should run
// next.
type Continuation func(ctx context.Context, effect EffectOp) (Op, error)

// Callbacks is a process-wide registry of named continuations. Promise
// carries only the name, not a Go closure, so it stays JSON-serializable
// across restarts; the name is resolved back to a live function from
// whichever plugin registered it when the process that wrote the Promise
// comes back up. Two processes never need to agree on anything but the
// name.
type Callbacks struct {
	mu  sync.RWMutex
	fns map[string]Continuation
}

// NewCallbacks returns an empty registry.
func NewCallbacks() *Callbacks {
	return &Callbacks{fns: map[string]Continuation{}}
}

// Register adds or replaces the continuation for name.
func (c *Callbacks) Register(name string, fn Continuation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fns[name] = fn
}

// Resolve looks up name, erroring if nothing registered it — the case
// where a Promise was persisted by a plugin binary that isn't part of the
// current process (a configuration error, not a transient condition).
func (c *Callbacks) Resolve(ctx context.Context, name string, effect EffectOp) (Op, error) {
	c.mu.RLock()
	fn, ok := c.fns[name]
	c.mu.RUnlock()
	if !ok {
		return Op{}, fmt.Errorf("opqueue: no continuation registered for callback %q", name)
	}
	return fn(ctx, effect)
}
