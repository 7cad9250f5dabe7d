package plugin

import (
	"context"
	"fmt"

	"github.com/unionlabs/voyager/pkg/opqueue"
)

// Router implements opqueue.Executor over a Registry: Call ops dispatch to
// a named plugin (or, if CallOp.Plugin is empty, to whichever registered
// plugin's interest filter matches first); Seq/Conc ops are expanded one
// step at a time; Promise ops resolve their inner op and hand the result
// to the named Continuation; Defer/Noop resolve trivially.
type Router struct {
	registry  *Registry
	callbacks *opqueue.Callbacks
}

// NewRouter builds a Router over registry, resolving Promise callbacks
// through callbacks.
func NewRouter(registry *Registry, callbacks *opqueue.Callbacks) *Router {
	return &Router{registry: registry, callbacks: callbacks}
}

// Execute implements opqueue.Executor.
func (r *Router) Execute(ctx context.Context, op opqueue.Op) (*opqueue.Op, error) {
	switch {
	case op.Call != nil:
		return r.executeCall(ctx, *op.Call)
	case op.Data != nil:
		return r.executeData(ctx, *op.Data)
	case op.Effect != nil:
		return nil, nil // effects are terminal; nothing left to run
	case op.Seq != nil:
		return r.executeSeq(ctx, *op.Seq)
	case op.Conc != nil:
		return r.executeConc(ctx, *op.Conc)
	case op.Promise != nil:
		return r.executePromise(ctx, *op.Promise)
	case op.Defer != nil:
		return r.executeDefer(op)
	case op.Noop != nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("plugin: op has no populated variant")
	}
}

func (r *Router) resolvePlugin(call opqueue.CallOp) (Plugin, error) {
	if call.Plugin != "" {
		p, ok := r.registry.Get(call.Plugin)
		if !ok {
			return nil, fmt.Errorf("plugin: %q is not registered", call.Plugin)
		}
		return p, nil
	}
	summary := map[string]any{"call": map[string]any{"type": call.Type}}
	names := r.registry.Interested(summary)
	if len(names) == 0 {
		return nil, fmt.Errorf("plugin: no plugin interested in call type %q", call.Type)
	}
	p, _ := r.registry.Get(names[0])
	return p, nil
}

func (r *Router) executeCall(ctx context.Context, call opqueue.CallOp) (*opqueue.Op, error) {
	p, err := r.resolvePlugin(call)
	if err != nil {
		return nil, err
	}
	next, err := p.Call(ctx, call)
	if err != nil {
		return nil, err
	}
	return &next, nil
}

func (r *Router) executeData(ctx context.Context, data opqueue.DataOp) (*opqueue.Op, error) {
	summary := map[string]any{"data": map[string]any{"type": data.Type}}
	names := r.registry.Interested(summary)
	var lastErr error
	for _, name := range names {
		p, _ := r.registry.Get(name)
		if _, err := p.Call(ctx, opqueue.CallOp{Plugin: name, Type: data.Type, Payload: data.Payload}); err != nil {
			lastErr = err
		}
	}
	return nil, lastErr
}

func (r *Router) executeSeq(ctx context.Context, seq opqueue.SeqOp) (*opqueue.Op, error) {
	if len(seq.Ops) == 0 {
		return nil, nil
	}
	head := seq.Ops[0]
	next, err := r.Execute(ctx, head)
	if err != nil {
		return nil, err
	}
	rest := seq.Ops[1:]
	if next != nil && next.Effect == nil && next.Noop == nil {
		// The head has not resolved yet: keep its continuation in front of
		// the rest, hoisting a Defer so the whole Seq waits for it.
		if next.Defer != nil {
			cont := opqueue.DeferUntil(opqueue.Seq(append([]opqueue.Op{next.Defer.Op}, rest...)...), next.Defer.ReadyAt)
			return &cont, nil
		}
		cont := opqueue.Seq(append([]opqueue.Op{*next}, rest...)...)
		return &cont, nil
	}
	if len(rest) == 0 {
		return nil, nil
	}
	restOp := opqueue.Seq(rest...)
	return &restOp, nil
}

func (r *Router) executeConc(ctx context.Context, conc opqueue.ConcOp) (*opqueue.Op, error) {
	errs := make(chan error, len(conc.Ops))
	for _, child := range conc.Ops {
		child := child
		go func() {
			_, err := r.Execute(ctx, child)
			errs <- err
		}()
	}
	var firstErr error
	for range conc.Ops {
		if err := <-errs; err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}

func (r *Router) executePromise(ctx context.Context, p opqueue.PromiseOp) (*opqueue.Op, error) {
	resolved, err := r.Execute(ctx, p.Queue)
	if err != nil {
		return nil, err
	}
	if resolved == nil || resolved.Effect == nil {
		// Inner op hasn't produced an Effect yet (e.g. it was a Seq with
		// more steps); keep waiting under the same Promise.
		if resolved == nil {
			return nil, nil
		}
		next := opqueue.Promise(*resolved, p.Callback)
		return &next, nil
	}
	next, err := r.callbacks.Resolve(ctx, p.Callback, *resolved.Effect)
	if err != nil {
		return nil, err
	}
	return &next, nil
}

func (r *Router) executeDefer(op opqueue.Op) (*opqueue.Op, error) {
	// Defer resolution (checking ReadyAt) is the Queue's job at claim time;
	// by the time Execute sees a Defer it is already ready, so unwrap it.
	inner := op.Defer.Op
	return &inner, nil
}
