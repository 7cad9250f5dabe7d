package evm

import (
	"context"
	"fmt"

	"github.com/unionlabs/voyager/pkg/opqueue"
	"github.com/unionlabs/voyager/pkg/plugin"
	"github.com/unionlabs/voyager/pkg/txsubmit"
)

// Name is the plugin name this Submitter registers under; callers that
// want a specific EVM chain's submitter rather than interest-filter
// dispatch address opqueue.CallOp.Plugin as Name(chainID).
func Name(chainID string) string { return "txsubmit.evm." + chainID }

// AsPlugin wraps s as a plugin.Plugin registered under Name(chainID),
// interested in txsubmit.SubmitCallType calls, so pkg/plugin.Router
// dispatches a datagram assembler's terminal Submit op to it exactly like
// any in-process chain module.
func (s *Submitter) AsPlugin(chainID string) plugin.Plugin {
	return &submitterPlugin{s: s, name: Name(chainID)}
}

type submitterPlugin struct {
	s    *Submitter
	name string
}

func (p *submitterPlugin) Info() plugin.Info {
	return plugin.Info{
		Name:           p.name,
		InterestFilter: plugin.Filter{Field: "call.type", Equals: txsubmit.SubmitCallType},
	}
}

func (p *submitterPlugin) Call(ctx context.Context, call opqueue.CallOp) (opqueue.Op, error) {
	if call.Type != txsubmit.SubmitCallType {
		return opqueue.Op{}, fmt.Errorf("evm: %s does not handle call type %q", p.name, call.Type)
	}
	req, err := txsubmit.DecodeSubmitCall(call.Payload)
	if err != nil {
		return opqueue.Op{}, fmt.Errorf("evm: decode submit call: %w", err)
	}
	result, err := p.s.Submit(ctx, req.KeyAddr, req.Messages)
	if err != nil {
		return opqueue.Op{}, err
	}
	next, err := txsubmit.NextOp(p.name, call.Type, req, result)
	if err != nil {
		return opqueue.Op{}, fmt.Errorf("evm: %w", err)
	}
	return next, nil
}

func (p *submitterPlugin) RunPass(_ context.Context, ops []opqueue.Op) ([]opqueue.Op, error) {
	return ops, nil
}

func (p *submitterPlugin) Callback(_ context.Context, name string, _ opqueue.EffectOp) (opqueue.Op, error) {
	return opqueue.Op{}, fmt.Errorf("evm: %s has no registered callback %q", p.name, name)
}
