package cosmos

import (
	"context"
	"fmt"

	"github.com/unionlabs/voyager/pkg/opqueue"
	"github.com/unionlabs/voyager/pkg/plugin"
	"github.com/unionlabs/voyager/pkg/txsubmit"
)

// Name is the plugin name this Submitter registers under.
func Name(chainID string) string { return "txsubmit.cosmos." + chainID }

// AsPlugin wraps s as a plugin.Plugin, mirroring the evm package's
// adapter so pkg/plugin.Router treats both chain families identically.
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
		return opqueue.Op{}, fmt.Errorf("cosmos: %s does not handle call type %q", p.name, call.Type)
	}
	req, err := txsubmit.DecodeSubmitCall(call.Payload)
	if err != nil {
		return opqueue.Op{}, fmt.Errorf("cosmos: decode submit call: %w", err)
	}
	result, err := p.s.Submit(ctx, req.KeyAddr, req.Messages)
	if err != nil {
		return opqueue.Op{}, err
	}
	next, err := txsubmit.NextOp(p.name, call.Type, req, result)
	if err != nil {
		return opqueue.Op{}, fmt.Errorf("cosmos: %w", err)
	}
	return next, nil
}

func (p *submitterPlugin) RunPass(_ context.Context, ops []opqueue.Op) ([]opqueue.Op, error) {
	return ops, nil
}

func (p *submitterPlugin) Callback(_ context.Context, name string, _ opqueue.EffectOp) (opqueue.Op, error) {
	return opqueue.Op{}, fmt.Errorf("cosmos: %s has no registered callback %q", p.name, name)
}
