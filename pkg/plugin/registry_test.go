package plugin

import (
	"context"
	"testing"

	"github.com/unionlabs/voyager/pkg/opqueue"
)

type stubPlugin struct {
	name   string
	filter Filter
}

func (p *stubPlugin) Info() Info { return Info{Name: p.name, InterestFilter: p.filter} }
func (p *stubPlugin) Call(context.Context, opqueue.CallOp) (opqueue.Op, error) {
	return opqueue.Op{}, nil
}
func (p *stubPlugin) RunPass(_ context.Context, ops []opqueue.Op) ([]opqueue.Op, error) {
	return ops, nil
}
func (p *stubPlugin) Callback(context.Context, string, opqueue.EffectOp) (opqueue.Op, error) {
	return opqueue.Op{}, nil
}

func TestRegistryRegisterGetHas(t *testing.T) {
	r := NewRegistry()
	p := &stubPlugin{name: "alpha"}
	if err := r.Register(p); err != nil {
		t.Fatalf("register: %v", err)
	}
	if !r.Has("alpha") {
		t.Error("expected Has to report the registered plugin")
	}
	got, ok := r.Get("alpha")
	if !ok || got != p {
		t.Error("expected Get to return the same plugin instance")
	}
}

func TestRegistryRejectsDuplicateName(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&stubPlugin{name: "alpha"}); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := r.Register(&stubPlugin{name: "alpha"}); err == nil {
		t.Fatal("expected a second registration under the same name to fail")
	}
}

func TestRegistryRejectsEmptyName(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&stubPlugin{name: ""}); err == nil {
		t.Fatal("expected a plugin with an empty name to be rejected")
	}
}

func TestRegistryInterested(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubPlugin{name: "evm", filter: Filter{Field: "call.type", Equals: "Submit"}})
	r.Register(&stubPlugin{name: "cosmos", filter: Filter{Field: "call.type", Equals: "Submit"}})
	r.Register(&stubPlugin{name: "other", filter: Filter{Field: "call.type", Equals: "Other"}})

	names := r.Interested(map[string]any{"call": map[string]any{"type": "Submit"}})
	if len(names) != 2 {
		t.Fatalf("len(names) = %d, want 2: %v", len(names), names)
	}
}

func TestRegistryList(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubPlugin{name: "alpha"})
	r.Register(&stubPlugin{name: "beta"})
	if len(r.List()) != 2 {
		t.Errorf("len(List()) = %d, want 2", len(r.List()))
	}
}
