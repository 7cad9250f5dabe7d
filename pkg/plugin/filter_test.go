package plugin

import "testing"

func TestFilterEquals(t *testing.T) {
	f := Filter{Field: "call.type", Equals: "Submit"}
	if !f.Match(map[string]any{"call": map[string]any{"type": "Submit"}}) {
		t.Error("expected exact match")
	}
	if f.Match(map[string]any{"call": map[string]any{"type": "Other"}}) {
		t.Error("expected mismatch to not match")
	}
}

func TestFilterPrefix(t *testing.T) {
	f := Filter{Field: "call.type", Prefix: "ibc.v1.Msg"}
	if !f.Match(map[string]any{"call": map[string]any{"type": "ibc.v1.MsgRecvPacket"}}) {
		t.Error("expected prefix match")
	}
	if f.Match(map[string]any{"call": map[string]any{"type": "other.v1.MsgFoo"}}) {
		t.Error("expected prefix mismatch to not match")
	}
}

func TestFilterAnyAll(t *testing.T) {
	any := Filter{Any: []Filter{
		{Field: "call.type", Equals: "A"},
		{Field: "call.type", Equals: "B"},
	}}
	if !any.Match(map[string]any{"call": map[string]any{"type": "B"}}) {
		t.Error("expected Any to match on second branch")
	}
	if any.Match(map[string]any{"call": map[string]any{"type": "C"}}) {
		t.Error("expected Any to reject unmatched value")
	}

	all := Filter{All: []Filter{
		{Field: "call.type", Equals: "A"},
		{Field: "call.plugin", Equals: "x"},
	}}
	if !all.Match(map[string]any{"call": map[string]any{"type": "A", "plugin": "x"}}) {
		t.Error("expected All to match when every branch matches")
	}
	if all.Match(map[string]any{"call": map[string]any{"type": "A", "plugin": "y"}}) {
		t.Error("expected All to reject a partial match")
	}
}

func TestFilterMatchAll(t *testing.T) {
	f := Filter{MatchAll: true}
	if !f.Match(map[string]any{}) {
		t.Error("expected MatchAll to match any summary, including empty")
	}
}

func TestFilterMissingFieldDoesNotMatch(t *testing.T) {
	f := Filter{Field: "call.type", Equals: "Submit"}
	if f.Match(map[string]any{"data": map[string]any{"type": "Submit"}}) {
		t.Error("expected no match when the dotted path is absent")
	}
}

func TestFilterEqualsAcrossJSONTypes(t *testing.T) {
	f := Filter{Field: "call.code", Equals: 5}
	// A summary built from a real json.Unmarshal decodes numbers as
	// float64; equalJSON must still treat it as equal to an int literal.
	if !f.Match(map[string]any{"call": map[string]any{"code": float64(5)}}) {
		t.Error("expected int Equals to match a float64-decoded summary value")
	}
}
