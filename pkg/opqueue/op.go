// Package opqueue implements the persistent operation algebra the relayer
// and its plugins compose work out of: Call/Data/Effect/Seq/Conc/Promise/
// Defer/Noop, run through periodic passes that let plugins fuse or reorder
// a bucket of ready ops before any of them executes.
package opqueue

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Op is the queue's unit of work, a struct-of-pointers sum type over the
// eight combinators, the same idiom used for ibc.FullIbcEvent and
// ibcvm.State. Every Op carries an ID stamped once at creation and
// preserved across retries and pass-driven rewrites, so a Promise can be
// matched back to the call that produced it even after a crash/restart.
type Op struct {
	ID uuid.UUID `json:"id"`

	Call    *CallOp    `json:"call,omitempty"`
	Data    *DataOp    `json:"data,omitempty"`
	Effect  *EffectOp  `json:"effect,omitempty"`
	Seq     *SeqOp     `json:"seq,omitempty"`
	Conc    *ConcOp    `json:"conc,omitempty"`
	Promise *PromiseOp `json:"promise,omitempty"`
	Defer   *DeferOp   `json:"defer,omitempty"`
	Noop    *NoopOp    `json:"noop,omitempty"`
}

// CallOp dispatches to a named plugin via its interest filter / @type
// prefix. Payload is an opaque, plugin-defined JSON document.
type CallOp struct {
	Plugin  string          `json:"plugin,omitempty"` // empty = router decides by interest filter
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// DataOp carries a plain data value through the queue with no associated
// action — an event waiting for a plugin interested in it to pick it up on
// the next pass.
type DataOp struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// EffectOp is the terminal op produced once a call has actually run: it
// carries the plugin's result back to whatever Promise is waiting on it.
type EffectOp struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// SeqOp runs its children strictly in order; the n-th child only starts
// once the (n-1)-th has resolved to a terminal (non-requeued) result.
type SeqOp struct {
	Ops []Op `json:"ops"`
}

// ConcOp runs its children independently and concurrently; the ConcOp
// itself resolves once every child has.
type ConcOp struct {
	Ops []Op `json:"ops"`
}

// PromiseOp wraps an inner op and, once it resolves, matches its Effect
// result against a named continuation the owning plugin registered — the
// named-callback model that keeps the queue JSON-serializable instead of
// holding a live Go closure.
type PromiseOp struct {
	Queue    Op     `json:"queue"`
	Callback string `json:"callback"`
}

// DeferOp is a backpressure marker: re-run Op no earlier than ReadyAt.
type DeferOp struct {
	Op      Op    `json:"op"`
	ReadyAt int64 `json:"ready_at"` // unix nanos
}

// NoopOp resolves immediately with nothing, closing out a fatal error or a
// redundant no-op branch.
type NoopOp struct{}

// newOp returns an empty Op with a newly stamped ID. Each exported
// constructor below populates exactly one variant of it.
func newOp() Op { return Op{ID: uuid.New()} }

func Call(plugin, typ string, payload json.RawMessage) Op {
	op := newOp()
	op.Call = &CallOp{Plugin: plugin, Type: typ, Payload: payload}
	return op
}

func Data(typ string, payload json.RawMessage) Op {
	op := newOp()
	op.Data = &DataOp{Type: typ, Payload: payload}
	return op
}

func Effect(typ string, payload json.RawMessage) Op {
	op := newOp()
	op.Effect = &EffectOp{Type: typ, Payload: payload}
	return op
}

func Seq(ops ...Op) Op {
	op := newOp()
	op.Seq = &SeqOp{Ops: ops}
	return op
}

func Conc(ops ...Op) Op {
	op := newOp()
	op.Conc = &ConcOp{Ops: ops}
	return op
}

func Promise(inner Op, callback string) Op {
	op := newOp()
	op.Promise = &PromiseOp{Queue: inner, Callback: callback}
	return op
}

func DeferUntil(inner Op, readyAtUnixNanos int64) Op {
	op := newOp()
	op.Defer = &DeferOp{Op: inner, ReadyAt: readyAtUnixNanos}
	return op
}

func Noop() Op {
	op := newOp()
	op.Noop = &NoopOp{}
	return op
}

// Kind names which variant an Op holds, for logging and metrics labels.
func (op Op) Kind() string {
	switch {
	case op.Call != nil:
		return "call"
	case op.Data != nil:
		return "data"
	case op.Effect != nil:
		return "effect"
	case op.Seq != nil:
		return "seq"
	case op.Conc != nil:
		return "conc"
	case op.Promise != nil:
		return "promise"
	case op.Defer != nil:
		return "defer"
	case op.Noop != nil:
		return "noop"
	default:
		return "unknown"
	}
}
