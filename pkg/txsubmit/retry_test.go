package txsubmit

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNextOpAllSuccessReturnsTerminalEffect(t *testing.T) {
	payload := SubmitCallPayload{KeyAddr: "0xabc", Messages: []Message{{ID: "m1"}, {ID: "m2"}}}
	result := Result{
		TxHash: "0xdead", Submitted: true,
		PerMsg: []MessageResult{
			{MessageID: "m1", Success: true},
			{MessageID: "m2", Success: true},
		},
	}

	op, err := NextOp("evm:1", SubmitCallType, payload, result)
	if err != nil {
		t.Fatalf("NextOp: %v", err)
	}
	if op.Effect == nil {
		t.Fatalf("expected a terminal Effect op, got %+v", op)
	}
	if op.Effect.Type != SubmitResultType {
		t.Errorf("Effect.Type = %q, want %q", op.Effect.Type, SubmitResultType)
	}
	var decoded Result
	if err := json.Unmarshal(op.Effect.Payload, &decoded); err != nil {
		t.Fatalf("decode effect payload: %v", err)
	}
	if decoded.TxHash != "0xdead" {
		t.Errorf("decoded TxHash = %q, want 0xdead", decoded.TxHash)
	}
}

func TestNextOpEmptyRevertDefersAndIncrementsRetryAttempt(t *testing.T) {
	payload := SubmitCallPayload{KeyAddr: "0xabc", Messages: []Message{{ID: "m1"}}, RetryAttempt: 1}
	result := Result{
		PerMsg: []MessageResult{
			{MessageID: "m1", Success: false, Classification: Classification{Action: ActionDefer, Delay: 12 * time.Second, Reason: ReasonEmptyRevert}},
		},
	}

	op, err := NextOp("evm:1", SubmitCallType, payload, result)
	if err != nil {
		t.Fatalf("NextOp: %v", err)
	}
	if op.Defer == nil {
		t.Fatalf("expected a Defer op, got %+v", op)
	}
	if op.Defer.Op.Call == nil {
		t.Fatalf("expected the deferred op to wrap a Call, got %+v", op.Defer.Op)
	}
	if op.Defer.Op.Call.Plugin != "evm:1" || op.Defer.Op.Call.Type != SubmitCallType {
		t.Errorf("retry Call = %+v, want plugin evm:1 type %s", op.Defer.Op.Call, SubmitCallType)
	}

	var retried SubmitCallPayload
	if err := json.Unmarshal(op.Defer.Op.Call.Payload, &retried); err != nil {
		t.Fatalf("decode retry payload: %v", err)
	}
	if retried.RetryAttempt != 2 {
		t.Errorf("retried.RetryAttempt = %d, want 2", retried.RetryAttempt)
	}

	wantReadyAt := time.Now().Add(12 * time.Second).UnixNano()
	if delta := wantReadyAt - op.Defer.ReadyAt; delta < -int64(time.Second) || delta > int64(time.Second) {
		t.Errorf("ReadyAt = %d, want close to %d", op.Defer.ReadyAt, wantReadyAt)
	}
}

func TestNextOpEmptyRevertAtCapGoesFatal(t *testing.T) {
	payload := SubmitCallPayload{KeyAddr: "0xabc", Messages: []Message{{ID: "m1"}}, RetryAttempt: MaxEmptyRevertRetries}
	result := Result{
		PerMsg: []MessageResult{
			{MessageID: "m1", Success: false, Classification: Classification{Action: ActionDefer, Delay: 12 * time.Second, Reason: ReasonEmptyRevert}},
		},
	}

	op, err := NextOp("evm:1", SubmitCallType, payload, result)
	if err != nil {
		t.Fatalf("NextOp: %v", err)
	}
	if op.Noop == nil {
		t.Fatalf("expected a Noop op once MaxEmptyRevertRetries is reached, got %+v", op)
	}
}

func TestNextOpNonEmptyRevertDeferDoesNotIncrementRetryAttempt(t *testing.T) {
	payload := SubmitCallPayload{KeyAddr: "0xabc", Messages: []Message{{ID: "m1"}}, RetryAttempt: MaxEmptyRevertRetries}
	result := Result{
		PerMsg: []MessageResult{
			{MessageID: "m1", Success: false, Classification: Classification{Action: ActionDefer, Delay: 6 * time.Second, Reason: "gas price too high"}},
		},
	}

	op, err := NextOp("evm:1", SubmitCallType, payload, result)
	if err != nil {
		t.Fatalf("NextOp: %v", err)
	}
	if op.Defer == nil {
		t.Fatalf("expected a Defer op (gas-price defers aren't capped), got %+v", op)
	}
	var retried SubmitCallPayload
	if err := json.Unmarshal(op.Defer.Op.Call.Payload, &retried); err != nil {
		t.Fatalf("decode retry payload: %v", err)
	}
	if retried.RetryAttempt != MaxEmptyRevertRetries {
		t.Errorf("retried.RetryAttempt = %d, want unchanged at %d", retried.RetryAttempt, MaxEmptyRevertRetries)
	}
}

func TestNextOpRetrySequenceReenqueuesImmediately(t *testing.T) {
	payload := SubmitCallPayload{KeyAddr: "cosmos1abc", Messages: []Message{{ID: "m1"}}}
	result := Result{
		PerMsg: []MessageResult{
			{MessageID: "m1", Success: false, Classification: Classification{Action: ActionRetrySequence, Reason: "wrong sequence"}},
		},
	}

	op, err := NextOp("cosmos:osmosis-1", SubmitCallType, payload, result)
	if err != nil {
		t.Fatalf("NextOp: %v", err)
	}
	if op.Call == nil {
		t.Fatalf("expected an immediate retry Call, got %+v", op)
	}
	if op.Call.Plugin != "cosmos:osmosis-1" {
		t.Errorf("retry Call.Plugin = %q, want cosmos:osmosis-1", op.Call.Plugin)
	}
}

func TestNextOpMixedFatalAndSuccessIsNoop(t *testing.T) {
	// S6: msg1/msg3 land, msg2 reverts fatally. The batch resolves to Noop;
	// there is no re-enqueue carrying msg1/msg3 forward.
	payload := SubmitCallPayload{KeyAddr: "0xabc", Messages: []Message{{ID: "m1"}, {ID: "m2"}, {ID: "m3"}}}
	result := Result{
		Submitted: true,
		PerMsg: []MessageResult{
			{MessageID: "m1", Success: true},
			{MessageID: "m2", Success: false, Classification: Classification{Action: ActionFatal, Reason: "known revert selector: PacketNotFound", WellKnown: true}},
			{MessageID: "m3", Success: true},
		},
	}

	op, err := NextOp("evm:1", SubmitCallType, payload, result)
	if err != nil {
		t.Fatalf("NextOp: %v", err)
	}
	if op.Noop == nil {
		t.Fatalf("expected Noop for a partially-fatal batch, got %+v", op)
	}
}

func TestNextOpErrorsOnEmptyPerMsg(t *testing.T) {
	payload := SubmitCallPayload{KeyAddr: "0xabc"}
	if _, err := NextOp("evm:1", SubmitCallType, payload, Result{}); err == nil {
		t.Fatal("expected an error for a Result with no PerMsg entries")
	}
}
