package txsubmit

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/unionlabs/voyager/pkg/opqueue"
)

// NextOp maps a Submit outcome onto the queue's continuation algebra, the
// wiring spec's revert-classification tables describe but a bare
// Result/error return can't express on its own:
//
//   - every message landed: a terminal Effect carrying the Result.
//   - any message classified ActionDefer: a Defer wrapping a retry Call for
//     the same key/messages, ready after the classification's Delay (spec's
//     "Seq([Defer(dt), Effect(same_msg)])" continuation — realized here as
//     a Defer around the retry Call itself, since an EffectOp is terminal
//     in this engine and can't be the thing that actually resubmits).
//   - any message classified ActionRetrySequence: an immediate re-enqueue
//     of the same Call, expecting a fresh nonce/sequence next attempt.
//   - otherwise (only ActionFatal failures left): Noop, dropping the batch.
//
// An EmptyRevert Defer that has already been retried MaxEmptyRevertRetries
// times is escalated to Noop instead of deferred again.
func NextOp(pluginName, callType string, payload SubmitCallPayload, result Result) (opqueue.Op, error) {
	if len(result.PerMsg) == 0 {
		return opqueue.Op{}, fmt.Errorf("txsubmit: submit returned no per-message results")
	}

	var deferred *Classification
	var retrySequence, fatal bool
	for i := range result.PerMsg {
		m := &result.PerMsg[i]
		if m.Success {
			continue
		}
		switch m.Classification.Action {
		case ActionDefer:
			if deferred == nil || m.Classification.Delay > deferred.Delay {
				deferred = &m.Classification
			}
		case ActionRetrySequence:
			retrySequence = true
		default:
			fatal = true
		}
	}

	switch {
	case deferred != nil:
		if deferred.Reason == ReasonEmptyRevert && payload.RetryAttempt >= MaxEmptyRevertRetries {
			return opqueue.Noop(), nil
		}
		retry := payload
		if deferred.Reason == ReasonEmptyRevert {
			retry.RetryAttempt++
		}
		retryCall, err := encodeRetryCall(pluginName, callType, retry)
		if err != nil {
			return opqueue.Op{}, err
		}
		return opqueue.DeferUntil(retryCall, time.Now().Add(deferred.Delay).UnixNano()), nil
	case retrySequence:
		return encodeRetryCall(pluginName, callType, payload)
	case fatal:
		return opqueue.Noop(), nil
	default:
		resultPayload, err := EncodeSubmitResult(result)
		if err != nil {
			return opqueue.Op{}, fmt.Errorf("txsubmit: encode submit result: %w", err)
		}
		return opqueue.Effect(SubmitResultType, resultPayload), nil
	}
}

func encodeRetryCall(pluginName, callType string, payload SubmitCallPayload) (opqueue.Op, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return opqueue.Op{}, fmt.Errorf("txsubmit: encode retry payload: %w", err)
	}
	return opqueue.Call(pluginName, callType, encoded), nil
}
