package txsubmit

import "encoding/json"

// SubmitCallType is the opqueue.CallOp.Type a Submitter plugin registers
// interest in: the terminal leg of a relayer.DatagramAssembler's Seq,
// carrying the already-encoded messages a keyed signer should broadcast.
const SubmitCallType = "Submit"

// SubmitCallPayload is the JSON shape of a SubmitCallType CallOp's
// Payload, shared by every chain-specific Submitter plugin so the
// relayer assembler never needs to know which backend will execute it.
type SubmitCallPayload struct {
	KeyAddr  string    `json:"key_addr"`
	Messages []Message `json:"messages"`
	// RetryAttempt counts how many times this payload has been resubmitted
	// after an EmptyRevert classification; NextOp drops the op fatally once
	// it reaches MaxEmptyRevertRetries rather than re-enqueuing again.
	RetryAttempt int `json:"retry_attempt,omitempty"`
}

// SubmitResultType is the opqueue.EffectOp.Type a Submitter plugin
// produces once Submit returns.
const SubmitResultType = "SubmitResult"

// DecodeSubmitCall unmarshals a SubmitCallType payload.
func DecodeSubmitCall(payload json.RawMessage) (SubmitCallPayload, error) {
	var p SubmitCallPayload
	err := json.Unmarshal(payload, &p)
	return p, err
}

// EncodeSubmitResult marshals a Result into a SubmitResultType payload.
func EncodeSubmitResult(r Result) (json.RawMessage, error) {
	return json.Marshal(r)
}
