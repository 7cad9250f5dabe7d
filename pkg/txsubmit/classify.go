package txsubmit

import (
	"strings"
	"time"
)

// Action is what the submitter does after classifying a failed
// simulation/submission.
type Action int

const (
	// ActionFatal drops the message; a later event will regenerate it if
	// still relevant.
	ActionFatal Action = iota
	// ActionDefer re-enqueues the same message after Delay.
	ActionDefer
	// ActionRetrySequence re-enqueues as-is, expecting a fresh nonce/sequence
	// to be picked up on the next attempt.
	ActionRetrySequence
	// ActionSuccess means the chain considers this already handled; treat
	// the submission as if it landed.
	ActionSuccess
)

// Classification is the result of running a chain error through the
// relevant table below.
type Classification struct {
	Action Action
	Delay  time.Duration
	Reason string
	// WellKnown marks a decodable, non-retryable revert (e.g. a known IBC
	// error selector) so it can be logged distinctly from an opaque fatal.
	WellKnown bool
}

// MaxEmptyRevertRetries caps how many times an EmptyRevert classification
// is honored for the same op before giving up and going fatal; the Cosmos
// and EVM revert tables both describe a retry that could in principle loop
// forever against a deterministically-reverting contract.
const MaxEmptyRevertRetries = 5

// ReasonEmptyRevert is Classification.Reason for an EVM revert carrying no
// decodable error data, the one Defer reason MaxEmptyRevertRetries caps;
// callers match against this constant rather than the literal string.
const ReasonEmptyRevert = "empty revert"

// ClassifyEVM applies spec's EVM revert-classification table to a decoded
// provider error string and an already-decoded ABI error selector (empty
// if none decoded). maxGasPrice/currentGasPrice are in wei.
func ClassifyEVM(errMsg string, decodedSelector string, currentGasPrice, maxGasPrice uint64) Classification {
	lower := strings.ToLower(errMsg)

	if decodedSelector != "" {
		return Classification{Action: ActionFatal, Reason: "known revert selector: " + decodedSelector, WellKnown: true}
	}
	if strings.TrimSpace(errMsg) == "" {
		return Classification{Action: ActionDefer, Delay: 12 * time.Second, Reason: ReasonEmptyRevert}
	}
	if maxGasPrice > 0 && currentGasPrice > maxGasPrice {
		return Classification{Action: ActionDefer, Delay: 6 * time.Second, Reason: "gas price too high"}
	}
	if strings.Contains(lower, "insufficient funds for gas") || strings.Contains(lower, "insufficient funds for gas * price") {
		return Classification{Action: ActionDefer, Delay: 12 * time.Second, Reason: "out of gas funds"}
	}
	return Classification{Action: ActionFatal, Reason: "unclassified provider error: " + errMsg}
}

// ClassifyCosmos applies spec's Cosmos SDK error-code classification
// table. codespace/code identify the ABCI error the same way cosmos-sdk's
// errors package does (module codespace + numeric code).
func ClassifyCosmos(codespace string, code uint32, rawLog string) Classification {
	lower := strings.ToLower(rawLog)

	switch {
	case codespace == "channel" && code == channelErrRedundantTxCode:
		return Classification{Action: ActionSuccess, Reason: "redundant tx: already relayed"}
	case codespace == "sdk" && code == sdkErrWrongSequenceCode:
		return Classification{Action: ActionRetrySequence, Reason: "wrong sequence"}
	case strings.Contains(lower, "account sequence mismatch"):
		return Classification{Action: ActionRetrySequence, Reason: "account sequence mismatch (simulation)"}
	case codespace == "client" || strings.Contains(lower, "client not found"):
		return Classification{Action: ActionFatal, Reason: "client not found"}
	case strings.Contains(lower, "invalid checksum"):
		return Classification{Action: ActionFatal, Reason: "invalid checksum"}
	case strings.Contains(lower, "capability"):
		return Classification{Action: ActionFatal, Reason: "capability error"}
	default:
		return Classification{Action: ActionFatal, Reason: "unclassified sdk error: " + rawLog}
	}
}

// The two numeric codes spec's Cosmos table names by error variant rather
// than number; these mirror cosmos-sdk's own conventional assignments for
// ibc-go's channel codespace and the root sdk codespace.
const (
	channelErrRedundantTxCode = 22
	sdkErrWrongSequenceCode   = 32
)
