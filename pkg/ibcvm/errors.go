// Package ibcvm implements the deterministic, host-abstracted IBC state
// machine: one Step method per handshake/packet state, each of which reads
// and writes only through an ibc.Host and returns either the next state to
// run or a terminal result.
package ibcvm

import "errors"

// Sentinel errors mirroring the VM's error taxonomy. Each corresponds to a
// distinct IBC protocol violation or host precondition failure; callers
// (the relayer pipeline, plugin router) branch on these with errors.Is.
var (
	ErrClientNotActive              = errors.New("ibcvm: client is not active")
	ErrClientStateNotFound          = errors.New("ibcvm: client state not found")
	ErrConnectionNotFound           = errors.New("ibcvm: connection not found")
	ErrIncorrectConnectionState     = errors.New("ibcvm: connection is in an unexpected state")
	ErrChannelNotFound               = errors.New("ibcvm: channel not found")
	ErrIncorrectChannelState        = errors.New("ibcvm: channel is in an unexpected state")
	ErrIbcAppCallbackFailed          = errors.New("ibcvm: ibc application callback failed")
	ErrAcknowledgementExists        = errors.New("ibcvm: acknowledgement already exists for sequence")
	ErrEmptyAcknowledgement         = errors.New("ibcvm: acknowledgement must not be empty")
	ErrMembershipVerificationFailure = errors.New("ibcvm: membership verification failed")
	ErrNoSupportedVersionFound       = errors.New("ibcvm: no mutually supported version found")
	ErrEmptyVersionFeatures          = errors.New("ibcvm: version feature set must not be empty")
	ErrVersionIdentifierMismatch    = errors.New("ibcvm: version identifier mismatch")
	ErrUnsupportedFeatureInVersion  = errors.New("ibcvm: feature not supported in negotiated version")
	ErrSourcePortMismatch            = errors.New("ibcvm: source port mismatch")
	ErrDestinationPortMismatch       = errors.New("ibcvm: destination port mismatch")
	ErrSourceChannelMismatch         = errors.New("ibcvm: source channel mismatch")
	ErrDestinationChannelMismatch    = errors.New("ibcvm: destination channel mismatch")
	ErrTimedOutPacket                = errors.New("ibcvm: packet has timed out")
	ErrZeroTimeout                   = errors.New("ibcvm: packet must set at least one timeout")
	ErrPacketCommitmentMismatch     = errors.New("ibcvm: packet commitment mismatch")
	ErrEmptyPacketsReceived          = errors.New("ibcvm: no packets supplied to receive")
	ErrIntentOrderedPacket           = errors.New("ibcvm: intent packets are not permitted on ordered channels")
	ErrSequenceOutOfOrder            = errors.New("ibcvm: packet sequence does not match next_sequence_recv")
)
