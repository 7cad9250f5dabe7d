package ibcvm

import "github.com/unionlabs/voyager/pkg/ibc"

// State is the VM's sum type over which handshake or packet step is
// currently running, one pointer field per variant. Exactly one field is
// non-nil. Persisted as JSON by the OpQueue between steps, following the
// same struct-of-pointers idiom used for ibc.FullIbcEvent.
type State struct {
	CreateClient     *CreateClientState     `json:"create_client,omitempty"`
	UpdateClient     *UpdateClientState     `json:"update_client,omitempty"`
	ConnOpenInit     *ConnOpenInitState     `json:"conn_open_init,omitempty"`
	ConnOpenTry      *ConnOpenTryState      `json:"conn_open_try,omitempty"`
	ConnOpenAck      *ConnOpenAckState      `json:"conn_open_ack,omitempty"`
	ConnOpenConfirm  *ConnOpenConfirmState  `json:"conn_open_confirm,omitempty"`
	ChanOpenInit     *ChanOpenInitState     `json:"chan_open_init,omitempty"`
	ChanOpenTry      *ChanOpenTryState      `json:"chan_open_try,omitempty"`
	ChanOpenAck      *ChanOpenAckState      `json:"chan_open_ack,omitempty"`
	ChanOpenConfirm  *ChanOpenConfirmState  `json:"chan_open_confirm,omitempty"`
	SendPacket       *SendPacketState       `json:"send_packet,omitempty"`
	RecvPacket       *RecvPacketState       `json:"recv_packet,omitempty"`
	AckPacket        *AckPacketState        `json:"ack_packet,omitempty"`
	RecvIntentPacket *RecvIntentPacketState `json:"recv_intent_packet,omitempty"`
	TimeoutPacket    *TimeoutPacketState    `json:"timeout_packet,omitempty"`
}

// ActionKind names the side effect a Step asked the caller to perform
// before resuming with the action's result as the next Response.
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionVerifyMembership
	ActionVerifyNonMembership
	ActionVerifyMakerAttestation
	ActionInvokeIbcApp
)

// HostAction is a suspension point: the step is waiting on an external
// verification or application callback before it can continue. Steps
// write through Host.Commit directly; no ChangeSet is staged.
type HostAction struct {
	Kind ActionKind
	// Path is the storage path to verify membership/non-membership of,
	// set for ActionVerifyMembership/ActionVerifyNonMembership.
	Path string
	// ExpectedValue is the value expected to be proven present at Path,
	// for ActionVerifyMembership.
	ExpectedValue []byte
	// Proof carries the counterparty-supplied proof bytes and the height
	// it was generated at.
	Proof  []byte
	Height ibc.Height
	// Attestation carries the maker identity/signature pair for
	// ActionVerifyMakerAttestation.
	Attestation *MakerAttestation
	// AppCallback names the IBC application port to invoke for
	// ActionInvokeIbcApp.
	AppCallback ibc.PortId
	AppPayload  []byte
}

// MakerAttestation is the intent-packet substitute for a membership proof:
// a signature from the packet's maker over the packet bytes, in place of a
// merkle proof against the source chain's state root.
type MakerAttestation struct {
	Scheme    string
	PublicKey []byte
	Signature []byte
	Message   []byte
}

// Response is the result of a previously requested HostAction, fed back
// into the next Step call.
type Response struct {
	Kind    ActionKind
	Success bool
	Err     error
	// AppAck carries the application's acknowledgement bytes when Kind is
	// ActionInvokeIbcApp and the application responds synchronously.
	AppAck []byte
}

// VmResponse is the terminal, externally visible outcome of a completed
// state machine run: the events to emit and, for steps whose caller
// expects a value back (e.g. a query), an opaque result payload.
type VmResponse struct {
	Events []ibc.FullIbcEvent
	Result []byte
}

// Result is returned by every Step call. Exactly one of (NextState,
// Action) or (Terminal/Response) is populated; the Terminal field tells the
// caller which.
type Result struct {
	// NextState and Action are set when the step suspends, waiting on the
	// caller to perform Action and resume with NextState.
	NextState *State
	Action    *HostAction

	// Terminal and Response are set when the step machine has finished.
	Terminal bool
	Response VmResponse
}

func suspend(next State, action HostAction) Result {
	return Result{NextState: &next, Action: &action}
}

func terminal(events ...ibc.FullIbcEvent) Result {
	return Result{Terminal: true, Response: VmResponse{Events: events}}
}
