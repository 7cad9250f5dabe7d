package ibcvm

import (
	"context"
	"fmt"

	"github.com/unionlabs/voyager/pkg/ibc"
)

// CreateClientState drives the CreateClient datagram: allocate an
// identifier, write the initial client and consensus state, done in one
// step since there is nothing to verify against (the client doesn't exist
// yet to verify against).
type CreateClientState struct {
	ClientType     ibc.ClientType
	ClientState    ibc.ClientState
	ConsensusState ibc.ConsensusState
}

// Step runs (or resumes) the CreateClient state machine.
func (s *CreateClientState) Step(ctx context.Context, host ibc.Host, _ *Response) (Result, error) {
	id, err := host.NextClientIdentifier(ctx, s.ClientType)
	if err != nil {
		return Result{}, fmt.Errorf("ibcvm: allocate client id: %w", err)
	}
	if err := host.Commit(ctx, ibc.ClientStatePath(id), s.ClientState.Bytes); err != nil {
		return Result{}, err
	}
	path := ibc.ConsensusStatePath(id, s.ClientState.Meta.Height)
	if err := host.Commit(ctx, path, s.ConsensusState.Bytes); err != nil {
		return Result{}, err
	}
	return terminal(ibc.FullIbcEvent{CreateClient: &ibc.CreateClientEvent{
		ClientId:   id,
		ClientType: s.ClientType,
	}}), nil
}

// UpdateClientState drives the UpdateClient datagram: verify the client
// state exists (its status, e.g. frozen or expired, is not checked), then
// stage the new consensus state pending membership
// verification of the header against the client's own trust model (the
// light-client-specific header verification is delegated to the caller via
// ActionVerifyMembership against the client's trusted root, since the VM
// itself holds no light-client crypto).
type UpdateClientState struct {
	ClientId       ibc.ClientId
	Header         ibc.EncodedHeader
	NewClientState ibc.ClientState
	NewConsensus   ibc.ConsensusState
	verified       bool
}

func (s *UpdateClientState) Step(ctx context.Context, host ibc.Host, resp *Response) (Result, error) {
	existing, err := host.Read(ctx, ibc.ClientStatePath(s.ClientId))
	if err != nil {
		return Result{}, err
	}
	if existing == nil {
		return Result{}, ErrClientStateNotFound
	}

	if !s.verified {
		next := State{UpdateClient: &UpdateClientState{
			ClientId: s.ClientId, Header: s.Header,
			NewClientState: s.NewClientState, NewConsensus: s.NewConsensus,
			verified: true,
		}}
		return suspend(next, HostAction{
			Kind:   ActionVerifyMembership,
			Proof:  s.Header.Bytes,
			Height: s.Header.Height,
		}), nil
	}

	if resp == nil || !resp.Success {
		return Result{}, fmt.Errorf("ibcvm: update client header verification: %w", errOrUnknown(resp))
	}

	if err := host.Commit(ctx, ibc.ClientStatePath(s.ClientId), s.NewClientState.Bytes); err != nil {
		return Result{}, err
	}
	path := ibc.ConsensusStatePath(s.ClientId, s.Header.Height)
	if err := host.Commit(ctx, path, s.NewConsensus.Bytes); err != nil {
		return Result{}, err
	}
	return terminal(ibc.FullIbcEvent{UpdateClient: &ibc.UpdateClientEvent{
		ClientId:        s.ClientId,
		ConsensusHeight: s.Header.Height,
	}}), nil
}

func errOrUnknown(r *Response) error {
	if r != nil && r.Err != nil {
		return r.Err
	}
	return ErrMembershipVerificationFailure
}
