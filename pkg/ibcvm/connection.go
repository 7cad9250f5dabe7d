package ibcvm

import (
	"context"
	"fmt"

	"github.com/unionlabs/voyager/pkg/ibc"
)

// ConnOpenInitState drives MsgConnectionOpenInit: the initiating chain has
// no counterparty state to verify yet, so this completes in one step.
type ConnOpenInitState struct {
	ClientId             ibc.ClientId
	CounterpartyClientId ibc.ClientId
	CounterpartyPrefix   []byte
	Version              ibc.Version
	DelayPeriod          uint64
}

func (s *ConnOpenInitState) Step(ctx context.Context, host ibc.Host, _ *Response) (Result, error) {
	clientBytes, err := host.Read(ctx, ibc.ClientStatePath(s.ClientId))
	if err != nil {
		return Result{}, err
	}
	if clientBytes == nil {
		return Result{}, ErrClientStateNotFound
	}

	id, err := host.NextConnectionIdentifier(ctx)
	if err != nil {
		return Result{}, err
	}
	end := ibc.ConnectionEnd{
		State:    ibc.ConnectionStateInit,
		ClientId: s.ClientId,
		Counterparty: ibc.Counterparty{
			ClientId: s.CounterpartyClientId,
			Prefix:   s.CounterpartyPrefix,
		},
		Versions:    []ibc.Version{s.Version},
		DelayPeriod: s.DelayPeriod,
	}
	if err := commitConnection(ctx, host, id, end); err != nil {
		return Result{}, err
	}
	return terminal(ibc.FullIbcEvent{ConnectionOpenInit: &ibc.ConnectionOpenInitEvent{
		ConnectionId:         id,
		ClientId:             s.ClientId,
		CounterpartyClientId: s.CounterpartyClientId,
	}}), nil
}

// ConnOpenTryState drives MsgConnectionOpenTry: verify the counterparty's
// ConnOpenInit connection end is provable at the supplied proof height
// before creating our own TRYOPEN end. The counterparty's client state and
// consensus state are not verified.
type ConnOpenTryState struct {
	ClientId                 ibc.ClientId
	CounterpartyClientId     ibc.ClientId
	CounterpartyConnectionId ibc.ConnectionId
	CounterpartyPrefix       []byte
	Versions                 []ibc.Version
	DelayPeriod              uint64
	ProofHeight              ibc.Height
	verified                 bool
}

func (s *ConnOpenTryState) Step(ctx context.Context, host ibc.Host, resp *Response) (Result, error) {
	if len(s.Versions) == 0 {
		return Result{}, ErrNoSupportedVersionFound
	}
	supported := intersectVersions(s.Versions, DefaultSupportedVersions())
	if len(supported) == 0 {
		return Result{}, ErrNoSupportedVersionFound
	}
	if !s.verified {
		expected := ibc.ConnectionEnd{
			State:    ibc.ConnectionStateInit,
			ClientId: s.CounterpartyClientId,
			Counterparty: ibc.Counterparty{
				ClientId: s.ClientId,
			},
			Versions: s.Versions,
		}
		expBytes, err := encodeConnection(expected)
		if err != nil {
			return Result{}, err
		}
		next := State{ConnOpenTry: &ConnOpenTryState{
			ClientId: s.ClientId, CounterpartyClientId: s.CounterpartyClientId,
			CounterpartyConnectionId: s.CounterpartyConnectionId,
			CounterpartyPrefix:       s.CounterpartyPrefix,
			Versions:                 s.Versions, DelayPeriod: s.DelayPeriod,
			ProofHeight: s.ProofHeight, verified: true,
		}}
		return suspend(next, HostAction{
			Kind:          ActionVerifyMembership,
			Path:          ibc.ConnectionPath(s.CounterpartyConnectionId),
			ExpectedValue: expBytes,
			Height:        s.ProofHeight,
		}), nil
	}
	if resp == nil || !resp.Success {
		return Result{}, fmt.Errorf("ibcvm: conn open try: %w", errOrUnknown(resp))
	}

	id, err := host.NextConnectionIdentifier(ctx)
	if err != nil {
		return Result{}, err
	}
	end := ibc.ConnectionEnd{
		State:    ibc.ConnectionStateTryOpen,
		ClientId: s.ClientId,
		Counterparty: ibc.Counterparty{
			ClientId:     s.CounterpartyClientId,
			ConnectionId: s.CounterpartyConnectionId,
			Prefix:       s.CounterpartyPrefix,
		},
		Versions:    supported,
		DelayPeriod: s.DelayPeriod,
	}
	if err := commitConnection(ctx, host, id, end); err != nil {
		return Result{}, err
	}
	return terminal(ibc.FullIbcEvent{ConnectionOpenTry: &ibc.ConnectionOpenTryEvent{
		ConnectionId:             id,
		ClientId:                 s.ClientId,
		CounterpartyClientId:     s.CounterpartyClientId,
		CounterpartyConnectionId: s.CounterpartyConnectionId,
	}}), nil
}

// ConnOpenAckState drives MsgConnectionOpenAck: verify the counterparty's
// TRYOPEN end proves our INIT connection was accepted, then flip to OPEN.
type ConnOpenAckState struct {
	ConnectionId             ibc.ConnectionId
	CounterpartyConnectionId ibc.ConnectionId
	Version                  ibc.Version
	ProofHeight              ibc.Height
	verified                 bool
}

func (s *ConnOpenAckState) Step(ctx context.Context, host ibc.Host, resp *Response) (Result, error) {
	end, err := readConnection(ctx, host, s.ConnectionId)
	if err != nil {
		return Result{}, err
	}
	if end.State != ibc.ConnectionStateInit {
		return Result{}, ErrIncorrectConnectionState
	}
	if err := validateVersion(s.Version, DefaultSupportedVersions()); err != nil {
		return Result{}, err
	}

	if !s.verified {
		expected := ibc.ConnectionEnd{
			State:    ibc.ConnectionStateTryOpen,
			ClientId: end.Counterparty.ClientId,
			Counterparty: ibc.Counterparty{
				ClientId:     end.ClientId,
				ConnectionId: s.ConnectionId,
			},
			Versions: []ibc.Version{s.Version},
		}
		expBytes, err := encodeConnection(expected)
		if err != nil {
			return Result{}, err
		}
		next := State{ConnOpenAck: &ConnOpenAckState{
			ConnectionId: s.ConnectionId, CounterpartyConnectionId: s.CounterpartyConnectionId,
			Version: s.Version, ProofHeight: s.ProofHeight, verified: true,
		}}
		return suspend(next, HostAction{
			Kind:          ActionVerifyMembership,
			Path:          ibc.ConnectionPath(s.CounterpartyConnectionId),
			ExpectedValue: expBytes,
			Height:        s.ProofHeight,
		}), nil
	}
	if resp == nil || !resp.Success {
		return Result{}, fmt.Errorf("ibcvm: conn open ack: %w", errOrUnknown(resp))
	}

	end.State = ibc.ConnectionStateOpen
	end.Counterparty.ConnectionId = s.CounterpartyConnectionId
	end.Versions = []ibc.Version{s.Version}
	if err := commitConnection(ctx, host, s.ConnectionId, end); err != nil {
		return Result{}, err
	}
	return terminal(ibc.FullIbcEvent{ConnectionOpenAck: &ibc.ConnectionOpenAckEvent{
		ConnectionId:             s.ConnectionId,
		CounterpartyConnectionId: s.CounterpartyConnectionId,
	}}), nil
}

// ConnOpenConfirmState drives MsgConnectionOpenConfirm: verify the
// counterparty observed our ack and flip our TRYOPEN end to OPEN.
type ConnOpenConfirmState struct {
	ConnectionId ibc.ConnectionId
	ProofHeight  ibc.Height
	verified     bool
}

func (s *ConnOpenConfirmState) Step(ctx context.Context, host ibc.Host, resp *Response) (Result, error) {
	end, err := readConnection(ctx, host, s.ConnectionId)
	if err != nil {
		return Result{}, err
	}
	if end.State != ibc.ConnectionStateTryOpen {
		return Result{}, ErrIncorrectConnectionState
	}

	if !s.verified {
		expected := ibc.ConnectionEnd{
			State:    ibc.ConnectionStateOpen,
			ClientId: end.Counterparty.ClientId,
			Counterparty: ibc.Counterparty{
				ClientId:     end.ClientId,
				ConnectionId: s.ConnectionId,
			},
			Versions: end.Versions,
		}
		expBytes, err := encodeConnection(expected)
		if err != nil {
			return Result{}, err
		}
		next := State{ConnOpenConfirm: &ConnOpenConfirmState{
			ConnectionId: s.ConnectionId, ProofHeight: s.ProofHeight, verified: true,
		}}
		return suspend(next, HostAction{
			Kind:          ActionVerifyMembership,
			Path:          ibc.ConnectionPath(end.Counterparty.ConnectionId),
			ExpectedValue: expBytes,
			Height:        s.ProofHeight,
		}), nil
	}
	if resp == nil || !resp.Success {
		return Result{}, fmt.Errorf("ibcvm: conn open confirm: %w", errOrUnknown(resp))
	}

	end.State = ibc.ConnectionStateOpen
	if err := commitConnection(ctx, host, s.ConnectionId, end); err != nil {
		return Result{}, err
	}
	return terminal(), nil
}

// DefaultSupportedVersions is the connection version set this VM
// advertises during ConnOpenTry/ConnOpenAck negotiation, mirroring
// ibc-go's default: a single identifier supporting both channel orderings.
func DefaultSupportedVersions() []ibc.Version {
	return []ibc.Version{{Identifier: "1", Features: []string{"ORDER_ORDERED", "ORDER_UNORDERED"}}}
}

// intersectVersions narrows proposed to the subset of feature flags each
// shares with a same-identifier entry in supported, dropping any proposed
// version left with no mutually supported feature.
func intersectVersions(proposed, supported []ibc.Version) []ibc.Version {
	var out []ibc.Version
	for _, p := range proposed {
		for _, sv := range supported {
			if sv.Identifier != p.Identifier {
				continue
			}
			var features []string
			for _, f := range p.Features {
				if hasFeature(sv.Features, f) {
					features = append(features, f)
				}
			}
			if len(features) > 0 {
				out = append(out, ibc.Version{Identifier: p.Identifier, Features: features})
			}
		}
	}
	return out
}

// validateVersion checks that v is a single, fully-negotiated version (as
// ConnOpenAck's counterparty-acked version must be): non-empty features,
// a known identifier, and every feature locally supported.
func validateVersion(v ibc.Version, supported []ibc.Version) error {
	if len(v.Features) == 0 {
		return ErrEmptyVersionFeatures
	}
	for _, sv := range supported {
		if sv.Identifier != v.Identifier {
			continue
		}
		for _, f := range v.Features {
			if !hasFeature(sv.Features, f) {
				return ErrUnsupportedFeatureInVersion
			}
		}
		return nil
	}
	return ErrVersionIdentifierMismatch
}

func hasFeature(features []string, f string) bool {
	for _, x := range features {
		if x == f {
			return true
		}
	}
	return false
}

func readConnection(ctx context.Context, host ibc.Host, id ibc.ConnectionId) (ibc.ConnectionEnd, error) {
	raw, err := host.Read(ctx, ibc.ConnectionPath(id))
	if err != nil {
		return ibc.ConnectionEnd{}, err
	}
	if raw == nil {
		return ibc.ConnectionEnd{}, ErrConnectionNotFound
	}
	return decodeConnection(raw)
}

func commitConnection(ctx context.Context, host ibc.Host, id ibc.ConnectionId, end ibc.ConnectionEnd) error {
	b, err := encodeConnection(end)
	if err != nil {
		return err
	}
	return host.Commit(ctx, ibc.ConnectionPath(id), b)
}
