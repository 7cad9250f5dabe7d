package ibcvm

import (
	"context"
	"fmt"

	"github.com/unionlabs/voyager/pkg/ibc"
)

// ChanOpenInitState drives MsgChannelOpenInit. Ordering is fixed here and
// never changes for the lifetime of the channel.
type ChanOpenInitState struct {
	PortId                 ibc.PortId
	Ordering               ibc.Order
	ConnectionHops         []ibc.ConnectionId
	CounterpartyPortId     ibc.PortId
	Version                string
}

func (s *ChanOpenInitState) Step(ctx context.Context, host ibc.Host, _ *Response) (Result, error) {
	if len(s.ConnectionHops) != 1 {
		return Result{}, fmt.Errorf("ibcvm: exactly one connection hop required, got %d", len(s.ConnectionHops))
	}
	conn, err := readConnection(ctx, host, s.ConnectionHops[0])
	if err != nil {
		return Result{}, err
	}
	if conn.State != ibc.ConnectionStateOpen {
		return Result{}, ErrIncorrectConnectionState
	}

	id, err := host.NextChannelIdentifier(ctx)
	if err != nil {
		return Result{}, err
	}
	end := ibc.ChannelEnd{
		State:          ibc.ChannelStateInit,
		Ordering:       s.Ordering,
		ConnectionHops: s.ConnectionHops,
		Version:        s.Version,
		Counterparty:   ibc.ChannelCounterparty{PortId: s.CounterpartyPortId},
	}
	if err := commitChannel(ctx, host, s.PortId, id, end); err != nil {
		return Result{}, err
	}
	return terminal(ibc.FullIbcEvent{ChannelOpenInit: &ibc.ChannelOpenInitEvent{
		PortId: s.PortId, ChannelId: id,
		ConnectionId:       s.ConnectionHops[0],
		CounterpartyPortId: s.CounterpartyPortId,
	}}), nil
}

// ChanOpenTryState drives MsgChannelOpenTry.
type ChanOpenTryState struct {
	PortId                      ibc.PortId
	Ordering                    ibc.Order
	ConnectionHops              []ibc.ConnectionId
	CounterpartyPortId          ibc.PortId
	CounterpartyChannelId       ibc.ChannelId
	Version                     string
	ProofHeight                 ibc.Height
	verified                    bool
}

func (s *ChanOpenTryState) Step(ctx context.Context, host ibc.Host, resp *Response) (Result, error) {
	if len(s.ConnectionHops) != 1 {
		return Result{}, fmt.Errorf("ibcvm: exactly one connection hop required, got %d", len(s.ConnectionHops))
	}
	conn, err := readConnection(ctx, host, s.ConnectionHops[0])
	if err != nil {
		return Result{}, err
	}
	if conn.State != ibc.ConnectionStateOpen {
		return Result{}, ErrIncorrectConnectionState
	}

	if !s.verified {
		expected := ibc.ChannelEnd{
			State:          ibc.ChannelStateInit,
			Ordering:       s.Ordering,
			ConnectionHops: []ibc.ConnectionId{conn.Counterparty.ConnectionId},
			Version:        s.Version,
			Counterparty:   ibc.ChannelCounterparty{PortId: s.PortId},
		}
		expBytes, err := encodeChannel(expected)
		if err != nil {
			return Result{}, err
		}
		next := State{ChanOpenTry: &ChanOpenTryState{
			PortId: s.PortId, Ordering: s.Ordering, ConnectionHops: s.ConnectionHops,
			CounterpartyPortId: s.CounterpartyPortId, CounterpartyChannelId: s.CounterpartyChannelId,
			Version: s.Version, ProofHeight: s.ProofHeight, verified: true,
		}}
		return suspend(next, HostAction{
			Kind:          ActionVerifyMembership,
			Path:          ibc.ChannelPath(s.CounterpartyPortId, s.CounterpartyChannelId),
			ExpectedValue: expBytes,
			Height:        s.ProofHeight,
		}), nil
	}
	if resp == nil || !resp.Success {
		return Result{}, fmt.Errorf("ibcvm: chan open try: %w", errOrUnknown(resp))
	}

	id, err := host.NextChannelIdentifier(ctx)
	if err != nil {
		return Result{}, err
	}
	end := ibc.ChannelEnd{
		State:          ibc.ChannelStateTryOpen,
		Ordering:       s.Ordering,
		ConnectionHops: s.ConnectionHops,
		Version:        s.Version,
		Counterparty: ibc.ChannelCounterparty{
			PortId:    s.CounterpartyPortId,
			ChannelId: s.CounterpartyChannelId,
		},
	}
	if err := commitChannel(ctx, host, s.PortId, id, end); err != nil {
		return Result{}, err
	}
	return terminal(ibc.FullIbcEvent{ChannelOpenTry: &ibc.ChannelOpenTryEvent{
		PortId: s.PortId, ChannelId: id, ConnectionId: s.ConnectionHops[0],
		CounterpartyPortId: s.CounterpartyPortId, CounterpartyChannelId: s.CounterpartyChannelId,
	}}), nil
}

// ChanOpenAckState drives MsgChannelOpenAck.
type ChanOpenAckState struct {
	PortId                ibc.PortId
	ChannelId             ibc.ChannelId
	CounterpartyChannelId ibc.ChannelId
	CounterpartyVersion   string
	ProofHeight           ibc.Height
	verified              bool
}

func (s *ChanOpenAckState) Step(ctx context.Context, host ibc.Host, resp *Response) (Result, error) {
	end, err := readChannel(ctx, host, s.PortId, s.ChannelId)
	if err != nil {
		return Result{}, err
	}
	if end.State != ibc.ChannelStateInit {
		return Result{}, ErrIncorrectChannelState
	}
	conn, err := readConnection(ctx, host, end.ConnectionHops[0])
	if err != nil {
		return Result{}, err
	}

	if !s.verified {
		expected := ibc.ChannelEnd{
			State:          ibc.ChannelStateTryOpen,
			Ordering:       end.Ordering,
			ConnectionHops: []ibc.ConnectionId{conn.Counterparty.ConnectionId},
			Version:        s.CounterpartyVersion,
			Counterparty:   ibc.ChannelCounterparty{PortId: s.PortId, ChannelId: s.ChannelId},
		}
		expBytes, err := encodeChannel(expected)
		if err != nil {
			return Result{}, err
		}
		next := State{ChanOpenAck: &ChanOpenAckState{
			PortId: s.PortId, ChannelId: s.ChannelId, CounterpartyChannelId: s.CounterpartyChannelId,
			CounterpartyVersion: s.CounterpartyVersion, ProofHeight: s.ProofHeight, verified: true,
		}}
		return suspend(next, HostAction{
			Kind:          ActionVerifyMembership,
			Path:          ibc.ChannelPath(end.Counterparty.PortId, s.CounterpartyChannelId),
			ExpectedValue: expBytes,
			Height:        s.ProofHeight,
		}), nil
	}
	if resp == nil || !resp.Success {
		return Result{}, fmt.Errorf("ibcvm: chan open ack: %w", errOrUnknown(resp))
	}

	end.State = ibc.ChannelStateOpen
	end.Counterparty.ChannelId = s.CounterpartyChannelId
	end.Version = s.CounterpartyVersion
	if err := commitChannel(ctx, host, s.PortId, s.ChannelId, end); err != nil {
		return Result{}, err
	}
	return terminal(ibc.FullIbcEvent{ChannelOpenAck: &ibc.ChannelOpenAckEvent{
		PortId: s.PortId, ChannelId: s.ChannelId, CounterpartyChannelId: s.CounterpartyChannelId,
	}}), nil
}

// ChanOpenConfirmState drives MsgChannelOpenConfirm.
type ChanOpenConfirmState struct {
	PortId      ibc.PortId
	ChannelId   ibc.ChannelId
	ProofHeight ibc.Height
	verified    bool
}

func (s *ChanOpenConfirmState) Step(ctx context.Context, host ibc.Host, resp *Response) (Result, error) {
	end, err := readChannel(ctx, host, s.PortId, s.ChannelId)
	if err != nil {
		return Result{}, err
	}
	if end.State != ibc.ChannelStateTryOpen {
		return Result{}, ErrIncorrectChannelState
	}
	conn, err := readConnection(ctx, host, end.ConnectionHops[0])
	if err != nil {
		return Result{}, err
	}

	if !s.verified {
		expected := ibc.ChannelEnd{
			State:          ibc.ChannelStateOpen,
			Ordering:       end.Ordering,
			ConnectionHops: []ibc.ConnectionId{conn.Counterparty.ConnectionId},
			Version:        end.Version,
			Counterparty:   ibc.ChannelCounterparty{PortId: s.PortId, ChannelId: s.ChannelId},
		}
		expBytes, err := encodeChannel(expected)
		if err != nil {
			return Result{}, err
		}
		next := State{ChanOpenConfirm: &ChanOpenConfirmState{
			PortId: s.PortId, ChannelId: s.ChannelId, ProofHeight: s.ProofHeight, verified: true,
		}}
		return suspend(next, HostAction{
			Kind:          ActionVerifyMembership,
			Path:          ibc.ChannelPath(end.Counterparty.PortId, end.Counterparty.ChannelId),
			ExpectedValue: expBytes,
			Height:        s.ProofHeight,
		}), nil
	}
	if resp == nil || !resp.Success {
		return Result{}, fmt.Errorf("ibcvm: chan open confirm: %w", errOrUnknown(resp))
	}

	end.State = ibc.ChannelStateOpen
	if err := commitChannel(ctx, host, s.PortId, s.ChannelId, end); err != nil {
		return Result{}, err
	}
	return terminal(), nil
}

func readChannel(ctx context.Context, host ibc.Host, port ibc.PortId, id ibc.ChannelId) (ibc.ChannelEnd, error) {
	raw, err := host.Read(ctx, ibc.ChannelPath(port, id))
	if err != nil {
		return ibc.ChannelEnd{}, err
	}
	if raw == nil {
		return ibc.ChannelEnd{}, ErrChannelNotFound
	}
	return decodeChannel(raw)
}

func commitChannel(ctx context.Context, host ibc.Host, port ibc.PortId, id ibc.ChannelId, end ibc.ChannelEnd) error {
	b, err := encodeChannel(end)
	if err != nil {
		return err
	}
	return host.Commit(ctx, ibc.ChannelPath(port, id), b)
}
