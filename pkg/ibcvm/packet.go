package ibcvm

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"

	"github.com/unionlabs/voyager/pkg/ibc"
)

// SendPacketState drives an application's SendPacket call: bump the
// channel's next-send sequence, reject a zero timeout, and commit the
// packet's commitment hash. Completes in one step; there is nothing to
// verify, since the packet originates on this chain.
type SendPacketState struct {
	Packet ibc.Packet
}

func (s *SendPacketState) Step(ctx context.Context, host ibc.Host, _ *Response) (Result, error) {
	if !s.Packet.HasTimeoutHeight() && !s.Packet.HasTimeoutTimestamp() {
		return Result{}, ErrZeroTimeout
	}
	end, err := readChannel(ctx, host, s.Packet.SourcePort, s.Packet.SourceChannel)
	if err != nil {
		return Result{}, err
	}
	if end.State != ibc.ChannelStateOpen {
		return Result{}, ErrIncorrectChannelState
	}

	seqPath := ibc.NextSequenceSendPath(s.Packet.SourcePort, s.Packet.SourceChannel)
	next, err := nextSequence(ctx, host, seqPath)
	if err != nil {
		return Result{}, err
	}
	pkt := s.Packet
	pkt.Sequence = next
	commitment := ibc.CommitmentHash(pkt)
	if err := host.Commit(ctx, ibc.CommitmentPath(pkt.SourcePort, pkt.SourceChannel, pkt.Sequence), commitment[:]); err != nil {
		return Result{}, err
	}
	if err := host.Commit(ctx, seqPath, encodeUint64(next+1)); err != nil {
		return Result{}, err
	}
	return terminal(ibc.FullIbcEvent{SendPacket: &ibc.SendPacketEvent{Packet: pkt}}), nil
}

// RecvPacketState drives MsgRecvPacket: reject if timed out, finish as a
// no-op if already received, verify the source chain committed this
// packet, invoke the destination application, then write the receipt
// (unordered) or advance next_sequence_recv (ordered) and commit the
// acknowledgement hash. An empty application acknowledgement fails with
// ErrEmptyAcknowledgement; there is no asynchronous-ack path.
type RecvPacketState struct {
	Packet      ibc.Packet
	ProofHeight ibc.Height
	verified    bool
	invoked     bool
}

func (s *RecvPacketState) Step(ctx context.Context, host ibc.Host, resp *Response) (Result, error) {
	end, err := readChannel(ctx, host, s.Packet.DestinationPort, s.Packet.DestinationChannel)
	if err != nil {
		return Result{}, err
	}
	if end.State != ibc.ChannelStateOpen {
		return Result{}, ErrIncorrectChannelState
	}
	if end.Counterparty.PortId != s.Packet.SourcePort {
		return Result{}, ErrSourcePortMismatch
	}
	if end.Counterparty.ChannelId != s.Packet.SourceChannel {
		return Result{}, ErrSourceChannelMismatch
	}

	height, err := host.CurrentHeight(ctx)
	if err != nil {
		return Result{}, err
	}
	ts, err := host.CurrentTimestamp(ctx)
	if err != nil {
		return Result{}, err
	}
	if s.Packet.TimedOut(height, ts) {
		return Result{}, ErrTimedOutPacket
	}

	if end.Ordering == ibc.OrderUnordered {
		receipt, err := host.Read(ctx, ibc.ReceiptPath(s.Packet.DestinationPort, s.Packet.DestinationChannel, s.Packet.Sequence))
		if err != nil {
			return Result{}, err
		}
		if receipt != nil {
			return terminal(), nil // already received; idempotent no-op, matches at-least-once redelivery
		}
	} else {
		seqPath := ibc.NextSequenceRecvPath(s.Packet.DestinationPort, s.Packet.DestinationChannel)
		next, err := nextSequence(ctx, host, seqPath)
		if err != nil {
			return Result{}, err
		}
		if s.Packet.Sequence < next {
			return terminal(), nil // already received; idempotent no-op, matches at-least-once redelivery
		}
		if s.Packet.Sequence > next {
			return Result{}, ErrSequenceOutOfOrder
		}
	}

	if !s.verified {
		commitment := ibc.CommitmentHash(s.Packet)
		next := State{RecvPacket: &RecvPacketState{
			Packet: s.Packet, ProofHeight: s.ProofHeight, verified: true,
		}}
		return suspend(next, HostAction{
			Kind:          ActionVerifyMembership,
			Path:          ibc.CommitmentPath(s.Packet.SourcePort, s.Packet.SourceChannel, s.Packet.Sequence),
			ExpectedValue: commitment[:],
			Height:        s.ProofHeight,
		}), nil
	}
	if resp != nil && resp.Kind == ActionVerifyMembership {
		if !resp.Success {
			return Result{}, fmt.Errorf("ibcvm: recv packet commitment: %w", errOrUnknown(resp))
		}
	}

	if !s.invoked {
		next := State{RecvPacket: &RecvPacketState{
			Packet: s.Packet, ProofHeight: s.ProofHeight, verified: true, invoked: true,
		}}
		return suspend(next, HostAction{
			Kind:        ActionInvokeIbcApp,
			AppCallback: s.Packet.DestinationPort,
			AppPayload:  s.Packet.Data,
		}), nil
	}

	if resp == nil || resp.Kind != ActionInvokeIbcApp || len(resp.AppAck) == 0 {
		return Result{}, ErrEmptyAcknowledgement
	}

	if end.Ordering == ibc.OrderUnordered {
		if err := host.Commit(ctx, ibc.ReceiptPath(s.Packet.DestinationPort, s.Packet.DestinationChannel, s.Packet.Sequence), []byte{1}); err != nil {
			return Result{}, err
		}
	} else {
		seqPath := ibc.NextSequenceRecvPath(s.Packet.DestinationPort, s.Packet.DestinationChannel)
		if err := host.Commit(ctx, seqPath, encodeUint64(s.Packet.Sequence+1)); err != nil {
			return Result{}, err
		}
	}
	ack := ibc.Acknowledgement{Data: resp.AppAck}
	ackHash := ibc.AcknowledgementHash(ack)
	if err := host.Commit(ctx, ibc.AckPath(s.Packet.DestinationPort, s.Packet.DestinationChannel, s.Packet.Sequence), ackHash[:]); err != nil {
		return Result{}, err
	}
	return terminal(ibc.FullIbcEvent{WriteAck: &ibc.WriteAckEvent{Packet: s.Packet, Acknowledgement: ack}}), nil
}

// AckPacketState drives MsgAcknowledgePacket: verify the destination chain
// wrote the expected acknowledgement, then delete our own commitment so
// the packet cannot be relayed (or timed out) again.
type AckPacketState struct {
	Packet          ibc.Packet
	Acknowledgement ibc.Acknowledgement
	ProofHeight     ibc.Height
	verified        bool
}

func (s *AckPacketState) Step(ctx context.Context, host ibc.Host, resp *Response) (Result, error) {
	existing, err := host.Read(ctx, ibc.CommitmentPath(s.Packet.SourcePort, s.Packet.SourceChannel, s.Packet.Sequence))
	if err != nil {
		return Result{}, err
	}
	if existing == nil {
		return terminal(), nil // already acknowledged; at-least-once redelivery no-op
	}
	commitment := ibc.CommitmentHash(s.Packet)
	if !bytes.Equal(existing, commitment[:]) {
		return Result{}, ErrPacketCommitmentMismatch
	}

	if !s.verified {
		ackHash := ibc.AcknowledgementHash(s.Acknowledgement)
		next := State{AckPacket: &AckPacketState{
			Packet: s.Packet, Acknowledgement: s.Acknowledgement, ProofHeight: s.ProofHeight, verified: true,
		}}
		return suspend(next, HostAction{
			Kind:          ActionVerifyMembership,
			Path:          ibc.AckPath(s.Packet.DestinationPort, s.Packet.DestinationChannel, s.Packet.Sequence),
			ExpectedValue: ackHash[:],
			Height:        s.ProofHeight,
		}), nil
	}
	if resp == nil || !resp.Success {
		return Result{}, fmt.Errorf("ibcvm: ack packet: %w", errOrUnknown(resp))
	}

	if err := host.Delete(ctx, ibc.CommitmentPath(s.Packet.SourcePort, s.Packet.SourceChannel, s.Packet.Sequence)); err != nil {
		return Result{}, err
	}
	return terminal(), nil
}

// RecvIntentPacketState drives a maker-attested intent packet: the proof
// step is replaced with a signature check over the packet bytes from the
// maker's key, skipping the source chain's commitment entirely. Forbidden
// on ordered channels since intent fulfilment can race ordinary relaying.
type RecvIntentPacketState struct {
	Packet      ibc.Packet
	Attestation MakerAttestation
	verified    bool
	invoked     bool
}

func (s *RecvIntentPacketState) Step(ctx context.Context, host ibc.Host, resp *Response) (Result, error) {
	end, err := readChannel(ctx, host, s.Packet.DestinationPort, s.Packet.DestinationChannel)
	if err != nil {
		return Result{}, err
	}
	if end.Ordering == ibc.OrderOrdered {
		return Result{}, ErrIntentOrderedPacket
	}
	if end.State != ibc.ChannelStateOpen {
		return Result{}, ErrIncorrectChannelState
	}

	receipt, err := host.Read(ctx, ibc.ReceiptPath(s.Packet.DestinationPort, s.Packet.DestinationChannel, s.Packet.Sequence))
	if err != nil {
		return Result{}, err
	}
	if receipt != nil {
		return terminal(), nil
	}

	if !s.verified {
		next := State{RecvIntentPacket: &RecvIntentPacketState{
			Packet: s.Packet, Attestation: s.Attestation, verified: true,
		}}
		return suspend(next, HostAction{
			Kind:        ActionVerifyMakerAttestation,
			Attestation: &s.Attestation,
		}), nil
	}
	if resp == nil || !resp.Success {
		return Result{}, fmt.Errorf("ibcvm: recv intent packet: %w", errOrUnknown(resp))
	}

	if !s.invoked {
		next := State{RecvIntentPacket: &RecvIntentPacketState{
			Packet: s.Packet, Attestation: s.Attestation, verified: true, invoked: true,
		}}
		return suspend(next, HostAction{
			Kind:        ActionInvokeIbcApp,
			AppCallback: s.Packet.DestinationPort,
			AppPayload:  s.Packet.Data,
		}), nil
	}
	if resp == nil || resp.Kind != ActionInvokeIbcApp || len(resp.AppAck) == 0 {
		return Result{}, ErrEmptyAcknowledgement
	}

	if err := host.Commit(ctx, ibc.ReceiptPath(s.Packet.DestinationPort, s.Packet.DestinationChannel, s.Packet.Sequence), []byte{1}); err != nil {
		return Result{}, err
	}
	ack := ibc.Acknowledgement{Data: resp.AppAck}
	ackHash := ibc.AcknowledgementHash(ack)
	if err := host.Commit(ctx, ibc.AckPath(s.Packet.DestinationPort, s.Packet.DestinationChannel, s.Packet.Sequence), ackHash[:]); err != nil {
		return Result{}, err
	}
	return terminal(ibc.FullIbcEvent{WriteAck: &ibc.WriteAckEvent{Packet: s.Packet, Acknowledgement: ack}}), nil
}

// TimeoutPacketState drives MsgTimeout: once a datagram assembler has
// observed (via a non-membership proof opportunity at the packet's timeout
// height) that the destination never wrote a receipt, verify that
// non-membership here and delete our own commitment — the timeout-path
// counterpart to AckPacketState, freeing the sending application to react
// (e.g. refund) instead of waiting on an acknowledgement that will never
// come.
type TimeoutPacketState struct {
	Packet      ibc.Packet
	ProofHeight ibc.Height
	verified    bool
}

func (s *TimeoutPacketState) Step(ctx context.Context, host ibc.Host, resp *Response) (Result, error) {
	if !s.Packet.HasTimeoutHeight() && !s.Packet.HasTimeoutTimestamp() {
		return Result{}, ErrZeroTimeout
	}
	existing, err := host.Read(ctx, ibc.CommitmentPath(s.Packet.SourcePort, s.Packet.SourceChannel, s.Packet.Sequence))
	if err != nil {
		return Result{}, err
	}
	if existing == nil {
		return terminal(), nil // already timed out or acknowledged; at-least-once redelivery no-op
	}
	commitment := ibc.CommitmentHash(s.Packet)
	if !bytes.Equal(existing, commitment[:]) {
		return Result{}, ErrPacketCommitmentMismatch
	}

	if !s.verified {
		next := State{TimeoutPacket: &TimeoutPacketState{
			Packet: s.Packet, ProofHeight: s.ProofHeight, verified: true,
		}}
		return suspend(next, HostAction{
			Kind:   ActionVerifyNonMembership,
			Path:   ibc.ReceiptPath(s.Packet.DestinationPort, s.Packet.DestinationChannel, s.Packet.Sequence),
			Height: s.ProofHeight,
		}), nil
	}
	if resp == nil || !resp.Success {
		return Result{}, fmt.Errorf("ibcvm: timeout packet: %w", errOrUnknown(resp))
	}

	if err := host.Delete(ctx, ibc.CommitmentPath(s.Packet.SourcePort, s.Packet.SourceChannel, s.Packet.Sequence)); err != nil {
		return Result{}, err
	}
	return terminal(ibc.FullIbcEvent{TimeoutPacket: &ibc.TimeoutPacketEvent{Packet: s.Packet}}), nil
}

func nextSequence(ctx context.Context, host ibc.Host, path string) (uint64, error) {
	raw, err := host.Read(ctx, path)
	if err != nil {
		return 0, err
	}
	if raw == nil {
		return 1, nil
	}
	return decodeUint64(raw), nil
}

func encodeUint64(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func decodeUint64(b []byte) uint64 {
	if len(b) < 8 {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}
