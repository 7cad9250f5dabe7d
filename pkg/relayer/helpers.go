package relayer

import (
	"encoding/json"
	"fmt"

	"github.com/unionlabs/voyager/pkg/ibc"
)

// eventHeight returns the height an event was observed at.
func eventHeight(e ibc.FullIbcEvent) ibc.Height {
	switch {
	case e.CreateClient != nil:
		return e.CreateClient.Height
	case e.UpdateClient != nil:
		return e.UpdateClient.Height
	case e.ConnectionOpenInit != nil:
		return e.ConnectionOpenInit.Height
	case e.ConnectionOpenTry != nil:
		return e.ConnectionOpenTry.Height
	case e.ConnectionOpenAck != nil:
		return e.ConnectionOpenAck.Height
	case e.ChannelOpenInit != nil:
		return e.ChannelOpenInit.Height
	case e.ChannelOpenTry != nil:
		return e.ChannelOpenTry.Height
	case e.ChannelOpenAck != nil:
		return e.ChannelOpenAck.Height
	case e.SendPacket != nil:
		return e.SendPacket.Height
	case e.WriteAck != nil:
		return e.WriteAck.Height
	default:
		return ibc.Height{}
	}
}

// eventCommitmentPath returns the storage path a proof must be fetched
// for to carry this event's datagram onward: the connection/channel end
// path during a handshake step, the packet commitment for SendPacket, or
// the ack path for WriteAck.
func eventCommitmentPath(e ibc.FullIbcEvent) string {
	switch {
	case e.ConnectionOpenInit != nil:
		return ibc.ConnectionPath(e.ConnectionOpenInit.ConnectionId)
	case e.ConnectionOpenTry != nil:
		return ibc.ConnectionPath(e.ConnectionOpenTry.ConnectionId)
	case e.ConnectionOpenAck != nil:
		return ibc.ConnectionPath(e.ConnectionOpenAck.ConnectionId)
	case e.ChannelOpenInit != nil:
		return ibc.ChannelPath(e.ChannelOpenInit.PortId, e.ChannelOpenInit.ChannelId)
	case e.ChannelOpenTry != nil:
		return ibc.ChannelPath(e.ChannelOpenTry.PortId, e.ChannelOpenTry.ChannelId)
	case e.ChannelOpenAck != nil:
		return ibc.ChannelPath(e.ChannelOpenAck.PortId, e.ChannelOpenAck.ChannelId)
	case e.SendPacket != nil:
		p := e.SendPacket.Packet
		return ibc.CommitmentPath(p.SourcePort, p.SourceChannel, p.Sequence)
	case e.WriteAck != nil:
		p := e.WriteAck.Packet
		return ibc.AckPath(p.DestinationPort, p.DestinationChannel, p.Sequence)
	default:
		return ""
	}
}

func eventKind(e ibc.FullIbcEvent) string {
	switch {
	case e.CreateClient != nil:
		return "CreateClient"
	case e.UpdateClient != nil:
		return "UpdateClient"
	case e.ConnectionOpenInit != nil:
		return "ConnectionOpenInit"
	case e.ConnectionOpenTry != nil:
		return "ConnectionOpenTry"
	case e.ConnectionOpenAck != nil:
		return "ConnectionOpenAck"
	case e.ChannelOpenInit != nil:
		return "ChannelOpenInit"
	case e.ChannelOpenTry != nil:
		return "ChannelOpenTry"
	case e.ChannelOpenAck != nil:
		return "ChannelOpenAck"
	case e.SendPacket != nil:
		return "SendPacket"
	case e.WriteAck != nil:
		return "WriteAck"
	default:
		return "Unknown"
	}
}

func mustJSON(v any) (json.RawMessage, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("relayer: marshal: %w", err)
	}
	return b, nil
}
