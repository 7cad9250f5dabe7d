package ibc

// FullIbcEvent is the catalog of on-chain events the relayer reacts to, one
// pointer field per event kind. Exactly one field is non-nil. Using a
// struct-of-pointers (rather than an interface{} or Go's lack of a native
// sum type) keeps the event JSON-serializable end to end, which matters
// because it is the payload the OpQueue persists across restarts.
type FullIbcEvent struct {
	CreateClient       *CreateClientEvent       `json:"create_client,omitempty"`
	UpdateClient       *UpdateClientEvent       `json:"update_client,omitempty"`
	ConnectionOpenInit *ConnectionOpenInitEvent `json:"connection_open_init,omitempty"`
	ConnectionOpenTry  *ConnectionOpenTryEvent  `json:"connection_open_try,omitempty"`
	ConnectionOpenAck  *ConnectionOpenAckEvent  `json:"connection_open_ack,omitempty"`
	ChannelOpenInit    *ChannelOpenInitEvent    `json:"channel_open_init,omitempty"`
	ChannelOpenTry     *ChannelOpenTryEvent     `json:"channel_open_try,omitempty"`
	ChannelOpenAck     *ChannelOpenAckEvent     `json:"channel_open_ack,omitempty"`
	SendPacket         *SendPacketEvent         `json:"send_packet,omitempty"`
	WriteAck           *WriteAckEvent           `json:"write_acknowledgement,omitempty"`
	TimeoutPacket      *TimeoutPacketEvent      `json:"timeout_packet,omitempty"`
}

// baseEvent carries the chain an event originated on and the height it was
// observed at.
type baseEvent struct {
	ChainId ChainId `json:"chain_id"`
	Height  Height  `json:"height"`
}

type CreateClientEvent struct {
	baseEvent
	ClientId   ClientId   `json:"client_id"`
	ClientType ClientType `json:"client_type"`
}

type UpdateClientEvent struct {
	baseEvent
	ClientId        ClientId `json:"client_id"`
	ConsensusHeight Height   `json:"consensus_height"`
}

type ConnectionOpenInitEvent struct {
	baseEvent
	ConnectionId         ConnectionId `json:"connection_id"`
	ClientId             ClientId     `json:"client_id"`
	CounterpartyClientId ClientId     `json:"counterparty_client_id"`
}

type ConnectionOpenTryEvent struct {
	baseEvent
	ConnectionId               ConnectionId `json:"connection_id"`
	ClientId                   ClientId     `json:"client_id"`
	CounterpartyClientId       ClientId     `json:"counterparty_client_id"`
	CounterpartyConnectionId   ConnectionId `json:"counterparty_connection_id"`
}

type ConnectionOpenAckEvent struct {
	baseEvent
	ConnectionId             ConnectionId `json:"connection_id"`
	CounterpartyConnectionId ConnectionId `json:"counterparty_connection_id"`
}

type ChannelOpenInitEvent struct {
	baseEvent
	PortId                  PortId       `json:"port_id"`
	ChannelId               ChannelId    `json:"channel_id"`
	ConnectionId            ConnectionId `json:"connection_id"`
	CounterpartyPortId      PortId       `json:"counterparty_port_id"`
}

type ChannelOpenTryEvent struct {
	baseEvent
	PortId                  PortId       `json:"port_id"`
	ChannelId               ChannelId    `json:"channel_id"`
	ConnectionId            ConnectionId `json:"connection_id"`
	CounterpartyPortId      PortId       `json:"counterparty_port_id"`
	CounterpartyChannelId   ChannelId    `json:"counterparty_channel_id"`
}

type ChannelOpenAckEvent struct {
	baseEvent
	PortId                PortId    `json:"port_id"`
	ChannelId             ChannelId `json:"channel_id"`
	CounterpartyChannelId ChannelId `json:"counterparty_channel_id"`
}

type SendPacketEvent struct {
	baseEvent
	Packet Packet `json:"packet"`
}

type WriteAckEvent struct {
	baseEvent
	Packet          Packet          `json:"packet"`
	Acknowledgement Acknowledgement `json:"acknowledgement"`
}

type TimeoutPacketEvent struct {
	baseEvent
	Packet Packet `json:"packet"`
}

// ClientId returns the client identifier most events carry, or "" for
// events that don't name one (e.g. SendPacket).
func (e FullIbcEvent) ClientId() ClientId {
	switch {
	case e.CreateClient != nil:
		return e.CreateClient.ClientId
	case e.UpdateClient != nil:
		return e.UpdateClient.ClientId
	case e.ConnectionOpenInit != nil:
		return e.ConnectionOpenInit.ClientId
	case e.ConnectionOpenTry != nil:
		return e.ConnectionOpenTry.ClientId
	default:
		return ""
	}
}

// CounterpartyClientId returns the remote client identifier an event names,
// if any, used by the relayer to decide which consensus module to query for
// a header update before assembling the datagram that follows this event.
func (e FullIbcEvent) CounterpartyClientId() ClientId {
	switch {
	case e.ConnectionOpenInit != nil:
		return e.ConnectionOpenInit.CounterpartyClientId
	case e.ConnectionOpenTry != nil:
		return e.ConnectionOpenTry.CounterpartyClientId
	default:
		return ""
	}
}

// ChainId returns the chain the event was observed on.
func (e FullIbcEvent) ChainId() ChainId {
	switch {
	case e.CreateClient != nil:
		return e.CreateClient.ChainId
	case e.UpdateClient != nil:
		return e.UpdateClient.ChainId
	case e.ConnectionOpenInit != nil:
		return e.ConnectionOpenInit.ChainId
	case e.ConnectionOpenTry != nil:
		return e.ConnectionOpenTry.ChainId
	case e.ConnectionOpenAck != nil:
		return e.ConnectionOpenAck.ChainId
	case e.ChannelOpenInit != nil:
		return e.ChannelOpenInit.ChainId
	case e.ChannelOpenTry != nil:
		return e.ChannelOpenTry.ChainId
	case e.ChannelOpenAck != nil:
		return e.ChannelOpenAck.ChainId
	case e.SendPacket != nil:
		return e.SendPacket.ChainId
	case e.WriteAck != nil:
		return e.WriteAck.ChainId
	case e.TimeoutPacket != nil:
		return e.TimeoutPacket.ChainId
	default:
		return ""
	}
}
