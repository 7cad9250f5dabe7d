package ibc

import "fmt"

// DefaultPrefix is the storage namespace under which all IBC state lives
// for Cosmos-SDK-family interfaces, matching the original merkle prefix
// convention. DefaultPrefixFor reports no prefix for non-Cosmos
// interfaces; neither the VM nor config validation checks that two
// chains' prefixes match.
const DefaultPrefix = "ibc"

// DefaultPrefixFor resolves the conventional storage prefix for an
// IbcInterface. ibc-go-v8 (native and 08-wasm) and ibc-cosmwasm all settle
// on the historical "ibc" Cosmos-SDK store key; the Solidity, Move and NEAR
// ports are not Cosmos-SDK stores and use their own contract/account
// storage layout, so no single string applies and DefaultPrefixFor returns
// ("", false) for them. pkg/config has no per-chain prefix setting.
func DefaultPrefixFor(i IbcInterface) (string, bool) {
	switch i {
	case IbcInterfaceIbcGoV8Native, IbcInterfaceIbcGoV8Wasm, IbcInterfaceIbcCosmWasm:
		return DefaultPrefix, true
	default:
		return "", false
	}
}

// ClientStatePath is the storage path of a client's own state blob.
func ClientStatePath(id ClientId) string {
	return fmt.Sprintf("clients/%s/clientState", id)
}

// ConsensusStatePath is the storage path of a client's consensus state at
// the given height.
func ConsensusStatePath(id ClientId, h Height) string {
	return fmt.Sprintf("clients/%s/consensusStates/%s", id, h)
}

// ConnectionPath is the storage path of a connection end.
func ConnectionPath(id ConnectionId) string {
	return fmt.Sprintf("connections/%s", id)
}

// ChannelPath is the storage path of a channel end.
func ChannelPath(portID PortId, channelID ChannelId) string {
	return fmt.Sprintf("channelEnds/ports/%s/channels/%s", portID, channelID)
}

// CommitmentPath is the storage path of a packet commitment.
func CommitmentPath(portID PortId, channelID ChannelId, sequence uint64) string {
	return fmt.Sprintf("commitments/ports/%s/channels/%s/sequences/%d", portID, channelID, sequence)
}

// ReceiptPath is the storage path of a packet receipt (unordered channels
// only — records that a sequence was received, without the ack payload).
func ReceiptPath(portID PortId, channelID ChannelId, sequence uint64) string {
	return fmt.Sprintf("receipts/ports/%s/channels/%s/sequences/%d", portID, channelID, sequence)
}

// AckPath is the storage path of a packet acknowledgement.
func AckPath(portID PortId, channelID ChannelId, sequence uint64) string {
	return fmt.Sprintf("acks/ports/%s/channels/%s/sequences/%d", portID, channelID, sequence)
}

// NextSequenceSendPath is the storage path of a channel's next-send
// sequence counter.
func NextSequenceSendPath(portID PortId, channelID ChannelId) string {
	return fmt.Sprintf("nextSequenceSend/ports/%s/channels/%s", portID, channelID)
}

// NextSequenceRecvPath is the storage path of a channel's next-recv
// sequence counter (ordered channels only).
func NextSequenceRecvPath(portID PortId, channelID ChannelId) string {
	return fmt.Sprintf("nextSequenceRecv/ports/%s/channels/%s", portID, channelID)
}
