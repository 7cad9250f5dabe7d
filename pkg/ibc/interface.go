package ibc

// IbcInterface names the wire dialect a counterparty chain speaks: which
// proto/ABI shape its messages use and which storage layout its host
// exposes. Mirrors the well-known interface tags used across the relayer
// plugins so the router and codec can dispatch on a plain string.
type IbcInterface string

const (
	IbcInterfaceIbcGoV8Native IbcInterface = "ibc-go-v8/native"
	IbcInterfaceIbcGoV8Wasm   IbcInterface = "ibc-go-v8/08-wasm"
	IbcInterfaceIbcSolidity   IbcInterface = "ibc-solidity"
	IbcInterfaceIbcCosmWasm   IbcInterface = "ibc-cosmwasm"
	IbcInterfaceIbcMoveAptos  IbcInterface = "ibc-move/aptos"
	IbcInterfaceIbcNear       IbcInterface = "ibc-near"
)

// IsValid reports whether i is one of the well-known interface tags.
func (i IbcInterface) IsValid() bool {
	switch i {
	case IbcInterfaceIbcGoV8Native, IbcInterfaceIbcGoV8Wasm, IbcInterfaceIbcSolidity,
		IbcInterfaceIbcCosmWasm, IbcInterfaceIbcMoveAptos, IbcInterfaceIbcNear:
		return true
	}
	return false
}

func (i IbcInterface) String() string { return string(i) }

// ClientType names the light client algorithm a ClientId was created with.
type ClientType string

const (
	ClientTypeTendermint ClientType = "07-tendermint"
	ClientTypeCometBls   ClientType = "cometbls"
	ClientTypeEthereum   ClientType = "ethereum"
	ClientTypeScroll     ClientType = "scroll"
	ClientTypeArbitrum   ClientType = "arbitrum"
	ClientTypeBeaconKit  ClientType = "beacon-kit"
	ClientTypeMovement   ClientType = "movement"
	ClientTypeNear       ClientType = "near"
)

func (c ClientType) String() string { return string(c) }

// ConsensusType names the consensus algorithm backing a ClientType; several
// client types share a consensus algorithm (e.g. beacon-kit and scroll both
// settle on an Ethereum-style consensus).
type ConsensusType string

const (
	ConsensusTypeTendermint ConsensusType = "tendermint"
	ConsensusTypeEthereum   ConsensusType = "ethereum"
	ConsensusTypeMovement   ConsensusType = "movement"
	ConsensusTypeNear       ConsensusType = "near"
)

func (c ConsensusType) String() string { return string(c) }

// IbcVersion selects the datagram encoding a counterparty expects.
type IbcVersion int

const (
	// IbcVersionV1_0_0 is the protobuf/Any-wrapped encoding used by
	// ibc-go-v8 native and 08-wasm light clients.
	IbcVersionV1_0_0 IbcVersion = iota
	// IbcVersionUnionIbc is the ABI-encoded, numeric-identifier encoding
	// used by ibc-solidity and the CosmWasm/Move/NEAR ports of it.
	IbcVersionUnionIbc
)

func (v IbcVersion) String() string {
	switch v {
	case IbcVersionV1_0_0:
		return "1.0.0"
	case IbcVersionUnionIbc:
		return "union-ibc"
	default:
		return "unknown"
	}
}

// ParseIbcVersion parses the textual form produced by String.
func ParseIbcVersion(s string) (IbcVersion, error) {
	switch s {
	case "1.0.0":
		return IbcVersionV1_0_0, nil
	case "union-ibc":
		return IbcVersionUnionIbc, nil
	default:
		return 0, errUnknownVersion(s)
	}
}

type errUnknownVersion string

func (e errUnknownVersion) Error() string { return "ibc: unknown version " + string(e) }

// ClientInfo pairs a client's type with the interface and version it
// encodes its datagrams with. Set once at CreateClient and immutable
// thereafter.
type ClientInfo struct {
	ClientType   ClientType
	IbcInterface IbcInterface
	Version      IbcVersion
}

// ClientStateMeta is the subset of client state fields the relayer needs
// without decoding the full, chain-specific client state blob.
type ClientStateMeta struct {
	Height  Height
	ChainId ChainId
}

// ConsensusStateMeta is the subset of consensus state fields the relayer
// needs without decoding the full consensus state blob.
type ConsensusStateMeta struct {
	TimestampNanos uint64
}

// QueryHeight selects which height a read against a Host should observe.
type QueryHeight struct {
	// Latest requests the most recent committed height. Specific, when
	// non-zero, pins an exact height instead.
	Latest   bool
	Specific Height
}

// LatestHeight is the QueryHeight selecting the chain tip.
var LatestHeight = QueryHeight{Latest: true}

// AtHeight pins a QueryHeight to an exact height.
func AtHeight(h Height) QueryHeight {
	return QueryHeight{Specific: h}
}
