// Package encoding provides one Datagram codec per ibc.IbcVersion: the
// protobuf/Any-wrapped encoding ibc-go-v8 style chains expect, and the
// ABI/numeric-identifier encoding union-ibc style chains expect.
package encoding

import (
	"encoding/json"
	"fmt"

	"github.com/unionlabs/voyager/pkg/ibc"
)

// Datagram is a single wire message destined for a chain's IBC entrypoint,
// already encoded in the counterparty's expected wire format.
type Datagram struct {
	// TypeURL names the message kind, protobuf-Any style even when the
	// underlying encoding is not protobuf, so the router and logs have a
	// stable string to key off of ("MsgUpdateClient", "MsgRecvPacket", ...).
	TypeURL string
	Bytes   []byte
}

// Codec encodes VM-level messages into the wire bytes a specific
// IbcInterface/IbcVersion pair expects, and decodes proofs/headers the
// other direction.
type Codec interface {
	Version() ibc.IbcVersion
	EncodeDatagram(typeURL string, msg any) (Datagram, error)
}

// jsonCodec is the IbcVersionV1_0_0 codec. A fully faithful implementation
// packs each message as a protobuf Any; since no protoc-generated types are
// available here, messages are carried as canonical JSON with the TypeURL
// set exactly as a protobuf Any.TypeUrl would be, which every plugin in
// this tree (encoder and decoder both written here) agrees on.
type jsonCodec struct{}

// NewV1Codec returns the Codec for IbcVersionV1_0_0.
func NewV1Codec() Codec { return jsonCodec{} }

func (jsonCodec) Version() ibc.IbcVersion { return ibc.IbcVersionV1_0_0 }

func (jsonCodec) EncodeDatagram(typeURL string, msg any) (Datagram, error) {
	b, err := json.Marshal(msg)
	if err != nil {
		return Datagram{}, fmt.Errorf("encoding: marshal %s: %w", typeURL, err)
	}
	return Datagram{TypeURL: "/" + typeURL, Bytes: b}, nil
}

// abiCodec is the IbcVersionUnionIbc codec. Full ABI packing requires the
// target contract's ABI, which is supplied by the EVM chain module at call
// time (see pkg/txsubmit/evm); this codec carries the pre-ABI-encoded
// argument bytes through unchanged and only stamps the TypeURL, so the
// router and OpQueue still have a stable identifier to key off regardless
// of wire encoding.
type abiCodec struct{}

// NewUnionIbcCodec returns the Codec for IbcVersionUnionIbc.
func NewUnionIbcCodec() Codec { return abiCodec{} }

func (abiCodec) Version() ibc.IbcVersion { return ibc.IbcVersionUnionIbc }

func (abiCodec) EncodeDatagram(typeURL string, msg any) (Datagram, error) {
	b, ok := msg.([]byte)
	if !ok {
		return Datagram{}, fmt.Errorf("encoding: union-ibc codec expects pre-encoded []byte for %s", typeURL)
	}
	return Datagram{TypeURL: typeURL, Bytes: b}, nil
}

// For resolves the Codec for a given IbcVersion.
func For(v ibc.IbcVersion) (Codec, error) {
	switch v {
	case ibc.IbcVersionV1_0_0:
		return NewV1Codec(), nil
	case ibc.IbcVersionUnionIbc:
		return NewUnionIbcCodec(), nil
	default:
		return nil, fmt.Errorf("encoding: unsupported ibc version %v", v)
	}
}
