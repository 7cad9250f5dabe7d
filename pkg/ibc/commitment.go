package ibc

import (
	"crypto/sha256"
	"encoding/binary"
)

// CanonicalPacketBytes returns the canonical byte encoding of a packet's
// commitment preimage: the timeout timestamp, the timeout height's revision
// number and revision height (each a fixed-width big-endian uint64), then
// the sha256 of the packet data, concatenated in that order with no length
// prefixes.
func CanonicalPacketBytes(p Packet) []byte {
	buf := make([]byte, 0, 8+8+8+32)
	buf = appendUint64(buf, p.TimeoutTimestamp)
	buf = appendUint64(buf, p.TimeoutHeight.RevisionNumber)
	buf = appendUint64(buf, p.TimeoutHeight.RevisionHeight)
	dataHash := sha256.Sum256(p.Data)
	buf = append(buf, dataHash[:]...)
	return buf
}

// CommitmentHash returns the sha256 digest committed to storage at
// CommitmentPath for the given packet.
func CommitmentHash(p Packet) [32]byte {
	return sha256.Sum256(CanonicalPacketBytes(p))
}

// AcknowledgementHash returns the sha256 digest committed to storage at
// AckPath for the given acknowledgement.
func AcknowledgementHash(a Acknowledgement) [32]byte {
	return sha256.Sum256(a.Data)
}

func appendUint64(buf []byte, v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return append(buf, b[:]...)
}
