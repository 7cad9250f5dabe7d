package encoding

import (
	"testing"

	"github.com/unionlabs/voyager/pkg/ibc"
)

func TestForResolvesKnownVersions(t *testing.T) {
	v1, err := For(ibc.IbcVersionV1_0_0)
	if err != nil {
		t.Fatalf("For(v1): %v", err)
	}
	if v1.Version() != ibc.IbcVersionV1_0_0 {
		t.Errorf("v1.Version() = %v", v1.Version())
	}

	union, err := For(ibc.IbcVersionUnionIbc)
	if err != nil {
		t.Fatalf("For(union): %v", err)
	}
	if union.Version() != ibc.IbcVersionUnionIbc {
		t.Errorf("union.Version() = %v", union.Version())
	}
}

func TestForRejectsUnknownVersion(t *testing.T) {
	if _, err := For(ibc.IbcVersion(99)); err == nil {
		t.Fatal("expected an error for an unsupported ibc version")
	}
}

func TestV1CodecEncodesJSONWithLeadingSlashTypeURL(t *testing.T) {
	codec := NewV1Codec()
	dg, err := codec.EncodeDatagram("ibc.core.client.v1.MsgUpdateClient", map[string]string{"client_id": "07-tendermint-0"})
	if err != nil {
		t.Fatalf("EncodeDatagram: %v", err)
	}
	if dg.TypeURL != "/ibc.core.client.v1.MsgUpdateClient" {
		t.Errorf("TypeURL = %q", dg.TypeURL)
	}
	if len(dg.Bytes) == 0 {
		t.Error("expected non-empty encoded bytes")
	}
}

func TestUnionIbcCodecPassesThroughPreEncodedBytes(t *testing.T) {
	codec := NewUnionIbcCodec()
	payload := []byte{0xde, 0xad, 0xbe, 0xef}
	dg, err := codec.EncodeDatagram("MsgRecvPacket", payload)
	if err != nil {
		t.Fatalf("EncodeDatagram: %v", err)
	}
	if dg.TypeURL != "MsgRecvPacket" {
		t.Errorf("TypeURL = %q, want no leading slash for union-ibc", dg.TypeURL)
	}
	if string(dg.Bytes) != string(payload) {
		t.Error("expected the pre-encoded bytes to pass through unchanged")
	}
}

func TestUnionIbcCodecRejectsNonBytePayload(t *testing.T) {
	codec := NewUnionIbcCodec()
	if _, err := codec.EncodeDatagram("MsgRecvPacket", map[string]string{"not": "bytes"}); err == nil {
		t.Fatal("expected an error when the union-ibc codec is given a non-[]byte message")
	}
}
