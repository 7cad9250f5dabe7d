package intentauth

import (
	"crypto/ed25519"
	"testing"
)

func TestEd25519RoundTrip(t *testing.T) {
	pub, priv, err := GenerateEd25519KeyPair()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	message := []byte("intent packet bytes")
	sig := ed25519.Sign(priv, message)

	ok, err := Verify(Attestation{Scheme: SchemeEd25519, PublicKey: pub, Signature: sig, Message: message})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !ok {
		t.Fatal("expected valid signature to verify")
	}

	ok, err = Verify(Attestation{Scheme: SchemeEd25519, PublicKey: pub, Signature: sig, Message: []byte("tampered")})
	if err != nil {
		t.Fatalf("verify tampered: %v", err)
	}
	if ok {
		t.Fatal("expected tampered message to fail verification")
	}
}

func TestBLSRoundTrip(t *testing.T) {
	priv, pub, err := GenerateBLSKeyPair()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	message := []byte("intent packet bytes")
	sig := priv.SignIntent(message)

	ok, err := Verify(Attestation{Scheme: SchemeBLS12381, PublicKey: pub.Bytes(), Signature: sig.Bytes(), Message: message})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !ok {
		t.Fatal("expected valid signature to verify")
	}
}

func TestUnknownScheme(t *testing.T) {
	_, err := Verify(Attestation{Scheme: "rot13"})
	if err == nil {
		t.Fatal("expected error for unknown scheme")
	}
}
