package intentauth

import (
	"crypto/ed25519"
	"fmt"
)

// VerifyEd25519Intent checks an Ed25519 maker attestation: pubKey and
// signature are raw 32/64-byte Ed25519 values, message is the canonical
// intent packet bytes (no domain-prefixing; Ed25519's own signing
// convention already binds the whole message).
func VerifyEd25519Intent(pubKey, signature, message []byte) (bool, error) {
	if len(pubKey) != ed25519.PublicKeySize {
		return false, fmt.Errorf("intentauth: invalid ed25519 public key size: got %d, want %d", len(pubKey), ed25519.PublicKeySize)
	}
	if len(signature) != ed25519.SignatureSize {
		return false, fmt.Errorf("intentauth: invalid ed25519 signature size: got %d, want %d", len(signature), ed25519.SignatureSize)
	}
	return ed25519.Verify(ed25519.PublicKey(pubKey), message, signature), nil
}

// GenerateEd25519KeyPair generates a maker signing key pair for test
// fixtures and key provisioning tools.
func GenerateEd25519KeyPair() (ed25519.PublicKey, ed25519.PrivateKey, error) {
	return ed25519.GenerateKey(nil)
}
