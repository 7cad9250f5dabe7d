package intentauth

import "fmt"

// Scheme names an ibcvm.MakerAttestation.Scheme value may carry.
const (
	SchemeEd25519 = "ed25519"
	SchemeBLS12381 = "bls12-381"
)

// Attestation is the minimal shape Verify needs; it has the same fields as
// ibcvm.MakerAttestation, so callers convert the VM's struct with
// Attestation(m) without this package importing ibcvm, avoiding a
// dependency cycle since ibcvm's host actions are resolved by callers that
// import both.
type Attestation struct {
	Scheme    string
	PublicKey []byte
	Signature []byte
	Message   []byte
}

// Verify dispatches to the scheme-specific verifier named by a.Scheme.
func Verify(a Attestation) (bool, error) {
	switch a.Scheme {
	case SchemeEd25519:
		return VerifyEd25519Intent(a.PublicKey, a.Signature, a.Message)
	case SchemeBLS12381:
		if err := ValidateBLSPublicKey(a.PublicKey); err != nil {
			return false, err
		}
		pk, err := BLSPublicKeyFromBytes(a.PublicKey)
		if err != nil {
			return false, err
		}
		sig, err := BLSSignatureFromBytes(a.Signature)
		if err != nil {
			return false, err
		}
		return pk.VerifyIntent(sig, a.Message), nil
	default:
		return false, fmt.Errorf("intentauth: unknown maker attestation scheme %q", a.Scheme)
	}
}
