// Package intentauth implements the maker attestation schemes a
// RecvIntentPacket step verifies via ActionVerifyMakerAttestation instead
// of a membership proof: a market maker signs the intent payload directly
// rather than the chain producing a provable commitment for it. Grounded
// on this tree's BLS12-381 implementation (gnark-crypto curve arithmetic
// only, not its ZK-circuit half — see the module-level dependency
// ledger) and generalized here from "validator attestation" to "maker
// attestation signature scheme."
package intentauth

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"sync"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
)

var (
	blsInitOnce sync.Once
	g1Gen       bls12381.G1Affine
	g2Gen       bls12381.G2Affine
)

// DomainIntentAttestation is the domain separation tag maker attestations
// are signed under, distinguishing them from any other signature this key
// might produce.
const DomainIntentAttestation = "VOYAGER_INTENT_ATTESTATION_V1"

const (
	BLSPrivateKeySize = 32
	BLSPublicKeySize  = 96
	BLSSignatureSize  = 48
)

func blsInit() {
	blsInitOnce.Do(func() {
		_, _, g1Gen, g2Gen = bls12381.Generators()
	})
}

// BLSPrivateKey is a maker's signing key, a scalar in Fr.
type BLSPrivateKey struct{ scalar fr.Element }

// BLSPublicKey is a maker's verification key, a point on G2.
type BLSPublicKey struct{ point bls12381.G2Affine }

// BLSSignature is a maker attestation signature, a point on G1.
type BLSSignature struct{ point bls12381.G1Affine }

// GenerateBLSKeyPair generates a new maker signing key pair.
func GenerateBLSKeyPair() (*BLSPrivateKey, *BLSPublicKey, error) {
	blsInit()
	var sk fr.Element
	if _, err := sk.SetRandom(); err != nil {
		return nil, nil, fmt.Errorf("intentauth: generate scalar: %w", err)
	}
	priv := &BLSPrivateKey{scalar: sk}
	return priv, priv.PublicKey(), nil
}

// BLSPrivateKeyFromHex deserializes a maker private key from hex.
func BLSPrivateKeyFromHex(hexStr string) (*BLSPrivateKey, error) {
	blsInit()
	data, err := hex.DecodeString(hexStr)
	if err != nil {
		return nil, fmt.Errorf("intentauth: decode hex: %w", err)
	}
	if len(data) != BLSPrivateKeySize {
		return nil, fmt.Errorf("intentauth: invalid private key size: got %d, want %d", len(data), BLSPrivateKeySize)
	}
	var sk fr.Element
	sk.SetBytes(data)
	return &BLSPrivateKey{scalar: sk}, nil
}

// BLSPublicKeyFromBytes deserializes a maker public key.
func BLSPublicKeyFromBytes(data []byte) (*BLSPublicKey, error) {
	blsInit()
	var pk bls12381.G2Affine
	if _, err := pk.SetBytes(data); err != nil {
		return nil, fmt.Errorf("intentauth: deserialize public key: %w", err)
	}
	return &BLSPublicKey{point: pk}, nil
}

// BLSSignatureFromBytes deserializes a maker attestation signature.
func BLSSignatureFromBytes(data []byte) (*BLSSignature, error) {
	blsInit()
	var sig bls12381.G1Affine
	if _, err := sig.SetBytes(data); err != nil {
		return nil, fmt.Errorf("intentauth: deserialize signature: %w", err)
	}
	return &BLSSignature{point: sig}, nil
}

func (sk *BLSPrivateKey) Bytes() []byte {
	b := sk.scalar.Bytes()
	return b[:]
}

// PublicKey derives pk = sk * G2.
func (sk *BLSPrivateKey) PublicKey() *BLSPublicKey {
	blsInit()
	var pk bls12381.G2Affine
	var skBig big.Int
	sk.scalar.BigInt(&skBig)
	pk.ScalarMultiplication(&g2Gen, &skBig)
	return &BLSPublicKey{point: pk}
}

// SignIntent signs message (the canonical intent packet bytes) under
// DomainIntentAttestation: sig = sk * H(domain || message).
func (sk *BLSPrivateKey) SignIntent(message []byte) *BLSSignature {
	h := hashToG1(domainMessage(message))
	var sig bls12381.G1Affine
	var skBig big.Int
	sk.scalar.BigInt(&skBig)
	sig.ScalarMultiplication(&h, &skBig)
	return &BLSSignature{point: sig}
}

func (pk *BLSPublicKey) Bytes() []byte {
	b := pk.point.Bytes()
	return b[:]
}

// VerifyIntent checks sig against message via the pairing equation
// e(sig, G2) == e(H(domain||message), pk).
func (pk *BLSPublicKey) VerifyIntent(sig *BLSSignature, message []byte) bool {
	blsInit()
	h := hashToG1(domainMessage(message))

	var negPk bls12381.G2Affine
	negPk.Neg(&pk.point)

	ok, err := bls12381.PairingCheck(
		[]bls12381.G1Affine{sig.point, h},
		[]bls12381.G2Affine{g2Gen, negPk},
	)
	return err == nil && ok
}

func (sig *BLSSignature) Bytes() []byte {
	b := sig.point.Bytes()
	return b[:]
}

// hashToG1 hashes a message to a point on G1 via hash-and-increment.
func hashToG1(message []byte) bls12381.G1Affine {
	h := sha256.New()
	h.Write([]byte("BLS_SIG_BLS12381G1_XMD:SHA-256_SSWU_RO_"))
	h.Write(message)

	var counter uint64
	for counter < 1000 {
		h2 := sha256.New()
		h2.Write(h.Sum(nil))
		binary.Write(h2, binary.BigEndian, counter)
		hash := h2.Sum(nil)

		var point bls12381.G1Affine
		if _, err := point.SetBytes(hash); err == nil && !point.IsInfinity() {
			return point
		}

		var scalar fr.Element
		scalar.SetBytes(hash)
		var scalarBig big.Int
		scalar.BigInt(&scalarBig)

		var result bls12381.G1Affine
		result.ScalarMultiplication(&g1Gen, &scalarBig)
		if !result.IsInfinity() {
			return result
		}
		counter++
	}
	return g1Gen
}

func domainMessage(message []byte) []byte {
	h := sha256.New()
	h.Write([]byte(DomainIntentAttestation))
	h.Write(message)
	return h.Sum(nil)
}

// ValidateBLSPublicKey checks a maker public key is on-curve, non-identity,
// and in the correct G2 subgroup, fail-closed against rogue-key attacks.
func ValidateBLSPublicKey(pubKeyBytes []byte) error {
	blsInit()
	if len(pubKeyBytes) != BLSPublicKeySize {
		return fmt.Errorf("intentauth: invalid public key size: got %d, want %d", len(pubKeyBytes), BLSPublicKeySize)
	}
	var pk bls12381.G2Affine
	if _, err := pk.SetBytes(pubKeyBytes); err != nil {
		return fmt.Errorf("intentauth: invalid public key encoding: %w", err)
	}
	if !pk.IsOnCurve() {
		return errors.New("intentauth: public key not on BLS12-381 G2 curve")
	}
	if pk.IsInfinity() {
		return errors.New("intentauth: public key is identity point")
	}
	if !pk.IsInSubGroup() {
		return errors.New("intentauth: public key not in correct G2 subgroup")
	}
	return nil
}
