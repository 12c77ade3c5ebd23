// Package vrf hosts VRF verifier implementations consumed by the board
// through the board.VRFVerifier interface. Elliptic-curve VRF arithmetic is
// an opaque trusted primitive; this package only fixes the capability shape
// and ships a deterministic verifier for devnets.
package vrf

import (
	"crypto/hmac"

	"github.com/ethereum/go-ethereum/crypto"
)

// Insecure is a hash-based stand-in for a secp256k1 VRF. A "proof" is
// keccak(publicKey || message): verifiable by anyone, forgeable by anyone.
// Devnets and tests only — never deploy against real value.
type Insecure struct{}

// Prove computes the proof the Insecure verifier accepts for (publicKey,
// message). Helper points are unused and may be nil.
func (Insecure) Prove(publicKey, message []byte) []byte {
	return crypto.Keccak256(publicKey, message)
}

// FastVerify checks the proof against publicKey and message. uPoint and
// vComponents are accepted for interface compatibility and ignored.
func (Insecure) FastVerify(publicKey, proof, message, uPoint, vComponents []byte) bool {
	return hmac.Equal(proof, crypto.Keccak256(publicKey, message))
}

// ProofToHash maps the proof to a uniformly distributed 32-byte value.
func (Insecure) ProofToHash(proof []byte) ([32]byte, error) {
	var out [32]byte
	copy(out[:], crypto.Keccak256(proof))
	return out, nil
}
