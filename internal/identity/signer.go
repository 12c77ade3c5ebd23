package identity

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ClaimDigest is the message a reporter's key signs when claiming: the
// keccak hash of the claiming identity. Signing the caller rather than the
// batch prevents third parties from relaying someone else's proof.
func ClaimDigest(claimer common.Address) common.Hash {
	return crypto.Keccak256Hash(claimer.Bytes())
}

// RecoverSigner recovers the address that produced signature over msgHash.
// Signatures are 65 bytes [R || S || V] with V either 0/1 or 27/28.
func RecoverSigner(msgHash common.Hash, signature []byte) (common.Address, error) {
	if len(signature) != 65 {
		return common.Address{}, fmt.Errorf("invalid signature length: %d, expected 65", len(signature))
	}

	sig := make([]byte, 65)
	copy(sig, signature)
	if sig[64] == 27 || sig[64] == 28 {
		sig[64] -= 27
	}
	if sig[64] > 1 {
		return common.Address{}, fmt.Errorf("invalid recovery id: %d", sig[64])
	}

	pubKeyRaw, err := crypto.Ecrecover(msgHash.Bytes(), sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("ecrecover failed: %w", err)
	}

	pubKey, err := crypto.UnmarshalPubkey(pubKeyRaw)
	if err != nil {
		return common.Address{}, fmt.Errorf("pubkey unmarshal failed: %w", err)
	}

	return crypto.PubkeyToAddress(*pubKey), nil
}

// AddressFromPublicKey derives the Ethereum address of an uncompressed
// 65-byte secp256k1 public key.
func AddressFromPublicKey(publicKey []byte) (common.Address, error) {
	pubKey, err := crypto.UnmarshalPubkey(publicKey)
	if err != nil {
		return common.Address{}, fmt.Errorf("invalid public key: %w", err)
	}
	return crypto.PubkeyToAddress(*pubKey), nil
}
