package identity

import (
	"crypto/ecdsa"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ReporterWallet manages the secp256k1 key a reporter claims and reports
// with. Keys live in a go-ethereum keystore directory.
type ReporterWallet struct {
	keystore   *keystore.KeyStore
	keyPath    string
	address    common.Address
	privateKey *ecdsa.PrivateKey
	loaded     bool // true if the wallet was loaded from an existing keystore file
}

// LoadReporterWallet loads an existing wallet from the keystore directory.
// Returns (nil, nil) if no wallet file is found — this signals read-only mode.
func LoadReporterWallet(keystoreDir string) (*ReporterWallet, error) {
	if err := os.MkdirAll(keystoreDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create keystore directory: %w", err)
	}

	ks := keystore.NewKeyStore(keystoreDir, keystore.StandardScryptN, keystore.StandardScryptP)
	accounts := ks.Accounts()
	if len(accounts) == 0 {
		return nil, nil // No wallet found — read-only mode
	}

	return &ReporterWallet{
		keystore: ks,
		keyPath:  keystoreDir,
		address:  accounts[0].Address,
		loaded:   true,
	}, nil
}

// CreateReporterWallet creates a new wallet in the keystore directory.
// Returns an error if a wallet already exists (use LoadReporterWallet to load it).
func CreateReporterWallet(keystoreDir string, password string) (*ReporterWallet, error) {
	if err := os.MkdirAll(keystoreDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create keystore directory: %w", err)
	}

	ks := keystore.NewKeyStore(keystoreDir, keystore.StandardScryptN, keystore.StandardScryptP)
	if len(ks.Accounts()) > 0 {
		return nil, fmt.Errorf("wallet already exists in %s (use LoadReporterWallet to load it)", keystoreDir)
	}

	account, err := ks.NewAccount(password)
	if err != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}

	return &ReporterWallet{
		keystore: ks,
		keyPath:  keystoreDir,
		address:  account.Address,
		loaded:   true,
	}, nil
}

// ImportReporterWallet imports a private key into a new wallet in the
// keystore directory. Returns an error if a wallet already exists.
func ImportReporterWallet(keystoreDir string, privKeyHex string, password string) (*ReporterWallet, error) {
	if err := os.MkdirAll(keystoreDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create keystore directory: %w", err)
	}

	ks := keystore.NewKeyStore(keystoreDir, keystore.StandardScryptN, keystore.StandardScryptP)
	if len(ks.Accounts()) > 0 {
		return nil, fmt.Errorf("wallet already exists in %s (use LoadReporterWallet to load it)", keystoreDir)
	}

	privateKey, err := crypto.HexToECDSA(privKeyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid private key hex: %w", err)
	}

	account, err := ks.ImportECDSA(privateKey, password)
	if err != nil {
		return nil, fmt.Errorf("failed to import key: %w", err)
	}

	return &ReporterWallet{
		keystore: ks,
		keyPath:  keystoreDir,
		address:  account.Address,
		loaded:   true,
	}, nil
}

// IsLoaded returns true if the wallet manager has a loaded wallet.
func (rw *ReporterWallet) IsLoaded() bool {
	return rw != nil && rw.loaded
}

// Address returns the reporter's Ethereum address
func (rw *ReporterWallet) Address() common.Address {
	return rw.address
}

// AddressString returns the address as a hex string
func (rw *ReporterWallet) AddressString() string {
	return rw.address.Hex()
}

// KeystoreDir returns the path to the keystore directory
func (rw *ReporterWallet) KeystoreDir() string {
	return rw.keyPath
}

// PrivateKey returns the private key (for signing claims and reports)
func (rw *ReporterWallet) PrivateKey(password string) (*ecdsa.PrivateKey, error) {
	if rw.privateKey != nil {
		return rw.privateKey, nil
	}

	accounts := rw.keystore.Accounts()
	if len(accounts) == 0 {
		return nil, fmt.Errorf("no accounts found")
	}

	account := accounts[0]
	keyJSON, err := os.ReadFile(account.URL.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}

	key, err := keystore.DecryptKey(keyJSON, password)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt key: %w", err)
	}

	rw.privateKey = key.PrivateKey
	return key.PrivateKey, nil
}

// ClearCachedKey zeros and removes the cached private key from memory.
// The key will be re-derived from the keystore on next use.
func (rw *ReporterWallet) ClearCachedKey() {
	if rw.privateKey != nil {
		// Zero the private key bytes before releasing
		rw.privateKey.D.SetUint64(0)
		rw.privateKey = nil
	}
}

// SignHash signs a hash with the wallet's private key
func (rw *ReporterWallet) SignHash(hash []byte, password string) ([]byte, error) {
	privateKey, err := rw.PrivateKey(password)
	if err != nil {
		return nil, err
	}

	signature, err := crypto.Sign(hash, privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign hash: %w", err)
	}

	return signature, nil
}

// SignClaim signs the claim digest binding this wallet's key to the given
// claiming identity.
func (rw *ReporterWallet) SignClaim(claimer common.Address, password string) ([]byte, error) {
	return rw.SignHash(ClaimDigest(claimer).Bytes(), password)
}

// PublicKeyBytes returns the wallet's uncompressed public key encoding.
func (rw *ReporterWallet) PublicKeyBytes(password string) ([]byte, error) {
	privateKey, err := rw.PrivateKey(password)
	if err != nil {
		return nil, err
	}
	return crypto.FromECDSAPub(&privateKey.PublicKey), nil
}
