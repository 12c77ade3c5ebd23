package board

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/bridgeboard/bridgeboard/internal/identity"
	"github.com/bridgeboard/bridgeboard/pkg/types"
)

// fakeStore is a mutable payload store so tests can tamper with stored bytes
type fakeStore struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newFakeStore() *fakeStore {
	return &fakeStore{entries: make(map[string][]byte)}
}

func (s *fakeStore) put(ref string, payload []byte) {
	s.mu.Lock()
	s.entries[ref] = payload
	s.mu.Unlock()
}

func (s *fakeStore) PayloadBytes(ref string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	payload, ok := s.entries[ref]
	if !ok {
		return nil, fmt.Errorf("no payload for %s", ref)
	}
	return payload, nil
}

// fakeRelay lets tests script the external chain's answers
type fakeRelay struct {
	epoch  uint64
	beacon []byte

	inclusionOK  bool
	inclusionErr error
	resultOK     bool
	resultErr    error

	relayers   map[common.Hash]common.Address
	relayerErr error
}

func newFakeRelay() *fakeRelay {
	return &fakeRelay{
		beacon:      []byte("beacon"),
		inclusionOK: true,
		resultOK:    true,
		relayers:    make(map[common.Hash]common.Address),
	}
}

func (r *fakeRelay) CurrentEpoch() uint64  { return r.epoch }
func (r *fakeRelay) CurrentBeacon() []byte { return r.beacon }

func (r *fakeRelay) VerifyInclusionProof(proof []common.Hash, blockHash common.Hash, epoch, index uint64, payloadHash common.Hash) (bool, error) {
	return r.inclusionOK, r.inclusionErr
}

func (r *fakeRelay) VerifyResultProof(proof []common.Hash, blockHash common.Hash, epoch, index uint64, resultHash common.Hash) (bool, error) {
	return r.resultOK, r.resultErr
}

func (r *fakeRelay) RelayerOfRecord(blockHash common.Hash, epoch uint64) (common.Address, error) {
	if r.relayerErr != nil {
		return common.Address{}, r.relayerErr
	}
	relayer, ok := r.relayers[blockHash]
	if !ok {
		return common.Address{}, fmt.Errorf("unknown block %s", blockHash)
	}
	return relayer, nil
}

// fakeVRF accepts every proof and reports a scripted output
type fakeVRF struct {
	verifyOK bool
	output   [32]byte
}

func newFakeVRF() *fakeVRF {
	return &fakeVRF{verifyOK: true}
}

func (v *fakeVRF) FastVerify(publicKey, proof, message, uPoint, vComponents []byte) bool {
	return v.verifyOK
}

func (v *fakeVRF) ProofToHash(proof []byte) ([32]byte, error) {
	return v.output, nil
}

// fakeHeight is a settable host-chain height
type fakeHeight struct {
	height uint64
}

func (h *fakeHeight) BlockNumber() uint64 { return h.height }

// fixture bundles a board with its scripted collaborators
type fixture struct {
	board  *Board
	store  *fakeStore
	relay  *fakeRelay
	vrf    *fakeVRF
	height *fakeHeight
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := newFakeStore()
	relay := newFakeRelay()
	fv := newFakeVRF()
	height := &fakeHeight{height: 1000}

	b, err := New(Config{ReplicationFactor: 10, ClaimExpiryBlocks: 100}, store, relay, fv, height)
	if err != nil {
		t.Fatalf("Failed to create board: %v", err)
	}
	return &fixture{board: b, store: store, relay: relay, vrf: fv, height: height}
}

// postRequest creates a funded request with the deposit split 0.3/0.3/0.4
// at gas price 1, scaled by unit.
func (f *fixture) postRequest(t *testing.T, requestor common.Address, unit int64) types.Handle {
	t.Helper()

	ref := fmt.Sprintf("payload-%d", len(f.store.entries))
	f.store.put(ref, []byte("req "+ref))

	handle, err := f.board.Create(requestor, ref,
		big.NewInt(3*unit), big.NewInt(3*unit), big.NewInt(10*unit), big.NewInt(1))
	if err != nil {
		t.Fatalf("Failed to create request: %v", err)
	}
	return handle
}

// claimAs runs a valid claim for the given key's address
func (f *fixture) claimAs(t *testing.T, key *ecdsa.PrivateKey, handles ...types.Handle) common.Address {
	t.Helper()

	caller := crypto.PubkeyToAddress(key.PublicKey)
	sig, err := crypto.Sign(identity.ClaimDigest(caller).Bytes(), key)
	if err != nil {
		t.Fatalf("Failed to sign claim: %v", err)
	}

	err = f.board.Claim(caller, ClaimSubmission{
		Handles:   handles,
		Proof:     []byte("proof"),
		PublicKey: crypto.FromECDSAPub(&key.PublicKey),
		Signature: sig,
	})
	if err != nil {
		t.Fatalf("Failed to claim: %v", err)
	}
	return caller
}

func testKey(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}
	return key
}

// unit is large enough that gas-cost minima are satisfied at gas price 1:
// minInclusion = 202000, minTally = 102000, minBlock = 168000, and the
// 3/3/4 split of 10*unit clears all three.
const unit = 100_000
