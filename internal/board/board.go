package board

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/bridgeboard/bridgeboard/pkg/types"
)

// PayloadStore resolves an opaque payload reference to the raw request bytes.
// The board never stores payload bytes itself, only their content hash.
type PayloadStore interface {
	PayloadBytes(ref string) ([]byte, error)
}

// BlockRelay is the block-relay collaborator: it tracks the external
// network's chain and verifies Merkle proofs against relayed headers.
type BlockRelay interface {
	CurrentEpoch() uint64
	CurrentBeacon() []byte
	VerifyInclusionProof(proof []common.Hash, blockHash common.Hash, epoch, index uint64, payloadHash common.Hash) (bool, error)
	VerifyResultProof(proof []common.Hash, blockHash common.Hash, epoch, index uint64, resultHash common.Hash) (bool, error)
	RelayerOfRecord(blockHash common.Hash, epoch uint64) (common.Address, error)
}

// VRFVerifier is the VRF cryptographic primitive, consumed as an opaque
// capability so sortition logic can be tested with deterministic fakes.
type VRFVerifier interface {
	// FastVerify checks a VRF proof for message under publicKey, using the
	// precomputed helper points supplied by the prover.
	FastVerify(publicKey, proof, message, uPoint, vComponents []byte) bool
	// ProofToHash converts a verified proof's gamma point to a uniformly
	// distributed 32-byte value.
	ProofToHash(proof []byte) ([32]byte, error)
}

// HeightSource reports the current host-chain block height. Claim expiry is
// measured in these units, never wall-clock time.
type HeightSource interface {
	BlockNumber() uint64
}

// Config holds the board's protocol parameters
type Config struct {
	// ReplicationFactor is the target number of reporters elected per
	// sortition round.
	ReplicationFactor uint64
	// ClaimExpiryBlocks is how many host blocks a claim stays exclusive
	// before the request lapses back to claimable.
	ClaimExpiryBlocks uint64
}

// DefaultConfig returns the default protocol parameters
func DefaultConfig() Config {
	return Config{
		ReplicationFactor: 10,
		ClaimExpiryBlocks: 256,
	}
}

// request is one entry in the board's handle-indexed arena. Records are
// never deleted; the terminal state is "resulted".
type request struct {
	payloadRef  string
	payloadHash common.Hash

	ledger         RewardLedger
	gasPriceAtPost *big.Int

	epoch              uint64
	inclusionProofHash common.Hash
	result             []byte

	claimant   common.Address
	claimBlock uint64
	requestor  common.Address
}

func (r *request) included() bool { return r.inclusionProofHash != (common.Hash{}) }
func (r *request) resulted() bool { return len(r.result) > 0 }

func (r *request) status() types.RequestStatus {
	switch {
	case r.resulted():
		return types.RequestStatusResulted
	case r.included():
		return types.RequestStatusIncluded
	case r.claimant != (common.Address{}):
		return types.RequestStatusClaimed
	default:
		return types.RequestStatusPosted
	}
}

// Board is the data-request lifecycle manager. All operations serialize on a
// single mutex, mirroring the host's one-transaction-at-a-time guarantee;
// every entry point re-validates its preconditions under the lock.
type Board struct {
	mu  sync.Mutex
	cfg Config

	payloads PayloadStore
	relay    BlockRelay
	vrf      VRFVerifier
	height   HeightSource

	// requests[0] is a reserved slot so handles start at 1.
	requests []*request

	// paidBlocks records external blocks whose relayer was already
	// rewarded; later requests sharing the block refund their requestor.
	paidBlocks map[common.Hash]bool

	// balances holds withdrawable credits from payouts and refunds.
	balances map[common.Address]*big.Int

	population *ReporterPopulation
	feed       *eventFeed
}

// New creates a board wired to its external collaborators.
func New(cfg Config, payloads PayloadStore, relay BlockRelay, vrf VRFVerifier, height HeightSource) (*Board, error) {
	if payloads == nil || relay == nil || vrf == nil || height == nil {
		return nil, fmt.Errorf("board: all collaborators must be non-nil")
	}
	if cfg.ReplicationFactor == 0 {
		cfg.ReplicationFactor = DefaultConfig().ReplicationFactor
	}
	if cfg.ClaimExpiryBlocks == 0 {
		cfg.ClaimExpiryBlocks = DefaultConfig().ClaimExpiryBlocks
	}
	return &Board{
		cfg:        cfg,
		payloads:   payloads,
		relay:      relay,
		vrf:        vrf,
		height:     height,
		requests:   make([]*request, 1),
		paidBlocks: make(map[common.Hash]bool),
		balances:   make(map[common.Address]*big.Int),
		population: NewReporterPopulation(),
		feed:       newEventFeed(),
	}, nil
}

// Population returns the reporter population consulted by sortition.
func (b *Board) Population() *ReporterPopulation {
	return b.population
}

// Subscribe registers a listener for board lifecycle events.
func (b *Board) Subscribe(buffer int) (<-chan types.Event, func()) {
	return b.feed.subscribe(buffer)
}

// RequestCount returns the number of requests ever posted.
func (b *Board) RequestCount() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return uint64(len(b.requests) - 1)
}

// BalanceOf returns the withdrawable credit balance of an address.
func (b *Board) BalanceOf(addr common.Address) *big.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if bal, ok := b.balances[addr]; ok {
		return new(big.Int).Set(bal)
	}
	return big.NewInt(0)
}

// Withdraw drains and returns an address's credit balance. Moving the value
// out of the host ledger is the deployment layer's job.
func (b *Board) Withdraw(addr common.Address) *big.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	bal, ok := b.balances[addr]
	if !ok {
		return big.NewInt(0)
	}
	delete(b.balances, addr)
	return bal
}

// lookup returns the request for a handle. Callers hold b.mu.
func (b *Board) lookup(handle types.Handle) (*request, error) {
	if handle == 0 || uint64(handle) >= uint64(len(b.requests)) {
		return nil, fmt.Errorf("%w (%d)", ErrUnknownHandle, handle)
	}
	return b.requests[handle], nil
}

// credit adds value to an address's withdrawable balance. Callers hold b.mu.
func (b *Board) credit(addr common.Address, amount *big.Int) {
	if amount.Sign() <= 0 {
		return
	}
	bal, ok := b.balances[addr]
	if !ok {
		bal = big.NewInt(0)
		b.balances[addr] = bal
	}
	bal.Add(bal, amount)
}

// blockPayee resolves who receives a block-reward share for blockHash: the
// relayer of record the first time the block is paid, the requestor (as a
// refund) on every later request sharing it. First-reporter-wins; the board
// pays at most one relayer per external block. markPaid is true when the
// caller should add the block to the paid set on success. Callers hold b.mu.
func (b *Board) blockPayee(blockHash common.Hash, epoch uint64, requestor common.Address) (payee common.Address, markPaid bool, err error) {
	if b.paidBlocks[blockHash] {
		return requestor, false, nil
	}
	relayer, err := b.relay.RelayerOfRecord(blockHash, epoch)
	if err != nil {
		return common.Address{}, false, fmt.Errorf("relayer of record for %s: %w", blockHash, err)
	}
	return relayer, true, nil
}

// claimable reports whether a request may currently be claimed: never
// included or resulted, and either never claimed or the claim has expired.
func (b *Board) claimable(r *request, height uint64) bool {
	if r.included() || r.resulted() {
		return false
	}
	if r.claimant == (common.Address{}) {
		return true
	}
	return height-r.claimBlock > b.cfg.ClaimExpiryBlocks
}
