package board

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/bridgeboard/bridgeboard/internal/logging"
	"github.com/bridgeboard/bridgeboard/pkg/types"
)

// Create posts a new data request. The deposited value must cover the two
// declared rewards; the remainder becomes the block reward. All three pools
// must meet the gas-cost minimums at the declared gas price.
func (b *Board) Create(requestor common.Address, payloadRef string, inclusionReward, tallyReward, depositedValue, gasPrice *big.Int) (types.Handle, error) {
	if inclusionReward.Sign() < 0 || tallyReward.Sign() < 0 || depositedValue.Sign() < 0 || gasPrice.Sign() < 0 {
		return 0, fmt.Errorf("%w: negative amount", ErrValidation)
	}

	declared := new(big.Int).Add(inclusionReward, tallyReward)
	if depositedValue.Cmp(declared) < 0 {
		return 0, ErrInsufficientValue
	}
	blockReward := new(big.Int).Sub(depositedValue, declared)

	if err := EstimateGasCost(gasPrice).Check(inclusionReward, tallyReward, blockReward); err != nil {
		return 0, err
	}

	payload, err := b.payloads.PayloadBytes(payloadRef)
	if err != nil {
		return 0, fmt.Errorf("%w: unresolvable payload ref %q: %v", ErrValidation, payloadRef, err)
	}
	payloadHash := crypto.Keccak256Hash(payload)

	b.mu.Lock()
	defer b.mu.Unlock()

	r := &request{
		payloadRef:     payloadRef,
		payloadHash:    payloadHash,
		ledger:         newRewardLedger(inclusionReward, tallyReward, blockReward),
		gasPriceAtPost: new(big.Int).Set(gasPrice),
		epoch:          b.relay.CurrentEpoch(),
		requestor:      requestor,
	}
	b.requests = append(b.requests, r)
	handle := types.Handle(len(b.requests) - 1)

	logging.Info("data request posted",
		logging.Handle(uint64(handle)),
		logging.Requestor(requestor),
		logging.Epoch(r.epoch))
	b.feed.emit(types.Event{Kind: types.EventPosted, Handle: handle, Actor: requestor, Epoch: r.epoch, Time: time.Now()})
	return handle, nil
}

// UpgradeReward adds escrowed value to an existing request's pools. Once
// inclusion has been proven the inclusion pool is frozen: it is paid exactly
// once, so addInclusion must be zero from then on.
func (b *Board) UpgradeReward(handle types.Handle, addInclusion, addTally, addedValue, gasPrice *big.Int) error {
	if addInclusion.Sign() < 0 || addTally.Sign() < 0 || addedValue.Sign() < 0 || gasPrice.Sign() < 0 {
		return fmt.Errorf("%w: negative amount", ErrValidation)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	r, err := b.lookup(handle)
	if err != nil {
		return err
	}
	if r.resulted() {
		return ErrAlreadyResulted
	}
	if r.included() && addInclusion.Sign() > 0 {
		return ErrInclusionLocked
	}

	declared := new(big.Int).Add(addInclusion, addTally)
	if addedValue.Cmp(declared) < 0 {
		return ErrInsufficientValue
	}

	// Validate the post-upgrade pools before touching the ledger so a
	// rejection leaves no partial effect.
	newInclusion := new(big.Int).Add(r.ledger.Inclusion, addInclusion)
	newTally := new(big.Int).Add(r.ledger.Tally, addTally)
	newBlock := new(big.Int).Add(r.ledger.Block, new(big.Int).Sub(addedValue, declared))

	// If gas got more expensive since posting, the whole request must be
	// funded at the new price, not just the increment.
	if gasPrice.Cmp(r.gasPriceAtPost) > 0 {
		if err := EstimateGasCost(gasPrice).Check(newInclusion, newTally, newBlock); err != nil {
			return err
		}
		r.gasPriceAtPost = new(big.Int).Set(gasPrice)
	}

	r.ledger.add(addInclusion, addTally, addedValue)

	logging.Info("request reward upgraded", logging.Handle(uint64(handle)))
	b.feed.emit(types.Event{Kind: types.EventRewardUpgraded, Handle: handle, Time: time.Now()})
	return nil
}

// CheckClaimability evaluates the claimable predicate for each handle.
func (b *Board) CheckClaimability(handles []types.Handle) ([]bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	height := b.height.BlockNumber()
	out := make([]bool, len(handles))
	for i, h := range handles {
		r, err := b.lookup(h)
		if err != nil {
			return nil, err
		}
		out[i] = b.claimable(r, height)
	}
	return out, nil
}

// ReadPayload returns the raw request bytes, re-deriving the content hash to
// detect tampering of the referenced payload since posting.
func (b *Board) ReadPayload(handle types.Handle) ([]byte, error) {
	b.mu.Lock()
	r, err := b.lookup(handle)
	b.mu.Unlock()
	if err != nil {
		return nil, err
	}

	payload, err := b.payloads.PayloadBytes(r.payloadRef)
	if err != nil {
		return nil, fmt.Errorf("%w: unresolvable payload ref %q: %v", ErrValidation, r.payloadRef, err)
	}
	if crypto.Keccak256Hash(payload) != r.payloadHash {
		return nil, ErrPayloadTampered
	}
	return payload, nil
}

// ReadResult returns the settled result bytes, or ErrNotIncluded-class state
// errors while the request is still in flight.
func (b *Board) ReadResult(handle types.Handle) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	r, err := b.lookup(handle)
	if err != nil {
		return nil, err
	}
	if !r.resulted() {
		return nil, fmt.Errorf("%w: no result recorded", ErrState)
	}
	out := make([]byte, len(r.result))
	copy(out, r.result)
	return out, nil
}

// GetRequest returns a read-side summary of a request.
func (b *Board) GetRequest(handle types.Handle) (types.RequestSummary, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	r, err := b.lookup(handle)
	if err != nil {
		return types.RequestSummary{}, err
	}
	return types.RequestSummary{
		Handle:          handle,
		Status:          r.status(),
		PayloadRef:      r.payloadRef,
		PayloadHash:     r.payloadHash,
		InclusionReward: new(big.Int).Set(r.ledger.Inclusion),
		TallyReward:     new(big.Int).Set(r.ledger.Tally),
		BlockReward:     new(big.Int).Set(r.ledger.Block),
		GasPriceAtPost:  new(big.Int).Set(r.gasPriceAtPost),
		Epoch:           r.epoch,
		InclusionProof:  r.inclusionProofHash,
		Claimant:        r.claimant,
		ClaimBlock:      r.claimBlock,
		Requestor:       r.requestor,
	}, nil
}

// EscrowedTotal returns the value still escrowed across all requests.
func (b *Board) EscrowedTotal() *big.Int {
	b.mu.Lock()
	defer b.mu.Unlock()

	total := big.NewInt(0)
	for _, r := range b.requests[1:] {
		total.Add(total, r.ledger.Total())
	}
	return total
}
