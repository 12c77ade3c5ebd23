package board

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/bridgeboard/bridgeboard/internal/logging"
	"github.com/bridgeboard/bridgeboard/pkg/types"
)

// ReportInclusion settles proof that a claimed request was accepted into the
// external network's ledger at (blockHash, epoch). On success it pays the
// inclusion reward to the claimant and half the block reward to the relayer
// of record, then records the claimant as an active reporter.
//
// State that establishes "this has happened" — the new epoch and the
// inclusion proof hash — is written before the relay verifier runs; if the
// verifier rejects, the writes are reverted and the call has no effect.
func (b *Board) ReportInclusion(caller common.Address, handle types.Handle, proof []common.Hash, index uint64, blockHash common.Hash, epoch uint64) error {
	if len(proof) == 0 {
		return fmt.Errorf("%w: empty inclusion proof", ErrValidation)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	r, err := b.lookup(handle)
	if err != nil {
		return err
	}
	if r.included() {
		return ErrAlreadyIncluded
	}
	// A claimable request has no live claim: either it was never claimed or
	// the claim expired. Inclusion may only be reported under a live claim.
	if b.claimable(r, b.height.BlockNumber()) {
		return ErrNotClaimed
	}
	if epoch <= r.epoch {
		return fmt.Errorf("%w: inclusion epoch %d not after %d", ErrStaleEpoch, epoch, r.epoch)
	}

	prevEpoch := r.epoch
	r.epoch = epoch
	r.inclusionProofHash = crypto.Keccak256Hash(r.payloadHash.Bytes(), proof[0].Bytes())

	rollback := func() {
		r.epoch = prevEpoch
		r.inclusionProofHash = common.Hash{}
	}

	ok, verr := b.relay.VerifyInclusionProof(proof, blockHash, epoch, index, r.payloadHash)
	if verr != nil {
		rollback()
		return fmt.Errorf("%w: %v", ErrInclusionProofRejected, verr)
	}
	if !ok {
		rollback()
		return ErrInclusionProofRejected
	}

	// Value moves last: half the block reward to the block's relayer (or a
	// refund to the requestor if that block was already paid), then the
	// inclusion reward to the claimant.
	payee, markPaid, err := b.blockPayee(blockHash, epoch, r.requestor)
	if err != nil {
		rollback()
		return err
	}
	if markPaid {
		b.paidBlocks[blockHash] = true
	}
	b.credit(payee, r.ledger.takeHalfBlock())
	b.credit(r.claimant, r.ledger.takeInclusion())
	b.population.Touch(r.claimant, b.height.BlockNumber())

	logging.Info("inclusion reported",
		logging.Handle(uint64(handle)),
		logging.Reporter(r.claimant),
		logging.Epoch(epoch),
		logging.BlockHash(blockHash))
	b.feed.emit(types.Event{Kind: types.EventIncluded, Handle: handle, Actor: r.claimant, Epoch: epoch, BlockHash: blockHash, Time: time.Now()})
	return nil
}

// ReportResult settles proof that the external network recorded a final
// result for an included request. This is the terminal transition: it pays
// the tally reward to the caller and the remaining block reward to the
// relayer of record.
func (b *Board) ReportResult(caller common.Address, handle types.Handle, proof []common.Hash, index uint64, blockHash common.Hash, epoch uint64, result []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	r, err := b.lookup(handle)
	if err != nil {
		return err
	}
	if !r.included() {
		return ErrNotIncluded
	}
	if r.resulted() {
		return ErrAlreadyResulted
	}
	if !b.population.IsActive(caller) {
		return ErrNotActiveReporter
	}
	// The result may share the inclusion epoch but must never predate it.
	if epoch < r.epoch {
		return fmt.Errorf("%w: result epoch %d before %d", ErrStaleEpoch, epoch, r.epoch)
	}
	// A zero-length result is meaningless and a known trigger for ambiguous
	// proof encodings.
	if len(result) == 0 {
		return ErrEmptyResult
	}

	prevEpoch := r.epoch
	r.epoch = epoch
	r.result = make([]byte, len(result))
	copy(r.result, result)

	rollback := func() {
		r.epoch = prevEpoch
		r.result = nil
	}

	resultHash := crypto.Keccak256Hash(r.inclusionProofHash.Bytes(), result)
	ok, verr := b.relay.VerifyResultProof(proof, blockHash, epoch, index, resultHash)
	if verr != nil {
		rollback()
		return fmt.Errorf("%w: %v", ErrResultProofRejected, verr)
	}
	if !ok {
		rollback()
		return ErrResultProofRejected
	}

	payee, markPaid, err := b.blockPayee(blockHash, epoch, r.requestor)
	if err != nil {
		rollback()
		return err
	}
	if markPaid {
		b.paidBlocks[blockHash] = true
	}
	b.credit(payee, r.ledger.takeBlock())
	b.credit(caller, r.ledger.takeTally())
	b.population.Touch(caller, b.height.BlockNumber())

	logging.Info("result reported",
		logging.Handle(uint64(handle)),
		logging.Reporter(caller),
		logging.Epoch(epoch),
		logging.BlockHash(blockHash))
	b.feed.emit(types.Event{Kind: types.EventResulted, Handle: handle, Actor: caller, Epoch: epoch, BlockHash: blockHash, Time: time.Now()})
	return nil
}
