package board

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/bridgeboard/bridgeboard/internal/identity"
	"github.com/bridgeboard/bridgeboard/internal/logging"
	"github.com/bridgeboard/bridgeboard/internal/sortition"
	"github.com/bridgeboard/bridgeboard/pkg/types"
)

// ClaimSubmission is a reporter's request to service a batch of data
// requests: a VRF proof over the relay's current beacon, the proving public
// key with its fast-verification helper points, and a signature binding the
// key to the claiming identity.
type ClaimSubmission struct {
	Handles []types.Handle

	Proof       []byte
	PublicKey   []byte // uncompressed secp256k1, 65 bytes
	UPoint      []byte
	VComponents []byte

	// Signature is over ClaimDigest(caller), produced by PublicKey's owner.
	Signature []byte
}

// Claim runs the eligibility gate for a batch of handles. Claims are
// all-or-nothing: if any handle is not currently claimable the whole batch
// is rejected and no claim state changes.
func (b *Board) Claim(caller common.Address, sub ClaimSubmission) error {
	if len(sub.Handles) == 0 {
		return fmt.Errorf("%w: empty claim batch", ErrValidation)
	}

	// 1. The signature over the caller identity must recover to the address
	// derived from the submitted public key. This binds the caller to the
	// key so a third party cannot relay someone else's VRF proof.
	keyAddr, err := identity.AddressFromPublicKey(sub.PublicKey)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	signer, err := identity.RecoverSigner(identity.ClaimDigest(caller), sub.Signature)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	if signer != keyAddr {
		return ErrBadSignature
	}

	// 2. The VRF proof must verify against the relay's current beacon.
	beacon := b.relay.CurrentBeacon()
	if !b.vrf.FastVerify(sub.PublicKey, sub.Proof, beacon, sub.UPoint, sub.VComponents) {
		return ErrVRFRejected
	}

	// 3. Sortition: the proof's uniform output must fall inside the
	// replicationFactor/activeCount acceptance band.
	output, err := b.vrf.ProofToHash(sub.Proof)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrVRFRejected, err)
	}
	if !sortition.Eligible(output, b.population.ActiveCount(), b.cfg.ReplicationFactor) {
		return ErrNotElected
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	// 4. Every handle in the batch must be claimable right now.
	height := b.height.BlockNumber()
	batch := make([]*request, len(sub.Handles))
	for i, h := range sub.Handles {
		r, err := b.lookup(h)
		if err != nil {
			return err
		}
		if !b.claimable(r, height) {
			return fmt.Errorf("%w (handle %d)", ErrAlreadyClaimed, h)
		}
		batch[i] = r
	}

	// 5. Record the claim and register the claimant's activity.
	for i, r := range batch {
		r.claimant = caller
		r.claimBlock = height
		b.feed.emit(types.Event{Kind: types.EventClaimed, Handle: sub.Handles[i], Actor: caller, Time: time.Now()})
	}
	b.population.Touch(caller, height)

	logging.Info("claim accepted",
		logging.Reporter(caller),
		logging.Component("claims"),
		"handles", len(sub.Handles))
	return nil
}
