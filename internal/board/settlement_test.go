package board

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/bridgeboard/bridgeboard/pkg/types"
)

var (
	blockA  = common.HexToHash("0xaa")
	blockB  = common.HexToHash("0xbb")
	relayer = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

func proofOf(hashes ...string) []common.Hash {
	proof := make([]common.Hash, len(hashes))
	for i, h := range hashes {
		proof[i] = common.HexToHash(h)
	}
	return proof
}

// settle posts, claims, and includes a request, returning the claimant
func (f *fixture) include(t *testing.T, h types.Handle, epoch uint64) common.Address {
	t.Helper()

	caller := f.claimAs(t, testKey(t), h)
	f.relay.relayers[blockA] = relayer
	if err := f.board.ReportInclusion(caller, h, proofOf("0x01"), 0, blockA, epoch); err != nil {
		t.Fatalf("ReportInclusion failed: %v", err)
	}
	return caller
}

func TestReportInclusion_PaysClaimantAndRelayer(t *testing.T) {
	f := newFixture(t)
	h := f.postRequest(t, requestor, unit)

	claimant := f.include(t, h, 5)

	// 0.3 inclusion + 0.2 half block to the claimant-relayer split:
	// claimant gets the inclusion pool, the relayer half the block pool.
	if got := f.board.BalanceOf(claimant).Int64(); got != 3*unit {
		t.Errorf("Claimant balance = %d, want %d", got, 3*unit)
	}
	if got := f.board.BalanceOf(relayer).Int64(); got != 2*unit {
		t.Errorf("Relayer balance = %d, want %d", got, 2*unit)
	}

	summary, _ := f.board.GetRequest(h)
	if summary.Status != types.RequestStatusIncluded {
		t.Errorf("Status = %s, want included", summary.Status)
	}
	if summary.Epoch != 5 {
		t.Errorf("Epoch = %d, want 5", summary.Epoch)
	}
	if summary.InclusionReward.Sign() != 0 {
		t.Error("Inclusion pool should be drained")
	}
	if summary.BlockReward.Int64() != 2*unit {
		t.Errorf("Remaining block pool = %s, want %d", summary.BlockReward, 2*unit)
	}
	if summary.InclusionProof == (common.Hash{}) {
		t.Error("Inclusion proof hash should be set")
	}
}

func TestReportInclusion_SecondCallAlwaysFails(t *testing.T) {
	f := newFixture(t)
	h := f.postRequest(t, requestor, unit)
	claimant := f.include(t, h, 5)

	// Idempotent-failing: a replay is rejected regardless of proof
	// validity, and pays nothing twice.
	err := f.board.ReportInclusion(claimant, h, proofOf("0x01"), 0, blockA, 6)
	if !errors.Is(err, ErrAlreadyIncluded) {
		t.Errorf("err = %v, want ErrAlreadyIncluded", err)
	}
	if got := f.board.BalanceOf(claimant).Int64(); got != 3*unit {
		t.Errorf("Claimant balance = %d, want %d (no double pay)", got, 3*unit)
	}
}

func TestReportInclusion_RequiresLiveClaim(t *testing.T) {
	f := newFixture(t)
	h := f.postRequest(t, requestor, unit)
	f.relay.relayers[blockA] = relayer

	// Never claimed.
	err := f.board.ReportInclusion(requestor, h, proofOf("0x01"), 0, blockA, 5)
	if !errors.Is(err, ErrNotClaimed) {
		t.Errorf("err = %v, want ErrNotClaimed", err)
	}

	// Claim expired: the request is claimable again, so inclusion is
	// rejected the same way.
	claimant := f.claimAs(t, testKey(t), h)
	f.height.height += 101
	err = f.board.ReportInclusion(claimant, h, proofOf("0x01"), 0, blockA, 5)
	if !errors.Is(err, ErrNotClaimed) {
		t.Errorf("err = %v, want ErrNotClaimed", err)
	}
}

func TestReportInclusion_EpochMustAdvance(t *testing.T) {
	f := newFixture(t)
	f.relay.epoch = 10
	h := f.postRequest(t, requestor, unit)
	claimant := f.claimAs(t, testKey(t), h)
	f.relay.relayers[blockA] = relayer

	err := f.board.ReportInclusion(claimant, h, proofOf("0x01"), 0, blockA, 10)
	if !errors.Is(err, ErrStaleEpoch) {
		t.Errorf("err = %v, want ErrStaleEpoch", err)
	}
}

func TestReportInclusion_ProofRejectionRollsBack(t *testing.T) {
	f := newFixture(t)
	h := f.postRequest(t, requestor, unit)
	claimant := f.claimAs(t, testKey(t), h)
	f.relay.relayers[blockA] = relayer
	f.relay.inclusionOK = false

	err := f.board.ReportInclusion(claimant, h, proofOf("0x01"), 0, blockA, 5)
	if !errors.Is(err, ErrInclusionProofRejected) {
		t.Errorf("err = %v, want ErrInclusionProofRejected", err)
	}
	if !errors.Is(err, ErrProof) {
		t.Error("Rejection should be a proof error")
	}

	// Zero partial effect: epoch and proof hash reverted, nothing paid,
	// and the call can be retried successfully.
	summary, _ := f.board.GetRequest(h)
	if summary.Epoch != 0 {
		t.Errorf("Epoch = %d, want 0 after rollback", summary.Epoch)
	}
	if summary.InclusionProof != (common.Hash{}) {
		t.Error("Inclusion proof hash should be reverted")
	}
	if f.board.BalanceOf(claimant).Sign() != 0 {
		t.Error("Nothing should be paid on rejection")
	}

	f.relay.inclusionOK = true
	if err := f.board.ReportInclusion(claimant, h, proofOf("0x01"), 0, blockA, 5); err != nil {
		t.Fatalf("Retry after rejection failed: %v", err)
	}
}

func TestReportResult_FullLifecycleAccounting(t *testing.T) {
	f := newFixture(t)
	h := f.postRequest(t, requestor, unit)
	claimant := f.include(t, h, 5)
	f.relay.relayers[blockB] = relayer

	deposited := big.NewInt(10 * unit)

	if err := f.board.ReportResult(claimant, h, proofOf("0x02"), 0, blockB, 6, []byte{0x01, 0x02}); err != nil {
		t.Fatalf("ReportResult failed: %v", err)
	}

	// Scenario: 0.3 inclusion + 0.2 half block at inclusion, then 0.3
	// tally + 0.2 remaining block at result. Ledger reaches zero and
	// every wei is accounted for.
	if got := f.board.BalanceOf(claimant).Int64(); got != 6*unit {
		t.Errorf("Claimant balance = %d, want %d", got, 6*unit)
	}

	summary, _ := f.board.GetRequest(h)
	if summary.Status != types.RequestStatusResulted {
		t.Errorf("Status = %s, want resulted", summary.Status)
	}
	escrowed := new(big.Int).Add(summary.InclusionReward, summary.TallyReward)
	escrowed.Add(escrowed, summary.BlockReward)
	if escrowed.Sign() != 0 {
		t.Errorf("Escrowed = %s, want 0", escrowed)
	}

	paid := f.board.BalanceOf(claimant)
	paid.Add(paid, f.board.BalanceOf(relayer))
	if paid.Cmp(deposited) != 0 {
		t.Errorf("Total paid = %s, want %s", paid, deposited)
	}

	result, err := f.board.ReadResult(h)
	if err != nil {
		t.Fatalf("ReadResult failed: %v", err)
	}
	if len(result) != 2 || result[0] != 0x01 {
		t.Errorf("result = %x", result)
	}
}

func TestReportResult_RequiresInclusionFirst(t *testing.T) {
	f := newFixture(t)
	h := f.postRequest(t, requestor, unit)
	claimant := f.claimAs(t, testKey(t), h)

	err := f.board.ReportResult(claimant, h, proofOf("0x02"), 0, blockA, 5, []byte{0x01})
	if !errors.Is(err, ErrNotIncluded) {
		t.Errorf("err = %v, want ErrNotIncluded", err)
	}
}

func TestReportResult_SecondCallAlwaysFails(t *testing.T) {
	f := newFixture(t)
	h := f.postRequest(t, requestor, unit)
	claimant := f.include(t, h, 5)
	f.relay.relayers[blockB] = relayer

	if err := f.board.ReportResult(claimant, h, proofOf("0x02"), 0, blockB, 6, []byte{0x01}); err != nil {
		t.Fatalf("ReportResult failed: %v", err)
	}
	err := f.board.ReportResult(claimant, h, proofOf("0x02"), 0, blockB, 7, []byte{0x02})
	if !errors.Is(err, ErrAlreadyResulted) {
		t.Errorf("err = %v, want ErrAlreadyResulted", err)
	}
}

func TestReportResult_RequiresActiveReporter(t *testing.T) {
	f := newFixture(t)
	h := f.postRequest(t, requestor, unit)
	f.include(t, h, 5)

	outsider := common.HexToAddress("0x3333333333333333333333333333333333333333")
	err := f.board.ReportResult(outsider, h, proofOf("0x02"), 0, blockB, 6, []byte{0x01})
	if !errors.Is(err, ErrNotActiveReporter) {
		t.Errorf("err = %v, want ErrNotActiveReporter", err)
	}
}

func TestReportResult_EpochMayEqualInclusion(t *testing.T) {
	f := newFixture(t)
	h := f.postRequest(t, requestor, unit)
	claimant := f.include(t, h, 5)
	f.relay.relayers[blockB] = relayer

	// Result in the same epoch as inclusion is fine; an earlier one is not.
	err := f.board.ReportResult(claimant, h, proofOf("0x02"), 0, blockB, 4, []byte{0x01})
	if !errors.Is(err, ErrStaleEpoch) {
		t.Errorf("err = %v, want ErrStaleEpoch", err)
	}
	if err := f.board.ReportResult(claimant, h, proofOf("0x02"), 0, blockB, 5, []byte{0x01}); err != nil {
		t.Fatalf("Same-epoch result failed: %v", err)
	}
}

func TestReportResult_RejectsEmptyResult(t *testing.T) {
	f := newFixture(t)
	h := f.postRequest(t, requestor, unit)
	claimant := f.include(t, h, 5)

	err := f.board.ReportResult(claimant, h, proofOf("0x02"), 0, blockB, 6, nil)
	if !errors.Is(err, ErrEmptyResult) {
		t.Errorf("err = %v, want ErrEmptyResult", err)
	}
}

func TestReportResult_ProofRejectionRollsBack(t *testing.T) {
	f := newFixture(t)
	h := f.postRequest(t, requestor, unit)
	claimant := f.include(t, h, 5)
	f.relay.resultOK = false

	err := f.board.ReportResult(claimant, h, proofOf("0x02"), 0, blockB, 6, []byte{0x01})
	if !errors.Is(err, ErrResultProofRejected) {
		t.Errorf("err = %v, want ErrResultProofRejected", err)
	}

	summary, _ := f.board.GetRequest(h)
	if summary.Epoch != 5 {
		t.Errorf("Epoch = %d, want 5 after rollback", summary.Epoch)
	}
	if summary.Status != types.RequestStatusIncluded {
		t.Errorf("Status = %s, want included after rollback", summary.Status)
	}
}

func TestPaidBlockSet_SecondRequestRefundsRequestor(t *testing.T) {
	f := newFixture(t)
	h1 := f.postRequest(t, requestor, unit)
	h2 := f.postRequest(t, requestor, unit)
	f.relay.relayers[blockA] = relayer

	c1 := f.claimAs(t, testKey(t), h1)
	c2 := f.claimAs(t, testKey(t), h2)

	if err := f.board.ReportInclusion(c1, h1, proofOf("0x01"), 0, blockA, 5); err != nil {
		t.Fatalf("First inclusion failed: %v", err)
	}
	if err := f.board.ReportInclusion(c2, h2, proofOf("0x01"), 1, blockA, 6); err != nil {
		t.Fatalf("Second inclusion failed: %v", err)
	}

	// The relayer is paid once per external block; the second request's
	// block share goes back to its own requestor.
	if got := f.board.BalanceOf(relayer).Int64(); got != 2*unit {
		t.Errorf("Relayer balance = %d, want %d", got, 2*unit)
	}
	if got := f.board.BalanceOf(requestor).Int64(); got != 2*unit {
		t.Errorf("Requestor refund = %d, want %d", got, 2*unit)
	}
}

func TestUpgradeReward_InclusionLockedAfterInclusion(t *testing.T) {
	f := newFixture(t)
	h := f.postRequest(t, requestor, unit)
	f.include(t, h, 5)

	err := f.board.UpgradeReward(h, big.NewInt(unit), big.NewInt(0), big.NewInt(unit), big.NewInt(1))
	if !errors.Is(err, ErrInclusionLocked) {
		t.Errorf("err = %v, want ErrInclusionLocked", err)
	}
	if !errors.Is(err, ErrValidation) {
		t.Error("ErrInclusionLocked should be a validation error")
	}

	// Growing tally and block pools is still allowed.
	if err := f.board.UpgradeReward(h, big.NewInt(0), big.NewInt(unit), big.NewInt(2*unit), big.NewInt(1)); err != nil {
		t.Fatalf("Tally upgrade after inclusion failed: %v", err)
	}
}

func TestUpgradeReward_RejectedAfterResult(t *testing.T) {
	f := newFixture(t)
	h := f.postRequest(t, requestor, unit)
	claimant := f.include(t, h, 5)
	f.relay.relayers[blockB] = relayer
	if err := f.board.ReportResult(claimant, h, proofOf("0x02"), 0, blockB, 6, []byte{0x01}); err != nil {
		t.Fatalf("ReportResult failed: %v", err)
	}

	err := f.board.UpgradeReward(h, big.NewInt(0), big.NewInt(0), big.NewInt(unit), big.NewInt(1))
	if !errors.Is(err, ErrAlreadyResulted) {
		t.Errorf("err = %v, want ErrAlreadyResulted", err)
	}
}

func TestEscrowInvariant_AcrossLifecycle(t *testing.T) {
	f := newFixture(t)
	h := f.postRequest(t, requestor, unit)

	deposited := big.NewInt(10 * unit)
	checkInvariant := func(stage string) {
		t.Helper()
		held := f.board.EscrowedTotal()
		for _, addr := range []common.Address{requestor, relayer} {
			held.Add(held, f.board.BalanceOf(addr))
		}
		summary, _ := f.board.GetRequest(h)
		held.Add(held, f.board.BalanceOf(summary.Claimant))
		if held.Cmp(deposited) != 0 {
			t.Errorf("%s: escrow + balances = %s, want %s", stage, held, deposited)
		}
	}

	checkInvariant("posted")
	claimant := f.claimAs(t, testKey(t), h)
	checkInvariant("claimed")
	f.relay.relayers[blockA] = relayer
	if err := f.board.ReportInclusion(claimant, h, proofOf("0x01"), 0, blockA, 5); err != nil {
		t.Fatalf("ReportInclusion failed: %v", err)
	}
	checkInvariant("included")
	f.relay.relayers[blockB] = relayer
	if err := f.board.ReportResult(claimant, h, proofOf("0x02"), 0, blockB, 6, []byte{0x01}); err != nil {
		t.Fatalf("ReportResult failed: %v", err)
	}
	checkInvariant("resulted")
}
