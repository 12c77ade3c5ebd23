package sortition

import (
	"encoding/binary"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
)

func TestThreshold_FullRangeForTinyPopulation(t *testing.T) {
	// activeCount 0 accepts everything.
	full := Threshold(0, 10)
	if full.BitLen() != 256 {
		t.Errorf("Threshold(0, 10) should span the full output space, got %d bits", full.BitLen())
	}
}

func TestThreshold_ScalesWithPopulation(t *testing.T) {
	// Doubling the population halves the acceptance window.
	t100 := Threshold(100, 10)
	t200 := Threshold(200, 10)

	ratio := new(big.Int).Div(t100, t200)
	if ratio.Int64() != 2 {
		t.Errorf("Threshold(100)/Threshold(200) = %s, want 2", ratio)
	}
}

func TestEligible_SmallPopulationAlwaysWins(t *testing.T) {
	var worst [32]byte
	for i := range worst {
		worst[i] = 0xff
	}
	if !Eligible(worst, 9, 10) {
		t.Error("Below the replication factor every output must be eligible")
	}
}

func TestEligible_Boundaries(t *testing.T) {
	threshold := Threshold(100, 10)

	var at, above [32]byte
	threshold.FillBytes(at[:])
	new(big.Int).Add(threshold, big.NewInt(1)).FillBytes(above[:])

	if !Eligible(at, 100, 10) {
		t.Error("Output exactly at the threshold should be eligible")
	}
	if Eligible(above, 100, 10) {
		t.Error("Output one past the threshold should be rejected")
	}
	if !Eligible([32]byte{}, 100, 10) {
		t.Error("Zero output should always be eligible")
	}
}

func TestEligible_AcceptanceRate(t *testing.T) {
	// With 100 active reporters and a replication factor of 10, a uniform
	// output should win roughly 10% of rounds. Keccak outputs over a
	// counter stand in for the uniform draw.
	const rounds = 20_000
	elected := 0
	var seed [8]byte
	for i := 0; i < rounds; i++ {
		binary.BigEndian.PutUint64(seed[:], uint64(i))
		var output [32]byte
		copy(output[:], crypto.Keccak256(seed[:]))
		if Eligible(output, 100, 10) {
			elected++
		}
	}

	rate := float64(elected) / rounds
	if rate < 0.09 || rate > 0.11 {
		t.Errorf("Acceptance rate = %.4f, want ~0.10", rate)
	}
}
