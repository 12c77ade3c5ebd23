package board

import (
	"math/big"
	"testing"
)

func TestEstimateGasCost(t *testing.T) {
	est := EstimateGasCost(big.NewInt(2))

	if est.MinInclusionReward.Int64() != 2*(GasClaim+GasReportInclusion) {
		t.Errorf("MinInclusionReward = %s", est.MinInclusionReward)
	}
	if est.MinTallyReward.Int64() != 2*GasReportResult {
		t.Errorf("MinTallyReward = %s", est.MinTallyReward)
	}
	if est.MinBlockReward.Int64() != 2*2*GasReportBlock {
		t.Errorf("MinBlockReward = %s", est.MinBlockReward)
	}
}

func TestEstimateGasCost_ZeroPrice(t *testing.T) {
	est := EstimateGasCost(big.NewInt(0))

	if err := est.Check(big.NewInt(0), big.NewInt(0), big.NewInt(0)); err != nil {
		t.Errorf("Zero rewards should pass at zero gas price: %v", err)
	}
}

func TestGasCostEstimate_Check(t *testing.T) {
	est := EstimateGasCost(big.NewInt(1))

	ok := []*big.Int{est.MinInclusionReward, est.MinTallyReward, est.MinBlockReward}
	if err := est.Check(ok[0], ok[1], ok[2]); err != nil {
		t.Errorf("Exact minima should pass: %v", err)
	}

	low := new(big.Int).Sub(est.MinTallyReward, big.NewInt(1))
	if err := est.Check(ok[0], low, ok[2]); err == nil {
		t.Error("Underfunded tally pool should fail")
	}
}
