package board

import "math/big"

// Worst-case gas spent by a reporter servicing a request, in gas units.
// Block reporting is charged twice because a request's block reward is
// split across the inclusion and the result report.
const (
	GasClaim           = 81_000
	GasReportInclusion = 121_000
	GasReportResult    = 102_000
	GasReportBlock     = 84_000
)

// GasCostEstimate holds the minimum reward each pool must carry at a given
// unit gas price for servicing the request to be profitable.
type GasCostEstimate struct {
	MinInclusionReward *big.Int
	MinTallyReward     *big.Int
	MinBlockReward     *big.Int
}

// EstimateGasCost maps a unit gas price to the three minimum reward
// thresholds. Pure function; gasPrice is not retained.
func EstimateGasCost(gasPrice *big.Int) GasCostEstimate {
	return GasCostEstimate{
		MinInclusionReward: new(big.Int).Mul(gasPrice, big.NewInt(GasClaim+GasReportInclusion)),
		MinTallyReward:     new(big.Int).Mul(gasPrice, big.NewInt(GasReportResult)),
		MinBlockReward:     new(big.Int).Mul(gasPrice, big.NewInt(2*GasReportBlock)),
	}
}

// Check returns ErrRewardTooLow if any pool is below its minimum.
func (e GasCostEstimate) Check(inclusion, tally, block *big.Int) error {
	if inclusion.Cmp(e.MinInclusionReward) < 0 ||
		tally.Cmp(e.MinTallyReward) < 0 ||
		block.Cmp(e.MinBlockReward) < 0 {
		return ErrRewardTooLow
	}
	return nil
}
