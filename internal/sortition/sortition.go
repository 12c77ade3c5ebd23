// Package sortition implements the acceptance rule for VRF-based reporter
// election. A reporter is elected for a round when its VRF output falls
// inside the top replicationFactor/activeCount fraction of the output space.
package sortition

import "math/big"

// maxOutput is 2^256 - 1, the upper bound of a 32-byte VRF output.
var maxOutput = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// Threshold returns the largest VRF output that is still accepted for the
// given population size. Computed as (MAX / activeCount) * replicationFactor
// so the truncation error works against the prover, never for it.
func Threshold(activeCount, replicationFactor uint64) *big.Int {
	if activeCount == 0 {
		return new(big.Int).Set(maxOutput)
	}
	t := new(big.Int).Div(maxOutput, new(big.Int).SetUint64(activeCount))
	return t.Mul(t, new(big.Int).SetUint64(replicationFactor))
}

// Eligible reports whether a uniformly distributed VRF output wins the
// sortition round. When the active population has not yet reached the
// replication factor everyone is eligible.
func Eligible(output [32]byte, activeCount, replicationFactor uint64) bool {
	if activeCount < replicationFactor {
		return true
	}
	v := new(big.Int).SetBytes(output[:])
	return v.Cmp(Threshold(activeCount, replicationFactor)) <= 0
}
