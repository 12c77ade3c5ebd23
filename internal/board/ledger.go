package board

import "math/big"

// RewardLedger tracks the three independently accounted reward pools of a
// data request. Pool sums always equal cumulative deposits minus payouts.
type RewardLedger struct {
	Inclusion *big.Int
	Tally     *big.Int
	Block     *big.Int
}

func newRewardLedger(inclusion, tally, block *big.Int) RewardLedger {
	return RewardLedger{
		Inclusion: new(big.Int).Set(inclusion),
		Tally:     new(big.Int).Set(tally),
		Block:     new(big.Int).Set(block),
	}
}

// Total returns the value still escrowed for the request.
func (l RewardLedger) Total() *big.Int {
	total := new(big.Int).Add(l.Inclusion, l.Tally)
	return total.Add(total, l.Block)
}

// add grows the pools. The block pool absorbs whatever part of addedValue
// is not earmarked for inclusion or tally.
func (l *RewardLedger) add(addInclusion, addTally, addedValue *big.Int) {
	addBlock := new(big.Int).Sub(addedValue, addInclusion)
	addBlock.Sub(addBlock, addTally)

	l.Inclusion.Add(l.Inclusion, addInclusion)
	l.Tally.Add(l.Tally, addTally)
	l.Block.Add(l.Block, addBlock)
}

// takeInclusion drains and returns the inclusion pool.
func (l *RewardLedger) takeInclusion() *big.Int {
	out := l.Inclusion
	l.Inclusion = big.NewInt(0)
	return out
}

// takeTally drains and returns the tally pool.
func (l *RewardLedger) takeTally() *big.Int {
	out := l.Tally
	l.Tally = big.NewInt(0)
	return out
}

// takeHalfBlock drains and returns half of the block pool, rounded down.
// The remainder stays escrowed for the result report.
func (l *RewardLedger) takeHalfBlock() *big.Int {
	half := new(big.Int).Rsh(l.Block, 1)
	l.Block.Sub(l.Block, half)
	return half
}

// takeBlock drains and returns the remaining block pool.
func (l *RewardLedger) takeBlock() *big.Int {
	out := l.Block
	l.Block = big.NewInt(0)
	return out
}
