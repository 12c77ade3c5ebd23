package board

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// ReporterPopulation tracks the identities currently eligible for sortition
// and the host block at which each was last active. It supplies the
// sortition denominator and is pushed to by the claim gate on every
// successful claim.
type ReporterPopulation struct {
	mu         sync.RWMutex
	lastActive map[common.Address]uint64
}

// NewReporterPopulation creates an empty reporter population
func NewReporterPopulation() *ReporterPopulation {
	return &ReporterPopulation{
		lastActive: make(map[common.Address]uint64),
	}
}

// ActiveCount returns the number of active reporter identities.
func (p *ReporterPopulation) ActiveCount() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return uint64(len(p.lastActive))
}

// IsActive reports whether the identity is a current population member.
func (p *ReporterPopulation) IsActive(addr common.Address) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.lastActive[addr]
	return ok
}

// Touch records activity for an identity at the given host block, adding it
// to the population if absent.
func (p *ReporterPopulation) Touch(addr common.Address, block uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if prev, ok := p.lastActive[addr]; !ok || block > prev {
		p.lastActive[addr] = block
	}
}

// LastActive returns the host block of the identity's most recent activity.
func (p *ReporterPopulation) LastActive(addr common.Address) (uint64, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	block, ok := p.lastActive[addr]
	return block, ok
}

// Evict removes identities whose last activity predates cutoff. The
// deployment layer calls this to shrink the sortition denominator when
// reporters go dark.
func (p *ReporterPopulation) Evict(cutoff uint64) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	evicted := 0
	for addr, block := range p.lastActive {
		if block < cutoff {
			delete(p.lastActive, addr)
			evicted++
		}
	}
	return evicted
}
