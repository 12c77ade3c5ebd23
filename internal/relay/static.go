// Package relay hosts the block-relay collaborator implementations. The
// board consumes the relay through the board.BlockRelay interface; this
// package provides a static in-process relay for devnets and integration
// tests, driven by whoever operates the deployment.
package relay

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Static is a relay whose view of the external chain is pushed to it rather
// than synced from a live network. It doubles as the host height source: the
// devnet has no real host chain, so height advances with each recorded block.
type Static struct {
	mu sync.RWMutex

	epoch  uint64
	beacon []byte
	height uint64

	// relayers records the relayer of record per external block
	relayers map[common.Hash]common.Address

	// roots records the Merkle root per (blockHash, inclusion|tally)
	inclusionRoots map[common.Hash]common.Hash
	tallyRoots     map[common.Hash]common.Hash
}

// NewStatic creates a static relay at epoch 0 with an empty beacon.
func NewStatic() *Static {
	return &Static{
		beacon:         crypto.Keccak256(nil),
		relayers:       make(map[common.Hash]common.Address),
		inclusionRoots: make(map[common.Hash]common.Hash),
		tallyRoots:     make(map[common.Hash]common.Hash),
	}
}

// RecordBlock registers an external block: its relayer of record and the
// Merkle roots settlement proofs are verified against. Advances the epoch,
// the host height, and the beacon.
func (s *Static) RecordBlock(blockHash common.Hash, relayer common.Address, inclusionRoot, tallyRoot common.Hash) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.relayers[blockHash] = relayer
	s.inclusionRoots[blockHash] = inclusionRoot
	s.tallyRoots[blockHash] = tallyRoot
	s.epoch++
	s.height++
	s.beacon = crypto.Keccak256(s.beacon, blockHash.Bytes())
}

// AdvanceHeight moves the host height forward without recording a block.
func (s *Static) AdvanceHeight(blocks uint64) {
	s.mu.Lock()
	s.height += blocks
	s.mu.Unlock()
}

// CurrentEpoch returns the last recorded external epoch.
func (s *Static) CurrentEpoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

// CurrentBeacon returns the VRF message for the current sortition round.
func (s *Static) CurrentBeacon() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]byte(nil), s.beacon...)
}

// BlockNumber returns the current host height.
func (s *Static) BlockNumber() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.height
}

// RelayerOfRecord returns the identity that relayed blockHash.
func (s *Static) RelayerOfRecord(blockHash common.Hash, epoch uint64) (common.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	relayer, ok := s.relayers[blockHash]
	if !ok {
		return common.Address{}, fmt.Errorf("unknown block: %s", blockHash)
	}
	return relayer, nil
}

// VerifyInclusionProof walks the Merkle path from the payload hash and
// compares the derived root with the block's recorded inclusion root.
func (s *Static) VerifyInclusionProof(proof []common.Hash, blockHash common.Hash, epoch, index uint64, payloadHash common.Hash) (bool, error) {
	s.mu.RLock()
	root, ok := s.inclusionRoots[blockHash]
	s.mu.RUnlock()
	if !ok {
		return false, fmt.Errorf("unknown block: %s", blockHash)
	}
	return merkleRoot(payloadHash, proof, index) == root, nil
}

// VerifyResultProof walks the Merkle path from the result hash and compares
// the derived root with the block's recorded tally root.
func (s *Static) VerifyResultProof(proof []common.Hash, blockHash common.Hash, epoch, index uint64, resultHash common.Hash) (bool, error) {
	s.mu.RLock()
	root, ok := s.tallyRoots[blockHash]
	s.mu.RUnlock()
	if !ok {
		return false, fmt.Errorf("unknown block: %s", blockHash)
	}
	return merkleRoot(resultHash, proof, index) == root, nil
}

// merkleRoot folds a leaf up a sibling path. The index's low bit at each
// level selects whether the sibling hashes on the left or the right.
func merkleRoot(leaf common.Hash, siblings []common.Hash, index uint64) common.Hash {
	node := leaf
	for _, sibling := range siblings {
		if index&1 == 1 {
			node = crypto.Keccak256Hash(sibling.Bytes(), node.Bytes())
		} else {
			node = crypto.Keccak256Hash(node.Bytes(), sibling.Bytes())
		}
		index >>= 1
	}
	return node
}
