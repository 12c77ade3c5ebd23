// Package payload provides the content-addressed store the board resolves
// payload references against.
package payload

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/crypto"
)

// MemoryStore is an in-memory payload store keyed by hex-encoded content
// hash. Suitable for devnets and tests; production deployments back the
// board with the external payload collaborator instead.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

// NewMemoryStore creates an empty payload store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]byte)}
}

// Put stores the payload and returns its reference.
func (s *MemoryStore) Put(payload []byte) string {
	ref := crypto.Keccak256Hash(payload).Hex()

	s.mu.Lock()
	s.entries[ref] = append([]byte(nil), payload...)
	s.mu.Unlock()

	return ref
}

// PayloadBytes resolves a reference to the stored bytes.
func (s *MemoryStore) PayloadBytes(ref string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	payload, ok := s.entries[ref]
	if !ok {
		return nil, fmt.Errorf("payload not found: %s", ref)
	}
	return append([]byte(nil), payload...), nil
}
