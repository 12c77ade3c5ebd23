package types

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Handle is the stable sequential identifier of a data request.
// Handle 0 is reserved and never assigned.
type Handle uint64

// RequestStatus represents a data request's lifecycle position
type RequestStatus string

const (
	RequestStatusPosted   RequestStatus = "posted"
	RequestStatusClaimed  RequestStatus = "claimed"
	RequestStatusIncluded RequestStatus = "included"
	RequestStatusResulted RequestStatus = "resulted"
)

// RequestSummary is the read-side view of a data request
type RequestSummary struct {
	Handle          Handle         `json:"handle"`
	Status          RequestStatus  `json:"status"`
	PayloadRef      string         `json:"payload_ref"`
	PayloadHash     common.Hash    `json:"payload_hash"`
	InclusionReward *big.Int       `json:"inclusion_reward"`
	TallyReward     *big.Int       `json:"tally_reward"`
	BlockReward     *big.Int       `json:"block_reward"`
	GasPriceAtPost  *big.Int       `json:"gas_price_at_post"`
	Epoch           uint64         `json:"epoch"`
	InclusionProof  common.Hash    `json:"inclusion_proof_hash"`
	Claimant        common.Address `json:"claimant"`
	ClaimBlock      uint64         `json:"claim_block"`
	Requestor       common.Address `json:"requestor"`
}

// EventKind identifies a board lifecycle event
type EventKind string

const (
	EventPosted         EventKind = "posted"
	EventRewardUpgraded EventKind = "reward_upgraded"
	EventClaimed        EventKind = "claimed"
	EventIncluded       EventKind = "included"
	EventResulted       EventKind = "resulted"
)

// Event is emitted by the board on every lifecycle transition
type Event struct {
	Kind      EventKind      `json:"kind"`
	Handle    Handle         `json:"handle"`
	Actor     common.Address `json:"actor,omitempty"`
	Epoch     uint64         `json:"epoch,omitempty"`
	BlockHash common.Hash    `json:"block_hash,omitempty"`
	Time      time.Time      `json:"time"`
}
