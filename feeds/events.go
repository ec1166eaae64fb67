package feeds

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Event is implemented by every feed store notification. Events are sent
// after the producing call commits.
type Event interface {
	feedEvent()
}

// RateUpdated is sent when a leaf advanced a feed.
type RateUpdated struct {
	FeedID      uint64
	Rate        uint256.Int
	Timestamp   uint64
	BlockNumber uint64
}

// SymbolReplay is sent when a leaf did not advance its feed.
type SymbolReplay struct {
	FeedID            uint64
	RejectedTimestamp uint64
	StoredTimestamp   uint64
}

// SupportedFeedUpdated is sent per id touched by an allowlist change.
type SupportedFeedUpdated struct {
	FeedID    uint64
	Supported bool
}

// PublisherWhitelisted is sent per whitelist change.
type PublisherWhitelisted struct {
	Publisher common.Address
	Allowed   bool
}

// FeedTimestampReset is sent per feed whose timestamp was zeroed.
type FeedTimestampReset struct {
	FeedID uint64
}

type FeedVerifierSet struct{}

type PauserRegistrySet struct{}

type FeedDeployerSet struct {
	Previous common.Address
	Current  common.Address
}

type Paused struct {
	Account common.Address
}

type Unpaused struct {
	Account common.Address
}

type OwnershipTransferred struct {
	Previous common.Address
	Current  common.Address
}

func (RateUpdated) feedEvent()          {}
func (SymbolReplay) feedEvent()         {}
func (SupportedFeedUpdated) feedEvent() {}
func (PublisherWhitelisted) feedEvent() {}
func (FeedTimestampReset) feedEvent()   {}
func (FeedVerifierSet) feedEvent()      {}
func (PauserRegistrySet) feedEvent()    {}
func (FeedDeployerSet) feedEvent()      {}
func (Paused) feedEvent()               {}
func (Unpaused) feedEvent()             {}
func (OwnershipTransferred) feedEvent() {}
