package verifier

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Event is implemented by every verifier notification. Events are sent
// only after the state change that produced them is committed.
type Event interface {
	verifierEvent()
}

// ValidatorSetUpdated is sent after a committee replacement.
type ValidatorSetUpdated struct {
	Length           uint64
	Hash             common.Hash
	TotalVotingPower uint256.Int
}

// FeedManagerSet is sent when the feed manager changes.
type FeedManagerSet struct {
	Previous common.Address
	Current  common.Address
}

// OwnershipTransferred is sent when the verifier owner changes.
type OwnershipTransferred struct {
	Previous common.Address
	Current  common.Address
}

func (ValidatorSetUpdated) verifierEvent()  {}
func (FeedManagerSet) verifierEvent()       {}
func (OwnershipTransferred) verifierEvent() {}
