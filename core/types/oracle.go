// Package types defines the data model shared by the committee, verifier
// and feed store packages: validators and their BN254 keys, the verification
// checkpoint, per-call verification inputs and stored price feed records.
package types

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// MinValidatorSetSize is the smallest committee accepted by the registry.
const MinValidatorSetSize = 3

// G1Point is an affine BN254 G1 point given as two base-field elements.
// The all-zero point encodes infinity.
type G1Point struct {
	X uint256.Int
	Y uint256.Int
}

// IsZero reports whether p is the all-zero encoding.
func (p G1Point) IsZero() bool {
	return p.X.IsZero() && p.Y.IsZero()
}

// G2Point is an affine BN254 G2 point. Each coordinate is an Fp2 element in
// EVM order: index 0 holds the imaginary part, index 1 the real part.
type G2Point struct {
	X [2]uint256.Int
	Y [2]uint256.Int
}

// Validator is one committee member. Address is its identity inside a set.
type Validator struct {
	Address     common.Address
	G1PublicKey G1Point
	// G2PublicKey is carried for relayers; verification only uses G1 keys.
	G2PublicKey G2Point
	VotingPower uint256.Int
}

// ValidatorSet is an immutable snapshot of the committee.
type ValidatorSet struct {
	Validators         []Validator
	TotalVotingPower   uint256.Int
	AggregatePublicKey G1Point
	Hash               common.Hash
}

// Len returns the number of validators in the snapshot.
func (s *ValidatorSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Validators)
}

// ValidatorSetSummary holds the committee-wide fields stored next to the
// per-index validator table.
type ValidatorSetSummary struct {
	Length             uint64
	TotalVotingPower   uint256.Int
	AggregatePublicKey G1Point
	Hash               common.Hash
}

// Checkpoint is the last accepted (block number, event root) pair.
type Checkpoint struct {
	BlockNumber uint64
	EventRoot   common.Hash
}

// LeafInput is one leaf submitted for Merkle verification.
type LeafInput struct {
	LeafIndex    uint64
	UnhashedLeaf []byte
	Proof        []common.Hash
}

// VerificationParams carries the attestation a relayer submits with a batch.
type VerificationParams struct {
	EventRoot   common.Hash
	BlockNumber uint64
	ChainID     uint64
	Aggregator  common.Address
	BlockHash   common.Hash
	Signature   G1Point
	ApkG2       G2Point
	// NonSignersBitmap flags validator i when bit i%8 of byte i/8 is set.
	NonSignersBitmap []byte
}

// PriceFeedRecord is the latest accepted value of a feed.
type PriceFeedRecord struct {
	Value             uint256.Int
	Timestamp         uint64
	SourceBlockNumber uint64
}

// PriceFeedLeaf is the decoded payload of a verified leaf.
type PriceFeedLeaf struct {
	FeedID    uint64
	Rate      uint256.Int
	Timestamp uint64
}
