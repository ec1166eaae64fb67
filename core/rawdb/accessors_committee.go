package rawdb

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/eth2030/feedoracle/core/types"
)

type storedValidator struct {
	Address     common.Address
	G1PublicKey point
	G2PublicKey [4][32]byte
	VotingPower *big.Int
}

type storedValidatorSet struct {
	Length             uint64
	TotalVotingPower   *big.Int
	AggregatePublicKey point
	Hash               common.Hash
}

type storedCheckpoint struct {
	BlockNumber uint64
	EventRoot   common.Hash
}

// --- Validator table ---

// ReadValidator retrieves the validator stored at index.
func ReadValidator(db KeyValueReader, index uint64) (*types.Validator, error) {
	var enc storedValidator
	ok, err := readRLP(db, validatorKey(index), &enc)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	v := &types.Validator{
		Address:     enc.Address,
		G1PublicKey: enc.G1PublicKey.decode(),
	}
	for i, w := range enc.G2PublicKey {
		word := &v.G2PublicKey.X[i%2]
		if i >= 2 {
			word = &v.G2PublicKey.Y[i%2]
		}
		word.SetBytes32(w[:])
	}
	if err := setBig(&v.VotingPower, enc.VotingPower); err != nil {
		return nil, err
	}
	return v, nil
}

// WriteValidator stores v at index.
func WriteValidator(db KeyValueWriter, index uint64, v *types.Validator) error {
	return writeRLP(db, validatorKey(index), &storedValidator{
		Address:     v.Address,
		G1PublicKey: encodePoint(v.G1PublicKey),
		G2PublicKey: [4][32]byte{
			v.G2PublicKey.X[0].Bytes32(), v.G2PublicKey.X[1].Bytes32(),
			v.G2PublicKey.Y[0].Bytes32(), v.G2PublicKey.Y[1].Bytes32(),
		},
		VotingPower: bigOf(&v.VotingPower),
	})
}

// DeleteValidator clears the slot at index.
func DeleteValidator(db KeyValueWriter, index uint64) error {
	return db.Delete(validatorKey(index))
}

// HasValidator checks whether a slot at index is populated.
func HasValidator(db KeyValueReader, index uint64) bool {
	ok, _ := db.Has(validatorKey(index))
	return ok
}

// --- Validator set summary ---

// ReadValidatorSetSummary returns the committee-wide fields. An empty store
// yields the zero summary.
func ReadValidatorSetSummary(db KeyValueReader) (*types.ValidatorSetSummary, error) {
	var enc storedValidatorSet
	if _, err := readRLP(db, validatorSetKey, &enc); err != nil {
		return nil, err
	}
	s := &types.ValidatorSetSummary{
		Length:             enc.Length,
		AggregatePublicKey: enc.AggregatePublicKey.decode(),
		Hash:               enc.Hash,
	}
	if err := setBig(&s.TotalVotingPower, enc.TotalVotingPower); err != nil {
		return nil, err
	}
	return s, nil
}

// WriteValidatorSetSummary stores the committee-wide fields.
func WriteValidatorSetSummary(db KeyValueWriter, s *types.ValidatorSetSummary) error {
	return writeRLP(db, validatorSetKey, &storedValidatorSet{
		Length:             s.Length,
		TotalVotingPower:   bigOf(&s.TotalVotingPower),
		AggregatePublicKey: encodePoint(s.AggregatePublicKey),
		Hash:               s.Hash,
	})
}

// --- Checkpoint ---

// ReadCheckpoint returns the last accepted checkpoint, zero if none.
func ReadCheckpoint(db KeyValueReader) (types.Checkpoint, error) {
	var enc storedCheckpoint
	if _, err := readRLP(db, checkpointKey, &enc); err != nil {
		return types.Checkpoint{}, err
	}
	return types.Checkpoint{BlockNumber: enc.BlockNumber, EventRoot: enc.EventRoot}, nil
}

// WriteCheckpoint stores cp.
func WriteCheckpoint(db KeyValueWriter, cp types.Checkpoint) error {
	return writeRLP(db, checkpointKey, &storedCheckpoint{BlockNumber: cp.BlockNumber, EventRoot: cp.EventRoot})
}

// --- Verifier roles ---

// ReadVerifierOwner returns the verifier owner, zero if unset.
func ReadVerifierOwner(db KeyValueReader) (common.Address, error) {
	return readAddress(db, verifierOwnerKey)
}

// WriteVerifierOwner stores the verifier owner.
func WriteVerifierOwner(db KeyValueWriter, owner common.Address) error {
	return writeAddress(db, verifierOwnerKey, owner)
}

// ReadFeedManager returns the registered feed manager, zero if unset.
func ReadFeedManager(db KeyValueReader) (common.Address, error) {
	return readAddress(db, feedManagerKey)
}

// WriteFeedManager stores the registered feed manager.
func WriteFeedManager(db KeyValueWriter, manager common.Address) error {
	return writeAddress(db, feedManagerKey, manager)
}
