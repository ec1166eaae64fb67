// Package committee maintains the validator set that attests to event
// roots: per-index validators, total voting power, the aggregate G1 key and
// the set's content hash.
package committee

import (
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/common"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"

	"github.com/eth2030/feedoracle/core/rawdb"
	"github.com/eth2030/feedoracle/core/types"
	"github.com/eth2030/feedoracle/crypto"
)

// snapshotCacheSize bounds how many distinct sets are kept in memory.
const snapshotCacheSize = 8

// Registry validates and stores validator sets. All state lives in the
// database; the registry itself only caches decoded snapshots by hash.
type Registry struct {
	curve     crypto.Curve
	snapshots *lru.Cache[common.Hash, *types.ValidatorSet]
}

// NewRegistry creates a registry summing keys with curve.
func NewRegistry(curve crypto.Curve) *Registry {
	cache, err := lru.New[common.Hash, *types.ValidatorSet](snapshotCacheSize)
	if err != nil {
		panic(err)
	}
	return &Registry{curve: curve, snapshots: cache}
}

// Replace validates validators and stores them as the current set inside
// tx. Slots beyond a shrunk set are cleared.
func (r *Registry) Replace(tx *rawdb.Txn, validators []types.Validator) (*types.ValidatorSet, error) {
	if len(validators) < types.MinValidatorSetSize {
		return nil, errors.Wrapf(types.ErrValidatorSetTooSmall, "have %d, need %d", len(validators), types.MinValidatorSetSize)
	}
	seen := mapset.NewThreadUnsafeSetWithSize[common.Address](len(validators))
	for _, v := range validators {
		if !seen.Add(v.Address) {
			return nil, errors.Wrapf(types.ErrDuplicatedAddresses, "%s", v.Address)
		}
	}

	set := &types.ValidatorSet{Validators: make([]types.Validator, len(validators))}
	for i := range validators {
		v := validators[i]
		if v.Address == (common.Address{}) {
			return nil, errors.Wrapf(types.ErrInvalidAddress, "validator %d", i)
		}
		if v.VotingPower.IsZero() {
			return nil, errors.Wrapf(types.ErrVotingPowerIsZero, "validator %d", i)
		}
		if v.G1PublicKey.IsZero() {
			return nil, errors.Wrapf(types.ErrInvalidPublicKey, "validator %d: zero key", i)
		}
		apk, err := r.curve.AddG1(set.AggregatePublicKey, v.G1PublicKey)
		if err != nil {
			return nil, errors.Wrapf(types.ErrInvalidPublicKey, "validator %d: %v", i, err)
		}
		if _, overflow := set.TotalVotingPower.AddOverflow(&set.TotalVotingPower, &v.VotingPower); overflow {
			return nil, errors.Wrap(types.ErrInvalidInput, "total voting power overflows")
		}
		set.AggregatePublicKey = apk
		set.Validators[i] = v
	}
	hash, err := ContentHash(set.Validators)
	if err != nil {
		return nil, errors.Wrap(types.ErrInvalidInput, err.Error())
	}
	set.Hash = hash

	prev, err := rawdb.ReadValidatorSetSummary(tx)
	if err != nil {
		return nil, err
	}
	for i := uint64(len(validators)); i < prev.Length; i++ {
		if err := rawdb.DeleteValidator(tx, i); err != nil {
			return nil, err
		}
	}
	for i := range set.Validators {
		if err := rawdb.WriteValidator(tx, uint64(i), &set.Validators[i]); err != nil {
			return nil, err
		}
	}
	if err := rawdb.WriteValidatorSetSummary(tx, summaryOf(set)); err != nil {
		return nil, err
	}
	r.snapshots.Add(set.Hash, set)
	return set, nil
}

// Summary returns the committee-wide fields of the current set.
func (r *Registry) Summary(db rawdb.KeyValueReader) (*types.ValidatorSetSummary, error) {
	return rawdb.ReadValidatorSetSummary(db)
}

// Validator returns the validator at index.
func (r *Registry) Validator(db rawdb.KeyValueReader, index uint64) (*types.Validator, error) {
	s, err := rawdb.ReadValidatorSetSummary(db)
	if err != nil {
		return nil, err
	}
	if index >= s.Length {
		return nil, errors.Wrapf(types.ErrValidatorIndexOutOfBounds, "index %d, length %d", index, s.Length)
	}
	return rawdb.ReadValidator(db, index)
}

// Snapshot returns the full current set. Snapshots are shared and must not
// be modified.
func (r *Registry) Snapshot(db rawdb.KeyValueReader) (*types.ValidatorSet, error) {
	s, err := rawdb.ReadValidatorSetSummary(db)
	if err != nil {
		return nil, err
	}
	if s.Length == 0 {
		return &types.ValidatorSet{}, nil
	}
	if set, ok := r.snapshots.Get(s.Hash); ok {
		return set, nil
	}
	set := &types.ValidatorSet{
		Validators:         make([]types.Validator, s.Length),
		TotalVotingPower:   s.TotalVotingPower,
		AggregatePublicKey: s.AggregatePublicKey,
		Hash:               s.Hash,
	}
	for i := uint64(0); i < s.Length; i++ {
		v, err := rawdb.ReadValidator(db, i)
		if err != nil {
			return nil, errors.Wrapf(err, "validator %d", i)
		}
		set.Validators[i] = *v
	}
	r.snapshots.Add(s.Hash, set)
	return set, nil
}

func summaryOf(set *types.ValidatorSet) *types.ValidatorSetSummary {
	return &types.ValidatorSetSummary{
		Length:             uint64(len(set.Validators)),
		TotalVotingPower:   set.TotalVotingPower,
		AggregatePublicKey: set.AggregatePublicKey,
		Hash:               set.Hash,
	}
}
