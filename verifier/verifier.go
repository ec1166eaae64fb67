// Package verifier checks committee attestations over event roots and
// proves feed leaves against accepted roots. Only the registered feed
// manager may run verifications; the owner manages the committee.
package verifier

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/eth2030/feedoracle/committee"
	"github.com/eth2030/feedoracle/core/rawdb"
	"github.com/eth2030/feedoracle/core/types"
	"github.com/eth2030/feedoracle/crypto"
	"github.com/eth2030/feedoracle/log"
	"github.com/eth2030/feedoracle/metrics"
)

// Verifier is the verification facade. State lives in db; every mutating
// call commits atomically or not at all.
type Verifier struct {
	db         *rawdb.Database
	registry   *committee.Registry
	signatures *SignatureVerifier
	metrics    *metrics.Oracle
	log        *log.Logger
	events     event.FeedOf[Event]
}

// New creates a verifier over db. A nil logger or metrics set falls back to
// the defaults.
func New(db *rawdb.Database, curve crypto.Curve, logger *log.Logger, m *metrics.Oracle) *Verifier {
	if logger == nil {
		logger = log.Default()
	}
	if m == nil {
		m = metrics.NewNop()
	}
	registry := committee.NewRegistry(curve)
	return &Verifier{
		db:         db,
		registry:   registry,
		signatures: NewSignatureVerifier(curve, registry, m),
		metrics:    m,
		log:        logger.Module("verifier"),
	}
}

// SubscribeEvents delivers committed verifier events to ch.
func (v *Verifier) SubscribeEvents(ch chan<- Event) event.Subscription {
	return v.events.Subscribe(ch)
}

// Initialize sets the owner on a fresh store. It reports false and changes
// nothing if an owner already exists.
func (v *Verifier) Initialize(owner common.Address) (bool, error) {
	if owner == (common.Address{}) {
		return false, errors.Wrap(types.ErrInvalidAddress, "owner")
	}
	var done bool
	err := v.db.Update(func(tx *rawdb.Txn) error {
		cur, err := rawdb.ReadVerifierOwner(tx)
		if err != nil || cur != (common.Address{}) {
			return err
		}
		done = true
		return rawdb.WriteVerifierOwner(tx, owner)
	})
	if done && err == nil {
		v.log.Info("Verifier initialized", "owner", owner)
	}
	return done && err == nil, err
}

// RefreshMetrics publishes committee and checkpoint gauges from the store.
func (v *Verifier) RefreshMetrics() error {
	return v.db.View(func(r rawdb.KeyValueReader) error {
		s, err := rawdb.ReadValidatorSetSummary(r)
		if err != nil {
			return err
		}
		cp, err := rawdb.ReadCheckpoint(r)
		if err != nil {
			return err
		}
		v.setCommitteeGauges(s.Length, &s.TotalVotingPower)
		v.metrics.CheckpointBlock.Set(float64(cp.BlockNumber))
		return nil
	})
}

func (v *Verifier) setCommitteeGauges(length uint64, total *uint256.Int) {
	v.metrics.CommitteeSize.Set(float64(length))
	v.metrics.TotalVotingPower.Set(total.Float64())
}

func (v *Verifier) checkOwner(r rawdb.KeyValueReader, caller common.Address) error {
	owner, err := rawdb.ReadVerifierOwner(r)
	if err != nil {
		return err
	}
	if caller != owner || owner == (common.Address{}) {
		return errors.Wrapf(types.ErrCallerIsNotOwner, "%s", caller)
	}
	return nil
}

func (v *Verifier) checkFeedManager(r rawdb.KeyValueReader, caller common.Address) error {
	manager, err := rawdb.ReadFeedManager(r)
	if err != nil {
		return err
	}
	if caller != manager || manager == (common.Address{}) {
		return errors.Wrapf(types.ErrCallerIsNotFeedManager, "%s", caller)
	}
	return nil
}

// SetNewValidatorSet replaces the committee. Owner only.
func (v *Verifier) SetNewValidatorSet(caller common.Address, validators []types.Validator) (*types.ValidatorSet, error) {
	var set *types.ValidatorSet
	err := v.db.Update(func(tx *rawdb.Txn) error {
		if err := v.checkOwner(tx, caller); err != nil {
			return err
		}
		var err error
		if set, err = v.registry.Replace(tx, validators); err != nil {
			return err
		}
		tx.OnCommit(func() {
			v.log.Info("Validator set updated", "length", set.Len(), "hash", set.Hash, "power", set.TotalVotingPower.Dec())
			v.setCommitteeGauges(uint64(set.Len()), &set.TotalVotingPower)
			v.events.Send(ValidatorSetUpdated{
				Length:           uint64(set.Len()),
				Hash:             set.Hash,
				TotalVotingPower: set.TotalVotingPower,
			})
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return set, nil
}

// SetFeedManager registers the only address allowed to verify. Owner only.
func (v *Verifier) SetFeedManager(caller, manager common.Address) error {
	return v.db.Update(func(tx *rawdb.Txn) error {
		if err := v.checkOwner(tx, caller); err != nil {
			return err
		}
		if manager == (common.Address{}) {
			return errors.Wrap(types.ErrInvalidAddress, "feed manager")
		}
		prev, err := rawdb.ReadFeedManager(tx)
		if err != nil {
			return err
		}
		if err := rawdb.WriteFeedManager(tx, manager); err != nil {
			return err
		}
		tx.OnCommit(func() {
			v.log.Info("Feed manager set", "previous", prev, "manager", manager)
			v.events.Send(FeedManagerSet{Previous: prev, Current: manager})
		})
		return nil
	})
}

// TransferOwnership hands the verifier to newOwner. Owner only.
func (v *Verifier) TransferOwnership(caller, newOwner common.Address) error {
	return v.db.Update(func(tx *rawdb.Txn) error {
		if err := v.checkOwner(tx, caller); err != nil {
			return err
		}
		if newOwner == (common.Address{}) {
			return errors.Wrap(types.ErrInvalidAddress, "new owner")
		}
		if err := rawdb.WriteVerifierOwner(tx, newOwner); err != nil {
			return err
		}
		tx.OnCommit(func() {
			v.log.Info("Verifier ownership transferred", "previous", caller, "owner", newOwner)
			v.events.Send(OwnershipTransferred{Previous: caller, Current: newOwner})
		})
		return nil
	})
}

// Verify checks the attestation and proves a single leaf.
func (v *Verifier) Verify(caller common.Address, leaf *types.LeafInput, p *types.VerificationParams) ([]byte, error) {
	var out []byte
	err := v.db.Update(func(tx *rawdb.Txn) error {
		var err error
		out, err = v.VerifyTx(tx, caller, leaf, p)
		return err
	})
	return out, err
}

// BatchVerify checks the attestation once and proves every leaf.
func (v *Verifier) BatchVerify(caller common.Address, leaves []types.LeafInput, p *types.VerificationParams) ([][]byte, error) {
	var out [][]byte
	err := v.db.Update(func(tx *rawdb.Txn) error {
		var err error
		out, err = v.BatchVerifyTx(tx, caller, leaves, p)
		return err
	})
	return out, err
}

// VerifyTx is Verify inside a caller-owned transaction, so the checkpoint
// advances only if the caller's own writes commit too.
func (v *Verifier) VerifyTx(tx *rawdb.Txn, caller common.Address, leaf *types.LeafInput, p *types.VerificationParams) ([]byte, error) {
	if err := v.attest(tx, caller, p); err != nil {
		return nil, err
	}
	raw, err := VerifyLeaf(leaf, p.EventRoot)
	if err != nil {
		v.log.Warn("Leaf proof rejected", "root", p.EventRoot, "leaf", leaf.LeafIndex)
		return nil, err
	}
	v.metrics.LeavesChecked.Inc()
	return raw, nil
}

// BatchVerifyTx is BatchVerify inside a caller-owned transaction.
func (v *Verifier) BatchVerifyTx(tx *rawdb.Txn, caller common.Address, leaves []types.LeafInput, p *types.VerificationParams) ([][]byte, error) {
	if err := v.attest(tx, caller, p); err != nil {
		return nil, err
	}
	out, err := BatchVerifyLeaves(leaves, p.EventRoot)
	if err != nil {
		v.log.Warn("Leaf batch rejected", "root", p.EventRoot, "leaves", len(leaves), "err", err)
		return nil, err
	}
	v.metrics.LeavesChecked.Add(float64(len(out)))
	return out, nil
}

func (v *Verifier) attest(tx *rawdb.Txn, caller common.Address, p *types.VerificationParams) error {
	if p == nil {
		return errors.Wrap(types.ErrInvalidInput, "missing verification params")
	}
	if err := v.checkFeedManager(tx, caller); err != nil {
		return err
	}
	cached, err := v.signatures.Verify(tx, p)
	if err != nil {
		v.log.Warn("Attestation rejected", "root", p.EventRoot, "block", p.BlockNumber, "err", err)
		return err
	}
	if cached {
		v.log.Debug("Event root already verified", "root", p.EventRoot)
		return nil
	}
	block := p.BlockNumber
	tx.OnCommit(func() {
		v.log.Debug("Event root verified", "root", p.EventRoot, "block", block)
		v.metrics.CheckpointBlock.Set(float64(block))
	})
	return nil
}

// CurrentValidatorSetLength returns the committee size.
func (v *Verifier) CurrentValidatorSetLength() (uint64, error) {
	s, err := v.Summary()
	if err != nil {
		return 0, err
	}
	return s.Length, nil
}

// TotalVotingPower returns the committee's total voting power.
func (v *Verifier) TotalVotingPower() (*uint256.Int, error) {
	s, err := v.Summary()
	if err != nil {
		return nil, err
	}
	return &s.TotalVotingPower, nil
}

// CurrentValidatorSetHash returns the committee content hash.
func (v *Verifier) CurrentValidatorSetHash() (common.Hash, error) {
	s, err := v.Summary()
	if err != nil {
		return common.Hash{}, err
	}
	return s.Hash, nil
}

// Summary returns the committee-wide fields.
func (v *Verifier) Summary() (*types.ValidatorSetSummary, error) {
	var s *types.ValidatorSetSummary
	err := v.db.View(func(r rawdb.KeyValueReader) error {
		var err error
		s, err = v.registry.Summary(r)
		return err
	})
	return s, err
}

// CurrentValidatorSet returns the validator at index.
func (v *Verifier) CurrentValidatorSet(index uint64) (*types.Validator, error) {
	var val *types.Validator
	err := v.db.View(func(r rawdb.KeyValueReader) error {
		var err error
		val, err = v.registry.Validator(r, index)
		return err
	})
	return val, err
}

// Checkpoint returns the last accepted (block number, event root).
func (v *Verifier) Checkpoint() (types.Checkpoint, error) {
	var cp types.Checkpoint
	err := v.db.View(func(r rawdb.KeyValueReader) error {
		var err error
		cp, err = rawdb.ReadCheckpoint(r)
		return err
	})
	return cp, err
}

// LastProcessedBlockNumber returns the checkpoint block.
func (v *Verifier) LastProcessedBlockNumber() (uint64, error) {
	cp, err := v.Checkpoint()
	return cp.BlockNumber, err
}

// LastProcessedEventRoot returns the checkpoint root.
func (v *Verifier) LastProcessedEventRoot() (common.Hash, error) {
	cp, err := v.Checkpoint()
	return cp.EventRoot, err
}

// FeedManager returns the registered feed manager.
func (v *Verifier) FeedManager() (common.Address, error) {
	return v.readAddress(rawdb.ReadFeedManager)
}

// Owner returns the verifier owner.
func (v *Verifier) Owner() (common.Address, error) {
	return v.readAddress(rawdb.ReadVerifierOwner)
}

func (v *Verifier) readAddress(read func(rawdb.KeyValueReader) (common.Address, error)) (common.Address, error) {
	var addr common.Address
	err := v.db.View(func(r rawdb.KeyValueReader) error {
		var err error
		addr, err = read(r)
		return err
	})
	return addr, err
}
