// Package feeds stores the latest verified value of every supported price
// feed. Submissions are gated by a publisher whitelist and a pause switch,
// verified through the committee verifier and accepted only when their
// timestamp advances the stored one.
package feeds

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/eth2030/feedoracle/core/rawdb"
	"github.com/eth2030/feedoracle/core/types"
	"github.com/eth2030/feedoracle/log"
	"github.com/eth2030/feedoracle/metrics"
)

// Verifier is the verification facade as seen by the feed store. Calls run
// inside the store's transaction so verification and storage commit
// together.
type Verifier interface {
	VerifyTx(tx *rawdb.Txn, caller common.Address, leaf *types.LeafInput, p *types.VerificationParams) ([]byte, error)
	BatchVerifyTx(tx *rawdb.Txn, caller common.Address, leaves []types.LeafInput, p *types.VerificationParams) ([][]byte, error)
}

// OutcomeKind tells an accepted update from a replay.
type OutcomeKind uint8

const (
	Updated OutcomeKind = iota
	Replayed
)

func (k OutcomeKind) String() string {
	if k == Replayed {
		return "replayed"
	}
	return "updated"
}

// UpdateOutcome is the per-leaf result of a submission.
type UpdateOutcome struct {
	Kind   OutcomeKind
	FeedID uint64
	Rate   uint256.Int
	// Timestamp is the submitted timestamp.
	Timestamp uint64
	// StoredTimestamp is the feed's timestamp after the call.
	StoredTimestamp uint64
	BlockNumber     uint64
}

// Manager is the feed store together with its access control.
type Manager struct {
	db      *rawdb.Database
	address common.Address

	mu       sync.RWMutex
	verifier Verifier
	pauser   PauserRegistry

	metrics *metrics.Oracle
	log     *log.Logger
	events  event.FeedOf[Event]
}

// NewManager creates a feed store. address is the identity the store uses
// when calling the verifier, i.e. the verifier's registered feed manager.
func NewManager(db *rawdb.Database, address common.Address, verifier Verifier, pauser PauserRegistry, logger *log.Logger, m *metrics.Oracle) *Manager {
	if logger == nil {
		logger = log.Default()
	}
	if m == nil {
		m = metrics.NewNop()
	}
	return &Manager{
		db:       db,
		address:  address,
		verifier: verifier,
		pauser:   pauser,
		metrics:  m,
		log:      logger.Module("feeds"),
	}
}

// Address returns the store's identity towards the verifier.
func (m *Manager) Address() common.Address { return m.address }

// SubscribeEvents delivers committed feed events to ch.
func (m *Manager) SubscribeEvents(ch chan<- Event) event.Subscription {
	return m.events.Subscribe(ch)
}

// UpdateFeed verifies one leaf and applies it.
func (m *Manager) UpdateFeed(caller common.Address, leaf *types.LeafInput, p *types.VerificationParams) (*UpdateOutcome, error) {
	var out *UpdateOutcome
	err := m.submit(caller, p, func(tx *rawdb.Txn, v Verifier) error {
		raw, err := v.VerifyTx(tx, m.address, leaf, p)
		if err != nil {
			return err
		}
		out, err = m.apply(tx, raw, p.BlockNumber)
		if err != nil {
			return err
		}
		m.notify(tx, []*UpdateOutcome{out})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateFeeds verifies a batch under one attestation and applies every
// leaf. Any failure rejects the whole batch.
func (m *Manager) UpdateFeeds(caller common.Address, leaves []types.LeafInput, p *types.VerificationParams) ([]*UpdateOutcome, error) {
	var outs []*UpdateOutcome
	err := m.submit(caller, p, func(tx *rawdb.Txn, v Verifier) error {
		raws, err := v.BatchVerifyTx(tx, m.address, leaves, p)
		if err != nil {
			return err
		}
		outs = make([]*UpdateOutcome, 0, len(raws))
		for _, raw := range raws {
			out, err := m.apply(tx, raw, p.BlockNumber)
			if err != nil {
				return err
			}
			outs = append(outs, out)
		}
		m.notify(tx, outs)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return outs, nil
}

// submit runs the publisher and pause gates, then fn, in one transaction.
func (m *Manager) submit(caller common.Address, p *types.VerificationParams, fn func(*rawdb.Txn, Verifier) error) error {
	err := m.db.Update(func(tx *rawdb.Txn) error {
		ok, err := rawdb.ReadWhitelisted(tx, caller)
		if err != nil {
			return err
		}
		if !ok {
			return errors.Wrapf(types.ErrCallerIsNotWhitelisted, "%s", caller)
		}
		paused, err := rawdb.ReadPaused(tx)
		if err != nil {
			return err
		}
		if paused {
			return types.ErrPaused
		}
		if p == nil {
			return errors.Wrap(types.ErrInvalidInput, "missing verification params")
		}
		m.mu.RLock()
		v := m.verifier
		m.mu.RUnlock()
		if v == nil {
			return errors.Wrap(types.ErrInvalidAddress, "feed verifier not set")
		}
		return fn(tx, v)
	})
	if err != nil {
		m.metrics.FeedUpdates.WithLabelValues(metrics.FeedRejected).Inc()
		m.log.Warn("Feed submission rejected", "publisher", caller, "kind", types.KindOf(err), "err", err)
	}
	return err
}

// apply runs the accept or replay decision for one verified leaf.
func (m *Manager) apply(tx *rawdb.Txn, raw []byte, block uint64) (*UpdateOutcome, error) {
	leaf, err := DecodeLeaf(raw)
	if err != nil {
		return nil, err
	}
	supported, err := rawdb.ReadSupportedFeed(tx, leaf.FeedID)
	if err != nil {
		return nil, err
	}
	if !supported {
		return nil, errors.Wrapf(types.ErrFeedNotSupported, "feed %d", leaf.FeedID)
	}
	rec, err := rawdb.ReadPriceFeed(tx, leaf.FeedID)
	if err != nil {
		return nil, err
	}
	out := &UpdateOutcome{
		FeedID:      leaf.FeedID,
		Rate:        leaf.Rate,
		Timestamp:   leaf.Timestamp,
		BlockNumber: block,
	}
	if rec.Timestamp >= leaf.Timestamp {
		out.Kind = Replayed
		out.StoredTimestamp = rec.Timestamp
		return out, nil
	}
	next := types.PriceFeedRecord{Value: leaf.Rate, Timestamp: leaf.Timestamp, SourceBlockNumber: block}
	if err := rawdb.WritePriceFeed(tx, leaf.FeedID, next); err != nil {
		return nil, err
	}
	out.Kind = Updated
	out.StoredTimestamp = leaf.Timestamp
	return out, nil
}

func (m *Manager) notify(tx *rawdb.Txn, outs []*UpdateOutcome) {
	tx.OnCommit(func() {
		for _, o := range outs {
			switch o.Kind {
			case Updated:
				m.metrics.FeedUpdates.WithLabelValues(metrics.FeedUpdated).Inc()
				m.log.Debug("Feed updated", "feed", o.FeedID, "rate", o.Rate.Dec(), "timestamp", o.Timestamp, "block", o.BlockNumber)
				m.events.Send(RateUpdated{FeedID: o.FeedID, Rate: o.Rate, Timestamp: o.Timestamp, BlockNumber: o.BlockNumber})
			case Replayed:
				m.metrics.FeedUpdates.WithLabelValues(metrics.FeedReplayed).Inc()
				m.log.Info("Feed replay ignored", "feed", o.FeedID, "timestamp", o.Timestamp, "stored", o.StoredTimestamp)
				m.events.Send(SymbolReplay{FeedID: o.FeedID, RejectedTimestamp: o.Timestamp, StoredTimestamp: o.StoredTimestamp})
			}
		}
	})
}
