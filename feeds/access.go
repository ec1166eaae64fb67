package feeds

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/eth2030/feedoracle/core/rawdb"
	"github.com/eth2030/feedoracle/core/types"
	"github.com/eth2030/feedoracle/metrics"
)

// Initialize sets the owner and feed deployer on a fresh store. It reports
// false and changes nothing if an owner already exists.
func (m *Manager) Initialize(owner, deployer common.Address) (bool, error) {
	if owner == (common.Address{}) {
		return false, errors.Wrap(types.ErrInvalidAddress, "owner")
	}
	var done bool
	err := m.db.Update(func(tx *rawdb.Txn) error {
		cur, err := rawdb.ReadFeedsOwner(tx)
		if err != nil || cur != (common.Address{}) {
			return err
		}
		if err := rawdb.WriteFeedsOwner(tx, owner); err != nil {
			return err
		}
		if deployer != (common.Address{}) {
			if err := rawdb.WriteFeedDeployer(tx, deployer); err != nil {
				return err
			}
		}
		done = true
		return nil
	})
	if done && err == nil {
		m.log.Info("Feed store initialized", "owner", owner, "deployer", deployer)
	}
	return done && err == nil, err
}

// RefreshMetrics publishes the pause gauge from the store.
func (m *Manager) RefreshMetrics() error {
	paused, err := m.Paused()
	if err != nil {
		return err
	}
	metrics.SetBool(m.metrics.Paused, paused)
	return nil
}

func (m *Manager) checkOwner(r rawdb.KeyValueReader, caller common.Address) error {
	owner, err := rawdb.ReadFeedsOwner(r)
	if err != nil {
		return err
	}
	if caller != owner || owner == (common.Address{}) {
		return errors.Wrapf(types.ErrCallerIsNotOwner, "%s", caller)
	}
	return nil
}

// admin runs fn as the owner in one transaction.
func (m *Manager) admin(caller common.Address, fn func(tx *rawdb.Txn) error) error {
	return m.db.Update(func(tx *rawdb.Txn) error {
		if err := m.checkOwner(tx, caller); err != nil {
			return err
		}
		return fn(tx)
	})
}

// SetSupportedFeeds sets the support flag of every id. Owner only.
func (m *Manager) SetSupportedFeeds(caller common.Address, ids []uint64, supported []bool) error {
	return m.admin(caller, func(tx *rawdb.Txn) error {
		if len(ids) != len(supported) {
			return errors.Wrapf(types.ErrInvalidInput, "%d ids, %d flags", len(ids), len(supported))
		}
		return m.writeSupported(tx, ids, supported)
	})
}

// AddSupportedFeeds marks ids as supported. Feed deployer only.
func (m *Manager) AddSupportedFeeds(caller common.Address, ids []uint64) error {
	return m.db.Update(func(tx *rawdb.Txn) error {
		deployer, err := rawdb.ReadFeedDeployer(tx)
		if err != nil {
			return err
		}
		if caller != deployer || deployer == (common.Address{}) {
			return errors.Wrapf(types.ErrCallerIsNotFeedDeployer, "%s", caller)
		}
		flags := make([]bool, len(ids))
		for i := range flags {
			flags[i] = true
		}
		return m.writeSupported(tx, ids, flags)
	})
}

func (m *Manager) writeSupported(tx *rawdb.Txn, ids []uint64, supported []bool) error {
	for i, id := range ids {
		if err := rawdb.WriteSupportedFeed(tx, id, supported[i]); err != nil {
			return err
		}
	}
	tx.OnCommit(func() {
		for i, id := range ids {
			m.events.Send(SupportedFeedUpdated{FeedID: id, Supported: supported[i]})
		}
		m.log.Info("Supported feeds updated", "ids", ids, "supported", supported)
	})
	return nil
}

// WhitelistPublishers sets the whitelist flag of every address. Owner only.
func (m *Manager) WhitelistPublishers(caller common.Address, publishers []common.Address, allowed []bool) error {
	return m.admin(caller, func(tx *rawdb.Txn) error {
		if len(publishers) != len(allowed) {
			return errors.Wrapf(types.ErrInvalidInput, "%d publishers, %d flags", len(publishers), len(allowed))
		}
		for i, pub := range publishers {
			if pub == (common.Address{}) {
				return errors.Wrapf(types.ErrInvalidAddress, "publisher %d", i)
			}
			if err := rawdb.WriteWhitelisted(tx, pub, allowed[i]); err != nil {
				return err
			}
		}
		tx.OnCommit(func() {
			for i, pub := range publishers {
				m.log.Info("Publisher whitelist changed", "publisher", pub, "allowed", allowed[i])
				m.events.Send(PublisherWhitelisted{Publisher: pub, Allowed: allowed[i]})
			}
		})
		return nil
	})
}

// ResetFeedTimestamps zeroes the stored timestamp of supported feeds so an
// older update can be accepted again. Value and block are kept. Owner only.
func (m *Manager) ResetFeedTimestamps(caller common.Address, ids []uint64) error {
	return m.admin(caller, func(tx *rawdb.Txn) error {
		for _, id := range ids {
			ok, err := rawdb.ReadSupportedFeed(tx, id)
			if err != nil {
				return err
			}
			if !ok {
				return errors.Wrapf(types.ErrFeedNotSupported, "feed %d", id)
			}
			rec, err := rawdb.ReadPriceFeed(tx, id)
			if err != nil {
				return err
			}
			rec.Timestamp = 0
			if err := rawdb.WritePriceFeed(tx, id, rec); err != nil {
				return err
			}
		}
		tx.OnCommit(func() {
			for _, id := range ids {
				m.events.Send(FeedTimestampReset{FeedID: id})
			}
			m.log.Info("Feed timestamps reset", "ids", ids)
		})
		return nil
	})
}

// SetFeedVerifier replaces the verification facade. Owner only.
func (m *Manager) SetFeedVerifier(caller common.Address, v Verifier) error {
	return m.admin(caller, func(tx *rawdb.Txn) error {
		if v == nil {
			return errors.Wrap(types.ErrInvalidAddress, "feed verifier")
		}
		tx.OnCommit(func() {
			m.mu.Lock()
			m.verifier = v
			m.mu.Unlock()
			m.log.Info("Feed verifier set")
			m.events.Send(FeedVerifierSet{})
		})
		return nil
	})
}

// SetPauserRegistry replaces the pauser authority. Owner only.
func (m *Manager) SetPauserRegistry(caller common.Address, r PauserRegistry) error {
	return m.admin(caller, func(tx *rawdb.Txn) error {
		if r == nil {
			return errors.Wrap(types.ErrInvalidAddress, "pauser registry")
		}
		tx.OnCommit(func() {
			m.mu.Lock()
			m.pauser = r
			m.mu.Unlock()
			m.log.Info("Pauser registry set")
			m.events.Send(PauserRegistrySet{})
		})
		return nil
	})
}

// SetFeedDeployer changes who may add supported feeds. Owner only.
func (m *Manager) SetFeedDeployer(caller, deployer common.Address) error {
	return m.admin(caller, func(tx *rawdb.Txn) error {
		if deployer == (common.Address{}) {
			return errors.Wrap(types.ErrInvalidAddress, "feed deployer")
		}
		prev, err := rawdb.ReadFeedDeployer(tx)
		if err != nil {
			return err
		}
		if err := rawdb.WriteFeedDeployer(tx, deployer); err != nil {
			return err
		}
		tx.OnCommit(func() {
			m.log.Info("Feed deployer set", "previous", prev, "deployer", deployer)
			m.events.Send(FeedDeployerSet{Previous: prev, Current: deployer})
		})
		return nil
	})
}

// TransferOwnership hands the store to newOwner. Owner only.
func (m *Manager) TransferOwnership(caller, newOwner common.Address) error {
	return m.admin(caller, func(tx *rawdb.Txn) error {
		if newOwner == (common.Address{}) {
			return errors.Wrap(types.ErrInvalidAddress, "new owner")
		}
		if err := rawdb.WriteFeedsOwner(tx, newOwner); err != nil {
			return err
		}
		tx.OnCommit(func() {
			m.log.Info("Feed store ownership transferred", "previous", caller, "owner", newOwner)
			m.events.Send(OwnershipTransferred{Previous: caller, Current: newOwner})
		})
		return nil
	})
}

// Pause stops submissions. Pausers only; fails if already paused.
func (m *Manager) Pause(caller common.Address) error {
	m.mu.RLock()
	r := m.pauser
	m.mu.RUnlock()
	if r == nil || !r.IsPauser(caller) {
		return errors.Wrapf(types.ErrCallerIsNotPauser, "%s", caller)
	}
	return m.setPaused(caller, true)
}

// Unpause resumes submissions. The designated unpauser only; fails if not
// paused.
func (m *Manager) Unpause(caller common.Address) error {
	m.mu.RLock()
	r := m.pauser
	m.mu.RUnlock()
	if r == nil || r.Unpauser() == (common.Address{}) || r.Unpauser() != caller {
		return errors.Wrapf(types.ErrCallerIsNotUnpauser, "%s", caller)
	}
	return m.setPaused(caller, false)
}

func (m *Manager) setPaused(caller common.Address, paused bool) error {
	return m.db.Update(func(tx *rawdb.Txn) error {
		cur, err := rawdb.ReadPaused(tx)
		if err != nil {
			return err
		}
		if cur == paused {
			if paused {
				return types.ErrPaused
			}
			return errors.Wrap(types.ErrInvalidInput, "not paused")
		}
		if err := rawdb.WritePaused(tx, paused); err != nil {
			return err
		}
		tx.OnCommit(func() {
			metrics.SetBool(m.metrics.Paused, paused)
			if paused {
				m.log.Info("Feed submissions paused", "by", caller)
				m.events.Send(Paused{Account: caller})
				return
			}
			m.log.Info("Feed submissions unpaused", "by", caller)
			m.events.Send(Unpaused{Account: caller})
		})
		return nil
	})
}

// GetLatestPriceFeed returns the stored record of a supported feed.
func (m *Manager) GetLatestPriceFeed(id uint64) (types.PriceFeedRecord, error) {
	var rec types.PriceFeedRecord
	err := m.db.View(func(r rawdb.KeyValueReader) error {
		var err error
		rec, err = readSupportedRecord(r, id)
		return err
	})
	return rec, err
}

// GetLatestPriceFeeds returns the records of several supported feeds.
func (m *Manager) GetLatestPriceFeeds(ids []uint64) ([]types.PriceFeedRecord, error) {
	out := make([]types.PriceFeedRecord, len(ids))
	err := m.db.View(func(r rawdb.KeyValueReader) error {
		for i, id := range ids {
			rec, err := readSupportedRecord(r, id)
			if err != nil {
				return err
			}
			out[i] = rec
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func readSupportedRecord(r rawdb.KeyValueReader, id uint64) (types.PriceFeedRecord, error) {
	ok, err := rawdb.ReadSupportedFeed(r, id)
	if err != nil {
		return types.PriceFeedRecord{}, err
	}
	if !ok {
		return types.PriceFeedRecord{}, errors.Wrapf(types.ErrFeedNotSupported, "feed %d", id)
	}
	return rawdb.ReadPriceFeed(r, id)
}

// IsSupportedFeed reports whether id is on the allowlist.
func (m *Manager) IsSupportedFeed(id uint64) (bool, error) {
	var ok bool
	err := m.db.View(func(r rawdb.KeyValueReader) error {
		var err error
		ok, err = rawdb.ReadSupportedFeed(r, id)
		return err
	})
	return ok, err
}

// IsWhitelistedPublisher reports whether addr may submit.
func (m *Manager) IsWhitelistedPublisher(addr common.Address) (bool, error) {
	var ok bool
	err := m.db.View(func(r rawdb.KeyValueReader) error {
		var err error
		ok, err = rawdb.ReadWhitelisted(r, addr)
		return err
	})
	return ok, err
}

// Paused reports whether submissions are paused.
func (m *Manager) Paused() (bool, error) {
	var ok bool
	err := m.db.View(func(r rawdb.KeyValueReader) error {
		var err error
		ok, err = rawdb.ReadPaused(r)
		return err
	})
	return ok, err
}

// Owner returns the store owner.
func (m *Manager) Owner() (common.Address, error) {
	return m.readAddress(rawdb.ReadFeedsOwner)
}

// FeedDeployer returns the address allowed to add supported feeds.
func (m *Manager) FeedDeployer() (common.Address, error) {
	return m.readAddress(rawdb.ReadFeedDeployer)
}

// FeedVerifier returns the current verification facade.
func (m *Manager) FeedVerifier() Verifier {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.verifier
}

// PauserRegistry returns the current pauser authority.
func (m *Manager) PauserRegistry() PauserRegistry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pauser
}

func (m *Manager) readAddress(read func(rawdb.KeyValueReader) (common.Address, error)) (common.Address, error) {
	var addr common.Address
	err := m.db.View(func(r rawdb.KeyValueReader) error {
		var err error
		addr, err = read(r)
		return err
	})
	return addr, err
}
