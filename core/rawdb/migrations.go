package rawdb

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/eth2030/feedoracle/core/types"
)

// ErrSchemaTooNew is returned when the store was written by newer code.
var ErrSchemaTooNew = errors.New("rawdb: schema version is newer than supported")

// Namespace names an independently versioned group of tables.
type Namespace string

const (
	CommitteeNamespace Namespace = "committee"
	FeedsNamespace     Namespace = "feeds"
)

func (ns Namespace) versionKey() []byte {
	switch ns {
	case CommitteeNamespace:
		return committeeSchemaKey
	case FeedsNamespace:
		return feedsSchemaKey
	}
	return []byte("schema/" + string(ns))
}

// Migration upgrades a namespace to Version. Apply may be nil for steps that
// only stamp the version.
type Migration struct {
	Version uint64
	Name    string
	Apply   func(db KeyValueReadWriter) error
}

// CommitteeMigrations is the ordered history of the committee layout.
var CommitteeMigrations = []Migration{
	{Version: 1, Name: "empty committee and zero checkpoint", Apply: initCommittee},
}

// FeedsMigrations is the ordered history of the feed store layout.
var FeedsMigrations = []Migration{
	{Version: 1, Name: "feed records, supported set and whitelist"},
}

func initCommittee(db KeyValueReadWriter) error {
	if ok, err := db.Has(validatorSetKey); err != nil || ok {
		return err
	}
	if err := WriteValidatorSetSummary(db, &types.ValidatorSetSummary{}); err != nil {
		return err
	}
	return WriteCheckpoint(db, types.Checkpoint{})
}

// ReadSchemaVersion returns the stored version of ns, zero for a fresh store.
func ReadSchemaVersion(db KeyValueReader, ns Namespace) (uint64, error) {
	key := ns.versionKey()
	ok, err := db.Has(key)
	if err != nil || !ok {
		return 0, err
	}
	data, err := db.Get(key)
	if err != nil {
		return 0, err
	}
	if len(data) != 8 {
		return 0, ErrCorrupted
	}
	return binary.BigEndian.Uint64(data), nil
}

// WriteSchemaVersion stamps ns with version.
func WriteSchemaVersion(db KeyValueWriter, ns Namespace, version uint64) error {
	return db.Put(ns.versionKey(), encodeUint64(version))
}

// Migrate applies every step newer than the stored version of ns in one
// transaction and returns the version before and after.
func Migrate(db *Database, ns Namespace, steps []Migration) (from, to uint64, err error) {
	err = db.Update(func(tx *Txn) error {
		current, err := ReadSchemaVersion(tx, ns)
		if err != nil {
			return err
		}
		from, to = current, current
		var latest uint64
		if len(steps) > 0 {
			latest = steps[len(steps)-1].Version
		}
		if current > latest {
			return fmt.Errorf("%w: %s at %d, code knows %d", ErrSchemaTooNew, ns, current, latest)
		}
		for _, step := range steps {
			if step.Version <= current {
				continue
			}
			if step.Apply != nil {
				if err := step.Apply(tx); err != nil {
					return fmt.Errorf("rawdb: %s migration %d (%s): %w", ns, step.Version, step.Name, err)
				}
			}
			to = step.Version
		}
		if to == current {
			return nil
		}
		return WriteSchemaVersion(tx, ns, to)
	})
	return from, to, err
}
