// Package rawdb provides the persisted state layout of the oracle and the
// transaction discipline around it.
//
// All state lives in a single go-ethereum key-value store. Each data type
// uses a distinct key prefix, following go-ethereum's rawdb schema. Mutating
// operations run inside Database.Update, which serializes writers, stages
// every write in an overlay and commits the overlay as one batch. A failing
// operation leaves the store untouched.
package rawdb

import (
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/ethdb/leveldb"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
)

var (
	ErrNotFound       = errors.New("rawdb: not found")
	ErrCorrupted      = errors.New("rawdb: corrupted entry")
	ErrUnknownBackend = errors.New("rawdb: unknown database backend")
)

// KeyValueReader wraps the Has and Get methods of a backing data store.
type KeyValueReader interface {
	Has(key []byte) (bool, error)
	Get(key []byte) ([]byte, error)
}

// KeyValueWriter wraps the Put and Delete methods of a backing data store.
type KeyValueWriter interface {
	Put(key, value []byte) error
	Delete(key []byte) error
}

// KeyValueReadWriter is what accessors that both read and write need.
type KeyValueReadWriter interface {
	KeyValueReader
	KeyValueWriter
}

// Database serializes access to the underlying store.
type Database struct {
	mu sync.RWMutex
	kv ethdb.KeyValueStore
}

// NewDatabase wraps an existing go-ethereum key-value store.
func NewDatabase(kv ethdb.KeyValueStore) *Database {
	return &Database{kv: kv}
}

// NewMemoryDatabase returns a Database backed by go-ethereum's memorydb.
func NewMemoryDatabase() *Database {
	return NewDatabase(memorydb.New())
}

// Open opens a persistent store. Supported backends are "leveldb" and
// "memory"; the path is ignored for the latter.
func Open(backend, path string, cache, handles int, readonly bool) (*Database, error) {
	switch backend {
	case "memory":
		return NewMemoryDatabase(), nil
	case "leveldb":
		kv, err := leveldb.New(path, cache, handles, "feedoracle/db/", readonly)
		if err != nil {
			return nil, err
		}
		return NewDatabase(kv), nil
	default:
		return nil, ErrUnknownBackend
	}
}

// Update runs fn inside a write transaction. If fn returns nil the staged
// writes are committed atomically and commit hooks run afterwards, outside
// the lock. Otherwise nothing is written and hooks are dropped.
func (db *Database) Update(fn func(tx *Txn) error) error {
	db.mu.Lock()
	tx := newTxn(db.kv)
	err := fn(tx)
	if err == nil {
		err = tx.commit(db.kv)
	}
	db.mu.Unlock()
	if err != nil {
		return err
	}
	for _, hook := range tx.hooks {
		hook()
	}
	return nil
}

// View runs fn against the committed state under a shared lock.
func (db *Database) View(fn func(r KeyValueReader) error) error {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return fn(db.kv)
}

// Close releases the underlying store.
func (db *Database) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.kv.Close()
}
