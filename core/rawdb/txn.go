package rawdb

import (
	"sort"

	"github.com/ethereum/go-ethereum/ethdb"
)

// Txn is a write overlay on top of the committed store. Reads see the
// transaction's own writes first. Nothing reaches the store until commit.
type Txn struct {
	base    KeyValueReader
	pending map[string][]byte
	deleted map[string]struct{}
	hooks   []func()
}

func newTxn(base KeyValueReader) *Txn {
	return &Txn{
		base:    base,
		pending: make(map[string][]byte),
		deleted: make(map[string]struct{}),
	}
}

// Has implements KeyValueReader.
func (tx *Txn) Has(key []byte) (bool, error) {
	k := string(key)
	if _, ok := tx.pending[k]; ok {
		return true, nil
	}
	if _, ok := tx.deleted[k]; ok {
		return false, nil
	}
	return tx.base.Has(key)
}

// Get implements KeyValueReader.
func (tx *Txn) Get(key []byte) ([]byte, error) {
	k := string(key)
	if v, ok := tx.pending[k]; ok {
		return append([]byte{}, v...), nil
	}
	if _, ok := tx.deleted[k]; ok {
		return nil, ErrNotFound
	}
	return tx.base.Get(key)
}

// Put implements KeyValueWriter.
func (tx *Txn) Put(key, value []byte) error {
	k := string(key)
	delete(tx.deleted, k)
	tx.pending[k] = append([]byte{}, value...)
	return nil
}

// Delete implements KeyValueWriter.
func (tx *Txn) Delete(key []byte) error {
	k := string(key)
	delete(tx.pending, k)
	tx.deleted[k] = struct{}{}
	return nil
}

// OnCommit registers fn to run after a successful commit.
func (tx *Txn) OnCommit(fn func()) {
	tx.hooks = append(tx.hooks, fn)
}

// Size returns the number of staged writes and deletes.
func (tx *Txn) Size() int {
	return len(tx.pending) + len(tx.deleted)
}

func (tx *Txn) commit(kv ethdb.KeyValueStore) error {
	if tx.Size() == 0 {
		return nil
	}
	batch := kv.NewBatch()
	keys := make([]string, 0, len(tx.pending))
	for k := range tx.pending {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := batch.Put([]byte(k), tx.pending[k]); err != nil {
			return err
		}
	}
	for k := range tx.deleted {
		if err := batch.Delete([]byte(k)); err != nil {
			return err
		}
	}
	return batch.Write()
}
