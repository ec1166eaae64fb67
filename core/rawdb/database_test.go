package rawdb

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUpdateCommitsAtomically(t *testing.T) {
	db := NewMemoryDatabase()
	var fired int
	err := db.Update(func(tx *Txn) error {
		require.NoError(t, tx.Put([]byte("a"), []byte("1")))
		require.NoError(t, tx.Put([]byte("b"), []byte("2")))
		tx.OnCommit(func() { fired++ })
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, fired)

	err = db.View(func(r KeyValueReader) error {
		v, err := r.Get([]byte("a"))
		require.NoError(t, err)
		require.Equal(t, []byte("1"), v)
		ok, err := r.Has([]byte("b"))
		require.NoError(t, err)
		require.True(t, ok)
		return nil
	})
	require.NoError(t, err)
}

func TestUpdateRollsBackOnError(t *testing.T) {
	db := NewMemoryDatabase()
	require.NoError(t, db.Update(func(tx *Txn) error {
		return tx.Put([]byte("keep"), []byte("x"))
	}))

	boom := errors.New("boom")
	var fired bool
	err := db.Update(func(tx *Txn) error {
		require.NoError(t, tx.Put([]byte("lost"), []byte("y")))
		require.NoError(t, tx.Delete([]byte("keep")))
		tx.OnCommit(func() { fired = true })
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.False(t, fired)

	require.NoError(t, db.View(func(r KeyValueReader) error {
		ok, _ := r.Has([]byte("lost"))
		require.False(t, ok)
		ok, _ = r.Has([]byte("keep"))
		require.True(t, ok)
		return nil
	}))
}

func TestTxnOverlayReadsOwnWrites(t *testing.T) {
	db := NewMemoryDatabase()
	require.NoError(t, db.Update(func(tx *Txn) error {
		return tx.Put([]byte("k"), []byte("old"))
	}))

	require.NoError(t, db.Update(func(tx *Txn) error {
		require.NoError(t, tx.Put([]byte("k"), []byte("new")))
		v, err := tx.Get([]byte("k"))
		require.NoError(t, err)
		require.Equal(t, []byte("new"), v)

		require.NoError(t, tx.Delete([]byte("k")))
		ok, err := tx.Has([]byte("k"))
		require.NoError(t, err)
		require.False(t, ok)
		_, err = tx.Get([]byte("k"))
		require.ErrorIs(t, err, ErrNotFound)

		require.NoError(t, tx.Put([]byte("k"), []byte("again")))
		require.Equal(t, 1, tx.Size())
		return nil
	}))

	require.NoError(t, db.View(func(r KeyValueReader) error {
		v, err := r.Get([]byte("k"))
		require.NoError(t, err)
		require.Equal(t, []byte("again"), v)
		return nil
	}))
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open("rocks", t.TempDir(), 16, 16, false)
	require.ErrorIs(t, err, ErrUnknownBackend)

	db, err := Open("leveldb", t.TempDir(), 16, 16, false)
	require.NoError(t, err)
	require.NoError(t, db.Close())
}
