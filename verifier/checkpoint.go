package verifier

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/eth2030/feedoracle/core/rawdb"
	"github.com/eth2030/feedoracle/core/types"
)

// ConsultCheckpoint reports whether root was already accepted. The zero
// root never hits.
func ConsultCheckpoint(db rawdb.KeyValueReader, root common.Hash) (bool, error) {
	if root == (common.Hash{}) {
		return false, nil
	}
	cp, err := rawdb.ReadCheckpoint(db)
	if err != nil {
		return false, err
	}
	return cp.EventRoot == root, nil
}

// AdvanceCheckpoint records (root, blockNumber) if blockNumber is past the
// stored block. The stored pair never regresses.
func AdvanceCheckpoint(db rawdb.KeyValueReadWriter, root common.Hash, blockNumber uint64) (types.Checkpoint, bool, error) {
	cp, err := rawdb.ReadCheckpoint(db)
	if err != nil {
		return cp, false, err
	}
	if blockNumber <= cp.BlockNumber {
		return cp, false, nil
	}
	next := types.Checkpoint{BlockNumber: blockNumber, EventRoot: root}
	if err := rawdb.WriteCheckpoint(db, next); err != nil {
		return cp, false, err
	}
	return next, true, nil
}
