package verifier

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/eth2030/feedoracle/core/types"
	"github.com/eth2030/feedoracle/crypto"
)

// VerifyLeaf proves leaf against root and returns its raw bytes unchanged.
func VerifyLeaf(leaf *types.LeafInput, root common.Hash) ([]byte, error) {
	if !crypto.VerifyProof(leaf.Proof, root, leaf.UnhashedLeaf) {
		return nil, errors.Wrapf(types.ErrInvalidProof, "leaf %d", leaf.LeafIndex)
	}
	return leaf.UnhashedLeaf, nil
}

// BatchVerifyLeaves proves every leaf against root. Any bad proof fails the
// whole batch.
func BatchVerifyLeaves(leaves []types.LeafInput, root common.Hash) ([][]byte, error) {
	if len(leaves) == 0 {
		return nil, errors.Wrap(types.ErrInvalidInput, "empty leaf batch")
	}
	out := make([][]byte, len(leaves))
	for i := range leaves {
		raw, err := VerifyLeaf(&leaves[i], root)
		if err != nil {
			return nil, err
		}
		out[i] = raw
	}
	return out, nil
}
