package crypto

import (
	"bytes"
	"errors"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrEmptyTree         = errors.New("crypto: merkle tree has no leaves")
	ErrLeafIndexOutRange = errors.New("crypto: merkle leaf index out of range")
)

// HashLeaf returns the tree leaf for raw bytes.
func HashLeaf(leaf []byte) common.Hash {
	return Keccak256Hash(leaf)
}

// HashPair hashes two nodes in ascending byte order, so a proof does not
// need to record left/right positions.
func HashPair(a, b common.Hash) common.Hash {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	return Keccak256Hash(a[:], b[:])
}

// ProcessProof folds proof into leaf and returns the candidate root.
func ProcessProof(proof []common.Hash, leaf common.Hash) common.Hash {
	node := leaf
	for _, sibling := range proof {
		node = HashPair(node, sibling)
	}
	return node
}

// VerifyProof reports whether rawLeaf is committed to by root.
func VerifyProof(proof []common.Hash, root common.Hash, rawLeaf []byte) bool {
	return ProcessProof(proof, HashLeaf(rawLeaf)) == root
}

// SortedMerkleTree is a sorted-pair keccak tree over raw leaves. An odd node
// at the end of a level is carried up unchanged.
type SortedMerkleTree struct {
	levels [][]common.Hash
}

// NewSortedMerkleTree hashes leaves in order and builds every level.
func NewSortedMerkleTree(leaves [][]byte) (*SortedMerkleTree, error) {
	if len(leaves) == 0 {
		return nil, ErrEmptyTree
	}
	level := make([]common.Hash, len(leaves))
	for i, l := range leaves {
		level[i] = HashLeaf(l)
	}
	t := &SortedMerkleTree{levels: [][]common.Hash{level}}
	for len(level) > 1 {
		next := make([]common.Hash, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 == len(level) {
				next = append(next, level[i])
				continue
			}
			next = append(next, HashPair(level[i], level[i+1]))
		}
		t.levels = append(t.levels, next)
		level = next
	}
	return t, nil
}

// Root returns the tree root.
func (t *SortedMerkleTree) Root() common.Hash {
	return t.levels[len(t.levels)-1][0]
}

// Len returns the number of leaves.
func (t *SortedMerkleTree) Len() int {
	return len(t.levels[0])
}

// Proof returns the sibling path of leaf i.
func (t *SortedMerkleTree) Proof(i int) ([]common.Hash, error) {
	if i < 0 || i >= t.Len() {
		return nil, ErrLeafIndexOutRange
	}
	var proof []common.Hash
	for _, level := range t.levels[:len(t.levels)-1] {
		sibling := i ^ 1
		if sibling < len(level) {
			proof = append(proof, level[sibling])
		}
		i /= 2
	}
	return proof, nil
}
