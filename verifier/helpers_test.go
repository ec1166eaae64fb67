package verifier

import (
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/eth2030/feedoracle/committee"
	"github.com/eth2030/feedoracle/core/rawdb"
	"github.com/eth2030/feedoracle/core/types"
	"github.com/eth2030/feedoracle/crypto"
)

var (
	testOwner   = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	testManager = common.HexToAddress("0x00000000000000000000000000000000000000b2")
)

// countingCurve wraps BN254 and can script the pairing result.
type countingCurve struct {
	*crypto.BN254
	pairings int
	script   *[2]bool
}

func (c *countingCurve) VerifySignature(digest common.Hash, msg, apk types.G1Point, apkG2 types.G2Point, sig types.G1Point) (bool, bool) {
	c.pairings++
	if c.script != nil {
		return c.script[0], c.script[1]
	}
	return c.BN254.VerifySignature(digest, msg, apk, apkG2, sig)
}

type testCommittee struct {
	keys       []*crypto.SecretKey
	validators []types.Validator
}

func newTestCommittee(t *testing.T, seed int64, powers ...uint64) *testCommittee {
	t.Helper()
	c := &testCommittee{}
	for i, p := range powers {
		sk, err := crypto.NewSecretKey(big.NewInt(seed + int64(i)))
		require.NoError(t, err)
		v := types.Validator{
			Address:     common.BigToAddress(big.NewInt(seed*100 + int64(i) + 1)),
			G1PublicKey: sk.PublicKeyG1(),
			G2PublicKey: sk.PublicKeyG2(),
		}
		v.VotingPower.SetUint64(p)
		c.keys = append(c.keys, sk)
		c.validators = append(c.validators, v)
	}
	return c
}

// sign fills the signature fields of p as signed by every validator not in
// nonSigners.
func (c *testCommittee) sign(t *testing.T, p *types.VerificationParams, nonSigners ...int) {
	t.Helper()
	bn := crypto.NewBN254()
	p.NonSignersBitmap = committee.NewNonSignersBitmap(len(c.keys), nonSigners...)
	digest := MessageDigest(p)
	var sigs []types.G1Point
	var pks []types.G2Point
	for i, sk := range c.keys {
		if committee.IsNonSigner(p.NonSignersBitmap, i) {
			continue
		}
		sig, err := bn.Sign(sk, digest)
		require.NoError(t, err)
		sigs = append(sigs, sig)
		pks = append(pks, sk.PublicKeyG2())
	}
	var err error
	p.Signature, err = crypto.AggregateG1(sigs...)
	require.NoError(t, err)
	p.ApkG2, err = crypto.AggregateG2(pks...)
	require.NoError(t, err)
}

type batch struct {
	leaves [][]byte
	tree   *crypto.SortedMerkleTree
}

func newBatch(t *testing.T, n int) *batch {
	t.Helper()
	leaves := make([][]byte, n)
	for i := range leaves {
		leaves[i] = []byte(fmt.Sprintf("leaf payload %d", i))
	}
	tree, err := crypto.NewSortedMerkleTree(leaves)
	require.NoError(t, err)
	return &batch{leaves: leaves, tree: tree}
}

func (b *batch) input(t *testing.T, i int) types.LeafInput {
	t.Helper()
	proof, err := b.tree.Proof(i)
	require.NoError(t, err)
	return types.LeafInput{LeafIndex: uint64(i), UnhashedLeaf: b.leaves[i], Proof: proof}
}

func (b *batch) params(block uint64) *types.VerificationParams {
	return &types.VerificationParams{
		EventRoot:   b.tree.Root(),
		BlockNumber: block,
		ChainID:     1,
		Aggregator:  common.HexToAddress("0xa99"),
		BlockHash:   common.BytesToHash([]byte{byte(block)}),
	}
}

type fixture struct {
	db        *rawdb.Database
	curve     *countingCurve
	verifier  *Verifier
	committee *testCommittee
}

func newFixture(t *testing.T, powers ...uint64) *fixture {
	t.Helper()
	db := rawdb.NewMemoryDatabase()
	_, _, err := rawdb.Migrate(db, rawdb.CommitteeNamespace, rawdb.CommitteeMigrations)
	require.NoError(t, err)

	curve := &countingCurve{BN254: crypto.NewBN254()}
	v := New(db, curve, nil, nil)
	ok, err := v.Initialize(testOwner)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, v.SetFeedManager(testOwner, testManager))

	c := newTestCommittee(t, 1000, powers...)
	_, err = v.SetNewValidatorSet(testOwner, c.validators)
	require.NoError(t, err)
	return &fixture{db: db, curve: curve, verifier: v, committee: c}
}
