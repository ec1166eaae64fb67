package feeds

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/eth2030/feedoracle/core/rawdb"
	"github.com/eth2030/feedoracle/core/types"
)

var (
	owner     = common.HexToAddress("0x0000000000000000000000000000000000000a01")
	deployer  = common.HexToAddress("0x0000000000000000000000000000000000000a02")
	publisher = common.HexToAddress("0x0000000000000000000000000000000000000a03")
	pauser    = common.HexToAddress("0x0000000000000000000000000000000000000a04")
	unpauser  = common.HexToAddress("0x0000000000000000000000000000000000000a05")
	self      = common.HexToAddress("0x0000000000000000000000000000000000000a06")
	stranger  = common.HexToAddress("0x0000000000000000000000000000000000000bad")
)

// stubVerifier accepts every leaf as is.
type stubVerifier struct {
	err   error
	calls int
}

func (s *stubVerifier) VerifyTx(_ *rawdb.Txn, caller common.Address, leaf *types.LeafInput, _ *types.VerificationParams) ([]byte, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return leaf.UnhashedLeaf, nil
}

func (s *stubVerifier) BatchVerifyTx(_ *rawdb.Txn, caller common.Address, leaves []types.LeafInput, _ *types.VerificationParams) ([][]byte, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if len(leaves) == 0 {
		return nil, types.ErrInvalidInput
	}
	out := make([][]byte, len(leaves))
	for i := range leaves {
		out[i] = leaves[i].UnhashedLeaf
	}
	return out, nil
}

func newTestManager(t *testing.T, v Verifier) *Manager {
	t.Helper()
	db := rawdb.NewMemoryDatabase()
	_, _, err := rawdb.Migrate(db, rawdb.FeedsNamespace, rawdb.FeedsMigrations)
	require.NoError(t, err)

	m := NewManager(db, self, v, NewStaticPauserRegistry([]common.Address{pauser}, unpauser), nil, nil)
	ok, err := m.Initialize(owner, deployer)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, m.WhitelistPublishers(owner, []common.Address{publisher}, []bool{true}))
	require.NoError(t, m.SetSupportedFeeds(owner, []uint64{0}, []bool{true}))
	return m
}

func e18(n int64) uint256.Int {
	v := new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
	var out uint256.Int
	out.SetFromBig(v)
	return out
}

func leafInput(t *testing.T, id uint64, rate uint256.Int, ts uint64) types.LeafInput {
	t.Helper()
	raw, err := EncodeLeaf(&types.PriceFeedLeaf{FeedID: id, Rate: rate, Timestamp: ts})
	require.NoError(t, err)
	return types.LeafInput{UnhashedLeaf: raw}
}

func params(block uint64) *types.VerificationParams {
	return &types.VerificationParams{EventRoot: common.HexToHash("0x01"), BlockNumber: block}
}

func recv(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("no event")
		return nil
	}
}

func TestUpdateReplaySequence(t *testing.T) {
	m := newTestManager(t, &stubVerifier{})
	ch := make(chan Event, 8)
	sub := m.SubscribeEvents(ch)
	defer sub.Unsubscribe()

	const block = 42
	leaf := leafInput(t, 0, e18(1200), 1000)
	out, err := m.UpdateFeed(publisher, &leaf, params(block))
	require.NoError(t, err)
	require.Equal(t, Updated, out.Kind)

	rec, err := m.GetLatestPriceFeed(0)
	require.NoError(t, err)
	require.Equal(t, types.PriceFeedRecord{Value: e18(1200), Timestamp: 1000, SourceBlockNumber: block}, rec)
	require.Equal(t, RateUpdated{FeedID: 0, Rate: e18(1200), Timestamp: 1000, BlockNumber: block}, recv(t, ch))

	leaf = leafInput(t, 0, e18(2400), 1001)
	_, err = m.UpdateFeed(publisher, &leaf, params(block))
	require.NoError(t, err)
	rec, err = m.GetLatestPriceFeed(0)
	require.NoError(t, err)
	require.Equal(t, types.PriceFeedRecord{Value: e18(2400), Timestamp: 1001, SourceBlockNumber: block}, rec)
	recv(t, ch)

	leaf = leafInput(t, 0, e18(1), 1001)
	out, err = m.UpdateFeed(publisher, &leaf, params(block+1))
	require.NoError(t, err)
	require.Equal(t, Replayed, out.Kind)
	require.Equal(t, uint64(1001), out.StoredTimestamp)

	rec, err = m.GetLatestPriceFeed(0)
	require.NoError(t, err)
	require.Equal(t, types.PriceFeedRecord{Value: e18(2400), Timestamp: 1001, SourceBlockNumber: block}, rec)
	require.Equal(t, SymbolReplay{FeedID: 0, RejectedTimestamp: 1001, StoredTimestamp: 1001}, recv(t, ch))

	// Older than stored is a replay as well.
	leaf = leafInput(t, 0, e18(1), 999)
	out, err = m.UpdateFeed(publisher, &leaf, params(block))
	require.NoError(t, err)
	require.Equal(t, Replayed, out.Kind)
}

func TestResetFeedTimestamps(t *testing.T) {
	m := newTestManager(t, &stubVerifier{})
	leaf := leafInput(t, 0, e18(2400), 1001)
	_, err := m.UpdateFeed(publisher, &leaf, params(7))
	require.NoError(t, err)

	require.ErrorIs(t, m.ResetFeedTimestamps(stranger, []uint64{0}), types.ErrCallerIsNotOwner)
	require.ErrorIs(t, m.ResetFeedTimestamps(owner, []uint64{0, 5}), types.ErrFeedNotSupported)
	// The failing id rolled back the whole call.
	rec, err := m.GetLatestPriceFeed(0)
	require.NoError(t, err)
	require.Equal(t, uint64(1001), rec.Timestamp)

	require.NoError(t, m.ResetFeedTimestamps(owner, []uint64{0}))
	rec, err = m.GetLatestPriceFeed(0)
	require.NoError(t, err)
	require.Equal(t, types.PriceFeedRecord{Value: e18(2400), Timestamp: 0, SourceBlockNumber: 7}, rec)

	// The previously replayed timestamp is accepted again.
	leaf = leafInput(t, 0, e18(3000), 1001)
	out, err := m.UpdateFeed(publisher, &leaf, params(8))
	require.NoError(t, err)
	require.Equal(t, Updated, out.Kind)
	rec, err = m.GetLatestPriceFeed(0)
	require.NoError(t, err)
	require.Equal(t, types.PriceFeedRecord{Value: e18(3000), Timestamp: 1001, SourceBlockNumber: 8}, rec)
}

func TestUnsupportedFeed(t *testing.T) {
	m := newTestManager(t, &stubVerifier{})
	leaf := leafInput(t, 9, e18(1), 1)
	_, err := m.UpdateFeed(publisher, &leaf, params(1))
	require.ErrorIs(t, err, types.ErrFeedNotSupported)
	require.Equal(t, types.KindState, types.KindOf(err))

	_, err = m.GetLatestPriceFeed(9)
	require.ErrorIs(t, err, types.ErrFeedNotSupported)
	_, err = m.GetLatestPriceFeeds([]uint64{0, 9})
	require.ErrorIs(t, err, types.ErrFeedNotSupported)

	// A feed id wider than 64 bits can never be supported.
	raw, err := leafArgs.Pack(new(big.Int).Lsh(big.NewInt(1), 64), big.NewInt(1), big.NewInt(1))
	require.NoError(t, err)
	wide := types.LeafInput{UnhashedLeaf: raw}
	_, err = m.UpdateFeed(publisher, &wide, params(1))
	require.ErrorIs(t, err, types.ErrFeedNotSupported)
}

func TestNotWhitelisted(t *testing.T) {
	v := &stubVerifier{}
	m := newTestManager(t, v)
	leaf := leafInput(t, 0, e18(1), 1)
	_, err := m.UpdateFeed(stranger, &leaf, params(1))
	require.ErrorIs(t, err, types.ErrCallerIsNotWhitelisted)
	_, err = m.UpdateFeeds(stranger, []types.LeafInput{leaf}, params(1))
	require.ErrorIs(t, err, types.ErrCallerIsNotWhitelisted)
	require.Zero(t, v.calls)

	require.NoError(t, m.WhitelistPublishers(owner, []common.Address{publisher}, []bool{false}))
	_, err = m.UpdateFeed(publisher, &leaf, params(1))
	require.ErrorIs(t, err, types.ErrCallerIsNotWhitelisted)
}

func TestVerifierFailureStoresNothing(t *testing.T) {
	v := &stubVerifier{err: types.ErrInsufficientVotingPower}
	m := newTestManager(t, v)
	leaf := leafInput(t, 0, e18(1), 1)
	_, err := m.UpdateFeed(publisher, &leaf, params(1))
	require.ErrorIs(t, err, types.ErrInsufficientVotingPower)
	rec, err := m.GetLatestPriceFeed(0)
	require.NoError(t, err)
	require.Zero(t, rec.Timestamp)
}

func TestPauseGates(t *testing.T) {
	v := &stubVerifier{}
	m := newTestManager(t, v)

	require.ErrorIs(t, m.Pause(stranger), types.ErrCallerIsNotPauser)
	require.ErrorIs(t, m.Pause(unpauser), types.ErrCallerIsNotPauser)
	require.NoError(t, m.Pause(pauser))
	require.ErrorIs(t, m.Pause(pauser), types.ErrPaused)
	paused, err := m.Paused()
	require.NoError(t, err)
	require.True(t, paused)

	leaf := leafInput(t, 0, e18(1), 1)
	_, err = m.UpdateFeed(publisher, &leaf, params(1))
	require.ErrorIs(t, err, types.ErrPaused)
	// Whitelist is checked first.
	_, err = m.UpdateFeed(stranger, &leaf, params(1))
	require.ErrorIs(t, err, types.ErrCallerIsNotWhitelisted)
	require.Zero(t, v.calls)

	require.ErrorIs(t, m.Unpause(pauser), types.ErrCallerIsNotUnpauser)
	require.NoError(t, m.Unpause(unpauser))
	require.ErrorIs(t, m.Unpause(unpauser), types.ErrInvalidInput)

	_, err = m.UpdateFeed(publisher, &leaf, params(1))
	require.NoError(t, err)
}

func TestSetPauserRegistry(t *testing.T) {
	m := newTestManager(t, &stubVerifier{})
	require.ErrorIs(t, m.SetPauserRegistry(stranger, NewStaticPauserRegistry(nil, stranger)), types.ErrCallerIsNotOwner)
	require.ErrorIs(t, m.SetPauserRegistry(owner, nil), types.ErrInvalidAddress)

	r := NewStaticPauserRegistry([]common.Address{stranger}, stranger)
	require.NoError(t, m.SetPauserRegistry(owner, r))
	require.Equal(t, r, m.PauserRegistry())
	require.ErrorIs(t, m.Pause(pauser), types.ErrCallerIsNotPauser)
	require.NoError(t, m.Pause(stranger))
	require.NoError(t, m.Unpause(stranger))
}

func TestSetFeedVerifier(t *testing.T) {
	first, second := &stubVerifier{}, &stubVerifier{}
	m := newTestManager(t, first)
	require.ErrorIs(t, m.SetFeedVerifier(stranger, second), types.ErrCallerIsNotOwner)
	require.NoError(t, m.SetFeedVerifier(owner, second))
	require.Equal(t, second, m.FeedVerifier())

	leaf := leafInput(t, 0, e18(1), 1)
	_, err := m.UpdateFeed(publisher, &leaf, params(1))
	require.NoError(t, err)
	require.Zero(t, first.calls)
	require.Equal(t, 1, second.calls)
}

func TestSupportedFeedAdmin(t *testing.T) {
	m := newTestManager(t, &stubVerifier{})
	require.ErrorIs(t, m.SetSupportedFeeds(owner, []uint64{1, 2}, []bool{true}), types.ErrInvalidInput)
	require.ErrorIs(t, m.SetSupportedFeeds(stranger, []uint64{1}, []bool{true}), types.ErrCallerIsNotOwner)

	require.ErrorIs(t, m.AddSupportedFeeds(owner, []uint64{1}), types.ErrCallerIsNotFeedDeployer)
	require.NoError(t, m.AddSupportedFeeds(deployer, []uint64{1, 2}))
	for _, id := range []uint64{0, 1, 2} {
		ok, err := m.IsSupportedFeed(id)
		require.NoError(t, err)
		require.True(t, ok, "feed %d", id)
	}
	require.NoError(t, m.SetSupportedFeeds(owner, []uint64{1}, []bool{false}))
	ok, err := m.IsSupportedFeed(1)
	require.NoError(t, err)
	require.False(t, ok)

	next := common.HexToAddress("0xd2")
	require.ErrorIs(t, m.SetFeedDeployer(stranger, next), types.ErrCallerIsNotOwner)
	require.ErrorIs(t, m.SetFeedDeployer(owner, common.Address{}), types.ErrInvalidAddress)
	require.NoError(t, m.SetFeedDeployer(owner, next))
	got, err := m.FeedDeployer()
	require.NoError(t, err)
	require.Equal(t, next, got)
	require.ErrorIs(t, m.AddSupportedFeeds(deployer, []uint64{3}), types.ErrCallerIsNotFeedDeployer)
}

func TestWhitelistPublishers(t *testing.T) {
	m := newTestManager(t, &stubVerifier{})
	a := common.HexToAddress("0xa")
	require.ErrorIs(t, m.WhitelistPublishers(owner, []common.Address{a}, nil), types.ErrInvalidInput)
	require.ErrorIs(t, m.WhitelistPublishers(stranger, []common.Address{a}, []bool{true}), types.ErrCallerIsNotOwner)
	require.ErrorIs(t, m.WhitelistPublishers(owner, []common.Address{a, {}}, []bool{true, true}), types.ErrInvalidAddress)

	// Rolled back: a was not whitelisted either.
	ok, err := m.IsWhitelistedPublisher(a)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestUpdateFeedsIsAtomic(t *testing.T) {
	m := newTestManager(t, &stubVerifier{})
	require.NoError(t, m.AddSupportedFeeds(deployer, []uint64{1}))

	batch := []types.LeafInput{
		leafInput(t, 0, e18(5), 10),
		leafInput(t, 7, e18(5), 10),
	}
	_, err := m.UpdateFeeds(publisher, batch, params(3))
	require.ErrorIs(t, err, types.ErrFeedNotSupported)
	rec, err := m.GetLatestPriceFeed(0)
	require.NoError(t, err)
	require.Zero(t, rec.Timestamp)

	_, err = m.UpdateFeeds(publisher, nil, params(3))
	require.ErrorIs(t, err, types.ErrInvalidInput)

	batch = []types.LeafInput{
		leafInput(t, 0, e18(5), 10),
		leafInput(t, 1, e18(6), 11),
		leafInput(t, 0, e18(7), 10), // same feed, same timestamp
	}
	outs, err := m.UpdateFeeds(publisher, batch, params(3))
	require.NoError(t, err)
	require.Len(t, outs, 3)
	require.Equal(t, Updated, outs[0].Kind)
	require.Equal(t, Updated, outs[1].Kind)
	require.Equal(t, Replayed, outs[2].Kind)

	recs, err := m.GetLatestPriceFeeds([]uint64{0, 1})
	require.NoError(t, err)
	require.Equal(t, e18(5), recs[0].Value)
	require.Equal(t, e18(6), recs[1].Value)
}

func TestOwnership(t *testing.T) {
	m := newTestManager(t, &stubVerifier{})
	again, err := m.Initialize(stranger, stranger)
	require.NoError(t, err)
	require.False(t, again)

	require.ErrorIs(t, m.TransferOwnership(stranger, stranger), types.ErrCallerIsNotOwner)
	require.ErrorIs(t, m.TransferOwnership(owner, common.Address{}), types.ErrInvalidAddress)
	require.NoError(t, m.TransferOwnership(owner, stranger))
	got, err := m.Owner()
	require.NoError(t, err)
	require.Equal(t, stranger, got)
	require.ErrorIs(t, m.SetSupportedFeeds(owner, nil, nil), types.ErrCallerIsNotOwner)
}

func TestLeafCodec(t *testing.T) {
	in := &types.PriceFeedLeaf{FeedID: 3, Rate: e18(1200), Timestamp: 1000}
	raw, err := EncodeLeaf(in)
	require.NoError(t, err)
	require.Len(t, raw, LeafSize)
	out, err := DecodeLeaf(raw)
	require.NoError(t, err)
	require.Equal(t, in, out)

	_, err = DecodeLeaf(raw[:64])
	require.ErrorIs(t, err, types.ErrInvalidLeaf)
	_, err = DecodeLeaf(append(raw, 0))
	require.ErrorIs(t, err, types.ErrInvalidLeaf)

	wideTS, err := leafArgs.Pack(big.NewInt(1), big.NewInt(1), new(big.Int).Lsh(big.NewInt(1), 70))
	require.NoError(t, err)
	_, err = DecodeLeaf(wideTS)
	require.ErrorIs(t, err, types.ErrInvalidLeaf)
}

func TestStaticPauserRegistry(t *testing.T) {
	r := NewStaticPauserRegistry([]common.Address{pauser, {}}, unpauser)
	require.True(t, r.IsPauser(pauser))
	require.False(t, r.IsPauser(common.Address{}))
	require.False(t, r.IsPauser(unpauser))
	require.Equal(t, unpauser, r.Unpauser())
}
