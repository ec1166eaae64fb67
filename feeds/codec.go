package feeds

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/pkg/errors"

	"github.com/eth2030/feedoracle/core/types"
)

// leafArgs is abi.encode(uint256 feedId, uint256 rate, uint256 timestamp).
var leafArgs = func() abi.Arguments {
	u256, err := abi.NewType("uint256", "", nil)
	if err != nil {
		panic(err)
	}
	return abi.Arguments{
		{Name: "feedId", Type: u256},
		{Name: "rate", Type: u256},
		{Name: "timestamp", Type: u256},
	}
}()

// LeafSize is the length of an encoded price feed leaf.
const LeafSize = 3 * 32

// DecodeLeaf decodes a verified leaf. Feed ids beyond 64 bits can never be
// supported and fail as such.
func DecodeLeaf(raw []byte) (*types.PriceFeedLeaf, error) {
	if len(raw) != LeafSize {
		return nil, errors.Wrapf(types.ErrInvalidLeaf, "length %d", len(raw))
	}
	vals, err := leafArgs.Unpack(raw)
	if err != nil {
		return nil, errors.Wrap(types.ErrInvalidLeaf, err.Error())
	}
	id, rate, ts := vals[0].(*big.Int), vals[1].(*big.Int), vals[2].(*big.Int)
	if !id.IsUint64() {
		return nil, errors.Wrapf(types.ErrFeedNotSupported, "feed id %s", id)
	}
	if !ts.IsUint64() {
		return nil, errors.Wrapf(types.ErrInvalidLeaf, "timestamp %s", ts)
	}
	leaf := &types.PriceFeedLeaf{FeedID: id.Uint64(), Timestamp: ts.Uint64()}
	leaf.Rate.SetFromBig(rate)
	return leaf, nil
}

// EncodeLeaf is the inverse of DecodeLeaf, used by relayers and tooling.
func EncodeLeaf(leaf *types.PriceFeedLeaf) ([]byte, error) {
	return leafArgs.Pack(
		new(big.Int).SetUint64(leaf.FeedID),
		leaf.Rate.ToBig(),
		new(big.Int).SetUint64(leaf.Timestamp),
	)
}
