package verifier

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/eth2030/feedoracle/core/types"
	"github.com/eth2030/feedoracle/crypto"
)

// messageArgs is abi.encode(bytes32 eventRoot, uint256 blockNumber,
// bytes32 blockHash, uint256 chainId, address aggregator).
var messageArgs = func() abi.Arguments {
	mustType := func(s string) abi.Type {
		t, err := abi.NewType(s, "", nil)
		if err != nil {
			panic(err)
		}
		return t
	}
	return abi.Arguments{
		{Name: "eventRoot", Type: mustType("bytes32")},
		{Name: "blockNumber", Type: mustType("uint256")},
		{Name: "blockHash", Type: mustType("bytes32")},
		{Name: "chainId", Type: mustType("uint256")},
		{Name: "aggregator", Type: mustType("address")},
	}
}()

// MessageDigest returns the digest the committee signs for params.
func MessageDigest(p *types.VerificationParams) common.Hash {
	packed, err := messageArgs.Pack(
		[32]byte(p.EventRoot),
		new(big.Int).SetUint64(p.BlockNumber),
		[32]byte(p.BlockHash),
		new(big.Int).SetUint64(p.ChainID),
		p.Aggregator,
	)
	if err != nil {
		// The argument types are fixed above.
		panic(err)
	}
	return crypto.Keccak256Hash(packed)
}
