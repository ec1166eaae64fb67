package committee

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/eth2030/feedoracle/core/types"
	"github.com/eth2030/feedoracle/crypto"
)

// validatorsArgs is the ABI shape hashed into a set's content hash:
// (address, uint256[2], uint256[4], uint256)[].
var validatorsArgs = func() abi.Arguments {
	typ, err := abi.NewType("tuple[]", "", []abi.ArgumentMarshaling{
		{Name: "addr", Type: "address"},
		{Name: "g1", Type: "uint256[2]"},
		{Name: "g2", Type: "uint256[4]"},
		{Name: "power", Type: "uint256"},
	})
	if err != nil {
		panic(err)
	}
	return abi.Arguments{{Type: typ}}
}()

type abiValidator struct {
	Addr  common.Address
	G1    [2]*big.Int
	G2    [4]*big.Int
	Power *big.Int
}

// ContentHash returns keccak256 of the ABI-encoded validator array.
func ContentHash(validators []types.Validator) (common.Hash, error) {
	enc := make([]abiValidator, len(validators))
	for i := range validators {
		v := &validators[i]
		enc[i] = abiValidator{
			Addr: v.Address,
			G1:   [2]*big.Int{v.G1PublicKey.X.ToBig(), v.G1PublicKey.Y.ToBig()},
			G2: [4]*big.Int{
				v.G2PublicKey.X[0].ToBig(), v.G2PublicKey.X[1].ToBig(),
				v.G2PublicKey.Y[0].ToBig(), v.G2PublicKey.Y[1].ToBig(),
			},
			Power: v.VotingPower.ToBig(),
		}
	}
	packed, err := validatorsArgs.Pack(enc)
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash(packed), nil
}
