package rawdb

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/eth2030/feedoracle/core/types"
)

var flagSet = []byte{0x01}

// readRLP decodes the entry at key into out. It reports false when the key is
// absent so callers can fall back to zero values like an unset mapping slot.
func readRLP(db KeyValueReader, key []byte, out interface{}) (bool, error) {
	ok, err := db.Has(key)
	if err != nil || !ok {
		return false, err
	}
	data, err := db.Get(key)
	if err != nil {
		return false, err
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, errors.Wrapf(ErrCorrupted, "key %x: %v", key, err)
	}
	return true, nil
}

func writeRLP(db KeyValueWriter, key []byte, val interface{}) error {
	data, err := rlp.EncodeToBytes(val)
	if err != nil {
		return err
	}
	return db.Put(key, data)
}

func readAddress(db KeyValueReader, key []byte) (common.Address, error) {
	ok, err := db.Has(key)
	if err != nil || !ok {
		return common.Address{}, err
	}
	data, err := db.Get(key)
	if err != nil {
		return common.Address{}, err
	}
	if len(data) != common.AddressLength {
		return common.Address{}, errors.Wrapf(ErrCorrupted, "key %x: address length %d", key, len(data))
	}
	return common.BytesToAddress(data), nil
}

func writeAddress(db KeyValueWriter, key []byte, addr common.Address) error {
	return db.Put(key, addr.Bytes())
}

func readFlag(db KeyValueReader, key []byte) (bool, error) {
	return db.Has(key)
}

func writeFlag(db KeyValueWriter, key []byte, set bool) error {
	if !set {
		return db.Delete(key)
	}
	return db.Put(key, flagSet)
}

// point is the storage form of a G1 point: two 32-byte big-endian words.
type point [2][32]byte

func encodePoint(p types.G1Point) point {
	return point{p.X.Bytes32(), p.Y.Bytes32()}
}

func (p point) decode() types.G1Point {
	var out types.G1Point
	out.X.SetBytes32(p[0][:])
	out.Y.SetBytes32(p[1][:])
	return out
}

// bigOf converts for RLP, which encodes *big.Int natively.
func bigOf(v *uint256.Int) *big.Int {
	return v.ToBig()
}

func setBig(dst *uint256.Int, v *big.Int) error {
	if v == nil {
		dst.Clear()
		return nil
	}
	if dst.SetFromBig(v) {
		return errors.Wrap(ErrCorrupted, "value exceeds 256 bits")
	}
	return nil
}
