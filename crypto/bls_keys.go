package crypto

import (
	"errors"
	"io"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/ethereum/go-ethereum/common"

	"github.com/eth2030/feedoracle/core/types"
)

var ErrInvalidSecretKey = errors.New("crypto: secret key out of range")

// SecretKey is a committee member's BN254 signing scalar. Signatures live in
// G1 and public keys in both groups.
type SecretKey struct {
	s *big.Int
}

// NewSecretKey wraps s, which must satisfy 0 < s < r.
func NewSecretKey(s *big.Int) (*SecretKey, error) {
	if s == nil || s.Sign() <= 0 || s.Cmp(fr.Modulus()) >= 0 {
		return nil, ErrInvalidSecretKey
	}
	return &SecretKey{s: new(big.Int).Set(s)}, nil
}

// GenerateSecretKey draws a uniformly random key from rand.
func GenerateSecretKey(rand io.Reader) (*SecretKey, error) {
	for {
		var e fr.Element
		var buf [fr.Bytes]byte
		if _, err := io.ReadFull(rand, buf[:]); err != nil {
			return nil, err
		}
		e.SetBytes(buf[:])
		if e.IsZero() {
			continue
		}
		s := new(big.Int)
		e.BigInt(s)
		return &SecretKey{s: s}, nil
	}
}

// PublicKeyG1 returns s*G1.
func (sk *SecretKey) PublicKeyG1() types.G1Point {
	_, _, g1, _ := bn254.Generators()
	var p bn254.G1Affine
	p.ScalarMultiplication(&g1, sk.s)
	return fromG1Affine(p)
}

// PublicKeyG2 returns s*G2 in EVM coordinate order.
func (sk *SecretKey) PublicKeyG2() types.G2Point {
	_, _, _, g2 := bn254.Generators()
	var p bn254.G2Affine
	p.ScalarMultiplication(&g2, sk.s)
	return fromG2Affine(p)
}

// Sign returns s*H(digest), hashed under the provider's DST.
func (c *BN254) Sign(sk *SecretKey, digest common.Hash) (types.G1Point, error) {
	h, err := bn254.HashToG1(digest[:], c.dst)
	if err != nil {
		return types.G1Point{}, err
	}
	var sig bn254.G1Affine
	sig.ScalarMultiplication(&h, sk.s)
	return fromG1Affine(sig), nil
}

// AggregateG1 sums G1 points, typically signatures or G1 public keys.
func AggregateG1(points ...types.G1Point) (types.G1Point, error) {
	var acc bn254.G1Affine
	for _, p := range points {
		a, err := toG1Affine(p)
		if err != nil {
			return types.G1Point{}, err
		}
		acc = addG1(&acc, &a)
	}
	return fromG1Affine(acc), nil
}

// AggregateG2 sums G2 public keys. At least one point is required since
// the infinity point has no EVM encoding accepted by the verifier.
func AggregateG2(points ...types.G2Point) (types.G2Point, error) {
	if len(points) == 0 {
		return types.G2Point{}, ErrInvalidG2Point
	}
	acc, err := toG2Affine(points[0])
	if err != nil {
		return types.G2Point{}, err
	}
	for _, p := range points[1:] {
		a, err := toG2Affine(p)
		if err != nil {
			return types.G2Point{}, err
		}
		acc = addG2(&acc, &a)
	}
	return fromG2Affine(acc), nil
}
