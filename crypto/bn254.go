// Package crypto binds the oracle to its cryptographic primitives: Keccak-256,
// BN254 point arithmetic, hash-to-curve and pairing checks (through
// gnark-crypto), and sorted-pair Merkle proofs.
package crypto

import (
	"errors"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fp"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/eth2030/feedoracle/core/types"
)

// DefaultHashToCurveDST separates oracle attestations from any other use of
// the committee keys.
const DefaultHashToCurveDST = "FEEDORACLE-V01-CS01-with-BN254G1_XMD:SHA-256_SVDW_RO_"

var (
	ErrInvalidG1Point = errors.New("crypto: invalid G1 point")
	ErrInvalidG2Point = errors.New("crypto: invalid G2 point")
)

// Curve is the elliptic-curve provider consumed by the committee registry and
// the signature verifier.
type Curve interface {
	// AddG1 returns a + b.
	AddG1(a, b types.G1Point) (types.G1Point, error)
	// NegG1 returns -p.
	NegG1(p types.G1Point) (types.G1Point, error)
	// HashToG1 maps a message digest to a G1 point.
	HashToG1(digest common.Hash) (types.G1Point, error)
	// VerifySignature checks sig against the signer keys apk/apkG2 over
	// msgPoint. pairingSucceeded is false when the pairing could not be
	// evaluated at all (malformed input); signatureValid carries the result.
	VerifySignature(digest common.Hash, msgPoint, apk types.G1Point, apkG2 types.G2Point, sig types.G1Point) (pairingSucceeded, signatureValid bool)
}

// BN254 implements Curve on the alt_bn128 curve used by the EVM precompiles.
type BN254 struct {
	dst []byte
}

// NewBN254 returns a provider using DefaultHashToCurveDST.
func NewBN254() *BN254 {
	return NewBN254WithDST(DefaultHashToCurveDST)
}

// NewBN254WithDST returns a provider with a custom hash-to-curve domain.
func NewBN254WithDST(dst string) *BN254 {
	return &BN254{dst: []byte(dst)}
}

// AddG1 implements Curve.
func (c *BN254) AddG1(a, b types.G1Point) (types.G1Point, error) {
	pa, err := toG1Affine(a)
	if err != nil {
		return types.G1Point{}, err
	}
	pb, err := toG1Affine(b)
	if err != nil {
		return types.G1Point{}, err
	}
	return fromG1Affine(addG1(&pa, &pb)), nil
}

// NegG1 implements Curve.
func (c *BN254) NegG1(p types.G1Point) (types.G1Point, error) {
	pa, err := toG1Affine(p)
	if err != nil {
		return types.G1Point{}, err
	}
	pa.Neg(&pa)
	return fromG1Affine(pa), nil
}

// HashToG1 implements Curve.
func (c *BN254) HashToG1(digest common.Hash) (types.G1Point, error) {
	p, err := bn254.HashToG1(digest[:], c.dst)
	if err != nil {
		return types.G1Point{}, err
	}
	return fromG1Affine(p), nil
}

// VerifySignature implements Curve. With challenge g derived from all
// inputs it checks e(sig + g*apk, -G2) * e(H(m) + g*G1, apkG2) == 1, which
// also binds apk and apkG2 to the same secret.
func (c *BN254) VerifySignature(digest common.Hash, msgPoint, apk types.G1Point, apkG2 types.G2Point, sig types.G1Point) (bool, bool) {
	h, err := toG1Affine(msgPoint)
	if err != nil {
		return false, false
	}
	pk, err := toG1Affine(apk)
	if err != nil {
		return false, false
	}
	s, err := toG1Affine(sig)
	if err != nil {
		return false, false
	}
	pk2, err := toG2Affine(apkG2)
	if err != nil {
		return false, false
	}
	gamma := challenge(digest, apk, apkG2, sig)
	_, _, g1, g2 := bn254.Generators()

	var t bn254.G1Affine
	t.ScalarMultiplication(&pk, gamma)
	lhs := addG1(&s, &t)
	t.ScalarMultiplication(&g1, gamma)
	rhs := addG1(&h, &t)

	var negG2 bn254.G2Affine
	negG2.Neg(&g2)
	ok, err := bn254.PairingCheck([]bn254.G1Affine{lhs, rhs}, []bn254.G2Affine{negG2, pk2})
	if err != nil {
		return false, false
	}
	return true, ok
}

// challenge = keccak256(digest, apk, apkG2, sig) mod r.
func challenge(digest common.Hash, apk types.G1Point, apkG2 types.G2Point, sig types.G1Point) *big.Int {
	buf := make([]byte, 0, 9*32)
	buf = append(buf, digest[:]...)
	for _, w := range []*uint256.Int{
		&apk.X, &apk.Y, &apkG2.X[0], &apkG2.X[1], &apkG2.Y[0], &apkG2.Y[1], &sig.X, &sig.Y,
	} {
		b := w.Bytes32()
		buf = append(buf, b[:]...)
	}
	gamma := new(big.Int).SetBytes(Keccak256(buf))
	return gamma.Mod(gamma, fr.Modulus())
}

func addG1(a, b *bn254.G1Affine) bn254.G1Affine {
	var ja, jb bn254.G1Jac
	ja.FromAffine(a)
	jb.FromAffine(b)
	ja.AddAssign(&jb)
	var out bn254.G1Affine
	out.FromJacobian(&ja)
	return out
}

func addG2(a, b *bn254.G2Affine) bn254.G2Affine {
	var ja, jb bn254.G2Jac
	ja.FromAffine(a)
	jb.FromAffine(b)
	ja.AddAssign(&jb)
	var out bn254.G2Affine
	out.FromJacobian(&ja)
	return out
}

func setCanonical(dst *fp.Element, w *[32]byte) bool {
	return dst.SetBytesCanonical(w[:]) == nil
}

// toG1Affine decodes and validates p. The all-zero encoding is infinity.
func toG1Affine(p types.G1Point) (bn254.G1Affine, error) {
	var out bn254.G1Affine
	if p.IsZero() {
		return out, nil
	}
	x, y := p.X.Bytes32(), p.Y.Bytes32()
	if !setCanonical(&out.X, &x) || !setCanonical(&out.Y, &y) {
		return out, ErrInvalidG1Point
	}
	if !out.IsOnCurve() {
		return out, ErrInvalidG1Point
	}
	return out, nil
}

func fromG1Affine(p bn254.G1Affine) types.G1Point {
	var out types.G1Point
	x, y := p.X.Bytes(), p.Y.Bytes()
	out.X.SetBytes32(x[:])
	out.Y.SetBytes32(y[:])
	return out
}

// toG2Affine decodes an EVM-ordered G2 point and checks curve and subgroup
// membership.
func toG2Affine(p types.G2Point) (bn254.G2Affine, error) {
	var out bn254.G2Affine
	coords := []*fp.Element{&out.X.A1, &out.X.A0, &out.Y.A1, &out.Y.A0}
	words := [4][32]byte{p.X[0].Bytes32(), p.X[1].Bytes32(), p.Y[0].Bytes32(), p.Y[1].Bytes32()}
	for i := range coords {
		if !setCanonical(coords[i], &words[i]) {
			return out, ErrInvalidG2Point
		}
	}
	if !out.IsOnCurve() || !out.IsInSubGroup() {
		return out, ErrInvalidG2Point
	}
	return out, nil
}

func fromG2Affine(p bn254.G2Affine) types.G2Point {
	var out types.G2Point
	x1, x0 := p.X.A1.Bytes(), p.X.A0.Bytes()
	y1, y0 := p.Y.A1.Bytes(), p.Y.A0.Bytes()
	out.X[0].SetBytes32(x1[:])
	out.X[1].SetBytes32(x0[:])
	out.Y[0].SetBytes32(y1[:])
	out.Y[1].SetBytes32(y0[:])
	return out
}
