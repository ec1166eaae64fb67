package verifier

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/eth2030/feedoracle/committee"
	"github.com/eth2030/feedoracle/core/rawdb"
	"github.com/eth2030/feedoracle/core/types"
	"github.com/eth2030/feedoracle/crypto"
	"github.com/eth2030/feedoracle/metrics"
)

// SignatureVerifier checks a committee attestation over an event root.
type SignatureVerifier struct {
	curve    crypto.Curve
	registry *committee.Registry
	metrics  *metrics.Oracle
}

// NewSignatureVerifier creates a verifier reading the committee from
// registry.
func NewSignatureVerifier(curve crypto.Curve, registry *committee.Registry, m *metrics.Oracle) *SignatureVerifier {
	if m == nil {
		m = metrics.NewNop()
	}
	return &SignatureVerifier{curve: curve, registry: registry, metrics: m}
}

// Verify accepts params if its root is the cached checkpoint or if signers
// holding more than two thirds of the voting power signed it. On a fresh
// acceptance the checkpoint is advanced inside tx. cached reports whether
// the signature check was skipped.
func (sv *SignatureVerifier) Verify(tx rawdb.KeyValueReadWriter, p *types.VerificationParams) (cached bool, err error) {
	defer func() {
		switch {
		case cached:
			sv.metrics.Verifications.WithLabelValues(metrics.OutcomeCacheHit).Inc()
		case err != nil:
			sv.metrics.Verifications.WithLabelValues(types.KindOf(err).String()).Inc()
		default:
			sv.metrics.Verifications.WithLabelValues(metrics.OutcomeVerified).Inc()
		}
	}()

	hit, err := ConsultCheckpoint(tx, p.EventRoot)
	if err != nil {
		return false, err
	}
	if hit {
		return true, nil
	}
	if p.EventRoot == (common.Hash{}) {
		return false, types.ErrInvalidEventRoot
	}

	set, err := sv.registry.Snapshot(tx)
	if err != nil {
		return false, err
	}
	nonSignerApk, signingPower, err := sv.tallyNonSigners(set, p.NonSignersBitmap)
	if err != nil {
		return false, err
	}
	threshold := twoThirdsFloor(&set.TotalVotingPower)
	if signingPower.Cmp(threshold) <= 0 {
		return false, errors.Wrapf(types.ErrInsufficientVotingPower, "signing %s, need more than %s", signingPower.Dec(), threshold.Dec())
	}

	negated, err := sv.curve.NegG1(nonSignerApk)
	if err != nil {
		return false, errors.Wrap(types.ErrSignaturePairingFailed, err.Error())
	}
	signerApk, err := sv.curve.AddG1(set.AggregatePublicKey, negated)
	if err != nil {
		return false, errors.Wrap(types.ErrSignaturePairingFailed, err.Error())
	}

	digest := MessageDigest(p)
	msgPoint, err := sv.curve.HashToG1(digest)
	if err != nil {
		return false, errors.Wrap(types.ErrSignaturePairingFailed, err.Error())
	}
	start := time.Now()
	paired, valid := sv.curve.VerifySignature(digest, msgPoint, signerApk, p.ApkG2, p.Signature)
	sv.metrics.VerifyDuration.Observe(time.Since(start).Seconds())
	if !paired {
		return false, types.ErrSignaturePairingFailed
	}
	if !valid {
		return false, types.ErrSignatureVerificationFailed
	}

	if _, _, err := AdvanceCheckpoint(tx, p.EventRoot, p.BlockNumber); err != nil {
		return false, err
	}
	return false, nil
}

// tallyNonSigners sums the keys of flagged validators and subtracts their
// power from the total.
func (sv *SignatureVerifier) tallyNonSigners(set *types.ValidatorSet, bitmap []byte) (types.G1Point, *uint256.Int, error) {
	var apk types.G1Point
	signing := new(uint256.Int).Set(&set.TotalVotingPower)
	for i := range set.Validators {
		if !committee.IsNonSigner(bitmap, i) {
			continue
		}
		v := &set.Validators[i]
		sum, err := sv.curve.AddG1(apk, v.G1PublicKey)
		if err != nil {
			return apk, nil, errors.Wrapf(types.ErrSignaturePairingFailed, "non-signer %d: %v", i, err)
		}
		apk = sum
		signing.Sub(signing, &v.VotingPower)
	}
	return apk, signing, nil
}

// twoThirdsFloor returns floor(2*total/3) without overflowing 256 bits.
func twoThirdsFloor(total *uint256.Int) *uint256.Int {
	three := uint256.NewInt(3)
	q, r := new(uint256.Int), new(uint256.Int)
	q.DivMod(total, three, r)
	q.Lsh(q, 1)
	if r.Uint64() == 2 {
		q.AddUint64(q, 1)
	}
	return q
}
