package types

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestKindOfSurvivesWrapping(t *testing.T) {
	err := pkgerrors.Wrapf(ErrDuplicatedAddresses, "validator %d", 4)
	require.True(t, errors.Is(err, ErrDuplicatedAddresses))
	require.Equal(t, KindValidation, KindOf(err))
	require.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	require.Equal(t, KindUnknown, KindOf(nil))
}

func TestErrorKindsMatchTaxonomy(t *testing.T) {
	cases := map[*Error]ErrorKind{
		ErrCallerIsNotWhitelisted:      KindAuthorization,
		ErrCallerIsNotFeedManager:      KindAuthorization,
		ErrValidatorSetTooSmall:        KindValidation,
		ErrInsufficientVotingPower:     KindConsensus,
		ErrSignaturePairingFailed:      KindConsensus,
		ErrInvalidProof:                KindProof,
		ErrFeedNotSupported:            KindState,
		ErrValidatorIndexOutOfBounds:   KindState,
		ErrSignatureVerificationFailed: KindConsensus,
	}
	for err, kind := range cases {
		require.Equal(t, kind, err.Kind(), err.Error())
	}
	require.Equal(t, "consensus", KindConsensus.String())
}

func TestVerificationParamsJSON(t *testing.T) {
	in := VerificationParams{
		EventRoot:        common.HexToHash("0x01"),
		BlockNumber:      77,
		ChainID:          1,
		Aggregator:       common.HexToAddress("0xaa"),
		BlockHash:        common.HexToHash("0x02"),
		NonSignersBitmap: []byte{0x05},
	}
	in.Signature.X.SetUint64(3)
	in.Signature.Y.SetUint64(4)
	in.ApkG2.X[0].SetUint64(5)
	in.ApkG2.Y[1].SetUint64(8)

	enc, err := json.Marshal(in)
	require.NoError(t, err)
	require.Contains(t, string(enc), `"blockNumber":"0x4d"`)

	var out VerificationParams
	require.NoError(t, json.Unmarshal(enc, &out))
	require.Equal(t, in, out)
}

func TestValidatorJSONRejectsOversizedWord(t *testing.T) {
	raw := `{"address":"0x00000000000000000000000000000000000000aa",
		"g1PublicKey":["0x1","0x2"],
		"g2PublicKey":["0x0","0x0","0x0","0x0"],
		"votingPower":"0x10000000000000000000000000000000000000000000000000000000000000000"}`
	var v Validator
	require.Error(t, json.Unmarshal([]byte(raw), &v))

	ok := `{"address":"0x00000000000000000000000000000000000000aa",
		"g1PublicKey":["0x1","0x2"],
		"g2PublicKey":["0x0","0x0","0x0","0x0"],
		"votingPower":"0x64"}`
	require.NoError(t, json.Unmarshal([]byte(ok), &v))
	require.Equal(t, uint256.NewInt(100), &v.VotingPower)
}

func TestPriceFeedRecordJSONForm(t *testing.T) {
	rec := PriceFeedRecord{Timestamp: 1001, SourceBlockNumber: 42}
	rec.Value.SetUint64(2400)
	enc, err := json.Marshal(rec)
	require.NoError(t, err)
	require.JSONEq(t, `{"value":"0x960","timestamp":"0x3e9","sourceBlockNumber":"0x2a"}`, string(enc))

	var out PriceFeedRecord
	require.NoError(t, json.Unmarshal(enc, &out))
	require.Equal(t, rec, out)
	require.Error(t, json.Unmarshal([]byte(`{"timestamp":"0x1"}`), &out))
}
