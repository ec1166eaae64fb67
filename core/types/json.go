package types

import (
	"encoding/json"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

// JSON forms used by relayer batch files and the RPC API. Field elements and
// voting power are 0x-prefixed hex quantities.

type g1JSON [2]*hexutil.Big

type g2JSON [4]*hexutil.Big

type validatorJSON struct {
	Address     common.Address `json:"address"`
	G1PublicKey g1JSON         `json:"g1PublicKey"`
	G2PublicKey g2JSON         `json:"g2PublicKey"`
	VotingPower *hexutil.Big   `json:"votingPower"`
}

type leafInputJSON struct {
	LeafIndex    hexutil.Uint64 `json:"leafIndex"`
	UnhashedLeaf hexutil.Bytes  `json:"unhashedLeaf"`
	Proof        []common.Hash  `json:"proof"`
}

type verificationParamsJSON struct {
	EventRoot        common.Hash    `json:"eventRoot"`
	BlockNumber      hexutil.Uint64 `json:"blockNumber"`
	ChainID          hexutil.Uint64 `json:"chainId"`
	Aggregator       common.Address `json:"aggregator"`
	BlockHash        common.Hash    `json:"blockHash"`
	Signature        g1JSON         `json:"signature"`
	ApkG2            g2JSON         `json:"apkG2"`
	NonSignersBitmap hexutil.Bytes  `json:"nonSignersBitmap"`
}

func toHexBig(v *uint256.Int) *hexutil.Big {
	return (*hexutil.Big)(v.ToBig())
}

func fromHexBig(dst *uint256.Int, v *hexutil.Big, field string) error {
	if v == nil {
		return errors.Errorf("missing %s", field)
	}
	overflow := dst.SetFromBig((*big.Int)(v))
	if overflow || (*big.Int)(v).Sign() < 0 {
		return errors.Errorf("%s out of range", field)
	}
	return nil
}

func (p G1Point) toJSON() g1JSON {
	return g1JSON{toHexBig(&p.X), toHexBig(&p.Y)}
}

func (p *G1Point) fromJSON(enc g1JSON, field string) error {
	if err := fromHexBig(&p.X, enc[0], field+".x"); err != nil {
		return err
	}
	return fromHexBig(&p.Y, enc[1], field+".y")
}

func (p G2Point) toJSON() g2JSON {
	return g2JSON{toHexBig(&p.X[0]), toHexBig(&p.X[1]), toHexBig(&p.Y[0]), toHexBig(&p.Y[1])}
}

func (p *G2Point) fromJSON(enc g2JSON, field string) error {
	words := []*uint256.Int{&p.X[0], &p.X[1], &p.Y[0], &p.Y[1]}
	for i, w := range words {
		if err := fromHexBig(w, enc[i], field); err != nil {
			return err
		}
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (v Validator) MarshalJSON() ([]byte, error) {
	return json.Marshal(validatorJSON{
		Address:     v.Address,
		G1PublicKey: v.G1PublicKey.toJSON(),
		G2PublicKey: v.G2PublicKey.toJSON(),
		VotingPower: toHexBig(&v.VotingPower),
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Validator) UnmarshalJSON(data []byte) error {
	var enc validatorJSON
	if err := json.Unmarshal(data, &enc); err != nil {
		return err
	}
	v.Address = enc.Address
	if err := v.G1PublicKey.fromJSON(enc.G1PublicKey, "g1PublicKey"); err != nil {
		return err
	}
	if err := v.G2PublicKey.fromJSON(enc.G2PublicKey, "g2PublicKey"); err != nil {
		return err
	}
	return fromHexBig(&v.VotingPower, enc.VotingPower, "votingPower")
}

// MarshalJSON implements json.Marshaler.
func (l LeafInput) MarshalJSON() ([]byte, error) {
	return json.Marshal(leafInputJSON{
		LeafIndex:    hexutil.Uint64(l.LeafIndex),
		UnhashedLeaf: l.UnhashedLeaf,
		Proof:        l.Proof,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *LeafInput) UnmarshalJSON(data []byte) error {
	var enc leafInputJSON
	if err := json.Unmarshal(data, &enc); err != nil {
		return err
	}
	l.LeafIndex = uint64(enc.LeafIndex)
	l.UnhashedLeaf = enc.UnhashedLeaf
	l.Proof = enc.Proof
	return nil
}

// MarshalJSON implements json.Marshaler.
func (p VerificationParams) MarshalJSON() ([]byte, error) {
	return json.Marshal(verificationParamsJSON{
		EventRoot:        p.EventRoot,
		BlockNumber:      hexutil.Uint64(p.BlockNumber),
		ChainID:          hexutil.Uint64(p.ChainID),
		Aggregator:       p.Aggregator,
		BlockHash:        p.BlockHash,
		Signature:        p.Signature.toJSON(),
		ApkG2:            p.ApkG2.toJSON(),
		NonSignersBitmap: p.NonSignersBitmap,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *VerificationParams) UnmarshalJSON(data []byte) error {
	var enc verificationParamsJSON
	if err := json.Unmarshal(data, &enc); err != nil {
		return err
	}
	p.EventRoot = enc.EventRoot
	p.BlockNumber = uint64(enc.BlockNumber)
	p.ChainID = uint64(enc.ChainID)
	p.Aggregator = enc.Aggregator
	p.BlockHash = enc.BlockHash
	if err := p.Signature.fromJSON(enc.Signature, "signature"); err != nil {
		return err
	}
	if err := p.ApkG2.fromJSON(enc.ApkG2, "apkG2"); err != nil {
		return err
	}
	p.NonSignersBitmap = enc.NonSignersBitmap
	return nil
}

type summaryJSON struct {
	Length             hexutil.Uint64 `json:"length"`
	TotalVotingPower   *hexutil.Big   `json:"totalVotingPower"`
	AggregatePublicKey g1JSON         `json:"aggregatePublicKey"`
	Hash               common.Hash    `json:"hash"`
}

// MarshalJSON implements json.Marshaler.
func (s ValidatorSetSummary) MarshalJSON() ([]byte, error) {
	return json.Marshal(summaryJSON{
		Length:             hexutil.Uint64(s.Length),
		TotalVotingPower:   toHexBig(&s.TotalVotingPower),
		AggregatePublicKey: s.AggregatePublicKey.toJSON(),
		Hash:               s.Hash,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *ValidatorSetSummary) UnmarshalJSON(data []byte) error {
	var enc summaryJSON
	if err := json.Unmarshal(data, &enc); err != nil {
		return err
	}
	s.Length = uint64(enc.Length)
	s.Hash = enc.Hash
	if err := s.AggregatePublicKey.fromJSON(enc.AggregatePublicKey, "aggregatePublicKey"); err != nil {
		return err
	}
	return fromHexBig(&s.TotalVotingPower, enc.TotalVotingPower, "totalVotingPower")
}

type checkpointJSON struct {
	BlockNumber hexutil.Uint64 `json:"blockNumber"`
	EventRoot   common.Hash    `json:"eventRoot"`
}

// MarshalJSON implements json.Marshaler.
func (c Checkpoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(checkpointJSON{BlockNumber: hexutil.Uint64(c.BlockNumber), EventRoot: c.EventRoot})
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Checkpoint) UnmarshalJSON(data []byte) error {
	var enc checkpointJSON
	if err := json.Unmarshal(data, &enc); err != nil {
		return err
	}
	c.BlockNumber = uint64(enc.BlockNumber)
	c.EventRoot = enc.EventRoot
	return nil
}

type priceFeedRecordJSON struct {
	Value             *hexutil.Big   `json:"value"`
	Timestamp         hexutil.Uint64 `json:"timestamp"`
	SourceBlockNumber hexutil.Uint64 `json:"sourceBlockNumber"`
}

// MarshalJSON implements json.Marshaler.
func (r PriceFeedRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(priceFeedRecordJSON{
		Value:             toHexBig(&r.Value),
		Timestamp:         hexutil.Uint64(r.Timestamp),
		SourceBlockNumber: hexutil.Uint64(r.SourceBlockNumber),
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *PriceFeedRecord) UnmarshalJSON(data []byte) error {
	var enc priceFeedRecordJSON
	if err := json.Unmarshal(data, &enc); err != nil {
		return err
	}
	r.Timestamp = uint64(enc.Timestamp)
	r.SourceBlockNumber = uint64(enc.SourceBlockNumber)
	return fromHexBig(&r.Value, enc.Value, "value")
}
