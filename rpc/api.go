// Package rpc exposes the oracle's read accessors over JSON-RPC in the
// "oracle" namespace.
package rpc

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/eth2030/feedoracle/core/types"
)

// Namespace is the JSON-RPC namespace of OracleAPI.
const Namespace = "oracle"

// FeedReader is the feed store as seen by the API.
type FeedReader interface {
	GetLatestPriceFeed(id uint64) (types.PriceFeedRecord, error)
	GetLatestPriceFeeds(ids []uint64) ([]types.PriceFeedRecord, error)
	IsSupportedFeed(id uint64) (bool, error)
	IsWhitelistedPublisher(addr common.Address) (bool, error)
	Paused() (bool, error)
	FeedDeployer() (common.Address, error)
}

// CommitteeReader is the verifier as seen by the API.
type CommitteeReader interface {
	Checkpoint() (types.Checkpoint, error)
	Summary() (*types.ValidatorSetSummary, error)
	CurrentValidatorSet(index uint64) (*types.Validator, error)
	FeedManager() (common.Address, error)
}

// OracleAPI serves the oracle_ methods.
type OracleAPI struct {
	feeds     FeedReader
	committee CommitteeReader
}

// NewOracleAPI creates the API over the two components.
func NewOracleAPI(feeds FeedReader, committee CommitteeReader) *OracleAPI {
	return &OracleAPI{feeds: feeds, committee: committee}
}

// GetLatestPriceFeed returns the record of a supported feed.
func (api *OracleAPI) GetLatestPriceFeed(id hexutil.Uint64) (*types.PriceFeedRecord, error) {
	rec, err := api.feeds.GetLatestPriceFeed(uint64(id))
	if err != nil {
		return nil, wrapError(err)
	}
	return &rec, nil
}

// GetLatestPriceFeeds returns the records of several supported feeds.
func (api *OracleAPI) GetLatestPriceFeeds(ids []hexutil.Uint64) ([]types.PriceFeedRecord, error) {
	plain := make([]uint64, len(ids))
	for i, id := range ids {
		plain[i] = uint64(id)
	}
	recs, err := api.feeds.GetLatestPriceFeeds(plain)
	if err != nil {
		return nil, wrapError(err)
	}
	return recs, nil
}

func (api *OracleAPI) IsSupportedFeed(id hexutil.Uint64) (bool, error) {
	ok, err := api.feeds.IsSupportedFeed(uint64(id))
	return ok, wrapError(err)
}

func (api *OracleAPI) IsWhitelistedPublisher(addr common.Address) (bool, error) {
	ok, err := api.feeds.IsWhitelistedPublisher(addr)
	return ok, wrapError(err)
}

func (api *OracleAPI) Paused() (bool, error) {
	ok, err := api.feeds.Paused()
	return ok, wrapError(err)
}

// Checkpoint returns the last accepted block number and event root.
func (api *OracleAPI) Checkpoint() (*types.Checkpoint, error) {
	cp, err := api.committee.Checkpoint()
	if err != nil {
		return nil, wrapError(err)
	}
	return &cp, nil
}

// ValidatorSet returns the committee-wide fields.
func (api *OracleAPI) ValidatorSet() (*types.ValidatorSetSummary, error) {
	s, err := api.committee.Summary()
	if err != nil {
		return nil, wrapError(err)
	}
	return s, nil
}

// Validator returns one committee member.
func (api *OracleAPI) Validator(index hexutil.Uint64) (*types.Validator, error) {
	v, err := api.committee.CurrentValidatorSet(uint64(index))
	if err != nil {
		return nil, wrapError(err)
	}
	return v, nil
}

func (api *OracleAPI) FeedManager() (common.Address, error) {
	addr, err := api.committee.FeedManager()
	return addr, wrapError(err)
}

func (api *OracleAPI) FeedDeployer() (common.Address, error) {
	addr, err := api.feeds.FeedDeployer()
	return addr, wrapError(err)
}
