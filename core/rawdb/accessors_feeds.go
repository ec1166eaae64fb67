package rawdb

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/eth2030/feedoracle/core/types"
)

type storedPriceFeed struct {
	Value             *big.Int
	Timestamp         uint64
	SourceBlockNumber uint64
}

// --- Price feed records ---

// ReadPriceFeed returns the stored record of feedID, zero if none.
func ReadPriceFeed(db KeyValueReader, feedID uint64) (types.PriceFeedRecord, error) {
	var enc storedPriceFeed
	if _, err := readRLP(db, priceFeedKey(feedID), &enc); err != nil {
		return types.PriceFeedRecord{}, err
	}
	rec := types.PriceFeedRecord{Timestamp: enc.Timestamp, SourceBlockNumber: enc.SourceBlockNumber}
	if err := setBig(&rec.Value, enc.Value); err != nil {
		return types.PriceFeedRecord{}, err
	}
	return rec, nil
}

// WritePriceFeed stores rec for feedID.
func WritePriceFeed(db KeyValueWriter, feedID uint64, rec types.PriceFeedRecord) error {
	return writeRLP(db, priceFeedKey(feedID), &storedPriceFeed{
		Value:             bigOf(&rec.Value),
		Timestamp:         rec.Timestamp,
		SourceBlockNumber: rec.SourceBlockNumber,
	})
}

// HasPriceFeed checks whether a record exists for feedID.
func HasPriceFeed(db KeyValueReader, feedID uint64) bool {
	ok, _ := db.Has(priceFeedKey(feedID))
	return ok
}

// --- Supported feeds ---

// ReadSupportedFeed reports whether feedID is in the supported set.
func ReadSupportedFeed(db KeyValueReader, feedID uint64) (bool, error) {
	return readFlag(db, supportedFeedKey(feedID))
}

// WriteSupportedFeed adds or removes feedID from the supported set.
func WriteSupportedFeed(db KeyValueWriter, feedID uint64, supported bool) error {
	return writeFlag(db, supportedFeedKey(feedID), supported)
}

// --- Publisher whitelist ---

// ReadWhitelisted reports whether addr may publish updates.
func ReadWhitelisted(db KeyValueReader, addr common.Address) (bool, error) {
	return readFlag(db, whitelistKey(addr))
}

// WriteWhitelisted adds or removes addr from the whitelist.
func WriteWhitelisted(db KeyValueWriter, addr common.Address, allowed bool) error {
	return writeFlag(db, whitelistKey(addr), allowed)
}

// --- Feed store roles and flags ---

// ReadFeedsOwner returns the feed store owner, zero if unset.
func ReadFeedsOwner(db KeyValueReader) (common.Address, error) {
	return readAddress(db, feedsOwnerKey)
}

// WriteFeedsOwner stores the feed store owner.
func WriteFeedsOwner(db KeyValueWriter, owner common.Address) error {
	return writeAddress(db, feedsOwnerKey, owner)
}

// ReadFeedDeployer returns the feed deployer, zero if unset.
func ReadFeedDeployer(db KeyValueReader) (common.Address, error) {
	return readAddress(db, feedDeployerKey)
}

// WriteFeedDeployer stores the feed deployer.
func WriteFeedDeployer(db KeyValueWriter, deployer common.Address) error {
	return writeAddress(db, feedDeployerKey, deployer)
}

// ReadPaused reports whether submissions are paused.
func ReadPaused(db KeyValueReader) (bool, error) {
	return readFlag(db, pausedKey)
}

// WritePaused sets the pause flag.
func WritePaused(db KeyValueWriter, paused bool) error {
	return writeFlag(db, pausedKey, paused)
}
