package rawdb

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
)

// Key prefixes for the database schema.
var (
	// Committee namespace.
	validatorPrefix    = []byte("v")  // v + index (8 bytes BE) -> validator RLP
	validatorSetKey    = []byte("vs") // -> validator set summary RLP
	checkpointKey      = []byte("cp") // -> checkpoint RLP
	verifierOwnerKey   = []byte("vo") // -> owner address
	feedManagerKey     = []byte("vm") // -> feed manager address
	committeeSchemaKey = []byte("schema/committee")

	// Feeds namespace.
	priceFeedPrefix     = []byte("p")  // p + feed id (8 bytes BE) -> record RLP
	supportedFeedPrefix = []byte("s")  // s + feed id (8 bytes BE) -> 0x01
	whitelistPrefix     = []byte("w")  // w + address -> 0x01
	feedsOwnerKey       = []byte("fo") // -> owner address
	feedDeployerKey     = []byte("fd") // -> feed deployer address
	pausedKey           = []byte("fp") // -> 0x01 when paused
	feedsSchemaKey      = []byte("schema/feeds")
)

// encodeUint64 encodes a number as an 8-byte big-endian value.
func encodeUint64(number uint64) []byte {
	enc := make([]byte, 8)
	binary.BigEndian.PutUint64(enc, number)
	return enc
}

// validatorKey = validatorPrefix + index
func validatorKey(index uint64) []byte {
	return append(append([]byte{}, validatorPrefix...), encodeUint64(index)...)
}

// priceFeedKey = priceFeedPrefix + feedID
func priceFeedKey(feedID uint64) []byte {
	return append(append([]byte{}, priceFeedPrefix...), encodeUint64(feedID)...)
}

// supportedFeedKey = supportedFeedPrefix + feedID
func supportedFeedKey(feedID uint64) []byte {
	return append(append([]byte{}, supportedFeedPrefix...), encodeUint64(feedID)...)
}

// whitelistKey = whitelistPrefix + address
func whitelistKey(addr common.Address) []byte {
	return append(append([]byte{}, whitelistPrefix...), addr.Bytes()...)
}
