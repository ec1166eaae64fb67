package feeds

import (
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/common"
)

// PauserRegistry decides who may pause and unpause submissions.
type PauserRegistry interface {
	IsPauser(addr common.Address) bool
	Unpauser() common.Address
}

// StaticPauserRegistry is a fixed pauser list plus a single unpauser.
type StaticPauserRegistry struct {
	pausers  mapset.Set[common.Address]
	unpauser common.Address
}

// NewStaticPauserRegistry builds a registry from configuration.
func NewStaticPauserRegistry(pausers []common.Address, unpauser common.Address) *StaticPauserRegistry {
	return &StaticPauserRegistry{
		pausers:  mapset.NewSet(pausers...),
		unpauser: unpauser,
	}
}

// IsPauser implements PauserRegistry.
func (r *StaticPauserRegistry) IsPauser(addr common.Address) bool {
	return addr != (common.Address{}) && r.pausers.Contains(addr)
}

// Unpauser implements PauserRegistry.
func (r *StaticPauserRegistry) Unpauser() common.Address {
	return r.unpauser
}
