package metadata

import (
	"github.com/rony4d/go-chainspec-builder/runtime"
)

// Resolver resolves a chain's Runtime descriptor by introspecting its
// metadata: the block-number width comes from System pallet storage, the
// consensus mechanism from the configured default (metadata does not declare
// it). Callers that already know their chain's shape should use
// runtime.DefaultResolver instead and skip the metadata fetch entirely.
type Resolver struct {
	Source Source

	// Consensus to pair with the resolved block number. Nil means
	// Aura(sr25519), the omni-node default.
	Consensus runtime.Consensus
}

func (r Resolver) Resolve(chainID string) (runtime.Runtime, error) {
	p, err := r.Source.FetchRuntimeMetadata(chainID)
	if err != nil {
		return nil, err
	}
	n, err := RuntimeBlockNumber(p)
	if err != nil {
		return nil, err
	}
	consensus := r.Consensus
	if consensus == nil {
		consensus = runtime.Aura{ID: runtime.AuraSr25519}
	}
	return runtime.Omni{BlockNumber: n, Consensus: consensus}, nil
}
