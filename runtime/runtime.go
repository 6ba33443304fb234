// Package runtime describes what a node must know about a chain's runtime
// before it can run it: the block-number width and the consensus mechanism.
// These facts are either declared up front (the default resolver) or read out
// of the runtime's own metadata (see runtime/metadata).
package runtime

import (
	"github.com/rony4d/go-chainspec-builder/typeinfo"
)

// BlockNumber is the integer width of a chain's block height. Only u32 and
// u64 widths are recognized; anything else a runtime declares is an error at
// resolution time, never silently widened.
type BlockNumber uint8

const (
	BlockNumberU32 BlockNumber = iota
	BlockNumberU64
)

// String renders the width as its primitive-type name.
func (n BlockNumber) String() string {
	return n.Primitive().String()
}

// Primitive converts the width to its portable type-descriptor tag.
func (n BlockNumber) Primitive() typeinfo.Primitive {
	switch n {
	case BlockNumberU64:
		return typeinfo.U64
	default:
		return typeinfo.U32
	}
}

// BlockNumberFromTypeDef maps a resolved type definition back to a width.
// Only primitive u32/u64 definitions qualify.
func BlockNumberFromTypeDef(def typeinfo.TypeDef) (BlockNumber, bool) {
	if def.Kind != typeinfo.KindPrimitive {
		return 0, false
	}
	switch def.Primitive {
	case typeinfo.U32:
		return BlockNumberU32, true
	case typeinfo.U64:
		return BlockNumberU64, true
	default:
		return 0, false
	}
}

// AuraConsensusID is the signature scheme used by the Aura consensus
// mechanism.
type AuraConsensusID uint8

const (
	AuraEd25519 AuraConsensusID = iota
	AuraSr25519
)

func (id AuraConsensusID) String() string {
	switch id {
	case AuraEd25519:
		return "ed25519"
	default:
		return "sr25519"
	}
}

// Consensus is the choice of consensus mechanism. It is a sealed sum: new
// variants are added here as new types, and every switch over Consensus must
// name its variants explicitly rather than fall through on unknowns.
type Consensus interface {
	isConsensus()
}

// Aura is slot-based authority consensus with the given signature scheme.
type Aura struct {
	ID AuraConsensusID
}

func (Aura) isConsensus() {}

// Runtime describes how a node should behave for a chain. Sealed sum, same
// extension rules as Consensus.
type Runtime interface {
	isRuntime()
}

// Omni is a runtime-agnostic node driven purely by the declared consensus and
// block-number facts, with no chain-specific code baked in.
type Omni struct {
	BlockNumber BlockNumber
	Consensus   Consensus
}

func (Omni) isRuntime() {}

// Resolver maps a chain identity to its Runtime descriptor. Implementations
// must return a fully constructed Runtime or an error, never a partial value.
// Callers pick an implementation at construction time; there is no registry.
type Resolver interface {
	Resolve(chainID string) (Runtime, error)
}

// DefaultResolver answers every chain with Omni(u32, Aura(sr25519)) — the
// common case for omni-node chains — without inspecting any metadata.
type DefaultResolver struct{}

func (DefaultResolver) Resolve(chainID string) (Runtime, error) {
	return Omni{BlockNumber: BlockNumberU32, Consensus: Aura{ID: AuraSr25519}}, nil
}
