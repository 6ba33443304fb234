// Package metadata holds the in-memory form of a runtime's self-describing
// metadata and the inspection logic built on it: checking whether a pallet
// exists and reading the chain's block-number width out of the System
// pallet's storage.
//
// Two metadata versions are supported, V14 and V15. Both expose structurally
// identical pallet/storage/type shapes, so the version switch happens exactly
// once (inner) and all traversal logic is written once against the shared
// shape. Any other version is a hard ErrUnsupportedVersion: new versions get
// a new arm here, never a generic pass-through.
package metadata

import (
	"errors"
	"fmt"

	"github.com/rony4d/go-chainspec-builder/runtime"
	"github.com/rony4d/go-chainspec-builder/typeinfo"
)

var (
	// ErrUnsupportedVersion reports a metadata version outside {V14, V15}.
	ErrUnsupportedVersion = errors.New("unsupported metadata version")

	// ErrBlockNumberResolution reports that the block-number type could not
	// be read from System pallet storage. Every failure along the resolution
	// chain (missing pallet, missing entry, non-plain shape, non-numeric
	// type) collapses into this one error; the diagnostics intentionally do
	// not distinguish the cause.
	ErrBlockNumberResolution = errors.New("can not get block number type from System pallet storage")
)

// MagicNumber prefixes every encoded metadata blob ("meta" in little-endian).
const MagicNumber uint32 = 0x6174656d

// Supported version tags.
const (
	V14 uint32 = 14
	V15 uint32 = 15
)

// StorageKind discriminates how a storage entry is addressed.
type StorageKind uint8

const (
	// StoragePlain is a single value under a fixed key.
	StoragePlain StorageKind = iota
	// StorageMap is a keyed family of values. Key hasher details are not
	// modeled; this tool only needs to tell maps apart from plain values.
	StorageMap
)

// StorageEntry is one named entry of a pallet's storage descriptor. TypeID
// references the value type in the portable registry.
type StorageEntry struct {
	Name   string
	Kind   StorageKind
	TypeID uint32
}

// Storage is a pallet's storage descriptor.
type Storage struct {
	Prefix  string
	Entries []StorageEntry
}

// Pallet is one named module of the runtime. Storage is nil for pallets that
// declare none.
type Pallet struct {
	Name    string
	Storage *Storage `rlp:"nil"`
}

// Metadata is the version-independent shape shared by V14 and V15.
type Metadata struct {
	Pallets []Pallet
	Types   typeinfo.Registry
}

// Prefixed is a metadata blob together with its magic and version tag.
// Exactly one of the version fields is populated, matching Version.
type Prefixed struct {
	Magic   uint32
	Version uint32
	V14     *Metadata `rlp:"nil"`
	V15     *Metadata `rlp:"nil"`
}

// NewPrefixed wraps m under the given supported version tag.
func NewPrefixed(version uint32, m *Metadata) (*Prefixed, error) {
	p := &Prefixed{Magic: MagicNumber, Version: version}
	switch version {
	case V14:
		p.V14 = m
	case V15:
		p.V15 = m
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}
	return p, nil
}

// inner is the single point where the version tag is interpreted.
func (p *Prefixed) inner() (*Metadata, error) {
	switch p.Version {
	case V14:
		if p.V14 != nil {
			return p.V14, nil
		}
	case V15:
		if p.V15 != nil {
			return p.V15, nil
		}
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, p.Version)
	}
	return nil, fmt.Errorf("%w: version %d tag without payload", ErrUnsupportedVersion, p.Version)
}

// PalletExists reports whether the metadata declares a pallet with exactly
// the given name (case-sensitive).
func PalletExists(p *Prefixed, name string) (bool, error) {
	m, err := p.inner()
	if err != nil {
		return false, err
	}
	for i := range m.Pallets {
		if m.Pallets[i].Name == name {
			return true, nil
		}
	}
	return false, nil
}

// RuntimeBlockNumber reads the block-number width declared by the runtime:
// the System pallet's "Number" storage entry must be a plain value whose type
// resolves to primitive u32 or u64 through the portable registry.
func RuntimeBlockNumber(p *Prefixed) (runtime.BlockNumber, error) {
	m, err := p.inner()
	if err != nil {
		return 0, err
	}

	var system *Pallet
	for i := range m.Pallets {
		if m.Pallets[i].Name == "System" {
			system = &m.Pallets[i]
			break
		}
	}
	if system == nil || system.Storage == nil {
		return 0, ErrBlockNumberResolution
	}

	var entry *StorageEntry
	for i := range system.Storage.Entries {
		if system.Storage.Entries[i].Name == "Number" {
			entry = &system.Storage.Entries[i]
			break
		}
	}
	if entry == nil || entry.Kind != StoragePlain {
		return 0, ErrBlockNumberResolution
	}

	ty, ok := m.Types.Resolve(entry.TypeID)
	if !ok {
		return 0, ErrBlockNumberResolution
	}
	n, ok := runtime.BlockNumberFromTypeDef(ty.Def)
	if !ok {
		return 0, ErrBlockNumberResolution
	}
	return n, nil
}
