package metadata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rony4d/go-chainspec-builder/runtime"
	"github.com/rony4d/go-chainspec-builder/typeinfo"
)

// sampleMetadata builds a tree with a System.Number plain entry resolving to
// the given primitive, plus an unrelated pallet without storage.
func sampleMetadata(numberPrimitive typeinfo.Primitive) *Metadata {
	var types typeinfo.Registry
	types.Put(4, typeinfo.Type{Def: typeinfo.TypeDef{Kind: typeinfo.KindPrimitive, Primitive: numberPrimitive}})
	types.Put(8, typeinfo.Type{Path: []string{"sp_core", "crypto", "AccountId32"}, Def: typeinfo.TypeDef{Kind: typeinfo.KindComposite}})

	return &Metadata{
		Pallets: []Pallet{
			{
				Name: "System",
				Storage: &Storage{
					Prefix: "System",
					Entries: []StorageEntry{
						{Name: "Number", Kind: StoragePlain, TypeID: 4},
						{Name: "Account", Kind: StorageMap, TypeID: 8},
					},
				},
			},
			{Name: "Timestamp"},
		},
		Types: types,
	}
}

func prefixed(t *testing.T, version uint32, m *Metadata) *Prefixed {
	t.Helper()
	p, err := NewPrefixed(version, m)
	require.NoError(t, err)
	return p
}

func TestPalletExists(t *testing.T) {
	for _, version := range []uint32{V14, V15} {
		p := prefixed(t, version, sampleMetadata(typeinfo.U32))

		ok, err := PalletExists(p, "System")
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = PalletExists(p, "Timestamp")
		require.NoError(t, err)
		require.True(t, ok)

		// exact, case-sensitive match only
		ok, err = PalletExists(p, "system")
		require.NoError(t, err)
		require.False(t, ok)

		ok, err = PalletExists(p, "Balances")
		require.NoError(t, err)
		require.False(t, ok)
	}
}

func TestUnsupportedVersion(t *testing.T) {
	require := require.New(t)

	_, err := NewPrefixed(13, sampleMetadata(typeinfo.U32))
	require.ErrorIs(err, ErrUnsupportedVersion)

	p := &Prefixed{Magic: MagicNumber, Version: 16, V15: sampleMetadata(typeinfo.U32)}

	_, err = PalletExists(p, "System")
	require.ErrorIs(err, ErrUnsupportedVersion)

	_, err = RuntimeBlockNumber(p)
	require.ErrorIs(err, ErrUnsupportedVersion)
}

func TestRuntimeBlockNumber(t *testing.T) {
	for _, version := range []uint32{V14, V15} {
		n, err := RuntimeBlockNumber(prefixed(t, version, sampleMetadata(typeinfo.U32)))
		require.NoError(t, err)
		require.Equal(t, runtime.BlockNumberU32, n)

		n, err = RuntimeBlockNumber(prefixed(t, version, sampleMetadata(typeinfo.U64)))
		require.NoError(t, err)
		require.Equal(t, runtime.BlockNumberU64, n)
	}
}

func TestRuntimeBlockNumberFailures(t *testing.T) {
	mutations := []struct {
		name   string
		mutate func(m *Metadata)
	}{
		{"no System pallet", func(m *Metadata) {
			m.Pallets = m.Pallets[1:]
		}},
		{"System without storage", func(m *Metadata) {
			m.Pallets[0].Storage = nil
		}},
		{"no Number entry", func(m *Metadata) {
			m.Pallets[0].Storage.Entries = m.Pallets[0].Storage.Entries[1:]
		}},
		{"Number is a map", func(m *Metadata) {
			m.Pallets[0].Storage.Entries[0].Kind = StorageMap
		}},
		{"type id unresolved", func(m *Metadata) {
			m.Pallets[0].Storage.Entries[0].TypeID = 99
		}},
		{"type not numeric primitive", func(m *Metadata) {
			m.Types.Put(4, typeinfo.Type{Def: typeinfo.TypeDef{Kind: typeinfo.KindPrimitive, Primitive: typeinfo.Str}})
		}},
		{"type not primitive at all", func(m *Metadata) {
			m.Types.Put(4, typeinfo.Type{Def: typeinfo.TypeDef{Kind: typeinfo.KindComposite}})
		}},
	}

	for _, tc := range mutations {
		t.Run(tc.name, func(t *testing.T) {
			m := sampleMetadata(typeinfo.U32)
			tc.mutate(m)
			_, err := RuntimeBlockNumber(prefixed(t, V14, m))
			require.ErrorIs(t, err, ErrBlockNumberResolution)
		})
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	require := require.New(t)

	p := prefixed(t, V15, sampleMetadata(typeinfo.U64))

	raw, err := Encode(p)
	require.NoError(err)

	got, err := Decode(raw)
	require.NoError(err)
	require.Equal(MagicNumber, got.Magic)
	require.Equal(V15, got.Version)

	n, err := RuntimeBlockNumber(got)
	require.NoError(err)
	require.Equal(runtime.BlockNumberU64, n)

	ok, err := PalletExists(got, "Timestamp")
	require.NoError(err)
	require.True(ok)

	// corrupting the magic is rejected
	bad := prefixed(t, V15, sampleMetadata(typeinfo.U64))
	bad.Magic = 0xdeadbeef
	raw, err = Encode(bad)
	require.NoError(err)
	_, err = Decode(raw)
	require.Error(err)
}

type memorySource struct {
	p *Prefixed
}

func (s memorySource) FetchRuntimeMetadata(string) (*Prefixed, error) {
	return s.p, nil
}

func TestIntrospectingResolver(t *testing.T) {
	require := require.New(t)

	r := Resolver{Source: memorySource{p: prefixed(t, V14, sampleMetadata(typeinfo.U64))}}
	rt, err := r.Resolve("local")
	require.NoError(err)
	require.Equal(runtime.Omni{
		BlockNumber: runtime.BlockNumberU64,
		Consensus:   runtime.Aura{ID: runtime.AuraSr25519},
	}, rt)

	// declared consensus overrides the default pairing
	r.Consensus = runtime.Aura{ID: runtime.AuraEd25519}
	rt, err = r.Resolve("local")
	require.NoError(err)
	require.Equal(runtime.Aura{ID: runtime.AuraEd25519}, rt.(runtime.Omni).Consensus)

	// inspection failures propagate
	broken := sampleMetadata(typeinfo.U32)
	broken.Pallets[0].Storage = nil
	r = Resolver{Source: memorySource{p: prefixed(t, V14, broken)}}
	_, err = r.Resolve("local")
	require.ErrorIs(err, ErrBlockNumberResolution)
}

func TestFileSource(t *testing.T) {
	require := require.New(t)

	raw, err := Encode(prefixed(t, V14, sampleMetadata(typeinfo.U32)))
	require.NoError(err)

	path := filepath.Join(t.TempDir(), "metadata.snap")
	require.NoError(os.WriteFile(path, raw, 0o600))

	p, err := FileSource{Path: path}.FetchRuntimeMetadata("any")
	require.NoError(err)
	n, err := RuntimeBlockNumber(p)
	require.NoError(err)
	require.Equal(runtime.BlockNumberU32, n)

	_, err = FileSource{Path: path + ".missing"}.FetchRuntimeMetadata("any")
	require.Error(err)
}
