package genesisexec

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/require"

	"github.com/rony4d/go-chainspec-builder/utils/scale"
)

func TestPresetIDEncoding(t *testing.T) {
	require := require.New(t)

	require.Equal([]byte{0x00}, encodePresetID(""))
	require.Equal(append([]byte{0x01, 0x14}, []byte("local")...), encodePresetID("local"))
}

func TestPresetJSONDecoding(t *testing.T) {
	require := require.New(t)

	w := scale.NewWriter()
	w.Option(true)
	w.Bytes([]byte(`{"balances":{}}`))
	got, err := decodePresetJSON(w.Output(), "local")
	require.NoError(err)
	require.JSONEq(`{"balances":{}}`, string(got))

	_, err = decodePresetJSON([]byte{0x00}, "nope")
	require.ErrorIs(err, ErrUnknownPreset)

	_, err = decodePresetJSON([]byte{0x02}, "local")
	require.Error(err)
}

func TestPresetNamesDecoding(t *testing.T) {
	require := require.New(t)

	w := scale.NewWriter()
	w.CompactUint(3)
	w.String("development")
	w.String("local_testnet")
	w.String("staging")
	names, err := decodePresetNames(w.Output())
	require.NoError(err)
	require.Equal([]string{"development", "local_testnet", "staging"}, names)

	empty := scale.NewWriter()
	empty.CompactUint(0)
	names, err = decodePresetNames(empty.Output())
	require.NoError(err)
	require.Empty(names)
}

func TestBuildResultDecoding(t *testing.T) {
	require := require.New(t)

	require.NoError(decodeBuildResult([]byte{0x00}))

	w := scale.NewWriter()
	w.Byte(0x01)
	w.String("Invalid JSON blob")
	err := decodeBuildResult(w.Output())
	require.Error(err)
	require.Contains(err.Error(), "Invalid JSON blob")

	require.Error(decodeBuildResult([]byte{0x02}))
}

func TestTwoxKnownVectors(t *testing.T) {
	require := require.New(t)

	// well-known storage prefix hash
	require.Equal("0x26aa394eea5630e07c48ae0c9558cef7", hexutil.Encode(twox128([]byte("System"))))
	require.Equal("0x99e9d85137db46ef", hexutil.Encode(twox64(nil)))
	require.Len(twox256([]byte("System")), 32)
}

func TestBlake2Lengths(t *testing.T) {
	require := require.New(t)

	require.Len(blake2b128([]byte("abc")), 16)
	require.Equal(
		"0x0e5751c026e543b2e8ab2eb06099daa1d1e5df47778f7787faab45cdf12fe3a8",
		hexutil.Encode(blake2b256(nil)),
	)
}

func TestOverlayBasics(t *testing.T) {
	require := require.New(t)

	o := newOverlay()
	o.set([]byte("a"), []byte{1})
	o.set([]byte("ab"), []byte{2})
	o.set([]byte("b"), []byte{3})

	v, ok := o.get([]byte("ab"))
	require.True(ok)
	require.Equal([]byte{2}, v)
	require.True(o.exists([]byte("a")))
	require.False(o.exists([]byte("c")))

	require.Equal([]byte("ab"), o.nextKey([]byte("a")))
	require.Equal([]byte("b"), o.nextKey([]byte("ab")))
	require.Nil(o.nextKey([]byte("b")))

	o.clear([]byte("b"))
	require.False(o.exists([]byte("b")))

	require.Equal(uint32(2), o.clearPrefix([]byte("a")))
	require.Empty(o.storage.Top)
}

func TestOverlayAppend(t *testing.T) {
	require := require.New(t)

	o := newOverlay()
	o.appendItem([]byte("k"), []byte{0xaa})
	o.appendItem([]byte("k"), []byte{0xbb, 0xcc})

	v, ok := o.get([]byte("k"))
	require.True(ok)
	// compact(2) then the raw items
	require.Equal([]byte{0x08, 0xaa, 0xbb, 0xcc}, v)

	// a value that is not a vec is replaced by a fresh single-item one
	o.set([]byte("bad"), []byte{0x01})
	o.appendItem([]byte("bad"), []byte{0xdd})
	v, _ = o.get([]byte("bad"))
	require.Equal([]byte{0x04, 0xdd}, v)
}

func TestOverlayChildStorage(t *testing.T) {
	require := require.New(t)

	o := newOverlay()
	o.childSet([]byte("child-a"), []byte("k"), []byte{9})
	v, ok := o.childGet([]byte("child-a"), []byte("k"))
	require.True(ok)
	require.Equal([]byte{9}, v)

	_, ok = o.childGet([]byte("child-b"), []byte("k"))
	require.False(ok)

	o.childClear([]byte("child-a"), []byte("k"))
	_, ok = o.childGet([]byte("child-a"), []byte("k"))
	require.False(ok)
}

func TestHostFuncCoverage(t *testing.T) {
	require := require.New(t)

	h := &hostState{ov: newOverlay()}
	implemented := []string{
		"ext_allocator_malloc_version_1",
		"ext_storage_set_version_1",
		"ext_storage_get_version_1",
		"ext_storage_append_version_1",
		"ext_storage_root_version_1",
		"ext_default_child_storage_set_version_1",
		"ext_hashing_twox_64_version_1",
		"ext_hashing_twox_128_version_1",
		"ext_hashing_twox_256_version_1",
		"ext_hashing_blake2_128_version_1",
		"ext_hashing_blake2_256_version_1",
		"ext_hashing_keccak_256_version_1",
		"ext_logging_log_version_1",
	}
	for _, name := range implemented {
		require.NotNil(h.hostFunc(name), name)
	}
	// everything else falls back to the generic zero stub
	require.Nil(h.hostFunc("ext_crypto_ed25519_verify_version_1"))
}

func TestOverlayRootDeterministic(t *testing.T) {
	require := require.New(t)

	a := newOverlay()
	a.set([]byte("x"), []byte{1})
	a.set([]byte("y"), []byte{2})

	b := newOverlay()
	b.set([]byte("y"), []byte{2})
	b.set([]byte("x"), []byte{1})

	require.Equal(a.root(), b.root())
	require.NotEqual(common.Hash{}, a.root())

	b.set([]byte("z"), []byte{3})
	require.NotEqual(a.root(), b.root())
}
