package runtime

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rony4d/go-chainspec-builder/typeinfo"
)

func TestBlockNumberDisplay(t *testing.T) {
	require.Equal(t, "u32", BlockNumberU32.String())
	require.Equal(t, "u64", BlockNumberU64.String())
	require.Equal(t, typeinfo.U32, BlockNumberU32.Primitive())
	require.Equal(t, typeinfo.U64, BlockNumberU64.Primitive())
}

func TestBlockNumberFromTypeDef(t *testing.T) {
	require := require.New(t)

	n, ok := BlockNumberFromTypeDef(typeinfo.TypeDef{Kind: typeinfo.KindPrimitive, Primitive: typeinfo.U32})
	require.True(ok)
	require.Equal(BlockNumberU32, n)

	n, ok = BlockNumberFromTypeDef(typeinfo.TypeDef{Kind: typeinfo.KindPrimitive, Primitive: typeinfo.U64})
	require.True(ok)
	require.Equal(BlockNumberU64, n)

	// non-numeric primitives and non-primitive shapes both fail
	_, ok = BlockNumberFromTypeDef(typeinfo.TypeDef{Kind: typeinfo.KindPrimitive, Primitive: typeinfo.Str})
	require.False(ok)
	_, ok = BlockNumberFromTypeDef(typeinfo.TypeDef{Kind: typeinfo.KindComposite})
	require.False(ok)
	_, ok = BlockNumberFromTypeDef(typeinfo.TypeDef{Kind: typeinfo.KindPrimitive, Primitive: typeinfo.U128})
	require.False(ok)
}

func TestDefaultResolver(t *testing.T) {
	require := require.New(t)

	rt, err := DefaultResolver{}.Resolve("any-chain")
	require.NoError(err)

	omni, ok := rt.(Omni)
	require.True(ok)
	require.Equal(BlockNumberU32, omni.BlockNumber)
	require.Equal(Aura{ID: AuraSr25519}, omni.Consensus)
}
