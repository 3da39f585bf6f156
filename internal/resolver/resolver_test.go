package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DanielT/a2ltool/internal/symgraph"
)

func TestResolveScalarGlobal(t *testing.T) {
	g := symgraph.New()
	u32 := g.AddType(symgraph.Base{Encoding: symgraph.EncUint, ByteSize: 4})
	g.AddGlobal(symgraph.GlobalSymbol{Name: "engineSpeed", Address: 0x1000, TypeId: u32})

	res, err := Resolve(g, "engineSpeed")
	require.NoError(t, err)
	assert.Equal(t, uint64(0x1000), res.Address)
	assert.Equal(t, u32, res.EffectiveType)
	assert.Nil(t, res.BitMask)
}

func TestResolveUnknownSymbol(t *testing.T) {
	g := symgraph.New()
	_, err := Resolve(g, "noSuchGlobal")
	var target ErrUnknownSymbol
	assert.ErrorAs(t, err, &target)
}

func TestResolveTwoDimensionalArrayFullyIndexed(t *testing.T) {
	g := symgraph.New()
	f32 := g.AddType(symgraph.Base{Encoding: symgraph.EncFloat, ByteSize: 4})
	arr := g.AddType(symgraph.Array{Element: f32, Dimensions: []int{3, 2}})
	g.AddGlobal(symgraph.GlobalSymbol{Name: "map2d", Address: 0x2000, TypeId: arr})

	// map2d[1][1]: outer stride is 2*4=8 bytes, inner stride is 4 bytes.
	res, err := Resolve(g, "map2d[1][1]")
	require.NoError(t, err)
	assert.Equal(t, uint64(0x2000+8+4), res.Address)
	assert.Equal(t, f32, res.EffectiveType)
	assert.Empty(t, res.Dimensions)
}

func TestResolveTwoDimensionalArrayPartiallyIndexed(t *testing.T) {
	g := symgraph.New()
	f32 := g.AddType(symgraph.Base{Encoding: symgraph.EncFloat, ByteSize: 4})
	arr := g.AddType(symgraph.Array{Element: f32, Dimensions: []int{3, 2}})
	g.AddGlobal(symgraph.GlobalSymbol{Name: "map2d", Address: 0x2000, TypeId: arr})

	res, err := Resolve(g, "map2d[1]")
	require.NoError(t, err)
	assert.Equal(t, uint64(0x2000+8), res.Address)
	assert.Equal(t, []int{2}, res.Dimensions)
}

func TestResolveArrayIndexOutOfBounds(t *testing.T) {
	g := symgraph.New()
	f32 := g.AddType(symgraph.Base{Encoding: symgraph.EncFloat, ByteSize: 4})
	arr := g.AddType(symgraph.Array{Element: f32, Dimensions: []int{3}})
	g.AddGlobal(symgraph.GlobalSymbol{Name: "vec", Address: 0x3000, TypeId: arr})

	_, err := Resolve(g, "vec[5]")
	var target ErrOutOfBounds
	assert.ErrorAs(t, err, &target)
}

func TestResolveStructMemberAndBitfield(t *testing.T) {
	g := symgraph.New()
	u32 := g.AddType(symgraph.Base{Encoding: symgraph.EncUint, ByteSize: 4})
	off, size := 3, 2
	st := g.AddType(symgraph.Struct{
		Kind:     symgraph.KindStruct,
		ByteSize: 8,
		Members: []symgraph.Member{
			{Name: "raw", OffsetBytes: 0, Type: u32},
			{Name: "flag", OffsetBytes: 4, Type: u32, BitOffset: &off, BitSize: &size},
		},
	})
	g.AddGlobal(symgraph.GlobalSymbol{Name: "status", Address: 0x4000, TypeId: st})

	res, err := Resolve(g, "status.flag")
	require.NoError(t, err)
	assert.Equal(t, uint64(0x4004), res.Address)
	require.NotNil(t, res.BitMask)
	assert.Equal(t, 3, res.BitMask.BitOffset)
	assert.Equal(t, 2, res.BitMask.BitSize)
	assert.Equal(t, ComputeMask(3, 2), res.BitMask.Mask)
}

func TestResolveMemberOnIncompleteTypeReturnsIncompleteTypeError(t *testing.T) {
	g := symgraph.New()
	incomplete := g.AddType(symgraph.Incomplete{Tag: "struct Opaque"})
	g.AddGlobal(symgraph.GlobalSymbol{Name: "opaque", Address: 0x5000, TypeId: incomplete})

	_, err := Resolve(g, "opaque.field")
	var target ErrIncompleteType
	assert.ErrorAs(t, err, &target)
}

func TestResolveArrowDereference(t *testing.T) {
	g := symgraph.New()
	u32 := g.AddType(symgraph.Base{Encoding: symgraph.EncUint, ByteSize: 4})
	st := g.AddType(symgraph.Struct{
		Kind:     symgraph.KindStruct,
		ByteSize: 4,
		Members:  []symgraph.Member{{Name: "value", OffsetBytes: 0, Type: u32}},
	})
	ptr := g.AddType(symgraph.Pointer{Target: st, ByteSize: 8})
	g.AddGlobal(symgraph.GlobalSymbol{Name: "node", Address: 0x6000, TypeId: ptr})

	res, err := Resolve(g, "node->value")
	require.NoError(t, err)
	assert.Equal(t, uint64(0x6000), res.Address)
	assert.Equal(t, u32, res.EffectiveType)
}

func TestComputeMaskIsolatesBits(t *testing.T) {
	mask := ComputeMask(3, 2)
	assert.Equal(t, uint64(0b11000), mask)
}
