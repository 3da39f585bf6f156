package symgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddTypeAndLookup(t *testing.T) {
	g := New()
	id := g.AddType(Base{Encoding: EncUint, ByteSize: 4})
	assert.Equal(t, Base{Encoding: EncUint, ByteSize: 4}, g.Type(id))
	assert.Equal(t, 1, g.TypeCount())
}

func TestReserveThenSetTypeSupportsForwardReference(t *testing.T) {
	g := New()
	nodeId := g.ReserveType()
	ptrId := g.AddType(Pointer{Target: nodeId, ByteSize: 8})
	g.SetType(nodeId, Struct{
		Kind:     KindStruct,
		ByteSize: 8,
		Members:  []Member{{Name: "next", OffsetBytes: 0, Type: ptrId}},
	})

	resolved := g.Type(nodeId)
	st, ok := resolved.(Struct)
	assert.True(t, ok)
	assert.Equal(t, ptrId, st.Members[0].Type)
}

func TestTypeLookupPanicsOnDanglingId(t *testing.T) {
	g := New()
	assert.Panics(t, func() {
		g.Type(TypeId(42))
	})
}

func TestAddGlobalAndLookup(t *testing.T) {
	g := New()
	u32 := g.AddType(Base{Encoding: EncUint, ByteSize: 4})
	dup := g.AddGlobal(GlobalSymbol{Name: "speed", Address: 0x100, TypeId: u32})
	assert.False(t, dup)

	sym, ok := g.Global("speed")
	assert.True(t, ok)
	assert.Equal(t, uint64(0x100), sym.Address)
}

func TestAddGlobalDeduplicatesSameSymbolAcrossUnits(t *testing.T) {
	g := New()
	u32 := g.AddType(Base{Encoding: EncUint, ByteSize: 4})
	g.AddGlobal(GlobalSymbol{Name: "speed", Address: 0x100, TypeId: u32})

	anotherU32 := g.AddType(Base{Encoding: EncUint, ByteSize: 4})
	dup := g.AddGlobal(GlobalSymbol{Name: "speed", Address: 0x100, TypeId: anotherU32})
	assert.True(t, dup)
}

func TestAddGlobalReportsGenuineConflict(t *testing.T) {
	g := New()
	u32 := g.AddType(Base{Encoding: EncUint, ByteSize: 4})
	g.AddGlobal(GlobalSymbol{Name: "speed", Address: 0x100, TypeId: u32})

	dup := g.AddGlobal(GlobalSymbol{Name: "speed", Address: 0x200, TypeId: u32})
	assert.False(t, dup)

	sym, _ := g.Global("speed")
	assert.Equal(t, uint64(0x100), sym.Address, "first-seen entry must win")
}

func TestGlobalsReturnsAllRegistered(t *testing.T) {
	g := New()
	u32 := g.AddType(Base{Encoding: EncUint, ByteSize: 4})
	g.AddGlobal(GlobalSymbol{Name: "a", Address: 0x1, TypeId: u32})
	g.AddGlobal(GlobalSymbol{Name: "b", Address: 0x2, TypeId: u32})
	assert.Len(t, g.Globals(), 2)
}

func TestStripFollowsTypedefAndModifierChains(t *testing.T) {
	g := New()
	u32 := g.AddType(Base{Encoding: EncUint, ByteSize: 4})
	constId := g.AddType(Modifier{Kind: ModConst, Target: u32})
	aliasId := g.AddType(Typedef{Target: constId, AliasName: "myuint32"})

	strippedId, node := Strip(g, aliasId)
	assert.Equal(t, u32, strippedId)
	assert.Equal(t, Base{Encoding: EncUint, ByteSize: 4}, node)
}

func TestArrayTotalLengthAndOpenArray(t *testing.T) {
	closedArr := Array{Dimensions: []int{3, 2}}
	assert.Equal(t, 6, closedArr.TotalLength())

	openArr := Array{Dimensions: []int{0}}
	assert.Equal(t, 0, openArr.TotalLength())
}

func TestStructMemberByName(t *testing.T) {
	s := Struct{Members: []Member{{Name: "a"}, {Name: "b"}}}
	m, ok := s.MemberByName("b")
	assert.True(t, ok)
	assert.Equal(t, "b", m.Name)

	_, ok = s.MemberByName("c")
	assert.False(t, ok)
}

func TestMemberIsBitField(t *testing.T) {
	off, size := 1, 2
	bitField := Member{Name: "flag", BitOffset: &off, BitSize: &size}
	assert.True(t, bitField.IsBitField())

	plain := Member{Name: "raw"}
	assert.False(t, plain.IsBitField())
}

func TestSymbolKindString(t *testing.T) {
	assert.Equal(t, "Variable", KindVariable.String())
	assert.Equal(t, "FunctionPointerSlot", KindFunctionPointerSlot.String())
	assert.Equal(t, "Constant", KindConstant.String())
}
