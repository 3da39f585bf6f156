package synth

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DanielT/a2ltool/internal/a2ldatatype"
	"github.com/DanielT/a2ltool/internal/a2lmodel"
	"github.com/DanielT/a2ltool/internal/a2lver"
	"github.com/DanielT/a2ltool/internal/symgraph"
)

func newPolicy() Policy {
	return Policy{Version: a2lver.V1_7_1, ArraysAsBlocks: true}
}

// buildValBlkGraph models Characteristic_ValBlk[5] of float, spec.md §8
// scenario 3.
func buildValBlkGraph() *symgraph.SymbolGraph {
	g := symgraph.New()
	f32 := g.AddType(symgraph.Base{Encoding: symgraph.EncFloat, ByteSize: 4})
	arr := g.AddType(symgraph.Array{Element: f32, Dimensions: []int{5}})
	g.AddGlobal(symgraph.GlobalSymbol{Name: "Characteristic_ValBlk", Address: 0x1000, TypeId: arr, Kind: symgraph.KindVariable})
	return g
}

// buildCurveGraph models Curve_InternalAxis { uint16 x[4]; float value[4]; },
// spec.md §8 scenario 1.
func buildCurveGraph() *symgraph.SymbolGraph {
	g := symgraph.New()
	u16 := g.AddType(symgraph.Base{Encoding: symgraph.EncUint, ByteSize: 2})
	f32 := g.AddType(symgraph.Base{Encoding: symgraph.EncFloat, ByteSize: 4})
	xArr := g.AddType(symgraph.Array{Element: u16, Dimensions: []int{4}})
	valArr := g.AddType(symgraph.Array{Element: f32, Dimensions: []int{4}})
	structId := g.ReserveType()
	g.SetType(structId, symgraph.Struct{
		Kind:     symgraph.KindStruct,
		ByteSize: 24,
		Members: []symgraph.Member{
			{Name: "x", OffsetBytes: 0, Type: xArr},
			{Name: "value", OffsetBytes: 8, Type: valArr},
		},
	})
	g.AddGlobal(symgraph.GlobalSymbol{Name: "Curve_InternalAxis", Address: 0x2000, TypeId: structId, Kind: symgraph.KindVariable})
	return g
}

func TestSynthesizeScalarMeasurement(t *testing.T) {
	g := symgraph.New()
	i32 := g.AddType(symgraph.Base{Encoding: symgraph.EncInt, ByteSize: 4})
	g.AddGlobal(symgraph.GlobalSymbol{Name: "counter", Address: 0x3000, TypeId: i32, Kind: symgraph.KindVariable})

	module := a2lmodel.NewModule()
	result, err := Synthesize(g, "counter", newPolicy(), module, false)
	require.NoError(t, err)
	assert.Equal(t, EntityMeasurement, result.Kind)
	assert.Equal(t, a2lmodel.KindValue, result.CharacteristicK)

	m, ok := module.Measurements.Get("counter")
	require.True(t, ok)
	assert.Equal(t, a2ldatatype.Slong, m.Datatype)
	assert.EqualValues(t, 0x3000, m.Address)
	assert.True(t, m.AddressHex)
}

func TestSynthesizeValBlkCharacteristic(t *testing.T) {
	g := buildValBlkGraph()
	module := a2lmodel.NewModule()

	result, err := Synthesize(g, "Characteristic_ValBlk", newPolicy(), module, true)
	require.NoError(t, err)
	assert.Equal(t, a2lmodel.KindValBlk, result.CharacteristicK)

	c, ok := module.Characteristics.Get("Characteristic_ValBlk")
	require.True(t, ok)
	assert.Equal(t, []int{5}, c.MatrixDim)
	assert.Equal(t, -float32max(), c.LowerLimit)
	assert.Equal(t, float32max(), c.UpperLimit)

	layout, ok := module.RecordLayouts.Get(c.Deposit)
	require.True(t, ok)
	require.Len(t, layout.Components, 1)
	assert.Equal(t, "FNC_VALUES", layout.Components[0].Role)
	assert.Equal(t, a2ldatatype.Float32Ieee, layout.Components[0].Datatype)
}

func float32max() float64 {
	lim := a2ldatatype.StorageLimits(a2ldatatype.Float32Ieee)
	return lim.Upper
}

func TestSynthesizeCurveInternalAxis(t *testing.T) {
	g := buildCurveGraph()
	module := a2lmodel.NewModule()

	result, err := Synthesize(g, "Curve_InternalAxis", newPolicy(), module, true)
	require.NoError(t, err)
	assert.Equal(t, a2lmodel.KindCurve, result.CharacteristicK)

	c, ok := module.Characteristics.Get("Curve_InternalAxis")
	require.True(t, ok)
	require.Len(t, c.AxisDescr, 1)
	assert.Equal(t, 4, c.AxisDescr[0].MaxAxisPoints)

	layout, ok := module.RecordLayouts.Get(c.Deposit)
	require.True(t, ok)
	require.Len(t, layout.Components, 2)
	assert.Equal(t, "AXIS_PTS_X", layout.Components[0].Role)
	assert.Equal(t, a2ldatatype.Uword, layout.Components[0].Datatype)
	assert.Equal(t, "FNC_VALUES", layout.Components[1].Role)
	assert.Equal(t, a2ldatatype.Float32Ieee, layout.Components[1].Datatype)
}

func TestSynthesizeReusesCompatibleRecordLayout(t *testing.T) {
	g := symgraph.New()
	f32a := g.AddType(symgraph.Base{Encoding: symgraph.EncFloat, ByteSize: 4})
	arrA := g.AddType(symgraph.Array{Element: f32a, Dimensions: []int{3}})
	g.AddGlobal(symgraph.GlobalSymbol{Name: "blk_a", Address: 0x100, TypeId: arrA, Kind: symgraph.KindVariable})
	arrB := g.AddType(symgraph.Array{Element: f32a, Dimensions: []int{9}})
	g.AddGlobal(symgraph.GlobalSymbol{Name: "blk_b", Address: 0x200, TypeId: arrB, Kind: symgraph.KindVariable})

	module := a2lmodel.NewModule()
	_, err := Synthesize(g, "blk_a", newPolicy(), module, true)
	require.NoError(t, err)
	_, err = Synthesize(g, "blk_b", newPolicy(), module, true)
	require.NoError(t, err)

	assert.Equal(t, 1, module.RecordLayouts.Len())

	ca, _ := module.Characteristics.Get("blk_a")
	cb, _ := module.Characteristics.Get("blk_b")
	assert.Equal(t, ca.Deposit, cb.Deposit)
}

func TestSynthesizeEnumCreatesCompuMethod(t *testing.T) {
	g := symgraph.New()
	enumId := g.AddType(symgraph.Enum{
		Underlying:     symgraph.Base{Encoding: symgraph.EncInt, ByteSize: 4},
		EnumeratorName: []string{"RED", "GREEN", "BLUE"},
		EnumeratorVal:  map[string]int64{"RED": 0, "GREEN": 1, "BLUE": 2},
	})
	g.AddGlobal(symgraph.GlobalSymbol{Name: "color", Address: 0x400, TypeId: enumId, Kind: symgraph.KindVariable})

	module := a2lmodel.NewModule()
	_, err := Synthesize(g, "color", newPolicy(), module, false)
	require.NoError(t, err)

	m, ok := module.Measurements.Get("color")
	require.True(t, ok)
	assert.NotEqual(t, "NO_COMPU_METHOD", m.Conversion)

	cm, ok := module.CompuMethods.Get(m.Conversion)
	require.True(t, ok)
	assert.Equal(t, a2lmodel.CompuTabVerb, cm.Kind)

	tab, ok := module.CompuTabs.Get(cm.CompuTabRef)
	require.True(t, ok)
	assert.Len(t, tab.Entries, 3)
}

func TestSynthesizeBlobOnUnrecognizedStruct(t *testing.T) {
	g := symgraph.New()
	u8 := g.AddType(symgraph.Base{Encoding: symgraph.EncUint, ByteSize: 1})
	structId := g.ReserveType()
	g.SetType(structId, symgraph.Struct{
		Kind:     symgraph.KindStruct,
		ByteSize: 2,
		Members: []symgraph.Member{
			{Name: "a", OffsetBytes: 0, Type: u8},
			{Name: "b", OffsetBytes: 1, Type: u8},
		},
	})
	g.AddGlobal(symgraph.GlobalSymbol{Name: "opaque_blob", Address: 0x500, TypeId: structId, Kind: symgraph.KindVariable})

	module := a2lmodel.NewModule()
	result, err := Synthesize(g, "opaque_blob", newPolicy(), module, true)
	require.NoError(t, err)
	assert.Equal(t, EntityBlob, result.Kind)

	b, ok := module.Blobs.Get("opaque_blob")
	require.True(t, ok)
	assert.Equal(t, uint32(0x500), b.Address)
	assert.Equal(t, 2, b.Size)
}

func TestSynthesizeBlobOnArrayOfStructs(t *testing.T) {
	g := symgraph.New()
	u8 := g.AddType(symgraph.Base{Encoding: symgraph.EncUint, ByteSize: 1})
	structId := g.ReserveType()
	g.SetType(structId, symgraph.Struct{
		Kind:     symgraph.KindStruct,
		ByteSize: 2,
		Members: []symgraph.Member{
			{Name: "a", OffsetBytes: 0, Type: u8},
			{Name: "b", OffsetBytes: 1, Type: u8},
		},
	})
	arrId := g.AddType(symgraph.Array{Element: structId, Dimensions: []int{4}})
	g.AddGlobal(symgraph.GlobalSymbol{Name: "opaque_array", Address: 0x600, TypeId: arrId, Kind: symgraph.KindVariable})

	module := a2lmodel.NewModule()
	result, err := Synthesize(g, "opaque_array", newPolicy(), module, true)
	require.NoError(t, err)
	assert.Equal(t, EntityBlob, result.Kind)

	b, ok := module.Blobs.Get("opaque_array")
	require.True(t, ok)
	assert.Equal(t, 8, b.Size)
}

// TestSynthesizeInstanceForFreeStruct models spec.md §4.5's "free struct
// (use_structures=true, A2L >= 1.7.1)" row: a struct with no "value"
// member and no axis siblings must produce an INSTANCE bound to a
// TYPEDEF_STRUCTURE, not fall back to BLOB, once the caller opts in.
func TestSynthesizeInstanceForFreeStruct(t *testing.T) {
	g := symgraph.New()
	u32 := g.AddType(symgraph.Base{Encoding: symgraph.EncUint, ByteSize: 4})
	f32 := g.AddType(symgraph.Base{Encoding: symgraph.EncFloat, ByteSize: 4})
	structId := g.ReserveType()
	g.SetType(structId, symgraph.Struct{
		Kind:     symgraph.KindStruct,
		ByteSize: 8,
		Members: []symgraph.Member{
			{Name: "rpm", OffsetBytes: 0, Type: u32},
			{Name: "temp", OffsetBytes: 4, Type: f32},
		},
	})
	g.AddGlobal(symgraph.GlobalSymbol{Name: "EngineState", Address: 0x700, TypeId: structId, Kind: symgraph.KindVariable})

	policy := Policy{Version: a2lver.V1_7_1, UseStructures: true}
	module := a2lmodel.NewModule()
	result, err := Synthesize(g, "EngineState", policy, module, true)
	require.NoError(t, err)
	assert.Equal(t, EntityInstance, result.Kind)

	inst, ok := module.Instances.Get("EngineState")
	require.True(t, ok)
	assert.EqualValues(t, 0x700, inst.Address)
	assert.True(t, inst.AddressHex)
	require.NotEmpty(t, inst.TypeName)

	td, ok := module.TypedefStructures.Get(inst.TypeName)
	require.True(t, ok)
	require.Len(t, td.Components, 2)
	assert.Equal(t, "rpm", td.Components[0].Name)
	assert.Equal(t, "temp", td.Components[1].Name)

	_, ok = module.TypedefMeasurements.Get(td.Components[0].TypeName)
	assert.True(t, ok)
}

// TestSynthesizeInstanceRequiresStructuresSupport shows that the same
// free struct still falls back to BLOB when the policy hasn't opted in,
// or the target version predates TYPEDEF_STRUCTURE.
func TestSynthesizeInstanceRequiresStructuresSupport(t *testing.T) {
	g := symgraph.New()
	u32 := g.AddType(symgraph.Base{Encoding: symgraph.EncUint, ByteSize: 4})
	structId := g.ReserveType()
	g.SetType(structId, symgraph.Struct{
		Kind:     symgraph.KindStruct,
		ByteSize: 4,
		Members:  []symgraph.Member{{Name: "rpm", OffsetBytes: 0, Type: u32}},
	})
	g.AddGlobal(symgraph.GlobalSymbol{Name: "EngineState2", Address: 0x710, TypeId: structId, Kind: symgraph.KindVariable})

	module := a2lmodel.NewModule()
	result, err := Synthesize(g, "EngineState2", Policy{Version: a2lver.V1_7_0, UseStructures: true}, module, true)
	require.NoError(t, err)
	assert.Equal(t, EntityBlob, result.Kind)
}

// TestSynthesizeArraysAsBlocksFalseSplitsPerElement models spec.md §4.5's
// "1-D array of base... or arrays_as_blocks=false -> N individual
// descriptors" row.
func TestSynthesizeArraysAsBlocksFalseSplitsPerElement(t *testing.T) {
	g := symgraph.New()
	f32 := g.AddType(symgraph.Base{Encoding: symgraph.EncFloat, ByteSize: 4})
	arr := g.AddType(symgraph.Array{Element: f32, Dimensions: []int{3}})
	g.AddGlobal(symgraph.GlobalSymbol{Name: "Scalars", Address: 0x800, TypeId: arr, Kind: symgraph.KindVariable})

	policy := Policy{Version: a2lver.V1_7_1, ArraysAsBlocks: false}
	module := a2lmodel.NewModule()
	_, err := Synthesize(g, "Scalars", policy, module, true)
	require.NoError(t, err)

	_, isBlk := module.Characteristics.Get("Scalars")
	assert.False(t, isBlk, "no single VAL_BLK descriptor should be created")

	for i, addr := range []uint32{0x800, 0x804, 0x808} {
		name := fmt.Sprintf("Scalars[%d]", i)
		c, ok := module.Characteristics.Get(name)
		require.True(t, ok, "expected %s", name)
		assert.Equal(t, a2lmodel.KindValue, c.Kind)
		assert.Equal(t, addr, c.Address)
	}
}

// TestSynthesizeArraysAsBlocksFalseUsesOldNotation checks the
// old_array_notation branch of elementName's naming rule.
func TestSynthesizeArraysAsBlocksFalseUsesOldNotation(t *testing.T) {
	g := symgraph.New()
	f32 := g.AddType(symgraph.Base{Encoding: symgraph.EncFloat, ByteSize: 4})
	arr := g.AddType(symgraph.Array{Element: f32, Dimensions: []int{2}})
	g.AddGlobal(symgraph.GlobalSymbol{Name: "OldScalars", Address: 0x900, TypeId: arr, Kind: symgraph.KindVariable})

	policy := Policy{Version: a2lver.V1_7_1, ArraysAsBlocks: false, OldArrayNotation: true}
	module := a2lmodel.NewModule()
	_, err := Synthesize(g, "OldScalars", policy, module, true)
	require.NoError(t, err)

	_, ok := module.Characteristics.Get("OldScalars._0_")
	assert.True(t, ok)
	_, ok = module.Characteristics.Get("OldScalars._1_")
	assert.True(t, ok)
}
