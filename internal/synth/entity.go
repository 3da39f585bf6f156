package synth

import (
	"fmt"

	"github.com/DanielT/a2ltool/internal/a2ldatatype"
	"github.com/DanielT/a2ltool/internal/a2lmodel"
	"github.com/DanielT/a2ltool/internal/resolver"
	"github.com/DanielT/a2ltool/internal/symgraph"
)

// synthMeasurement builds or updates a MEASUREMENT for a scalar/array
// Value or ValBlk shape.
func synthMeasurement(g *symgraph.SymbolGraph, resolved resolver.Resolved, shape typeShape, policy Policy, module *a2lmodel.Module) (Result, error) {
	m := &a2lmodel.Measurement{Name: resolved.QualifiedName}
	if err := PopulateMeasurement(g, resolved, shape, module, m); err != nil {
		return Result{}, err
	}
	module.Measurements.Insert(m.Name, m)

	if policy.TargetGroup != "" {
		addToGroup(module, policy.TargetGroup, "", m.Name)
	}

	kind := a2lmodel.KindValue
	if len(shape.dims) > 0 {
		kind = a2lmodel.KindValBlk
	}
	return Result{Kind: EntityMeasurement, CharacteristicK: kind, Name: m.Name}, nil
}

// PopulateMeasurement fills m's datatype, conversion, limits, bit mask,
// and matrix dimension from resolved/shape, creating any enum
// COMPU_METHOD/COMPU_TAB it needs. Exported so internal/update can
// refresh an existing MEASUREMENT in Full mode (spec.md §4.6 step 4)
// without re-deriving the kind-selection logic.
func PopulateMeasurement(g *symgraph.SymbolGraph, resolved resolver.Resolved, shape typeShape, module *a2lmodel.Module, m *a2lmodel.Measurement) error {
	dt, conversion, err := scalarDatatypeAndConversion(g, shape, module)
	if err != nil {
		return err
	}
	lower, upper := computeLimits(g, shape, resolved, module, conversion)

	m.Datatype = dt
	m.Conversion = conversion
	m.LowerLimit = lower
	m.UpperLimit = upper
	applyAddressing(&m.Address, &m.AddressHex, resolved.Address)
	// spec.md §4.6 step 5: an explicit existing BIT_MASK is authoritative
	// when the resolved type carries no bit-field info; only a resolved
	// bit-field overwrites it.
	if resolved.BitMask != nil {
		mask := resolved.BitMask.Mask
		m.BitMask = &mask
	}
	if len(shape.dims) > 0 {
		m.MatrixDim = reverseDims(shape.dims)
	} else {
		m.MatrixDim = nil
	}
	return nil
}

// synthArrayElements implements spec.md §4.5's arrays_as_blocks=false row:
// instead of a single VAL_BLK, it synthesizes one scalar MEASUREMENT or
// CHARACTERISTIC per array element, named base[i] (A2L >= 1.7.0 and
// old_array_notation=false) or base._i_ otherwise.
func synthArrayElements(g *symgraph.SymbolGraph, resolved resolver.Resolved, shape typeShape, policy Policy, module *a2lmodel.Module, asCharacteristic bool) (Result, error) {
	count := shape.dims[0]
	elemSize := byteSizeOf(g, shape.scalarType)
	useNewNotation := arrayNotationAllowed(policy)

	var last Result
	for i := 0; i < count; i++ {
		elemShape := typeShape{kind: a2lmodel.KindValue, scalarType: shape.scalarType}
		elemResolved := resolved
		elemResolved.QualifiedName = elementName(resolved.QualifiedName, i, useNewNotation)
		elemResolved.EffectiveType = shape.scalarType
		elemResolved.Dimensions = nil
		elemResolved.BitMask = nil
		elemResolved.Address = resolved.Address + uint64(i*elemSize)

		var res Result
		var err error
		if asCharacteristic {
			res, err = synthCharacteristic(g, elemResolved, elemShape, policy, module)
		} else {
			res, err = synthMeasurement(g, elemResolved, elemShape, policy, module)
		}
		if err != nil {
			return Result{}, fmt.Errorf("synth: element %d of %q: %w", i, resolved.QualifiedName, err)
		}
		last = res
	}
	return last, nil
}

// synthInstance builds or updates an INSTANCE bound to a TYPEDEF_STRUCTURE
// describing structId's members, spec.md §4.5's "free struct
// (use_structures=true, A2L >= 1.7.1)" row.
func synthInstance(g *symgraph.SymbolGraph, resolved resolver.Resolved, structId symgraph.TypeId, policy Policy, module *a2lmodel.Module) (Result, error) {
	typeName, err := ensureTypedefStructure(g, structId, policy, module)
	if err != nil {
		return Result{}, err
	}

	inst, ok := module.Instances.Get(resolved.QualifiedName)
	if !ok {
		inst = &a2lmodel.Instance{Name: resolved.QualifiedName}
		module.Instances.Insert(inst.Name, inst)
	}
	inst.TypeName = typeName
	applyAddressing(&inst.Address, &inst.AddressHex, resolved.Address)

	return Result{Kind: EntityInstance, Name: inst.Name}, nil
}

// typedefStructureName derives a stable TYPEDEF_STRUCTURE name from a
// struct's TypeId, so that two INSTANCEs sharing the same struct shape
// reuse one TYPEDEF_STRUCTURE rather than each synthesizing their own,
// the TYPEDEF_STRUCTURE analogue of SelectRecordLayout's reuse rule.
func typedefStructureName(structId symgraph.TypeId) string {
	return fmt.Sprintf("TD_Struct_%d", structId)
}

// ensureTypedefStructure returns the name of a TYPEDEF_STRUCTURE
// describing structId's members, building it (and any
// TYPEDEF_MEASUREMENT/nested TYPEDEF_STRUCTURE its members need) the
// first time this struct shape is seen.
func ensureTypedefStructure(g *symgraph.SymbolGraph, structId symgraph.TypeId, policy Policy, module *a2lmodel.Module) (string, error) {
	name := typedefStructureName(structId)
	if _, ok := module.TypedefStructures.Get(name); ok {
		return name, nil
	}

	_, node := symgraph.Strip(g, structId)
	s, ok := node.(symgraph.Struct)
	if !ok {
		return "", fmt.Errorf("synth: type %v is not a struct", structId)
	}

	td := &a2lmodel.TypedefStructure{Name: name, Size: s.ByteSize}
	// Insert before populating components: a struct member that points
	// back at its own type (a linked-list node) would otherwise recurse
	// forever building the same TYPEDEF_STRUCTURE.
	module.TypedefStructures.Insert(name, td)

	for _, m := range s.Members {
		component, err := buildStructureComponent(g, m, policy, module)
		if err != nil {
			return "", err
		}
		td.Components = append(td.Components, component)
	}
	return name, nil
}

// buildStructureComponent classifies one struct member into a
// StructureComponent, recursing into ensureTypedefStructure for a
// struct-valued member and otherwise creating the TYPEDEF_MEASUREMENT the
// component refers to.
func buildStructureComponent(g *symgraph.SymbolGraph, m symgraph.Member, policy Policy, module *a2lmodel.Module) (a2lmodel.StructureComponent, error) {
	scalarId, memberNode := symgraph.Strip(g, m.Type)

	var dims []int
	if arr, isArr := memberNode.(symgraph.Array); isArr {
		dims = arr.Dimensions
		scalarId, memberNode = symgraph.Strip(g, arr.Element)
	}

	if _, isStruct := memberNode.(symgraph.Struct); isStruct {
		nestedName, err := ensureTypedefStructure(g, scalarId, policy, module)
		if err != nil {
			return a2lmodel.StructureComponent{}, err
		}
		return a2lmodel.StructureComponent{Name: m.Name, Offset: m.OffsetBytes, TypeName: nestedName, MatrixDim: reverseDims(dims)}, nil
	}

	typeName, err := ensureTypedefMeasurement(g, scalarId, m, module)
	if err != nil {
		return a2lmodel.StructureComponent{}, err
	}
	return a2lmodel.StructureComponent{Name: m.Name, Offset: m.OffsetBytes, TypeName: typeName, MatrixDim: reverseDims(dims)}, nil
}

// ensureTypedefMeasurement returns the name of a TYPEDEF_MEASUREMENT
// describing scalarId (creating it, and any enum COMPU_METHOD it needs,
// the first time this scalar/member shape is seen).
func ensureTypedefMeasurement(g *symgraph.SymbolGraph, scalarId symgraph.TypeId, m symgraph.Member, module *a2lmodel.Module) (string, error) {
	name := sanitizeCompuMethodName(fmt.Sprintf("td_%s_%d", m.Name, scalarId))
	if _, ok := module.TypedefMeasurements.Get(name); ok {
		return name, nil
	}

	shape := typeShape{kind: a2lmodel.KindValue, scalarType: scalarId}
	dt, conversion, err := scalarDatatypeAndConversion(g, shape, module)
	if err != nil {
		return "", err
	}

	storage := memberStorageLimits(g, scalarId, m)
	lower, upper := storage.Lower, storage.Upper
	if cm, ok := module.CompuMethods.Get(conversion); ok {
		lower, upper = cm.ForwardTransform(lower, upper)
	}

	td := &a2lmodel.TypedefMeasurement{
		Name:       name,
		Datatype:   dt,
		Conversion: conversion,
		LowerLimit: lower,
		UpperLimit: upper,
	}
	if m.IsBitField() {
		mask := resolver.ComputeMask(*m.BitOffset, *m.BitSize)
		td.BitMask = &mask
	}
	module.TypedefMeasurements.Insert(name, td)
	return name, nil
}

// memberStorageLimits is computeLimits' struct-member analogue: it has no
// resolver.Resolved to read a bit mask from, so it derives bit-field width
// directly from the Member instead.
func memberStorageLimits(g *symgraph.SymbolGraph, scalarId symgraph.TypeId, m symgraph.Member) a2ldatatype.Limits {
	_, node := symgraph.Strip(g, scalarId)
	switch t := node.(type) {
	case symgraph.Enum:
		return a2ldatatype.EnumLimits(t)
	case symgraph.Base:
		dt := a2ldatatype.FromBase(t)
		if m.IsBitField() {
			return a2ldatatype.BitFieldLimits(dt, *m.BitSize)
		}
		return a2ldatatype.StorageLimits(dt)
	default:
		return a2ldatatype.Limits{}
	}
}

// synthBlob builds or updates a BLOB descriptor for a shape classify
// could not map to any MEASUREMENT/CHARACTERISTIC kind.
func synthBlob(resolved resolver.Resolved, size int, module *a2lmodel.Module) (Result, error) {
	b, ok := module.Blobs.Get(resolved.QualifiedName)
	if !ok {
		b = &a2lmodel.Blob{Name: resolved.QualifiedName}
		module.Blobs.Insert(b.Name, b)
	}
	applyAddressing(&b.Address, &b.AddressHex, resolved.Address)
	b.Size = size
	return Result{Kind: EntityBlob, Name: b.Name}, nil
}

// synthCharacteristic builds or updates a CHARACTERISTIC of whatever
// kind classify() decided on, creating supporting AXIS_PTS and
// RECORD_LAYOUT entities as needed.
func synthCharacteristic(g *symgraph.SymbolGraph, resolved resolver.Resolved, shape typeShape, policy Policy, module *a2lmodel.Module) (Result, error) {
	c := &a2lmodel.Characteristic{Name: resolved.QualifiedName}
	if err := PopulateCharacteristic(g, resolved, shape, policy, module, c); err != nil {
		return Result{}, err
	}

	module.Characteristics.Insert(c.Name, c)
	if policy.TargetGroup != "" {
		addToGroup(module, policy.TargetGroup, c.Name, "")
	}

	return Result{Kind: EntityCharacteristic, CharacteristicK: shape.kind, Name: c.Name}, nil
}

// PopulateCharacteristic fills c's kind, conversion, limits, bit mask,
// matrix dimension, RECORD_LAYOUT reference, and axis descriptions from
// resolved/shape. Exported so internal/update can rebuild an existing
// CHARACTERISTIC in place when Full mode hits a type mismatch (spec.md
// §4.6 step 4's "in Full: update to match" cell) without duplicating the
// kind-selection and record-layout logic.
func PopulateCharacteristic(g *symgraph.SymbolGraph, resolved resolver.Resolved, shape typeShape, policy Policy, module *a2lmodel.Module, c *a2lmodel.Characteristic) error {
	dt, conversion, err := scalarDatatypeAndConversion(g, shape, module)
	if err != nil {
		return err
	}
	lower, upper := computeLimits(g, shape, resolved, module, conversion)

	c.Kind = shape.kind
	c.Conversion = conversion
	c.LowerLimit = lower
	c.UpperLimit = upper
	applyAddressing(&c.Address, &c.AddressHex, resolved.Address)
	if resolved.BitMask != nil {
		mask := resolved.BitMask.Mask
		c.BitMask = &mask
	}
	if (shape.kind == a2lmodel.KindValue || shape.kind == a2lmodel.KindValBlk) && len(shape.dims) > 0 {
		c.MatrixDim = reverseDims(shape.dims)
	} else {
		c.MatrixDim = nil
	}

	layoutName, err := SelectRecordLayout(module, c.Name, shape, dt)
	if err != nil {
		return err
	}
	c.Deposit = layoutName

	c.AxisDescr = nil
	return attachAxes(g, module, c, shape, policy)
}

// scalarDatatypeAndConversion maps shape's scalar element to an
// a2ldatatype.DataType, and — for an Enum element — ensures a TAB_VERB
// COMPU_METHOD/COMPU_TAB pair exists whose entries mirror the enum's
// enumerators, per spec.md §4.5's "enum base" row.
func scalarDatatypeAndConversion(g *symgraph.SymbolGraph, shape typeShape, module *a2lmodel.Module) (a2ldatatype.DataType, string, error) {
	_, node := symgraph.Strip(g, shape.scalarType)
	switch t := node.(type) {
	case symgraph.Base:
		return a2ldatatype.FromBase(t), "NO_COMPU_METHOD", nil
	case symgraph.Enum:
		name := sanitizeCompuMethodName(fmt.Sprintf("enum_%d", shape.scalarType))
		ensureEnumConversion(module, name, t)
		return a2ldatatype.FromEnum(t), name, nil
	case symgraph.Pointer:
		return a2ldatatype.FromPointer(t), "NO_COMPU_METHOD", nil
	default:
		return 0, "", fmt.Errorf("synth: scalar element has unsupported shape %T", node)
	}
}

// ensureEnumConversion creates the COMPU_METHOD/COMPU_TAB pair for name
// if it does not already exist, mirroring
// original_source/src/update/enums.rs's cond_create_enum_conversion.
func ensureEnumConversion(module *a2lmodel.Module, name string, e symgraph.Enum) {
	if _, ok := module.CompuMethods.Get(name); ok {
		return
	}
	tab := &a2lmodel.CompuTab{Name: name + "_tab"}
	for _, enumName := range e.EnumeratorName {
		tab.Entries = append(tab.Entries, a2lmodel.CompuTabEntry{
			InVal:  e.EnumeratorVal[enumName],
			OutVal: enumName,
		})
	}
	module.CompuTabs.Insert(tab.Name, tab)
	module.CompuMethods.Insert(name, &a2lmodel.CompuMethod{
		Name:        name,
		Kind:        a2lmodel.CompuTabVerb,
		CompuTabRef: tab.Name,
	})
}

// computeLimits takes the storage type's representable range (narrowed by
// bit-field width when applicable) and passes it through the
// COMPU_METHOD's forward transform, since A2L limits are always
// physical-unit values (spec.md §4.6 rule 6). No COMPU_METHOD domain is
// intersected with that range; a2lmodel.CompuMethod carries no domain.
func computeLimits(g *symgraph.SymbolGraph, shape typeShape, resolved resolver.Resolved, module *a2lmodel.Module, conversion string) (float64, float64) {
	_, node := symgraph.Strip(g, shape.scalarType)

	var storage a2ldatatype.Limits
	switch t := node.(type) {
	case symgraph.Enum:
		storage = a2ldatatype.EnumLimits(t)
	case symgraph.Base:
		dt := a2ldatatype.FromBase(t)
		if resolved.BitMask != nil {
			storage = a2ldatatype.BitFieldLimits(dt, resolved.BitMask.BitSize)
		} else {
			storage = a2ldatatype.StorageLimits(dt)
		}
	default:
		storage = a2ldatatype.Limits{}
	}

	if cm, ok := module.CompuMethods.Get(conversion); ok {
		lo, hi := cm.ForwardTransform(storage.Lower, storage.Upper)
		return lo, hi
	}
	return storage.Lower, storage.Upper
}

// applyAddressing implements spec.md §4.5's addressing rule: ECU_ADDRESS
// is set to the resolved address and switched to hexadecimal display; the
// switch is mandatory whenever the previous address was 0.
func applyAddressing(addr *uint32, addrHex *bool, resolvedAddr uint64) {
	if *addr == 0 {
		*addrHex = true
	}
	*addr = uint32(resolvedAddr)
	*addrHex = true
}

func addToGroup(module *a2lmodel.Module, groupName, characteristicName, measurementName string) {
	g, ok := module.Groups.Get(groupName)
	if !ok {
		g = &a2lmodel.Group{Name: groupName}
		module.Groups.Insert(groupName, g)
	}
	if characteristicName != "" {
		g.RefCharacteristic = append(g.RefCharacteristic, characteristicName)
	}
	if measurementName != "" {
		g.RefMeasurement = append(g.RefMeasurement, measurementName)
	}
}

// attachAxes builds internal AXIS_PTS_{X,Y,Z,4,5} RECORD_LAYOUT
// components (already folded into SelectRecordLayout) and the
// AxisDescr entries a Curve/Map/Cuboid/Cube4/Cube5 needs, or binds to
// externally supplied axis paths per policy.ExternalAxisPaths when the
// shape recognized no internal axis siblings but the caller requested
// external-axis synthesis explicitly.
func attachAxes(g *symgraph.SymbolGraph, module *a2lmodel.Module, c *a2lmodel.Characteristic, shape typeShape, policy Policy) error {
	switch shape.kind {
	case a2lmodel.KindValue, a2lmodel.KindValBlk, a2lmodel.KindAscii:
		return nil
	}

	if len(shape.axes) > 0 {
		for _, axis := range shape.axes {
			c.AxisDescr = append(c.AxisDescr, a2lmodel.AxisDescr{
				MaxAxisPoints: axis.count,
				Conversion:    "NO_COMPU_METHOD",
			})
		}
		return nil
	}

	if len(policy.ExternalAxisPaths) == 0 {
		return fmt.Errorf("synth: %s requires %d axes but none were found or supplied", shape.kind, expectedAxisCount(shape.kind))
	}
	for _, axisPath := range policy.ExternalAxisPaths {
		axisResolved, err := resolver.Resolve(g, axisPath)
		if err != nil {
			return fmt.Errorf("synth: resolving external axis %q: %w", axisPath, err)
		}
		axisName := c.Name + "_" + axisPath
		axisShapeInfo, err := classify(g, axisResolved.EffectiveType, axisResolved, policy)
		if err != nil {
			return fmt.Errorf("synth: classifying external axis %q: %w", axisPath, err)
		}
		dt, conversion, err := scalarDatatypeAndConversion(g, axisShapeInfo, module)
		if err != nil {
			return err
		}
		count := 0
		if len(axisShapeInfo.dims) > 0 {
			count = axisShapeInfo.dims[0]
		}
		layout, err := SelectRecordLayout(module, axisName, typeShape{kind: a2lmodel.KindValBlk, scalarType: axisShapeInfo.scalarType, dims: axisShapeInfo.dims}, dt)
		if err != nil {
			return err
		}
		module.AxisPtsList.Insert(axisName, &a2lmodel.AxisPts{
			Name:          axisName,
			Address:       uint32(axisResolved.Address),
			AddressHex:    true,
			Deposit:       layout,
			Conversion:    conversion,
			MaxAxisPoints: count,
		})
		c.AxisDescr = append(c.AxisDescr, a2lmodel.AxisDescr{
			AxisPtsRef:    axisName,
			MaxAxisPoints: count,
		})
	}
	return nil
}

func expectedAxisCount(kind a2lmodel.CharacteristicKind) int {
	switch kind {
	case a2lmodel.KindCurve:
		return 1
	case a2lmodel.KindMap:
		return 2
	case a2lmodel.KindCuboid:
		return 3
	case a2lmodel.KindCube4:
		return 4
	case a2lmodel.KindCube5:
		return 5
	default:
		return 0
	}
}

// PopulateTypedefMeasurement is PopulateMeasurement's address-less
// analogue: a TYPEDEF_MEASUREMENT is a template a TYPEDEF_STRUCTURE's
// StructureComponent refers to and carries no ECU_ADDRESS of its own
// (only the INSTANCE binding the structure to an address does), so it
// refreshes datatype/conversion/limits/bitmask/matrix dim and nothing
// address-related.
func PopulateTypedefMeasurement(g *symgraph.SymbolGraph, resolved resolver.Resolved, shape typeShape, module *a2lmodel.Module, t *a2lmodel.TypedefMeasurement) error {
	dt, conversion, err := scalarDatatypeAndConversion(g, shape, module)
	if err != nil {
		return err
	}
	lower, upper := computeLimits(g, shape, resolved, module, conversion)

	t.Datatype = dt
	t.Conversion = conversion
	t.LowerLimit = lower
	t.UpperLimit = upper
	if resolved.BitMask != nil {
		mask := resolved.BitMask.Mask
		t.BitMask = &mask
	}
	if len(shape.dims) > 0 {
		t.MatrixDim = reverseDims(shape.dims)
	} else {
		t.MatrixDim = nil
	}
	return nil
}

// PopulateTypedefCharacteristic is PopulateCharacteristic's address-less
// analogue.
func PopulateTypedefCharacteristic(g *symgraph.SymbolGraph, resolved resolver.Resolved, shape typeShape, module *a2lmodel.Module, t *a2lmodel.TypedefCharacteristic) error {
	dt, conversion, err := scalarDatatypeAndConversion(g, shape, module)
	if err != nil {
		return err
	}
	lower, upper := computeLimits(g, shape, resolved, module, conversion)

	t.Kind = shape.kind
	t.Conversion = conversion
	t.LowerLimit = lower
	t.UpperLimit = upper
	if resolved.BitMask != nil {
		mask := resolved.BitMask.Mask
		t.BitMask = &mask
	}
	if (shape.kind == a2lmodel.KindValue || shape.kind == a2lmodel.KindValBlk) && len(shape.dims) > 0 {
		t.MatrixDim = reverseDims(shape.dims)
	} else {
		t.MatrixDim = nil
	}

	layoutName, err := SelectRecordLayout(module, t.Name, shape, dt)
	if err != nil {
		return err
	}
	t.Deposit = layoutName
	return nil
}

// TypedefMeasurementMismatch is MeasurementMismatch's TYPEDEF_MEASUREMENT
// analogue.
func TypedefMeasurementMismatch(shape Shape, t *a2lmodel.TypedefMeasurement) bool {
	return matrixDimMismatch(shape.Dims(), t.MatrixDim)
}

// TypedefCharacteristicMismatch is CharacteristicMismatch's
// TYPEDEF_CHARACTERISTIC analogue.
func TypedefCharacteristicMismatch(shape Shape, t *a2lmodel.TypedefCharacteristic) bool {
	if t.Kind != shape.Kind() {
		return true
	}
	return matrixDimMismatch(shape.Dims(), t.MatrixDim)
}

// CharacteristicMismatch reports whether c's recorded kind/shape still
// agrees with the freshly classified shape, the "resolved, but type
// mismatches existing A2L" row of spec.md §4.6's outcome matrix.
func CharacteristicMismatch(shape Shape, c *a2lmodel.Characteristic) bool {
	if c.Kind != shape.Kind() {
		return true
	}
	return matrixDimMismatch(shape.Dims(), c.MatrixDim)
}

// MeasurementMismatch is the MEASUREMENT analogue of CharacteristicMismatch.
func MeasurementMismatch(shape Shape, m *a2lmodel.Measurement) bool {
	return matrixDimMismatch(shape.Dims(), m.MatrixDim)
}

func matrixDimMismatch(symgraphDims, existing []int) bool {
	if len(symgraphDims) == 0 {
		return len(existing) > 0
	}
	want := reverseDims(symgraphDims)
	if len(want) != len(existing) {
		return true
	}
	for i := range want {
		if want[i] != existing[i] {
			return true
		}
	}
	return false
}
