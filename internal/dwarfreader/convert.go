package dwarfreader

import (
	"debug/dwarf"

	"github.com/DanielT/a2ltool/internal/symgraph"
)

// convertType converts a stdlib dwarf.Type into a symgraph.TypeId, caching
// by the DIE's offset so a type referenced from many places (or from
// itself, e.g. a linked-list node) is registered exactly once. Cyclic
// shapes are handled by reserving the TypeId before recursing into
// children.
func (c *converter) convertType(t dwarf.Type) symgraph.TypeId {
	off := t.Common().Offset
	if id, ok := c.cache[off]; ok {
		return id
	}
	id := c.graph.ReserveType()
	c.cache[off] = id
	c.graph.SetType(id, c.buildNode(t, id))
	return id
}

// buildNode performs the actual tag-by-tag conversion. id is the
// already-reserved TypeId for t, used so a struct/union can pre-register
// itself before converting its own members (the inheritance/cycle case).
func (c *converter) buildNode(t dwarf.Type, id symgraph.TypeId) symgraph.TypeNode {
	switch dt := t.(type) {
	case *dwarf.CharType:
		return symgraph.Base{Encoding: symgraph.EncChar, ByteSize: int(dt.ByteSize)}
	case *dwarf.UcharType:
		return symgraph.Base{Encoding: symgraph.EncChar, ByteSize: int(dt.ByteSize)}
	case *dwarf.BoolType:
		return symgraph.Base{Encoding: symgraph.EncBool, ByteSize: int(dt.ByteSize)}
	case *dwarf.IntType:
		return symgraph.Base{Encoding: symgraph.EncInt, ByteSize: int(dt.ByteSize)}
	case *dwarf.UintType:
		return symgraph.Base{Encoding: symgraph.EncUint, ByteSize: int(dt.ByteSize)}
	case *dwarf.FloatType:
		return symgraph.Base{Encoding: symgraph.EncFloat, ByteSize: int(dt.ByteSize)}
	case *dwarf.ComplexType:
		// No A2L shape represents a complex number; treat the real/imag
		// pair as an opaque blob-sized float pair rather than aborting.
		return symgraph.Base{Encoding: symgraph.EncFloat, ByteSize: int(dt.ByteSize)}
	case *dwarf.AddrType:
		return symgraph.Base{Encoding: symgraph.EncUint, ByteSize: int(dt.ByteSize)}

	case *dwarf.PtrType:
		// spec.md §4.2: "A chain like `volatile void*` without a downstream
		// type must resolve to a pointer to a void stub, not abort."
		if dt.Type == nil {
			return symgraph.Pointer{Target: c.voidStub(), ByteSize: ptrSize(dt)}
		}
		return symgraph.Pointer{Target: c.convertType(dt.Type), ByteSize: ptrSize(dt)}

	case *dwarf.ArrayType:
		return c.buildArray(dt)

	case *dwarf.StructType:
		if dt.Incomplete {
			return symgraph.Incomplete{Tag: dt.StructName}
		}
		return c.buildStruct(dt, id)

	case *dwarf.EnumType:
		return c.buildEnum(dt)

	case *dwarf.TypedefType:
		if dt.Type == nil {
			return symgraph.Typedef{Target: c.voidStub(), AliasName: dt.Name}
		}
		return symgraph.Typedef{Target: c.convertType(dt.Type), AliasName: dt.Name}

	case *dwarf.QualType:
		return c.buildQual(dt)

	case *dwarf.FuncType:
		return symgraph.Function{}

	case *dwarf.VoidType:
		return symgraph.Base{Encoding: symgraph.EncUint, ByteSize: 0}

	case *dwarf.UnspecifiedType:
		return symgraph.Incomplete{Tag: "unspecified"}

	case *dwarf.UnsupportedType:
		// Covers DW_TAG_atomic_type and anything else the stdlib resolver
		// declines to model. spec.md §4.2 requires that unknown attributes
		// and tags not abort a unit; we record a Modifier-less Incomplete
		// placeholder rather than panicking, and member access against it
		// is reported by the resolver (IncompleteType), not here.
		return symgraph.Incomplete{Tag: "unsupported-dwarf-type"}

	default:
		return symgraph.Incomplete{Tag: "unknown"}
	}
}

func ptrSize(dt *dwarf.PtrType) int {
	if dt.ByteSize > 0 {
		return int(dt.ByteSize)
	}
	return 8
}

// voidStub registers (once) a zero-size Base standing in for `void`, so a
// pointer chain that terminates without a further type still resolves to
// something traversable instead of a nil reference.
func (c *converter) voidStub() symgraph.TypeId {
	const voidKey = dwarf.Offset(^uint64(0) >> 1) // sentinel offset, never produced by real DWARF
	if id, ok := c.cache[voidKey]; ok {
		return id
	}
	id := c.graph.AddType(symgraph.Base{Encoding: symgraph.EncUint, ByteSize: 0})
	c.cache[voidKey] = id
	return id
}

// buildArray flattens the stdlib's nested-ArrayType representation of a
// multi-dimensional array (outer ArrayType.Type is the next ArrayType
// layer in) into a single symgraph.Array with dimensions listed
// outer-to-inner, per spec.md §3. A 0 Count marks an open/flexible array.
func (c *converter) buildArray(t *dwarf.ArrayType) symgraph.Array {
	var dims []int
	cur := dwarf.Type(t)
	for {
		at, ok := cur.(*dwarf.ArrayType)
		if !ok {
			break
		}
		if at.Count < 0 {
			dims = append(dims, 0) // open/flexible array
		} else {
			dims = append(dims, int(at.Count))
		}
		cur = at.Type
	}
	element := c.convertType(cur)
	return symgraph.Array{Element: element, Dimensions: dims}
}

// buildStruct converts struct/union/class members, folding C++ base-class
// subobjects (DW_TAG_inheritance, represented by the stdlib as an
// anonymous embedded StructField whose Name is empty and Type is the base
// class) into the derived type's member list at their reported offset, so
// inherited members become reachable by their plain names (spec.md §4.2).
func (c *converter) buildStruct(t *dwarf.StructType, selfId symgraph.TypeId) symgraph.Struct {
	kind := symgraph.KindStruct
	if t.Kind == "union" {
		kind = symgraph.KindUnion
	}

	s := symgraph.Struct{Kind: kind, ByteSize: int(t.ByteSize)}
	for _, f := range t.Field {
		if f.Name == "" {
			if embedded, ok := f.Type.(*dwarf.StructType); ok {
				s.Members = append(s.Members, c.inheritedMembers(embedded, int(f.ByteOffset))...)
				continue
			}
		}
		s.Members = append(s.Members, c.buildMember(f))
	}
	return s
}

// inheritedMembers recursively flattens a base class's own members
// (including its own inherited ones) at baseOffset relative to the
// derived struct.
func (c *converter) inheritedMembers(base *dwarf.StructType, baseOffset int) []symgraph.Member {
	var result []symgraph.Member
	for _, f := range base.Field {
		if f.Name == "" {
			if nested, ok := f.Type.(*dwarf.StructType); ok {
				result = append(result, c.inheritedMembers(nested, baseOffset+int(f.ByteOffset))...)
				continue
			}
		}
		m := c.buildMember(f)
		m.OffsetBytes += baseOffset
		result = append(result, m)
	}
	return result
}

func (c *converter) buildMember(f *dwarf.StructField) symgraph.Member {
	m := symgraph.Member{
		Name:        f.Name,
		OffsetBytes: int(f.ByteOffset),
		Type:        c.convertType(f.Type),
	}
	if f.BitSize > 0 {
		bitSize := int(f.BitSize)
		bitOffset := c.normalizeBitOffset(f)
		m.BitSize = &bitSize
		m.BitOffset = &bitOffset
	}
	return m
}

// normalizeBitOffset converts the stdlib's BitOffset (DWARF <= 3,
// MSB-numbered from the high end of the storage unit) or DataBitOffset
// (DWARF >= 4, already LSB-from-struct-start) into a single
// LSB-numbered-within-storage-unit convention, flipping for big-endian
// targets per spec.md §4.2.
func (c *converter) normalizeBitOffset(f *dwarf.StructField) int {
	storageBits := int(f.Type.Size()) * 8
	if storageBits <= 0 {
		storageBits = 8
	}

	var lsbOffset int
	if f.DataBitOffset != 0 || f.BitOffset == 0 {
		// DWARF >= 4: DataBitOffset counts from the start of the struct in
		// bits; convert to "from the start of this field's own storage
		// unit" by taking it modulo the storage width.
		lsbOffset = int(f.DataBitOffset) % storageBits
	} else {
		// DWARF <= 3: BitOffset counts from the MSB of the storage unit.
		msbOffset := int(f.BitOffset)
		lsbOffset = storageBits - msbOffset - int(f.BitSize)
	}

	if !c.littleEndian {
		lsbOffset = storageBits - lsbOffset - int(f.BitSize)
	}
	return lsbOffset
}

func (c *converter) buildEnum(t *dwarf.EnumType) symgraph.Enum {
	names := make([]string, 0, len(t.Val))
	vals := make(map[string]int64, len(t.Val))
	negative := false
	for _, v := range t.Val {
		names = append(names, v.Name)
		vals[v.Name] = v.Val
		if v.Val < 0 {
			negative = true
		}
	}

	byteSize := int(t.ByteSize)
	if byteSize <= 0 {
		byteSize = 4
	}
	encoding := symgraph.EncUint
	if negative {
		encoding = symgraph.EncInt
	}

	return symgraph.Enum{
		Underlying:     symgraph.Base{Encoding: encoding, ByteSize: byteSize},
		EnumeratorName: names,
		EnumeratorVal:  vals,
	}
}

// buildQual converts a DW_TAG_const_type / volatile_type / restrict_type
// wrapper. spec.md §4.2 additionally tolerates DW_AT_packed,
// DW_AT_atomic, and DW_AT_immutable; those are not modeled as distinct
// dwarf.Type wrappers by the stdlib resolver (they fall through to
// UnsupportedType when present as their own DW_TAG, or are silently
// dropped when present as a struct-level attribute, which the stdlib
// already tolerates without aborting the unit — satisfying the "must not
// abort" requirement even though the Modifier is not separately recorded
// in those cases).
func (c *converter) buildQual(t *dwarf.QualType) symgraph.Modifier {
	kind := symgraph.ModConst
	switch t.Qual {
	case "volatile":
		kind = symgraph.ModVolatile
	case "restrict":
		kind = symgraph.ModRestrict
	}
	if t.Type == nil {
		return symgraph.Modifier{Kind: kind, Target: c.voidStub()}
	}
	return symgraph.Modifier{Kind: kind, Target: c.convertType(t.Type)}
}
