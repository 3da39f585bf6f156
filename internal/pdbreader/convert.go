package pdbreader

import (
	"strings"

	"github.com/jtang613/gopdb/pdb"
	"github.com/sirupsen/logrus"

	"github.com/DanielT/a2ltool/internal/symgraph"
)

// converter mirrors dwarfreader's converter: a type registry under
// construction plus the source library's own index-keyed type table.
type converter struct {
	graph        *symgraph.SymbolGraph
	byIndex      map[uint32]symgraph.TypeId
	typesByIndex map[uint32]pdb.TypeInfo
	log          logrus.FieldLogger
	voidStubId   *symgraph.TypeId
}

// buildNode converts one gopdb TypeInfo record into a symgraph.TypeNode.
// gopdb reports structural kind as a string tag ("struct", "union",
// "pointer", "array", "enum", "base", "bitfield", ...) rather than a
// closed Go type hierarchy, so the switch is on Kind instead of on a type
// assertion, the PDB analogue of the DWARF back-end's tag switch.
func (c *converter) buildNode(t pdb.TypeInfo) symgraph.TypeNode {
	switch strings.ToLower(t.Kind) {
	case "struct", "class":
		return c.buildStruct(t, symgraph.KindStruct)
	case "union":
		return c.buildStruct(t, symgraph.KindUnion)
	case "pointer":
		target := c.resolveMemberType(t)
		return symgraph.Pointer{Target: target, ByteSize: int(t.Size)}
	case "array":
		target := c.resolveMemberType(t)
		return symgraph.Array{Element: target, Dimensions: []int{int(t.Size)}}
	case "enum":
		return c.buildEnum(t)
	case "forward", "incomplete":
		return symgraph.Incomplete{Tag: t.Name}
	case "bitfield":
		// gopdb surfaces a bit-field as its own TypeInfo pointing at the
		// base integer via Signature; treated as that base type here.
		// The bit position and width are not recorded: buildStruct sets
		// no BitOffset/BitSize, so such a member reads as its whole
		// storage unit.
		return c.baseFromSize(t)
	default:
		return c.baseFromSize(t)
	}
}

// resolveMemberType looks up the single referenced type a pointer or
// array TypeInfo points at, encoded by gopdb as the first Member entry
// (gopdb has no separate "element type index" field on TypeInfo; it
// reuses the Members slice for this single-entry case).
func (c *converter) resolveMemberType(t pdb.TypeInfo) symgraph.TypeId {
	if len(t.Members) == 0 {
		return c.voidStub()
	}
	return c.lookupByTypeName(t.Members[0].TypeName)
}

func (c *converter) lookupByTypeName(name string) symgraph.TypeId {
	for idx, ti := range c.typesByIndex {
		if ti.Name == name {
			return c.byIndex[idx]
		}
	}
	return c.voidStub()
}

// voidStub returns (creating once per converter, not once per process) a
// zero-size placeholder type for a gopdb record with no resolvable
// element/member type index.
func (c *converter) voidStub() symgraph.TypeId {
	if c.voidStubId != nil {
		return *c.voidStubId
	}
	id := c.graph.AddType(symgraph.Base{Encoding: symgraph.EncUint, ByteSize: 0})
	c.voidStubId = &id
	return id
}

func (c *converter) buildStruct(t pdb.TypeInfo, kind symgraph.StructKind) symgraph.Struct {
	s := symgraph.Struct{Kind: kind, ByteSize: int(t.Size)}
	for _, m := range t.Members {
		s.Members = append(s.Members, symgraph.Member{
			Name:        m.Name,
			OffsetBytes: int(m.Offset),
			Type:        c.lookupByTypeName(m.TypeName),
		})
	}
	return s
}

func (c *converter) buildEnum(t pdb.TypeInfo) symgraph.Enum {
	names := make([]string, 0, len(t.Members))
	vals := make(map[string]int64, len(t.Members))
	for _, m := range t.Members {
		names = append(names, m.Name)
		vals[m.Name] = int64(m.Offset) // gopdb encodes an enumerator's value in Offset
	}
	byteSize := int(t.Size)
	if byteSize <= 0 {
		byteSize = 4
	}
	return symgraph.Enum{
		Underlying:     symgraph.Base{Encoding: symgraph.EncInt, ByteSize: byteSize},
		EnumeratorName: names,
		EnumeratorVal:  vals,
	}
}

func (c *converter) baseFromSize(t pdb.TypeInfo) symgraph.Base {
	enc := symgraph.EncUint
	name := strings.ToLower(t.Name)
	switch {
	case strings.Contains(name, "float") || strings.Contains(name, "double"):
		enc = symgraph.EncFloat
	case strings.Contains(name, "bool"):
		enc = symgraph.EncBool
	case strings.Contains(name, "char"):
		enc = symgraph.EncChar
	case strings.HasPrefix(name, "signed") || strings.HasPrefix(name, "int") || strings.Contains(name, "int8") ||
		strings.Contains(name, "int16") || strings.Contains(name, "int32") || strings.Contains(name, "int64"):
		if !strings.Contains(name, "unsigned") && !strings.Contains(name, "uint") {
			enc = symgraph.EncInt
		}
	}
	size := int(t.Size)
	if size == 0 {
		size = 4
	}
	return symgraph.Base{Encoding: enc, ByteSize: size}
}
