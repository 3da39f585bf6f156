package symgraph

// Encoding classifies a Base type's bit pattern.
type Encoding int

const (
	EncUint Encoding = iota
	EncInt
	EncFloat
	EncBool
	EncChar
)

// ModifierKind enumerates the qualifier a Modifier node wraps.
type ModifierKind int

const (
	ModConst ModifierKind = iota
	ModVolatile
	ModRestrict
	ModAtomic
	ModPacked
	ModImmutable
)

// TypeNode is a tagged variant over every shape a type can take. Consumers
// switch on the concrete Go type rather than relying on inheritance. The
// compiler does not check such switches for exhaustiveness: a node kind
// with no case of its own takes the switch's default branch, or is
// skipped by a switch that has none.
type TypeNode interface {
	isTypeNode()
}

// Base is a scalar machine type: an integer, float, bool, or char of a
// given byte size.
type Base struct {
	Encoding Encoding
	ByteSize int
}

func (Base) isTypeNode() {}

// Pointer is a typed pointer to another type.
type Pointer struct {
	Target   TypeId
	ByteSize int
}

func (Pointer) isTypeNode() {}

// Array is a row-major, possibly multi-dimensional array. Dimensions are
// listed outer-to-inner; a 0 entry marks an open/flexible array, legal only
// as the last member of a struct.
type Array struct {
	Element    TypeId
	Dimensions []int
}

func (Array) isTypeNode() {}

// TotalLength returns the product of all dimensions, or 0 if any dimension
// is an open array (length 0).
func (a Array) TotalLength() int {
	total := 1
	for _, d := range a.Dimensions {
		if d == 0 {
			return 0
		}
		total *= d
	}
	return total
}

// Member is one field of a Struct or Union, in declaration order.
type Member struct {
	Name        string
	OffsetBytes int
	Type        TypeId

	// BitOffset/BitSize are set together for a bit-field member; Type must
	// then be a Base integer, and the containing storage unit is that
	// base type's slot. BitOffset is LSB-numbered within the storage unit
	// (the DWARF reader normalizes DW_AT_bit_offset/DW_AT_data_bit_offset
	// to this convention, flipping for big-endian targets; the PDB reader
	// sets neither field).
	BitOffset *int
	BitSize   *int
}

// IsBitField reports whether m occupies a sub-range of its storage unit.
func (m Member) IsBitField() bool {
	return m.BitOffset != nil && m.BitSize != nil
}

// StructKind distinguishes a Struct from a Union without a second Go type;
// both share identical shape (an ordered member list plus a byte size),
// and only the "exactly one active member" rule differs operationally —
// a rule that neither this data model nor the resolver or synthesizer
// enforces; they treat a union's members like a struct's.
type StructKind int

const (
	KindStruct StructKind = iota
	KindUnion
)

// Struct models both struct and union shapes, distinguished by Kind.
type Struct struct {
	Kind     StructKind
	ByteSize int
	Members  []Member
}

func (Struct) isTypeNode() {}

// MemberByName performs a linear search, matching the spec's documented
// cost model (member lookup is linear in member count, tens typical).
func (s Struct) MemberByName(name string) (Member, bool) {
	for _, m := range s.Members {
		if m.Name == name {
			return m, true
		}
	}
	return Member{}, false
}

// Enum has a named underlying Base integer type and an insertion-ordered
// set of enumerators.
type Enum struct {
	Underlying     Base
	EnumeratorName []string // insertion order
	EnumeratorVal  map[string]int64
}

func (Enum) isTypeNode() {}

// Typedef is a named alias; the resolver sees through it to Target but the
// alias name is preserved for display purposes (e.g. in a synthesized A2L
// comment or a demangled qualified name).
type Typedef struct {
	Target    TypeId
	AliasName string
}

func (Typedef) isTypeNode() {}

// Function marks a function type. Its signature is opaque: the core never
// traverses a Function node's parameters or return type, since no A2L
// entity describes callable code.
type Function struct{}

func (Function) isTypeNode() {}

// Incomplete marks a forward declaration with no body (DW_AT_declaration
// and no members, or a PDB forward-reference TPI record never resolved to
// a full definition). Member access against it is a resolver error, not a
// reader error — the reader records the shape faithfully even though it is
// unusable for path traversal.
type Incomplete struct {
	Tag string
}

func (Incomplete) isTypeNode() {}

// Modifier wraps another type with a qualifier. Modifier chains collapse
// transparently for the resolver (it sees through them to the effective
// shape) but are preserved in the graph so a display layer can still show
// "const volatile uint32_t" if it wants to.
type Modifier struct {
	Kind   ModifierKind
	Target TypeId
}

func (Modifier) isTypeNode() {}

// Strip follows Typedef and Modifier chains down to the first non-alias,
// non-qualifier node, returning both that node and its TypeId. It is the
// single place every consumer should call before switching on a TypeNode's
// concrete type, so "sees through Modifier/Typedef" stays a one-line rule
// instead of being reimplemented at each call site.
func Strip(g *SymbolGraph, id TypeId) (TypeId, TypeNode) {
	for {
		node := g.Type(id)
		switch t := node.(type) {
		case Typedef:
			id = t.Target
		case Modifier:
			id = t.Target
		default:
			return id, node
		}
	}
}
