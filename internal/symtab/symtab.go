// Package symtab defines the JSON-friendly descriptor types returned by
// internal/finder's queries: a wire format decoupled from symgraph's
// internal TypeNode/GlobalSymbol representation, the same way the
// teacher's symtab package kept its PackageInfo/TypeInfo shapes separate
// from go/types' own type representation.
package symtab

// GlobalRef describes one global symbol for listing and search results.
type GlobalRef struct {
	Name       string `json:"name"`
	Mangled    string `json:"mangled,omitempty"`
	Address    uint64 `json:"address"`
	Section    string `json:"section,omitempty"`
	Kind       string `json:"kind"`
	TypeName   string `json:"type_name"`
}

// MemberDescriptor describes one field of a struct or union type.
type MemberDescriptor struct {
	Name        string `json:"name"`
	OffsetBytes int    `json:"offset_bytes"`
	TypeName    string `json:"type_name"`
	BitOffset   *int   `json:"bit_offset,omitempty"`
	BitSize     *int   `json:"bit_size,omitempty"`
}

// TypeDescriptor describes a resolved type for the describe_type tool.
// Which fields are populated depends on Kind: struct/union types carry
// Members, array types carry Element/Dimensions, enums carry Enumerators,
// pointers/typedefs/modifiers carry Target.
type TypeDescriptor struct {
	Name        string             `json:"name"`
	Kind        string             `json:"kind"`
	ByteSize    int                `json:"byte_size,omitempty"`
	Members     []MemberDescriptor `json:"members,omitempty"`
	Element     string             `json:"element,omitempty"`
	Dimensions  []int              `json:"dimensions,omitempty"`
	Enumerators map[string]int64   `json:"enumerators,omitempty"`
	Target      string             `json:"target,omitempty"`
}

// ResolvedRef describes the result of resolving a dotted/indexed path
// against the Symbol Graph, mirroring internal/resolver.Resolved in a
// form safe to serialize.
type ResolvedRef struct {
	Path        string `json:"path"`
	Address     uint64 `json:"address"`
	TypeName    string `json:"type_name"`
	BitOffset   *int   `json:"bit_offset,omitempty"`
	BitSize     *int   `json:"bit_size,omitempty"`
	Dimensions  []int  `json:"dimensions,omitempty"`
}
