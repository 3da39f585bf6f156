// Package finder answers MCP-tool queries against a Symbol Graph: listing
// and searching globals, describing a type's shape, and resolving a
// dotted/indexed path. It is a read-only query layer over
// internal/symgraph and internal/resolver, returning the wire-friendly
// descriptor types from internal/symtab instead of the internal graph
// representation, the same separation the teacher's Finder kept between
// go/types and its own symtab package.
package finder

import (
	"fmt"
	"sort"
	"strings"

	"github.com/DanielT/a2ltool/internal/resolver"
	"github.com/DanielT/a2ltool/internal/symgraph"
	"github.com/DanielT/a2ltool/internal/symtab"
)

// MatchMode controls how symbol names are compared in FindSymbol.
type MatchMode string

const (
	MatchExact    MatchMode = "exact"
	MatchPrefix   MatchMode = "prefix"
	MatchContains MatchMode = "contains"
)

func matchesQuery(name, query string, mode MatchMode) bool {
	switch mode {
	case MatchPrefix:
		return strings.HasPrefix(name, query)
	case MatchContains:
		return strings.Contains(name, query)
	default:
		return name == query
	}
}

// Finder queries a Symbol Graph built by internal/indexer.
type Finder struct {
	graph *symgraph.SymbolGraph
}

// New creates a Finder backed by g.
func New(g *symgraph.SymbolGraph) *Finder {
	return &Finder{graph: g}
}

// ListGlobals returns every global symbol, optionally filtered by a name
// prefix.
func (f *Finder) ListGlobals(prefix string) []symtab.GlobalRef {
	all := f.graph.Globals()
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })

	refs := make([]symtab.GlobalRef, 0, len(all))
	for _, g := range all {
		if prefix != "" && !strings.HasPrefix(g.Name, prefix) {
			continue
		}
		refs = append(refs, f.globalRef(g))
	}
	return refs
}

// FindSymbol searches for globals whose name matches query under mode.
func (f *Finder) FindSymbol(query string, mode MatchMode) []symtab.GlobalRef {
	all := f.graph.Globals()
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })

	var refs []symtab.GlobalRef
	for _, g := range all {
		if !matchesQuery(g.Name, query, mode) {
			continue
		}
		refs = append(refs, f.globalRef(g))
	}
	return refs
}

func (f *Finder) globalRef(g symgraph.GlobalSymbol) symtab.GlobalRef {
	return symtab.GlobalRef{
		Name:     g.Name,
		Mangled:  g.Mangled,
		Address:  g.Address,
		Section:  g.Section,
		Kind:     g.Kind.String(),
		TypeName: f.typeName(g.TypeId),
	}
}

// DescribeGlobalType returns the type descriptor for the named global's
// declared type.
func (f *Finder) DescribeGlobalType(name string) (symtab.TypeDescriptor, error) {
	g, ok := f.graph.Global(name)
	if !ok {
		return symtab.TypeDescriptor{}, fmt.Errorf("finder: global %q not found", name)
	}
	return f.describeType(g.TypeId), nil
}

func (f *Finder) describeType(id symgraph.TypeId) symtab.TypeDescriptor {
	node := f.graph.Type(id)
	switch t := node.(type) {
	case symgraph.Base:
		return symtab.TypeDescriptor{Name: baseName(t), Kind: "base", ByteSize: t.ByteSize}

	case symgraph.Pointer:
		return symtab.TypeDescriptor{Name: f.typeName(id), Kind: "pointer", ByteSize: t.ByteSize, Target: f.typeName(t.Target)}

	case symgraph.Array:
		return symtab.TypeDescriptor{Name: f.typeName(id), Kind: "array", Element: f.typeName(t.Element), Dimensions: t.Dimensions}

	case symgraph.Struct:
		members := make([]symtab.MemberDescriptor, len(t.Members))
		for i, m := range t.Members {
			members[i] = symtab.MemberDescriptor{
				Name:        m.Name,
				OffsetBytes: m.OffsetBytes,
				TypeName:    f.typeName(m.Type),
				BitOffset:   m.BitOffset,
				BitSize:     m.BitSize,
			}
		}
		kind := "struct"
		if t.Kind == symgraph.KindUnion {
			kind = "union"
		}
		return symtab.TypeDescriptor{Name: f.typeName(id), Kind: kind, ByteSize: t.ByteSize, Members: members}

	case symgraph.Enum:
		enumerators := make(map[string]int64, len(t.EnumeratorName))
		for _, name := range t.EnumeratorName {
			enumerators[name] = t.EnumeratorVal[name]
		}
		return symtab.TypeDescriptor{Name: f.typeName(id), Kind: "enum", ByteSize: t.Underlying.ByteSize, Enumerators: enumerators}

	case symgraph.Typedef:
		return symtab.TypeDescriptor{Name: t.AliasName, Kind: "typedef", Target: f.typeName(t.Target)}

	case symgraph.Function:
		return symtab.TypeDescriptor{Name: "function", Kind: "function"}

	case symgraph.Incomplete:
		return symtab.TypeDescriptor{Name: t.Tag, Kind: "incomplete"}

	case symgraph.Modifier:
		return symtab.TypeDescriptor{Name: f.typeName(id), Kind: "modifier", Target: f.typeName(t.Target)}

	default:
		return symtab.TypeDescriptor{Name: "unknown", Kind: "unknown"}
	}
}

// typeName renders a TypeId as a short human-readable string, used both in
// GlobalRef.TypeName and as the Element/Target fields of a TypeDescriptor.
// symgraph carries no separate "struct tag" table, so a struct/union/array
// without a Typedef wrapper renders structurally rather than by name.
func (f *Finder) typeName(id symgraph.TypeId) string {
	node := f.graph.Type(id)
	switch t := node.(type) {
	case symgraph.Base:
		return baseName(t)
	case symgraph.Pointer:
		return "*" + f.typeName(t.Target)
	case symgraph.Array:
		var b strings.Builder
		b.WriteString(f.typeName(t.Element))
		for _, d := range t.Dimensions {
			fmt.Fprintf(&b, "[%d]", d)
		}
		return b.String()
	case symgraph.Struct:
		if t.Kind == symgraph.KindUnion {
			return "union"
		}
		return "struct"
	case symgraph.Enum:
		return "enum"
	case symgraph.Typedef:
		return t.AliasName
	case symgraph.Function:
		return "function"
	case symgraph.Incomplete:
		return t.Tag
	case symgraph.Modifier:
		return modifierPrefix(t.Kind) + f.typeName(t.Target)
	default:
		return "unknown"
	}
}

func baseName(b symgraph.Base) string {
	prefix := "int"
	switch b.Encoding {
	case symgraph.EncUint:
		prefix = "uint"
	case symgraph.EncFloat:
		prefix = "float"
	case symgraph.EncBool:
		return "bool"
	case symgraph.EncChar:
		return "char"
	}
	return fmt.Sprintf("%s%d", prefix, b.ByteSize*8)
}

func modifierPrefix(k symgraph.ModifierKind) string {
	switch k {
	case symgraph.ModConst:
		return "const "
	case symgraph.ModVolatile:
		return "volatile "
	case symgraph.ModRestrict:
		return "restrict "
	case symgraph.ModAtomic:
		return "atomic "
	case symgraph.ModPacked:
		return "packed "
	case symgraph.ModImmutable:
		return "immutable "
	default:
		return ""
	}
}

// ResolvePath resolves a dotted/indexed path against the graph and returns
// its wire-friendly form.
func (f *Finder) ResolvePath(path string) (symtab.ResolvedRef, error) {
	res, err := resolver.Resolve(f.graph, path)
	if err != nil {
		return symtab.ResolvedRef{}, err
	}
	ref := symtab.ResolvedRef{
		Path:       path,
		Address:    res.Address,
		TypeName:   f.typeName(res.EffectiveType),
		Dimensions: res.Dimensions,
	}
	if res.BitMask != nil {
		ref.BitOffset = &res.BitMask.BitOffset
		ref.BitSize = &res.BitMask.BitSize
	}
	return ref, nil
}
