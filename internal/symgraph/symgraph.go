// Package symgraph holds the unified in-memory view of a binary's debug
// information: named globals mapped to typed, addressed locations, and a
// flat type registry. Both the DWARF and the PDB back-ends build one of
// these; everything downstream (the resolver, the synthesizer, the update
// coordinator) consumes only this package's types, never a back-end's own
// intermediate tables.
package symgraph

import "fmt"

// TypeId is an opaque handle into a SymbolGraph's type registry. Types
// reference each other by TypeId, never by pointer, so that cyclic shapes
// (a linked-list node pointing at its own type) are representable without
// recursive data structures.
type TypeId int

// SymbolKind classifies a GlobalSymbol.
type SymbolKind int

const (
	KindVariable SymbolKind = iota
	KindFunctionPointerSlot
	KindConstant
)

func (k SymbolKind) String() string {
	switch k {
	case KindVariable:
		return "Variable"
	case KindFunctionPointerSlot:
		return "FunctionPointerSlot"
	case KindConstant:
		return "Constant"
	default:
		return "Unknown"
	}
}

// GlobalSymbol is one entry of the globals table: a demangled, fully
// qualified name mapped to an absolute address, a type, and the section
// that contains it.
type GlobalSymbol struct {
	Name    string
	Mangled string // original mangled form, if demangling changed the name
	Address uint64
	TypeId  TypeId
	Section string
	Kind    SymbolKind
}

// SymbolGraph is built once per binary load and is immutable thereafter.
// The Name Resolver, the Synthesizer, and the Update Coordinator only read
// it; none of them mutate it, and it may be shared across goroutines.
type SymbolGraph struct {
	globals map[string]*GlobalSymbol
	types   map[TypeId]TypeNode
	nextId  TypeId
}

// New returns an empty, writable SymbolGraph. Back-ends populate it via
// AddType/AddGlobal while reading a binary, then hand it off as read-only.
func New() *SymbolGraph {
	return &SymbolGraph{
		globals: make(map[string]*GlobalSymbol),
		types:   make(map[TypeId]TypeNode),
	}
}

// AddType registers a type node and returns its stable id. Callers that
// need to reference a type before it is fully known (e.g. a self-referential
// struct) should call ReserveType first and Set once the node is built.
func (g *SymbolGraph) AddType(node TypeNode) TypeId {
	id := g.nextId
	g.nextId++
	g.types[id] = node
	return id
}

// ReserveType allocates a TypeId without a node, for forward references
// inside a single recursive type (e.g. `struct Node { struct Node *next; }`).
func (g *SymbolGraph) ReserveType() TypeId {
	id := g.nextId
	g.nextId++
	return id
}

// SetType assigns a node to a previously reserved TypeId.
func (g *SymbolGraph) SetType(id TypeId, node TypeNode) {
	g.types[id] = node
}

// Type looks up a TypeId. It panics on an id that was never reserved or
// assigned, since every TypeId reachable from any node must resolve within
// the graph's types table (an invariant enforced at construction time by
// the back-ends, not re-checked on every lookup).
func (g *SymbolGraph) Type(id TypeId) TypeNode {
	node, ok := g.types[id]
	if !ok {
		panic(fmt.Sprintf("symgraph: dangling TypeId %d", id))
	}
	return node
}

// TypeCount returns the number of registered types, for diagnostics.
func (g *SymbolGraph) TypeCount() int {
	return len(g.types)
}

// AddGlobal registers a global symbol. If a symbol with the same name
// already exists, AddGlobal deduplicates per spec: two GlobalSymbols may
// share a name only if they are the same symbol reported by two
// compilation units, which it detects by (name, address, type identity).
// The returned bool is true only for such a duplicate. It is false both
// for a fresh insert and for a genuine conflict (same name, different
// address or type); a conflict keeps the first-seen entry.
func (g *SymbolGraph) AddGlobal(sym GlobalSymbol) (duplicate bool) {
	existing, ok := g.globals[sym.Name]
	if !ok {
		cp := sym
		g.globals[sym.Name] = &cp
		return false
	}
	return existing.Address == sym.Address && g.structurallyEqual(existing.TypeId, sym.TypeId)
}

// Global looks up a global by its demangled, fully qualified name.
func (g *SymbolGraph) Global(name string) (*GlobalSymbol, bool) {
	sym, ok := g.globals[name]
	return sym, ok
}

// Globals returns every registered global. The returned slice is a fresh
// copy; callers may not use it to mutate the graph.
func (g *SymbolGraph) Globals() []GlobalSymbol {
	result := make([]GlobalSymbol, 0, len(g.globals))
	for _, sym := range g.globals {
		result = append(result, *sym)
	}
	return result
}

// structurallyEqual is a shallow structural comparison used only to decide
// whether two same-named globals from different compilation units are the
// same symbol. It compares only the concrete node kind (Base, Struct, ...)
// of the two types; byte sizes, encodings and members are not compared.
func (g *SymbolGraph) structurallyEqual(a, b TypeId) bool {
	if a == b {
		return true
	}
	na, oka := g.types[a]
	nb, okb := g.types[b]
	if !oka || !okb {
		return false
	}
	return fmt.Sprintf("%T", na) == fmt.Sprintf("%T", nb)
}
