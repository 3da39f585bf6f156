// Package resolver walks dotted/bracketed variable paths (spec.md §4.4)
// against a symgraph.SymbolGraph, yielding a resolved symbol with a final
// address, element type, bit mask, and qualified name; the qualified name
// is the input path as given, neither demangled nor canonicalized. The
// resolver is side-effect-free and safe to call concurrently against a
// shared, immutable SymbolGraph (spec.md §5), which is what
// internal/update exploits with an errgroup.
package resolver

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/DanielT/a2ltool/internal/symgraph"
)

// ErrUnknownSymbol is spec.md §7's UnknownSymbol: the resolver could not
// bind the root identifier or any path segment.
type ErrUnknownSymbol struct {
	Path string
}

func (e ErrUnknownSymbol) Error() string {
	return fmt.Sprintf("resolver: unknown symbol in path %q", e.Path)
}

// ErrIncompleteType is spec.md §7's IncompleteType: resolution reached a
// declaration-only type.
type ErrIncompleteType struct {
	Tag string
}

func (e ErrIncompleteType) Error() string {
	return fmt.Sprintf("resolver: reached incomplete type %q", e.Tag)
}

// ErrOutOfBounds signals an array index outside its declared length, or a
// path operation against a type shape that does not support it.
type ErrOutOfBounds struct {
	Path   string
	Detail string
}

func (e ErrOutOfBounds) Error() string {
	return fmt.Sprintf("resolver: %s in path %q", e.Detail, e.Path)
}

// Resolved is the resolver's output: a final address, the effective type
// after stripping Modifier/Typedef, an optional bit mask for a bit-field
// target, any array dimensions left unconsumed, and the canonical
// qualified name (the input path, echoed back).
type Resolved struct {
	Address       uint64
	EffectiveType symgraph.TypeId
	BitMask       *BitMask
	Dimensions    []int
	QualifiedName string
}

// BitMask describes a bit-field's position within its storage unit, both
// as a raw mask value and as the offset/size it was derived from.
type BitMask struct {
	Mask      uint64
	BitOffset int
	BitSize   int
}

// ComputeMask returns the raw mask isolating a field of bitSize bits at
// bitOffset (LSB-numbered within the storage unit), per spec.md §8's
// round-trip property: "reading the computed BIT_MASK and shifting by the
// reported offset isolates the field."
func ComputeMask(bitOffset, bitSize int) uint64 {
	return ((uint64(1) << uint(bitSize)) - 1) << uint(bitOffset)
}

// cursor is the resolver's working state as it walks a path left to
// right: the address reached so far, the type at that address, and — for
// a partially-indexed multi-dimensional array — the dimensions not yet
// consumed. While pendingDims is non-empty, typeId already holds the
// array's element type and only the addressing advances; once the last
// dimension is consumed, pendingDims is nil again.
type cursor struct {
	addr        uint64
	typeId      symgraph.TypeId
	pendingDims []int
	bitMask     *BitMask
}

// Resolve walks path against g starting at its leftmost identifier,
// per spec.md §4.4.
func Resolve(g *symgraph.SymbolGraph, path string) (Resolved, error) {
	segments, err := tokenize(path)
	if err != nil {
		return Resolved{}, err
	}
	if len(segments) == 0 || segments[0].kind != segRoot {
		return Resolved{}, ErrUnknownSymbol{Path: path}
	}

	sym, ok := g.Global(segments[0].name)
	if !ok {
		// Rule 1: a retried lookup after re-mangling/re-demangling. The
		// Symbol Graph already indexes both forms when they differ
		// (spec.md §4.2), so a second Global() call with the same key
		// would not help; a miss here is a genuine UnknownSymbol.
		return Resolved{}, ErrUnknownSymbol{Path: path}
	}

	cur := cursor{addr: sym.Address, typeId: sym.TypeId}

	for _, seg := range segments[1:] {
		cur, err = applySegment(g, cur, seg, path)
		if err != nil {
			return Resolved{}, err
		}
	}

	return Resolved{
		Address:       cur.addr,
		EffectiveType: cur.typeId,
		BitMask:       cur.bitMask,
		Dimensions:    cur.pendingDims,
		QualifiedName: path,
	}, nil
}

func applySegment(g *symgraph.SymbolGraph, cur cursor, seg segment, fullPath string) (cursor, error) {
	switch seg.kind {
	case segIndex:
		return applyIndex(g, cur, seg.index, fullPath)
	case segMember:
		if len(cur.pendingDims) > 0 {
			return cursor{}, ErrOutOfBounds{Path: fullPath, Detail: "member access before array fully indexed"}
		}
		return applyMember(g, cur, seg.name, fullPath)
	case segDeref:
		if len(cur.pendingDims) > 0 {
			return cursor{}, ErrOutOfBounds{Path: fullPath, Detail: "dereference before array fully indexed"}
		}
		return applyDeref(g, cur, fullPath)
	default:
		return cursor{}, ErrOutOfBounds{Path: fullPath, Detail: "unrecognized path segment"}
	}
}

// applyIndex consumes one `[n]` (or legacy `._n_`) segment, rule 2 + 5 of
// spec.md §4.4. Once the current array has more than one dimension left,
// only the addressing math advances; the element type is only surfaced
// once the innermost dimension is consumed.
func applyIndex(g *symgraph.SymbolGraph, cur cursor, idx int, fullPath string) (cursor, error) {
	var dims []int
	var elem symgraph.TypeId

	if len(cur.pendingDims) > 0 {
		dims = cur.pendingDims
		elem = cur.typeId
	} else {
		_, node := symgraph.Strip(g, cur.typeId)
		arr, ok := node.(symgraph.Array)
		if !ok {
			return cursor{}, ErrOutOfBounds{Path: fullPath, Detail: "index into non-array type"}
		}
		if len(arr.Dimensions) == 0 {
			return cursor{}, ErrOutOfBounds{Path: fullPath, Detail: "index into zero-dimension array"}
		}
		dims = arr.Dimensions
		elem = arr.Element
	}

	outer := dims[0]
	if outer != 0 && (idx < 0 || idx >= outer) {
		return cursor{}, ErrOutOfBounds{Path: fullPath, Detail: fmt.Sprintf("index %d out of bounds (length %d)", idx, outer)}
	}
	remaining := dims[1:]
	elemSize := elementByteSize(g, elem, remaining)
	newAddr := cur.addr + uint64(idx)*uint64(elemSize)

	if len(remaining) == 0 {
		return cursor{addr: newAddr, typeId: elem}, nil
	}
	return cursor{addr: newAddr, typeId: elem, pendingDims: remaining}, nil
}

func applyMember(g *symgraph.SymbolGraph, cur cursor, name, fullPath string) (cursor, error) {
	_, node := symgraph.Strip(g, cur.typeId)
	switch t := node.(type) {
	case symgraph.Struct:
		member, ok := t.MemberByName(name)
		if !ok {
			return cursor{}, ErrOutOfBounds{Path: fullPath, Detail: fmt.Sprintf("no member %q", name)}
		}
		newAddr := cur.addr + uint64(member.OffsetBytes)
		var mask *BitMask
		if member.IsBitField() {
			mask = &BitMask{
				Mask:      ComputeMask(*member.BitOffset, *member.BitSize),
				BitOffset: *member.BitOffset,
				BitSize:   *member.BitSize,
			}
		}
		return cursor{addr: newAddr, typeId: member.Type, bitMask: mask}, nil
	case symgraph.Incomplete:
		return cursor{}, ErrIncompleteType{Tag: t.Tag}
	default:
		return cursor{}, ErrOutOfBounds{Path: fullPath, Detail: "member access on non-struct type"}
	}
}

// applyDeref implements rule 4: unary dereference through a pointer is
// permitted only when the path explicitly contains `->` (always true
// here, since this is only reached from a segDeref token) or when the
// pointer targets a single element whose address is known at link time —
// the latter case has no meaning for this static resolver (it never has
// a live process to read the pointer's runtime value from), so only the
// explicit `->` form is supported.
func applyDeref(g *symgraph.SymbolGraph, cur cursor, fullPath string) (cursor, error) {
	_, node := symgraph.Strip(g, cur.typeId)
	ptr, ok := node.(symgraph.Pointer)
	if !ok {
		return cursor{}, ErrOutOfBounds{Path: fullPath, Detail: "dereference of non-pointer type"}
	}
	return cursor{addr: cur.addr, typeId: ptr.Target}, nil
}

func elementByteSize(g *symgraph.SymbolGraph, elem symgraph.TypeId, remainingDims []int) int {
	size := typeByteSize(g, elem)
	for _, d := range remainingDims {
		if d != 0 {
			size *= d
		}
	}
	return size
}

func typeByteSize(g *symgraph.SymbolGraph, id symgraph.TypeId) int {
	_, node := symgraph.Strip(g, id)
	switch t := node.(type) {
	case symgraph.Base:
		return t.ByteSize
	case symgraph.Pointer:
		return t.ByteSize
	case symgraph.Struct:
		return t.ByteSize
	case symgraph.Enum:
		return t.Underlying.ByteSize
	case symgraph.Array:
		total := t.TotalLength()
		if total == 0 {
			return 0
		}
		return total * typeByteSize(g, t.Element)
	default:
		return 0
	}
}

type segKind int

const (
	segRoot segKind = iota
	segMember
	segIndex
	segDeref
)

type segment struct {
	kind  segKind
	name  string // root identifier or member name
	index int    // for segIndex
}

// tokenize splits a path like `root.member[3].x` or the legacy
// `root._3_._1_` synonym form into segments. Rule 3 (spec.md §4.4):
// `._N_` and `._N_._M_` are accepted as synonyms of `[N]` and `[N][M]`.
func tokenize(path string) ([]segment, error) {
	if path == "" {
		return nil, errors.New("resolver: empty path")
	}

	var segs []segment
	i := 0
	n := len(path)

	start := i
	for i < n && path[i] != '.' && path[i] != '[' && !isArrow(path, i) {
		i++
	}
	if start == i {
		return nil, fmt.Errorf("resolver: empty root identifier in path %q", path)
	}
	segs = append(segs, segment{kind: segRoot, name: path[start:i]})

	for i < n {
		switch {
		case path[i] == '.':
			i++
			if idx, consumed, ok := tryLegacyIndex(path, i); ok {
				segs = append(segs, segment{kind: segIndex, index: idx})
				i += consumed
				continue
			}
			start := i
			for i < n && path[i] != '.' && path[i] != '[' && !isArrow(path, i) {
				i++
			}
			if start == i {
				return nil, fmt.Errorf("resolver: empty member name in path %q", path)
			}
			segs = append(segs, segment{kind: segMember, name: path[start:i]})

		case path[i] == '[':
			j := strings.IndexByte(path[i:], ']')
			if j < 0 {
				return nil, fmt.Errorf("resolver: unterminated '[' in path %q", path)
			}
			idxStr := path[i+1 : i+j]
			idx, err := strconv.Atoi(idxStr)
			if err != nil {
				return nil, fmt.Errorf("resolver: bad array index %q in path %q", idxStr, path)
			}
			segs = append(segs, segment{kind: segIndex, index: idx})
			i += j + 1

		case isArrow(path, i):
			i += 2
			start := i
			for i < n && path[i] != '.' && path[i] != '[' {
				i++
			}
			if start == i {
				return nil, fmt.Errorf("resolver: empty member name after '->' in path %q", path)
			}
			segs = append(segs, segment{kind: segDeref})
			segs = append(segs, segment{kind: segMember, name: path[start:i]})

		default:
			return nil, fmt.Errorf("resolver: unexpected character at %d in path %q", i, path)
		}
	}

	return segs, nil
}

func isArrow(path string, i int) bool {
	return i+1 < len(path) && path[i] == '-' && path[i+1] == '>'
}

// tryLegacyIndex matches a `_N_` token starting at offset i (just past the
// '.' that introduced it), returning the parsed index, the number of bytes
// consumed from i, and whether a match was found.
func tryLegacyIndex(path string, i int) (idx int, consumed int, ok bool) {
	if i >= len(path) || path[i] != '_' {
		return 0, 0, false
	}
	j := i + 1
	for j < len(path) && path[j] != '_' {
		j++
	}
	if j >= len(path) || path[j] != '_' {
		return 0, 0, false
	}
	n, err := strconv.Atoi(path[i+1 : j])
	if err != nil {
		return 0, 0, false
	}
	return n, (j + 1) - i, true
}
