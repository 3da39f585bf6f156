// Package synth implements the A2L Descriptor Synthesizer (spec.md §4.5):
// given a Resolved symbol and a creation policy, it produces or updates
// exactly one A2L descriptor plus any supporting RECORD_LAYOUT and
// COMPU_METHOD entities.
package synth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/DanielT/a2ltool/internal/a2ldatatype"
	"github.com/DanielT/a2ltool/internal/a2lmodel"
	"github.com/DanielT/a2ltool/internal/a2lver"
	"github.com/DanielT/a2ltool/internal/resolver"
	"github.com/DanielT/a2ltool/internal/symgraph"
)

// EntityKind is what sort of A2L top-level descriptor a synthesis pass
// produced — a MEASUREMENT or a CHARACTERISTIC (of some Kind).
type EntityKind int

const (
	EntityMeasurement EntityKind = iota
	EntityCharacteristic
	EntityInstance
	EntityBlob
)

// Policy controls descriptor creation, mirroring spec.md §4.5's
// `{ kind_hint, target_group?, use_structures, old_array_notation,
// arrays_as_blocks }` and the configuration-surface table of spec.md §6.
type Policy struct {
	Version          a2lver.Version
	UseStructures    bool
	OldArrayNotation bool
	ArraysAsBlocks   bool
	TargetGroup      string

	// ExternalAxisPaths, when non-empty, names the sibling global paths
	// supplying external axis data (x, then y, ...) for a struct whose
	// sole numeric member is a bare `value[...]` array. spec.md §4.5
	// describes this pattern only as "referenced by a naming
	// convention" without specifying the convention; real embedded
	// codebases vary too widely for auto-detection to be reliable, so
	// SPEC_FULL.md resolves this by having the caller supply the axis
	// paths explicitly (documented in DESIGN.md as an Open Question
	// resolution) rather than guessing from member names.
	ExternalAxisPaths []string
}

// Result is the outcome of one Synthesize call.
type Result struct {
	Kind            EntityKind
	CharacteristicK a2lmodel.CharacteristicKind
	Name            string
}

// Synthesize resolves name against g, infers the appropriate descriptor
// kind from the effective type, and writes or updates that descriptor
// (plus any RECORD_LAYOUT / COMPU_METHOD it needs) into module.
func Synthesize(g *symgraph.SymbolGraph, name string, policy Policy, module *a2lmodel.Module, asCharacteristic bool) (Result, error) {
	resolved, err := resolver.Resolve(g, name)
	if err != nil {
		return Result{}, err
	}

	shape, err := classify(g, resolved.EffectiveType, resolved, policy)
	if err != nil {
		var instCandidate errInstanceCandidate
		if errors.As(err, &instCandidate) {
			return synthInstance(g, resolved, instCandidate.structId, policy, module)
		}
		var blobCandidate errBlobCandidate
		if errors.As(err, &blobCandidate) {
			return synthBlob(resolved, blobCandidate.size, module)
		}
		return Result{}, err
	}

	if shape.kind == a2lmodel.KindValBlk && len(shape.dims) == 1 && !policy.ArraysAsBlocks && baseScalar(g, shape.scalarType) {
		return synthArrayElements(g, resolved, shape, policy, module, asCharacteristic)
	}

	if shape.kind == a2lmodel.KindValue || shape.kind == a2lmodel.KindValBlk {
		// scalar/array value shapes can be either side of the
		// MEASUREMENT/CHARACTERISTIC divide, per the caller's request.
		if !asCharacteristic {
			return synthMeasurement(g, resolved, shape, policy, module)
		}
	}
	return synthCharacteristic(g, resolved, shape, policy, module)
}

// baseScalar reports whether id strips down to a plain Base type, the
// "array of base" spec.md §4.5 names for arrays_as_blocks=false's
// per-element split (an array of enums or structs never splits this way).
func baseScalar(g *symgraph.SymbolGraph, id symgraph.TypeId) bool {
	_, node := symgraph.Strip(g, id)
	_, ok := node.(symgraph.Base)
	return ok
}

// typeShape carries the classification decision plus the data needed to
// build the descriptor and its RECORD_LAYOUT. Exported so the Update
// Coordinator (internal/update) can classify a resolved symbol's shape
// itself when deciding whether an existing descriptor's kind still
// matches, without duplicating the kind-selection table.
type typeShape struct {
	kind       a2lmodel.CharacteristicKind
	scalarType symgraph.TypeId // the Base/Enum feeding FNC_VALUES
	dims       []int           // symgraph order: outer-to-inner
	axes       []axisShape     // internal axes, x then y then z...
	external   bool
}

// Kind reports the classified CharacteristicKind, exported for callers
// outside this package that only need the kind decision (e.g. the
// Update Coordinator's type-mismatch check).
func (s typeShape) Kind() a2lmodel.CharacteristicKind { return s.kind }

// Dims reports the value array's dimensions in symgraph (outer-to-inner)
// order, or nil for a scalar.
func (s typeShape) Dims() []int { return s.dims }

// AxisCount reports how many internal axes classify found.
func (s typeShape) AxisCount() int { return len(s.axes) }

type axisShape struct {
	count    int
	datatype a2ldatatype.DataType
}

// Shape is classify's result, usable by callers outside this package.
type Shape = typeShape

// Classify implements spec.md §4.5's kind-selection table against id,
// exported for internal/update's type-mismatch detection (spec.md §4.6
// step 4's "resolved, but type mismatches" row).
func Classify(g *symgraph.SymbolGraph, id symgraph.TypeId, resolved resolver.Resolved, policy Policy) (Shape, error) {
	return classify(g, id, resolved, policy)
}

// classify implements spec.md §4.5's kind-selection table.
func classify(g *symgraph.SymbolGraph, id symgraph.TypeId, resolved resolver.Resolved, policy Policy) (typeShape, error) {
	_, node := symgraph.Strip(g, id)

	switch t := node.(type) {
	case symgraph.Base:
		return typeShape{kind: a2lmodel.KindValue, scalarType: id}, nil

	case symgraph.Enum:
		return typeShape{kind: a2lmodel.KindValue, scalarType: id}, nil

	case symgraph.Array:
		elemId, elemNode := symgraph.Strip(g, t.Element)
		if _, isStruct := elemNode.(symgraph.Struct); isStruct {
			return typeShape{}, errBlobCandidate{size: byteSizeOf(g, id)}
		}
		return typeShape{kind: a2lmodel.KindValBlk, scalarType: elemId, dims: t.Dimensions}, nil

	case symgraph.Struct:
		return classifyStruct(g, id, t, policy)

	case symgraph.Incomplete:
		return typeShape{}, fmt.Errorf("synth: cannot synthesize from incomplete type %q", t.Tag)

	default:
		return typeShape{}, fmt.Errorf("synth: no recognized A2L shape for %T", node)
	}
}

// errBlobCandidate marks a shape that classify could not map to any
// MEASUREMENT/CHARACTERISTIC kind, but whose byte size is known: an
// array of structs, or a struct with no recognized axis/value layout.
// Synthesize catches this and falls back to a BLOB descriptor rather
// than failing outright, per spec.md §4.5's "no recognized shape" row.
type errBlobCandidate struct {
	size int
}

func (e errBlobCandidate) Error() string {
	return fmt.Sprintf("synth: no recognized MEASUREMENT/CHARACTERISTIC shape (%d bytes, BLOB candidate)", e.size)
}

// errInstanceCandidate marks a free struct (no "value" member, so none of
// the Curve/Map patterns apply) that policy permits synthesizing as an
// INSTANCE bound to a TYPEDEF_STRUCTURE instead of falling back to BLOB,
// per spec.md §4.5's "free struct (use_structures=true, A2L >= 1.7.1)" row.
type errInstanceCandidate struct {
	structId symgraph.TypeId
}

func (e errInstanceCandidate) Error() string {
	return "synth: free struct eligible for INSTANCE/TYPEDEF_STRUCTURE synthesis"
}

// byteSizeOf computes the storage width of id in bytes, following
// Typedef/Modifier chains and multiplying array dimensions through to
// their element size. Used for sizing a BLOB fallback and for the
// per-element stride in synthArrayElements.
func byteSizeOf(g *symgraph.SymbolGraph, id symgraph.TypeId) int {
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
		return byteSizeOf(g, t.Element) * t.TotalLength()
	default:
		return 0
	}
}

// classifyStruct implements the Curve/Map pattern: a struct with a
// "value" member and sibling 1-D arrays "x" (curve), "x"+"y" (map) or
// "x"+"y"+"z" (cuboid) as internal axes. The axis element counts are not
// compared with value's dimensions. A "value" struct with no axis members
// takes its axis count from policy.ExternalAxisPaths when that is
// non-empty (attachAxes then binds those paths), and is a BLOB otherwise.
// A struct without "value" is a BLOB unless the caller permits emitting
// an INSTANCE+TYPEDEF_STRUCTURE instead.
func classifyStruct(g *symgraph.SymbolGraph, structId symgraph.TypeId, s symgraph.Struct, policy Policy) (typeShape, error) {
	value, ok := s.MemberByName("value")
	if !ok {
		if policy.UseStructures && policy.Version.SupportsStructures() {
			return typeShape{}, errInstanceCandidate{structId: structId}
		}
		return typeShape{}, errBlobCandidate{size: s.ByteSize}
	}

	_, valueNode := symgraph.Strip(g, value.Type)
	valueArr, isArray := valueNode.(symgraph.Array)
	var valueDims []int
	var scalar symgraph.TypeId
	if isArray {
		valueDims = valueArr.Dimensions
		scalar = valueArr.Element
	} else {
		scalar = value.Type
	}

	var axes []axisShape
	for _, axisName := range []string{"x", "y", "z"} {
		m, ok := s.MemberByName(axisName)
		if !ok {
			break
		}
		_, axisNode := symgraph.Strip(g, m.Type)
		arr, ok := axisNode.(symgraph.Array)
		if !ok || len(arr.Dimensions) != 1 {
			return typeShape{}, fmt.Errorf("synth: axis member %q is not a 1-D array", axisName)
		}
		axes = append(axes, axisShape{count: arr.Dimensions[0], datatype: a2ldatatype.FromBase(baseOf(g, arr.Element))})
	}

	axisCount := len(axes)
	external := false
	if axisCount == 0 && len(policy.ExternalAxisPaths) > 0 {
		axisCount = len(policy.ExternalAxisPaths)
		external = true
	}
	if axisCount == 0 {
		return typeShape{}, errBlobCandidate{size: s.ByteSize}
	}

	kind := a2lmodel.KindCurve
	switch axisCount {
	case 1:
		kind = a2lmodel.KindCurve
	case 2:
		kind = a2lmodel.KindMap
	case 3:
		kind = a2lmodel.KindCuboid
	case 4:
		kind = a2lmodel.KindCube4
	default:
		kind = a2lmodel.KindCube5
	}

	return typeShape{kind: kind, scalarType: scalar, dims: valueDims, axes: axes, external: external}, nil
}

func baseOf(g *symgraph.SymbolGraph, id symgraph.TypeId) symgraph.Base {
	_, node := symgraph.Strip(g, id)
	switch t := node.(type) {
	case symgraph.Base:
		return t
	case symgraph.Enum:
		return t.Underlying
	default:
		return symgraph.Base{Encoding: symgraph.EncUint, ByteSize: 4}
	}
}

// reverseDims returns dims in A2L MATRIX_DIM order: fastest-varying
// (innermost) first, per spec.md §8 scenario 2.
func reverseDims(dims []int) []int {
	out := make([]int, len(dims))
	for i, d := range dims {
		out[len(dims)-1-i] = d
	}
	return out
}

func elementName(base string, i int, useNewNotation bool) string {
	if useNewNotation {
		return fmt.Sprintf("%s[%d]", base, i)
	}
	return fmt.Sprintf("%s._%d_", base, i)
}

func arrayNotationAllowed(policy Policy) bool {
	return policy.Version.SupportsNewArrayNotation() && !policy.OldArrayNotation
}

func sanitizeCompuMethodName(name string) string {
	return strings.ReplaceAll(name, ".", "_") + "_compu_method"
}
