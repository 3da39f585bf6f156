// Package a2ldatatype maps the Symbol Graph's scalar type shapes onto the
// fixed set of A2L storage types, and computes the representable numeric
// range for each. Grounded on original_source/src/datatype.rs
// (get_a2l_datatype / get_type_limits), generalized from the original's
// match-on-TypeInfo to a match over symgraph.TypeNode.
package a2ldatatype

import (
	"fmt"
	"math"

	"github.com/DanielT/a2ltool/internal/symgraph"
)

// DataType is the fixed set of A2L storage types a RECORD_LAYOUT component
// or a MEASUREMENT/CHARACTERISTIC's underlying byte layout can use.
type DataType int

const (
	Ubyte DataType = iota
	Sbyte
	Uword
	Sword
	Ulong
	Slong
	AUint64
	AInt64
	Float32Ieee
	Float64Ieee
)

func (d DataType) String() string {
	switch d {
	case Ubyte:
		return "UBYTE"
	case Sbyte:
		return "SBYTE"
	case Uword:
		return "UWORD"
	case Sword:
		return "SWORD"
	case Ulong:
		return "ULONG"
	case Slong:
		return "SLONG"
	case AUint64:
		return "A_UINT64"
	case AInt64:
		return "A_INT64"
	case Float32Ieee:
		return "FLOAT32_IEEE"
	case Float64Ieee:
		return "FLOAT64_IEEE"
	default:
		return "UBYTE"
	}
}

// ByteSize returns the storage width of d in bytes.
func (d DataType) ByteSize() int {
	switch d {
	case Ubyte, Sbyte:
		return 1
	case Uword, Sword:
		return 2
	case Ulong, Slong, Float32Ieee:
		return 4
	case AUint64, AInt64, Float64Ieee:
		return 8
	default:
		return 1
	}
}

// FromBase maps a symgraph.Base's (encoding, byte size) pair to the nearest
// A2L DataType. Integer sizes of 8, 4 and 2 bytes map to the 64-, 32- and
// 16-bit types; a size between two of those maps to the narrower one (3
// gives UWORD, 16 gives A_UINT64), and 0 or 1 gives the byte type. Floats
// of 8 or more bytes map to FLOAT64_IEEE, all others to FLOAT32_IEEE.
func FromBase(b symgraph.Base) DataType {
	switch b.Encoding {
	case symgraph.EncFloat:
		if b.ByteSize >= 8 {
			return Float64Ieee
		}
		return Float32Ieee
	case symgraph.EncInt:
		return fromSize(b.ByteSize, true)
	case symgraph.EncUint, symgraph.EncBool, symgraph.EncChar:
		return fromSize(b.ByteSize, false)
	default:
		return Ubyte
	}
}

func fromSize(size int, signed bool) DataType {
	switch {
	case size >= 8:
		if signed {
			return AInt64
		}
		return AUint64
	case size >= 4:
		if signed {
			return Slong
		}
		return Ulong
	case size >= 2:
		if signed {
			return Sword
		}
		return Uword
	default:
		if signed {
			return Sbyte
		}
		return Ubyte
	}
}

// FromPointer maps a pointer's own byte size to an unsigned integer
// DataType wide enough to hold an address, mirroring the original's
// `TypeInfo::Pointer(size)` branch (8-byte pointers become AUint64,
// everything else becomes Ulong).
func FromPointer(p symgraph.Pointer) DataType {
	if p.ByteSize >= 8 {
		return AUint64
	}
	return Ulong
}

// FromEnum maps an enum's underlying base type the same way FromBase would.
func FromEnum(e symgraph.Enum) DataType {
	return FromBase(e.Underlying)
}

// Limits is a closed numeric range expressed in raw (storage) units.
type Limits struct {
	Lower float64
	Upper float64
}

// StorageLimits returns the range representable by d itself, with no
// COMPU_METHOD domain narrowing applied (the synthesizer applies none
// either; see synth's computeLimits).
func StorageLimits(d DataType) Limits {
	switch d {
	case Ubyte:
		return Limits{0, math.MaxUint8}
	case Sbyte:
		return Limits{math.MinInt8, math.MaxInt8}
	case Uword:
		return Limits{0, math.MaxUint16}
	case Sword:
		return Limits{math.MinInt16, math.MaxInt16}
	case Ulong:
		return Limits{0, math.MaxUint32}
	case Slong:
		return Limits{math.MinInt32, math.MaxInt32}
	case AUint64:
		return Limits{0, math.MaxUint64}
	case AInt64:
		return Limits{math.MinInt64, math.MaxInt64}
	case Float32Ieee:
		return Limits{-math.MaxFloat32, math.MaxFloat32}
	case Float64Ieee:
		return Limits{-math.MaxFloat64, math.MaxFloat64}
	default:
		return Limits{0, 0}
	}
}

// BitFieldLimits returns the range of a bit-field of bitSize bits, signed
// per the underlying DataType. Mirrors the original's
// `raw_range = 1 << bit_size` with a signed split at half-range.
func BitFieldLimits(d DataType, bitSize int) Limits {
	rawRange := uint64(1) << uint(bitSize)
	switch d {
	case Sbyte, Sword, Slong, AInt64:
		half := float64(rawRange / 2)
		return Limits{-half, half - 1}
	default:
		return Limits{0, float64(rawRange - 1)}
	}
}

// EnumLimits returns [min(values), max(values)] over an Enum's enumerators,
// or {0, 0} for an enum with no enumerators (can't occur per the Symbol
// Graph invariant that enumerators are non-empty once registered, but the
// zero value is a safe fallback rather than a panic).
func EnumLimits(e symgraph.Enum) Limits {
	if len(e.EnumeratorVal) == 0 {
		return Limits{0, 0}
	}
	lower, upper := math.Inf(1), math.Inf(-1)
	for _, v := range e.EnumeratorVal {
		f := float64(v)
		if f < lower {
			lower = f
		}
		if f > upper {
			upper = f
		}
	}
	return Limits{lower, upper}
}

// Intersect narrows a to the overlap with b. If the two ranges are
// disjoint, a is returned unchanged rather than an inverted (lower >
// upper) range.
func Intersect(a, b Limits) Limits {
	result := Limits{Lower: math.Max(a.Lower, b.Lower), Upper: math.Min(a.Upper, b.Upper)}
	if result.Lower > result.Upper {
		return a
	}
	return result
}

// ErrUnsupportedEncoding reports an encoding with no A2L DataType. FromBase
// never returns it (it falls back to Ubyte), and no code in this module
// returns it.
type ErrUnsupportedEncoding struct {
	Encoding symgraph.Encoding
}

func (e ErrUnsupportedEncoding) Error() string {
	return fmt.Sprintf("a2ldatatype: unsupported encoding %d", e.Encoding)
}
