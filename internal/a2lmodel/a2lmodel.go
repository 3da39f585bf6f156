// Package a2lmodel is the in-memory stand-in for the external A2L
// lexer/printer library named as an out-of-scope collaborator in spec.md
// §6: it implements exactly the interface the reconciliation core
// consumes — enumerate descriptors by kind, look up by unique name,
// insert, remove, get/set each of a descriptor's typed attributes, and
// iterate GROUP/FUNCTION references — so that the Synthesizer and the
// Update Coordinator can be built and tested end to end. It does not
// parse or print A2L text; that remains the named external library's
// job (spec.md §1 Non-goals).
package a2lmodel

import "github.com/DanielT/a2ltool/internal/a2ldatatype"

// ItemList is an ordered, name-indexed collection, the Go analogue of
// the original_source `a2lfile::ItemList<T>` (insertion order preserved
// for deterministic output, O(1) lookup by name).
type ItemList[T any] struct {
	order []string
	byName map[string]*T
}

// NewItemList returns an empty ItemList.
func NewItemList[T any]() *ItemList[T] {
	return &ItemList[T]{byName: make(map[string]*T)}
}

// Insert adds or replaces the item named name. A new name is appended to
// the order; replacing an existing name keeps its original position.
func (l *ItemList[T]) Insert(name string, item *T) {
	if _, exists := l.byName[name]; !exists {
		l.order = append(l.order, name)
	}
	l.byName[name] = item
}

// Get looks up an item by name.
func (l *ItemList[T]) Get(name string) (*T, bool) {
	item, ok := l.byName[name]
	return item, ok
}

// Remove deletes the item named name, if present.
func (l *ItemList[T]) Remove(name string) {
	if _, ok := l.byName[name]; !ok {
		return
	}
	delete(l.byName, name)
	for i, n := range l.order {
		if n == name {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
}

// All returns every item in insertion order.
func (l *ItemList[T]) All() []*T {
	result := make([]*T, 0, len(l.order))
	for _, n := range l.order {
		result = append(result, l.byName[n])
	}
	return result
}

// Len reports the number of items.
func (l *ItemList[T]) Len() int {
	return len(l.order)
}

// CharacteristicKind is the sub-kind of a CHARACTERISTIC or
// TYPEDEF_CHARACTERISTIC, per spec.md §3.
type CharacteristicKind int

const (
	KindValue CharacteristicKind = iota
	KindValBlk
	KindAscii
	KindCurve
	KindMap
	KindCuboid
	KindCube4
	KindCube5
)

func (k CharacteristicKind) String() string {
	switch k {
	case KindValue:
		return "VALUE"
	case KindValBlk:
		return "VAL_BLK"
	case KindAscii:
		return "ASCII"
	case KindCurve:
		return "CURVE"
	case KindMap:
		return "MAP"
	case KindCuboid:
		return "CUBOID"
	case KindCube4:
		return "CUBE_4"
	case KindCube5:
		return "CUBE_5"
	default:
		return "VALUE"
	}
}

// AxisDescr is one axis description inside a CHARACTERISTIC or
// TYPEDEF_CHARACTERISTIC of a multi-axis kind. Ordering within the
// owning descriptor's AxisDescr slice matters: index 0 is the x axis,
// index 1 is y, and so on (spec.md §4.5 worked example).
type AxisDescr struct {
	InputQuantity string // symbol path feeding the axis, or "" for a standalone AXIS_PTS reference
	AxisPtsRef    string // name of an external AXIS_PTS, or "" for an internal axis
	Conversion    string
	MaxAxisPoints int
	LowerLimit    float64
	UpperLimit    float64
}

// Characteristic is a tunable parameter descriptor.
type Characteristic struct {
	Name                  string
	Kind                  CharacteristicKind
	Address               uint32
	AddressHex            bool // ECU_ADDRESS display switched to hexadecimal
	SymbolLink            string
	Deposit               string // RECORD_LAYOUT name
	Conversion            string // COMPU_METHOD name, "NO_COMPU_METHOD" if absent
	LowerLimit            float64
	UpperLimit            float64
	BitMask               *uint64
	MatrixDim             []int // fastest-varying axis first, per A2L convention
	AxisDescr             []AxisDescr
	VirtualCharacteristic bool // computed characteristic: never has its own address
	Dependent             *DependentCharacteristic
}

// DependentCharacteristic is a CHARACTERISTIC's optional DEPENDENT_CHARACTERISTIC
// block: its value is computed from a formula over other CHARACTERISTICs
// rather than read from its own address.
type DependentCharacteristic struct {
	Formula           string
	RefCharacteristic []string
}

// Measurement is a read-only runtime variable descriptor.
type Measurement struct {
	Name       string
	Datatype   a2ldatatype.DataType
	Address    uint32
	AddressHex bool
	SymbolLink string
	Conversion string
	LowerLimit float64
	UpperLimit float64
	BitMask    *uint64
	MatrixDim  []int
}

// AxisPts is a standalone axis shared between multiple Curves/Maps.
type AxisPts struct {
	Name          string
	Address       uint32
	AddressHex    bool
	SymbolLink    string
	Deposit       string
	Conversion    string
	LowerLimit    float64
	UpperLimit    float64
	MaxAxisPoints int
}

// Blob is an opaque byte-range descriptor for data with no recognized
// MEASUREMENT/CHARACTERISTIC shape.
type Blob struct {
	Name       string
	Address    uint32
	AddressHex bool
	SymbolLink string
	Size       int
}

// StructureComponent is one member of a TYPEDEF_STRUCTURE: a name, byte
// offset, the name of the TYPEDEF_MEASUREMENT/TYPEDEF_CHARACTERISTIC/
// TYPEDEF_STRUCTURE it instantiates, and an optional array size.
type StructureComponent struct {
	Name      string
	Offset    int
	TypeName  string
	MatrixDim []int
}

// TypedefStructure is a reusable struct-shaped template (A2L >= 1.7.1).
type TypedefStructure struct {
	Name       string
	Size       int
	Components []StructureComponent
}

// Instance binds a TypedefStructure to a concrete address.
type Instance struct {
	Name       string
	TypeName   string // TypedefStructure name
	Address    uint32
	AddressHex bool
	SymbolLink string
}

// TypedefMeasurement / TypedefCharacteristic are the address-less
// templates a StructureComponent refers to.
type TypedefMeasurement struct {
	Name       string
	Datatype   a2ldatatype.DataType
	Conversion string
	LowerLimit float64
	UpperLimit float64
	BitMask    *uint64
	MatrixDim  []int
}

type TypedefCharacteristic struct {
	Name       string
	Kind       CharacteristicKind
	Deposit    string
	Conversion string
	LowerLimit float64
	UpperLimit float64
	BitMask    *uint64
	MatrixDim  []int
}

// CompuMethodKind is the conversion rule family a COMPU_METHOD applies.
type CompuMethodKind int

const (
	CompuIdentical CompuMethodKind = iota
	CompuLinear
	CompuRatFunc
	CompuTabIntp
	CompuTabNointp
	CompuFormula
	CompuTabVerb
)

// CompuMethod converts between raw (ECU-stored) and physical values.
type CompuMethod struct {
	Name         string
	Kind         CompuMethodKind
	Coefficients []float64 // linear: [a, b] such that physical = a*raw + b
	CompuTabRef  string    // for CompuTabVerb/CompuTabIntp/CompuTabNointp
}

// ForwardTransform applies the conversion's raw->physical direction to a
// pair of storage-unit limits, per spec.md §4.6 rule 6 ("numeric limits
// are always expressed in physical units"). Only the closed-form linear
// case is transformed here; every other COMPU_METHOD kind returns the
// limits untouched — DESIGN.md records this under open question (a).
func (c CompuMethod) ForwardTransform(lower, upper float64) (float64, float64) {
	if c.Kind == CompuLinear && len(c.Coefficients) == 2 {
		a, b := c.Coefficients[0], c.Coefficients[1]
		lo, hi := a*lower+b, a*upper+b
		if lo > hi {
			lo, hi = hi, lo
		}
		return lo, hi
	}
	return lower, upper
}

// CompuTabEntry is one raw->display-string mapping inside a COMPU_TAB
// (or COMPU_VTAB in the original's terminology).
type CompuTabEntry struct {
	InVal  int64
	OutVal string
}

// CompuTab backs a TAB_VERB/TAB_NOINTP/TAB_INTP COMPU_METHOD.
type CompuTab struct {
	Name    string
	Entries []CompuTabEntry
}

// RecordLayoutComponent is one element of a RECORD_LAYOUT's declarative
// byte-organization description: a role tag (FNC_VALUES, AXIS_PTS_X,
// AXIS_PTS_Y, AXIS_PTS_Z, AXIS_PTS_4, AXIS_PTS_5, ...), its position
// within the record, datatype, and addressing mode.
type RecordLayoutComponent struct {
	Role       string
	Position   int
	Datatype   a2ldatatype.DataType
	IndexMode  string // e.g. "ROW_DIR", "INDEX_INCR"
	Addressing string // e.g. "DIRECT"
}

// RecordLayout describes how the bytes of a descriptor are organized.
type RecordLayout struct {
	Name       string
	Components []RecordLayoutComponent
}

// Group collects named references for calibration-tool navigation.
type Group struct {
	Name             string
	RefCharacteristic []string
	RefMeasurement    []string
}

// Function collects defining/referencing CHARACTERISTIC lists for one
// ECU software function.
type Function struct {
	Name              string
	DefCharacteristic []string
	RefCharacteristic []string
}

// Module is the root A2L container the core reads and mutates.
type Module struct {
	Measurements           *ItemList[Measurement]
	Characteristics        *ItemList[Characteristic]
	AxisPtsList            *ItemList[AxisPts]
	Blobs                  *ItemList[Blob]
	Instances              *ItemList[Instance]
	TypedefStructures      *ItemList[TypedefStructure]
	TypedefMeasurements    *ItemList[TypedefMeasurement]
	TypedefCharacteristics *ItemList[TypedefCharacteristic]
	CompuMethods           *ItemList[CompuMethod]
	CompuTabs              *ItemList[CompuTab]
	RecordLayouts          *ItemList[RecordLayout]
	Groups                 *ItemList[Group]
	Functions              *ItemList[Function]
}

// NewModule returns an empty Module with every collection initialized.
func NewModule() *Module {
	return &Module{
		Measurements:           NewItemList[Measurement](),
		Characteristics:        NewItemList[Characteristic](),
		AxisPtsList:            NewItemList[AxisPts](),
		Blobs:                  NewItemList[Blob](),
		Instances:              NewItemList[Instance](),
		TypedefStructures:      NewItemList[TypedefStructure](),
		TypedefMeasurements:    NewItemList[TypedefMeasurement](),
		TypedefCharacteristics: NewItemList[TypedefCharacteristic](),
		CompuMethods:           NewItemList[CompuMethod](),
		CompuTabs:              NewItemList[CompuTab](),
		RecordLayouts:          NewItemList[RecordLayout](),
		Groups:                 NewItemList[Group](),
		Functions:              NewItemList[Function](),
	}
}

// CleanupItemList removes every name in removed from ids, the Go
// analogue of original_source's `cleanup_item_list`, used when a
// descriptor disappears from the module (spec.md §4.6 step 4, "unresolved"
// row) and must also be dropped from any GROUP/FUNCTION that named it.
func CleanupItemList(ids []string, removed map[string]bool) []string {
	if len(removed) == 0 {
		return ids
	}
	kept := ids[:0]
	for _, id := range ids {
		if !removed[id] {
			kept = append(kept, id)
		}
	}
	return kept
}

// CleanupRemovedCharacteristics drops every name in removed from every
// GROUP.RefCharacteristic and FUNCTION.{Def,Ref}Characteristic list, and
// from every surviving CHARACTERISTIC's DEPENDENT_CHARACTERISTIC formula
// inputs, mirroring original_source/src/update/characteristic.rs's
// cleanup_removed_characteristics.
func CleanupRemovedCharacteristics(m *Module, removed map[string]bool) {
	if len(removed) == 0 {
		return
	}
	for _, g := range m.Groups.All() {
		g.RefCharacteristic = CleanupItemList(g.RefCharacteristic, removed)
	}
	for _, f := range m.Functions.All() {
		f.DefCharacteristic = CleanupItemList(f.DefCharacteristic, removed)
		f.RefCharacteristic = CleanupItemList(f.RefCharacteristic, removed)
	}
	for _, c := range m.Characteristics.All() {
		if c.Dependent != nil {
			c.Dependent.RefCharacteristic = CleanupItemList(c.Dependent.RefCharacteristic, removed)
		}
	}
}

// CleanupRemovedMeasurements is the MEASUREMENT analogue, dropping names
// from every GROUP.RefMeasurement list.
func CleanupRemovedMeasurements(m *Module, removed map[string]bool) {
	if len(removed) == 0 {
		return
	}
	for _, g := range m.Groups.All() {
		g.RefMeasurement = CleanupItemList(g.RefMeasurement, removed)
	}
}
