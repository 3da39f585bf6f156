// Package dwarfreader builds a symgraph.SymbolGraph from a binary's DWARF
// debug information (versions 2 through 5, including DWZ-deduplicated and
// MinGW-embedded-in-PE files). It leans on the standard library's
// debug/dwarf type resolver — which already walks DW_TAG_structure_type,
// DW_TAG_array_type (collapsing DW_TAG_subrange_type children into nested
// ArrayTypes), DW_TAG_enumeration_type, and the qualifier tags into a
// ready-made dwarf.Type tree, cycle-safe — rather than re-implementing DIE
// attribute parsing from scratch; go-delve/delve builds its own richer
// wrapper (pkg/dwarf/godwarf) for the same reason but the stdlib resolver
// is sufficient here and is the more idiomatic starting point for a
// project of this size.
package dwarfreader

import (
	"debug/dwarf"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/DanielT/a2ltool/internal/binloader"
	"github.com/DanielT/a2ltool/internal/demangle"
	"github.com/DanielT/a2ltool/internal/symgraph"
)

// ErrMalformed mirrors spec.md §7's MalformedDebugInfo: a parse failure
// below the unit level. A unit that fails to convert is skipped and the
// walk continues with the next unit; an error from the DIE iterator itself
// ends the walk, keeping what was read before it. In Strict mode either
// error is returned instead.
type ErrMalformed struct {
	Stream string
	Offset dwarf.Offset
	Detail string
}

func (e ErrMalformed) Error() string {
	return fmt.Sprintf("dwarfreader: malformed %s at offset %#x: %s", e.Stream, e.Offset, e.Detail)
}

// Options tune reader behavior.
type Options struct {
	// Strict aborts the whole read on the first unit-level malformation
	// instead of skipping the unit and continuing.
	Strict bool
}

// Read walks every compilation unit of img's DWARF data in a single pass
// and returns the resulting Symbol Graph. A type is converted and
// registered when a variable first references it (wherever in the unit the
// type DIE sits), so forward references resolve.
func Read(img *binloader.LoadedImage, opts Options, log logrus.FieldLogger) (*symgraph.SymbolGraph, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	data, err := dwarfData(img)
	if err != nil {
		return nil, err
	}

	g := symgraph.New()
	conv := &converter{
		data:         data,
		graph:        g,
		cache:        make(map[dwarf.Offset]symgraph.TypeId),
		littleEndian: img.LittleEndian,
		log:          log,
	}

	reader := data.Reader()
	var skippedUnits int
	for {
		entry, err := reader.Next()
		if err != nil {
			if opts.Strict {
				return nil, ErrMalformed{Stream: ".debug_info", Detail: err.Error()}
			}
			log.WithError(err).Warn("dwarfreader: skipping malformed unit")
			skippedUnits++
			break
		}
		if entry == nil {
			break
		}
		if entry.Tag != dwarf.TagCompileUnit {
			continue
		}
		if err := conv.walkUnit(reader, entry); err != nil {
			if opts.Strict {
				return nil, err
			}
			log.WithError(err).Warn("dwarfreader: skipping unit after error")
			skippedUnits++
		}
	}

	if g.TypeCount() == 0 && len(conv.globalNames) == 0 {
		return nil, errors.New("dwarfreader: no usable DWARF content")
	}
	log.WithField("skipped_units", skippedUnits).WithField("globals", len(conv.globalNames)).
		Debug("dwarfreader: read complete")
	return g, nil
}

// dwarfData obtains a *dwarf.Data for img regardless of whether it is an
// ELF image, a MinGW-emitted PE carrying embedded DWARF, or a plain ELF
// processed by the DWZ deduplicator. Only the image's own DWARF sections
// are read: no DWZ supplementary file is opened, so references into one
// are not resolved.
func dwarfData(img *binloader.LoadedImage) (*dwarf.Data, error) {
	switch img.Kind {
	case binloader.ContainerELF:
		d, err := img.ELF().DWARF()
		if err != nil {
			return nil, fmt.Errorf("dwarfreader: %w", binloader.ErrNoDebugInfo)
		}
		return d, nil
	case binloader.ContainerPE:
		d, err := img.PE().DWARF()
		if err != nil {
			return nil, fmt.Errorf("dwarfreader: %w", binloader.ErrNoDebugInfo)
		}
		return d, nil
	default:
		return nil, fmt.Errorf("dwarfreader: %w", binloader.ErrUnsupportedContainer)
	}
}

// converter holds the state threaded through one Read call: the stdlib
// DWARF handle, the Symbol Graph being built, a per-offset type cache (so
// cyclic and shared types are only converted once), and the set of global
// names already registered.
type converter struct {
	data         *dwarf.Data
	graph        *symgraph.SymbolGraph
	cache        map[dwarf.Offset]symgraph.TypeId
	littleEndian bool
	log          logrus.FieldLogger
	globalNames  []string
}

// walkUnit registers every DW_TAG_variable (and DW_TAG_namespace-nested
// variable) directly under the compile unit entry as a global.
func (c *converter) walkUnit(r *dwarf.Reader, cu *dwarf.Entry) error {
	for {
		entry, err := r.Next()
		if err != nil {
			return ErrMalformed{Stream: ".debug_info", Offset: cu.Offset, Detail: err.Error()}
		}
		if entry == nil {
			return nil // end of data
		}
		if entry.Tag == 0 {
			return nil // end of this unit's children (closing null entry)
		}

		switch entry.Tag {
		case dwarf.TagVariable:
			c.convertGlobal(entry)
		case dwarf.TagNamespace, dwarf.TagStructType, dwarf.TagUnionType, dwarf.TagClassType:
			// Named globals can live inside a namespace/class; recurse to
			// collect them, but don't treat nested members as globals.
			if entry.Children {
				if err := c.skipOrRecurse(r, entry); err != nil {
					return err
				}
			}
		default:
			if entry.Children {
				if err := r.SkipChildren(); err != nil {
					return ErrMalformed{Stream: ".debug_info", Offset: entry.Offset, Detail: err.Error()}
				}
			}
		}
	}
}

func (c *converter) skipOrRecurse(r *dwarf.Reader, parent *dwarf.Entry) error {
	if parent.Tag == dwarf.TagNamespace {
		for {
			entry, err := r.Next()
			if err != nil {
				return ErrMalformed{Stream: ".debug_info", Offset: parent.Offset, Detail: err.Error()}
			}
			if entry == nil || entry.Tag == 0 {
				return nil
			}
			if entry.Tag == dwarf.TagVariable {
				c.convertGlobal(entry)
			} else if entry.Children {
				if err := r.SkipChildren(); err != nil {
					return ErrMalformed{Stream: ".debug_info", Offset: entry.Offset, Detail: err.Error()}
				}
			}
		}
	}
	return r.SkipChildren()
}

// convertGlobal converts one DW_TAG_variable entry with DW_AT_location
// (a static address) into a symgraph.GlobalSymbol.
func (c *converter) convertGlobal(entry *dwarf.Entry) {
	name, _ := entry.Val(dwarf.AttrName).(string)
	if name == "" {
		return
	}
	typeOff, ok := entry.Val(dwarf.AttrType).(dwarf.Offset)
	if !ok {
		return
	}
	addr, ok := staticAddress(entry)
	if !ok {
		return // no link-time address: a register variable or optimized out
	}

	dt, err := c.data.Type(typeOff)
	if err != nil {
		c.log.WithError(err).WithField("symbol", name).Warn("dwarfreader: unresolvable variable type")
		return
	}
	typeId := c.convertType(dt)

	demangled, mangled := demangle.Demangle(name)

	sym := symgraph.GlobalSymbol{
		Name:    demangled,
		Mangled: mangled,
		Address: addr,
		TypeId:  typeId,
		Kind:    symgraph.KindVariable,
	}
	if dup := c.graph.AddGlobal(sym); dup {
		c.log.WithField("symbol", demangled).Debug("dwarfreader: deduplicated global across compilation units")
	} else {
		c.globalNames = append(c.globalNames, demangled)
	}
	// Keep the mangled form reachable too, per spec.md §4.2: "a symbol
	// whose demangled form still contains unresolved template punctuation
	// is kept under both mangled and demangled keys."
	if mangled != demangled {
		mangledSym := sym
		mangledSym.Name = mangled
		c.graph.AddGlobal(mangledSym)
	}
}

// staticAddress extracts a fixed link-time address from a DW_AT_location
// expression of the common single-opcode form (DW_OP_addr <addr>). Any
// more elaborate location expression (register, computed, optimized out)
// is not a static global and is skipped.
func staticAddress(entry *dwarf.Entry) (uint64, bool) {
	loc, ok := entry.Val(dwarf.AttrLocation).([]byte)
	if !ok || len(loc) == 0 {
		return 0, false
	}
	const opAddr = 0x03
	if loc[0] != opAddr {
		return 0, false
	}
	rest := loc[1:]
	var addr uint64
	switch len(rest) {
	case 4:
		for i := 0; i < 4; i++ {
			addr |= uint64(rest[i]) << (8 * i)
		}
	case 8:
		for i := 0; i < 8; i++ {
			addr |= uint64(rest[i]) << (8 * i)
		}
	default:
		return 0, false
	}
	return addr, true
}
