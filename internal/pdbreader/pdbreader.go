// Package pdbreader builds a symgraph.SymbolGraph from a Microsoft PDB,
// the second of the two Debug-Info Reader back-ends (spec.md §4.3). It is
// built on github.com/jtang613/gopdb's TPI/DBI stream readers
// (_examples/other_examples/jtang613-gopdb__types.go), the PDB parser
// retrieved alongside this spec — there is no PDB reader in the Go
// standard library, so this is the back-end's sole concrete dependency.
//
// Mapping: TPI stream -> type registry, DBI + global symbol stream ->
// globals, section-contribution map -> section table. The output graph is
// structurally indistinguishable to downstream consumers from the DWARF
// path (spec.md §4.3).
package pdbreader

import (
	"fmt"
	"strings"

	"github.com/jtang613/gopdb/pdb"
	"github.com/sirupsen/logrus"

	"github.com/DanielT/a2ltool/internal/binloader"
	"github.com/DanielT/a2ltool/internal/demangle"
	"github.com/DanielT/a2ltool/internal/symgraph"
)

// Read opens the PDB at path and returns its Symbol Graph plus the
// section-contribution table (handed back so the caller can build the
// paired binloader.LoadedImage per spec.md §4.1's "loaded separately"
// rule).
func Read(path string, log logrus.FieldLogger) (*symgraph.SymbolGraph, []binloader.Section, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	file, err := pdb.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("pdbreader: opening %s: %w", path, err)
	}
	defer file.Close()

	sections, err := file.Sections()
	if err != nil {
		return nil, nil, fmt.Errorf("pdbreader: reading sections: %w", err)
	}
	secTable := make([]binloader.Section, 0, len(sections))
	for _, s := range sections {
		secTable = append(secTable, binloader.Section{
			Name:       s.Name,
			VAddr:      uint64(s.Offset),
			VSize:      uint64(s.Length),
			Executable: strings.Contains(strings.ToLower(s.Name), "text"),
		})
	}

	types, err := file.Types()
	if err != nil {
		return nil, nil, fmt.Errorf("pdbreader: reading TPI stream: %w", err)
	}

	conv := &converter{graph: symgraph.New(), byIndex: make(map[uint32]symgraph.TypeId), log: log}
	// TPI indices can forward-reference each other (a struct referencing a
	// pointer to itself); reserve every TypeId before converting any body,
	// mirroring the DWARF back-end's forward-reference handling.
	for _, t := range types {
		conv.byIndex[t.Index] = conv.graph.ReserveType()
	}
	byIdx := make(map[uint32]pdb.TypeInfo, len(types))
	for _, t := range types {
		byIdx[t.Index] = t
	}
	conv.typesByIndex = byIdx
	for _, t := range types {
		conv.graph.SetType(conv.byIndex[t.Index], conv.buildNode(t))
	}

	variables, err := file.Globals()
	if err != nil {
		return nil, nil, fmt.Errorf("pdbreader: reading global symbol stream: %w", err)
	}
	for _, v := range variables {
		demangled, mangled := demangle.Demangle(v.Name)
		typeId, ok := conv.byIndex[v.TypeIndex]
		if !ok {
			log.WithField("symbol", v.Name).Warn("pdbreader: global references unknown type index")
			continue
		}
		sym := symgraph.GlobalSymbol{
			Name:    demangled,
			Mangled: mangled,
			Address: sectionRVAToAddress(secTable, v.Segment, v.RVA, v.Offset),
			TypeId:  typeId,
			Kind:    symgraph.KindVariable,
		}
		conv.graph.AddGlobal(sym)
		if mangled != demangled {
			m := sym
			m.Name = mangled
			conv.graph.AddGlobal(m)
		}
	}

	log.WithField("globals", len(variables)).WithField("types", len(types)).Debug("pdbreader: read complete")
	return conv.graph, secTable, nil
}

// sectionRVAToAddress resolves a PDB (segment, offset)/RVA pair to an
// absolute address using the section-contribution table. RVA, when
// non-zero, is already image-base-relative and is used directly once
// combined with the PE image base by the caller; the segment:offset form
// is resolved against the matching section's base address.
func sectionRVAToAddress(sections []binloader.Section, segment uint16, rva, offset uint32) uint64 {
	if rva != 0 {
		return uint64(rva)
	}
	idx := int(segment) - 1 // PDB section indices are 1-based
	if idx >= 0 && idx < len(sections) {
		return sections[idx].VAddr + uint64(offset)
	}
	return uint64(offset)
}
