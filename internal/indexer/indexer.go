// Package indexer builds a symgraph.SymbolGraph once from a binary (plus
// its optional separate PDB), the binary-debug-info analogue of building
// an index once from a directory of Go source: the caller pays the parse
// cost a single time up front and queries the resulting graph as often as
// it likes afterward.
package indexer

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/DanielT/a2ltool/internal/binloader"
	"github.com/DanielT/a2ltool/internal/dwarfreader"
	"github.com/DanielT/a2ltool/internal/pdbreader"
	"github.com/DanielT/a2ltool/internal/symgraph"
)

// ErrNoDebugInfo is returned when neither DWARF nor an associated PDB can
// be found for the requested binary.
var ErrNoDebugInfo = errors.New("indexer: no debug information found")

// Options tune how the underlying readers behave.
type Options struct {
	// Strict aborts the whole read on the first unit-level malformation
	// instead of skipping the offending unit and continuing.
	Strict bool
	// PDBPath, if set, is read directly instead of deriving debug info
	// from binPath's own sections. Use this for PE binaries shipped with
	// a separate .pdb rather than embedded DWARF.
	PDBPath string
}

// Load builds a Symbol Graph from binPath. If opts.PDBPath is set, the PDB
// is read directly (the PE/ELF container itself is never opened); otherwise
// binPath is opened with binloader and its DWARF sections are read. log may
// be nil.
func Load(binPath string, opts Options, log logrus.FieldLogger) (*symgraph.SymbolGraph, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	if opts.PDBPath != "" {
		log.WithField("pdb", opts.PDBPath).Info("indexer: reading PDB")
		g, _, err := pdbreader.Read(opts.PDBPath, log)
		if err != nil {
			return nil, fmt.Errorf("indexer: %w", err)
		}
		return g, nil
	}

	log.WithField("binary", binPath).Info("indexer: loading binary")
	img, err := binloader.Load(binPath, log)
	if err != nil {
		if errors.Is(err, binloader.ErrNoDebugInfo) {
			return nil, fmt.Errorf("%w: %w", ErrNoDebugInfo, err)
		}
		return nil, fmt.Errorf("indexer: %w", err)
	}

	g, err := dwarfreader.Read(img, dwarfreader.Options{Strict: opts.Strict}, log)
	if err != nil {
		if errors.Is(err, binloader.ErrNoDebugInfo) {
			return nil, fmt.Errorf("%w: %w", ErrNoDebugInfo, err)
		}
		return nil, fmt.Errorf("indexer: %w", err)
	}
	return g, nil
}
