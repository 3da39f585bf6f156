// Package report prints an internal/update.Report to a terminal, coloring
// each outcome count the way a calibration engineer scanning a long CLI
// run expects: green for what changed cleanly, yellow for what survived
// but needed a warning, red for what's gone, cyan for what neither
// resolved nor broke anything. Grounded on
// _examples/vovakirdan-surge/internal/version/version.go's use of
// fatih/color (package-level *color.Color values built once, Sprint'd
// per call) rather than wrapping every Printf call individually.
package report

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

var (
	updatedColor    = color.New(color.FgGreen, color.Bold)
	removedColor    = color.New(color.FgRed, color.Bold)
	warnedColor     = color.New(color.FgYellow, color.Bold)
	unresolvedColor = color.New(color.FgCyan, color.Bold)
	headingColor    = color.New(color.Bold)
)

// Counts is the subset of internal/update.Report this package renders;
// declared independently so internal/report does not import internal/update
// (the report is a pure presentation layer, reusable by any future caller
// that assembles its own counts).
type Counts struct {
	Updated    int
	Removed    int
	Warned     int
	Unresolved int
}

// Print writes a one-line-per-outcome summary of c to w, e.g.:
//
//	Update summary for module.a2l:
//	  updated:    12
//	  removed:    1
//	  warned:     3
//	  unresolved: 0
func Print(w io.Writer, moduleName string, c Counts) {
	fmt.Fprintln(w, headingColor.Sprintf("Update summary for %s:", moduleName))
	fmt.Fprintf(w, "  updated:    %s\n", updatedColor.Sprint(c.Updated))
	fmt.Fprintf(w, "  removed:    %s\n", removedColor.Sprint(c.Removed))
	fmt.Fprintf(w, "  warned:     %s\n", warnedColor.Sprint(c.Warned))
	fmt.Fprintf(w, "  unresolved: %s\n", unresolvedColor.Sprint(c.Unresolved))
}

// Exit reports spec.md §7's rule: Strict mode already turns any rejected
// descriptor into a returned error upstream, but a Default/Preserve run
// that still produced warnings or unresolved entries should exit non-zero
// so CI notices, without needing to inspect stderr text.
func Exit(c Counts) int {
	if c.Warned > 0 || c.Unresolved > 0 {
		return 1
	}
	return 0
}
