// Package update implements the Update Coordinator (spec.md §4.6): it
// iterates the A2L module's descriptors, resolves each against the
// Symbol Graph, classifies the outcome per the Scope×Mode matrix, and
// applies the result to the module in place.
package update

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/DanielT/a2ltool/internal/a2lmodel"
	"github.com/DanielT/a2ltool/internal/resolver"
	"github.com/DanielT/a2ltool/internal/symgraph"
	"github.com/DanielT/a2ltool/internal/synth"
)

// Scope is spec.md §4.6's `what` axis.
type Scope int

const (
	Full Scope = iota
	AddressesOnly
)

// Mode is spec.md §4.6's `mode` axis.
type Mode int

const (
	Default Mode = iota
	Strict
	Preserve
)

// Policy is the Update Coordinator's input policy, spec.md §4.6's
// `{ what, mode }`.
type Policy struct {
	What Scope
	Mode Mode

	// SynthPolicy feeds synth.PopulateCharacteristic/PopulateMeasurement
	// when Full mode needs to rebuild a mismatched descriptor.
	SynthPolicy synth.Policy
}

// ErrPolicyRejected is returned when Strict mode observes any non-fatal
// condition the matrix would otherwise tolerate (spec.md §7
// `PolicyRejected`); it wraps the descriptor kind/name that triggered it.
type ErrPolicyRejected struct {
	Kind string
	Name string
	Why  string
}

func (e ErrPolicyRejected) Error() string {
	return fmt.Sprintf("update: %s %q rejected under strict mode: %s", e.Kind, e.Name, e.Why)
}

// Report is the Update Coordinator's structured output, spec.md §4.6
// step 7's `{ updated, removed, warned, unresolved }`.
type Report struct {
	Updated    int
	Removed    int
	Warned     int
	Unresolved int
}

func (r *Report) merge(o Report) {
	r.Updated += o.Updated
	r.Removed += o.Removed
	r.Warned += o.Warned
	r.Unresolved += o.Unresolved
}

// symbolPath reconstructs spec.md §4.6 step 2's "symbol reference
// string": the descriptor's SYMBOL_LINK if present, otherwise its name.
func symbolPath(symbolLink, name string) string {
	if symbolLink != "" {
		return symbolLink
	}
	return name
}

// resolution is one descriptor's outcome from the concurrent resolve
// phase, carried forward into the sequential apply phase.
type resolution struct {
	name     string
	resolved resolver.Resolved
	shape    synth.Shape
	err      error
}

// resolveAll runs resolver.Resolve (and synth.Classify) for every name
// in paths concurrently against the shared, immutable SymbolGraph,
// bounded by errgroup's default unlimited-but-cooperatively-scheduled
// goroutines — spec.md §5 explicitly permits parallelizing per-descriptor
// resolution this way. Results come back in input order so the caller
// can zip them against the original descriptor list.
func resolveAll(g *symgraph.SymbolGraph, paths []string, synthPolicy synth.Policy) []resolution {
	results := make([]resolution, len(paths))
	var eg errgroup.Group
	for i, path := range paths {
		i, path := i, path
		eg.Go(func() error {
			resolved, err := resolver.Resolve(g, path)
			if err != nil {
				results[i] = resolution{name: path, err: err}
				return nil
			}
			shape, classErr := synth.Classify(g, resolved.EffectiveType, resolved, synthPolicy)
			results[i] = resolution{name: path, resolved: resolved, shape: shape, err: classErr}
			return nil
		})
	}
	_ = eg.Wait() // goroutines never return a non-nil error; failures are carried in resolution.err
	return results
}

// Run executes the Update Coordinator against module's MEASUREMENT,
// CHARACTERISTIC, AXIS_PTS, BLOB, INSTANCE, TYPEDEF_MEASUREMENT, and
// TYPEDEF_CHARACTERISTIC descriptors, mutating module in place (the AST
// is not safe for concurrent mutation — only the resolve phase is
// parallelized, per spec.md §5).
func Run(ctx context.Context, g *symgraph.SymbolGraph, module *a2lmodel.Module, policy Policy) (Report, error) {
	var report Report

	r, err := runCharacteristics(g, module, policy)
	report.merge(r)
	if err != nil {
		return report, err
	}

	r, err = runMeasurements(g, module, policy)
	report.merge(r)
	if err != nil {
		return report, err
	}

	r, err = runAxisPts(g, module, policy)
	report.merge(r)
	if err != nil {
		return report, err
	}

	r, err = runBlobs(g, module, policy)
	report.merge(r)
	if err != nil {
		return report, err
	}

	r, err = runInstances(g, module, policy)
	report.merge(r)
	if err != nil {
		return report, err
	}

	r, err = runTypedefMeasurements(g, module, policy)
	report.merge(r)
	if err != nil {
		return report, err
	}

	r, err = runTypedefCharacteristics(g, module, policy)
	report.merge(r)
	return report, err
}

var errRejectedSentinel = errors.New("update: rejected under strict mode")

// ErrRejected is the sentinel wrapped by every ErrPolicyRejected, for
// errors.Is checks at the process boundary (spec.md §7: "Strict
// escalates any warning to a fatal error, returning a non-zero exit
// status").
var ErrRejected = errRejectedSentinel

func (e ErrPolicyRejected) Unwrap() error { return errRejectedSentinel }
