package update

import (
	"golang.org/x/sync/errgroup"

	"github.com/DanielT/a2ltool/internal/a2lmodel"
	"github.com/DanielT/a2ltool/internal/resolver"
	"github.com/DanielT/a2ltool/internal/symgraph"
)

// addressOnlyEntry is the minimal view runAddressOnly needs of a
// descriptor kind that has no recognized sub-kind taxonomy to mismatch
// against (AXIS_PTS, BLOB, INSTANCE) — only its address is reconciled,
// per spec.md §4.6 step 1's enumeration of descriptor kinds. A richer
// type-mismatch check, as CHARACTERISTIC/MEASUREMENT get, would require
// a BLOB/AXIS_PTS-specific kind-selection table spec.md never defines;
// this is recorded as a DESIGN.md simplification.
type addressOnlyEntry struct {
	name       string
	symbolLink string
	address    *uint32
	addressHex *bool
}

// resolveAddressesOnly runs resolver.Resolve (and only that — no
// synth.Classify) for every path concurrently. AXIS_PTS/BLOB/INSTANCE
// have no kind-selection table to classify against, so reusing the
// CHARACTERISTIC/MEASUREMENT resolveAll here would wrongly reject an
// otherwise-resolvable symbol whenever its type happens not to match
// classify's Value/ValBlk/Curve/Map shape (e.g. a plain struct bound to
// an INSTANCE).
func resolveAddressesOnly(g *symgraph.SymbolGraph, paths []string) []resolution {
	results := make([]resolution, len(paths))
	var eg errgroup.Group
	for i, path := range paths {
		i, path := i, path
		eg.Go(func() error {
			resolved, err := resolver.Resolve(g, path)
			results[i] = resolution{name: path, resolved: resolved, err: err}
			return nil
		})
	}
	_ = eg.Wait()
	return results
}

// runAddressOnly reconciles a set of address-only descriptors against g,
// returning the combined report and the set of names that should be
// removed from their ItemList by the caller (removal itself is
// kind-specific, since each ItemList holds a different element type).
func runAddressOnly(g *symgraph.SymbolGraph, policy Policy, entries []addressOnlyEntry, kindLabel string) (Report, map[string]bool, error) {
	var report Report
	removed := make(map[string]bool)

	paths := make([]string, len(entries))
	for i, e := range entries {
		paths[i] = symbolPath(e.symbolLink, e.name)
	}
	results := resolveAddressesOnly(g, paths)

	for i, e := range entries {
		res := results[i]
		if res.err != nil {
			switch policy.Mode {
			case Strict:
				return report, nil, ErrPolicyRejected{Kind: kindLabel, Name: e.name, Why: res.err.Error()}
			case Preserve:
				*e.address = 0
				*e.addressHex = false
				report.Unresolved++
			default:
				removed[e.name] = true
				report.Removed++
			}
			continue
		}
		applyAddress(e.address, e.addressHex, res.resolved.Address)
		report.Updated++
	}

	return report, removed, nil
}

func runAxisPts(g *symgraph.SymbolGraph, module *a2lmodel.Module, policy Policy) (Report, error) {
	all := module.AxisPtsList.All()
	entries := make([]addressOnlyEntry, len(all))
	for i, a := range all {
		entries[i] = addressOnlyEntry{name: a.Name, symbolLink: a.SymbolLink, address: &a.Address, addressHex: &a.AddressHex}
	}
	report, removed, err := runAddressOnly(g, policy, entries, "AXIS_PTS")
	if err != nil {
		return report, err
	}
	for name := range removed {
		module.AxisPtsList.Remove(name)
	}
	return report, nil
}

func runBlobs(g *symgraph.SymbolGraph, module *a2lmodel.Module, policy Policy) (Report, error) {
	all := module.Blobs.All()
	entries := make([]addressOnlyEntry, len(all))
	for i, b := range all {
		entries[i] = addressOnlyEntry{name: b.Name, symbolLink: b.SymbolLink, address: &b.Address, addressHex: &b.AddressHex}
	}
	report, removed, err := runAddressOnly(g, policy, entries, "BLOB")
	if err != nil {
		return report, err
	}
	for name := range removed {
		module.Blobs.Remove(name)
	}
	return report, nil
}

func runInstances(g *symgraph.SymbolGraph, module *a2lmodel.Module, policy Policy) (Report, error) {
	all := module.Instances.All()
	entries := make([]addressOnlyEntry, len(all))
	for i, inst := range all {
		entries[i] = addressOnlyEntry{name: inst.Name, symbolLink: inst.SymbolLink, address: &inst.Address, addressHex: &inst.AddressHex}
	}
	report, removed, err := runAddressOnly(g, policy, entries, "INSTANCE")
	if err != nil {
		return report, err
	}
	for name := range removed {
		module.Instances.Remove(name)
	}
	return report, nil
}
