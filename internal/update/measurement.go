package update

import (
	"fmt"

	"github.com/DanielT/a2ltool/internal/a2lmodel"
	"github.com/DanielT/a2ltool/internal/symgraph"
	"github.com/DanielT/a2ltool/internal/synth"
)

// runMeasurements reconciles every MEASUREMENT per spec.md §4.6's
// outcome matrix; the MEASUREMENT analogue of runCharacteristics.
func runMeasurements(g *symgraph.SymbolGraph, module *a2lmodel.Module, policy Policy) (Report, error) {
	var report Report

	all := module.Measurements.All()
	paths := make([]string, len(all))
	for i, m := range all {
		paths[i] = symbolPath(m.SymbolLink, m.Name)
	}
	results := resolveAll(g, paths, policy.SynthPolicy)

	removed := make(map[string]bool)
	for i, m := range all {
		res := results[i]

		if res.err != nil {
			switch policy.Mode {
			case Strict:
				return report, ErrPolicyRejected{Kind: "MEASUREMENT", Name: m.Name, Why: res.err.Error()}
			case Preserve:
				m.Address = 0
				m.AddressHex = false
				report.Unresolved++
			default:
				removed[m.Name] = true
				report.Removed++
			}
			continue
		}

		mismatch := synth.MeasurementMismatch(res.shape, m)
		if !mismatch {
			applyAddress(&m.Address, &m.AddressHex, res.resolved.Address)
			if policy.What == Full {
				if err := synth.PopulateMeasurement(g, res.resolved, res.shape, module, m); err != nil {
					return report, fmt.Errorf("update: refreshing measurement %q: %w", m.Name, err)
				}
			}
			report.Updated++
			continue
		}

		switch policy.Mode {
		case Strict:
			return report, ErrPolicyRejected{Kind: "MEASUREMENT", Name: m.Name, Why: "type mismatch"}
		case Preserve:
			applyAddress(&m.Address, &m.AddressHex, res.resolved.Address)
			report.Warned++
		default:
			if policy.What == Full {
				if err := synth.PopulateMeasurement(g, res.resolved, res.shape, module, m); err != nil {
					return report, fmt.Errorf("update: rebuilding measurement %q: %w", m.Name, err)
				}
				report.Updated++
			} else {
				applyAddress(&m.Address, &m.AddressHex, res.resolved.Address)
				report.Warned++
			}
		}
	}

	if len(removed) > 0 {
		for name := range removed {
			module.Measurements.Remove(name)
		}
		a2lmodel.CleanupRemovedMeasurements(module, removed)
	}

	return report, nil
}
