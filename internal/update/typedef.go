package update

import (
	"fmt"

	"github.com/DanielT/a2ltool/internal/a2lmodel"
	"github.com/DanielT/a2ltool/internal/symgraph"
	"github.com/DanielT/a2ltool/internal/synth"
)

// runTypedefMeasurements reconciles every TYPEDEF_MEASUREMENT per
// spec.md §4.6 step 1's enumeration. A TYPEDEF_MEASUREMENT carries no
// ECU_ADDRESS of its own (only the INSTANCE binding its owning
// TYPEDEF_STRUCTURE to an address does), so the outcome matrix's
// address-update cells collapse to a plain refresh-or-warn decision.
func runTypedefMeasurements(g *symgraph.SymbolGraph, module *a2lmodel.Module, policy Policy) (Report, error) {
	var report Report

	all := module.TypedefMeasurements.All()
	paths := make([]string, len(all))
	for i, t := range all {
		paths[i] = t.Name
	}
	results := resolveAll(g, paths, policy.SynthPolicy)

	removed := make(map[string]bool)
	for i, t := range all {
		res := results[i]

		if res.err != nil {
			switch policy.Mode {
			case Strict:
				return report, ErrPolicyRejected{Kind: "TYPEDEF_MEASUREMENT", Name: t.Name, Why: res.err.Error()}
			case Preserve:
				report.Unresolved++
			default:
				removed[t.Name] = true
				report.Removed++
			}
			continue
		}

		mismatch := synth.TypedefMeasurementMismatch(res.shape, t)
		if !mismatch {
			if policy.What == Full {
				if err := synth.PopulateTypedefMeasurement(g, res.resolved, res.shape, module, t); err != nil {
					return report, fmt.Errorf("update: refreshing typedef measurement %q: %w", t.Name, err)
				}
			}
			report.Updated++
			continue
		}

		switch policy.Mode {
		case Strict:
			return report, ErrPolicyRejected{Kind: "TYPEDEF_MEASUREMENT", Name: t.Name, Why: "type mismatch"}
		case Preserve:
			report.Warned++
		default:
			if policy.What == Full {
				if err := synth.PopulateTypedefMeasurement(g, res.resolved, res.shape, module, t); err != nil {
					return report, fmt.Errorf("update: rebuilding typedef measurement %q: %w", t.Name, err)
				}
				report.Updated++
			} else {
				report.Warned++
			}
		}
	}

	for name := range removed {
		module.TypedefMeasurements.Remove(name)
	}
	return report, nil
}

// runTypedefCharacteristics is runTypedefMeasurements' TYPEDEF_CHARACTERISTIC
// analogue.
func runTypedefCharacteristics(g *symgraph.SymbolGraph, module *a2lmodel.Module, policy Policy) (Report, error) {
	var report Report

	all := module.TypedefCharacteristics.All()
	paths := make([]string, len(all))
	for i, t := range all {
		paths[i] = t.Name
	}
	results := resolveAll(g, paths, policy.SynthPolicy)

	removed := make(map[string]bool)
	for i, t := range all {
		res := results[i]

		if res.err != nil {
			switch policy.Mode {
			case Strict:
				return report, ErrPolicyRejected{Kind: "TYPEDEF_CHARACTERISTIC", Name: t.Name, Why: res.err.Error()}
			case Preserve:
				report.Unresolved++
			default:
				removed[t.Name] = true
				report.Removed++
			}
			continue
		}

		mismatch := synth.TypedefCharacteristicMismatch(res.shape, t)
		if !mismatch {
			if policy.What == Full {
				if err := synth.PopulateTypedefCharacteristic(g, res.resolved, res.shape, module, t); err != nil {
					return report, fmt.Errorf("update: refreshing typedef characteristic %q: %w", t.Name, err)
				}
			}
			report.Updated++
			continue
		}

		switch policy.Mode {
		case Strict:
			return report, ErrPolicyRejected{Kind: "TYPEDEF_CHARACTERISTIC", Name: t.Name, Why: "type mismatch"}
		case Preserve:
			report.Warned++
		default:
			if policy.What == Full {
				if err := synth.PopulateTypedefCharacteristic(g, res.resolved, res.shape, module, t); err != nil {
					return report, fmt.Errorf("update: rebuilding typedef characteristic %q: %w", t.Name, err)
				}
				report.Updated++
			} else {
				report.Warned++
			}
		}
	}

	for name := range removed {
		module.TypedefCharacteristics.Remove(name)
	}
	return report, nil
}
