package update

import (
	"fmt"

	"github.com/DanielT/a2ltool/internal/a2lmodel"
	"github.com/DanielT/a2ltool/internal/symgraph"
	"github.com/DanielT/a2ltool/internal/synth"
)

// applyAddress implements spec.md §4.5's addressing rule for an
// address-only update: ECU_ADDRESS is set to the resolved address and
// switched to hexadecimal display, mandatorily so if it was previously 0.
func applyAddress(addr *uint32, addrHex *bool, resolvedAddr uint64) {
	if *addr == 0 {
		*addrHex = true
	}
	*addr = uint32(resolvedAddr)
	*addrHex = true
}

// runCharacteristics reconciles every CHARACTERISTIC per spec.md §4.6's
// outcome matrix. VIRTUAL_CHARACTERISTIC entries are skipped entirely —
// they are computed, not addressed, per
// original_source/src/update/characteristic.rs's
// "virtual_characteristic.is_none()" guard.
func runCharacteristics(g *symgraph.SymbolGraph, module *a2lmodel.Module, policy Policy) (Report, error) {
	var report Report

	all := module.Characteristics.All()
	paths := make([]string, 0, len(all))
	items := make([]*a2lmodel.Characteristic, 0, len(all))
	for _, c := range all {
		if c.VirtualCharacteristic {
			continue
		}
		paths = append(paths, symbolPath(c.SymbolLink, c.Name))
		items = append(items, c)
	}
	results := resolveAll(g, paths, policy.SynthPolicy)

	removed := make(map[string]bool)
	for i, c := range items {
		res := results[i]

		if res.err != nil {
			switch policy.Mode {
			case Strict:
				return report, ErrPolicyRejected{Kind: "CHARACTERISTIC", Name: c.Name, Why: res.err.Error()}
			case Preserve:
				c.Address = 0
				c.AddressHex = false
				report.Unresolved++
			default:
				removed[c.Name] = true
				report.Removed++
			}
			continue
		}

		mismatch := synth.CharacteristicMismatch(res.shape, c)
		if !mismatch {
			applyAddress(&c.Address, &c.AddressHex, res.resolved.Address)
			if policy.What == Full {
				if err := synth.PopulateCharacteristic(g, res.resolved, res.shape, policy.SynthPolicy, module, c); err != nil {
					return report, fmt.Errorf("update: refreshing characteristic %q: %w", c.Name, err)
				}
			}
			report.Updated++
			continue
		}

		switch policy.Mode {
		case Strict:
			return report, ErrPolicyRejected{Kind: "CHARACTERISTIC", Name: c.Name, Why: "type mismatch"}
		case Preserve:
			applyAddress(&c.Address, &c.AddressHex, res.resolved.Address)
			report.Warned++
		default:
			if policy.What == Full {
				if err := synth.PopulateCharacteristic(g, res.resolved, res.shape, policy.SynthPolicy, module, c); err != nil {
					return report, fmt.Errorf("update: rebuilding characteristic %q: %w", c.Name, err)
				}
				report.Updated++
			} else {
				applyAddress(&c.Address, &c.AddressHex, res.resolved.Address)
				report.Warned++
			}
		}
	}

	if len(removed) > 0 {
		for name := range removed {
			module.Characteristics.Remove(name)
		}
		a2lmodel.CleanupRemovedCharacteristics(module, removed)
	}

	return report, nil
}
