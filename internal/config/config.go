// Package config loads per-project default policy values for the Update
// Coordinator and Synthesizer from an optional YAML file, grounded on
// _examples/jinterlante1206-AleutianLocal/services/trace/agent/mcts/config.go's
// shape: a defaults constructor, a file loader that is a no-op when the
// path is empty or the file is absent, and a Validate step before the
// caller trusts the result.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/DanielT/a2ltool/internal/a2lver"
)

// File is the on-disk shape of a project's a2ltool defaults file.
type File struct {
	Scope             string   `yaml:"scope"`              // "full" or "addresses-only"
	Mode              string   `yaml:"mode"`                // "default", "strict", or "preserve"
	A2LVersion        string   `yaml:"a2l_version"`
	UseStructures     bool     `yaml:"use_structures"`
	OldArrayNotation  bool     `yaml:"old_array_notation"`
	ArraysAsBlocks    bool     `yaml:"arrays_as_blocks"`
	TargetGroup       string   `yaml:"target_group"`
	ExternalAxisPaths []string `yaml:"external_axis_paths"`
}

// Default returns the built-in defaults: Full scope, Default mode, the
// oldest A2L version this project still supports, and no structure/group
// opt-ins.
func Default() File {
	return File{
		Scope:      "full",
		Mode:       "default",
		A2LVersion: a2lver.V1_6_0.String(),
	}
}

// Load reads path as YAML and overlays it onto Default(); an empty path
// or a missing file returns the defaults unchanged, matching the CLI's
// "config file is optional" contract.
func Load(path string) (File, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: reading %q: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parsing %q: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config: %q: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects a config whose scope/mode/version fields don't name a
// value the CLI recognizes, so a typo in the YAML fails fast at load time
// rather than silently falling back to a zero value downstream.
func (f File) Validate() error {
	switch f.Scope {
	case "full", "addresses-only":
	default:
		return fmt.Errorf("scope must be \"full\" or \"addresses-only\", got %q", f.Scope)
	}
	switch f.Mode {
	case "default", "strict", "preserve":
	default:
		return fmt.Errorf("mode must be \"default\", \"strict\", or \"preserve\", got %q", f.Mode)
	}
	if _, err := a2lver.Parse(f.A2LVersion); err != nil {
		return fmt.Errorf("a2l_version: %w", err)
	}
	return nil
}
