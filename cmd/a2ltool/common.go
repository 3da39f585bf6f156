package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/DanielT/a2ltool/internal/a2lver"
	"github.com/DanielT/a2ltool/internal/config"
	"github.com/DanielT/a2ltool/internal/indexer"
	"github.com/DanielT/a2ltool/internal/symgraph"
	"github.com/DanielT/a2ltool/internal/synth"
	"github.com/DanielT/a2ltool/internal/update"
)

// loadSymbolGraph builds a Symbol Graph from the --bin/--pdb persistent
// flags shared by every subcommand.
func loadSymbolGraph(cmd *cobra.Command) (*symgraph.SymbolGraph, error) {
	binPath, _ := cmd.Flags().GetString("bin")
	pdbPath, _ := cmd.Flags().GetString("pdb")
	strict, _ := cmd.Flags().GetBool("strict-debuginfo")

	if binPath == "" && pdbPath == "" {
		return nil, fmt.Errorf("either --bin or --pdb must be given")
	}

	log := logrus.StandardLogger()
	return indexer.Load(binPath, indexer.Options{Strict: strict, PDBPath: pdbPath}, log)
}

// loadConfig reads the --config persistent flag, falling back to built-in
// defaults when it is empty or absent.
func loadConfig(cmd *cobra.Command) (config.File, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}

// updatePolicyFromFlags builds an update.Policy from cfg overlaid by any
// flags the caller actually set on cmd, and a synth.Policy nested inside
// it for any Full-scope resynthesis the reconciliation needs to perform.
func updatePolicyFromFlags(cmd *cobra.Command, cfg config.File) (update.Policy, error) {
	scope := update.Full
	if cfg.Scope == "addresses-only" {
		scope = update.AddressesOnly
	}
	if cmd.Flags().Changed("addresses-only") {
		if v, _ := cmd.Flags().GetBool("addresses-only"); v {
			scope = update.AddressesOnly
		}
	}

	mode := update.Default
	switch cfg.Mode {
	case "strict":
		mode = update.Strict
	case "preserve":
		mode = update.Preserve
	}
	if cmd.Flags().Changed("strict") {
		if v, _ := cmd.Flags().GetBool("strict"); v {
			mode = update.Strict
		}
	}
	if cmd.Flags().Changed("preserve") {
		if v, _ := cmd.Flags().GetBool("preserve"); v {
			mode = update.Preserve
		}
	}

	sp, err := synthPolicyFromFlags(cmd, cfg)
	if err != nil {
		return update.Policy{}, err
	}

	return update.Policy{What: scope, Mode: mode, SynthPolicy: sp}, nil
}

// synthPolicyFromFlags builds a synth.Policy from cfg overlaid by any
// flags the caller set on cmd.
func synthPolicyFromFlags(cmd *cobra.Command, cfg config.File) (synth.Policy, error) {
	version, err := a2lver.Parse(cfg.A2LVersion)
	if err != nil {
		return synth.Policy{}, fmt.Errorf("a2l version: %w", err)
	}
	if cmd.Flags().Changed("a2l-version") {
		s, _ := cmd.Flags().GetString("a2l-version")
		version, err = a2lver.Parse(s)
		if err != nil {
			return synth.Policy{}, fmt.Errorf("--a2l-version: %w", err)
		}
	}

	useStructures := cfg.UseStructures
	if cmd.Flags().Changed("use-structures") {
		useStructures, _ = cmd.Flags().GetBool("use-structures")
	}
	oldArrayNotation := cfg.OldArrayNotation
	if cmd.Flags().Changed("old-array-notation") {
		oldArrayNotation, _ = cmd.Flags().GetBool("old-array-notation")
	}
	arraysAsBlocks := cfg.ArraysAsBlocks
	if cmd.Flags().Changed("arrays-as-blocks") {
		arraysAsBlocks, _ = cmd.Flags().GetBool("arrays-as-blocks")
	}
	targetGroup := cfg.TargetGroup
	if cmd.Flags().Changed("target-group") {
		targetGroup, _ = cmd.Flags().GetString("target-group")
	}
	externalAxisPaths := cfg.ExternalAxisPaths
	if cmd.Flags().Changed("external-axis-paths") {
		externalAxisPaths, _ = cmd.Flags().GetStringSlice("external-axis-paths")
	}

	return synth.Policy{
		Version:           version,
		UseStructures:     useStructures,
		OldArrayNotation:  oldArrayNotation,
		ArraysAsBlocks:    arraysAsBlocks,
		TargetGroup:       targetGroup,
		ExternalAxisPaths: externalAxisPaths,
	}, nil
}

// addSynthPolicyFlags registers the configuration-surface flags shared by
// the create and update subcommands.
func addSynthPolicyFlags(cmd *cobra.Command) {
	cmd.Flags().String("a2l-version", "", "target A2L version (e.g. 1.7.1); overrides the config file")
	cmd.Flags().Bool("use-structures", false, "synthesize TYPEDEF_STRUCTURE/INSTANCE for free structs (A2L >= 1.7.1)")
	cmd.Flags().Bool("old-array-notation", false, "use the pre-1.7.0 single-dimension array notation even on newer targets")
	cmd.Flags().Bool("arrays-as-blocks", false, "synthesize a 1-D scalar array as one VAL_BLK instead of N individual per-element descriptors")
	cmd.Flags().String("target-group", "", "GROUP name new descriptors are added to")
	cmd.Flags().StringSlice("external-axis-paths", nil, "sibling global paths supplying external axis data, x first")
}
