package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/DanielT/a2ltool/internal/a2lmodel"
	"github.com/DanielT/a2ltool/internal/report"
	"github.com/DanielT/a2ltool/internal/update"
)

var updateCmd = &cobra.Command{
	Use:   "update --module <path>",
	Short: "Reconcile an A2L module's descriptors against the binary's Symbol Graph",
	Long: `update resolves every CHARACTERISTIC, MEASUREMENT, AXIS_PTS, BLOB, and
INSTANCE descriptor in the module against the Symbol Graph loaded from
--bin/--pdb, applying the Scope x Mode reconciliation matrix, and writes
the result back to --module (or --out, if given).`,
	Args: cobra.NoArgs,
	RunE: runUpdate,
}

func init() {
	updateCmd.Flags().String("module", "", "path to the module JSON snapshot to reconcile")
	updateCmd.Flags().String("out", "", "path to write the reconciled module to (defaults to --module)")
	updateCmd.Flags().Bool("addresses-only", false, "only reconcile addresses; skip type-mismatch resynthesis")
	updateCmd.Flags().Bool("strict", false, "reject the whole run on the first unresolved or mismatched descriptor")
	updateCmd.Flags().Bool("preserve", false, "keep unresolved descriptors in place with their address zeroed, instead of removing them")
	addSynthPolicyFlags(updateCmd)
	_ = updateCmd.MarkFlagRequired("module")
}

func runUpdate(cmd *cobra.Command, args []string) error {
	g, err := loadSymbolGraph(cmd)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	policy, err := updatePolicyFromFlags(cmd, cfg)
	if err != nil {
		return err
	}

	modulePath, _ := cmd.Flags().GetString("module")
	outPath, _ := cmd.Flags().GetString("out")
	if outPath == "" {
		outPath = modulePath
	}

	module, err := a2lmodel.LoadJSON(modulePath)
	if err != nil {
		return fmt.Errorf("loading module: %w", err)
	}

	rep, err := update.Run(context.Background(), g, module, policy)
	if err != nil {
		return fmt.Errorf("reconciling module: %w", err)
	}

	if err := a2lmodel.SaveJSON(outPath, module); err != nil {
		return fmt.Errorf("saving module: %w", err)
	}

	counts := report.Counts{Updated: rep.Updated, Removed: rep.Removed, Warned: rep.Warned, Unresolved: rep.Unresolved}
	report.Print(os.Stdout, modulePath, counts)

	if exit := report.Exit(counts); exit != 0 {
		os.Exit(exit)
	}
	return nil
}
