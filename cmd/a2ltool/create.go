package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/DanielT/a2ltool/internal/a2lmodel"
	"github.com/DanielT/a2ltool/internal/synth"
)

var createCmd = &cobra.Command{
	Use:   "create <symbol>... --module <path>",
	Short: "Synthesize new A2L descriptors for symbols not yet described",
	Long: `create resolves each given symbol path against the binary's Symbol
Graph and synthesizes a new MEASUREMENT or CHARACTERISTIC (plus any
supporting RECORD_LAYOUT/COMPU_METHOD) for it, appending the result to
the module at --module.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCreate,
}

func init() {
	createCmd.Flags().String("module", "", "path to the module JSON snapshot to append to")
	createCmd.Flags().Bool("as-characteristic", false, "force a scalar/array symbol to become a CHARACTERISTIC instead of a MEASUREMENT")
	addSynthPolicyFlags(createCmd)
	_ = createCmd.MarkFlagRequired("module")
}

func runCreate(cmd *cobra.Command, args []string) error {
	g, err := loadSymbolGraph(cmd)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	policy, err := synthPolicyFromFlags(cmd, cfg)
	if err != nil {
		return err
	}

	modulePath, _ := cmd.Flags().GetString("module")
	asCharacteristic, _ := cmd.Flags().GetBool("as-characteristic")

	module, err := a2lmodel.LoadJSON(modulePath)
	if err != nil {
		return fmt.Errorf("loading module: %w", err)
	}

	createdColor := color.New(color.FgGreen, color.Bold)
	for _, name := range args {
		result, err := synth.Synthesize(g, name, policy, module, asCharacteristic)
		if err != nil {
			return fmt.Errorf("synthesizing %q: %w", name, err)
		}
		fmt.Printf("%s %s (%s)\n", createdColor.Sprint("created"), result.Name, entityKindLabel(result))
	}

	if err := a2lmodel.SaveJSON(modulePath, module); err != nil {
		return fmt.Errorf("saving module: %w", err)
	}
	return nil
}

// entityKindLabel renders a synth.Result's kind the way a calibration
// engineer expects it in the A2L text (MEASUREMENT, or the specific
// CHARACTERISTIC sub-kind).
func entityKindLabel(result synth.Result) string {
	switch result.Kind {
	case synth.EntityMeasurement:
		return "MEASUREMENT"
	case synth.EntityInstance:
		return "INSTANCE"
	case synth.EntityBlob:
		return "BLOB"
	default:
		return "CHARACTERISTIC " + result.CharacteristicK.String()
	}
}
