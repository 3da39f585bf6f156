// Command a2ltool reconciles A2L CHARACTERISTIC, MEASUREMENT, AXIS_PTS,
// BLOB, and INSTANCE descriptors against a compiled binary's debug
// information, and can synthesize new descriptors for symbols an A2L
// module doesn't describe yet.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "a2ltool",
	Short: "Reconcile and synthesize A2L descriptors against a binary's debug info",
	Long: `a2ltool keeps an A2L description file's CHARACTERISTIC, MEASUREMENT,
AXIS_PTS, BLOB, and INSTANCE descriptors consistent with the compiled
binary (ELF/PE with DWARF, or a separate PDB) they describe.`,
}

func main() {
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(checkBinaryCmd)

	rootCmd.PersistentFlags().String("bin", "", "path to the ELF or PE binary")
	rootCmd.PersistentFlags().String("pdb", "", "path to a separate PDB file, instead of --bin's own debug sections")
	rootCmd.PersistentFlags().Bool("strict-debuginfo", false, "abort on the first malformed debug-info unit instead of skipping it")
	rootCmd.PersistentFlags().String("config", "", "path to an optional YAML defaults file")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
