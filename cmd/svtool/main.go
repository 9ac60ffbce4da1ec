// Command svtool parses, elaborates, lowers, and simulates a single
// source file (or, via the batch subcommand, a directory of them).
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "svtool <source-file>",
	Short: "Run an event-driven simulation of a source file",
	Args:  cobra.ExactArgs(1),
	RunE:  runSimulate,
}

func init() {
	rootCmd.PersistentFlags().String("color", "auto", "colorize diagnostics (auto|on|off)")
	rootCmd.Flags().String("vcd", "", "write a VCD trace to this path")
	rootCmd.Flags().Int64("max", 0, "stop simulation after this time (0 = run until the queue drains or $finish)")

	rootCmd.AddCommand(batchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCodeFor(err))
	}
}
