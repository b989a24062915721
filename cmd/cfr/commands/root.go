// Package commands provides the CLI commands for the cfr tool.
package commands

import (
	"github.com/spf13/cobra"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "cfr",
	Short: "cfr - control-flow graph reconstruction",
	Long: `cfr reconstructs control-flow graphs from flat instruction listings
and executed traces, and renders them for inspection and diffing.

Commands:
  restore     Reconstruct a CFG from an instruction listing
  trace       Reconstruct a CFG from an executed instruction trace
  inspect     Print a reconstructed CFG in human-readable form
  batch       Reconstruct CFGs for every listing under a directory
  init        Write a config file interactively

Use "cfr [command] --help" for more information about a command.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return RootCmd.Execute()
}
