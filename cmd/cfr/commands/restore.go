package commands

import (
	"fmt"
	"os"

	"github.com/l3aro/go-cfg-restore/internal/config"
	"github.com/l3aro/go-cfg-restore/internal/log"
	"github.com/l3aro/go-cfg-restore/pkg/cfg"
	"github.com/l3aro/go-cfg-restore/pkg/insn"
	"github.com/spf13/cobra"
)

// restoreCmd represents the restore command
var restoreCmd = &cobra.Command{
	Use:   "restore <input> <output>",
	Short: "Reconstruct a CFG from an instruction listing",
	Long: `Reconstructs the control-flow graph of one procedure from a JSON or
YAML instruction listing and writes the serialized graph to the output path.
No output file is produced on failure.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		inputPath := args[0]
		outputPath := args[1]

		conf, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		strict := conf.Strict
		if cmd.Flags().Changed("strict") {
			strict, _ = cmd.Flags().GetBool("strict")
		}
		format := conf.Format
		if cmd.Flags().Changed("format") {
			format, _ = cmd.Flags().GetString("format")
		}

		logger := log.Default()
		if conf.Verbose {
			logger.SetLevel(log.DebugLevel)
		}

		proc, err := insn.LoadListing(inputPath)
		if err != nil {
			return err
		}
		logger.Debug("listing decoded", "file", inputPath, "instructions", len(proc.Instructions))

		graph, err := cfg.Restore(proc, cfg.Options{Strict: strict})
		if err != nil {
			return err
		}
		for _, w := range graph.Warnings {
			logger.Warn(w, "file", inputPath)
		}

		out, err := graph.Render(format)
		if err != nil {
			return err
		}
		if err := os.WriteFile(outputPath, out, 0644); err != nil {
			return fmt.Errorf("writing output file %s: %w", outputPath, err)
		}

		logger.Debug("graph written", "file", outputPath, "blocks", len(graph.Blocks), "edges", len(graph.Edges))
		return nil
	},
}

func init() {
	restoreCmd.Flags().Bool("strict", false, "Fail on implicit fall-off-end instead of treating it as an exit")
	restoreCmd.Flags().StringP("format", "f", "", "Output format: dot or json (default from config)")
	RootCmd.AddCommand(restoreCmd)
}
