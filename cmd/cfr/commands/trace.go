package commands

import (
	"fmt"
	"os"

	"github.com/l3aro/go-cfg-restore/internal/log"
	"github.com/l3aro/go-cfg-restore/pkg/cfg"
	"github.com/l3aro/go-cfg-restore/pkg/insn"
	"github.com/spf13/cobra"
)

// traceCmd represents the trace command
var traceCmd = &cobra.Command{
	Use:   "trace <input> <output>",
	Short: "Reconstruct a CFG from an executed instruction trace",
	Long: `Reconstructs a control-flow graph from a dynamic trace: a JSON array
of executed tracepoints in execution order. Revisited blocks are recognized by
address, and foreign branches appear as named pseudo-nodes. The graph is
written as Graphviz DOT.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		inputPath := args[0]
		outputPath := args[1]

		points, err := insn.LoadTrace(inputPath)
		if err != nil {
			return err
		}

		graph, err := cfg.FromTrace(points)
		if err != nil {
			return err
		}
		for _, w := range graph.Warnings {
			log.Default().Warn(w, "file", inputPath)
		}

		if err := os.WriteFile(outputPath, []byte(graph.DOT()), 0644); err != nil {
			return fmt.Errorf("writing output file %s: %w", outputPath, err)
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(traceCmd)
}
