package commands

import (
	"fmt"

	"github.com/l3aro/go-cfg-restore/pkg/cfg"
	"github.com/l3aro/go-cfg-restore/pkg/insn"
	"github.com/spf13/cobra"
)

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect <input>",
	Short: "Print a reconstructed CFG in human-readable form",
	Long: `Reconstructs the control-flow graph from an instruction listing and
prints its blocks, edges, and exit set. With --json, prints the graph as JSON
instead.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		inputPath := args[0]

		strict, _ := cmd.Flags().GetBool("strict")
		jsonOutput, _ := cmd.Flags().GetBool("json")

		proc, err := insn.LoadListing(inputPath)
		if err != nil {
			return err
		}

		graph, err := cfg.Restore(proc, cfg.Options{Strict: strict})
		if err != nil {
			return err
		}

		if jsonOutput {
			data, err := graph.JSON()
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		}

		printGraph(graph)
		return nil
	},
}

// printGraph prints graph information in human-readable form.
func printGraph(g *cfg.Graph) {
	name := g.Name
	if name == "" {
		name = "(unnamed)"
	}
	fmt.Printf("=== CFG for procedure: %s ===\n", name)
	fmt.Printf("Entry Block: %s\n", g.EntryID)
	fmt.Printf("Exit Blocks: %v\n", g.ExitIDs)
	for _, w := range g.Warnings {
		fmt.Printf("Warning: %s\n", w)
	}

	blocks := g.SortedBlocks()
	fmt.Printf("\nBlocks (%d):\n", len(blocks))
	for _, b := range blocks {
		fmt.Printf("  %s (0x%x..0x%x, %d instructions)\n", b.Name(), b.Start, b.End, len(b.Instructions))
		for _, in := range b.Instructions {
			if len(in.Targets) > 0 {
				fmt.Printf("    0x%x %s %v\n", in.Address, in.Kind, in.Targets)
			} else {
				fmt.Printf("    0x%x %s\n", in.Address, in.Kind)
			}
		}
	}

	fmt.Printf("\nEdges (%d):\n", len(g.Edges))
	for _, b := range blocks {
		for _, e := range g.Succs(b.ID) {
			fmt.Printf("  %s --%s--> %s\n", e.From, e.Kind, e.To)
		}
	}
}

func init() {
	inspectCmd.Flags().Bool("strict", false, "Fail on implicit fall-off-end instead of treating it as an exit")
	inspectCmd.Flags().BoolP("json", "j", false, "Output as JSON")
	RootCmd.AddCommand(inspectCmd)
}
