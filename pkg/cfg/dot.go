package cfg

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DOT renders the graph as a Graphviz strict digraph: one node line per
// block and one edge line per edge, with the edge kind as the label.
//
// Canonical ordering: blocks by start address ascending, each block's edges
// in the order edge resolution produced them. The ordering is a serialization
// convenience only; consumers compare outputs as sorted line sets.
func (g *Graph) DOT() string {
	var sb strings.Builder
	sb.WriteString("strict digraph {\n")

	blocks := g.SortedBlocks()
	for _, b := range blocks {
		sb.WriteString(fmt.Sprintf("%q [label=%q];\n", b.Name(), nodeLabel(b)))
	}
	for _, b := range blocks {
		for _, e := range g.Succs(b.ID) {
			from := g.Blocks[e.From]
			to := g.Blocks[e.To]
			if e.Kind == "" {
				// Trace edges carry no kind.
				sb.WriteString(fmt.Sprintf("%q -> %q;\n", from.Name(), to.Name()))
			} else {
				sb.WriteString(fmt.Sprintf("%q -> %q [label=%q];\n", from.Name(), to.Name(), string(e.Kind)))
			}
		}
	}

	sb.WriteString("}\n")
	return sb.String()
}

// nodeLabel summarizes a block: its address range and instruction count.
// Foreign pseudo-blocks carry only their symbol name.
func nodeLabel(b *BasicBlock) string {
	if b.Label != "" {
		return b.Label
	}
	return fmt.Sprintf("0x%x..0x%x (%d)", b.Start, b.End, len(b.Instructions))
}

// JSON renders the graph as indented JSON.
func (g *Graph) JSON() ([]byte, error) {
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling graph: %w", err)
	}
	return data, nil
}

// Render serializes the graph in the named format ("dot" or "json").
func (g *Graph) Render(format string) ([]byte, error) {
	switch format {
	case "", "dot":
		return []byte(g.DOT()), nil
	case "json":
		return g.JSON()
	default:
		return nil, fmt.Errorf("unknown output format: %s", format)
	}
}
