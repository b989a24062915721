package cfg

import (
	"fmt"
	"sort"

	"github.com/l3aro/go-cfg-restore/pkg/insn"
)

// Options control graph reconstruction.
type Options struct {
	// Strict makes falling off the end of the procedure without an explicit
	// return a hard error instead of a valid exit.
	Strict bool
}

// Restore reconstructs the control-flow graph of one procedure: it partitions
// the instruction sequence into basic blocks, resolves every block's outgoing
// edges, and assembles the immutable Graph value.
//
// A procedure whose every block has outgoing edges (only infinite loops)
// yields a graph with an empty exit set and a warning attached; infinite
// loops are legal programs, so this is not an error.
func Restore(proc *insn.Procedure, opts Options) (*Graph, error) {
	if err := proc.Validate(); err != nil {
		return nil, err
	}

	blocks, err := BuildBlocks(proc)
	if err != nil {
		return nil, err
	}
	idx := NewBlockIndex(blocks)

	g := &Graph{
		Name:    proc.Name,
		Blocks:  make(map[BlockID]*BasicBlock, len(blocks)),
		EntryID: blocks[0].ID,
	}

	for i, b := range blocks {
		g.Blocks[b.ID] = b

		var next *BasicBlock
		if i+1 < len(blocks) {
			next = blocks[i+1]
		}
		edges, err := ResolveEdges(b, next, idx, opts.Strict)
		if err != nil {
			return nil, err
		}
		g.Edges = append(g.Edges, edges...)
	}

	// Defensive re-check: every edge endpoint must name a known block.
	for _, e := range g.Edges {
		if _, ok := g.Blocks[e.From]; !ok {
			return nil, fmt.Errorf("edge source %s is not a block", e.From)
		}
		if _, ok := g.Blocks[e.To]; !ok {
			return nil, fmt.Errorf("edge destination %s is not a block", e.To)
		}
	}

	hasOut := make(map[BlockID]bool, len(blocks))
	for _, e := range g.Edges {
		hasOut[e.From] = true
	}
	for _, b := range blocks {
		if !hasOut[b.ID] {
			g.ExitIDs = append(g.ExitIDs, b.ID)
		}
	}
	sort.Slice(g.ExitIDs, func(i, j int) bool { return g.ExitIDs[i] < g.ExitIDs[j] })

	if len(g.ExitIDs) == 0 {
		g.Warnings = append(g.Warnings, "no reachable exit: every block has outgoing edges")
	}

	return g, nil
}

// SortedBlocks returns the graph's blocks ordered by start address.
func (g *Graph) SortedBlocks() []*BasicBlock {
	blocks := make([]*BasicBlock, 0, len(g.Blocks))
	for _, b := range g.Blocks {
		blocks = append(blocks, b)
	}
	sort.Slice(blocks, func(i, j int) bool { return blocks[i].Start < blocks[j].Start })
	return blocks
}

// InstructionCount returns the total number of instructions across all
// blocks, foreign pseudo-blocks excluded.
func (g *Graph) InstructionCount() int {
	n := 0
	for _, b := range g.Blocks {
		n += len(b.Instructions)
	}
	return n
}
