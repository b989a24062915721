package cfg

import (
	"github.com/l3aro/go-cfg-restore/pkg/insn"
)

// traceBlock wraps a block under construction with its byte size, needed for
// address containment over variable-length instructions.
type traceBlock struct {
	block *BasicBlock
	size  uint64
}

func (tb *traceBlock) contains(addr uint64) bool {
	return tb.size > 0 && addr >= tb.block.Start && addr < tb.block.Start+tb.size
}

// FromTrace reconstructs a control-flow graph from an executed instruction
// trace. A block ends at a branch or when the next tracepoint's address is a
// label (the entry address, or any address executed right after a branch).
// Edges link consecutively executed blocks; revisited blocks are recognized
// by their start address and skipped. A foreign branch adds a named
// pseudo-node for the callee and an edge through it.
//
// Trace edges carry no kind: a dynamic trace records transfers that
// happened, not why they happened.
func FromTrace(points []insn.Tracepoint) (*Graph, error) {
	if len(points) == 0 {
		return nil, insn.ErrEmptyProcedure
	}

	labels := make(map[uint64]bool)
	labels[points[0].Address] = true
	for i, tp := range points {
		if tp.IsBranch && i+1 < len(points) {
			labels[points[i+1].Address] = true
		}
	}

	blocks := make(map[uint64]*traceBlock)
	var order []*BasicBlock
	var edges []Edge
	edgeSeen := make(map[Edge]bool)

	addEdge := func(from, to BlockID) {
		e := Edge{From: from, To: to}
		if edgeSeen[e] {
			return
		}
		edgeSeen[e] = true
		edges = append(edges, e)
	}

	addBlock := func(tb *traceBlock) {
		blocks[tb.block.Start] = tb
		order = append(order, tb.block)
	}

	var prev *traceBlock
	start := 0
	i := 0

	for i < len(points) {
		tp := points[i]

		// The block keeps growing until a branch or a labeled next address.
		if !tp.IsBranch && i+1 < len(points) && !labels[points[i+1].Address] {
			i++
			continue
		}

		tb := &traceBlock{block: &BasicBlock{
			ID:    BlockID(points[start].Address),
			Start: points[start].Address,
		}}
		for _, p := range points[start : i+1] {
			sz, err := p.Size()
			if err != nil {
				return nil, err
			}
			tb.size += sz
			tb.block.Instructions = append(tb.block.Instructions, insn.Instruction{
				Address: p.Address,
				Kind:    insn.KindPlain,
			})
			tb.block.End = p.Address
		}
		addBlock(tb)

		if prev != nil {
			addEdge(prev.block.ID, tb.block.ID)
		}
		prev = tb
		i++
		start = i

		// Skip stretches of the trace that re-execute known blocks, and
		// route foreign branches through their named pseudo-nodes.
		for {
			last := points[start-1]
			if last.IsForeignBranch {
				callee, ok := blocks[last.ForeignTargetAddress]
				if !ok {
					callee = &traceBlock{block: &BasicBlock{
						ID:    BlockID(last.ForeignTargetAddress),
						Start: last.ForeignTargetAddress,
						Label: last.ForeignTargetName,
					}}
					addBlock(callee)
				}
				addEdge(prev.block.ID, callee.block.ID)
				prev = callee
			}

			if i >= len(points) {
				break
			}

			known, ok := blocks[points[start].Address]
			if !ok || len(known.block.Instructions) == 0 {
				break
			}

			addEdge(prev.block.ID, known.block.ID)
			for i < len(points) && known.contains(points[i].Address) {
				i++
			}
			start = i
			prev = known
		}
	}

	g := &Graph{
		Blocks:  make(map[BlockID]*BasicBlock, len(order)),
		Edges:   edges,
		EntryID: BlockID(points[0].Address),
	}
	for _, b := range order {
		g.Blocks[b.ID] = b
	}

	hasOut := make(map[BlockID]bool)
	for _, e := range edges {
		hasOut[e.From] = true
	}
	for _, b := range g.SortedBlocks() {
		if !hasOut[b.ID] {
			g.ExitIDs = append(g.ExitIDs, b.ID)
		}
	}
	if len(g.ExitIDs) == 0 {
		g.Warnings = append(g.Warnings, "no reachable exit: every block has outgoing edges")
	}

	return g, nil
}
