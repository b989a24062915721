// Package cfg reconstructs control-flow graphs from flat instruction
// listings and executed traces. It provides the block and edge types, the
// basic-block builder, edge resolution, graph assembly, and deterministic
// serialization to DOT and JSON.
package cfg

import (
	"errors"
	"fmt"

	"github.com/l3aro/go-cfg-restore/pkg/insn"
)

// EdgeKind classifies a control-flow edge.
type EdgeKind string

const (
	EdgeFallthrough EdgeKind = "fallthrough"  // implicit transfer to the next sequential block
	EdgeJump        EdgeKind = "jump"         // unconditional jump
	EdgeBranchTrue  EdgeKind = "branch_true"  // taken side of a conditional jump
	EdgeBranchFalse EdgeKind = "branch_false" // not-taken side of a conditional jump
	EdgeCall        EdgeKind = "call"         // intra-procedural call
)

// Reconstruction failure modes beyond the decode-level ones in package insn.
var (
	ErrDanglingTarget     = errors.New("dangling target")
	ErrImplicitFallOffEnd = errors.New("implicit fall off end")
)

// BlockID identifies a basic block. It is the address of the block's first
// instruction, so IDs are stable across reconstructions of the same input.
type BlockID uint64

func (id BlockID) String() string {
	return fmt.Sprintf("%016X", uint64(id))
}

// BasicBlock is a maximal contiguous instruction run with a single entry and
// a single exit.
type BasicBlock struct {
	ID           BlockID            `json:"id"`
	Start        uint64             `json:"start"`
	End          uint64             `json:"end"` // address of the last contained instruction
	Instructions []insn.Instruction `json:"instructions"`
	Label        string             `json:"label,omitempty"` // non-empty only for named foreign pseudo-blocks
}

// Name returns the block's display label: the explicit label for foreign
// pseudo-blocks, the zero-padded start address otherwise.
func (b *BasicBlock) Name() string {
	if b.Label != "" {
		return b.Label
	}
	return b.ID.String()
}

// Terminator returns the block's last instruction.
func (b *BasicBlock) Terminator() insn.Instruction {
	return b.Instructions[len(b.Instructions)-1]
}

// Edge is a directed control-flow transfer between two blocks.
type Edge struct {
	From BlockID  `json:"from"`
	To   BlockID  `json:"to"`
	Kind EdgeKind `json:"kind"`
}

// Graph is an assembled control-flow graph. Blocks are stored by ID in a
// flat map and edges as ID pairs, so loops never need cyclic ownership.
// A Graph is immutable once assembled and safe to share for reads.
type Graph struct {
	Name     string                  `json:"name,omitempty"`
	Blocks   map[BlockID]*BasicBlock `json:"blocks"`
	Edges    []Edge                  `json:"edges"`
	EntryID  BlockID                 `json:"entry_block_id"`
	ExitIDs  []BlockID               `json:"exit_block_ids"`
	Warnings []string                `json:"warnings,omitempty"`
}

// Succs returns g's outgoing edges from the given block, in the order they
// were produced by edge resolution.
func (g *Graph) Succs(id BlockID) []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if e.From == id {
			out = append(out, e)
		}
	}
	return out
}
