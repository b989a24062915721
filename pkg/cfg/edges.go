package cfg

import (
	"fmt"

	"github.com/l3aro/go-cfg-restore/pkg/insn"
)

// BlockIndex maps every instruction address to the ID of its containing
// block. It is built once by graph assembly and passed into edge resolution
// as an immutable snapshot.
type BlockIndex map[uint64]BlockID

// NewBlockIndex builds the address lookup for a block partition.
func NewBlockIndex(blocks []*BasicBlock) BlockIndex {
	idx := make(BlockIndex)
	for _, b := range blocks {
		for _, in := range b.Instructions {
			idx[in.Address] = b.ID
		}
	}
	return idx
}

// ResolveEdges computes the outgoing edges of one block from its terminating
// instruction. next is the block that follows b in address order, or nil if b
// is last. Edges come out in a fixed order (fallthrough/jump, then
// branch_true, then branch_false) so serialization is reproducible.
//
// In strict mode, falling off the end of the procedure without an explicit
// return is an error; the default policy treats it as a valid exit.
func ResolveEdges(b *BasicBlock, next *BasicBlock, idx BlockIndex, strict bool) ([]Edge, error) {
	term := b.Terminator()
	var edges []Edge

	switch term.Kind {
	case insn.KindPlain:
		if next == nil {
			if strict {
				return nil, fmt.Errorf("%w: instruction 0x%x has no successor", ErrImplicitFallOffEnd, term.Address)
			}
			return nil, nil // exit block
		}
		edges = append(edges, Edge{From: b.ID, To: next.ID, Kind: EdgeFallthrough})

	case insn.KindUnconditionalJump:
		to, ok := idx[term.Targets[0]]
		if !ok {
			return nil, fmt.Errorf("%w: instruction 0x%x references 0x%x", ErrDanglingTarget, term.Address, term.Targets[0])
		}
		edges = append(edges, Edge{From: b.ID, To: to, Kind: EdgeJump})

	case insn.KindConditionalJump:
		taken, ok := idx[term.Targets[0]]
		if !ok {
			return nil, fmt.Errorf("%w: instruction 0x%x references 0x%x", ErrDanglingTarget, term.Address, term.Targets[0])
		}
		edges = append(edges, Edge{From: b.ID, To: taken, Kind: EdgeBranchTrue})

		if len(term.Targets) == 2 {
			notTaken, ok := idx[term.Targets[1]]
			if !ok {
				return nil, fmt.Errorf("%w: instruction 0x%x references 0x%x", ErrDanglingTarget, term.Address, term.Targets[1])
			}
			edges = append(edges, Edge{From: b.ID, To: notTaken, Kind: EdgeBranchFalse})
		} else if next != nil {
			// Not-taken target omitted: defaults to fall-through.
			edges = append(edges, Edge{From: b.ID, To: next.ID, Kind: EdgeBranchFalse})
		} else if strict {
			return nil, fmt.Errorf("%w: instruction 0x%x has no not-taken successor", ErrImplicitFallOffEnd, term.Address)
		}

	case insn.KindCall:
		// Only intra-procedural calls are modeled; a callee outside the
		// procedure contributes no edge.
		if to, ok := idx[term.Targets[0]]; ok {
			edges = append(edges, Edge{From: b.ID, To: to, Kind: EdgeCall})
		}

	case insn.KindReturn:
		// Exit block.
	}

	return edges, nil
}
