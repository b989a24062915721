package cfg

import (
	"fmt"
	"sort"

	"github.com/l3aro/go-cfg-restore/pkg/insn"
)

// BuildBlocks partitions a validated procedure into basic blocks.
//
// The algorithm runs in two passes:
//  1. Collect block leaders: the entry address, every resolvable target
//     address, and the address following any terminator.
//  2. Walk the sequence once in address order, cutting a block at every
//     leader.
//
// A jump or branch target that is not an instruction address in the
// procedure fails with ErrDanglingTarget. Call targets are exempt: a call
// whose target lies outside the procedure is inter-procedural and simply
// contributes no leader.
func BuildBlocks(proc *insn.Procedure) ([]*BasicBlock, error) {
	insts := proc.Instructions
	if len(insts) == 0 {
		return nil, insn.ErrEmptyProcedure
	}

	addrToIdx := make(map[uint64]int, len(insts))
	for i, in := range insts {
		addrToIdx[in.Address] = i
	}

	// Pass 1: leaders.
	leaders := make(map[int]bool)
	leaders[0] = true

	for i, in := range insts {
		for _, target := range in.Targets {
			idx, ok := addrToIdx[target]
			if !ok {
				if in.Kind == insn.KindCall {
					continue // inter-procedural call, not modeled
				}
				return nil, fmt.Errorf("%w: instruction 0x%x references 0x%x, which is not in the procedure", ErrDanglingTarget, in.Address, target)
			}
			leaders[idx] = true
		}
		if in.IsTerminator() && i+1 < len(insts) {
			leaders[i+1] = true
		}
	}

	sorted := make([]int, 0, len(leaders))
	for idx := range leaders {
		sorted = append(sorted, idx)
	}
	sort.Ints(sorted)

	// Pass 2: partition.
	blocks := make([]*BasicBlock, 0, len(sorted))
	for i, start := range sorted {
		end := len(insts)
		if i+1 < len(sorted) {
			end = sorted[i+1]
		}
		run := insts[start:end]
		blocks = append(blocks, &BasicBlock{
			ID:           BlockID(run[0].Address),
			Start:        run[0].Address,
			End:          run[len(run)-1].Address,
			Instructions: run,
		})
	}

	return blocks, nil
}
