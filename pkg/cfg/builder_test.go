package cfg

import (
	"testing"

	"github.com/l3aro/go-cfg-restore/pkg/insn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func proc(insts ...insn.Instruction) *insn.Procedure {
	return &insn.Procedure{Instructions: insts}
}

func plain(addr uint64) insn.Instruction {
	return insn.Instruction{Address: addr, Kind: insn.KindPlain}
}

func ret(addr uint64) insn.Instruction {
	return insn.Instruction{Address: addr, Kind: insn.KindReturn}
}

func jump(addr, target uint64) insn.Instruction {
	return insn.Instruction{Address: addr, Kind: insn.KindUnconditionalJump, Targets: []uint64{target}}
}

func branch(addr uint64, targets ...uint64) insn.Instruction {
	return insn.Instruction{Address: addr, Kind: insn.KindConditionalJump, Targets: targets}
}

func call(addr, target uint64) insn.Instruction {
	return insn.Instruction{Address: addr, Kind: insn.KindCall, Targets: []uint64{target}}
}

func TestBuildBlocks_SingleBlock(t *testing.T) {
	blocks, err := BuildBlocks(proc(plain(0), plain(1), ret(2)))
	require.NoError(t, err)

	require.Len(t, blocks, 1)
	assert.Equal(t, BlockID(0), blocks[0].ID)
	assert.Equal(t, uint64(0), blocks[0].Start)
	assert.Equal(t, uint64(2), blocks[0].End)
	assert.Len(t, blocks[0].Instructions, 3)
}

func TestBuildBlocks_SplitsAtTargetsAndAfterTerminators(t *testing.T) {
	// 0: plain
	// 1: conditional_jump [3, 2]  → targets 3 and 2 are leaders, 2 also follows the branch
	// 2: plain
	// 3: return
	blocks, err := BuildBlocks(proc(plain(0), branch(1, 3, 2), plain(2), ret(3)))
	require.NoError(t, err)

	require.Len(t, blocks, 3)
	assert.Equal(t, []uint64{0, 2, 3}, starts(blocks))
	assert.Equal(t, uint64(1), blocks[0].End)
}

func TestBuildBlocks_PartitionProperty(t *testing.T) {
	// Every instruction lands in exactly one block, in order, no overlaps.
	p := proc(
		plain(0),
		branch(1, 5, 2),
		plain(2),
		jump(3, 0),
		plain(4), // unreachable, still partitioned
		ret(5),
	)
	blocks, err := BuildBlocks(p)
	require.NoError(t, err)

	var flat []insn.Instruction
	for _, b := range blocks {
		flat = append(flat, b.Instructions...)
	}
	assert.Equal(t, p.Instructions, flat)
}

func TestBuildBlocks_SingleInstructionBlocks(t *testing.T) {
	// A block holding one instruction is valid and common right after a branch.
	blocks, err := BuildBlocks(proc(branch(0, 2, 1), ret(1), ret(2)))
	require.NoError(t, err)

	require.Len(t, blocks, 3)
	for _, b := range blocks {
		assert.Len(t, b.Instructions, 1)
	}
}

func TestBuildBlocks_DanglingJumpTarget(t *testing.T) {
	_, err := BuildBlocks(proc(jump(0, 0x99), ret(1)))
	require.ErrorIs(t, err, ErrDanglingTarget)
	assert.Contains(t, err.Error(), "0x99")
	assert.Contains(t, err.Error(), "0x0")
}

func TestBuildBlocks_DanglingBranchTarget(t *testing.T) {
	_, err := BuildBlocks(proc(branch(0, 7, 1), ret(1)))
	assert.ErrorIs(t, err, ErrDanglingTarget)
}

func TestBuildBlocks_ForeignCallTargetIsNotDangling(t *testing.T) {
	// Calls may leave the procedure; the target just contributes no leader.
	blocks, err := BuildBlocks(proc(call(0, 0x4000), ret(1)))
	require.NoError(t, err)
	assert.Equal(t, []uint64{0, 1}, starts(blocks))
}

func TestBuildBlocks_IntraProceduralCallTargetIsLeader(t *testing.T) {
	blocks, err := BuildBlocks(proc(plain(0), call(1, 3), plain(2), ret(3)))
	require.NoError(t, err)
	assert.Equal(t, []uint64{0, 2, 3}, starts(blocks))
}

func TestBuildBlocks_Empty(t *testing.T) {
	_, err := BuildBlocks(&insn.Procedure{})
	assert.ErrorIs(t, err, insn.ErrEmptyProcedure)
}

func starts(blocks []*BasicBlock) []uint64 {
	out := make([]uint64, len(blocks))
	for i, b := range blocks {
		out[i] = b.Start
	}
	return out
}
