// Package insn defines the typed instruction model that control-flow
// reconstruction consumes. Loosely structured input documents (JSON or YAML
// listings, executed traces) are validated eagerly into this closed form at
// the decode boundary so that unrecognized kinds or impossible target counts
// never reach the block builder.
package insn

import (
	"errors"
	"fmt"
)

// Kind classifies an instruction by its control-flow behavior.
type Kind string

const (
	KindPlain             Kind = "plain"              // falls through to the next instruction
	KindUnconditionalJump Kind = "unconditional_jump" // always transfers to its single target
	KindConditionalJump   Kind = "conditional_jump"   // taken target plus optional explicit not-taken target
	KindReturn            Kind = "return"             // leaves the procedure
	KindCall              Kind = "call"               // transfers to a callee, then resumes at the next instruction
)

// Valid reports whether k is one of the recognized instruction kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindPlain, KindUnconditionalJump, KindConditionalJump, KindReturn, KindCall:
		return true
	}
	return false
}

// Sentinel errors for the structural failure modes of instruction decoding.
// All of them abort reconstruction for the current procedure; the wrapped
// message carries the offending address.
var (
	ErrMalformedInstruction = errors.New("malformed instruction")
	ErrDuplicateAddress     = errors.New("duplicate address")
	ErrEmptyProcedure       = errors.New("empty procedure")
)

// Instruction is one instruction of a procedure: a unique address, a kind,
// and the explicit target addresses its kind requires. Instructions are
// immutable values once decoded.
type Instruction struct {
	Address uint64   `json:"address" yaml:"address"`
	Kind    Kind     `json:"kind" yaml:"kind"`
	Targets []uint64 `json:"targets,omitempty" yaml:"targets,omitempty"`
}

// Validate checks that the instruction's target cardinality agrees with its
// kind. A conditional jump carries either just the taken target or both the
// taken and not-taken targets; the not-taken side defaults to fall-through
// when omitted.
func (in Instruction) Validate() error {
	if !in.Kind.Valid() {
		return fmt.Errorf("%w: address 0x%x: unknown kind %q", ErrMalformedInstruction, in.Address, string(in.Kind))
	}

	switch in.Kind {
	case KindPlain, KindReturn:
		if len(in.Targets) != 0 {
			return fmt.Errorf("%w: address 0x%x: %s instruction with %d targets", ErrMalformedInstruction, in.Address, in.Kind, len(in.Targets))
		}
	case KindUnconditionalJump, KindCall:
		if len(in.Targets) != 1 {
			return fmt.Errorf("%w: address 0x%x: %s instruction needs exactly one target, got %d", ErrMalformedInstruction, in.Address, in.Kind, len(in.Targets))
		}
	case KindConditionalJump:
		if len(in.Targets) < 1 || len(in.Targets) > 2 {
			return fmt.Errorf("%w: address 0x%x: conditional_jump needs one or two targets, got %d", ErrMalformedInstruction, in.Address, len(in.Targets))
		}
	}

	return nil
}

// IsTerminator reports whether the instruction ends a basic block: any
// transfer of control, including calls, forces a block boundary after it.
func (in Instruction) IsTerminator() bool {
	switch in.Kind {
	case KindUnconditionalJump, KindConditionalJump, KindReturn, KindCall:
		return true
	}
	return false
}

// Procedure is the full, address-ordered instruction sequence for one
// procedure, ready for block building.
type Procedure struct {
	Name         string        `json:"procedure,omitempty" yaml:"procedure,omitempty"`
	Instructions []Instruction `json:"instructions" yaml:"instructions"`
}

// Validate checks the whole-procedure invariants: non-empty input, every
// instruction well formed, addresses unique and strictly ascending.
func (p Procedure) Validate() error {
	if len(p.Instructions) == 0 {
		return ErrEmptyProcedure
	}

	seen := make(map[uint64]bool, len(p.Instructions))
	prev := uint64(0)
	for i, in := range p.Instructions {
		if err := in.Validate(); err != nil {
			return err
		}
		if seen[in.Address] {
			return fmt.Errorf("%w: address 0x%x appears more than once", ErrDuplicateAddress, in.Address)
		}
		seen[in.Address] = true
		if i > 0 && in.Address <= prev {
			return fmt.Errorf("%w: address 0x%x: instructions must be in ascending address order", ErrMalformedInstruction, in.Address)
		}
		prev = in.Address
	}

	return nil
}

// Entry returns the address of the first instruction. Valid only on a
// validated, non-empty procedure.
func (p Procedure) Entry() uint64 {
	return p.Instructions[0].Address
}
