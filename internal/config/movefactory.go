package config

import (
	"github.com/riftlang/riftc/internal/lir"
	"github.com/riftlang/riftc/internal/regalloc"
)

// DefaultMoveFactory builds the plain "mov"/"movimm" instructions; the
// data-flow resolver splices its moves into a trace. A real backend would
// pick an opcode per register class and operand width; this one is enough
// to drive the allocator end to end and to give the demo CLI something to
// print.
type DefaultMoveFactory struct{}

func NewDefaultMoveFactory() *DefaultMoveFactory { return &DefaultMoveFactory{} }

func (DefaultMoveFactory) MakeMove(dst, src regalloc.Location) *lir.Instr {
	return &lir.Instr{
		Op:      "mov",
		IsMove:  true,
		Comment: dst.String() + " <- " + src.String(),
	}
}

func (DefaultMoveFactory) MakeLoadImmediate(dst regalloc.Location, value int64) *lir.Instr {
	return &lir.Instr{
		Op:         "movimm",
		IsConst:    true,
		ConstValue: value,
		Comment:    dst.String(),
	}
}
