package regalloc

import "github.com/riftlang/riftc/internal/lir"

// RegisterClass groups physical registers that can hold the same kinds of
// values. KindInt and KindRef share the general-purpose class; KindFloat
// uses the floating-point/vector class.
type RegisterClass int

const (
	ClassGPR RegisterClass = iota
	ClassXMM
)

func classFor(k lir.Kind) RegisterClass {
	if k == lir.KindFloat {
		return ClassXMM
	}

	return ClassGPR
}

// TargetDescription gives the architecture register file and calling
// convention. It is an external collaborator: the allocator never decides
// what registers exist, only how to use the ones it is told about.
type TargetDescription interface {
	NumRegisters(class RegisterClass) int
	RegisterName(class RegisterClass, reg int) string
}

// Config exposes the register-allocation policy for one compilation:
// which registers may be used, which are caller-saved, and the behavior
// flags named in the external-interface contract.
type Config interface {
	AllocatableRegisters(class RegisterClass) []int
	IsAllocatable(class RegisterClass, reg int) bool
	IsCallerSave(class RegisterClass, reg int) bool
	AreAllAllocatableRegistersCallerSaved(class RegisterClass) bool

	// NeverSpillConstants turns rematerialization off: a spilled constant
	// then takes a stack slot like any other value. It does not force
	// constants back into a register after a call.
	NeverSpillConstants() bool
	// DetailedAsserts gates the verifier (C10).
	DetailedAsserts() bool
	// EliminateSpillMoves gates the spill-move eliminator (C8), default on.
	EliminateSpillMoves() bool
	// CacheStackSlots reuses one spill slot per varIndex across traces of
	// the same compilation, via the slot-cache map the pass manager owns.
	CacheStackSlots() bool
}

// FrameBuilder allocates stack spill slots; frame-layout finalization is an
// external concern the allocator never performs itself.
type FrameBuilder interface {
	AllocateSpillSlot(kind lir.Kind) int
}

// MoveFactory produces target-specific move and constant-load instructions.
// The data-flow resolver splices its moves into the trace; the location
// assigner records rematerialized constants as immediates and does not call
// the factory.
type MoveFactory interface {
	MakeMove(dst, src Location) *lir.Instr
	MakeLoadImmediate(dst Location, value int64) *lir.Instr
}

// TraceBuildResult answers cross-trace queries: which blocks are on this
// trace, and which are trace entries. Nothing in this package consumes it;
// ResolveDataFlow stays intra-trace by handling only the edges between
// consecutive blocks of the trace.
type TraceBuildResult interface {
	IsOnTrace(blockIdx int) bool
	IsTraceEntry(blockIdx int) bool
}
