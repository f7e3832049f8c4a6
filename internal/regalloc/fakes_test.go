package regalloc

import "github.com/riftlang/riftc/internal/lir"

// stubConfig is a hand-rolled Config fake: a tiny fixed register file (4
// GPRs, 2 caller-saved) with every behavior flag settable per test.
type stubConfig struct {
	gpr                 []int
	xmm                 []int
	callerSavedGPR      map[int]bool
	neverSpillConstants bool
	detailedAsserts     bool
	eliminateSpillMoves bool
	cacheStackSlots     bool
}

func newStubConfig() *stubConfig {
	return &stubConfig{
		gpr:                 []int{0, 1, 2, 3},
		xmm:                 []int{0, 1},
		callerSavedGPR:      map[int]bool{0: true, 1: true},
		eliminateSpillMoves: true,
	}
}

func (c *stubConfig) AllocatableRegisters(class RegisterClass) []int {
	if class == ClassXMM {
		return c.xmm
	}

	return c.gpr
}

func (c *stubConfig) IsAllocatable(class RegisterClass, reg int) bool {
	for _, r := range c.AllocatableRegisters(class) {
		if r == reg {
			return true
		}
	}

	return false
}

func (c *stubConfig) IsCallerSave(class RegisterClass, reg int) bool {
	if class != ClassGPR {
		return false
	}

	return c.callerSavedGPR[reg]
}

func (c *stubConfig) AreAllAllocatableRegistersCallerSaved(class RegisterClass) bool {
	for _, r := range c.AllocatableRegisters(class) {
		if !c.IsCallerSave(class, r) {
			return false
		}
	}

	return true
}

func (c *stubConfig) NeverSpillConstants() bool { return c.neverSpillConstants }
func (c *stubConfig) DetailedAsserts() bool     { return c.detailedAsserts }
func (c *stubConfig) EliminateSpillMoves() bool { return c.eliminateSpillMoves }
func (c *stubConfig) CacheStackSlots() bool     { return c.cacheStackSlots }

// stubFrameBuilder hands out sequential spill slots and records every call.
type stubFrameBuilder struct {
	next  int
	calls []lir.Kind
}

func (fb *stubFrameBuilder) AllocateSpillSlot(kind lir.Kind) int {
	fb.calls = append(fb.calls, kind)
	slot := fb.next
	fb.next++

	return slot
}

// stubMoveFactory builds plain move/load-immediate instructions and records
// every call so a test can assert on exactly what the resolver requested.
type stubMoveFactory struct {
	moves []struct{ Dst, Src Location }
	loads []struct {
		Dst   Location
		Value int64
	}
}

func (mf *stubMoveFactory) MakeMove(dst, src Location) *lir.Instr {
	mf.moves = append(mf.moves, struct{ Dst, Src Location }{dst, src})

	return &lir.Instr{Op: "mov", IsMove: true}
}

func (mf *stubMoveFactory) MakeLoadImmediate(dst Location, value int64) *lir.Instr {
	mf.loads = append(mf.loads, struct {
		Dst   Location
		Value int64
	}{dst, value})

	return &lir.Instr{Op: "movimm", IsConst: true, ConstValue: value}
}

// stubTarget is a minimal TargetDescription matching stubConfig's register
// counts.
type stubTarget struct{}

func (stubTarget) NumRegisters(class RegisterClass) int {
	if class == ClassXMM {
		return 2
	}

	return 4
}

func (stubTarget) RegisterName(class RegisterClass, reg int) string {
	if class == ClassXMM {
		return "xmm"
	}

	return "r"
}
