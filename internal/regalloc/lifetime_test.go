package regalloc

import (
	"testing"

	"github.com/riftlang/riftc/internal/lir"
)

// straightLineTrace mirrors scenario S1: a single block, no register
// pressure, straightforward def-use chains.
func straightLineTrace() *lir.Trace {
	v0, v1 := lir.Var(0), lir.Var(1)

	b := &lir.Block{Name: "entry", Insns: []*lir.Instr{
		{Op: "const", IsConst: true, ConstValue: 5, Outputs: []lir.ValueOperand{lir.V(v0, lir.KindInt)}},
		{Op: "add", Inputs: []lir.ValueOperand{lir.V(v0, lir.KindInt), lir.V(v0, lir.KindInt)},
			Outputs: []lir.ValueOperand{lir.V(v1, lir.KindInt)}},
		{Op: "ret", Inputs: []lir.ValueOperand{lir.V(v1, lir.KindInt)}},
	}}

	return &lir.Trace{Blocks: []*lir.Block{b}}
}

func TestAnalyzeLifetimesStraightLine(t *testing.T) {
	trace := straightLineTrace()
	n := Number(trace)
	store := NewStore()
	cfg := newStubConfig()

	if err := AnalyzeLifetimes(trace, n, store, cfg); err != nil {
		t.Fatalf("AnalyzeLifetimes: %v", err)
	}

	v0, ok := store.IntervalFor(lir.Var(0))
	if !ok {
		t.Fatal("expected an interval for v0")
	}

	if v0.From() != 0 || v0.To() != 3 {
		t.Fatalf("v0 range = [%d,%d), want [0,3)", v0.From(), v0.To())
	}

	if len(v0.UsePositions) != 3 {
		t.Fatalf("v0 has %d use positions, want 3 (its definition and both operands of the add)", len(v0.UsePositions))
	}

	v1, ok := store.IntervalFor(lir.Var(1))
	if !ok {
		t.Fatal("expected an interval for v1")
	}

	if v1.From() != 2 || v1.To() != 5 {
		t.Fatalf("v1 range = [%d,%d), want [2,5)", v1.From(), v1.To())
	}
}

func TestAnalyzeLifetimesCallClobbersCallerSaved(t *testing.T) {
	v0 := lir.Var(0)

	b := &lir.Block{Name: "entry", Insns: []*lir.Instr{
		{Op: "const", IsConst: true, Outputs: []lir.ValueOperand{lir.V(v0, lir.KindInt)}},
		{Op: "call", HasCall: true, Alives: []lir.ValueOperand{lir.V(v0, lir.KindInt)}},
		{Op: "ret", Inputs: []lir.ValueOperand{lir.V(v0, lir.KindInt)}},
	}}
	trace := &lir.Trace{Blocks: []*lir.Block{b}}

	n := Number(trace)
	store := NewStore()
	cfg := newStubConfig()

	if err := AnalyzeLifetimes(trace, n, store, cfg); err != nil {
		t.Fatalf("AnalyzeLifetimes: %v", err)
	}

	callID := b.Insns[1].ID

	for reg := range cfg.callerSavedGPR {
		f, ok := store.FixedIntervalFor(ClassGPR, reg)
		if !ok {
			t.Fatalf("expected a fixed interval for caller-saved register %d", reg)
		}

		if !f.Covers(callID) {
			t.Fatalf("fixed interval for register %d does not cover the call at %d", reg, callID)
		}
	}

	if f, ok := store.FixedIntervalFor(ClassGPR, 2); ok && f.Covers(callID) {
		t.Fatal("register 2 is callee-saved in stubConfig and must not be clobbered")
	}
}
