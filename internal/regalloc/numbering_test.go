package regalloc

import (
	"testing"

	"github.com/riftlang/riftc/internal/lir"
)

func twoBlockTrace() *lir.Trace {
	v0 := lir.Var(0)

	b0 := &lir.Block{Name: "entry", Insns: []*lir.Instr{
		{Op: "const", IsConst: true, Outputs: []lir.ValueOperand{lir.V(v0, lir.KindInt)}},
		{Op: "jmp"},
	}}

	b1 := &lir.Block{Name: "exit", Insns: []*lir.Instr{
		{Op: "ret", Inputs: []lir.ValueOperand{lir.V(v0, lir.KindInt)}},
	}}

	return &lir.Trace{Blocks: []*lir.Block{b0, b1}}
}

func TestNumberAssignsEvenIDsInTraceOrder(t *testing.T) {
	trace := twoBlockTrace()
	n := Number(trace)

	want := []int{0, 2, 4}
	got := []int{trace.Blocks[0].Insns[0].ID, trace.Blocks[0].Insns[1].ID, trace.Blocks[1].Insns[0].ID}

	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("instruction %d: got ID %d, want %d", i, got[i], want[i])
		}
	}

	if n.MaxID() != 4 {
		t.Fatalf("MaxID() = %d, want 4", n.MaxID())
	}

	if n.FirstID(1) != 4 || n.LastID(0) != 2 {
		t.Fatalf("block boundary IDs wrong: FirstID(1)=%d LastID(0)=%d", n.FirstID(1), n.LastID(0))
	}
}

func TestIsBlockBeginEnd(t *testing.T) {
	trace := twoBlockTrace()
	n := Number(trace)

	if !n.IsBlockBegin(0) {
		t.Fatal("id 0 should begin block 0")
	}

	if !n.IsBlockEnd(2) {
		t.Fatal("id 2 should end block 0")
	}

	if !n.IsBlockBegin(4) {
		t.Fatal("id 4 should begin block 1")
	}

	if n.IsBlockBegin(2) {
		t.Fatal("id 2 should not begin a block")
	}
}

func TestInstrAtAndBlockIndexAt(t *testing.T) {
	trace := twoBlockTrace()
	n := Number(trace)

	if n.InstrAt(4) != trace.Blocks[1].Insns[0] {
		t.Fatal("InstrAt(4) returned the wrong instruction")
	}

	if n.BlockIndexAt(0) != 0 || n.BlockIndexAt(4) != 1 {
		t.Fatal("BlockIndexAt returned the wrong block")
	}
}
