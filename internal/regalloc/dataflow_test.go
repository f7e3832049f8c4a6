package regalloc

import (
	"testing"

	"github.com/riftlang/riftc/internal/lir"
)

// TestResolveDataFlowInsertsEdgeMove mirrors scenario S6's setup: a variable
// ends block 0 in one location and must start block 1 in another, so a move
// is spliced onto the edge.
func TestResolveDataFlowInsertsEdgeMove(t *testing.T) {
	v0 := lir.Var(0)

	b0 := &lir.Block{Name: "b0", Insns: []*lir.Instr{
		{Op: "def", Outputs: []lir.ValueOperand{lir.V(v0, lir.KindInt)}},
	}}
	b1 := &lir.Block{Name: "b1", Insns: []*lir.Instr{
		{Op: "use", Inputs: []lir.ValueOperand{lir.V(v0, lir.KindInt)}},
	}}
	trace := &lir.Trace{Blocks: []*lir.Block{b0, b1}}

	n := Number(trace)
	store := NewStore()

	root, _ := store.GetOrCreateInterval(v0, lir.KindInt)
	root.AddRange(0, 4)

	child := store.CreateDerivedInterval(root)
	child.AddRange(2, 4)
	store.FinalizeSplitOrder()

	root.Ranges[0] = Range{0, 2}
	root.Location = RegisterLocation(0)
	child.Location = RegisterLocation(1)

	cfg := newStubConfig()
	mf := &stubMoveFactory{}
	stats := NewStats()

	if err := ResolveDataFlow(trace, n, store, cfg, mf, stats); err != nil {
		t.Fatalf("ResolveDataFlow: %v", err)
	}

	if len(mf.moves) != 1 {
		t.Fatalf("expected exactly 1 edge move, got %d", len(mf.moves))
	}

	if mf.moves[0].Src != RegisterLocation(0) || mf.moves[0].Dst != RegisterLocation(1) {
		t.Fatalf("edge move = %v, want r0 -> r1", mf.moves[0])
	}

	if stats.MovesInserted != 1 {
		t.Fatalf("MovesInserted = %d, want 1", stats.MovesInserted)
	}
}

func TestResolveDataFlowSkipsEdgeWhenLocationsAgree(t *testing.T) {
	v0 := lir.Var(0)

	b0 := &lir.Block{Name: "b0", Insns: []*lir.Instr{
		{Op: "def", Outputs: []lir.ValueOperand{lir.V(v0, lir.KindInt)}},
	}}
	b1 := &lir.Block{Name: "b1", Insns: []*lir.Instr{
		{Op: "use", Inputs: []lir.ValueOperand{lir.V(v0, lir.KindInt)}},
	}}
	trace := &lir.Trace{Blocks: []*lir.Block{b0, b1}}

	n := Number(trace)
	store := NewStore()

	root, _ := store.GetOrCreateInterval(v0, lir.KindInt)
	root.AddRange(0, 4)
	root.Location = RegisterLocation(0)

	cfg := newStubConfig()
	mf := &stubMoveFactory{}
	stats := NewStats()

	if err := ResolveDataFlow(trace, n, store, cfg, mf, stats); err != nil {
		t.Fatalf("ResolveDataFlow: %v", err)
	}

	if len(mf.moves) != 0 {
		t.Fatalf("expected no moves when the location doesn't change across the edge, got %d", len(mf.moves))
	}
}
