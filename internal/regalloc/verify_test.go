package regalloc

import (
	"testing"

	"github.com/riftlang/riftc/internal/lir"
	"github.com/riftlang/riftc/internal/rterr"
)

func TestVerifySkippedWithoutDetailedAsserts(t *testing.T) {
	cfg := newStubConfig()
	trace := &lir.Trace{}
	store := NewStore()

	if err := Verify(trace, Number(trace), store, cfg); err != nil {
		t.Fatalf("Verify must be a no-op when DetailedAsserts is off, got %v", err)
	}
}

func TestVerifyCatchesSharedRegisterOverlap(t *testing.T) {
	cfg := newStubConfig()
	cfg.detailedAsserts = true

	trace := &lir.Trace{Blocks: []*lir.Block{{Name: "b0", Insns: []*lir.Instr{{Op: "nop"}}}}}
	n := Number(trace)
	store := NewStore()

	a, _ := store.GetOrCreateInterval(lir.Var(0), lir.KindInt)
	a.AddRange(0, 10)
	a.Location = RegisterLocation(1)

	b, _ := store.GetOrCreateInterval(lir.Var(1), lir.KindInt)
	b.AddRange(5, 15)
	b.Location = RegisterLocation(1)

	err := Verify(trace, n, store, cfg)
	if err == nil {
		t.Fatal("expected an overlap error when two live intervals share a register")
	}

	if !rterr.IsBailout(err) {
		t.Fatalf("overlap should surface as a bailout-class error, got %v", err)
	}
}

func TestVerifyPassesOnDisjointRanges(t *testing.T) {
	cfg := newStubConfig()
	cfg.detailedAsserts = true

	trace := &lir.Trace{Blocks: []*lir.Block{{Name: "b0", Insns: []*lir.Instr{{Op: "nop"}}}}}
	n := Number(trace)
	store := NewStore()

	a, _ := store.GetOrCreateInterval(lir.Var(0), lir.KindInt)
	a.AddRange(0, 5)
	a.Location = RegisterLocation(1)

	b, _ := store.GetOrCreateInterval(lir.Var(1), lir.KindInt)
	b.AddRange(5, 10)
	b.Location = RegisterLocation(1)

	if err := Verify(trace, n, store, cfg); err != nil {
		t.Fatalf("disjoint ranges sharing a register must verify clean, got %v", err)
	}
}

func TestVerifyCatchesMissingLocation(t *testing.T) {
	cfg := newStubConfig()
	cfg.detailedAsserts = true

	trace := &lir.Trace{Blocks: []*lir.Block{{Name: "b0", Insns: []*lir.Instr{{Op: "nop"}}}}}
	n := Number(trace)
	store := NewStore()

	a, _ := store.GetOrCreateInterval(lir.Var(0), lir.KindInt)
	a.AddRange(0, 5)
	// Location left unassigned.

	if err := Verify(trace, n, store, cfg); err == nil {
		t.Fatal("expected an error for an interval with no assigned location")
	}
}
