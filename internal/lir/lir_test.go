package lir

import "testing"

func TestOperandFormsPanicOnMismatch(t *testing.T) {
	v := Var(3)
	if !v.IsVariable() || v.VarIndex() != 3 {
		t.Fatalf("Var(3) = %v, want a variable operand with index 3", v)
	}

	r := Reg(5)
	if !r.IsRegister() || r.Register() != 5 {
		t.Fatalf("Reg(5) = %v, want a register operand holding 5", r)
	}

	defer func() {
		if recover() == nil {
			t.Fatal("VarIndex on a register operand should panic")
		}
	}()

	_ = r.VarIndex()
}

func TestRegisterPanicsOnVariable(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Register on a variable operand should panic")
		}
	}()

	_ = Var(0).Register()
}

func TestSetAssignedAndLocationOf(t *testing.T) {
	in := &Instr{ID: 4, Op: "add"}

	v := Var(0)
	if _, ok := in.LocationOf(v); ok {
		t.Fatal("LocationOf should report false before any assignment")
	}

	in.SetAssigned(v, ResolvedLocation{Kind: LocRegister, Reg: 2})

	loc, ok := in.LocationOf(v)
	if !ok || loc.Kind != LocRegister || loc.Reg != 2 {
		t.Fatalf("LocationOf = %v, %v, want {LocRegister 2} true", loc, ok)
	}
}

func TestVisitOutputsInputsTempsAlives(t *testing.T) {
	out, in, tmp, alive := Var(0), Var(1), Var(2), Var(3)

	ins := &Instr{
		Outputs: []ValueOperand{V(out, KindInt)},
		Inputs:  []ValueOperand{V(in, KindInt)},
		Temps:   []ValueOperand{V(tmp, KindInt)},
		Alives:  []ValueOperand{V(alive, KindRef)},
	}

	var seen []Operand

	record := func(op Operand, _ Kind, _ UseKind) { seen = append(seen, op) }

	ins.VisitOutputs(record)
	ins.VisitInputs(record)
	ins.VisitTemps(record)
	ins.VisitAlives(record)

	want := []Operand{out, in, tmp, alive}

	if len(seen) != len(want) {
		t.Fatalf("visited %d operands, want %d", len(seen), len(want))
	}

	for i, op := range want {
		if seen[i] != op {
			t.Fatalf("visit order[%d] = %v, want %v", i, seen[i], op)
		}
	}
}

func TestDestroysCallerSavedRegisters(t *testing.T) {
	call := &Instr{HasCall: true}
	if !call.DestroysCallerSavedRegisters() {
		t.Fatal("a call instruction should report destroying caller-saved registers")
	}

	plain := &Instr{}
	if plain.DestroysCallerSavedRegisters() {
		t.Fatal("a plain instruction should not report destroying caller-saved registers")
	}
}

func TestTraceNumBlocks(t *testing.T) {
	tr := &Trace{Blocks: []*Block{{Name: "a"}, {Name: "b"}}}
	if tr.NumBlocks() != 2 {
		t.Fatalf("NumBlocks() = %d, want 2", tr.NumBlocks())
	}
}
