package regalloc

import "github.com/riftlang/riftc/internal/lir"

// AssignLocations is C9: the final pass over every instruction, rewriting
// each variable operand occurrence in place to its split child's location.
// A rematerialization-marked child produces an immediate operand carrying
// the split family's materialization value instead of a register or slot.
func AssignLocations(trace *lir.Trace, store *Store) error {
	for _, b := range trace.Blocks {
		for _, ins := range b.Insns {
			if err := assignOne(ins, store); err != nil {
				return err
			}
		}
	}

	return nil
}

func assignOne(ins *lir.Instr, store *Store) error {
	var firstErr error

	assign := func(op lir.Operand, mode lir.Mode) {
		if !op.IsVariable() || firstErr != nil {
			return
		}

		root, ok := store.IntervalFor(op)
		if !ok {
			return
		}

		child, err := root.SplitChildAt(ins.ID, mode)
		if err != nil {
			firstErr = err
			return
		}

		ins.SetAssigned(op, toResolvedLocation(child, root))
	}

	for i := range ins.Outputs {
		assign(ins.Outputs[i].Operand, lir.ModeOutput)
	}

	for i := range ins.Temps {
		assign(ins.Temps[i].Operand, lir.ModeTemp)
	}

	for i := range ins.Alives {
		assign(ins.Alives[i].Operand, lir.ModeAlive)
	}

	for i := range ins.Inputs {
		assign(ins.Inputs[i].Operand, lir.ModeInput)
	}

	return firstErr
}

func toResolvedLocation(child, root *TraceInterval) lir.ResolvedLocation {
	switch child.Location.Kind {
	case LocRegister:
		return lir.ResolvedLocation{Kind: lir.LocRegister, Reg: child.Location.Reg}
	case LocStackSlot:
		return lir.ResolvedLocation{Kind: lir.LocStack, Slot: child.Location.Slot}
	case LocIllegal:
		var imm int64
		if v := root.MaterializationValue; v != nil {
			imm = *v
		}

		return lir.ResolvedLocation{Kind: lir.LocImmediate, Imm: imm}
	default:
		return lir.ResolvedLocation{}
	}
}

// LocationOf is a convenience query for callers outside the pipeline: the
// allocator-internal location of a variable at a given operand mode at
// opID, before conversion to the lir-level ResolvedLocation.
func LocationOf(store *Store, op lir.Operand, opID int, mode lir.Mode) (Location, error) {
	if op.IsRegister() {
		return RegisterLocation(op.Register()), nil
	}

	root, ok := store.IntervalFor(op)
	if !ok {
		return Location{}, bug(CodeRegisterOnVariable, "no interval recorded for %s", nil, op.String())
	}

	child, err := root.SplitChildAt(opID, mode)
	if err != nil {
		return Location{}, err
	}

	return child.Location, nil
}
