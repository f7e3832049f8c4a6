package regalloc

import "github.com/riftlang/riftc/internal/lir"

// EliminateSpillMoves is C8: after C7, remove every move instruction whose
// source and destination resolve, through their intervals at that opID, to
// the same location. Idempotent by construction — re-running finds the
// same (now-empty) set of redundant moves (spec.md §8 invariant 6).
func EliminateSpillMoves(trace *lir.Trace, store *Store, cfg Config, stats *Stats) {
	if !cfg.EliminateSpillMoves() {
		return
	}

	for _, b := range trace.Blocks {
		kept := b.Insns[:0]

		for _, ins := range b.Insns {
			if ins.IsMove && isRedundantMove(ins, store) {
				stats.MovesEliminated++
				continue
			}

			kept = append(kept, ins)
		}

		b.Insns = kept
	}
}

func isRedundantMove(ins *lir.Instr, store *Store) bool {
	srcLoc, srcOK := resolveOperandLocation(ins.MoveSrc, store, ins.ID, lir.ModeInput)
	dstLoc, dstOK := resolveOperandLocation(ins.MoveDst, store, ins.ID, lir.ModeOutput)

	if !srcOK || !dstOK {
		return false
	}

	return srcLoc == dstLoc
}

func resolveOperandLocation(op lir.Operand, store *Store, opID int, mode lir.Mode) (Location, bool) {
	if op.IsRegister() {
		return RegisterLocation(op.Register()), true
	}

	root, ok := store.IntervalFor(op)
	if !ok {
		return Location{}, false
	}

	child, err := root.SplitChildAt(opID, mode)
	if err != nil {
		return Location{}, false
	}

	return child.Location, true
}
