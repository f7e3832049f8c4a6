package regalloc

import "github.com/riftlang/riftc/internal/lir"

// ResolveDataFlow is C7: for each intra-trace block edge, insert moves
// reconciling the predecessor's and successor's locations for every
// variable live across that edge. Cross-trace edges (leaving the trace
// entirely) are never touched here — that is a separate fix-up pass's job.
func ResolveDataFlow(trace *lir.Trace, n *Numbering, store *Store, cfg Config, mf MoveFactory, stats *Stats) error {
	gprPool := cfg.AllocatableRegisters(ClassGPR)

	for bi := 0; bi < len(trace.Blocks)-1; bi++ {
		b := trace.Blocks[bi]
		succ := trace.Blocks[bi+1]

		lastID := n.LastID(bi)
		firstID := n.FirstID(bi + 1)
		gap := lastID + 1

		liveAtEntry := liveVarsAtBlockEntry(succ)

		var moves []pendingMove

		resolver := NewMoveResolver(mf)
		if scratch, ok := pickScratchRegister(store, gprPool, lastID); ok {
			resolver.SetScratchRegister(scratch)
		}

		for _, op := range liveAtEntry {
			root, ok := store.IntervalFor(op)
			if !ok {
				continue
			}

			src, err := root.SplitChildAt(lastID, lir.ModeOutput)
			if err != nil {
				// The variable may not have a definition ending exactly at
				// lastID on this edge (e.g. it was never redefined in b);
				// fall back to the input-side lookup, which tolerates a
				// covering child rather than an exact boundary.
				src, err = root.SplitChildAt(lastID, lir.ModeInput)
				if err != nil {
					continue
				}
			}

			dst, err := root.SplitChildAt(firstID, lir.ModeInput)
			if err != nil {
				continue
			}

			if src.Location != dst.Location {
				moves = append(moves, pendingMove{Dst: dst.Location, Src: src.Location})
			}
		}

		if len(moves) == 0 {
			continue
		}

		emitted, err := resolver.Resolve(moves)
		if err != nil {
			return err
		}

		spliceBeforeTerminator(b, emitted, gap)
		stats.MovesInserted += len(emitted)
	}

	return nil
}

// liveVarsAtBlockEntry collects every variable operand referenced as an
// input or alive anywhere in the block — an intra-trace
// approximation of "live at entry" sufficient for a single linear
// successor (the general live-in set is the upstream trace-builder's
// concern, out of scope for this core).
func liveVarsAtBlockEntry(b *lir.Block) []lir.Operand {
	seen := make(map[int]bool)

	var out []lir.Operand

	record := func(op lir.Operand, _ lir.Kind, _ lir.UseKind) {
		if op.IsVariable() && !seen[op.VarIndex()] {
			seen[op.VarIndex()] = true
			out = append(out, op)
		}
	}

	for _, ins := range b.Insns {
		ins.VisitInputs(record)
		ins.VisitAlives(record)
	}

	return out
}

// pickScratchRegister looks for an allocatable GPR not held by any interval
// at pos, for opportunistic cycle-breaking. When it returns ok=false the
// resolver has no scratch register, and ResolveDataFlow configures no
// scratch slot either, so a move cycle on that edge makes Resolve fail
// with an AllocatorBug.
func pickScratchRegister(store *Store, pool []int, pos int) (int, bool) {
	held := make(map[int]bool)

	for _, iv := range store.AllRootIntervals() {
		for _, c := range append(append([]*TraceInterval{}, iv.SplitChildren...), iv) {
			if c.Covers(pos) && c.Location.Kind == LocRegister {
				held[c.Location.Reg] = true
			}
		}
	}

	for _, f := range store.AllFixedIntervals() {
		if f.Class == ClassGPR && f.Covers(pos) {
			held[f.Reg] = true
		}
	}

	for _, r := range pool {
		if !held[r] {
			return r, true
		}
	}

	return -1, false
}

func spliceBeforeTerminator(b *lir.Block, moves []*lir.Instr, gap int) {
	for _, m := range moves {
		m.ID = gap
	}

	if len(b.Insns) == 0 {
		b.Insns = moves
		return
	}

	b.Insns = append(b.Insns[:len(b.Insns)-1], append(moves, b.Insns[len(b.Insns)-1])...)
}
