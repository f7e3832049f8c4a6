package regalloc

import "github.com/riftlang/riftc/internal/lir"

// pendingMove is one entry of a parallel-move set: dst <- src, to be
// resolved into a sequential order by C6.
type pendingMove struct {
	Dst, Src Location
}

// MoveResolver schedules a set of parallel moves at one program point into
// a cycle-free sequence, inserting a scratch register or spill slot when a
// true cycle exists.
type MoveResolver struct {
	scratchReg  int
	hasScratch  bool
	scratchSlot int
	mf          MoveFactory
}

func NewMoveResolver(mf MoveFactory) *MoveResolver {
	return &MoveResolver{mf: mf, scratchSlot: -1}
}

// SetScratchRegister designates a free register C5 left unused at this
// program point, preferred over a spill slot for cycle-breaking.
func (r *MoveResolver) SetScratchRegister(reg int) {
	r.scratchReg = reg
	r.hasScratch = true
}

// SetScratchSlot designates a dedicated spill slot to use when no scratch
// register is available.
func (r *MoveResolver) SetScratchSlot(slot int) {
	r.scratchSlot = slot
}

// Resolve orders the moves so that every move reads its source before any
// other move overwrites it: a move m' with m'.Dst == m.Src must execute
// after m. It repeatedly emits moves whose destination is not still needed
// as another move's source, and breaks any remaining cycle via a scratch.
func (r *MoveResolver) Resolve(moves []pendingMove) ([]*lir.Instr, error) {
	pending := make([]pendingMove, 0, len(moves))

	for _, m := range moves {
		if m.Dst != m.Src {
			pending = append(pending, m)
		}
	}

	var out []*lir.Instr

	emitted := make([]bool, len(pending))

	for {
		progressed := false

		for i, m := range pending {
			if emitted[i] {
				continue
			}

			if !isStillNeededAsSource(pending, emitted, m.Dst, i) {
				out = append(out, r.mf.MakeMove(m.Dst, m.Src))
				emitted[i] = true
				progressed = true
			}
		}

		if allEmitted(emitted) {
			return out, nil
		}

		if progressed {
			continue
		}

		// Every remaining move is part of a cycle. Break exactly one: copy
		// its source into a scratch, emit it, then let the rest resolve
		// normally (the node whose destination was the broken source will
		// next find its destination free).
		idx := firstUnemitted(emitted)
		if idx < 0 {
			return out, nil
		}

		scratch, err := r.scratchLocation()
		if err != nil {
			return nil, err
		}

		out = append(out, r.mf.MakeMove(scratch, pending[idx].Src))

		// Redirect every move that reads pending[idx].Src to read scratch
		// instead; one of them is pending[idx] itself once its destination
		// frees up, or the instruction that needed pending[idx].Src as a
		// source reads it now from scratch.
		for i := range pending {
			if !emitted[i] && pending[i].Src == pending[idx].Src {
				pending[i].Src = scratch
			}
		}
	}
}

func (r *MoveResolver) scratchLocation() (Location, error) {
	if r.hasScratch {
		return RegisterLocation(r.scratchReg), nil
	}

	if r.scratchSlot >= 0 {
		return StackLocation(r.scratchSlot), nil
	}

	return Location{}, bug(CodeResolverCycle, "move cycle requires a scratch but none was provided", nil)
}

func isStillNeededAsSource(pending []pendingMove, emitted []bool, loc Location, exceptIdx int) bool {
	for i, m := range pending {
		if i == exceptIdx || emitted[i] {
			continue
		}

		if m.Src == loc {
			return true
		}
	}

	return false
}

func allEmitted(emitted []bool) bool {
	for _, e := range emitted {
		if !e {
			return false
		}
	}

	return true
}

func firstUnemitted(emitted []bool) int {
	for i, e := range emitted {
		if !e {
			return i
		}
	}

	return -1
}
