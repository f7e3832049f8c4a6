package regalloc

import "github.com/riftlang/riftc/internal/lir"

// Verify is C10: runs only under DetailedAsserts, re-walking the finalized
// intervals and checking the invariants of spec.md §3/§8. Returns the first
// AllocatorBailout-class error found (an overlap looks like an allocation
// defect to the caller, who should fall back), or an AllocatorBug for
// internal index-consistency failures.
func Verify(trace *lir.Trace, n *Numbering, store *Store, cfg Config) error {
	if !cfg.DetailedAsserts() {
		return nil
	}

	allIntervals := allFamilyMembers(store)

	if err := verifyWellFormed(allIntervals); err != nil {
		return err
	}

	if err := verifyIndexConsistency(allIntervals); err != nil {
		return err
	}

	if err := verifyNoSharedRegister(allIntervals); err != nil {
		return err
	}

	if err := verifyNoFixedCollision(allIntervals, store.AllFixedIntervals()); err != nil {
		return err
	}

	if err := verifySafepoints(trace, store); err != nil {
		return err
	}

	return nil
}

func allFamilyMembers(store *Store) []*TraceInterval {
	var out []*TraceInterval

	for _, root := range store.AllRootIntervals() {
		out = append(out, root)
		out = append(out, root.SplitChildren...)
	}

	return out
}

// verifyWellFormed checks invariant 1: every interval has a location and a
// non-empty, ascending, disjoint range list.
func verifyWellFormed(all []*TraceInterval) error {
	for _, iv := range all {
		if iv.IsEmpty() {
			return bailout(CodeVerifierOverlap, "interval for v%d has no ranges", nil, safeVarIndex(iv.Operand))
		}

		if iv.Location.Kind == LocUnassigned {
			return bailout(CodeVerifierOverlap, "interval for v%d (from %d) has no assigned location",
				nil, safeVarIndex(iv.Operand), iv.From())
		}

		prevTo := -1

		for _, r := range iv.Ranges {
			if r.From >= r.To {
				return bailout(CodeVerifierOverlap, "empty or inverted range [%d,%d) on v%d",
					nil, r.From, r.To, safeVarIndex(iv.Operand))
			}

			if r.From < prevTo {
				return bailout(CodeVerifierOverlap, "unsorted/overlapping ranges on v%d",
					nil, safeVarIndex(iv.Operand))
			}

			prevTo = r.To
		}
	}

	return nil
}

// verifyIndexConsistency checks that no two intervals carry the same Index.
// It does not check an Index against a position in any list.
func verifyIndexConsistency(all []*TraceInterval) error {
	byIndex := make(map[int]*TraceInterval)

	for _, iv := range all {
		if existing, ok := byIndex[iv.Index]; ok && existing != iv {
			return bug(CodeListSentinelMisplace, "duplicate interval index %d", nil, iv.Index)
		}

		byIndex[iv.Index] = iv
	}

	return nil
}

// verifyNoSharedRegister checks invariant 4: no two intervals share a
// physical register location while their ranges intersect.
func verifyNoSharedRegister(all []*TraceInterval) error {
	for i := 0; i < len(all); i++ {
		a := all[i]
		if a.Location.Kind != LocRegister {
			continue
		}

		for j := i + 1; j < len(all); j++ {
			b := all[j]
			if b.Location.Kind != LocRegister || b.Location != a.Location {
				continue
			}

			if rangesIntersect(a.Ranges, b.Ranges) {
				return bailout(CodeVerifierOverlap, "v%d and v%d both hold %s while live",
					nil, safeVarIndex(a.Operand), safeVarIndex(b.Operand), a.Location.String())
			}
		}
	}

	return nil
}

// verifyNoFixedCollision checks invariant 3/4's fixed-interval half: no
// fixed interval intersects a variable interval holding that same register.
func verifyNoFixedCollision(all []*TraceInterval, fixed []*FixedInterval) error {
	for _, f := range fixed {
		for _, iv := range all {
			if iv.Location.Kind != LocRegister || iv.Location.Reg != f.Reg || classFor(iv.Kind) != f.Class {
				continue
			}

			if rangesIntersect(iv.Ranges, f.Ranges) {
				return bailout(CodeVerifierOverlap, "v%d collides with fixed register r%d",
					nil, safeVarIndex(iv.Operand), f.Reg)
			}
		}
	}

	return nil
}

// verifySafepoints checks invariant 5: at every safepoint, no fixed
// interval holds a live reference-kind value unless the instruction's state
// map names it directly.
func verifySafepoints(trace *lir.Trace, store *Store) error {
	for _, b := range trace.Blocks {
		for _, ins := range b.Insns {
			if !ins.HasState {
				continue
			}

			named := make(map[lir.Operand]bool)
			for _, op := range ins.StateRefs {
				named[op] = true
			}

			for _, f := range store.AllFixedIntervals() {
				if f.Class != ClassGPR || !f.Covers(ins.ID) {
					continue
				}

				if isReferenceHolder(store, f, ins.ID) && !named[lir.Reg(f.Reg)] {
					return bailout(CodeVerifierStaleRoot,
						"fixed register r%d holds a live reference across safepoint at %d without being named",
						nil, f.Reg, ins.ID)
				}
			}
		}
	}

	return nil
}

// isReferenceHolder reports whether some reference-kind variable interval
// is currently assigned to f's register at pos.
func isReferenceHolder(store *Store, f *FixedInterval, pos int) bool {
	for _, root := range store.AllRootIntervals() {
		members := append(append([]*TraceInterval{}, root.SplitChildren...), root)
		for _, m := range members {
			if m.Kind == lir.KindRef && m.Location.Kind == LocRegister && m.Location.Reg == f.Reg && m.Covers(pos) {
				return true
			}
		}
	}

	return false
}

func rangesIntersect(a, b []Range) bool {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i].To <= b[j].From {
			i++
		} else if b[j].To <= a[i].From {
			j++
		} else {
			return true
		}
	}

	return false
}
