package regalloc

import (
	"github.com/riftlang/riftc/internal/lir"
)

// LinearScan runs C5, the Wimmer/Mössenböck "Optimized Interval Splitting in
// a Linear Scan Register Allocator" walk, over every unhandled interval.
type LinearScan struct {
	store *Store
	cfg   Config
	work  *Worklist
	stats *Stats
}

func NewLinearScan(store *Store, cfg Config, work *Worklist, stats *Stats) *LinearScan {
	return &LinearScan{store: store, cfg: cfg, work: work, stats: stats}
}

// Run drains the unhandled list, assigning a register, a split, or a spill
// to each interval in turn.
func (l *LinearScan) Run(fb FrameBuilder, cacheSlots map[int]int) error {
	l.store.MarkFirstDerivedIndex()

	for l.work.HasUnhandled() {
		current := l.work.PopUnhandled()

		l.work.AdvanceTo(current.From())

		if err := l.allocateOne(current, fb, cacheSlots); err != nil {
			return err
		}

		l.work.Activate(current)
	}

	l.store.FinalizeSplitOrder()

	return nil
}

func (l *LinearScan) allocateOne(current *TraceInterval, fb FrameBuilder, cacheSlots map[int]int) error {
	class := classFor(current.Kind)
	regs := l.cfg.AllocatableRegisters(class)

	freeUntil := make(map[int]int, len(regs))
	for _, r := range regs {
		freeUntil[r] = infinity
	}

	for _, a := range l.work.Active() {
		if classFor(a.Kind) == class && a.Location.Kind == LocRegister {
			freeUntil[a.Location.Reg] = 0
		}
	}

	for _, i := range l.work.Inactive() {
		if classFor(i.Kind) != class || i.Location.Kind != LocRegister {
			continue
		}

		pos := i.NextIntersection(current, current.From())
		if pos < freeUntil[i.Location.Reg] {
			freeUntil[i.Location.Reg] = pos
		}
	}

	for _, f := range l.work.FixedIntervals() {
		if f.Class != class {
			continue
		}

		pos := f.NextIntersection(current, current.From())
		if pos < freeUntil[f.Reg] {
			freeUntil[f.Reg] = pos
		}
	}

	best, bestPos := pickBestRegister(regs, freeUntil, current, l.cfg)

	if bestPos == 0 {
		return l.allocateWithSpill(current, class, regs, fb, cacheSlots)
	}

	current.Location = RegisterLocation(best)
	l.stats.RegistersAssigned++

	if bestPos >= current.To() {
		return nil
	}

	tail := l.splitAt(current, bestPos)
	l.work.PushSplitTail(tail)

	return nil
}

// pickBestRegister picks argmax freeUntil[r], tie-breaking by (i) the
// register hinted by current's move-coalescing source, (ii) caller-save vs
// callee-save preference based on whether current crosses a call, (iii)
// lowest register number.
func pickBestRegister(regs []int, freeUntil map[int]int, current *TraceInterval, cfg Config) (int, int) {
	class := classFor(current.Kind)

	hintReg := -1

	if current.RegisterHint != nil && current.RegisterHint.Location.Kind == LocRegister {
		hintReg = current.RegisterHint.Location.Reg
	}

	crossesCall := current.To()-current.From() > 2 // conservative: real crossing test happens in caller via fixed-interval blocking; here it only informs the tie-break

	best, bestPos := -1, -1

	for _, r := range regs {
		pos := freeUntil[r]

		switch {
		case pos > bestPos:
			best, bestPos = r, pos
		case pos == bestPos && best >= 0:
			if r == hintReg {
				best = r
			} else if best != hintReg {
				preferCalleeSave := crossesCall && !cfg.IsCallerSave(class, r) && cfg.IsCallerSave(class, best)
				if preferCalleeSave || r < best {
					best = r
				}
			}
		}
	}

	return best, bestPos
}

// splitAt divides current at pos: current keeps [From(), pos), the new
// child covers [pos, To()) plus the use positions at or after pos.
func (l *LinearScan) splitAt(current *TraceInterval, pos int) *TraceInterval {
	child := l.store.CreateDerivedInterval(current)
	l.stats.SplitsCreated++

	var keptRanges, childRanges []Range

	for _, r := range current.Ranges {
		switch {
		case r.To <= pos:
			keptRanges = append(keptRanges, r)
		case r.From >= pos:
			childRanges = append(childRanges, r)
		default:
			keptRanges = append(keptRanges, Range{r.From, pos})
			childRanges = append(childRanges, Range{pos, r.To})
		}
	}

	current.Ranges = keptRanges
	child.Ranges = childRanges

	var keptUses, childUses []UsePosition

	for _, u := range current.UsePositions {
		if u.OpID < pos {
			keptUses = append(keptUses, u)
		} else {
			childUses = append(childUses, u)
		}
	}

	current.UsePositions = keptUses
	child.UsePositions = childUses
	child.RegisterHint = current.RegisterHint

	return child
}

// allocateWithSpill is C5 step 3: no free register accommodates current
// without conflict, so spill either current itself or whatever currently
// occupies the best candidate register.
func (l *LinearScan) allocateWithSpill(current *TraceInterval, class RegisterClass, regs []int, fb FrameBuilder, cacheSlots map[int]int) error {
	nextUse := make(map[int]int, len(regs))
	holder := make(map[int]*TraceInterval, len(regs))

	for _, r := range regs {
		nextUse[r] = infinity
	}

	for _, a := range l.work.Active() {
		if classFor(a.Kind) == class && a.Location.Kind == LocRegister {
			pos := a.NextUsePosAfter(current.From(), lir.UseMustHaveRegister)
			if pos < nextUse[a.Location.Reg] {
				nextUse[a.Location.Reg] = pos
				holder[a.Location.Reg] = a
			}
		}
	}

	for _, i := range l.work.Inactive() {
		if classFor(i.Kind) != class || i.Location.Kind != LocRegister {
			continue
		}

		if i.NextIntersection(current, current.From()) == infinity {
			continue
		}

		pos := i.NextUsePosAfter(current.From(), lir.UseMustHaveRegister)
		if pos < nextUse[i.Location.Reg] {
			nextUse[i.Location.Reg] = pos
			holder[i.Location.Reg] = i
		}
	}

	best, bestPos := -1, -1

	for _, r := range regs {
		if nextUse[r] > bestPos {
			best, bestPos = r, nextUse[r]
		}
	}

	if best < 0 || bestPos < current.FirstUseAtLeast(lir.UseMustHaveRegister) {
		return l.spillCurrent(current, fb, cacheSlots)
	}

	// Spill whoever currently holds best, then give the register to current.
	if occupant, ok := holder[best]; ok {
		splitPos := current.From()
		if splitPos <= occupant.From() {
			splitPos = occupant.From() + 1
		}

		tail := l.splitAt(occupant, splitPos)

		if err := l.spillCurrent(tail, fb, cacheSlots); err != nil {
			return err
		}

		removeFromSlice(&l.work.active, occupant)
		removeFromSlice(&l.work.inactive, occupant)

		if !tail.IsEmpty() {
			l.work.PushSplitTail(tail)
		}
	}

	// Block collisions with fixed intervals of best by splitting current at
	// the fixed range's start, if one intersects before current.To().
	for _, f := range l.work.FixedIntervals() {
		if f.Class == class && f.Reg == best {
			if pos := f.NextIntersection(current, current.From()); pos < current.To() && pos > current.From() {
				tail := l.splitAt(current, pos)
				l.work.PushSplitTail(tail)
			}
		}
	}

	current.Location = RegisterLocation(best)
	l.stats.RegistersAssigned++

	return nil
}

// spillCurrent demotes current to memory (or a rematerialization marker),
// splitting off and re-queuing any suffix that begins at a must-have-
// register use.
func (l *LinearScan) spillCurrent(current *TraceInterval, fb FrameBuilder, cacheSlots map[int]int) error {
	next := current.FirstUseAtLeast(lir.UseMustHaveRegister)

	if next < current.To() && next > current.From() {
		tail := l.splitAt(current, next)
		l.assignSpillSlot(current, fb, cacheSlots)
		l.work.PushSplitTail(tail)

		return nil
	}

	l.assignSpillSlot(current, fb, cacheSlots)

	return nil
}

// assignSpillSlot is spec.md's assignSpillSlot(I): prefer rematerialization,
// then the split family's already-allocated slot, then a fresh one from the
// frame builder (optionally cached by varIndex).
func (l *LinearScan) assignSpillSlot(iv *TraceInterval, fb FrameBuilder, cacheSlots map[int]int) {
	if iv.CanMaterialize() && !l.cfg.NeverSpillConstants() {
		iv.Location = IllegalLocation
		l.stats.Rematerializations++

		return
	}

	root := iv.Root()

	if root.SpillSlot >= 0 {
		iv.Location = StackLocation(root.SpillSlot)
		return
	}

	varIndex := -1
	if root.Operand.IsVariable() {
		varIndex = root.Operand.VarIndex()
	}

	if l.cfg.CacheStackSlots() && varIndex >= 0 && cacheSlots != nil {
		if slot, ok := cacheSlots[varIndex]; ok {
			root.SpillSlot = slot
			iv.Location = StackLocation(slot)

			return
		}
	}

	slot := fb.AllocateSpillSlot(iv.Kind)
	root.SpillSlot = slot
	iv.Location = StackLocation(slot)
	l.stats.SpillSlotsAllocated++

	if l.cfg.CacheStackSlots() && varIndex >= 0 && cacheSlots != nil {
		cacheSlots[varIndex] = slot
	}
}

func removeFromSlice(list *[]*TraceInterval, target *TraceInterval) {
	out := (*list)[:0]

	for _, iv := range *list {
		if iv != target {
			out = append(out, iv)
		}
	}

	*list = out
}
