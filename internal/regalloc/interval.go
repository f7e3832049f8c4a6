package regalloc

import (
	"math"
	"sort"

	"github.com/riftlang/riftc/internal/lir"
)

const infinity = math.MaxInt32

// SpillState tracks how far along an interval's split family is toward
// having its spill location resolved; the spill-move eliminator keeps this
// conservative, never guessing a transition it cannot derive directly.
type SpillState int

const (
	SpillNoDefinitionFound SpillState = iota
	SpillOneDefinitionFound
	SpillOneMoveInserted
	SpillStoreAtDefinition
	SpillStartInMemory
	SpillNoOptimization
)

// Range is a half-open instruction-ID interval [From, To).
type Range struct {
	From, To int
}

// UsePosition records that an operand is read or written at OpID with the
// given strength.
type UsePosition struct {
	OpID int
	Kind lir.UseKind
}

// TraceInterval is the live-range model for one virtual value, or a split
// child thereof.
type TraceInterval struct {
	Operand lir.Operand
	Kind    lir.Kind

	Ranges       []Range
	UsePositions []UsePosition

	Location   Location
	SpillSlot  int // -1 until assigned
	SpillState SpillState

	SplitParent   *TraceInterval // nil for the root of a split family
	SplitChildren []*TraceInterval

	// MaterializationValue is set only on the split-family root, when the
	// root's only definition is a constant-materializing one.
	MaterializationValue *int64

	// RegisterHint names a register the allocator should prefer, recorded
	// by lifetime analysis from a plain move's source interval.
	RegisterHint *TraceInterval

	// Index is this interval's position within the store's flat interval
	// list (operandNumber in spec terms); used by the verifier's index
	// consistency check.
	Index int
}

func newTraceInterval(op lir.Operand, kind lir.Kind) *TraceInterval {
	return &TraceInterval{
		Operand:   op,
		Kind:      kind,
		SpillSlot: -1,
	}
}

// Root returns the split-family root (self if unsplit).
func (iv *TraceInterval) Root() *TraceInterval {
	if iv.SplitParent == nil {
		return iv
	}

	return iv.SplitParent
}

func (iv *TraceInterval) From() int {
	if len(iv.Ranges) == 0 {
		return -1
	}

	return iv.Ranges[0].From
}

func (iv *TraceInterval) To() int {
	if len(iv.Ranges) == 0 {
		return -1
	}

	return iv.Ranges[len(iv.Ranges)-1].To
}

func (iv *TraceInterval) IsEmpty() bool { return len(iv.Ranges) == 0 }

// Covers reports whether pos falls within one of this interval's ranges.
func (iv *TraceInterval) Covers(pos int) bool {
	for _, r := range iv.Ranges {
		if pos < r.From {
			return false
		}

		if pos < r.To {
			return true
		}
	}

	return false
}

// InHole reports that pos is past the interval's start but not currently
// covered — the active-to-inactive transition condition in C5 step 1.
func (iv *TraceInterval) InHole(pos int) bool {
	return !iv.IsEmpty() && pos >= iv.From() && pos < iv.To() && !iv.Covers(pos)
}

// AddRange merges [from,to) into the lowest-From range recorded so far
// (Ranges[0]), or prepends a new disjoint range before it. Lifetime
// analysis calls this while scanning backward, so new ranges are always at
// or before the current head — this keeps Ranges sorted ascending and
// merged without a second pass.
func (iv *TraceInterval) AddRange(from, to int) {
	if from >= to {
		return
	}

	if len(iv.Ranges) == 0 {
		iv.Ranges = append(iv.Ranges, Range{from, to})
		return
	}

	head := &iv.Ranges[0]
	if from <= head.To && to >= head.From {
		if from < head.From {
			head.From = from
		}

		if to > head.To {
			head.To = to
		}

		return
	}

	iv.Ranges = append([]Range{{from, to}}, iv.Ranges...)
}

// SetFrom truncates the head range's start down to id, the classical
// "a definition closes the open tail" step of reverse lifetime analysis.
func (iv *TraceInterval) SetFrom(id int) {
	if len(iv.Ranges) == 0 {
		iv.Ranges = append(iv.Ranges, Range{id, id + 1})
		return
	}

	iv.Ranges[0].From = id
}

// AddUse appends a use position; lifetime analysis appends in descending
// opID order while scanning backward and reverses once at the end.
func (iv *TraceInterval) AddUse(opID int, kind lir.UseKind) {
	iv.UsePositions = append(iv.UsePositions, UsePosition{opID, kind})
}

func (iv *TraceInterval) reverseUses() {
	for i, j := 0, len(iv.UsePositions)-1; i < j; i, j = i+1, j-1 {
		iv.UsePositions[i], iv.UsePositions[j] = iv.UsePositions[j], iv.UsePositions[i]
	}
}

// NextUsePosAfter returns the smallest opID >= pos with Kind <= minKind
// (lir.UseMustHaveRegister being the strongest), or infinity if none.
func (iv *TraceInterval) NextUsePosAfter(pos int, minKind lir.UseKind) int {
	for _, u := range iv.UsePositions {
		if u.OpID >= pos && u.Kind <= minKind {
			return u.OpID
		}
	}

	return infinity
}

// FirstUseAtLeast returns the smallest opID whose use kind is at least as
// strong as minKind (numerically <=, since UseMustHaveRegister == 0).
func (iv *TraceInterval) FirstUseAtLeast(minKind lir.UseKind) int {
	for _, u := range iv.UsePositions {
		if u.Kind <= minKind {
			return u.OpID
		}
	}

	return infinity
}

// NextIntersection returns the smallest position >= from at which iv and
// other both cover the same instruction ID, or infinity if they never do.
func (iv *TraceInterval) NextIntersection(other *TraceInterval, from int) int {
	best := infinity

	for _, a := range iv.Ranges {
		if a.To <= from {
			continue
		}

		lo := a.From
		if lo < from {
			lo = from
		}

		for _, b := range other.Ranges {
			if b.To <= lo || b.From >= a.To {
				continue
			}

			start := lo
			if b.From > start {
				start = b.From
			}

			if start < best {
				best = start
			}
		}
	}

	return best
}

// CanMaterialize reports whether the split family this interval belongs to
// can be rematerialized instead of spilled.
func (iv *TraceInterval) CanMaterialize() bool {
	return iv.Root().MaterializationValue != nil
}

// SplitChildAt implements spec.md C2's parent.splitChildAt(opId, mode): a
// binary search by From() over the split family (root + children, kept
// sorted), adjusted for the operand mode. Output picks the child starting
// exactly at opID; input/alive/temp pick the child covering opID, or, if
// none covers it, a child that starts at or before opID and ends at or
// after it.
func (iv *TraceInterval) SplitChildAt(opID int, mode lir.Mode) (*TraceInterval, error) {
	root := iv.Root()
	family := root.family()

	if mode == lir.ModeOutput {
		idx := sort.Search(len(family), func(i int) bool { return family[i].From() >= opID })
		if idx < len(family) && family[idx].From() == opID {
			return family[idx], nil
		}

		return nil, bailout(CodeSplitChildMiss,
			"no split child of v%d starts exactly at %d (output mode)",
			map[string]interface{}{"varIndex": safeVarIndex(root.Operand), "opID": opID},
			safeVarIndex(root.Operand), opID)
	}

	// input/alive/temp: the child covering opID, or — per spec's "ending at
	// or after p" — the child whose range ends at or just after opID.
	for _, child := range family {
		if child.Covers(opID) {
			return child, nil
		}
	}

	for _, child := range family {
		if child.To() >= opID && child.From() <= opID {
			return child, nil
		}
	}

	return nil, bailout(CodeSplitChildMiss,
		"no split child of v%d covers %d (%s mode)",
		map[string]interface{}{"varIndex": safeVarIndex(root.Operand), "opID": opID, "mode": mode.String()},
		safeVarIndex(root.Operand), opID, mode.String())
}

// family returns root plus its children, sorted ascending by From(). It
// sorts on every call, so the result is ordered even before the store's
// FinalizeSplitOrder has run.
func (root *TraceInterval) family() []*TraceInterval {
	all := make([]*TraceInterval, 0, len(root.SplitChildren)+1)
	all = append(all, root)
	all = append(all, root.SplitChildren...)
	sort.Slice(all, func(i, j int) bool { return all[i].From() < all[j].From() })

	return all
}

func safeVarIndex(op lir.Operand) int {
	if op.IsVariable() {
		return op.VarIndex()
	}

	return -1
}

// FixedInterval is the liveness of one physical register across the trace,
// used only to block registers during allocation; it has no use positions.
type FixedInterval struct {
	Class RegisterClass
	Reg   int

	Ranges []Range
}

func newFixedInterval(class RegisterClass, reg int) *FixedInterval {
	return &FixedInterval{Class: class, Reg: reg}
}

func (f *FixedInterval) Covers(pos int) bool {
	for _, r := range f.Ranges {
		if pos >= r.From && pos < r.To {
			return true
		}
	}

	return false
}

func (f *FixedInterval) AddRange(from, to int) {
	if from >= to {
		return
	}

	if len(f.Ranges) == 0 {
		f.Ranges = append(f.Ranges, Range{from, to})
		return
	}

	head := &f.Ranges[0]
	if from <= head.To && to >= head.From {
		if from < head.From {
			head.From = from
		}

		if to > head.To {
			head.To = to
		}

		return
	}

	f.Ranges = append([]Range{{from, to}}, f.Ranges...)
}

// NextIntersection returns the first position >= from at which iv and f
// both cover the same instruction ID, or infinity.
func (f *FixedInterval) NextIntersection(iv *TraceInterval, from int) int {
	best := infinity

	for _, b := range f.Ranges {
		if b.To <= from {
			continue
		}

		lo := b.From
		if lo < from {
			lo = from
		}

		for _, a := range iv.Ranges {
			if a.To <= lo || a.From >= b.To {
				continue
			}

			start := lo
			if a.From > start {
				start = a.From
			}

			if start < best {
				best = start
			}
		}
	}

	return best
}
