package regalloc

import "sort"

// Worklist holds the three linked lists the linear-scan walk maintains: C4
// in the component design. Go slices stand in for the source's
// sentinel-terminated lists, in keeping with the arena-plus-index style
// used throughout this package.
type Worklist struct {
	unhandled []*TraceInterval // ascending by From()
	active    []*TraceInterval
	inactive  []*TraceInterval
	handled   []*TraceInterval

	fixedSorted []*FixedInterval
}

// NewWorklist builds the initial unhandled list, insertion-sorted by
// From() — the input is usually already sorted because intervals are
// created in definition order, so an insertion sort is the right tool
// rather than a general sort.
func NewWorklist(roots []*TraceInterval, fixed []*FixedInterval) *Worklist {
	w := &Worklist{fixedSorted: fixed}

	for _, iv := range roots {
		if iv.IsEmpty() {
			continue
		}

		w.insertUnhandled(iv)
	}

	return w
}

func (w *Worklist) insertUnhandled(iv *TraceInterval) {
	i := sort.Search(len(w.unhandled), func(i int) bool { return w.unhandled[i].From() > iv.From() })
	w.unhandled = append(w.unhandled, nil)
	copy(w.unhandled[i+1:], w.unhandled[i:])
	w.unhandled[i] = iv
}

// PushSplitTail re-inserts a freshly split tail into unhandled, keeping the
// ascending-by-From() order.
func (w *Worklist) PushSplitTail(iv *TraceInterval) {
	if iv.IsEmpty() {
		return
	}

	w.insertUnhandled(iv)
}

func (w *Worklist) HasUnhandled() bool { return len(w.unhandled) > 0 }

// PopUnhandled removes and returns the unhandled interval with the lowest
// From().
func (w *Worklist) PopUnhandled() *TraceInterval {
	iv := w.unhandled[0]
	w.unhandled = w.unhandled[1:]

	return iv
}

// AdvanceTo performs C5 step 1: move active intervals that have ended to
// handled, and active intervals currently in a range-hole to inactive;
// symmetrically for inactive intervals.
func (w *Worklist) AdvanceTo(pos int) {
	var stillActive []*TraceInterval

	for _, a := range w.active {
		switch {
		case a.To() <= pos:
			w.handled = append(w.handled, a)
		case a.InHole(pos):
			w.inactive = append(w.inactive, a)
		default:
			stillActive = append(stillActive, a)
		}
	}

	w.active = stillActive

	var stillInactive []*TraceInterval

	for _, i := range w.inactive {
		switch {
		case i.To() <= pos:
			w.handled = append(w.handled, i)
		case i.Covers(pos):
			w.active = append(w.active, i)
		default:
			stillInactive = append(stillInactive, i)
		}
	}

	w.inactive = stillInactive
}

func (w *Worklist) Activate(iv *TraceInterval) {
	w.active = append(w.active, iv)
}

func (w *Worklist) Active() []*TraceInterval     { return w.active }
func (w *Worklist) Inactive() []*TraceInterval   { return w.inactive }
func (w *Worklist) Handled() []*TraceInterval    { return w.handled }
func (w *Worklist) FixedIntervals() []*FixedInterval { return w.fixedSorted }
