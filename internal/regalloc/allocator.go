package regalloc

import "github.com/riftlang/riftc/internal/lir"

// Result carries the allocator's summary output for one trace: the final
// Stats counters and the Store, kept around so a caller's tests or dump
// hooks can inspect the finished intervals.
type Result struct {
	Store *Store
	Stats *Stats
}

// Allocate runs the full core pipeline over one trace, in the fixed order
// spec.md lays out: Numbering (C1) and Lifetime Analysis (C3) build the
// model, the Worklist (C4) drives the Linear-Scan walk (C5), the Data-Flow
// Resolver (C7) reconciles block-edge locations, the Spill-Move Eliminator
// (C8) is an optional cleanup, the Location Assigner (C9) rewrites the LIR
// in place, and the Verifier (C10) re-checks everything under asserts.
//
// cacheSlots is an in/out map of varIndex to spill slot, shared by a caller
// driving several traces of the same compilation when cfg.CacheStackSlots
// is set; pass a fresh empty map (or nil, if the flag is off) per call
// otherwise.
func Allocate(trace *lir.Trace, target TargetDescription, cfg Config, fb FrameBuilder, mf MoveFactory, cacheSlots map[int]int) (*Result, error) {
	_ = target // reserved for a future target-specific tie-break; unused today

	n := Number(trace)
	store := NewStore()
	stats := NewStats()

	if err := AnalyzeLifetimes(trace, n, store, cfg); err != nil {
		return nil, err
	}

	work := NewWorklist(store.AllRootIntervals(), store.AllFixedIntervals())
	ls := NewLinearScan(store, cfg, work, stats)

	if err := ls.Run(fb, cacheSlots); err != nil {
		return nil, err
	}

	if err := ResolveDataFlow(trace, n, store, cfg, mf, stats); err != nil {
		return nil, err
	}

	EliminateSpillMoves(trace, store, cfg, stats)

	if err := AssignLocations(trace, store); err != nil {
		return nil, err
	}

	if err := Verify(trace, n, store, cfg); err != nil {
		return nil, err
	}

	return &Result{Store: store, Stats: stats}, nil
}
