package regalloc

import "github.com/riftlang/riftc/internal/lir"

// AnalyzeLifetimes is C3: one backward pass over the trace, in reverse
// linear order of blocks and, within each block, reverse order of
// instructions, building ranges and use positions per interval and
// recording register-killing call sites.
//
// Per variable it tracks whether a live segment is currently "open" (seen
// an input with no closing output yet while scanning backward) so that a
// run of instructions that merely pass a variable through — touching other
// operands — does not fragment its range.
func AnalyzeLifetimes(trace *lir.Trace, n *Numbering, store *Store, cfg Config) error {
	open := make(map[int]bool)
	defs := make(map[int]int)

	for bi := len(trace.Blocks) - 1; bi >= 0; bi-- {
		b := trace.Blocks[bi]

		for ii := len(b.Insns) - 1; ii >= 0; ii-- {
			ins := b.Insns[ii]
			id := ins.ID

			if ins.HasCall {
				for _, class := range []RegisterClass{ClassGPR, ClassXMM} {
					for _, r := range cfg.AllocatableRegisters(class) {
						if cfg.IsCallerSave(class, r) {
							store.GetOrCreateFixedInterval(class, r).AddRange(id, id+1)
						}
					}
				}
			}

			var outErr error

			ins.VisitOutputs(func(op lir.Operand, kind lir.Kind, use lir.UseKind) {
				if outErr != nil {
					return
				}

				if op.IsRegister() {
					store.GetOrCreateFixedInterval(classFor(kind), op.Register()).AddRange(id, id+1)
					return
				}

				iv, err := store.GetOrCreateInterval(op, kind)
				if err != nil {
					outErr = err
					return
				}

				if open[op.VarIndex()] {
					iv.SetFrom(id)
					open[op.VarIndex()] = false
				} else {
					iv.AddRange(id, id+1)
				}

				iv.AddUse(id, lir.UseMustHaveRegister)
				defs[op.VarIndex()]++

				if ins.IsMove && ins.MoveDst == op && ins.MoveSrc.IsVariable() {
					// The source's own interval may not exist yet: this
					// instruction's Inputs (which would create it) are
					// visited after Outputs within the same backward step.
					// Create it here rather than looking it up, so the hint
					// is never silently dropped.
					if srcIv, err := store.GetOrCreateInterval(ins.MoveSrc, kind); err == nil {
						iv.RegisterHint = srcIv
					}
				}

				if ins.IsConst && op == ins.Outputs[0].Operand {
					v := ins.ConstValue
					iv.MaterializationValue = &v
				}
			})
			if outErr != nil {
				return outErr
			}

			ins.VisitTemps(func(op lir.Operand, kind lir.Kind, use lir.UseKind) {
				if op.IsRegister() {
					store.GetOrCreateFixedInterval(classFor(kind), op.Register()).AddRange(id, id+1)
					return
				}

				iv, err := store.GetOrCreateInterval(op, kind)
				if err != nil {
					return
				}

				iv.AddRange(id, id+1)
				iv.AddUse(id, lir.UseMustHaveRegister)
			})

			ins.VisitAlives(func(op lir.Operand, kind lir.Kind, use lir.UseKind) {
				if op.IsRegister() {
					store.GetOrCreateFixedInterval(classFor(kind), op.Register()).AddRange(id, id+2)
					return
				}

				iv, err := store.GetOrCreateInterval(op, kind)
				if err != nil {
					return
				}

				if open[op.VarIndex()] {
					if iv.Ranges[0].To < id+2 {
						iv.Ranges[0].To = id + 2
					}
				} else {
					iv.AddRange(id, id+2)
					open[op.VarIndex()] = true
				}
			})

			var inErr error

			ins.VisitInputs(func(op lir.Operand, kind lir.Kind, use lir.UseKind) {
				if inErr != nil {
					return
				}

				if op.IsRegister() {
					store.GetOrCreateFixedInterval(classFor(kind), op.Register()).AddRange(id, id+1)
					return
				}

				iv, err := store.GetOrCreateInterval(op, kind)
				if err != nil {
					inErr = err
					return
				}

				if open[op.VarIndex()] {
					if id < iv.Ranges[0].From {
						iv.Ranges[0].From = id
					}
				} else {
					iv.AddRange(id, id+1)
					open[op.VarIndex()] = true
				}

				iv.AddUse(id, use)
			})
			if inErr != nil {
				return inErr
			}
		}
	}

	// Entry-block parameters: any variable still open after the whole
	// trace has been scanned was never defined within the trace, so its
	// range is seeded starting at the trace's first instruction.
	firstID := 0
	if len(trace.Blocks) > 0 {
		firstID = n.FirstID(0)
	}

	for varIndex, stillOpen := range open {
		if !stillOpen || varIndex < 0 || varIndex >= len(store.variables) {
			continue
		}

		iv := store.variables[varIndex]
		if iv != nil && len(iv.Ranges) > 0 && iv.Ranges[0].From > firstID {
			iv.Ranges[0].From = firstID
		}
	}

	// Only a variable whose single definition is a constant is
	// rematerializable; with a second definition the constant would be
	// substituted at uses that the other definition reaches.
	for varIndex, count := range defs {
		if count > 1 {
			store.variables[varIndex].MaterializationValue = nil
		}
	}

	for _, iv := range store.AllRootIntervals() {
		iv.reverseUses()
	}

	return nil
}
