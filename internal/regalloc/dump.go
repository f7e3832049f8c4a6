package regalloc

import (
	"fmt"
	"log"
	"strings"
)

// DumpLevel selects how much detail Dump prints, cheapest first.
type DumpLevel int

const (
	DumpSummary DumpLevel = iota
	DumpIntervals
	DumpVerbose
)

// Dump writes a diagnostic snapshot of store to logger at the requested
// level. Intended for before/after comparison around Allocate, the way a
// compiler driver logs a pass's effect when a verbose flag is set.
func Dump(logger *log.Logger, label string, store *Store, stats *Stats, level DumpLevel) {
	logger.Printf("=== %s ===", label)

	if stats != nil {
		logger.Printf("stats: slots=%d rematerialized=%d splits=%d moves+=%d moves-=%d regs=%d",
			stats.SpillSlotsAllocated, stats.Rematerializations,
			stats.SplitsCreated, stats.MovesInserted, stats.MovesEliminated, stats.RegistersAssigned)
	}

	if level == DumpSummary {
		return
	}

	for _, root := range store.AllRootIntervals() {
		logger.Print(formatFamily(root, level == DumpVerbose))
	}

	if level == DumpVerbose {
		for _, f := range store.AllFixedIntervals() {
			logger.Printf("fixed %s: %v", f.String(), f.Ranges)
		}
	}
}

func formatFamily(root *TraceInterval, verbose bool) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s [%d,%d) -> %s", root.Operand.String(), root.From(), root.To(), root.Location.String())

	if !verbose {
		return b.String()
	}

	fmt.Fprintf(&b, " ranges=%v uses=%d", root.Ranges, len(root.UsePositions))

	for _, c := range root.SplitChildren {
		fmt.Fprintf(&b, "\n  child [%d,%d) -> %s", c.From(), c.To(), c.Location.String())
	}

	return b.String()
}

func (f *FixedInterval) String() string {
	return fmt.Sprintf("class=%d r%d", f.Class, f.Reg)
}
