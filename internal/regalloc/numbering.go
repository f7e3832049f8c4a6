package regalloc

import "github.com/riftlang/riftc/internal/lir"

// Numbering assigns even instruction IDs in trace order and builds the
// ID<->instruction and ID<->block lookup tables. C1 in the component
// design: every other component addresses instructions purely by ID.
type Numbering struct {
	trace *lir.Trace

	instrOf  []*lir.Instr // indexed by id/2
	blockOf  []int        // indexed by id/2
	firstID  []int        // indexed by block
	lastID   []int        // indexed by block
	maxID    int
}

// Number walks the trace in linear order and assigns each instruction the
// next even ID starting at 0; consecutive instructions differ by 2, leaving
// the odd positions as gaps for resolution moves.
func Number(trace *lir.Trace) *Numbering {
	n := &Numbering{
		trace:   trace,
		firstID: make([]int, len(trace.Blocks)),
		lastID:  make([]int, len(trace.Blocks)),
		maxID:   -1,
	}

	id := 0

	for bi, b := range trace.Blocks {
		n.firstID[bi] = id

		for _, ins := range b.Insns {
			ins.ID = id
			n.instrOf = append(n.instrOf, ins)
			n.blockOf = append(n.blockOf, bi)
			id += 2
		}

		n.lastID[bi] = id - 2
	}

	n.maxID = id - 2

	return n
}

func (n *Numbering) InstrAt(id int) *lir.Instr { return n.instrOf[id/2] }

func (n *Numbering) BlockIndexAt(id int) int { return n.blockOf[id/2] }

func (n *Numbering) FirstID(blockIdx int) int { return n.firstID[blockIdx] }

func (n *Numbering) LastID(blockIdx int) int { return n.lastID[blockIdx] }

func (n *Numbering) MaxID() int { return n.maxID }

func (n *Numbering) NumInstructions() int { return len(n.instrOf) }

// blockForID maps any ID, even a gap (odd) position, to its containing
// block: a gap belongs to the block of the instruction immediately before
// it, matching where the data-flow resolver splices resolving moves.
func (n *Numbering) blockForID(p int) int {
	idx := p / 2
	if idx >= len(n.blockOf) {
		idx = len(n.blockOf) - 1
	}

	return n.blockOf[idx]
}

// IsBlockBegin reports whether id is the first instruction of its block.
func (n *Numbering) IsBlockBegin(id int) bool {
	if id == 0 {
		return true
	}

	return n.blockForID(id) != n.blockForID(id-2)
}

// IsBlockEnd reports whether id is the last instruction of its block.
func (n *Numbering) IsBlockEnd(id int) bool {
	if id+2 > n.maxID {
		return true
	}

	return n.blockForID(id+2) != n.blockForID(id)
}

// HasCall is a direct predicate on the instruction at id.
func (n *Numbering) HasCall(id int) bool {
	return n.InstrAt(id).HasCall
}
