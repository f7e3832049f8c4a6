package regalloc

import "fmt"

// LocationKind is the final resting place of a TraceInterval.
type LocationKind int

const (
	LocUnassigned LocationKind = iota
	LocRegister
	LocStackSlot
	// LocIllegal marks a rematerialized interval: there is no storage, a
	// use rewrites to a literal instead.
	LocIllegal
)

// Location is where a split child's value lives.
type Location struct {
	Kind LocationKind
	Reg  int
	Slot int
}

func RegisterLocation(reg int) Location { return Location{Kind: LocRegister, Reg: reg} }
func StackLocation(slot int) Location   { return Location{Kind: LocStackSlot, Slot: slot} }

var IllegalLocation = Location{Kind: LocIllegal}

func (l Location) String() string {
	switch l.Kind {
	case LocRegister:
		return fmt.Sprintf("r%d", l.Reg)
	case LocStackSlot:
		return fmt.Sprintf("slot%d", l.Slot)
	case LocIllegal:
		return "illegal"
	default:
		return "unassigned"
	}
}
