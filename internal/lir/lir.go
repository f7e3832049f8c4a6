// Package lir defines a low-level intermediate representation close to the
// target ISA: instructions grouped into blocks, blocks ordered into a single
// linear trace. It is the allocator's input contract.
package lir

import (
	"fmt"
	"strings"
)

// Kind classifies the value a variable operand carries, which in turn
// determines which physical register class can hold it.
type Kind int

const (
	KindInt Kind = iota
	KindFloat
	KindRef
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindRef:
		return "ref"
	default:
		return "kind?"
	}
}

type operandForm uint8

const (
	formVariable operandForm = iota
	formRegister
)

// Operand is either a virtual variable (dense-indexed by varIndex) or a
// physical register value.
type Operand struct {
	form     operandForm
	varIndex int
	reg      int
}

// Var constructs a variable operand.
func Var(varIndex int) Operand { return Operand{form: formVariable, varIndex: varIndex} }

// Reg constructs a physical register operand.
func Reg(reg int) Operand { return Operand{form: formRegister, reg: reg} }

func (o Operand) IsVariable() bool { return o.form == formVariable }
func (o Operand) IsRegister() bool { return o.form == formRegister }

// VarIndex panics if the operand is not a variable; callers must check
// IsVariable first.
func (o Operand) VarIndex() int {
	if o.form != formVariable {
		panic("lir: VarIndex called on a register operand")
	}

	return o.varIndex
}

func (o Operand) Register() int {
	if o.form != formRegister {
		panic("lir: Register called on a variable operand")
	}

	return o.reg
}

func (o Operand) String() string {
	if o.IsRegister() {
		return fmt.Sprintf("r%d", o.reg)
	}

	return fmt.Sprintf("v%d", o.varIndex)
}

// UseKind classifies how strongly an instruction needs a register at a use
// position. UseMustHaveRegister is the zero value since it is the
// overwhelmingly common case.
type UseKind int

const (
	UseMustHaveRegister UseKind = iota
	UseShouldHaveRegister
	UseNoUse
)

// ValueOperand pairs an operand occurrence with its value kind and the use
// strength an instruction requires of it.
type ValueOperand struct {
	Operand Operand
	Kind    Kind
	Use     UseKind
}

// V is a convenience constructor for the common must-have-register case.
func V(op Operand, kind Kind) ValueOperand {
	return ValueOperand{Operand: op, Kind: kind, Use: UseMustHaveRegister}
}

// Mode identifies which operand-visitor list an occurrence came from; the
// location assigner and the interval store's splitChildAt use it to pick the
// correct split child on either side of a definition.
type Mode int

const (
	ModeInput Mode = iota
	ModeAlive
	ModeTemp
	ModeOutput
)

func (m Mode) String() string {
	switch m {
	case ModeInput:
		return "input"
	case ModeAlive:
		return "alive"
	case ModeTemp:
		return "temp"
	case ModeOutput:
		return "output"
	default:
		return "mode?"
	}
}

// Op is an opcode mnemonic, kept as a plain string rather than an enum so
// test fixtures and the demo CLI can name instructions freely.
type Op string

// Instr is a single LIR instruction. One struct with explicit operand-role
// lists is reused across every opcode, rather than one Go type per opcode;
// new opcodes are just new Op values plus the right operand lists.
type Instr struct {
	ID int // assigned by Number; zero until then

	Op Op

	Outputs []ValueOperand
	Inputs  []ValueOperand
	Temps   []ValueOperand
	Alives  []ValueOperand

	// HasCall reports that this instruction destroys all caller-saved
	// registers (a call site).
	HasCall bool

	// HasState reports that this instruction carries a debug/safepoint
	// state map. StateRefs lists the operands the state map itself
	// references directly (exempt from the "no stale roots" invariant).
	HasState  bool
	StateRefs []Operand

	// IsMove marks a plain location-to-location move; the spill-move
	// eliminator and move resolver special-case these.
	IsMove  bool
	MoveSrc Operand
	MoveDst Operand

	// IsConst marks a constant-materializing definition: Outputs[0] is
	// defined with no inputs and ConstValue can be reloaded without memory
	// traffic.
	IsConst    bool
	ConstValue int64

	Comment string

	// Assigned holds the final location the register allocator rewrote
	// each variable occurrence to; a real emitter reads this downstream.
	// Populated in place by the location assigner, never by anything
	// upstream of it.
	Assigned map[Operand]ResolvedLocation
}

// LocKind is the final resting place of an operand after register
// allocation: a physical register, a stack slot, or (for a rematerialized
// constant) an immediate substituted for the original operand.
type LocKind int

const (
	LocRegister LocKind = iota
	LocStack
	LocImmediate
)

// ResolvedLocation is the register allocator's answer for one operand
// occurrence.
type ResolvedLocation struct {
	Kind LocKind
	Reg  int
	Slot int
	Imm  int64
}

// SetAssigned records where op ended up; called by the location assigner.
func (in *Instr) SetAssigned(op Operand, loc ResolvedLocation) {
	if in.Assigned == nil {
		in.Assigned = make(map[Operand]ResolvedLocation)
	}

	in.Assigned[op] = loc
}

// LocationOf reports where op was finally assigned, if the allocator has
// run.
func (in *Instr) LocationOf(op Operand) (ResolvedLocation, bool) {
	loc, ok := in.Assigned[op]
	return loc, ok
}

func (in *Instr) VisitOutputs(f func(Operand, Kind, UseKind)) {
	for _, v := range in.Outputs {
		f(v.Operand, v.Kind, v.Use)
	}
}

func (in *Instr) VisitInputs(f func(Operand, Kind, UseKind)) {
	for _, v := range in.Inputs {
		f(v.Operand, v.Kind, v.Use)
	}
}

func (in *Instr) VisitTemps(f func(Operand, Kind, UseKind)) {
	for _, v := range in.Temps {
		f(v.Operand, v.Kind, v.Use)
	}
}

func (in *Instr) VisitAlives(f func(Operand, Kind, UseKind)) {
	for _, v := range in.Alives {
		f(v.Operand, v.Kind, v.Use)
	}
}

// DestroysCallerSavedRegisters mirrors the external-interface contract name.
func (in *Instr) DestroysCallerSavedRegisters() bool { return in.HasCall }

func (in *Instr) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%d: ", in.ID)

	if len(in.Outputs) > 0 {
		parts := make([]string, len(in.Outputs))
		for i, o := range in.Outputs {
			parts[i] = o.Operand.String()
		}

		fmt.Fprintf(&b, "%s := ", strings.Join(parts, ", "))
	}

	b.WriteString(string(in.Op))

	for _, o := range in.Inputs {
		fmt.Fprintf(&b, " %s", o.Operand.String())
	}

	if in.Comment != "" {
		fmt.Fprintf(&b, " ; %s", in.Comment)
	}

	return b.String()
}

// Block is one basic block within a trace.
type Block struct {
	Name  string
	Insns []*Instr
}

func (b *Block) String() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s:\n", b.Name)

	for _, in := range b.Insns {
		fmt.Fprintf(&sb, "  %s\n", in.String())
	}

	return sb.String()
}

// Trace is a linearly ordered sequence of blocks, the unit of allocation.
// Successor relationships leaving the trace are the concern of an external
// cross-trace resolver, not of anything in this package.
type Trace struct {
	Blocks []*Block
}

func (t *Trace) NumBlocks() int { return len(t.Blocks) }

func (t *Trace) String() string {
	var sb strings.Builder
	for _, b := range t.Blocks {
		sb.WriteString(b.String())
	}

	return sb.String()
}
