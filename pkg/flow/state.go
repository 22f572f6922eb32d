// Package flow implements the branch-level symbolic executor: it
// walks a method's instructions abstractly, tracking no heap state of
// its own, to enumerate every conditional branch and flag the ones whose
// outcome is statically decidable.
package flow

import "github.com/dexlens/dexlens/pkg/vm"

// Kind is which of the three lattice points a register currently
// occupies.
type Kind int

const (
	// KindTop is "could be anything" — the starting point for a
	// register the analyser hasn't established anything about, and
	// what an unmodeled instruction or an operation on a non-concrete
	// operand leaves in its destination register.
	KindTop Kind = iota
	// KindConcrete carries an actual vm.Value, the same representation
	// the VM's own interpreter produces, so a decidable branch here
	// reuses vm.CondTaken instead of a parallel comparison rule.
	KindConcrete
	// KindSymbolic names a parameter slot whose value is unknown at
	// entry but consistent across the whole analysis (so two registers
	// both holding Symbolic(0) are known to hold the same value, even
	// though neither's content is known).
	KindSymbolic
)

// AbstractValue is one register's content in a State.
type AbstractValue struct {
	Kind     Kind
	Concrete vm.Value
	Slot     int
}

// Top returns the "anything" lattice point.
func Top() AbstractValue { return AbstractValue{Kind: KindTop} }

// Concrete wraps a known runtime value.
func Concrete(v vm.Value) AbstractValue { return AbstractValue{Kind: KindConcrete, Concrete: v} }

// Symbolic names an as-yet-unknown parameter slot.
func Symbolic(slot int) AbstractValue { return AbstractValue{Kind: KindSymbolic, Slot: slot} }

// State is the abstract register file carried along one worklist path.
type State struct {
	Registers []AbstractValue
}

// NewState allocates a State with every register starting at Top.
func NewState(numRegisters int) *State {
	regs := make([]AbstractValue, numRegisters)
	for i := range regs {
		regs[i] = Top()
	}
	return &State{Registers: regs}
}

// Get reads register reg, returning Top for an out-of-range index
// rather than panicking — malformed branch targets are reported by the
// analyser's own bounds checks, not by register access.
func (s *State) Get(reg int) AbstractValue {
	if reg < 0 || reg >= len(s.Registers) {
		return Top()
	}
	return s.Registers[reg]
}

// Set writes v to register reg, a no-op for an out-of-range index.
func (s *State) Set(reg int, v AbstractValue) {
	if reg < 0 || reg >= len(s.Registers) {
		return
	}
	s.Registers[reg] = v
}

// Clone makes an independent copy, taken at every branch fork so the
// taken and fallthrough paths never share a register file.
func (s *State) Clone() *State {
	regs := make([]AbstractValue, len(s.Registers))
	copy(regs, s.Registers)
	return &State{Registers: regs}
}

// Equal reports whether two states hold identical register contents,
// the revisit check behind the analyser's per-PC widening limit.
func (s *State) Equal(o *State) bool {
	if o == nil || len(s.Registers) != len(o.Registers) {
		return false
	}
	for i := range s.Registers {
		if s.Registers[i] != o.Registers[i] {
			return false
		}
	}
	return true
}
