package disasm

import "github.com/dexlens/dexlens/pkg/dex"

// Resolver turns a pool index carried by an instruction operand into
// its human-readable form. Pool indices are always local to the dex
// file a code item came from, so *dex.DexFile already exposes exactly
// this method set and is the only Resolver implementation needed, even
// once several dex files are merged into one model.Context.
type Resolver interface {
	StringAt(idx uint32) string
	TypeAt(idx dex.TypeID) string
	FieldDescriptor(idx uint32) string
	MethodDescriptor(idx uint32) string
}

// Operand is one decoded operand slot: either a register, an
// immediate literal, a branch offset, or a pool reference (string,
// type, field, method, proto, method handle).
type Operand struct {
	IsRegister bool
	Register   uint16

	IsLiteral bool
	Literal   int64

	IsBranchTarget bool
	// BranchTarget is a code-unit (not byte) offset from the
	// instruction's own code index, matching the DEX convention.
	BranchTarget int32

	Kind      OperandKind
	PoolIndex uint32
	// Resolved holds the human-readable form of PoolIndex, filled in
	// only when Kind != KindNone and a Resolver was supplied.
	Resolved string
}

// Instruction is one decoded Dalvik instruction.
type Instruction struct {
	Opcode    byte
	Mnemonic  string
	Format    Format
	Operands  []Operand
	// CodeIndex is the instruction's offset in 16-bit code units from
	// the start of the code item, used as the code index for branch
	// targets, try-range membership, and cross-reference cite sites.
	CodeIndex int
	// Width is the instruction's length in 16-bit code units.
	Width int
	// Unknown is true when the opcode byte is unassigned; Operands is
	// empty and Mnemonic is "unknown" in that case.
	Unknown bool
	RawByte byte
	// Payload holds a *PackedSwitchPayload, *SparseSwitchPayload, or
	// *FillArrayDataPayload when this instruction is a payload
	// pseudo-instruction rather than an executable one.
	Payload any
}
