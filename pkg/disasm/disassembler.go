package disasm

import (
	"fmt"

	"github.com/dexlens/dexlens/pkg/dex"
)

// Disassemble decodes a code item's raw instruction words into an
// ordered instruction list. Unknown opcode bytes decode to an Unknown
// instruction of width 1 rather than aborting, matching the reader's
// own leniency about unrecognized bytes; payload pseudo-instructions
// (packed-switch, sparse-switch, fill-array-data) are recognized
// inline by their NOP-prefixed ident word and parsed as data, not
// opcodes, since they are only ever reached via a branch offset and
// never executed as a regular instruction.
func Disassemble(code *dex.CodeItem, resolver Resolver) ([]Instruction, error) {
	insns := code.Insns
	var out []Instruction
	pos := 0
	for pos < len(insns) {
		word0 := insns[pos]
		opcodeByte := byte(word0)

		if opcodeByte == 0 && word0 != 0 {
			ident := word0
			inst, width, err := decodePayload(ident, insns, pos)
			if err != nil {
				return nil, fmt.Errorf("disasm: code index %d: %w", pos, err)
			}
			inst.CodeIndex = pos
			inst.Width = width
			out = append(out, inst)
			pos += width
			continue
		}

		info, ok := lookupOpcode(opcodeByte)
		if !ok {
			out = append(out, Instruction{
				Opcode:    opcodeByte,
				Mnemonic:  "unknown",
				Unknown:   true,
				RawByte:   opcodeByte,
				CodeIndex: pos,
				Width:     1,
			})
			pos++
			continue
		}

		operands, width, err := decodeOperands(info.format, info, insns, pos)
		if err != nil {
			return nil, fmt.Errorf("disasm: code index %d (%s): %w", pos, info.mnemonic, err)
		}
		resolveOperands(operands, resolver)

		out = append(out, Instruction{
			Opcode:    opcodeByte,
			Mnemonic:  info.mnemonic,
			Format:    info.format,
			Operands:  operands,
			CodeIndex: pos,
			Width:     width,
		})
		pos += width
	}
	return out, nil
}

func decodePayload(ident uint16, insns []uint16, pos int) (Instruction, int, error) {
	switch ident {
	case identPackedSwitch:
		p, err := parsePackedSwitchPayload(insns, pos)
		if err != nil {
			return Instruction{}, 0, err
		}
		return Instruction{Mnemonic: payloadName(ident), Payload: &p}, p.Width, nil
	case identSparseSwitch:
		p, err := parseSparseSwitchPayload(insns, pos)
		if err != nil {
			return Instruction{}, 0, err
		}
		return Instruction{Mnemonic: payloadName(ident), Payload: &p}, p.Width, nil
	case identFillArrayData:
		p, err := parseFillArrayDataPayload(insns, pos)
		if err != nil {
			return Instruction{}, 0, err
		}
		return Instruction{Mnemonic: payloadName(ident), Payload: &p}, p.Width, nil
	default:
		// A NOP-prefixed word that isn't one of the three known idents:
		// treat as a plain nop rather than failing the whole method.
		return Instruction{Mnemonic: "nop", Format: Fmt10x}, 1, nil
	}
}

func resolveOperands(ops []Operand, resolver Resolver) {
	if resolver == nil {
		return
	}
	for i := range ops {
		switch ops[i].Kind {
		case KindString:
			ops[i].Resolved = resolver.StringAt(ops[i].PoolIndex)
		case KindType:
			ops[i].Resolved = resolver.TypeAt(dex.TypeID(ops[i].PoolIndex))
		case KindField:
			ops[i].Resolved = resolver.FieldDescriptor(ops[i].PoolIndex)
		case KindMethod, KindMethodHandle:
			ops[i].Resolved = resolver.MethodDescriptor(ops[i].PoolIndex)
		}
	}
}
