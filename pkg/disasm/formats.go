package disasm

import "fmt"

// formatWidth is the instruction's length in 16-bit code units for
// each documented format.
var formatWidth = map[Format]int{
	Fmt10x: 1, Fmt12x: 1, Fmt11n: 1, Fmt11x: 1, Fmt10t: 1,
	Fmt20t: 2, Fmt20bc: 2, Fmt22x: 2, Fmt21t: 2, Fmt21s: 2, Fmt21h: 2,
	Fmt21c: 2, Fmt23x: 2, Fmt22b: 2, Fmt22t: 2, Fmt22s: 2, Fmt22c: 2,
	Fmt30t: 3, Fmt32x: 3, Fmt31i: 3, Fmt31t: 3, Fmt31c: 3, Fmt35c: 3, Fmt3rc: 3,
	Fmt45cc: 4, Fmt4rcc: 4,
	Fmt51l: 5,
}

func need(insns []uint16, pos, width int) error {
	if pos+width > len(insns) {
		return fmt.Errorf("disasm: instruction at code index %d (width %d) runs past end of insns (len %d)", pos, width, len(insns))
	}
	return nil
}

func reg(u uint16) Operand        { return Operand{IsRegister: true, Register: u} }
func lit(v int64) Operand         { return Operand{IsLiteral: true, Literal: v} }
func branch(v int32) Operand      { return Operand{IsBranchTarget: true, BranchTarget: v} }
func pool(kind OperandKind, idx uint32) Operand {
	return Operand{Kind: kind, PoolIndex: idx}
}

// decodeOperands decodes the operand list for one instruction given
// its format and static opcode info. pos is the code-unit index of the
// opcode word itself.
func decodeOperands(format Format, info opcodeInfo, insns []uint16, pos int) ([]Operand, int, error) {
	width := formatWidth[format]
	if err := need(insns, pos, width); err != nil {
		return nil, 0, err
	}
	word0 := insns[pos]
	byte1 := byte(word0 >> 8)

	switch format {
	case Fmt10x:
		return nil, width, nil
	case Fmt12x:
		a := byte1 & 0x0f
		b := byte1 >> 4
		return []Operand{reg(uint16(a)), reg(uint16(b))}, width, nil
	case Fmt11n:
		a := byte1 & 0x0f
		b := int8(byte1) >> 4
		return []Operand{reg(uint16(a)), lit(int64(b))}, width, nil
	case Fmt11x:
		return []Operand{reg(uint16(byte1))}, width, nil
	case Fmt10t:
		return []Operand{branch(int32(int8(byte1)))}, width, nil
	case Fmt20t:
		off := int16(insns[pos+1])
		return []Operand{branch(int32(off))}, width, nil
	case Fmt20bc:
		idx := insns[pos+1]
		return []Operand{reg(uint16(byte1)), pool(info.kind, uint32(idx))}, width, nil
	case Fmt22x:
		bb := insns[pos+1]
		return []Operand{reg(uint16(byte1)), reg(bb)}, width, nil
	case Fmt21t:
		off := int16(insns[pos+1])
		return []Operand{reg(uint16(byte1)), branch(int32(off))}, width, nil
	case Fmt21s:
		v := int16(insns[pos+1])
		return []Operand{reg(uint16(byte1)), lit(int64(v))}, width, nil
	case Fmt21h:
		v := insns[pos+1]
		var literal int64
		if info.mnemonic == "const-wide/high16" {
			literal = int64(v) << 48
		} else {
			literal = int64(int32(uint32(v) << 16))
		}
		return []Operand{reg(uint16(byte1)), lit(literal)}, width, nil
	case Fmt21c:
		idx := insns[pos+1]
		return []Operand{reg(uint16(byte1)), pool(info.kind, uint32(idx))}, width, nil
	case Fmt23x:
		bc := insns[pos+1]
		bb := byte(bc)
		cc := byte(bc >> 8)
		return []Operand{reg(uint16(byte1)), reg(uint16(bb)), reg(uint16(cc))}, width, nil
	case Fmt22b:
		bc := insns[pos+1]
		bb := byte(bc)
		cc := int8(bc >> 8)
		return []Operand{reg(uint16(byte1)), reg(uint16(bb)), lit(int64(cc))}, width, nil
	case Fmt22t:
		a := byte1 & 0x0f
		b := byte1 >> 4
		off := int16(insns[pos+1])
		return []Operand{reg(uint16(a)), reg(uint16(b)), branch(int32(off))}, width, nil
	case Fmt22s:
		a := byte1 & 0x0f
		b := byte1 >> 4
		v := int16(insns[pos+1])
		return []Operand{reg(uint16(a)), reg(uint16(b)), lit(int64(v))}, width, nil
	case Fmt22c:
		a := byte1 & 0x0f
		b := byte1 >> 4
		idx := insns[pos+1]
		return []Operand{reg(uint16(a)), reg(uint16(b)), pool(info.kind, uint32(idx))}, width, nil
	case Fmt30t:
		off := int32(insns[pos+1]) | int32(insns[pos+2])<<16
		return []Operand{branch(off)}, width, nil
	case Fmt32x:
		aaaa := insns[pos+1]
		bbbb := insns[pos+2]
		return []Operand{reg(aaaa), reg(bbbb)}, width, nil
	case Fmt31i:
		v := int32(insns[pos+1]) | int32(insns[pos+2])<<16
		return []Operand{reg(uint16(byte1)), lit(int64(v))}, width, nil
	case Fmt31t:
		off := int32(insns[pos+1]) | int32(insns[pos+2])<<16
		return []Operand{reg(uint16(byte1)), branch(off)}, width, nil
	case Fmt31c:
		idx := uint32(insns[pos+1]) | uint32(insns[pos+2])<<16
		return []Operand{reg(uint16(byte1)), pool(info.kind, idx)}, width, nil
	case Fmt35c:
		a := byte1 >> 4
		g := byte1 & 0x0f
		bbbb := insns[pos+1]
		fedc := insns[pos+2]
		c := fedc & 0x0f
		d := (fedc >> 4) & 0x0f
		e := (fedc >> 8) & 0x0f
		f := (fedc >> 12) & 0x0f
		all := []uint16{c, d, e, f, g}
		regs := all[:a]
		ops := make([]Operand, 0, len(regs)+1)
		for _, r := range regs {
			ops = append(ops, reg(r))
		}
		ops = append(ops, pool(info.kind, uint32(bbbb)))
		return ops, width, nil
	case Fmt3rc:
		aa := byte1
		bbbb := insns[pos+1]
		cccc := insns[pos+2]
		ops := make([]Operand, 0, int(aa)+1)
		for i := uint16(0); i < uint16(aa); i++ {
			ops = append(ops, reg(cccc+i))
		}
		ops = append(ops, pool(info.kind, uint32(bbbb)))
		return ops, width, nil
	case Fmt45cc:
		a := byte1 >> 4
		g := byte1 & 0x0f
		bbbb := insns[pos+1]
		fedc := insns[pos+2]
		c := fedc & 0x0f
		d := (fedc >> 4) & 0x0f
		e := (fedc >> 8) & 0x0f
		f := (fedc >> 12) & 0x0f
		hhhh := insns[pos+3]
		all := []uint16{c, d, e, f, g}
		regs := all[:a]
		ops := make([]Operand, 0, len(regs)+2)
		for _, r := range regs {
			ops = append(ops, reg(r))
		}
		ops = append(ops, pool(info.kind, uint32(bbbb)))
		ops = append(ops, pool(KindProto, uint32(hhhh)))
		return ops, width, nil
	case Fmt4rcc:
		aa := byte1
		bbbb := insns[pos+1]
		cccc := insns[pos+2]
		hhhh := insns[pos+3]
		ops := make([]Operand, 0, int(aa)+2)
		for i := uint16(0); i < uint16(aa); i++ {
			ops = append(ops, reg(cccc+i))
		}
		ops = append(ops, pool(info.kind, uint32(bbbb)))
		ops = append(ops, pool(KindProto, uint32(hhhh)))
		return ops, width, nil
	case Fmt51l:
		lo := uint64(insns[pos+1]) | uint64(insns[pos+2])<<16
		hi := uint64(insns[pos+3]) | uint64(insns[pos+4])<<16
		v := int64(lo | hi<<32)
		return []Operand{reg(uint16(byte1)), lit(v)}, width, nil
	default:
		return nil, 0, fmt.Errorf("disasm: unhandled format %q", format)
	}
}
