package disasm

import (
	"testing"

	"github.com/dexlens/dexlens/pkg/dex"
)

// These cases hand-encode one instruction per documented format family
// and check that decoding recovers exactly the values that were
// encoded, i.e. that encode and decode agree on the bit layout in both
// directions (the round-trip invariant), rather than merely that some
// value decodes without error.
func opWord(op, byte1 byte) uint16 {
	return uint16(op) | uint16(byte1)<<8
}

func TestDisassembleRoundTripFormats(t *testing.T) {
	cases := []struct {
		name     string
		insns    []uint16
		check    func(t *testing.T, in Instruction)
	}{
		{
			name:  "23x binop add-int",
			insns: []uint16{opWord(0x90, 1), uint16(2) | uint16(3)<<8}, // add-int v1, v2, v3
			check: func(t *testing.T, in Instruction) {
				if in.Mnemonic != "add-int" {
					t.Fatalf("mnemonic = %q", in.Mnemonic)
				}
				wantRegs := []uint16{1, 2, 3}
				for i, w := range wantRegs {
					if in.Operands[i].Register != w {
						t.Errorf("operand %d = %d, want %d", i, in.Operands[i].Register, w)
					}
				}
			},
		},
		{
			name:  "22c instance-of",
			insns: []uint16{opWord(0x20, 0x21), 7}, // instance-of v1, v2, type@7 (A=1,B=2)
			check: func(t *testing.T, in Instruction) {
				if in.Mnemonic != "instance-of" {
					t.Fatalf("mnemonic = %q", in.Mnemonic)
				}
				if in.Operands[0].Register != 1 || in.Operands[1].Register != 2 {
					t.Errorf("registers = %v, want [1 2]", in.Operands[:2])
				}
				if in.Operands[2].Kind != KindType || in.Operands[2].PoolIndex != 7 {
					t.Errorf("type operand = %+v, want type@7", in.Operands[2])
				}
			},
		},
		{
			name: "35c invoke-static with 3 args",
			// A=3 (arg count), G=0 (unused, A!=5); BBBB=method idx 42;
			// C=1, D=2, E=3, F=0.
			insns: []uint16{opWord(0x71, 0x30), 42, 0x0321},
			check: func(t *testing.T, in Instruction) {
				if in.Mnemonic != "invoke-static" {
					t.Fatalf("mnemonic = %q", in.Mnemonic)
				}
				if len(in.Operands) != 4 {
					t.Fatalf("got %d operands, want 3 registers + 1 method", len(in.Operands))
				}
				wantRegs := []uint16{1, 2, 3}
				for i, w := range wantRegs {
					if in.Operands[i].Register != w {
						t.Errorf("arg %d = %d, want %d", i, in.Operands[i].Register, w)
					}
				}
				if in.Operands[3].Kind != KindMethod || in.Operands[3].PoolIndex != 42 {
					t.Errorf("method operand = %+v, want method@42", in.Operands[3])
				}
			},
		},
		{
			name:  "3rc invoke-static/range over 4 registers starting at v10",
			insns: []uint16{opWord(0x77, 4), 99, 10}, // op=invoke-static/range, AA=4, BBBB=99, CCCC=10
			check: func(t *testing.T, in Instruction) {
				if in.Mnemonic != "invoke-static/range" {
					t.Fatalf("mnemonic = %q", in.Mnemonic)
				}
				if len(in.Operands) != 5 {
					t.Fatalf("got %d operands, want 4 registers + 1 method", len(in.Operands))
				}
				for i := 0; i < 4; i++ {
					if in.Operands[i].Register != uint16(10+i) {
						t.Errorf("register %d = %d, want %d", i, in.Operands[i].Register, 10+i)
					}
				}
			},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			code := &dex.CodeItem{Insns: c.insns}
			out, err := Disassemble(code, nil)
			if err != nil {
				t.Fatalf("Disassemble: %v", err)
			}
			if len(out) != 1 {
				t.Fatalf("got %d instructions, want 1", len(out))
			}
			c.check(t, out[0])
		})
	}
}
