// Package disasm decodes a dex.CodeItem's raw instruction words into a
// typed sequence of Dalvik instructions with resolved operand handles.
package disasm

// Format is one of the documented Dalvik instruction formats, named
// the way the on-disk spec names them (operand width + shape).
type Format string

const (
	Fmt10x Format = "10x" // op
	Fmt12x Format = "12x" // op vA, vB
	Fmt11n Format = "11n" // op vA, #+B
	Fmt11x Format = "11x" // op vAA
	Fmt10t Format = "10t" // op +AA
	Fmt20t Format = "20t" // op +AAAA
	Fmt20bc Format = "20bc" // op AA, kind@BBBB
	Fmt22x Format = "22x" // op vAA, vBBBB
	Fmt21t Format = "21t" // op vAA, +BBBB
	Fmt21s Format = "21s" // op vAA, #+BBBB
	Fmt21h Format = "21h" // op vAA, #+BBBB0000[00000000]
	Fmt21c Format = "21c" // op vAA, kind@BBBB
	Fmt23x Format = "23x" // op vAA, vBB, vCC
	Fmt22b Format = "22b" // op vAA, vBB, #+CC
	Fmt22t Format = "22t" // op vA, vB, +CCCC
	Fmt22s Format = "22s" // op vA, vB, #+CCCC
	Fmt22c Format = "22c" // op vA, vB, kind@CCCC
	Fmt30t Format = "30t" // op +AAAAAAAA
	Fmt32x Format = "32x" // op vAAAA, vBBBB
	Fmt31i Format = "31i" // op vAA, #+BBBBBBBB
	Fmt31t Format = "31t" // op vAA, +BBBBBBBB
	Fmt31c Format = "31c" // op vAA, string@BBBBBBBB
	Fmt35c Format = "35c" // op {vC,vD,vE,vF,vG}, kind@BBBB
	Fmt3rc Format = "3rc" // op {vCCCC .. vNNNN}, kind@BBBB
	Fmt45cc Format = "45cc" // op {vC..vG}, method@BBBB, proto@HHHH
	Fmt4rcc Format = "4rcc" // op {vCCCC..vNNNN}, method@BBBB, proto@HHHH
	Fmt51l Format = "51l" // op vAA, #+BBBBBBBBBBBBBBBB
)

// OperandKind tells a resolver what an instruction's pool-index
// operand refers to, so it can be rendered into Operand.Resolved.
type OperandKind int

const (
	KindNone OperandKind = iota
	KindString
	KindType
	KindField
	KindMethod
	KindProto
	KindMethodHandle
)

// opcodeInfo is the static (value, mnemonic, format, kind) tuple for
// one Dalvik opcode. Opcode bytes with no entry are unassigned and
// decode as disasm.Unknown.
type opcodeInfo struct {
	mnemonic string
	format   Format
	kind     OperandKind
}

var opcodeTable = buildOpcodeTable()

func buildOpcodeTable() map[byte]opcodeInfo {
	t := map[byte]opcodeInfo{
		0x00: {"nop", Fmt10x, KindNone},
		0x01: {"move", Fmt12x, KindNone},
		0x02: {"move/from16", Fmt22x, KindNone},
		0x03: {"move/16", Fmt32x, KindNone},
		0x04: {"move-wide", Fmt12x, KindNone},
		0x05: {"move-wide/from16", Fmt22x, KindNone},
		0x06: {"move-wide/16", Fmt32x, KindNone},
		0x07: {"move-object", Fmt12x, KindNone},
		0x08: {"move-object/from16", Fmt22x, KindNone},
		0x09: {"move-object/16", Fmt32x, KindNone},
		0x0a: {"move-result", Fmt11x, KindNone},
		0x0b: {"move-result-wide", Fmt11x, KindNone},
		0x0c: {"move-result-object", Fmt11x, KindNone},
		0x0d: {"move-exception", Fmt11x, KindNone},
		0x0e: {"return-void", Fmt10x, KindNone},
		0x0f: {"return", Fmt11x, KindNone},
		0x10: {"return-wide", Fmt11x, KindNone},
		0x11: {"return-object", Fmt11x, KindNone},
		0x12: {"const/4", Fmt11n, KindNone},
		0x13: {"const/16", Fmt21s, KindNone},
		0x14: {"const", Fmt31i, KindNone},
		0x15: {"const/high16", Fmt21h, KindNone},
		0x16: {"const-wide/16", Fmt21s, KindNone},
		0x17: {"const-wide/32", Fmt31i, KindNone},
		0x18: {"const-wide", Fmt51l, KindNone},
		0x19: {"const-wide/high16", Fmt21h, KindNone},
		0x1a: {"const-string", Fmt21c, KindString},
		0x1b: {"const-string/jumbo", Fmt31c, KindString},
		0x1c: {"const-class", Fmt21c, KindType},
		0x1d: {"monitor-enter", Fmt11x, KindNone},
		0x1e: {"monitor-exit", Fmt11x, KindNone},
		0x1f: {"check-cast", Fmt21c, KindType},
		0x20: {"instance-of", Fmt22c, KindType},
		0x21: {"array-length", Fmt12x, KindNone},
		0x22: {"new-instance", Fmt21c, KindType},
		0x23: {"new-array", Fmt22c, KindType},
		0x24: {"filled-new-array", Fmt35c, KindType},
		0x25: {"filled-new-array/range", Fmt3rc, KindType},
		0x26: {"fill-array-data", Fmt31t, KindNone},
		0x27: {"throw", Fmt11x, KindNone},
		0x28: {"goto", Fmt10t, KindNone},
		0x29: {"goto/16", Fmt20t, KindNone},
		0x2a: {"goto/32", Fmt30t, KindNone},
		0x2b: {"packed-switch", Fmt31t, KindNone},
		0x2c: {"sparse-switch", Fmt31t, KindNone},
		0x2d: {"cmpl-float", Fmt23x, KindNone},
		0x2e: {"cmpg-float", Fmt23x, KindNone},
		0x2f: {"cmpl-double", Fmt23x, KindNone},
		0x30: {"cmpg-double", Fmt23x, KindNone},
		0x31: {"cmp-long", Fmt23x, KindNone},
		0x32: {"if-eq", Fmt22t, KindNone},
		0x33: {"if-ne", Fmt22t, KindNone},
		0x34: {"if-lt", Fmt22t, KindNone},
		0x35: {"if-ge", Fmt22t, KindNone},
		0x36: {"if-gt", Fmt22t, KindNone},
		0x37: {"if-le", Fmt22t, KindNone},
		0x38: {"if-eqz", Fmt21t, KindNone},
		0x39: {"if-nez", Fmt21t, KindNone},
		0x3a: {"if-ltz", Fmt21t, KindNone},
		0x3b: {"if-gez", Fmt21t, KindNone},
		0x3c: {"if-gtz", Fmt21t, KindNone},
		0x3d: {"if-lez", Fmt21t, KindNone},
		0xfa: {"invoke-polymorphic", Fmt45cc, KindMethod},
		0xfb: {"invoke-polymorphic/range", Fmt4rcc, KindMethod},
		0xfc: {"invoke-custom", Fmt35c, KindMethod},
		0xfd: {"invoke-custom/range", Fmt3rc, KindMethod},
		0xfe: {"const-method-handle", Fmt21c, KindMethodHandle},
		0xff: {"const-method-type", Fmt21c, KindProto},
	}

	// aget/aput family: 14 contiguous opcodes sharing format 23x.
	arrayOps := []string{
		"aget", "aget-wide", "aget-object", "aget-boolean", "aget-byte", "aget-char", "aget-short",
		"aput", "aput-wide", "aput-object", "aput-boolean", "aput-byte", "aput-char", "aput-short",
	}
	for i, name := range arrayOps {
		t[0x44+byte(i)] = opcodeInfo{name, Fmt23x, KindNone}
	}

	// iget/iput family: 14 contiguous opcodes, field operand, format 22c.
	instanceFieldOps := []string{
		"iget", "iget-wide", "iget-object", "iget-boolean", "iget-byte", "iget-char", "iget-short",
		"iput", "iput-wide", "iput-object", "iput-boolean", "iput-byte", "iput-char", "iput-short",
	}
	for i, name := range instanceFieldOps {
		t[0x52+byte(i)] = opcodeInfo{name, Fmt22c, KindField}
	}

	// sget/sput family: 14 contiguous opcodes, field operand, format 21c.
	staticFieldOps := []string{
		"sget", "sget-wide", "sget-object", "sget-boolean", "sget-byte", "sget-char", "sget-short",
		"sput", "sput-wide", "sput-object", "sput-boolean", "sput-byte", "sput-char", "sput-short",
	}
	for i, name := range staticFieldOps {
		t[0x60+byte(i)] = opcodeInfo{name, Fmt21c, KindField}
	}

	// invoke-kind: virtual/super/direct/static/interface, format 35c.
	invokeOps := []string{"invoke-virtual", "invoke-super", "invoke-direct", "invoke-static", "invoke-interface"}
	for i, name := range invokeOps {
		t[0x6e+byte(i)] = opcodeInfo{name, Fmt35c, KindMethod}
	}
	for i, name := range invokeOps {
		t[0x74+byte(i)] = opcodeInfo{name + "/range", Fmt3rc, KindMethod}
	}

	// unop: neg/not/convert, format 12x, 0x7b-0x8f.
	unops := []string{
		"neg-int", "not-int", "neg-long", "not-long", "neg-float", "neg-double",
		"int-to-long", "int-to-float", "int-to-double",
		"long-to-int", "long-to-float", "long-to-double",
		"float-to-int", "float-to-long", "float-to-double",
		"double-to-int", "double-to-long", "double-to-float",
		"int-to-byte", "int-to-char", "int-to-short",
	}
	for i, name := range unops {
		t[0x7b+byte(i)] = opcodeInfo{name, Fmt12x, KindNone}
	}

	// binop: format 23x, 0x90-0xaf.
	binops := []string{
		"add-int", "sub-int", "mul-int", "div-int", "rem-int", "and-int", "or-int", "xor-int", "shl-int", "shr-int", "ushr-int",
		"add-long", "sub-long", "mul-long", "div-long", "rem-long", "and-long", "or-long", "xor-long", "shl-long", "shr-long", "ushr-long",
		"add-float", "sub-float", "mul-float", "div-float", "rem-float",
		"add-double", "sub-double", "mul-double", "div-double", "rem-double",
	}
	for i, name := range binops {
		t[0x90+byte(i)] = opcodeInfo{name, Fmt23x, KindNone}
	}
	for i, name := range binops {
		t[0xb0+byte(i)] = opcodeInfo{name + "/2addr", Fmt12x, KindNone}
	}

	// binop/lit16, format 22s, 0xd0-0xd7.
	lit16Ops := []string{"add-int/lit16", "rsub-int", "mul-int/lit16", "div-int/lit16", "rem-int/lit16", "and-int/lit16", "or-int/lit16", "xor-int/lit16"}
	for i, name := range lit16Ops {
		t[0xd0+byte(i)] = opcodeInfo{name, Fmt22s, KindNone}
	}

	// binop/lit8, format 22b, 0xd8-0xe2.
	lit8Ops := []string{
		"add-int/lit8", "rsub-int/lit8", "mul-int/lit8", "div-int/lit8", "rem-int/lit8",
		"and-int/lit8", "or-int/lit8", "xor-int/lit8", "shl-int/lit8", "shr-int/lit8", "ushr-int/lit8",
	}
	for i, name := range lit8Ops {
		t[0xd8+byte(i)] = opcodeInfo{name, Fmt22b, KindNone}
	}

	return t
}

// lookupOpcode returns the static info for an opcode byte, and whether
// it is an assigned opcode at all (false for reserved/unassigned
// bytes, which the disassembler reports as Unknown rather than
// failing the whole method).
func lookupOpcode(b byte) (opcodeInfo, bool) {
	info, ok := opcodeTable[b]
	return info, ok
}
