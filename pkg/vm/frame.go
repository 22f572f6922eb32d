package vm

import (
	"github.com/dexlens/dexlens/pkg/dex"
	"github.com/dexlens/dexlens/pkg/disasm"
	"github.com/dexlens/dexlens/pkg/model"
)

// Frame is one call's register file: Dalvik has no operand stack, so
// unlike the teacher's stack-machine Frame, every value lives in a
// register addressed by index.
type Frame struct {
	Method       *model.Method
	Instructions []disasm.Instruction
	Registers    []Value

	// pos indexes Instructions for the instruction about to execute.
	pos int
	// byCodeIndex maps a code-unit offset to its slice index in
	// Instructions, resolving branch/switch targets.
	byCodeIndex map[int]int

	// ReturnValue holds the frame's result once it returns normally.
	ReturnValue Value
	Returned    bool

	// lastResult holds the value an invoke-* or filled-new-array left
	// for the next move-result* instruction to pick up.
	lastResult    Value
	hasLastResult bool

	// PendingException holds the exception a handler was just entered
	// for, consumed by the next move-exception instruction.
	PendingException *thrown
}

// SetLastResult records v as the pending move-result* value.
func (f *Frame) SetLastResult(v Value) {
	f.lastResult = v
	f.hasLastResult = true
}

// TakeLastResult returns and clears the pending move-result* value.
func (f *Frame) TakeLastResult() (Value, bool) {
	v, ok := f.lastResult, f.hasLastResult
	f.lastResult = Value{}
	f.hasLastResult = false
	return v, ok
}

// NewFrame disassembles method's code (caching via EnsureDisassembled)
// and allocates its register file.
func NewFrame(method *model.Method) (*Frame, error) {
	insns, err := method.EnsureDisassembled()
	if err != nil {
		return nil, err
	}
	byIndex := make(map[int]int, len(insns))
	for i, insn := range insns {
		byIndex[insn.CodeIndex] = i
	}
	return &Frame{
		Method:       method,
		Instructions: insns,
		Registers:    make([]Value, method.Code.RegistersSize),
		byCodeIndex:  byIndex,
	}, nil
}

// BindArgs places the receiver (for an instance method) and arguments
// into the frame's "ins" registers, the highest RegistersSize-InsSize
// through RegistersSize-1 slots, per Dalvik's calling convention. A
// wide argument consumes two consecutive slots.
func (f *Frame) BindArgs(receiver *Value, args []Value) error {
	code := f.Method.Code
	base := int(code.RegistersSize) - int(code.InsSize)
	if base < 0 {
		return badRegister("method %s: ins_size %d exceeds registers_size %d",
			f.Method.Descriptor, code.InsSize, code.RegistersSize)
	}
	i := base
	put := func(v Value) error {
		if i >= len(f.Registers) {
			return badRegister("method %s: argument overflows ins registers", f.Method.Descriptor)
		}
		if err := f.SetRegister(i, v); err != nil {
			return err
		}
		if v.Wide() {
			i += 2
		} else {
			i++
		}
		return nil
	}
	if receiver != nil {
		if err := put(*receiver); err != nil {
			return err
		}
	}
	for _, a := range args {
		if err := put(a); err != nil {
			return err
		}
	}
	return nil
}

// GetRegister reads register idx, rejecting a read of the reserved
// second half of a wide value.
func (f *Frame) GetRegister(idx int) (Value, error) {
	if idx < 0 || idx >= len(f.Registers) {
		return Value{}, badRegister("method %s: register v%d out of range (size %d)",
			f.Method.Descriptor, idx, len(f.Registers))
	}
	v := f.Registers[idx]
	if v.Kind == wideTail {
		return Value{}, badRegister("method %s: register v%d is the tail of a wide value", f.Method.Descriptor, idx)
	}
	return v, nil
}

// SetRegister writes v to register idx, occupying idx+1 with a
// wideTail marker when v is a long or double.
func (f *Frame) SetRegister(idx int, v Value) error {
	if idx < 0 || idx >= len(f.Registers) {
		return badRegister("method %s: register v%d out of range (size %d)",
			f.Method.Descriptor, idx, len(f.Registers))
	}
	f.Registers[idx] = v
	if v.Wide() {
		if idx+1 >= len(f.Registers) {
			return badRegister("method %s: wide value at v%d has no tail register", f.Method.Descriptor, idx)
		}
		f.Registers[idx+1] = Value{Kind: wideTail}
	}
	return nil
}

// Current returns the instruction at pos, or false at end of code.
func (f *Frame) Current() (disasm.Instruction, bool) {
	if f.pos >= len(f.Instructions) {
		return disasm.Instruction{}, false
	}
	return f.Instructions[f.pos], true
}

// Advance moves to the next sequential instruction.
func (f *Frame) Advance() {
	f.pos++
}

// JumpTo moves execution to the instruction at the given code-unit
// offset, as named by a branch or switch-payload target.
func (f *Frame) JumpTo(codeIndex int) error {
	i, ok := f.byCodeIndex[codeIndex]
	if !ok {
		return badRegister("method %s: branch target %d is not an instruction boundary",
			f.Method.Descriptor, codeIndex)
	}
	f.pos = i
	return nil
}

// FindHandler returns the code index of the first try range covering
// pc whose handler matches excClass (by descriptor, honoring
// inheritance via ctx), or ok=false if none does. df is the dex file
// that declared code, since a try's handler type indices are local to
// it even when ctx spans several dex files.
func FindHandler(ctx *model.Context, df *dex.DexFile, code *dex.CodeItem, pc int, excClass string) (int, bool) {
	byOffset := make(map[uint32]*dex.EncodedCatchHandler, len(code.Handlers))
	for i := range code.Handlers {
		byOffset[code.Handlers[i].Offset] = &code.Handlers[i]
	}
	for _, t := range code.Tries {
		start := int(t.StartAddr)
		end := start + int(t.InsnCount)
		if pc < start || pc >= end {
			continue
		}
		h, ok := byOffset[uint32(t.HandlerOff)]
		if !ok {
			continue
		}
		for _, pair := range h.Handlers {
			typeDescriptor := ""
			if pair.TypeIdx >= 0 {
				typeDescriptor = df.TypeAt(dex.TypeID(pair.TypeIdx))
			}
			if typeDescriptor == excClass || ctx.IsSubclassOf(excClass, typeDescriptor) {
				return int(pair.Addr), true
			}
		}
		if h.HasCatchAll {
			return int(h.CatchAll), true
		}
	}
	return 0, false
}
