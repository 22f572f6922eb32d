package vm

import (
	"encoding/binary"
	"math"
	"strconv"
	"strings"

	"github.com/dexlens/dexlens/pkg/disasm"
	"github.com/dexlens/dexlens/pkg/model"
)

// step executes one instruction against f, returning jumped=true when
// it already moved f's position itself (a branch or a switch) so
// execute does not also Advance past it.
func (vm *VM) step(f *Frame, insn disasm.Instruction) (bool, error) {
	if insn.Payload != nil {
		// Only ever reached by falling through rather than branching to
		// it; it carries no executable semantics of its own.
		return false, nil
	}
	ops := insn.Operands
	m := insn.Mnemonic

	switch m {
	case "nop", "unknown", "monitor-enter", "monitor-exit":
		return false, nil

	case "move", "move/from16", "move/16",
		"move-wide", "move-wide/from16", "move-wide/16",
		"move-object", "move-object/from16", "move-object/16":
		v, err := f.GetRegister(int(ops[1].Register))
		if err != nil {
			return false, err
		}
		return false, f.SetRegister(int(ops[0].Register), v)

	case "move-result", "move-result-wide", "move-result-object":
		v, ok := f.TakeLastResult()
		if !ok {
			v = UnknownValue()
		}
		return false, f.SetRegister(int(ops[0].Register), v)

	case "move-exception":
		v := UnknownValue()
		if f.PendingException != nil {
			v = ReferenceValue(f.PendingException.obj)
			f.PendingException = nil
		}
		return false, f.SetRegister(int(ops[0].Register), v)

	case "return-void":
		f.Returned = true
		f.ReturnValue = Value{}
		return false, nil

	case "return", "return-wide", "return-object":
		v, err := f.GetRegister(int(ops[0].Register))
		if err != nil {
			return false, err
		}
		f.Returned = true
		f.ReturnValue = v
		return false, nil

	case "const/4", "const/16", "const", "const/high16":
		return false, f.SetRegister(int(ops[0].Register), IntValue(int32(ops[1].Literal)))

	case "const-wide/16", "const-wide/32", "const-wide", "const-wide/high16":
		return false, f.SetRegister(int(ops[0].Register), LongValue(ops[1].Literal))

	case "const-string", "const-string/jumbo":
		return false, f.SetRegister(int(ops[0].Register), StringValue(ops[1].Resolved))

	case "const-class":
		// No dedicated Class value kind; the descriptor is carried as a
		// String, a deliberate simplification of the flat Value taxonomy.
		return false, f.SetRegister(int(ops[0].Register), StringValue(ops[1].Resolved))

	case "const-method-handle", "const-method-type":
		return false, f.SetRegister(int(ops[0].Register), UnknownValue())

	case "check-cast":
		return false, vm.execCheckCast(f, ops)

	case "instance-of":
		return false, vm.execInstanceOf(f, ops)

	case "array-length":
		return false, vm.execArrayLength(f, ops)

	case "new-instance":
		return false, vm.execNewInstance(f, ops)

	case "new-array":
		return false, vm.execNewArray(f, ops)

	case "filled-new-array", "filled-new-array/range":
		return false, vm.execFilledNewArray(f, ops)

	case "fill-array-data":
		return false, vm.execFillArrayData(f, insn)

	case "throw":
		v, err := f.GetRegister(int(ops[0].Register))
		if err != nil {
			return false, err
		}
		return false, vm.throwValue(v)

	case "goto", "goto/16", "goto/32":
		target := insn.CodeIndex + int(ops[0].BranchTarget)
		return true, f.JumpTo(target)

	case "packed-switch", "sparse-switch":
		return vm.execSwitch(f, insn)

	case "cmpl-float", "cmpg-float", "cmpl-double", "cmp-long", "cmpg-double":
		return false, vm.execCompare(f, m, ops)

	case "aget", "aget-wide", "aget-object", "aget-boolean", "aget-byte", "aget-char", "aget-short":
		return false, vm.execAget(f, ops)

	case "aput", "aput-wide", "aput-object", "aput-boolean", "aput-byte", "aput-char", "aput-short":
		return false, vm.execAput(f, ops)

	case "iget", "iget-wide", "iget-object", "iget-boolean", "iget-byte", "iget-char", "iget-short":
		return false, vm.execIget(f, ops)

	case "iput", "iput-wide", "iput-object", "iput-boolean", "iput-byte", "iput-char", "iput-short":
		return false, vm.execIput(f, ops)

	case "sget", "sget-wide", "sget-object", "sget-boolean", "sget-byte", "sget-char", "sget-short":
		return false, vm.execSget(f, ops)

	case "sput", "sput-wide", "sput-object", "sput-boolean", "sput-byte", "sput-char", "sput-short":
		return false, vm.execSput(f, ops)

	case "invoke-virtual", "invoke-super", "invoke-direct", "invoke-static", "invoke-interface",
		"invoke-virtual/range", "invoke-super/range", "invoke-direct/range", "invoke-static/range", "invoke-interface/range":
		return false, vm.execInvoke(f, m, ops)

	case "invoke-polymorphic", "invoke-polymorphic/range", "invoke-custom", "invoke-custom/range":
		// Method handle invocation is not modeled; the call produces no
		// side effect and its result is Unknown.
		f.SetLastResult(UnknownValue())
		return false, nil
	}

	if strings.HasPrefix(m, "if-") {
		return vm.execIf(f, insn)
	}
	if strings.HasSuffix(m, "/2addr") || strings.HasSuffix(m, "/lit16") || strings.HasSuffix(m, "/lit8") || isBinopName(m) {
		return false, vm.execBinop(f, m, ops)
	}
	if isUnopName(m) {
		v, err := f.GetRegister(int(ops[1].Register))
		if err != nil {
			return false, err
		}
		return false, f.SetRegister(int(ops[0].Register), unaryOp(m, v))
	}

	// Unrecognized but structurally decoded instruction: ignore rather
	// than abort the whole method.
	return false, nil
}

func isUnopName(m string) bool {
	switch m {
	case "neg-int", "not-int", "neg-long", "not-long", "neg-float", "neg-double",
		"int-to-long", "int-to-float", "int-to-double",
		"long-to-int", "long-to-float", "long-to-double",
		"float-to-int", "float-to-long", "float-to-double",
		"double-to-int", "double-to-long", "double-to-float",
		"int-to-byte", "int-to-char", "int-to-short":
		return true
	}
	return false
}

func isBinopName(m string) bool {
	base := m
	if idx := strings.IndexByte(base, '/'); idx >= 0 {
		base = base[:idx]
	}
	idx := strings.IndexByte(base, '-')
	if idx < 0 {
		return false
	}
	switch base[idx+1:] {
	case "int", "long", "float", "double":
		return true
	}
	return false
}

// arithKind splits a binop mnemonic (with an optional /2addr, /lit16,
// /lit8 suffix already stripped by the caller) into its operation name
// and operand kind, e.g. "add-int" -> ("add", Int).
func arithKind(base string) (string, ValueKind) {
	idx := strings.IndexByte(base, '-')
	if idx < 0 {
		return base, Unknown
	}
	op := base[:idx]
	switch base[idx+1:] {
	case "int":
		return op, Int
	case "long":
		return op, Long
	case "float":
		return op, Float
	case "double":
		return op, Double
	default:
		return op, Unknown
	}
}

func (vm *VM) execBinop(f *Frame, m string, ops []disasm.Operand) error {
	switch {
	case strings.HasSuffix(m, "/2addr"):
		base := strings.TrimSuffix(m, "/2addr")
		op, kind := arithKind(base)
		a, err := f.GetRegister(int(ops[0].Register))
		if err != nil {
			return err
		}
		b, err := f.GetRegister(int(ops[1].Register))
		if err != nil {
			return err
		}
		result, err := binaryOp(vm.heap, op, kind, a, b)
		if err != nil {
			return err
		}
		return f.SetRegister(int(ops[0].Register), result)

	case strings.HasSuffix(m, "/lit16"), strings.HasSuffix(m, "/lit8"):
		base := strings.TrimSuffix(strings.TrimSuffix(m, "/lit16"), "/lit8")
		op, _ := arithKind(base)
		x, err := f.GetRegister(int(ops[1].Register))
		if err != nil {
			return err
		}
		lit := IntValue(int32(ops[2].Literal))
		var result Value
		if op == "rsub" {
			result, err = binaryOp(vm.heap, "sub", Int, lit, x)
		} else {
			result, err = binaryOp(vm.heap, op, Int, x, lit)
		}
		if err != nil {
			return err
		}
		return f.SetRegister(int(ops[0].Register), result)

	default:
		op, kind := arithKind(m)
		a, err := f.GetRegister(int(ops[1].Register))
		if err != nil {
			return err
		}
		b, err := f.GetRegister(int(ops[2].Register))
		if err != nil {
			return err
		}
		result, err := binaryOp(vm.heap, op, kind, a, b)
		if err != nil {
			return err
		}
		return f.SetRegister(int(ops[0].Register), result)
	}
}

func (vm *VM) execCompare(f *Frame, m string, ops []disasm.Operand) error {
	a, err := f.GetRegister(int(ops[1].Register))
	if err != nil {
		return err
	}
	b, err := f.GetRegister(int(ops[2].Register))
	if err != nil {
		return err
	}
	var kind ValueKind
	nanBiasLow := true
	switch m {
	case "cmpl-float", "cmpg-float":
		kind = Float
		nanBiasLow = m == "cmpl-float"
	case "cmpl-double", "cmpg-double":
		kind = Double
		nanBiasLow = m == "cmpl-double"
	case "cmp-long":
		kind = Long
	}
	return f.SetRegister(int(ops[0].Register), compareValues(kind, a, b, nanBiasLow))
}

// condTaken decides whether an if-* branch is taken, treating an
// Unknown operand as "do not take" rather than guessing: the concrete
// emulator follows one path, unlike the branch analyser which explores
// both.
func condTaken(op string, a, b Value) bool {
	if a.Kind == Unknown || b.Kind == Unknown {
		return false
	}
	if a.Kind == Reference || b.Kind == Reference || a.Kind == String || a.Kind == Array {
		eq := refEqual(a, b)
		switch op {
		case "eq":
			return eq
		case "ne":
			return !eq
		default:
			return false
		}
	}
	x, y := a.I64, b.I64
	switch op {
	case "eq":
		return x == y
	case "ne":
		return x != y
	case "lt":
		return x < y
	case "ge":
		return x >= y
	case "gt":
		return x > y
	case "le":
		return x <= y
	}
	return false
}

func refEqual(a, b Value) bool {
	aNull := a.Kind == Reference && a.Null
	bNull := b.Kind == Reference && b.Null
	if aNull || bNull {
		return aNull == bNull && a.Kind == b.Kind
	}
	if a.Kind != b.Kind {
		return false
	}
	return a.Ref == b.Ref
}

func isZeroish(v Value) bool {
	switch v.Kind {
	case Bool, Byte, Char, Short, Int, Long:
		return v.I64 == 0
	case Reference, String, Array:
		return v.Kind == Reference && v.Null
	default:
		return false
	}
}

func (vm *VM) execIf(f *Frame, insn disasm.Instruction) (bool, error) {
	ops := insn.Operands
	m := insn.Mnemonic
	if strings.HasSuffix(m, "z") {
		a, err := f.GetRegister(int(ops[0].Register))
		if err != nil {
			return false, err
		}
		op := strings.TrimSuffix(strings.TrimPrefix(m, "if-"), "z")
		var taken bool
		if a.Kind == Unknown {
			taken = false
		} else if op == "eq" || op == "ne" {
			zero := isZeroish(a)
			taken = zero == (op == "eq")
		} else {
			taken = condTaken(op, a, IntValue(0))
		}
		if !taken {
			return false, nil
		}
		return true, f.JumpTo(insn.CodeIndex + int(ops[1].BranchTarget))
	}
	a, err := f.GetRegister(int(ops[0].Register))
	if err != nil {
		return false, err
	}
	b, err := f.GetRegister(int(ops[1].Register))
	if err != nil {
		return false, err
	}
	op := strings.TrimPrefix(m, "if-")
	if !condTaken(op, a, b) {
		return false, nil
	}
	return true, f.JumpTo(insn.CodeIndex + int(ops[2].BranchTarget))
}

func (vm *VM) execSwitch(f *Frame, insn disasm.Instruction) (bool, error) {
	key, err := f.GetRegister(int(insn.Operands[0].Register))
	if err != nil {
		return false, err
	}
	if key.Kind == Unknown {
		return false, nil
	}
	payloadIdx := insn.CodeIndex + int(insn.Operands[1].BranchTarget)
	i, ok := f.byCodeIndex[payloadIdx]
	if !ok || i >= len(f.Instructions) {
		return false, nil
	}
	payloadInsn := f.Instructions[i]
	k := key.Int32()
	switch p := payloadInsn.Payload.(type) {
	case *disasm.PackedSwitchPayload:
		if k < p.FirstKey || int(k-p.FirstKey) >= len(p.Targets) {
			return false, nil
		}
		target := insn.CodeIndex + int(p.Targets[k-p.FirstKey])
		return true, f.JumpTo(target)
	case *disasm.SparseSwitchPayload:
		for idx, candidate := range p.Keys {
			if candidate == k {
				target := insn.CodeIndex + int(p.Targets[idx])
				return true, f.JumpTo(target)
			}
		}
		return false, nil
	default:
		return false, nil
	}
}

func (vm *VM) execFillArrayData(f *Frame, insn disasm.Instruction) error {
	arr, err := f.GetRegister(int(insn.Operands[0].Register))
	if err != nil {
		return err
	}
	target := insn.CodeIndex + int(insn.Operands[1].BranchTarget)
	i, ok := f.byCodeIndex[target]
	if !ok || i >= len(f.Instructions) {
		return nil
	}
	payload, ok := f.Instructions[i].Payload.(*disasm.FillArrayDataPayload)
	if !ok {
		return nil
	}
	if arr.Kind != Array {
		return nil
	}
	obj, ok := vm.heap.Get(arr.Ref)
	if !ok || !obj.IsArray {
		return nil
	}
	width := payload.ElementWidth
	for i := 0; i*width+width <= len(payload.Data) && i < len(obj.Elements); i++ {
		obj.Elements[i] = decodeFillArrayElement(obj.ElemKind, payload.Data[i*width:i*width+width])
	}
	return nil
}

func decodeFillArrayElement(kind ValueKind, b []byte) Value {
	switch kind {
	case Byte:
		return ByteValue(int8(b[0]))
	case Bool:
		return BoolValue(b[0] != 0)
	case Char:
		return CharValue(binary.LittleEndian.Uint16(b))
	case Short:
		return ShortValue(int16(binary.LittleEndian.Uint16(b)))
	case Int:
		return IntValue(int32(binary.LittleEndian.Uint32(b)))
	case Float:
		return FloatValue(math.Float32frombits(binary.LittleEndian.Uint32(b)))
	case Long:
		return LongValue(int64(binary.LittleEndian.Uint64(b)))
	case Double:
		return DoubleValue(math.Float64frombits(binary.LittleEndian.Uint64(b)))
	default:
		return UnknownValue()
	}
}

func (vm *VM) throwValue(v Value) error {
	if v.Kind == Reference && !v.Null {
		if obj, ok := vm.heap.Get(v.Ref); ok {
			return &thrown{class: obj.Class, obj: v.Ref}
		}
	}
	return &thrown{class: "Ljava/lang/Throwable;", obj: vm.heap.NewInstance("Ljava/lang/Throwable;")}
}

func (vm *VM) execCheckCast(f *Frame, ops []disasm.Operand) error {
	v, err := f.GetRegister(int(ops[0].Register))
	if err != nil {
		return err
	}
	if v.Kind != Reference || v.Null {
		return nil
	}
	obj, ok := vm.heap.Get(v.Ref)
	if !ok {
		return nil
	}
	typeDescriptor := ops[1].Resolved
	if obj.Class == typeDescriptor || vm.ctx.IsSubclassOf(obj.Class, typeDescriptor) {
		return nil
	}
	// Interface implementation isn't checked here (Implementers is not
	// transitive through intermediate interfaces); a cast against an
	// interface type is conservatively allowed rather than misreported.
	if _, isClass := vm.ctx.Classes[typeDescriptor]; !isClass {
		return nil
	}
	return newException(vm.heap, "Ljava/lang/ClassCastException;", obj.Class+" cannot be cast to "+typeDescriptor)
}

func (vm *VM) execInstanceOf(f *Frame, ops []disasm.Operand) error {
	v, err := f.GetRegister(int(ops[1].Register))
	if err != nil {
		return err
	}
	typeDescriptor := ops[2].Resolved
	var result Value
	switch {
	case v.Kind == Unknown:
		result = UnknownValue()
	case v.Kind == Reference && v.Null:
		result = BoolValue(false)
	case v.Kind == Reference:
		obj, ok := vm.heap.Get(v.Ref)
		result = BoolValue(ok && (obj.Class == typeDescriptor || vm.ctx.IsSubclassOf(obj.Class, typeDescriptor)))
	default:
		result = BoolValue(false)
	}
	return f.SetRegister(int(ops[0].Register), result)
}

func (vm *VM) execArrayLength(f *Frame, ops []disasm.Operand) error {
	v, err := f.GetRegister(int(ops[1].Register))
	if err != nil {
		return err
	}
	if v.Kind != Array {
		return f.SetRegister(int(ops[0].Register), UnknownValue())
	}
	obj, ok := vm.heap.Get(v.Ref)
	if !ok {
		return f.SetRegister(int(ops[0].Register), UnknownValue())
	}
	return f.SetRegister(int(ops[0].Register), IntValue(int32(len(obj.Elements))))
}

func (vm *VM) execNewInstance(f *Frame, ops []disasm.Operand) error {
	typeDescriptor := ops[1].Resolved
	if err := vm.statics.EnsureInitialized(vm, typeDescriptor); err != nil {
		return err
	}
	id := vm.heap.NewInstance(typeDescriptor)
	return f.SetRegister(int(ops[0].Register), ReferenceValue(id))
}

func (vm *VM) execNewArray(f *Frame, ops []disasm.Operand) error {
	size, err := f.GetRegister(int(ops[1].Register))
	if err != nil {
		return err
	}
	if size.Kind == Unknown {
		return f.SetRegister(int(ops[0].Register), UnknownValue())
	}
	descriptor := ops[2].Resolved
	elemKind := elementKindOf(descriptor)
	length := int(size.Int32())
	if length < 0 {
		length = 0
	}
	id := vm.heap.NewArray(elemKind, length)
	return f.SetRegister(int(ops[0].Register), ArrayValue(id))
}

func elementKindOf(arrayDescriptor string) ValueKind {
	if len(arrayDescriptor) < 2 || arrayDescriptor[0] != '[' {
		return Unknown
	}
	return kindForDescriptor(arrayDescriptor[1:])
}

func (vm *VM) execFilledNewArray(f *Frame, ops []disasm.Operand) error {
	descriptor := ops[len(ops)-1].Resolved
	elemKind := elementKindOf(descriptor)
	regs := ops[:len(ops)-1]
	id := vm.heap.NewArray(elemKind, len(regs))
	obj, _ := vm.heap.Get(id)
	for i, r := range regs {
		v, err := f.GetRegister(int(r.Register))
		if err != nil {
			return err
		}
		obj.Elements[i] = v
	}
	f.SetLastResult(ArrayValue(id))
	return nil
}

func (vm *VM) execAget(f *Frame, ops []disasm.Operand) error {
	arr, err := f.GetRegister(int(ops[1].Register))
	if err != nil {
		return err
	}
	idx, err := f.GetRegister(int(ops[2].Register))
	if err != nil {
		return err
	}
	if arr.Kind != Array || idx.Kind == Unknown {
		return f.SetRegister(int(ops[0].Register), UnknownValue())
	}
	obj, ok := vm.heap.Get(arr.Ref)
	if !ok {
		return f.SetRegister(int(ops[0].Register), UnknownValue())
	}
	i := int(idx.Int32())
	if i < 0 || i >= len(obj.Elements) {
		return newException(vm.heap, "Ljava/lang/ArrayIndexOutOfBoundsException;",
			"length="+strconv.Itoa(len(obj.Elements))+"; index="+strconv.Itoa(i))
	}
	return f.SetRegister(int(ops[0].Register), obj.Elements[i])
}

func (vm *VM) execAput(f *Frame, ops []disasm.Operand) error {
	src, err := f.GetRegister(int(ops[0].Register))
	if err != nil {
		return err
	}
	arr, err := f.GetRegister(int(ops[1].Register))
	if err != nil {
		return err
	}
	idx, err := f.GetRegister(int(ops[2].Register))
	if err != nil {
		return err
	}
	if arr.Kind != Array || idx.Kind == Unknown {
		return nil
	}
	obj, ok := vm.heap.Get(arr.Ref)
	if !ok {
		return nil
	}
	i := int(idx.Int32())
	if i < 0 || i >= len(obj.Elements) {
		return newException(vm.heap, "Ljava/lang/ArrayIndexOutOfBoundsException;",
			"length="+strconv.Itoa(len(obj.Elements))+"; index="+strconv.Itoa(i))
	}
	obj.Elements[i] = src
	return nil
}

func (vm *VM) execIget(f *Frame, ops []disasm.Operand) error {
	obj, err := f.GetRegister(int(ops[1].Register))
	if err != nil {
		return err
	}
	descriptor := ops[2].Resolved
	if obj.Kind != Reference || obj.Null {
		return f.SetRegister(int(ops[0].Register), UnknownValue())
	}
	o, ok := vm.heap.Get(obj.Ref)
	if !ok {
		return f.SetRegister(int(ops[0].Register), UnknownValue())
	}
	name := fieldNameOf(descriptor)
	v, ok := o.Fields[name]
	if !ok {
		fieldType := fieldTypeOf(descriptor)
		if field := lookupField(vm.ctx, descriptor); field != nil {
			fieldType = field.Type
		}
		v = defaultValue(kindForDescriptor(fieldType))
	}
	return f.SetRegister(int(ops[0].Register), v)
}

func (vm *VM) execIput(f *Frame, ops []disasm.Operand) error {
	src, err := f.GetRegister(int(ops[0].Register))
	if err != nil {
		return err
	}
	obj, err := f.GetRegister(int(ops[1].Register))
	if err != nil {
		return err
	}
	if obj.Kind != Reference || obj.Null {
		return nil
	}
	o, ok := vm.heap.Get(obj.Ref)
	if !ok {
		return nil
	}
	o.Fields[fieldNameOf(ops[2].Resolved)] = src
	return nil
}

func (vm *VM) execSget(f *Frame, ops []disasm.Operand) error {
	descriptor := ops[1].Resolved
	if err := vm.statics.EnsureInitialized(vm, classPartOf(descriptor)); err != nil {
		return err
	}
	v, ok := vm.statics.Get(descriptor)
	if !ok {
		v = UnknownValue()
	}
	return f.SetRegister(int(ops[0].Register), v)
}

func (vm *VM) execSput(f *Frame, ops []disasm.Operand) error {
	src, err := f.GetRegister(int(ops[0].Register))
	if err != nil {
		return err
	}
	descriptor := ops[1].Resolved
	if err := vm.statics.EnsureInitialized(vm, classPartOf(descriptor)); err != nil {
		return err
	}
	vm.statics.Set(descriptor, src)
	return nil
}

func (vm *VM) execInvoke(f *Frame, m string, ops []disasm.Operand) error {
	base := strings.TrimSuffix(m, "/range")
	isStatic := base == "invoke-static"
	poolOperand := ops[len(ops)-1]
	regOps := ops[:len(ops)-1]
	calleeDescriptor := poolOperand.Resolved
	classDescriptor := classPartOf(calleeDescriptor)
	name := methodNameOf(calleeDescriptor)
	proto := protoSuffix(calleeDescriptor)

	var receiver *Value
	if !isStatic && len(regOps) > 0 {
		rv, err := f.GetRegister(int(regOps[0].Register))
		if err != nil {
			return err
		}
		receiver = &rv
	}
	receiverClassDescriptor := ""
	if receiver != nil && receiver.Kind == Reference && !receiver.Null {
		if obj, ok := vm.heap.Get(receiver.Ref); ok {
			receiverClassDescriptor = obj.Class
		}
	}

	var target *model.Method
	var ok bool
	switch base {
	case "invoke-direct", "invoke-static":
		target, ok = resolveDirect(vm.ctx, classDescriptor, name, proto)
	case "invoke-virtual":
		target, ok = resolveVirtual(vm.ctx, receiverClassDescriptor, classDescriptor, name, proto)
	case "invoke-interface":
		target, ok = resolveInterface(vm.ctx, receiverClassDescriptor, classDescriptor, name, proto)
	case "invoke-super":
		target, ok = resolveSuper(vm.ctx, f.Method.Class.Descriptor, name, proto)
	}
	if !ok {
		target = nil
	}

	var paramTypes []string
	if target != nil {
		paramTypes = target.Proto.ParamTypes
	} else {
		paramTypes = splitParamTypes(proto)
	}

	regs := regOps
	if !isStatic && len(regs) > 0 {
		regs = regs[1:]
	}
	args, err := collectArgs(f, regs, paramTypes)
	if err != nil {
		return err
	}

	if target == nil || !target.HasCode {
		if vm.natives != nil {
			if nm, ok := vm.natives.Resolve(classDescriptor, name, proto); ok {
				result, err := nm(vm.heap, receiver, args)
				if err != nil {
					return err
				}
				f.SetLastResult(result)
				return nil
			}
		}
		f.SetLastResult(UnknownValue())
		return nil
	}
	result, err := vm.invoke(target, receiver, args)
	if err != nil {
		return err
	}
	f.SetLastResult(result)
	return nil
}

func collectArgs(f *Frame, regs []disasm.Operand, paramTypes []string) ([]Value, error) {
	var args []Value
	i := 0
	for _, pt := range paramTypes {
		if i >= len(regs) {
			break
		}
		v, err := f.GetRegister(int(regs[i].Register))
		if err != nil {
			return nil, err
		}
		args = append(args, v)
		kind := kindForDescriptor(pt)
		if kind == Long || kind == Double {
			i += 2
		} else {
			i++
		}
	}
	return args, nil
}

func classPartOf(descriptor string) string {
	if idx := strings.Index(descriptor, "->"); idx >= 0 {
		return descriptor[:idx]
	}
	return ""
}

func methodNameOf(descriptor string) string {
	idx := strings.Index(descriptor, "->")
	if idx < 0 {
		return ""
	}
	rest := descriptor[idx+2:]
	if p := strings.IndexByte(rest, '('); p >= 0 {
		return rest[:p]
	}
	return rest
}

func fieldNameOf(descriptor string) string {
	idx := strings.Index(descriptor, "->")
	if idx < 0 {
		return ""
	}
	rest := descriptor[idx+2:]
	if p := strings.IndexByte(rest, ':'); p >= 0 {
		return rest[:p]
	}
	return rest
}

func fieldTypeOf(descriptor string) string {
	idx := strings.IndexByte(descriptor, ':')
	if idx < 0 {
		return ""
	}
	return descriptor[idx+1:]
}

func lookupField(ctx *model.Context, descriptor string) *model.Field {
	class, ok := ctx.Classes[classPartOf(descriptor)]
	if !ok {
		return nil
	}
	for _, f := range class.StaticFields {
		if f.Descriptor == descriptor {
			return f
		}
	}
	for _, f := range class.InstanceFields {
		if f.Descriptor == descriptor {
			return f
		}
	}
	return nil
}

// splitParamTypes parses a "(args)ret" proto suffix's parameter list
// into individual field descriptors, used when the call target could
// not be resolved to a *model.Method (an external API not present in
// this context) and its argument widths must still be read correctly.
func splitParamTypes(proto string) []string {
	if len(proto) < 2 || proto[0] != '(' {
		return nil
	}
	end := strings.IndexByte(proto, ')')
	if end < 0 {
		return nil
	}
	body := proto[1:end]
	var out []string
	for i := 0; i < len(body); {
		start := i
		for body[i] == '[' {
			i++
		}
		if i >= len(body) {
			break
		}
		if body[i] == 'L' {
			for body[i] != ';' {
				i++
			}
			i++
		} else {
			i++
		}
		out = append(out, body[start:i])
	}
	return out
}
