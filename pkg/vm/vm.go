package vm

import (
	"go.uber.org/zap"

	"github.com/dexlens/dexlens/pkg/dex"
	"github.com/dexlens/dexlens/pkg/model"
)

// VM emulates Dalvik bytecode against the classes of one Context. A VM
// carries its own heap and static area, so emulating two methods with
// separate VM instances never shares state between them; reuse the
// same VM across calls when that sharing (e.g. a static field set by
// one call read by the next) is what's wanted.
type VM struct {
	ctx     *model.Context
	heap    *Heap
	statics *StaticArea
	logger  *zap.Logger

	natives NativeResolver

	depth    int
	maxDepth int
	maxSteps int
}

// NewVM builds a VM over ctx with a fresh heap and static area. A nil
// logger is replaced with a no-op one.
func NewVM(ctx *model.Context, logger *zap.Logger) *VM {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VM{
		ctx:      ctx,
		heap:     NewHeap(),
		statics:  NewStaticArea(logger),
		logger:   logger,
		maxDepth: 64,
		maxSteps: 200000,
	}
}

// Heap exposes the VM's object arena, for callers that want to inspect
// an emulation result's referenced objects.
func (vm *VM) Heap() *Heap { return vm.heap }

// SetNatives installs the resolver consulted whenever a call target
// resolves to a method with no code body of its own (an Android
// framework method never declared in the APK's own dex files). Without
// one installed, such calls simply yield Unknown, same as before
// pkg/vm/intrinsics existed.
func (vm *VM) SetNatives(r NativeResolver) { vm.natives = r }

// EmulateMethod runs method to completion (or to a budget/uncaught
// exception) with args bound as its instance/static arguments. For an
// instance method, args[0] is the receiver; callers emulating a static
// method pass only the declared parameters.
func (vm *VM) EmulateMethod(method *model.Method, args []Value) (Value, error) {
	if method == nil {
		return Value{}, badRegister("emulate: nil method")
	}
	var receiver *Value
	if method.AccessFlags&dex.AccStatic == 0 {
		if len(args) == 0 {
			unknown := UnknownValue()
			receiver = &unknown
		} else {
			r := args[0]
			receiver = &r
			args = args[1:]
		}
	}
	return vm.invoke(method, receiver, args)
}

// invoke runs method's code with receiver/args already split out,
// enforcing the call-depth budget and triggering the declaring class's
// <clinit> first. A method with no code (native or abstract) yields
// Unknown rather than failing the whole emulation.
func (vm *VM) invoke(method *model.Method, receiver *Value, args []Value) (Value, error) {
	vm.depth++
	defer func() { vm.depth-- }()
	if vm.depth > vm.maxDepth {
		return Value{}, budgetExceeded("call depth exceeded %d invoking %s", vm.maxDepth, method.Descriptor)
	}
	if method.Class != nil {
		if err := vm.statics.EnsureInitialized(vm, method.Class.Descriptor); err != nil {
			return Value{}, err
		}
	}
	if !method.HasCode {
		return UnknownValue(), nil
	}
	f, err := NewFrame(method)
	if err != nil {
		return Value{}, err
	}
	if err := f.BindArgs(receiver, args); err != nil {
		return Value{}, err
	}
	return vm.execute(f)
}

// execute drives one frame's fetch-decode-execute loop until it
// returns, budgets out, or an exception escapes uncaught.
func (vm *VM) execute(f *Frame) (Value, error) {
	steps := 0
	for {
		insn, ok := f.Current()
		if !ok {
			return Value{}, badRegister("method %s: fell off the end of the code without returning", f.Method.Descriptor)
		}
		steps++
		if steps > vm.maxSteps {
			return Value{}, budgetExceeded("method %s: exceeded %d executed instructions", f.Method.Descriptor, vm.maxSteps)
		}
		jumped, err := vm.step(f, insn)
		if err != nil {
			t, isThrown := err.(*thrown)
			if !isThrown {
				return Value{}, err
			}
			handlerIdx, caught := FindHandler(vm.ctx, f.Method.Class.DexFile, &f.Method.Code, insn.CodeIndex, t.class)
			if !caught {
				return Value{}, &uncaughtThrow{class: t.class}
			}
			f.PendingException = t
			if err := f.JumpTo(handlerIdx); err != nil {
				return Value{}, err
			}
			continue
		}
		if f.Returned {
			return f.ReturnValue, nil
		}
		if !jumped {
			f.Advance()
		}
	}
}

// EnsureClassInitialized runs classDescriptor's <clinit> (if it hasn't
// already run), for callers that want a class's static state seeded
// before reading a field directly via StaticField.
func (vm *VM) EnsureClassInitialized(classDescriptor string) error {
	return vm.statics.EnsureInitialized(vm, classDescriptor)
}

// StaticField returns the current value of a static field, identified
// by its full "Lclass;->name:type" descriptor, initializing the
// declaring class first. The bool result reports whether the class is
// known to the context at all; a known class with no explicit value
// yet still returns its default, not found.
func (vm *VM) StaticField(fieldDescriptor string) (Value, error, bool) {
	class := classPartOf(fieldDescriptor)
	if _, ok := vm.ctx.Classes[class]; !ok {
		return Value{}, nil, false
	}
	if err := vm.statics.EnsureInitialized(vm, class); err != nil {
		return Value{}, err, true
	}
	v, ok := vm.statics.Get(fieldDescriptor)
	if !ok {
		return UnknownValue(), nil, true
	}
	return v, nil, true
}
