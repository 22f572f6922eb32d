package flow

import (
	"strings"
	"sync/atomic"

	"github.com/dexlens/dexlens/pkg/disasm"
	"github.com/dexlens/dexlens/pkg/model"
	"github.com/dexlens/dexlens/pkg/vm"
)

const (
	defaultStepBudget   = 100_000
	defaultWideningStep = 8
)

// Options configures one Analyse call. A zero Options uses the default
// step budget and widening limit.
type Options struct {
	// Conservative, when true, never lets an Unknown operand count
	// toward a dead-branch verdict even indirectly; both branches
	// always survive. Dead-branch claims require full concreteness on
	// both operands either way, so this flag only documents intent for
	// a future widening policy split, not a behavior change today.
	Conservative bool

	// StepBudget bounds the total number of instructions interpreted
	// across every path of one Analyse call. Zero uses the default.
	StepBudget int

	// WideningLimit bounds how many times one code index may be
	// revisited with a distinct abstract state. A path that arrives
	// once the limit is reached is dropped and the Result is marked
	// Incomplete; its registers are not widened to Top and the walk
	// does not continue from that state. Zero uses the default.
	WideningLimit int

	// Cancel, if non-nil, is polled at each worklist pop so a caller
	// can abort a long-running analysis cooperatively.
	Cancel *atomic.Bool
}

func (o Options) stepBudget() int {
	if o.StepBudget <= 0 {
		return defaultStepBudget
	}
	return o.StepBudget
}

func (o Options) wideningLimit() int {
	if o.WideningLimit <= 0 {
		return defaultWideningStep
	}
	return o.WideningLimit
}

// Result is the outcome of analysing one method.
type Result struct {
	Branches []Branching
	// Incomplete is true when the step budget, the widening limit, or a
	// cancellation ended the walk (or dropped a path) before every
	// reachable path was explored; Branches
	// still holds everything found up to that point.
	Incomplete bool
}

type workItem struct {
	pc    int
	state *State
}

// Analyse symbolically walks method from its entry instruction,
// forking at every conditional, and reports every branch encountered
// along with which side (if either) is statically dead.
func Analyse(method *model.Method, opts Options) (*Result, error) {
	insns, err := method.EnsureDisassembled()
	if err != nil {
		return nil, err
	}
	byCodeIndex := make(map[int]int, len(insns))
	for i, insn := range insns {
		byCodeIndex[insn.CodeIndex] = i
	}

	result := &Result{}
	if len(insns) == 0 {
		return result, nil
	}

	initial := seedParams(method)
	worklist := []workItem{{pc: 0, state: initial}}
	seenStates := make(map[int][]*State)
	steps := 0
	// scratchHeap only ever backs a concrete binop evaluation that
	// allocates (division by a concrete zero constructs an
	// ArithmeticException the normal way); nothing here is inspected
	// afterward, since the analyser tracks no heap state of its own.
	scratchHeap := vm.NewHeap()

	for len(worklist) > 0 {
		if opts.Cancel != nil && opts.Cancel.Load() {
			result.Incomplete = true
			break
		}
		if steps >= opts.stepBudget() {
			result.Incomplete = true
			break
		}

		item := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		steps++

		idx, ok := byCodeIndex[item.pc]
		if !ok || idx >= len(insns) {
			continue
		}

		seen := seenStates[item.pc]
		revisits := 0
		alreadyIdentical := false
		for _, s := range seen {
			if s.Equal(item.state) {
				alreadyIdentical = true
				break
			}
			revisits++
		}
		if alreadyIdentical {
			continue
		}
		if revisits >= opts.wideningLimit() {
			result.Incomplete = true
			continue
		}
		seenStates[item.pc] = append(seen, item.state)

		insn := insns[idx]
		successors, branch := stepInstruction(method, insn, item.state, insns, byCodeIndex, scratchHeap)
		if branch != nil {
			result.Branches = append(result.Branches, *branch)
		}
		for _, succ := range successors {
			worklist = append(worklist, succ)
		}
	}

	return result, nil
}

// seedParams builds the entry state: every register starts Top except
// the declared parameters (and receiver, for an instance method),
// which start Symbolic at their ins-register slot, mirroring
// Frame.BindArgs' placement convention.
func seedParams(method *model.Method) *State {
	code := method.Code
	state := NewState(int(code.RegistersSize))
	base := int(code.RegistersSize) - int(code.InsSize)
	if base < 0 {
		return state
	}

	i := base
	slot := 0
	isStatic := method.AccessFlags&0x8 != 0 // dex.AccStatic
	if !isStatic {
		state.Set(i, Symbolic(slot))
		slot++
		i++
	}
	for _, paramDescriptor := range method.Proto.ParamTypes {
		if i >= int(code.RegistersSize) {
			break
		}
		state.Set(i, Symbolic(slot))
		slot++
		kind := vm.KindForDescriptor(paramDescriptor)
		if kind == vm.Long || kind == vm.Double {
			i += 2
		} else {
			i++
		}
	}
	return state
}

// stepInstruction interprets one instruction abstractly, returning the
// worklist items for every successor path and, for a two-way
// conditional, the Branching it produced.
func stepInstruction(method *model.Method, insn disasm.Instruction, state *State, insns []disasm.Instruction, byCodeIndex map[int]int, heap *vm.Heap) ([]workItem, *Branching) {
	m := insn.Mnemonic
	next := insn.CodeIndex + insn.Width

	switch {
	case m == "nop", strings.HasPrefix(m, "monitor-"), m == "move-exception",
		m == "move-result", m == "move-result-wide", m == "move-result-object",
		m == "const-class", m == "const-method-handle", m == "const-method-type":
		return fallthroughOnly(next, state, destRegOf(insn))

	case m == "move" || m == "move/from16" || m == "move/16" ||
		m == "move-wide" || m == "move-wide/from16" || m == "move-wide/16" ||
		m == "move-object" || m == "move-object/from16" || m == "move-object/16":
		return stepMove(insn, state, next)

	case strings.HasPrefix(m, "const"):
		return stepConst(insn, state, next)

	case m == "check-cast" || m == "instance-of" || m == "array-length" ||
		m == "new-instance" || m == "new-array" || strings.HasPrefix(m, "filled-new-array") ||
		strings.HasPrefix(m, "cmpl") || strings.HasPrefix(m, "cmpg") || m == "cmp-long" ||
		strings.HasPrefix(m, "aget") || strings.HasPrefix(m, "aput") ||
		strings.HasPrefix(m, "iget") || strings.HasPrefix(m, "iput") ||
		strings.HasPrefix(m, "sget") || strings.HasPrefix(m, "sput"):
		return stepDefaultFallthrough(method, insn, state, next)

	case m == "return-void", strings.HasPrefix(m, "return"), m == "throw":
		return nil, nil

	case m == "goto" || m == "goto/16" || m == "goto/32":
		target := insn.CodeIndex + int(insn.Operands[0].BranchTarget)
		return []workItem{{pc: target, state: state.Clone()}}, nil

	case m == "packed-switch" || m == "sparse-switch":
		return stepSwitch(insn, state, insns, byCodeIndex, next)

	case strings.HasPrefix(m, "if-"):
		return stepIf(method, insn, state, next)

	case strings.HasSuffix(m, "/2addr") || strings.HasSuffix(m, "/lit16") || strings.HasSuffix(m, "/lit8") || vm.IsBinopName(m):
		return stepBinop(insn, state, next, heap)

	case vm.IsUnopName(m):
		return stepUnop(insn, state, next)

	default:
		return stepDefaultFallthrough(method, insn, state, next)
	}
}

// destRegOf returns the first register operand, the instruction's
// usual destination, or -1 if it has none.
func destRegOf(insn disasm.Instruction) int {
	for _, op := range insn.Operands {
		if op.IsRegister {
			return int(op.Register)
		}
	}
	return -1
}

// stepMove copies the source register's abstract value verbatim,
// preserving concreteness (and symbolic identity) across a plain
// register shuffle instead of discarding it the way the conservative
// fallback would.
func stepMove(insn disasm.Instruction, state *State, next int) ([]workItem, *Branching) {
	ops := insn.Operands
	clone := state.Clone()
	clone.Set(int(ops[0].Register), state.Get(int(ops[1].Register)))
	return []workItem{{pc: next, state: clone}}, nil
}

// stepConst evaluates a const* instruction's literal directly: these
// are the analyser's ground truth for concrete values, the seed every
// dead-branch verdict traces back to.
func stepConst(insn disasm.Instruction, state *State, next int) ([]workItem, *Branching) {
	ops := insn.Operands
	m := insn.Mnemonic
	destReg := int(ops[0].Register)
	clone := state.Clone()

	switch {
	case strings.HasPrefix(m, "const-string"):
		clone.Set(destReg, Concrete(vm.StringValue(ops[1].Resolved)))
	case strings.HasPrefix(m, "const-wide"):
		clone.Set(destReg, Concrete(vm.LongValue(ops[1].Literal)))
	default:
		clone.Set(destReg, Concrete(vm.IntValue(int32(ops[1].Literal))))
	}
	return []workItem{{pc: next, state: clone}}, nil
}

func fallthroughOnly(next int, state *State, destReg int) ([]workItem, *Branching) {
	clone := state.Clone()
	if destReg >= 0 {
		clone.Set(destReg, Top())
	}
	return []workItem{{pc: next, state: clone}}, nil
}

// stepDefaultFallthrough conservatively tops the destination register
// (if any) and falls through; it never attempts to replicate object,
// array, or field semantics, only enough to keep a plausible register
// file across instructions this analyser does not model precisely.
func stepDefaultFallthrough(method *model.Method, insn disasm.Instruction, state *State, next int) ([]workItem, *Branching) {
	_ = method
	return fallthroughOnly(next, state, destRegOf(insn))
}

// stepSwitch enumerates the fallthrough plus every case target named
// by the switch's payload pseudo-instruction, the same lookup
// execSwitch does against the concrete VM. spec's Branch tuple models
// two-way conditionals only, so a multi-way switch never produces a
// Branching entry, dead or otherwise.
func stepSwitch(insn disasm.Instruction, state *State, insns []disasm.Instruction, byCodeIndex map[int]int, next int) ([]workItem, *Branching) {
	successors := []workItem{{pc: next, state: state.Clone()}}

	payloadIdx, ok := byCodeIndex[insn.CodeIndex+int(insn.Operands[1].BranchTarget)]
	if !ok || payloadIdx >= len(insns) {
		return successors, nil
	}

	switch p := insns[payloadIdx].Payload.(type) {
	case *disasm.PackedSwitchPayload:
		for _, t := range p.Targets {
			successors = append(successors, workItem{pc: insn.CodeIndex + int(t), state: state.Clone()})
		}
	case *disasm.SparseSwitchPayload:
		for _, t := range p.Targets {
			successors = append(successors, workItem{pc: insn.CodeIndex + int(t), state: state.Clone()})
		}
	}
	return successors, nil
}

func stepIf(method *model.Method, insn disasm.Instruction, state *State, next int) ([]workItem, *Branching) {
	ops := insn.Operands
	m := insn.Mnemonic
	isZ := strings.HasSuffix(m, "z")

	var a, b AbstractValue
	var target int
	var op string
	if isZ {
		a = state.Get(int(ops[0].Register))
		b = Concrete(vm.IntValue(0))
		target = insn.CodeIndex + int(ops[1].BranchTarget)
		op = strings.TrimSuffix(strings.TrimPrefix(m, "if-"), "z")
	} else {
		a = state.Get(int(ops[0].Register))
		b = state.Get(int(ops[1].Register))
		target = insn.CodeIndex + int(ops[2].BranchTarget)
		op = strings.TrimPrefix(m, "if-")
	}

	taken := workItem{pc: target, state: state.Clone()}
	fall := workItem{pc: next, state: state.Clone()}

	branch := &Branching{
		PC:            insn.CodeIndex,
		TakenPC:       target,
		FallthroughPC: next,
		DeadSide:      DeadSideNone,
		Method:        method,
	}

	if a.Kind == KindConcrete && b.Kind == KindConcrete {
		var isTaken bool
		if isZ && (op == "eq" || op == "ne") {
			isTaken = vm.IsZeroish(a.Concrete) == (op == "eq")
		} else {
			isTaken = vm.CondTaken(op, a.Concrete, b.Concrete)
		}
		if isTaken {
			branch.DeadSide = DeadSideFallthrough
			return []workItem{taken}, branch
		}
		branch.DeadSide = DeadSideTaken
		return []workItem{fall}, branch
	}

	return []workItem{taken, fall}, branch
}

func stepBinop(insn disasm.Instruction, state *State, next int, heap *vm.Heap) ([]workItem, *Branching) {
	ops := insn.Operands
	m := insn.Mnemonic

	var destReg int
	var a, b AbstractValue
	var op string
	var kind vm.ValueKind

	switch {
	case strings.HasSuffix(m, "/2addr"):
		base := strings.TrimSuffix(m, "/2addr")
		op, kind = vm.ArithKind(base)
		destReg = int(ops[0].Register)
		a = state.Get(int(ops[0].Register))
		b = state.Get(int(ops[1].Register))

	case strings.HasSuffix(m, "/lit16"), strings.HasSuffix(m, "/lit8"):
		base := strings.TrimSuffix(strings.TrimSuffix(m, "/lit16"), "/lit8")
		op, _ = vm.ArithKind(base)
		kind = vm.Int
		destReg = int(ops[0].Register)
		x := state.Get(int(ops[1].Register))
		lit := Concrete(vm.IntValue(int32(ops[2].Literal)))
		if op == "rsub" {
			a, b = lit, x
			op = "sub"
		} else {
			a, b = x, lit
		}

	default:
		op, kind = vm.ArithKind(m)
		destReg = int(ops[0].Register)
		a = state.Get(int(ops[1].Register))
		b = state.Get(int(ops[2].Register))
	}

	clone := state.Clone()
	if a.Kind == KindConcrete && b.Kind == KindConcrete {
		result, err := vm.EvalBinaryOp(heap, op, kind, a.Concrete, b.Concrete)
		if err == nil {
			clone.Set(destReg, Concrete(result))
			return []workItem{{pc: next, state: clone}}, nil
		}
	}
	clone.Set(destReg, Top())
	return []workItem{{pc: next, state: clone}}, nil
}

func stepUnop(insn disasm.Instruction, state *State, next int) ([]workItem, *Branching) {
	ops := insn.Operands
	destReg := int(ops[0].Register)
	src := state.Get(int(ops[1].Register))

	clone := state.Clone()
	if src.Kind == KindConcrete {
		result := vm.EvalUnaryOp(insn.Mnemonic, src.Concrete)
		clone.Set(destReg, Concrete(result))
	} else {
		clone.Set(destReg, Top())
	}
	return []workItem{{pc: next, state: clone}}, nil
}
