package vm

// CondTaken, IsZeroish, EvalBinaryOp, and EvalUnaryOp expose the
// instruction loop's own concrete-value semantics to pkg/flow, so the
// symbolic analyser's branch-decidability check reuses the exact same
// comparison/arithmetic rules the VM itself runs on instead of a
// second, driftable copy of them.

func CondTaken(op string, a, b Value) bool { return condTaken(op, a, b) }

func IsZeroish(v Value) bool { return isZeroish(v) }

func EvalBinaryOp(heap *Heap, op string, kind ValueKind, a, b Value) (Value, error) {
	return binaryOp(heap, op, kind, a, b)
}

func EvalUnaryOp(name string, v Value) Value { return unaryOp(name, v) }

// KindForDescriptor exposes the same field-descriptor-to-ValueKind
// mapping StaticArea uses to size default field values, for pkg/flow's
// parameter-register sizing (a wide Long/Double parameter occupies two
// registers, same as everywhere else in this package).
func KindForDescriptor(descriptor string) ValueKind { return kindForDescriptor(descriptor) }

// IsUnopName, IsBinopName, and ArithKind expose the same mnemonic
// classification the instruction loop's own switch uses, so pkg/flow
// recognizes "add-int/2addr" etc. as arithmetic the same way the VM
// does rather than re-deriving the opcode family naming convention.
func IsUnopName(m string) bool { return isUnopName(m) }

func IsBinopName(m string) bool { return isBinopName(m) }

func ArithKind(base string) (string, ValueKind) { return arithKind(base) }
