package vm

import "math"

// binaryOp applies a named Dalvik binop (the mnemonic's operation part,
// e.g. "add", "div", stripped of its "-int"/"-long"/"-float"/"-double"
// suffix by the caller) to a and b, wrapping int32/int64 arithmetic
// modulo 2^32/2^64 the way Go's fixed-width integers already do.
// div/rem by zero on an integer kind raises an ArithmeticException
// instead of returning a value.
func binaryOp(heap *Heap, op string, kind ValueKind, a, b Value) (Value, error) {
	if a.Kind == Unknown || b.Kind == Unknown {
		return UnknownValue(), nil
	}
	switch kind {
	case Int:
		x, y := a.Int32(), b.Int32()
		switch op {
		case "add":
			return IntValue(x + y), nil
		case "sub":
			return IntValue(x - y), nil
		case "mul":
			return IntValue(x * y), nil
		case "div":
			if y == 0 {
				return Value{}, newException(heap, "Ljava/lang/ArithmeticException;", "divide by zero")
			}
			return IntValue(x / y), nil
		case "rem":
			if y == 0 {
				return Value{}, newException(heap, "Ljava/lang/ArithmeticException;", "divide by zero")
			}
			return IntValue(x % y), nil
		case "and":
			return IntValue(x & y), nil
		case "or":
			return IntValue(x | y), nil
		case "xor":
			return IntValue(x ^ y), nil
		case "shl":
			return IntValue(x << (uint32(y) & 0x1f)), nil
		case "shr":
			return IntValue(x >> (uint32(y) & 0x1f)), nil
		case "ushr":
			return IntValue(int32(uint32(x) >> (uint32(y) & 0x1f))), nil
		}
	case Long:
		x, y := a.I64, b.I64
		switch op {
		case "add":
			return LongValue(x + y), nil
		case "sub":
			return LongValue(x - y), nil
		case "mul":
			return LongValue(x * y), nil
		case "div":
			if y == 0 {
				return Value{}, newException(heap, "Ljava/lang/ArithmeticException;", "divide by zero")
			}
			return LongValue(x / y), nil
		case "rem":
			if y == 0 {
				return Value{}, newException(heap, "Ljava/lang/ArithmeticException;", "divide by zero")
			}
			return LongValue(x % y), nil
		case "and":
			return LongValue(x & y), nil
		case "or":
			return LongValue(x | y), nil
		case "xor":
			return LongValue(x ^ y), nil
		case "shl":
			return LongValue(x << (uint64(y) & 0x3f)), nil
		case "shr":
			return LongValue(x >> (uint64(y) & 0x3f)), nil
		case "ushr":
			return LongValue(int64(uint64(x) >> (uint64(y) & 0x3f))), nil
		}
	case Float:
		x, y := float32(a.F64), float32(b.F64)
		switch op {
		case "add":
			return FloatValue(x + y), nil
		case "sub":
			return FloatValue(x - y), nil
		case "mul":
			return FloatValue(x * y), nil
		case "div":
			return FloatValue(x / y), nil
		case "rem":
			return FloatValue(float32(math.Mod(float64(x), float64(y)))), nil
		}
	case Double:
		x, y := a.F64, b.F64
		switch op {
		case "add":
			return DoubleValue(x + y), nil
		case "sub":
			return DoubleValue(x - y), nil
		case "mul":
			return DoubleValue(x * y), nil
		case "div":
			return DoubleValue(x / y), nil
		case "rem":
			return DoubleValue(math.Mod(x, y)), nil
		}
	}
	return UnknownValue(), nil
}

// unaryOp applies neg/not or a numeric conversion, named the way the
// opcode table spells it (e.g. "neg-int", "int-to-float").
func unaryOp(name string, v Value) Value {
	if v.Kind == Unknown {
		return UnknownValue()
	}
	switch name {
	case "neg-int":
		return IntValue(-v.Int32())
	case "not-int":
		return IntValue(^v.Int32())
	case "neg-long":
		return LongValue(-v.I64)
	case "not-long":
		return LongValue(^v.I64)
	case "neg-float":
		return FloatValue(-float32(v.F64))
	case "neg-double":
		return DoubleValue(-v.F64)
	case "int-to-long":
		return LongValue(int64(v.Int32()))
	case "int-to-float":
		return FloatValue(float32(v.Int32()))
	case "int-to-double":
		return DoubleValue(float64(v.Int32()))
	case "long-to-int":
		return IntValue(int32(v.I64))
	case "long-to-float":
		return FloatValue(float32(v.I64))
	case "long-to-double":
		return DoubleValue(float64(v.I64))
	case "float-to-int":
		return IntValue(int32(float32(v.F64)))
	case "float-to-long":
		return LongValue(int64(float32(v.F64)))
	case "float-to-double":
		return DoubleValue(float64(float32(v.F64)))
	case "double-to-int":
		return IntValue(int32(v.F64))
	case "double-to-long":
		return LongValue(int64(v.F64))
	case "double-to-float":
		return FloatValue(float32(v.F64))
	case "int-to-byte":
		return ByteValue(int8(v.Int32()))
	case "int-to-char":
		return CharValue(uint16(v.Int32()))
	case "int-to-short":
		return ShortValue(int16(v.Int32()))
	default:
		return UnknownValue()
	}
}

// compareValues implements cmpl/cmpg-float, cmpl/cmpg-double, and
// cmp-long: -1/0/1 the usual way, with the bias parameter choosing
// which of -1/+1 a NaN comparison returns ("l" bias returns -1, "g"
// bias returns +1, matching the two float/double opcode variants).
func compareValues(kind ValueKind, a, b Value, nanBiasLow bool) Value {
	switch kind {
	case Long:
		switch {
		case a.I64 < b.I64:
			return IntValue(-1)
		case a.I64 > b.I64:
			return IntValue(1)
		default:
			return IntValue(0)
		}
	case Float, Double:
		x, y := a.F64, b.F64
		if math.IsNaN(x) || math.IsNaN(y) {
			if nanBiasLow {
				return IntValue(-1)
			}
			return IntValue(1)
		}
		switch {
		case x < y:
			return IntValue(-1)
		case x > y:
			return IntValue(1)
		default:
			return IntValue(0)
		}
	default:
		return UnknownValue()
	}
}
