package vm

import "fmt"

// ValueKind discriminates the concrete variant held by a Value, the
// full Dalvik runtime-value taxonomy: the eight primitive types, heap
// references (including the interned string and array cases), and
// Unknown, the VM's explicit "could not decide" outcome.
type ValueKind int

const (
	Unknown ValueKind = iota
	Bool
	Byte
	Char
	Short
	Int
	Long
	Float
	Double
	Reference
	String
	Array

	// wideTail marks a register holding the second half of a long/double
	// written to the register below it; reading it directly is an error,
	// per the spec's "second register is a reserved tag" rule.
	wideTail
)

func (k ValueKind) String() string {
	switch k {
	case Bool:
		return "boolean"
	case Byte:
		return "byte"
	case Char:
		return "char"
	case Short:
		return "short"
	case Int:
		return "int"
	case Long:
		return "long"
	case Float:
		return "float"
	case Double:
		return "double"
	case Reference:
		return "reference"
	case String:
		return "string"
	case Array:
		return "array"
	default:
		return "unknown"
	}
}

// Value is one Dalvik runtime value. Exactly the fields matching Kind
// are meaningful; the rest are zero. Bool/Byte/Char/Short/Int/Long all
// live in I64 (sign- or zero-extended as their Java semantics demand)
// so integer promotion and register copies never need a type switch.
type Value struct {
	Kind ValueKind
	I64  int64
	F64  float64
	Ref  ObjectId
	Null bool
	Str  string
}

// Wide reports whether this value's Dalvik encoding occupies two
// consecutive registers (long and double only).
func (v Value) Wide() bool { return v.Kind == Long || v.Kind == Double }

func UnknownValue() Value { return Value{Kind: Unknown} }

func BoolValue(b bool) Value {
	if b {
		return Value{Kind: Bool, I64: 1}
	}
	return Value{Kind: Bool}
}

func ByteValue(b int8) Value           { return Value{Kind: Byte, I64: int64(b)} }
func CharValue(c uint16) Value         { return Value{Kind: Char, I64: int64(c)} }
func ShortValue(s int16) Value         { return Value{Kind: Short, I64: int64(s)} }
func IntValue(i int32) Value           { return Value{Kind: Int, I64: int64(i)} }
func LongValue(l int64) Value          { return Value{Kind: Long, I64: l} }
func FloatValue(f float32) Value       { return Value{Kind: Float, F64: float64(f)} }
func DoubleValue(d float64) Value      { return Value{Kind: Double, F64: d} }
func ReferenceValue(id ObjectId) Value { return Value{Kind: Reference, Ref: id} }
func NullValue() Value                 { return Value{Kind: Reference, Null: true} }
func StringValue(s string) Value       { return Value{Kind: String, Str: s} }
func ArrayValue(id ObjectId) Value     { return Value{Kind: Array, Ref: id} }

// Int32 returns the value narrowed to a Java int, for arithmetic.
func (v Value) Int32() int32 { return int32(v.I64) }

// AsBool reports a value's truthiness the way if-eqz/if-nez treat a
// zero/non-zero register: 0 is false for every integer-ish kind,
// everything else (including Unknown) is conservatively true.
func (v Value) AsBool() bool {
	switch v.Kind {
	case Bool, Byte, Char, Short, Int, Long:
		return v.I64 != 0
	default:
		return true
	}
}

func (v Value) String() string {
	switch v.Kind {
	case Unknown:
		return "<unknown>"
	case Bool:
		return fmt.Sprintf("%t", v.I64 != 0)
	case Byte, Char, Short, Int:
		return fmt.Sprintf("%d", v.I64)
	case Long:
		return fmt.Sprintf("%dL", v.I64)
	case Float:
		return fmt.Sprintf("%gf", v.F64)
	case Double:
		return fmt.Sprintf("%g", v.F64)
	case Reference:
		if v.Null {
			return "null"
		}
		return fmt.Sprintf("ref#%d", v.Ref)
	case String:
		return fmt.Sprintf("%q", v.Str)
	case Array:
		return fmt.Sprintf("array#%d", v.Ref)
	default:
		return "?"
	}
}
