package dex

import "math"

// ValueKind is the tag byte of an encoded_value (the low 5 bits of
// value_type).
type ValueKind uint8

const (
	ValueByte        ValueKind = 0x00
	ValueShort       ValueKind = 0x02
	ValueChar        ValueKind = 0x03
	ValueInt         ValueKind = 0x04
	ValueLong        ValueKind = 0x06
	ValueFloat       ValueKind = 0x10
	ValueDouble      ValueKind = 0x11
	ValueMethodType  ValueKind = 0x15
	ValueMethodHandle ValueKind = 0x16
	ValueString      ValueKind = 0x17
	ValueType_       ValueKind = 0x18 // trailing underscore: "Type" collides with the dex.Type concept
	ValueField       ValueKind = 0x19
	ValueMethod      ValueKind = 0x1a
	ValueEnum        ValueKind = 0x1b
	ValueArray       ValueKind = 0x1c
	ValueAnnotation  ValueKind = 0x1d
	ValueNull        ValueKind = 0x1e
	ValueBoolean     ValueKind = 0x1f
)

// EncodedValue is a decoded encoded_value. Exactly one of the typed
// fields is meaningful, selected by Kind. MethodType/MethodHandle
// payloads are kept as raw pool indices (Raw) rather than resolved:
// per spec.md's open question, the source material never exercises
// those two variants, so dexlens records the index instead of
// guessing at resolution semantics.
type EncodedValue struct {
	Kind    ValueKind
	Byte    int8
	Short   int16
	Char    uint16
	Int     int32
	Long    int64
	Float   float32
	Double  float64
	Bool    bool
	// StringIdx / TypeIdx / FieldIdx / MethodIdx index into the owning
	// DexFile's pools, valid when Kind is the matching *Idx variant.
	StringIdx uint32
	TypeIdx   uint32
	FieldIdx  uint32
	MethodIdx uint32
	// Raw holds the pool index for ValueMethodType/ValueMethodHandle.
	Raw uint32
	// Array holds the elements of a ValueArray.
	Array []EncodedValue
	// Annotation holds the fields of a ValueAnnotation/ValueEnum.
	Annotation *EncodedAnnotation
}

// EncodedAnnotation is a type plus name/value pairs, used both for
// ValueAnnotation encoded values and for the annotation sets in the
// annotations directory.
type EncodedAnnotation struct {
	TypeIdx uint32
	Names   []uint32 // string pool indices
	Values  []EncodedValue
}

// AnnotationsDirectory is the parsed annotations_directory_item for a
// class: annotations on the class itself, its fields, its methods, and
// method parameters.
type AnnotationsDirectory struct {
	ClassAnnotations    []EncodedAnnotation
	FieldAnnotations    map[uint32][]EncodedAnnotation // field_idx -> annotations
	MethodAnnotations   map[uint32][]EncodedAnnotation // method_idx -> annotations
	ParameterAnnotations map[uint32][][]EncodedAnnotation // method_idx -> per-parameter annotations
}

// readEncodedValue decodes one encoded_value at r's current position.
func readEncodedValue(r *reader) (EncodedValue, error) {
	tagByte, err := r.u8("encoded_value.tag")
	if err != nil {
		return EncodedValue{}, err
	}
	kind := ValueKind(tagByte & 0x1f)
	argSize := int(tagByte>>5) + 1

	readSizedUint := func() (uint64, error) {
		b, err := r.bytes(argSize, "encoded_value.arg")
		if err != nil {
			return 0, err
		}
		var v uint64
		for i := 0; i < argSize; i++ {
			v |= uint64(b[i]) << (8 * uint(i))
		}
		return v, nil
	}

	switch kind {
	case ValueByte:
		b, err := r.u8("encoded_value.byte")
		return EncodedValue{Kind: kind, Byte: int8(b)}, err
	case ValueShort, ValueChar:
		v, err := readSizedUint()
		if err != nil {
			return EncodedValue{}, err
		}
		signExtended := signExtend(v, argSize)
		if kind == ValueShort {
			return EncodedValue{Kind: kind, Short: int16(signExtended)}, nil
		}
		return EncodedValue{Kind: kind, Char: uint16(v)}, nil
	case ValueInt:
		v, err := readSizedUint()
		if err != nil {
			return EncodedValue{}, err
		}
		return EncodedValue{Kind: kind, Int: int32(signExtend(v, argSize))}, nil
	case ValueLong:
		v, err := readSizedUint()
		if err != nil {
			return EncodedValue{}, err
		}
		return EncodedValue{Kind: kind, Long: signExtend(v, argSize)}, nil
	case ValueFloat:
		v, err := readSizedUint()
		if err != nil {
			return EncodedValue{}, err
		}
		return EncodedValue{Kind: kind, Float: floatFromRightZeroExtended(v, argSize)}, nil
	case ValueDouble:
		v, err := readSizedUint()
		if err != nil {
			return EncodedValue{}, err
		}
		return EncodedValue{Kind: kind, Double: doubleFromRightZeroExtended(v, argSize)}, nil
	case ValueMethodType, ValueMethodHandle:
		v, err := readSizedUint()
		if err != nil {
			return EncodedValue{}, err
		}
		return EncodedValue{Kind: kind, Raw: uint32(v)}, nil
	case ValueString:
		v, err := readSizedUint()
		if err != nil {
			return EncodedValue{}, err
		}
		return EncodedValue{Kind: kind, StringIdx: uint32(v)}, nil
	case ValueType_:
		v, err := readSizedUint()
		if err != nil {
			return EncodedValue{}, err
		}
		return EncodedValue{Kind: kind, TypeIdx: uint32(v)}, nil
	case ValueField, ValueEnum:
		v, err := readSizedUint()
		if err != nil {
			return EncodedValue{}, err
		}
		return EncodedValue{Kind: kind, FieldIdx: uint32(v)}, nil
	case ValueMethod:
		v, err := readSizedUint()
		if err != nil {
			return EncodedValue{}, err
		}
		return EncodedValue{Kind: kind, MethodIdx: uint32(v)}, nil
	case ValueArray:
		size, err := r.uleb128()
		if err != nil {
			return EncodedValue{}, err
		}
		elems := make([]EncodedValue, size)
		for i := range elems {
			elems[i], err = readEncodedValue(r)
			if err != nil {
				return EncodedValue{}, err
			}
		}
		return EncodedValue{Kind: kind, Array: elems}, nil
	case ValueAnnotation:
		ann, err := readEncodedAnnotation(r)
		if err != nil {
			return EncodedValue{}, err
		}
		return EncodedValue{Kind: kind, Annotation: ann}, nil
	case ValueNull:
		return EncodedValue{Kind: kind}, nil
	case ValueBoolean:
		// For VALUE_BOOLEAN the value_arg bit itself (0 or 1) is the
		// boolean's value; no trailing bytes are read.
		return EncodedValue{Kind: kind, Bool: tagByte>>5 != 0}, nil
	default:
		return EncodedValue{}, newParseError(PoolIndexOutOfRange, r.offset(), "unknown encoded_value tag 0x%x", tagByte)
	}
}

func readEncodedAnnotation(r *reader) (*EncodedAnnotation, error) {
	typeIdx, err := r.uleb128()
	if err != nil {
		return nil, err
	}
	size, err := r.uleb128()
	if err != nil {
		return nil, err
	}
	ann := &EncodedAnnotation{TypeIdx: typeIdx, Names: make([]uint32, size), Values: make([]EncodedValue, size)}
	for i := uint32(0); i < size; i++ {
		name, err := r.uleb128()
		if err != nil {
			return nil, err
		}
		val, err := readEncodedValue(r)
		if err != nil {
			return nil, err
		}
		ann.Names[i] = name
		ann.Values[i] = val
	}
	return ann, nil
}

// readEncodedArray decodes an encoded_array (no leading type tag, just
// size + elements), used for static field initial values.
func readEncodedArray(r *reader) ([]EncodedValue, error) {
	size, err := r.uleb128()
	if err != nil {
		return nil, err
	}
	vals := make([]EncodedValue, size)
	for i := range vals {
		vals[i], err = readEncodedValue(r)
		if err != nil {
			return nil, err
		}
	}
	return vals, nil
}

// signExtend sign-extends a value that occupied n right-zero-extended
// bytes, per the encoded_value "right zero extended"/"sign extended"
// rules in the DEX spec.
func signExtend(v uint64, n int) int64 {
	bits := uint(n * 8)
	shifted := v << (64 - bits)
	return int64(shifted) >> (64 - bits)
}

func floatFromRightZeroExtended(v uint64, n int) float32 {
	bits := uint32(v) << (8 * uint(4-n))
	return math.Float32frombits(bits)
}

func doubleFromRightZeroExtended(v uint64, n int) float64 {
	bits := v << (8 * uint(8-n))
	return math.Float64frombits(bits)
}
