package intrinsics

import "github.com/dexlens/dexlens/pkg/vm"

// boxSpec wires one primitive wrapper's valueOf/xxxValue pair, grounded
// on the teacher's NativeInteger-as-a-boxed-int32 shape but generalized
// from Integer alone to every numeric wrapper invoke-virtual/-static
// actually reaches in decompiled app code.
type boxSpec struct {
	class      string
	primitive  string // descriptor letter, e.g. "I"
	unboxName  string
	fromValue  func(v vm.Value) (vm.Value, bool) // normalizes an arg to the boxed primitive's own Kind
}

var boxSpecs = []boxSpec{
	{"Ljava/lang/Integer;", "I", "intValue", func(v vm.Value) (vm.Value, bool) {
		if v.Kind == vm.Unknown {
			return vm.Value{}, false
		}
		return vm.IntValue(v.Int32()), true
	}},
	{"Ljava/lang/Long;", "J", "longValue", func(v vm.Value) (vm.Value, bool) {
		if v.Kind == vm.Unknown {
			return vm.Value{}, false
		}
		return vm.LongValue(v.I64), true
	}},
	{"Ljava/lang/Short;", "S", "shortValue", func(v vm.Value) (vm.Value, bool) {
		if v.Kind == vm.Unknown {
			return vm.Value{}, false
		}
		return vm.ShortValue(int16(v.I64)), true
	}},
	{"Ljava/lang/Byte;", "B", "byteValue", func(v vm.Value) (vm.Value, bool) {
		if v.Kind == vm.Unknown {
			return vm.Value{}, false
		}
		return vm.ByteValue(int8(v.I64)), true
	}},
	{"Ljava/lang/Boolean;", "Z", "booleanValue", func(v vm.Value) (vm.Value, bool) {
		if v.Kind == vm.Unknown {
			return vm.Value{}, false
		}
		return vm.BoolValue(v.AsBool()), true
	}},
	{"Ljava/lang/Character;", "C", "charValue", func(v vm.Value) (vm.Value, bool) {
		if v.Kind == vm.Unknown {
			return vm.Value{}, false
		}
		return vm.CharValue(uint16(v.I64)), true
	}},
}

// registerBoxing models boxed wrappers as a heap instance carrying its
// unboxed primitive under Fields["value"], rather than a dedicated
// Value kind: valueOf allocates, the xxxValue unboxer reads it back
// out. A genuinely unknown argument still boxes (the reference itself
// is never in doubt, only its payload), carrying Unknown forward so a
// later unbox also degrades to Unknown instead of silently becoming 0.
func registerBoxing(t *Table) {
	for _, spec := range boxSpecs {
		spec := spec
		t.register(spec.class, "valueOf", "("+spec.primitive+")"+spec.class, func(h *vm.Heap, recv *vm.Value, args []vm.Value) (vm.Value, error) {
			if len(args) != 1 {
				return vm.UnknownValue(), nil
			}
			id := h.NewInstance(spec.class)
			obj, _ := h.Get(id)
			if boxed, ok := spec.fromValue(args[0]); ok {
				obj.Fields["value"] = boxed
			} else {
				obj.Fields["value"] = vm.UnknownValue()
			}
			return vm.ReferenceValue(id), nil
		})

		t.register(spec.class, spec.unboxName, "()"+spec.primitive, func(h *vm.Heap, recv *vm.Value, args []vm.Value) (vm.Value, error) {
			if recv == nil || recv.Kind != vm.Reference || recv.Null {
				return vm.UnknownValue(), nil
			}
			obj, ok := h.Get(recv.Ref)
			if !ok {
				return vm.UnknownValue(), nil
			}
			v, ok := obj.Fields["value"]
			if !ok {
				return vm.UnknownValue(), nil
			}
			return v, nil
		})
	}
}
