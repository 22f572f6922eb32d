package intrinsics

import (
	"strings"

	"github.com/dexlens/dexlens/pkg/vm"
)

const arraysClass = "Ljava/util/Arrays;"

func registerArrays(t *Table) {
	// java.util.Arrays is all static utility methods; every registration
	// here reads its array argument out of args[0], never a receiver.
	for _, proto := range []string{
		"([I)Ljava/lang/String;", "([J)Ljava/lang/String;",
		"([Ljava/lang/Object;)Ljava/lang/String;", "([Ljava/lang/String;)Ljava/lang/String;",
	} {
		t.register(arraysClass, "toString", proto, func(h *vm.Heap, recv *vm.Value, args []vm.Value) (vm.Value, error) {
			if len(args) != 1 {
				return vm.UnknownValue(), nil
			}
			elems, ok := arrayElements(h, args[0])
			if !ok {
				return vm.UnknownValue(), nil
			}
			parts := make([]string, len(elems))
			for i, e := range elems {
				parts[i] = e.String()
			}
			return vm.StringValue("[" + strings.Join(parts, ", ") + "]"), nil
		})
	}

	t.register(arraysClass, "equals", "([I[I)Z", func(h *vm.Heap, recv *vm.Value, args []vm.Value) (vm.Value, error) {
		if len(args) != 2 {
			return vm.UnknownValue(), nil
		}
		a, ok1 := arrayElements(h, args[0])
		b, ok2 := arrayElements(h, args[1])
		if !ok1 || !ok2 {
			return vm.UnknownValue(), nil
		}
		if len(a) != len(b) {
			return vm.BoolValue(false), nil
		}
		for i := range a {
			if a[i] != b[i] {
				return vm.BoolValue(false), nil
			}
		}
		return vm.BoolValue(true), nil
	})

	t.register(arraysClass, "fill", "([II)V", func(h *vm.Heap, recv *vm.Value, args []vm.Value) (vm.Value, error) {
		if len(args) != 2 || args[0].Kind != vm.Array {
			return vm.UnknownValue(), nil
		}
		obj, ok := h.Get(args[0].Ref)
		if !ok || !obj.IsArray {
			return vm.UnknownValue(), nil
		}
		for i := range obj.Elements {
			obj.Elements[i] = args[1]
		}
		return vm.UnknownValue(), nil
	})
}

func arrayElements(h *vm.Heap, v vm.Value) ([]vm.Value, bool) {
	if v.Kind != vm.Array || v.Null {
		return nil, false
	}
	obj, ok := h.Get(v.Ref)
	if !ok || !obj.IsArray {
		return nil, false
	}
	return obj.Elements, true
}
