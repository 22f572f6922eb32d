package intrinsics

import "github.com/dexlens/dexlens/pkg/vm"

const hashMapClass = "Ljava/util/HashMap;"

// mapKey serializes a Value into the string space Object.Fields
// already uses, rather than adding a dedicated map-typed field to
// vm.Object: Value.String() is already a stable, deterministic
// rendering (used for Unknown-safe formatting elsewhere), so it
// doubles as a good-enough map key for the keys real app code actually
// uses (strings, boxed ints, small enums) without widening the heap's
// core type.
func mapKey(v vm.Value) string {
	return "k:" + v.String()
}

func registerHashMap(t *Table) {
	t.register(hashMapClass, "put", "(Ljava/lang/Object;Ljava/lang/Object;)Ljava/lang/Object;",
		func(h *vm.Heap, recv *vm.Value, args []vm.Value) (vm.Value, error) {
			if recv == nil || recv.Kind != vm.Reference || recv.Null || len(args) != 2 {
				return vm.UnknownValue(), nil
			}
			obj, ok := h.Get(recv.Ref)
			if !ok {
				return vm.UnknownValue(), nil
			}
			if obj.Fields == nil {
				obj.Fields = make(map[string]vm.Value)
			}
			k := mapKey(args[0])
			old, had := obj.Fields[k]
			obj.Fields[k] = args[1]
			if !had {
				return vm.NullValue(), nil
			}
			return old, nil
		})

	t.register(hashMapClass, "get", "(Ljava/lang/Object;)Ljava/lang/Object;",
		func(h *vm.Heap, recv *vm.Value, args []vm.Value) (vm.Value, error) {
			if recv == nil || recv.Kind != vm.Reference || recv.Null || len(args) != 1 {
				return vm.UnknownValue(), nil
			}
			obj, ok := h.Get(recv.Ref)
			if !ok {
				return vm.UnknownValue(), nil
			}
			v, ok := obj.Fields[mapKey(args[0])]
			if !ok {
				return vm.NullValue(), nil
			}
			return v, nil
		})

	t.register(hashMapClass, "containsKey", "(Ljava/lang/Object;)Z",
		func(h *vm.Heap, recv *vm.Value, args []vm.Value) (vm.Value, error) {
			if recv == nil || recv.Kind != vm.Reference || recv.Null || len(args) != 1 {
				return vm.UnknownValue(), nil
			}
			obj, ok := h.Get(recv.Ref)
			if !ok {
				return vm.UnknownValue(), nil
			}
			_, ok = obj.Fields[mapKey(args[0])]
			return vm.BoolValue(ok), nil
		})

	t.register(hashMapClass, "size", "()I",
		func(h *vm.Heap, recv *vm.Value, args []vm.Value) (vm.Value, error) {
			if recv == nil || recv.Kind != vm.Reference || recv.Null {
				return vm.UnknownValue(), nil
			}
			obj, ok := h.Get(recv.Ref)
			if !ok {
				return vm.UnknownValue(), nil
			}
			count := 0
			for k := range obj.Fields {
				if len(k) >= 2 && k[:2] == "k:" {
					count++
				}
			}
			return vm.IntValue(int32(count)), nil
		})
}
