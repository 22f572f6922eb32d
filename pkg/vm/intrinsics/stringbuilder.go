package intrinsics

import "github.com/dexlens/dexlens/pkg/vm"

// bufferOf reads the accumulated contents of a StringBuilder/
// StringBuffer heap object, treating a freshly new-instance'd (and so
// never-appended-to) builder as empty rather than failing the lookup.
func bufferOf(h *vm.Heap, recv *vm.Value) (*vm.Object, string) {
	if recv == nil || recv.Kind != vm.Reference || recv.Null {
		return nil, ""
	}
	obj, ok := h.Get(recv.Ref)
	if !ok {
		return nil, ""
	}
	cur, ok := obj.Fields["value"]
	if !ok || cur.Kind != vm.String {
		return obj, ""
	}
	return obj, cur.Str
}

func appendArg(buf string, v vm.Value) string {
	if v.Kind == vm.Unknown {
		return buf + "<unknown>"
	}
	if v.Kind == vm.String {
		return buf + v.Str
	}
	return buf + v.String()
}

func registerStringBuilder(t *Table) {
	for _, class := range []string{"Ljava/lang/StringBuilder;", "Ljava/lang/StringBuffer;"} {
		class := class
		appendProtos := []string{
			"(Ljava/lang/String;)" + class,
			"(I)" + class,
			"(J)" + class,
			"(C)" + class,
			"(Z)" + class,
			"(Ljava/lang/Object;)" + class,
		}
		for _, proto := range appendProtos {
			t.register(class, "append", proto, func(h *vm.Heap, recv *vm.Value, args []vm.Value) (vm.Value, error) {
				obj, cur := bufferOf(h, recv)
				if obj == nil || len(args) != 1 {
					return vm.UnknownValue(), nil
				}
				obj.Fields["value"] = vm.StringValue(appendArg(cur, args[0]))
				return *recv, nil
			})
		}

		t.register(class, "toString", "()Ljava/lang/String;", func(h *vm.Heap, recv *vm.Value, args []vm.Value) (vm.Value, error) {
			_, cur := bufferOf(h, recv)
			return vm.StringValue(cur), nil
		})

		t.register(class, "length", "()I", func(h *vm.Heap, recv *vm.Value, args []vm.Value) (vm.Value, error) {
			_, cur := bufferOf(h, recv)
			return vm.IntValue(int32(len(cur))), nil
		})
	}
}
