package intrinsics

import (
	"strings"

	"github.com/dexlens/dexlens/pkg/vm"
)

const stringClass = "Ljava/lang/String;"

// asString reads a value known to carry Java string content.
// const-string produces vm.Value's inline String kind directly, no
// heap lookup needed; a String constructed from a byte array instead
// goes through <init> below, which stashes its decoded content on the
// heap object's "value" field the same way StringBuilder does, so this
// also resolves a Reference receiver that way. An Unknown, null, or
// not-yet-initialized argument degrades to "", which callers signal by
// also checking the returned bool before trusting it.
func asString(h *vm.Heap, v vm.Value) (string, bool) {
	if v.Kind == vm.String {
		return v.Str, true
	}
	if v.Kind != vm.Reference || v.Null {
		return "", false
	}
	obj, ok := h.Get(v.Ref)
	if !ok {
		return "", false
	}
	cur, ok := obj.Fields["value"]
	if !ok || cur.Kind != vm.String {
		return "", false
	}
	return cur.Str, true
}

func registerString(t *Table) {
	t.register(stringClass, "length", "()I", func(h *vm.Heap, recv *vm.Value, args []vm.Value) (vm.Value, error) {
		s, ok := asString(h, *recv)
		if !ok {
			return vm.UnknownValue(), nil
		}
		return vm.IntValue(int32(len(s))), nil
	})

	t.register(stringClass, "isEmpty", "()Z", func(h *vm.Heap, recv *vm.Value, args []vm.Value) (vm.Value, error) {
		s, ok := asString(h, *recv)
		if !ok {
			return vm.UnknownValue(), nil
		}
		return vm.BoolValue(len(s) == 0), nil
	})

	t.register(stringClass, "equals", "(Ljava/lang/Object;)Z", func(h *vm.Heap, recv *vm.Value, args []vm.Value) (vm.Value, error) {
		if len(args) != 1 {
			return vm.UnknownValue(), nil
		}
		a, ok1 := asString(h, *recv)
		b, ok2 := asString(h, args[0])
		if !ok1 || !ok2 {
			return vm.UnknownValue(), nil
		}
		return vm.BoolValue(a == b), nil
	})

	t.register(stringClass, "concat", "(Ljava/lang/String;)Ljava/lang/String;", func(h *vm.Heap, recv *vm.Value, args []vm.Value) (vm.Value, error) {
		if len(args) != 1 {
			return vm.UnknownValue(), nil
		}
		a, ok1 := asString(h, *recv)
		b, ok2 := asString(h, args[0])
		if !ok1 || !ok2 {
			return vm.UnknownValue(), nil
		}
		return vm.StringValue(a + b), nil
	})

	t.register(stringClass, "toUpperCase", "()Ljava/lang/String;", func(h *vm.Heap, recv *vm.Value, args []vm.Value) (vm.Value, error) {
		s, ok := asString(h, *recv)
		if !ok {
			return vm.UnknownValue(), nil
		}
		return vm.StringValue(strings.ToUpper(s)), nil
	})

	t.register(stringClass, "toLowerCase", "()Ljava/lang/String;", func(h *vm.Heap, recv *vm.Value, args []vm.Value) (vm.Value, error) {
		s, ok := asString(h, *recv)
		if !ok {
			return vm.UnknownValue(), nil
		}
		return vm.StringValue(strings.ToLower(s)), nil
	})

	t.register(stringClass, "trim", "()Ljava/lang/String;", func(h *vm.Heap, recv *vm.Value, args []vm.Value) (vm.Value, error) {
		s, ok := asString(h, *recv)
		if !ok {
			return vm.UnknownValue(), nil
		}
		return vm.StringValue(strings.TrimSpace(s)), nil
	})

	t.register(stringClass, "indexOf", "(Ljava/lang/String;)I", func(h *vm.Heap, recv *vm.Value, args []vm.Value) (vm.Value, error) {
		if len(args) != 1 {
			return vm.UnknownValue(), nil
		}
		a, ok1 := asString(h, *recv)
		b, ok2 := asString(h, args[0])
		if !ok1 || !ok2 {
			return vm.UnknownValue(), nil
		}
		return vm.IntValue(int32(strings.Index(a, b))), nil
	})

	t.register(stringClass, "charAt", "(I)C", func(h *vm.Heap, recv *vm.Value, args []vm.Value) (vm.Value, error) {
		s, ok := asString(h, *recv)
		if !ok || len(args) != 1 || args[0].Kind == vm.Unknown {
			return vm.UnknownValue(), nil
		}
		idx := int(args[0].Int32())
		if idx < 0 || idx >= len(s) {
			return vm.UnknownValue(), nil
		}
		return vm.CharValue(uint16(s[idx])), nil
	})

	t.register(stringClass, "valueOf", "(I)Ljava/lang/String;", func(h *vm.Heap, recv *vm.Value, args []vm.Value) (vm.Value, error) {
		if len(args) != 1 || args[0].Kind == vm.Unknown {
			return vm.UnknownValue(), nil
		}
		return vm.StringValue(args[0].String()), nil
	})

	t.register(stringClass, "getBytes", "()[B", func(h *vm.Heap, recv *vm.Value, args []vm.Value) (vm.Value, error) {
		s, ok := asString(h, *recv)
		if !ok {
			return vm.UnknownValue(), nil
		}
		id := h.NewArray(vm.Byte, len(s))
		obj, _ := h.Get(id)
		for i := 0; i < len(s); i++ {
			obj.Elements[i] = vm.ByteValue(int8(s[i]))
		}
		return vm.ArrayValue(id), nil
	})

	// <init>([B)V backs `new String(bytes)`: a byte[]-to-String round
	// trip through getBytes() and back is the XOR-decryptor shape this
	// table exists to keep concrete. new-instance leaves the receiver a
	// heap Reference with empty Fields; this stashes the decoded text
	// under "value", the same slot StringBuilder's buffer uses, so
	// every other String intrinsic above resolves it via asString.
	t.register(stringClass, "<init>", "([B)V", func(h *vm.Heap, recv *vm.Value, args []vm.Value) (vm.Value, error) {
		if recv == nil || recv.Kind != vm.Reference || recv.Null || len(args) != 1 {
			return vm.UnknownValue(), nil
		}
		elems, ok := arrayElements(h, args[0])
		if !ok {
			return vm.UnknownValue(), nil
		}
		buf := make([]byte, len(elems))
		for i, e := range elems {
			buf[i] = byte(e.Int32())
		}
		obj, ok := h.Get(recv.Ref)
		if !ok {
			return vm.UnknownValue(), nil
		}
		obj.Fields["value"] = vm.StringValue(string(buf))
		return vm.UnknownValue(), nil
	})
}
