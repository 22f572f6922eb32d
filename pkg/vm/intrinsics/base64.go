package intrinsics

import (
	"encoding/base64"

	"github.com/dexlens/dexlens/pkg/vm"
)

// java.util.Base64's Encoder/Decoder are themselves singletons
// returned by getEncoder()/getDecoder(); this emulator skips modeling
// that indirection and resolves encode/decode directly against
// whatever receiver reaches them, since no app code branches on the
// encoder/decoder object's identity.
func registerBase64(t *Table) {
	for _, class := range []string{"Ljava/util/Base64$Encoder;", "Ljava/util/Base64;"} {
		t.register(class, "encodeToString", "([B)Ljava/lang/String;",
			func(h *vm.Heap, recv *vm.Value, args []vm.Value) (vm.Value, error) {
				data, ok := byteArray(h, args)
				if !ok {
					return vm.UnknownValue(), nil
				}
				return vm.StringValue(base64.StdEncoding.EncodeToString(data)), nil
			})
	}

	for _, class := range []string{"Ljava/util/Base64$Decoder;", "Ljava/util/Base64;"} {
		t.register(class, "decode", "(Ljava/lang/String;)[B",
			func(h *vm.Heap, recv *vm.Value, args []vm.Value) (vm.Value, error) {
				if len(args) != 1 || args[0].Kind != vm.String {
					return vm.UnknownValue(), nil
				}
				decoded, err := base64.StdEncoding.DecodeString(args[0].Str)
				if err != nil {
					return vm.UnknownValue(), nil
				}
				id := h.NewArray(vm.Byte, len(decoded))
				obj, _ := h.Get(id)
				for i, b := range decoded {
					obj.Elements[i] = vm.ByteValue(int8(b))
				}
				return vm.ArrayValue(id), nil
			})
	}
}

func byteArray(h *vm.Heap, args []vm.Value) ([]byte, bool) {
	if len(args) != 1 || args[0].Kind != vm.Array || args[0].Null {
		return nil, false
	}
	obj, ok := h.Get(args[0].Ref)
	if !ok || !obj.IsArray {
		return nil, false
	}
	out := make([]byte, len(obj.Elements))
	for i, e := range obj.Elements {
		if e.Kind == vm.Unknown {
			return nil, false
		}
		out[i] = byte(e.I64)
	}
	return out, true
}
