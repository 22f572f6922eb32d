package vm_test

import (
	"testing"

	"github.com/dexlens/dexlens/pkg/dex"
	"github.com/dexlens/dexlens/pkg/model"
	"github.com/dexlens/dexlens/pkg/vm"
	"github.com/dexlens/dexlens/pkg/vm/intrinsics"
)

// TestEmulateXorDecryptorRecoversPlaintext hand-assembles
// LXor;->xor(String, String)[B, the shape a string-obfuscating APK
// uses to hide a constant: getBytes() both arguments, XOR each
// plaintext byte against the (cyclically indexed) key byte, and
// return the recovered byte[]. Unlike TestStringGetBytesAndNewStringRoundTrip
// in pkg/vm/intrinsics, this drives the whole thing through the VM's
// fetch-decode-execute loop from real Dalvik bytecode, the path an
// actual APK's method body would take.
func TestEmulateXorDecryptorRecoversPlaintext(t *testing.T) {
	df := &dex.DexFile{
		Strings: []string{"getBytes"},
		Types:   []string{"Ljava/lang/String;", "[B"},
		Protos:  []dex.Proto{{Shorty: "[B", ReturnType: "[B"}},
		Methods: []dex.MethodID{{ClassIdx: 0, ProtoIdx: 0, NameIdx: 0}},
	}
	class := &model.Class{Descriptor: "LXor;", DexFile: df}
	method := &model.Method{
		Descriptor:  "LXor;->xor(Ljava/lang/String;Ljava/lang/String;)[B",
		Name:        "xor",
		AccessFlags: dex.AccStatic,
		Proto:       dex.Proto{Shorty: "LLL", ReturnType: "[B", ParamTypes: []string{"Ljava/lang/String;", "Ljava/lang/String;"}},
		Class:       class,
		HasCode:     true,
		Code: dex.CodeItem{
			RegistersSize: 10,
			InsSize:       2,
			// v8 = plaintext (p0), v9 = key (p1); v0/v1 hold their
			// getBytes() results, v2 the output array, v6 the (always
			// zero, since the test key is one byte) cyclic key index.
			Insns: []uint16{
				0x106e, 0x0000, 0x0008, // 0: invoke-virtual {v8}, Ljava/lang/String;->getBytes()[B
				0x000c,                 // 3: move-result-object v0
				0x106e, 0x0000, 0x0009, // 4: invoke-virtual {v9}, Ljava/lang/String;->getBytes()[B
				0x010c,         // 7: move-result-object v1
				0x0612,         // 8: const/4 v6, #0
				0x2312,         // 9: const/4 v3, #2
				0x3223, 0x0001, // 10: new-array v2, v3, [B
				0x0312,         // 12: const/4 v3, #0
				0x0448, 0x0300, // 13: aget-byte v4, v0, v3
				0x0548, 0x0601, // 15: aget-byte v5, v1, v6
				0x54b7,         // 17: xor-int/2addr v4, v5
				0x448d,         // 18: int-to-byte v4, v4
				0x044f, 0x0302, // 19: aput-byte v4, v2, v3
				0x1312,         // 21: const/4 v3, #1
				0x0448, 0x0300, // 22: aget-byte v4, v0, v3
				0x0548, 0x0601, // 24: aget-byte v5, v1, v6
				0x54b7, // 26: xor-int/2addr v4, v5
				0x448d, // 27: int-to-byte v4, v4
				0x044f, 0x0302, // 28: aput-byte v4, v2, v3
				0x0211, // 30: return-object v2
			},
		},
	}
	class.DirectMethods = []*model.Method{method}

	ctx := model.NewContext()
	ctx.Classes = map[string]*model.Class{"LXor;": class}
	emu := vm.NewVM(ctx, nil)
	emu.SetNatives(intrinsics.New())

	plaintext, key := "hi", "k"
	got, err := emu.EmulateMethod(method, []vm.Value{vm.StringValue(plaintext), vm.StringValue(key)})
	if err != nil {
		t.Fatalf("EmulateMethod: %v", err)
	}
	if got.Kind != vm.Array {
		t.Fatalf("result = %+v, want an Array", got)
	}
	obj, ok := emu.Heap().Get(got.Ref)
	if !ok {
		t.Fatal("result array not found on the heap")
	}
	if len(obj.Elements) != len(plaintext) {
		t.Fatalf("result length = %d, want %d", len(obj.Elements), len(plaintext))
	}
	for i := 0; i < len(plaintext); i++ {
		want := plaintext[i] ^ key[0]
		if got := byte(obj.Elements[i].Int32()); got != want {
			t.Errorf("result[%d] = %#02x, want %#02x", i, got, want)
		}
	}
}
