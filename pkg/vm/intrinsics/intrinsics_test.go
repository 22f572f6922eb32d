package intrinsics

import (
	"testing"

	"github.com/dexlens/dexlens/pkg/vm"
)

func TestResolveExactProtoWins(t *testing.T) {
	tbl := New()
	m, ok := tbl.Resolve("Ljava/lang/StringBuilder;", "append", "(Ljava/lang/String;)Ljava/lang/StringBuilder;")
	if !ok || m == nil {
		t.Fatal("expected append(String) to resolve")
	}
}

func TestResolveAmbiguousNameWithoutExactProtoFails(t *testing.T) {
	tbl := New()
	// append is registered under several protos on StringBuilder; an
	// unfamiliar proto must not guess one of them.
	if _, ok := tbl.Resolve("Ljava/lang/StringBuilder;", "append", "(Lsomething/Unfamiliar;)V"); ok {
		t.Error("expected no resolution for an unfamiliar overload")
	}
}

func TestResolveUnknownMethodFails(t *testing.T) {
	tbl := New()
	if _, ok := tbl.Resolve("Ljava/lang/Object;", "hashCode", "()I"); ok {
		t.Error("expected hashCode to be unmodeled")
	}
}

func TestStringBuilderAppendAndToString(t *testing.T) {
	tbl := New()
	h := vm.NewHeap()
	id := h.NewInstance("Ljava/lang/StringBuilder;")
	recv := vm.ReferenceValue(id)

	appendStr, _ := tbl.Resolve("Ljava/lang/StringBuilder;", "append", "(Ljava/lang/String;)Ljava/lang/StringBuilder;")
	if _, err := appendStr(h, &recv, []vm.Value{vm.StringValue("hello ")}); err != nil {
		t.Fatal(err)
	}
	appendInt, _ := tbl.Resolve("Ljava/lang/StringBuilder;", "append", "(I)Ljava/lang/StringBuilder;")
	if _, err := appendInt(h, &recv, []vm.Value{vm.IntValue(7)}); err != nil {
		t.Fatal(err)
	}

	toString, _ := tbl.Resolve("Ljava/lang/StringBuilder;", "toString", "()Ljava/lang/String;")
	got, err := toString(h, &recv, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got.Kind != vm.String || got.Str != "hello 7" {
		t.Errorf("toString() = %+v, want \"hello 7\"", got)
	}
}

func TestStringEqualsAndConcat(t *testing.T) {
	tbl := New()
	h := vm.NewHeap()
	recv := vm.StringValue("foo")

	eq, _ := tbl.Resolve("Ljava/lang/String;", "equals", "(Ljava/lang/Object;)Z")
	got, err := eq(h, &recv, []vm.Value{vm.StringValue("foo")})
	if err != nil {
		t.Fatal(err)
	}
	if !got.AsBool() {
		t.Error("\"foo\".equals(\"foo\") = false, want true")
	}

	concat, _ := tbl.Resolve("Ljava/lang/String;", "concat", "(Ljava/lang/String;)Ljava/lang/String;")
	got, err = concat(h, &recv, []vm.Value{vm.StringValue("bar")})
	if err != nil {
		t.Fatal(err)
	}
	if got.Str != "foobar" {
		t.Errorf("concat = %q, want foobar", got.Str)
	}
}

func TestIntegerBoxUnboxRoundtrip(t *testing.T) {
	tbl := New()
	h := vm.NewHeap()

	valueOf, _ := tbl.Resolve("Ljava/lang/Integer;", "valueOf", "(I)Ljava/lang/Integer;")
	boxed, err := valueOf(h, nil, []vm.Value{vm.IntValue(42)})
	if err != nil {
		t.Fatal(err)
	}
	if boxed.Kind != vm.Reference {
		t.Fatalf("valueOf result = %+v, want a Reference", boxed)
	}

	intValue, _ := tbl.Resolve("Ljava/lang/Integer;", "intValue", "()I")
	got, err := intValue(h, &boxed, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got.Kind != vm.Int || got.Int32() != 42 {
		t.Errorf("intValue() = %+v, want Int(42)", got)
	}
}

func TestHashMapPutGet(t *testing.T) {
	tbl := New()
	h := vm.NewHeap()
	id := h.NewInstance("Ljava/util/HashMap;")
	recv := vm.ReferenceValue(id)

	put, _ := tbl.Resolve("Ljava/util/HashMap;", "put", "(Ljava/lang/Object;Ljava/lang/Object;)Ljava/lang/Object;")
	prev, err := put(h, &recv, []vm.Value{vm.StringValue("k"), vm.IntValue(1)})
	if err != nil {
		t.Fatal(err)
	}
	if prev.Kind != vm.Reference || !prev.Null {
		t.Errorf("first put's previous value = %+v, want null", prev)
	}

	get, _ := tbl.Resolve("Ljava/util/HashMap;", "get", "(Ljava/lang/Object;)Ljava/lang/Object;")
	got, err := get(h, &recv, []vm.Value{vm.StringValue("k")})
	if err != nil {
		t.Fatal(err)
	}
	if got.Kind != vm.Int || got.Int32() != 1 {
		t.Errorf("get(k) = %+v, want Int(1)", got)
	}

	size, _ := tbl.Resolve("Ljava/util/HashMap;", "size", "()I")
	n, err := size(h, &recv, nil)
	if err != nil {
		t.Fatal(err)
	}
	if n.Int32() != 1 {
		t.Errorf("size() = %d, want 1", n.Int32())
	}
}

func TestArraysToStringAndEquals(t *testing.T) {
	tbl := New()
	h := vm.NewHeap()
	id := h.NewArray(vm.Int, 3)
	obj, _ := h.Get(id)
	obj.Elements[0] = vm.IntValue(1)
	obj.Elements[1] = vm.IntValue(2)
	obj.Elements[2] = vm.IntValue(3)
	arr := vm.ArrayValue(id)

	toString, _ := tbl.Resolve(arraysClass, "toString", "([I)Ljava/lang/String;")
	got, err := toString(h, nil, []vm.Value{arr})
	if err != nil {
		t.Fatal(err)
	}
	if got.Str != "[1, 2, 3]" {
		t.Errorf("Arrays.toString = %q", got.Str)
	}

	id2 := h.NewArray(vm.Int, 3)
	obj2, _ := h.Get(id2)
	copy(obj2.Elements, obj.Elements)
	arr2 := vm.ArrayValue(id2)

	equals, _ := tbl.Resolve(arraysClass, "equals", "([I[I)Z")
	eq, err := equals(h, nil, []vm.Value{arr, arr2})
	if err != nil {
		t.Fatal(err)
	}
	if !eq.AsBool() {
		t.Error("Arrays.equals on identical contents = false, want true")
	}
}

func TestBase64RoundTrip(t *testing.T) {
	tbl := New()
	h := vm.NewHeap()
	id := h.NewArray(vm.Byte, 3)
	obj, _ := h.Get(id)
	obj.Elements[0] = vm.ByteValue('f')
	obj.Elements[1] = vm.ByteValue('o')
	obj.Elements[2] = vm.ByteValue('o')
	data := vm.ArrayValue(id)

	encode, _ := tbl.Resolve("Ljava/util/Base64;", "encodeToString", "([B)Ljava/lang/String;")
	encoded, err := encode(h, nil, []vm.Value{data})
	if err != nil {
		t.Fatal(err)
	}
	if encoded.Str != "Zm9v" {
		t.Errorf("encodeToString = %q, want Zm9v", encoded.Str)
	}

	decode, _ := tbl.Resolve("Ljava/util/Base64;", "decode", "(Ljava/lang/String;)[B")
	decoded, err := decode(h, nil, []vm.Value{encoded})
	if err != nil {
		t.Fatal(err)
	}
	decodedBytes, ok := byteArray(h, []vm.Value{decoded})
	if !ok || string(decodedBytes) != "foo" {
		t.Errorf("decode roundtrip = %q, want foo", decodedBytes)
	}
}

func TestStringGetBytesAndNewStringRoundTrip(t *testing.T) {
	tbl := New()
	h := vm.NewHeap()
	recv := vm.StringValue("foo")

	getBytes, _ := tbl.Resolve("Ljava/lang/String;", "getBytes", "()[B")
	bytesVal, err := getBytes(h, &recv, nil)
	if err != nil {
		t.Fatal(err)
	}
	if bytesVal.Kind != vm.Array {
		t.Fatalf("getBytes() = %+v, want an Array", bytesVal)
	}
	elems, ok := arrayElements(h, bytesVal)
	if !ok || len(elems) != 3 {
		t.Fatalf("getBytes() elements = %+v", elems)
	}
	for i, want := range []byte("foo") {
		if byte(elems[i].Int32()) != want {
			t.Errorf("getBytes()[%d] = %d, want %d", i, elems[i].Int32(), want)
		}
	}

	// XOR every byte with a fixed key, same shape a decryptor call site
	// would take, then round-trip back through new String(byte[]).
	xored := make([]vm.Value, len(elems))
	for i, e := range elems {
		xored[i] = vm.ByteValue(int8(byte(e.Int32()) ^ 0x5a))
	}
	id := h.NewArray(vm.Byte, len(xored))
	obj, _ := h.Get(id)
	copy(obj.Elements, xored)
	xoredArr := vm.ArrayValue(id)

	strID := h.NewInstance("Ljava/lang/String;")
	strRecv := vm.ReferenceValue(strID)
	ctor, ok := tbl.Resolve("Ljava/lang/String;", "<init>", "([B)V")
	if !ok {
		t.Fatal("String(byte[]) constructor should be a handled intrinsic")
	}
	if _, err := ctor(h, &strRecv, []vm.Value{xoredArr}); err != nil {
		t.Fatal(err)
	}

	length, _ := tbl.Resolve("Ljava/lang/String;", "length", "()I")
	n, err := length(h, &strRecv, nil)
	if err != nil {
		t.Fatal(err)
	}
	if n.Int32() != 3 {
		t.Fatalf("constructed string length = %d, want 3", n.Int32())
	}

	getBytesAgain, _ := tbl.Resolve("Ljava/lang/String;", "getBytes", "()[B")
	roundTripped, err := getBytesAgain(h, &strRecv, nil)
	if err != nil {
		t.Fatal(err)
	}
	rtElems, ok := arrayElements(h, roundTripped)
	if !ok {
		t.Fatal("round-tripped getBytes() did not resolve to an array")
	}
	for i := range rtElems {
		got := byte(rtElems[i].Int32()) ^ 0x5a
		if want := byte("foo"[i]); got != want {
			t.Errorf("recovered byte[%d] = %q, want %q", i, got, want)
		}
	}
}

func TestSystemPrintlnIsHandledNoop(t *testing.T) {
	tbl := New()
	m, ok := tbl.Resolve("Ljava/io/PrintStream;", "println", "(Ljava/lang/String;)V")
	if !ok {
		t.Fatal("println should be a handled intrinsic, not unresolved")
	}
	got, err := m(vm.NewHeap(), nil, []vm.Value{vm.StringValue("hi")})
	if err != nil {
		t.Fatal(err)
	}
	if got.Kind != vm.Unknown {
		t.Errorf("println result = %+v, want Unknown (void)", got)
	}
}
