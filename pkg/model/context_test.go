package model

import (
	"testing"

	"github.com/dexlens/dexlens/pkg/dex"
)

// buildSampleDexFile hand-assembles a *dex.DexFile directly (skipping
// the binary layer, which pkg/dex already tests on its own) covering:
// LBase; (a static field, implicit java.lang.Object superclass),
// LSub; (extends LBase;), and LOther; (implements LIface;).
func buildSampleDexFile() *dex.DexFile {
	types := []string{"LBase;", "LSub;", "LIface;", "LOther;", "I"}
	strings_ := []string{"foo", "count"}
	protos := []dex.Proto{{Shorty: "V", ReturnType: "V"}}
	fields := []dex.FieldID{{ClassIdx: 0, TypeIdx: 4, NameIdx: 1}} // LBase;->count:I
	methods := []dex.MethodID{{ClassIdx: 0, ProtoIdx: 0, NameIdx: 0}} // LBase;->foo()V

	classDefs := []dex.ClassDef{
		{
			ClassIdx:      0, // LBase;
			SuperclassIdx: -1,
			SourceFileIdx: -1,
			ClassData: dex.ClassData{
				StaticFields:  []dex.EncodedField{{FieldIdx: 0, AccessFlags: dex.AccStatic}},
				DirectMethods: []dex.EncodedMethod{{MethodIdx: 0, AccessFlags: dex.AccStatic}},
			},
		},
		{
			ClassIdx:      1, // LSub;
			SuperclassIdx: 0, // LBase;
			SourceFileIdx: -1,
		},
		{
			ClassIdx:      3, // LOther;
			SuperclassIdx: -1,
			SourceFileIdx: -1,
			Interfaces:    []dex.TypeID{2}, // LIface;
		},
	}

	return &dex.DexFile{
		Header:    &dex.Header{Version: "035"},
		Strings:   strings_,
		Types:     types,
		Protos:    protos,
		Fields:    fields,
		Methods:   methods,
		ClassDefs: classDefs,
	}
}

func TestContextAddDexFileBuildsClasses(t *testing.T) {
	ctx := NewContext()
	if err := ctx.AddDexFile("classes.dex", buildSampleDexFile()); err != nil {
		t.Fatalf("AddDexFile: %v", err)
	}

	base, ok := ctx.Classes["LBase;"]
	if !ok {
		t.Fatal("LBase; not found")
	}
	if len(base.StaticFields) != 1 || base.StaticFields[0].Name != "count" {
		t.Errorf("LBase; static fields = %+v", base.StaticFields)
	}
	if len(base.DirectMethods) != 1 || base.DirectMethods[0].Name != "foo" {
		t.Errorf("LBase; direct methods = %+v", base.DirectMethods)
	}
	if base.DirectMethods[0].Descriptor != "LBase;->foo()V" {
		t.Errorf("method descriptor = %q, want LBase;->foo()V", base.DirectMethods[0].Descriptor)
	}

	sub, ok := ctx.Classes["LSub;"]
	if !ok || sub.SuperDescriptor != "LBase;" {
		t.Fatalf("LSub; = %+v", sub)
	}
}

func TestContextSubclassesAndImplementers(t *testing.T) {
	ctx := NewContext()
	if err := ctx.AddDexFile("classes.dex", buildSampleDexFile()); err != nil {
		t.Fatalf("AddDexFile: %v", err)
	}

	subs := ctx.Subclasses("LBase;")
	if len(subs) != 1 || subs[0] != "LSub;" {
		t.Errorf("Subclasses(LBase;) = %v, want [LSub;]", subs)
	}
	impls := ctx.Implementers("LIface;")
	if len(impls) != 1 || impls[0] != "LOther;" {
		t.Errorf("Implementers(LIface;) = %v, want [LOther;]", impls)
	}
	if !ctx.IsSubclassOf("LSub;", "LBase;") {
		t.Errorf("IsSubclassOf(LSub;, LBase;) = false, want true")
	}
	if ctx.IsSubclassOf("LOther;", "LBase;") {
		t.Errorf("IsSubclassOf(LOther;, LBase;) = true, want false")
	}
}

func TestContextShadowsDuplicateDescriptor(t *testing.T) {
	ctx := NewContext()
	if err := ctx.AddDexFile("classes.dex", buildSampleDexFile()); err != nil {
		t.Fatalf("AddDexFile 1: %v", err)
	}
	if err := ctx.AddDexFile("classes2.dex", buildSampleDexFile()); err != nil {
		t.Fatalf("AddDexFile 2: %v", err)
	}
	if len(ctx.Shadows) != 3 {
		t.Errorf("got %d shadows, want 3 (one per class redefined by the second dex file)", len(ctx.Shadows))
	}
	for _, s := range ctx.Shadows {
		if !s.Shadow {
			t.Errorf("shadow class %s has Shadow=false", s.Descriptor)
		}
	}
	// The first definition must still be the one served by Classes.
	if ctx.Classes["LBase;"].DexIndex != 0 {
		t.Errorf("LBase; should resolve to the first dex file, got dex index %d", ctx.Classes["LBase;"].DexIndex)
	}
}

func TestIsPrimaryDex(t *testing.T) {
	cases := map[string]bool{
		"classes.dex":     true,
		"classes2.dex":    true,
		"classes10.dex":   true,
		"assets/foo.dex":  false,
		"notclasses.dex":  false,
	}
	for path, want := range cases {
		if got := IsPrimaryDex(path); got != want {
			t.Errorf("IsPrimaryDex(%q) = %v, want %v", path, got, want)
		}
	}
}
