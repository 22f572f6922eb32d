package query

import (
	"errors"
	"testing"

	"github.com/dexlens/dexlens/pkg/dex"
	"github.com/dexlens/dexlens/pkg/model"
	"github.com/dexlens/dexlens/pkg/vm"
)

// staticMethod mirrors pkg/vm's own test helper: a hand-assembled
// static method with no ins, skipping the binary reader entirely.
func staticMethod(class *model.Class, name, descriptor string, registersSize uint16, insns []uint16) *model.Method {
	m := &model.Method{
		Descriptor:  class.Descriptor + "->" + name + descriptor,
		Name:        name,
		AccessFlags: dex.AccStatic,
		Class:       class,
		HasCode:     true,
		Code: dex.CodeItem{
			RegistersSize: registersSize,
			Insns:         insns,
		},
	}
	class.DirectMethods = append(class.DirectMethods, m)
	return m
}

func twoPlusThreeContext() (*model.Context, *model.Method) {
	class := &model.Class{Descriptor: "LArith;"}
	method := staticMethod(class, "twoPlusThree", "()I", 2, []uint16{
		0x2012, // const/4 v0, #2
		0x3112, // const/4 v1, #3
		0x10b0, // add-int/2addr v0, v1
		0x000f, // return v0
	})
	ctx := model.NewContext()
	ctx.Classes = map[string]*model.Class{"LArith;": class}
	return ctx, method
}

func TestEngineFindMethodByName(t *testing.T) {
	ctx, _ := twoPlusThreeContext()
	e := NewEngine(ctx, nil)

	got, err := e.Find("twoPlusThree", KindMethod)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len(got) = %d, want 1", len(got))
	}
	m, err := got[0].AsMethod()
	if err != nil {
		t.Fatalf("AsMethod: %v", err)
	}
	if m.Name != "twoPlusThree" {
		t.Errorf("Name = %q, want twoPlusThree", m.Name)
	}
}

func TestEngineFindNoMatchIsNotFound(t *testing.T) {
	ctx, _ := twoPlusThreeContext()
	e := NewEngine(ctx, nil)

	_, err := e.Find("nothingLikeThis", KindMethod)
	if err == nil {
		t.Fatal("Find: want error, got nil")
	}
	var qe *Error
	if !errors.As(err, &qe) || qe.Kind != ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestEngineFindBadPatternIsParseError(t *testing.T) {
	ctx, _ := twoPlusThreeContext()
	e := NewEngine(ctx, nil)

	_, err := e.Find("(unclosed", KindMethod)
	var qe *Error
	if !errors.As(err, &qe) || qe.Kind != ErrParse {
		t.Errorf("err = %v, want ErrParse", err)
	}
}

func TestEngineCrossReferencesClass(t *testing.T) {
	// LUser;->makeId()I calls LId;->next()I, so LId; should turn up one
	// cross-reference site: the invoke-static at the caller.
	df := &dex.DexFile{
		Strings: []string{"next"},
		Types:   []string{"LId;", "I"},
		Protos:  []dex.Proto{{Shorty: "I", ReturnType: "I"}},
		Methods: []dex.MethodID{{ClassIdx: 0, ProtoIdx: 0, NameIdx: 0}},
	}
	idClass := &model.Class{Descriptor: "LId;", DexFile: df}
	next := &model.Method{
		Descriptor:  "LId;->next()I",
		Name:        "next",
		AccessFlags: dex.AccStatic,
		Proto:       dex.Proto{Shorty: "I", ReturnType: "I"},
		Class:       idClass,
		HasCode:     true,
		Code:        dex.CodeItem{RegistersSize: 1, Insns: []uint16{0x0012, 0x000f}},
	}
	idClass.DirectMethods = append(idClass.DirectMethods, next)

	userClass := &model.Class{Descriptor: "LUser;", DexFile: df}
	makeId := &model.Method{
		Descriptor:  "LUser;->makeId()I",
		Name:        "makeId",
		AccessFlags: dex.AccStatic,
		Proto:       dex.Proto{Shorty: "I", ReturnType: "I"},
		Class:       userClass,
		HasCode:     true,
		Code: dex.CodeItem{
			RegistersSize: 1,
			Insns: []uint16{
				0x0071, 0x0000, 0x0000, // invoke-static {}, LId;->next()I
				0x000a, // move-result v0
				0x000f, // return v0
			},
		},
	}
	userClass.DirectMethods = append(userClass.DirectMethods, makeId)

	ctx := model.NewContext()
	ctx.Classes = map[string]*model.Class{"LId;": idClass, "LUser;": userClass}
	e := NewEngine(ctx, nil)

	cls, err := e.Find("LId;", KindClass)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}

	sites, err := e.CrossReferences(cls[0])
	if err != nil {
		t.Fatalf("CrossReferences: %v", err)
	}
	if len(sites) != 1 {
		t.Fatalf("len(sites) = %d, want 1", len(sites))
	}
	site, err := sites[0].AsSite()
	if err != nil {
		t.Fatalf("AsSite: %v", err)
	}
	if site.Method.Descriptor != "LUser;->makeId()I" {
		t.Errorf("site.Method = %q, want LUser;->makeId()I", site.Method.Descriptor)
	}
}

func TestEngineCrossReferencesWrongKindIsTypeMismatch(t *testing.T) {
	ctx, _ := twoPlusThreeContext()
	e := NewEngine(ctx, nil)

	_, err := e.CrossReferences(Evidence{Kind: KindSite})
	var qe *Error
	if !errors.As(err, &qe) || qe.Kind != ErrTypeMismatch {
		t.Errorf("err = %v, want ErrTypeMismatch", err)
	}
}

func TestEngineEmulateReturnsResult(t *testing.T) {
	ctx, method := twoPlusThreeContext()
	e := NewEngine(ctx, nil)

	got, err := e.Emulate(method, nil)
	if err != nil {
		t.Fatalf("Emulate: %v", err)
	}
	if got.Kind != vm.Int || got.Int32() != 5 {
		t.Errorf("result = %+v, want Int(5)", got)
	}
}

func TestEngineEmulateUncaughtThrowIsVmError(t *testing.T) {
	class := &model.Class{Descriptor: "LBad;"}
	method := staticMethod(class, "divZero", "()I", 3, []uint16{
		0x1012, // const/4 v0, #1
		0x0112, // const/4 v1, #0
		0x0293, 0x0100, // div-int v2, v0, v1
		0x020f, // return v2
	})
	ctx := model.NewContext()
	ctx.Classes = map[string]*model.Class{"LBad;": class}
	e := NewEngine(ctx, nil)

	_, err := e.Emulate(method, nil)
	var qe *Error
	if !errors.As(err, &qe) || qe.Kind != ErrVm {
		t.Errorf("err = %v, want ErrVm", err)
	}
}

func TestEngineAnalyseBranchesDeadBranch(t *testing.T) {
	class := &model.Class{Descriptor: "LPick;"}
	method := staticMethod(class, "pick", "()I", 3, []uint16{
		0x1012,         // 0: const/4 v0, #1
		0x2112,         // 1: const/4 v1, #2
		0x1032, 0x0005, // 2: if-eq v0, v1, +5
		0x0213, 0x000a, // 4: const/16 v2, #10
		0x020f,         // 6: return v2
		0x0213, 0x0014, // 7: const/16 v2, #20
		0x020f, // 9: return v2
	})
	ctx := model.NewContext()
	ctx.Classes = map[string]*model.Class{"LPick;": class}
	e := NewEngine(ctx, nil)

	result, err := e.AnalyseBranches(method, false)
	if err != nil {
		t.Fatalf("AnalyseBranches: %v", err)
	}
	if len(result.Branches) != 1 {
		t.Fatalf("len(Branches) = %d, want 1", len(result.Branches))
	}
}

func TestEngineGetStaticFieldNotFound(t *testing.T) {
	ctx, _ := twoPlusThreeContext()
	e := NewEngine(ctx, nil)

	_, err := e.GetStaticField("LNoSuch;->x:I")
	var qe *Error
	if !errors.As(err, &qe) || qe.Kind != ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestEvidenceDowncastMismatch(t *testing.T) {
	ev := Evidence{Kind: KindClass, Class: &model.Class{Descriptor: "LX;"}}
	if _, err := ev.AsMethod(); err == nil {
		t.Fatal("AsMethod: want error for class-kind Evidence")
	}
	if _, err := ev.AsClass(); err != nil {
		t.Errorf("AsClass: unexpected error %v", err)
	}
}
