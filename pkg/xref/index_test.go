package xref_test

import (
	"encoding/binary"
	"testing"

	"github.com/dexlens/dexlens/pkg/dex"
	"github.com/dexlens/dexlens/pkg/model"
	"github.com/dexlens/dexlens/pkg/xref"
)

// buildCodeItemBytes assembles a minimal tries-free code_item at offset
// 0 of the returned buffer: registers_size, ins_size, outs_size,
// tries_size=0, debug_info_off=0, insns_size, then the raw insns.
func buildCodeItemBytes(registersSize, insSize, outsSize uint16, insns []uint16) []byte {
	buf := make([]byte, 16+2*len(insns))
	binary.LittleEndian.PutUint16(buf[0:], registersSize)
	binary.LittleEndian.PutUint16(buf[2:], insSize)
	binary.LittleEndian.PutUint16(buf[4:], outsSize)
	binary.LittleEndian.PutUint16(buf[6:], 0) // tries_size
	binary.LittleEndian.PutUint32(buf[8:], 0) // debug_info_off
	binary.LittleEndian.PutUint32(buf[12:], uint32(len(insns)))
	for i, w := range insns {
		binary.LittleEndian.PutUint16(buf[16+2*i:], w)
	}
	return buf
}

func opWord(op, byte1 byte) uint16 {
	return uint16(op) | uint16(byte1)<<8
}

// buildProviderRegistrationDex builds a two-class context: MainActivity
// declares onCreate(), whose body invokes the static
// Security->addProvider() method, stores a marker string into its own
// static field, then returns. This is the S4 "BouncyCastleProvider
// registration" shape: a method reference and a field write, both
// attributable back to a specific call site inside onCreate.
func buildProviderRegistrationDex() *dex.DexFile {
	// invoke-static {}, Security->addProvider()V   (35c, op 0x71, A=0,G=0)
	// const-string v1, "BC"                         (21c, op 0x1a)
	// sput v1, MainActivity->flag:LMainActivity;     (21c, op 0x67)
	// return-void                                    (10x, op 0x0e)
	insns := []uint16{
		opWord(0x71, 0x00), 0x0000, 0x0000, // invoke-static, method idx 0
		opWord(0x1a, 0x01), 0x0002, // const-string v1, string idx 2
		opWord(0x67, 0x01), 0x0000, // sput v1, field idx 0
		opWord(0x0e, 0x00), // return-void
	}
	code := buildCodeItemBytes(2, 0, 0, insns)

	types := []string{"Lcom/example/MainActivity;", "Lcom/example/Security;"}
	strings_ := []string{"onCreate", "addProvider", "BC", "flag"}
	protos := []dex.Proto{{Shorty: "V", ReturnType: "V"}}
	fields := []dex.FieldID{{ClassIdx: 0, TypeIdx: 0, NameIdx: 3}}
	methods := []dex.MethodID{
		{ClassIdx: 1, ProtoIdx: 0, NameIdx: 1}, // Security->addProvider()V
		{ClassIdx: 0, ProtoIdx: 0, NameIdx: 0}, // MainActivity->onCreate()V
	}

	classDefs := []dex.ClassDef{
		{
			ClassIdx:      0,
			SuperclassIdx: -1,
			SourceFileIdx: -1,
			ClassData: dex.ClassData{
				StaticFields: []dex.EncodedField{{FieldIdx: 0, AccessFlags: dex.AccStatic}},
				DirectMethods: []dex.EncodedMethod{
					{MethodIdx: 1, AccessFlags: dex.AccPublic, CodeOff: 0},
				},
			},
		},
		{
			ClassIdx:      1,
			SuperclassIdx: -1,
			SourceFileIdx: -1,
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
		Data:      code,
	}
}

func buildSampleContext(t *testing.T) *model.Context {
	t.Helper()
	ctx := model.NewContext()
	if err := ctx.AddDexFile("classes.dex", buildProviderRegistrationDex()); err != nil {
		t.Fatalf("AddDexFile: %v", err)
	}
	return ctx
}

func TestIndexCiteSitesCoversEveryReferencedEntity(t *testing.T) {
	ctx := buildSampleContext(t)
	idx := xref.NewIndex(ctx)

	onCreate := ctx.Classes["Lcom/example/MainActivity;"].DirectMethods[0]

	methodSites := idx.CiteSites(xref.MethodKey("Lcom/example/Security;->addProvider()V"))
	if len(methodSites) != 1 {
		t.Fatalf("addProvider cite sites = %d, want 1", len(methodSites))
	}
	if methodSites[0].Method != onCreate {
		t.Errorf("addProvider site method = %v, want onCreate", methodSites[0].Method.Descriptor)
	}
	if methodSites[0].CodeIndex != 0 {
		t.Errorf("addProvider site code index = %d, want 0", methodSites[0].CodeIndex)
	}

	stringSites := idx.CiteSites(xref.StringKey("BC"))
	if len(stringSites) != 1 || stringSites[0].Method != onCreate {
		t.Errorf("string cite sites = %+v", stringSites)
	}

	fieldSites := idx.CiteSites(xref.FieldKey("Lcom/example/MainActivity;->flag:Lcom/example/MainActivity;"))
	if len(fieldSites) != 1 {
		t.Fatalf("field cite sites = %d, want 1", len(fieldSites))
	}
}

// TestIndexBouncyCastlePattern exercises scenario S4: a class
// registering a provider via a static addProvider() call is findable
// by its method descriptor, and cross-referencing that method turns up
// the call site inside the registering class's onCreate.
func TestIndexBouncyCastlePattern(t *testing.T) {
	ctx := buildSampleContext(t)
	idx := xref.NewIndex(ctx)

	// addProvider is only referenced here, never declared by a
	// class_data_item (the usual shape for a framework call): it must
	// still be findable purely by descriptor, with no *model.Method in
	// hand.
	sites := idx.CiteSites(xref.MethodKey("Lcom/example/Security;->addProvider()V"))
	if len(sites) != 1 {
		t.Fatalf("expected exactly one call site, got %d", len(sites))
	}
	if sites[0].Method.Name != "onCreate" {
		t.Errorf("call site method = %s, want onCreate", sites[0].Method.Name)
	}
}

func TestFieldAccessesReportsWrite(t *testing.T) {
	ctx := buildSampleContext(t)
	idx := xref.NewIndex(ctx)

	accesses := idx.FieldAccesses(xref.FieldKey("Lcom/example/MainActivity;->flag:Lcom/example/MainActivity;"))
	if len(accesses) != 1 {
		t.Fatalf("field accesses = %d, want 1", len(accesses))
	}
	if !accesses[0].IsWrite {
		t.Errorf("sput access reported as read")
	}
	if accesses[0].Field == nil || accesses[0].Field.Name != "flag" {
		t.Errorf("access field = %+v, want resolved field named flag", accesses[0].Field)
	}
}

func TestIndexBuildIsIdempotent(t *testing.T) {
	ctx := buildSampleContext(t)
	idx := xref.NewIndex(ctx)
	first := idx.CiteSites(xref.StringKey("BC"))
	second := idx.CiteSites(xref.StringKey("BC"))
	if len(first) != len(second) {
		t.Fatalf("CiteSites changed across calls: %d vs %d", len(first), len(second))
	}
}
