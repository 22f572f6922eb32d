package apk

import (
	"archive/zip"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// buildMinimalDex assembles a tiny but structurally valid DEX file by
// hand (two strings, one type, no classes) — the same layout
// pkg/dex's own parser_test.go builds, since that helper is test-only
// code in another package and there is no exported DEX encoder.
func buildMinimalDex(t *testing.T) []byte {
	t.Helper()

	const headerSize = 0x70
	const endianTag = 0x12345678
	stringIDsOff := uint32(headerSize)
	stringIDsSize := uint32(2)
	typeIDsOff := stringIDsOff + stringIDsSize*4
	typeIDsSize := uint32(1)
	dataOff := typeIDsOff + typeIDsSize*4

	str0 := append(uleb128Byte(5), append([]byte("Hello"), 0)...)
	str1 := append(uleb128Byte(7), append([]byte("LHello;"), 0)...)

	str0Off := dataOff
	str1Off := str0Off + uint32(len(str0))
	dataSize := uint32(len(str0) + len(str1))
	fileSize := str1Off + uint32(len(str1))

	buf := make([]byte, fileSize)
	copy(buf[0:4], []byte("dex\n"))
	copy(buf[4:7], []byte("035"))
	buf[7] = 0
	binary.LittleEndian.PutUint32(buf[32:36], fileSize)
	binary.LittleEndian.PutUint32(buf[36:40], headerSize)
	binary.LittleEndian.PutUint32(buf[40:44], endianTag)
	binary.LittleEndian.PutUint32(buf[56:60], stringIDsSize)
	binary.LittleEndian.PutUint32(buf[60:64], stringIDsOff)
	binary.LittleEndian.PutUint32(buf[64:68], typeIDsSize)
	binary.LittleEndian.PutUint32(buf[68:72], typeIDsOff)
	binary.LittleEndian.PutUint32(buf[72:76], 0)
	binary.LittleEndian.PutUint32(buf[76:80], dataOff)
	binary.LittleEndian.PutUint32(buf[80:84], 0)
	binary.LittleEndian.PutUint32(buf[84:88], dataOff)
	binary.LittleEndian.PutUint32(buf[88:92], 0)
	binary.LittleEndian.PutUint32(buf[92:96], dataOff)
	binary.LittleEndian.PutUint32(buf[96:100], 0)
	binary.LittleEndian.PutUint32(buf[100:104], dataOff)
	binary.LittleEndian.PutUint32(buf[104:108], dataSize)
	binary.LittleEndian.PutUint32(buf[108:112], dataOff)

	binary.LittleEndian.PutUint32(buf[stringIDsOff:stringIDsOff+4], str0Off)
	binary.LittleEndian.PutUint32(buf[stringIDsOff+4:stringIDsOff+8], str1Off)
	binary.LittleEndian.PutUint32(buf[typeIDsOff:typeIDsOff+4], 1)

	copy(buf[str0Off:], str0)
	copy(buf[str1Off:], str1)
	return buf
}

func uleb128Byte(v uint32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			out = append(out, b|0x80)
		} else {
			out = append(out, b)
			break
		}
	}
	return out
}

func TestLoadParsesDexAndIndexesLibs(t *testing.T) {
	dexBytes := buildMinimalDex(t)

	dir := t.TempDir()
	apkPath := filepath.Join(dir, "app.apk")
	f, err := os.Create(apkPath)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	zw := zip.NewWriter(f)
	w, err := zw.Create("classes.dex")
	if err != nil {
		t.Fatalf("Create(classes.dex): %v", err)
	}
	if _, err := w.Write(dexBytes); err != nil {
		t.Fatalf("Write(classes.dex): %v", err)
	}
	w, err = zw.Create("lib/arm64-v8a/libfoo.so")
	if err != nil {
		t.Fatalf("Create(libfoo.so): %v", err)
	}
	if _, err := w.Write([]byte("not parsed by Load itself")); err != nil {
		t.Fatalf("Write(libfoo.so): %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zw.Close: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("f.Close: %v", err)
	}

	loaded, err := Load(apkPath, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Context.DexFiles) != 1 {
		t.Fatalf("len(DexFiles) = %d, want 1", len(loaded.Context.DexFiles))
	}
	if loaded.Context.ParseErrors != nil {
		t.Errorf("ParseErrors = %v, want nil", loaded.Context.ParseErrors)
	}

	if _, err := loaded.Natives.Symbols("lib/arm64-v8a/libfoo.so"); err == nil {
		t.Error("Symbols: want error, libfoo.so bytes are not a real ELF file")
	}
}

func TestLoadRecordsPerDexParseFailureWithoutAborting(t *testing.T) {
	dir := t.TempDir()
	apkPath := filepath.Join(dir, "app.apk")
	data := buildZip(t, map[string]string{
		"classes.dex":  string(buildMinimalDex(t)),
		"classes2.dex": "not a valid dex file",
	})
	if err := os.WriteFile(apkPath, data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	loaded, err := Load(apkPath, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Context.DexFiles) != 1 {
		t.Fatalf("len(DexFiles) = %d, want 1 (classes2.dex should be skipped, not fatal)", len(loaded.Context.DexFiles))
	}
	if loaded.Context.ParseErrors == nil {
		t.Fatal("ParseErrors: want a recorded failure for classes2.dex")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.apk"), nil); err == nil {
		t.Fatal("Load: want error for nonexistent file")
	}
}
