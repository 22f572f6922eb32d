package dex

import (
	"encoding/binary"
	"testing"
)

// buildMinimalDex assembles a tiny but structurally valid DEX file by
// hand: two strings, one type, and no classes. There is no public DEX
// encoder to lean on, so tests construct their fixtures directly
// rather than shipping binary testdata.
func buildMinimalDex(t *testing.T) []byte {
	t.Helper()

	const headerSize = 0x70
	stringIDsOff := uint32(headerSize)
	stringIDsSize := uint32(2)
	typeIDsOff := stringIDsOff + stringIDsSize*4
	typeIDsSize := uint32(1)
	dataOff := typeIDsOff + typeIDsSize*4

	// string_data_item: uleb128(utf16_size) + mutf8 bytes + NUL.
	str0 := append(uleb128Bytes(5), append([]byte("Hello"), 0)...)
	str1 := append(uleb128Bytes(7), append([]byte("LHello;"), 0)...)

	str0Off := dataOff
	str1Off := str0Off + uint32(len(str0))
	dataSize := uint32(len(str0) + len(str1))
	fileSize := str1Off + uint32(len(str1))

	buf := make([]byte, fileSize)
	copy(buf[0:4], []byte("dex\n"))
	copy(buf[4:7], []byte("035"))
	buf[7] = 0
	// checksum (8:12) and signature (12:32) are left zero; parseHeader
	// does not verify them.
	binary.LittleEndian.PutUint32(buf[32:36], fileSize)  // file_size
	binary.LittleEndian.PutUint32(buf[36:40], headerSize) // header_size
	binary.LittleEndian.PutUint32(buf[40:44], endianTag)
	// link_size/off, map_off left zero
	binary.LittleEndian.PutUint32(buf[56:60], stringIDsSize)
	binary.LittleEndian.PutUint32(buf[60:64], stringIDsOff)
	binary.LittleEndian.PutUint32(buf[64:68], typeIDsSize)
	binary.LittleEndian.PutUint32(buf[68:72], typeIDsOff)
	// proto/field/method_ids and class_defs all size 0, offsets point at dataOff
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
	binary.LittleEndian.PutUint32(buf[typeIDsOff:typeIDsOff+4], 1) // type 0 -> string 1

	copy(buf[str0Off:], str0)
	copy(buf[str1Off:], str1)
	return buf
}

func uleb128Bytes(v uint32) []byte {
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

func TestParseMinimalDex(t *testing.T) {
	data := buildMinimalDex(t)
	dx, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if dx.Header.Version != "035" {
		t.Errorf("version: got %q, want %q", dx.Header.Version, "035")
	}
	if len(dx.Strings) != 2 || dx.Strings[0] != "Hello" || dx.Strings[1] != "LHello;" {
		t.Errorf("strings: got %v", dx.Strings)
	}
	if len(dx.Types) != 1 || dx.Types[0] != "LHello;" {
		t.Errorf("types: got %v", dx.Types)
	}
	if len(dx.ClassDefs) != 0 {
		t.Errorf("class_defs: got %d, want 0", len(dx.ClassDefs))
	}
}

func TestParseInvalidMagic(t *testing.T) {
	data := []byte{0xDE, 0xAD, 0xBE, 0xEF, 0, 0, 0, 0}
	if _, err := Parse(data); err == nil {
		t.Error("expected error for invalid magic, got nil")
	}
}

func TestParseRejectsBigEndian(t *testing.T) {
	data := buildMinimalDex(t)
	// Flip the endian_tag field to the big-endian value.
	binary.LittleEndian.PutUint32(data[40:44], 0x78563412)
	if _, err := Parse(data); err == nil {
		t.Error("expected error for big-endian endian_tag, got nil")
	}
}

func TestParseTruncated(t *testing.T) {
	data := buildMinimalDex(t)
	if _, err := Parse(data[:10]); err == nil {
		t.Error("expected error for truncated header, got nil")
	}
}
