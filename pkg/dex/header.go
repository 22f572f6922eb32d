package dex

import "fmt"

func parseHeader(r *reader) (*Header, error) {
	magic, err := r.bytes(8, "header.magic")
	if err != nil {
		return nil, err
	}
	if string(magic[:4]) != magicPrefix {
		return nil, newParseError(BadMagic, 0, "got %q", magic[:4])
	}
	version := string(magic[4:7])
	if magic[7] != 0 {
		return nil, newParseError(BadMagic, 7, "version not nul-terminated")
	}

	h := &Header{Version: version}
	if h.Checksum, err = r.u32("header.checksum"); err != nil {
		return nil, err
	}
	sha1, err := r.bytes(20, "header.signature")
	if err != nil {
		return nil, err
	}
	copy(h.SHA1[:], sha1)

	fields := []*uint32{
		&h.FileSize, &h.HeaderSize, &h.EndianTag,
		&h.LinkSize, &h.LinkOff, &h.MapOff,
		&h.StringIDsSize, &h.StringIDsOff,
		&h.TypeIDsSize, &h.TypeIDsOff,
		&h.ProtoIDsSize, &h.ProtoIDsOff,
		&h.FieldIDsSize, &h.FieldIDsOff,
		&h.MethodIDsSize, &h.MethodIDsOff,
		&h.ClassDefsSize, &h.ClassDefsOff,
		&h.DataSize, &h.DataOff,
	}
	for _, f := range fields {
		v, err := r.u32("header.field")
		if err != nil {
			return nil, err
		}
		*f = v
	}

	if h.EndianTag != endianTag {
		return nil, newParseError(BadMagic, 40, "endian_tag 0x%08x != 0x%08x (big-endian DEX is not supported)", h.EndianTag, endianTag)
	}
	if !supportedVersion(version) {
		return nil, newParseError(UnsupportedVersion, 4, "version %q", version)
	}
	return h, nil
}

func supportedVersion(v string) bool {
	switch v {
	case "035", "036", "037", "038", "039":
		return true
	default:
		return false
	}
}

func (h *Header) String() string {
	return fmt.Sprintf("dex %s (classes=%d strings=%d)", h.Version, h.ClassDefsSize, h.StringIDsSize)
}
