package dex

import "github.com/pkg/errors"

// Parse decodes a complete classes.dex file from memory. It is strict
// about the header (magic, endian tag, version) and about pool index
// bounds, since a corrupt pool reference makes every downstream lookup
// unsafe; it is lenient about anything the disassembler itself can
// tolerate, such as unrecognized opcode bytes, which are left for
// pkg/disasm to report per-instruction rather than aborting the whole
// file.
func Parse(data []byte) (*DexFile, error) {
	hr := newReader(data, 0)
	header, err := parseHeader(hr)
	if err != nil {
		return nil, errors.Wrap(err, "dex: parsing header")
	}

	strs, err := parseStringIDs(data, header.StringIDsOff, header.StringIDsSize)
	if err != nil {
		return nil, errors.Wrap(err, "dex: parsing string_ids")
	}
	types, err := parseTypeIDs(data, header.TypeIDsOff, header.TypeIDsSize, strs)
	if err != nil {
		return nil, errors.Wrap(err, "dex: parsing type_ids")
	}
	protos, err := parseProtoIDs(data, header.ProtoIDsOff, header.ProtoIDsSize, strs, types)
	if err != nil {
		return nil, errors.Wrap(err, "dex: parsing proto_ids")
	}
	fields, err := parseFieldIDs(data, header.FieldIDsOff, header.FieldIDsSize)
	if err != nil {
		return nil, errors.Wrap(err, "dex: parsing field_ids")
	}
	methods, err := parseMethodIDs(data, header.MethodIDsOff, header.MethodIDsSize)
	if err != nil {
		return nil, errors.Wrap(err, "dex: parsing method_ids")
	}
	classDefs, err := parseClassDefs(data, header.ClassDefsOff, header.ClassDefsSize)
	if err != nil {
		return nil, errors.Wrap(err, "dex: parsing class_defs")
	}

	return &DexFile{
		Header:    header,
		Strings:   strs,
		Types:     types,
		Protos:    protos,
		Fields:    fields,
		Methods:   methods,
		ClassDefs: classDefs,
		Data:      data,
	}, nil
}
