package dex

// parseStringIDs reads the string_ids table: each entry is a u4 offset
// into the data section pointing at a string_data_item (ULEB128
// utf16_size followed by MUTF-8 bytes, NUL terminated).
func parseStringIDs(data []byte, off, count uint32) ([]string, error) {
	strs := make([]string, count)
	idr := newReader(data, int(off))
	for i := uint32(0); i < count; i++ {
		dataOff, err := idr.u32("string_ids")
		if err != nil {
			return nil, err
		}
		sr := newReader(data, int(dataOff))
		utf16Size, err := sr.uleb128()
		if err != nil {
			return nil, err
		}
		_ = utf16Size // the decoded rune count is used only as a sanity cross-check below
		start := sr.offset()
		end := start
		for end < len(data) && data[end] != 0 {
			end++
		}
		if end >= len(data) {
			return nil, truncatedError("string_data_item", start, 1, 0)
		}
		strs[i] = decodeMUTF8(data[start:end])
		if uint32(mutf8Len(strs[i])) != utf16Size {
			// Lenient: a mismatch here indicates an exotic surrogate
			// encoding, not a corrupt file; keep the decoded string.
			_ = i
		}
	}
	return strs, nil
}

// parseTypeIDs reads the type_ids table: each entry is a u4 index into
// the string pool naming the type's descriptor.
func parseTypeIDs(data []byte, off, count uint32, strings_ []string) ([]string, error) {
	types := make([]string, count)
	r := newReader(data, int(off))
	for i := uint32(0); i < count; i++ {
		idx, err := r.u32("type_ids")
		if err != nil {
			return nil, err
		}
		if int(idx) >= len(strings_) {
			return nil, newParseError(PoolIndexOutOfRange, r.offset(), "type_ids[%d] -> string %d", i, idx)
		}
		types[i] = strings_[idx]
	}
	return types, nil
}

// parseProtoIDs reads the proto_ids table.
func parseProtoIDs(data []byte, off, count uint32, strings_, types []string) ([]Proto, error) {
	protos := make([]Proto, count)
	r := newReader(data, int(off))
	for i := uint32(0); i < count; i++ {
		shortyIdx, err := r.u32("proto_ids.shorty")
		if err != nil {
			return nil, err
		}
		retTypeIdx, err := r.u32("proto_ids.return_type")
		if err != nil {
			return nil, err
		}
		paramsOff, err := r.u32("proto_ids.parameters_off")
		if err != nil {
			return nil, err
		}
		if int(shortyIdx) >= len(strings_) || int(retTypeIdx) >= len(types) {
			return nil, newParseError(PoolIndexOutOfRange, r.offset(), "proto_ids[%d]", i)
		}
		p := Proto{Shorty: strings_[shortyIdx], ReturnType: types[retTypeIdx]}
		if paramsOff != 0 {
			params, err := parseTypeList(data, paramsOff, types)
			if err != nil {
				return nil, err
			}
			p.ParamTypes = params
		}
		protos[i] = p
	}
	return protos, nil
}

// parseTypeList decodes a type_list: u4 size followed by that many u2
// type indices, used for both proto parameters and class interfaces.
func parseTypeList(data []byte, off uint32, types []string) ([]string, error) {
	r := newReader(data, int(off))
	size, err := r.u32("type_list.size")
	if err != nil {
		return nil, err
	}
	out := make([]string, size)
	for i := uint32(0); i < size; i++ {
		idx, err := r.u16("type_list.entry")
		if err != nil {
			return nil, err
		}
		if int(idx) >= len(types) {
			return nil, newParseError(PoolIndexOutOfRange, r.offset(), "type_list[%d] -> type %d", i, idx)
		}
		out[i] = types[idx]
	}
	return out, nil
}

func parseFieldIDs(data []byte, off, count uint32) ([]FieldID, error) {
	out := make([]FieldID, count)
	r := newReader(data, int(off))
	for i := uint32(0); i < count; i++ {
		classIdx, err := r.u16("field_ids.class")
		if err != nil {
			return nil, err
		}
		typeIdx, err := r.u16("field_ids.type")
		if err != nil {
			return nil, err
		}
		nameIdx, err := r.u32("field_ids.name")
		if err != nil {
			return nil, err
		}
		out[i] = FieldID{ClassIdx: TypeID(classIdx), TypeIdx: TypeID(typeIdx), NameIdx: nameIdx}
	}
	return out, nil
}

func parseMethodIDs(data []byte, off, count uint32) ([]MethodID, error) {
	out := make([]MethodID, count)
	r := newReader(data, int(off))
	for i := uint32(0); i < count; i++ {
		classIdx, err := r.u16("method_ids.class")
		if err != nil {
			return nil, err
		}
		protoIdx, err := r.u16("method_ids.proto")
		if err != nil {
			return nil, err
		}
		nameIdx, err := r.u32("method_ids.name")
		if err != nil {
			return nil, err
		}
		out[i] = MethodID{ClassIdx: TypeID(classIdx), ProtoIdx: uint32(protoIdx), NameIdx: nameIdx}
	}
	return out, nil
}
