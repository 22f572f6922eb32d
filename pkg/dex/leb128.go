package dex

// reader is a cursor over a DEX byte slice. All of the variable-width
// integer decoders the format uses (ULEB128, ULEB128p1, SLEB128) live
// here alongside the fixed-width little-endian readers.
type reader struct {
	data []byte
	pos  int
}

func newReader(data []byte, pos int) *reader {
	return &reader{data: data, pos: pos}
}

func (r *reader) offset() int { return r.pos }

func (r *reader) remaining() int { return len(r.data) - r.pos }

func (r *reader) need(n int, section string) error {
	if r.remaining() < n {
		return truncatedError(section, r.pos, n, r.remaining())
	}
	return nil
}

func (r *reader) u8(section string) (byte, error) {
	if err := r.need(1, section); err != nil {
		return 0, err
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

func (r *reader) u16(section string) (uint16, error) {
	if err := r.need(2, section); err != nil {
		return 0, err
	}
	v := uint16(r.data[r.pos]) | uint16(r.data[r.pos+1])<<8
	r.pos += 2
	return v, nil
}

func (r *reader) u32(section string) (uint32, error) {
	if err := r.need(4, section); err != nil {
		return 0, err
	}
	v := uint32(r.data[r.pos]) | uint32(r.data[r.pos+1])<<8 |
		uint32(r.data[r.pos+2])<<16 | uint32(r.data[r.pos+3])<<24
	r.pos += 4
	return v, nil
}

func (r *reader) u64(section string) (uint64, error) {
	if err := r.need(8, section); err != nil {
		return 0, err
	}
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(r.data[r.pos+i]) << (8 * uint(i))
	}
	r.pos += 8
	return v, nil
}

func (r *reader) bytes(n int, section string) ([]byte, error) {
	if err := r.need(n, section); err != nil {
		return nil, err
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// uleb128 decodes an unsigned LEB128 value (used for most size and
// count fields in the encoded sections of a DEX file).
func (r *reader) uleb128() (uint32, error) {
	var result uint32
	var shift uint
	start := r.pos
	for {
		if r.remaining() < 1 {
			return 0, newParseError(BadULEB128, start, "truncated uleb128")
		}
		b := r.data[r.pos]
		r.pos++
		result |= uint32(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
		if shift > 35 {
			return 0, newParseError(BadULEB128, start, "uleb128 too long")
		}
	}
}

// uleb128p1 decodes a ULEB128p1 value: the encoded value plus one, with
// 0 (i.e. encoded -1) used by DEX to mean "no value" (e.g. no source
// file, no superclass).
func (r *reader) uleb128p1() (int32, error) {
	v, err := r.uleb128()
	if err != nil {
		return 0, err
	}
	return int32(v) - 1, nil
}

// sleb128 decodes a signed LEB128 value (used for the signed size of
// an encoded_catch_handler; encoded_value integers use sized
// little-endian bytes instead).
func (r *reader) sleb128() (int64, error) {
	var result int64
	var shift uint
	start := r.pos
	var b byte
	for {
		if r.remaining() < 1 {
			return 0, newParseError(BadULEB128, start, "truncated sleb128")
		}
		b = r.data[r.pos]
		r.pos++
		result |= int64(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			break
		}
		if shift > 63 {
			return 0, newParseError(BadULEB128, start, "sleb128 too long")
		}
	}
	if shift < 64 && b&0x40 != 0 {
		result |= -(int64(1) << shift)
	}
	return result, nil
}
