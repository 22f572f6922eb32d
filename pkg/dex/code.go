package dex

// parseCodeItem decodes a code_item at the given offset: register
// sizing, raw instruction words, and the exception handler tables. The
// instruction stream itself is left as raw 16-bit code units; decoding
// individual instructions is the disassembler's job.
func parseCodeItem(data []byte, off uint32) (CodeItem, error) {
	r := newReader(data, int(off))
	registersSize, err := r.u16("code_item.registers_size")
	if err != nil {
		return CodeItem{}, err
	}
	insSize, err := r.u16("code_item.ins_size")
	if err != nil {
		return CodeItem{}, err
	}
	outsSize, err := r.u16("code_item.outs_size")
	if err != nil {
		return CodeItem{}, err
	}
	triesSize, err := r.u16("code_item.tries_size")
	if err != nil {
		return CodeItem{}, err
	}
	debugInfoOff, err := r.u32("code_item.debug_info_off")
	if err != nil {
		return CodeItem{}, err
	}
	_ = debugInfoOff // debug_info_item (source positions/local variables) is out of scope
	insnsSize, err := r.u32("code_item.insns_size")
	if err != nil {
		return CodeItem{}, err
	}

	insns := make([]uint16, insnsSize)
	for i := uint32(0); i < insnsSize; i++ {
		w, err := r.u16("code_item.insns")
		if err != nil {
			return CodeItem{}, err
		}
		insns[i] = w
	}

	ci := CodeItem{RegistersSize: registersSize, InsSize: insSize, OutsSize: outsSize, Insns: insns}
	if triesSize == 0 {
		return ci, nil
	}

	// A code_item with tries has an implicit 2-byte padding word before
	// the tries_size try_item entries, present only when insns_size is
	// odd (to keep the following u4 fields aligned).
	if insnsSize%2 != 0 {
		if _, err := r.u16("code_item.padding"); err != nil {
			return CodeItem{}, err
		}
	}

	tries := make([]TryItem, triesSize)
	for i := uint16(0); i < triesSize; i++ {
		startAddr, err := r.u32("try_item.start_addr")
		if err != nil {
			return CodeItem{}, err
		}
		insnCount, err := r.u16("try_item.insn_count")
		if err != nil {
			return CodeItem{}, err
		}
		handlerOff, err := r.u16("try_item.handler_off")
		if err != nil {
			return CodeItem{}, err
		}
		tries[i] = TryItem{StartAddr: startAddr, InsnCount: insnCount, HandlerOff: handlerOff}
	}

	handlerListBase := r.offset()
	handlersCount, err := r.uleb128()
	if err != nil {
		return CodeItem{}, err
	}
	handlers := make([]EncodedCatchHandler, handlersCount)
	for i := uint32(0); i < handlersCount; i++ {
		handlerOffset := uint32(r.offset() - handlerListBase)
		h, err := readEncodedCatchHandler(r)
		if err != nil {
			return CodeItem{}, err
		}
		h.Offset = handlerOffset
		handlers[i] = h
	}
	ci.Tries = tries
	ci.Handlers = handlers
	_ = handlerListBase // try_item.handler_off is relative to this base; a caller matches it against EncodedCatchHandler.Offset
	return ci, nil
}

// readEncodedCatchHandler decodes one encoded_catch_handler: a SLEB128
// size whose sign distinguishes "has catch-all" (negative, abs value
// is the real count) from "no catch-all" (positive).
func readEncodedCatchHandler(r *reader) (EncodedCatchHandler, error) {
	size, err := r.sleb128()
	if err != nil {
		return EncodedCatchHandler{}, err
	}
	hasCatchAll := size <= 0
	count := size
	if count < 0 {
		count = -count
	}
	h := EncodedCatchHandler{Handlers: make([]EncodedTypeAddrPair, count)}
	for i := int64(0); i < count; i++ {
		typeIdx, err := r.uleb128()
		if err != nil {
			return EncodedCatchHandler{}, err
		}
		addr, err := r.uleb128()
		if err != nil {
			return EncodedCatchHandler{}, err
		}
		h.Handlers[i] = EncodedTypeAddrPair{TypeIdx: int32(typeIdx), Addr: addr}
	}
	if hasCatchAll {
		addr, err := r.uleb128()
		if err != nil {
			return EncodedCatchHandler{}, err
		}
		h.CatchAll = addr
		h.HasCatchAll = true
	}
	return h, nil
}
