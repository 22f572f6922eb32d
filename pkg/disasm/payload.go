package disasm

import "fmt"

const (
	identPackedSwitch   = 0x0100
	identSparseSwitch   = 0x0200
	identFillArrayData  = 0x0300
)

// PackedSwitchPayload is the pseudo-instruction a packed-switch
// instruction's branch offset points at: a contiguous run of keys
// starting at FirstKey, each with a code-unit-relative branch target.
type PackedSwitchPayload struct {
	FirstKey int32
	Targets  []int32 // relative to the packed-switch instruction's own code index
	Width    int     // size in 16-bit code units, for advancing past it
}

// SparseSwitchPayload is sparse-switch's payload: explicit (key,
// target) pairs, keys in ascending order.
type SparseSwitchPayload struct {
	Keys     []int32
	Targets  []int32
	Width    int
}

// FillArrayDataPayload is fill-array-data's payload: a flat byte
// buffer to be copied into a newly allocated array, interpreted
// ElementWidth bytes at a time.
type FillArrayDataPayload struct {
	ElementWidth int
	Data         []byte
	Width        int
}

// payloadIdent returns the pseudo-opcode identifier at insns[pos], or
// 0 if pos does not point at a recognized payload.
func payloadIdent(insns []uint16, pos int) uint16 {
	if pos >= len(insns) {
		return 0
	}
	return insns[pos]
}

func parsePackedSwitchPayload(insns []uint16, pos int) (PackedSwitchPayload, error) {
	if err := need(insns, pos, 2); err != nil {
		return PackedSwitchPayload{}, err
	}
	size := int(insns[pos+1])
	width := 4 + size*2
	if err := need(insns, pos, width); err != nil {
		return PackedSwitchPayload{}, err
	}
	firstKey := int32(insns[pos+2]) | int32(insns[pos+3])<<16
	targets := make([]int32, size)
	base := pos + 4
	for i := 0; i < size; i++ {
		off := base + i*2
		targets[i] = int32(insns[off]) | int32(insns[off+1])<<16
	}
	return PackedSwitchPayload{FirstKey: firstKey, Targets: targets, Width: width}, nil
}

func parseSparseSwitchPayload(insns []uint16, pos int) (SparseSwitchPayload, error) {
	if err := need(insns, pos, 2); err != nil {
		return SparseSwitchPayload{}, err
	}
	size := int(insns[pos+1])
	width := 2 + size*4
	if err := need(insns, pos, width); err != nil {
		return SparseSwitchPayload{}, err
	}
	keys := make([]int32, size)
	keyBase := pos + 2
	for i := 0; i < size; i++ {
		off := keyBase + i*2
		keys[i] = int32(insns[off]) | int32(insns[off+1])<<16
	}
	targetBase := keyBase + size*2
	targets := make([]int32, size)
	for i := 0; i < size; i++ {
		off := targetBase + i*2
		targets[i] = int32(insns[off]) | int32(insns[off+1])<<16
	}
	return SparseSwitchPayload{Keys: keys, Targets: targets, Width: width}, nil
}

func parseFillArrayDataPayload(insns []uint16, pos int) (FillArrayDataPayload, error) {
	if err := need(insns, pos, 4); err != nil {
		return FillArrayDataPayload{}, err
	}
	elemWidth := int(insns[pos+1])
	size := uint32(insns[pos+2]) | uint32(insns[pos+3])<<16
	dataUnits := (int(size)*elemWidth + 1) / 2
	width := 4 + dataUnits
	if err := need(insns, pos, width); err != nil {
		return FillArrayDataPayload{}, err
	}
	data := make([]byte, 0, int(size)*elemWidth)
	for i := 0; i < dataUnits; i++ {
		u := insns[pos+4+i]
		data = append(data, byte(u), byte(u>>8))
	}
	data = data[:int(size)*elemWidth]
	return FillArrayDataPayload{ElementWidth: elemWidth, Data: data, Width: width}, nil
}

func isPayloadIdent(ident uint16) bool {
	switch ident {
	case identPackedSwitch, identSparseSwitch, identFillArrayData:
		return true
	default:
		return false
	}
}

func payloadName(ident uint16) string {
	switch ident {
	case identPackedSwitch:
		return "packed-switch-payload"
	case identSparseSwitch:
		return "sparse-switch-payload"
	case identFillArrayData:
		return "fill-array-data-payload"
	default:
		return fmt.Sprintf("unknown-payload(0x%04x)", ident)
	}
}
