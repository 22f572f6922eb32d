package dex

// Access flags shared by classes, fields, and methods, per the DEX
// spec's access_flags table.
const (
	AccPublic       = 0x1
	AccPrivate      = 0x2
	AccProtected    = 0x4
	AccStatic       = 0x8
	AccFinal        = 0x10
	AccSynchronized = 0x20
	AccVolatile     = 0x40
	AccBridge       = 0x40
	AccTransient    = 0x80
	AccVarargs      = 0x80
	AccNative       = 0x100
	AccInterface    = 0x200
	AccAbstract     = 0x400
	AccStrict       = 0x800
	AccSynthetic    = 0x1000
	AccAnnotation   = 0x2000
	AccEnum         = 0x4000
	AccConstructor  = 0x10000
)

const (
	magicPrefix = "dex\n"
	endianTag   = 0x12345678
	noIndex     = 0xFFFFFFFF
)

// Header is the fixed 0x70-byte DEX file header.
type Header struct {
	Version         string
	Checksum        uint32
	SHA1            [20]byte
	FileSize        uint32
	HeaderSize      uint32
	EndianTag       uint32
	LinkSize        uint32
	LinkOff         uint32
	MapOff          uint32
	StringIDsSize   uint32
	StringIDsOff    uint32
	TypeIDsSize     uint32
	TypeIDsOff      uint32
	ProtoIDsSize    uint32
	ProtoIDsOff     uint32
	FieldIDsSize    uint32
	FieldIDsOff     uint32
	MethodIDsSize   uint32
	MethodIDsOff    uint32
	ClassDefsSize   uint32
	ClassDefsOff    uint32
	DataSize        uint32
	DataOff         uint32
}

// TypeID is an index into the type pool.
type TypeID uint32

// ProtoID holds a method prototype's raw indices before resolution.
type ProtoID struct {
	ShortyIdx     uint32
	ReturnTypeIdx TypeID
	ParamListOff  uint32
}

// Proto is a resolved method prototype.
type Proto struct {
	Shorty     string
	ReturnType string
	ParamTypes []string
}

// FieldID is the raw (class, type, name) triple for a field reference.
type FieldID struct {
	ClassIdx TypeID
	TypeIdx  TypeID
	NameIdx  uint32
}

// MethodID is the raw (class, proto, name) triple for a method
// reference.
type MethodID struct {
	ClassIdx TypeID
	ProtoIdx uint32
	NameIdx  uint32
}

// EncodedField is a field declared by a class, as stored in the
// ULEB128-delta-encoded class_data_item.
type EncodedField struct {
	FieldIdx    uint32 // absolute index, after delta decoding
	AccessFlags uint32
}

// EncodedMethod is a method declared by a class, as stored in
// class_data_item. CodeOff is 0 when the method has no code (abstract
// or native).
type EncodedMethod struct {
	MethodIdx   uint32
	AccessFlags uint32
	CodeOff     uint32
}

// TryItem is one entry of a code item's exception try-block table.
type TryItem struct {
	StartAddr  uint32
	InsnCount  uint16
	HandlerOff uint16
}

// EncodedTypeAddrPair maps an exception type to its handler address.
// The catch-all handler is not stored as a pair; see
// EncodedCatchHandler.CatchAll.
type EncodedTypeAddrPair struct {
	TypeIdx int32
	Addr    uint32
}

// EncodedCatchHandler is the list of typed handlers (plus optional
// catch-all address) reachable from one try item. Offset is this
// handler's byte position relative to the encoded_catch_handler_list's
// own start, the same value a TryItem.HandlerOff names, so a caller
// can map one to the other without assuming declaration order.
type EncodedCatchHandler struct {
	Offset      uint32
	Handlers    []EncodedTypeAddrPair
	CatchAll    uint32
	HasCatchAll bool
}

// CodeItem is a method's register/stack sizing plus its raw
// instruction stream and exception tables.
type CodeItem struct {
	RegistersSize uint16
	InsSize       uint16
	OutsSize      uint16
	Insns         []uint16 // raw code units, big enough for the disassembler
	Tries         []TryItem
	Handlers      []EncodedCatchHandler
}

// ClassData is the parsed class_data_item: static/instance fields and
// direct/virtual methods, already delta-decoded to absolute indices.
type ClassData struct {
	StaticFields   []EncodedField
	InstanceFields []EncodedField
	DirectMethods  []EncodedMethod
	VirtualMethods []EncodedMethod
}

// ClassDef is one class_def_item plus its resolved class_data_item and
// static initial values.
type ClassDef struct {
	ClassIdx      TypeID
	AccessFlags   uint32
	SuperclassIdx int32 // -1 if none (only java.lang.Object)
	Interfaces    []TypeID
	SourceFileIdx int32 // -1 if unknown
	Annotations   *AnnotationsDirectory
	ClassData     ClassData
	StaticValues  []EncodedValue
}
