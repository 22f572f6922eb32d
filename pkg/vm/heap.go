package vm

// ObjectId is an index into a Heap's arena, never a pointer — per the
// determinism requirement, allocation is a monotonic per-VM counter,
// never derived from hashing or memory addresses.
type ObjectId uint64

// Object is a heap-resident class instance or array. Arrays use
// Elements/ElemKind and leave Fields nil; ordinary instances use
// Fields and leave Elements nil.
type Object struct {
	Class    string // descriptor, e.g. "Ljava/lang/StringBuilder;"
	Fields   map[string]Value
	IsArray  bool
	ElemKind ValueKind
	Elements []Value
}

// Heap is the per-VM object arena. It is not safe for concurrent use;
// the flow batch runner shares none, since each flow.Analyse call
// allocates its own scratch Heap and no VM is involved.
type Heap struct {
	objects map[ObjectId]*Object
	nextID  ObjectId
}

func NewHeap() *Heap {
	return &Heap{objects: make(map[ObjectId]*Object)}
}

func (h *Heap) alloc(o *Object) ObjectId {
	h.nextID++
	id := h.nextID
	h.objects[id] = o
	return id
}

// NewInstance allocates a zero-valued instance of class.
func (h *Heap) NewInstance(class string) ObjectId {
	return h.alloc(&Object{Class: class, Fields: make(map[string]Value)})
}

// NewArray allocates an array of length elements, each default-valued
// for elemKind (per Dalvik's zero/default-initialized new-array).
func (h *Heap) NewArray(elemKind ValueKind, length int) ObjectId {
	elems := make([]Value, length)
	for i := range elems {
		elems[i] = defaultValue(elemKind)
	}
	return h.alloc(&Object{IsArray: true, ElemKind: elemKind, Elements: elems})
}

// Get resolves an ObjectId to its backing Object.
func (h *Heap) Get(id ObjectId) (*Object, bool) {
	o, ok := h.objects[id]
	return o, ok
}

func defaultValue(kind ValueKind) Value {
	switch kind {
	case Bool:
		return BoolValue(false)
	case Byte:
		return ByteValue(0)
	case Char:
		return CharValue(0)
	case Short:
		return ShortValue(0)
	case Int:
		return IntValue(0)
	case Long:
		return LongValue(0)
	case Float:
		return FloatValue(0)
	case Double:
		return DoubleValue(0)
	case Reference, String, Array:
		return NullValue()
	default:
		return UnknownValue()
	}
}
