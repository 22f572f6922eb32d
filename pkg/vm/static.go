package vm

import (
	"go.uber.org/zap"

	"github.com/dexlens/dexlens/pkg/dex"
	"github.com/dexlens/dexlens/pkg/model"
)

// ClassInitState tracks a class's position in the <clinit> lifecycle.
type ClassInitState int

const (
	NotStarted ClassInitState = iota
	InProgress
	Done
)

// StaticArea is the VM's static field table plus per-class init state,
// lazily materialized the first time a class's static field or method
// is touched.
type StaticArea struct {
	values map[string]Value // field FQDN -> current value
	state  map[string]ClassInitState
	// active is the stack of classes whose <clinit> is currently
	// executing, innermost last. It lets EnsureInitialized tell a
	// class's own <clinit> touching its own static fields (the
	// top-of-stack case, completely normal) apart from a genuine
	// cross-class cycle (an InProgress class reached from some other
	// class's <clinit>).
	active []string
	logger *zap.Logger
}

func NewStaticArea(logger *zap.Logger) *StaticArea {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StaticArea{
		values: make(map[string]Value),
		state:  make(map[string]ClassInitState),
		logger: logger,
	}
}

// Get returns the current value of a static field FQDN, if it has been
// materialized (by a prior Set or by defaultFor at class-init time).
func (s *StaticArea) Get(fqdn string) (Value, bool) {
	v, ok := s.values[fqdn]
	return v, ok
}

func (s *StaticArea) Set(fqdn string, v Value) {
	s.values[fqdn] = v
}

// EnsureInitialized runs class's <clinit> exactly once (InProgress
// guards re-entrancy), first seeding every static field with its
// encoded default/constant value. A class's own <clinit> body reading
// or writing its own static fields re-enters EnsureInitialized for the
// class it is already running — that's the top-of-stack case below,
// and a silent no-op, not a cycle. Only a class reached InProgress from
// some other class's <clinit> (a genuine cross-class cycle) is left as
// Done with a logged warning rather than re-entered, per the spec's
// circular-init rule.
func (s *StaticArea) EnsureInitialized(vm *VM, classDescriptor string) error {
	switch s.state[classDescriptor] {
	case Done:
		return nil
	case InProgress:
		if len(s.active) > 0 && s.active[len(s.active)-1] == classDescriptor {
			return nil
		}
		s.logger.Warn("circular class initialization", zap.String("class", classDescriptor))
		s.state[classDescriptor] = Done
		return nil
	}
	class, ok := vm.ctx.Classes[classDescriptor]
	if !ok {
		s.state[classDescriptor] = Done
		return nil
	}
	s.state[classDescriptor] = InProgress
	s.active = append(s.active, classDescriptor)
	defer func() { s.active = s.active[:len(s.active)-1] }()

	for _, f := range class.StaticFields {
		s.values[f.Descriptor] = defaultForField(class.DexFile, f)
	}

	var clinit *model.Method
	for _, m := range class.DirectMethods {
		if m.Name == "<clinit>" {
			clinit = m
		}
	}
	if clinit != nil && clinit.HasCode {
		if _, err := vm.invoke(clinit, nil, nil); err != nil {
			return err
		}
	}
	s.state[classDescriptor] = Done
	return nil
}

// defaultForField seeds a static field from its encoded initial value
// when present, otherwise the zero value for its descriptor's type.
func defaultForField(df *dex.DexFile, f *model.Field) Value {
	if f.StaticValue != nil {
		if v, ok := valueFromEncoded(df, *f.StaticValue); ok {
			return v
		}
	}
	return defaultValue(kindForDescriptor(f.Type))
}

// valueFromEncoded converts a parsed encoded_value into a runtime
// Value. Array and annotation-shaped encoded values (nested structure
// outside the Value taxonomy) and the two method-handle variants (an
// open question left unresolved in the source material) yield
// Unknown rather than a guessed representation.
func valueFromEncoded(df *dex.DexFile, ev dex.EncodedValue) (Value, bool) {
	switch ev.Kind {
	case dex.ValueByte:
		return ByteValue(ev.Byte), true
	case dex.ValueShort:
		return ShortValue(ev.Short), true
	case dex.ValueChar:
		return CharValue(ev.Char), true
	case dex.ValueInt:
		return IntValue(ev.Int), true
	case dex.ValueLong:
		return LongValue(ev.Long), true
	case dex.ValueFloat:
		return FloatValue(ev.Float), true
	case dex.ValueDouble:
		return DoubleValue(ev.Double), true
	case dex.ValueBoolean:
		return BoolValue(ev.Bool), true
	case dex.ValueNull:
		return NullValue(), true
	case dex.ValueString:
		return StringValue(df.StringAt(ev.StringIdx)), true
	default:
		return UnknownValue(), false
	}
}

func kindForDescriptor(descriptor string) ValueKind {
	if len(descriptor) == 0 {
		return Unknown
	}
	switch descriptor[0] {
	case 'Z':
		return Bool
	case 'B':
		return Byte
	case 'C':
		return Char
	case 'S':
		return Short
	case 'I':
		return Int
	case 'J':
		return Long
	case 'F':
		return Float
	case 'D':
		return Double
	case 'L':
		if descriptor == "Ljava/lang/String;" {
			return String
		}
		return Reference
	case '[':
		return Array
	default:
		return Unknown
	}
}
