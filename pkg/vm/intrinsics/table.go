// Package intrinsics models a fixed slice of java.lang/java.util
// behavior that the emulator would otherwise treat as an opaque,
// no-code external call. None of this is loaded from a dex file: an
// Android APK never ships the framework's own bytecode, so any call
// into String/StringBuilder/Integer/HashMap/Arrays/Base64 resolves to
// no method body in the context and, left unhandled, collapses every
// downstream use of its result to Unknown. Covering the handful of
// methods reached most often by real app code keeps much more of a
// symbolic run concrete.
package intrinsics

import "github.com/dexlens/dexlens/pkg/vm"

// key identifies one intrinsic by its declaring class, method name,
// and parameter/return shape, mirroring how pkg/vm's own dispatch
// already keys methods off their full "(args)ret" proto suffix rather
// than arity alone (an overloaded valueOf(I) vs valueOf(Ljava/lang/String;)
// needs the proto to disambiguate).
type key struct {
	class string
	name  string
	proto string
}

// Table is a vm.NativeResolver backed by a fixed registry of
// intrinsic implementations, built once by New and safe to share
// across every VM instance since NativeMethod implementations only
// ever touch the heap handed to them at call time.
type Table struct {
	methods map[key]vm.NativeMethod
	// byName indexes registrations sharing a class/name regardless of
	// proto, only as a fallback: a nil entry marks a name registered
	// under more than one proto, where guessing which one a caller
	// meant would make resolution depend on map iteration order.
	// Exact-proto lookups never consult this index.
	byName map[nameKey]vm.NativeMethod
}

type nameKey struct {
	class string
	name  string
}

// New builds a Table with every intrinsic this package knows about
// registered under its declaring class/name/proto.
func New() *Table {
	t := &Table{
		methods: make(map[key]vm.NativeMethod),
		byName:  make(map[nameKey]vm.NativeMethod),
	}
	registerString(t)
	registerStringBuilder(t)
	registerBoxing(t)
	registerArrays(t)
	registerHashMap(t)
	registerBase64(t)
	registerSystem(t)
	return t
}

func (t *Table) register(class, name, proto string, m vm.NativeMethod) {
	t.methods[key{class, name, proto}] = m
	nk := nameKey{class, name}
	if _, seen := t.byName[nk]; seen {
		t.byName[nk] = nil // ambiguous: more than one proto registered
		return
	}
	t.byName[nk] = m
}

// Resolve implements vm.NativeResolver. proto is matched exactly
// first (the common case); failing that, it falls back to the sole
// registration under that class/name, when there is exactly one —
// most of this package's intrinsics don't overload. A name registered
// under several protos is never guessed at, since picking one would
// make resolution depend on registration order instead of the call
// site's own proto.
func (t *Table) Resolve(classDescriptor, name, proto string) (vm.NativeMethod, bool) {
	if m, ok := t.methods[key{classDescriptor, name, proto}]; ok {
		return m, true
	}
	if m, ok := t.byName[nameKey{classDescriptor, name}]; ok && m != nil {
		return m, true
	}
	return nil, false
}
