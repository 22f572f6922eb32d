package vm

import "github.com/dexlens/dexlens/pkg/model"

// resolveDirect resolves an invoke-direct/invoke-static target: the
// class named by the call is the only place looked up, no hierarchy
// walk, matching the spec's "target resolved statically" rule.
func resolveDirect(ctx *model.Context, classDescriptor, name, proto string) (*model.Method, bool) {
	class, ok := ctx.Classes[classDescriptor]
	if !ok {
		return nil, false
	}
	for _, m := range class.DirectMethods {
		if m.Name == name && protoSuffix(m.Descriptor) == proto {
			return m, true
		}
	}
	return nil, false
}

// resolveVirtual dispatches on the runtime class of the receiver,
// walking up from it to find the nearest override of name/proto among
// virtual methods. A receiver class absent from the context, or with
// no override anywhere in its chain, falls back to the statically
// named declaring class (the spec's "unknown receiver" rule, applied
// uniformly since a missing class behaves the same as an unknown one).
func resolveVirtual(ctx *model.Context, receiverClass, staticClassDescriptor, name, proto string) (*model.Method, bool) {
	if m, ok := lookupVirtualChain(ctx, receiverClass, name, proto); ok {
		return m, true
	}
	return lookupVirtualChain(ctx, staticClassDescriptor, name, proto)
}

func lookupVirtualChain(ctx *model.Context, classDescriptor, name, proto string) (*model.Method, bool) {
	seen := map[string]bool{}
	for classDescriptor != "" && !seen[classDescriptor] {
		seen[classDescriptor] = true
		class, ok := ctx.Classes[classDescriptor]
		if !ok {
			return nil, false
		}
		for _, m := range class.VirtualMethods {
			if m.Name == name && protoSuffix(m.Descriptor) == proto {
				return m, true
			}
		}
		classDescriptor = class.SuperDescriptor
	}
	return nil, false
}

// resolveSuper starts the lookup from the superclass of declaringClass
// (the method whose bytecode contains the invoke-super), not from the
// receiver's runtime class, per the spec's super-dispatch rule.
func resolveSuper(ctx *model.Context, declaringClass, name, proto string) (*model.Method, bool) {
	class, ok := ctx.Classes[declaringClass]
	if !ok || class.SuperDescriptor == "" {
		return nil, false
	}
	return lookupVirtualChain(ctx, class.SuperDescriptor, name, proto)
}

// resolveInterface dispatches the same way as resolveVirtual: Dalvik
// has no separate itable, and by the time a class is emitted its
// interface methods are regular virtual methods on the implementing
// class (or an ancestor of it).
func resolveInterface(ctx *model.Context, receiverClass, staticClassDescriptor, name, proto string) (*model.Method, bool) {
	return resolveVirtual(ctx, receiverClass, staticClassDescriptor, name, proto)
}

// protoSuffix strips the "Lclass;->name" prefix from a method
// descriptor, leaving "(args)ret" for comparison against a call site's
// resolved method_id, which only ever names the declaring class of the
// static reference, not the runtime override.
func protoSuffix(descriptor string) string {
	for i := 0; i < len(descriptor); i++ {
		if descriptor[i] == '(' {
			return descriptor[i:]
		}
	}
	return ""
}
