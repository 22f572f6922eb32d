package query

import (
	"regexp"
	"sort"

	"go.uber.org/zap"

	"github.com/dexlens/dexlens/pkg/flow"
	"github.com/dexlens/dexlens/pkg/model"
	"github.com/dexlens/dexlens/pkg/vm"
	"github.com/dexlens/dexlens/pkg/vm/intrinsics"
	"github.com/dexlens/dexlens/pkg/xref"
)

// Engine is the exposed query surface over one loaded Context: find,
// cross_references, emulate, analyse_branches, get_static_field. It
// owns the one VM instance emulate/get_static_field share, so a static
// field set by one emulate call is visible to the next, matching the
// source's REPL-like session semantics; nothing here is persisted
// beyond the process's memory.
type Engine struct {
	ctx    *model.Context
	idx    *xref.Index
	vm     *vm.VM
	logger *zap.Logger
}

// NewEngine wires a fresh VM over ctx, with pkg/vm/intrinsics installed
// as its native-method resolver so calls into the Android/Java
// standard library the context never ingested as bytecode still
// produce a modeled result instead of silently falling back to
// Unknown. A nil logger is replaced with a no-op one, same as NewVM.
func NewEngine(ctx *model.Context, logger *zap.Logger) *Engine {
	v := vm.NewVM(ctx, logger)
	v.SetNatives(intrinsics.New())
	return &Engine{
		ctx:    ctx,
		idx:    xref.NewIndex(ctx),
		vm:     v,
		logger: logger,
	}
}

// Find returns every entity of kind whose descriptor matches pattern
// (for a method or field, a match on its bare name also counts),
// sorted by descriptor for reproducible output.
func (e *Engine) Find(pattern string, kind Kind) ([]Evidence, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, wrapParse(err, pattern)
	}

	var out []Evidence
	switch kind {
	case KindClass:
		for _, c := range e.ctx.Classes {
			if !c.Shadow && re.MatchString(c.Descriptor) {
				out = append(out, classEvidence(c))
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Class.Descriptor < out[j].Class.Descriptor })
	case KindMethod:
		for _, c := range e.ctx.Classes {
			if c.Shadow {
				continue
			}
			for _, m := range allMethods(c) {
				if re.MatchString(m.Descriptor) || re.MatchString(m.Name) {
					out = append(out, methodEvidence(m))
				}
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Method.Descriptor < out[j].Method.Descriptor })
	case KindField:
		for _, c := range e.ctx.Classes {
			if c.Shadow {
				continue
			}
			for _, f := range allFields(c) {
				if re.MatchString(f.Descriptor) || re.MatchString(f.Name) {
					out = append(out, fieldEvidence(f))
				}
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Field.Descriptor < out[j].Field.Descriptor })
	default:
		return nil, typeMismatch("class, method, or field", kind.String())
	}

	if len(out) == 0 {
		return nil, notFound(kind.String(), pattern)
	}
	return out, nil
}

func allMethods(c *model.Class) []*model.Method {
	methods := make([]*model.Method, 0, len(c.DirectMethods)+len(c.VirtualMethods))
	methods = append(methods, c.DirectMethods...)
	methods = append(methods, c.VirtualMethods...)
	return methods
}

func allFields(c *model.Class) []*model.Field {
	fields := make([]*model.Field, 0, len(c.StaticFields)+len(c.InstanceFields))
	fields = append(fields, c.StaticFields...)
	fields = append(fields, c.InstanceFields...)
	return fields
}

// CrossReferences returns every instruction site that names entity, as
// Evidence of KindSite. entity must be a class, method, or field
// Evidence; anything else is a TypeMismatch.
func (e *Engine) CrossReferences(entity Evidence) ([]Evidence, error) {
	var key string
	switch entity.Kind {
	case KindClass:
		key = xref.ClassKey(entity.Class.Descriptor)
	case KindMethod:
		key = xref.MethodKey(entity.Method.Descriptor)
	case KindField:
		key = xref.FieldKey(entity.Field.Descriptor)
	default:
		return nil, typeMismatch("class, method, or field", entity.Kind.String())
	}

	if err := e.idx.Build(); err != nil {
		return nil, wrapParse(err, key)
	}
	sites := e.idx.CiteSites(key)
	if len(sites) == 0 {
		return nil, notFound("cross_references", key)
	}
	out := make([]Evidence, len(sites))
	for i, s := range sites {
		out[i] = siteEvidence(s)
	}
	return out, nil
}

// Emulate runs method in this Engine's VM, args bound as its
// instance/static arguments (args[0] is the receiver for an instance
// method).
func (e *Engine) Emulate(method *model.Method, args []vm.Value) (vm.Value, error) {
	if method == nil {
		return vm.Value{}, notFound("method", "<nil>")
	}
	result, err := e.vm.EmulateMethod(method, args)
	if err != nil {
		return vm.Value{}, wrapVM(err, method.Descriptor)
	}
	return result, nil
}

// AnalyseBranches runs the flow analyser over method and returns its
// full Result — Incomplete, when true, is the budget/widening signal
// the propagation policy calls for, not a whole-call failure.
func (e *Engine) AnalyseBranches(method *model.Method, conservative bool) (*flow.Result, error) {
	if method == nil {
		return nil, notFound("method", "<nil>")
	}
	result, err := flow.Analyse(method, flow.Options{Conservative: conservative})
	if err != nil {
		return nil, wrapFlow(err, method.Descriptor)
	}
	return result, nil
}

// GetStaticField returns a static field's current value, identified by
// its full "Lclass;->name:type" FQDN, running the declaring class's
// <clinit> first if it has not already run. A class absent from the
// context is a NotFound error; a known field never explicitly
// initialized still returns its type's zero value, per
// vm.VM.StaticField.
func (e *Engine) GetStaticField(fqdn string) (vm.Value, error) {
	v, err, known := e.vm.StaticField(fqdn)
	if err != nil {
		return vm.Value{}, wrapVM(err, fqdn)
	}
	if !known {
		return vm.Value{}, notFound("static field", fqdn)
	}
	return v, nil
}
