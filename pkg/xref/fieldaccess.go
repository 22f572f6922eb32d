package xref

import (
	"sort"

	"github.com/dexlens/dexlens/pkg/model"
)

// FieldAccesses returns every read/write of the field named by key
// (see FieldKey), in the same (method signature, code offset) order as
// CiteSites. The returned *model.FieldAccess.Field is populated when
// the field is declared by a non-shadow class in the context; it is
// nil for a field only referenced, never declared (an Android
// framework field, typically).
func (idx *Index) FieldAccesses(key string) []*model.FieldAccess {
	if err := idx.Build(); err != nil {
		return nil
	}
	accesses := idx.fieldAccesses[key]
	if len(accesses) == 0 {
		return nil
	}
	field := idx.fieldsByKey[key]
	out := make([]*model.FieldAccess, len(accesses))
	for i, fa := range accesses {
		cp := *fa
		cp.Field = field
		out[i] = &cp
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AccessedBy.Descriptor != out[j].AccessedBy.Descriptor {
			return out[i].AccessedBy.Descriptor < out[j].AccessedBy.Descriptor
		}
		return out[i].CodeIndex < out[j].CodeIndex
	})
	return out
}

func fieldsByKeyFor(ctx *model.Context) map[string]*model.Field {
	out := make(map[string]*model.Field)
	for _, class := range ctx.Classes {
		for _, f := range class.StaticFields {
			out[FieldKey(f.Descriptor)] = f
		}
		for _, f := range class.InstanceFields {
			out[FieldKey(f.Descriptor)] = f
		}
	}
	return out
}
