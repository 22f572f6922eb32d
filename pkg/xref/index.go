// Package xref builds a reverse-adjacency index from every entity
// referenced by decoded instructions (classes, methods, fields,
// strings) back to the instruction sites that reference them.
package xref

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/dexlens/dexlens/pkg/disasm"
	"github.com/dexlens/dexlens/pkg/model"
)

// CiteSite is one instruction that referenced an entity: the method it
// occurs in and its code-unit offset within that method.
type CiteSite struct {
	Method    *model.Method
	CodeIndex int
}

// ClassKey, MethodKey, FieldKey, and StringKey build the lookup keys
// CiteSites expects, namespaced by kind so a string literal can never
// collide with a type descriptor that happens to read the same.
func ClassKey(descriptor string) string  { return "class:" + descriptor }
func MethodKey(descriptor string) string { return "method:" + descriptor }
func FieldKey(descriptor string) string  { return "field:" + descriptor }
func StringKey(value string) string      { return "string:" + value }

// Index is the cross-reference index over one model.Context. It is
// built once, lazily, on first query.
type Index struct {
	ctx *model.Context

	once     sync.Once
	buildErr error

	sites         map[string][]CiteSite
	fieldAccesses map[string][]*model.FieldAccess
	fieldsByKey   map[string]*model.Field
}

// NewIndex returns an index over ctx. Build does not run until the
// first call to CiteSites or FieldAccesses (or an explicit Build).
func NewIndex(ctx *model.Context) *Index {
	return &Index{ctx: ctx}
}

// Build performs the one-shot construction pass, if it has not already
// run. Safe to call concurrently; only the first caller does the work.
func (idx *Index) Build() error {
	idx.once.Do(idx.build)
	return idx.buildErr
}

func (idx *Index) build() {
	sites := make(map[string][]CiteSite)
	fieldAccesses := make(map[string][]*model.FieldAccess)

	adjacencies, err := buildAdjacenciesParallel(idx.ctx)
	if err != nil {
		idx.buildErr = fmt.Errorf("xref: %w", err)
		return
	}
	for _, adj := range adjacencies {
		for key, s := range adj.sites {
			sites[key] = append(sites[key], s...)
		}
		for key, fa := range adj.fieldAccesses {
			fieldAccesses[key] = append(fieldAccesses[key], fa...)
		}
	}

	for key := range sites {
		sortSites(sites[key])
	}
	idx.sites = sites
	idx.fieldAccesses = fieldAccesses
	idx.fieldsByKey = fieldsByKeyFor(idx.ctx)
}

func sortSites(sites []CiteSite) {
	sort.Slice(sites, func(i, j int) bool {
		if sites[i].Method.Descriptor != sites[j].Method.Descriptor {
			return sites[i].Method.Descriptor < sites[j].Method.Descriptor
		}
		return sites[i].CodeIndex < sites[j].CodeIndex
	})
}

// CiteSites returns every instruction site referencing the entity
// named by key (see ClassKey/MethodKey/FieldKey/StringKey), sorted by
// (method signature, code offset) for reproducibility. Build runs
// implicitly on first use; a build failure yields a nil slice, use
// Build to observe the error directly.
func (idx *Index) CiteSites(key string) []CiteSite {
	if err := idx.Build(); err != nil {
		return nil
	}
	return idx.sites[key]
}

// classAdjacency is the per-class partial result merged by build.
type classAdjacency struct {
	sites         map[string][]CiteSite
	fieldAccesses map[string][]*model.FieldAccess
}

func indexClass(class *model.Class) (classAdjacency, error) {
	adj := classAdjacency{
		sites:         make(map[string][]CiteSite),
		fieldAccesses: make(map[string][]*model.FieldAccess),
	}
	if class.Shadow {
		return adj, nil
	}
	methods := make([]*model.Method, 0, len(class.DirectMethods)+len(class.VirtualMethods))
	methods = append(methods, class.DirectMethods...)
	methods = append(methods, class.VirtualMethods...)

	for _, m := range methods {
		insns, err := m.EnsureDisassembled()
		if err != nil {
			return adj, fmt.Errorf("class %s: %w", class.Descriptor, err)
		}
		for _, insn := range insns {
			indexInstruction(&adj, m, insn)
		}
	}
	return adj, nil
}

func indexInstruction(adj *classAdjacency, m *model.Method, insn disasm.Instruction) {
	for _, op := range insn.Operands {
		switch op.Kind {
		case disasm.KindType:
			key := ClassKey(op.Resolved)
			adj.sites[key] = append(adj.sites[key], CiteSite{Method: m, CodeIndex: insn.CodeIndex})
		case disasm.KindMethod:
			key := MethodKey(op.Resolved)
			adj.sites[key] = append(adj.sites[key], CiteSite{Method: m, CodeIndex: insn.CodeIndex})
			if i := strings.Index(op.Resolved, "->"); i > 0 {
				ck := ClassKey(op.Resolved[:i])
				adj.sites[ck] = append(adj.sites[ck], CiteSite{Method: m, CodeIndex: insn.CodeIndex})
			}
		case disasm.KindString:
			key := StringKey(op.Resolved)
			adj.sites[key] = append(adj.sites[key], CiteSite{Method: m, CodeIndex: insn.CodeIndex})
		case disasm.KindField:
			key := FieldKey(op.Resolved)
			adj.sites[key] = append(adj.sites[key], CiteSite{Method: m, CodeIndex: insn.CodeIndex})
			if i := strings.Index(op.Resolved, "->"); i > 0 {
				ck := ClassKey(op.Resolved[:i])
				adj.sites[ck] = append(adj.sites[ck], CiteSite{Method: m, CodeIndex: insn.CodeIndex})
			}
			fa := &model.FieldAccess{
				AccessedBy: m,
				CodeIndex:  insn.CodeIndex,
				IsWrite:    isFieldWrite(insn.Mnemonic),
			}
			adj.fieldAccesses[key] = append(adj.fieldAccesses[key], fa)
		}
	}
}

func isFieldWrite(mnemonic string) bool {
	return len(mnemonic) >= 4 && (mnemonic[:4] == "iput" || mnemonic[:4] == "sput")
}
