// Package model assembles parsed dex files into one cross-indexed,
// queryable representation: classes with their methods and fields,
// resolved instruction streams, and the class hierarchy.
package model

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/dexlens/dexlens/pkg/dex"
	"github.com/dexlens/dexlens/pkg/disasm"
)

// Class is a class_def_item resolved against its owning dex file, with
// descriptor strings substituted for raw pool indices.
type Class struct {
	Descriptor      string
	SuperDescriptor string // "" if this is java.lang.Object or unknown
	Interfaces      []string
	SourceFile      string // "" if unknown
	AccessFlags     uint32

	StaticFields   []*Field
	InstanceFields []*Field
	DirectMethods  []*Method
	VirtualMethods []*Method

	DexFile  *dex.DexFile
	DexIndex int
	Def      *dex.ClassDef

	// Shadow is true when this class descriptor was already defined by
	// an earlier dex file in the context; it is kept for reporting but
	// excluded from dispatch and hierarchy queries.
	Shadow bool
}

// Field is a resolved field declaration.
type Field struct {
	Descriptor  string // "Lclass;->name:type"
	Name        string
	Type        string
	AccessFlags uint32
	Class       *Class
	// StaticValue is the field's encoded initial value, present only
	// for some static fields (spec's encoded_array is a prefix of the
	// static field list; fields past it default-initialize).
	StaticValue *dex.EncodedValue
}

// Method is a resolved method declaration.
type Method struct {
	Descriptor  string // "Lclass;->name(args)ret"
	Name        string
	Proto       dex.Proto
	AccessFlags uint32
	Class       *Class

	HasCode bool
	Code    dex.CodeItem

	instructions []disasm.Instruction
	disassembled bool
}

// EnsureDisassembled decodes the method's code item into an
// instruction list on first use and caches the result; methods with no
// code return an empty, non-nil slice.
func (m *Method) EnsureDisassembled() ([]disasm.Instruction, error) {
	if m.disassembled {
		return m.instructions, nil
	}
	if !m.HasCode {
		m.instructions = []disasm.Instruction{}
		m.disassembled = true
		return m.instructions, nil
	}
	insns, err := disasm.Disassemble(&m.Code, m.Class.DexFile)
	if err != nil {
		return nil, fmt.Errorf("model: disassembling %s: %w", m.Descriptor, err)
	}
	m.instructions = insns
	m.disassembled = true
	return m.instructions, nil
}

// Context is the aggregate, cross-indexed view over every dex file
// ingested from one APK.
type Context struct {
	DexFiles []*dex.DexFile
	DexNames []string // parallel to DexFiles; archive-relative path

	// Classes maps a descriptor to its first (non-shadow) definition.
	Classes map[string]*Class
	// Shadows holds every later, ignored redefinition of a descriptor
	// already present in Classes.
	Shadows []*Class

	// ParseErrors collects per-dex-file failures that did not abort
	// ingestion of the rest of the archive.
	ParseErrors *multierror.Error

	subclassesOf   map[string][]string
	implementersOf map[string][]string
}

// NewContext creates an empty, ready-to-populate context.
func NewContext() *Context {
	return &Context{Classes: make(map[string]*Class)}
}

// AddDexFile folds a parsed dex file's classes into the context. Per
// spec.md §7, a parse-stage failure for one dex file is recorded and
// does not abort the rest of the archive; AddDexFile itself only fails
// when df is structurally unusable (nil), never because of data it
// contains.
func (c *Context) AddDexFile(name string, df *dex.DexFile) error {
	if df == nil {
		return fmt.Errorf("model: AddDexFile(%s): nil dex file", name)
	}
	dexIndex := len(c.DexFiles)
	c.DexFiles = append(c.DexFiles, df)
	c.DexNames = append(c.DexNames, name)

	for i := range df.ClassDefs {
		def := &df.ClassDefs[i]
		class, err := buildClass(df, dexIndex, def)
		if err != nil {
			c.ParseErrors = multierror.Append(c.ParseErrors, fmt.Errorf("model: %s: %w", name, err))
			continue
		}
		if _, ok := c.Classes[class.Descriptor]; ok {
			class.Shadow = true
			c.Shadows = append(c.Shadows, class)
			continue
		}
		c.Classes[class.Descriptor] = class
	}
	// Invalidate any hierarchy computed from a smaller class set.
	c.subclassesOf = nil
	c.implementersOf = nil
	return nil
}

func buildClass(df *dex.DexFile, dexIndex int, def *dex.ClassDef) (*Class, error) {
	descriptor := df.TypeAt(def.ClassIdx)
	if descriptor == "" {
		return nil, fmt.Errorf("class_idx %d: unresolved type", def.ClassIdx)
	}
	class := &Class{
		Descriptor:  descriptor,
		AccessFlags: def.AccessFlags,
		DexFile:     df,
		DexIndex:    dexIndex,
		Def:         def,
	}
	if def.SuperclassIdx >= 0 {
		class.SuperDescriptor = df.TypeAt(dex.TypeID(def.SuperclassIdx))
	}
	for _, ifaceIdx := range def.Interfaces {
		class.Interfaces = append(class.Interfaces, df.TypeAt(ifaceIdx))
	}
	if def.SourceFileIdx >= 0 {
		class.SourceFile = df.StringAt(uint32(def.SourceFileIdx))
	}

	staticValues := def.StaticValues
	for i, ef := range def.ClassData.StaticFields {
		f := buildField(df, class, ef)
		if i < len(staticValues) {
			v := staticValues[i]
			f.StaticValue = &v
		}
		class.StaticFields = append(class.StaticFields, f)
	}
	for _, ef := range def.ClassData.InstanceFields {
		class.InstanceFields = append(class.InstanceFields, buildField(df, class, ef))
	}
	for _, em := range def.ClassData.DirectMethods {
		m, err := buildMethod(df, class, em)
		if err != nil {
			return nil, err
		}
		class.DirectMethods = append(class.DirectMethods, m)
	}
	for _, em := range def.ClassData.VirtualMethods {
		m, err := buildMethod(df, class, em)
		if err != nil {
			return nil, err
		}
		class.VirtualMethods = append(class.VirtualMethods, m)
	}
	return class, nil
}

func buildField(df *dex.DexFile, class *Class, ef dex.EncodedField) *Field {
	return &Field{
		Descriptor:  df.FieldDescriptor(ef.FieldIdx),
		Name:        fieldName(df, ef.FieldIdx),
		Type:        fieldType(df, ef.FieldIdx),
		AccessFlags: ef.AccessFlags,
		Class:       class,
	}
}

func fieldName(df *dex.DexFile, idx uint32) string {
	if int(idx) >= len(df.Fields) {
		return ""
	}
	return df.StringAt(df.Fields[idx].NameIdx)
}

func fieldType(df *dex.DexFile, idx uint32) string {
	if int(idx) >= len(df.Fields) {
		return ""
	}
	return df.TypeAt(df.Fields[idx].TypeIdx)
}

func buildMethod(df *dex.DexFile, class *Class, em dex.EncodedMethod) (*Method, error) {
	m := &Method{
		Descriptor:  df.MethodDescriptor(em.MethodIdx),
		AccessFlags: em.AccessFlags,
		Class:       class,
	}
	if int(em.MethodIdx) < len(df.Methods) {
		mid := df.Methods[em.MethodIdx]
		m.Name = df.StringAt(mid.NameIdx)
		if proto, ok := df.ProtoAt(mid.ProtoIdx); ok {
			m.Proto = proto
		}
	}
	code, hasCode, err := df.CodeFor(em)
	if err != nil {
		return nil, fmt.Errorf("method %s: %w", m.Descriptor, err)
	}
	m.HasCode = hasCode
	if hasCode {
		m.Code = code
	}
	return m, nil
}
