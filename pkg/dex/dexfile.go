package dex

import "fmt"

// DexFile is one fully parsed classes.dex: its header plus every pool,
// resolved to the degree the format allows without cross-referencing
// other dex files in the same APK (that is pkg/model's job).
type DexFile struct {
	Header    *Header
	Strings   []string
	Types     []string // type descriptors, indexed by TypeID
	Protos    []Proto
	Fields    []FieldID
	Methods   []MethodID
	ClassDefs []ClassDef

	// Data is the raw file content, retained so code_item bodies can be
	// parsed lazily via CodeFor instead of eagerly for every method.
	Data []byte

	classByType map[TypeID]*ClassDef
}

// StringAt returns the string pool entry at idx, or "" if idx is out
// of range (NO_INDEX or a corrupt reference).
func (d *DexFile) StringAt(idx uint32) string {
	if int(idx) >= len(d.Strings) {
		return ""
	}
	return d.Strings[idx]
}

// TypeAt returns the type descriptor (e.g. "Landroid/app/Activity;")
// for a TypeID, or "" if out of range.
func (d *DexFile) TypeAt(idx TypeID) string {
	if int(idx) >= len(d.Types) {
		return ""
	}
	return d.Types[idx]
}

// ProtoAt returns the resolved prototype at idx.
func (d *DexFile) ProtoAt(idx uint32) (Proto, bool) {
	if int(idx) >= len(d.Protos) {
		return Proto{}, false
	}
	return d.Protos[idx], true
}

// FieldDescriptor renders a field_id as "Lcom/foo/Bar;->name:Ltype;",
// the conventional smali-style reference used throughout dexlens.
func (d *DexFile) FieldDescriptor(idx uint32) string {
	if int(idx) >= len(d.Fields) {
		return fmt.Sprintf("<field#%d>", idx)
	}
	f := d.Fields[idx]
	return fmt.Sprintf("%s->%s:%s", d.TypeAt(f.ClassIdx), d.StringAt(f.NameIdx), d.TypeAt(f.TypeIdx))
}

// MethodDescriptor renders a method_id as
// "Lcom/foo/Bar;->name(Largs;)Lret;".
func (d *DexFile) MethodDescriptor(idx uint32) string {
	if int(idx) >= len(d.Methods) {
		return fmt.Sprintf("<method#%d>", idx)
	}
	m := d.Methods[idx]
	proto, ok := d.ProtoAt(m.ProtoIdx)
	if !ok {
		return fmt.Sprintf("%s->%s(?)", d.TypeAt(m.ClassIdx), d.StringAt(m.NameIdx))
	}
	params := ""
	for _, p := range proto.ParamTypes {
		params += p
	}
	return fmt.Sprintf("%s->%s(%s)%s", d.TypeAt(m.ClassIdx), d.StringAt(m.NameIdx), params, proto.ReturnType)
}

// ClassByType returns the class_def_item for a type, or nil if the
// type is not defined in this dex file (e.g. it is only referenced,
// such as a superclass from another dex or the platform).
func (d *DexFile) ClassByType(idx TypeID) *ClassDef {
	if d.classByType == nil {
		d.classByType = make(map[TypeID]*ClassDef, len(d.ClassDefs))
		for i := range d.ClassDefs {
			d.classByType[d.ClassDefs[i].ClassIdx] = &d.ClassDefs[i]
		}
	}
	return d.classByType[idx]
}

// CodeFor resolves and parses the code_item for an encoded method,
// returning (CodeItem{}, false) when the method has no code (abstract
// or native, CodeOff == 0).
func (d *DexFile) CodeFor(m EncodedMethod) (CodeItem, bool, error) {
	if m.CodeOff == 0 {
		return CodeItem{}, false, nil
	}
	ci, err := parseCodeItem(d.Data, m.CodeOff)
	if err != nil {
		return CodeItem{}, false, err
	}
	return ci, true, nil
}
