package dex

// parseClassDefs reads the class_defs table and, for each entry,
// resolves its class_data_item and static values.
func parseClassDefs(data []byte, off, count uint32) ([]ClassDef, error) {
	defs := make([]ClassDef, count)
	r := newReader(data, int(off))
	for i := uint32(0); i < count; i++ {
		classIdx, err := r.u32("class_def.class_idx")
		if err != nil {
			return nil, err
		}
		accessFlags, err := r.u32("class_def.access_flags")
		if err != nil {
			return nil, err
		}
		superclassIdx, err := r.u32("class_def.superclass_idx")
		if err != nil {
			return nil, err
		}
		interfacesOff, err := r.u32("class_def.interfaces_off")
		if err != nil {
			return nil, err
		}
		sourceFileIdx, err := r.u32("class_def.source_file_idx")
		if err != nil {
			return nil, err
		}
		annotationsOff, err := r.u32("class_def.annotations_off")
		if err != nil {
			return nil, err
		}
		classDataOff, err := r.u32("class_def.class_data_off")
		if err != nil {
			return nil, err
		}
		staticValuesOff, err := r.u32("class_def.static_values_off")
		if err != nil {
			return nil, err
		}

		cd := ClassDef{
			ClassIdx:      TypeID(classIdx),
			AccessFlags:   accessFlags,
			SuperclassIdx: idxOrNone(superclassIdx),
			SourceFileIdx: idxOrNone(sourceFileIdx),
		}
		if interfacesOff != 0 {
			ids, err := parseTypeIdxList(data, interfacesOff)
			if err != nil {
				return nil, err
			}
			cd.Interfaces = ids
		}
		if classDataOff != 0 {
			classData, err := parseClassData(data, classDataOff)
			if err != nil {
				return nil, err
			}
			cd.ClassData = classData
		}
		if staticValuesOff != 0 {
			vals, err := readEncodedArray(newReader(data, int(staticValuesOff)))
			if err != nil {
				return nil, err
			}
			cd.StaticValues = vals
		}
		if annotationsOff != 0 {
			dir, err := parseAnnotationsDirectory(data, annotationsOff)
			if err != nil {
				return nil, err
			}
			cd.Annotations = dir
		}
		defs[i] = cd
	}
	return defs, nil
}

// idxOrNone converts the DEX convention of NO_INDEX (0xFFFFFFFF) into
// -1, the sentinel used throughout the model for "absent".
func idxOrNone(v uint32) int32 {
	if v == noIndex {
		return -1
	}
	return int32(v)
}

// parseTypeIdxList reads a type_list but keeps raw TypeID indices
// rather than resolving through the type pool, for use before the full
// pool set has been threaded through (interfaces_off in class_def).
func parseTypeIdxList(data []byte, off uint32) ([]TypeID, error) {
	r := newReader(data, int(off))
	size, err := r.u32("type_list.size")
	if err != nil {
		return nil, err
	}
	out := make([]TypeID, size)
	for i := uint32(0); i < size; i++ {
		idx, err := r.u16("type_list.entry")
		if err != nil {
			return nil, err
		}
		out[i] = TypeID(idx)
	}
	return out, nil
}

// parseClassData decodes a class_data_item: four ULEB128 counts
// followed by four ULEB128-delta-encoded lists (static fields, instance
// fields, direct methods, virtual methods). Each list entry stores the
// difference from the previous entry's index, not the absolute index,
// so the running sum must be carried across iterations.
func parseClassData(data []byte, off uint32) (ClassData, error) {
	r := newReader(data, int(off))
	staticCount, err := r.uleb128()
	if err != nil {
		return ClassData{}, err
	}
	instanceCount, err := r.uleb128()
	if err != nil {
		return ClassData{}, err
	}
	directCount, err := r.uleb128()
	if err != nil {
		return ClassData{}, err
	}
	virtualCount, err := r.uleb128()
	if err != nil {
		return ClassData{}, err
	}

	cd := ClassData{}
	if cd.StaticFields, err = readEncodedFields(r, staticCount); err != nil {
		return ClassData{}, err
	}
	if cd.InstanceFields, err = readEncodedFields(r, instanceCount); err != nil {
		return ClassData{}, err
	}
	if cd.DirectMethods, err = readEncodedMethods(r, directCount); err != nil {
		return ClassData{}, err
	}
	if cd.VirtualMethods, err = readEncodedMethods(r, virtualCount); err != nil {
		return ClassData{}, err
	}
	return cd, nil
}

func readEncodedFields(r *reader, count uint32) ([]EncodedField, error) {
	out := make([]EncodedField, count)
	var runningIdx uint32
	for i := uint32(0); i < count; i++ {
		diff, err := r.uleb128()
		if err != nil {
			return nil, err
		}
		accessFlags, err := r.uleb128()
		if err != nil {
			return nil, err
		}
		runningIdx += diff
		out[i] = EncodedField{FieldIdx: runningIdx, AccessFlags: accessFlags}
	}
	return out, nil
}

func readEncodedMethods(r *reader, count uint32) ([]EncodedMethod, error) {
	out := make([]EncodedMethod, count)
	var runningIdx uint32
	for i := uint32(0); i < count; i++ {
		diff, err := r.uleb128()
		if err != nil {
			return nil, err
		}
		accessFlags, err := r.uleb128()
		if err != nil {
			return nil, err
		}
		codeOff, err := r.uleb128()
		if err != nil {
			return nil, err
		}
		runningIdx += diff
		out[i] = EncodedMethod{MethodIdx: runningIdx, AccessFlags: accessFlags, CodeOff: codeOff}
	}
	return out, nil
}

// parseAnnotationsDirectory decodes an annotations_directory_item:
// class-level annotations plus per-field, per-method, and
// per-parameter annotation sets.
func parseAnnotationsDirectory(data []byte, off uint32) (*AnnotationsDirectory, error) {
	r := newReader(data, int(off))
	classAnnotationsOff, err := r.u32("annotations_directory.class_annotations_off")
	if err != nil {
		return nil, err
	}
	fieldsSize, err := r.u32("annotations_directory.fields_size")
	if err != nil {
		return nil, err
	}
	annotatedMethodsSize, err := r.u32("annotations_directory.annotated_methods_size")
	if err != nil {
		return nil, err
	}
	annotatedParametersSize, err := r.u32("annotations_directory.annotated_parameters_size")
	if err != nil {
		return nil, err
	}

	dir := &AnnotationsDirectory{
		FieldAnnotations:     map[uint32][]EncodedAnnotation{},
		MethodAnnotations:    map[uint32][]EncodedAnnotation{},
		ParameterAnnotations: map[uint32][][]EncodedAnnotation{},
	}
	if classAnnotationsOff != 0 {
		set, err := parseAnnotationSet(data, classAnnotationsOff)
		if err != nil {
			return nil, err
		}
		dir.ClassAnnotations = set
	}
	for i := uint32(0); i < fieldsSize; i++ {
		fieldIdx, err := r.u32("field_annotation.field_idx")
		if err != nil {
			return nil, err
		}
		annOff, err := r.u32("field_annotation.annotations_off")
		if err != nil {
			return nil, err
		}
		set, err := parseAnnotationSet(data, annOff)
		if err != nil {
			return nil, err
		}
		dir.FieldAnnotations[fieldIdx] = set
	}
	for i := uint32(0); i < annotatedMethodsSize; i++ {
		methodIdx, err := r.u32("method_annotation.method_idx")
		if err != nil {
			return nil, err
		}
		annOff, err := r.u32("method_annotation.annotations_off")
		if err != nil {
			return nil, err
		}
		set, err := parseAnnotationSet(data, annOff)
		if err != nil {
			return nil, err
		}
		dir.MethodAnnotations[methodIdx] = set
	}
	for i := uint32(0); i < annotatedParametersSize; i++ {
		methodIdx, err := r.u32("parameter_annotation.method_idx")
		if err != nil {
			return nil, err
		}
		listOff, err := r.u32("parameter_annotation.annotations_off")
		if err != nil {
			return nil, err
		}
		perParam, err := parseAnnotationSetRefList(data, listOff)
		if err != nil {
			return nil, err
		}
		dir.ParameterAnnotations[methodIdx] = perParam
	}
	return dir, nil
}

// parseAnnotationSet decodes an annotation_set_item: a u4 size
// followed by that many u4 offsets, each pointing at an
// annotation_item (visibility byte + encoded_annotation).
func parseAnnotationSet(data []byte, off uint32) ([]EncodedAnnotation, error) {
	r := newReader(data, int(off))
	size, err := r.u32("annotation_set.size")
	if err != nil {
		return nil, err
	}
	out := make([]EncodedAnnotation, size)
	for i := uint32(0); i < size; i++ {
		itemOff, err := r.u32("annotation_set.entry")
		if err != nil {
			return nil, err
		}
		ir := newReader(data, int(itemOff))
		if _, err := ir.u8("annotation_item.visibility"); err != nil {
			return nil, err
		}
		ann, err := readEncodedAnnotation(ir)
		if err != nil {
			return nil, err
		}
		out[i] = *ann
	}
	return out, nil
}

// parseAnnotationSetRefList decodes an annotation_set_ref_list: a u4
// size followed by that many u4 offsets to annotation_set_item, one
// per method parameter.
func parseAnnotationSetRefList(data []byte, off uint32) ([][]EncodedAnnotation, error) {
	r := newReader(data, int(off))
	size, err := r.u32("annotation_set_ref_list.size")
	if err != nil {
		return nil, err
	}
	out := make([][]EncodedAnnotation, size)
	for i := uint32(0); i < size; i++ {
		setOff, err := r.u32("annotation_set_ref_list.entry")
		if err != nil {
			return nil, err
		}
		if setOff == 0 {
			continue
		}
		set, err := parseAnnotationSet(data, setOff)
		if err != nil {
			return nil, err
		}
		out[i] = set
	}
	return out, nil
}
