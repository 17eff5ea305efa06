package classfile

import (
	"errors"
	"fmt"

	"github.com/openjdk/asmtools-sub002/jvm"
)

// owner is the entity an attribute list belongs to.
type owner int

const (
	ownerClass owner = iota
	ownerField
	ownerMethod
	ownerCode
	ownerRecord
)

func (o owner) String() string {
	switch o {
	case ownerField:
		return "field"
	case ownerMethod:
		return "method"
	case ownerCode:
		return "Code"
	case ownerRecord:
		return "record component"
	}
	return "class"
}

func (d *decoder) readAttributes(o owner) ([]jvm.Attribute, error) {
	n, err := d.r.u2("attributes_count")
	if err != nil {
		return nil, err
	}
	attrs := make([]jvm.Attribute, 0, n)
	seen := map[jvm.AttrKind]bool{}
	for i := 0; i < int(n); i++ {
		a, err := d.readAttribute(o)
		if err != nil {
			return attrs, err
		}
		h := a.Header()
		if h.Kind.Unique() && seen[h.Kind] {
			d.diag(h.Offset, jvm.DiagDuplicate, fmt.Sprintf("%s attribute appears more than once in %s", h.Kind, o))
		}
		seen[h.Kind] = true
		attrs = append(attrs, a)
	}
	return attrs, nil
}

// containable reports whether err is limited to the attribute being read.
func containable(err error) bool {
	return errors.Is(err, jvm.ErrUnknownFrame) || errors.Is(err, jvm.ErrUnknownElement)
}

func (d *decoder) readAttribute(o owner) (jvm.Attribute, error) {
	r := d.r
	start := r.pos()
	nameIdx, err := r.u2("attribute_name_index")
	if err != nil {
		return nil, err
	}
	length, err := r.u4("attribute_length")
	if err != nil {
		return nil, err
	}
	h := jvm.AttrHeader{NameIndex: nameIdx, Length: length, Offset: start}
	name := d.pool.Utf8(int(nameIdx), func(int) string { return "" })
	if name == "" {
		d.diag(start, jvm.DiagIndex, fmt.Sprintf("attribute name #%d is not a Utf8 constant", nameIdx))
	}
	h.Kind = jvm.AttrKindByName(name)

	if h.Kind == jvm.AttrUnrecognized {
		data, err := r.bytes(int(length), "attribute "+name)
		if err != nil {
			return nil, err
		}
		if name != "" {
			d.diag(start, jvm.DiagUnknownAttr, fmt.Sprintf("unrecognized attribute %q (%d bytes)", name, length))
		}
		return &jvm.UnrecognizedAttr{AttrHeader: h, Name: name, Data: data}, nil
	}
	if since := h.Kind.Since(); !d.version.AtLeast(since) {
		d.diag(start, jvm.DiagVersion, fmt.Sprintf("%s attribute requires class file version %s or above, found %s", name, since, d.version))
	}

	mark := r.mark()
	bodyStart := r.pos()
	a, err := d.readBody(&h, o)
	if err != nil {
		var fe *jvm.FormatError
		if errors.As(err, &fe) {
			return nil, err
		}
		if containable(err) && d.opt.Mode == jvm.BestEffort {
			d.diag(start, jvm.DiagInvalid, fmt.Sprintf("%s attribute skipped: %v", name, err))
			r.reset(mark)
			data, rerr := r.bytes(int(length), "attribute "+name)
			if rerr != nil {
				return nil, rerr
			}
			return &jvm.UnrecognizedAttr{AttrHeader: h, Name: name, Data: data, Reason: err.Error()}, nil
		}
		if containable(err) {
			return nil, &jvm.FormatError{Offset: start, What: name + " attribute", Msg: err.Error(), Err: err}
		}
		return nil, fmt.Errorf("%s attribute at offset %d: %w", name, start, err)
	}
	if consumed := r.pos() - bodyStart; consumed != int(length) {
		if err := d.lengthMismatch(&h, consumed); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// lengthMismatch reports a declared length that differs from the bytes the
// attribute's structure consumed. Decoding always resumes at the structural
// position.
func (d *decoder) lengthMismatch(h *jvm.AttrHeader, consumed int) error {
	msg := fmt.Sprintf("declared length %d, structure is %d bytes", h.Length, consumed)
	if d.opt.Mode == jvm.BestEffort {
		d.diag(h.Offset, jvm.DiagLength, fmt.Sprintf("%s attribute: %s", h.Kind, msg))
		return nil
	}
	return &jvm.FormatError{Offset: h.Offset, What: h.Kind.String() + " attribute", Msg: msg}
}

func (d *decoder) readBody(h *jvm.AttrHeader, o owner) (jvm.Attribute, error) {
	r := d.r
	switch h.Kind {
	case jvm.AttrConstantValue, jvm.AttrSourceFile, jvm.AttrSignature, jvm.AttrNestHost,
		jvm.AttrModuleMainClass, jvm.AttrModuleTarget, jvm.AttrModuleResolution,
		jvm.AttrSourceID, jvm.AttrCompilationID:
		idx, err := r.u2("index")
		if err != nil {
			return nil, err
		}
		if h.Kind == jvm.AttrConstantValue {
			d.checkConstantValue(h.Offset, idx)
		}
		return &jvm.IndexAttr{AttrHeader: *h, Index: idx}, nil

	case jvm.AttrEnclosingMethod:
		c, err := r.u2("class_index")
		if err != nil {
			return nil, err
		}
		m, err := r.u2("method_index")
		if err != nil {
			return nil, err
		}
		return &jvm.EnclosingMethodAttr{AttrHeader: *h, ClassIndex: c, MethodIndex: m}, nil

	case jvm.AttrSynthetic, jvm.AttrDeprecated:
		return &jvm.MarkerAttr{AttrHeader: *h}, nil

	case jvm.AttrExceptions, jvm.AttrNestMembers, jvm.AttrPermittedSubclasses,
		jvm.AttrModulePackages, jvm.AttrLoadableDescriptors:
		n, err := r.u2("number_of_entries")
		if err != nil {
			return nil, err
		}
		idx, err := r.u2s(int(n), "entries")
		if err != nil {
			return nil, err
		}
		return &jvm.IndexArrayAttr{AttrHeader: *h, Indices: idx}, nil

	case jvm.AttrInnerClasses:
		n, err := r.u2("number_of_classes")
		if err != nil {
			return nil, err
		}
		vals, err := r.u2s(int(n)*4, "classes")
		if err != nil {
			return nil, err
		}
		a := &jvm.InnerClassesAttr{AttrHeader: *h, Classes: make([]jvm.InnerClass, n)}
		for i := range a.Classes {
			v := vals[i*4:]
			a.Classes[i] = jvm.InnerClass{InnerIndex: v[0], OuterIndex: v[1], NameIndex: v[2], Flags: v[3]}
		}
		return a, nil

	case jvm.AttrSourceDebugExtension:
		b, err := r.bytes(int(h.Length), "debug_extension")
		if err != nil {
			return nil, err
		}
		return &jvm.SourceDebugExtensionAttr{AttrHeader: *h, Data: b}, nil

	case jvm.AttrLineNumberTable:
		n, err := r.u2("line_number_table_length")
		if err != nil {
			return nil, err
		}
		vals, err := r.u2s(int(n)*2, "line_number_table")
		if err != nil {
			return nil, err
		}
		a := &jvm.LineNumberTableAttr{AttrHeader: *h, Lines: make([]jvm.LineNumber, n)}
		for i := range a.Lines {
			a.Lines[i] = jvm.LineNumber{StartPC: vals[i*2], Line: vals[i*2+1]}
		}
		return a, nil

	case jvm.AttrLocalVariableTable, jvm.AttrLocalVariableTypeTable:
		n, err := r.u2("local_variable_table_length")
		if err != nil {
			return nil, err
		}
		vals, err := r.u2s(int(n)*5, "local_variable_table")
		if err != nil {
			return nil, err
		}
		a := &jvm.LocalVariableTableAttr{AttrHeader: *h, Vars: make([]jvm.LocalVariable, n)}
		for i := range a.Vars {
			v := vals[i*5:]
			a.Vars[i] = jvm.LocalVariable{StartPC: v[0], Length: v[1], NameIndex: v[2], DescIndex: v[3], Slot: v[4]}
		}
		return a, nil

	case jvm.AttrMethodParameters:
		n, err := r.u1("parameters_count")
		if err != nil {
			return nil, err
		}
		vals, err := r.u2s(int(n)*2, "parameters")
		if err != nil {
			return nil, err
		}
		a := &jvm.MethodParametersAttr{AttrHeader: *h, Params: make([]jvm.MethodParameter, n)}
		for i := range a.Params {
			a.Params[i] = jvm.MethodParameter{NameIndex: vals[i*2], Flags: vals[i*2+1]}
		}
		return a, nil

	case jvm.AttrBootstrapMethods:
		return d.readBootstrapMethods(h)

	case jvm.AttrCode:
		return d.readCode(h)

	case jvm.AttrStackMapTable:
		frames, err := d.readStackMapTable()
		return &jvm.StackMapAttr{AttrHeader: *h, Frames: frames}, err

	case jvm.AttrStackMap:
		frames, err := d.readStackMap()
		return &jvm.StackMapAttr{AttrHeader: *h, Legacy: true, Frames: frames}, err

	case jvm.AttrRuntimeVisibleAnnotations, jvm.AttrRuntimeInvisibleAnnotations:
		anns, err := d.readAnnotations()
		if err != nil {
			return nil, err
		}
		return &jvm.AnnotationsAttr{AttrHeader: *h, Annotations: anns}, nil

	case jvm.AttrRuntimeVisibleParameterAnnotations, jvm.AttrRuntimeInvisibleParameterAnnotations:
		n, err := r.u1("num_parameters")
		if err != nil {
			return nil, err
		}
		a := &jvm.ParameterAnnotationsAttr{AttrHeader: *h, Params: make([][]jvm.Annotation, n)}
		for i := range a.Params {
			if a.Params[i], err = d.readAnnotations(); err != nil {
				return nil, fmt.Errorf("parameter %d: %w", i, err)
			}
		}
		return a, nil

	case jvm.AttrRuntimeVisibleTypeAnnotations, jvm.AttrRuntimeInvisibleTypeAnnotations:
		anns, err := d.readTypeAnnotations()
		if err != nil {
			return nil, err
		}
		return &jvm.TypeAnnotationsAttr{AttrHeader: *h, Annotations: anns}, nil

	case jvm.AttrAnnotationDefault:
		v, err := d.readElementValue()
		if err != nil {
			return nil, err
		}
		return &jvm.AnnotationDefaultAttr{AttrHeader: *h, Value: v}, nil

	case jvm.AttrModule:
		m, err := d.readModule()
		if err != nil {
			return nil, err
		}
		return &jvm.ModuleAttr{AttrHeader: *h, Module: m}, nil

	case jvm.AttrModuleHashes:
		return d.readModuleHashes(h)

	case jvm.AttrRecord:
		return d.readRecord(h)
	}
	return nil, fmt.Errorf("no decoder for %s", h.Kind)
}

func (d *decoder) checkConstantValue(at int, idx uint16) {
	tag, ok := d.pool.Tag(int(idx))
	if !ok {
		d.diag(at, jvm.DiagIndex, fmt.Sprintf("ConstantValue #%d out of range", idx))
		return
	}
	switch tag {
	case jvm.TagInteger, jvm.TagFloat, jvm.TagLong, jvm.TagDouble, jvm.TagString:
	default:
		d.diag(at, jvm.DiagInvalid, fmt.Sprintf("ConstantValue #%d is %s, want a numeric or String constant", idx, tag))
	}
}

func (d *decoder) readBootstrapMethods(h *jvm.AttrHeader) (jvm.Attribute, error) {
	r := d.r
	n, err := r.u2("num_bootstrap_methods")
	if err != nil {
		return nil, err
	}
	a := &jvm.BootstrapMethodsAttr{AttrHeader: *h, Methods: make([]jvm.BootstrapMethod, 0, n)}
	for i := 0; i < int(n); i++ {
		ref, err := r.u2("bootstrap_method_ref")
		if err != nil {
			return nil, err
		}
		argc, err := r.u2("num_bootstrap_arguments")
		if err != nil {
			return nil, err
		}
		args, err := r.u2s(int(argc), "bootstrap_arguments")
		if err != nil {
			return nil, err
		}
		a.Methods = append(a.Methods, jvm.BootstrapMethod{MethodRef: ref, Args: args})
	}
	return a, nil
}

func (d *decoder) readCode(h *jvm.AttrHeader) (jvm.Attribute, error) {
	r := d.r
	a := &jvm.CodeAttr{AttrHeader: *h}
	var err error
	if a.MaxStack, err = r.u2("max_stack"); err != nil {
		return nil, err
	}
	if a.MaxLocals, err = r.u2("max_locals"); err != nil {
		return nil, err
	}
	n, err := r.u4("code_length")
	if err != nil {
		return nil, err
	}
	if n == 0 || n > 0xFFFF {
		d.diag(r.pos()-4, jvm.DiagInvalid, fmt.Sprintf("code_length %d outside 1..65535", n))
	}
	if a.Code, err = r.bytes(int(n), "code"); err != nil {
		return nil, err
	}
	excs, err := r.u2("exception_table_length")
	if err != nil {
		return nil, err
	}
	vals, err := r.u2s(int(excs)*4, "exception_table")
	if err != nil {
		return nil, err
	}
	a.Exceptions = make([]jvm.ExceptionEntry, excs)
	for i := range a.Exceptions {
		v := vals[i*4:]
		a.Exceptions[i] = jvm.ExceptionEntry{StartPC: v[0], EndPC: v[1], HandlerPC: v[2], CatchType: v[3]}
	}
	if a.Attributes, err = d.readAttributes(ownerCode); err != nil {
		return nil, err
	}
	return a, nil
}

func (d *decoder) readRecord(h *jvm.AttrHeader) (jvm.Attribute, error) {
	r := d.r
	n, err := r.u2("components_count")
	if err != nil {
		return nil, err
	}
	a := &jvm.RecordAttr{AttrHeader: *h, Components: make([]jvm.RecordComponent, 0, n)}
	for i := 0; i < int(n); i++ {
		var c jvm.RecordComponent
		if c.NameIndex, err = r.u2("name_index"); err != nil {
			return nil, err
		}
		if c.DescIndex, err = r.u2("descriptor_index"); err != nil {
			return nil, err
		}
		if c.Attributes, err = d.readAttributes(ownerRecord); err != nil {
			return nil, fmt.Errorf("component %d: %w", i, err)
		}
		a.Components = append(a.Components, c)
	}
	return a, nil
}
