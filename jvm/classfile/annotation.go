package classfile

import (
	"fmt"

	"github.com/openjdk/asmtools-sub002/jvm"
)

func (d *decoder) readAnnotations() ([]jvm.Annotation, error) {
	n, err := d.r.u2("num_annotations")
	if err != nil {
		return nil, err
	}
	out := make([]jvm.Annotation, 0, n)
	for i := 0; i < int(n); i++ {
		a, err := d.readAnnotation()
		if err != nil {
			return nil, fmt.Errorf("annotation %d: %w", i, err)
		}
		out = append(out, a)
	}
	return out, nil
}

func (d *decoder) readAnnotation() (jvm.Annotation, error) {
	r := d.r
	var a jvm.Annotation
	var err error
	if a.TypeIndex, err = r.u2("type_index"); err != nil {
		return a, err
	}
	n, err := r.u2("num_element_value_pairs")
	if err != nil {
		return a, err
	}
	a.Pairs = make([]jvm.ElementPair, 0, n)
	for i := 0; i < int(n); i++ {
		name, err := r.u2("element_name_index")
		if err != nil {
			return a, err
		}
		v, err := d.readElementValue()
		if err != nil {
			return a, err
		}
		a.Pairs = append(a.Pairs, jvm.ElementPair{NameIndex: name, Value: v})
	}
	return a, nil
}

// readElementValue recurses through nested annotations and arrays; depth is
// bounded by the input since every level consumes bytes.
func (d *decoder) readElementValue() (jvm.ElementValue, error) {
	r := d.r
	at := r.pos()
	tag, err := r.u1("element_value tag")
	if err != nil {
		return jvm.ElementValue{}, err
	}
	v := jvm.ElementValue{Tag: tag}
	switch tag {
	case jvm.ElemByte, jvm.ElemChar, jvm.ElemDouble, jvm.ElemFloat, jvm.ElemInt,
		jvm.ElemLong, jvm.ElemShort, jvm.ElemBoolean, jvm.ElemString, jvm.ElemClass:
		v.ConstIndex, err = r.u2("const_value_index")
		return v, err
	case jvm.ElemEnum:
		if v.EnumType, err = r.u2("type_name_index"); err != nil {
			return v, err
		}
		v.EnumName, err = r.u2("const_name_index")
		return v, err
	case jvm.ElemAnnotation:
		a, err := d.readAnnotation()
		if err != nil {
			return v, err
		}
		v.Annotation = &a
		return v, nil
	case jvm.ElemArray:
		n, err := r.u2("num_values")
		if err != nil {
			return v, err
		}
		v.Values = make([]jvm.ElementValue, 0, n)
		for i := 0; i < int(n); i++ {
			ev, err := d.readElementValue()
			if err != nil {
				return v, err
			}
			v.Values = append(v.Values, ev)
		}
		return v, nil
	}
	return v, fmt.Errorf("element value tag %q at offset %d: %w", tag, at, jvm.ErrUnknownElement)
}

func (d *decoder) readTypeAnnotations() ([]jvm.TypeAnnotation, error) {
	n, err := d.r.u2("num_annotations")
	if err != nil {
		return nil, err
	}
	out := make([]jvm.TypeAnnotation, 0, n)
	for i := 0; i < int(n); i++ {
		a, err := d.readTypeAnnotation()
		if err != nil {
			return nil, fmt.Errorf("type annotation %d: %w", i, err)
		}
		out = append(out, a)
	}
	return out, nil
}

func (d *decoder) readTypeAnnotation() (jvm.TypeAnnotation, error) {
	r := d.r
	var ta jvm.TypeAnnotation
	at := r.pos()
	t, err := r.u1("target_type")
	if err != nil {
		return ta, err
	}
	ta.TargetType = t
	ti := &ta.Target
	switch {
	case t == jvm.TargetClassTypeParameter || t == jvm.TargetMethodTypeParameter:
		ti.TypeParameterIndex, err = r.u1("type_parameter_index")
	case t == jvm.TargetClassExtends:
		ti.SupertypeIndex, err = r.u2("supertype_index")
	case t == jvm.TargetClassTypeParameterBound || t == jvm.TargetMethodTypeParamBound:
		if ti.TypeParameterIndex, err = r.u1("type_parameter_index"); err == nil {
			ti.BoundIndex, err = r.u1("bound_index")
		}
	case t == jvm.TargetField || t == jvm.TargetMethodReturn || t == jvm.TargetMethodReceiver:
	case t == jvm.TargetMethodFormalParameter:
		ti.FormalParameterIndex, err = r.u1("formal_parameter_index")
	case t == jvm.TargetThrows:
		ti.ThrowsTypeIndex, err = r.u2("throws_type_index")
	case t == jvm.TargetLocalVariable || t == jvm.TargetResourceVariable:
		var n uint16
		if n, err = r.u2("table_length"); err != nil {
			break
		}
		var vals []uint16
		if vals, err = r.u2s(int(n)*3, "localvar_table"); err != nil {
			break
		}
		ti.LocalVars = make([]jvm.LocalVarTarget, n)
		for i := range ti.LocalVars {
			ti.LocalVars[i] = jvm.LocalVarTarget{StartPC: vals[i*3], Length: vals[i*3+1], Index: vals[i*3+2]}
		}
	case t == jvm.TargetExceptionParameter:
		ti.ExceptionTableIndex, err = r.u2("exception_table_index")
	case t >= jvm.TargetInstanceOf && t <= jvm.TargetMethodReference:
		ti.Offset, err = r.u2("offset")
	case t >= jvm.TargetCast && t <= jvm.TargetMethodReferenceTA:
		if ti.Offset, err = r.u2("offset"); err == nil {
			ti.TypeArgumentIndex, err = r.u1("type_argument_index")
		}
	default:
		return ta, fmt.Errorf("target type 0x%02X at offset %d: %w", t, at, jvm.ErrUnknownElement)
	}
	if err != nil {
		return ta, err
	}

	n, err := r.u1("path_length")
	if err != nil {
		return ta, err
	}
	path, err := r.bytes(int(n)*2, "type_path")
	if err != nil {
		return ta, err
	}
	ta.Path = make([]jvm.TypePathEntry, n)
	for i := range ta.Path {
		ta.Path[i] = jvm.TypePathEntry{Kind: path[i*2], ArgIndex: path[i*2+1]}
	}
	ta.Annotation, err = d.readAnnotation()
	return ta, err
}
