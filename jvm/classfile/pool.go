package classfile

import (
	"fmt"

	"github.com/openjdk/asmtools-sub002/jvm"
)

// DecodePool decodes a standalone constant pool: a u2 count followed by
// count-1 slots of entries.
func DecodePool(data []byte, opt jvm.Options) (jvm.Result[*jvm.ConstantPool], error) {
	d := newDecoder(data, opt)
	p, err := d.readPool()
	return jvm.Result[*jvm.ConstantPool]{Value: p, Diags: d.diags}, err
}

// readPool always returns a usable pool, partial when err is non-nil.
func (d *decoder) readPool() (*jvm.ConstantPool, error) {
	r := d.r
	count, err := r.u2("constant_pool_count")
	if err != nil {
		return jvm.NewConstantPool(nil), err
	}
	if count == 0 {
		d.diag(r.pos()-2, jvm.DiagInvalid, "constant_pool_count is 0")
		return jvm.NewConstantPool(nil), nil
	}
	entries := make([]jvm.Constant, count)
	for i := 1; i < int(count); i++ {
		at := r.pos()
		c, err := d.readConstant(i)
		if err != nil {
			return jvm.NewConstantPool(entries), err
		}
		entries[i] = c
		if c.Tag().Wide() {
			if i+1 >= int(count) {
				d.diag(at, jvm.DiagInvalid, fmt.Sprintf("#%d %s occupies the last slot", i, c.Tag()))
			}
			i++
		}
	}
	return jvm.NewConstantPool(entries), nil
}

func (d *decoder) readConstant(i int) (jvm.Constant, error) {
	r := d.r
	at := r.pos()
	tag, err := r.u1("constant tag")
	if err != nil {
		return nil, fmt.Errorf("constant #%d: %w", i, err)
	}
	what := fmt.Sprintf("constant #%d", i)
	wrap := func(err error) error { return fmt.Errorf("%s: %w", what, err) }

	switch t := jvm.ConstTag(tag); t {
	case jvm.TagUtf8:
		n, err := r.u2("utf8 length")
		if err != nil {
			return nil, wrap(err)
		}
		b, err := r.bytes(int(n), "utf8 bytes")
		if err != nil {
			return nil, wrap(err)
		}
		s, ok := jvm.DecodeModifiedUTF8(b)
		u := &jvm.ConstantUtf8{Value: s}
		if !ok {
			u.Raw = b
			d.diag(at, jvm.DiagInvalid, fmt.Sprintf("#%d: malformed modified UTF-8", i))
		}
		return u, nil
	case jvm.TagInteger, jvm.TagFloat:
		v, err := r.u4("constant value")
		if err != nil {
			return nil, wrap(err)
		}
		if t == jvm.TagInteger {
			return &jvm.ConstantInteger{Value: int32(v)}, nil
		}
		return &jvm.ConstantFloat{Bits: v}, nil
	case jvm.TagLong, jvm.TagDouble:
		v, err := r.u8("constant value")
		if err != nil {
			return nil, wrap(err)
		}
		if t == jvm.TagLong {
			return &jvm.ConstantLong{Value: int64(v)}, nil
		}
		return &jvm.ConstantDouble{Bits: v}, nil
	case jvm.TagClass, jvm.TagString, jvm.TagMethodType, jvm.TagModule, jvm.TagPackage:
		idx, err := r.u2("constant index")
		if err != nil {
			return nil, wrap(err)
		}
		switch t {
		case jvm.TagClass:
			return &jvm.ConstantClass{NameIndex: idx}, nil
		case jvm.TagString:
			return &jvm.ConstantString{StringIndex: idx}, nil
		case jvm.TagMethodType:
			return &jvm.ConstantMethodType{DescriptorIndex: idx}, nil
		case jvm.TagModule:
			return &jvm.ConstantModule{NameIndex: idx}, nil
		}
		return &jvm.ConstantPackage{NameIndex: idx}, nil
	case jvm.TagFieldref, jvm.TagMethodref, jvm.TagInterfaceMethodref,
		jvm.TagNameAndType, jvm.TagDynamic, jvm.TagInvokeDynamic:
		a, err := r.u2("constant index")
		if err != nil {
			return nil, wrap(err)
		}
		b, err := r.u2("constant index")
		if err != nil {
			return nil, wrap(err)
		}
		switch t {
		case jvm.TagNameAndType:
			return &jvm.ConstantNameAndType{NameIndex: a, DescriptorIndex: b}, nil
		case jvm.TagDynamic, jvm.TagInvokeDynamic:
			return &jvm.ConstantDynamic{DynTag: t, BootstrapIndex: a, NameAndTypeIndex: b}, nil
		}
		return &jvm.ConstantRef{RefTag: t, ClassIndex: a, NameAndTypeIndex: b}, nil
	case jvm.TagMethodHandle:
		kind, err := r.u1("reference_kind")
		if err != nil {
			return nil, wrap(err)
		}
		ref, err := r.u2("reference_index")
		if err != nil {
			return nil, wrap(err)
		}
		return &jvm.ConstantMethodHandle{RefKind: kind, RefIndex: ref}, nil
	}
	return nil, &jvm.FormatError{Offset: at, What: what, Msg: fmt.Sprintf("unknown constant tag %d", tag)}
}

// expectedRefs lists, per reference position, the tags an entry may point at.
func expectedRefs(c jvm.Constant) [][]jvm.ConstTag {
	utf8 := []jvm.ConstTag{jvm.TagUtf8}
	switch c := c.(type) {
	case *jvm.ConstantClass, *jvm.ConstantString, *jvm.ConstantMethodType,
		*jvm.ConstantModule, *jvm.ConstantPackage:
		return [][]jvm.ConstTag{utf8}
	case *jvm.ConstantNameAndType:
		return [][]jvm.ConstTag{utf8, utf8}
	case *jvm.ConstantRef:
		return [][]jvm.ConstTag{{jvm.TagClass}, {jvm.TagNameAndType}}
	case *jvm.ConstantDynamic:
		return [][]jvm.ConstTag{{jvm.TagNameAndType}}
	case *jvm.ConstantMethodHandle:
		switch c.RefKind {
		case jvm.RefGetField, jvm.RefGetStatic, jvm.RefPutField, jvm.RefPutStatic:
			return [][]jvm.ConstTag{{jvm.TagFieldref}}
		case jvm.RefInvokeVirtual, jvm.RefNewInvokeSpecial:
			return [][]jvm.ConstTag{{jvm.TagMethodref}}
		case jvm.RefInvokeStatic, jvm.RefInvokeSpecial:
			return [][]jvm.ConstTag{{jvm.TagMethodref, jvm.TagInterfaceMethodref}}
		case jvm.RefInvokeInterface:
			return [][]jvm.ConstTag{{jvm.TagInterfaceMethodref}}
		}
	}
	return nil
}

// validatePool records an index diagnostic for every cross reference that
// is out of range or points at an entry of the wrong kind.
func (d *decoder) validatePool(p *jvm.ConstantPool) {
	p.Each(func(idx int, c jvm.Constant) {
		if mh, ok := c.(*jvm.ConstantMethodHandle); ok && (mh.RefKind < 1 || mh.RefKind > 9) {
			d.diag(0, jvm.DiagInvalid, fmt.Sprintf("#%d MethodHandle: bad reference kind %d", idx, mh.RefKind))
			return
		}
		want := expectedRefs(c)
		for i, ref := range jvm.References(c) {
			if i >= len(want) {
				break
			}
			tag, ok := p.Tag(int(ref))
			if !ok {
				d.diag(0, jvm.DiagIndex, fmt.Sprintf("#%d %s: reference #%d out of range", idx, c.Tag(), ref))
				continue
			}
			if !tagIn(tag, want[i]) {
				d.diag(0, jvm.DiagIndex, fmt.Sprintf("#%d %s: reference #%d is %s", idx, c.Tag(), ref, tag))
			}
		}
	})
}

func tagIn(t jvm.ConstTag, set []jvm.ConstTag) bool {
	for _, s := range set {
		if s == t {
			return true
		}
	}
	return false
}
