package disasm

import (
	"fmt"
	"strings"

	"github.com/openjdk/asmtools-sub002/jvm"
)

func (r *renderer) jasm() {
	cf := r.cf
	p := r.p
	if cf.IsModule() {
		r.jasmModuleHeader()
	} else {
		r.jasmClassHeader()
	}

	p.line("{")
	p.in()
	wrote := false
	section := func() {
		if wrote {
			p.blank()
		}
		wrote = true
	}
	if r.indexed() && r.pool.Size() > 1 {
		section()
		r.jasmPool()
	}
	if m, ok := cf.Attr(jvm.AttrModule).(*jvm.ModuleAttr); ok && cf.IsModule() {
		if rs := r.moduleRows(&m.Module); len(rs) > 0 {
			section()
			p.rows(rs)
		}
	}
	if len(cf.Fields) > 0 {
		section()
		r.jasmFields()
	}
	if len(cf.Methods) > 0 {
		section()
		r.jasmMethods()
	}
	r.member = ""
	attrs := r.classAttrs()
	if len(attrs) > 0 {
		section()
		for _, a := range attrs {
			r.jasmAttr(a)
		}
	}
	p.out()
	kind := "Class"
	if cf.IsModule() {
		kind = "Module"
	} else if cf.Flags&jvm.AccInterface != 0 {
		kind = "Interface"
	}
	p.commented("}", "end "+kind+" "+cf.DottedName(), 0)
}

// classAttrs lists the class attributes rendered in the body. Module
// attributes are part of the module header.
func (r *renderer) classAttrs() []jvm.Attribute {
	var out []jvm.Attribute
	for _, a := range r.cf.Attributes {
		if r.skipAttr(a) {
			continue
		}
		if r.cf.IsModule() && a.Header().Kind == jvm.AttrModule {
			continue
		}
		out = append(out, a)
	}
	return out
}

func (r *renderer) jasmClassHeader() {
	cf := r.cf
	p := r.p
	kw := jvm.AccessKeywords(cf.Flags, jvm.ClassAccess, 0)
	if cf.Flags&jvm.AccInterface == 0 {
		kw = append(kw, "class")
	}
	this, comment := r.cls(cf.ThisClass)
	if !r.indexed() {
		this = strings.ReplaceAll(this, "/", ".")
	}
	p.commented(strings.Join(kw, " ")+" "+this+";", comment, minCommentCol)
	p.in()
	r.jasmVersion()
	if !r.opt.Has(jvm.DropClassPair) {
		var rs []row
		if r.indexed() {
			key, c := r.cls(cf.SuperClass)
			rs = append(rs, row{key: "super_class: " + key + ";", comment: c})
			if len(cf.Interfaces) > 0 {
				key, c := list(cf.Interfaces, r.cls)
				rs = append(rs, row{key: "interfaces: " + key + ";", comment: c})
			}
		} else {
			if cf.SuperClass != 0 {
				name, _ := r.cls(cf.SuperClass)
				rs = append(rs, row{key: "extends " + strings.ReplaceAll(name, "/", ".") + ";"})
			}
			if len(cf.Interfaces) > 0 {
				names, _ := list(cf.Interfaces, r.cls)
				rs = append(rs, row{key: "implements " + strings.ReplaceAll(names, "/", ".") + ";"})
			}
		}
		p.rows(rs)
	}
	p.out()
}

func (r *renderer) jasmVersion() {
	cf := r.cf
	comment := ""
	if cf.FileVersion != cf.Version && !cf.FileVersion.IsZero() {
		comment = "file version " + cf.FileVersion.String()
	}
	r.p.commented(fmt.Sprintf("version %s;", cf.Version), comment, minCommentCol)
}

func (r *renderer) jasmPool() {
	var rs []row
	pd := r.pool.PrintData()
	r.pool.Each(func(idx int, c jvm.Constant) {
		key, comment := r.poolEntry(idx, c)
		label := fmt.Sprintf("const %-*s = ", pd.IndexWidth, jvm.IndexDefault(idx))
		rs = append(rs, row{key: label + key + ";", comment: comment})
	})
	r.p.rows(rs)
}

// poolEntry renders one constant declaration with its index operands and
// the resolved value as comment.
func (r *renderer) poolEntry(idx int, c jvm.Constant) (key, comment string) {
	ct := r.ct
	tag := c.Tag().JasmName()
	switch v := c.(type) {
	case *jvm.ConstantUtf8:
		if v.Raw != nil {
			return tag + " " + ct.str(v.Value), "malformed: " + hexBytes(v.Raw)
		}
		return tag + " " + ct.str(v.Value), ""
	case *jvm.ConstantInteger:
		s := ct.intText(v.Value)
		if r.opt.Has(jvm.HexNumerics) {
			return tag + " " + s, fmt.Sprint(v.Value)
		}
		return tag + " " + s, ""
	case *jvm.ConstantLong:
		s := ct.longText(v.Value)
		if r.opt.Has(jvm.HexNumerics) {
			return tag + " " + s, fmt.Sprint(v.Value)
		}
		return tag + " " + s, ""
	case *jvm.ConstantFloat:
		s := ct.floatText(v)
		if r.opt.Has(jvm.HexNumerics) {
			return tag + " " + s, floatDecimal(float64(v.Value()), 32)
		}
		return tag + " " + s, ""
	case *jvm.ConstantDouble:
		s := ct.doubleText(v)
		if r.opt.Has(jvm.HexNumerics) {
			return tag + " " + s, floatDecimal(v.Value(), 64)
		}
		return tag + " " + s, ""
	case *jvm.ConstantRef:
		return fmt.Sprintf("%s #%d.#%d", tag, v.ClassIndex, v.NameAndTypeIndex), ct.value(idx)
	case *jvm.ConstantNameAndType:
		return fmt.Sprintf("%s #%d:#%d", tag, v.NameIndex, v.DescriptorIndex), r.nameAndTypeComment(idx, v)
	case *jvm.ConstantMethodHandle:
		return fmt.Sprintf("%s %d:#%d", tag, v.RefKind, v.RefIndex), ct.value(idx)
	case *jvm.ConstantDynamic:
		return fmt.Sprintf("%s %d:#%d", tag, v.BootstrapIndex, v.NameAndTypeIndex), ct.value(idx)
	}
	refs := jvm.References(c)
	if len(refs) == 1 {
		return fmt.Sprintf("%s #%d", tag, refs[0]), ct.value(idx)
	}
	return tag, ""
}

func (r *renderer) jasmFields() {
	cf := r.cf
	var rs []row
	type extra struct {
		at    int
		attrs []jvm.Attribute
	}
	var extras []extra
	for i := range cf.Fields {
		f := &cf.Fields[i]
		r.member = f.Label(r.pool)
		key, comment := r.memberKey(f)
		kw := jvm.AccessString(f.Flags, jvm.FieldAccess)
		line := kw + "Field " + key
		var rest []jvm.Attribute
		for _, a := range f.Attributes {
			if cv, ok := a.(*jvm.IndexAttr); ok && a.Header().Kind == jvm.AttrConstantValue {
				k, c := r.ref(cv.Index)
				line += " = " + k
				if c != "" {
					comment = joinComment(comment, "= "+c)
				}
				continue
			}
			if !r.skipAttr(a) {
				rest = append(rest, a)
			}
		}
		rs = append(rs, row{key: line + ";", comment: comment})
		if len(rest) > 0 {
			extras = append(extras, extra{at: len(rs) - 1, attrs: rest})
		}
	}
	if len(extras) == 0 {
		r.p.rows(rs)
		return
	}
	// Fields with attributes break the list; align each run separately.
	start := 0
	col := commentColumn(rs)
	for _, e := range extras {
		for _, rw := range rs[start : e.at+1] {
			r.p.commented(rw.key, rw.comment, col)
		}
		r.member = cf.Fields[e.at].Label(r.pool)
		r.p.in()
		for _, a := range e.attrs {
			r.jasmAttr(a)
		}
		r.p.out()
		start = e.at + 1
	}
	for _, rw := range rs[start:] {
		r.p.commented(rw.key, rw.comment, col)
	}
}

// methodHeader renders access, name, descriptor and throws clause.
func (r *renderer) methodHeader(m *jvm.Member) (key, comment string) {
	key, comment = r.memberKey(m)
	key = jvm.AccessString(m.Flags, jvm.MethodAccess) + "Method " + key
	if ex, ok := jvm.FindAttr(m.Attributes, jvm.AttrExceptions).(*jvm.IndexArrayAttr); ok {
		k, c := list(ex.Indices, r.cls)
		key += " throws " + k
		if c != "" {
			comment = joinComment(comment, "throws "+c)
		}
	}
	return key, comment
}

func (r *renderer) jasmMethods() {
	cf := r.cf
	p := r.p
	heads := make([]row, len(cf.Methods))
	for i := range cf.Methods {
		m := &cf.Methods[i]
		r.member = m.Label(r.pool)
		heads[i].key, heads[i].comment = r.methodHeader(m)
	}
	col := commentColumn(heads)
	for i := range cf.Methods {
		m := &cf.Methods[i]
		r.member = m.Label(r.pool)
		if i > 0 {
			p.blank()
		}
		code := m.Code()
		key := heads[i].key
		if code == nil {
			key += ";"
		}
		p.commented(key, heads[i].comment, col)
		p.in()
		for _, a := range m.Attributes {
			switch a.Header().Kind {
			case jvm.AttrCode, jvm.AttrExceptions:
				continue
			}
			if !r.skipAttr(a) {
				r.jasmAttr(a)
			}
		}
		if code != nil {
			comment := ""
			if r.detail() {
				comment = r.headerDetail(code)
			}
			p.commented(fmt.Sprintf("stack %d locals %d", code.MaxStack, code.MaxLocals), comment, minCommentCol)
		}
		p.out()
		if code != nil {
			r.jasmCode(m, code)
		}
	}
}
