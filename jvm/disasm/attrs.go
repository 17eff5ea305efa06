package disasm

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/openjdk/asmtools-sub002/jvm"
)

// jasmAttr prints one attribute at the current indent.
func (r *renderer) jasmAttr(a jvm.Attribute) {
	rs := r.attrRows(a)
	if len(rs) == 0 {
		return
	}
	if r.detail() {
		rs[0].comment = joinComment(rs[0].comment, r.headerDetail(a))
	}
	r.p.rows(rs)
}

func single(key, comment string) []row { return []row{{key: key, comment: comment}} }

func nest(rs []row, depth int) []row {
	for i := range rs {
		rs[i].depth += depth
	}
	return rs
}

// attrRows renders an attribute as rows relative to the current indent.
func (r *renderer) attrRows(a jvm.Attribute) []row {
	kind := a.Header().Kind
	name := kind.String()
	switch v := a.(type) {
	case *jvm.IndexAttr:
		var key, comment string
		switch kind {
		case jvm.AttrNestHost, jvm.AttrModuleMainClass:
			key, comment = r.cls(v.Index)
		case jvm.AttrConstantValue:
			key, comment = r.ref(v.Index)
		case jvm.AttrModuleResolution:
			return single(fmt.Sprintf("%s 0x%04X;", name, v.Index), resolutionNames(v.Index))
		default:
			key, comment = r.text(v.Index)
		}
		return single(name+" "+key+";", comment)

	case *jvm.MarkerAttr:
		return single(name+";", "")

	case *jvm.EnclosingMethodAttr:
		key, comment := r.cls(v.ClassIndex)
		if v.MethodIndex != 0 {
			if r.indexed() {
				key += ":" + hash(v.MethodIndex)
				comment = joinComment(comment, r.ct.nameAndType(int(v.MethodIndex)))
			} else {
				key += "." + r.ct.nameAndType(int(v.MethodIndex))
			}
		}
		return single(name+" "+key+";", comment)

	case *jvm.IndexArrayAttr:
		f := r.cls
		switch kind {
		case jvm.AttrLoadableDescriptors:
			f = r.text
		case jvm.AttrModulePackages:
			f = r.named
		}
		key, comment := list(v.Indices, f)
		return single(name+" "+key+";", comment)

	case *jvm.InnerClassesAttr:
		rs := make([]row, 0, len(v.Classes))
		for _, ic := range v.Classes {
			rs = append(rs, r.innerClass(ic))
		}
		return rs

	case *jvm.SourceDebugExtensionAttr:
		if utf8.Valid(v.Data) {
			return single(name+" "+strconv.Quote(string(v.Data))+";", "")
		}
		return single(name+" { "+hexBytes(v.Data)+" };", "not valid UTF-8")

	case *jvm.BootstrapMethodsAttr:
		rs := make([]row, 0, len(v.Methods))
		for i, m := range v.Methods {
			key, comment := r.ref(m.MethodRef)
			if len(m.Args) > 0 {
				args, c := list(m.Args, r.ref)
				if r.indexed() {
					key += " " + strings.ReplaceAll(args, ",", "")
					comment = joinComment(comment, c)
				} else {
					key += " { " + args + " }"
				}
			}
			rs = append(rs, row{key: "BootstrapMethod " + key + ";", comment: joinComment(strconv.Itoa(i), comment)})
		}
		return rs

	case *jvm.MethodParametersAttr:
		rs := make([]row, 0, len(v.Params))
		for _, mp := range v.Params {
			key, comment := "#0", ""
			if mp.NameIndex != 0 {
				key, comment = r.text(mp.NameIndex)
			}
			kw := jvm.AccessString(mp.Flags, jvm.ParameterAccess)
			rs = append(rs, row{key: "MethodParameter " + kw + key + ";", comment: comment})
		}
		return rs

	case *jvm.AnnotationsAttr:
		visible := kind == jvm.AttrRuntimeVisibleAnnotations
		rs := make([]row, 0, len(v.Annotations))
		for i := range v.Annotations {
			key, comment := r.annotation(&v.Annotations[i], visible)
			rs = append(rs, row{key: key + ";", comment: comment})
		}
		return rs

	case *jvm.ParameterAnnotationsAttr:
		visible := kind == jvm.AttrRuntimeVisibleParameterAnnotations
		var rs []row
		for p, anns := range v.Params {
			for i := range anns {
				key, comment := r.annotation(&anns[i], visible)
				rs = append(rs, row{key: fmt.Sprintf("param %d %s;", p, key), comment: comment})
			}
		}
		return rs

	case *jvm.TypeAnnotationsAttr:
		visible := kind == jvm.AttrRuntimeVisibleTypeAnnotations
		rs := make([]row, 0, len(v.Annotations))
		for i := range v.Annotations {
			key, comment := r.typeAnnotation(&v.Annotations[i], visible)
			rs = append(rs, row{key: key + ";", comment: comment})
		}
		return rs

	case *jvm.AnnotationDefaultAttr:
		ix := annWriter{r: r, ix: r.indexed()}
		comment := ""
		if r.indexed() {
			comment = annWriter{r: r}.element(v.Value)
		}
		return single("default { "+ix.element(v.Value)+" };", comment)

	case *jvm.RecordAttr:
		rs := []row{{key: name + " {"}}
		for _, c := range v.Components {
			key, comment := r.memberKey(&jvm.Member{NameIndex: c.NameIndex, DescIndex: c.DescIndex})
			end := ";"
			if len(c.Attributes) > 0 {
				end = " {"
			}
			rs = append(rs, row{key: "Component " + key + end, comment: comment, depth: 1})
			for _, ca := range c.Attributes {
				if !r.skipAttr(ca) {
					rs = append(rs, nest(r.attrRows(ca), 2)...)
				}
			}
			if len(c.Attributes) > 0 {
				rs = append(rs, row{key: "}", depth: 1})
			}
		}
		return append(rs, row{key: "}"})

	case *jvm.ModuleAttr:
		rs := []row{{key: name + " {"}}
		rs = append(rs, nest(r.moduleRows(&v.Module), 1)...)
		return append(rs, row{key: "}"})

	case *jvm.ModuleHashesAttr:
		key, comment := r.text(v.Algorithm)
		rs := []row{{key: name + " " + key + " {", comment: comment}}
		for _, h := range v.Hashes {
			k, c := r.named(h.ModuleIndex)
			rs = append(rs, row{key: fmt.Sprintf("%s: %x;", k, h.Hash), comment: c, depth: 1})
		}
		return append(rs, row{key: "}"})

	case *jvm.UnrecognizedAttr:
		return r.unrecognized(v)
	}
	return single("// "+r.attrName(a)+" attribute not rendered", "")
}

const rawBytesPerRow = 16

func (r *renderer) unrecognized(u *jvm.UnrecognizedAttr) []row {
	name := strconv.Quote(r.attrName(u))
	if u.Name == "" {
		name = hash(u.NameIndex)
	}
	comment := u.Reason
	if len(u.Data) <= rawBytesPerRow {
		body := "{ }"
		if len(u.Data) > 0 {
			body = "{ " + hexBytes(u.Data) + " }"
		}
		return single("Attribute "+name+" "+body+";", comment)
	}
	rs := []row{{key: "Attribute " + name + " {", comment: comment}}
	for i := 0; i < len(u.Data); i += rawBytesPerRow {
		end := min(i+rawBytesPerRow, len(u.Data))
		sep := ","
		if end == len(u.Data) {
			sep = ""
		}
		rs = append(rs, row{key: hexBytes(u.Data[i:end]) + sep, depth: 1})
	}
	return append(rs, row{key: "};"})
}

func resolutionNames(v uint16) string {
	names := []string{"DO_NOT_RESOLVE_BY_DEFAULT", "WARN_DEPRECATED", "WARN_DEPRECATED_FOR_REMOVAL", "WARN_INCUBATING"}
	var out []string
	for i, n := range names {
		if v&(1<<i) != 0 {
			out = append(out, n)
		}
	}
	return strings.Join(out, ", ")
}

func (r *renderer) innerClass(ic jvm.InnerClass) row {
	kw := jvm.AccessString(ic.Flags, jvm.InnerClassAccess)
	var keys, comments []string
	if ic.NameIndex != 0 {
		if r.indexed() {
			keys = append(keys, hash(ic.NameIndex), "=")
			comments = append(comments, r.ct.name(int(ic.NameIndex)))
		} else {
			keys = append(keys, r.ct.name(int(ic.NameIndex)), "=")
		}
	}
	k, c := r.cls(ic.InnerIndex)
	keys = append(keys, k)
	if c != "" {
		comments = append(comments, c)
	}
	if ic.OuterIndex != 0 {
		k, c := r.cls(ic.OuterIndex)
		keys = append(keys, "of", k)
		if c != "" {
			comments = append(comments, "of "+c)
		}
	}
	return row{key: kw + "InnerClass " + strings.Join(keys, " ") + ";", comment: strings.Join(comments, " ")}
}

func (r *renderer) jasmModuleHeader() {
	p := r.p
	comment := ""
	head := "module"
	if m, ok := r.cf.Attr(jvm.AttrModule).(*jvm.ModuleAttr); ok {
		md := &m.Module
		kw := jvm.AccessString(md.Flags, jvm.ModuleAccess)
		name, c := r.named(md.NameIndex)
		head = kw + "module " + name
		comment = c
		if md.VersionIndex != 0 {
			v, vc := r.text(md.VersionIndex)
			head += "@" + v
			comment = joinComment(comment, vc)
		}
	} else {
		r.diag(0, jvm.DiagInvalid, "module class without a Module attribute")
		head += " " + r.cf.Name()
	}
	p.commented(head+";", comment, minCommentCol)
	p.in()
	r.jasmVersion()
	p.out()
}

// moduleRows renders the requires, exports, opens, uses and provides
// directives of md.
func (r *renderer) moduleRows(md *jvm.ModuleDescriptor) []row {
	var rs []row
	dotted := func(idx uint16) (string, string) {
		k, c := r.named(idx)
		if !r.indexed() {
			k = strings.ReplaceAll(k, "/", ".")
		}
		return k, c
	}
	for _, q := range md.Requires {
		key, comment := r.named(q.Index)
		key = "requires " + jvm.AccessString(q.Flags, jvm.RequiresAccess) + key
		if q.VersionIndex != 0 {
			v, c := r.text(q.VersionIndex)
			key += " @ " + v
			comment = joinComment(comment, c)
		}
		rs = append(rs, row{key: key + ";", comment: comment})
	}
	directive := func(word string, es []jvm.ModuleExport) {
		for _, e := range es {
			key, comment := dotted(e.Index)
			key = word + " " + jvm.AccessString(e.Flags, jvm.ExportsAccess) + key
			if len(e.Targets) > 0 {
				t, c := list(e.Targets, r.named)
				key += " to " + t
				comment = joinComment(comment, c)
			}
			rs = append(rs, row{key: key + ";", comment: comment})
		}
	}
	directive("exports", md.Exports)
	directive("opens", md.Opens)
	for _, u := range md.Uses {
		key, comment := r.cls(u)
		rs = append(rs, row{key: "uses " + key + ";", comment: comment})
	}
	for _, pr := range md.Provides {
		key, comment := r.cls(pr.Index)
		w, c := list(pr.With, r.cls)
		rs = append(rs, row{key: "provides " + key + " with " + w + ";", comment: joinComment(comment, c)})
	}
	return rs
}

// annWriter renders annotation structures with pool references either as
// #N (ix) or resolved.
type annWriter struct {
	r  *renderer
	ix bool
}

func (w annWriter) idx(i uint16, f func(int) string) string {
	if w.ix {
		return hash(i)
	}
	return f(int(i))
}

func (w annWriter) annotation(a *jvm.Annotation) string {
	if a == nil {
		return "<missing>"
	}
	ct := w.r.ct
	var b strings.Builder
	b.WriteString(w.idx(a.TypeIndex, ct.utf8))
	b.WriteString(" {")
	for i, p := range a.Pairs {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(" " + w.idx(p.NameIndex, ct.utf8) + " = " + w.element(p.Value))
	}
	if len(a.Pairs) > 0 {
		b.WriteString(" ")
	}
	b.WriteString("}")
	return b.String()
}

func (w annWriter) element(v jvm.ElementValue) string {
	ct := w.r.ct
	switch v.Tag {
	case jvm.ElemString:
		return w.idx(v.ConstIndex, func(i int) string { return ct.str(ct.utf8(i)) })
	case jvm.ElemEnum:
		return "enum " + w.idx(v.EnumType, ct.utf8) + " " + w.idx(v.EnumName, ct.utf8)
	case jvm.ElemClass:
		return "class " + w.idx(v.ConstIndex, ct.utf8)
	case jvm.ElemAnnotation:
		return "@" + w.annotation(v.Annotation)
	case jvm.ElemArray:
		if len(v.Values) == 0 {
			return "{}"
		}
		parts := make([]string, len(v.Values))
		for i, e := range v.Values {
			parts[i] = w.element(e)
		}
		return "{ " + strings.Join(parts, ", ") + " }"
	}
	return string(v.Tag) + " " + w.idx(v.ConstIndex, ct.value)
}

func visibility(visible bool) string {
	if visible {
		return "+"
	}
	return "-"
}

// annotation renders @+Type { name = value } (invisible annotations use @-).
func (r *renderer) annotation(a *jvm.Annotation, visible bool) (key, comment string) {
	key = "@" + visibility(visible) + annWriter{r: r, ix: r.indexed()}.annotation(a)
	if r.indexed() {
		comment = annWriter{r: r}.annotation(a)
	}
	return key, comment
}

// typeAnnotation renders @T+Type { ... } TARGET { info } [path].
func (r *renderer) typeAnnotation(ta *jvm.TypeAnnotation, visible bool) (key, comment string) {
	a := &ta.Annotation
	tail := " " + jvm.TargetName(ta.TargetType) + " " + targetInfo(ta) + typePath(ta.Path)
	key = "@T" + visibility(visible) + annWriter{r: r, ix: r.indexed()}.annotation(a) + tail
	if r.indexed() {
		comment = annWriter{r: r}.annotation(a)
	}
	return key, comment
}

func targetInfo(ta *jvm.TypeAnnotation) string {
	t := &ta.Target
	switch ta.TargetType {
	case jvm.TargetClassTypeParameter, jvm.TargetMethodTypeParameter:
		return fmt.Sprintf("{ param %d }", t.TypeParameterIndex)
	case jvm.TargetClassExtends:
		return fmt.Sprintf("{ supertype %d }", t.SupertypeIndex)
	case jvm.TargetClassTypeParameterBound, jvm.TargetMethodTypeParamBound:
		return fmt.Sprintf("{ param %d bound %d }", t.TypeParameterIndex, t.BoundIndex)
	case jvm.TargetMethodFormalParameter:
		return fmt.Sprintf("{ formal %d }", t.FormalParameterIndex)
	case jvm.TargetThrows:
		return fmt.Sprintf("{ throws %d }", t.ThrowsTypeIndex)
	case jvm.TargetLocalVariable, jvm.TargetResourceVariable:
		parts := make([]string, len(t.LocalVars))
		for i, lv := range t.LocalVars {
			parts[i] = fmt.Sprintf("%d %d %d", lv.StartPC, lv.Length, lv.Index)
		}
		return "{ " + strings.Join(parts, "; ") + " }"
	case jvm.TargetExceptionParameter:
		return fmt.Sprintf("{ catch %d }", t.ExceptionTableIndex)
	case jvm.TargetInstanceOf, jvm.TargetNew, jvm.TargetConstructorReference, jvm.TargetMethodReference:
		return fmt.Sprintf("{ offset %d }", t.Offset)
	case jvm.TargetCast, jvm.TargetConstructorInvocationTA, jvm.TargetMethodInvocationTA,
		jvm.TargetConstructorReferenceTA, jvm.TargetMethodReferenceTA:
		return fmt.Sprintf("{ offset %d arg %d }", t.Offset, t.TypeArgumentIndex)
	}
	return "{}"
}

func typePath(path []jvm.TypePathEntry) string {
	if len(path) == 0 {
		return ""
	}
	parts := make([]string, len(path))
	for i, e := range path {
		parts[i] = fmt.Sprintf("%d:%d", e.Kind, e.ArgIndex)
	}
	return " [" + strings.Join(parts, ", ") + "]"
}
