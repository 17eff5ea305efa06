package disasm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/openjdk/asmtools-sub002/jvm"
	"github.com/openjdk/asmtools-sub002/jvm/bytecode"
)

// tableCommentCol is the comment column used by javap for operands.
const tableCommentCol = 40

// Keywords javap leaves out of member declarations.
var hiddenKeywords = map[string]bool{
	"super": true, "synthetic": true, "bridge": true, "varargs": true,
	"strict": true, "annotation": true, "enum": true, "module": true,
}

func declKeywords(flags uint16, ctx jvm.AccessContext) []string {
	var out []string
	for _, kw := range jvm.AccessKeywords(flags, ctx, 0) {
		if !hiddenKeywords[kw] && !strings.HasPrefix(kw, "0x") {
			out = append(out, kw)
		}
	}
	return out
}

func flagsLine(flags uint16, ctx jvm.AccessContext) string {
	return fmt.Sprintf("flags: (0x%04x) %s", flags, strings.Join(jvm.AccessNames(flags, ctx), ", "))
}

// table renders the javap-like style. References are always pool indices
// with the resolved value as comment.
func (r *renderer) table() {
	r.opt = r.opt.With(jvm.ShowPoolIndex)
	cf := r.cf
	p := r.p

	p.line("%s", r.tableClassDecl())
	p.in()
	if cf.FileVersion != cf.Version && !cf.FileVersion.IsZero() {
		p.line("// file version %s", cf.FileVersion)
	}
	p.line("minor version: %d", cf.Version.Minor)
	p.line("major version: %d", cf.Version.Major)
	p.line("%s", flagsLine(cf.Flags, jvm.ClassAccess))
	if !r.opt.Has(jvm.DropClassPair) {
		key, c := r.cls(cf.ThisClass)
		p.commented("this_class: "+key, c, tableCommentCol)
		key, c = r.cls(cf.SuperClass)
		p.commented("super_class: "+key, c, tableCommentCol)
	}
	p.line("interfaces: %d, fields: %d, methods: %d, attributes: %d",
		len(cf.Interfaces), len(cf.Fields), len(cf.Methods), len(cf.Attributes))
	p.out()

	r.tablePool()

	p.line("{")
	p.in()
	for i := range cf.Fields {
		if i > 0 {
			p.blank()
		}
		r.tableMember(&cf.Fields[i], false)
	}
	for i := range cf.Methods {
		if i > 0 || len(cf.Fields) > 0 {
			p.blank()
		}
		r.tableMember(&cf.Methods[i], true)
	}
	p.out()
	p.line("}")
	r.member = ""
	for _, a := range cf.Attributes {
		if !r.skipAttr(a) {
			r.tableAttr(a)
		}
	}
}

func (r *renderer) tableClassDecl() string {
	cf := r.cf
	if cf.IsModule() {
		return "module " + cf.Name()
	}
	kw := declKeywords(cf.Flags, jvm.ClassAccess)
	if cf.Flags&jvm.AccInterface == 0 {
		kw = append(kw, "class")
	}
	decl := strings.Join(append(kw, cf.DottedName()), " ")
	dotted := func(idx uint16) string {
		return strings.ReplaceAll(r.ct.className(int(idx)), "/", ".")
	}
	if cf.SuperClass != 0 {
		decl += " extends " + dotted(cf.SuperClass)
	}
	if len(cf.Interfaces) > 0 {
		names := make([]string, len(cf.Interfaces))
		for i, idx := range cf.Interfaces {
			names[i] = dotted(idx)
		}
		word := " implements "
		if cf.Flags&jvm.AccInterface != 0 {
			word = " extends "
		}
		decl += word + strings.Join(names, ",")
	}
	return decl
}

func (r *renderer) tablePool() {
	p := r.p
	pd := r.pool.PrintData()
	p.line("Constant pool:")
	var rs []row
	r.pool.Each(func(idx int, c jvm.Constant) {
		label := fmt.Sprintf("%*s = %-*s ", pd.IndexWidth+2, jvm.IndexDefault(idx), pd.TableWidth, c.Tag().String())
		key, comment := r.tableEntry(idx, c)
		rs = append(rs, row{key: label + key, comment: comment})
	})
	p.rows(rs)
}

func (r *renderer) tableEntry(idx int, c jvm.Constant) (key, comment string) {
	ct := r.ct
	switch v := c.(type) {
	case *jvm.ConstantUtf8:
		if v.Raw != nil {
			return v.Value, "malformed: " + hexBytes(v.Raw)
		}
		return v.Value, ""
	case *jvm.ConstantRef:
		return fmt.Sprintf("#%d.#%d", v.ClassIndex, v.NameAndTypeIndex), ct.value(idx)
	case *jvm.ConstantNameAndType:
		return fmt.Sprintf("#%d:#%d", v.NameIndex, v.DescriptorIndex), r.nameAndTypeComment(idx, v)
	case *jvm.ConstantMethodHandle:
		return fmt.Sprintf("%d:#%d", v.RefKind, v.RefIndex), ct.value(idx)
	case *jvm.ConstantDynamic:
		return fmt.Sprintf("#%d:#%d", v.BootstrapIndex, v.NameAndTypeIndex), ct.value(idx)
	case *jvm.ConstantInteger, *jvm.ConstantLong, *jvm.ConstantFloat, *jvm.ConstantDouble:
		return ct.value(idx), ""
	}
	if refs := jvm.References(c); len(refs) == 1 {
		return fmt.Sprintf("#%d", refs[0]), ct.value(idx)
	}
	return "", ""
}

// memberDecl renders a Java-like declaration of a field or method.
func (r *renderer) memberDecl(m *jvm.Member, method bool) string {
	name := r.ct.utf8(int(m.NameIndex))
	desc := r.ct.utf8(int(m.DescIndex))
	ctx := jvm.FieldAccess
	if method {
		ctx = jvm.MethodAccess
	}
	kw := declKeywords(m.Flags, ctx)
	if !method {
		return strings.Join(append(kw, jvm.JavaType(desc), name), " ") + ";"
	}
	if name == "<clinit>" {
		return "static {};"
	}
	params, ret, ok := jvm.MethodTypes(desc)
	if !ok {
		return strings.Join(append(kw, name), " ") + "(" + desc + ");"
	}
	head := strings.Join(append(kw, ret, name), " ")
	if name == "<init>" {
		head = strings.Join(append(kw, r.cf.DottedName()), " ")
	}
	decl := head + "(" + strings.Join(params, ", ") + ")"
	if ex, ok := jvm.FindAttr(m.Attributes, jvm.AttrExceptions).(*jvm.IndexArrayAttr); ok && len(ex.Indices) > 0 {
		names := make([]string, len(ex.Indices))
		for i, idx := range ex.Indices {
			names[i] = strings.ReplaceAll(r.ct.className(int(idx)), "/", ".")
		}
		decl += " throws " + strings.Join(names, ", ")
	}
	return decl + ";"
}

func (r *renderer) tableMember(m *jvm.Member, method bool) {
	p := r.p
	r.member = m.Label(r.pool)
	p.line("%s", r.memberDecl(m, method))
	p.in()
	p.line("descriptor: %s", r.ct.utf8(int(m.DescIndex)))
	ctx := jvm.FieldAccess
	if method {
		ctx = jvm.MethodAccess
	}
	p.line("%s", flagsLine(m.Flags, ctx))
	for _, a := range m.Attributes {
		if r.skipAttr(a) {
			continue
		}
		if code, ok := a.(*jvm.CodeAttr); ok {
			r.tableCode(m, code)
			continue
		}
		r.tableAttr(a)
	}
	p.out()
}

func (r *renderer) tableDetail(a jvm.Attribute) {
	if r.detail() {
		r.p.commented("", r.headerDetail(a), 0)
	}
}

// tableAttr renders one non-Code attribute as "Name: value" or a titled
// block.
func (r *renderer) tableAttr(a jvm.Attribute) {
	p := r.p
	r.tableDetail(a)
	name := a.Header().Kind.String()
	switch v := a.(type) {
	case *jvm.IndexAttr:
		switch a.Header().Kind {
		case jvm.AttrSourceFile:
			p.line("SourceFile: \"%s\"", r.ct.utf8(int(v.Index)))
			return
		case jvm.AttrConstantValue:
			p.line("ConstantValue: %s", r.ct.tagged(int(v.Index)))
			return
		case jvm.AttrNestHost, jvm.AttrModuleMainClass:
			p.line("%s: class %s", name, r.ct.className(int(v.Index)))
			return
		case jvm.AttrModuleResolution:
			p.commented(fmt.Sprintf("%s: 0x%04x", name, v.Index), resolutionNames(v.Index), tableCommentCol)
			return
		}
		p.commented(fmt.Sprintf("%s: #%d", name, v.Index), r.ct.utf8(int(v.Index)), tableCommentCol)
	case *jvm.MarkerAttr:
		p.line("%s: true", name)
	case *jvm.IndexArrayAttr:
		if a.Header().Kind == jvm.AttrExceptions {
			p.line("Exceptions:")
			p.in()
			names := make([]string, len(v.Indices))
			for i, idx := range v.Indices {
				names[i] = strings.ReplaceAll(r.ct.className(int(idx)), "/", ".")
			}
			p.line("throws %s", strings.Join(names, ", "))
			p.out()
			return
		}
		p.line("%s:", name)
		p.in()
		for _, idx := range v.Indices {
			p.line("%s", r.ct.value(int(idx)))
		}
		p.out()
	case *jvm.InnerClassesAttr:
		p.line("InnerClasses:")
		p.in()
		var rs []row
		for _, ic := range v.Classes {
			rs = append(rs, r.innerClass(ic))
		}
		p.rows(rs)
		p.out()
	case *jvm.BootstrapMethodsAttr:
		p.line("BootstrapMethods:")
		p.in()
		for i, m := range v.Methods {
			p.line("%d: #%d %s", i, m.MethodRef, r.ct.value(int(m.MethodRef)))
			p.in()
			p.line("Method arguments:")
			p.in()
			for _, arg := range m.Args {
				p.line("#%d %s", arg, r.ct.value(int(arg)))
			}
			p.out()
			p.out()
		}
		p.out()
	case *jvm.MethodParametersAttr:
		p.line("MethodParameters:")
		p.in()
		p.line("%-24s %s", "Name", "Flags")
		for _, mp := range v.Params {
			n := "<no name>"
			if mp.NameIndex != 0 {
				n = r.ct.utf8(int(mp.NameIndex))
			}
			p.line("%-24s %s", n, strings.Join(declKeywords(mp.Flags, jvm.ParameterAccess), " "))
		}
		p.out()
	default:
		p.line("%s:", r.attrName(a))
		p.in()
		p.rows(r.attrRows(a))
		p.out()
	}
}

func (r *renderer) tableCode(m *jvm.Member, code *jvm.CodeAttr) {
	p := r.p
	r.tableDetail(code)
	p.line("Code:")
	p.in()
	static := m.Flags&jvm.AccStatic != 0
	p.line("stack=%d, locals=%d, args_size=%d", code.MaxStack, code.MaxLocals,
		jvm.ArgSlots(r.ct.utf8(int(m.DescIndex)), static))

	ann := Annotate(code, r.opt)
	if ann.Overflow {
		r.diag(code.Offset, jvm.DiagOverflow, fmt.Sprintf("instruction step limit %d reached", r.opt.EffectiveMaxSteps()))
	}
	width := len(strconv.Itoa(len(code.Code)))
	if width < 4 {
		width = 4
	}
	var rs []row
	for i := range ann.Instructions {
		rs = append(rs, r.tableInstruction(&ann.Instructions[i], width)...)
	}
	p.in()
	p.rows(rs)
	p.out()

	if len(code.Exceptions) > 0 {
		p.line("Exception table:")
		p.in()
		p.line("%5s %5s %6s   %s", "from", "to", "target", "type")
		for _, e := range code.Exceptions {
			t := "any"
			if e.CatchType != 0 {
				t = "Class " + r.ct.className(int(e.CatchType))
			}
			p.line("%5d %5d %6d   %s", e.StartPC, e.EndPC, e.HandlerPC, t)
		}
		p.out()
	}
	for _, a := range code.Attributes {
		r.tableCodeAttr(a)
	}
	p.out()
}

func (r *renderer) tableInstruction(in *bytecode.Instruction, width int) []row {
	head := fmt.Sprintf("%*d: ", width, in.PC)
	if in.Raw {
		r.rawDiag(in)
		return []row{{key: head + "bytecode " + hexBytes(in.Bytes), comment: in.Reason}}
	}
	name := in.Mnemonic()
	if in.Switch != nil {
		sw := in.Switch
		comment := strconv.Itoa(len(sw.Keys))
		if sw.Table {
			comment = fmt.Sprintf("%d to %d", sw.Low, sw.High)
		}
		rs := []row{{key: head + fmt.Sprintf("%-13s {", name), comment: comment}}
		pad := strings.Repeat(" ", width+2)
		for i, k := range sw.Keys {
			rs = append(rs, row{key: fmt.Sprintf("%s%12d: %d", pad, k, sw.Targets[i])})
		}
		rs = append(rs, row{key: fmt.Sprintf("%s%12s: %d", pad, "default", sw.Default)})
		return append(rs, row{key: pad + "}"})
	}
	var operand, comment string
	switch in.Form() {
	case bytecode.FormByte, bytecode.FormShort:
		operand = r.number(in.Value)
	case bytecode.FormLocal:
		operand = strconv.Itoa(int(in.Index))
	case bytecode.FormIinc:
		operand = fmt.Sprintf("%d, %s", in.Index, r.number(in.Value))
	case bytecode.FormCPByte, bytecode.FormCP, bytecode.FormInvokeDynamic:
		operand, comment = hash(in.Index), r.ct.tagged(int(in.Index))
	case bytecode.FormInvokeInterface, bytecode.FormMultiANewArray:
		operand = fmt.Sprintf("%s,  %d", hash(in.Index), in.Value)
		comment = r.ct.tagged(int(in.Index))
	case bytecode.FormNewArray:
		if t, ok := bytecode.ArrayTypeName(uint8(in.Value)); ok {
			operand = t
		} else {
			r.diag(in.PC, jvm.DiagInvalid, fmt.Sprintf("newarray with unknown type code %d", in.Value))
			operand = strconv.Itoa(int(in.Value))
		}
	case bytecode.FormBranch, bytecode.FormBranchWide:
		operand = strconv.Itoa(in.Target)
	}
	if operand == "" {
		return []row{{key: head + name}}
	}
	return []row{{key: head + fmt.Sprintf("%-13s %s", name, operand), comment: comment}}
}

func (r *renderer) tableCodeAttr(a jvm.Attribute) {
	p := r.p
	r.tableDetail(a)
	switch v := a.(type) {
	case *jvm.LineNumberTableAttr:
		if !r.opt.Has(jvm.ShowSourceLines) {
			return
		}
		p.line("LineNumberTable:")
		p.in()
		for _, ln := range v.Lines {
			p.line("line %d: %d", ln.Line, ln.StartPC)
		}
		p.out()
	case *jvm.LocalVariableTableAttr:
		p.line("%s:", v.Kind)
		p.in()
		p.line("%5s %7s %5s  %-6s %s", "Start", "Length", "Slot", "Name", "Signature")
		for _, lv := range v.Vars {
			p.line("%5d %7d %5d  %-6s %s", lv.StartPC, lv.Length, lv.Slot,
				r.ct.utf8(int(lv.NameIndex)), r.ct.utf8(int(lv.DescIndex)))
		}
		p.out()
	case *jvm.StackMapAttr:
		p.line("%s: number_of_entries = %d", v.Kind, len(v.Frames))
		p.in()
		for i := range v.Frames {
			r.tableFrame(&v.Frames[i])
		}
		p.out()
	default:
		r.tableAttr(a)
	}
}

func (r *renderer) tableFrame(f *jvm.StackMapFrame) {
	p := r.p
	for _, w := range f.Larval {
		p.line("frame_type = %d /* early_larval */", jvm.FrameTypeEarlyLarval)
		p.in()
		refs := make([]string, len(w.UnsetFields))
		for i, idx := range w.UnsetFields {
			refs[i] = hash(idx)
		}
		p.line("unset_fields = [ %s ]", strings.Join(refs, ", "))
		p.out()
	}
	if f.Kind == jvm.FrameLegacy {
		p.line("frame at pc %d", f.PC)
	} else {
		p.line("frame_type = %d /* %s */", f.Type, f.Kind)
	}
	p.in()
	switch f.Kind {
	case jvm.FrameSame, jvm.FrameSameLocals1:
		if r.detail() {
			p.line("offset_delta = %d", f.OffsetDelta)
		}
	case jvm.FrameLegacy:
	default:
		p.line("offset_delta = %d", f.OffsetDelta)
	}
	// Chop and same frames carry no locals; full and legacy frames print
	// both lists even when empty.
	full := f.Kind == jvm.FrameFull || f.Kind == jvm.FrameLegacy
	if len(f.Locals) > 0 || full {
		p.line("locals = [ %s ]", r.tableTypes(f.Locals))
	}
	if len(f.Stack) > 0 || full {
		p.line("stack = [ %s ]", r.tableTypes(f.Stack))
	}
	p.out()
}

func (r *renderer) tableTypes(vs []jvm.VerificationType) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		switch v.Tag {
		case jvm.ItemObject:
			parts[i] = "class " + r.ct.className(int(v.Index))
		case jvm.ItemUninitialized:
			parts[i] = "uninitialized " + strconv.Itoa(int(v.Offset))
		default:
			parts[i] = v.Tag.String()
		}
	}
	return strings.Join(parts, ", ")
}
