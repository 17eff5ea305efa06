package disasm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/openjdk/asmtools-sub002/jvm"
	"github.com/openjdk/asmtools-sub002/jvm/bytecode"
)

// codeBody accumulates the rows of one Code attribute so that instruction
// comments share a column across the whole method.
type codeBody struct {
	r    *renderer
	code *jvm.CodeAttr
	ann  *Annotations
	rs   []row
}

func (b *codeBody) add(key, comment string, depth int) {
	b.rs = append(b.rs, row{key: key, comment: comment, depth: depth})
}

func (r *renderer) jasmCode(m *jvm.Member, code *jvm.CodeAttr) {
	p := r.p
	ann := Annotate(code, r.opt)
	if ann.Overflow {
		r.diag(code.Offset, jvm.DiagOverflow, fmt.Sprintf("instruction step limit %d reached", r.opt.EffectiveMaxSteps()))
	}
	b := &codeBody{r: r, code: code, ann: ann}

	pending := ann.NotePCs()
	next := 0
	for i := range ann.Instructions {
		in := &ann.Instructions[i]
		// Notes between instruction boundaries cannot be placed exactly.
		for next < len(pending) && pending[next] < in.PC {
			pc := pending[next]
			r.diag(pc, jvm.DiagInvalid, fmt.Sprintf("side table entry at pc %d is not an instruction boundary", pc))
			b.notes(pc, true)
			next++
		}
		if next < len(pending) && pending[next] == in.PC {
			b.notes(in.PC, false)
			next++
		} else {
			b.label(in.PC)
		}
		b.instruction(in)
	}
	for ; next < len(pending); next++ {
		pc := pending[next]
		switch {
		case pc < len(code.Code):
			r.diag(pc, jvm.DiagInvalid, fmt.Sprintf("side table entry at pc %d is not an instruction boundary", pc))
		case pc > len(code.Code):
			r.diag(pc, jvm.DiagInvalid, fmt.Sprintf("side table entry at pc %d is outside the code", pc))
		}
		b.notes(pc, pc != len(code.Code))
	}
	if !ann.hasNote(len(code.Code)) {
		b.label(len(code.Code))
	}

	p.line("{")
	p.in()
	p.rows(b.rs)
	for _, a := range code.Attributes {
		if carried(a) {
			continue
		}
		r.jasmAttr(a)
	}
	p.out()
	p.line("}")
}

func (a *Annotations) hasNote(pc int) bool {
	_, ok := a.Notes[pc]
	return ok
}

// carried reports Code attributes rendered inline with the instructions.
func carried(a jvm.Attribute) bool {
	switch a.Header().Kind {
	case jvm.AttrLineNumberTable, jvm.AttrLocalVariableTable, jvm.AttrLocalVariableTypeTable,
		jvm.AttrStackMapTable, jvm.AttrStackMap:
		return true
	case jvm.AttrRuntimeVisibleTypeAnnotations, jvm.AttrRuntimeInvisibleTypeAnnotations:
		t, ok := a.(*jvm.TypeAnnotationsAttr)
		if !ok {
			return false
		}
		for i := range t.Annotations {
			if !jvm.HasCodeOffset(t.Annotations[i].TargetType) {
				return false
			}
		}
		return true
	}
	return false
}

func (b *codeBody) label(pc int) {
	if b.ann.Labels.Has(pc) && !b.r.opt.Has(jvm.ShowProgramCounter) {
		b.add(labelName(pc)+":", "", -1)
	}
}

func labelName(pc int) string { return "L" + strconv.Itoa(pc) }

// target renders a branch target as a label or, with pcs shown, a number.
func (b *codeBody) target(pc int) string {
	if b.r.opt.Has(jvm.ShowProgramCounter) {
		return strconv.Itoa(pc)
	}
	return labelName(pc)
}

// notes emits every marker anchored at pc. Ranges close before labels and
// open after them.
func (b *codeBody) notes(pc int, stray bool) {
	r := b.r
	n := b.ann.Notes[pc]
	where := ""
	if stray {
		where = "pc " + strconv.Itoa(pc)
	}
	for _, t := range n.TryEnd {
		b.add("endtry t"+strconv.Itoa(t)+";", where, 0)
	}
	for _, v := range n.VarEnd {
		b.add(varKeyword(v, "endvar")+" "+strconv.Itoa(int(v.Var.Slot))+";", where, 0)
	}
	b.label(pc)
	for _, f := range n.Frames {
		b.frame(f, where)
	}
	for _, t := range n.Catch {
		e := b.code.Exceptions[t]
		key, comment := "#0", "any"
		if e.CatchType != 0 {
			key, comment = r.cls(e.CatchType)
		}
		b.add(fmt.Sprintf("catch t%d %s;", t, key), joinComment(comment, where), 0)
	}
	for _, t := range n.TryStart {
		b.add("try t"+strconv.Itoa(t)+";", where, 0)
	}
	for _, v := range n.VarStart {
		comment := r.ct.name(int(v.Var.NameIndex)) + ":" + r.ct.str(r.ct.utf8(int(v.Var.DescIndex)))
		b.add(fmt.Sprintf("%s %d;", varKeyword(v, "var"), v.Var.Slot), joinComment(comment, where), 0)
	}
	for i, ta := range n.TypeAnns {
		key, comment := r.typeAnnotation(ta, n.Visible[i])
		b.add(key+";", joinComment(comment, where), 0)
	}
	if len(n.Lines) > 0 && r.opt.Has(jvm.ShowSourceLines) {
		parts := make([]string, len(n.Lines))
		for i, l := range n.Lines {
			parts[i] = strconv.Itoa(l)
		}
		b.add("// line "+strings.Join(parts, ", "), "", 0)
	}
}

func varKeyword(v VarMark, base string) string {
	if v.Typed {
		return base + "type"
	}
	return base
}

func (b *codeBody) frame(f *jvm.StackMapFrame, where string) {
	r := b.r
	for _, w := range f.Larval {
		b.add("stack_frame_type early_larval;", where, 0)
		key, comment := list(w.UnsetFields, r.ref)
		b.add("unset_fields "+key+";", comment, 1)
	}
	kind := f.Kind.String()
	if f.Kind == jvm.FrameChop {
		kind += strconv.Itoa(f.Chopped)
	}
	comment := where
	if r.detail() {
		comment = joinComment(comment, fmt.Sprintf("frame_type %d offset_delta %d", f.Type, f.OffsetDelta))
	}
	b.add("stack_frame_type "+kind+";", comment, 0)
	if len(f.Locals) > 0 {
		key, c := b.verificationTypes(f.PC, f.Locals)
		b.add("locals_map "+key+";", c, 1)
	}
	if len(f.Stack) > 0 {
		key, c := b.verificationTypes(f.PC, f.Stack)
		b.add("stack_map "+key+";", c, 1)
	}
}

func (b *codeBody) verificationTypes(pc int, vs []jvm.VerificationType) (key, comment string) {
	keys := make([]string, len(vs))
	var comments []string
	for i, v := range vs {
		switch v.Tag {
		case jvm.ItemObject:
			k, c := b.r.cls(v.Index)
			keys[i] = "class " + k
			if c != "" {
				comments = append(comments, c)
			}
		case jvm.ItemUninitialized:
			off := int(v.Offset)
			if !b.boundary(off) {
				b.r.diag(pc, jvm.DiagInvalid, fmt.Sprintf("uninitialized offset %d is not an instruction boundary", off))
				keys[i] = "uninitialized " + strconv.Itoa(off)
				continue
			}
			keys[i] = "uninitialized " + b.target(off)
		default:
			keys[i] = v.Tag.String()
		}
	}
	return strings.Join(keys, ", "), strings.Join(comments, ", ")
}

func (b *codeBody) instruction(in *bytecode.Instruction) {
	r := b.r
	prefix := ""
	if r.opt.Has(jvm.ShowProgramCounter) {
		prefix = strconv.Itoa(in.PC) + ": "
	}
	if in.Raw {
		r.rawDiag(in)
		b.add(prefix+"bytecode "+hexBytes(in.Bytes)+";", in.Reason, 0)
		return
	}

	name := in.Mnemonic()
	if in.Switch != nil {
		b.switchRows(prefix+name, in)
		return
	}
	operand, comment := b.operand(in)
	key := prefix + name
	if operand != "" {
		key += " " + operand
	}
	b.add(key+";", comment, 0)
}

// rawDiag reports an undecodable instruction. The step limit is reported
// once per method by the caller.
func (r *renderer) rawDiag(in *bytecode.Instruction) {
	kind := jvm.DiagInvalid
	switch {
	case in.Unknown():
		kind = jvm.DiagUnknownOpcode
	case strings.HasPrefix(in.Reason, "truncated"):
		kind = jvm.DiagTruncated
	case in.Reason == "step limit reached":
		return
	}
	r.diag(in.PC, kind, in.Reason)
}

func (r *renderer) number(v int32) string {
	if r.opt.Has(jvm.HexNumerics) {
		if v < 0 {
			return "-0x" + strconv.FormatInt(-int64(v), 16)
		}
		return "0x" + strconv.FormatInt(int64(v), 16)
	}
	return strconv.FormatInt(int64(v), 10)
}

func (b *codeBody) operand(in *bytecode.Instruction) (key, comment string) {
	r := b.r
	switch in.Form() {
	case bytecode.FormByte, bytecode.FormShort:
		return b.r.number(in.Value), ""
	case bytecode.FormLocal:
		return strconv.Itoa(int(in.Index)), ""
	case bytecode.FormIinc:
		return fmt.Sprintf("%d, %s", in.Index, b.r.number(in.Value)), ""
	case bytecode.FormCPByte, bytecode.FormCP, bytecode.FormInvokeDynamic:
		return r.ref(in.Index)
	case bytecode.FormInvokeInterface, bytecode.FormMultiANewArray:
		k, c := r.ref(in.Index)
		return k + ", " + strconv.Itoa(int(in.Value)), c
	case bytecode.FormNewArray:
		if name, ok := bytecode.ArrayTypeName(uint8(in.Value)); ok {
			return name, ""
		}
		r.diag(in.PC, jvm.DiagInvalid, fmt.Sprintf("newarray with unknown type code %d", in.Value))
		return strconv.Itoa(int(in.Value)), "unknown array type"
	case bytecode.FormBranch, bytecode.FormBranchWide:
		b.checkTarget(in.PC, in.Target)
		return b.target(in.Target), ""
	}
	return "", ""
}

func (b *codeBody) checkTarget(from, to int) {
	if to < 0 || to >= len(b.code.Code) {
		b.r.diag(from, jvm.DiagInvalid, fmt.Sprintf("branch target %d outside code", to))
		return
	}
	if !b.boundary(to) {
		b.r.diag(from, jvm.DiagInvalid, fmt.Sprintf("branch target %d is not an instruction boundary", to))
	}
}

func (b *codeBody) boundary(pc int) bool {
	ins := b.ann.Instructions
	lo, hi := 0, len(ins)
	for lo < hi {
		mid := (lo + hi) / 2
		switch {
		case ins[mid].PC == pc:
			return true
		case ins[mid].PC < pc:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return false
}

func (b *codeBody) switchRows(head string, in *bytecode.Instruction) {
	sw := in.Switch
	comment := ""
	if sw.Table {
		comment = fmt.Sprintf("%d to %d", sw.Low, sw.High)
	} else {
		comment = strconv.Itoa(len(sw.Keys))
	}
	b.add(head+" {", comment, 0)
	for i, k := range sw.Keys {
		b.checkTarget(in.PC, sw.Targets[i])
		b.add(fmt.Sprintf("%s: %s;", b.r.number(k), b.target(sw.Targets[i])), "", 2)
	}
	b.checkTarget(in.PC, sw.Default)
	b.add("default: "+b.target(sw.Default)+" };", "", 2)
}
