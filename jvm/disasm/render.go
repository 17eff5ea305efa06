// Package disasm renders decoded class files as text: the assembler style
// accepted by jasm, or a fixed-column javap-like table style.
package disasm

import (
	"fmt"
	"strings"

	"github.com/openjdk/asmtools-sub002/jvm"
)

// Render renders cf in the style selected by opt. Rendering never fails;
// unresolved references and circular constants degrade to inline text and
// diagnostics.
func Render(cf *jvm.ClassFile, opt jvm.Options) jvm.Result[string] {
	r := newRenderer(cf, opt)
	if opt.Has(jvm.TableFormat) {
		r.table()
	} else {
		r.jasm()
	}
	return jvm.Result[string]{Value: r.p.String(), Diags: r.diags}
}

type renderer struct {
	cf     *jvm.ClassFile
	pool   *jvm.ConstantPool
	opt    jvm.Options
	p      *printer
	ct     *constText
	diags  []jvm.Diagnostic
	member string
	// at is the file offset attached to diagnostics raised while
	// stringifying constants.
	at int
}

func newRenderer(cf *jvm.ClassFile, opt jvm.Options) *renderer {
	r := &renderer{
		cf:   cf,
		pool: cf.Pool,
		opt:  opt,
		p:    &printer{noComments: opt.Has(jvm.SuppressComments)},
	}
	r.ct = newConstText(cf.Pool, cf.Bootstrap(), opt, func(kind jvm.DiagKind, msg string) {
		r.diag(r.at, kind, msg)
	})
	r.ct.quote = !opt.Has(jvm.TableFormat)
	cf.Pool.InitializePrintData()
	return r
}

func (r *renderer) diag(off int, kind jvm.DiagKind, msg string) {
	r.diags = append(r.diags, jvm.Diagnostic{Offset: off, Kind: kind, Msg: msg, Member: r.member})
}

func (r *renderer) indexed() bool { return r.opt.Has(jvm.ShowPoolIndex) }

func (r *renderer) detail() bool { return r.opt.Has(jvm.ExtraDetail) }

func hash(idx uint16) string { return jvm.IndexDefault(int(idx)) }

// ref renders a pool reference used as an operand: "#N" with the tagged
// constant as comment, or the tagged constant inline.
func (r *renderer) ref(idx uint16) (key, comment string) {
	if r.indexed() {
		return hash(idx), r.ct.tagged(int(idx))
	}
	return r.ct.tagged(int(idx)), ""
}

// cls renders a Class reference by name.
func (r *renderer) cls(idx uint16) (key, comment string) {
	if idx == 0 {
		return "0", ""
	}
	if r.indexed() {
		return hash(idx), r.ct.className(int(idx))
	}
	return r.ct.className(int(idx)), ""
}

// text renders a Utf8 reference as a literal.
func (r *renderer) text(idx uint16) (key, comment string) {
	if r.indexed() {
		return hash(idx), r.ct.str(r.ct.utf8(int(idx)))
	}
	return r.ct.str(r.ct.utf8(int(idx))), ""
}

// named renders a Module or Package reference.
func (r *renderer) named(idx uint16) (key, comment string) {
	if r.indexed() {
		return hash(idx), r.ct.value(int(idx))
	}
	return r.ct.value(int(idx)), ""
}

// list joins rendered references; comments join in the same order.
func list(idx []uint16, f func(uint16) (string, string)) (key, comment string) {
	keys := make([]string, len(idx))
	var comments []string
	for i, v := range idx {
		k, c := f(v)
		keys[i] = k
		if c != "" {
			comments = append(comments, c)
		}
	}
	return strings.Join(keys, ", "), strings.Join(comments, ", ")
}

// memberKey renders name:desc for a field or method.
func (r *renderer) memberKey(m *jvm.Member) (key, comment string) {
	named := r.ct.name(int(m.NameIndex)) + ":" + r.ct.str(r.ct.utf8(int(m.DescIndex)))
	if r.indexed() {
		return hash(m.NameIndex) + ":" + hash(m.DescIndex), named
	}
	return named, ""
}

// attrName returns the name an attribute was stored under.
func (r *renderer) attrName(a jvm.Attribute) string {
	if u, ok := a.(*jvm.UnrecognizedAttr); ok && u.Name != "" {
		return u.Name
	}
	h := a.Header()
	if h.Kind == jvm.AttrUnrecognized {
		return fmt.Sprintf("#%d", h.NameIndex)
	}
	return h.Kind.String()
}

// headerDetail is the extra-detail comment for an attribute header.
func (r *renderer) headerDetail(a jvm.Attribute) string {
	h := a.Header()
	return fmt.Sprintf("%s #%d length %d @0x%X", r.attrName(a), h.NameIndex, h.Length, h.Offset)
}

// joinComment joins non-empty comment parts.
// nameAndTypeComment describes a NameAndType pool row. One that no field,
// method or dynamic constant uses gets a note spelling out its descriptor.
func (r *renderer) nameAndTypeComment(idx int, nt *jvm.ConstantNameAndType) string {
	c := r.ct.value(idx)
	if r.pool.ReferredBy(idx, jvm.TagFieldref, jvm.TagMethodref, jvm.TagInterfaceMethodref,
		jvm.TagDynamic, jvm.TagInvokeDynamic) {
		return c
	}
	desc := r.ct.utf8(int(nt.DescriptorIndex))
	if params, ret, ok := jvm.MethodTypes(desc); ok {
		return joinComment(c, "unreferenced, method "+ret+"("+strings.Join(params, ", ")+")")
	}
	if strings.HasPrefix(desc, "(") {
		return joinComment(c, "unreferenced")
	}
	return joinComment(c, "unreferenced, field "+jvm.JavaType(desc))
}

func joinComment(parts ...string) string {
	var out []string
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "; ")
}

func hexBytes(b []byte) string {
	parts := make([]string, len(b))
	for i, c := range b {
		parts[i] = fmt.Sprintf("0x%02X", c)
	}
	return strings.Join(parts, ", ")
}

// skipAttr reports attributes suppressed by the drop flags.
func (r *renderer) skipAttr(a jvm.Attribute) bool {
	switch a.Header().Kind {
	case jvm.AttrSourceFile:
		return r.opt.Has(jvm.DropSourceFile)
	case jvm.AttrSignature:
		return r.opt.Has(jvm.DropSignatures)
	}
	return false
}
