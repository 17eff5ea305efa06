package disasm

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/openjdk/asmtools-sub002/jvm"
)

// constText stringifies pool entries. Every expansion pushes its index on
// visiting; meeting an index already on the stack yields a circular
// reference marker instead of recursing.
type constText struct {
	pool     *jvm.ConstantPool
	bsm      *jvm.BootstrapMethodsAttr
	opt      jvm.Options
	quote    bool // quote descriptors and strings as the assembler does
	visiting []int
	steps    int
	report   func(kind jvm.DiagKind, msg string)
}

func newConstText(pool *jvm.ConstantPool, bsm *jvm.BootstrapMethodsAttr, opt jvm.Options, report func(jvm.DiagKind, string)) *constText {
	if report == nil {
		report = func(jvm.DiagKind, string) {}
	}
	return &constText{pool: pool, bsm: bsm, opt: opt, quote: true, report: report}
}

// ConstString renders the constant at idx the way it appears in the
// assembler comment column, for example `Method Foo.bar:"()V"`.
func ConstString(pool *jvm.ConstantPool, bsm *jvm.BootstrapMethodsAttr, idx int, opt jvm.Options) jvm.Result[string] {
	var diags []jvm.Diagnostic
	ct := newConstText(pool, bsm, opt, func(kind jvm.DiagKind, msg string) {
		diags = append(diags, jvm.Diagnostic{Kind: kind, Msg: msg})
	})
	return jvm.Result[string]{Value: ct.tagged(idx), Diags: diags}
}

func (c *constText) enter(idx int) (string, bool) {
	for _, v := range c.visiting {
		if v == idx {
			c.report(jvm.DiagCircular, fmt.Sprintf("circular reference to #%d", idx))
			return fmt.Sprintf("<circular reference #%d>", idx), false
		}
	}
	c.steps++
	if c.steps > c.opt.EffectiveMaxSteps() {
		if c.steps == c.opt.EffectiveMaxSteps()+1 {
			c.report(jvm.DiagOverflow, fmt.Sprintf("constant expansion step limit %d reached", c.opt.EffectiveMaxSteps()))
		}
		return "...", false
	}
	c.visiting = append(c.visiting, idx)
	return "", true
}

func (c *constText) leave() { c.visiting = c.visiting[:len(c.visiting)-1] }

func (c *constText) missing(idx int) string {
	c.report(jvm.DiagIndex, fmt.Sprintf("unresolved constant #%d", idx))
	return jvm.IndexDefault(idx)
}

// str renders a string literal.
func (c *constText) str(s string) string {
	if c.quote {
		return strconv.Quote(s)
	}
	return s
}

func (c *constText) utf8(idx int) string {
	con, ok := c.pool.Get(idx)
	if !ok {
		return c.missing(idx)
	}
	u, ok := con.(*jvm.ConstantUtf8)
	if !ok {
		return c.missing(idx)
	}
	return u.Value
}

// name renders a member or class name, quoting special names like <init>.
func (c *constText) name(idx int) string {
	s := c.utf8(idx)
	if c.quote && needsQuote(s) {
		return strconv.Quote(s)
	}
	return s
}

func needsQuote(s string) bool {
	if s == "" {
		return true
	}
	for _, r := range s {
		switch {
		case r == '_' || r == '$' || r == '/' || r == '.':
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r > 0x7F:
		default:
			return true
		}
	}
	return false
}

func (c *constText) className(idx int) string {
	con, ok := c.pool.Get(idx)
	if !ok || con.Tag() != jvm.TagClass {
		return c.missing(idx)
	}
	return c.name(int(con.(*jvm.ConstantClass).NameIndex))
}

// nameAndType renders name:"desc".
func (c *constText) nameAndType(idx int) string {
	con, ok := c.pool.Get(idx)
	if !ok {
		return c.missing(idx)
	}
	nt, ok := con.(*jvm.ConstantNameAndType)
	if !ok {
		return c.missing(idx)
	}
	return c.name(int(nt.NameIndex)) + ":" + c.str(c.utf8(int(nt.DescriptorIndex)))
}

// Number formatting follows the assembler's literal suffixes.

func (c *constText) intText(v int32) string {
	if c.opt.Has(jvm.HexNumerics) {
		return fmt.Sprintf("0x%08X", uint32(v))
	}
	return strconv.FormatInt(int64(v), 10)
}

func (c *constText) longText(v int64) string {
	if c.opt.Has(jvm.HexNumerics) {
		return fmt.Sprintf("0x%016Xl", uint64(v))
	}
	return strconv.FormatInt(v, 10) + "l"
}

func floatDecimal(v float64, bits int) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	}
	s := strconv.FormatFloat(v, 'g', -1, bits)
	if !strings.ContainsAny(s, ".eEn") {
		s += ".0"
	}
	return s
}

func (c *constText) floatText(f *jvm.ConstantFloat) string {
	if c.opt.Has(jvm.HexNumerics) {
		return fmt.Sprintf("0x%08Xf", f.Bits)
	}
	return floatDecimal(float64(f.Value()), 32) + "f"
}

func (c *constText) doubleText(d *jvm.ConstantDouble) string {
	if c.opt.Has(jvm.HexNumerics) {
		return fmt.Sprintf("0x%016Xd", d.Bits)
	}
	return floatDecimal(d.Value(), 64) + "d"
}

// value renders the payload of idx without its tag keyword.
func (c *constText) value(idx int) string {
	con, ok := c.pool.Get(idx)
	if !ok {
		return c.missing(idx)
	}
	if s, ok := c.enter(idx); !ok {
		return s
	}
	defer c.leave()

	switch v := con.(type) {
	case *jvm.ConstantUtf8:
		return c.str(v.Value)
	case *jvm.ConstantInteger:
		return c.intText(v.Value)
	case *jvm.ConstantFloat:
		return c.floatText(v)
	case *jvm.ConstantLong:
		return c.longText(v.Value)
	case *jvm.ConstantDouble:
		return c.doubleText(v)
	case *jvm.ConstantClass:
		return c.name(int(v.NameIndex))
	case *jvm.ConstantString:
		return c.str(c.utf8(int(v.StringIndex)))
	case *jvm.ConstantRef:
		return c.className(int(v.ClassIndex)) + "." + c.nameAndType(int(v.NameAndTypeIndex))
	case *jvm.ConstantNameAndType:
		return c.nameAndType(idx)
	case *jvm.ConstantMethodHandle:
		return jvm.RefKindName(v.RefKind) + ":" + c.tagged(int(v.RefIndex))
	case *jvm.ConstantMethodType:
		return c.str(c.utf8(int(v.DescriptorIndex)))
	case *jvm.ConstantDynamic:
		return c.dynamic(v)
	case *jvm.ConstantModule:
		return c.utf8(int(v.NameIndex))
	case *jvm.ConstantPackage:
		return c.utf8(int(v.NameIndex))
	}
	return c.missing(idx)
}

// tagged renders idx as "<tag> <value>", the operand form used in code.
func (c *constText) tagged(idx int) string {
	tag, ok := c.pool.Tag(idx)
	if !ok {
		return c.missing(idx)
	}
	if tag == jvm.TagUtf8 {
		return c.value(idx)
	}
	return tag.JasmName() + " " + c.value(idx)
}

// dynamic renders bootstrap:name:"desc" followed by the static arguments.
func (c *constText) dynamic(v *jvm.ConstantDynamic) string {
	var b strings.Builder
	if c.bsm == nil || int(v.BootstrapIndex) >= len(c.bsm.Methods) {
		c.report(jvm.DiagIndex, fmt.Sprintf("bootstrap method %d not found", v.BootstrapIndex))
		fmt.Fprintf(&b, "%d", v.BootstrapIndex)
		b.WriteString(":" + c.nameAndType(int(v.NameAndTypeIndex)))
		return b.String()
	}
	m := c.bsm.Methods[v.BootstrapIndex]
	b.WriteString(c.value(int(m.MethodRef)))
	b.WriteString(":" + c.nameAndType(int(v.NameAndTypeIndex)))
	for i, a := range m.Args {
		if i == 0 {
			b.WriteString(" {")
		} else {
			b.WriteString(",")
		}
		b.WriteString(" " + c.tagged(int(a)))
	}
	if len(m.Args) > 0 {
		b.WriteString(" }")
	}
	return b.String()
}
