package jvm

import (
	"fmt"
	"math"
	"strconv"
)

// ConstTag is a constant pool entry tag byte.
type ConstTag uint8

const (
	TagUtf8               ConstTag = 1
	TagInteger            ConstTag = 3
	TagFloat              ConstTag = 4
	TagLong               ConstTag = 5
	TagDouble             ConstTag = 6
	TagClass              ConstTag = 7
	TagString             ConstTag = 8
	TagFieldref           ConstTag = 9
	TagMethodref          ConstTag = 10
	TagInterfaceMethodref ConstTag = 11
	TagNameAndType        ConstTag = 12
	TagMethodHandle       ConstTag = 15
	TagMethodType         ConstTag = 16
	TagDynamic            ConstTag = 17
	TagInvokeDynamic      ConstTag = 18
	TagModule             ConstTag = 19
	TagPackage            ConstTag = 20
)

var tagNames = map[ConstTag][2]string{
	TagUtf8:               {"Utf8", "Utf8"},
	TagInteger:            {"int", "Integer"},
	TagFloat:              {"float", "Float"},
	TagLong:               {"long", "Long"},
	TagDouble:             {"double", "Double"},
	TagClass:              {"class", "Class"},
	TagString:             {"String", "String"},
	TagFieldref:           {"Field", "Fieldref"},
	TagMethodref:          {"Method", "Methodref"},
	TagInterfaceMethodref: {"InterfaceMethod", "InterfaceMethodref"},
	TagNameAndType:        {"NameAndType", "NameAndType"},
	TagMethodHandle:       {"MethodHandle", "MethodHandle"},
	TagMethodType:         {"MethodType", "MethodType"},
	TagDynamic:            {"Dynamic", "Dynamic"},
	TagInvokeDynamic:      {"InvokeDynamic", "InvokeDynamic"},
	TagModule:             {"Module", "Module"},
	TagPackage:            {"Package", "Package"},
}

// Known reports whether t is a defined tag.
func (t ConstTag) Known() bool {
	_, ok := tagNames[t]
	return ok
}

// JasmName is the keyword used in assembler-style output.
func (t ConstTag) JasmName() string {
	if n, ok := tagNames[t]; ok {
		return n[0]
	}
	return fmt.Sprintf("tag%d", uint8(t))
}

// String is the tabular (javap) name.
func (t ConstTag) String() string {
	if n, ok := tagNames[t]; ok {
		return n[1]
	}
	return fmt.Sprintf("tag%d", uint8(t))
}

// Wide reports whether entries with this tag occupy two pool slots.
func (t ConstTag) Wide() bool {
	return t == TagLong || t == TagDouble
}

// Constant is one constant pool entry.
type Constant interface {
	Tag() ConstTag
}

type ConstantUtf8 struct {
	Value string
	// Raw holds the undecoded bytes when they were not valid modified UTF-8.
	Raw []byte
}

type ConstantInteger struct{ Value int32 }

type ConstantFloat struct{ Bits uint32 }

type ConstantLong struct{ Value int64 }

type ConstantDouble struct{ Bits uint64 }

type ConstantClass struct{ NameIndex uint16 }

type ConstantString struct{ StringIndex uint16 }

// ConstantRef is a Fieldref, Methodref or InterfaceMethodref.
type ConstantRef struct {
	RefTag           ConstTag
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

type ConstantNameAndType struct {
	NameIndex       uint16
	DescriptorIndex uint16
}

type ConstantMethodHandle struct {
	RefKind  uint8
	RefIndex uint16
}

type ConstantMethodType struct{ DescriptorIndex uint16 }

// ConstantDynamic is a Dynamic or InvokeDynamic entry. BootstrapIndex indexes
// the BootstrapMethods attribute, not the pool.
type ConstantDynamic struct {
	DynTag           ConstTag
	BootstrapIndex   uint16
	NameAndTypeIndex uint16
}

type ConstantModule struct{ NameIndex uint16 }

type ConstantPackage struct{ NameIndex uint16 }

func (*ConstantUtf8) Tag() ConstTag         { return TagUtf8 }
func (*ConstantInteger) Tag() ConstTag      { return TagInteger }
func (*ConstantFloat) Tag() ConstTag        { return TagFloat }
func (*ConstantLong) Tag() ConstTag         { return TagLong }
func (*ConstantDouble) Tag() ConstTag       { return TagDouble }
func (*ConstantClass) Tag() ConstTag        { return TagClass }
func (*ConstantString) Tag() ConstTag       { return TagString }
func (c *ConstantRef) Tag() ConstTag        { return c.RefTag }
func (*ConstantNameAndType) Tag() ConstTag  { return TagNameAndType }
func (*ConstantMethodHandle) Tag() ConstTag { return TagMethodHandle }
func (*ConstantMethodType) Tag() ConstTag   { return TagMethodType }
func (c *ConstantDynamic) Tag() ConstTag    { return c.DynTag }
func (*ConstantModule) Tag() ConstTag       { return TagModule }
func (*ConstantPackage) Tag() ConstTag      { return TagPackage }

func (c *ConstantFloat) Value() float32  { return math.Float32frombits(c.Bits) }
func (c *ConstantDouble) Value() float64 { return math.Float64frombits(c.Bits) }

// References returns the pool indices c points at, in field order.
func References(c Constant) []uint16 {
	switch c := c.(type) {
	case *ConstantClass:
		return []uint16{c.NameIndex}
	case *ConstantString:
		return []uint16{c.StringIndex}
	case *ConstantRef:
		return []uint16{c.ClassIndex, c.NameAndTypeIndex}
	case *ConstantNameAndType:
		return []uint16{c.NameIndex, c.DescriptorIndex}
	case *ConstantMethodHandle:
		return []uint16{c.RefIndex}
	case *ConstantMethodType:
		return []uint16{c.DescriptorIndex}
	case *ConstantDynamic:
		return []uint16{c.NameAndTypeIndex}
	case *ConstantModule:
		return []uint16{c.NameIndex}
	case *ConstantPackage:
		return []uint16{c.NameIndex}
	}
	return nil
}

// Method handle reference kinds.
const (
	RefGetField         = 1
	RefGetStatic        = 2
	RefPutField         = 3
	RefPutStatic        = 4
	RefInvokeVirtual    = 5
	RefInvokeStatic     = 6
	RefInvokeSpecial    = 7
	RefNewInvokeSpecial = 8
	RefInvokeInterface  = 9
)

var refKindNames = [...]string{
	"", "REF_getField", "REF_getStatic", "REF_putField", "REF_putStatic",
	"REF_invokeVirtual", "REF_invokeStatic", "REF_invokeSpecial",
	"REF_newInvokeSpecial", "REF_invokeInterface",
}

// RefKindName returns the REF_ name for a method handle kind.
func RefKindName(k uint8) string {
	if k >= 1 && int(k) < len(refKindNames) {
		return refKindNames[k]
	}
	return "REF_kind" + strconv.Itoa(int(k))
}

// DefaultFunc produces the text used when an index cannot be resolved.
type DefaultFunc func(idx int) string

// IndexDefault renders an unresolvable index as "#N".
func IndexDefault(idx int) string { return "#" + strconv.Itoa(idx) }

// PrintData holds pool-wide column widths used for aligned listings.
type PrintData struct {
	IndexWidth int // width of "#N" for the largest index
	TagWidth   int // longest jasm tag keyword present
	TableWidth int // longest tabular tag name present
}

// ConstantPool is the decoded constant table. Slot 0 and the slot after
// every Long/Double are nil.
type ConstantPool struct {
	entries []Constant

	printReady bool
	print      PrintData
	referrers  []uint32 // per index, bit t set when a tag t entry points at it
}

// NewConstantPool wraps entries; entries[0] is the reserved slot.
func NewConstantPool(entries []Constant) *ConstantPool {
	if len(entries) == 0 {
		entries = []Constant{nil}
	}
	return &ConstantPool{entries: entries}
}

// Size is the declared constant_pool_count; usable indices are [1, Size-1].
func (p *ConstantPool) Size() int {
	if p == nil {
		return 0
	}
	return len(p.entries)
}

// Get returns the entry at idx, or false for slot 0, tombstones and
// out-of-range indices.
func (p *ConstantPool) Get(idx int) (Constant, bool) {
	if p == nil || idx < 1 || idx >= len(p.entries) {
		return nil, false
	}
	c := p.entries[idx]
	return c, c != nil
}

// Tag returns the tag at idx.
func (p *ConstantPool) Tag(idx int) (ConstTag, bool) {
	c, ok := p.Get(idx)
	if !ok {
		return 0, false
	}
	return c.Tag(), true
}

// NonNullCount counts populated slots.
func (p *ConstantPool) NonNullCount() int {
	n := 0
	p.Each(func(int, Constant) { n++ })
	return n
}

// Each calls fn for every populated slot in index order.
func (p *ConstantPool) Each(fn func(idx int, c Constant)) {
	if p == nil {
		return
	}
	for i := 1; i < len(p.entries); i++ {
		if p.entries[i] != nil {
			fn(i, p.entries[i])
		}
	}
}

func orDefault(def DefaultFunc, idx int) string {
	if def == nil {
		return IndexDefault(idx)
	}
	return def(idx)
}

// Utf8 returns the string at a Utf8 entry, or def(idx).
func (p *ConstantPool) Utf8(idx int, def DefaultFunc) string {
	if c, ok := p.Get(idx); ok {
		if u, ok := c.(*ConstantUtf8); ok {
			return u.Value
		}
	}
	return orDefault(def, idx)
}

func (p *ConstantPool) named(idx int, tag ConstTag, def DefaultFunc) string {
	c, ok := p.Get(idx)
	if !ok || c.Tag() != tag {
		return orDefault(def, idx)
	}
	return p.Utf8(int(References(c)[0]), func(int) string { return orDefault(def, idx) })
}

// ClassName resolves a Class entry to its internal name.
func (p *ConstantPool) ClassName(idx int, def DefaultFunc) string {
	return p.named(idx, TagClass, def)
}

func (p *ConstantPool) ModuleName(idx int, def DefaultFunc) string {
	return p.named(idx, TagModule, def)
}

func (p *ConstantPool) PackageName(idx int, def DefaultFunc) string {
	return p.named(idx, TagPackage, def)
}

// NameAndType resolves a NameAndType entry.
func (p *ConstantPool) NameAndType(idx int) (name, desc string, ok bool) {
	c, found := p.Get(idx)
	if !found {
		return "", "", false
	}
	nt, isNT := c.(*ConstantNameAndType)
	if !isNT {
		return "", "", false
	}
	return p.Utf8(int(nt.NameIndex), nil), p.Utf8(int(nt.DescriptorIndex), nil), true
}

// ReferredBy reports whether any entry whose tag is in tags points at idx.
// After InitializePrintData it is a table lookup; before, a linear scan.
func (p *ConstantPool) ReferredBy(idx int, tags ...ConstTag) bool {
	if p == nil || idx < 1 || idx >= len(p.entries) {
		return false
	}
	var want uint32
	for _, t := range tags {
		want |= tagBit(t)
	}
	if p.printReady {
		return p.referrers[idx]&want != 0
	}
	found := false
	p.Each(func(_ int, c Constant) {
		if found || tagBit(c.Tag())&want == 0 {
			return
		}
		for _, r := range References(c) {
			if int(r) == idx {
				found = true
				return
			}
		}
	})
	return found
}

func tagBit(t ConstTag) uint32 {
	if t >= 32 {
		return 0
	}
	return 1 << t
}

// InitializePrintData computes the column widths returned by PrintData.
func (p *ConstantPool) InitializePrintData() {
	if p == nil || p.printReady {
		return
	}
	d := PrintData{IndexWidth: len(IndexDefault(len(p.entries) - 1))}
	p.referrers = make([]uint32, len(p.entries))
	p.Each(func(_ int, c Constant) {
		for _, r := range References(c) {
			if int(r) < len(p.referrers) {
				p.referrers[r] |= tagBit(c.Tag())
			}
		}
		if n := len(c.Tag().JasmName()); n > d.TagWidth {
			d.TagWidth = n
		}
		if n := len(c.Tag().String()); n > d.TableWidth {
			d.TableWidth = n
		}
	})
	p.print = d
	p.printReady = true
}

// PrintData returns the widths computed by InitializePrintData.
func (p *ConstantPool) PrintData() PrintData {
	if p == nil {
		return PrintData{}
	}
	return p.print
}
