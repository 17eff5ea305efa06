package jvm

import "strings"

// Magic is the class file signature.
const Magic = 0xCAFEBABE

// Member is a field or method.
type Member struct {
	Flags      uint16
	NameIndex  uint16
	DescIndex  uint16
	Attributes []Attribute
	Offset     int
}

// Code returns the member's Code attribute, or nil.
func (m *Member) Code() *CodeAttr {
	if c, ok := FindAttr(m.Attributes, AttrCode).(*CodeAttr); ok {
		return c
	}
	return nil
}

// Label is "name:descriptor" for diagnostics.
func (m *Member) Label(p *ConstantPool) string {
	return p.Utf8(int(m.NameIndex), nil) + ":" + p.Utf8(int(m.DescIndex), nil)
}

// ClassFile is a decoded class. Cross references between structures are
// pool indices and positions, never pointers back to owners.
type ClassFile struct {
	Magic uint32
	// Version drives gating and rendering. It differs from FileVersion when
	// a target version override is in effect.
	Version     Version
	FileVersion Version
	Pool        *ConstantPool
	Flags       uint16
	ThisClass   uint16
	SuperClass  uint16
	Interfaces  []uint16
	Fields      []Member
	Methods     []Member
	Attributes  []Attribute
}

// Name is the internal name of this class, or "#N" when unresolvable.
func (c *ClassFile) Name() string {
	if c == nil {
		return ""
	}
	return c.Pool.ClassName(int(c.ThisClass), nil)
}

// DottedName is Name with '/' replaced by '.'.
func (c *ClassFile) DottedName() string {
	return strings.ReplaceAll(c.Name(), "/", ".")
}

func (c *ClassFile) IsModule() bool {
	return c.Flags&AccModule != 0
}

// Attr returns the first class attribute of kind, or nil.
func (c *ClassFile) Attr(kind AttrKind) Attribute {
	return FindAttr(c.Attributes, kind)
}

// Bootstrap returns the BootstrapMethods table, or nil.
func (c *ClassFile) Bootstrap() *BootstrapMethodsAttr {
	if b, ok := c.Attr(AttrBootstrapMethods).(*BootstrapMethodsAttr); ok {
		return b
	}
	return nil
}
