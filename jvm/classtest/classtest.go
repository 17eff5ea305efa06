// Package classtest builds class file bytes for tests.
package classtest

import (
	"encoding/binary"
	"math"

	"github.com/openjdk/asmtools-sub002/jvm"
)

// Buf is a big-endian byte writer.
type Buf struct {
	b []byte
}

func (w *Buf) U1(v uint8) *Buf {
	w.b = append(w.b, v)
	return w
}

func (w *Buf) U2(v uint16) *Buf {
	w.b = binary.BigEndian.AppendUint16(w.b, v)
	return w
}

func (w *Buf) U4(v uint32) *Buf {
	w.b = binary.BigEndian.AppendUint32(w.b, v)
	return w
}

func (w *Buf) U8(v uint64) *Buf {
	w.b = binary.BigEndian.AppendUint64(w.b, v)
	return w
}

func (w *Buf) Raw(b ...byte) *Buf {
	w.b = append(w.b, b...)
	return w
}

func (w *Buf) Len() int { return len(w.b) }

func (w *Buf) Out() []byte { return w.b }

// Pool assigns constant pool indices in insertion order.
type Pool struct {
	w    Buf
	next uint16
	utf8 map[string]uint16
}

func NewPool() *Pool {
	return &Pool{next: 1, utf8: map[string]uint16{}}
}

// Next is the index the next entry will receive.
func (p *Pool) Next() uint16 { return p.next }

// Count is the constant_pool_count field.
func (p *Pool) Count() uint16 { return p.next }

func (p *Pool) Bytes() []byte { return p.w.Out() }

func (p *Pool) add(tag jvm.ConstTag, payload []byte) uint16 {
	idx := p.next
	p.w.U1(uint8(tag)).Raw(payload...)
	p.next++
	if tag.Wide() {
		p.next++
	}
	return idx
}

// Raw appends an entry with an arbitrary tag byte and payload.
func (p *Pool) Raw(tag uint8, payload ...byte) uint16 {
	idx := p.next
	p.w.U1(tag).Raw(payload...)
	p.next++
	return idx
}

// Utf8 appends (or reuses) a Utf8 entry.
func (p *Pool) Utf8(s string) uint16 {
	if idx, ok := p.utf8[s]; ok {
		return idx
	}
	var w Buf
	w.U2(uint16(len(s))).Raw([]byte(s)...)
	idx := p.add(jvm.TagUtf8, w.Out())
	p.utf8[s] = idx
	return idx
}

func (p *Pool) Integer(v int32) uint16 {
	var w Buf
	return p.add(jvm.TagInteger, w.U4(uint32(v)).Out())
}

func (p *Pool) Float(v float32) uint16 {
	var w Buf
	return p.add(jvm.TagFloat, w.U4(math.Float32bits(v)).Out())
}

func (p *Pool) Long(v int64) uint16 {
	var w Buf
	return p.add(jvm.TagLong, w.U8(uint64(v)).Out())
}

func (p *Pool) Double(v float64) uint16 {
	var w Buf
	return p.add(jvm.TagDouble, w.U8(math.Float64bits(v)).Out())
}

func (p *Pool) u2Entry(tag jvm.ConstTag, idx uint16) uint16 {
	var w Buf
	return p.add(tag, w.U2(idx).Out())
}

// ClassAt appends a Class entry naming an existing Utf8 index.
func (p *Pool) ClassAt(nameIdx uint16) uint16 { return p.u2Entry(jvm.TagClass, nameIdx) }

// Class appends a Class entry followed by its name.
func (p *Pool) Class(name string) uint16 {
	if n, ok := p.utf8[name]; ok {
		return p.ClassAt(n)
	}
	idx := p.next
	p.ClassAt(idx + 1)
	p.Utf8(name)
	return idx
}

func (p *Pool) String(s string) uint16 {
	return p.u2Entry(jvm.TagString, p.Utf8(s))
}

func (p *Pool) NameAndType(name, desc string) uint16 {
	n, d := p.Utf8(name), p.Utf8(desc)
	var w Buf
	return p.add(jvm.TagNameAndType, w.U2(n).U2(d).Out())
}

// Ref appends a Fieldref, Methodref or InterfaceMethodref.
func (p *Pool) Ref(tag jvm.ConstTag, owner, name, desc string) uint16 {
	c := p.Class(owner)
	nt := p.NameAndType(name, desc)
	var w Buf
	return p.add(tag, w.U2(c).U2(nt).Out())
}

func (p *Pool) MethodHandle(kind uint8, ref uint16) uint16 {
	var w Buf
	return p.add(jvm.TagMethodHandle, w.U1(kind).U2(ref).Out())
}

func (p *Pool) MethodType(desc string) uint16 {
	return p.u2Entry(jvm.TagMethodType, p.Utf8(desc))
}

// Dynamic appends a Dynamic or InvokeDynamic entry.
func (p *Pool) Dynamic(tag jvm.ConstTag, bsm uint16, name, desc string) uint16 {
	nt := p.NameAndType(name, desc)
	var w Buf
	return p.add(tag, w.U2(bsm).U2(nt).Out())
}

func (p *Pool) Module(name string) uint16  { return p.u2Entry(jvm.TagModule, p.Utf8(name)) }
func (p *Pool) Package(name string) uint16 { return p.u2Entry(jvm.TagPackage, p.Utf8(name)) }

// Attr frames body with a name index and its true length.
func Attr(name uint16, body []byte) []byte {
	return AttrLen(name, uint32(len(body)), body)
}

// AttrLen frames body with an arbitrary declared length.
func AttrLen(name uint16, length uint32, body []byte) []byte {
	var w Buf
	return w.U2(name).U4(length).Raw(body...).Out()
}

// Code builds a Code attribute body. Each exception entry is
// start, end, handler, catch type.
func Code(maxStack, maxLocals uint16, code []byte, excs [][4]uint16, attrs ...[]byte) []byte {
	var w Buf
	w.U2(maxStack).U2(maxLocals).U4(uint32(len(code))).Raw(code...)
	w.U2(uint16(len(excs)))
	for _, e := range excs {
		w.U2(e[0]).U2(e[1]).U2(e[2]).U2(e[3])
	}
	w.U2(uint16(len(attrs)))
	for _, a := range attrs {
		w.Raw(a...)
	}
	return w.Out()
}

type Member struct {
	Flags uint16
	Name  uint16
	Desc  uint16
	Attrs [][]byte
}

// Class is a class file under construction.
type Class struct {
	Magic      uint32 // 0 writes 0xCAFEBABE
	Minor      uint16
	Major      uint16
	Pool       *Pool
	Flags      uint16
	This       uint16
	Super      uint16
	Interfaces []uint16
	Fields     []Member
	Methods    []Member
	Attrs      [][]byte
}

func writeMembers(w *Buf, ms []Member) {
	w.U2(uint16(len(ms)))
	for _, m := range ms {
		w.U2(m.Flags).U2(m.Name).U2(m.Desc).U2(uint16(len(m.Attrs)))
		for _, a := range m.Attrs {
			w.Raw(a...)
		}
	}
}

func (c *Class) Bytes() []byte {
	var w Buf
	magic := c.Magic
	if magic == 0 {
		magic = jvm.Magic
	}
	w.U4(magic).U2(c.Minor).U2(c.Major)
	w.U2(c.Pool.Count()).Raw(c.Pool.Bytes()...)
	w.U2(c.Flags).U2(c.This).U2(c.Super)
	w.U2(uint16(len(c.Interfaces)))
	for _, i := range c.Interfaces {
		w.U2(i)
	}
	writeMembers(&w, c.Fields)
	writeMembers(&w, c.Methods)
	w.U2(uint16(len(c.Attrs)))
	for _, a := range c.Attrs {
		w.Raw(a...)
	}
	return w.Out()
}

// New starts a class at version major:0 with this and super classes at
// pool indices 1 and 3.
func New(major uint16, name, super string) *Class {
	p := NewPool()
	this := p.Class(name)
	sup := p.Class(super)
	return &Class{
		Major: major,
		Pool:  p,
		Flags: jvm.AccPublic | jvm.AccSuper,
		This:  this,
		Super: sup,
	}
}

// Foo is "public class Foo {}" at version 55.0 with no members or attributes.
func Foo() *Class {
	return New(55, "Foo", "java/lang/Object")
}
