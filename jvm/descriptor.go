package jvm

import "strings"

type descScanner struct {
	s   string
	pos int
}

func (d *descScanner) next() (string, int) {
	if d.pos >= len(d.s) {
		return "?", 0
	}
	ch := d.s[d.pos]
	d.pos++
	switch ch {
	case 'B':
		return "byte", 1
	case 'C':
		return "char", 1
	case 'D':
		return "double", 2
	case 'F':
		return "float", 1
	case 'I':
		return "int", 1
	case 'J':
		return "long", 2
	case 'S':
		return "short", 1
	case 'Z':
		return "boolean", 1
	case 'V':
		return "void", 0
	case '[':
		elem, _ := d.next()
		return elem + "[]", 1
	case 'L':
		end := strings.IndexByte(d.s[d.pos:], ';')
		if end < 0 {
			d.pos = len(d.s)
			return "?", 1
		}
		name := d.s[d.pos : d.pos+end]
		d.pos += end + 1
		return strings.ReplaceAll(name, "/", "."), 1
	}
	return string(ch), 1
}

// JavaType renders a field descriptor as a Java source type.
func JavaType(desc string) string {
	d := descScanner{s: desc}
	t, _ := d.next()
	return t
}

// MethodTypes splits a method descriptor into Java parameter types and the
// return type. ok is false when desc is not a method descriptor.
func MethodTypes(desc string) (params []string, ret string, ok bool) {
	if len(desc) == 0 || desc[0] != '(' {
		return nil, "", false
	}
	d := descScanner{s: desc, pos: 1}
	for d.pos < len(desc) && desc[d.pos] != ')' {
		t, _ := d.next()
		params = append(params, t)
	}
	if d.pos >= len(desc) {
		return params, "", false
	}
	d.pos++
	ret, _ = d.next()
	return params, ret, true
}

// ArgSlots counts local variable slots taken by a method's arguments,
// including the receiver for instance methods.
func ArgSlots(desc string, static bool) int {
	n := 0
	if !static {
		n = 1
	}
	if len(desc) == 0 || desc[0] != '(' {
		return n
	}
	d := descScanner{s: desc, pos: 1}
	for d.pos < len(desc) && desc[d.pos] != ')' {
		_, slots := d.next()
		n += slots
	}
	return n
}
