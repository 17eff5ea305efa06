package jvm

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// DecodeModifiedUTF8 decodes the class file's string encoding: NUL is two
// bytes (C0 80) and supplementary characters are surrogate pairs, each
// encoded as three bytes. ok is false if any sequence was malformed; those
// bytes decode as U+FFFD.
func DecodeModifiedUTF8(b []byte) (s string, ok bool) {
	ascii := true
	for _, c := range b {
		if c == 0 || c >= 0x80 {
			ascii = false
			break
		}
	}
	if ascii {
		return string(b), true
	}

	ok = true
	units := make([]uint16, 0, len(b))
	for i := 0; i < len(b); {
		c := b[i]
		switch {
		case c == 0:
			ok = false
			units = append(units, utf8.RuneError)
			i++
		case c < 0x80:
			units = append(units, uint16(c))
			i++
		case c&0xE0 == 0xC0 && i+1 < len(b) && b[i+1]&0xC0 == 0x80:
			units = append(units, uint16(c&0x1F)<<6|uint16(b[i+1]&0x3F))
			i += 2
		case c&0xF0 == 0xE0 && i+2 < len(b) && b[i+1]&0xC0 == 0x80 && b[i+2]&0xC0 == 0x80:
			units = append(units, uint16(c&0x0F)<<12|uint16(b[i+1]&0x3F)<<6|uint16(b[i+2]&0x3F))
			i += 3
		default:
			ok = false
			units = append(units, utf8.RuneError)
			i++
		}
	}
	var sb strings.Builder
	for _, r := range utf16.Decode(units) {
		sb.WriteRune(r)
	}
	return sb.String(), ok
}
