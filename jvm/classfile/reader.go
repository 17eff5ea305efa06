package classfile

import (
	"fmt"
	"io"

	"golang.org/x/crypto/cryptobyte"
)

// reader is a big-endian cursor over the class file. Reads past the end
// return errors wrapping io.ErrUnexpectedEOF in every mode.
type reader struct {
	s     cryptobyte.String
	total int
}

func newReader(data []byte) *reader {
	return &reader{s: cryptobyte.String(data), total: len(data)}
}

func (r *reader) pos() int { return r.total - len(r.s) }

func (r *reader) remaining() int { return len(r.s) }

func (r *reader) eof(n int, what string) error {
	return fmt.Errorf("%s at offset %d: need %d bytes, have %d: %w", what, r.pos(), n, len(r.s), io.ErrUnexpectedEOF)
}

func (r *reader) u1(what string) (uint8, error) {
	var v uint8
	if !r.s.ReadUint8(&v) {
		return 0, r.eof(1, what)
	}
	return v, nil
}

func (r *reader) u2(what string) (uint16, error) {
	var v uint16
	if !r.s.ReadUint16(&v) {
		return 0, r.eof(2, what)
	}
	return v, nil
}

func (r *reader) u4(what string) (uint32, error) {
	var v uint32
	if !r.s.ReadUint32(&v) {
		return 0, r.eof(4, what)
	}
	return v, nil
}

func (r *reader) u8(what string) (uint64, error) {
	if len(r.s) < 8 {
		return 0, r.eof(8, what)
	}
	var hi, lo uint32
	r.s.ReadUint32(&hi)
	r.s.ReadUint32(&lo)
	return uint64(hi)<<32 | uint64(lo), nil
}

// bytes returns a copy of the next n bytes.
func (r *reader) bytes(n int, what string) ([]byte, error) {
	if n < 0 || n > len(r.s) {
		return nil, r.eof(n, what)
	}
	var b []byte
	r.s.ReadBytes(&b, n)
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// u2s reads n consecutive u2 values.
func (r *reader) u2s(n int, what string) ([]uint16, error) {
	if n*2 > len(r.s) {
		return nil, r.eof(n*2, what)
	}
	out := make([]uint16, n)
	for i := range out {
		r.s.ReadUint16(&out[i])
	}
	return out, nil
}

// mark and reset let a caller rewind to a saved position.
func (r *reader) mark() cryptobyte.String { return r.s }

func (r *reader) reset(m cryptobyte.String) { r.s = m }
