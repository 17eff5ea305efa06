package bytecode

// Operand readers (big-endian). off is the opcode position; the operand
// starts at off+1. All return (value, ok) where ok=false means truncated
// input.

func GetUint8(bc []byte, off int) (uint8, bool) {
	if off+2 > len(bc) {
		return 0, false
	}
	return bc[off+1], true
}

func GetInt8(bc []byte, off int) (int8, bool) {
	v, ok := GetUint8(bc, off)
	return int8(v), ok
}

func GetUint16(bc []byte, off int) (uint16, bool) {
	if off+3 > len(bc) {
		return 0, false
	}
	return uint16(bc[off+1])<<8 | uint16(bc[off+2]), true
}

func GetInt16(bc []byte, off int) (int16, bool) {
	v, ok := GetUint16(bc, off)
	return int16(v), ok
}

func GetInt32(bc []byte, off int) (int32, bool) {
	if off+5 > len(bc) {
		return 0, false
	}
	return int32(bc[off+1])<<24 | int32(bc[off+2])<<16 | int32(bc[off+3])<<8 | int32(bc[off+4]), true
}

// int32At reads four bytes at an absolute position.
func int32At(bc []byte, pos int) (int32, bool) {
	return GetInt32(bc, pos-1)
}

// SwitchPad is the number of padding bytes after a switch opcode at pc so
// that the operands start on a 4-byte boundary relative to the code start.
func SwitchPad(pc int) int {
	return (4 - (pc+1)%4) % 4
}
