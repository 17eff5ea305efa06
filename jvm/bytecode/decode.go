package bytecode

import "fmt"

// Switch holds the jump table of a tableswitch or lookupswitch.
type Switch struct {
	Table   bool // tableswitch; Keys run from Low to High
	Low     int32
	High    int32
	Default int
	Keys    []int32
	Targets []int
}

// Instruction is one decoded instruction. Raw instructions could not be
// decoded; Bytes holds what they cover and Reason says why.
type Instruction struct {
	PC    int
	Op    uint8
	Len   int
	Wide  bool
	Bytes []byte

	Raw    bool
	Reason string

	Index  uint16 // pool index or local slot
	Value  int32  // immediate, iinc constant, array type, dimensions or count
	Target int    // absolute branch target
	Switch *Switch
}

// Unknown reports whether the instruction is an undefined opcode byte.
func (in *Instruction) Unknown() bool {
	return in.Raw && !Opcodes[in.Op].Known() && in.Len == 1
}

// Mnemonic is the assembler name; wide forms carry a _w suffix.
func (in *Instruction) Mnemonic() string {
	if in.Raw {
		return "bytecode"
	}
	name := Opcodes[in.Op].Name
	if in.Wide {
		name += "_w"
	}
	return name
}

// Form returns the operand layout of the instruction's opcode.
func (in *Instruction) Form() Form { return Opcodes[in.Op].Form }

// IsBranch reports whether Target is meaningful.
func (in *Instruction) IsBranch() bool {
	if in.Raw {
		return false
	}
	f := in.Form()
	return f == FormBranch || f == FormBranchWide
}

// Targets returns every absolute pc the instruction can jump to.
func (in *Instruction) Targets() []int {
	switch {
	case in.IsBranch():
		return []int{in.Target}
	case in.Switch != nil:
		out := make([]int, 0, len(in.Switch.Targets)+1)
		out = append(out, in.Switch.Default)
		return append(out, in.Switch.Targets...)
	}
	return nil
}

func raw(code []byte, pc, n int, reason string) Instruction {
	if pc+n > len(code) {
		n = len(code) - pc
	}
	return Instruction{PC: pc, Op: code[pc], Len: n, Bytes: code[pc : pc+n], Raw: true, Reason: reason}
}

// InstrLen returns the byte length of the instruction at code[pc], or -1
// when it is unknown or runs past the end.
func InstrLen(code []byte, pc int) int {
	if pc < 0 || pc >= len(code) {
		return -1
	}
	in := DecodeAt(code, pc)
	if in.Raw {
		return -1
	}
	return in.Len
}

// DecodeAt decodes the instruction at code[pc]. pc must be in range.
func DecodeAt(code []byte, pc int) Instruction {
	op := code[pc]
	info := &Opcodes[op]
	if !info.Known() {
		return raw(code, pc, 1, fmt.Sprintf("unknown opcode 0x%02X", op))
	}
	switch info.Form {
	case FormTableSwitch:
		return decodeTableSwitch(code, pc)
	case FormLookupSwitch:
		return decodeLookupSwitch(code, pc)
	case FormWide:
		return decodeWide(code, pc)
	}

	n := int(info.Length)
	if pc+n > len(code) {
		return raw(code, pc, n, "truncated "+info.Name)
	}
	in := Instruction{PC: pc, Op: op, Len: n, Bytes: code[pc : pc+n]}
	switch info.Form {
	case FormByte:
		v, _ := GetInt8(code, pc)
		in.Value = int32(v)
	case FormShort:
		v, _ := GetInt16(code, pc)
		in.Value = int32(v)
	case FormLocal, FormCPByte:
		in.Index = uint16(code[pc+1])
	case FormNewArray:
		in.Value = int32(code[pc+1])
	case FormIinc:
		in.Index = uint16(code[pc+1])
		in.Value = int32(int8(code[pc+2]))
	case FormCP, FormInvokeDynamic:
		in.Index, _ = GetUint16(code, pc)
	case FormInvokeInterface, FormMultiANewArray:
		in.Index, _ = GetUint16(code, pc)
		in.Value = int32(code[pc+3])
	case FormBranch:
		v, _ := GetInt16(code, pc)
		in.Target = pc + int(v)
	case FormBranchWide:
		v, _ := GetInt32(code, pc)
		in.Target = pc + int(v)
	}
	return in
}

func decodeWide(code []byte, pc int) Instruction {
	if pc+1 >= len(code) {
		return raw(code, pc, 1, "truncated wide")
	}
	op := code[pc+1]
	n := 4
	switch {
	case op == OpIinc:
		n = 6
	case Opcodes[op].Form == FormLocal:
	default:
		return raw(code, pc, 1, fmt.Sprintf("wide applied to 0x%02X", op))
	}
	if pc+n > len(code) {
		return raw(code, pc, n, "truncated wide "+Opcodes[op].Name)
	}
	in := Instruction{PC: pc, Op: op, Len: n, Wide: true, Bytes: code[pc : pc+n]}
	in.Index, _ = GetUint16(code, pc+1)
	if op == OpIinc {
		v, _ := GetInt16(code, pc+3)
		in.Value = int32(v)
	}
	return in
}

func decodeTableSwitch(code []byte, pc int) Instruction {
	base := pc + 1 + SwitchPad(pc)
	def, ok1 := int32At(code, base)
	low, ok2 := int32At(code, base+4)
	high, ok3 := int32At(code, base+8)
	if !ok1 || !ok2 || !ok3 {
		return raw(code, pc, len(code)-pc, "truncated tableswitch")
	}
	n := int64(high) - int64(low) + 1
	if n < 0 || n > int64(len(code)-(base+12))/4 {
		return raw(code, pc, len(code)-pc, fmt.Sprintf("tableswitch range %d..%d exceeds code", low, high))
	}
	sw := &Switch{Table: true, Low: low, High: high, Default: pc + int(def)}
	pos := base + 12
	for i := int64(0); i < n; i++ {
		off, _ := int32At(code, pos)
		sw.Keys = append(sw.Keys, low+int32(i))
		sw.Targets = append(sw.Targets, pc+int(off))
		pos += 4
	}
	return Instruction{PC: pc, Op: OpTableSwitch, Len: pos - pc, Bytes: code[pc:pos], Switch: sw}
}

func decodeLookupSwitch(code []byte, pc int) Instruction {
	base := pc + 1 + SwitchPad(pc)
	def, ok1 := int32At(code, base)
	npairs, ok2 := int32At(code, base+4)
	if !ok1 || !ok2 {
		return raw(code, pc, len(code)-pc, "truncated lookupswitch")
	}
	if npairs < 0 || int64(npairs) > int64(len(code)-(base+8))/8 {
		return raw(code, pc, len(code)-pc, fmt.Sprintf("lookupswitch with %d pairs exceeds code", npairs))
	}
	sw := &Switch{Default: pc + int(def)}
	pos := base + 8
	for i := 0; i < int(npairs); i++ {
		key, _ := int32At(code, pos)
		off, _ := int32At(code, pos+4)
		sw.Keys = append(sw.Keys, key)
		sw.Targets = append(sw.Targets, pc+int(off))
		pos += 8
	}
	return Instruction{PC: pc, Op: OpLookupSwitch, Len: pos - pc, Bytes: code[pc:pos], Switch: sw}
}

// Decode decodes the whole code array in order. At most maxSteps
// instructions are decoded (0 means no limit); any remainder becomes a
// single raw instruction.
func Decode(code []byte, maxSteps int) []Instruction {
	var out []Instruction
	pc := 0
	for pc < len(code) {
		if maxSteps > 0 && len(out) >= maxSteps {
			out = append(out, raw(code, pc, len(code)-pc, "step limit reached"))
			break
		}
		in := DecodeAt(code, pc)
		out = append(out, in)
		pc += in.Len
	}
	return out
}
