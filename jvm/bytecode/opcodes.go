// Package bytecode decodes JVM method code arrays into instructions.
package bytecode

// Form is the operand layout of an opcode.
type Form uint8

const (
	FormNone Form = iota
	FormByte       // signed 1-byte immediate
	FormShort      // signed 2-byte immediate
	FormLocal      // 1-byte local slot, 2 bytes under wide
	FormIinc       // local slot + signed constant
	FormCPByte     // 1-byte pool index (ldc)
	FormCP         // 2-byte pool index
	FormBranch     // signed 2-byte branch offset
	FormBranchWide // signed 4-byte branch offset
	FormNewArray   // 1-byte array type code
	FormInvokeInterface
	FormInvokeDynamic
	FormMultiANewArray
	FormTableSwitch
	FormLookupSwitch
	FormWide
)

// OpInfo holds metadata about an opcode. Length is zero for variable-length
// forms.
type OpInfo struct {
	Name   string
	Length int8
	Form   Form
}

// Known reports whether the opcode is defined.
func (o *OpInfo) Known() bool { return o.Name != "" }

// Opcode values referenced by the decoder and control-flow code.
const (
	OpLdc             = 0x12
	OpIinc            = 0x84
	OpIfeq            = 0x99
	OpIfAcmpne        = 0xA6
	OpGoto            = 0xA7
	OpJsr             = 0xA8
	OpRet             = 0xA9
	OpTableSwitch     = 0xAA
	OpLookupSwitch    = 0xAB
	OpIreturn         = 0xAC
	OpReturn          = 0xB1
	OpInvokeVirtual   = 0xB6
	OpInvokeSpecial   = 0xB7
	OpInvokeStatic    = 0xB8
	OpInvokeInterface = 0xB9
	OpInvokeDynamic   = 0xBA
	OpNew             = 0xBB
	OpNewArray        = 0xBC
	OpAthrow          = 0xBF
	OpWide            = 0xC4
	OpIfnull          = 0xC6
	OpIfnonnull       = 0xC7
	OpGotoW           = 0xC8
	OpJsrW            = 0xC9
)

// Opcodes is indexed by opcode byte.
var Opcodes = [256]OpInfo{
	0x00: {"nop", 1, FormNone},
	0x01: {"aconst_null", 1, FormNone},
	0x02: {"iconst_m1", 1, FormNone},
	0x03: {"iconst_0", 1, FormNone},
	0x04: {"iconst_1", 1, FormNone},
	0x05: {"iconst_2", 1, FormNone},
	0x06: {"iconst_3", 1, FormNone},
	0x07: {"iconst_4", 1, FormNone},
	0x08: {"iconst_5", 1, FormNone},
	0x09: {"lconst_0", 1, FormNone},
	0x0A: {"lconst_1", 1, FormNone},
	0x0B: {"fconst_0", 1, FormNone},
	0x0C: {"fconst_1", 1, FormNone},
	0x0D: {"fconst_2", 1, FormNone},
	0x0E: {"dconst_0", 1, FormNone},
	0x0F: {"dconst_1", 1, FormNone},
	0x10: {"bipush", 2, FormByte},
	0x11: {"sipush", 3, FormShort},
	0x12: {"ldc", 2, FormCPByte},
	0x13: {"ldc_w", 3, FormCP},
	0x14: {"ldc2_w", 3, FormCP},
	0x15: {"iload", 2, FormLocal},
	0x16: {"lload", 2, FormLocal},
	0x17: {"fload", 2, FormLocal},
	0x18: {"dload", 2, FormLocal},
	0x19: {"aload", 2, FormLocal},
	0x1A: {"iload_0", 1, FormNone},
	0x1B: {"iload_1", 1, FormNone},
	0x1C: {"iload_2", 1, FormNone},
	0x1D: {"iload_3", 1, FormNone},
	0x1E: {"lload_0", 1, FormNone},
	0x1F: {"lload_1", 1, FormNone},
	0x20: {"lload_2", 1, FormNone},
	0x21: {"lload_3", 1, FormNone},
	0x22: {"fload_0", 1, FormNone},
	0x23: {"fload_1", 1, FormNone},
	0x24: {"fload_2", 1, FormNone},
	0x25: {"fload_3", 1, FormNone},
	0x26: {"dload_0", 1, FormNone},
	0x27: {"dload_1", 1, FormNone},
	0x28: {"dload_2", 1, FormNone},
	0x29: {"dload_3", 1, FormNone},
	0x2A: {"aload_0", 1, FormNone},
	0x2B: {"aload_1", 1, FormNone},
	0x2C: {"aload_2", 1, FormNone},
	0x2D: {"aload_3", 1, FormNone},
	0x2E: {"iaload", 1, FormNone},
	0x2F: {"laload", 1, FormNone},
	0x30: {"faload", 1, FormNone},
	0x31: {"daload", 1, FormNone},
	0x32: {"aaload", 1, FormNone},
	0x33: {"baload", 1, FormNone},
	0x34: {"caload", 1, FormNone},
	0x35: {"saload", 1, FormNone},
	0x36: {"istore", 2, FormLocal},
	0x37: {"lstore", 2, FormLocal},
	0x38: {"fstore", 2, FormLocal},
	0x39: {"dstore", 2, FormLocal},
	0x3A: {"astore", 2, FormLocal},
	0x3B: {"istore_0", 1, FormNone},
	0x3C: {"istore_1", 1, FormNone},
	0x3D: {"istore_2", 1, FormNone},
	0x3E: {"istore_3", 1, FormNone},
	0x3F: {"lstore_0", 1, FormNone},
	0x40: {"lstore_1", 1, FormNone},
	0x41: {"lstore_2", 1, FormNone},
	0x42: {"lstore_3", 1, FormNone},
	0x43: {"fstore_0", 1, FormNone},
	0x44: {"fstore_1", 1, FormNone},
	0x45: {"fstore_2", 1, FormNone},
	0x46: {"fstore_3", 1, FormNone},
	0x47: {"dstore_0", 1, FormNone},
	0x48: {"dstore_1", 1, FormNone},
	0x49: {"dstore_2", 1, FormNone},
	0x4A: {"dstore_3", 1, FormNone},
	0x4B: {"astore_0", 1, FormNone},
	0x4C: {"astore_1", 1, FormNone},
	0x4D: {"astore_2", 1, FormNone},
	0x4E: {"astore_3", 1, FormNone},
	0x4F: {"iastore", 1, FormNone},
	0x50: {"lastore", 1, FormNone},
	0x51: {"fastore", 1, FormNone},
	0x52: {"dastore", 1, FormNone},
	0x53: {"aastore", 1, FormNone},
	0x54: {"bastore", 1, FormNone},
	0x55: {"castore", 1, FormNone},
	0x56: {"sastore", 1, FormNone},
	0x57: {"pop", 1, FormNone},
	0x58: {"pop2", 1, FormNone},
	0x59: {"dup", 1, FormNone},
	0x5A: {"dup_x1", 1, FormNone},
	0x5B: {"dup_x2", 1, FormNone},
	0x5C: {"dup2", 1, FormNone},
	0x5D: {"dup2_x1", 1, FormNone},
	0x5E: {"dup2_x2", 1, FormNone},
	0x5F: {"swap", 1, FormNone},
	0x60: {"iadd", 1, FormNone},
	0x61: {"ladd", 1, FormNone},
	0x62: {"fadd", 1, FormNone},
	0x63: {"dadd", 1, FormNone},
	0x64: {"isub", 1, FormNone},
	0x65: {"lsub", 1, FormNone},
	0x66: {"fsub", 1, FormNone},
	0x67: {"dsub", 1, FormNone},
	0x68: {"imul", 1, FormNone},
	0x69: {"lmul", 1, FormNone},
	0x6A: {"fmul", 1, FormNone},
	0x6B: {"dmul", 1, FormNone},
	0x6C: {"idiv", 1, FormNone},
	0x6D: {"ldiv", 1, FormNone},
	0x6E: {"fdiv", 1, FormNone},
	0x6F: {"ddiv", 1, FormNone},
	0x70: {"irem", 1, FormNone},
	0x71: {"lrem", 1, FormNone},
	0x72: {"frem", 1, FormNone},
	0x73: {"drem", 1, FormNone},
	0x74: {"ineg", 1, FormNone},
	0x75: {"lneg", 1, FormNone},
	0x76: {"fneg", 1, FormNone},
	0x77: {"dneg", 1, FormNone},
	0x78: {"ishl", 1, FormNone},
	0x79: {"lshl", 1, FormNone},
	0x7A: {"ishr", 1, FormNone},
	0x7B: {"lshr", 1, FormNone},
	0x7C: {"iushr", 1, FormNone},
	0x7D: {"lushr", 1, FormNone},
	0x7E: {"iand", 1, FormNone},
	0x7F: {"land", 1, FormNone},
	0x80: {"ior", 1, FormNone},
	0x81: {"lor", 1, FormNone},
	0x82: {"ixor", 1, FormNone},
	0x83: {"lxor", 1, FormNone},
	0x84: {"iinc", 3, FormIinc},
	0x85: {"i2l", 1, FormNone},
	0x86: {"i2f", 1, FormNone},
	0x87: {"i2d", 1, FormNone},
	0x88: {"l2i", 1, FormNone},
	0x89: {"l2f", 1, FormNone},
	0x8A: {"l2d", 1, FormNone},
	0x8B: {"f2i", 1, FormNone},
	0x8C: {"f2l", 1, FormNone},
	0x8D: {"f2d", 1, FormNone},
	0x8E: {"d2i", 1, FormNone},
	0x8F: {"d2l", 1, FormNone},
	0x90: {"d2f", 1, FormNone},
	0x91: {"i2b", 1, FormNone},
	0x92: {"i2c", 1, FormNone},
	0x93: {"i2s", 1, FormNone},
	0x94: {"lcmp", 1, FormNone},
	0x95: {"fcmpl", 1, FormNone},
	0x96: {"fcmpg", 1, FormNone},
	0x97: {"dcmpl", 1, FormNone},
	0x98: {"dcmpg", 1, FormNone},
	0x99: {"ifeq", 3, FormBranch},
	0x9A: {"ifne", 3, FormBranch},
	0x9B: {"iflt", 3, FormBranch},
	0x9C: {"ifge", 3, FormBranch},
	0x9D: {"ifgt", 3, FormBranch},
	0x9E: {"ifle", 3, FormBranch},
	0x9F: {"if_icmpeq", 3, FormBranch},
	0xA0: {"if_icmpne", 3, FormBranch},
	0xA1: {"if_icmplt", 3, FormBranch},
	0xA2: {"if_icmpge", 3, FormBranch},
	0xA3: {"if_icmpgt", 3, FormBranch},
	0xA4: {"if_icmple", 3, FormBranch},
	0xA5: {"if_acmpeq", 3, FormBranch},
	0xA6: {"if_acmpne", 3, FormBranch},
	0xA7: {"goto", 3, FormBranch},
	0xA8: {"jsr", 3, FormBranch},
	0xA9: {"ret", 2, FormLocal},
	0xAA: {"tableswitch", 0, FormTableSwitch},
	0xAB: {"lookupswitch", 0, FormLookupSwitch},
	0xAC: {"ireturn", 1, FormNone},
	0xAD: {"lreturn", 1, FormNone},
	0xAE: {"freturn", 1, FormNone},
	0xAF: {"dreturn", 1, FormNone},
	0xB0: {"areturn", 1, FormNone},
	0xB1: {"return", 1, FormNone},
	0xB2: {"getstatic", 3, FormCP},
	0xB3: {"putstatic", 3, FormCP},
	0xB4: {"getfield", 3, FormCP},
	0xB5: {"putfield", 3, FormCP},
	0xB6: {"invokevirtual", 3, FormCP},
	0xB7: {"invokespecial", 3, FormCP},
	0xB8: {"invokestatic", 3, FormCP},
	0xB9: {"invokeinterface", 5, FormInvokeInterface},
	0xBA: {"invokedynamic", 5, FormInvokeDynamic},
	0xBB: {"new", 3, FormCP},
	0xBC: {"newarray", 2, FormNewArray},
	0xBD: {"anewarray", 3, FormCP},
	0xBE: {"arraylength", 1, FormNone},
	0xBF: {"athrow", 1, FormNone},
	0xC0: {"checkcast", 3, FormCP},
	0xC1: {"instanceof", 3, FormCP},
	0xC2: {"monitorenter", 1, FormNone},
	0xC3: {"monitorexit", 1, FormNone},
	0xC4: {"wide", 0, FormWide},
	0xC5: {"multianewarray", 4, FormMultiANewArray},
	0xC6: {"ifnull", 3, FormBranch},
	0xC7: {"ifnonnull", 3, FormBranch},
	0xC8: {"goto_w", 5, FormBranchWide},
	0xC9: {"jsr_w", 5, FormBranchWide},
	0xCA: {"breakpoint", 1, FormNone},
	0xFE: {"impdep1", 1, FormNone},
	0xFF: {"impdep2", 1, FormNone},
}

// ArrayTypeName maps a newarray type code to its element keyword.
func ArrayTypeName(code uint8) (string, bool) {
	switch code {
	case 4:
		return "boolean", true
	case 5:
		return "char", true
	case 6:
		return "float", true
	case 7:
		return "double", true
	case 8:
		return "byte", true
	case 9:
		return "short", true
	case 10:
		return "int", true
	case 11:
		return "long", true
	}
	return "", false
}

// IsConditional reports whether op is a two-way branch.
func IsConditional(op uint8) bool {
	return (op >= OpIfeq && op <= OpIfAcmpne) || op == OpIfnull || op == OpIfnonnull
}

// IsInvoke reports whether op calls a method.
func IsInvoke(op uint8) bool {
	return op >= OpInvokeVirtual && op <= OpInvokeDynamic
}

// EndsBlock reports whether control does not simply fall through after op.
func EndsBlock(op uint8) bool {
	switch {
	case IsConditional(op):
		return true
	case op == OpGoto, op == OpGotoW, op == OpJsr, op == OpJsrW, op == OpRet:
		return true
	case op == OpTableSwitch, op == OpLookupSwitch:
		return true
	case op >= OpIreturn && op <= OpReturn, op == OpAthrow:
		return true
	}
	return false
}
