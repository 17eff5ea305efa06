package jvm

import "fmt"

// Annotation is an annotation structure from a Runtime*Annotations attribute.
type Annotation struct {
	TypeIndex uint16
	Pairs     []ElementPair
}

type ElementPair struct {
	NameIndex uint16
	Value     ElementValue
}

// ElementValue tags.
const (
	ElemByte       = 'B'
	ElemChar       = 'C'
	ElemDouble     = 'D'
	ElemFloat      = 'F'
	ElemInt        = 'I'
	ElemLong       = 'J'
	ElemShort      = 'S'
	ElemBoolean    = 'Z'
	ElemString     = 's'
	ElemEnum       = 'e'
	ElemClass      = 'c'
	ElemAnnotation = '@'
	ElemArray      = '['
)

// ElementValue is a tagged annotation element value. Which fields are set
// depends on Tag.
type ElementValue struct {
	Tag        byte
	ConstIndex uint16 // primitives, 's' and 'c'
	EnumType   uint16
	EnumName   uint16
	Annotation *Annotation
	Values     []ElementValue
}

// Type annotation target types.
const (
	TargetClassTypeParameter      = 0x00
	TargetMethodTypeParameter     = 0x01
	TargetClassExtends            = 0x10
	TargetClassTypeParameterBound = 0x11
	TargetMethodTypeParamBound    = 0x12
	TargetField                   = 0x13
	TargetMethodReturn            = 0x14
	TargetMethodReceiver          = 0x15
	TargetMethodFormalParameter   = 0x16
	TargetThrows                  = 0x17
	TargetLocalVariable           = 0x40
	TargetResourceVariable        = 0x41
	TargetExceptionParameter      = 0x42
	TargetInstanceOf              = 0x43
	TargetNew                     = 0x44
	TargetConstructorReference    = 0x45
	TargetMethodReference         = 0x46
	TargetCast                    = 0x47
	TargetConstructorInvocationTA = 0x48
	TargetMethodInvocationTA      = 0x49
	TargetConstructorReferenceTA  = 0x4A
	TargetMethodReferenceTA       = 0x4B
)

var targetNames = map[uint8]string{
	TargetClassTypeParameter:      "CLASS_TYPE_PARAMETER",
	TargetMethodTypeParameter:     "METHOD_TYPE_PARAMETER",
	TargetClassExtends:            "CLASS_EXTENDS",
	TargetClassTypeParameterBound: "CLASS_TYPE_PARAMETER_BOUND",
	TargetMethodTypeParamBound:    "METHOD_TYPE_PARAMETER_BOUND",
	TargetField:                   "FIELD",
	TargetMethodReturn:            "METHOD_RETURN",
	TargetMethodReceiver:          "METHOD_RECEIVER",
	TargetMethodFormalParameter:   "METHOD_FORMAL_PARAMETER",
	TargetThrows:                  "THROWS",
	TargetLocalVariable:           "LOCAL_VARIABLE",
	TargetResourceVariable:        "RESOURCE_VARIABLE",
	TargetExceptionParameter:      "EXCEPTION_PARAMETER",
	TargetInstanceOf:              "INSTANCEOF",
	TargetNew:                     "NEW",
	TargetConstructorReference:    "CONSTRUCTOR_REFERENCE",
	TargetMethodReference:         "METHOD_REFERENCE",
	TargetCast:                    "CAST",
	TargetConstructorInvocationTA: "CONSTRUCTOR_INVOCATION_TYPE_ARGUMENT",
	TargetMethodInvocationTA:      "METHOD_INVOCATION_TYPE_ARGUMENT",
	TargetConstructorReferenceTA:  "CONSTRUCTOR_REFERENCE_TYPE_ARGUMENT",
	TargetMethodReferenceTA:       "METHOD_REFERENCE_TYPE_ARGUMENT",
}

// TargetName returns the symbolic name of a type annotation target type.
func TargetName(t uint8) string {
	if n, ok := targetNames[t]; ok {
		return n
	}
	return fmt.Sprintf("TARGET_0x%02X", t)
}

// KnownTarget reports whether t is a defined target type.
func KnownTarget(t uint8) bool {
	_, ok := targetNames[t]
	return ok
}

// HasCodeOffset reports whether targets of type t carry a bytecode offset.
func HasCodeOffset(t uint8) bool {
	return t >= TargetInstanceOf && t <= TargetMethodReferenceTA
}

type LocalVarTarget struct {
	StartPC uint16
	Length  uint16
	Index   uint16
}

// TargetInfo is the union of target_info shapes; TargetType selects which
// fields are meaningful.
type TargetInfo struct {
	TypeParameterIndex   uint8
	SupertypeIndex       uint16
	BoundIndex           uint8
	FormalParameterIndex uint8
	ThrowsTypeIndex      uint16
	LocalVars            []LocalVarTarget
	ExceptionTableIndex  uint16
	Offset               uint16
	TypeArgumentIndex    uint8
}

type TypePathEntry struct {
	Kind     uint8
	ArgIndex uint8
}

type TypeAnnotation struct {
	TargetType uint8
	Target     TargetInfo
	Path       []TypePathEntry
	Annotation
}
