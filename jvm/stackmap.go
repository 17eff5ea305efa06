package jvm

import "fmt"

// FrameKind is the shape selected by a stack map frame type byte.
type FrameKind int

const (
	FrameSame FrameKind = iota
	FrameSameLocals1
	FrameSameLocals1Extended
	FrameChop
	FrameSameExtended
	FrameAppend
	FrameFull
	// FrameLegacy is an entry of the pre-StackMapTable StackMap attribute.
	FrameLegacy
)

// FrameTypeEarlyLarval is the wrapper frame type carrying unset fields.
const FrameTypeEarlyLarval = 246

var frameKindNames = [...]string{
	"same", "same_locals_1_stack_item", "same_locals_1_stack_item_extended",
	"chop", "same_frame_extended", "append", "full", "stack_map",
}

func (k FrameKind) String() string {
	if k >= 0 && int(k) < len(frameKindNames) {
		return frameKindNames[k]
	}
	return fmt.Sprintf("frame%d", int(k))
}

// FrameKindOf classifies a StackMapTable frame type byte. Wrapper and
// reserved types report false.
func FrameKindOf(t uint8) (FrameKind, bool) {
	switch {
	case t <= 63:
		return FrameSame, true
	case t <= 127:
		return FrameSameLocals1, true
	case t == 247:
		return FrameSameLocals1Extended, true
	case t >= 248 && t <= 250:
		return FrameChop, true
	case t == 251:
		return FrameSameExtended, true
	case t >= 252 && t <= 254:
		return FrameAppend, true
	case t == 255:
		return FrameFull, true
	}
	return 0, false
}

// VerificationTag is a verification_type_info tag.
type VerificationTag uint8

const (
	ItemTop VerificationTag = iota
	ItemInteger
	ItemFloat
	ItemDouble
	ItemLong
	ItemNull
	ItemUninitializedThis
	ItemObject
	ItemUninitialized
)

var itemNames = [...]string{
	"top", "int", "float", "double", "long", "null", "uninitialized_this", "class", "uninitialized",
}

func (t VerificationTag) String() string {
	if int(t) < len(itemNames) {
		return itemNames[t]
	}
	return fmt.Sprintf("item%d", uint8(t))
}

// VerificationType is one local or stack slot type. Index is set for
// ItemObject, Offset for ItemUninitialized.
type VerificationType struct {
	Tag    VerificationTag
	Index  uint16
	Offset uint16
}

// LarvalWrapper is one early_larval level wrapping a frame.
type LarvalWrapper struct {
	UnsetFields []uint16
}

// StackMapFrame is one decoded frame with its absolute pc.
type StackMapFrame struct {
	Type        uint8
	Kind        FrameKind
	OffsetDelta uint16
	PC          int
	Chopped     int
	Locals      []VerificationType
	Stack       []VerificationType
	// Larval lists the early_larval wrappers applied to this frame,
	// outermost first.
	Larval []LarvalWrapper
}

// WrapLevel is the number of early_larval wrappers around f.
func (f *StackMapFrame) WrapLevel() int { return len(f.Larval) }

// UninitializedOffsets returns the bytecode offsets named by
// ItemUninitialized entries in frames.
func UninitializedOffsets(frames []StackMapFrame) []int {
	var out []int
	add := func(vs []VerificationType) {
		for _, v := range vs {
			if v.Tag == ItemUninitialized {
				out = append(out, int(v.Offset))
			}
		}
	}
	for i := range frames {
		add(frames[i].Locals)
		add(frames[i].Stack)
	}
	return out
}
