package jvm

import (
	"fmt"
	"strings"
)

// Access flag bits. Several bits are shared between contexts with
// different meanings.
const (
	AccPublic       = 0x0001
	AccPrivate      = 0x0002
	AccProtected    = 0x0004
	AccStatic       = 0x0008
	AccFinal        = 0x0010
	AccSuper        = 0x0020
	AccSynchronized = 0x0020
	AccOpen         = 0x0020
	AccTransitive   = 0x0020
	AccVolatile     = 0x0040
	AccBridge       = 0x0040
	AccStaticPhase  = 0x0040
	AccTransient    = 0x0080
	AccVarargs      = 0x0080
	AccNative       = 0x0100
	AccInterface    = 0x0200
	AccAbstract     = 0x0400
	AccStrict       = 0x0800
	AccSynthetic    = 0x1000
	AccAnnotation   = 0x2000
	AccEnum         = 0x4000
	AccModule       = 0x8000
	AccMandated     = 0x8000
)

// AccessContext selects which flag meanings apply.
type AccessContext int

const (
	ClassAccess AccessContext = iota
	InnerClassAccess
	FieldAccess
	MethodAccess
	ModuleAccess
	RequiresAccess
	ExportsAccess
	ParameterAccess
)

type accessBit struct {
	bit     uint16
	keyword string
	name    string
}

var accessTables = map[AccessContext][]accessBit{
	ClassAccess: {
		{AccSuper, "super", "ACC_SUPER"},
		{AccPublic, "public", "ACC_PUBLIC"},
		{AccFinal, "final", "ACC_FINAL"},
		{AccInterface, "interface", "ACC_INTERFACE"},
		{AccAbstract, "abstract", "ACC_ABSTRACT"},
		{AccSynthetic, "synthetic", "ACC_SYNTHETIC"},
		{AccAnnotation, "annotation", "ACC_ANNOTATION"},
		{AccEnum, "enum", "ACC_ENUM"},
		{AccModule, "module", "ACC_MODULE"},
	},
	InnerClassAccess: {
		{AccPublic, "public", "ACC_PUBLIC"},
		{AccPrivate, "private", "ACC_PRIVATE"},
		{AccProtected, "protected", "ACC_PROTECTED"},
		{AccStatic, "static", "ACC_STATIC"},
		{AccFinal, "final", "ACC_FINAL"},
		{AccInterface, "interface", "ACC_INTERFACE"},
		{AccAbstract, "abstract", "ACC_ABSTRACT"},
		{AccSynthetic, "synthetic", "ACC_SYNTHETIC"},
		{AccAnnotation, "annotation", "ACC_ANNOTATION"},
		{AccEnum, "enum", "ACC_ENUM"},
	},
	FieldAccess: {
		{AccPublic, "public", "ACC_PUBLIC"},
		{AccPrivate, "private", "ACC_PRIVATE"},
		{AccProtected, "protected", "ACC_PROTECTED"},
		{AccStatic, "static", "ACC_STATIC"},
		{AccFinal, "final", "ACC_FINAL"},
		{AccVolatile, "volatile", "ACC_VOLATILE"},
		{AccTransient, "transient", "ACC_TRANSIENT"},
		{AccSynthetic, "synthetic", "ACC_SYNTHETIC"},
		{AccEnum, "enum", "ACC_ENUM"},
	},
	MethodAccess: {
		{AccPublic, "public", "ACC_PUBLIC"},
		{AccPrivate, "private", "ACC_PRIVATE"},
		{AccProtected, "protected", "ACC_PROTECTED"},
		{AccStatic, "static", "ACC_STATIC"},
		{AccFinal, "final", "ACC_FINAL"},
		{AccSynchronized, "synchronized", "ACC_SYNCHRONIZED"},
		{AccBridge, "bridge", "ACC_BRIDGE"},
		{AccVarargs, "varargs", "ACC_VARARGS"},
		{AccNative, "native", "ACC_NATIVE"},
		{AccAbstract, "abstract", "ACC_ABSTRACT"},
		{AccStrict, "strict", "ACC_STRICT"},
		{AccSynthetic, "synthetic", "ACC_SYNTHETIC"},
	},
	ModuleAccess: {
		{AccOpen, "open", "ACC_OPEN"},
		{AccSynthetic, "synthetic", "ACC_SYNTHETIC"},
		{AccMandated, "mandated", "ACC_MANDATED"},
	},
	RequiresAccess: {
		{AccTransitive, "transitive", "ACC_TRANSITIVE"},
		{AccStaticPhase, "static", "ACC_STATIC_PHASE"},
		{AccSynthetic, "synthetic", "ACC_SYNTHETIC"},
		{AccMandated, "mandated", "ACC_MANDATED"},
	},
	ExportsAccess: {
		{AccSynthetic, "synthetic", "ACC_SYNTHETIC"},
		{AccMandated, "mandated", "ACC_MANDATED"},
	},
	ParameterAccess: {
		{AccFinal, "final", "ACC_FINAL"},
		{AccSynthetic, "synthetic", "ACC_SYNTHETIC"},
		{AccMandated, "mandated", "ACC_MANDATED"},
	},
}

// AccessKeywords returns the assembler keywords for flags, skipping any bit
// in omit. Bits with no meaning in ctx render as a hex literal.
func AccessKeywords(flags uint16, ctx AccessContext, omit uint16) []string {
	var out []string
	known := uint16(0)
	for _, b := range accessTables[ctx] {
		known |= b.bit
		if flags&b.bit != 0 && omit&b.bit == 0 {
			out = append(out, b.keyword)
		}
	}
	if rest := flags &^ known &^ omit; rest != 0 {
		out = append(out, fmt.Sprintf("0x%04X", rest))
	}
	return out
}

// AccessNames returns the ACC_ names for flags in ctx.
func AccessNames(flags uint16, ctx AccessContext) []string {
	var out []string
	for _, b := range accessTables[ctx] {
		if flags&b.bit != 0 {
			out = append(out, b.name)
		}
	}
	return out
}

// AccessString joins AccessKeywords with a trailing space, or returns "".
func AccessString(flags uint16, ctx AccessContext) string {
	kw := AccessKeywords(flags, ctx, 0)
	if len(kw) == 0 {
		return ""
	}
	return strings.Join(kw, " ") + " "
}
