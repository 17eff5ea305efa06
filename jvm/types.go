package jvm

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Mode controls error handling behavior for decode and rendering.
type Mode int

const (
	// Strict returns an error on the first structural invalidity.
	Strict Mode = iota
	// BestEffort downgrades attribute length and stack map tag problems to
	// diagnostics and continues at the structural position.
	BestEffort
)

func (m Mode) String() string {
	if m == BestEffort {
		return "besteffort"
	}
	return "strict"
}

// ParseMode accepts "strict" and "besteffort".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "strict", "":
		return Strict, nil
	case "besteffort", "best-effort":
		return BestEffort, nil
	}
	return Strict, fmt.Errorf("unknown mode %q (use strict or besteffort)", s)
}

// Flag is one rendering option. Flags combine into a bit set.
type Flag uint32

const (
	// ShowPoolIndex prints the constant pool and renders references as #N.
	ShowPoolIndex Flag = 1 << iota
	// SuppressComments drops trailing // comments.
	SuppressComments
	// HexNumerics renders numeric constants and immediates in hex.
	HexNumerics
	// ShowProgramCounter prefixes each instruction with its pc and renders
	// branch targets as numbers instead of labels.
	ShowProgramCounter
	// ShowSourceLines inlines LineNumberTable entries as "// line N" markers.
	ShowSourceLines
	DropSourceFile
	// DropClassPair omits the this/super class pair from the header.
	DropClassPair
	DropSignatures
	// TableFormat selects the javap-like tabular style.
	TableFormat
	// ExtraDetail prints side tables and raw attribute headers.
	ExtraDetail
)

var flagNames = []struct {
	f    Flag
	name string
}{
	{ShowPoolIndex, "show-pool-index"},
	{SuppressComments, "no-comments"},
	{HexNumerics, "hex"},
	{ShowProgramCounter, "show-pc"},
	{ShowSourceLines, "source-lines"},
	{DropSourceFile, "drop-source-file"},
	{DropClassPair, "drop-class-pair"},
	{DropSignatures, "drop-signatures"},
	{TableFormat, "table"},
	{ExtraDetail, "detail"},
}

// FlagByName resolves a flag by its option name.
func FlagByName(name string) (Flag, bool) {
	for _, fn := range flagNames {
		if fn.name == name {
			return fn.f, true
		}
	}
	return 0, false
}

// FlagNames lists every known option name in sorted order.
func FlagNames() []string {
	names := make([]string, 0, len(flagNames))
	for _, fn := range flagNames {
		names = append(names, fn.name)
	}
	sort.Strings(names)
	return names
}

func (f Flag) String() string {
	var parts []string
	for _, fn := range flagNames {
		if f&fn.f != 0 {
			parts = append(parts, fn.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ",")
}

// Options configures decode and rendering. It is built once and passed by value.
type Options struct {
	Mode  Mode
	Flags Flag

	// TargetVersion, when non-zero, replaces the class file's version for
	// gating and rendering.
	TargetVersion Version

	// MaxSteps is a safety cap for loop iterations; 0 uses DefaultMaxSteps.
	MaxSteps int
}

// DefaultOptions returns Strict mode with no flags set.
func DefaultOptions() Options {
	return Options{Mode: Strict}
}

// DefaultMaxSteps is the default safety cap for iteration loops.
const DefaultMaxSteps = 1 << 20

// EffectiveMaxSteps returns the effective step limit.
func (o Options) EffectiveMaxSteps() int {
	if o.MaxSteps <= 0 {
		return DefaultMaxSteps
	}
	return o.MaxSteps
}

// Has reports whether f is set.
func (o Options) Has(f Flag) bool {
	return o.Flags&f != 0
}

// With returns a copy of o with f set.
func (o Options) With(f Flag) Options {
	o.Flags |= f
	return o
}

// DiagKind classifies a Diagnostic.
type DiagKind string

const (
	DiagTruncated     DiagKind = "truncated"
	DiagInvalid       DiagKind = "invalid"
	DiagLength        DiagKind = "length"
	DiagVersion       DiagKind = "version"
	DiagIndex         DiagKind = "index"
	DiagDuplicate     DiagKind = "duplicate"
	DiagMagic         DiagKind = "magic"
	DiagUnknownAttr   DiagKind = "unknown_attr"
	DiagUnknownOpcode DiagKind = "unknown_opcode"
	DiagCircular      DiagKind = "circular"
	DiagOverflow      DiagKind = "overflow"
	DiagOverride      DiagKind = "override"
)

// Diagnostic records one anomaly found during decode or rendering.
type Diagnostic struct {
	Offset int // byte offset in the class file, or pc within a method's code
	Kind   DiagKind
	Msg    string
	Member string // owning member ("name:descriptor"), when known
}

// Result pairs a value with accumulated diagnostics.
type Result[T any] struct {
	Value T
	Diags []Diagnostic
}

// FormatError reports a structural break that stops decoding the current file.
type FormatError struct {
	Offset int
	What   string
	Msg    string
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("class format error: %s at offset %d: %s", e.What, e.Offset, e.Msg)
}

func (e *FormatError) Unwrap() error { return e.Err }

// ErrUnknownFrame is wrapped by errors for unknown stack map frame types and
// verification type tags.
var ErrUnknownFrame = errors.New("unknown stack map entry")

// ErrUnknownElement is wrapped by errors for unknown annotation element
// tags and type annotation target types.
var ErrUnknownElement = errors.New("unknown annotation entry")
