package disasm

import (
	"sort"

	"github.com/openjdk/asmtools-sub002/jvm"
	"github.com/openjdk/asmtools-sub002/jvm/bytecode"
)

// VarMark is a local variable range boundary. Typed marks come from
// LocalVariableTypeTable.
type VarMark struct {
	Var   jvm.LocalVariable
	Typed bool
}

// Note aggregates every side-table event anchored at one pc.
type Note struct {
	Lines    []int
	TryStart []int // exception table indices
	TryEnd   []int
	Catch    []int
	VarStart []VarMark
	VarEnd   []VarMark
	Frames   []*jvm.StackMapFrame
	TypeAnns []*jvm.TypeAnnotation
	// Visible reports, per entry in TypeAnns, whether it came from the
	// runtime-visible table.
	Visible []bool
}

// Annotations is the per-pc lookup table for one Code attribute, built
// once before rendering.
type Annotations struct {
	Instructions []bytecode.Instruction
	Labels       bytecode.Labels
	Notes        map[int]*Note
	// Overflow is set when instruction decoding hit the step limit.
	Overflow bool
}

func (a *Annotations) note(pc int) *Note {
	n := a.Notes[pc]
	if n == nil {
		n = &Note{}
		a.Notes[pc] = n
	}
	return n
}

// NotePCs returns the annotated pcs in ascending order.
func (a *Annotations) NotePCs() []int {
	pcs := make([]int, 0, len(a.Notes))
	for pc := range a.Notes {
		pcs = append(pcs, pc)
	}
	sort.Ints(pcs)
	return pcs
}

// Annotate decodes code and cross-indexes its exception table, line
// numbers, local variables, stack map and offset-targeting type
// annotations by pc. Labels get both branch targets and the offsets named
// by uninitialized verification types.
func Annotate(code *jvm.CodeAttr, opt jvm.Options) *Annotations {
	a := &Annotations{Notes: map[int]*Note{}}
	limit := opt.EffectiveMaxSteps()
	a.Instructions = bytecode.Decode(code.Code, limit)
	if n := len(a.Instructions); n > limit {
		a.Overflow = true
	}
	a.Labels = bytecode.CollectLabels(a.Instructions, len(code.Code))

	for i, e := range code.Exceptions {
		a.note(int(e.StartPC)).TryStart = append(a.note(int(e.StartPC)).TryStart, i)
		a.note(int(e.EndPC)).TryEnd = append(a.note(int(e.EndPC)).TryEnd, i)
		a.note(int(e.HandlerPC)).Catch = append(a.note(int(e.HandlerPC)).Catch, i)
	}

	for _, attr := range code.Attributes {
		switch t := attr.(type) {
		case *jvm.LineNumberTableAttr:
			for _, ln := range t.Lines {
				n := a.note(int(ln.StartPC))
				n.Lines = append(n.Lines, int(ln.Line))
			}
		case *jvm.LocalVariableTableAttr:
			typed := t.Kind == jvm.AttrLocalVariableTypeTable
			for _, v := range t.Vars {
				m := VarMark{Var: v, Typed: typed}
				start := a.note(int(v.StartPC))
				start.VarStart = append(start.VarStart, m)
				end := a.note(int(v.StartPC) + int(v.Length))
				end.VarEnd = append(end.VarEnd, m)
			}
		case *jvm.StackMapAttr:
			for i := range t.Frames {
				f := &t.Frames[i]
				n := a.note(f.PC)
				n.Frames = append(n.Frames, f)
			}
			// Separate pass: uninitialized(offset) entries refer to the
			// new instruction at offset.
			for _, off := range jvm.UninitializedOffsets(t.Frames) {
				a.Labels.Add(off, len(code.Code))
			}
		case *jvm.TypeAnnotationsAttr:
			visible := t.Kind == jvm.AttrRuntimeVisibleTypeAnnotations
			for i := range t.Annotations {
				ta := &t.Annotations[i]
				if !jvm.HasCodeOffset(ta.TargetType) {
					continue
				}
				n := a.note(int(ta.Target.Offset))
				n.TypeAnns = append(n.TypeAnns, ta)
				n.Visible = append(n.Visible, visible)
			}
		}
	}
	return a
}
