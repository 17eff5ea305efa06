// Package callgraph derives lattice control flow and call graphs from
// decoded class files.
package callgraph

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/zboralski/lattice"

	"github.com/openjdk/asmtools-sub002/jvm"
	"github.com/openjdk/asmtools-sub002/jvm/bytecode"
)

// maxLit caps literal strings attached to call sites.
const maxLit = 24

// BuildCFG builds one FuncCFG per method with code. The first entry is the
// class itself; its children are the methods.
func BuildCFG(cf *jvm.ClassFile, opt jvm.Options) *lattice.CFGGraph {
	g := &lattice.CFGGraph{}
	g.Funcs = append(g.Funcs, &lattice.FuncCFG{
		Name:   cf.DottedName(),
		Blocks: []*lattice.BasicBlock{{ID: 0}},
	})
	for i := range cf.Methods {
		m := &cf.Methods[i]
		g.Funcs[0].Children = append(g.Funcs[0].Children, len(g.Funcs))
		g.Funcs = append(g.Funcs, buildFuncCFG(cf, m, opt))
	}
	return g
}

// MethodName is the graph node name of m: Owner.name(descriptor).
func MethodName(cf *jvm.ClassFile, m *jvm.Member) string {
	return cf.DottedName() + "." + cf.Pool.Utf8(int(m.NameIndex), jvm.IndexDefault) +
		cf.Pool.Utf8(int(m.DescIndex), jvm.IndexDefault)
}

// callee names the target of an invoke instruction.
func callee(pool *jvm.ConstantPool, idx uint16) string {
	c, ok := pool.Get(int(idx))
	if !ok {
		return jvm.IndexDefault(int(idx))
	}
	switch v := c.(type) {
	case *jvm.ConstantRef:
		owner := strings.ReplaceAll(pool.ClassName(int(v.ClassIndex), jvm.IndexDefault), "/", ".")
		name, desc, _ := pool.NameAndType(int(v.NameAndTypeIndex))
		return owner + "." + name + desc
	case *jvm.ConstantDynamic:
		name, desc, _ := pool.NameAndType(int(v.NameAndTypeIndex))
		return "indy:" + name + desc
	}
	return jvm.IndexDefault(int(idx))
}

// literal renders the value pushed by in, or "" for non-literal pushes.
func literal(pool *jvm.ConstantPool, in *bytecode.Instruction) string {
	op := in.Op
	switch {
	case in.Raw:
		return ""
	case op == 0x01:
		return "null"
	case op >= 0x02 && op <= 0x08: // iconst_m1..iconst_5
		return strconv.Itoa(int(op) - 3)
	case op == 0x10 || op == 0x11: // bipush, sipush
		return strconv.Itoa(int(in.Value))
	case in.Form() == bytecode.FormCPByte || op == 0x13 || op == 0x14: // ldc, ldc_w, ldc2_w
		c, ok := pool.Get(int(in.Index))
		if !ok {
			return ""
		}
		switch v := c.(type) {
		case *jvm.ConstantString:
			return strconv.Quote(truncate(pool.Utf8(int(v.StringIndex), nil), maxLit))
		case *jvm.ConstantInteger:
			return strconv.Itoa(int(v.Value))
		case *jvm.ConstantLong:
			return strconv.FormatInt(v.Value, 10)
		case *jvm.ConstantFloat:
			return fmt.Sprintf("%g", v.Value())
		case *jvm.ConstantDouble:
			return fmt.Sprintf("%g", v.Value())
		case *jvm.ConstantClass:
			return strings.ReplaceAll(pool.ClassName(int(in.Index), nil), "/", ".") + ".class"
		}
	}
	return ""
}

// truncate shortens s to at most n runes, marking the cut with "…".
func truncate(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos] + "…"
		}
		i++
	}
	return s
}

// appendLit adds a literal to the buffer, capped at 6.
func appendLit(buf []string, lit string) []string {
	if len(buf) >= 6 {
		return buf
	}
	return append(buf, lit)
}

// cloneLits returns a copy of the literal buffer, or nil if empty.
func cloneLits(buf []string) []string {
	if len(buf) == 0 {
		return nil
	}
	cp := make([]string, len(buf))
	copy(cp, buf)
	return cp
}

// buildFuncCFG splits a method's bytecode into basic blocks and annotates
// the calls made from each.
func buildFuncCFG(cf *jvm.ClassFile, m *jvm.Member, opt jvm.Options) *lattice.FuncCFG {
	name := MethodName(cf, m)
	code := m.Code()
	if code == nil || len(code.Code) == 0 {
		return &lattice.FuncCFG{Name: name, Blocks: []*lattice.BasicBlock{{ID: 0}}}
	}
	instrs := bytecode.Decode(code.Code, opt.EffectiveMaxSteps())

	// 1. Block boundaries: branch targets, handlers, and the instruction
	// after anything that does not fall through.
	starts := map[int]bool{0: true}
	for pc := range bytecode.CollectLabels(instrs, len(code.Code)) {
		if pc < len(code.Code) {
			starts[pc] = true
		}
	}
	for _, e := range code.Exceptions {
		if int(e.HandlerPC) < len(code.Code) {
			starts[int(e.HandlerPC)] = true
		}
	}
	for i := range instrs {
		in := &instrs[i]
		if in.Raw || !bytecode.EndsBlock(in.Op) {
			continue
		}
		if next := in.PC + in.Len; next < len(code.Code) {
			starts[next] = true
		}
	}

	// 2. Sort starts, build blocks
	sorted := make([]int, 0, len(starts))
	for pc := range starts {
		sorted = append(sorted, pc)
	}
	sort.Ints(sorted)
	pcToBlock := map[int]int{}
	blocks := make([]*lattice.BasicBlock, len(sorted))
	for i, start := range sorted {
		end := len(code.Code)
		if i+1 < len(sorted) {
			end = sorted[i+1]
		}
		blocks[i] = &lattice.BasicBlock{ID: i, Start: start, End: end}
		pcToBlock[start] = i
	}
	succ := func(b *lattice.BasicBlock, pc int, cond string) {
		if id, ok := pcToBlock[pc]; ok {
			b.Succs = append(b.Succs, lattice.Successor{BlockID: id, Cond: cond})
		}
	}

	// 3. Walk instructions: calls and successors
	bi := 0
	var lits []string
	for i := range instrs {
		in := &instrs[i]
		for bi+1 < len(blocks) && in.PC >= blocks[bi+1].Start {
			bi++
			lits = lits[:0]
		}
		b := blocks[bi]
		if in.Raw {
			// Nothing after an undecodable instruction can be trusted.
			b.Term = true
			continue
		}
		if lit := literal(cf.Pool, in); lit != "" {
			lits = appendLit(lits, lit)
			continue
		}
		switch op := in.Op; {
		case bytecode.IsInvoke(op):
			b.Calls = append(b.Calls, lattice.CallSite{
				Offset: in.PC, Callee: callee(cf.Pool, in.Index), Args: cloneLits(lits),
			})
			lits = lits[:0]
		case bytecode.IsConditional(op):
			// Branch taken when the condition holds.
			succ(b, in.PC+in.Len, "F")
			succ(b, in.Target, "T")
			b.Term = true
		case op == bytecode.OpGoto || op == bytecode.OpGotoW:
			succ(b, in.Target, "")
			b.Term = true
		case op == bytecode.OpJsr || op == bytecode.OpJsrW:
			succ(b, in.Target, "")
			succ(b, in.PC+in.Len, "")
			b.Term = true
		case in.Switch != nil:
			for k, t := range in.Switch.Targets {
				succ(b, t, strconv.Itoa(int(in.Switch.Keys[k])))
			}
			succ(b, in.Switch.Default, "default")
			b.Term = true
		case bytecode.EndsBlock(op):
			b.Term = true
		}
	}

	// Protected blocks may transfer to their handler.
	for _, e := range code.Exceptions {
		for _, b := range blocks {
			if b.Start >= int(e.StartPC) && b.Start < int(e.EndPC) {
				succ(b, int(e.HandlerPC), "catch")
			}
		}
	}

	// Non-terminal blocks fall through to next block
	for _, b := range blocks {
		if !b.Term {
			succ(b, b.End, "")
		}
	}
	return &lattice.FuncCFG{Name: name, Blocks: blocks}
}
