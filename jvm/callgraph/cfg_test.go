package callgraph

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/zboralski/lattice/render"

	"github.com/openjdk/asmtools-sub002/jvm"
	"github.com/openjdk/asmtools-sub002/jvm/classfile"
	"github.com/openjdk/asmtools-sub002/jvm/classtest"
)

// branchyClass has one static method:
//
//	 0: ldc "hi"
//	 2: invokestatic Foo.log
//	 5: iconst_0
//	 6: ifeq 13
//	 9: invokestatic Foo.run
//	12: return
//	13: return
func branchyClass(t *testing.T) *jvm.ClassFile {
	t.Helper()
	c := classtest.Foo()
	p := c.Pool
	s := p.String("hi")
	log := p.Ref(jvm.TagMethodref, "Foo", "log", "(Ljava/lang/String;)V")
	run := p.Ref(jvm.TagMethodref, "Foo", "run", "()V")
	code := []byte{
		0x12, byte(s),
		0xb8, byte(log >> 8), byte(log),
		0x03,
		0x99, 0x00, 0x07,
		0xb8, byte(run >> 8), byte(run),
		0xb1,
		0xb1,
	}
	body := classtest.Code(1, 0, code, nil)
	c.Methods = append(c.Methods, classtest.Member{
		Flags: jvm.AccStatic,
		Name:  p.Utf8("main"),
		Desc:  p.Utf8("()V"),
		Attrs: [][]byte{classtest.Attr(p.Utf8("Code"), body)},
	})
	res, err := classfile.Decode(c.Bytes(), jvm.DefaultOptions())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return res.Value
}

func TestBuildCFG(t *testing.T) {
	cfg := BuildCFG(branchyClass(t), jvm.DefaultOptions())
	if len(cfg.Funcs) != 2 {
		t.Fatalf("expected class root and 1 method, got %d funcs", len(cfg.Funcs))
	}
	if got := cfg.Funcs[0].Children; len(got) != 1 || got[0] != 1 {
		t.Errorf("root children = %v", got)
	}
	f := cfg.Funcs[1]
	if f.Name != "Foo.main()V" {
		t.Errorf("func name = %q", f.Name)
	}
	if len(f.Blocks) != 3 {
		t.Fatalf("expected 3 blocks, got %d", len(f.Blocks))
	}

	b0 := f.Blocks[0]
	if b0.Start != 0 || b0.End != 9 {
		t.Errorf("B0 range = [%d,%d)", b0.Start, b0.End)
	}
	if len(b0.Calls) != 1 || b0.Calls[0].Callee != "Foo.log(Ljava/lang/String;)V" {
		t.Fatalf("B0 calls = %+v", b0.Calls)
	}
	if args := b0.Calls[0].Args; len(args) != 1 || args[0] != `"hi"` {
		t.Errorf("B0 call args = %v", args)
	}
	if len(b0.Succs) != 2 || b0.Succs[0].BlockID != 1 || b0.Succs[1].BlockID != 2 {
		t.Errorf("B0 succs = %+v", b0.Succs)
	}

	b1 := f.Blocks[1]
	if len(b1.Calls) != 1 || b1.Calls[0].Callee != "Foo.run()V" {
		t.Errorf("B1 calls = %+v", b1.Calls)
	}
	if !b1.Term || !f.Blocks[2].Term {
		t.Error("return blocks should be terminal")
	}

	if dot := render.DOTCFG(cfg, "Foo CFG"); dot == "" {
		t.Error("expected non-empty DOT output")
	}
}

func TestExceptionEdges(t *testing.T) {
	c := classtest.Foo()
	p := c.Pool
	// nop; return; astore_0; return with [0,1) handled at 2
	body := classtest.Code(1, 1, []byte{0x00, 0xb1, 0x4b, 0xb1}, [][4]uint16{{0, 1, 2, 0}})
	c.Methods = append(c.Methods, classtest.Member{
		Flags: jvm.AccStatic,
		Name:  p.Utf8("m"),
		Desc:  p.Utf8("()V"),
		Attrs: [][]byte{classtest.Attr(p.Utf8("Code"), body)},
	})
	res, err := classfile.Decode(c.Bytes(), jvm.DefaultOptions())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	f := BuildCFG(res.Value, jvm.DefaultOptions()).Funcs[1]
	if len(f.Blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(f.Blocks))
	}
	found := false
	for _, s := range f.Blocks[0].Succs {
		if s.BlockID == 1 && s.Cond == "catch" {
			found = true
		}
	}
	if !found {
		t.Errorf("missing handler edge: %+v", f.Blocks[0].Succs)
	}
}

func TestBuildCallGraph(t *testing.T) {
	g := Build(branchyClass(t), jvm.DefaultOptions())
	if len(g.Nodes) == 0 {
		t.Fatal("no nodes")
	}
	callees := map[string]bool{}
	for _, e := range g.Edges {
		if e.Caller != "Foo.main()V" {
			t.Errorf("unexpected caller %q", e.Caller)
		}
		callees[e.Callee] = true
	}
	if !callees["Foo.log(Ljava/lang/String;)V"] || !callees["Foo.run()V"] {
		t.Errorf("edges = %+v", g.Edges)
	}
	if dot := render.DOT(g, "Foo calls"); dot == "" {
		t.Error("expected non-empty DOT output")
	}
}

func TestOverloadsAreDistinctNodes(t *testing.T) {
	c := classtest.Foo()
	p := c.Pool
	for _, desc := range []string{"()V", "(I)V"} {
		body := classtest.Code(1, 1, []byte{0xb1}, nil)
		c.Methods = append(c.Methods, classtest.Member{
			Flags: jvm.AccStatic,
			Name:  p.Utf8("m"),
			Desc:  p.Utf8(desc),
			Attrs: [][]byte{classtest.Attr(p.Utf8("Code"), body)},
		})
	}
	res, err := classfile.Decode(c.Bytes(), jvm.DefaultOptions())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	g := Build(res.Value, jvm.DefaultOptions())
	if len(g.Nodes) != 2 || g.Nodes[0] == g.Nodes[1] {
		t.Errorf("nodes = %v", g.Nodes)
	}
	cfg := BuildCFG(res.Value, jvm.DefaultOptions())
	if cfg.Funcs[1].Name != "Foo.m()V" || cfg.Funcs[2].Name != "Foo.m(I)V" {
		t.Errorf("func names = %q, %q", cfg.Funcs[1].Name, cfg.Funcs[2].Name)
	}
}

func TestTruncateKeepsRunes(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want string
	}{
		{"short", "short"},
		{strings.Repeat("a", maxLit), strings.Repeat("a", maxLit)},
		{strings.Repeat("a", maxLit+1), strings.Repeat("a", maxLit) + "…"},
		{strings.Repeat("é", maxLit+3), strings.Repeat("é", maxLit) + "…"},
		{strings.Repeat("a", maxLit-1) + "日本", strings.Repeat("a", maxLit-1) + "日…"},
	} {
		got := truncate(tc.in, maxLit)
		if got != tc.want || !utf8.ValidString(got) {
			t.Errorf("truncate(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
