package classfile

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/require"
	parser "github.com/wreulicke/classfile-parser"

	"github.com/openjdk/asmtools-sub002/jvm"
	"github.com/openjdk/asmtools-sub002/jvm/classtest"
)

var bestEffort = jvm.Options{Mode: jvm.BestEffort}

func hasDiag(diags []jvm.Diagnostic, kind jvm.DiagKind, substr string) bool {
	for _, d := range diags {
		if d.Kind == kind && strings.Contains(d.Msg, substr) {
			return true
		}
	}
	return false
}

func TestDecodeFoo(t *testing.T) {
	res, err := Decode(classtest.Foo().Bytes(), jvm.DefaultOptions())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	cf := res.Value
	if len(res.Diags) != 0 {
		t.Errorf("unexpected diagnostics: %+v", res.Diags)
	}
	if cf.Name() != "Foo" {
		t.Errorf("name = %q, want Foo", cf.Name())
	}
	if got := cf.Pool.ClassName(int(cf.SuperClass), nil); got != "java/lang/Object" {
		t.Errorf("super = %q", got)
	}
	if cf.Version != (jvm.Version{Major: 55}) {
		t.Errorf("version = %s", cf.Version)
	}
	if cf.Flags != jvm.AccPublic|jvm.AccSuper {
		t.Errorf("flags = 0x%04x", cf.Flags)
	}
	if cf.Pool.Size() != 5 {
		t.Errorf("pool size = %d, want 5", cf.Pool.Size())
	}
	if len(cf.Attributes) != 0 || len(cf.Fields) != 0 || len(cf.Methods) != 0 {
		t.Errorf("expected empty class, got %s", spew.Sdump(cf))
	}
}

func TestEmptyInput(t *testing.T) {
	_, err := Decode(nil, jvm.DefaultOptions())
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected unexpected EOF, got %v", err)
	}
}

func TestBadMagicWarns(t *testing.T) {
	for _, opt := range []jvm.Options{jvm.DefaultOptions(), bestEffort} {
		c := classtest.Foo()
		c.Magic = 0xDEADBEEF
		res, err := Decode(c.Bytes(), opt)
		if err != nil {
			t.Fatalf("%s: bad magic should not fail: %v", opt.Mode, err)
		}
		if !hasDiag(res.Diags, jvm.DiagMagic, "0xDEADBEEF") {
			t.Errorf("%s: expected magic diagnostic, got %+v", opt.Mode, res.Diags)
		}
		if res.Value.Name() != "Foo" {
			t.Errorf("%s: decode did not continue past bad magic", opt.Mode)
		}
	}
}

func TestTruncatedReturnsPartial(t *testing.T) {
	data := classtest.Foo().Bytes()
	for _, opt := range []jvm.Options{jvm.DefaultOptions(), bestEffort} {
		res, err := Decode(data[:len(data)-3], opt)
		if !errors.Is(err, io.ErrUnexpectedEOF) {
			t.Fatalf("%s: expected unexpected EOF, got %v", opt.Mode, err)
		}
		var fe *jvm.FormatError
		if errors.As(err, &fe) {
			t.Errorf("%s: EOF must be distinct from a format error", opt.Mode)
		}
		if res.Value == nil || res.Value.Name() != "Foo" {
			t.Errorf("%s: expected partial model with pool, got %s", opt.Mode, spew.Sdump(res.Value))
		}
	}
}

func TestUnknownPoolTagFatal(t *testing.T) {
	c := classtest.Foo()
	c.Pool.Raw(2, 0x00, 0x01)
	for _, opt := range []jvm.Options{jvm.DefaultOptions(), bestEffort} {
		res, err := Decode(c.Bytes(), opt)
		var fe *jvm.FormatError
		if !errors.As(err, &fe) {
			t.Fatalf("%s: expected FormatError, got %v", opt.Mode, err)
		}
		if !strings.Contains(fe.Msg, "unknown constant tag 2") {
			t.Errorf("%s: msg = %q", opt.Mode, fe.Msg)
		}
		if _, ok := res.Value.Pool.Get(4); !ok {
			t.Errorf("%s: entries before the bad tag should be kept", opt.Mode)
		}
	}
}

func TestPoolRoundTrip(t *testing.T) {
	p := classtest.NewPool()
	utf := p.Utf8("hello")
	i := p.Integer(-7)
	f := p.Float(1.5)
	l := p.Long(1 << 40)
	dbl := p.Double(2.25)
	cls := p.Class("java/lang/String")
	str := p.String("hello")
	mref := p.Ref(jvm.TagMethodref, "Foo", "bar", "()V")
	mh := p.MethodHandle(jvm.RefInvokeStatic, mref)
	mt := p.MethodType("()V")
	indy := p.Dynamic(jvm.TagInvokeDynamic, 0, "run", "()Ljava/lang/Runnable;")
	mod := p.Module("java.base")
	pkg := p.Package("java/lang")

	var w classtest.Buf
	w.U2(p.Count()).Raw(p.Bytes()...)
	res, err := DecodePool(w.Out(), jvm.DefaultOptions())
	require.NoError(t, err)
	pool := res.Value

	get := func(idx uint16) jvm.Constant {
		c, ok := pool.Get(int(idx))
		require.True(t, ok, "#%d", idx)
		return c
	}
	require.Equal(t, &jvm.ConstantUtf8{Value: "hello"}, get(utf))
	require.Equal(t, &jvm.ConstantInteger{Value: -7}, get(i))
	require.Equal(t, float32(1.5), get(f).(*jvm.ConstantFloat).Value())
	require.Equal(t, &jvm.ConstantLong{Value: 1 << 40}, get(l))
	require.Equal(t, 2.25, get(dbl).(*jvm.ConstantDouble).Value())
	require.Equal(t, "java/lang/String", pool.ClassName(int(cls), nil))
	require.Equal(t, &jvm.ConstantString{StringIndex: utf}, get(str))
	ref := get(mref).(*jvm.ConstantRef)
	require.Equal(t, jvm.TagMethodref, ref.Tag())
	require.Equal(t, "Foo", pool.ClassName(int(ref.ClassIndex), nil))
	name, desc, ok := pool.NameAndType(int(ref.NameAndTypeIndex))
	require.True(t, ok)
	require.Equal(t, "bar", name)
	require.Equal(t, "()V", desc)
	require.Equal(t, &jvm.ConstantMethodHandle{RefKind: jvm.RefInvokeStatic, RefIndex: mref}, get(mh))
	require.IsType(t, &jvm.ConstantMethodType{}, get(mt))
	require.Equal(t, jvm.TagInvokeDynamic, get(indy).Tag())
	require.Equal(t, "java.base", pool.ModuleName(int(mod), nil))
	require.Equal(t, "java/lang", pool.PackageName(int(pkg), nil))
	require.True(t, pool.ReferredBy(int(ref.NameAndTypeIndex), jvm.TagMethodref))
	require.False(t, pool.ReferredBy(int(ref.NameAndTypeIndex), jvm.TagFieldref))
}

func TestPoolAccessorsDefault(t *testing.T) {
	p := classtest.NewPool()
	p.Utf8("x")
	l := p.Long(5)
	var w classtest.Buf
	w.U2(p.Count()).Raw(p.Bytes()...)
	res, err := DecodePool(w.Out(), jvm.DefaultOptions())
	require.NoError(t, err)
	pool := res.Value

	def := func(idx int) string { return "?" + jvm.IndexDefault(idx) }
	for _, idx := range []int{-1, 0, int(l) + 1, pool.Size(), 1000} {
		if _, ok := pool.Get(idx); ok {
			t.Errorf("Get(%d) should fail", idx)
		}
		if got := pool.Utf8(idx, def); got != def(idx) {
			t.Errorf("Utf8(%d) = %q", idx, got)
		}
		if got := pool.ClassName(idx, nil); got != jvm.IndexDefault(idx) {
			t.Errorf("ClassName(%d) = %q", idx, got)
		}
	}
	// Wrong tag also falls back.
	if got := pool.ClassName(1, nil); got != "#1" {
		t.Errorf("ClassName on Utf8 = %q", got)
	}
}

func TestLongDoubleSlots(t *testing.T) {
	p := classtest.NewPool()
	p.Utf8("a")
	l1 := p.Long(1)
	p.Utf8("b")
	d := p.Double(2)
	l2 := p.Long(3)
	wide := []uint16{l1, d, l2}
	var w classtest.Buf
	w.U2(p.Count()).Raw(p.Bytes()...)
	res, err := DecodePool(w.Out(), jvm.DefaultOptions())
	require.NoError(t, err)
	pool := res.Value

	n := pool.Size()
	require.Equal(t, int(p.Count()), n)
	require.Equal(t, n-1-len(wide), pool.NonNullCount())
	for _, idx := range wide {
		next := int(idx) + 1
		_, ok := pool.Get(next)
		require.False(t, ok, "slot after #%d must be a tombstone", idx)
		require.Equal(t, "#"+strconv.Itoa(next), pool.Utf8(next, nil))
	}
}

// sourceFileWithLength builds Foo with a SourceFile attribute declaring
// length followed by a Deprecated attribute.
func sourceFileWithLength(length uint32) []byte {
	c := classtest.Foo()
	sf := c.Pool.Utf8("SourceFile")
	src := c.Pool.Utf8("Foo.java")
	dep := c.Pool.Utf8("Deprecated")
	var body classtest.Buf
	body.U2(src)
	c.Attrs = [][]byte{classtest.AttrLen(sf, length, body.Out()), classtest.Attr(dep, nil)}
	return c.Bytes()
}

func TestAttributeLengthStrict(t *testing.T) {
	_, err := Decode(sourceFileWithLength(7), jvm.DefaultOptions())
	var fe *jvm.FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FormatError, got %v", err)
	}
	if !strings.Contains(fe.What, "SourceFile") || !strings.Contains(fe.Msg, "declared length 7") {
		t.Errorf("error = %v", fe)
	}
}

func TestAttributeLengthBestEffort(t *testing.T) {
	res, err := Decode(sourceFileWithLength(7), bestEffort)
	if err != nil {
		t.Fatalf("BestEffort should not error: %v", err)
	}
	if !hasDiag(res.Diags, jvm.DiagLength, "SourceFile") {
		t.Errorf("expected length diagnostic, got %+v", res.Diags)
	}
	attrs := res.Value.Attributes
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(attrs))
	}
	if sf, ok := attrs[0].(*jvm.IndexAttr); !ok || res.Value.Pool.Utf8(int(sf.Index), nil) != "Foo.java" {
		t.Errorf("SourceFile = %s", spew.Sdump(attrs[0]))
	}
	// Decoding resumed right after the two structural bytes.
	if attrs[1].Header().Kind != jvm.AttrDeprecated {
		t.Errorf("second attribute = %s", attrs[1].Header().Kind)
	}
}

func TestFixedAttributeShapes(t *testing.T) {
	cases := []struct {
		name     string
		body     []byte
		declared uint32
	}{
		{"NestHost", []byte{0, 1}, 3},
		{"EnclosingMethod", []byte{0, 1, 0, 0}, 2},
		{"Deprecated", nil, 1},
	}
	for _, tc := range cases {
		c := classtest.Foo()
		name := c.Pool.Utf8(tc.name)
		trailing := c.Pool.Utf8("Synthetic")
		c.Attrs = [][]byte{classtest.AttrLen(name, tc.declared, tc.body), classtest.Attr(trailing, nil)}
		data := c.Bytes()

		if _, err := Decode(data, jvm.DefaultOptions()); err == nil {
			t.Errorf("%s: strict should fail on declared length %d", tc.name, tc.declared)
		}
		res, err := Decode(data, bestEffort)
		if err != nil {
			t.Fatalf("%s: BestEffort: %v", tc.name, err)
		}
		if !hasDiag(res.Diags, jvm.DiagLength, tc.name) {
			t.Errorf("%s: missing length diagnostic", tc.name)
		}
		if n := len(res.Value.Attributes); n != 2 || res.Value.Attributes[1].Header().Kind != jvm.AttrSynthetic {
			t.Errorf("%s: structural continuation failed: %s", tc.name, spew.Sdump(res.Value.Attributes))
		}
	}
}

func TestArrayAttributeLength(t *testing.T) {
	c := classtest.Foo()
	nm := c.Pool.Utf8("NestMembers")
	var body classtest.Buf
	body.U2(2).U2(1).U2(3)
	c.Attrs = [][]byte{classtest.AttrLen(nm, 4, body.Out())}
	if _, err := Decode(c.Bytes(), jvm.DefaultOptions()); err == nil {
		t.Fatal("expected length error: 2 + 2*2 != 4")
	}
	res, err := Decode(c.Bytes(), bestEffort)
	require.NoError(t, err)
	a := res.Value.Attributes[0].(*jvm.IndexArrayAttr)
	require.Equal(t, []uint16{1, 3}, a.Indices)
}

func TestVersionGating(t *testing.T) {
	c := classtest.New(52, "Foo", "java/lang/Object")
	nh := c.Pool.Utf8("NestHost")
	var body classtest.Buf
	body.U2(3)
	c.Attrs = [][]byte{classtest.Attr(nh, body.Out())}
	res, err := Decode(c.Bytes(), jvm.DefaultOptions())
	require.NoError(t, err)
	if !hasDiag(res.Diags, jvm.DiagVersion, "NestHost") {
		t.Errorf("expected version diagnostic, got %+v", res.Diags)
	}
	require.IsType(t, &jvm.IndexAttr{}, res.Value.Attributes[0])

	// Record needs 58.65535; plain 58.0 is too old.
	c = classtest.New(58, "R", "java/lang/Record")
	rec := c.Pool.Utf8("Record")
	var rb classtest.Buf
	rb.U2(0)
	c.Attrs = [][]byte{classtest.Attr(rec, rb.Out())}
	res, err = Decode(c.Bytes(), jvm.DefaultOptions())
	require.NoError(t, err)
	require.True(t, hasDiag(res.Diags, jvm.DiagVersion, "Record"))

	c.Minor = jvm.PreviewMinor
	res, err = Decode(c.Bytes(), jvm.DefaultOptions())
	require.NoError(t, err)
	require.False(t, hasDiag(res.Diags, jvm.DiagVersion, "Record"))
}

func TestVersionOverride(t *testing.T) {
	opt := jvm.DefaultOptions()
	opt.TargetVersion = jvm.Version{Major: 61}
	res, err := Decode(classtest.Foo().Bytes(), opt)
	require.NoError(t, err)
	require.Equal(t, jvm.Version{Major: 61}, res.Value.Version)
	require.Equal(t, jvm.Version{Major: 55}, res.Value.FileVersion)
	require.True(t, hasDiag(res.Diags, jvm.DiagOverride, "55:0"))
}

func TestDuplicateAndConstantValue(t *testing.T) {
	c := classtest.Foo()
	p := c.Pool
	sf := p.Utf8("SourceFile")
	src := p.Utf8("Foo.java")
	cv := p.Utf8("ConstantValue")
	var idx classtest.Buf
	idx.U2(src)
	c.Attrs = [][]byte{classtest.Attr(sf, idx.Out()), classtest.Attr(sf, idx.Out())}
	c.Fields = []classtest.Member{{
		Flags: jvm.AccStatic | jvm.AccFinal,
		Name:  p.Utf8("X"),
		Desc:  p.Utf8("I"),
		Attrs: [][]byte{classtest.Attr(cv, idx.Out())},
	}}
	res, err := Decode(c.Bytes(), jvm.DefaultOptions())
	require.NoError(t, err)
	require.True(t, hasDiag(res.Diags, jvm.DiagDuplicate, "SourceFile"), "%+v", res.Diags)
	require.True(t, hasDiag(res.Diags, jvm.DiagInvalid, "ConstantValue"), "%+v", res.Diags)
	for _, d := range res.Diags {
		if strings.Contains(d.Msg, "ConstantValue") && d.Member != "X:I" {
			t.Errorf("ConstantValue diagnostic member = %q", d.Member)
		}
	}
}

func TestUnrecognizedAttribute(t *testing.T) {
	c := classtest.Foo()
	custom := c.Pool.Utf8("org.example.Custom")
	c.Attrs = [][]byte{classtest.Attr(custom, []byte{1, 2, 3})}
	res, err := Decode(c.Bytes(), jvm.DefaultOptions())
	require.NoError(t, err)
	u, ok := res.Value.Attributes[0].(*jvm.UnrecognizedAttr)
	require.True(t, ok)
	require.Equal(t, "org.example.Custom", u.Name)
	require.Equal(t, []byte{1, 2, 3}, u.Data)
	require.Empty(t, u.Reason)
}

// methodWithStackMap adds a method whose Code carries a StackMapTable body
// followed by a LineNumberTable.
func methodWithStackMap(c *classtest.Class, smt []byte) {
	p := c.Pool
	code := p.Utf8("Code")
	sm := p.Utf8("StackMapTable")
	lnt := p.Utf8("LineNumberTable")
	var lines classtest.Buf
	lines.U2(1).U2(0).U2(10)
	body := classtest.Code(1, 1, []byte{0xB1}, nil, classtest.Attr(sm, smt), classtest.Attr(lnt, lines.Out()))
	c.Methods = append(c.Methods, classtest.Member{
		Flags: jvm.AccPublic | jvm.AccStatic,
		Name:  p.Utf8("m"),
		Desc:  p.Utf8("()V"),
		Attrs: [][]byte{classtest.Attr(code, body)},
	})
}

func TestUnknownFrameTypeContained(t *testing.T) {
	c := classtest.Foo()
	var smt classtest.Buf
	smt.U2(2).U1(3).U1(200)
	methodWithStackMap(c, smt.Out())

	res, err := Decode(c.Bytes(), bestEffort)
	require.NoError(t, err)
	require.True(t, hasDiag(res.Diags, jvm.DiagInvalid, "StackMapTable"), "%+v", res.Diags)
	code := res.Value.Methods[0].Code()
	require.NotNil(t, code)
	require.Len(t, code.Attributes, 2)
	u, ok := code.Attributes[0].(*jvm.UnrecognizedAttr)
	require.True(t, ok, "%s", spew.Sdump(code.Attributes[0]))
	require.Contains(t, u.Reason, "frame type 200")
	require.Equal(t, jvm.AttrLineNumberTable, code.Attributes[1].Header().Kind)

	_, err = Decode(c.Bytes(), jvm.DefaultOptions())
	var fe *jvm.FormatError
	require.True(t, errors.As(err, &fe), "got %v", err)
	require.True(t, errors.Is(err, jvm.ErrUnknownFrame))
}

func TestUnknownVerificationTag(t *testing.T) {
	var smt classtest.Buf
	smt.U2(1).U1(64).U1(9)
	_, err := DecodeStackMapTable(smt.Out(), jvm.Version{Major: 55}, false, jvm.DefaultOptions())
	require.ErrorIs(t, err, jvm.ErrUnknownFrame)
}

func TestStackMapOffsets(t *testing.T) {
	var smt classtest.Buf
	smt.U2(7)
	smt.U1(5)                                  // same, delta 5
	smt.U1(252).U2(3).U1(uint8(jvm.ItemInteger)) // append 1 local
	smt.U1(jvm.FrameTypeEarlyLarval).U2(1).U2(9) // wrapper
	smt.U1(jvm.FrameTypeEarlyLarval).U2(0)       // wrapper
	smt.U1(251).U2(10)                           // same_frame_extended
	smt.U1(64 + 2).U1(uint8(jvm.ItemUninitialized)).U2(4)
	smt.U1(250).U2(0) // chop 1
	smt.U1(255).U2(7).U2(1).U1(uint8(jvm.ItemObject)).U2(3).U2(0)
	smt.U1(247).U2(1).U1(uint8(jvm.ItemNull))

	res, err := DecodeStackMapTable(smt.Out(), jvm.Version{Major: 67, Minor: jvm.PreviewMinor}, false, jvm.DefaultOptions())
	require.NoError(t, err)
	require.Empty(t, res.Diags)
	frames := res.Value
	require.Len(t, frames, 7)

	require.Equal(t, int(frames[0].OffsetDelta), frames[0].PC)
	for i := 1; i < len(frames); i++ {
		require.Equal(t, frames[i-1].PC+int(frames[i].OffsetDelta)+1, frames[i].PC, "frame %d", i)
	}
	wantPCs := []int{5, 9, 20, 23, 24, 32, 34}
	for i, want := range wantPCs {
		require.Equal(t, want, frames[i].PC, "frame %d", i)
	}

	require.Equal(t, jvm.FrameSameExtended, frames[2].Kind)
	require.Equal(t, 2, frames[2].WrapLevel())
	require.Equal(t, []uint16{9}, frames[2].Larval[0].UnsetFields)
	require.Equal(t, 1, frames[4].Chopped)
	require.Equal(t, []jvm.VerificationType{{Tag: jvm.ItemObject, Index: 3}}, frames[5].Locals)
	require.Equal(t, []int{4}, jvm.UninitializedOffsets(frames))
}

func TestEarlyLarvalNeedsPreview(t *testing.T) {
	var smt classtest.Buf
	smt.U2(1).U1(jvm.FrameTypeEarlyLarval).U2(0).U1(0)
	res, err := DecodeStackMapTable(smt.Out(), jvm.Version{Major: 55}, false, jvm.DefaultOptions())
	require.NoError(t, err)
	require.True(t, hasDiag(res.Diags, jvm.DiagVersion, "early_larval"))
	require.Equal(t, 1, res.Value[0].WrapLevel())
}

func TestLegacyStackMap(t *testing.T) {
	var sm classtest.Buf
	sm.U2(2)
	sm.U2(4).U2(1).U1(uint8(jvm.ItemInteger)).U2(0)
	sm.U2(12).U2(0).U2(1).U1(uint8(jvm.ItemUninitializedThis))
	res, err := DecodeStackMapTable(sm.Out(), jvm.Version{Major: 45, Minor: 3}, true, jvm.DefaultOptions())
	require.NoError(t, err)
	require.Len(t, res.Value, 2)
	require.Equal(t, 4, res.Value[0].PC)
	require.Equal(t, 12, res.Value[1].PC)
	require.Equal(t, jvm.FrameLegacy, res.Value[1].Kind)
}

func TestModuleTargetsCoalesced(t *testing.T) {
	c := classtest.New(53, "module-info", "java/lang/Object")
	c.Flags = jvm.AccModule
	c.Super = 0
	p := c.Pool
	modAttr := p.Utf8("Module")
	self := p.Module("com.example")
	base := p.Module("java.base")
	other := p.Module("com.other")
	pkg := p.Package("com/example/api")
	var b classtest.Buf
	b.U2(self).U2(0).U2(0)
	b.U2(1).U2(base).U2(jvm.AccMandated).U2(0)
	b.U2(1).U2(pkg).U2(0).U2(3).U2(other).U2(base).U2(other)
	b.U2(0)
	b.U2(0)
	b.U2(0)
	c.Attrs = [][]byte{classtest.Attr(modAttr, b.Out())}

	res, err := Decode(c.Bytes(), jvm.DefaultOptions())
	require.NoError(t, err)
	m := res.Value.Attr(jvm.AttrModule).(*jvm.ModuleAttr).Module
	require.Equal(t, self, m.NameIndex)
	require.Len(t, m.Requires, 1)
	require.Equal(t, []uint16{other, base}, m.Exports[0].Targets)
}

func TestNestedAnnotations(t *testing.T) {
	c := classtest.Foo()
	p := c.Pool
	rva := p.Utf8("RuntimeVisibleAnnotations")
	outer := p.Utf8("LOuter;")
	inner := p.Utf8("LInner;")
	val := p.Utf8("value")
	num := p.Integer(42)
	var b classtest.Buf
	b.U2(1).U2(outer).U2(1).U2(val)
	b.U1('[').U2(2)
	b.U1('@').U2(inner).U2(1).U2(val).U1('I').U2(num)
	b.U1('e').U2(inner).U2(val)
	c.Attrs = [][]byte{classtest.Attr(rva, b.Out())}

	res, err := Decode(c.Bytes(), jvm.DefaultOptions())
	require.NoError(t, err)
	anns := res.Value.Attributes[0].(*jvm.AnnotationsAttr).Annotations
	require.Len(t, anns, 1)
	arr := anns[0].Pairs[0].Value
	require.Equal(t, byte('['), arr.Tag)
	require.Len(t, arr.Values, 2)
	require.Equal(t, inner, arr.Values[0].Annotation.TypeIndex)
	require.Equal(t, num, arr.Values[0].Annotation.Pairs[0].Value.ConstIndex)
	require.Equal(t, byte('e'), arr.Values[1].Tag)
}

func TestMalformedUtf8(t *testing.T) {
	p := classtest.NewPool()
	p.Raw(uint8(jvm.TagUtf8), 0, 2, 0xC0, 0x41)
	var w classtest.Buf
	w.U2(p.Count()).Raw(p.Bytes()...)
	res, err := DecodePool(w.Out(), jvm.DefaultOptions())
	require.NoError(t, err)
	require.True(t, hasDiag(res.Diags, jvm.DiagInvalid, "modified UTF-8"))
	u, _ := res.Value.Get(1)
	require.Equal(t, []byte{0xC0, 0x41}, u.(*jvm.ConstantUtf8).Raw)
}

// classWithMethod is a small valid class used to cross-check against an
// independent parser.
func classWithMethod() []byte {
	c := classtest.New(52, "com/example/Hello", "java/lang/Object")
	p := c.Pool
	initRef := p.Ref(jvm.TagMethodref, "java/lang/Object", "<init>", "()V")
	code := p.Utf8("Code")
	sf := p.Utf8("SourceFile")
	src := p.Utf8("Hello.java")
	body := classtest.Code(1, 1, []byte{0x2A, 0xB7, byte(initRef >> 8), byte(initRef), 0xB1}, nil)
	c.Methods = []classtest.Member{{
		Flags: jvm.AccPublic,
		Name:  p.Utf8("<init>"),
		Desc:  p.Utf8("()V"),
		Attrs: [][]byte{classtest.Attr(code, body)},
	}}
	var s classtest.Buf
	s.U2(src)
	c.Attrs = [][]byte{classtest.Attr(sf, s.Out())}
	return c.Bytes()
}

func TestAgreesWithReferenceParser(t *testing.T) {
	data := classWithMethod()
	res, err := Decode(data, jvm.DefaultOptions())
	require.NoError(t, err)
	cf := res.Value

	ref, err := parser.New(bytes.NewReader(data)).Parse()
	require.NoError(t, err)

	name, err := ref.ThisClassName()
	require.NoError(t, err)
	require.Equal(t, name, cf.Name())
	super, err := ref.SuperClassName()
	require.NoError(t, err)
	require.Equal(t, super, cf.Pool.ClassName(int(cf.SuperClass), nil))
	require.EqualValues(t, ref.MajorVersion, cf.Version.Major)
	require.Len(t, cf.Methods, len(ref.Methods))
	for i, m := range ref.Methods {
		n, err := m.Name(ref.ConstantPool)
		require.NoError(t, err)
		require.Equal(t, n, cf.Pool.Utf8(int(cf.Methods[i].NameIndex), nil))
	}
	require.Equal(t, len(ref.ConstantPool.Constants)+1, cf.Pool.Size())
}

func TestDecodeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Hello.class")
	if err := os.WriteFile(path, classWithMethod(), 0o644); err != nil {
		t.Fatal(err)
	}
	res, err := DecodeFile(path, jvm.DefaultOptions())
	if err != nil {
		t.Fatalf("DecodeFile: %v", err)
	}
	if res.Value.Name() != "com/example/Hello" {
		t.Errorf("name = %q", res.Value.Name())
	}
	if _, err := DecodeFile(filepath.Join(t.TempDir(), "missing.class"), jvm.DefaultOptions()); err == nil {
		t.Error("expected error for missing file")
	}
}

func FuzzDecode(f *testing.F) {
	f.Add(classtest.Foo().Bytes())
	f.Add(classWithMethod())
	f.Add(sourceFileWithLength(7))
	f.Fuzz(func(t *testing.T, data []byte) {
		// Must not panic in either mode.
		Decode(data, jvm.DefaultOptions())
		Decode(data, bestEffort)
	})
}
