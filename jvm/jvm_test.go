package jvm

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"testing"
)

func TestParseVersion(t *testing.T) {
	tests := []struct {
		in   string
		want Version
		ok   bool
	}{
		{"55", Version{Major: 55}, true},
		{"55:0", Version{Major: 55}, true},
		{"61.65535", Version{Major: 61, Minor: PreviewMinor}, true},
		{"", Version{}, false},
		{"x:1", Version{}, false},
		{"70000", Version{}, false},
	}
	for _, tt := range tests {
		got, err := ParseVersion(tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("ParseVersion(%q) err = %v", tt.in, err)
			continue
		}
		if tt.ok && got != tt.want {
			t.Errorf("ParseVersion(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestVersionOrdering(t *testing.T) {
	if !(Version{Major: 55}).AtLeast(VersionNest) {
		t.Error("55:0 should allow nest attributes")
	}
	if (Version{Major: 58}).AtLeast(VersionRecord) {
		t.Error("58:0 is below 58:65535")
	}
	if !(Version{Major: 59}).AtLeast(VersionRecord) {
		t.Error("59:0 is above 58:65535")
	}
	if (Version{Major: 67}).AllowsEarlyLarval() {
		t.Error("early_larval needs a preview minor")
	}
	if !(Version{Major: 68, Minor: PreviewMinor}).AllowsEarlyLarval() {
		t.Error("68:65535 should allow early_larval")
	}
	if s := (Version{Major: 52, Minor: 3}).String(); s != "52:3" {
		t.Errorf("String() = %q", s)
	}
}

func TestFlags(t *testing.T) {
	for _, name := range FlagNames() {
		f, ok := FlagByName(name)
		if !ok {
			t.Fatalf("FlagByName(%q) failed", name)
		}
		if f.String() != name {
			t.Errorf("round trip %q -> %q", name, f.String())
		}
	}
	if _, ok := FlagByName("bogus"); ok {
		t.Error("unknown flag resolved")
	}
	opt := DefaultOptions().With(TableFormat).With(HexNumerics)
	if !opt.Has(TableFormat) || !opt.Has(HexNumerics) || opt.Has(ShowPoolIndex) {
		t.Errorf("flags = %s", opt.Flags)
	}
	if Flag(0).String() != "none" {
		t.Errorf("empty flags = %q", Flag(0).String())
	}
	if DefaultOptions().EffectiveMaxSteps() != DefaultMaxSteps {
		t.Error("zero MaxSteps should use the default")
	}
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"strict": Strict, "BestEffort": BestEffort, "best-effort": BestEffort} {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Errorf("ParseMode(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseMode("lenient"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestFormatErrorUnwrap(t *testing.T) {
	err := fmt.Errorf("methods: %w", &FormatError{Offset: 12, What: "StackMapTable attribute", Msg: "bad", Err: ErrUnknownFrame})
	var fe *FormatError
	if !errors.As(err, &fe) || fe.Offset != 12 {
		t.Fatalf("errors.As failed: %v", err)
	}
	if !errors.Is(err, ErrUnknownFrame) {
		t.Error("FormatError should unwrap to its cause")
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("format errors are not EOF")
	}
	if !strings.Contains(err.Error(), "at offset 12") {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestDecodeModifiedUTF8(t *testing.T) {
	tests := []struct {
		in   []byte
		want string
		ok   bool
	}{
		{[]byte("plain"), "plain", true},
		{[]byte{0xC0, 0x80}, "\x00", true},
		{[]byte{0xC3, 0xA9}, "é", true},
		// U+1F600 as a surrogate pair, three bytes per half.
		{[]byte{0xED, 0xA0, 0xBD, 0xED, 0xB8, 0x80}, "\U0001F600", true},
		{[]byte{0x00}, "�", false},
		{[]byte{0xC0}, "�", false},
		{[]byte{0xF0, 0x9F, 0x98, 0x80}, "����", false},
	}
	for _, tt := range tests {
		got, ok := DecodeModifiedUTF8(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("DecodeModifiedUTF8(% X) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestDescriptors(t *testing.T) {
	if got := JavaType("[[Ljava/lang/String;"); got != "java.lang.String[][]" {
		t.Errorf("JavaType = %q", got)
	}
	params, ret, ok := MethodTypes("(IJ[BLjava/util/List;)V")
	if !ok || ret != "void" || !reflect.DeepEqual(params, []string{"int", "long", "byte[]", "java.util.List"}) {
		t.Errorf("MethodTypes = %v %q %v", params, ret, ok)
	}
	if _, _, ok := MethodTypes("I"); ok {
		t.Error("field descriptor accepted as method")
	}
	if n := ArgSlots("(IJD)V", false); n != 6 {
		t.Errorf("ArgSlots instance = %d, want 6", n)
	}
	if n := ArgSlots("()V", true); n != 0 {
		t.Errorf("ArgSlots static = %d, want 0", n)
	}
}

func TestAccessKeywords(t *testing.T) {
	got := AccessKeywords(AccPublic|AccSuper|AccFinal, ClassAccess, 0)
	if want := []string{"super", "public", "final"}; !reflect.DeepEqual(got, want) {
		t.Errorf("class keywords = %v, want %v", got, want)
	}
	// 0x0020 is synchronized on methods, not super.
	if s := AccessString(AccPublic|AccSynchronized, MethodAccess); s != "public synchronized " {
		t.Errorf("method access = %q", s)
	}
	if got := AccessKeywords(AccPublic|0x0100, FieldAccess, 0); got[len(got)-1] != "0x0100" {
		t.Errorf("unknown bits = %v", got)
	}
	if got := AccessKeywords(AccPublic|AccSuper, ClassAccess, AccSuper); !reflect.DeepEqual(got, []string{"public"}) {
		t.Errorf("omit = %v", got)
	}
	if got := AccessNames(AccStatic|AccVarargs, MethodAccess); !reflect.DeepEqual(got, []string{"ACC_STATIC", "ACC_VARARGS"}) {
		t.Errorf("names = %v", got)
	}
}

func TestConstantPoolNil(t *testing.T) {
	var p *ConstantPool
	if p.Size() != 0 || p.NonNullCount() != 0 {
		t.Error("nil pool should be empty")
	}
	if got := p.ClassName(3, nil); got != "#3" {
		t.Errorf("ClassName on nil pool = %q", got)
	}
}

func TestPoolReferencesAndWidths(t *testing.T) {
	p := NewConstantPool([]Constant{
		nil,
		&ConstantClass{NameIndex: 2},
		&ConstantUtf8{Value: "Foo"},
		&ConstantLong{Value: 1},
		nil,
		&ConstantNameAndType{NameIndex: 2, DescriptorIndex: 2},
	})
	if !p.ReferredBy(2, TagClass) || p.ReferredBy(1, TagClass) {
		t.Error("ReferredBy mismatch")
	}
	if got := References(&ConstantNameAndType{NameIndex: 2, DescriptorIndex: 7}); !reflect.DeepEqual(got, []uint16{2, 7}) {
		t.Errorf("References = %v", got)
	}
	p.InitializePrintData()
	if !p.ReferredBy(2, TagClass) || !p.ReferredBy(2, TagNameAndType) || p.ReferredBy(2, TagMethodref) || p.ReferredBy(1, TagClass) {
		t.Error("ReferredBy mismatch after InitializePrintData")
	}
	pd := p.PrintData()
	if pd.IndexWidth != 2 || pd.TagWidth != len("NameAndType") {
		t.Errorf("print data = %+v", pd)
	}
	if p.NonNullCount() != 4 {
		t.Errorf("NonNullCount = %d", p.NonNullCount())
	}
}

func TestIndexSet(t *testing.T) {
	var s IndexSet
	for _, v := range []uint16{4, 2, 4, 9, 2} {
		s.Add(v)
	}
	if got := s.Items(); !reflect.DeepEqual(got, []uint16{4, 2, 9}) {
		t.Errorf("Items = %v", got)
	}
}
