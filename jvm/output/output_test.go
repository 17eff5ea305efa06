package output

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestStreamFlushesPerClass(t *testing.T) {
	var buf bytes.Buffer
	s := NewStream(&buf)
	if err := s.StartClass("Foo"); err != nil {
		t.Fatal(err)
	}
	if err := s.WriteString("class Foo;\n"); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 {
		t.Errorf("stream wrote before FinishClass: %q", buf.String())
	}
	if err := s.FinishClass(); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "class Foo;\n" {
		t.Errorf("got %q", buf.String())
	}
}

func TestStreamRequiresOpenClass(t *testing.T) {
	s := NewStream(&bytes.Buffer{})
	if err := s.WriteString("x"); err == nil {
		t.Error("expected error writing outside a class")
	}
	if err := s.FinishClass(); err == nil {
		t.Error("expected error finishing without start")
	}
}

type failWriter struct{}

var errFull = errors.New("disk full")

func (failWriter) Write([]byte) (int, error) { return 0, errFull }

func TestStreamWriteErrorPropagates(t *testing.T) {
	s := NewStream(failWriter{})
	_ = s.StartClass("Foo")
	_ = s.WriteString("class Foo;\n")
	if err := s.FinishClass(); !errors.Is(err, errFull) {
		t.Errorf("expected disk full, got %v", err)
	}
}

func TestDirWritesPackagePath(t *testing.T) {
	root := t.TempDir()
	d := NewDir(root, ".jasm")
	if err := d.StartClass("com/example/Hello"); err != nil {
		t.Fatal(err)
	}
	if err := d.WriteString("class Hello;\n"); err != nil {
		t.Fatal(err)
	}
	if err := d.FinishClass(); err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(root, "com", "example", "Hello.jasm")
	if d.Path() != want {
		t.Errorf("path = %q, want %q", d.Path(), want)
	}
	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "class Hello;\n" {
		t.Errorf("content = %q", data)
	}
}

func TestDirRejectsEscapingNames(t *testing.T) {
	d := NewDir(t.TempDir(), "jtab")
	for _, name := range []string{"", "../evil", "/abs/Foo"} {
		if err := d.StartClass(name); err == nil {
			t.Errorf("StartClass(%q) should fail", name)
		}
	}
}

func TestSafeRel(t *testing.T) {
	for _, tc := range []struct {
		name string
		ok   bool
	}{
		{"Foo", true},
		{"com/example/Foo", true},
		{"com/../Foo", true},
		{"..Foo", true},
		{"", false},
		{"..", false},
		{"../x", false},
		{"../../x", false},
		{"com/../../x", false},
		{"/etc/x", false},
	} {
		rel, err := SafeRel(tc.name)
		if tc.ok != (err == nil) {
			t.Errorf("SafeRel(%q) = %q, %v", tc.name, rel, err)
		}
	}
}
