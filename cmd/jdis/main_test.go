package main

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openjdk/asmtools-sub002/jvm"
	"github.com/openjdk/asmtools-sub002/jvm/classfile"
	"github.com/openjdk/asmtools-sub002/jvm/classtest"
	"github.com/openjdk/asmtools-sub002/jvm/output"
)

func decoded(t *testing.T, c *classtest.Class) *jvm.ClassFile {
	t.Helper()
	res, err := classfile.Decode(c.Bytes(), jvm.DefaultOptions())
	require.NoError(t, err)
	return res.Value
}

func TestGraphsStayUnderOutDir(t *testing.T) {
	root := t.TempDir()
	d := &driver{opt: jvm.DefaultOptions(), outDir: filepath.Join(root, "out"), cfg: true}

	err := d.graphs(decoded(t, classtest.New(55, "../evil", "java/lang/Object")), "")
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(root, "evil.cfg.dot"))

	require.NoError(t, d.graphs(decoded(t, classtest.New(55, "com/example/Foo", "java/lang/Object")), ""))
	assert.FileExists(t, filepath.Join(root, "out", "com", "example", "Foo.cfg.dot"))
}

func writeJar(t *testing.T, entries map[string][]byte, order []string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "in.jar")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for _, name := range order {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(entries[name])
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

func TestArchiveContinuesPastFailure(t *testing.T) {
	good := classtest.Foo().Bytes()
	jar := writeJar(t, map[string][]byte{
		"a/Bad.class": good[:len(good)-3],
		"Foo.class":   good,
		"README":      []byte("not a class"),
	}, []string{"a/Bad.class", "README", "Foo.class"})

	var buf bytes.Buffer
	d := &driver{opt: jvm.DefaultOptions(), sink: output.NewStream(&buf)}
	assert.Equal(t, 1, d.input(jar))
	assert.Contains(t, buf.String(), "public class Foo;")
	assert.NotContains(t, buf.String(), "partial")
}

func TestPostPrint(t *testing.T) {
	good := classtest.Foo().Bytes()
	truncated := good[:len(good)-3]

	for _, tc := range []struct {
		name      string
		postPrint bool
	}{
		{"off", false},
		{"on", true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			d := &driver{opt: jvm.DefaultOptions(), sink: output.NewStream(&buf), postPrint: tc.postPrint}
			err := d.class("Foo.class", "", truncated)
			require.ErrorIs(t, err, io.ErrUnexpectedEOF)
			if !tc.postPrint {
				assert.Empty(t, buf.String())
				return
			}
			out := buf.String()
			assert.True(t, strings.HasPrefix(out, "// ---- partial (decode failed: "), out)
			assert.Contains(t, out, "public class Foo;")
		})
	}
}
