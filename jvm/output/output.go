// Package output writes rendered classes to a stream or a directory tree.
package output

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Sink receives the text of one class at a time. Every StartClass is
// matched by a FinishClass.
type Sink interface {
	StartClass(name string) error
	WriteString(s string) error
	FinishClass() error
}

var errNoClass = errors.New("output: write outside StartClass/FinishClass")

// Stream writes every class to one writer, flushing at the end of each.
type Stream struct {
	w    *bufio.Writer
	open bool
}

func NewStream(w io.Writer) *Stream {
	return &Stream{w: bufio.NewWriter(w)}
}

func (s *Stream) StartClass(string) error {
	s.open = true
	return nil
}

func (s *Stream) WriteString(text string) error {
	if !s.open {
		return errNoClass
	}
	_, err := s.w.WriteString(text)
	return err
}

func (s *Stream) FinishClass() error {
	if !s.open {
		return errNoClass
	}
	s.open = false
	if err := s.w.Flush(); err != nil {
		return fmt.Errorf("output: flush: %w", err)
	}
	return nil
}

// Dir writes each class to <root>/<internal name>.<ext>, creating package
// directories as needed.
type Dir struct {
	root string
	ext  string
	path string
	buf  strings.Builder
	open bool
}

func NewDir(root, ext string) *Dir {
	return &Dir{root: root, ext: strings.TrimPrefix(ext, ".")}
}

// Path is the file the current or last class was written to.
func (d *Dir) Path() string { return d.path }

// SafeRel converts an internal class name to a relative file path that
// stays below the directory it is joined to.
func SafeRel(name string) (string, error) {
	if name == "" {
		return "", errors.New("output: empty class name")
	}
	rel := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("output: class name %q escapes output directory", name)
	}
	return rel, nil
}

func (d *Dir) StartClass(name string) error {
	rel, err := SafeRel(name)
	if err != nil {
		return err
	}
	d.path = filepath.Join(d.root, rel+"."+d.ext)
	d.buf.Reset()
	d.open = true
	return nil
}

func (d *Dir) WriteString(text string) error {
	if !d.open {
		return errNoClass
	}
	d.buf.WriteString(text)
	return nil
}

func (d *Dir) FinishClass() error {
	if !d.open {
		return errNoClass
	}
	d.open = false
	if err := os.MkdirAll(filepath.Dir(d.path), 0755); err != nil {
		return fmt.Errorf("output: mkdir %s: %w", filepath.Dir(d.path), err)
	}
	if err := os.WriteFile(d.path, []byte(d.buf.String()), 0644); err != nil {
		return fmt.Errorf("output: write %s: %w", d.path, err)
	}
	return nil
}
