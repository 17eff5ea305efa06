// Package classfile decodes the binary class file format into the jvm model.
package classfile

import (
	"fmt"
	"io"

	"golang.org/x/exp/mmap"

	"github.com/openjdk/asmtools-sub002/jvm"
)

type decoder struct {
	r       *reader
	opt     jvm.Options
	version jvm.Version
	pool    *jvm.ConstantPool
	diags   []jvm.Diagnostic
	member  string
}

func newDecoder(data []byte, opt jvm.Options) *decoder {
	return &decoder{
		r:       newReader(data),
		opt:     opt,
		version: opt.TargetVersion,
		pool:    jvm.NewConstantPool(nil),
	}
}

func (d *decoder) diag(off int, kind jvm.DiagKind, msg string) {
	d.diags = append(d.diags, jvm.Diagnostic{Offset: off, Kind: kind, Msg: msg, Member: d.member})
}

// Decode decodes class file bytes. On error the returned Value holds
// everything decoded before the failure.
func Decode(data []byte, opt jvm.Options) (jvm.Result[*jvm.ClassFile], error) {
	d := newDecoder(data, opt)
	cf := &jvm.ClassFile{Pool: d.pool}
	err := d.decodeClass(cf)
	return jvm.Result[*jvm.ClassFile]{Value: cf, Diags: d.diags}, err
}

// DecodeReader reads r to the end and decodes it.
func DecodeReader(r io.Reader, opt jvm.Options) (jvm.Result[*jvm.ClassFile], error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return jvm.Result[*jvm.ClassFile]{}, fmt.Errorf("read class: %w", err)
	}
	return Decode(data, opt)
}

// DecodeFile maps path and decodes it.
func DecodeFile(path string, opt jvm.Options) (jvm.Result[*jvm.ClassFile], error) {
	data, err := ReadFile(path)
	if err != nil {
		return jvm.Result[*jvm.ClassFile]{}, err
	}
	return Decode(data, opt)
}

// ReadFile returns the contents of path through a read-only mapping.
func ReadFile(path string) ([]byte, error) {
	m, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer m.Close()
	data := make([]byte, m.Len())
	if _, err := m.ReadAt(data, 0); err != nil && err != io.EOF {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

func (d *decoder) decodeClass(cf *jvm.ClassFile) error {
	r := d.r
	magic, err := r.u4("magic")
	if err != nil {
		return err
	}
	cf.Magic = magic
	if magic != jvm.Magic {
		d.diag(0, jvm.DiagMagic, fmt.Sprintf("bad magic 0x%08X", magic))
	}

	minor, err := r.u2("minor_version")
	if err != nil {
		return err
	}
	major, err := r.u2("major_version")
	if err != nil {
		return err
	}
	cf.FileVersion = jvm.Version{Major: major, Minor: minor}
	cf.Version = cf.FileVersion
	if !d.opt.TargetVersion.IsZero() && d.opt.TargetVersion != cf.FileVersion {
		cf.Version = d.opt.TargetVersion
		d.diag(4, jvm.DiagOverride, fmt.Sprintf("class file version %s overridden to %s", cf.FileVersion, cf.Version))
	}
	d.version = cf.Version

	pool, err := d.readPool()
	cf.Pool = pool
	d.pool = pool
	if err != nil {
		return fmt.Errorf("constant pool: %w", err)
	}
	d.validatePool(pool)

	if cf.Flags, err = r.u2("access_flags"); err != nil {
		return err
	}
	at := r.pos()
	if cf.ThisClass, err = r.u2("this_class"); err != nil {
		return err
	}
	d.checkClassRef(at, "this_class", cf.ThisClass)
	at = r.pos()
	if cf.SuperClass, err = r.u2("super_class"); err != nil {
		return err
	}
	if cf.SuperClass != 0 || (!cf.IsModule() && cf.Name() != "java/lang/Object") {
		d.checkClassRef(at, "super_class", cf.SuperClass)
	}

	n, err := r.u2("interfaces_count")
	if err != nil {
		return err
	}
	at = r.pos()
	if cf.Interfaces, err = r.u2s(int(n), "interfaces"); err != nil {
		return err
	}
	for i, idx := range cf.Interfaces {
		d.checkClassRef(at+2*i, fmt.Sprintf("interfaces[%d]", i), idx)
	}

	if cf.Fields, err = d.readMembers(ownerField); err != nil {
		return fmt.Errorf("fields: %w", err)
	}
	if cf.Methods, err = d.readMembers(ownerMethod); err != nil {
		return fmt.Errorf("methods: %w", err)
	}
	d.member = ""
	if cf.Attributes, err = d.readAttributes(ownerClass); err != nil {
		return fmt.Errorf("class attributes: %w", err)
	}
	if rest := r.remaining(); rest > 0 {
		d.diag(r.pos(), jvm.DiagInvalid, fmt.Sprintf("%d trailing bytes after class attributes", rest))
	}
	return nil
}

func (d *decoder) checkClassRef(at int, what string, idx uint16) {
	tag, ok := d.pool.Tag(int(idx))
	switch {
	case !ok:
		d.diag(at, jvm.DiagIndex, fmt.Sprintf("%s #%d out of range", what, idx))
	case tag != jvm.TagClass:
		d.diag(at, jvm.DiagIndex, fmt.Sprintf("%s #%d is %s, want Class", what, idx, tag))
	}
}

// readMembers decodes fields or methods. Members read before a failure are
// returned with the error.
func (d *decoder) readMembers(owner owner) ([]jvm.Member, error) {
	r := d.r
	n, err := r.u2("members_count")
	if err != nil {
		return nil, err
	}
	out := make([]jvm.Member, 0, n)
	for i := 0; i < int(n); i++ {
		m := jvm.Member{Offset: r.pos()}
		if m.Flags, err = r.u2("access_flags"); err != nil {
			return out, err
		}
		if m.NameIndex, err = r.u2("name_index"); err != nil {
			return out, err
		}
		if m.DescIndex, err = r.u2("descriptor_index"); err != nil {
			return out, err
		}
		d.member = m.Label(d.pool)
		attrs, err := d.readAttributes(owner)
		m.Attributes = attrs
		out = append(out, m)
		if err != nil {
			return out, fmt.Errorf("%s: %w", d.member, err)
		}
	}
	return out, nil
}
