package classfile

import (
	"fmt"

	"github.com/openjdk/asmtools-sub002/jvm"
)

func (d *decoder) readModule() (jvm.ModuleDescriptor, error) {
	r := d.r
	var m jvm.ModuleDescriptor
	head, err := r.u2s(3, "module header")
	if err != nil {
		return m, err
	}
	m.NameIndex, m.Flags, m.VersionIndex = head[0], head[1], head[2]

	n, err := r.u2("requires_count")
	if err != nil {
		return m, err
	}
	vals, err := r.u2s(int(n)*3, "requires")
	if err != nil {
		return m, err
	}
	m.Requires = make([]jvm.ModuleRequire, n)
	for i := range m.Requires {
		m.Requires[i] = jvm.ModuleRequire{Index: vals[i*3], Flags: vals[i*3+1], VersionIndex: vals[i*3+2]}
	}

	if m.Exports, err = d.readExports("exports"); err != nil {
		return m, err
	}
	if m.Opens, err = d.readExports("opens"); err != nil {
		return m, err
	}

	if n, err = r.u2("uses_count"); err != nil {
		return m, err
	}
	if m.Uses, err = r.u2s(int(n), "uses"); err != nil {
		return m, err
	}

	if n, err = r.u2("provides_count"); err != nil {
		return m, err
	}
	m.Provides = make([]jvm.ModuleProvide, 0, n)
	for i := 0; i < int(n); i++ {
		idx, err := r.u2("provides_index")
		if err != nil {
			return m, err
		}
		with, err := d.readTargets("provides_with")
		if err != nil {
			return m, err
		}
		m.Provides = append(m.Provides, jvm.ModuleProvide{Index: idx, With: with})
	}
	return m, nil
}

func (d *decoder) readExports(what string) ([]jvm.ModuleExport, error) {
	r := d.r
	n, err := r.u2(what + "_count")
	if err != nil {
		return nil, err
	}
	out := make([]jvm.ModuleExport, 0, n)
	for i := 0; i < int(n); i++ {
		idx, err := r.u2(what + "_index")
		if err != nil {
			return nil, err
		}
		flags, err := r.u2(what + "_flags")
		if err != nil {
			return nil, err
		}
		targets, err := d.readTargets(what + "_to")
		if err != nil {
			return nil, err
		}
		out = append(out, jvm.ModuleExport{Index: idx, Flags: flags, Targets: targets})
	}
	return out, nil
}

// readTargets reads a counted index list, coalescing duplicates.
func (d *decoder) readTargets(what string) ([]uint16, error) {
	r := d.r
	n, err := r.u2(what + "_count")
	if err != nil {
		return nil, err
	}
	vals, err := r.u2s(int(n), what)
	if err != nil {
		return nil, err
	}
	var set jvm.IndexSet
	for _, v := range vals {
		set.Add(v)
	}
	return set.Items(), nil
}

func (d *decoder) readModuleHashes(h *jvm.AttrHeader) (jvm.Attribute, error) {
	r := d.r
	alg, err := r.u2("algorithm_index")
	if err != nil {
		return nil, err
	}
	n, err := r.u2("hashes_count")
	if err != nil {
		return nil, err
	}
	a := &jvm.ModuleHashesAttr{AttrHeader: *h, Algorithm: alg, Hashes: make([]jvm.ModuleHash, 0, n)}
	for i := 0; i < int(n); i++ {
		mod, err := r.u2("module_name_index")
		if err != nil {
			return nil, err
		}
		hl, err := r.u2("hash_length")
		if err != nil {
			return nil, err
		}
		hash, err := r.bytes(int(hl), fmt.Sprintf("hash[%d]", i))
		if err != nil {
			return nil, err
		}
		a.Hashes = append(a.Hashes, jvm.ModuleHash{ModuleIndex: mod, Hash: hash})
	}
	return a, nil
}
