package jvm

type ModuleRequire struct {
	Index        uint16 // Module entry
	Flags        uint16
	VersionIndex uint16
}

// ModuleExport is an exports or opens directive. Targets holds Module entries
// with duplicates coalesced, in first-seen order.
type ModuleExport struct {
	Index   uint16 // Package entry
	Flags   uint16
	Targets []uint16
}

type ModuleProvide struct {
	Index uint16 // Class entry
	With  []uint16
}

type ModuleDescriptor struct {
	NameIndex    uint16
	Flags        uint16
	VersionIndex uint16
	Requires     []ModuleRequire
	Exports      []ModuleExport
	Opens        []ModuleExport
	Uses         []uint16
	Provides     []ModuleProvide
}

// IndexSet keeps distinct indices in insertion order.
type IndexSet struct {
	seen  map[uint16]bool
	items []uint16
}

// Add inserts idx and reports whether it was new.
func (s *IndexSet) Add(idx uint16) bool {
	if s.seen == nil {
		s.seen = make(map[uint16]bool)
	}
	if s.seen[idx] {
		return false
	}
	s.seen[idx] = true
	s.items = append(s.items, idx)
	return true
}

func (s *IndexSet) Items() []uint16 { return s.items }
