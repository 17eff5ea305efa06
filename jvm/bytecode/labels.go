package bytecode

import "sort"

// Labels is the set of pcs referred to by branches, switches or side tables.
type Labels map[int]struct{}

// Add marks pc as referred when it lies within [0, codeLen].
func (l Labels) Add(pc, codeLen int) {
	if pc >= 0 && pc <= codeLen {
		l[pc] = struct{}{}
	}
}

func (l Labels) Has(pc int) bool {
	_, ok := l[pc]
	return ok
}

// Sorted returns the labelled pcs in ascending order.
func (l Labels) Sorted() []int {
	out := make([]int, 0, len(l))
	for pc := range l {
		out = append(out, pc)
	}
	sort.Ints(out)
	return out
}

// CollectLabels identifies branch and switch targets in instrs.
func CollectLabels(instrs []Instruction, codeLen int) Labels {
	labels := make(Labels)
	for i := range instrs {
		for _, t := range instrs[i].Targets() {
			labels.Add(t, codeLen)
		}
	}
	return labels
}
