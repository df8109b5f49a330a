package diff

import "sort"

// Summary counts the operations of a patch
type Summary struct {
	Total       int
	ByOp        map[Op]int
	Destructive int
	Modules     []string
}

// Summarize counts elements per operation. Deletes and removals are destructive.
func Summarize(elems []Element) Summary {
	s := Summary{ByOp: make(map[Op]int)}
	modules := make(map[string]bool)

	for _, e := range elems {
		s.Total++
		s.ByOp[e.Op()]++
		switch e.Op() {
		case OpDelete, OpDeleteRole, OpRemoveGeneralization, OpRemoveAnnotation:
			s.Destructive++
		}
		modules[e.Target().Module] = true
	}

	for m := range modules {
		s.Modules = append(s.Modules, m)
	}
	sort.Strings(s.Modules)

	return s
}

// Ops returns the operations present in the summary in declaration order
func (s Summary) Ops() []Op {
	ops := make([]Op, 0, len(s.ByOp))
	for op := range s.ByOp {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i] < ops[j] })
	return ops
}
