package slicer

import "github.com/phobologic/apislice/internal/syntax"

// Prune drops every set that another set contains, keeping the order of
// the survivors. Of two equal sets the earlier one is dropped. The pairwise
// comparison is quadratic in the number of sets.
func Prune(sets []*syntax.NodeSet) []*syntax.NodeSet {
	redundant := make([]bool, len(sets))
	for i := range sets {
		for j := range sets {
			if i == j || redundant[j] {
				continue
			}
			if sets[j].IsSupersetOf(sets[i]) {
				redundant[i] = true
				break
			}
		}
	}

	var out []*syntax.NodeSet
	for i, s := range sets {
		if !redundant[i] {
			out = append(out, s)
		}
	}
	return out
}
