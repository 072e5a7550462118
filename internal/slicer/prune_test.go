package slicer

import (
	"testing"

	"github.com/phobologic/apislice/internal/syntax"
)

func setOf(size int, ids ...syntax.NodeID) *syntax.NodeSet {
	s := syntax.NewNodeSet(size)
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

func TestPrune(t *testing.T) {
	t.Parallel()

	a := setOf(10, 0, 1, 2)
	b := setOf(10, 0, 1, 2, 3)
	c := setOf(10, 0, 5)
	d := setOf(10, 0, 5)

	tests := []struct {
		name string
		in   []*syntax.NodeSet
		want []*syntax.NodeSet
	}{
		{"empty", nil, nil},
		{"subset dropped", []*syntax.NodeSet{a, b}, []*syntax.NodeSet{b}},
		{"subset after superset", []*syntax.NodeSet{b, a}, []*syntax.NodeSet{b}},
		{"disjoint kept in order", []*syntax.NodeSet{c, a}, []*syntax.NodeSet{c, a}},
		{"equal keeps one", []*syntax.NodeSet{c, d}, []*syntax.NodeSet{d}},
		{"mixed", []*syntax.NodeSet{a, c, b, d}, []*syntax.NodeSet{b, d}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Prune(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("Prune returned %d sets, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("set %d = %v, want %v", i, got[i].IDs(), tt.want[i].IDs())
				}
			}
		})
	}
}

// Many seeds in one file make the pairwise comparison quadratic. A nested
// chain leaves only its largest set; disjoint sets all survive.
func TestPruneManySets(t *testing.T) {
	t.Parallel()

	const n = 400
	var chain, disjoint []*syntax.NodeSet
	for i := 0; i < n; i++ {
		s := syntax.NewNodeSet(2 * n)
		s.AddRange(0, syntax.NodeID(i))
		chain = append(chain, s)
		disjoint = append(disjoint, setOf(2*n, syntax.NodeID(n+i)))
	}

	if got := Prune(chain); len(got) != 1 || got[0] != chain[n-1] {
		t.Errorf("chain pruned to %d sets, want only the largest", len(got))
	}
	if got := Prune(disjoint); len(got) != n {
		t.Errorf("disjoint pruned to %d sets, want %d", len(got), n)
	}

	// Every set repeated: one copy of each survives.
	doubled := append(append([]*syntax.NodeSet(nil), disjoint...), disjoint...)
	if got := Prune(doubled); len(got) != n {
		t.Errorf("doubled pruned to %d sets, want %d", len(got), n)
	}
}
