package ranking

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTopAll(t *testing.T) {
	t.Parallel()

	sizes := []int{3, 1, 2}
	want := []int{0, 1, 2}
	for _, n := range []int{0, -1, 3, 5} {
		if diff := cmp.Diff(want, Top(sizes, n)); diff != "" {
			t.Errorf("Top(n=%d) (-want +got):\n%s", n, diff)
		}
	}
}

func TestTopSubset(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		sizes []int
		n     int
		want  []int
	}{
		{"largest", []int{5, 9, 1, 7}, 2, []int{1, 3}},
		{"keeps order", []int{9, 1, 7}, 2, []int{0, 2}},
		{"ties favor earlier", []int{4, 4, 4}, 2, []int{0, 1}},
		{"one", []int{1, 2, 3}, 1, []int{2}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if diff := cmp.Diff(tt.want, Top(tt.sizes, tt.n)); diff != "" {
				t.Errorf("Top (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFilterByFile(t *testing.T) {
	t.Parallel()

	ids := []string{"app/Program", "app/Crypto/Aes", "lib/Native"}

	if got := FilterByFile(ids, ""); len(got) != 3 {
		t.Errorf("empty filter kept %d, want 3", len(got))
	}
	if diff := cmp.Diff([]string{"app/Crypto/Aes"}, FilterByFile(ids, "crypto")); diff != "" {
		t.Errorf("FilterByFile (-want +got):\n%s", diff)
	}
	if got := FilterByFile(ids, "missing"); got != nil {
		t.Errorf("FilterByFile(missing) = %v, want nil", got)
	}
}
