// Package ranking implements slice-count and file-set limits.
package ranking

import (
	"sort"
	"strings"
)

// Top returns the indices of the n largest sizes, in their original order.
// Ties go to the earlier index. If n is <= 0 or >= len(sizes), every index
// is returned.
func Top(sizes []int, n int) []int {
	all := make([]int, len(sizes))
	for i := range all {
		all[i] = i
	}
	if n <= 0 || n >= len(sizes) {
		return all
	}

	byRank := append([]int(nil), all...)
	sort.SliceStable(byRank, func(a, b int) bool {
		return sizes[byRank[a]] > sizes[byRank[b]]
	})

	keep := byRank[:n]
	sort.Ints(keep)
	return keep
}

// FilterByFile returns the identities that contain substr
// (case-insensitive), in their original order. An empty substr keeps all.
func FilterByFile(identities []string, substr string) []string {
	if substr == "" {
		return identities
	}
	lower := strings.ToLower(substr)

	var out []string
	for _, id := range identities {
		if strings.Contains(strings.ToLower(id), lower) {
			out = append(out, id)
		}
	}
	return out
}
