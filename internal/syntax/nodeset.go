package syntax

import "math/bits"

// NodeSet is a set of node IDs from one tree, stored as a bitset.
type NodeSet struct {
	words []uint64
	count int
}

// NewNodeSet returns an empty set able to hold IDs below size.
func NewNodeSet(size int) *NodeSet {
	return &NodeSet{words: make([]uint64, (size+63)/64)}
}

// Add inserts id and reports whether it was newly added.
func (s *NodeSet) Add(id NodeID) bool {
	w, b := int(id)/64, uint(id)%64
	if s.words[w]&(1<<b) != 0 {
		return false
	}
	s.words[w] |= 1 << b
	s.count++
	return true
}

// AddRange inserts every ID in [lo, hi].
func (s *NodeSet) AddRange(lo, hi NodeID) {
	for id := lo; id <= hi; id++ {
		s.Add(id)
	}
}

// Has reports whether id is in the set.
func (s *NodeSet) Has(id NodeID) bool {
	if id < 0 || int(id)/64 >= len(s.words) {
		return false
	}
	return s.words[int(id)/64]&(1<<(uint(id)%64)) != 0
}

// Len returns the number of IDs in the set.
func (s *NodeSet) Len() int {
	return s.count
}

// Union adds every member of o to s.
func (s *NodeSet) Union(o *NodeSet) {
	s.count = 0
	for i := range s.words {
		if i < len(o.words) {
			s.words[i] |= o.words[i]
		}
		s.count += bits.OnesCount64(s.words[i])
	}
}

// IsSupersetOf reports whether every member of o is also in s.
func (s *NodeSet) IsSupersetOf(o *NodeSet) bool {
	if o.count > s.count {
		return false
	}
	for i, w := range o.words {
		var mine uint64
		if i < len(s.words) {
			mine = s.words[i]
		}
		if w&^mine != 0 {
			return false
		}
	}
	return true
}

// IDs returns the members in ascending order.
func (s *NodeSet) IDs() []NodeID {
	out := make([]NodeID, 0, s.count)
	for i, w := range s.words {
		for w != 0 {
			b := bits.TrailingZeros64(w)
			out = append(out, NodeID(i*64+b))
			w &= w - 1
		}
	}
	return out
}
