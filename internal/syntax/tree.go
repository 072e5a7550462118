// Package syntax holds a parsed file as an immutable arena of nodes.
//
// Nodes are numbered in preorder, so the descendants of a node are exactly
// the IDs in (id, Last]. IDs are stable across parses of the same text and
// serve as node identity everywhere else in apislice.
package syntax

import "fmt"

// NodeID identifies a node within one Tree.
type NodeID int32

// None is the absent node.
const None NodeID = -1

// Node is one syntax node. Leaves are tokens; Named distinguishes grammar
// rules and named tokens (identifiers, literals) from punctuation and keywords.
type Node struct {
	Kind     string
	Field    string // field name within the parent, if any
	Named    bool
	Start    uint32
	End      uint32
	Row      int // zero-based start line
	Col      int
	Parent   NodeID
	Children []NodeID
	Last     NodeID // last descendant in preorder, or the node itself
}

// Tree is a parsed source file.
type Tree struct {
	Source []byte
	Nodes  []Node
}

// Root returns the compilation unit.
func (t *Tree) Root() NodeID {
	if len(t.Nodes) == 0 {
		return None
	}
	return 0
}

// Len returns the number of nodes in the tree.
func (t *Tree) Len() int {
	return len(t.Nodes)
}

// Node returns the node with the given ID.
func (t *Tree) Node(id NodeID) *Node {
	return &t.Nodes[id]
}

// Kind returns the grammar kind of id, or "" for None.
func (t *Tree) Kind(id NodeID) string {
	if id == None {
		return ""
	}
	return t.Nodes[id].Kind
}

// Parent returns the parent of id, or None for the root.
func (t *Tree) Parent(id NodeID) NodeID {
	if id == None {
		return None
	}
	return t.Nodes[id].Parent
}

// Text returns the source text covered by id.
func (t *Tree) Text(id NodeID) string {
	n := &t.Nodes[id]
	return string(t.Source[n.Start:n.End])
}

// Position formats the one-based line and column of id.
func (t *Tree) Position(id NodeID) string {
	n := &t.Nodes[id]
	return fmt.Sprintf("%d:%d", n.Row+1, n.Col+1)
}

// IsAncestor reports whether a is a strict ancestor of d.
func (t *Tree) IsAncestor(a, d NodeID) bool {
	return a < d && d <= t.Nodes[a].Last
}

// Contains reports whether d is a or a descendant of a.
func (t *Tree) Contains(a, d NodeID) bool {
	return a <= d && d <= t.Nodes[a].Last
}

// Ancestor returns the nearest strict ancestor of id accepted by match.
func (t *Tree) Ancestor(id NodeID, match func(kind string) bool) NodeID {
	for p := t.Parent(id); p != None; p = t.Nodes[p].Parent {
		if match(t.Nodes[p].Kind) {
			return p
		}
	}
	return None
}

// AncestorOrSelf is Ancestor but also considers id itself.
func (t *Tree) AncestorOrSelf(id NodeID, match func(kind string) bool) NodeID {
	if id != None && match(t.Nodes[id].Kind) {
		return id
	}
	return t.Ancestor(id, match)
}

// AncestorOfKind returns the nearest strict ancestor with one of kinds.
func (t *Tree) AncestorOfKind(id NodeID, kinds ...string) NodeID {
	return t.Ancestor(id, func(k string) bool {
		for _, want := range kinds {
			if k == want {
				return true
			}
		}
		return false
	})
}

// Descendants returns every node strictly below id that has one of kinds,
// in source order. With no kinds, all descendants are returned.
func (t *Tree) Descendants(id NodeID, kinds ...string) []NodeID {
	var out []NodeID
	for d := id + 1; d <= t.Nodes[id].Last; d++ {
		if len(kinds) == 0 {
			out = append(out, d)
			continue
		}
		for _, k := range kinds {
			if t.Nodes[d].Kind == k {
				out = append(out, d)
				break
			}
		}
	}
	return out
}

// ChildByField returns the first child of id stored under field.
func (t *Tree) ChildByField(id NodeID, field string) NodeID {
	if id == None {
		return None
	}
	for _, c := range t.Nodes[id].Children {
		if t.Nodes[c].Field == field {
			return c
		}
	}
	return None
}

// ChildOfKind returns the first child of id with one of kinds.
func (t *Tree) ChildOfKind(id NodeID, kinds ...string) NodeID {
	if id == None {
		return None
	}
	for _, c := range t.Nodes[id].Children {
		for _, k := range kinds {
			if t.Nodes[c].Kind == k {
				return c
			}
		}
	}
	return None
}

// NamedChildren returns the named children of id.
func (t *Tree) NamedChildren(id NodeID) []NodeID {
	var out []NodeID
	for _, c := range t.Nodes[id].Children {
		if t.Nodes[c].Named {
			out = append(out, c)
		}
	}
	return out
}

// HasToken reports whether id has an anonymous child token spelled tok.
func (t *Tree) HasToken(id NodeID, tok string) bool {
	for _, c := range t.Nodes[id].Children {
		if !t.Nodes[c].Named && t.Nodes[c].Kind == tok {
			return true
		}
	}
	return false
}

// Span is a position-based key for a node, independent of the arena.
type Span struct {
	Start uint32
	End   uint32
	Kind  string
}

// SpanOf returns the span key of id.
func (t *Tree) SpanOf(id NodeID) Span {
	n := &t.Nodes[id]
	return Span{Start: n.Start, End: n.End, Kind: n.Kind}
}
