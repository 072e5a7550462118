package slicer

import (
	"context"
	"strings"

	"github.com/phobologic/apislice/internal/lang"
	"github.com/phobologic/apislice/internal/syntax"
)

// Reconstruct prints the part of tree that set retains. It reports whether
// any placeholder or verbatim fallback was needed. The result is empty when
// the root is not retained.
//
// Only members of lists (statements in a block, declarations in a type or
// namespace, accessors, switch sections) and optional clauses (else, catch,
// finally) are ever removed. Any other child of a kept node is kept: it is
// pruned further if retained and printed whole otherwise. A removed child
// that the parent cannot do without is replaced by a placeholder. Comments
// are always removed.
func Reconstruct(ctx context.Context, tree *syntax.Tree, set *syntax.NodeSet) (string, bool, error) {
	root := tree.Root()
	if root == syntax.None || !set.Has(root) {
		return "", false, nil
	}
	p := &printer{ctx: ctx, tree: tree, set: set}
	if err := p.filter(root); err != nil {
		return "", false, err
	}
	return tidy(p.out.String()), p.fallback, nil
}

type printer struct {
	ctx      context.Context
	tree     *syntax.Tree
	set      *syntax.NodeSet
	out      strings.Builder
	fallback bool
	visited  int
}

// listKinds hold members that are pruned one by one.
var listKinds = map[string]bool{
	"compilation_unit":                  true,
	"namespace_declaration":             true,
	"file_scoped_namespace_declaration": true,
	"declaration_list":                  true,
	"block":                             true,
	"accessor_list":                     true,
	"switch_body":                       true,
	"switch_section":                    true,
}

// jumpKinds end a switch section. A kept section keeps its final jump so
// control does not fall through.
var jumpKinds = map[string]bool{
	"break_statement":    true,
	"continue_statement": true,
	"goto_statement":     true,
	"return_statement":   true,
	"throw_statement":    true,
}

func isMember(kind string) bool {
	return lang.IsStatement(kind) ||
		strings.HasSuffix(kind, "_declaration") ||
		kind == "global_statement" ||
		kind == "switch_section"
}

func (p *printer) tick() error {
	p.visited++
	if p.visited%1024 == 0 {
		return p.ctx.Err()
	}
	return nil
}

// filter prints a retained node, dropping what the rules allow.
func (p *printer) filter(id syntax.NodeID) error {
	if err := p.tick(); err != nil {
		return err
	}
	t := p.tree
	n := t.Node(id)
	if len(n.Children) == 0 {
		p.out.Write(t.Source[n.Start:n.End])
		return nil
	}
	if !p.canFilter(id) {
		p.fallback = true
		return p.verbatim(id)
	}

	kind := n.Kind
	list := listKinds[kind]
	statement := lang.IsStatement(kind)
	keptClause := false
	lastJump := syntax.None
	if kind == "switch_section" {
		for _, c := range n.Children {
			if lang.IsStatement(t.Kind(c)) {
				lastJump = c
			}
		}
		if lastJump != syntax.None && !jumpKinds[t.Kind(lastJump)] {
			lastJump = syntax.None
		}
	}

	pos := n.Start
	for i := 0; i < len(n.Children); i++ {
		c := n.Children[i]
		cn := t.Node(c)
		p.out.Write(t.Source[pos:cn.Start])
		pos = cn.End

		switch {
		case lang.IsComment(cn.Kind):
			continue

		case kind == "if_statement" && cn.Kind == "else":
			// else and its statement go together.
			if i+1 < len(n.Children) && !p.set.Has(n.Children[i+1]) {
				pos = t.Node(n.Children[i+1]).End
				i++
				continue
			}
			p.out.WriteString("else")
			continue

		case kind == "try_statement" && (cn.Kind == "catch_clause" || cn.Kind == "finally_clause"):
			if !p.set.Has(c) {
				continue
			}
			keptClause = true

		case list && cn.Named && isMember(cn.Kind):
			if !p.set.Has(c) && c != lastJump {
				continue
			}

		case statement && lang.IsStatement(cn.Kind):
			// A statement's own body is mandatory.
			if !p.set.Has(c) {
				p.fallback = true
				if kind == "labeled_statement" {
					p.out.WriteString(";")
				} else {
					p.out.WriteString("{ }")
				}
				continue
			}
		}

		var err error
		if p.set.Has(c) {
			err = p.filter(c)
		} else {
			err = p.verbatim(c)
		}
		if err != nil {
			return err
		}
	}
	if kind == "try_statement" && !keptClause {
		p.fallback = true
		p.out.WriteString(" finally { }")
	}
	p.out.Write(t.Source[pos:n.End])
	return nil
}

// canFilter reports whether id has a valid pruned shape. A switch section
// must keep at least one statement.
func (p *printer) canFilter(id syntax.NodeID) bool {
	t := p.tree
	if t.Kind(id) != "switch_section" {
		return true
	}
	for _, c := range t.Node(id).Children {
		if lang.IsStatement(t.Kind(c)) && p.set.Has(c) {
			return true
		}
	}
	return false
}

// verbatim prints id whole, minus comments.
func (p *printer) verbatim(id syntax.NodeID) error {
	if err := p.tick(); err != nil {
		return err
	}
	t := p.tree
	n := t.Node(id)
	pos := n.Start
	for _, c := range n.Children {
		cn := t.Node(c)
		p.out.Write(t.Source[pos:cn.Start])
		pos = cn.End
		if lang.IsComment(cn.Kind) {
			continue
		}
		if err := p.verbatim(c); err != nil {
			return err
		}
	}
	p.out.Write(t.Source[pos:n.End])
	return nil
}

// tidy strips trailing blanks and drops empty lines.
func tidy(s string) string {
	var b strings.Builder
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimRight(line, " \t\r")
		if line == "" {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}
