// Package parse turns source text into a syntax.Tree using tree-sitter.
package parse

import (
	"context"
	"errors"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/apislice/internal/lang"
	"github.com/phobologic/apislice/internal/syntax"
)

// checkEvery is how many nodes are copied between cancellation checks.
const checkEvery = 4096

// ErrNoTree is returned when tree-sitter produces no tree at all.
var ErrNoTree = errors.New("parser returned no tree")

// Parse parses source with a fresh parser for l.
func Parse(ctx context.Context, l *lang.Language, source []byte) (*syntax.Tree, error) {
	p := l.NewParser()
	defer p.Close()
	return ParseWith(ctx, p, source)
}

// ParseWith parses source with an existing parser. The parser must already
// be set to the right language and must not be shared between goroutines.
// Syntax errors do not fail the parse; they appear as ERROR nodes.
func ParseWith(ctx context.Context, parser *sitter.Parser, source []byte) (*syntax.Tree, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ts, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parsing: %w", err)
	}
	if ts == nil {
		return nil, ErrNoTree
	}
	defer ts.Close()

	b := &builder{ctx: ctx, tree: &syntax.Tree{Source: source}}
	if err := b.add(ts.RootNode(), syntax.None, ""); err != nil {
		return nil, err
	}
	return b.tree, nil
}

type builder struct {
	ctx  context.Context
	tree *syntax.Tree
}

func (b *builder) add(n *sitter.Node, parent syntax.NodeID, field string) error {
	id := syntax.NodeID(len(b.tree.Nodes))
	if id%checkEvery == 0 {
		if err := b.ctx.Err(); err != nil {
			return err
		}
	}
	start := n.StartPoint()
	b.tree.Nodes = append(b.tree.Nodes, syntax.Node{
		Kind:   n.Type(),
		Field:  field,
		Named:  n.IsNamed(),
		Start:  n.StartByte(),
		End:    n.EndByte(),
		Row:    int(start.Row),
		Col:    int(start.Column),
		Parent: parent,
	})
	if parent != syntax.None {
		p := &b.tree.Nodes[parent]
		p.Children = append(p.Children, id)
	}
	count := int(n.ChildCount())
	for i := 0; i < count; i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		if err := b.add(child, id, n.FieldNameForChild(i)); err != nil {
			return err
		}
	}
	b.tree.Nodes[id].Last = syntax.NodeID(len(b.tree.Nodes) - 1)
	return nil
}
