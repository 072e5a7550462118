// Package graph indexes the call sites and goto edges of one file.
package graph

import (
	"context"

	"github.com/phobologic/apislice/internal/semantic"
	"github.com/phobologic/apislice/internal/syntax"
)

// Resolver binds nodes to symbols.
type Resolver interface {
	Resolve(id syntax.NodeID) *semantic.Symbol
}

// Index maps callee symbols to the invocations that call them and label
// symbols to the gotos that jump to them. Symbols are compared by identity,
// so overloads stay apart.
type Index struct {
	// Invocations holds every invocation expression in source order.
	Invocations []syntax.NodeID

	callers map[*semantic.Symbol][]syntax.NodeID
	gotos   map[*semantic.Symbol][]syntax.NodeID
}

// Build resolves every invocation and goto in tree once.
func Build(ctx context.Context, tree *syntax.Tree, res Resolver) (*Index, error) {
	ix := &Index{
		callers: make(map[*semantic.Symbol][]syntax.NodeID),
		gotos:   make(map[*semantic.Symbol][]syntax.NodeID),
	}
	for i := range tree.Nodes {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		id := syntax.NodeID(i)
		switch tree.Kind(id) {
		case "invocation_expression":
			ix.Invocations = append(ix.Invocations, id)
			if callee := res.Resolve(id); callee != nil {
				ix.callers[callee] = append(ix.callers[callee], id)
			}
		case "goto_statement":
			target := tree.ChildOfKind(id, "identifier")
			if target == syntax.None {
				continue
			}
			if label := res.Resolve(target); label != nil && label.Kind == semantic.Label {
				ix.gotos[label] = append(ix.gotos[label], id)
			}
		}
	}
	return ix, nil
}

// CallSites returns the invocations whose resolved callee is callee.
func (ix *Index) CallSites(callee *semantic.Symbol) []syntax.NodeID {
	if callee == nil {
		return nil
	}
	return ix.callers[callee]
}

// Gotos returns the goto statements that target label.
func (ix *Index) Gotos(label *semantic.Symbol) []syntax.NodeID {
	if label == nil {
		return nil
	}
	return ix.gotos[label]
}
