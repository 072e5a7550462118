package slicer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/phobologic/apislice/internal/graph"
	"github.com/phobologic/apislice/internal/lang"
	"github.com/phobologic/apislice/internal/model"
	"github.com/phobologic/apislice/internal/semantic"
	"github.com/phobologic/apislice/internal/syntax"
)

// collector computes the retained set of one seed. It is single-use: the
// visited sets and the key-node flag belong to one run.
type collector struct {
	ctx   context.Context
	o     Oracle
	tree  *syntax.Tree
	calls *graph.Index
	diags *diagnostics
	log   *zap.Logger

	set      *syntax.NodeSet
	maxNodes int

	// keyNode is true only while the data dependencies of the original
	// seed are being collected. It is cleared after that first step and
	// never set again, so method declarations are inlined for the seed's
	// own context and not for any caller reached afterwards.
	keyNode bool

	visitedMethods    map[*semantic.Symbol]bool
	visitedProperties map[*semantic.Symbol]bool
}

func newCollector(ctx context.Context, f *fileRun) *collector {
	return &collector{
		ctx:               ctx,
		o:                 f.o,
		tree:              f.tree,
		calls:             f.calls,
		diags:             f.diags,
		log:               f.log,
		set:               syntax.NewNodeSet(f.tree.Len()),
		maxNodes:          f.opts.MaxSliceNodes,
		keyNode:           true,
		visitedMethods:    make(map[*semantic.Symbol]bool),
		visitedProperties: make(map[*semantic.Symbol]bool),
	}
}

// run collects from seed and returns the retained set.
func (c *collector) run(seed syntax.NodeID) (*syntax.NodeSet, error) {
	if err := c.collect(seed); err != nil {
		return nil, err
	}
	return c.set, nil
}

func (c *collector) check() error {
	if err := c.ctx.Err(); err != nil {
		return err
	}
	if c.maxNodes > 0 && c.set.Len() > c.maxNodes {
		return fmt.Errorf("%w: %d nodes", ErrSliceTooLarge, c.set.Len())
	}
	return nil
}

func (c *collector) add(id syntax.NodeID) {
	retain(c.tree, c.set, id)
}

// retain adds id, its subtree and its ancestors to set.
func retain(t *syntax.Tree, set *syntax.NodeSet, id syntax.NodeID) {
	if id == syntax.None {
		return
	}
	set.AddRange(id, t.Node(id).Last)
	for p := t.Parent(id); p != syntax.None; p = t.Parent(p) {
		if !set.Add(p) {
			// Every ancestor of a retained node is already retained.
			break
		}
	}
}

func (c *collector) collect(seed syntax.NodeID) error {
	if err := c.check(); err != nil {
		return err
	}
	t := c.tree
	c.log.Debug("collect start", zap.String("node", firstLine(t.Text(seed))), zap.String("at", t.Position(seed)))

	c.add(seed)
	if err := c.argumentDependencies(seed); err != nil {
		return err
	}
	c.keyNode = false

	method := t.Ancestor(seed, lang.IsMethodDeclaration)
	if method != syntax.None {
		sym := c.o.DeclaredSymbol(method)
		if sym != nil && !c.visitedMethods[sym] {
			c.visitedMethods[sym] = true
			for _, caller := range c.calls.CallSites(sym) {
				if err := c.check(); err != nil {
					return err
				}
				if err := c.collect(caller); err != nil {
					return err
				}
			}
		}
	}

	c.log.Debug("collect end", zap.String("node", firstLine(t.Text(seed))))
	return nil
}

// argumentDependencies pulls in the statement around node, gotos that
// target its label, and the declarations its assignment context reads.
func (c *collector) argumentDependencies(node syntax.NodeID) error {
	t := c.tree
	if stmt := t.Ancestor(node, lang.IsStatement); stmt != syntax.None {
		c.add(stmt)
	}

	if labeled := t.AncestorOfKind(node, "labeled_statement"); labeled != syntax.None {
		if err := c.labelDependencies(labeled); err != nil {
			return err
		}
	}

	if err := c.check(); err != nil {
		return err
	}

	method := t.Ancestor(node, lang.IsMethodDeclaration)
	if method == syntax.None {
		return nil
	}
	for _, id := range c.identifiers(assignmentContext(t, node)) {
		sym := c.o.Resolve(id)
		if sym == nil {
			c.diags.add(model.Unresolved, t, id, "identifier not bound: "+t.Text(id))
			continue
		}
		if err := c.dispatch(sym, node, method); err != nil {
			return err
		}
		if err := c.check(); err != nil {
			return err
		}
	}
	return nil
}

func (c *collector) labelDependencies(labeled syntax.NodeID) error {
	label := c.o.DeclaredSymbol(labeled)
	for _, g := range c.calls.Gotos(label) {
		if err := c.ctx.Err(); err != nil {
			return err
		}
		c.add(g)
	}
	return nil
}

// dispatch applies the per-kind dependency rule. method and node are None
// when called from inside a property body, where locals and parameters
// have no method to scan.
func (c *collector) dispatch(sym *semantic.Symbol, node, method syntax.NodeID) error {
	switch sym.Kind {
	case semantic.Local:
		if method != syntax.None && node != syntax.None {
			return c.localDependencies(sym, method)
		}
	case semantic.Field:
		c.fieldDependencies(sym)
	case semantic.Property:
		return c.propertyDependencies(sym)
	case semantic.Method:
		if c.keyNode {
			for _, d := range c.o.DeclaringNodes(sym) {
				c.add(d)
			}
		}
	case semantic.Parameter:
		if method != syntax.None {
			return c.referenceStatements(sym, method)
		}
	case semantic.NamedType:
	default:
		c.log.Debug("unexpected symbol kind", zap.Stringer("kind", sym.Kind), zap.String("symbol", sym.Name))
		c.diags.add(model.UnexpectedSymbol, c.tree, syntax.None, fmt.Sprintf("%s %s", sym.Kind, sym.Name))
	}
	return nil
}

func (c *collector) localDependencies(sym *semantic.Symbol, method syntax.NodeID) error {
	for _, d := range c.o.DeclaringNodes(sym) {
		if decl := c.tree.AncestorOrSelf(d, isLocalDeclaration); decl != syntax.None {
			c.add(decl)
		}
	}
	return c.referenceStatements(sym, method)
}

// referenceStatements retains the statement around every use of sym in
// method.
func (c *collector) referenceStatements(sym *semantic.Symbol, method syntax.NodeID) error {
	t := c.tree
	for i, id := range c.identifiers(method) {
		if i%256 == 0 {
			if err := c.ctx.Err(); err != nil {
				return err
			}
		}
		if c.o.Resolve(id) != sym {
			continue
		}
		if stmt := t.Ancestor(id, lang.IsStatement); stmt != syntax.None {
			c.add(stmt)
		}
	}
	return nil
}

func (c *collector) fieldDependencies(sym *semantic.Symbol) {
	for _, d := range c.o.DeclaringNodes(sym) {
		if field := c.tree.Ancestor(d, isFieldDeclaration); field != syntax.None {
			c.add(field)
		}
	}
}

func (c *collector) propertyDependencies(sym *semantic.Symbol) error {
	if c.visitedProperties[sym] {
		return nil
	}
	c.visitedProperties[sym] = true
	for _, decl := range c.o.DeclaringNodes(sym) {
		c.add(decl)
		for _, id := range c.identifiers(decl) {
			inner := c.o.Resolve(id)
			if inner == nil {
				continue
			}
			if err := c.dispatch(inner, syntax.None, syntax.None); err != nil {
				return err
			}
		}
		if err := c.check(); err != nil {
			return err
		}
	}
	return nil
}

// identifiers returns the simple-name references strictly below root.
func (c *collector) identifiers(root syntax.NodeID) []syntax.NodeID {
	var out []syntax.NodeID
	for _, id := range c.o.References(root) {
		if c.tree.Kind(id) == "identifier" {
			out = append(out, id)
		}
	}
	return out
}

// assignmentContext widens node to the assignment or declarator it is the
// value of, so both sides are scanned.
func assignmentContext(t *syntax.Tree, node syntax.NodeID) syntax.NodeID {
	parent := t.Parent(node)
	switch t.Kind(parent) {
	case "assignment_expression":
		return parent
	case "equals_value_clause":
		return t.Parent(parent)
	case "variable_declarator":
		if t.ChildByField(parent, "name") != node {
			return parent
		}
	}
	return node
}

func isLocalDeclaration(kind string) bool {
	return kind == "local_declaration_statement"
}

func isFieldDeclaration(kind string) bool {
	return kind == "field_declaration"
}
