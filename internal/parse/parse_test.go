package parse

import (
	"context"
	"testing"

	"github.com/phobologic/apislice/internal/lang"
	"github.com/phobologic/apislice/internal/syntax"
)

func parse(t *testing.T, source string) *syntax.Tree {
	t.Helper()
	tree, err := Parse(context.Background(), lang.Languages[lang.CSharp], []byte(source))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return tree
}

func TestParseCompilationUnit(t *testing.T) {
	t.Parallel()

	tree := parse(t, "class A { void M() { } }\n")
	if got := tree.Kind(tree.Root()); got != "compilation_unit" {
		t.Errorf("root kind = %q, want compilation_unit", got)
	}
	if tree.Node(tree.Root()).Last != syntax.NodeID(tree.Len()-1) {
		t.Errorf("root Last = %d, want %d", tree.Node(tree.Root()).Last, tree.Len()-1)
	}
}

func TestParsePreorder(t *testing.T) {
	t.Parallel()

	tree := parse(t, "namespace N { class A { int x = 1; void M(int a) { x = a; } } }\n")
	for i := range tree.Nodes {
		id := syntax.NodeID(i)
		n := tree.Node(id)
		if n.Last < id {
			t.Fatalf("node %d: Last %d before itself", id, n.Last)
		}
		for _, c := range n.Children {
			if tree.Parent(c) != id {
				t.Errorf("child %d of %d has parent %d", c, id, tree.Parent(c))
			}
			if !tree.IsAncestor(id, c) {
				t.Errorf("%d should be an ancestor of child %d", id, c)
			}
		}
	}
}

func TestParseTextAndFields(t *testing.T) {
	t.Parallel()

	src := "class Widget { void Run() { } }\n"
	tree := parse(t, src)
	classes := tree.Descendants(tree.Root(), "class_declaration")
	if len(classes) != 1 {
		t.Fatalf("got %d class declarations, want 1", len(classes))
	}
	name := tree.ChildByField(classes[0], "name")
	if name == syntax.None {
		t.Fatal("class has no name field")
	}
	if got := tree.Text(name); got != "Widget" {
		t.Errorf("class name = %q, want Widget", got)
	}
	if got := tree.Position(name); got != "1:7" {
		t.Errorf("position = %q, want 1:7", got)
	}
}

func TestParseKeepsErrors(t *testing.T) {
	t.Parallel()

	tree := parse(t, "class A { void M( { }\n")
	if tree.Len() == 0 {
		t.Fatal("expected a tree despite syntax errors")
	}
}

func TestParseCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Parse(ctx, lang.Languages[lang.CSharp], []byte("class A { }"))
	if err == nil {
		t.Fatal("expected an error for a cancelled context")
	}
}
