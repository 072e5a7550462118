package graph

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/phobologic/apislice/internal/lang"
	"github.com/phobologic/apislice/internal/parse"
	"github.com/phobologic/apislice/internal/semantic"
	"github.com/phobologic/apislice/internal/syntax"
)

func build(t *testing.T, src string) (*semantic.Resolver, *Index) {
	t.Helper()
	tree, err := parse.Parse(context.Background(), lang.Languages[lang.CSharp], []byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	res := semantic.Bind(tree, nil)
	ix, err := Build(context.Background(), tree, res)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return res, ix
}

func methodSymbol(t *testing.T, res *semantic.Resolver, n int) *semantic.Symbol {
	t.Helper()
	tree := res.Tree()
	methods := tree.Descendants(tree.Root(), "method_declaration")
	if n >= len(methods) {
		t.Fatalf("only %d methods", len(methods))
	}
	return res.DeclaredSymbol(methods[n])
}

const overloads = `class P {
    void Run() { }
    void Run(int x) { }
    void A() { Run(); Run(1); Run(2); }
    void B() { Run(); A(); }
}
`

func TestCallSitesDistinguishOverloads(t *testing.T) {
	t.Parallel()

	res, ix := build(t, overloads)
	tree := res.Tree()

	if got := len(ix.Invocations); got != 5 {
		t.Fatalf("invocations = %d, want 5", got)
	}

	texts := func(ids []syntax.NodeID) []string {
		var out []string
		for _, id := range ids {
			out = append(out, tree.Text(id))
		}
		return out
	}

	if diff := cmp.Diff([]string{"Run()", "Run()"}, texts(ix.CallSites(methodSymbol(t, res, 0)))); diff != "" {
		t.Errorf("Run() call sites (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Run(1)", "Run(2)"}, texts(ix.CallSites(methodSymbol(t, res, 1)))); diff != "" {
		t.Errorf("Run(int) call sites (-want +got):\n%s", diff)
	}
	if got := ix.CallSites(nil); got != nil {
		t.Errorf("CallSites(nil) = %v, want nil", got)
	}
}

func TestGotos(t *testing.T) {
	t.Parallel()

	res, ix := build(t, `class P {
    void M(int n) {
        if (n > 0) { goto Done; }
        n = 1;
        if (n > 2) { goto Done; }
        Done:
        return;
    }
}
`)
	tree := res.Tree()
	labeled := tree.Descendants(tree.Root(), "labeled_statement")
	if len(labeled) != 1 {
		t.Fatalf("labeled statements = %d, want 1", len(labeled))
	}
	label := res.DeclaredSymbol(labeled[0])
	if label == nil {
		t.Fatal("label not declared")
	}
	if got := len(ix.Gotos(label)); got != 2 {
		t.Errorf("gotos = %d, want 2", got)
	}
}

func TestBuildCancelled(t *testing.T) {
	t.Parallel()

	tree, err := parse.Parse(context.Background(), lang.Languages[lang.CSharp], []byte(overloads))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Build(ctx, tree, semantic.Bind(tree, nil)); err == nil {
		t.Error("Build with cancelled context succeeded")
	}
}
