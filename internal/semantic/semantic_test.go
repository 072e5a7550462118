package semantic

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/apislice/internal/lang"
	"github.com/phobologic/apislice/internal/parse"
	"github.com/phobologic/apislice/internal/syntax"
)

func bind(t *testing.T, src string) *Resolver {
	t.Helper()
	tree, err := parse.Parse(context.Background(), lang.Languages[lang.CSharp], []byte(src))
	require.NoError(t, err)
	cat, err := DefaultCatalog()
	require.NoError(t, err)
	return Bind(tree, cat)
}

// nodes returns every node of kind whose text is text, in source order.
func nodes(tree *syntax.Tree, kind, text string) []syntax.NodeID {
	var out []syntax.NodeID
	for i := range tree.Nodes {
		id := syntax.NodeID(i)
		if tree.Kind(id) == kind && tree.Text(id) == text {
			out = append(out, id)
		}
	}
	return out
}

func only(t *testing.T, tree *syntax.Tree, kind, text string) syntax.NodeID {
	t.Helper()
	got := nodes(tree, kind, text)
	require.Len(t, got, 1, "nodes of kind %s with text %q", kind, text)
	return got[0]
}

func TestResolveExternalInvocation(t *testing.T) {
	t.Parallel()

	r := bind(t, `using System;
class P { void M() { Console.WriteLine("hi"); } }
`)
	inv := only(t, r.Tree(), "invocation_expression", `Console.WriteLine("hi")`)
	sym := r.Resolve(inv)
	require.NotNil(t, sym)
	assert.Equal(t, Method, sym.Kind)
	assert.True(t, sym.External)
	assert.Equal(t, "System.Console.WriteLine", QualifiedName(sym))
	assert.Empty(t, r.DeclaringNodes(sym))
}

func TestResolveInFileMethod(t *testing.T) {
	t.Parallel()

	r := bind(t, `class P {
    void Helper() { }
    void M() { Helper(); }
}
`)
	inv := only(t, r.Tree(), "invocation_expression", "Helper()")
	sym := r.Resolve(inv)
	require.NotNil(t, sym)
	assert.Equal(t, "<global namespace>.P.Helper", QualifiedName(sym))
	decls := r.DeclaringNodes(sym)
	require.Len(t, decls, 1)
	assert.Equal(t, "method_declaration", r.Tree().Kind(decls[0]))
}

func TestResolveOverloadByArgumentType(t *testing.T) {
	t.Parallel()

	r := bind(t, `class Base { }
class Derived : Base { }
class P {
    void Run(int a) { }
    void Run(string a) { }
    void Log(string m) { }
    void Log(long n) { }
    void Take(string s) { }
    void Take(Base b) { }
    void M() {
        var s = "x";
        Run("q");
        Run(5);
        Run(s);
        Run(missing);
        Log(3);
        Take(new Derived());
    }
}
`)
	tests := []struct {
		call string
		decl string
	}{
		{`Run("q")`, "void Run(string a) { }"},
		{"Run(5)", "void Run(int a) { }"},
		{"Run(s)", "void Run(string a) { }"},
		{"Run(missing)", "void Run(int a) { }"},
		{"Log(3)", "void Log(long n) { }"},
		{"Take(new Derived())", "void Take(Base b) { }"},
	}
	for _, tt := range tests {
		sym := r.Resolve(only(t, r.Tree(), "invocation_expression", tt.call))
		require.NotNil(t, sym, tt.call)
		decls := r.DeclaringNodes(sym)
		require.Len(t, decls, 1, tt.call)
		if got := r.Tree().Text(decls[0]); got != tt.decl {
			t.Errorf("%s binds to %q, want %q", tt.call, got, tt.decl)
		}
	}
}

func TestResolveVariables(t *testing.T) {
	t.Parallel()

	r := bind(t, `class P {
    private int count;
    int Size { get; set; }
    void M(string s) {
        int x = 1;
        x = 2;
        count++;
        Size = 3;
        s.Trim();
    }
}
`)
	tree := r.Tree()

	tests := []struct {
		name string
		id   syntax.NodeID
		want Kind
		decl string
	}{
		{"local", nodes(tree, "identifier", "x")[1], Local, "variable_declarator"},
		{"field", nodes(tree, "identifier", "count")[1], Field, "variable_declarator"},
		{"property", nodes(tree, "identifier", "Size")[1], Property, "property_declaration"},
		{"parameter", nodes(tree, "identifier", "s")[1], Parameter, "parameter"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			sym := r.Resolve(tt.id)
			if sym == nil {
				t.Fatal("Resolve returned nil")
			}
			if sym.Kind != tt.want {
				t.Errorf("kind = %v, want %v", sym.Kind, tt.want)
			}
			decls := r.DeclaringNodes(sym)
			if len(decls) != 1 || tree.Kind(decls[0]) != tt.decl {
				t.Errorf("declaring nodes = %v, want one %s", decls, tt.decl)
			}
		})
	}
}

func TestResolveMemberOfKeywordType(t *testing.T) {
	t.Parallel()

	r := bind(t, `class P { void M(string s) { s.Trim(); } }
`)
	sym := r.Resolve(only(t, r.Tree(), "invocation_expression", "s.Trim()"))
	require.NotNil(t, sym)
	assert.Equal(t, "Trim", sym.Name)
	assert.Equal(t, "string", TypeString(sym.ContainingType()))
}

func TestResolveVarInference(t *testing.T) {
	t.Parallel()

	r := bind(t, `using System.Diagnostics;
class P {
    void M() {
        var p = new Process();
        p.Start();
    }
}
`)
	sym := r.Resolve(only(t, r.Tree(), "invocation_expression", "p.Start()"))
	require.NotNil(t, sym)
	assert.Equal(t, "System.Diagnostics.Process.Start", QualifiedName(sym))
}

func TestResolveUnknownNamespace(t *testing.T) {
	t.Parallel()

	r := bind(t, `using Missing.Lib;
class P { void M() { Widget.Frob(); } }
`)
	assert.Nil(t, r.Resolve(only(t, r.Tree(), "invocation_expression", "Widget.Frob()")))
	assert.Nil(t, r.Resolve(only(t, r.Tree(), "identifier", "Widget")))
}

func TestResolveLenientExternalMember(t *testing.T) {
	t.Parallel()

	r := bind(t, `using System.IO;
class P { void M() { File.Frobnicate(1); } }
`)
	sym := r.Resolve(only(t, r.Tree(), "invocation_expression", "File.Frobnicate(1)"))
	require.NotNil(t, sym)
	assert.Equal(t, Method, sym.Kind)
	assert.Equal(t, "System.IO.File.Frobnicate", QualifiedName(sym))
}

func TestResolveGotoLabel(t *testing.T) {
	t.Parallel()

	r := bind(t, `class P {
    void M() {
        start:
        M();
        goto start;
    }
}
`)
	tree := r.Tree()
	ids := nodes(tree, "identifier", "start")
	require.Len(t, ids, 2)
	sym := r.Resolve(ids[1])
	require.NotNil(t, sym)
	assert.Equal(t, Label, sym.Kind)
	labeled := tree.Descendants(tree.Root(), "labeled_statement")
	require.Len(t, labeled, 1)
	assert.Same(t, sym, r.DeclaredSymbol(labeled[0]))
}

func TestNamespaces(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want string
	}{
		{"block", "namespace A.B { class C { void M() { } } }\n", "A.B.C.M"},
		{"nested", "namespace A { namespace B { class C { void M() { } } } }\n", "A.B.C.M"},
		{"file scoped", "namespace A;\nclass C { void M() { } }\n", "A.C.M"},
		{"global", "class C { void M() { } }\n", "<global namespace>.C.M"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := bind(t, tt.src)
			methods := r.Tree().Descendants(r.Tree().Root(), "method_declaration")
			require.Len(t, methods, 1)
			if got := QualifiedName(r.DeclaredSymbol(methods[0])); got != tt.want {
				t.Errorf("QualifiedName = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTypeOfGenericField(t *testing.T) {
	t.Parallel()

	r := bind(t, `using System.Collections.Generic;
class P { List<string> items; }
`)
	decl := r.Tree().Descendants(r.Tree().Root(), "variable_declarator")
	require.Len(t, decl, 1)
	field := r.DeclaredSymbol(decl[0])
	require.NotNil(t, field)
	assert.Equal(t, "System.Collections.Generic.List<string>", TypeString(r.TypeOf(field)))
}

func TestIsForeignImport(t *testing.T) {
	t.Parallel()

	r := bind(t, `using System.Runtime.InteropServices;
class P {
    [DllImport("user32.dll")]
    static extern int MessageBox(int h);
    void Plain() { }
}
`)
	methods := r.Tree().Descendants(r.Tree().Root(), "method_declaration")
	require.Len(t, methods, 2)
	assert.True(t, r.IsForeignImport(methods[0]))
	assert.False(t, r.IsForeignImport(methods[1]))
}

func TestReferencesSkipDeclarationNames(t *testing.T) {
	t.Parallel()

	r := bind(t, `class P { void M() { int x = 1; Use(x); } void Use(int v) { } }
`)
	tree := r.Tree()
	m := tree.Descendants(tree.Root(), "method_declaration")[0]
	var got []string
	for _, id := range r.References(m) {
		got = append(got, tree.Text(id))
	}
	assert.Equal(t, []string{"Use", "x"}, got)
	for _, id := range nodes(tree, "identifier", "M") {
		assert.True(t, r.IsDeclarationName(id))
	}
}
