package slicer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/apislice/internal/lang"
	"github.com/phobologic/apislice/internal/parse"
	"github.com/phobologic/apislice/internal/syntax"
)

func parseTree(t *testing.T, src string) *syntax.Tree {
	t.Helper()
	tree, err := parse.Parse(context.Background(), lang.Languages[lang.CSharp], []byte(src))
	require.NoError(t, err)
	return tree
}

// find returns the first node of kind whose text is text.
func find(t *testing.T, tree *syntax.Tree, kind, text string) syntax.NodeID {
	t.Helper()
	for i := range tree.Nodes {
		id := syntax.NodeID(i)
		if tree.Kind(id) == kind && tree.Text(id) == text {
			return id
		}
	}
	t.Fatalf("no %s with text %q", kind, text)
	return syntax.None
}

func retained(tree *syntax.Tree, ids ...syntax.NodeID) *syntax.NodeSet {
	set := syntax.NewNodeSet(tree.Len())
	for _, id := range ids {
		retain(tree, set, id)
	}
	return set
}

func TestReconstructDropsUnretained(t *testing.T) {
	t.Parallel()

	tree := parseTree(t, `// header
using System;

class P {
    int unused;

    void M() {
        int a = 1; // trailing
        int b = 2;
    }

    void N() { }
}
`)
	set := retained(tree, find(t, tree, "local_declaration_statement", "int b = 2;"))

	got, fallback, err := Reconstruct(context.Background(), tree, set)
	require.NoError(t, err)
	assert.False(t, fallback)
	assert.Equal(t, `using System;
class P {
    void M() {
        int b = 2;
    }
}
`, got)
}

const branches = `class P {
    void M(int n) {
        if (n > 0) {
            int a = 1;
        } else {
            int b = 2;
        }
        try {
            int c = 3;
        } catch (System.Exception e) {
            int d = 4;
        }
    }
}
`

func TestReconstructPlaceholders(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		keep     string
		want     []string
		absent   []string
		fallback bool
	}{
		{
			name:   "else dropped",
			keep:   "int a = 1;",
			want:   []string{"if (n > 0) {", "int a = 1;"},
			absent: []string{"else", "int b", "try"},
		},
		{
			name:     "missing consequence",
			keep:     "int b = 2;",
			want:     []string{"if (n > 0) { } else {", "int b = 2;"},
			absent:   []string{"int a"},
			fallback: true,
		},
		{
			name:     "missing try body",
			keep:     "int d = 4;",
			want:     []string{"try { } catch (System.Exception e) {", "int d = 4;"},
			absent:   []string{"int c", "if"},
			fallback: true,
		},
		{
			name:     "all clauses dropped",
			keep:     "int c = 3;",
			want:     []string{"int c = 3;", "finally { }"},
			absent:   []string{"catch", "int d"},
			fallback: true,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tree := parseTree(t, branches)
			set := retained(tree, find(t, tree, "local_declaration_statement", tt.keep))
			got, fallback, err := Reconstruct(context.Background(), tree, set)
			require.NoError(t, err)
			assert.Equal(t, tt.fallback, fallback)
			for _, w := range tt.want {
				assert.Contains(t, got, w)
			}
			for _, a := range tt.absent {
				assert.NotContains(t, got, a)
			}
		})
	}
}

func TestReconstructLabeledStatement(t *testing.T) {
	t.Parallel()

	tree := parseTree(t, `class P {
    void M() {
        goto Done;
        Done:
        M();
    }
}
`)
	set := retained(tree, find(t, tree, "goto_statement", "goto Done;"))
	set.Add(find(t, tree, "labeled_statement", "Done:\n        M();"))
	set.Add(find(t, tree, "identifier", "Done"))

	got, fallback, err := Reconstruct(context.Background(), tree, set)
	require.NoError(t, err)
	assert.True(t, fallback)
	assert.Contains(t, got, "goto Done;")
	assert.Contains(t, got, "Done:\n        ;")
	assert.NotContains(t, got, "M();")
}

func TestReconstructSwitchSectionFallsBack(t *testing.T) {
	t.Parallel()

	tree := parseTree(t, `class P {
    void M(int n) {
        switch (n) {
            case 1:
                n = 5;
                break;
            case 2:
                break;
        }
    }
}
`)
	set := retained(tree, find(t, tree, "integer_literal", "1"))

	got, fallback, err := Reconstruct(context.Background(), tree, set)
	require.NoError(t, err)
	assert.True(t, fallback)
	assert.Contains(t, got, "n = 5;")
	assert.NotContains(t, got, "case 2")
}

func TestReconstructSwitchSectionKeepsJump(t *testing.T) {
	t.Parallel()

	tree := parseTree(t, `class P {
    void M(int n) {
        switch (n) {
            case 1:
                n = 5;
                n = 6;
                break;
            case 2:
                return;
        }
    }
}
`)
	set := retained(tree, find(t, tree, "expression_statement", "n = 6;"))

	got, fallback, err := Reconstruct(context.Background(), tree, set)
	require.NoError(t, err)
	assert.False(t, fallback)
	assert.Contains(t, got, "case 1:")
	assert.Contains(t, got, "n = 6;\n                break;")
	assert.NotContains(t, got, "n = 5;")
	assert.NotContains(t, got, "case 2")
	assert.NotContains(t, got, "return;")
}

func TestReconstructRootNotRetained(t *testing.T) {
	t.Parallel()

	tree := parseTree(t, "class P { }\n")
	got, fallback, err := Reconstruct(context.Background(), tree, syntax.NewNodeSet(tree.Len()))
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.False(t, fallback)
}

func TestReconstructWholeFile(t *testing.T) {
	t.Parallel()

	src := `namespace N {
    class P {
        void M() { int x = 1; }
    }
}
`
	tree := parseTree(t, src)
	set := retained(tree, tree.Root())

	got, fallback, err := Reconstruct(context.Background(), tree, set)
	require.NoError(t, err)
	assert.False(t, fallback)
	assert.Equal(t, src, got)
}
