// Package slicer extracts API-usage slices from C# files.
//
// For every use of a configured API (a seed) it collects the code the use
// depends on: its statement, the declarations its assignment context reads,
// gotos into its label, and, transitively, every call site of its enclosing
// method. Slices that another slice already covers are dropped, and each
// survivor is printed as a pruned copy of the file.
package slicer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/phobologic/apislice/internal/graph"
	"github.com/phobologic/apislice/internal/lang"
	"github.com/phobologic/apislice/internal/model"
	"github.com/phobologic/apislice/internal/parse"
	"github.com/phobologic/apislice/internal/ranking"
	"github.com/phobologic/apislice/internal/rules"
	"github.com/phobologic/apislice/internal/semantic"
	"github.com/phobologic/apislice/internal/syntax"
)

// ErrSliceTooLarge is returned when a retained set outgrows MaxSliceNodes.
var ErrSliceTooLarge = errors.New("slice too large")

// Oracle answers the symbol questions the slicer asks. *semantic.Resolver
// implements it.
type Oracle interface {
	Tree() *syntax.Tree
	Resolve(id syntax.NodeID) *semantic.Symbol
	DeclaredSymbol(id syntax.NodeID) *semantic.Symbol
	DeclaringNodes(s *semantic.Symbol) []syntax.NodeID
	IsForeignImport(decl syntax.NodeID) bool
	References(root syntax.NodeID) []syntax.NodeID
	Callee(inv syntax.NodeID) syntax.NodeID
	MemberReceiver(ma syntax.NodeID) syntax.NodeID
	TypeOf(s *semantic.Symbol) *semantic.Symbol
}

// Options tune one Slicer.
type Options struct {
	// MaxSlices keeps only the largest N slices of a file; 0 keeps all.
	MaxSlices int
	// MaxSliceNodes abandons a seed whose retained set grows past N nodes;
	// 0 disables the guard.
	MaxSliceNodes int
	Logger        *zap.Logger
}

// Slicer turns source files into slices. It holds only read-only state and
// is safe for concurrent use.
type Slicer struct {
	rules   *rules.Set
	catalog *semantic.Catalog
	opts    Options
	log     *zap.Logger
}

// New returns a Slicer for the given rules and reference catalog.
func New(rs *rules.Set, catalog *semantic.Catalog, opts Options) *Slicer {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if catalog == nil {
		catalog = semantic.NewCatalog()
	}
	return &Slicer{rules: rs, catalog: catalog, opts: opts, log: log}
}

// SliceFile parses and binds source, then slices it. The returned error is
// non-nil only for cancellation or when the file cannot be parsed; per-seed
// and per-slice problems are reported as diagnostics.
func (s *Slicer) SliceFile(ctx context.Context, source []byte) (*model.FileResult, error) {
	tree, err := parse.Parse(ctx, lang.Languages[lang.CSharp], source)
	if err != nil {
		return nil, err
	}
	return s.Slice(ctx, semantic.Bind(tree, s.catalog))
}

// Slice slices an already bound file.
func (s *Slicer) Slice(ctx context.Context, o Oracle) (*model.FileResult, error) {
	tree := o.Tree()
	calls, err := graph.Build(ctx, tree, o)
	if err != nil {
		return nil, err
	}
	f := &fileRun{
		rules: s.rules,
		opts:  s.opts,
		log:   s.log,
		o:     o,
		tree:  tree,
		calls: calls,
		diags: &diagnostics{seen: make(map[string]bool)},
	}

	sets, err := f.findSeeds(ctx)
	if err != nil {
		return nil, err
	}
	sets = Prune(sets)
	if s.opts.MaxSlices > 0 {
		sizes := make([]int, len(sets))
		for i, set := range sets {
			sizes[i] = set.Len()
		}
		var kept []*syntax.NodeSet
		for _, i := range ranking.Top(sizes, s.opts.MaxSlices) {
			kept = append(kept, sets[i])
		}
		sets = kept
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &model.FileResult{}
	for i, set := range sets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, fallback, err := reconstructSafely(ctx, tree, set)
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil, err
		case err != nil:
			s.log.Warn("reconstruction failed", zap.Int("slice", i), zap.Error(err))
			f.diags.add(model.ReconstructFailed, tree, syntax.None, err.Error())
			continue
		case text == "":
			continue
		}
		result.Slices = append(result.Slices, model.Slice{Text: text, UsedFallback: fallback, Nodes: set.Len()})
	}
	result.Diagnostics = f.diags.list
	return result, nil
}

// fileRun is the state of slicing one file.
type fileRun struct {
	rules *rules.Set
	opts  Options
	log   *zap.Logger
	o     Oracle
	tree  *syntax.Tree
	calls *graph.Index
	diags *diagnostics
}

type diagnostics struct {
	list []model.Diagnostic
	seen map[string]bool
}

// add records a diagnostic once per file for each kind, message and line.
func (d *diagnostics) add(kind model.DiagnosticKind, t *syntax.Tree, at syntax.NodeID, msg string) {
	line := 0
	if at != syntax.None {
		line = t.Node(at).Row + 1
	}
	key := fmt.Sprintf("%s\x00%s\x00%d", kind, msg, line)
	if d.seen[key] {
		return
	}
	d.seen[key] = true
	d.list = append(d.list, model.Diagnostic{Kind: kind, Message: msg, Line: line})
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// reconstructSafely runs the reconstructor, turning a panic into an error.
func reconstructSafely(ctx context.Context, tree *syntax.Tree, set *syntax.NodeSet) (text string, fallback bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reconstruct panic: %v", r)
		}
	}()
	return Reconstruct(ctx, tree, set)
}
