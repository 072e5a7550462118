package slicer

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/phobologic/apislice/internal/lang"
	"github.com/phobologic/apislice/internal/model"
	"github.com/phobologic/apislice/internal/rules"
	"github.com/phobologic/apislice/internal/semantic"
	"github.com/phobologic/apislice/internal/syntax"
)

// findSeeds runs the four seed passes and returns one retained set per
// slice, in pass order: invocations, member accesses, the merged field
// slice, then local declarations.
func (f *fileRun) findSeeds(ctx context.Context) ([]*syntax.NodeSet, error) {
	var sets []*syntax.NodeSet
	for _, pass := range []func(context.Context) ([]*syntax.NodeSet, error){
		f.invocationSeeds,
		f.memberAccessSeeds,
		f.fieldSeeds,
		f.localSeeds,
	} {
		found, err := pass(ctx)
		if err != nil {
			return nil, err
		}
		sets = append(sets, found...)
	}
	return sets, nil
}

func (f *fileRun) invocationSeeds(ctx context.Context) ([]*syntax.NodeSet, error) {
	var sets []*syntax.NodeSet
	for _, inv := range f.calls.Invocations {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		callee := f.o.Resolve(inv)
		if callee == nil {
			text := f.tree.Text(f.o.Callee(inv))
			if kw := rules.ContainsAny(text, f.rules.Merged()); kw != "" {
				f.namespaceNotFound(inv, kw)
			}
			continue
		}
		if !f.matchCallee(callee) {
			continue
		}
		set, err := f.runSeed(ctx, inv)
		if err != nil {
			return nil, err
		}
		if set != nil {
			sets = append(sets, set)
		}
	}
	return sets, nil
}

func (f *fileRun) matchCallee(callee *semantic.Symbol) bool {
	name := semantic.QualifiedName(callee)
	if f.rules.MatchInvocation(name) || f.rules.MatchStaticClass(name) {
		return true
	}
	if !f.rules.MatchInvoke(name) {
		return false
	}
	decls := f.o.DeclaringNodes(callee)
	return len(decls) > 0 &&
		lang.IsMethodDeclaration(f.tree.Kind(decls[0])) &&
		f.o.IsForeignImport(decls[0])
}

func (f *fileRun) memberAccessSeeds(ctx context.Context) ([]*syntax.NodeSet, error) {
	var sets []*syntax.NodeSet
	for _, ma := range f.tree.Descendants(f.tree.Root(), "member_access_expression") {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sym := f.o.Resolve(ma)
		if sym == nil {
			text := f.tree.Text(f.o.MemberReceiver(ma))
			if kw := rules.ContainsAny(text, f.rules.Property); kw != "" {
				f.namespaceNotFound(ma, kw)
			}
			continue
		}
		if !f.rules.MatchProperty(semantic.QualifiedName(sym)) {
			continue
		}
		set, err := f.runSeed(ctx, ma)
		if err != nil {
			return nil, err
		}
		if set != nil {
			sets = append(sets, set)
		}
	}
	return sets, nil
}

// fieldSeeds folds every field of a class-pattern type, and everything its
// uses depend on, into one shared slice.
func (f *fileRun) fieldSeeds(ctx context.Context) ([]*syntax.NodeSet, error) {
	t := f.tree
	merged := syntax.NewNodeSet(t.Len())
	for _, field := range t.Descendants(t.Root(), "field_declaration", "event_field_declaration") {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		declarators := t.Descendants(field, "variable_declarator")
		if !f.matchDeclaredType(field, declarators) {
			continue
		}
		retain(t, merged, field)

		own := make(map[*semantic.Symbol]bool, len(declarators))
		for _, d := range declarators {
			if sym := f.o.DeclaredSymbol(d); sym != nil {
				own[sym] = true
			}
		}
		for _, ref := range f.o.References(t.Parent(field)) {
			if t.Kind(ref) != "identifier" || !own[f.o.Resolve(ref)] {
				continue
			}
			set, err := f.runSeed(ctx, ref)
			if err != nil {
				return nil, err
			}
			if set != nil {
				merged.Union(set)
			}
		}
	}
	if merged.Len() == 0 {
		return nil, nil
	}
	return []*syntax.NodeSet{merged}, nil
}

func (f *fileRun) localSeeds(ctx context.Context) ([]*syntax.NodeSet, error) {
	t := f.tree
	var sets []*syntax.NodeSet
	for _, decl := range t.Descendants(t.Root(), "local_declaration_statement") {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !f.matchDeclaredType(decl, t.Descendants(decl, "variable_declarator")) {
			continue
		}
		set, err := f.runSeed(ctx, decl)
		if err != nil {
			return nil, err
		}
		if set != nil {
			sets = append(sets, set)
		}
	}
	return sets, nil
}

// matchDeclaredType reports whether the type declared by decl renders
// exactly as a class pattern. The type is taken from the first declarator
// so that var is inferred. An unresolved type whose declaration mentions a
// class name is a namespace-not-found signal.
func (f *fileRun) matchDeclaredType(decl syntax.NodeID, declarators []syntax.NodeID) bool {
	if len(declarators) == 0 {
		return false
	}
	ty := f.o.TypeOf(f.o.DeclaredSymbol(declarators[0]))
	if ty == nil {
		if kw := rules.ContainsAny(f.tree.Text(decl), f.rules.ClassSuffixes()); kw != "" {
			f.namespaceNotFound(decl, kw)
		}
		return false
	}
	return f.rules.MatchClass(semantic.TypeString(ty))
}

func (f *fileRun) namespaceNotFound(at syntax.NodeID, keyword string) {
	f.log.Debug("keyword in unresolved code",
		zap.String("keyword", keyword),
		zap.String("at", f.tree.Position(at)))
	f.diags.add(model.NamespaceNotFound, f.tree, at, fmt.Sprintf("%s in %q", keyword, firstLine(f.tree.Text(at))))
}

// runSeed collects one seed. A seed that panics or outgrows the size guard
// is logged and skipped with a nil set; only cancellation is returned.
func (f *fileRun) runSeed(ctx context.Context, seed syntax.NodeID) (set *syntax.NodeSet, err error) {
	defer func() {
		if r := recover(); r != nil {
			f.log.Warn("collect panic", zap.String("at", f.tree.Position(seed)), zap.Any("panic", r))
			f.diags.add(model.CollectFailed, f.tree, seed, fmt.Sprint(r))
			set, err = nil, nil
		}
	}()

	set, err = newCollector(ctx, f).run(seed)
	if errors.Is(err, ErrSliceTooLarge) {
		f.log.Warn("slice too large", zap.String("at", f.tree.Position(seed)), zap.Error(err))
		f.diags.add(model.SliceTooLarge, f.tree, seed, err.Error())
		return nil, nil
	}
	return set, err
}
