package semantic

import (
	"strings"

	"github.com/phobologic/apislice/internal/lang"
	"github.com/phobologic/apislice/internal/syntax"
)

// Resolver answers symbol questions about one parsed file. It caches as it
// goes and is not safe for concurrent use; each file gets its own.
type Resolver struct {
	tree    *syntax.Tree
	catalog *Catalog

	global     *Symbol
	namespaces map[string]*Symbol
	types      map[string]*Symbol
	declared   map[syntax.NodeID]*Symbol
	declNames  map[syntax.NodeID]bool
	typeNodes  map[syntax.NodeID]bool
	scopes     map[syntax.NodeID]map[string]*Symbol
	labels     map[syntax.NodeID]map[string]*Symbol
	usings     map[*Symbol][]*usingDirective
	fileScoped []fileScopedNamespace

	refs      map[syntax.NodeID]*Symbol
	resolving map[syntax.NodeID]bool
	typeRefs  map[syntax.NodeID]*Symbol
	depth     int
}

type usingDirective struct {
	alias    string
	static   bool
	target   string
	resolved bool
	symbol   *Symbol
}

type fileScopedNamespace struct {
	start uint32
	ns    *Symbol
}

var scopeKinds = map[string]bool{
	"block":                       true,
	"switch_section":              true,
	"for_statement":               true,
	"for_each_statement":          true,
	"foreach_statement":           true,
	"using_statement":             true,
	"fixed_statement":             true,
	"catch_clause":                true,
	"compilation_unit":            true,
	"global_statement":            true,
	"lambda_expression":           true,
	"anonymous_method_expression": true,
}

var typeKinds = map[string]bool{
	"identifier":            true,
	"generic_name":          true,
	"qualified_name":        true,
	"alias_qualified_name":  true,
	"predefined_type":       true,
	"implicit_type":         true,
	"array_type":            true,
	"nullable_type":         true,
	"pointer_type":          true,
	"tuple_type":            true,
	"ref_type":              true,
	"scoped_type":           true,
	"function_pointer_type": true,
}

// Bind runs the declaration pass over tree. References are resolved lazily.
func Bind(tree *syntax.Tree, catalog *Catalog) *Resolver {
	if catalog == nil {
		catalog = NewCatalog()
	}
	r := &Resolver{
		tree:       tree,
		catalog:    catalog,
		namespaces: make(map[string]*Symbol),
		types:      make(map[string]*Symbol),
		declared:   make(map[syntax.NodeID]*Symbol),
		declNames:  make(map[syntax.NodeID]bool),
		typeNodes:  make(map[syntax.NodeID]bool),
		scopes:     make(map[syntax.NodeID]map[string]*Symbol),
		labels:     make(map[syntax.NodeID]map[string]*Symbol),
		usings:     make(map[*Symbol][]*usingDirective),
		refs:       make(map[syntax.NodeID]*Symbol),
		resolving:  make(map[syntax.NodeID]bool),
		typeRefs:   make(map[syntax.NodeID]*Symbol),
	}
	r.global = newSymbol(Other, "", nil)
	r.global.Detail = "namespace"
	r.namespaces[""] = r.global
	if root := tree.Root(); root != syntax.None {
		r.declare(root, r.global, nil)
	}
	return r
}

// Tree returns the tree the resolver was built for.
func (r *Resolver) Tree() *syntax.Tree {
	return r.tree
}

func newSymbol(kind Kind, name string, container *Symbol) *Symbol {
	return &Symbol{
		Kind:      kind,
		Name:      name,
		Container: container,
		params:    -1,
		typeNode:  syntax.None,
		initNode:  syntax.None,
		iterOf:    syntax.None,
	}
}

// declare walks namespace and type level declarations.
func (r *Resolver) declare(id syntax.NodeID, ns, owner *Symbol) {
	t := r.tree
	kind := t.Kind(id)
	switch {
	case kind == "compilation_unit":
		cur := ns
		for _, c := range t.Node(id).Children {
			if t.Kind(c) == "file_scoped_namespace_declaration" {
				cur = r.declareNamespace(c, ns)
				r.fileScoped = append(r.fileScoped, fileScopedNamespace{start: t.Node(c).Start, ns: cur})
				continue
			}
			r.declare(c, cur, owner)
		}
		return
	case kind == "using_directive":
		r.declareUsing(id, ns)
		return
	case lang.IsNamespace(kind):
		r.declareNamespace(id, ns)
		return
	case lang.IsTypeDeclaration(kind):
		r.declareType(id, ns, owner)
		return
	case kind == "method_declaration":
		r.declareMethod(id, ns, owner)
		return
	case kind == "constructor_declaration", kind == "destructor_declaration",
		kind == "operator_declaration", kind == "conversion_operator_declaration":
		r.declareSpecialMethod(id, ns, owner)
		return
	case kind == "property_declaration", kind == "indexer_declaration":
		r.declareProperty(id, ns, owner)
		return
	case kind == "event_declaration":
		r.declareEvent(id, ns, owner)
		return
	case lang.IsFieldDeclaration(kind):
		r.declareField(id, ns, owner)
		return
	case kind == "global_statement":
		r.body(id)
		return
	case lang.IsComment(kind):
		return
	}
	for _, c := range t.Node(id).Children {
		r.declare(c, ns, owner)
	}
}

func (r *Resolver) declareNamespace(id syntax.NodeID, parent *Symbol) *Symbol {
	t := r.tree
	nameNode := r.nameChild(id)
	sym := parent
	if nameNode != syntax.None {
		for _, part := range strings.Split(compact(t.Text(nameNode)), ".") {
			if part != "" {
				sym = r.childNamespace(sym, part)
			}
		}
		r.markName(nameNode, sym)
	}
	sym.Decls = append(sym.Decls, id)
	r.declared[id] = sym
	for _, c := range t.Node(id).Children {
		if c != nameNode {
			r.declare(c, sym, nil)
		}
	}
	return sym
}

func (r *Resolver) childNamespace(parent *Symbol, name string) *Symbol {
	full := join(parent.full, name)
	if s := r.namespaces[full]; s != nil {
		return s
	}
	s := newSymbol(Other, name, parent)
	s.Detail = "namespace"
	s.full = full
	r.namespaces[full] = s
	return s
}

func (r *Resolver) declareUsing(id syntax.NodeID, ns *Symbol) {
	t := r.tree
	u := &usingDirective{static: t.HasToken(id, "static")}
	var names []syntax.NodeID
	for _, c := range t.NamedChildren(id) {
		switch t.Kind(c) {
		case "name_equals":
			if n := t.ChildOfKind(c, "identifier"); n != syntax.None {
				u.alias = t.Text(n)
				r.declNames[n] = true
			}
		case "identifier", "qualified_name", "generic_name", "alias_qualified_name":
			names = append(names, c)
		}
	}
	if len(names) == 0 {
		return
	}
	if u.alias == "" && t.HasToken(id, "=") && len(names) >= 2 {
		u.alias = t.Text(names[0])
		r.declNames[names[0]] = true
	}
	u.target = strings.TrimPrefix(compact(t.Text(names[len(names)-1])), "global::")
	r.usings[ns] = append(r.usings[ns], u)
}

func (r *Resolver) declareType(id syntax.NodeID, ns, owner *Symbol) {
	t := r.tree
	nameNode := r.nameChild(id)
	if nameNode == syntax.None {
		return
	}
	name := t.Text(nameNode)
	container := owner
	if container == nil {
		container = ns
	}
	full := join(fullName(container), name)
	sym := r.types[full]
	if sym == nil || sym.External {
		sym = newSymbol(NamedType, name, container)
		r.types[full] = sym
		addMember(container, sym)
	}
	sym.Decls = append(sym.Decls, id)
	sym.Static = sym.Static || hasModifier(t, id, "static")
	r.declared[id] = sym
	r.markName(nameNode, sym)
	r.declareTypeParams(id)

	if b := t.ChildOfKind(id, "base_list"); b != syntax.None {
		for _, c := range t.NamedChildren(b) {
			if typeKinds[t.Kind(c)] {
				sym.bases = append(sym.bases, c)
				r.typeNodes[c] = true
			} else if t.Kind(c) == "primary_constructor_base_type" {
				if bt := firstNamedOfKind(t, c, typeKinds); bt != syntax.None {
					sym.bases = append(sym.bases, bt)
					r.typeNodes[bt] = true
				}
			}
		}
	}

	switch t.Kind(id) {
	case "enum_declaration":
		for _, m := range t.Descendants(id, "enum_member_declaration") {
			n := r.nameChild(m)
			if n == syntax.None {
				continue
			}
			f := newSymbol(Field, t.Text(n), sym)
			f.Static = true
			f.declType = sym
			f.Decls = []syntax.NodeID{m}
			addMember(sym, f)
			r.declared[m] = f
			r.markName(n, f)
		}
		return
	case "delegate_declaration":
		r.declareParams(id)
		return
	}
	// Record primary constructor parameters live in the type's scope.
	r.declareParams(id)
	for _, c := range t.Node(id).Children {
		if c == nameNode || t.Kind(c) == "base_list" || t.Kind(c) == "parameter_list" {
			continue
		}
		r.declare(c, ns, sym)
	}
}

func (r *Resolver) declareMethod(id syntax.NodeID, ns, owner *Symbol) {
	t := r.tree
	nameNode := r.nameChild(id)
	if nameNode == syntax.None {
		r.body(id)
		return
	}
	sym := newSymbol(Method, t.Text(nameNode), containerOf(ns, owner))
	sym.Decls = []syntax.NodeID{id}
	sym.Static = hasModifier(t, id, "static")
	sym.typeNode = r.returnType(id, nameNode)
	sym.params, sym.variadic = r.countParams(id)
	if owner != nil {
		addMember(owner, sym)
	}
	r.declared[id] = sym
	r.markName(nameNode, sym)
	r.declareTypeParams(id)
	r.declareParams(id)
	r.body(id)
}

func (r *Resolver) declareSpecialMethod(id syntax.NodeID, ns, owner *Symbol) {
	t := r.tree
	name := ".ctor"
	switch t.Kind(id) {
	case "destructor_declaration":
		name = "Finalize"
	case "operator_declaration", "conversion_operator_declaration":
		name = "op"
	}
	sym := newSymbol(Method, name, containerOf(ns, owner))
	sym.Detail = "constructor"
	sym.Decls = []syntax.NodeID{id}
	sym.Static = hasModifier(t, id, "static")
	sym.params, sym.variadic = r.countParams(id)
	if owner != nil && name == ".ctor" {
		owner.ctors = append(owner.ctors, sym)
	}
	r.declared[id] = sym
	if n := t.ChildByField(id, "name"); n != syntax.None {
		r.declNames[n] = true
	} else if n := t.ChildOfKind(id, "identifier"); n != syntax.None && name != "op" {
		r.declNames[n] = true
	}
	r.declareParams(id)
	r.body(id)
}

func (r *Resolver) declareProperty(id syntax.NodeID, ns, owner *Symbol) {
	t := r.tree
	name := "this[]"
	nameNode := syntax.None
	if t.Kind(id) == "property_declaration" {
		nameNode = r.nameChild(id)
		if nameNode == syntax.None {
			r.body(id)
			return
		}
		name = t.Text(nameNode)
	}
	sym := newSymbol(Property, name, containerOf(ns, owner))
	sym.Decls = []syntax.NodeID{id}
	sym.Static = hasModifier(t, id, "static")
	sym.typeNode = r.memberType(id, nameNode)
	if owner != nil {
		addMember(owner, sym)
	}
	r.declared[id] = sym
	if nameNode != syntax.None {
		r.markName(nameNode, sym)
	}
	if t.Kind(id) == "indexer_declaration" {
		sym.params, sym.variadic = r.countParams(id)
		r.declareParams(id)
	}
	r.declareAccessors(id, sym.typeNode)
	r.body(id)
}

func (r *Resolver) declareEvent(id syntax.NodeID, ns, owner *Symbol) {
	t := r.tree
	nameNode := r.nameChild(id)
	if nameNode == syntax.None {
		return
	}
	sym := newSymbol(Other, t.Text(nameNode), containerOf(ns, owner))
	sym.Detail = "event"
	sym.Decls = []syntax.NodeID{id}
	sym.typeNode = r.memberType(id, nameNode)
	if owner != nil {
		addMember(owner, sym)
	}
	r.declared[id] = sym
	r.markName(nameNode, sym)
	r.declareAccessors(id, sym.typeNode)
	r.body(id)
}

func (r *Resolver) declareAccessors(id syntax.NodeID, typeNode syntax.NodeID) {
	t := r.tree
	list := t.ChildOfKind(id, "accessor_list")
	if list == syntax.None {
		return
	}
	for _, acc := range t.NamedChildren(list) {
		if t.Kind(acc) != "accessor_declaration" {
			continue
		}
		if t.HasToken(acc, "set") || t.HasToken(acc, "init") || t.HasToken(acc, "add") || t.HasToken(acc, "remove") {
			p := newSymbol(Parameter, "value", nil)
			p.typeNode = typeNode
			r.scope(acc)["value"] = p
		}
	}
}

func (r *Resolver) declareField(id syntax.NodeID, ns, owner *Symbol) {
	t := r.tree
	decl := t.ChildOfKind(id, "variable_declaration")
	if decl == syntax.None {
		return
	}
	kind, detail := Field, ""
	if t.Kind(id) == "event_field_declaration" {
		kind, detail = Other, "event"
	}
	static := hasModifier(t, id, "static") || hasModifier(t, id, "const")
	typeNode := r.declarationType(decl)
	for _, v := range t.NamedChildren(decl) {
		if t.Kind(v) != "variable_declarator" {
			continue
		}
		n := r.nameChild(v)
		if n == syntax.None {
			continue
		}
		sym := newSymbol(kind, t.Text(n), containerOf(ns, owner))
		sym.Detail = detail
		sym.Decls = []syntax.NodeID{v}
		sym.Static = static
		sym.typeNode = typeNode
		sym.initNode = r.initializer(v)
		if owner != nil {
			addMember(owner, sym)
		}
		r.declared[v] = sym
		r.markName(n, sym)
	}
	r.body(decl)
}

// body walks code inside a member, declaring locals, labels, parameters of
// nested functions and local functions.
func (r *Resolver) body(id syntax.NodeID) {
	t := r.tree
	switch t.Kind(id) {
	case "variable_declarator":
		if p := t.Parent(id); t.Kind(p) == "variable_declaration" && !lang.IsFieldDeclaration(t.Kind(t.Parent(p))) {
			r.declareLocal(id, r.nameChild(id), r.declarationType(p), r.initializer(id))
		}
	case "foreach_statement", "for_each_statement":
		r.declareForeach(id)
	case "catch_declaration":
		if n := r.nameChild(id); n != syntax.None {
			r.declareLocal(id, n, firstNamedOfKind(t, id, typeKinds, n), syntax.None)
		}
	case "declaration_expression", "declaration_pattern", "var_pattern", "recursive_pattern":
		r.declareDesignation(id)
	case "labeled_statement":
		if n := t.ChildOfKind(id, "identifier"); n != syntax.None {
			fn := r.enclosingFunction(id)
			sym := newSymbol(Label, t.Text(n), nil)
			sym.Decls = []syntax.NodeID{id}
			if r.labels[fn] == nil {
				r.labels[fn] = make(map[string]*Symbol)
			}
			r.labels[fn][sym.Name] = sym
			r.declared[id] = sym
			r.markName(n, sym)
		}
	case "local_function_statement":
		if n := r.nameChild(id); n != syntax.None {
			sym := newSymbol(Method, t.Text(n), r.functionContainer(id))
			sym.Decls = []syntax.NodeID{id}
			sym.typeNode = r.returnType(id, n)
			sym.params, sym.variadic = r.countParams(id)
			r.scope(r.localScope(id))[sym.Name] = sym
			r.declared[id] = sym
			r.markName(n, sym)
			r.declareTypeParams(id)
			r.declareParams(id)
		}
	case "lambda_expression", "anonymous_method_expression":
		r.declareParams(id)
		for _, c := range t.Node(id).Children {
			if k := t.Kind(c); k == "identifier" || k == "implicit_parameter" {
				r.declareImplicitParam(id, c)
				break
			} else if k == "=>" || k == "block" || k == "parameter_list" {
				break
			}
		}
	}
	for _, c := range t.Node(id).Children {
		r.body(c)
	}
}

func (r *Resolver) declareLocal(decl, nameNode, typeNode, init syntax.NodeID) *Symbol {
	if nameNode == syntax.None {
		return nil
	}
	t := r.tree
	sym := newSymbol(Local, t.Text(nameNode), r.functionContainer(decl))
	sym.Decls = []syntax.NodeID{decl}
	sym.typeNode = typeNode
	sym.initNode = init
	if typeNode != syntax.None {
		r.typeNodes[typeNode] = true
	}
	r.scope(r.localScope(decl))[sym.Name] = sym
	r.declared[decl] = sym
	r.markName(nameNode, sym)
	return sym
}

func (r *Resolver) declareForeach(id syntax.NodeID) {
	t := r.tree
	left := t.ChildByField(id, "left")
	if left == syntax.None {
		// type identifier in expression: the loop variable is the identifier before "in".
		kids := t.Node(id).Children
		for i, c := range kids {
			if t.Kind(c) == "in" && i > 0 && t.Kind(kids[i-1]) == "identifier" {
				left = kids[i-1]
				break
			}
		}
	}
	if left == syntax.None || t.Kind(left) != "identifier" {
		return
	}
	typeNode := t.ChildByField(id, "type")
	if typeNode == syntax.None {
		typeNode = firstNamedOfKind(t, id, typeKinds, left)
	}
	sym := r.declareLocal(id, left, typeNode, syntax.None)
	if sym == nil {
		return
	}
	sym.Decls = []syntax.NodeID{id}
	if right := t.ChildByField(id, "right"); right != syntax.None {
		sym.iterOf = right
	} else {
		for i, c := range t.Node(id).Children {
			if t.Kind(c) == "in" && i+1 < len(t.Node(id).Children) {
				sym.iterOf = t.Node(id).Children[i+1]
			}
		}
	}
}

func (r *Resolver) declareDesignation(id syntax.NodeID) {
	t := r.tree
	typeNode := t.ChildByField(id, "type")
	if typeNode == syntax.None {
		typeNode = firstNamedOfKind(t, id, typeKinds)
	}
	name := t.ChildByField(id, "name")
	if name == syntax.None {
		if d := t.ChildOfKind(id, "single_variable_designation"); d != syntax.None {
			name = t.ChildOfKind(d, "identifier")
		}
	}
	if name == syntax.None || name == typeNode || t.Kind(name) != "identifier" {
		return
	}
	r.declareLocal(id, name, typeNode, syntax.None)
}

func (r *Resolver) declareImplicitParam(fn, n syntax.NodeID) {
	t := r.tree
	if t.Kind(n) == "implicit_parameter" {
		if inner := t.ChildOfKind(n, "identifier"); inner != syntax.None {
			n = inner
		}
	}
	sym := newSymbol(Parameter, t.Text(n), nil)
	sym.Decls = []syntax.NodeID{n}
	r.scope(fn)[sym.Name] = sym
	r.declared[n] = sym
	r.declNames[n] = true
}

func (r *Resolver) declareParams(fn syntax.NodeID) {
	t := r.tree
	list := t.ChildOfKind(fn, "parameter_list", "bracketed_parameter_list")
	if list == syntax.None {
		return
	}
	for _, p := range t.NamedChildren(list) {
		if k := t.Kind(p); k != "parameter" && k != "parameter_array" {
			continue
		}
		n := r.nameChild(p)
		if n == syntax.None {
			continue
		}
		sym := newSymbol(Parameter, t.Text(n), nil)
		sym.Decls = []syntax.NodeID{p}
		sym.typeNode = t.ChildByField(p, "type")
		if sym.typeNode == syntax.None {
			sym.typeNode = firstNamedOfKind(t, p, typeKinds, n)
		}
		if sym.typeNode != syntax.None {
			r.typeNodes[sym.typeNode] = true
		}
		r.scope(fn)[sym.Name] = sym
		r.declared[p] = sym
		r.markName(n, sym)
	}
}

func (r *Resolver) declareTypeParams(id syntax.NodeID) {
	t := r.tree
	list := t.ChildOfKind(id, "type_parameter_list")
	if list == syntax.None {
		return
	}
	for _, p := range t.NamedChildren(list) {
		if t.Kind(p) != "type_parameter" {
			continue
		}
		n := t.ChildByField(p, "name")
		if n == syntax.None {
			n = t.ChildOfKind(p, "identifier")
		}
		if n == syntax.None {
			continue
		}
		sym := newSymbol(NamedType, t.Text(n), nil)
		sym.Detail = "type parameter"
		sym.Decls = []syntax.NodeID{p}
		r.scope(id)[sym.Name] = sym
		r.declared[p] = sym
		r.markName(n, sym)
	}
}

func (r *Resolver) scope(id syntax.NodeID) map[string]*Symbol {
	m := r.scopes[id]
	if m == nil {
		m = make(map[string]*Symbol)
		r.scopes[id] = m
	}
	return m
}

func (r *Resolver) localScope(id syntax.NodeID) syntax.NodeID {
	t := r.tree
	s := t.Ancestor(id, func(k string) bool { return scopeKinds[k] || lang.IsFunction(k) })
	if s == syntax.None {
		return t.Root()
	}
	return s
}

func (r *Resolver) enclosingFunction(id syntax.NodeID) syntax.NodeID {
	t := r.tree
	fn := t.Ancestor(id, lang.IsFunction)
	if fn == syntax.None {
		return t.Root()
	}
	return fn
}

// functionContainer is the member a local belongs to, for naming only.
func (r *Resolver) functionContainer(id syntax.NodeID) *Symbol {
	t := r.tree
	for a := t.Parent(id); a != syntax.None; a = t.Parent(a) {
		if s := r.declared[a]; s != nil && (s.Kind == Method || s.Kind == Property || s.IsType()) {
			return s
		}
	}
	return r.global
}

func (r *Resolver) markName(n syntax.NodeID, sym *Symbol) {
	t := r.tree
	r.declNames[n] = true
	r.declared[n] = sym
	for _, d := range t.Descendants(n, "identifier") {
		r.declNames[d] = true
	}
}

// nameChild finds the identifier a declaration introduces. Field names are
// preferred; the fallbacks cover grammar versions without them.
func (r *Resolver) nameChild(id syntax.NodeID) syntax.NodeID {
	t := r.tree
	if n := t.ChildByField(id, "name"); n != syntax.None {
		return n
	}
	kids := t.Node(id).Children
	switch t.Kind(id) {
	case "namespace_declaration", "file_scoped_namespace_declaration":
		return t.ChildOfKind(id, "qualified_name", "identifier")
	case "method_declaration", "local_function_statement":
		for i, c := range kids {
			if k := t.Kind(c); k == "parameter_list" || k == "type_parameter_list" {
				if i > 0 && t.Kind(kids[i-1]) == "identifier" {
					return kids[i-1]
				}
				break
			}
		}
	case "parameter", "catch_declaration", "property_declaration", "event_declaration":
		last := syntax.None
		for _, c := range kids {
			if k := t.Kind(c); k == "=" || k == "equals_value_clause" || k == "accessor_list" || k == "arrow_expression_clause" {
				break
			}
			if t.Kind(c) == "identifier" {
				last = c
			}
		}
		return last
	}
	return t.ChildOfKind(id, "identifier")
}

func (r *Resolver) returnType(id, nameNode syntax.NodeID) syntax.NodeID {
	t := r.tree
	for _, f := range []string{"type", "returns"} {
		if n := t.ChildByField(id, f); n != syntax.None {
			r.typeNodes[n] = true
			return n
		}
	}
	return r.memberType(id, nameNode)
}

// memberType returns the type written before a member's name.
func (r *Resolver) memberType(id, nameNode syntax.NodeID) syntax.NodeID {
	t := r.tree
	if n := t.ChildByField(id, "type"); n != syntax.None {
		r.typeNodes[n] = true
		return n
	}
	found := syntax.None
	for _, c := range t.Node(id).Children {
		if c == nameNode {
			break
		}
		if typeKinds[t.Kind(c)] {
			found = c
		}
	}
	if found != syntax.None {
		r.typeNodes[found] = true
	}
	return found
}

func (r *Resolver) declarationType(decl syntax.NodeID) syntax.NodeID {
	t := r.tree
	n := t.ChildByField(decl, "type")
	if n == syntax.None {
		n = firstNamedOfKind(t, decl, typeKinds)
	}
	if n != syntax.None {
		r.typeNodes[n] = true
	}
	return n
}

// initializer returns the value expression of a declarator.
func (r *Resolver) initializer(v syntax.NodeID) syntax.NodeID {
	t := r.tree
	if eq := t.ChildOfKind(v, "equals_value_clause"); eq != syntax.None {
		if named := t.NamedChildren(eq); len(named) > 0 {
			return named[0]
		}
		return syntax.None
	}
	if n := t.ChildByField(v, "value"); n != syntax.None {
		return n
	}
	seen := false
	for _, c := range t.Node(v).Children {
		if t.Kind(c) == "=" {
			seen = true
			continue
		}
		if seen && t.Node(c).Named {
			return c
		}
	}
	return syntax.None
}

func (r *Resolver) countParams(id syntax.NodeID) (int, bool) {
	t := r.tree
	list := t.ChildOfKind(id, "parameter_list", "bracketed_parameter_list")
	if list == syntax.None {
		return 0, false
	}
	n, variadic := 0, false
	for _, p := range t.NamedChildren(list) {
		switch t.Kind(p) {
		case "parameter":
			n++
			if t.HasToken(p, "params") || hasModifier(t, p, "params") {
				variadic = true
			}
		case "parameter_array":
			n++
			variadic = true
		}
	}
	return n, variadic
}

func addMember(container *Symbol, sym *Symbol) {
	if container.members == nil {
		container.members = make(map[string][]*Symbol)
	}
	container.members[sym.Name] = append(container.members[sym.Name], sym)
}

func containerOf(ns, owner *Symbol) *Symbol {
	if owner != nil {
		return owner
	}
	return ns
}

func fullName(s *Symbol) string {
	if s.IsNamespace() {
		return s.full
	}
	return TypeString(s)
}

func hasModifier(t *syntax.Tree, id syntax.NodeID, mod string) bool {
	for _, c := range t.Node(id).Children {
		switch t.Kind(c) {
		case "modifier", "parameter_modifier":
			if t.Text(c) == mod {
				return true
			}
		case mod:
			return true
		}
	}
	return false
}

// firstNamedOfKind returns the first named child in kinds, skipping except.
func firstNamedOfKind(t *syntax.Tree, id syntax.NodeID, kinds map[string]bool, except ...syntax.NodeID) syntax.NodeID {
	for _, c := range t.NamedChildren(id) {
		skip := false
		for _, e := range except {
			if c == e {
				skip = true
			}
		}
		if !skip && kinds[t.Kind(c)] {
			return c
		}
	}
	return syntax.None
}

func join(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

func compact(s string) string {
	return strings.Join(strings.Fields(s), "")
}
