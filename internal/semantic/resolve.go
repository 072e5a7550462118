package semantic

import (
	"strings"

	"github.com/phobologic/apislice/internal/lang"
	"github.com/phobologic/apislice/internal/syntax"
)

const maxInferenceDepth = 32

// builtinKeywords maps C# keyword types to their runtime names. The catalog
// normally carries the same aliases; these keep keywords bindable without it.
var builtinKeywords = map[string]string{
	"bool":    "System.Boolean",
	"byte":    "System.Byte",
	"sbyte":   "System.SByte",
	"char":    "System.Char",
	"decimal": "System.Decimal",
	"double":  "System.Double",
	"float":   "System.Single",
	"int":     "System.Int32",
	"uint":    "System.UInt32",
	"long":    "System.Int64",
	"ulong":   "System.UInt64",
	"short":   "System.Int16",
	"ushort":  "System.UInt16",
	"object":  "System.Object",
	"string":  "System.String",
	"void":    "System.Void",
	"nint":    "System.IntPtr",
	"nuint":   "System.UIntPtr",
}

var keywordByName = func() map[string]string {
	m := make(map[string]string, len(builtinKeywords))
	for k, v := range builtinKeywords {
		if k != "nint" && k != "nuint" {
			m[v] = k
		}
	}
	return m
}()

// DeclaredSymbol returns the symbol a declaration node (or its name
// identifier) introduces, or nil.
func (r *Resolver) DeclaredSymbol(id syntax.NodeID) *Symbol {
	if id == syntax.None {
		return nil
	}
	return r.declared[id]
}

// DeclaringNodes returns the in-file declaring nodes of s. External symbols
// have none.
func (r *Resolver) DeclaringNodes(s *Symbol) []syntax.NodeID {
	if s == nil || s.External {
		return nil
	}
	return s.Decls
}

// IsDeclarationName reports whether id is the name of a declaration rather
// than a use.
func (r *Resolver) IsDeclarationName(id syntax.NodeID) bool {
	return r.declNames[id]
}

// IsForeignImport reports whether a method declaration carries a DllImport
// attribute.
func (r *Resolver) IsForeignImport(decl syntax.NodeID) bool {
	t := r.tree
	if decl == syntax.None {
		return false
	}
	for _, list := range t.Node(decl).Children {
		if t.Kind(list) != "attribute_list" {
			continue
		}
		for _, attr := range t.NamedChildren(list) {
			if t.Kind(attr) != "attribute" {
				continue
			}
			name := t.ChildByField(attr, "name")
			if name == syntax.None {
				named := t.NamedChildren(attr)
				if len(named) == 0 {
					continue
				}
				name = named[0]
			}
			n := compact(t.Text(name))
			for _, want := range []string{"DllImport", "DllImportAttribute"} {
				if n == want || strings.HasSuffix(n, "."+want) {
					return true
				}
			}
		}
	}
	return false
}

// References returns the name nodes strictly below root that refer to
// something: identifiers that are not declaration names, plus generic names.
func (r *Resolver) References(root syntax.NodeID) []syntax.NodeID {
	t := r.tree
	var out []syntax.NodeID
	for d := root + 1; d <= t.Node(root).Last; d++ {
		if r.isReference(d) {
			out = append(out, d)
		}
	}
	return out
}

func (r *Resolver) isReference(id syntax.NodeID) bool {
	t := r.tree
	switch t.Kind(id) {
	case "generic_name":
		return true
	case "identifier":
	default:
		return false
	}
	if r.declNames[id] {
		return false
	}
	switch t.Kind(t.Parent(id)) {
	case "generic_name", "name_colon", "name_equals", "using_directive":
		return false
	}
	if t.Text(id) == "var" && r.typeNodes[id] {
		return false
	}
	return true
}

// Resolve returns the symbol a reference denotes, or nil when it cannot be
// bound. Invocations resolve to their target method.
func (r *Resolver) Resolve(id syntax.NodeID) *Symbol {
	if id == syntax.None {
		return nil
	}
	if s, ok := r.refs[id]; ok {
		return s
	}
	if r.resolving[id] || r.depth > maxInferenceDepth {
		return nil
	}
	r.resolving[id] = true
	r.depth++
	s := r.resolve(id)
	r.depth--
	delete(r.resolving, id)
	r.refs[id] = s
	return s
}

func (r *Resolver) resolve(id syntax.NodeID) *Symbol {
	t := r.tree
	switch t.Kind(id) {
	case "identifier", "generic_name":
		return r.resolveName(id)
	case "member_access_expression":
		return r.resolveMemberAccess(id)
	case "member_binding_expression":
		return r.resolveBinding(id)
	case "qualified_name":
		return r.resolveQualified(id)
	case "invocation_expression":
		s := r.Resolve(r.callee(id))
		if s != nil && s.Kind == Method {
			return s
		}
		return nil
	case "object_creation_expression":
		ty := r.ExprType(id)
		if ty == nil {
			return nil
		}
		return r.constructor(genericDef(ty), argCount(t, id))
	case "this_expression":
		return r.enclosingType(id)
	case "predefined_type":
		return r.keywordType(t.Text(id))
	}
	if typeKinds[t.Kind(id)] {
		return r.ResolveType(id)
	}
	return r.declared[id]
}

func (r *Resolver) resolveName(id syntax.NodeID) *Symbol {
	t := r.tree
	name := r.simpleName(id)
	parent := t.Parent(id)
	switch t.Kind(parent) {
	case "goto_statement":
		return r.lookupLabel(id, name)
	case "member_access_expression":
		if r.memberName(parent) == id {
			return r.Resolve(parent)
		}
	case "member_binding_expression":
		return r.Resolve(parent)
	case "qualified_name":
		if r.qualifiedRight(parent) == id {
			return r.Resolve(parent)
		}
		return r.lookupNamespaceOrType(id, name, typeArity(t, id))
	case "using_directive":
		return r.lookupNamespaceOrType(id, name, 0)
	}
	if r.isTypeContext(id) {
		if s := r.lookupType(id, name, typeArity(t, id)); s != nil {
			return s
		}
	}
	call := r.invocationOf(id)
	if s := r.lookupValue(id, name, call); s != nil {
		return s
	}
	if s := r.lookupNamespaceOrType(id, name, typeArity(t, id)); s != nil {
		return s
	}
	// An unqualified call to a method inherited from a referenced base type.
	if owner := r.enclosingType(id); owner != nil && call.invoked {
		return r.findMember(owner, name, call, true)
	}
	return nil
}

func (r *Resolver) simpleName(id syntax.NodeID) string {
	t := r.tree
	if t.Kind(id) == "generic_name" {
		if n := t.ChildOfKind(id, "identifier"); n != syntax.None {
			id = n
		}
	}
	return strings.TrimPrefix(t.Text(id), "@")
}

func typeArity(t *syntax.Tree, id syntax.NodeID) int {
	if t.Kind(id) != "generic_name" {
		return 0
	}
	list := t.ChildOfKind(id, "type_argument_list")
	if list == syntax.None {
		return 0
	}
	n := 0
	for _, c := range t.NamedChildren(list) {
		if !lang.IsComment(t.Kind(c)) {
			n++
		}
	}
	if n == 0 {
		// Unbound generic such as typeof(List<>): count the commas.
		n = 1
		for _, c := range t.Node(list).Children {
			if t.Kind(c) == "," {
				n++
			}
		}
	}
	return n
}

func argCount(t *syntax.Tree, id syntax.NodeID) int {
	list := t.ChildOfKind(id, "argument_list")
	if list == syntax.None {
		return 0
	}
	n := 0
	for _, c := range t.NamedChildren(list) {
		if t.Kind(c) == "argument" {
			n++
		}
	}
	return n
}

func (r *Resolver) callee(inv syntax.NodeID) syntax.NodeID {
	t := r.tree
	if f := t.ChildByField(inv, "function"); f != syntax.None {
		return f
	}
	named := t.NamedChildren(inv)
	if len(named) == 0 {
		return syntax.None
	}
	return named[0]
}

// Callee returns the expression an invocation calls.
func (r *Resolver) Callee(inv syntax.NodeID) syntax.NodeID {
	return r.callee(inv)
}

// MemberReceiver returns the expression to the left of the dot.
func (r *Resolver) MemberReceiver(ma syntax.NodeID) syntax.NodeID {
	t := r.tree
	if e := t.ChildByField(ma, "expression"); e != syntax.None {
		return e
	}
	named := t.NamedChildren(ma)
	if len(named) == 0 {
		return syntax.None
	}
	return named[0]
}

func (r *Resolver) memberName(ma syntax.NodeID) syntax.NodeID {
	t := r.tree
	if n := t.ChildByField(ma, "name"); n != syntax.None {
		return n
	}
	named := t.NamedChildren(ma)
	if len(named) == 0 {
		return syntax.None
	}
	return named[len(named)-1]
}

func (r *Resolver) qualifiedRight(qn syntax.NodeID) syntax.NodeID {
	t := r.tree
	if n := t.ChildByField(qn, "name"); n != syntax.None {
		return n
	}
	named := t.NamedChildren(qn)
	if len(named) == 0 {
		return syntax.None
	}
	return named[len(named)-1]
}

func (r *Resolver) qualifiedLeft(qn syntax.NodeID) syntax.NodeID {
	t := r.tree
	if n := t.ChildByField(qn, "qualifier"); n != syntax.None {
		return n
	}
	named := t.NamedChildren(qn)
	if len(named) == 0 {
		return syntax.None
	}
	return named[0]
}

// callSite describes how a name is used: whether it is called, and with
// which arguments. arity is -1 when it is not called.
type callSite struct {
	invoked bool
	arity   int
	args    []syntax.NodeID
}

var notCalled = callSite{arity: -1}

// invocationOf reports whether the name at id is being called, and with
// which arguments.
func (r *Resolver) invocationOf(id syntax.NodeID) callSite {
	t := r.tree
	expr := id
	if p := t.Parent(id); (t.Kind(p) == "member_access_expression" && r.memberName(p) == id) ||
		t.Kind(p) == "member_binding_expression" {
		expr = p
		if t.Kind(p) == "member_binding_expression" {
			if cae := t.Parent(p); t.Kind(cae) == "conditional_access_expression" {
				if inv := t.Parent(cae); t.Kind(inv) == "invocation_expression" && r.callee(inv) == cae {
					return r.callSiteOf(inv)
				}
			}
		}
	}
	inv := t.Parent(expr)
	if t.Kind(inv) == "invocation_expression" && r.callee(inv) == expr {
		return r.callSiteOf(inv)
	}
	return notCalled
}

func (r *Resolver) callSiteOf(inv syntax.NodeID) callSite {
	t := r.tree
	call := callSite{invoked: true}
	if list := t.ChildOfKind(inv, "argument_list"); list != syntax.None {
		for _, a := range t.NamedChildren(list) {
			if t.Kind(a) != "argument" {
				continue
			}
			expr := syntax.None
			for _, c := range t.NamedChildren(a) {
				if t.Kind(c) != "name_colon" {
					expr = c
				}
			}
			call.args = append(call.args, expr)
		}
	}
	call.arity = len(call.args)
	return call
}

func (r *Resolver) isTypeContext(id syntax.NodeID) bool {
	t := r.tree
	if r.typeNodes[id] {
		return true
	}
	parent := t.Parent(id)
	first := syntax.None
	if named := t.NamedChildren(parent); len(named) > 0 {
		first = named[0]
	}
	switch t.Kind(parent) {
	case "type_argument_list", "base_list", "array_type", "nullable_type", "pointer_type",
		"typeof_expression", "sizeof_expression", "default_expression",
		"type_parameter_constraint", "ref_type", "scoped_type", "explicit_interface_specifier":
		return true
	case "object_creation_expression", "array_creation_expression", "cast_expression", "attribute":
		if f := t.ChildByField(parent, "type"); f != syntax.None {
			return f == id
		}
		if f := t.ChildByField(parent, "name"); f != syntax.None {
			return f == id
		}
		return first == id
	case "as_expression", "is_expression":
		if f := t.ChildByField(parent, "right"); f != syntax.None {
			return f == id
		}
		named := t.NamedChildren(parent)
		return len(named) > 1 && named[len(named)-1] == id
	}
	return false
}

// lookupValue walks the enclosing scopes and types outward.
func (r *Resolver) lookupValue(at syntax.NodeID, name string, call callSite) *Symbol {
	t := r.tree
	for a := t.Parent(at); a != syntax.None; a = t.Parent(a) {
		if m := r.scopes[a]; m != nil {
			if s := m[name]; s != nil && !(s.IsType() && call.invoked) {
				return s
			}
		}
		if lang.IsTypeDeclaration(t.Kind(a)) {
			if owner := r.declared[a]; owner != nil && owner.IsType() {
				if s := r.findMember(owner, name, call, false); s != nil {
					return s
				}
			}
		}
	}
	for ns := r.namespaceAt(at); ns != nil; ns = ns.Container {
		for _, u := range r.usings[ns] {
			if !u.static {
				continue
			}
			if ty := r.usingTarget(u); ty.IsType() {
				if s := r.findMember(ty, name, call, false); s != nil {
					return s
				}
			}
		}
	}
	return nil
}

func (r *Resolver) lookupLabel(at syntax.NodeID, name string) *Symbol {
	fn := r.enclosingFunction(at)
	return r.labels[fn][name]
}

// lookupType finds a type by simple name from the position at.
func (r *Resolver) lookupType(at syntax.NodeID, name string, arity int) *Symbol {
	t := r.tree
	for a := t.Parent(at); a != syntax.None; a = t.Parent(a) {
		if m := r.scopes[a]; m != nil {
			if s := m[name]; s != nil && s.IsType() {
				return s
			}
		}
		if lang.IsTypeDeclaration(t.Kind(a)) {
			if owner := r.declared[a]; owner != nil {
				if s := r.nestedType(owner, name); s != nil {
					return s
				}
			}
		}
	}
	for ns := r.namespaceAt(at); ns != nil; ns = ns.Container {
		if s := r.typeIn(ns, name); s != nil {
			return s
		}
		for _, u := range r.usings[ns] {
			if u.alias == name {
				if s := r.usingTarget(u); s.IsType() {
					return s
				}
			}
		}
		for _, u := range r.usings[ns] {
			if u.alias != "" {
				continue
			}
			target := r.usingTarget(u)
			switch {
			case target.IsNamespace():
				if s := r.typeIn(target, name); s != nil {
					return s
				}
			case target.IsType():
				if s := r.nestedType(target, name); s != nil {
					return s
				}
			}
		}
	}
	return nil
}

func (r *Resolver) lookupNamespaceOrType(at syntax.NodeID, name string, arity int) *Symbol {
	if s := r.lookupType(at, name, arity); s != nil {
		return s
	}
	for ns := r.namespaceAt(at); ns != nil; ns = ns.Container {
		if s := r.namespace(join(ns.full, name)); s != nil {
			return s
		}
		for _, u := range r.usings[ns] {
			if u.alias == name {
				if s := r.usingTarget(u); s.IsNamespace() {
					return s
				}
			}
		}
	}
	return nil
}

func (r *Resolver) namespaceAt(at syntax.NodeID) *Symbol {
	t := r.tree
	if a := t.Ancestor(at, lang.IsNamespace); a != syntax.None {
		if s := r.declared[a]; s != nil {
			return s
		}
	}
	start := t.Node(at).Start
	ns := r.global
	for _, fs := range r.fileScoped {
		if fs.start <= start {
			ns = fs.ns
		}
	}
	return ns
}

func (r *Resolver) usingTarget(u *usingDirective) *Symbol {
	if u.resolved {
		return u.symbol
	}
	u.resolved = true
	if s := r.namespace(u.target); s != nil {
		u.symbol = s
	} else {
		u.symbol = r.typeByName(u.target)
	}
	return u.symbol
}

// namespace returns the namespace with the given full name if the file
// declares it or any reference lives in it.
func (r *Resolver) namespace(full string) *Symbol {
	if s := r.namespaces[full]; s != nil {
		return s
	}
	if !r.catalog.HasNamespace(full) {
		return nil
	}
	ns := r.global
	for _, part := range strings.Split(full, ".") {
		ns = r.childNamespace(ns, part)
	}
	return ns
}

// typeIn finds a type named name directly inside a namespace or type.
func (r *Resolver) typeIn(container *Symbol, name string) *Symbol {
	if container.IsType() {
		return r.nestedType(container, name)
	}
	for _, m := range container.members[name] {
		if m.IsType() {
			return m
		}
	}
	return r.typeByName(join(container.full, name))
}

func (r *Resolver) nestedType(owner *Symbol, name string) *Symbol {
	if owner == nil {
		return nil
	}
	def := genericDef(owner)
	for _, m := range def.members[name] {
		if m.IsType() {
			return m
		}
	}
	if def.External {
		return r.typeByName(TypeString(def) + "." + name)
	}
	return nil
}

// typeByName instantiates a type from its full name: in-file types first,
// then the catalog.
func (r *Resolver) typeByName(name string) *Symbol {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	if strings.HasSuffix(name, "[]") {
		return r.arrayOf(r.typeByName(strings.TrimSuffix(name, "[]")))
	}
	if full, ok := r.catalog.Keyword(name); ok {
		name = full
	} else if full, ok := builtinKeywords[name]; ok {
		name = full
	}
	if s := r.types[name]; s != nil {
		return s
	}
	spec, ok := r.catalog.Type(name)
	if !ok {
		if alias, builtin := keywordByName[name]; builtin {
			s := newSymbol(NamedType, simpleName(name), r.namespace("System"))
			if s.Container == nil {
				s.Container = r.childNamespace(r.global, "System")
			}
			s.External = true
			s.Alias = alias
			r.types[name] = s
			return s
		}
		return nil
	}
	outer := namespaceOf(name)
	var container *Symbol
	if _, isType := r.catalog.Type(outer); isType {
		container = r.typeByName(outer)
	} else if outer == "" {
		container = r.global
	} else {
		container = r.namespace(outer)
	}
	s := newSymbol(NamedType, simpleName(name), container)
	s.External = true
	s.spec = spec
	s.Static = spec.Static
	s.baseRef = spec.Base
	s.Alias = keywordByName[name]
	r.types[name] = s
	return s
}

func (r *Resolver) keywordType(kw string) *Symbol {
	return r.typeByName(strings.TrimSpace(kw))
}

func (r *Resolver) arrayOf(elem *Symbol) *Symbol {
	if elem == nil {
		return nil
	}
	s := newSymbol(NamedType, elem.Name+"[]", elem.Container)
	s.Detail = "array"
	s.elem = elem
	return s
}

func (r *Resolver) enclosingType(at syntax.NodeID) *Symbol {
	t := r.tree
	if a := t.Ancestor(at, lang.IsTypeDeclaration); a != syntax.None {
		return r.declared[a]
	}
	return nil
}

func (r *Resolver) constructor(ty *Symbol, arity int) *Symbol {
	if ty == nil {
		return nil
	}
	for _, c := range ty.ctors {
		if c.params == arity || (c.variadic && arity >= c.params-1) {
			return c
		}
	}
	return nil
}

// findMember looks name up in ty and its bases. When nothing matches and ty
// derives from a referenced type, the member is assumed to live there.
func (r *Resolver) findMember(ty *Symbol, name string, call callSite, synthesize bool) *Symbol {
	if ty == nil {
		return nil
	}
	start := r.memberHost(ty)
	if start == nil {
		return nil
	}
	seen := make(map[*Symbol]bool)
	queue := []*Symbol{start}
	var external *Symbol
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == nil || seen[cur] {
			continue
		}
		seen[cur] = true
		r.loadMembers(cur)
		if s := r.pick(cur.members[name], call); s != nil {
			return s
		}
		if external == nil && cur.External && TypeString(cur) != "object" {
			external = cur
		}
		queue = append(queue, r.baseTypes(cur)...)
	}
	if !synthesize || external == nil {
		return nil
	}
	kind := Property
	if call.invoked {
		kind = Method
	}
	for _, m := range external.members[name] {
		if m.Kind == kind {
			return m
		}
	}
	s := newSymbol(kind, name, external)
	s.External = true
	addMember(external, s)
	return s
}

// memberHost is the type whose member table answers lookups on t.
func (r *Resolver) memberHost(t *Symbol) *Symbol {
	switch t.Detail {
	case "generic":
		return genericDef(t)
	case "array":
		if a := r.typeByName("System.Array"); a != nil {
			return a
		}
		return nil
	case "nullable":
		return r.memberHost(t.elem)
	case "pointer", "type parameter":
		return nil
	}
	if t.IsNamespace() {
		return nil
	}
	return t
}

// pick chooses among same-named members. A call prefers methods whose
// parameter count fits; several fitting overloads are ranked by how well
// the argument types match, the first declared winning ties.
func (r *Resolver) pick(cands []*Symbol, call callSite) *Symbol {
	if len(cands) == 0 {
		return nil
	}
	if call.invoked {
		var fits []*Symbol
		var fallback *Symbol
		for _, c := range cands {
			if c.Kind != Method {
				continue
			}
			if c.params < 0 || call.arity < 0 || c.params == call.arity || (c.variadic && call.arity >= c.params-1) {
				fits = append(fits, c)
			}
			if fallback == nil {
				fallback = c
			}
		}
		switch {
		case len(fits) == 1:
			return fits[0]
		case len(fits) > 1:
			return r.bestOverload(fits, call.args)
		case fallback != nil:
			return fallback
		}
		// Delegate-typed fields and properties can be invoked too.
		return cands[0]
	}
	for _, c := range cands {
		if c.Kind != Method {
			return c
		}
	}
	return cands[0]
}

func (r *Resolver) bestOverload(fits []*Symbol, args []syntax.NodeID) *Symbol {
	argTypes := make([]*Symbol, len(args))
	known := false
	for i, a := range args {
		if argTypes[i] = r.ExprType(a); argTypes[i] != nil {
			known = true
		}
	}
	if !known {
		return fits[0]
	}
	best, bestScore := fits[0], -1<<30
	for _, c := range fits {
		params := r.paramTypes(c)
		score := 0
		for i, at := range argTypes {
			if at == nil || i >= len(params) || params[i] == nil {
				continue
			}
			score += r.conversionScore(at, params[i])
		}
		if score > bestScore {
			best, bestScore = c, score
		}
	}
	return best
}

// paramTypes returns the declared parameter types of an in-file method, nil
// where unknown. A params array contributes its element type, repeated for
// every trailing argument position.
func (r *Resolver) paramTypes(m *Symbol) []*Symbol {
	if m.External || len(m.Decls) == 0 {
		return nil
	}
	t := r.tree
	list := t.ChildOfKind(m.Decls[0], "parameter_list", "bracketed_parameter_list")
	if list == syntax.None {
		return nil
	}
	var out []*Symbol
	for _, p := range t.NamedChildren(list) {
		if k := t.Kind(p); k != "parameter" && k != "parameter_array" {
			continue
		}
		out = append(out, r.TypeOf(r.declared[p]))
	}
	if m.variadic && len(out) > 0 {
		if last := out[len(out)-1]; last != nil && last.Detail == "array" {
			out[len(out)-1] = last.elem
			for i := 0; i < 8; i++ {
				out = append(out, last.elem)
			}
		}
	}
	return out
}

var numericWidening = map[string][]string{
	"sbyte":  {"short", "int", "long", "float", "double", "decimal"},
	"byte":   {"short", "ushort", "int", "uint", "long", "ulong", "float", "double", "decimal"},
	"short":  {"int", "long", "float", "double", "decimal"},
	"ushort": {"int", "uint", "long", "ulong", "float", "double", "decimal"},
	"int":    {"long", "float", "double", "decimal"},
	"uint":   {"long", "ulong", "float", "double", "decimal"},
	"long":   {"float", "double", "decimal"},
	"ulong":  {"float", "double", "decimal"},
	"char":   {"ushort", "int", "uint", "long", "ulong", "float", "double", "decimal"},
	"float":  {"double"},
}

// conversionScore rates passing a value of type arg to a parameter of type
// param: 2 for identity, 1 for an implicit conversion, -1 otherwise.
func (r *Resolver) conversionScore(arg, param *Symbol) int {
	from, to := TypeString(arg), TypeString(param)
	if from == to {
		return 2
	}
	if to == "object" || param.Detail == "type parameter" {
		return 1
	}
	for _, w := range numericWidening[from] {
		if w == to {
			return 1
		}
	}
	seen := make(map[*Symbol]bool)
	queue := []*Symbol{genericDef(arg)}
	want := genericDef(param)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == nil || seen[cur] || cur.Detail != "" {
			continue
		}
		seen[cur] = true
		if cur == want || TypeString(cur) == TypeString(want) {
			return 1
		}
		queue = append(queue, r.baseTypes(cur)...)
	}
	return -1
}

func (r *Resolver) loadMembers(t *Symbol) {
	if t.spec == nil || t.loaded {
		return
	}
	t.loaded = true
	for _, m := range t.spec.Members {
		kind, detail := Property, ""
		switch m.Kind {
		case "method":
			kind = Method
		case "field":
			kind = Field
		case "event":
			kind, detail = Other, "event"
		}
		s := newSymbol(kind, m.Name, t)
		s.Detail = detail
		s.External = true
		s.Static = m.Static
		s.typeName = m.Type
		if m.Params != nil {
			s.params = *m.Params
		}
		addMember(t, s)
	}
}

func (r *Resolver) baseTypes(t *Symbol) []*Symbol {
	var out []*Symbol
	if t.External {
		if t.baseRef != "" {
			if b := r.typeByName(t.baseRef); b != nil {
				out = append(out, b)
			}
		} else if TypeString(t) != "object" {
			if b := r.typeByName("System.Object"); b != nil {
				out = append(out, b)
			}
		}
		return out
	}
	for _, b := range t.bases {
		if bt := r.ResolveType(b); bt != nil {
			out = append(out, genericDef(bt))
		}
	}
	if obj := r.typeByName("System.Object"); obj != nil {
		out = append(out, obj)
	}
	return out
}

func (r *Resolver) resolveMemberAccess(ma syntax.NodeID) *Symbol {
	nameNode := r.memberName(ma)
	if nameNode == syntax.None {
		return nil
	}
	recv := r.receiver(r.MemberReceiver(ma))
	if recv == nil {
		return nil
	}
	name := r.simpleName(nameNode)
	if recv.IsNamespace() {
		if s := r.typeIn(recv, name); s != nil {
			return s
		}
		return r.namespace(join(recv.full, name))
	}
	return r.findMember(recv, name, r.invocationOf(nameNode), true)
}

func (r *Resolver) resolveBinding(mb syntax.NodeID) *Symbol {
	t := r.tree
	cae := t.AncestorOfKind(mb, "conditional_access_expression")
	if cae == syntax.None {
		return nil
	}
	named := t.NamedChildren(cae)
	if len(named) == 0 {
		return nil
	}
	recv := r.receiver(named[0])
	if recv == nil || recv.IsNamespace() {
		return nil
	}
	nameNode := r.memberName(mb)
	return r.findMember(recv, r.simpleName(nameNode), r.invocationOf(nameNode), true)
}

func (r *Resolver) resolveQualified(qn syntax.NodeID) *Symbol {
	left := r.Resolve(r.qualifiedLeft(qn))
	right := r.qualifiedRight(qn)
	if left == nil || right == syntax.None {
		return nil
	}
	name := r.simpleName(right)
	if left.IsNamespace() {
		if s := r.typeIn(left, name); s != nil {
			return s
		}
		return r.namespace(join(left.full, name))
	}
	if left.IsType() {
		return r.nestedType(left, name)
	}
	return nil
}

// receiver returns the namespace or type an expression left of a dot
// denotes: the namespace or type itself when the name binds to one,
// otherwise the type of the value.
func (r *Resolver) receiver(expr syntax.NodeID) *Symbol {
	t := r.tree
	switch t.Kind(expr) {
	case "identifier", "generic_name", "member_access_expression", "qualified_name", "member_binding_expression":
		s := r.Resolve(expr)
		switch {
		case s == nil:
			return nil
		case s.IsNamespace(), s.IsType():
			return s
		case s.Kind == Method:
			return nil
		}
		return r.TypeOf(s)
	case "base_expression":
		if ty := r.enclosingType(expr); ty != nil {
			if bases := r.baseTypes(ty); len(bases) > 0 {
				return bases[0]
			}
		}
		return nil
	case "predefined_type":
		return r.keywordType(t.Text(expr))
	}
	return r.ExprType(expr)
}

// ResolveType binds a type syntax node.
func (r *Resolver) ResolveType(id syntax.NodeID) *Symbol {
	if id == syntax.None {
		return nil
	}
	if s, ok := r.typeRefs[id]; ok {
		return s
	}
	if r.depth > maxInferenceDepth {
		return nil
	}
	r.depth++
	s := r.resolveType(id)
	r.depth--
	r.typeRefs[id] = s
	return s
}

func (r *Resolver) resolveType(id syntax.NodeID) *Symbol {
	t := r.tree
	inner := func() syntax.NodeID {
		if n := t.ChildByField(id, "type"); n != syntax.None {
			return n
		}
		if n := t.ChildByField(id, "element_type"); n != syntax.None {
			return n
		}
		return firstNamedOfKind(t, id, typeKinds)
	}
	switch t.Kind(id) {
	case "predefined_type":
		return r.keywordType(t.Text(id))
	case "implicit_type":
		return nil
	case "identifier":
		name := r.simpleName(id)
		s := r.lookupType(id, name, 0)
		if s == nil && name == "dynamic" {
			return r.typeByName("System.Object")
		}
		return s
	case "generic_name":
		list := t.ChildOfKind(id, "type_argument_list")
		var args []*Symbol
		if list != syntax.None {
			for _, a := range t.NamedChildren(list) {
				args = append(args, r.ResolveType(a))
			}
		}
		def := r.lookupType(id, r.simpleName(id), len(args))
		return r.construct(def, args)
	case "qualified_name":
		s := r.Resolve(id)
		if !s.IsType() {
			return nil
		}
		if right := r.qualifiedRight(id); t.Kind(right) == "generic_name" {
			var args []*Symbol
			if list := t.ChildOfKind(right, "type_argument_list"); list != syntax.None {
				for _, a := range t.NamedChildren(list) {
					args = append(args, r.ResolveType(a))
				}
			}
			return r.construct(s, args)
		}
		return s
	case "alias_qualified_name":
		named := t.NamedChildren(id)
		if len(named) == 0 {
			return nil
		}
		return r.typeIn(r.global, r.simpleName(named[len(named)-1]))
	case "array_type":
		return r.arrayOf(r.ResolveType(inner()))
	case "nullable_type":
		elem := r.ResolveType(inner())
		if elem == nil {
			return nil
		}
		s := newSymbol(NamedType, elem.Name, elem.Container)
		s.Detail = "nullable"
		s.elem = elem
		return s
	case "pointer_type":
		elem := r.ResolveType(inner())
		if elem == nil {
			return nil
		}
		s := newSymbol(NamedType, elem.Name, elem.Container)
		s.Detail = "pointer"
		s.elem = elem
		return s
	case "ref_type", "scoped_type":
		return r.ResolveType(inner())
	}
	return nil
}

func (r *Resolver) construct(def *Symbol, args []*Symbol) *Symbol {
	if def == nil || len(args) == 0 {
		return def
	}
	s := newSymbol(NamedType, def.Name, def.Container)
	s.Detail = "generic"
	s.elem = def
	s.typeArgs = args
	return s
}

// TypeOf returns the type of a value symbol: the declared type of a
// variable, field or property, or the return type of a method.
func (r *Resolver) TypeOf(s *Symbol) *Symbol {
	if s == nil {
		return nil
	}
	if s.declType != nil {
		return s.declType
	}
	if r.depth > maxInferenceDepth {
		return nil
	}
	r.depth++
	defer func() { r.depth-- }()
	switch {
	case s.typeNode != syntax.None && !r.isImplicit(s.typeNode):
		return r.ResolveType(s.typeNode)
	case s.initNode != syntax.None:
		return r.ExprType(s.initNode)
	case s.iterOf != syntax.None:
		coll := r.ExprType(s.iterOf)
		switch {
		case coll == nil:
			return nil
		case coll.Detail == "array":
			return coll.elem
		case coll.Detail == "generic" && len(coll.typeArgs) == 1:
			return coll.typeArgs[0]
		}
		return nil
	case s.typeName != "":
		return r.typeByName(s.typeName)
	}
	return nil
}

func (r *Resolver) isImplicit(id syntax.NodeID) bool {
	t := r.tree
	switch t.Kind(id) {
	case "implicit_type":
		return true
	case "identifier":
		return t.Text(id) == "var" && r.lookupType(id, "var", 0) == nil
	}
	return false
}

// ExprType infers the static type of an expression where that is cheap.
func (r *Resolver) ExprType(e syntax.NodeID) *Symbol {
	t := r.tree
	if e == syntax.None || r.depth > maxInferenceDepth {
		return nil
	}
	r.depth++
	defer func() { r.depth-- }()
	first := syntax.None
	if named := t.NamedChildren(e); len(named) > 0 {
		first = named[0]
	}
	switch t.Kind(e) {
	case "object_creation_expression", "array_creation_expression", "stackalloc_array_creation_expression":
		if n := t.ChildByField(e, "type"); n != syntax.None {
			return r.ResolveType(n)
		}
		return r.ResolveType(firstNamedOfKind(t, e, typeKinds))
	case "cast_expression":
		if n := t.ChildByField(e, "type"); n != syntax.None {
			return r.ResolveType(n)
		}
		return r.ResolveType(first)
	case "as_expression":
		if n := t.ChildByField(e, "right"); n != syntax.None {
			return r.ResolveType(n)
		}
		named := t.NamedChildren(e)
		if len(named) > 1 {
			return r.ResolveType(named[len(named)-1])
		}
		return nil
	case "string_literal", "verbatim_string_literal", "raw_string_literal", "interpolated_string_expression":
		return r.keywordType("string")
	case "integer_literal":
		return r.keywordType("int")
	case "real_literal":
		return r.keywordType("double")
	case "boolean_literal":
		return r.keywordType("bool")
	case "character_literal":
		return r.keywordType("char")
	case "typeof_expression":
		return r.typeByName("System.Type")
	case "parenthesized_expression", "checked_expression":
		return r.ExprType(first)
	case "this_expression":
		return r.enclosingType(e)
	case "conditional_expression":
		if n := t.ChildByField(e, "consequence"); n != syntax.None {
			return r.ExprType(n)
		}
		return nil
	case "element_access_expression":
		recv := r.ExprType(first)
		if recv != nil && recv.Detail == "array" {
			return recv.elem
		}
		return nil
	case "identifier", "generic_name", "member_access_expression", "member_binding_expression", "invocation_expression":
		s := r.Resolve(e)
		if s == nil || s.IsType() || s.IsNamespace() {
			return nil
		}
		return r.TypeOf(s)
	case "conditional_access_expression":
		named := t.NamedChildren(e)
		if len(named) > 1 {
			return r.ExprType(named[len(named)-1])
		}
	}
	return nil
}
