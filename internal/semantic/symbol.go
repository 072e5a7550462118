// Package semantic binds names in one parsed C# file to symbols.
//
// It is a best-effort, single-file binder: declarations come from the file
// itself and from a Catalog of external types standing in for referenced
// assemblies. Anything neither declares is unresolved.
package semantic

import (
	"strings"

	"github.com/phobologic/apislice/internal/syntax"
)

// Kind is the closed set of symbol kinds the slicer dispatches on.
type Kind int

const (
	Other Kind = iota
	Local
	Field
	Property
	Method
	Parameter
	NamedType
	Label
)

var kindNames = [...]string{"other", "local", "field", "property", "method", "parameter", "type", "label"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "other"
}

// GlobalNamespace is how the unnamed root namespace prints.
const GlobalNamespace = "<global namespace>"

// Symbol is the meaning of a name. Symbols are compared by pointer: one
// Resolver hands out exactly one *Symbol per entity.
type Symbol struct {
	Kind Kind
	Name string
	// Detail refines Other and NamedType: "namespace", "event",
	// "constructor", "type parameter", "array", "generic".
	Detail    string
	Container *Symbol
	Decls     []syntax.NodeID
	External  bool
	Static    bool
	Alias     string // keyword spelling of a predefined type

	params   int // parameter count; -1 when unknown
	variadic bool

	typeNode syntax.NodeID // declared type or return type in source
	initNode syntax.NodeID // initializer, for var inference
	declType *Symbol
	typeName string // external declared or return type
	iterOf   syntax.NodeID

	elem     *Symbol   // array, pointer and nullable element
	typeArgs []*Symbol // constructed generic arguments

	bases   []syntax.NodeID // base_list entries of an in-file type
	baseRef string          // base type name of an external type
	spec    *TypeSpec
	members map[string][]*Symbol
	loaded  bool
	ctors   []*Symbol
	full    string // namespace full name
}

// IsNamespace reports whether s is a namespace.
func (s *Symbol) IsNamespace() bool {
	return s != nil && s.Kind == Other && s.Detail == "namespace"
}

// IsType reports whether s is a named type.
func (s *Symbol) IsType() bool {
	return s != nil && s.Kind == NamedType
}

// Params returns the declared parameter count of a method, or -1.
func (s *Symbol) Params() int {
	return s.params
}

// ContainingType returns the nearest enclosing type, or nil.
func (s *Symbol) ContainingType() *Symbol {
	for c := s.Container; c != nil; c = c.Container {
		if c.IsType() {
			return c
		}
	}
	return nil
}

// ContainingNamespace returns the nearest enclosing namespace.
func (s *Symbol) ContainingNamespace() *Symbol {
	for c := s.Container; c != nil; c = c.Container {
		if c.IsNamespace() {
			return c
		}
	}
	return nil
}

// NamespaceName returns the dotted name of a namespace symbol.
func (s *Symbol) NamespaceName() string {
	if s == nil || s.full == "" {
		return GlobalNamespace
	}
	return s.full
}

// QualifiedName returns "namespace.ContainingType.Name", or
// "namespace.Name" when s has no containing type. Only the immediate
// containing type's simple name is used, so nested types lose their outer
// names.
func QualifiedName(s *Symbol) string {
	if s == nil {
		return ""
	}
	ns := s.ContainingNamespace().NamespaceName()
	if t := s.ContainingType(); t != nil {
		return ns + "." + t.Name + "." + s.Name
	}
	return ns + "." + s.Name
}

// TypeString renders a type the way class rules are written: keyword
// aliases for predefined types, otherwise the full dotted name with
// generic arguments.
func TypeString(t *Symbol) string {
	if t == nil {
		return ""
	}
	if t.Alias != "" {
		return t.Alias
	}
	switch t.Detail {
	case "array":
		return TypeString(t.elem) + "[]"
	case "nullable":
		return TypeString(t.elem) + "?"
	case "pointer":
		return TypeString(t.elem) + "*"
	case "generic":
		args := make([]string, len(t.typeArgs))
		for i, a := range t.typeArgs {
			args[i] = TypeString(a)
			if args[i] == "" {
				args[i] = "?"
			}
		}
		return TypeString(t.elem) + "<" + strings.Join(args, ", ") + ">"
	case "type parameter":
		return t.Name
	}
	var prefix string
	switch c := t.Container; {
	case c == nil:
	case c.IsType():
		prefix = TypeString(c) + "."
	case c.IsNamespace() && c.full != "":
		prefix = c.full + "."
	}
	return prefix + t.Name
}

// genericDef strips array, nullable and generic construction.
func genericDef(t *Symbol) *Symbol {
	for t != nil && t.Detail == "generic" {
		t = t.elem
	}
	return t
}
