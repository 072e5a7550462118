package lang

import (
	"github.com/smacker/go-tree-sitter/csharp"
)

// CSharp is the name of the C# language entry.
const CSharp = "csharp"

func init() {
	Languages[CSharp] = &Language{
		Name:       CSharp,
		Extensions: []string{".cs"},
		lang:       csharp.GetLanguage(),
	}
}

// Grammar versions disagree on a few names (for_each_statement was renamed
// foreach_statement), so both spellings are listed where that happened.
var (
	statementKinds = kindSet(
		"block",
		"break_statement",
		"checked_statement",
		"continue_statement",
		"do_statement",
		"empty_statement",
		"expression_statement",
		"fixed_statement",
		"for_statement",
		"for_each_statement",
		"foreach_statement",
		"goto_statement",
		"if_statement",
		"labeled_statement",
		"local_declaration_statement",
		"local_function_statement",
		"lock_statement",
		"return_statement",
		"switch_statement",
		"throw_statement",
		"try_statement",
		"unsafe_statement",
		"using_statement",
		"while_statement",
		"yield_statement",
	)

	typeDeclKinds = kindSet(
		"class_declaration",
		"struct_declaration",
		"interface_declaration",
		"record_declaration",
		"record_struct_declaration",
		"enum_declaration",
		"delegate_declaration",
	)

	namespaceKinds = kindSet(
		"namespace_declaration",
		"file_scoped_namespace_declaration",
	)

	functionKinds = kindSet(
		"method_declaration",
		"constructor_declaration",
		"destructor_declaration",
		"operator_declaration",
		"conversion_operator_declaration",
		"indexer_declaration",
		"local_function_statement",
		"lambda_expression",
		"anonymous_method_expression",
		"accessor_declaration",
		"delegate_declaration",
	)

	fieldDeclKinds = kindSet(
		"field_declaration",
		"event_field_declaration",
	)
)

// IsStatement reports whether kind is a statement. Blocks count.
func IsStatement(kind string) bool { return statementKinds[kind] }

// IsTypeDeclaration reports whether kind declares a named type.
func IsTypeDeclaration(kind string) bool { return typeDeclKinds[kind] }

// IsNamespace reports whether kind declares a namespace.
func IsNamespace(kind string) bool { return namespaceKinds[kind] }

// IsFunction reports whether kind introduces a parameter scope.
func IsFunction(kind string) bool { return functionKinds[kind] }

// IsFieldDeclaration reports whether kind is a field or event field declaration.
func IsFieldDeclaration(kind string) bool { return fieldDeclKinds[kind] }

// IsMethodDeclaration reports whether kind is an ordinary method declaration.
// Constructors, accessors and local functions are not.
func IsMethodDeclaration(kind string) bool { return kind == "method_declaration" }

// IsComment reports whether kind is comment trivia.
func IsComment(kind string) bool { return kind == "comment" }
