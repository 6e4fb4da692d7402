package ast

import (
	"sassy/codemap"
)

// Stylesheet is root of a parsed file.
type Stylesheet struct {
	Node
	URL   string
	Body  []Stmt
	Plain bool // parsed as plain CSS
}

type (
	StyleRule struct {
		Node
		Selector *Interpolation
		Body     []Stmt
	}

	// Declaration is property: value, Body holds nested properties.
	Declaration struct {
		Node
		Name      *Interpolation
		Value     Expr
		Body      []Stmt
		IsCustom  bool
		ValueSpan codemap.Span
	}

	VariableDecl struct {
		Node
		Namespace string
		Name      string
		Value     Expr
		Default   bool
		Global    bool
	}

	MixinRule struct {
		Node
		Name   string
		Params *ArgDecl
		Body   []Stmt
		// UsesContent is set if body contains @content.
		UsesContent bool
	}

	FunctionRule struct {
		Node
		Name   string
		Params *ArgDecl
		Body   []Stmt
	}

	ContentBlock struct {
		Node
		Params *ArgDecl
		Body   []Stmt
	}

	IncludeRule struct {
		Node
		Namespace string
		Name      string
		Args      *ArgInvocation
		Content   *ContentBlock
	}

	ContentRule struct {
		Node
		Args *ArgInvocation
	}

	ReturnRule struct {
		Node
		Value Expr
	}

	IfClause struct {
		Cond Expr
		Body []Stmt
	}

	IfRule struct {
		Node
		Clauses []IfClause
		// Else is nil if there is no @else.
		Else []Stmt
	}

	EachRule struct {
		Node
		Vars []string
		List Expr
		Body []Stmt
	}

	ForRule struct {
		Node
		Var       string
		From, To  Expr
		Inclusive bool
		Body      []Stmt
	}

	WhileRule struct {
		Node
		Cond Expr
		Body []Stmt
	}

	MediaRule struct {
		Node
		Query *Interpolation
		Body  []Stmt
	}

	SupportsRule struct {
		Node
		Condition *Interpolation
		Body      []Stmt
	}

	AtRootRule struct {
		Node
		// Query is nil when no (with: ...) / (without: ...) query is given.
		Query *Interpolation
		Body  []Stmt
	}

	// AtRule is any other at-rule, including @keyframes and @font-face.
	AtRule struct {
		Node
		Name    *Interpolation
		Params  *Interpolation
		Body    []Stmt
		HasBody bool
	}

	// DynamicImport loads Sass file into current scope.
	DynamicImport struct {
		URL  string
		Span codemap.Span
	}

	// StaticImport is plain CSS @import kept in output.
	StaticImport struct {
		URL       *Interpolation
		Modifiers *Interpolation
		Span      codemap.Span
	}

	ImportRule struct {
		Node
		// Imports are DynamicImport or StaticImport.
		Imports []any
	}

	ConfiguredVar struct {
		Name    string
		Value   Expr
		Default bool
		Span    codemap.Span
	}

	UseRule struct {
		Node
		URL string
		// Namespace is "*" for global use, empty means default namespace.
		Namespace string
		Config    []ConfiguredVar
	}

	ForwardRule struct {
		Node
		URL    string
		Prefix string
		// Show and Hide list member names, variables keep leading $.
		Show   []string
		Hide   []string
		Config []ConfiguredVar
	}

	ExtendRule struct {
		Node
		Selector *Interpolation
		Optional bool
	}

	DebugRule struct {
		Node
		Value Expr
	}

	WarnRule struct {
		Node
		Value Expr
	}

	ErrorRule struct {
		Node
		Value Expr
	}

	// LoudComment is /* */ comment kept in output.
	LoudComment struct {
		Node
		Text *Interpolation
	}

	SilentComment struct {
		Node
		Text string
	}

	CharsetRule struct {
		Node
	}
)

func (*StyleRule) stmtNode()     {}
func (*Declaration) stmtNode()   {}
func (*VariableDecl) stmtNode()  {}
func (*MixinRule) stmtNode()     {}
func (*FunctionRule) stmtNode()  {}
func (*IncludeRule) stmtNode()   {}
func (*ContentRule) stmtNode()   {}
func (*ReturnRule) stmtNode()    {}
func (*IfRule) stmtNode()        {}
func (*EachRule) stmtNode()      {}
func (*ForRule) stmtNode()       {}
func (*WhileRule) stmtNode()     {}
func (*MediaRule) stmtNode()     {}
func (*SupportsRule) stmtNode()  {}
func (*AtRootRule) stmtNode()    {}
func (*AtRule) stmtNode()        {}
func (*ImportRule) stmtNode()    {}
func (*UseRule) stmtNode()       {}
func (*ForwardRule) stmtNode()   {}
func (*ExtendRule) stmtNode()    {}
func (*DebugRule) stmtNode()     {}
func (*WarnRule) stmtNode()      {}
func (*ErrorRule) stmtNode()     {}
func (*LoudComment) stmtNode()   {}
func (*SilentComment) stmtNode() {}
func (*CharsetRule) stmtNode()   {}
