package ast

import (
	"sassy/value"
)

type (
	NumberExpr struct {
		Node
		Value float64
		Unit  string
	}

	ColorExpr struct {
		Node
		Color value.Color
	}

	// StringExpr is quoted string or unquoted identifier-like text.
	StringExpr struct {
		Node
		Text   *Interpolation
		Quoted bool
	}

	BoolExpr struct {
		Node
		Value bool
	}

	NullExpr struct {
		Node
	}

	VariableExpr struct {
		Node
		Namespace string
		Name      string
	}

	ListExpr struct {
		Node
		Items    []Expr
		Sep      value.Separator
		Brackets bool
	}

	MapExpr struct {
		Node
		Pairs [][2]Expr
	}

	ParenExpr struct {
		Node
		Inner Expr
	}

	BinaryExpr struct {
		Node
		Op          BinOp
		Left, Right Expr
		// AllowsSlash is set for / between number literals which is kept as
		// literal slash when not used arithmetically.
		AllowsSlash bool
	}

	UnaryExpr struct {
		Node
		Op      UnaryOp
		Operand Expr
	}

	FunctionExpr struct {
		Node
		Namespace string
		Name      string
		Args      *ArgInvocation
	}

	// InterpolatedFunctionExpr is plain CSS function with interpolated name.
	InterpolatedFunctionExpr struct {
		Node
		Name *Interpolation
		Args *ArgInvocation
	}

	// IfExpr is the lazily evaluated if() function.
	IfExpr struct {
		Node
		Args *ArgInvocation
	}

	// SelectorExpr is & used as a value.
	SelectorExpr struct {
		Node
	}

	// CalcExpr is calc(), min(), max() or clamp() parsed as calculation.
	CalcExpr struct {
		Node
		Name string
		Args []Expr
	}

	// ValueExpr wraps already evaluated value.
	ValueExpr struct {
		Node
		Value value.Value
	}
)

func (*NumberExpr) exprNode()               {}
func (*ColorExpr) exprNode()                {}
func (*StringExpr) exprNode()               {}
func (*BoolExpr) exprNode()                 {}
func (*NullExpr) exprNode()                 {}
func (*VariableExpr) exprNode()             {}
func (*ListExpr) exprNode()                 {}
func (*MapExpr) exprNode()                  {}
func (*ParenExpr) exprNode()                {}
func (*BinaryExpr) exprNode()               {}
func (*UnaryExpr) exprNode()                {}
func (*FunctionExpr) exprNode()             {}
func (*InterpolatedFunctionExpr) exprNode() {}
func (*IfExpr) exprNode()                   {}
func (*SelectorExpr) exprNode()             {}
func (*CalcExpr) exprNode()                 {}
func (*ValueExpr) exprNode()                {}

// IsSlashOperand reports whether e may be operand of a slash separated
// number literal.
func IsSlashOperand(e Expr) bool {
	switch t := e.(type) {
	case *NumberExpr:
		return true
	case *BinaryExpr:
		return t.AllowsSlash
	}
	return false
}
