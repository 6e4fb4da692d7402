// Package ast defines syntax tree produced by the parsers and walked by the
// evaluator.
package ast

import (
	"sassy/codemap"
)

// Node carries source location of a tree node.
type Node struct {
	Span codemap.Span
}

// At makes Node for span.
func At(span codemap.Span) Node {
	return Node{Span: span}
}

// Pos returns location of the node.
func (n Node) Pos() codemap.Span {
	return n.Span
}

// Stmt is a closed set of statement nodes.
type Stmt interface {
	Pos() codemap.Span
	stmtNode()
}

// Expr is a closed set of expression nodes.
type Expr interface {
	Pos() codemap.Span
	exprNode()
}

// Interpolation is text mixed with #{} expressions. Parts are string or Expr.
type Interpolation struct {
	Node
	Parts []any
}

// PlainInterpolation makes interpolation without expressions.
func PlainInterpolation(s string, span codemap.Span) *Interpolation {
	return &Interpolation{Node: At(span), Parts: []any{s}}
}

// Plain returns text if interpolation has no expressions.
func (i *Interpolation) Plain() (string, bool) {
	if i == nil {
		return "", true
	}
	switch len(i.Parts) {
	case 0:
		return "", true
	case 1:
		s, ok := i.Parts[0].(string)
		return s, ok
	}
	return "", false
}

// Initial returns leading plain text.
func (i *Interpolation) Initial() string {
	if i == nil || len(i.Parts) == 0 {
		return ""
	}
	s, _ := i.Parts[0].(string)
	return s
}

// Add appends text or expression merging adjacent text.
func (i *Interpolation) Add(part any) {
	if s, ok := part.(string); ok {
		if s == "" {
			return
		}
		if n := len(i.Parts); n > 0 {
			if prev, ok := i.Parts[n-1].(string); ok {
				i.Parts[n-1] = prev + s
				return
			}
		}
	}
	i.Parts = append(i.Parts, part)
}

// Param is declared parameter of a callable.
type Param struct {
	Name    string
	Default Expr
	Span    codemap.Span
}

// ArgDecl declares parameters of mixins and functions.
type ArgDecl struct {
	Node
	Params []Param
	// Rest names the $args... parameter, empty if none.
	Rest string
}

// NamedArg is $name: value argument.
type NamedArg struct {
	Name  string
	Value Expr
}

// ArgInvocation holds arguments at a call site.
type ArgInvocation struct {
	Node
	Positional  []Expr
	Named       []NamedArg
	Rest        Expr
	KeywordRest Expr
}

// IsEmpty reports whether no arguments were passed.
func (a *ArgInvocation) IsEmpty() bool {
	return a == nil || len(a.Positional) == 0 && len(a.Named) == 0 && a.Rest == nil
}

// BinOp is binary operator.
type BinOp int

const (
	OpPlus BinOp = iota
	OpMinus
	OpTimes
	OpDiv
	OpMod
	OpEq
	OpNeq
	OpLt
	OpLte
	OpGt
	OpGte
	OpAnd
	OpOr
	// OpSingleEq is = in IE filter arguments.
	OpSingleEq
)

var binOpText = [...]string{"+", "-", "*", "/", "%", "==", "!=", "<", "<=", ">", ">=", "and", "or", "="}

func (o BinOp) String() string {
	return binOpText[o]
}

// Precedence of operator, higher binds tighter.
func (o BinOp) Precedence() int {
	switch o {
	case OpSingleEq:
		return 0
	case OpOr:
		return 1
	case OpAnd:
		return 2
	case OpEq, OpNeq:
		return 3
	case OpLt, OpLte, OpGt, OpGte:
		return 4
	case OpPlus, OpMinus:
		return 5
	}
	return 6
}

// UnaryOp is unary operator.
type UnaryOp int

const (
	OpUnaryPlus UnaryOp = iota
	OpUnaryMinus
	OpUnaryDivide
	OpNot
)
