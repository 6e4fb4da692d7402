package parse

import (
	"strings"

	"sassy/ast"
)

// queryWriter accumulates normalized query text.
type queryWriter struct {
	interp  *ast.Interpolation
	text    strings.Builder
	pending bool
	empty   bool
	open    bool
}

func (q *queryWriter) space() {
	q.pending = true
}

func (q *queryWriter) prefix() {
	if q.pending && !q.empty && !q.open {
		q.text.WriteByte(' ')
	}
	q.pending, q.empty, q.open = false, false, false
}

func (q *queryWriter) write(s string) {
	if s == ")" {
		q.pending = false
	}
	q.prefix()
	q.text.WriteString(s)
	q.open = s == "("
}

func (q *queryWriter) expr(e ast.Expr) {
	q.prefix()
	q.flush()
	q.interp.Add(e)
}

func (q *queryWriter) flush() {
	if q.text.Len() > 0 {
		q.interp.Add(q.text.String())
		q.text.Reset()
	}
}

// queryInterp reads media query, supports condition, @import modifiers or
// @at-root query until one of stops. Feature values in parentheses are
// parsed as expressions.
func (p *parser) queryInterp(stops string) (*ast.Interpolation, error) {
	lo := p.s.Pos()
	q := &queryWriter{interp: &ast.Interpolation{}, empty: true}
	if err := p.queryPart(q, stops, false); err != nil {
		return nil, err
	}
	q.flush()
	trimInterpolation(q.interp, true)
	q.interp.Node = ast.At(p.s.Span(lo))
	if len(q.interp.Parts) == 0 {
		return nil, p.s.Errorf("Expected query.")
	}
	return q.interp, nil
}

func (p *parser) queryPart(q *queryWriter, stops string, nested bool) error {
	for !p.s.EOF() {
		c := p.s.Peek(0)
		if nested && c == ')' || !nested && strings.IndexByte(stops, c) >= 0 {
			return nil
		}
		switch {
		case isWhitespace(c) || c == '/' && (p.s.Peek(1) == '*' || p.s.Peek(1) == '/' && !p.plain):
			p.ws()
			q.space()
		case c == '(':
			p.s.Move(1)
			q.write("(")
			p.ws()
			if err := p.queryParens(q); err != nil {
				return err
			}
			p.ws()
			if err := p.expectByte(')'); err != nil {
				return err
			}
			q.write(")")
		case c == '#' && p.s.Peek(1) == '{' && !p.plain:
			e, err := p.interpolationExpr()
			if err != nil {
				return err
			}
			q.expr(e)
		case c == '$' && !p.plain:
			lo := p.s.Pos()
			name, err := p.variableName()
			if err != nil {
				return err
			}
			q.expr(&ast.VariableExpr{Node: ast.At(p.s.Span(lo)), Name: name})
		case c == '"' || c == '\'':
			q.prefix()
			if err := p.rawString(q.interp, &q.text); err != nil {
				return err
			}
		case c == '\\':
			q.write(p.escape())
		default:
			_, n := p.s.PeekRune()
			q.write(p.s.Text(p.s.Pos(), p.s.Pos()+n))
			p.s.Move(n)
		}
	}
	return nil
}

// queryParens handles contents of parentheses: "name: value" features, plain
// expressions and anything else verbatim.
func (p *parser) queryParens(q *queryWriter) error {
	if p.plain || p.s.Peek(0) == '(' || p.lookingAtWord("not") {
		return p.queryPart(q, "", true)
	}
	mark := p.s.Pos()
	first, err := p.spaceList()
	if err == nil {
		p.ws()
		switch p.s.Peek(0) {
		case ':':
			p.s.Move(1)
			p.ws()
			val, err := p.expressionList()
			if err == nil {
				q.expr(first)
				q.write(":")
				q.space()
				q.expr(val)
				return nil
			}
		case ')':
			if !isComparison(first) {
				q.expr(first)
				return nil
			}
		}
	}
	p.s.Rewind(mark)
	return p.queryPart(q, "", true)
}

func isComparison(e ast.Expr) bool {
	b, ok := e.(*ast.BinaryExpr)
	if !ok {
		return false
	}
	switch b.Op {
	case ast.OpLt, ast.OpLte, ast.OpGt, ast.OpGte, ast.OpSingleEq, ast.OpEq:
		return true
	}
	return false
}
