package parse

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"sassy/ast"
	"sassy/value"
)

// expressionList parses comma separated list of space separated lists.
func (p *parser) expressionList() (ast.Expr, error) {
	lo := p.s.Pos()
	first, err := p.spaceList()
	if err != nil {
		return nil, err
	}
	mark := p.s.Pos()
	p.ws()
	if p.s.Peek(0) != ',' {
		p.s.Rewind(mark)
		return first, nil
	}
	items := []ast.Expr{first}
	for p.s.Peek(0) == ',' {
		p.s.Move(1)
		p.ws()
		if p.atExprEnd() || p.s.Peek(0) == ',' {
			break
		}
		e, err := p.spaceList()
		if err != nil {
			return nil, err
		}
		items = append(items, e)
		mark = p.s.Pos()
		p.ws()
		if p.s.Peek(0) != ',' {
			p.s.Rewind(mark)
			break
		}
	}
	return &ast.ListExpr{Node: ast.At(p.s.Span(lo)), Items: items, Sep: value.SepComma}, nil
}

// atExprEnd reports whether no further list element can start at cursor.
func (p *parser) atExprEnd() bool {
	if p.s.EOF() {
		return true
	}
	switch c := p.s.Peek(0); c {
	case ')', ']', '}', '{', ';', ':', ',':
		return true
	case '!':
		return !p.lookingAtImportant()
	case '=':
		return true
	case '.':
		return p.s.LookingAt("...")
	}
	for _, w := range p.stop {
		if p.lookingAtWord(w) {
			return true
		}
	}
	return false
}

func (p *parser) lookingAtImportant() bool {
	start := p.s.Pos()
	defer p.s.Rewind(start)
	p.s.Move(1)
	p.ws()
	return p.lookingAtWord("important")
}

// spaceList parses one or more whitespace separated operator expressions.
func (p *parser) spaceList() (ast.Expr, error) {
	lo := p.s.Pos()
	first, err := p.binary(0)
	if err != nil {
		return nil, err
	}
	items := []ast.Expr{first}
	for {
		mark := p.s.Pos()
		p.ws()
		if p.atExprEnd() {
			p.s.Rewind(mark)
			break
		}
		e, err := p.binary(0)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	if len(items) == 1 {
		return first, nil
	}
	return &ast.ListExpr{Node: ast.At(p.s.Span(lo)), Items: items, Sep: value.SepSpace}, nil
}

// wsReport skips whitespace and comments and reports whether any was seen.
func (p *parser) wsReport() bool {
	start := p.s.Pos()
	p.ws()
	return p.s.Pos() != start
}

// peekOperator detects binary operator at cursor, returns its length.
func (p *parser) peekOperator(wsBefore bool) (ast.BinOp, int, bool) {
	c, c1 := p.s.Peek(0), p.s.Peek(1)
	switch c {
	case '=':
		if c1 == '=' {
			return ast.OpEq, 2, true
		}
		if p.singleEq {
			return ast.OpSingleEq, 1, true
		}
	case '!':
		if c1 == '=' {
			return ast.OpNeq, 2, true
		}
	case '<':
		if c1 == '=' {
			return ast.OpLte, 2, true
		}
		return ast.OpLt, 1, true
	case '>':
		if c1 == '=' {
			return ast.OpGte, 2, true
		}
		return ast.OpGt, 1, true
	case '*':
		return ast.OpTimes, 1, true
	case '%':
		return ast.OpMod, 1, true
	case '/':
		return ast.OpDiv, 1, true
	case '+', '-':
		if wsBefore && !isWhitespace(c1) {
			// start of next list element: "1 -2", "a -b"
			return 0, 0, false
		}
		if c == '-' && !wsBefore && (isNameStart(c1) || c1 == '-') {
			return 0, 0, false
		}
		if c == '+' {
			return ast.OpPlus, 1, true
		}
		return ast.OpMinus, 1, true
	case 'a', 'A':
		if p.lookingAtWord("and") {
			return ast.OpAnd, 3, true
		}
	case 'o', 'O':
		if p.lookingAtWord("or") {
			return ast.OpOr, 2, true
		}
	}
	return 0, 0, false
}

// binary parses operator expression with precedence at least minPrec.
func (p *parser) binary(minPrec int) (ast.Expr, error) {
	lo := p.s.Pos()
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		mark := p.s.Pos()
		wsBefore := p.wsReport()
		op, n, ok := p.peekOperator(wsBefore)
		if !ok || op.Precedence() < minPrec {
			p.s.Rewind(mark)
			return left, nil
		}
		p.s.Move(n)
		p.ws()
		if p.s.EOF() {
			return nil, p.s.Errorf("Expected expression.")
		}
		right, err := p.binary(op.Precedence() + 1)
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{
			Node:        ast.At(p.s.Span(lo)),
			Op:          op,
			Left:        left,
			Right:       right,
			AllowsSlash: op == ast.OpDiv && ast.IsSlashOperand(left) && ast.IsSlashOperand(right),
		}
	}
}

func (p *parser) unary() (ast.Expr, error) {
	lo := p.s.Pos()
	c, c1 := p.s.Peek(0), p.s.Peek(1)
	switch {
	case p.s.EOF():
		return nil, p.s.Errorf("Expected expression.")
	case c == '+' || c == '-':
		if isDigit(c1) || c1 == '.' && isDigit(p.s.Peek(2)) {
			return p.number()
		}
		if c == '-' && p.lookingAtIdentifier(0) {
			return p.identifierLike()
		}
		p.s.Move(1)
		p.ws()
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		op := ast.OpUnaryPlus
		if c == '-' {
			op = ast.OpUnaryMinus
		}
		return &ast.UnaryExpr{Node: ast.At(p.s.Span(lo)), Op: op, Operand: operand}, nil
	case c == '/':
		p.s.Move(1)
		p.ws()
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Node: ast.At(p.s.Span(lo)), Op: ast.OpUnaryDivide, Operand: operand}, nil
	case c == '!':
		p.s.Move(1)
		p.ws()
		if !p.scanWord("important") {
			return nil, p.s.Errorf(`Expected "important".`)
		}
		return &ast.StringExpr{Node: ast.At(p.s.Span(lo)), Text: ast.PlainInterpolation("!important", p.s.Span(lo))}, nil
	case c == '(':
		return p.paren()
	case c == '[':
		return p.bracketed()
	case c == '$':
		name, err := p.variableName()
		if err != nil {
			return nil, err
		}
		return &ast.VariableExpr{Node: ast.At(p.s.Span(lo)), Name: name}, nil
	case c == '&':
		p.s.Move(1)
		return &ast.SelectorExpr{Node: ast.At(p.s.Span(lo))}, nil
	case c == '"' || c == '\'':
		return p.quotedString()
	case c == '#':
		if c1 == '{' {
			return p.identifierLike()
		}
		return p.hexColor()
	case isDigit(c) || c == '.' && isDigit(c1):
		return p.number()
	case (c == 'u' || c == 'U') && c1 == '+' && (isHex(p.s.Peek(2)) || p.s.Peek(2) == '?'):
		return p.unicodeRange()
	case p.lookingAtWord("not"):
		p.s.Move(3)
		p.ws()
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Node: ast.At(p.s.Span(lo)), Op: ast.OpNot, Operand: operand}, nil
	case p.lookingAtIdentifier(0):
		return p.identifierLike()
	}
	return nil, p.s.Errorf("Expected expression.")
}

// singleExpression parses one operand, used for url() in @import.
func (p *parser) singleExpression() (ast.Expr, error) {
	return p.unary()
}

func (p *parser) number() (ast.Expr, error) {
	lo := p.s.Pos()
	if c := p.s.Peek(0); c == '+' || c == '-' {
		p.s.Move(1)
	}
	for isDigit(p.s.Peek(0)) {
		p.s.Move(1)
	}
	if p.s.Peek(0) == '.' && isDigit(p.s.Peek(1)) {
		p.s.Move(1)
		for isDigit(p.s.Peek(0)) {
			p.s.Move(1)
		}
	}
	if c := p.s.Peek(0); c == 'e' || c == 'E' {
		c1 := p.s.Peek(1)
		if isDigit(c1) || (c1 == '+' || c1 == '-') && isDigit(p.s.Peek(2)) {
			p.s.Move(2)
			for isDigit(p.s.Peek(0)) {
				p.s.Move(1)
			}
		}
	}
	text := p.s.Text(lo, p.s.Pos())
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, p.s.ErrorAt(lo, p.s.Pos(), "Expected number.")
	}
	unit := ""
	switch c, c1 := p.s.Peek(0), p.s.Peek(1); {
	case c == '%':
		p.s.Move(1)
		unit = "%"
	case isNameStart(c) || c == '-' && isNameStart(c1):
		ulo := p.s.Pos()
		if c == '-' {
			p.s.Move(1)
		}
		for {
			c := p.s.Peek(0)
			if c == '-' && !isNameStart(p.s.Peek(1)) {
				break
			}
			if !isName(c) {
				break
			}
			p.s.Move(1)
		}
		unit = p.s.Text(ulo, p.s.Pos())
	}
	return &ast.NumberExpr{Node: ast.At(p.s.Span(lo)), Value: f, Unit: unit}, nil
}

func hexVal(c byte) float64 {
	switch {
	case c >= '0' && c <= '9':
		return float64(c - '0')
	case c >= 'a' && c <= 'f':
		return float64(c-'a') + 10
	}
	return float64(c-'A') + 10
}

func (p *parser) hexColor() (ast.Expr, error) {
	lo := p.s.Pos()
	p.s.Move(1)
	start := p.s.Pos()
	for isHex(p.s.Peek(0)) {
		p.s.Move(1)
	}
	digits := p.s.Text(start, p.s.Pos())
	if isName(p.s.Peek(0)) || !(len(digits) == 3 || len(digits) == 4 || len(digits) == 6 || len(digits) == 8) {
		p.s.Rewind(start)
		if !p.lookingAtIdentifier(0) && !isDigit(p.s.Peek(0)) {
			return nil, p.s.Errorf("Expected hex digit.")
		}
		for isName(p.s.Peek(0)) {
			p.s.Move(1)
		}
		text := p.s.Text(lo, p.s.Pos())
		return &ast.StringExpr{Node: ast.At(p.s.Span(lo)), Text: ast.PlainInterpolation(text, p.s.Span(lo))}, nil
	}
	var r, g, b, a float64
	a = 1
	switch len(digits) {
	case 3, 4:
		r, g, b = hexVal(digits[0])*17, hexVal(digits[1])*17, hexVal(digits[2])*17
		if len(digits) == 4 {
			a = hexVal(digits[3]) * 17 / 255
		}
	default:
		r = hexVal(digits[0])*16 + hexVal(digits[1])
		g = hexVal(digits[2])*16 + hexVal(digits[3])
		b = hexVal(digits[4])*16 + hexVal(digits[5])
		if len(digits) == 8 {
			a = (hexVal(digits[6])*16 + hexVal(digits[7])) / 255
		}
	}
	c := value.RGBA(r, g, b, a).Spelled(p.s.Text(lo, p.s.Pos()))
	return &ast.ColorExpr{Node: ast.At(p.s.Span(lo)), Color: c}, nil
}

func (p *parser) unicodeRange() (ast.Expr, error) {
	lo := p.s.Pos()
	p.s.Move(2)
	for isHex(p.s.Peek(0)) || p.s.Peek(0) == '?' {
		p.s.Move(1)
	}
	if p.s.Peek(0) == '-' && isHex(p.s.Peek(1)) {
		p.s.Move(1)
		for isHex(p.s.Peek(0)) {
			p.s.Move(1)
		}
	}
	text := p.s.Text(lo, p.s.Pos())
	return &ast.StringExpr{Node: ast.At(p.s.Span(lo)), Text: ast.PlainInterpolation(text, p.s.Span(lo))}, nil
}

// quotedString decodes escapes, #{} parts become expressions.
func (p *parser) quotedString() (*ast.StringExpr, error) {
	lo := p.s.Pos()
	q := p.s.Next()
	interp := &ast.Interpolation{}
	var b strings.Builder
	for {
		if p.s.EOF() {
			return nil, p.s.ErrorAt(lo, p.s.Pos(), `Expected %c.`, q)
		}
		c := p.s.Peek(0)
		switch {
		case c == q:
			p.s.Move(1)
			if b.Len() > 0 {
				interp.Add(b.String())
			}
			interp.Node = ast.At(p.s.Span(lo))
			return &ast.StringExpr{Node: ast.At(p.s.Span(lo)), Text: interp, Quoted: true}, nil
		case c == '\n':
			return nil, p.s.ErrorAt(lo, p.s.Pos(), `Expected %c.`, q)
		case c == '\\':
			p.s.Move(1)
			switch c1 := p.s.Peek(0); {
			case p.s.EOF():
			case c1 == '\n':
				p.s.Move(1)
			case c1 == '\r':
				p.s.Move(1)
				p.s.Scan("\n")
			case isHex(c1):
				start := p.s.Pos()
				for i := 0; i < 6 && isHex(p.s.Peek(0)); i++ {
					p.s.Move(1)
				}
				v, _ := strconv.ParseUint(p.s.Text(start, p.s.Pos()), 16, 32)
				if isWhitespace(p.s.Peek(0)) {
					p.s.Move(1)
				}
				r := rune(v)
				if r == 0 || r > utf8.MaxRune || r >= 0xD800 && r <= 0xDFFF {
					r = utf8.RuneError
				}
				b.WriteRune(r)
			default:
				r, n := p.s.PeekRune()
				p.s.Move(n)
				b.WriteRune(r)
			}
		case c == '#' && p.s.Peek(1) == '{' && !p.plain:
			if b.Len() > 0 {
				interp.Add(b.String())
				b.Reset()
			}
			e, err := p.interpolationExpr()
			if err != nil {
				return nil, err
			}
			interp.Add(e)
		default:
			r, n := p.s.PeekRune()
			p.s.Move(n)
			b.WriteRune(r)
		}
	}
}

func (p *parser) paren() (ast.Expr, error) {
	lo := p.s.Pos()
	p.s.Move(1)
	savedStop, savedEq := p.stop, p.singleEq
	p.stop, p.singleEq = nil, false
	defer func() { p.stop, p.singleEq = savedStop, savedEq }()

	p.ws()
	if p.s.Peek(0) == ')' {
		p.s.Move(1)
		return &ast.ListExpr{Node: ast.At(p.s.Span(lo)), Sep: value.SepUndecided}, nil
	}
	first, err := p.spaceList()
	if err != nil {
		return nil, err
	}
	p.ws()
	switch p.s.Peek(0) {
	case ':':
		return p.mapTail(lo, first)
	case ',':
		items := []ast.Expr{first}
		for p.s.Peek(0) == ',' {
			p.s.Move(1)
			p.ws()
			if p.s.Peek(0) == ')' {
				break
			}
			e, err := p.spaceList()
			if err != nil {
				return nil, err
			}
			items = append(items, e)
			p.ws()
		}
		if err := p.expectByte(')'); err != nil {
			return nil, err
		}
		return &ast.ListExpr{Node: ast.At(p.s.Span(lo)), Items: items, Sep: value.SepComma}, nil
	}
	if err := p.expectByte(')'); err != nil {
		return nil, err
	}
	return &ast.ParenExpr{Node: ast.At(p.s.Span(lo)), Inner: first}, nil
}

func (p *parser) mapTail(lo int, key ast.Expr) (ast.Expr, error) {
	m := &ast.MapExpr{}
	for {
		if err := p.expectByte(':'); err != nil {
			return nil, err
		}
		p.ws()
		val, err := p.spaceList()
		if err != nil {
			return nil, err
		}
		m.Pairs = append(m.Pairs, [2]ast.Expr{key, val})
		p.ws()
		if p.s.Peek(0) != ',' {
			break
		}
		p.s.Move(1)
		p.ws()
		if p.s.Peek(0) == ')' {
			break
		}
		if key, err = p.spaceList(); err != nil {
			return nil, err
		}
		p.ws()
	}
	if err := p.expectByte(')'); err != nil {
		return nil, err
	}
	m.Node = ast.At(p.s.Span(lo))
	return m, nil
}

func (p *parser) bracketed() (ast.Expr, error) {
	lo := p.s.Pos()
	p.s.Move(1)
	savedStop := p.stop
	p.stop = nil
	defer func() { p.stop = savedStop }()

	p.ws()
	if p.s.Peek(0) == ']' {
		p.s.Move(1)
		return &ast.ListExpr{Node: ast.At(p.s.Span(lo)), Brackets: true}, nil
	}
	inner, err := p.expressionList()
	if err != nil {
		return nil, err
	}
	p.ws()
	if err := p.expectByte(']'); err != nil {
		return nil, err
	}
	if l, ok := inner.(*ast.ListExpr); ok && !l.Brackets && len(l.Items) > 0 {
		return &ast.ListExpr{Node: ast.At(p.s.Span(lo)), Items: l.Items, Sep: l.Sep, Brackets: true}, nil
	}
	return &ast.ListExpr{Node: ast.At(p.s.Span(lo)), Items: []ast.Expr{inner}, Brackets: true}, nil
}

// identifierLike parses identifiers, keywords, color names and function calls.
func (p *parser) identifierLike() (ast.Expr, error) {
	lo := p.s.Pos()
	id, err := p.interpolatedIdentifier()
	if err != nil {
		return nil, err
	}
	name, plain := id.Plain()
	if !plain {
		if p.s.Peek(0) == '(' {
			args, err := p.argInvocation()
			if err != nil {
				return nil, err
			}
			return &ast.InterpolatedFunctionExpr{Node: ast.At(p.s.Span(lo)), Name: id, Args: args}, nil
		}
		return &ast.StringExpr{Node: ast.At(p.s.Span(lo)), Text: id}, nil
	}
	lower := strings.ToLower(name)

	switch c := p.s.Peek(0); {
	case c == '.' && p.s.Peek(1) == '$':
		p.s.Move(1)
		v, err := p.variableName()
		if err != nil {
			return nil, err
		}
		return &ast.VariableExpr{Node: ast.At(p.s.Span(lo)), Namespace: name, Name: v}, nil
	case c == '.' && p.lookingAtIdentifier(1):
		mark := p.s.Pos()
		p.s.Move(1)
		fn, err := p.identifier()
		if err == nil && p.s.Peek(0) == '(' {
			args, err := p.argInvocation()
			if err != nil {
				return nil, err
			}
			return &ast.FunctionExpr{Node: ast.At(p.s.Span(lo)), Namespace: name, Name: fn, Args: args}, nil
		}
		p.s.Rewind(mark)
	case c == ':' && lower == "progid":
		return p.rawFunction(lo, p.s.Pos())
	case c == '(':
		switch lower {
		case "if":
			args, err := p.argInvocation()
			if err != nil {
				return nil, err
			}
			return &ast.IfExpr{Node: ast.At(p.s.Span(lo)), Args: args}, nil
		case "url":
			if e, ok, err := p.tryURL(lo); err != nil || ok {
				return e, err
			}
		case "calc", "min", "max", "clamp":
			start := p.s.Pos()
			args, err := p.calcArgs(lower)
			if err == nil {
				return &ast.CalcExpr{Node: ast.At(p.s.Span(lo)), Name: lower, Args: args}, nil
			}
			p.s.Rewind(start)
			if lower == "calc" {
				return p.rawFunction(lo, start)
			}
		case "element", "expression":
			return p.rawFunction(lo, p.s.Pos())
		}
		args, err := p.argInvocation()
		if err != nil {
			return nil, err
		}
		return &ast.FunctionExpr{Node: ast.At(p.s.Span(lo)), Name: name, Args: args}, nil
	}

	switch name {
	case "true":
		return &ast.BoolExpr{Node: ast.At(p.s.Span(lo)), Value: true}, nil
	case "false":
		return &ast.BoolExpr{Node: ast.At(p.s.Span(lo)), Value: false}, nil
	case "null":
		return &ast.NullExpr{Node: ast.At(p.s.Span(lo))}, nil
	}
	if c, ok := value.ColorByName(lower); ok {
		return &ast.ColorExpr{Node: ast.At(p.s.Span(lo)), Color: c.Spelled(name)}, nil
	}
	return &ast.StringExpr{Node: ast.At(p.s.Span(lo)), Text: id}, nil
}

// tryURL parses unquoted url(...) contents, reports false when contents need
// regular function call parsing.
func (p *parser) tryURL(lo int) (ast.Expr, bool, error) {
	start := p.s.Pos()
	p.s.Move(1)
	p.wsNoComments()
	interp := &ast.Interpolation{}
	var text strings.Builder
	text.WriteString(p.s.Text(lo, start) + "(")
	for {
		c := p.s.Peek(0)
		switch {
		case p.s.EOF():
			p.s.Rewind(start)
			return nil, false, nil
		case c == ')':
			p.s.Move(1)
			text.WriteByte(')')
			interp.Add(text.String())
			interp.Node = ast.At(p.s.Span(lo))
			return &ast.StringExpr{Node: ast.At(p.s.Span(lo)), Text: interp}, true, nil
		case c == '\\':
			text.WriteString(p.escape())
		case c == '#' && p.s.Peek(1) == '{':
			interp.Add(text.String())
			text.Reset()
			e, err := p.interpolationExpr()
			if err != nil {
				return nil, false, err
			}
			interp.Add(e)
		case isWhitespace(c):
			p.wsNoComments()
			if p.s.Peek(0) != ')' {
				p.s.Rewind(start)
				return nil, false, nil
			}
		case c == '!' || c == '#' || c == '%' || c == '&' || c >= '*' && c <= '~' && c != '(' || c >= 0x80:
			_, n := p.s.PeekRune()
			text.WriteString(p.s.Text(p.s.Pos(), p.s.Pos()+n))
			p.s.Move(n)
		default:
			p.s.Rewind(start)
			return nil, false, nil
		}
	}
}

// rawFunction keeps function text verbatim up to the matching parenthesis,
// from is offset where verbatim part starts.
func (p *parser) rawFunction(lo, from int) (ast.Expr, error) {
	interp := &ast.Interpolation{}
	var text strings.Builder
	text.WriteString(p.s.Text(lo, from))
	depth := 0
	for {
		if p.s.EOF() {
			return nil, p.s.ErrorAt(lo, p.s.Pos(), `expected ")".`)
		}
		c := p.s.Peek(0)
		switch {
		case c == '"' || c == '\'':
			if err := p.rawString(interp, &text); err != nil {
				return nil, err
			}
			continue
		case c == '#' && p.s.Peek(1) == '{':
			if text.Len() > 0 {
				interp.Add(text.String())
				text.Reset()
			}
			e, err := p.interpolationExpr()
			if err != nil {
				return nil, err
			}
			interp.Add(e)
			continue
		case c == '\\':
			text.WriteString(p.escape())
			continue
		case c == '(':
			depth++
		case c == ')':
			depth--
		}
		_, n := p.s.PeekRune()
		text.WriteString(p.s.Text(p.s.Pos(), p.s.Pos()+n))
		p.s.Move(n)
		if depth == 0 && c == ')' {
			break
		}
	}
	interp.Add(text.String())
	interp.Node = ast.At(p.s.Span(lo))
	return &ast.StringExpr{Node: ast.At(p.s.Span(lo)), Text: interp}, nil
}

// calcArgs parses arguments of calc(), min(), max() or clamp().
func (p *parser) calcArgs(name string) ([]ast.Expr, error) {
	if err := p.expectByte('('); err != nil {
		return nil, err
	}
	var args []ast.Expr
	for {
		p.ws()
		e, err := p.calcSum()
		if err != nil {
			return nil, err
		}
		args = append(args, e)
		p.ws()
		switch p.s.Peek(0) {
		case ',':
			if name == "calc" {
				return nil, p.s.Errorf(`expected ")".`)
			}
			p.s.Move(1)
			continue
		case ')':
			p.s.Move(1)
		default:
			return nil, p.s.Errorf(`expected ")".`)
		}
		break
	}
	if name == "clamp" && len(args) != 3 {
		return nil, p.s.Errorf("clamp() requires exactly 3 arguments.")
	}
	return args, nil
}

func (p *parser) calcSum() (ast.Expr, error) {
	lo := p.s.Pos()
	left, err := p.calcProduct()
	if err != nil {
		return nil, err
	}
	for {
		mark := p.s.Pos()
		wsBefore := p.wsReport()
		c := p.s.Peek(0)
		if c != '+' && c != '-' {
			p.s.Rewind(mark)
			return left, nil
		}
		if !wsBefore || !isWhitespace(p.s.Peek(1)) {
			return nil, p.s.Errorf(`"+" and "-" must be surrounded by whitespace in calculations.`)
		}
		p.s.Move(1)
		p.ws()
		right, err := p.calcProduct()
		if err != nil {
			return nil, err
		}
		op := ast.OpPlus
		if c == '-' {
			op = ast.OpMinus
		}
		left = &ast.BinaryExpr{Node: ast.At(p.s.Span(lo)), Op: op, Left: left, Right: right}
	}
}

func (p *parser) calcProduct() (ast.Expr, error) {
	lo := p.s.Pos()
	left, err := p.calcValue()
	if err != nil {
		return nil, err
	}
	for {
		mark := p.s.Pos()
		p.ws()
		c := p.s.Peek(0)
		if c != '*' && c != '/' {
			p.s.Rewind(mark)
			return left, nil
		}
		p.s.Move(1)
		p.ws()
		right, err := p.calcValue()
		if err != nil {
			return nil, err
		}
		op := ast.OpTimes
		if c == '/' {
			op = ast.OpDiv
		}
		left = &ast.BinaryExpr{Node: ast.At(p.s.Span(lo)), Op: op, Left: left, Right: right}
	}
}

func (p *parser) calcValue() (ast.Expr, error) {
	lo := p.s.Pos()
	c, c1 := p.s.Peek(0), p.s.Peek(1)
	switch {
	case c == '(':
		p.s.Move(1)
		p.ws()
		inner, err := p.calcSum()
		if err != nil {
			return nil, err
		}
		p.ws()
		if err := p.expectByte(')'); err != nil {
			return nil, err
		}
		return &ast.ParenExpr{Node: ast.At(p.s.Span(lo)), Inner: inner}, nil
	case isDigit(c), c == '.' && isDigit(c1),
		(c == '+' || c == '-') && (isDigit(c1) || c1 == '.'):
		return p.number()
	case c == '$':
		name, err := p.variableName()
		if err != nil {
			return nil, err
		}
		return &ast.VariableExpr{Node: ast.At(p.s.Span(lo)), Name: name}, nil
	case c == '#' && c1 == '{':
		id, err := p.interpolatedIdentifier()
		if err != nil {
			return nil, err
		}
		return &ast.StringExpr{Node: ast.At(p.s.Span(lo)), Text: id}, nil
	case p.lookingAtIdentifier(0):
		name, err := p.identifier()
		if err != nil {
			return nil, err
		}
		lower := strings.ToLower(name)
		switch {
		case p.s.Peek(0) == '.' && p.s.Peek(1) == '$':
			p.s.Move(1)
			v, err := p.variableName()
			if err != nil {
				return nil, err
			}
			return &ast.VariableExpr{Node: ast.At(p.s.Span(lo)), Namespace: name, Name: v}, nil
		case p.s.Peek(0) == '.' && p.lookingAtIdentifier(1):
			p.s.Move(1)
			fn, err := p.identifier()
			if err != nil {
				return nil, err
			}
			args, err := p.argInvocation()
			if err != nil {
				return nil, err
			}
			return &ast.FunctionExpr{Node: ast.At(p.s.Span(lo)), Namespace: name, Name: fn, Args: args}, nil
		case p.s.Peek(0) == '(':
			switch lower {
			case "calc", "min", "max", "clamp":
				args, err := p.calcArgs(lower)
				if err != nil {
					return nil, err
				}
				return &ast.CalcExpr{Node: ast.At(p.s.Span(lo)), Name: lower, Args: args}, nil
			}
			args, err := p.argInvocation()
			if err != nil {
				return nil, err
			}
			return &ast.FunctionExpr{Node: ast.At(p.s.Span(lo)), Name: name, Args: args}, nil
		}
		switch lower {
		case "pi":
			return &ast.NumberExpr{Node: ast.At(p.s.Span(lo)), Value: math.Pi}, nil
		case "e":
			return &ast.NumberExpr{Node: ast.At(p.s.Span(lo)), Value: math.E}, nil
		}
	}
	return nil, p.s.Errorf("Expected number, variable, function, or calculation.")
}
