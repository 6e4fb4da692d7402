package parse

import (
	"strings"

	"go.uber.org/zap"

	"sassy/ast"
	"sassy/codemap"
	"sassy/common"
)

type parser struct {
	s   *Scanner
	log *zap.Logger

	// plain is set when source is plain CSS, values are kept verbatim.
	plain bool
	// stop lists keywords which end space separated list (@for, @each).
	stop []string
	// singleEq allows = operator inside function arguments.
	singleEq bool

	inMixin     bool
	usesContent bool
	inStyleRule bool
}

func newParser(f *codemap.File, log *zap.Logger) *parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &parser{s: NewScanner(f), log: log}
}

// File registers source text in m and parses it using syntax, automatic
// selection looks at name extension.
func File(m *codemap.Map, name, src string, syntax common.InputSyntax, log *zap.Logger) (*ast.Stylesheet, error) {
	switch syntax.ForPath(name) {
	case common.InputSyntaxSass:
		return SCSS(m.AddFile(name, translateIndented(src)), log)
	case common.InputSyntaxCss:
		return CSS(m, name, src, log)
	default:
		return SCSS(m.AddFile(name, src), log)
	}
}

// SCSS parses file in brace syntax.
func SCSS(f *codemap.File, log *zap.Logger) (*ast.Stylesheet, error) {
	p := newParser(f, log)
	return p.stylesheet(f.Name)
}

// Parameters parses parameter list such as "$color, $amount: 10%, $args...",
// built-in callables declare their signatures with it.
func Parameters(sig string) (*ast.ArgDecl, error) {
	f := codemap.New().AddFile("", "("+sig+")")
	return newParser(f, nil).argDecl()
}

func (p *parser) stylesheet(url string) (*ast.Stylesheet, error) {
	start := p.s.Pos()
	p.s.Scan("\ufeff")
	body, err := p.statements(true)
	if err != nil {
		return nil, err
	}
	return &ast.Stylesheet{Node: ast.At(p.s.Span(start)), URL: url, Body: body, Plain: p.plain}, nil
}

// ws skips whitespace and comments of both kinds.
func (p *parser) ws() {
	for {
		c := p.s.Peek(0)
		switch {
		case isWhitespace(c):
			p.s.Move(1)
		case c == '/' && p.s.Peek(1) == '/' && !p.plain:
			p.silentComment()
		case c == '/' && p.s.Peek(1) == '*':
			if err := p.skipLoudComment(); err != nil {
				return
			}
		default:
			return
		}
	}
}

// wsNoComments skips whitespace only.
func (p *parser) wsNoComments() bool {
	found := false
	for isWhitespace(p.s.Peek(0)) {
		p.s.Move(1)
		found = true
	}
	return found
}

func (p *parser) silentComment() string {
	lo := p.s.Pos()
	for !p.s.EOF() && p.s.Peek(0) != '\n' {
		p.s.Move(1)
	}
	return p.s.Text(lo, p.s.Pos())
}

func (p *parser) skipLoudComment() error {
	lo := p.s.Pos()
	p.s.Move(2)
	for !p.s.EOF() {
		if p.s.Scan("*/") {
			return nil
		}
		p.s.Move(1)
	}
	return p.s.ErrorAt(lo, p.s.Pos(), `expected more input.`)
}

// lookingAtWord reports whether identifier w is next, case-insensitively.
func (p *parser) lookingAtWord(w string) bool {
	if !p.s.LookingAtFold(w) {
		return false
	}
	return !isName(p.s.Peek(len(w)))
}

func (p *parser) scanWord(w string) bool {
	if p.lookingAtWord(w) {
		p.s.Move(len(w))
		return true
	}
	return false
}

func (p *parser) expectByte(c byte) error {
	if p.s.Peek(0) != c || p.s.EOF() {
		return p.s.Errorf(`expected "%c".`, c)
	}
	p.s.Move(1)
	return nil
}

// lookingAtIdentifier checks whether identifier starts at offset n.
func (p *parser) lookingAtIdentifier(n int) bool {
	c := p.s.Peek(n)
	switch {
	case isNameStart(c), c == '\\':
		return true
	case c == '-':
		c1 := p.s.Peek(n + 1)
		return isNameStart(c1) || c1 == '-' || c1 == '\\' || c1 == '#' && p.s.Peek(n+2) == '{'
	}
	return false
}

// identifier reads plain identifier, escapes kept verbatim.
func (p *parser) identifier() (string, error) {
	if !p.lookingAtIdentifier(0) {
		return "", p.s.Errorf("Expected identifier.")
	}
	var b strings.Builder
	for {
		c := p.s.Peek(0)
		switch {
		case p.s.EOF():
			return b.String(), nil
		case c == '\\':
			b.WriteString(p.escape())
		case isName(c):
			b.WriteByte(p.s.Next())
		default:
			return b.String(), nil
		}
	}
}

// escape consumes backslash escape and returns it as written.
func (p *parser) escape() string {
	lo := p.s.Pos()
	p.s.Move(1)
	if isHex(p.s.Peek(0)) {
		for i := 0; i < 6 && isHex(p.s.Peek(0)); i++ {
			p.s.Move(1)
		}
		if isWhitespace(p.s.Peek(0)) {
			p.s.Move(1)
		}
	} else if !p.s.EOF() {
		_, n := p.s.PeekRune()
		p.s.Move(n)
	}
	return p.s.Text(lo, p.s.Pos())
}

// variableName reads $name, returns name without $.
func (p *parser) variableName() (string, error) {
	if err := p.expectByte('$'); err != nil {
		return "", err
	}
	name, err := p.identifier()
	if err != nil {
		return "", err
	}
	return normalizeName(name), nil
}

// normalizeName treats - and _ as the same character in member names.
func normalizeName(s string) string {
	return strings.ReplaceAll(s, "_", "-")
}

// interpolatedIdentifier reads identifier which may contain #{} parts.
func (p *parser) interpolatedIdentifier() (*ast.Interpolation, error) {
	lo := p.s.Pos()
	interp := &ast.Interpolation{}
	for {
		c := p.s.Peek(0)
		switch {
		case p.s.EOF():
		case c == '\\':
			interp.Add(p.escape())
			continue
		case c == '#' && p.s.Peek(1) == '{' && !p.plain:
			e, err := p.interpolationExpr()
			if err != nil {
				return nil, err
			}
			interp.Add(e)
			continue
		case isName(c):
			interp.Add(string(p.s.Next()))
			continue
		}
		break
	}
	if len(interp.Parts) == 0 {
		return nil, p.s.Errorf("Expected identifier.")
	}
	interp.Node = ast.At(p.s.Span(lo))
	return interp, nil
}

// interpolationExpr reads #{expression}.
func (p *parser) interpolationExpr() (ast.Expr, error) {
	lo := p.s.Pos()
	p.s.Move(2)
	p.ws()
	if p.s.Peek(0) == '}' {
		return nil, p.s.Errorf("Expected expression.")
	}
	saved := p.stop
	p.stop = nil
	e, err := p.expressionList()
	p.stop = saved
	if err != nil {
		return nil, err
	}
	p.ws()
	if p.s.Peek(0) != '}' {
		return nil, p.s.ErrorAt(lo, p.s.Pos(), `expected "}".`)
	}
	p.s.Move(1)
	return e, nil
}

// rawUntil reads interpolated text until one of stops is found outside of
// strings, comments, parentheses and brackets. Surrounding whitespace is
// trimmed and inner whitespace runs collapse to one space when collapse is set.
func (p *parser) rawUntil(stops string, collapse bool) (*ast.Interpolation, error) {
	lo := p.s.Pos()
	interp := &ast.Interpolation{}
	var text strings.Builder
	flush := func() {
		if text.Len() > 0 {
			interp.Add(text.String())
			text.Reset()
		}
	}
	depth := 0
	pendingSpace := false
	for !p.s.EOF() {
		c := p.s.Peek(0)
		if depth == 0 && strings.IndexByte(stops, c) >= 0 {
			break
		}
		switch {
		case isWhitespace(c):
			p.s.Move(1)
			if collapse {
				pendingSpace = true
				continue
			}
			text.WriteByte(c)
			continue
		case c == '/' && p.s.Peek(1) == '*':
			clo := p.s.Pos()
			if err := p.skipLoudComment(); err != nil {
				return nil, err
			}
			if !collapse {
				text.WriteString(p.s.Text(clo, p.s.Pos()))
			}
			continue
		case c == '/' && p.s.Peek(1) == '/' && !p.plain && depth == 0:
			p.silentComment()
			continue
		}
		if pendingSpace && text.Len()+len(interp.Parts) > 0 {
			text.WriteByte(' ')
		}
		pendingSpace = false
		switch {
		case c == '"' || c == '\'':
			if err := p.rawString(interp, &text); err != nil {
				return nil, err
			}
		case c == '#' && p.s.Peek(1) == '{' && !p.plain:
			flush()
			e, err := p.interpolationExpr()
			if err != nil {
				return nil, err
			}
			interp.Add(e)
		case c == '\\':
			text.WriteString(p.escape())
		case c == '(' || c == '[':
			depth++
			text.WriteByte(p.s.Next())
		case c == ')' || c == ']':
			if depth > 0 {
				depth--
			}
			text.WriteByte(p.s.Next())
		default:
			_, n := p.s.PeekRune()
			text.WriteString(p.s.Text(p.s.Pos(), p.s.Pos()+n))
			p.s.Move(n)
		}
	}
	flush()
	trimInterpolation(interp, !collapse)
	interp.Node = ast.At(p.s.Span(lo))
	return interp, nil
}

// trimInterpolation strips leading and trailing whitespace of text parts.
func trimInterpolation(i *ast.Interpolation, right bool) {
	if len(i.Parts) == 0 {
		return
	}
	if s, ok := i.Parts[0].(string); ok {
		i.Parts[0] = strings.TrimLeft(s, " \t\r\n\f")
	}
	if s, ok := i.Parts[len(i.Parts)-1].(string); ok {
		if right {
			i.Parts[len(i.Parts)-1] = strings.TrimRight(s, " \t\r\n\f")
		} else {
			i.Parts[len(i.Parts)-1] = strings.TrimRight(s, " ")
		}
	}
	parts := i.Parts[:0]
	for _, part := range i.Parts {
		if s, ok := part.(string); ok && s == "" {
			continue
		}
		parts = append(parts, part)
	}
	i.Parts = parts
}

// rawString copies quoted string verbatim, interpolations inside it become
// expressions of interp.
func (p *parser) rawString(interp *ast.Interpolation, text *strings.Builder) error {
	lo := p.s.Pos()
	q := p.s.Next()
	text.WriteByte(q)
	for {
		if p.s.EOF() {
			return p.s.ErrorAt(lo, p.s.Pos(), `Expected %c.`, q)
		}
		c := p.s.Peek(0)
		switch {
		case c == q:
			text.WriteByte(p.s.Next())
			return nil
		case c == '\n':
			return p.s.ErrorAt(lo, p.s.Pos(), `Expected %c.`, q)
		case c == '\\':
			text.WriteByte(p.s.Next())
			if !p.s.EOF() {
				text.WriteByte(p.s.Next())
			}
		case c == '#' && p.s.Peek(1) == '{' && !p.plain:
			if text.Len() > 0 {
				interp.Add(text.String())
				text.Reset()
			}
			e, err := p.interpolationExpr()
			if err != nil {
				return err
			}
			interp.Add(e)
		default:
			text.WriteByte(p.s.Next())
		}
	}
}

// skipString consumes quoted string without decoding it.
func (p *parser) skipString() error {
	lo := p.s.Pos()
	q := p.s.Next()
	for {
		if p.s.EOF() {
			return p.s.ErrorAt(lo, p.s.Pos(), `Expected %c.`, q)
		}
		c := p.s.Next()
		switch c {
		case q:
			return nil
		case '\\':
			p.s.Move(1)
		case '\n':
			return p.s.ErrorAt(lo, p.s.Pos(), `Expected %c.`, q)
		case '#':
			if p.s.Peek(0) == '{' && !p.plain {
				p.s.Rewind(p.s.Pos() - 1)
				if _, err := p.interpolationExpr(); err != nil {
					return err
				}
			}
		}
	}
}
