package selector

import (
	"strings"
	"unicode/utf8"

	"github.com/tdewolff/parse/v2/css"

	"sassy/diag"
)

// selector pseudo classes which take selector list as argument
var selectorPseudoClasses = map[string]bool{
	"not": true, "is": true, "matches": true, "where": true, "current": true,
	"any": true, "has": true, "host": true, "host-context": true,
}

var selectorPseudoElements = map[string]bool{
	"slotted": true,
}

// legacy pseudo elements may be written with single colon
var legacyPseudoElements = map[string]bool{
	"after": true, "before": true, "first-line": true, "first-letter": true,
}

func isIdent(s string) bool {
	return s != "" && css.IsIdent([]byte(s))
}

type parser struct {
	src              string
	pos              int
	allowParent      bool
	allowPlaceholder bool
}

// Parse parses selector list text produced by interpolation.
func Parse(text string, allowParent, allowPlaceholder bool) (*List, error) {
	p := &parser{src: text, allowParent: allowParent, allowPlaceholder: allowPlaceholder}
	l, err := p.list()
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.src) {
		return nil, p.errorf("expected selector.")
	}
	return l, nil
}

// ParseCompound parses single compound selector, used for @extend targets.
func ParseCompound(text string) (*Compound, error) {
	p := &parser{src: strings.TrimSpace(text), allowPlaceholder: true}
	c, err := p.compound()
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.src) {
		return nil, p.errorf("expected selector.")
	}
	return c, nil
}

func (p *parser) errorf(format string, args ...any) error {
	return diag.New(diag.ParseError, format, args...)
}

func (p *parser) peek() byte {
	if p.pos < len(p.src) {
		return p.src[p.pos]
	}
	return 0
}

func (p *parser) peekAt(n int) byte {
	if p.pos+n < len(p.src) {
		return p.src[p.pos+n]
	}
	return 0
}

func (p *parser) eof() bool {
	return p.pos >= len(p.src)
}

// whitespace skips spaces and comments, reports whether a newline was seen.
func (p *parser) whitespace() bool {
	newline := false
	for !p.eof() {
		c := p.peek()
		switch {
		case c == '\n' || c == '\r' || c == '\f':
			newline = true
			p.pos++
		case c == ' ' || c == '\t':
			p.pos++
		case c == '/' && p.peekAt(1) == '*':
			end := strings.Index(p.src[p.pos+2:], "*/")
			if end < 0 {
				p.pos = len(p.src)
			} else {
				p.pos += end + 4
			}
		default:
			return newline
		}
	}
	return newline
}

func (p *parser) list() (*List, error) {
	l := &List{}
	lineBreak := false
	for {
		p.whitespace()
		c, err := p.complex(lineBreak)
		if err != nil {
			return nil, err
		}
		l.Complex = append(l.Complex, c)
		p.whitespace()
		if p.peek() != ',' {
			return l, nil
		}
		p.pos++
		lineBreak = p.whitespace()
		if p.eof() || p.peek() == ')' {
			// trailing comma
			return l, nil
		}
	}
}

func (p *parser) complex(lineBreak bool) (*Complex, error) {
	c := &Complex{LineBreak: lineBreak}
	for {
		p.whitespace()
		if p.eof() {
			break
		}
		switch ch := p.peek(); ch {
		case '>', '+', '~':
			p.pos++
			c.Components = append(c.Components, Combinator(string(ch)))
			continue
		case ',', ')', '{':
		default:
			comp, err := p.compound()
			if err != nil {
				return nil, err
			}
			c.Components = append(c.Components, comp)
			continue
		}
		break
	}
	if len(c.Components) == 0 {
		return nil, p.errorf("expected selector.")
	}
	return c, nil
}

func isNameStart(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_' || c >= 0x80 || c == '\\'
}

func isNameChar(c byte) bool {
	return isNameStart(c) || c >= '0' && c <= '9' || c == '-'
}

func (p *parser) compound() (*Compound, error) {
	c := &Compound{}
	if p.peek() == '&' {
		if !p.allowParent {
			return nil, p.errorf("Parent selectors aren't allowed here.")
		}
		p.pos++
		suffix := p.nameBody()
		c.Simple = append(c.Simple, Parent{Suffix: suffix})
	}
	for !p.eof() {
		ch := p.peek()
		if ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == ',' || ch == ')' || ch == '>' || ch == '+' || ch == '~' || ch == '{' {
			break
		}
		if ch == '/' && p.peekAt(1) == '*' {
			break
		}
		if ch == '&' {
			return nil, p.errorf("\"&\" may only used at the beginning of a compound selector.")
		}
		s, err := p.simple(len(c.Simple) == 0)
		if err != nil {
			return nil, err
		}
		c.Simple = append(c.Simple, s)
	}
	if len(c.Simple) == 0 {
		return nil, p.errorf("expected selector.")
	}
	return c, nil
}

// nameBody consumes identifier characters, escapes are kept verbatim.
func (p *parser) nameBody() string {
	start := p.pos
	for !p.eof() {
		c := p.peek()
		switch {
		case c == '\\':
			p.escape()
		case isNameChar(c):
			_, n := utf8.DecodeRuneInString(p.src[p.pos:])
			p.pos += n
		default:
			return p.src[start:p.pos]
		}
	}
	return p.src[start:p.pos]
}

func (p *parser) escape() {
	p.pos++ // backslash
	if p.eof() {
		return
	}
	if isHexByte(p.peek()) {
		for i := 0; i < 6 && !p.eof() && isHexByte(p.peek()); i++ {
			p.pos++
		}
		if c := p.peek(); c == ' ' || c == '\t' || c == '\n' {
			p.pos++
		}
		return
	}
	_, n := utf8.DecodeRuneInString(p.src[p.pos:])
	p.pos += n
}

func isHexByte(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
}

func (p *parser) identifier() (string, error) {
	start := p.pos
	if p.peek() == '-' {
		p.pos++
		if p.peek() == '-' {
			p.pos++
		}
	}
	if !p.eof() && (isNameStart(p.peek()) || p.pos > start+1) {
		p.nameBody()
	}
	if p.pos == start || p.src[start:p.pos] == "-" {
		p.pos = start
		return "", p.errorf("Expected identifier.")
	}
	return p.src[start:p.pos], nil
}

func (p *parser) simple(first bool) (Simple, error) {
	switch p.peek() {
	case '.':
		p.pos++
		name, err := p.identifier()
		if err != nil {
			return nil, err
		}
		return Class{Name: name}, nil
	case '#':
		p.pos++
		name := p.nameBody()
		if name == "" {
			return nil, p.errorf("Expected identifier.")
		}
		return ID{Name: name}, nil
	case '%':
		p.pos++
		name, err := p.identifier()
		if err != nil {
			return nil, err
		}
		if !p.allowPlaceholder {
			return nil, p.errorf("Placeholder selectors aren't allowed here.")
		}
		return Placeholder{Name: name}, nil
	case '[':
		return p.attribute()
	case ':':
		return p.pseudo()
	case '*':
		p.pos++
		if p.peek() == '|' && p.peekAt(1) != '=' {
			p.pos++
			ns := "*"
			return p.typeOrUniversal(&ns)
		}
		return Universal{}, nil
	case '|':
		p.pos++
		ns := ""
		return p.typeOrUniversal(&ns)
	}
	if !first {
		return nil, p.errorf("expected selector.")
	}
	name, err := p.identifier()
	if err != nil {
		return nil, p.errorf("expected selector.")
	}
	if p.peek() == '|' && p.peekAt(1) != '=' {
		p.pos++
		return p.typeOrUniversal(&name)
	}
	return Type{Name: name}, nil
}

func (p *parser) typeOrUniversal(ns *string) (Simple, error) {
	if p.peek() == '*' {
		p.pos++
		return Universal{Namespace: ns}, nil
	}
	name, err := p.identifier()
	if err != nil {
		return nil, err
	}
	return Type{Namespace: ns, Name: name}, nil
}

func (p *parser) attribute() (Simple, error) {
	p.pos++ // [
	p.whitespace()
	a := Attribute{}
	if p.peek() == '*' || p.peek() == '|' {
		ns := ""
		if p.peek() == '*' {
			ns = "*"
			p.pos++
		}
		if p.peek() != '|' {
			return nil, p.errorf("expected \"|\".")
		}
		p.pos++
		a.Namespace = &ns
	}
	name, err := p.identifier()
	if err != nil {
		return nil, err
	}
	if p.peek() == '|' && p.peekAt(1) != '=' {
		p.pos++
		ns := name
		a.Namespace = &ns
		if name, err = p.identifier(); err != nil {
			return nil, err
		}
	}
	a.Name = name
	p.whitespace()
	if p.peek() == ']' {
		p.pos++
		return a, nil
	}
	switch c := p.peek(); c {
	case '=':
		a.Op = "="
		p.pos++
	case '~', '|', '^', '$', '*':
		if p.peekAt(1) != '=' {
			return nil, p.errorf("Expected \"]\".")
		}
		a.Op = string(c) + "="
		p.pos += 2
	default:
		return nil, p.errorf("Expected \"]\".")
	}
	p.whitespace()
	if q := p.peek(); q == '"' || q == '\'' {
		v, err := p.quoted(q)
		if err != nil {
			return nil, err
		}
		a.Value, a.Quoted = v, true
	} else {
		v, err := p.identifier()
		if err != nil {
			return nil, err
		}
		a.Value = v
	}
	p.whitespace()
	if isNameStart(p.peek()) {
		start := p.pos
		p.nameBody()
		a.Modifier = p.src[start:p.pos]
		p.whitespace()
	}
	if p.peek() != ']' {
		return nil, p.errorf("expected \"]\".")
	}
	p.pos++
	return a, nil
}

// quoted returns contents of quoted string with escaped quotes resolved.
func (p *parser) quoted(q byte) (string, error) {
	p.pos++
	var b strings.Builder
	for !p.eof() {
		c := p.peek()
		switch c {
		case q:
			p.pos++
			return b.String(), nil
		case '\\':
			if p.peekAt(1) == q || p.peekAt(1) == '\\' {
				b.WriteByte(p.peekAt(1))
				p.pos += 2
				continue
			}
		}
		b.WriteByte(c)
		p.pos++
	}
	return "", p.errorf("Expected %c.", q)
}

func (p *parser) pseudo() (Simple, error) {
	p.pos++ // :
	ps := Pseudo{}
	if p.peek() == ':' {
		p.pos++
		ps.Element, ps.DoubleColon = true, true
	}
	name, err := p.identifier()
	if err != nil {
		return nil, err
	}
	ps.Name = name
	if !ps.Element && legacyPseudoElements[strings.ToLower(name)] {
		ps.Element = true
	}
	if p.peek() != '(' {
		return ps, nil
	}
	p.pos++
	p.whitespace()

	norm := ps.NormalizedName()
	switch {
	case !ps.Element && selectorPseudoClasses[norm], ps.Element && selectorPseudoElements[norm]:
		sel, err := p.nested()
		if err != nil {
			return nil, err
		}
		ps.Selector = sel
	case !ps.Element && (norm == "nth-child" || norm == "nth-last-child"):
		arg := p.rawUntil(true)
		ps.Arg = normalizeNth(arg)
		if strings.HasPrefix(strings.ToLower(p.src[p.pos:]), "of") && p.pos+2 < len(p.src) && (p.src[p.pos+2] == ' ' || p.src[p.pos+2] == '\t') {
			p.pos += 2
			p.whitespace()
			ps.Arg += " of"
			sel, err := p.nested()
			if err != nil {
				return nil, err
			}
			ps.Selector = sel
		}
	default:
		ps.Arg = strings.TrimSpace(p.rawUntil(false))
	}
	p.whitespace()
	if p.peek() != ')' {
		return nil, p.errorf("expected \")\".")
	}
	p.pos++
	return ps, nil
}

func (p *parser) nested() (*List, error) {
	sub := &parser{src: p.src, pos: p.pos, allowParent: p.allowParent, allowPlaceholder: true}
	l, err := sub.list()
	if err != nil {
		return nil, err
	}
	p.pos = sub.pos
	return l, nil
}

// rawUntil consumes balanced text up to closing parenthesis, when stopAtOf is
// set it also stops in front of " of ".
func (p *parser) rawUntil(stopAtOf bool) string {
	start := p.pos
	depth := 0
	for !p.eof() {
		c := p.peek()
		switch c {
		case '(':
			depth++
		case ')':
			if depth == 0 {
				return p.src[start:p.pos]
			}
			depth--
		case '"', '\'':
			_, _ = p.quoted(c)
			continue
		case ' ', '\t', '\n':
			if stopAtOf && depth == 0 {
				rest := strings.TrimLeft(p.src[p.pos:], " \t\n")
				if len(rest) > 2 && strings.EqualFold(rest[:2], "of") && (rest[2] == ' ' || rest[2] == '\t') {
					s := p.src[start:p.pos]
					p.whitespace()
					return s
				}
			}
		}
		p.pos++
	}
	return p.src[start:p.pos]
}

// normalizeNth writes An+B microsyntax without whitespace.
func normalizeNth(s string) string {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	if lower == "odd" || lower == "even" {
		return lower
	}
	return strings.Join(strings.Fields(s), "")
}
