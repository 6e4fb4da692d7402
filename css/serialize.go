package css

import (
	"io"
	"strings"

	"sassy/codemap"
	"sassy/common"
	"sassy/value"
)

// Serializer writes evaluated tree as CSS text. Top level statements are fed
// one by one with VisitGroup, Finish returns complete output.
type Serializer struct {
	compressed bool
	charset    bool
	files      *codemap.Map
	buf        strings.Builder
	indent     int
	noIndent   bool
	started    bool
}

// Option configures Serializer.
type Option func(*Serializer)

// WithCharset controls @charset/BOM prefix for non ASCII output.
func WithCharset(on bool) Option {
	return func(s *Serializer) { s.charset = on }
}

// WithSources lets serializer consult source positions to keep comments on
// the line of the preceding statement.
func WithSources(m *codemap.Map) Option {
	return func(s *Serializer) { s.files = m }
}

// NewSerializer returns serializer for requested output style.
func NewSerializer(style common.OutputStyle, opts ...Option) *Serializer {
	s := &Serializer{compressed: style == common.OutputStyleCompressed, charset: true}
	for _, o := range opts {
		o(s)
	}
	return s
}

// VisitGroup writes next visible top level statement. Flags describe
// statement written before it.
func (s *Serializer) VisitGroup(n Node, prevWasGroupEnd, prevRequiresSemicolon bool) error {
	if s.started {
		if prevRequiresSemicolon {
			s.buf.WriteByte(';')
		}
		if !s.compressed {
			s.buf.WriteByte('\n')
			if prevWasGroupEnd {
				s.buf.WriteByte('\n')
			}
		}
	}
	s.started = true
	return s.visit(n)
}

// visitTrailing writes comment on the line of the previous statement.
func (s *Serializer) visitTrailing(n Node, prevRequiresSemicolon bool) error {
	if prevRequiresSemicolon {
		s.buf.WriteByte(';')
	}
	s.buf.WriteByte(' ')
	s.noIndent = true
	err := s.visit(n)
	s.noIndent = false
	return err
}

// Finish completes output and returns it.
func (s *Serializer) Finish(prevRequiresSemicolon bool) string {
	if prevRequiresSemicolon {
		s.buf.WriteByte(';')
	}
	out := s.buf.String()
	if !s.compressed && out != "" {
		out += "\n"
	}
	if s.charset && !isASCII(out) {
		if s.compressed {
			return "\ufeff" + out
		}
		return "@charset \"UTF-8\";\n" + out
	}
	return out
}

// Serialize writes whole tree.
func Serialize(root *Root, style common.OutputStyle, opts ...Option) (string, error) {
	s := NewSerializer(style, opts...)
	var prev Node
	for _, n := range root.Body {
		if IsInvisible(n, s.compressed) {
			continue
		}
		var err error
		if prev != nil && s.isTrailingComment(n, prev) {
			err = s.visitTrailing(n, RequiresSemicolon(prev))
		} else if prev != nil {
			err = s.VisitGroup(n, prev.IsGroupEnd(), RequiresSemicolon(prev))
		} else {
			err = s.VisitGroup(n, false, false)
		}
		if err != nil {
			return "", err
		}
		prev = n
	}
	return s.Finish(prev != nil && RequiresSemicolon(prev)), nil
}

// Render serializes tree into w.
func (r *Root) Render(w io.Writer, style common.OutputStyle, opts ...Option) (int64, error) {
	out, err := Serialize(r, style, opts...)
	if err != nil {
		return 0, err
	}
	n, err := io.WriteString(w, out)
	return int64(n), err
}

// String returns tree in expanded style, it is meant for debugging.
func (r *Root) String() string {
	out, err := Serialize(r, common.OutputStyleExpanded)
	if err != nil {
		return err.Error()
	}
	return out
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

func (s *Serializer) writeIndent() {
	if s.compressed || s.noIndent {
		s.noIndent = false
		return
	}
	for range s.indent {
		s.buf.WriteString("  ")
	}
}

func (s *Serializer) optionalSpace() {
	if !s.compressed {
		s.buf.WriteByte(' ')
	}
}

func (s *Serializer) indentString() string {
	if s.compressed {
		return ""
	}
	return strings.Repeat("  ", s.indent)
}

func (s *Serializer) visit(n Node) error {
	switch t := n.(type) {
	case *RuleSet:
		s.writeIndent()
		s.buf.WriteString(t.Selector.Format(s.compressed, s.indentString()))
		s.optionalSpace()
		return s.children(t)
	case *Style:
		return s.style(t)
	case *Media:
		s.writeIndent()
		s.buf.WriteString("@media")
		q := t.Queries[0]
		if !s.compressed || q.Modifier != "" || q.Type != "" ||
			len(q.Conditions) == 1 && strings.HasPrefix(q.Conditions[0], "(not ") {
			s.buf.WriteByte(' ')
		}
		s.buf.WriteString(FormatMediaQueries(t.Queries, s.compressed))
		s.optionalSpace()
		return s.children(t)
	case *Supports:
		s.writeIndent()
		s.buf.WriteString("@supports")
		if !s.compressed || !strings.HasPrefix(t.Condition, "(") {
			s.buf.WriteByte(' ')
		}
		s.buf.WriteString(t.Condition)
		s.optionalSpace()
		return s.children(t)
	case *AtRule:
		s.writeIndent()
		s.buf.WriteByte('@')
		s.buf.WriteString(t.Name)
		if t.Params != "" {
			s.buf.WriteByte(' ')
			s.buf.WriteString(t.Params)
		}
		if !t.HasBody {
			return nil
		}
		s.optionalSpace()
		return s.children(t)
	case *Keyframes:
		s.writeIndent()
		s.buf.WriteByte('@')
		s.buf.WriteString(t.Name)
		if t.Params != "" {
			s.buf.WriteByte(' ')
			s.buf.WriteString(t.Params)
		}
		s.optionalSpace()
		return s.children(t)
	case *KeyframesRuleSet:
		s.writeIndent()
		sep := ", "
		if s.compressed {
			sep = ","
		}
		s.buf.WriteString(strings.Join(t.Selector, sep))
		s.optionalSpace()
		return s.children(t)
	case *Comment:
		s.comment(t)
	case *Import:
		s.writeIndent()
		s.buf.WriteString("@import")
		s.optionalSpace()
		s.importURL(t.URL)
		if t.Modifiers != "" {
			s.optionalSpace()
			s.buf.WriteString(t.Modifiers)
		}
	}
	return nil
}

func (s *Serializer) children(p Parent) error {
	s.buf.WriteByte('{')
	var prePrev, prev Node
	for _, child := range p.Children() {
		if IsInvisible(child, s.compressed) {
			continue
		}
		if prev != nil && RequiresSemicolon(prev) {
			s.buf.WriteByte(';')
		}
		var after Node = p
		if prev != nil {
			after = prev
		}
		if s.isTrailingComment(child, after) {
			s.optionalSpace()
			s.noIndent = true
			if err := s.visit(child); err != nil {
				return err
			}
			s.noIndent = false
		} else {
			if !s.compressed {
				s.buf.WriteByte('\n')
			}
			s.indent++
			err := s.visit(child)
			s.indent--
			if err != nil {
				return err
			}
		}
		prePrev, prev = prev, child
	}
	if prev != nil {
		if RequiresSemicolon(prev) && !s.compressed {
			s.buf.WriteByte(';')
		}
		if prePrev == nil && s.isTrailingComment(prev, p) {
			s.optionalSpace()
		} else if !s.compressed {
			s.buf.WriteByte('\n')
			s.writeIndent()
		}
	}
	s.buf.WriteByte('}')
	return nil
}

func (s *Serializer) style(t *Style) error {
	s.writeIndent()
	s.buf.WriteString(t.Name)
	s.buf.WriteByte(':')
	s.optionalSpace()
	if t.Custom {
		text, err := value.ToCSSUnquoted(t.Value, s.compressed)
		if err != nil {
			return err
		}
		if s.compressed {
			text = foldLines(text)
		}
		s.buf.WriteString(text)
		return nil
	}
	text, err := value.ToCSS(t.Value, s.compressed)
	if err != nil {
		return err
	}
	s.buf.WriteString(text)
	return nil
}

// foldLines joins lines of custom property value with single space.
func foldLines(text string) string {
	if !strings.Contains(text, "\n") {
		return text
	}
	var b strings.Builder
	for i := 0; i < len(text); i++ {
		if text[i] != '\n' {
			b.WriteByte(text[i])
			continue
		}
		b.WriteByte(' ')
		for i+1 < len(text) && isSpace(text[i+1]) {
			i++
		}
	}
	return b.String()
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

func (s *Serializer) importURL(url string) {
	if !s.compressed || !strings.HasPrefix(url, "url(") || !strings.HasSuffix(url, ")") {
		s.buf.WriteString(url)
		return
	}
	inner := url[4 : len(url)-1]
	if strings.HasPrefix(inner, `"`) || strings.HasPrefix(inner, "'") {
		s.buf.WriteString(inner)
		return
	}
	s.buf.WriteString(value.QuoteString(inner))
}

func (s *Serializer) comment(c *Comment) {
	if s.compressed && !c.IsPreserved() {
		return
	}
	s.writeIndent()
	minIndent, ok := minimumIndentation(c.Text)
	if !ok {
		s.buf.WriteString(c.Text)
		return
	}
	minIndent = max(0, min(minIndent, c.Column))
	lines := strings.Split(c.Text, "\n")
	s.buf.WriteString(lines[0])
	prefix := s.indentString()
	for _, line := range lines[1:] {
		s.buf.WriteByte('\n')
		if strings.TrimSpace(line) == "" {
			continue
		}
		lead := len(line) - len(strings.TrimLeft(line, " \t"))
		s.buf.WriteString(prefix)
		s.buf.WriteString(line[min(lead, minIndent):])
	}
}

// minimumIndentation returns smallest indentation of lines after the first
// one, false for single line text.
func minimumIndentation(text string) (int, bool) {
	lines := strings.Split(text, "\n")
	if len(lines) == 1 {
		return 0, false
	}
	res := -1
	for _, line := range lines[1:] {
		trimmed := strings.TrimLeft(line, " \t")
		if trimmed == "" {
			continue
		}
		if lead := len(line) - len(trimmed); res < 0 || lead < res {
			res = lead
		}
	}
	return res, true
}

// isTrailingComment checks if comment n starts on the line where prev ends,
// or on the line of the opening brace when prev contains n.
func (s *Serializer) isTrailingComment(n, prev Node) bool {
	if s.compressed || s.files == nil {
		return false
	}
	if _, ok := n.(*Comment); !ok {
		return false
	}
	ns, ps := n.Pos(), prev.Pos()
	if ns.IsZero() || ps.IsZero() {
		return false
	}
	f := s.files.File(ps)
	if f == nil || s.files.File(ns) != f {
		return false
	}
	if ns.Lo < ps.Lo || ns.Hi > ps.Hi {
		return lineOf(f, ns.Lo) == lineOf(f, ps.Hi)
	}
	from := ns.Lo - ps.Lo - 1
	if from < 0 {
		return false
	}
	text := f.Text(ps)
	if from >= len(text) {
		return false
	}
	brace := max(0, strings.LastIndexByte(text[:from+1], '{'))
	return lineOf(f, ns.Lo) == lineOf(f, ps.Lo+brace)
}

func lineOf(f *codemap.File, off int) int {
	off -= f.Base()
	off = min(max(off, 0), len(f.Src))
	return strings.Count(f.Src[:off], "\n")
}
