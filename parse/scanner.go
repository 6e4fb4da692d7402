// Package parse turns stylesheet source into syntax tree. SCSS is parsed
// directly, the indented syntax is translated into braces form first and
// plain CSS is parsed by the same scanner with Sass features disabled.
package parse

import (
	"unicode/utf8"

	parse "github.com/tdewolff/parse/v2"

	"sassy/codemap"
	"sassy/diag"
)

// Scanner is byte cursor over source of a single file.
type Scanner struct {
	in   *parse.Input
	src  string
	file *codemap.File
}

// NewScanner creates scanner for file.
func NewScanner(f *codemap.File) *Scanner {
	return &Scanner{in: parse.NewInputString(f.Src), src: f.Src, file: f}
}

// Pos returns current offset.
func (s *Scanner) Pos() int {
	return s.in.Pos()
}

// Rewind moves cursor back to pos.
func (s *Scanner) Rewind(pos int) {
	s.in.Rewind(pos)
}

// EOF reports whether all input was consumed.
func (s *Scanner) EOF() bool {
	return s.in.Pos() >= len(s.src)
}

// Peek returns byte n positions ahead, 0 past the end.
func (s *Scanner) Peek(n int) byte {
	if s.in.Pos()+n >= len(s.src) || s.in.Pos()+n < 0 {
		return 0
	}
	return s.in.Peek(n)
}

// PeekRune decodes rune at cursor.
func (s *Scanner) PeekRune() (rune, int) {
	if s.EOF() {
		return 0, 0
	}
	return utf8.DecodeRuneInString(s.src[s.in.Pos():])
}

// Next consumes one byte.
func (s *Scanner) Next() byte {
	c := s.Peek(0)
	if !s.EOF() {
		s.in.Move(1)
	}
	return c
}

// Move advances cursor n bytes.
func (s *Scanner) Move(n int) {
	if rest := len(s.src) - s.in.Pos(); n > rest {
		n = rest
	}
	s.in.Move(n)
}

// Scan consumes lit if input continues with it.
func (s *Scanner) Scan(lit string) bool {
	if s.LookingAt(lit) {
		s.in.Move(len(lit))
		return true
	}
	return false
}

// LookingAt reports whether input continues with lit.
func (s *Scanner) LookingAt(lit string) bool {
	p := s.in.Pos()
	return len(s.src)-p >= len(lit) && s.src[p:p+len(lit)] == lit
}

// LookingAtFold is LookingAt ignoring ASCII case.
func (s *Scanner) LookingAtFold(lit string) bool {
	p := s.in.Pos()
	if len(s.src)-p < len(lit) {
		return false
	}
	for i := 0; i < len(lit); i++ {
		a, b := s.src[p+i], lit[i]
		if a >= 'A' && a <= 'Z' {
			a += 'a' - 'A'
		}
		if a != b {
			return false
		}
	}
	return true
}

// Text returns source between offsets.
func (s *Scanner) Text(lo, hi int) string {
	return s.src[lo:hi]
}

// Span makes span from lo to the cursor.
func (s *Scanner) Span(lo int) codemap.Span {
	return s.file.Span(lo, s.in.Pos())
}

// SpanAt makes span for explicit range.
func (s *Scanner) SpanAt(lo, hi int) codemap.Span {
	return s.file.Span(lo, hi)
}

// Errorf creates parse error at cursor.
func (s *Scanner) Errorf(format string, args ...any) error {
	p := s.in.Pos()
	hi := p + 1
	if hi > len(s.src) {
		hi = len(s.src)
	}
	return diag.At(diag.ParseError, s.file.Span(p, hi), format, args...)
}

// ErrorAt creates parse error at span.
func (s *Scanner) ErrorAt(lo, hi int, format string, args ...any) error {
	return diag.At(diag.ParseError, s.file.Span(lo, hi), format, args...)
}

func isWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isHex(c byte) bool {
	return isDigit(c) || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
}

func isNameStart(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_' || c >= 0x80
}

func isName(c byte) bool {
	return isNameStart(c) || isDigit(c) || c == '-'
}
