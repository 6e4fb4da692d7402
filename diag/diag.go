// Package diag defines error taxonomy shared by parser and evaluator and
// renders errors the way command line users expect to see them.
package diag

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"sassy/codemap"
)

// Kind classifies compilation errors.
type Kind int

const (
	ParseError Kind = iota
	TypeError
	UnitError
	UndefinedVariable
	UndefinedMixin
	UndefinedFunction
	ImportError
	UnsupportedConstruct
	UserError
	StackDepth
)

var kindNames = [...]string{
	"ParseError",
	"TypeError",
	"UnitError",
	"UndefinedVariable",
	"UndefinedMixin",
	"UndefinedFunction",
	"ImportError",
	"UnsupportedConstruct",
	"UserError",
	"StackDepth",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Frame is one entry of the evaluation stack recorded for an error.
type Frame struct {
	Name string
	Span codemap.Span
}

// Error is the structured error produced by every stage of compilation.
type Error struct {
	Kind    Kind
	Message string
	Span    codemap.Span
	// Trace lists invocation frames, innermost first. The span of the
	// error itself is not repeated here.
	Trace []Frame
}

func (e *Error) Error() string {
	return e.Message
}

// New creates error without location.
func New(kind Kind, format string, args ...any) *Error {
	if len(args) == 0 {
		return &Error{Kind: kind, Message: format}
	}
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// At creates error at span.
func At(kind Kind, span codemap.Span, format string, args ...any) *Error {
	e := New(kind, format, args...)
	e.Span = span
	return e
}

// WithSpan makes sure err is *Error with location. Existing location is kept,
// foreign errors are converted into errors of kind TypeError.
func WithSpan(err error, span codemap.Span) error {
	if err == nil {
		return nil
	}
	var de *Error
	if !errors.As(err, &de) {
		return &Error{Kind: TypeError, Message: err.Error(), Span: span}
	}
	if de.Span.IsZero() {
		de.Span = span
	}
	return de
}

// Format renders message with source excerpt:
//
//	Error: message
//	  ╷
//	1 │ a { color: foo(; }
//	  │                ^
//	  ╵
//	  input.scss 1:16  root stylesheet
//
// trace holds locations of enclosing invocations (innermost first) and their
// names, last entry is always reported as root stylesheet.
func Format(msg string, loc codemap.Loc, trace []TraceLine, unicode bool) string {
	vbar, top, bottom := "│", "╷", "╵"
	if !unicode {
		vbar, top, bottom = "|", ",", "'"
	}

	var b strings.Builder
	b.WriteString("Error: ")
	b.WriteString(msg)
	b.WriteByte('\n')

	width := len(strconv.Itoa(loc.Line))
	pad := strings.Repeat(" ", width)

	fmt.Fprintf(&b, "%s %s\n", pad, top)
	fmt.Fprintf(&b, "%*d %s %s\n", width, loc.Line, vbar, loc.LineText)

	caret := strings.Builder{}
	for i := 0; i < loc.Offset && i < len(loc.LineText); i++ {
		if loc.LineText[i] == '\t' {
			caret.WriteByte('\t')
		} else {
			caret.WriteByte(' ')
		}
	}
	n := max(loc.Width, 1)
	caret.WriteString(strings.Repeat("^", n))
	fmt.Fprintf(&b, "%s %s %s\n", pad, vbar, caret.String())
	fmt.Fprintf(&b, "%s %s\n", pad, bottom)

	if len(trace) == 0 {
		trace = []TraceLine{{Where: fmt.Sprintf("%s %d:%d", loc.File, loc.Line, loc.Col)}}
	}
	w := 0
	for _, t := range trace {
		w = max(w, len(t.Where))
	}
	for i, t := range trace {
		name := t.Name
		if i == len(trace)-1 {
			name = "root stylesheet"
		}
		fmt.Fprintf(&b, "  %-*s  %s", w, t.Where, name)
		if i != len(trace)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// TraceLine is resolved Frame ready for printing.
type TraceLine struct {
	Where string
	Name  string
}
