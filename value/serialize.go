package value

import (
	"strings"
)

// ToCSS renders value as it appears in a declaration.
func ToCSS(v Value, compressed bool) (string, error) {
	return serialize(v, false, compressed, true)
}

// ToCSSUnquoted renders value for interpolation, quoted strings lose quotes.
func ToCSSUnquoted(v Value, compressed bool) (string, error) {
	return serialize(v, false, compressed, false)
}

// Inspect renders value the way inspect() and @debug show it. It never fails.
func Inspect(v Value) string {
	s, _ := serialize(v, true, false, true)
	return s
}

func serialize(v Value, inspect, compressed, quote bool) (string, error) {
	w := &writer{inspect: inspect, compressed: compressed, quote: quote}
	if err := w.value(v); err != nil {
		return "", err
	}
	return w.b.String(), nil
}

type writer struct {
	b          strings.Builder
	inspect    bool
	compressed bool
	quote      bool
}

func invalidCSS(v Value) error {
	return typeErr("%s isn't a valid CSS value.", Inspect(v))
}

func (w *writer) value(v Value) error {
	switch t := v.(type) {
	case Null:
		if w.inspect {
			w.b.WriteString("null")
		}
	case Bool:
		if t {
			w.b.WriteString("true")
		} else {
			w.b.WriteString("false")
		}
	case Number:
		return w.number(t)
	case Color:
		w.color(t)
	case String:
		if w.quote && t.Quoted {
			writeQuoted(&w.b, t.Text)
		} else {
			w.b.WriteString(t.Text)
		}
	case List:
		return w.list(t)
	case *ArgList:
		return w.list(t.List)
	case *Map:
		if !w.inspect {
			return invalidCSS(t)
		}
		w.b.WriteByte('(')
		for i, p := range t.Pairs {
			if i > 0 {
				w.b.WriteString(", ")
			}
			w.mapElement(p.Key)
			w.b.WriteString(": ")
			w.mapElement(p.Value)
		}
		w.b.WriteByte(')')
	case *Function:
		if !w.inspect {
			return invalidCSS(t)
		}
		w.b.WriteString("get-function(")
		writeQuoted(&w.b, t.Name)
		w.b.WriteByte(')')
	case *Mixin:
		if !w.inspect {
			return invalidCSS(t)
		}
		w.b.WriteString("get-mixin(")
		writeQuoted(&w.b, t.Name)
		w.b.WriteByte(')')
	case *Calculation:
		return w.calculation(t)
	}
	return nil
}

func (w *writer) mapElement(v Value) {
	l, ok := v.(List)
	needsParens := ok && l.Sep == SepComma && len(l.Items) >= 2 && !l.Brackets
	if needsParens {
		w.b.WriteByte('(')
	}
	_ = w.value(v)
	if needsParens {
		w.b.WriteByte(')')
	}
}

func (w *writer) number(n Number) error {
	if num, den, ok := n.Slash(); ok {
		if err := w.number(num); err != nil {
			return err
		}
		w.b.WriteByte('/')
		return w.number(den)
	}
	if !w.inspect && (len(n.Units.Num) > 1 || len(n.Units.Den) > 0) {
		return invalidCSS(n)
	}
	w.b.WriteString(formatNumber(n.Value, w.compressed))
	w.b.WriteString(n.Units.String())
	return nil
}

func (w *writer) color(c Color) {
	if w.compressed && !w.inspect && fuzzyEquals(c.a, 1) {
		hex := c.hex()
		if c.canShortHex() {
			hex = c.shortHex()
		}
		if name, ok := nameOf(c); ok && len(name) <= len(hex) {
			w.b.WriteString(name)
		} else {
			w.b.WriteString(hex)
		}
		return
	}
	if c.spelled != "" && !w.compressed {
		w.b.WriteString(c.spelled)
		return
	}
	if name, ok := nameOf(c); ok {
		if !w.compressed || len(name) <= len("rgba(0,0,0,0)") {
			w.b.WriteString(name)
			return
		}
	}
	if fuzzyEquals(c.a, 1) {
		w.b.WriteString(c.hex())
		return
	}
	sep := ", "
	if w.compressed {
		sep = ","
	}
	w.b.WriteString("rgba(")
	w.b.WriteString(formatNumber(float64(c.r), false))
	w.b.WriteString(sep)
	w.b.WriteString(formatNumber(float64(c.g), false))
	w.b.WriteString(sep)
	w.b.WriteString(formatNumber(float64(c.b), false))
	w.b.WriteString(sep)
	w.b.WriteString(formatNumber(c.a, w.compressed))
	w.b.WriteByte(')')
}

func (w *writer) separator(s Separator) string {
	switch s {
	case SepComma:
		if w.compressed {
			return ","
		}
		return ", "
	case SepSlash:
		if w.compressed {
			return "/"
		}
		return " / "
	}
	return " "
}

func elementNeedsParens(sep Separator, v Value) bool {
	l, ok := v.(List)
	if !ok {
		if a, isArgs := v.(*ArgList); isArgs {
			l, ok = a.List, true
		}
	}
	if !ok || len(l.Items) < 2 || l.Brackets {
		return false
	}
	switch sep {
	case SepComma:
		return l.Sep == SepComma
	case SepSlash:
		return l.Sep == SepComma || l.Sep == SepSlash
	}
	return l.Sep != SepUndecided
}

func (w *writer) list(l List) error {
	if l.Brackets {
		w.b.WriteByte('[')
	} else if len(l.Items) == 0 {
		if !w.inspect {
			return invalidCSS(l)
		}
		w.b.WriteString("()")
		return nil
	}

	singleton := w.inspect && len(l.Items) == 1 && l.Sep == SepComma
	if singleton && !l.Brackets {
		w.b.WriteByte('(')
	}

	sep := w.separator(l.Sep)
	first := true
	for _, item := range l.Items {
		if !w.inspect && IsBlank(item) {
			continue
		}
		if !first {
			w.b.WriteString(sep)
		}
		first = false
		parens := w.inspect && elementNeedsParens(l.Sep, item)
		if parens {
			w.b.WriteByte('(')
		}
		if err := w.value(item); err != nil {
			return err
		}
		if parens {
			w.b.WriteByte(')')
		}
	}

	if singleton {
		w.b.WriteByte(',')
		if !l.Brackets {
			w.b.WriteByte(')')
		}
	}
	if l.Brackets {
		w.b.WriteByte(']')
	}
	return nil
}

func isHex(r rune) bool {
	return r >= '0' && r <= '9' || r >= 'a' && r <= 'f' || r >= 'A' && r <= 'F'
}

// writeQuoted writes s as CSS string choosing double quotes unless s
// contains double quotes and no single quotes.
func writeQuoted(b *strings.Builder, s string) {
	q := byte('"')
	if strings.IndexByte(s, '"') >= 0 && strings.IndexByte(s, '\'') < 0 {
		q = '\''
	}
	b.WriteByte(q)
	rs := []rune(s)
	for i, r := range rs {
		switch {
		case r == rune(q) || r == '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r < 0x20 && r != '\t' || r == 0x7f:
			b.WriteByte('\\')
			b.WriteString(strings.ToLower(strconvHex(int(r))))
			if i+1 < len(rs) && (isHex(rs[i+1]) || rs[i+1] == ' ' || rs[i+1] == '\t') {
				b.WriteByte(' ')
			}
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte(q)
}

// QuoteString returns s written as quoted CSS string.
func QuoteString(s string) string {
	var b strings.Builder
	writeQuoted(&b, s)
	return b.String()
}

func strconvHex(v int) string {
	const digits = "0123456789abcdef"
	if v == 0 {
		return "0"
	}
	var buf []byte
	for v > 0 {
		buf = append([]byte{digits[v&15]}, buf...)
		v >>= 4
	}
	return string(buf)
}
