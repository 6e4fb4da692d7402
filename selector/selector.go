// Package selector models CSS selectors and implements nesting resolution,
// @extend and the selector functions of the language.
package selector

import (
	"slices"
	"strings"
)

// Combinator joins compound selectors, descendant combinator is implied
// between two adjacent compounds.
type Combinator string

const (
	Child       Combinator = ">"
	NextSibling Combinator = "+"
	Following   Combinator = "~"
)

// Component is either *Compound or Combinator.
type Component interface {
	isComponent()
}

func (*Compound) isComponent()  {}
func (Combinator) isComponent() {}

// List is comma separated selector list.
type List struct {
	Complex []*Complex
}

// Complex is sequence of compounds and combinators.
type Complex struct {
	Components []Component
	// LineBreak is set when source had a line break before this selector.
	LineBreak bool
}

// Compound is a sequence of simple selectors without combinators.
type Compound struct {
	Simple []Simple
}

// Simple is single simple selector.
type Simple interface {
	write(b *strings.Builder, compressed bool)
	equal(Simple) bool
}

// Type selects by element name, Namespace is nil when no namespace was given.
type Type struct {
	Namespace *string
	Name      string
}

// Universal is * with optional namespace.
type Universal struct {
	Namespace *string
}

// Class is .name.
type Class struct{ Name string }

// ID is #name.
type ID struct{ Name string }

// Placeholder is %name, placeholders never appear in output.
type Placeholder struct{ Name string }

// Attribute is [name op value modifier].
type Attribute struct {
	Namespace *string
	Name      string
	Op        string
	Value     string
	// Quoted is set if value was written quoted in source.
	Quoted   bool
	Modifier string
}

// Pseudo is :name or ::name with optional argument and selector.
type Pseudo struct {
	Name    string
	Element bool
	// syntax with two colons; legacy pseudo elements keep single one
	DoubleColon bool
	Arg         string
	Selector    *List
}

// Parent is & with optional suffix (&-foo).
type Parent struct {
	Suffix string
}

func writeNS(b *strings.Builder, ns *string) {
	if ns != nil {
		b.WriteString(*ns)
		b.WriteByte('|')
	}
}

func nsEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (s Type) write(b *strings.Builder, _ bool) {
	writeNS(b, s.Namespace)
	b.WriteString(s.Name)
}

func (s Universal) write(b *strings.Builder, _ bool) {
	writeNS(b, s.Namespace)
	b.WriteByte('*')
}

func (s Class) write(b *strings.Builder, _ bool) {
	b.WriteByte('.')
	b.WriteString(s.Name)
}

func (s ID) write(b *strings.Builder, _ bool) {
	b.WriteByte('#')
	b.WriteString(s.Name)
}

func (s Placeholder) write(b *strings.Builder, _ bool) {
	b.WriteByte('%')
	b.WriteString(s.Name)
}

func (s Parent) write(b *strings.Builder, _ bool) {
	b.WriteByte('&')
	b.WriteString(s.Suffix)
}

func (s Attribute) write(b *strings.Builder, _ bool) {
	b.WriteByte('[')
	writeNS(b, s.Namespace)
	b.WriteString(s.Name)
	if s.Op != "" {
		b.WriteString(s.Op)
		if isIdent(s.Value) && !strings.HasPrefix(s.Value, "--") {
			b.WriteString(s.Value)
		} else {
			b.WriteString(quoteAttr(s.Value))
		}
		if s.Modifier != "" {
			b.WriteByte(' ')
			b.WriteString(s.Modifier)
		}
	}
	b.WriteByte(']')
}

func quoteAttr(s string) string {
	q := byte('"')
	if strings.IndexByte(s, '"') >= 0 && strings.IndexByte(s, '\'') < 0 {
		q = '\''
	}
	var b strings.Builder
	b.WriteByte(q)
	for i := 0; i < len(s); i++ {
		if s[i] == q {
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
	b.WriteByte(q)
	return b.String()
}

func (s Pseudo) write(b *strings.Builder, compressed bool) {
	b.WriteByte(':')
	if s.DoubleColon {
		b.WriteByte(':')
	}
	b.WriteString(s.Name)
	if s.Arg == "" && s.Selector == nil {
		return
	}
	b.WriteByte('(')
	if s.Arg != "" {
		b.WriteString(s.Arg)
		if s.Selector != nil {
			b.WriteByte(' ')
		}
	}
	if s.Selector != nil {
		b.WriteString(s.Selector.format(compressed, "", false))
	}
	b.WriteByte(')')
}

func (s Type) equal(o Simple) bool {
	t, ok := o.(Type)
	return ok && t.Name == s.Name && nsEqual(t.Namespace, s.Namespace)
}

func (s Universal) equal(o Simple) bool {
	t, ok := o.(Universal)
	return ok && nsEqual(t.Namespace, s.Namespace)
}

func (s Class) equal(o Simple) bool {
	t, ok := o.(Class)
	return ok && t == s
}

func (s ID) equal(o Simple) bool {
	t, ok := o.(ID)
	return ok && t == s
}

func (s Placeholder) equal(o Simple) bool {
	t, ok := o.(Placeholder)
	return ok && t == s
}

func (s Parent) equal(o Simple) bool {
	t, ok := o.(Parent)
	return ok && t == s
}

func (s Attribute) equal(o Simple) bool {
	t, ok := o.(Attribute)
	return ok && t.Name == s.Name && t.Op == s.Op && t.Value == s.Value && t.Modifier == s.Modifier && nsEqual(t.Namespace, s.Namespace)
}

func (s Pseudo) equal(o Simple) bool {
	t, ok := o.(Pseudo)
	if !ok || t.Name != s.Name || t.Element != s.Element || t.Arg != s.Arg {
		return false
	}
	if t.Selector == nil || s.Selector == nil {
		return t.Selector == s.Selector
	}
	return t.Selector.Equal(s.Selector)
}

// NormalizedName is pseudo name without vendor prefix in lower case.
func (s Pseudo) NormalizedName() string {
	n := strings.ToLower(s.Name)
	if strings.HasPrefix(n, "-") {
		if i := strings.IndexByte(n[1:], '-'); i >= 0 {
			return n[i+2:]
		}
	}
	return n
}

// Equal compares lists structurally.
func (l *List) Equal(o *List) bool {
	if len(l.Complex) != len(o.Complex) {
		return false
	}
	for i := range l.Complex {
		if !l.Complex[i].Equal(o.Complex[i]) {
			return false
		}
	}
	return true
}

// Equal compares complex selectors structurally, line breaks are ignored.
func (c *Complex) Equal(o *Complex) bool {
	if len(c.Components) != len(o.Components) {
		return false
	}
	for i := range c.Components {
		switch x := c.Components[i].(type) {
		case Combinator:
			if y, ok := o.Components[i].(Combinator); !ok || x != y {
				return false
			}
		case *Compound:
			y, ok := o.Components[i].(*Compound)
			if !ok || !x.Equal(y) {
				return false
			}
		}
	}
	return true
}

// Equal compares compounds ignoring order of simple selectors.
func (c *Compound) Equal(o *Compound) bool {
	if len(c.Simple) != len(o.Simple) {
		return false
	}
	for _, s := range c.Simple {
		if !o.Has(s) {
			return false
		}
	}
	return true
}

// Has reports whether compound contains simple selector s.
func (c *Compound) Has(s Simple) bool {
	return slices.ContainsFunc(c.Simple, s.equal)
}

// Clone returns deep enough copy of the list to be modified.
func (l *List) Clone() *List {
	n := &List{Complex: make([]*Complex, len(l.Complex))}
	for i, c := range l.Complex {
		n.Complex[i] = c.clone()
	}
	return n
}

func (c *Complex) clone() *Complex {
	n := &Complex{LineBreak: c.LineBreak, Components: make([]Component, len(c.Components))}
	for i, comp := range c.Components {
		if cc, ok := comp.(*Compound); ok {
			comp = &Compound{Simple: slices.Clone(cc.Simple)}
		}
		n.Components[i] = comp
	}
	return n
}

// LastCompound returns trailing compound or nil if selector ends with a
// combinator.
func (c *Complex) LastCompound() *Compound {
	if len(c.Components) == 0 {
		return nil
	}
	cc, _ := c.Components[len(c.Components)-1].(*Compound)
	return cc
}

// IsInvisible reports whether every complex selector of the list is
// invisible.
func (l *List) IsInvisible() bool {
	for _, c := range l.Complex {
		if !c.IsInvisible() {
			return false
		}
	}
	return true
}

// IsInvisible reports whether complex selector contains placeholder.
func (c *Complex) IsInvisible() bool {
	for _, comp := range c.Components {
		if cc, ok := comp.(*Compound); ok && cc.isInvisible() {
			return true
		}
	}
	return false
}

func (c *Compound) isInvisible() bool {
	for _, s := range c.Simple {
		switch t := s.(type) {
		case Placeholder:
			return true
		case Pseudo:
			if t.Selector != nil && t.NormalizedName() != "not" && t.Selector.IsInvisible() {
				return true
			}
		}
	}
	return false
}

// HasParent reports whether list contains & anywhere, including selector
// arguments of pseudo classes.
func (l *List) HasParent() bool {
	for _, c := range l.Complex {
		for _, comp := range c.Components {
			if cc, ok := comp.(*Compound); ok && cc.hasParent() {
				return true
			}
		}
	}
	return false
}

func (c *Compound) hasParent() bool {
	for _, s := range c.Simple {
		switch t := s.(type) {
		case Parent:
			return true
		case Pseudo:
			if t.Selector != nil && t.Selector.HasParent() {
				return true
			}
		}
	}
	return false
}

// String returns selector formatted with expanded style on a single line.
func (l *List) String() string {
	return l.format(false, "", true)
}

// Format renders selector list. Invisible complex selectors are skipped,
// line breaks of complex selectors are kept in expanded style and followed
// by indent.
func (l *List) Format(compressed bool, indent string) string {
	return l.format(compressed, indent, false)
}

func (l *List) format(compressed bool, indent string, inspect bool) string {
	var b strings.Builder
	first := true
	for _, c := range l.Complex {
		if !inspect && c.IsInvisible() {
			continue
		}
		if !first {
			b.WriteByte(',')
			switch {
			case compressed:
			case c.LineBreak && !inspect:
				b.WriteByte('\n')
				b.WriteString(indent)
			default:
				b.WriteByte(' ')
			}
		}
		first = false
		c.write(&b, compressed)
	}
	return b.String()
}

// String returns complex selector in expanded style.
func (c *Complex) String() string {
	var b strings.Builder
	c.write(&b, false)
	return b.String()
}

func (c *Complex) write(b *strings.Builder, compressed bool) {
	var prev Component
	for i, comp := range c.Components {
		switch t := comp.(type) {
		case Combinator:
			if i > 0 && !compressed {
				b.WriteByte(' ')
			}
			b.WriteString(string(t))
			if i < len(c.Components)-1 && !compressed {
				b.WriteByte(' ')
			}
		case *Compound:
			if _, ok := prev.(*Compound); ok {
				b.WriteByte(' ')
			}
			t.write(b, compressed)
		}
		prev = comp
	}
}

// String returns compound as text.
func (c *Compound) String() string {
	var b strings.Builder
	c.write(&b, false)
	return b.String()
}

func (c *Compound) write(b *strings.Builder, compressed bool) {
	for _, s := range c.Simple {
		s.write(b, compressed)
	}
}

// SimpleString renders single simple selector.
func SimpleString(s Simple) string {
	var b strings.Builder
	s.write(&b, false)
	return b.String()
}
