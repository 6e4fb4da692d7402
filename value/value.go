// Package value implements runtime values of the stylesheet language: numbers
// with compound units, colors, strings, lists, maps, functions, together with
// their arithmetic and CSS serialization.
package value

import (
	"sassy/diag"
)

// Value is a closed sum type, only types of this package implement it.
type Value interface {
	// TypeName returns name reported by type-of().
	TypeName() string
	isValue()
}

// Null is the singleton null value.
type Null struct{}

// Bool is boolean value.
type Bool bool

// String is quoted or unquoted string.
type String struct {
	Text   string
	Quoted bool
}

// Separator of list elements.
type Separator int

const (
	SepUndecided Separator = iota
	SepSpace
	SepComma
	SepSlash
)

func (s Separator) String() string {
	switch s {
	case SepComma:
		return "comma"
	case SepSlash:
		return "slash"
	default:
		return "space"
	}
}

// List is an ordered sequence of values.
type List struct {
	Items    []Value
	Sep      Separator
	Brackets bool
}

// Pair is single map entry.
type Pair struct {
	Key, Value Value
}

// Map is ordered map with keys compared by value equality.
type Map struct {
	Pairs []Pair
}

// ArgList holds rest arguments of a callable.
type ArgList struct {
	List
	Keywords []KeywordArg
	// KeywordsAccessed is set once keywords() was called on this list.
	KeywordsAccessed bool
}

// KeywordArg is a named argument collected into ArgList.
type KeywordArg struct {
	Name  string
	Value Value
}

// Function is first class reference to a function, produced by
// get-function(). Callable is opaque to this package.
type Function struct {
	Name     string
	Callable any
}

// Mixin is first class reference to a mixin.
type Mixin struct {
	Name     string
	Callable any
}

var (
	NullValue Value = Null{}
	True      Value = Bool(true)
	False     Value = Bool(false)
)

func (Null) isValue()      {}
func (Bool) isValue()      {}
func (String) isValue()    {}
func (List) isValue()      {}
func (*Map) isValue()      {}
func (*ArgList) isValue()  {}
func (*Function) isValue() {}
func (*Mixin) isValue()    {}

func (Null) TypeName() string      { return "null" }
func (Bool) TypeName() string      { return "bool" }
func (String) TypeName() string    { return "string" }
func (List) TypeName() string      { return "list" }
func (*Map) TypeName() string      { return "map" }
func (*ArgList) TypeName() string  { return "arglist" }
func (*Function) TypeName() string { return "function" }
func (*Mixin) TypeName() string    { return "mixin" }

// Unquoted makes unquoted string.
func Unquoted(s string) String {
	return String{Text: s}
}

// Quoted makes quoted string.
func Quoted(s string) String {
	return String{Text: s, Quoted: true}
}

// FromBool converts Go boolean.
func FromBool(b bool) Value {
	if b {
		return True
	}
	return False
}

// Truthy reports whether v counts as true in conditions, only false and null
// are falsey.
func Truthy(v Value) bool {
	switch t := v.(type) {
	case Null:
		return false
	case Bool:
		return bool(t)
	}
	return true
}

// IsNull reports whether v is null.
func IsNull(v Value) bool {
	_, ok := v.(Null)
	return ok
}

// IsBlank reports whether v produces no CSS output at all.
func IsBlank(v Value) bool {
	switch t := v.(type) {
	case Null:
		return true
	case String:
		return !t.Quoted && t.Text == ""
	case List:
		return t.blank()
	case *ArgList:
		return t.List.blank()
	}
	return false
}

func (l List) blank() bool {
	if l.Brackets {
		return false
	}
	for _, v := range l.Items {
		if !IsBlank(v) {
			return false
		}
	}
	return true
}

// AsList returns list view of any value. Maps become lists of two element
// space separated lists.
func AsList(v Value) List {
	switch t := v.(type) {
	case List:
		return t
	case *ArgList:
		return t.List
	case *Map:
		if len(t.Pairs) == 0 {
			return List{Sep: SepUndecided}
		}
		l := List{Sep: SepComma, Items: make([]Value, 0, len(t.Pairs))}
		for _, p := range t.Pairs {
			l.Items = append(l.Items, List{Items: []Value{p.Key, p.Value}, Sep: SepSpace})
		}
		return l
	}
	return List{Items: []Value{v}, Sep: SepUndecided}
}

// NewMap creates empty map.
func NewMap() *Map {
	return &Map{}
}

// Get looks up key.
func (m *Map) Get(key Value) (Value, bool) {
	if i := m.index(key); i >= 0 {
		return m.Pairs[i].Value, true
	}
	return nil, false
}

// Set returns copy of the map with key set.
func (m *Map) Set(key, val Value) *Map {
	n := &Map{Pairs: append([]Pair(nil), m.Pairs...)}
	if i := n.index(key); i >= 0 {
		n.Pairs[i].Value = val
		return n
	}
	n.Pairs = append(n.Pairs, Pair{Key: key, Value: val})
	return n
}

// Put sets key in place, used while building maps.
func (m *Map) Put(key, val Value) {
	if i := m.index(key); i >= 0 {
		m.Pairs[i].Value = val
		return
	}
	m.Pairs = append(m.Pairs, Pair{Key: key, Value: val})
}

// Remove returns copy of the map without keys.
func (m *Map) Remove(keys ...Value) *Map {
	n := &Map{Pairs: make([]Pair, 0, len(m.Pairs))}
next:
	for _, p := range m.Pairs {
		for _, k := range keys {
			if Equal(p.Key, k) {
				continue next
			}
		}
		n.Pairs = append(n.Pairs, p)
	}
	return n
}

// Has reports whether key exists.
func (m *Map) Has(key Value) bool {
	return m.index(key) >= 0
}

// Len returns number of pairs.
func (m *Map) Len() int {
	return len(m.Pairs)
}

func (m *Map) index(key Value) int {
	for i, p := range m.Pairs {
		if Equal(p.Key, key) {
			return i
		}
	}
	return -1
}

// KeywordMap converts keyword arguments into map with unquoted string keys.
func (a *ArgList) KeywordMap() *Map {
	m := NewMap()
	for _, kw := range a.Keywords {
		m.Put(Unquoted(kw.Name), kw.Value)
	}
	return m
}

// Equal implements == of the language.
func Equal(a, b Value) bool {
	switch x := a.(type) {
	case Null:
		_, ok := b.(Null)
		return ok
	case Bool:
		y, ok := b.(Bool)
		return ok && x == y
	case String:
		y, ok := b.(String)
		return ok && x.Text == y.Text
	case Number:
		y, ok := b.(Number)
		return ok && x.equal(y)
	case Color:
		y, ok := b.(Color)
		return ok && x.r == y.r && x.g == y.g && x.b == y.b && fuzzyEquals(x.a, y.a)
	case *Calculation:
		y, ok := b.(*Calculation)
		return ok && x.equal(y)
	case *Map:
		switch y := b.(type) {
		case *Map:
			if len(x.Pairs) != len(y.Pairs) {
				return false
			}
			for _, p := range x.Pairs {
				v, ok := y.Get(p.Key)
				if !ok || !Equal(p.Value, v) {
					return false
				}
			}
			return true
		case List:
			return len(x.Pairs) == 0 && len(y.Items) == 0
		case *ArgList:
			return len(x.Pairs) == 0 && len(y.Items) == 0
		}
		return false
	case *ArgList:
		return Equal(x.List, b)
	case List:
		switch y := b.(type) {
		case *ArgList:
			return listEqual(x, y.List)
		case List:
			return listEqual(x, y)
		case *Map:
			return len(x.Items) == 0 && len(y.Pairs) == 0
		}
		return false
	case *Function:
		y, ok := b.(*Function)
		return ok && x == y
	case *Mixin:
		y, ok := b.(*Mixin)
		return ok && x == y
	}
	return false
}

func listEqual(x, y List) bool {
	if len(x.Items) != len(y.Items) || x.Brackets != y.Brackets {
		return false
	}
	if len(x.Items) > 1 && x.Sep != y.Sep {
		return false
	}
	for i := range x.Items {
		if !Equal(x.Items[i], y.Items[i]) {
			return false
		}
	}
	return true
}

// typeErr is shorthand used by operations.
func typeErr(format string, args ...any) error {
	return diag.New(diag.TypeError, format, args...)
}
