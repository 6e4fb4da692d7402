// Package css holds evaluated stylesheet tree and its serializer.
package css

import (
	"sassy/codemap"
	"sassy/selector"
	"sassy/value"
)

// Node is single statement of evaluated stylesheet.
type Node interface {
	Pos() codemap.Span
	IsGroupEnd() bool
	SetGroupEnd(bool)
	isNode()
}

// Parent is node with children.
type Parent interface {
	Node
	Children() []Node
	Append(n Node)
}

// Base carries location and group end flag shared by all nodes.
type Base struct {
	Span     codemap.Span
	GroupEnd bool
}

func (b *Base) Pos() codemap.Span  { return b.Span }
func (b *Base) IsGroupEnd() bool   { return b.GroupEnd }
func (b *Base) SetGroupEnd(v bool) { b.GroupEnd = v }

// Block is list of children of a parent node.
type Block struct {
	Body []Node
}

func (b *Block) Children() []Node { return b.Body }
func (b *Block) Append(n Node)    { b.Body = append(b.Body, n) }

type (
	// RuleSet is style rule with fully resolved selector.
	RuleSet struct {
		Base
		Block
		Selector *selector.List
		// Origin is selector before @extend, used to match extensions.
		Origin *selector.List
		// Media is serialized query of enclosing media rule.
		Media string
	}

	// Style is property declaration.
	Style struct {
		Base
		Name   string
		Value  value.Value
		Custom bool
	}

	Media struct {
		Base
		Block
		Queries []MediaQuery
	}

	Supports struct {
		Base
		Block
		Condition string
	}

	// AtRule is unknown at-rule kept as is, HasBody distinguishes "@x;" from
	// "@x {}".
	AtRule struct {
		Base
		Block
		Name    string
		Params  string
		HasBody bool
	}

	Keyframes struct {
		Base
		Block
		Name   string
		Params string
	}

	// KeyframesRuleSet is block inside @keyframes, selectors are raw.
	KeyframesRuleSet struct {
		Base
		Block
		Selector []string
	}

	Comment struct {
		Base
		Text string
		// Column is zero based source column of the comment start.
		Column int
	}

	Import struct {
		Base
		URL       string
		Modifiers string
	}

	// Root is top level of evaluated stylesheet.
	Root struct {
		Base
		Block
	}
)

func (*RuleSet) isNode()          {}
func (*Style) isNode()            {}
func (*Media) isNode()            {}
func (*Supports) isNode()         {}
func (*AtRule) isNode()           {}
func (*Keyframes) isNode()        {}
func (*KeyframesRuleSet) isNode() {}
func (*Comment) isNode()          {}
func (*Import) isNode()           {}
func (*Root) isNode()             {}

// IsPreserved reports /*! comments kept in compressed output.
func (c *Comment) IsPreserved() bool {
	return len(c.Text) > 2 && c.Text[2] == '!'
}

// IsInvisible reports whether n produces no output. Unknown at-rules are
// never invisible since their meaning is not known.
func IsInvisible(n Node, compressed bool) bool {
	switch t := n.(type) {
	case *Comment:
		return compressed && !t.IsPreserved()
	case *AtRule, *Keyframes:
		return false
	case *RuleSet:
		if t.Selector == nil || t.Selector.IsInvisible() {
			return true
		}
		return allInvisible(t.Body, compressed)
	case Parent:
		return allInvisible(t.Children(), compressed)
	}
	return false
}

func allInvisible(nodes []Node, compressed bool) bool {
	for _, n := range nodes {
		if !IsInvisible(n, compressed) {
			return false
		}
	}
	return true
}

// RequiresSemicolon is true for statements which are not blocks.
func RequiresSemicolon(n Node) bool {
	switch t := n.(type) {
	case *Style, *Import:
		return true
	case *AtRule:
		return !t.HasBody
	}
	return false
}

// Copy returns shallow copy of parent node without children.
func Copy(p Parent) Parent {
	switch t := p.(type) {
	case *RuleSet:
		c := *t
		c.Body, c.GroupEnd = nil, false
		return &c
	case *Media:
		c := *t
		c.Body, c.GroupEnd = nil, false
		return &c
	case *Supports:
		c := *t
		c.Body, c.GroupEnd = nil, false
		return &c
	case *AtRule:
		c := *t
		c.Body, c.GroupEnd = nil, false
		return &c
	case *Keyframes:
		c := *t
		c.Body, c.GroupEnd = nil, false
		return &c
	case *KeyframesRuleSet:
		c := *t
		c.Body, c.GroupEnd = nil, false
		return &c
	}
	return &Root{}
}
