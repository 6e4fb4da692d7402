// Package debug renders internal trees in indented human readable form for
// debug reports.
package debug

import (
	"fmt"
	"strconv"
	"strings"

	"sassy/css"
	"sassy/value"
)

type TreeWriter struct {
	w *strings.Builder
}

func NewTreeWriter() *TreeWriter {
	return &TreeWriter{
		w: &strings.Builder{},
	}
}

func (tw TreeWriter) String() string {
	return tw.w.String()
}

func (tw TreeWriter) Line(depth int, format string, args ...any) {
	for range depth {
		tw.w.WriteString("  ")
	}
	fmt.Fprintf(tw.w, format, args...)
	tw.w.WriteByte('\n')
}

func (tw TreeWriter) TextBlock(depth int, label, value string) {
	for range depth {
		tw.w.WriteString("  ")
	}
	tw.w.WriteString(label)
	tw.w.WriteString(": ")
	tw.w.WriteString(encodeText(value))
	tw.w.WriteByte('\n')
}

func encodeText(raw string) string {
	if raw == "" {
		return raw
	}
	return strconv.Quote(raw)
}

// DumpCSS writes evaluated statement tree, one node per line.
func DumpCSS(root *css.Root) string {
	tw := NewTreeWriter()
	tw.Line(0, "Root")
	for _, n := range root.Body {
		tw.node(1, n)
	}
	return tw.String()
}

func (tw TreeWriter) node(depth int, n css.Node) {
	mark := ""
	if n.IsGroupEnd() {
		mark = " (group end)"
	}
	switch t := n.(type) {
	case *css.RuleSet:
		tw.Line(depth, "RuleSet%s", mark)
		tw.TextBlock(depth+1, "selector", t.Selector.String())
	case *css.Style:
		tw.Line(depth, "Style%s", mark)
		tw.TextBlock(depth+1, "name", t.Name)
		if t.Value != nil {
			tw.TextBlock(depth+1, "value", value.Inspect(t.Value))
		}
	case *css.Media:
		queries := make([]string, 0, len(t.Queries))
		for _, q := range t.Queries {
			queries = append(queries, q.String())
		}
		tw.Line(depth, "Media%s", mark)
		tw.TextBlock(depth+1, "queries", strings.Join(queries, ", "))
	case *css.Supports:
		tw.Line(depth, "Supports%s", mark)
		tw.TextBlock(depth+1, "condition", t.Condition)
	case *css.AtRule:
		tw.Line(depth, "AtRule @%s%s", t.Name, mark)
		tw.TextBlock(depth+1, "params", t.Params)
	case *css.Keyframes:
		tw.Line(depth, "Keyframes @%s%s", t.Name, mark)
		tw.TextBlock(depth+1, "params", t.Params)
	case *css.KeyframesRuleSet:
		tw.Line(depth, "KeyframesRuleSet%s", mark)
		tw.TextBlock(depth+1, "selector", strings.Join(t.Selector, ", "))
	case *css.Comment:
		tw.Line(depth, "Comment%s", mark)
		tw.TextBlock(depth+1, "text", t.Text)
	case *css.Import:
		tw.Line(depth, "Import%s", mark)
		tw.TextBlock(depth+1, "url", t.URL)
		tw.TextBlock(depth+1, "modifiers", t.Modifiers)
	default:
		tw.Line(depth, "%T%s", n, mark)
	}
	if p, ok := n.(css.Parent); ok {
		for _, c := range p.Children() {
			tw.node(depth+1, c)
		}
	}
}

// Describe returns kind of statement and its most telling text on a single
// line.
func Describe(n css.Node) (kind, text string) {
	switch t := n.(type) {
	case *css.RuleSet:
		return "RuleSet", t.Selector.String()
	case *css.Style:
		if t.Value != nil {
			return "Style", t.Name + ": " + value.Inspect(t.Value)
		}
		return "Style", t.Name
	case *css.Media:
		queries := make([]string, 0, len(t.Queries))
		for _, q := range t.Queries {
			queries = append(queries, q.String())
		}
		return "Media", strings.Join(queries, ", ")
	case *css.Supports:
		return "Supports", t.Condition
	case *css.AtRule:
		return "AtRule", strings.TrimSpace("@" + t.Name + " " + t.Params)
	case *css.Keyframes:
		return "Keyframes", strings.TrimSpace("@" + t.Name + " " + t.Params)
	case *css.KeyframesRuleSet:
		return "KeyframesRuleSet", strings.Join(t.Selector, ", ")
	case *css.Comment:
		return "Comment", t.Text
	case *css.Import:
		return "Import", strings.TrimSpace(t.URL + " " + t.Modifiers)
	default:
		return strings.TrimPrefix(fmt.Sprintf("%T", n), "*css."), ""
	}
}
