package debug

import (
	"strings"
	"testing"

	"sassy/css"
	"sassy/value"
)

func TestTreeWriter_Line(t *testing.T) {
	tests := []struct {
		name   string
		depth  int
		format string
		args   []any
		want   string
	}{
		{name: "no depth", depth: 0, format: "test", want: "test\n"},
		{name: "depth 2", depth: 2, format: "double indent", want: "    double indent\n"},
		{name: "with formatting", depth: 1, format: "value: %d", args: []any{42}, want: "  value: 42\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tw := NewTreeWriter()
			tw.Line(tt.depth, tt.format, tt.args...)
			if got := tw.String(); got != tt.want {
				t.Errorf("Line() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTreeWriter_TextBlock(t *testing.T) {
	tests := []struct {
		name  string
		depth int
		label string
		value string
		want  string
	}{
		{name: "empty value", depth: 0, label: "field", value: "", want: "field: \n"},
		{name: "depth 1 with value", depth: 1, label: "selector", value: "a b", want: "  selector: \"a b\"\n"},
		{name: "value with newline", depth: 0, label: "text", value: "/* a\nb */", want: "text: \"/* a\\nb */\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tw := NewTreeWriter()
			tw.TextBlock(tt.depth, tt.label, tt.value)
			if got := tw.String(); got != tt.want {
				t.Errorf("TextBlock() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDumpCSS(t *testing.T) {
	root := &css.Root{Block: css.Block{Body: []css.Node{
		&css.Comment{Text: "/* x */"},
		&css.Import{URL: `"a.css"`},
		&css.AtRule{
			Name:    "font-face",
			HasBody: true,
			Block: css.Block{Body: []css.Node{
				&css.Style{Name: "font-family", Value: value.Unquoted("x")},
			}},
			Base: css.Base{GroupEnd: true},
		},
	}}}

	want := "Root\n" +
		"  Comment\n" +
		"    text: \"/* x */\"\n" +
		"  Import\n" +
		"    url: \"\\\"a.css\\\"\"\n" +
		"    modifiers: \n" +
		"  AtRule @font-face (group end)\n" +
		"    params: \n" +
		"    Style\n" +
		"      name: \"font-family\"\n" +
		"      value: \"x\"\n"

	if got := DumpCSS(root); got != want {
		t.Errorf("DumpCSS():\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestDumpCSS_Empty(t *testing.T) {
	got := DumpCSS(&css.Root{})
	if !strings.HasPrefix(got, "Root\n") || strings.Count(got, "\n") != 1 {
		t.Errorf("DumpCSS() of empty tree = %q", got)
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		node       css.Node
		kind, text string
	}{
		{&css.Style{Name: "color", Value: value.Unquoted("red")}, "Style", "color: red"},
		{&css.Style{Name: "--x"}, "Style", "--x"},
		{&css.AtRule{Name: "charset"}, "AtRule", "@charset"},
		{&css.Supports{Condition: "(display: grid)"}, "Supports", "(display: grid)"},
		{&css.KeyframesRuleSet{Selector: []string{"from", "50%"}}, "KeyframesRuleSet", "from, 50%"},
		{&css.Import{URL: `"a.css"`, Modifiers: "print"}, "Import", `"a.css" print`},
		{&css.Root{}, "Root", ""},
	}
	for _, tt := range tests {
		kind, text := Describe(tt.node)
		if kind != tt.kind || text != tt.text {
			t.Errorf("Describe(%T) = %q, %q, want %q, %q", tt.node, kind, text, tt.kind, tt.text)
		}
	}
}
