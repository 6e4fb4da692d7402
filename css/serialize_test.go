package css_test

import (
	"strings"
	"testing"

	"sassy/codemap"
	"sassy/common"
	"sassy/css"
	"sassy/selector"
	"sassy/value"
)

func mustSelector(t *testing.T, text string) *selector.List {
	t.Helper()
	l, err := selector.Parse(text, false, true)
	if err != nil {
		t.Fatalf("parse selector %q: %v", text, err)
	}
	return l
}

func rule(t *testing.T, sel string, body ...css.Node) *css.RuleSet {
	t.Helper()
	return &css.RuleSet{Selector: mustSelector(t, sel), Block: css.Block{Body: body}}
}

func style(name, v string) *css.Style {
	return &css.Style{Name: name, Value: value.Unquoted(v)}
}

func TestSerialize_Styles(t *testing.T) {
	first := rule(t, "a", style("color", "red"), style("margin", "0"))
	first.GroupEnd = true
	second := rule(t, "b", style("color", "blue"))
	second.GroupEnd = true
	root := &css.Root{Block: css.Block{Body: []css.Node{first, second}}}

	tests := []struct {
		name  string
		style common.OutputStyle
		want  string
	}{
		{"expanded", common.OutputStyleExpanded, "a {\n  color: red;\n  margin: 0;\n}\n\nb {\n  color: blue;\n}\n"},
		{"compressed", common.OutputStyleCompressed, "a{color:red;margin:0}b{color:blue}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := css.Serialize(root, tt.style)
			if err != nil {
				t.Fatalf("Serialize: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSerialize_NoBlankLineWithoutGroupEnd(t *testing.T) {
	m1 := &css.Media{Queries: []css.MediaQuery{{Type: "screen", Conjunction: true}},
		Block: css.Block{Body: []css.Node{rule(t, "a", style("x", "y"))}}}
	m2 := &css.Media{Queries: []css.MediaQuery{{Type: "print", Conjunction: true}},
		Block: css.Block{Body: []css.Node{rule(t, "b", style("x", "y"))}}}
	root := &css.Root{Block: css.Block{Body: []css.Node{m1, m2}}}

	got, err := css.Serialize(root, common.OutputStyleExpanded)
	if err != nil {
		t.Fatal(err)
	}
	want := "@media screen {\n  a {\n    x: y;\n  }\n}\n@media print {\n  b {\n    x: y;\n  }\n}\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSerialize_Invisible(t *testing.T) {
	root := &css.Root{Block: css.Block{Body: []css.Node{
		rule(t, "a"),
		rule(t, "%ph", style("x", "y")),
		&css.Media{Queries: []css.MediaQuery{{Type: "screen", Conjunction: true}},
			Block: css.Block{Body: []css.Node{rule(t, "b")}}},
	}}}
	got, err := css.Serialize(root, common.OutputStyleExpanded)
	if err != nil {
		t.Fatal(err)
	}
	if got != "" {
		t.Errorf("expected empty output, got %q", got)
	}
}

func TestSerialize_UnknownAtRules(t *testing.T) {
	root := &css.Root{Block: css.Block{Body: []css.Node{
		&css.AtRule{Name: "foo", Params: "bar"},
		&css.AtRule{Name: "page", HasBody: true},
		&css.Import{URL: "url(theme.css)", Modifiers: "print"},
	}}}

	tests := []struct {
		name  string
		style common.OutputStyle
		want  string
	}{
		{"expanded", common.OutputStyleExpanded, "@foo bar;\n@page {}\n@import url(theme.css) print;\n"},
		{"compressed", common.OutputStyleCompressed, `@foo bar;@page{}@import"theme.css"print;`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := css.Serialize(root, tt.style)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSerialize_Comments(t *testing.T) {
	root := &css.Root{Block: css.Block{Body: []css.Node{
		&css.Comment{Text: "/* plain */"},
		&css.Comment{Text: "/*! kept */"},
	}}}

	got, err := css.Serialize(root, common.OutputStyleCompressed)
	if err != nil {
		t.Fatal(err)
	}
	if got != "/*! kept */" {
		t.Errorf("compressed got %q", got)
	}

	got, err = css.Serialize(root, common.OutputStyleExpanded)
	if err != nil {
		t.Fatal(err)
	}
	if got != "/* plain */\n/*! kept */\n" {
		t.Errorf("expanded got %q", got)
	}
}

func TestSerialize_CommentReindent(t *testing.T) {
	c := &css.Comment{Text: "/* a\n       b\n     */", Column: 4}
	root := &css.Root{Block: css.Block{Body: []css.Node{rule(t, "x", c)}}}
	got, err := css.Serialize(root, common.OutputStyleExpanded)
	if err != nil {
		t.Fatal(err)
	}
	want := "x {\n  /* a\n     b\n   */\n}\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSerialize_TrailingComment(t *testing.T) {
	m := codemap.New()
	src := "a { b: c; /* note */ }"
	f := m.AddFile("in.scss", src)

	decl := style("b", "c")
	decl.Span = f.Span(4, 9)
	c := &css.Comment{Text: "/* note */", Column: 10}
	c.Span = f.Span(10, 20)
	r := rule(t, "a", decl, c)
	r.Span = f.Span(0, len(src))
	root := &css.Root{Block: css.Block{Body: []css.Node{r}}}

	got, err := css.Serialize(root, common.OutputStyleExpanded, css.WithSources(m))
	if err != nil {
		t.Fatal(err)
	}
	want := "a {\n  b: c; /* note */\n}\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSerialize_Charset(t *testing.T) {
	root := &css.Root{Block: css.Block{Body: []css.Node{
		rule(t, "a", &css.Style{Name: "content", Value: value.Quoted("é")}),
	}}}

	got, err := css.Serialize(root, common.OutputStyleExpanded)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(got, "@charset \"UTF-8\";\n") {
		t.Errorf("missing charset: %q", got)
	}

	got, err = css.Serialize(root, common.OutputStyleCompressed)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(got, "\ufeff") {
		t.Errorf("missing BOM: %q", got)
	}

	got, err = css.Serialize(root, common.OutputStyleCompressed, css.WithCharset(false))
	if err != nil {
		t.Fatal(err)
	}
	if strings.HasPrefix(got, "\ufeff") {
		t.Errorf("unexpected BOM: %q", got)
	}
}

func TestSerialize_Keyframes(t *testing.T) {
	kf := &css.Keyframes{Name: "keyframes", Params: "spin", Block: css.Block{Body: []css.Node{
		&css.KeyframesRuleSet{Selector: []string{"from", "50%"}, Block: css.Block{Body: []css.Node{style("top", "0")}}},
	}}}
	root := &css.Root{Block: css.Block{Body: []css.Node{kf}}}
	got, err := css.Serialize(root, common.OutputStyleCompressed)
	if err != nil {
		t.Fatal(err)
	}
	if want := "@keyframes spin{from,50%{top:0}}"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRoot_Render(t *testing.T) {
	root := &css.Root{Block: css.Block{Body: []css.Node{rule(t, "a", style("b", "c"))}}}
	var b strings.Builder
	n, err := root.Render(&b, common.OutputStyleExpanded)
	if err != nil {
		t.Fatal(err)
	}
	if int(n) != b.Len() || b.String() != root.String() {
		t.Errorf("Render and String disagree: %q vs %q", b.String(), root.String())
	}
}
