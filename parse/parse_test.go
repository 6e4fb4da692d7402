package parse

import (
	"errors"
	"testing"

	"go.uber.org/zap"

	"sassy/ast"
	"sassy/codemap"
	"sassy/common"
	"sassy/diag"
)

func parseSCSS(t *testing.T, src string) *ast.Stylesheet {
	t.Helper()
	sheet, err := File(codemap.New(), "test.scss", src, common.InputSyntaxAuto, zap.NewNop())
	if err != nil {
		t.Fatalf("File() error: %v", err)
	}
	return sheet
}

func TestTranslateIndented(t *testing.T) {
	cases := []struct {
		name, in, want string
	}{
		{
			name: "nesting",
			in:   "a\n  b: c\n  d\n    e: f\n",
			want: "a {\n  b: c;\n  d {\n    e: f;\n\n}}",
		},
		{
			name: "mixin shorthands",
			in:   "=m($x)\n  a: $x\n+m(1)",
			want: "@mixin m($x) {\n  a: $x;\n} @include m(1);",
		},
		{
			name: "silent comment block",
			in:   "// c\n  more\na\n  b: c",
			want: "// c\n  //more\na {\n  b: c;\n}",
		},
		{
			name: "import",
			in:   "@import foo, 'bar'",
			want: "@import \"foo\", 'bar';",
		},
		{
			name: "trailing comment",
			in:   "x\n  a: b // note",
			want: "x {\n  a: b; // note\n}",
		},
		{
			name: "selector continuation",
			in:   "a,\nb\n  c: d",
			want: "a,\nb {\n  c: d;\n}",
		},
		{
			name: "crlf",
			in:   "a\r\n  b: c",
			want: "a {\n  b: c;\n}",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := translateIndented(tc.in); got != tc.want {
				t.Errorf("translateIndented() =\n%q\nwant\n%q", got, tc.want)
			}
		})
	}
}

func TestFile_IndentedSyntax(t *testing.T) {
	sheet, err := File(codemap.New(), "style.sass", "a\n  b: c\n  d\n    e: f\n", common.InputSyntaxAuto, nil)
	if err != nil {
		t.Fatalf("File() error: %v", err)
	}
	if len(sheet.Body) != 1 {
		t.Fatalf("expected one statement, got %d", len(sheet.Body))
	}
	rule, ok := sheet.Body[0].(*ast.StyleRule)
	if !ok || len(rule.Body) != 2 {
		t.Fatalf("unexpected tree %#v", sheet.Body[0])
	}
	if _, ok := rule.Body[0].(*ast.Declaration); !ok {
		t.Errorf("first child is %T", rule.Body[0])
	}
	if _, ok := rule.Body[1].(*ast.StyleRule); !ok {
		t.Errorf("second child is %T", rule.Body[1])
	}
}

func TestFile_Statements(t *testing.T) {
	sheet := parseSCSS(t, `@use "sass:math" as m;
@use "lib" as *;
@forward "src/list" as list-* hide list-reset, $horizontal-list-gap;
$my_var: 1px !default;
@mixin m($a, $b: 2, $rest...) { @content; }
@function f() { @return 1; }
a { @include m(1) { x: y; } @extend .b !optional; }
@media screen { c { d: e; } }
@if true { f { g: h; } } @else if false {} @else { i { j: k; } }
@each $k, $v in (a: 1) {}
@for $i from 1 through 3 {}
@while false {}
`)

	want := []string{
		"*ast.UseRule", "*ast.UseRule", "*ast.ForwardRule", "*ast.VariableDecl",
		"*ast.MixinRule", "*ast.FunctionRule", "*ast.StyleRule", "*ast.MediaRule",
		"*ast.IfRule", "*ast.EachRule", "*ast.ForRule", "*ast.WhileRule",
	}
	if len(sheet.Body) != len(want) {
		t.Fatalf("got %d statements, want %d", len(sheet.Body), len(want))
	}
	for i, s := range sheet.Body {
		if got := typeName(s); got != want[i] {
			t.Errorf("statement %d is %s, want %s", i, got, want[i])
		}
	}

	if u := sheet.Body[0].(*ast.UseRule); u.URL != "sass:math" || u.Namespace != "m" {
		t.Errorf("use = %+v", u)
	}
	if u := sheet.Body[1].(*ast.UseRule); u.Namespace != "*" {
		t.Errorf("global use namespace = %q", u.Namespace)
	}
	f := sheet.Body[2].(*ast.ForwardRule)
	if f.Prefix != "list-" || len(f.Hide) != 2 || f.Hide[1] != "$horizontal-list-gap" {
		t.Errorf("forward = %+v", f)
	}
	if v := sheet.Body[3].(*ast.VariableDecl); v.Name != "my-var" || !v.Default {
		t.Errorf("variable = %+v", v)
	}
	m := sheet.Body[4].(*ast.MixinRule)
	if !m.UsesContent || len(m.Params.Params) != 2 || m.Params.Rest != "rest" {
		t.Errorf("mixin = %+v", m)
	}
	ifr := sheet.Body[8].(*ast.IfRule)
	if len(ifr.Clauses) != 2 || ifr.Else == nil {
		t.Errorf("if = %+v", ifr)
	}
	if e := sheet.Body[9].(*ast.EachRule); len(e.Vars) != 2 || e.Vars[1] != "v" {
		t.Errorf("each vars = %v", e.Vars)
	}
	if fr := sheet.Body[10].(*ast.ForRule); !fr.Inclusive || fr.Var != "i" {
		t.Errorf("for = %+v", fr)
	}

	rule := sheet.Body[6].(*ast.StyleRule)
	inc, ok := rule.Body[0].(*ast.IncludeRule)
	if !ok || inc.Name != "m" || inc.Content == nil || len(inc.Args.Positional) != 1 {
		t.Errorf("include = %#v", rule.Body[0])
	}
	if ext, ok := rule.Body[1].(*ast.ExtendRule); !ok || !ext.Optional {
		t.Errorf("extend = %#v", rule.Body[1])
	}
}

func typeName(v any) string {
	switch v.(type) {
	case *ast.UseRule:
		return "*ast.UseRule"
	case *ast.ForwardRule:
		return "*ast.ForwardRule"
	case *ast.VariableDecl:
		return "*ast.VariableDecl"
	case *ast.MixinRule:
		return "*ast.MixinRule"
	case *ast.FunctionRule:
		return "*ast.FunctionRule"
	case *ast.StyleRule:
		return "*ast.StyleRule"
	case *ast.MediaRule:
		return "*ast.MediaRule"
	case *ast.IfRule:
		return "*ast.IfRule"
	case *ast.EachRule:
		return "*ast.EachRule"
	case *ast.ForRule:
		return "*ast.ForRule"
	case *ast.WhileRule:
		return "*ast.WhileRule"
	}
	return "other"
}

func TestParameters(t *testing.T) {
	decl, err := Parameters("$color, $amount: 10%, $args...")
	if err != nil {
		t.Fatalf("Parameters() error: %v", err)
	}
	if len(decl.Params) != 2 || decl.Params[0].Name != "color" || decl.Params[1].Default == nil || decl.Rest != "args" {
		t.Errorf("Parameters() = %+v", decl)
	}
	if _, err := Parameters("$a, $a"); err == nil {
		t.Error("duplicate argument accepted")
	}
}

func TestFile_Errors(t *testing.T) {
	cases := []struct {
		name, src string
	}{
		{"unclosed block", "a { b: c;"},
		{"missing value", "$x: ;"},
		{"dangling operator", "a { b: 1 + ; }"},
		{"bad use", "@use ;"},
		{"unterminated string", "a { b: \"c; }"},
		{"mixin without name", "@mixin { }"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := codemap.New()
			_, err := File(m, "err.scss", tc.src, common.InputSyntaxScss, nil)
			var de *diag.Error
			if !errors.As(err, &de) {
				t.Fatalf("expected diag error, got %v", err)
			}
			if de.Kind != diag.ParseError {
				t.Errorf("kind = %v", de.Kind)
			}
			if _, ok := m.LookUp(de.Span); !ok {
				t.Errorf("error %q has no location", de.Message)
			}
		})
	}
}

func TestFile_PlainCSS(t *testing.T) {
	sheet, err := File(codemap.New(), "plain.css", "a { b: c; }\n@media print { d { e: f } }\n", common.InputSyntaxAuto, nil)
	if err != nil {
		t.Fatalf("File() error: %v", err)
	}
	if !sheet.Plain || len(sheet.Body) != 2 {
		t.Errorf("plain stylesheet = %+v", sheet)
	}
}

func TestFile_PlainCSSErrors(t *testing.T) {
	tests := []struct {
		name      string
		src       string
		msg       string
		line, col int
		text      string
	}{
		{"variable", "a { b: c; }\n\nd {\n  e: f;\n}\n$x: 1;\n", "Sass variables aren't allowed in plain CSS.", 6, 1, "$x"},
		{"nested variable", "a {\n  $x: 1;\n}\n", "Sass variables aren't allowed in plain CSS.", 2, 3, "$x"},
		{"include", "a {\n  @include foo;\n}\n", "This at-rule isn't allowed in plain CSS.", 2, 3, "@include foo"},
		{"mixin", "@mixin m {}\n", "This at-rule isn't allowed in plain CSS.", 1, 1, "@mixin m"},
		{"if", "a { b: c; }\n@if true { d { e: f; } }\n", "This at-rule isn't allowed in plain CSS.", 2, 1, "@if true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := codemap.New()
			_, err := File(m, "plain.css", tt.src, common.InputSyntaxAuto, zap.NewNop())
			var de *diag.Error
			if !errors.As(err, &de) {
				t.Fatalf("expected diag error, got %v", err)
			}
			if de.Message != tt.msg {
				t.Errorf("Message = %q, want %q", de.Message, tt.msg)
			}
			loc, ok := m.LookUp(de.Span)
			if !ok {
				t.Fatal("error span is not registered")
			}
			if loc.Line != tt.line || loc.Col != tt.col {
				t.Errorf("location = %d:%d, want %d:%d", loc.Line, loc.Col, tt.line, tt.col)
			}
			f := m.Files()[0]
			if f.Src != tt.src {
				t.Errorf("registered source differs from input: %q", f.Src)
			}
			if got := f.Text(de.Span); got != tt.text {
				t.Errorf("span text = %q, want %q", got, tt.text)
			}
		})
	}
}

func TestFile_PlainCSSUnknownRules(t *testing.T) {
	sheet, err := File(codemap.New(), "plain.css", "@use 'a';\n@font-face { b: c; }\n", common.InputSyntaxAuto, zap.NewNop())
	if err != nil {
		t.Fatalf("File() error: %v", err)
	}
	if len(sheet.Body) != 2 {
		t.Errorf("got %d statements, want 2", len(sheet.Body))
	}
}
