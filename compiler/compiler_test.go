package compiler

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"

	"sassy/common"
	"sassy/diag"
	"sassy/vfs"
)

func testOptions() Options {
	opts := DefaultOptions()
	opts.FS = vfs.Null{}
	opts.Logger = zap.NewNop()
	return opts
}

func TestFromString_Features(t *testing.T) {
	runCases(t, []struct{ name, input, want string }{
		{"variables", "$x: 1px;\na { w: $x + 2; }\n", "a {\n  w: 3px;\n}\n"},
		{"default flag", "$a: 1;\n$a: 2 !default;\nb { c: $a; }\n", "b {\n  c: 1;\n}\n"},
		{"nesting", "a, b { c { d: e; } }\n", "a c, b c {\n  d: e;\n}\n"},
		{"parent suffix", ".a { &-b { c: d; } }\n", ".a-b {\n  c: d;\n}\n"},
		{"parent after declarations", "a { b: c; d { e: f; } }\n", "a {\n  b: c;\n}\na d {\n  e: f;\n}\n"},
		{"nested properties", "a { font: { family: x; size: 1px; } }\n", "a {\n  font-family: x;\n  font-size: 1px;\n}\n"},
		{"interpolated property", "a { #{b}-c: d; }\n", "a {\n  b-c: d;\n}\n"},
		{"slash separated", "a { font: 12px/30px; }\n", "a {\n  font: 12px/30px;\n}\n"},
		{"comment", "/* x */\na { b: c; }\n", "/* x */\na {\n  b: c;\n}\n"},
		{"silent comment", "// x\na { b: c; }\n", "a {\n  b: c;\n}\n"},
		{"media bubbling", "a { @media screen { b: c; } }\n", "@media screen {\n  a {\n    b: c;\n  }\n}\n"},
		{"supports", "@supports (display: grid) { a { b: c; } }\n", "@supports (display: grid) {\n  a {\n    b: c;\n  }\n}\n"},
		{"keyframes", "@keyframes k { from { a: b; } to { a: c; } }\n", "@keyframes k {\n  from {\n    a: b;\n  }\n  to {\n    a: c;\n  }\n}\n"},
		{"at-root", ".a { @at-root .b { c: d; } }\n", ".b {\n  c: d;\n}\n"},
		{"groups", "a { b: c; }\nd { e: f; }\n", "a {\n  b: c;\n}\n\nd {\n  e: f;\n}\n"},
		{"charset", "a { b: 'é'; }\n", "@charset \"UTF-8\";\na {\n  b: \"é\";\n}\n"},
	})
}

func TestFromString_Invisible(t *testing.T) {
	for _, input := range []string{"", "a {}", "%p { b: c; }", "@media screen { a {} }", "$x: 1;"} {
		got, err := FromString(input, testOptions())
		if err != nil || got != "" {
			t.Errorf("FromString(%q) = %q, %v; want empty output", input, got, err)
		}
	}
}

func TestFromString_Control(t *testing.T) {
	runCases(t, []struct{ name, input, want string }{
		{"if else", "$a: 2;\na { @if $a > 1 { b: big; } @else { b: small; } }\n", "a {\n  b: big;\n}\n"},
		{"each", "@each $i in a, b { .#{$i} { w: 1; } }\n", ".a {\n  w: 1;\n}\n\n.b {\n  w: 1;\n}\n"},
		{"each map", "@each $k, $v in (a: 1, b: 2) { .#{$k} { w: $v; } }\n", ".a {\n  w: 1;\n}\n\n.b {\n  w: 2;\n}\n"},
		{"for through", "@for $i from 1 through 2 { .m-#{$i} { w: $i * 2px; } }\n", ".m-1 {\n  w: 2px;\n}\n\n.m-2 {\n  w: 4px;\n}\n"},
		{"for to", "a { @for $i from 1 to 3 { b: $i; } }\n", "a {\n  b: 1;\n  b: 2;\n}\n"},
		{"while", "$i: 0;\na { @while $i < 2 { b: $i; $i: $i + 1; } }\n", "a {\n  b: 0;\n  b: 1;\n}\n"},
		{"function", "@function double($n) { @return $n * 2; }\na { w: double(3px); }\n", "a {\n  w: 6px;\n}\n"},
		{"function keyword args", "@function f($a, $b: 2) { @return $a - $b; }\na { w: f($b: 1, $a: 5); }\n", "a {\n  w: 4;\n}\n"},
		{"mixin with content", "@mixin m($x) { b: $x; @content; }\na { @include m(1) { c: d; } }\n", "a {\n  b: 1;\n  c: d;\n}\n"},
		{"mixin rest args", "@mixin m($xs...) { b: length($xs); }\na { @include m(1, 2, 3); }\n", "a {\n  b: 3;\n}\n"},
		{"extend", ".a { c: d; }\n.b { @extend .a; e: f; }\n", ".a, .b {\n  c: d;\n}\n\n.b {\n  e: f;\n}\n"},
		{"placeholder", "%p { c: d; }\n.b { @extend %p; }\n", ".b {\n  c: d;\n}\n"},
	})
}

func TestFromString_Builtins(t *testing.T) {
	runCases(t, []struct{ name, input, want string }{
		{"strings", "a { b: to-upper-case(abc); c: str-length('abcd'); d: quote(x); }\n", "a {\n  b: ABC;\n  c: 4;\n  d: \"x\";\n}\n"},
		{"maps", "$m: (a: 1, b: 2);\na { c: map-get($m, b); d: map-keys($m); }\n", "a {\n  c: 2;\n  d: a, b;\n}\n"},
		{"lists", "a { b: nth(1px 2px 3px, -1); c: length(a b c); d: join(a b, c d, comma); }\n", "a {\n  b: 3px;\n  c: 3;\n  d: a, b, c, d;\n}\n"},
		{"math module", "@use 'sass:math';\na { w: math.div(10px, 4); }\n", "a {\n  w: 2.5px;\n}\n"},
		{"percentage", "a { w: percentage(0.25); }\n", "a {\n  w: 25%;\n}\n"},
		{"type-of", "a { b: type-of(1px); c: type-of(a b); d: type-of(null); }\n", "a {\n  b: number;\n  c: list;\n  d: null;\n}\n"},
		{"if function", "a { b: if(true, 1, 2); }\n", "a {\n  b: 1;\n}\n"},
		{"unknown function", "a { b: foo(1, 2); }\n", "a {\n  b: foo(1, 2);\n}\n"},
	})
}

func TestFromString_Compressed(t *testing.T) {
	tests := []struct {
		name, input, want string
	}{
		{"parent selector value", "a { b { color: &; } }", "a b{color:a b}"},
		{"declarations", "a { b: c; d: e; }", "a{b:c;d:e}"},
		{"selector list", "a, b { c: d; }", "a,b{c:d}"},
		{"short hex", "a { color: #336699; }", "a{color:#369}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions()
			opts.Style = common.OutputStyleCompressed
			got, err := FromString(tt.input, opts)
			if err != nil {
				t.Fatalf("FromString() error:\n%v", err)
			}
			if got != tt.want {
				t.Errorf("FromString(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFromString_Modules(t *testing.T) {
	tests := []struct {
		name  string
		files vfs.MapFS
		input string
		want  string
	}{
		{
			name:  "use variable",
			files: vfs.MapFS{"_vars.scss": "$w: 3px;"},
			input: "@use 'vars';\na { b: vars.$w; }\n",
			want:  "a {\n  b: 3px;\n}\n",
		},
		{
			name:  "use with namespace alias",
			files: vfs.MapFS{"lib/_vars.scss": "$w: 3px;"},
			input: "@use 'lib/vars' as v;\na { b: v.$w; }\n",
			want:  "a {\n  b: 3px;\n}\n",
		},
		{
			name:  "use with configuration",
			files: vfs.MapFS{"_cfg.scss": "$w: 1px !default;"},
			input: "@use 'cfg' with ($w: 5px);\na { b: cfg.$w; }\n",
			want:  "a {\n  b: 5px;\n}\n",
		},
		{
			name:  "forward show",
			files: vfs.MapFS{"_lib.scss": "@forward 'colors' show $primary;", "_colors.scss": "$primary: blue;\n$secondary: red;"},
			input: "@use 'lib';\na { b: lib.$primary; }\n",
			want:  "a {\n  b: blue;\n}\n",
		},
		{
			name:  "module css goes first",
			files: vfs.MapFS{"_base.scss": "x { y: z; }"},
			input: "@use 'base';\na { b: c; }\n",
			want:  "x {\n  y: z;\n}\n\na {\n  b: c;\n}\n",
		},
		{
			name:  "import",
			files: vfs.MapFS{"_vars.scss": "$w: 3px;"},
			input: "@import 'vars';\na { b: $w; }\n",
			want:  "a {\n  b: 3px;\n}\n",
		},
		{
			name:  "index file",
			files: vfs.MapFS{"theme/_index.scss": "$c: red;"},
			input: "@use 'theme';\na { b: theme.$c; }\n",
			want:  "a {\n  b: red;\n}\n",
		},
		{
			name:  "load css",
			files: vfs.MapFS{"_base.scss": "x { y: z; }"},
			input: "@use 'sass:meta';\na { @include meta.load-css('base'); }\n",
			want:  "a x {\n  y: z;\n}\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions()
			opts.FS = tt.files
			got, err := FromString(tt.input, opts)
			if err != nil {
				t.Fatalf("FromString() error:\n%v", err)
			}
			if got != tt.want {
				t.Errorf("got:  %q\nwant: %q", got, tt.want)
			}
		})
	}
}

func TestFromPath(t *testing.T) {
	opts := testOptions()
	opts.FS = vfs.MapFS{
		"src/main.scss":          "@use 'parts/colors';\na { color: colors.$c; }\n",
		"src/parts/_colors.scss": "$c: #123457;",
	}
	got, err := FromPath("src/main.scss", opts)
	if err != nil {
		t.Fatalf("FromPath() error:\n%v", err)
	}
	if want := "a {\n  color: #123457;\n}\n"; got != want {
		t.Errorf("FromPath() = %q, want %q", got, want)
	}

	if _, err := FromPath("src/none.scss", opts); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestCompileStatements(t *testing.T) {
	root, m, err := CompileStatements("in.scss", "a { b: c; }", testOptions())
	if err != nil {
		t.Fatalf("CompileStatements() error = %v", err)
	}
	if len(root.Body) != 1 || len(m.Files()) != 1 || m.Files()[0].Name != "in.scss" {
		t.Fatalf("unexpected result: %d nodes, %d files", len(root.Body), len(m.Files()))
	}
	out, err := Render(root, m, testOptions())
	if err != nil || out != "a {\n  b: c;\n}\n" {
		t.Errorf("Render() = %q, %v", out, err)
	}

	_, m, err = CompileStatements("bad.scss", "a { b: $x; }", testOptions())
	if err == nil || m == nil || len(m.Files()) != 1 {
		t.Errorf("failed compilation should still return sources, err = %v", err)
	}
}

func TestFromString_ErrorKinds(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		kind    diag.Kind
		message string
	}{
		{"undefined variable", "a { b: $x; }", diag.UndefinedVariable, "Undefined variable."},
		{"undefined mixin", "@include nope;", diag.UndefinedMixin, "Undefined mixin."},
		{"user error", "@error 'boom';", diag.UserError, `"boom"`},
		{"missing import", "@use 'missing';", diag.ImportError, "Can't find stylesheet to import."},
		{"incompatible units", "a { b: 1px + 1em; }", diag.UnitError, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromString(tt.input, testOptions())
			var ce *Error
			if !errors.As(err, &ce) {
				t.Fatalf("expected *Error, got %v", err)
			}
			if ce.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", ce.Kind, tt.kind)
			}
			if tt.message != "" && ce.Message != tt.message {
				t.Errorf("Message = %q, want %q", ce.Message, tt.message)
			}
			if ce.Loc.Line != 1 || ce.Loc.File != StdinName {
				t.Errorf("Loc = %+v", ce.Loc)
			}
		})
	}
}

func TestFromString_ErrorFormatting(t *testing.T) {
	_, err := FromString("a { b: $x; }", testOptions())
	want := strings.Join([]string{
		"Error: Undefined variable.",
		"  ╷",
		"1 │ a { b: $x; }",
		"  │        ^^",
		"  ╵",
		"  stdin 1:8  root stylesheet",
	}, "\n")
	if err == nil || err.Error() != want {
		t.Errorf("got:\n%v\nwant:\n%s", err, want)
	}

	opts := testOptions()
	opts.UnicodeErrors = false
	_, err = FromString("@function f() { @return $x; }\na { b: f(); }", opts)
	want = strings.Join([]string{
		"Error: Undefined variable.",
		"  ,",
		"1 | @function f() { @return $x; }",
		"  |                         ^^",
		"  '",
		"  stdin 1:25  f()",
		"  stdin 2:8   root stylesheet",
	}, "\n")
	if err == nil || err.Error() != want {
		t.Errorf("got:\n%v\nwant:\n%s", err, want)
	}
}

func TestFromString_NestedMedia(t *testing.T) {
	tests := []struct {
		name, input, want string
	}{
		{
			name:  "top level",
			input: "@media screen { @media (min-width: 1px) { a { b: c; } } }\n",
			want:  "@media screen and (min-width: 1px) {\n  a {\n    b: c;\n  }\n}\n",
		},
		{
			name:  "inside style rule",
			input: "a { @media screen { @media (min-width: 1px) { b: c; } } }\n",
			want:  "@media screen and (min-width: 1px) {\n  a {\n    b: c;\n  }\n}\n",
		},
		{
			name:  "three levels",
			input: "@media screen { @media (min-width: 1px) { @media (max-width: 2px) { a { b: c; } } } }\n",
			want:  "@media screen and (min-width: 1px) and (max-width: 2px) {\n  a {\n    b: c;\n  }\n}\n",
		},
		{
			name:  "never matches",
			input: "@media screen { @media print { a { b: c; } } }\n",
			want:  "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromString(tt.input, testOptions())
			if err != nil {
				t.Fatalf("FromString() error:\n%v", err)
			}
			if got != tt.want {
				t.Errorf("got:  %q\nwant: %q", got, tt.want)
			}
		})
	}
}

func TestFromString_DeepRecursion(t *testing.T) {
	input := "@function sum($n) { @if $n == 0 { @return 0; } @return $n + sum($n - 1); }\na { b: sum(300); }\n"
	got, err := FromString(input, testOptions())
	if err != nil {
		t.Fatalf("FromString() error:\n%v", err)
	}
	if want := "a {\n  b: 45150;\n}\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	opts := testOptions()
	opts.MaxDepth = 100
	_, err = FromString(input, opts)
	var ce *Error
	if !errors.As(err, &ce) || ce.Kind != diag.StackDepth {
		t.Errorf("expected stack depth error with lowered limit, got %v", err)
	}
}

// Expanded output of plain CSS compiled again as plain CSS must not change.
func TestFromString_PlainCSSStable(t *testing.T) {
	inputs := []string{
		"a{b:c}",
		"a, b > c ~ d { e: f !important; g: h }\n/* note */\ni { j: k }",
		"@media print and (min-width: 10px) { a { b: c } }",
		"@supports (display: grid) { a { b: c } }",
		"@font-face { font-family: x; src: url(x.woff) }",
		"@keyframes k { from { a: b } to { a: c } }",
		"a { color: #FFF; width: calc(100% - 10px) }",
		"a:hover::before { content: \"x\" }",
	}
	opts := testOptions()
	opts.InputSyntax = common.InputSyntaxCss
	for _, input := range inputs {
		first, err := FromString(input, opts)
		if err != nil {
			t.Errorf("FromString(%q) error:\n%v", input, err)
			continue
		}
		second, err := FromString(first, opts)
		if err != nil {
			t.Errorf("FromString(%q) error:\n%v", first, err)
			continue
		}
		if first != second {
			t.Errorf("output of %q changed on second pass:\nfirst:  %q\nsecond: %q", input, first, second)
		}
	}
}

func TestFromPath_PlainCSSErrorLocation(t *testing.T) {
	opts := testOptions()
	opts.FS = vfs.MapFS{"in.css": "a { b: c; }\n\nd {\n  e: f;\n}\n\ng { h: i; }\n$x: 1;\n"}
	_, err := FromPath("in.css", opts)
	var ce *Error
	if !errors.As(err, &ce) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if ce.Message != "Sass variables aren't allowed in plain CSS." {
		t.Errorf("Message = %q", ce.Message)
	}
	if ce.Loc.File != "in.css" || ce.Loc.Line != 8 || ce.Loc.Col != 1 {
		t.Errorf("Loc = %+v", ce.Loc)
	}
	if !strings.Contains(ce.Formatted, "8 │ $x: 1;") {
		t.Errorf("excerpt does not show original line:\n%s", ce.Formatted)
	}

	opts.FS = vfs.MapFS{"in.css": "a {\n  @include foo;\n}\n"}
	_, err = FromPath("in.css", opts)
	if !errors.As(err, &ce) || ce.Message != "This at-rule isn't allowed in plain CSS." || ce.Loc.Line != 2 {
		t.Errorf("unexpected error for @include: %v", err)
	}
}

// Compilations share only read-only tables (named colors, built-in
// functions and modules), run with -race.
func TestFromString_Concurrent(t *testing.T) {
	inputs := []string{
		"@use 'sass:math';\na { w: math.div(10px, 3); c: red; }\n",
		"@use 'sass:color';\na { c: color.adjust(#336699, $lightness: 10%); d: rgba(blue, .5); }\n",
		"@use 'sass:map';\n$m: (a: 1, b: 2);\na { c: map.get($m, b); d: to-upper-case(abc); }\n",
		".a { c: d; }\n.b { @extend .a; }\n@media screen { @media (min-width: 1px) { e { f: g; } } }\n",
	}
	want := make([]string, len(inputs))
	for i, input := range inputs {
		out, err := FromString(input, testOptions())
		if err != nil {
			t.Fatalf("FromString(%q) error:\n%v", input, err)
		}
		want[i] = out
	}

	var wg sync.WaitGroup
	for g := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := range 20 {
				i := (g + n) % len(inputs)
				got, err := FromString(inputs[i], testOptions())
				if err != nil {
					t.Errorf("goroutine %d: FromString() error: %v", g, err)
					return
				}
				if got != want[i] {
					t.Errorf("goroutine %d: got %q, want %q", g, got, want[i])
					return
				}
			}
		}()
	}
	wg.Wait()
}
