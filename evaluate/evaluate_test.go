package evaluate

import (
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"sassy/codemap"
	"sassy/common"
	"sassy/css"
	"sassy/diag"
	"sassy/parse"
	"sassy/vfs"
)

func run(src string, files vfs.MapFS, opts Options, log *zap.Logger) (string, error) {
	m := codemap.New()
	sheet, err := parse.File(m, "main.scss", src, common.InputSyntaxScss, log)
	if err != nil {
		return "", err
	}
	if files != nil {
		opts.FS = files
	}
	root, err := New(m, opts, log).Run(sheet)
	if err != nil {
		return "", err
	}
	return css.Serialize(root, common.OutputStyleExpanded, css.WithSources(m))
}

func mustRun(t *testing.T, src string, files vfs.MapFS) string {
	t.Helper()
	out, err := run(src, files, Options{}, zap.NewNop())
	if err != nil {
		t.Fatalf("evaluation failed: %v", err)
	}
	return out
}

func TestParseAtRootQuery(t *testing.T) {
	cases := []struct {
		in      string
		include bool
		names   []string
		wantErr bool
	}{
		{in: "(without: media)", names: []string{"media"}},
		{in: "(with: rule supports)", include: true, names: []string{"rule", "supports"}},
		{in: " ( WITHOUT : All ) ", names: []string{"all"}},
		{in: "without: media", wantErr: true},
		{in: "(inside: media)", wantErr: true},
		{in: "(with media)", wantErr: true},
		{in: "(with: media", wantErr: true},
		{in: "(with: )", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			q, err := parseAtRootQuery(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", q)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if q.include != tc.include || strings.Join(q.names, ",") != strings.Join(tc.names, ",") {
				t.Errorf("parseAtRootQuery() = %+v", q)
			}
		})
	}
}

func TestAtRootQueryExcludes(t *testing.T) {
	without, _ := parseAtRootQuery("(without: media)")
	if !without.excludes(&css.Media{}) || without.excludes(&css.RuleSet{}) {
		t.Error("(without: media) should exclude media only")
	}
	with, _ := parseAtRootQuery("(with: supports)")
	if with.excludes(&css.Supports{}) || !with.excludes(&css.Media{}) || !with.excludes(&css.RuleSet{}) {
		t.Error("(with: supports) should keep supports only")
	}
	all, _ := parseAtRootQuery("(without: all)")
	if !all.excludes(&css.AtRule{Name: "font-face"}) {
		t.Error("(without: all) should exclude everything")
	}
	if !defaultAtRootQuery.excludesStyleRules() || defaultAtRootQuery.excludesName("media") {
		t.Error("default query should exclude style rules only")
	}
}

func TestAtRoot(t *testing.T) {
	cases := []struct {
		name, src, want string
	}{
		{
			name: "plain",
			src:  "a { @at-root b { c: d; } }",
			want: "b {\n  c: d;\n}\n",
		},
		{
			name: "without media",
			src:  "@media print { a { @at-root (without: media) { b { c: d; } } } }",
			want: "a b {\n  c: d;\n}\n",
		},
		{
			name: "keeps media",
			src:  "@media print { a { @at-root b { c: d; } } }",
			want: "@media print {\n  b {\n    c: d;\n  }\n}\n",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := mustRun(t, tc.src, nil); got != tc.want {
				t.Errorf("got\n%q\nwant\n%q", got, tc.want)
			}
		})
	}
}

func TestBuiltinModules(t *testing.T) {
	const header = `@use "sass:math"; @use "sass:string"; @use "sass:list"; @use "sass:map"; @use "sass:selector"; @use "sass:meta"; `
	cases := []struct {
		expr, want string
	}{
		{"math.floor(1.7)", "1"},
		{"math.max(1px, 3px)", "3px"},
		{"math.div(10px, 4)", "2.5px"},
		{"math.abs(-2)", "2"},
		{`string.index("abc", "b")`, "2"},
		{`string.slice("abcd", 2, 3)`, `"bc"`},
		{"string.to-upper-case(abc)", "ABC"},
		{"list.nth(a b c, 2)", "b"},
		{"list.join(a b, c d, comma)", "a, b, c, d"},
		{"list.length((1, 2, 3))", "3"},
		{"map.get((k: 1), k)", "1"},
		{"map.keys((x: 1, y: 2))", "x, y"},
		{"map.has-key((x: 1), y)", "false"},
		{"meta.inspect((x: 1))", "(x: 1)"},
		{"meta.type-of(1px)", "number"},
		{`selector.nest(".a", "&:hover")`, ".a:hover"},
		{`selector.append(".a", ".b")`, ".a.b"},
	}
	for _, tc := range cases {
		t.Run(tc.expr, func(t *testing.T) {
			got := mustRun(t, header+"a { b: "+tc.expr+"; }", nil)
			if want := "a {\n  b: " + tc.want + ";\n}\n"; got != want {
				t.Errorf("got %q, want %q", got, want)
			}
		})
	}
}

func TestModuleConfiguration(t *testing.T) {
	files := vfs.MapFS{
		"_lib.scss":     "$a: 1 !default;\n$b: 2;\nx { a: $a; b: $b; }",
		"_wrapper.scss": "@forward 'lib' as lib-*;",
	}
	cases := []struct {
		name, src, want string
	}{
		{"default kept", "@use 'lib';", "x {\n  a: 1;\n  b: 2;\n}\n"},
		{"configured", "@use 'lib' with ($a: 5);", "x {\n  a: 5;\n  b: 2;\n}\n"},
		{"through prefixed forward", "@use 'wrapper' with ($lib-a: 7);", "x {\n  a: 7;\n  b: 2;\n}\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := mustRun(t, tc.src, files); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestEvaluationErrors(t *testing.T) {
	files := vfs.MapFS{
		"_lib.scss": "$a: 1;",
		"_a.scss":   "@use 'b';",
		"_b.scss":   "@use 'a';",
	}
	cases := []struct {
		name string
		src  string
		kind diag.Kind
		msg  string
	}{
		{"not default", "@use 'lib' with ($a: 2);", diag.TypeError, "This variable was not declared with !default in the @used module."},
		{"builtin configured", "@use 'sass:math' with ($pi: 3);", diag.ImportError, "Built-in modules can't be configured."},
		{"module loop", "@use 'a';", diag.ImportError, "Module loop: this module is already being loaded."},
		{"missing", "@use 'nope';", diag.ImportError, "Can't find stylesheet to import."},
		{"extend outside rule", "@extend .a;", diag.ParseError, "@extend may only be used within style rules."},
		{"undefined mixin", "a { @include nope; }", diag.UndefinedMixin, "Undefined mixin."},
		{"user error", "@error 'stop';", diag.UserError, `"stop"`},
		{"undefined variable", "a { b: $nope; }", diag.UndefinedVariable, "Undefined variable."},
		{"recursion", "@function f($i) { @return f($i); }\na { b: f(1); }", diag.StackDepth, "Stack depth exceeded."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := run(tc.src, files, Options{MaxDepth: 20}, zap.NewNop())
			var de *diag.Error
			if !errors.As(err, &de) {
				t.Fatalf("expected diag error, got %v", err)
			}
			if de.Kind != tc.kind || de.Message != tc.msg {
				t.Errorf("got %v %q, want %v %q", de.Kind, de.Message, tc.kind, tc.msg)
			}
		})
	}
}

func TestWarnAndDebug(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := zap.New(core)

	src := "@mixin m { @warn 'careful'; }\na { @include m; }\n@debug 1px + 1px;\n"
	if _, err := run(src, nil, Options{}, log); err != nil {
		t.Fatalf("evaluation failed: %v", err)
	}

	warns := logs.FilterMessage("WARNING: careful").All()
	if len(warns) != 1 {
		t.Fatalf("expected one warning, got %d", len(warns))
	}
	fields := warns[0].ContextMap()
	if fields["at"] != "main.scss:1" {
		t.Errorf("warning location = %v", fields["at"])
	}
	if _, ok := fields["stack"]; !ok {
		t.Error("warning inside mixin should carry stack")
	}
	if logs.FilterMessage("main.scss:3 DEBUG: 2px").Len() != 1 {
		t.Errorf("debug message not logged: %v", logs.All())
	}

	core, logs = observer.New(zapcore.DebugLevel)
	if _, err := run(src, nil, Options{Quiet: true}, zap.New(core)); err != nil {
		t.Fatalf("evaluation failed: %v", err)
	}
	if logs.FilterMessageSnippet("WARNING").Len() != 0 || logs.FilterMessageSnippet("DEBUG").Len() != 0 {
		t.Error("quiet run produced messages")
	}
}
