package selector

import (
	"errors"
	"testing"

	"sassy/diag"
)

func mustParse(t *testing.T, text string) *List {
	t.Helper()
	l, err := Parse(text, true, true)
	if err != nil {
		t.Fatalf("Parse(%q) error: %v", text, err)
	}
	return l
}

func TestParse(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"a", "a"},
		{"a  >  b", "a > b"},
		{"a+b~c", "a + b ~ c"},
		{"a b", "a b"},
		{".a.b#c", ".a.b#c"},
		{"*", "*"},
		{"svg|rect", "svg|rect"},
		{"[href='x']", "[href=x]"},
		{"[data-x=\"a b\" i]", "[data-x=\"a b\" i]"},
		{"[lang|=en]", "[lang|=en]"},
		{"a:hover", "a:hover"},
		{"p::before", "p::before"},
		{"p:after", "p:after"},
		{":not(.a,.b)", ":not(.a, .b)"},
		{":nth-child(2n + 1)", ":nth-child(2n+1)"},
		{":nth-child(ODD)", ":nth-child(odd)"},
		{"a /* note */ b", "a b"},
		{"a,\nb", "a, b"},
		{"&-suffix", "&-suffix"},
		{"%placeholder", "%placeholder"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			if got := mustParse(t, tc.in).String(); got != tc.want {
				t.Errorf("String() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	cases := []struct {
		name, in   string
		allowParen bool
	}{
		{"unclosed attribute", "[href", true},
		{"bad attribute op", "[a!b]", true},
		{"dangling", "a {", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.in, tc.allowParen, true)
			var de *diag.Error
			if !errors.As(err, &de) || de.Kind != diag.ParseError {
				t.Errorf("expected parse error, got %v", err)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	l := mustParse(t, "%hidden, a,\nb > c")
	if got := l.Format(false, "  "); got != "a,\n  b > c" {
		t.Errorf("Format() = %q", got)
	}
	if got := l.Format(true, ""); got != "a,b>c" {
		t.Errorf("compressed Format() = %q", got)
	}
	if !mustParse(t, "%a, .b %c").IsInvisible() {
		t.Error("selector made of placeholders should be invisible")
	}
	if mustParse(t, "%a, .b").IsInvisible() {
		t.Error("selector with visible part reported invisible")
	}
}

func TestResolve(t *testing.T) {
	cases := []struct {
		name, parent, child, want string
	}{
		{"implicit", "a, b", "c", "a c, b c"},
		{"parent first", "a, b", "c, d", "a c, a d, b c, b d"},
		{"suffix", ".btn", "&-primary", ".btn-primary"},
		{"pseudo", "a, b", "&:hover", "a:hover, b:hover"},
		{"trailing parent", ".a", ".b &", ".b .a"},
		{"twice", ".a", "& + &", ".a + .a"},
		{"in pseudo selector", ".a", ":not(&)", ":not(.a)"},
		{"compound parent", "x > .a", "&.b", "x > .a.b"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := mustParse(t, tc.child).Resolve(mustParse(t, tc.parent), true)
			if err != nil {
				t.Fatalf("Resolve() error: %v", err)
			}
			if s := got.String(); s != tc.want {
				t.Errorf("Resolve() = %q, want %q", s, tc.want)
			}
		})
	}
}

func TestResolve_Errors(t *testing.T) {
	if _, err := mustParse(t, "&.a").Resolve(nil, true); err == nil {
		t.Error("top level parent selector must fail")
	}
	if _, err := mustParse(t, "&-x").Resolve(mustParse(t, ":is(a)"), true); err == nil {
		t.Error("suffix on functional pseudo must fail")
	}
	got, err := mustParse(t, "b").Replace(mustParse(t, "a"))
	if err != nil || got.String() != "b" {
		t.Errorf("Replace() = %v, %v", got, err)
	}
}

func TestExtend(t *testing.T) {
	cases := []struct {
		name, sel, extender, target, want string
	}{
		{"simple", ".a", ".b", ".a", ".a, .b"},
		{"compound", ".a.c", ".b", ".a", ".a.c, .c.b"},
		{"descendant", "x .a", "y .b", ".a", "x .a, x y .b, y x .b"},
		{"no match", ".c", ".b", ".a", ".c"},
		{"placeholder", "%p", ".b", "%p", "%p, .b"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			target, err := ParseCompound(tc.target)
			if err != nil {
				t.Fatalf("ParseCompound() error: %v", err)
			}
			e := NewExtender()
			e.Add(mustParse(t, tc.extender), target.Simple[0], "", false, nil)
			if got := e.Extend(mustParse(t, tc.sel), "").String(); got != tc.want {
				t.Errorf("Extend() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestExtend_Media(t *testing.T) {
	e := NewExtender()
	e.Add(mustParse(t, ".b"), Class{Name: "a"}, "print", false, "rule")
	if got := e.Extend(mustParse(t, ".a"), "screen").String(); got != ".a" {
		t.Errorf("extension leaked into other media: %q", got)
	}
	if len(e.Unsatisfied()) != 1 {
		t.Errorf("Unsatisfied() = %d", len(e.Unsatisfied()))
	}
	if got := e.Extend(mustParse(t, ".a"), "print").String(); got != ".a, .b" {
		t.Errorf("Extend() = %q", got)
	}
	if len(e.Unsatisfied()) != 0 {
		t.Error("matched extension still reported")
	}
}

func TestExtend_Unsatisfied(t *testing.T) {
	e := NewExtender()
	e.Add(mustParse(t, ".b, .c"), Class{Name: "missing"}, "", false, "rule")
	e.Add(mustParse(t, ".d"), Class{Name: "other"}, "", true, "optional")
	if e.Len() != 3 {
		t.Errorf("Len() = %d", e.Len())
	}
	u := e.Unsatisfied()
	if len(u) != 1 || u[0].Payload != "rule" || u[0].Used() {
		t.Errorf("Unsatisfied() = %+v", u)
	}
}

func TestUnify(t *testing.T) {
	cases := []struct {
		a, b, want string
	}{
		{"a", ".b", "a.b"},
		{".a", "a", "a.a"},
		{".a", ".a", ".a"},
		{".a", "*", ".a"},
		{"a", "b", ""},
		{"#x", "#y", ""},
		{"p::before", "p::after", ""},
	}
	for _, tc := range cases {
		t.Run(tc.a+"+"+tc.b, func(t *testing.T) {
			got := Unify(mustParse(t, tc.a), mustParse(t, tc.b))
			switch {
			case tc.want == "" && got != nil:
				t.Errorf("Unify() = %q, want nil", got.String())
			case tc.want != "" && got == nil:
				t.Errorf("Unify() = nil, want %q", tc.want)
			case got != nil && got.String() != tc.want:
				t.Errorf("Unify() = %q, want %q", got.String(), tc.want)
			}
		})
	}
}

func TestIsSuperselector(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{".a", ".a.b", true},
		{".a.b", ".a", false},
		{".a", ".a, .a.b", true},
		{".a", ".a, .b", false},
		{".a, .b", ".b", true},
	}
	for _, tc := range cases {
		if got := IsSuperselector(mustParse(t, tc.a), mustParse(t, tc.b)); got != tc.want {
			t.Errorf("IsSuperselector(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestAppend(t *testing.T) {
	got, err := Append(mustParse(t, ".a, .b"), mustParse(t, ".c"))
	if err != nil {
		t.Fatalf("Append() error: %v", err)
	}
	if got.String() != ".a.c, .b.c" {
		t.Errorf("Append() = %q", got.String())
	}
	if _, err := Append(mustParse(t, ".a"), mustParse(t, "> .c")); err == nil {
		t.Error("expected error appending combinator")
	}
}

func TestCloneIsolated(t *testing.T) {
	l := mustParse(t, ".a .b")
	c := l.Clone()
	c.Complex[0].Components = c.Complex[0].Components[:1]
	if l.String() != ".a .b" || !l.Equal(mustParse(t, ".a .b")) {
		t.Errorf("Clone() shares state: %q", l.String())
	}
}
