package value

import (
	"errors"
	"math"
	"testing"

	"sassy/diag"
)

func TestFormatNumber(t *testing.T) {
	cases := []struct {
		in         float64
		compressed bool
		want       string
	}{
		{1, false, "1"},
		{-3, false, "-3"},
		{1.5, false, "1.5"},
		{1.0 / 3, false, "0.3333333333"},
		{2.0 / 3, false, "0.6666666667"},
		{0.5, true, ".5"},
		{-0.25, true, "-.25"},
		{0.5, false, "0.5"},
		{1e-12, false, "0"},
		{1.00000000000001, false, "1"},
		{math.NaN(), false, "NaN"},
		{math.Inf(1), false, "Infinity"},
		{math.Inf(-1), false, "-Infinity"},
	}
	for _, tc := range cases {
		if got := formatNumber(tc.in, tc.compressed); got != tc.want {
			t.Errorf("formatNumber(%v, %v) = %q, want %q", tc.in, tc.compressed, got, tc.want)
		}
	}
}

func TestArithmetic(t *testing.T) {
	cases := []struct {
		name string
		op   func(a, b Value) (Value, error)
		a, b Value
		want string
	}{
		{"add same unit", Add, NewNumber(1, "px"), NewNumber(2, "px"), "3px"},
		{"add unitless", Add, Unitless(1), NewNumber(2, "px"), "3px"},
		{"add converts", Add, NewNumber(1, "in"), NewNumber(96, "px"), "2in"},
		{"sub", Sub, NewNumber(5, "em"), NewNumber(2, "em"), "3em"},
		{"mul units", Mul, NewNumber(2, "px"), NewNumber(3, "px"), "6px*px"},
		{"div cancels", Div, NewNumber(6, "px"), NewNumber(2, "px"), "3"},
		{"div inverse", Div, Unitless(1), NewNumber(2, "px"), "0.5px^-1"},
		{"rem sign of divisor", Rem, Unitless(-5), Unitless(3), "1"},
		{"rem positive", Rem, Unitless(5), Unitless(3), "2"},
		{"quoted plus unquoted", Add, Quoted("a"), Unquoted("b"), `"ab"`},
		{"unquoted plus quoted", Add, Unquoted("a"), Quoted("b"), "ab"},
		{"number plus string", Add, Unitless(1), Quoted("b"), `"1b"`},
		{"string minus", Sub, Unquoted("a"), Unquoted("b"), "a-b"},
		{"string slash", Div, Unquoted("a"), Unquoted("b"), "a/b"},
		{"color plus number", Add, RGBA(16, 32, 48, 1), Unitless(1), "#112131"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.op(tc.a, tc.b)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if s := Inspect(got); s != tc.want {
				t.Errorf("got %q, want %q", s, tc.want)
			}
		})
	}
}

func TestArithmeticErrors(t *testing.T) {
	cases := []struct {
		name string
		op   func(a, b Value) (Value, error)
		a, b Value
		kind diag.Kind
		msg  string
	}{
		{"incompatible", Add, NewNumber(1, "px"), NewNumber(1, "s"), diag.UnitError, "Incompatible units s and px."},
		{"number color", Add, Unitless(1), RGBA(0, 0, 0, 1), diag.TypeError, ""},
		{"color times color", Mul, RGBA(0, 0, 0, 1), RGBA(0, 0, 0, 1), diag.TypeError, ""},
		{"string times", Mul, Unquoted("a"), Unitless(2), diag.TypeError, `Undefined operation "a * 2".`},
		{"compare strings", Lt, Unquoted("a"), Unquoted("b"), diag.TypeError, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.op(tc.a, tc.b)
			var de *diag.Error
			if !errors.As(err, &de) {
				t.Fatalf("expected diag error, got %v", err)
			}
			if de.Kind != tc.kind {
				t.Errorf("kind = %v, want %v", de.Kind, tc.kind)
			}
			if tc.msg != "" && de.Message != tc.msg {
				t.Errorf("message = %q, want %q", de.Message, tc.msg)
			}
		})
	}
}

func TestComparison(t *testing.T) {
	v, err := Lt(NewNumber(1, "px"), NewNumber(2, "px"))
	if err != nil || v != True {
		t.Errorf("1px < 2px = %v, %v", v, err)
	}
	v, err = Gte(NewNumber(1, "in"), NewNumber(96, "px"))
	if err != nil || v != True {
		t.Errorf("1in >= 96px = %v, %v", v, err)
	}
	if _, err = Gt(NewNumber(1, "px"), NewNumber(1, "s")); err == nil {
		t.Error("expected error comparing px and s")
	}
}

func TestEqual(t *testing.T) {
	cases := []struct {
		name string
		a, b Value
		want bool
	}{
		{"converted units", NewNumber(1, "in"), NewNumber(96, "px"), true},
		{"unit and unitless", NewNumber(1, "px"), Unitless(1), false},
		{"fuzzy", Unitless(0.1 + 0.2), Unitless(0.3), true},
		{"quoting ignored", Quoted("a"), Unquoted("a"), true},
		{"null", NullValue, NullValue, true},
		{"bool and null", False, NullValue, false},
		{"colors", RGBA(255, 0, 0, 1), HSLA(0, 100, 50, 1), true},
		{"lists", List{Items: []Value{Unitless(1), Unitless(2)}, Sep: SepSpace}, List{Items: []Value{Unitless(1), Unitless(2)}, Sep: SepSpace}, true},
		{"list separators", List{Items: []Value{Unitless(1), Unitless(2)}, Sep: SepSpace}, List{Items: []Value{Unitless(1), Unitless(2)}, Sep: SepComma}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Equal(tc.a, tc.b); got != tc.want {
				t.Errorf("Equal(%s, %s) = %v, want %v", Inspect(tc.a), Inspect(tc.b), got, tc.want)
			}
		})
	}
}

func TestTruthy(t *testing.T) {
	cases := []struct {
		v    Value
		want bool
	}{
		{NullValue, false},
		{False, false},
		{True, true},
		{Unquoted(""), true},
		{Unitless(0), true},
		{List{}, true},
	}
	for _, tc := range cases {
		if got := Truthy(tc.v); got != tc.want {
			t.Errorf("Truthy(%s) = %v, want %v", Inspect(tc.v), got, tc.want)
		}
	}
}

func TestSerializeColors(t *testing.T) {
	cases := []struct {
		name       string
		c          Color
		compressed bool
		want       string
	}{
		{"named", RGBA(255, 0, 0, 1), false, "red"},
		{"hex", RGBA(0x12, 0x34, 0x57, 1), false, "#123457"},
		{"short hex", RGBA(255, 255, 255, 1), true, "#fff"},
		{"short name", RGBA(255, 0, 0, 1), true, "red"},
		{"alpha", RGBA(0, 0, 0, 0.5), false, "rgba(0, 0, 0, 0.5)"},
		{"alpha compressed", RGBA(0, 0, 0, 0.5), true, "rgba(0,0,0,.5)"},
		{"spelling kept", RGBA(255, 0, 0, 1).Spelled("#F00"), false, "#F00"},
		{"clamped", RGBA(300, -5, 127.5, 1), false, "#ff0080"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ToCSS(tc.c, tc.compressed)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestColorSpaces(t *testing.T) {
	c := RGBA(255, 0, 0, 1)
	if h, s, l := c.HSL(); h != 0 || s != 100 || l != 50 {
		t.Errorf("HSL() = %v, %v, %v", h, s, l)
	}
	if h, w, b := RGBA(255, 255, 255, 1).HWB(); h != 0 || w != 100 || b != 0 {
		t.Errorf("HWB() = %v, %v, %v", h, w, b)
	}

	g := HSLA(120, 100, 25, 1)
	if g.Red() != 0 || g.Green() != 128 || g.Blue() != 0 {
		t.Errorf("HSLA(120, 100, 25) = %d, %d, %d", g.Red(), g.Green(), g.Blue())
	}
	if h, _, _ := HSLA(-120, 50, 50, 1).HSL(); h != 240 {
		t.Errorf("negative hue normalized to %v", h)
	}

	k := HWBA(0, 0, 100, 1)
	if k.Red() != 0 || k.Green() != 0 || k.Blue() != 0 {
		t.Errorf("HWBA(0, 0, 100) = %d, %d, %d", k.Red(), k.Green(), k.Blue())
	}

	if got := c.IEHex(); got != "#FFFF0000" {
		t.Errorf("IEHex() = %q", got)
	}
	if got := c.WithAlpha(2).Alpha(); got != 1 {
		t.Errorf("alpha not clamped: %v", got)
	}

	named, ok := ColorByName("rebeccapurple")
	if !ok || named.Red() != 0x66 || named.Green() != 0x33 || named.Blue() != 0x99 {
		t.Errorf("ColorByName(rebeccapurple) = %v, %v", named, ok)
	}
	if _, ok := ColorByName("nocolor"); ok {
		t.Error("unexpected color found")
	}
}

func TestInspect(t *testing.T) {
	one, two, three := Unitless(1), Unitless(2), Unitless(3)
	m := NewMap()
	m.Put(Unquoted("a"), one)
	m.Put(Unquoted("b"), List{Items: []Value{one, two}, Sep: SepComma})

	cases := []struct {
		name string
		v    Value
		want string
	}{
		{"null", NullValue, "null"},
		{"quoted", Quoted("x"), `"x"`},
		{"double quote inside", Quoted(`a"b`), `'a"b'`},
		{"both quotes", Quoted(`a"b'c`), `"a\"b'c"`},
		{"comma list", List{Items: []Value{one, two}, Sep: SepComma}, "1, 2"},
		{"slash list", List{Items: []Value{one, two}, Sep: SepSlash}, "1 / 2"},
		{"empty list", List{}, "()"},
		{"singleton", List{Items: []Value{one}, Sep: SepComma}, "(1,)"},
		{"brackets", List{Items: []Value{one, two}, Sep: SepSpace, Brackets: true}, "[1 2]"},
		{"nested", List{Items: []Value{List{Items: []Value{one, two}, Sep: SepComma}, three}, Sep: SepSpace}, "(1, 2) 3"},
		{"map", m, "(a: 1, b: (1, 2))"},
		{"compound units", Number{Value: 1, Units: Units{Num: []string{"px"}, Den: []string{"s"}}}, "1px/s"},
		{"inverse units", Number{Value: 1, Units: Units{Den: []string{"s", "ms"}}}, "1(s*ms)^-1"},
		{"function", &Function{Name: "f"}, `get-function("f")`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Inspect(tc.v); got != tc.want {
				t.Errorf("Inspect() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestToCSS_Invalid(t *testing.T) {
	cases := []struct {
		name string
		v    Value
	}{
		{"empty list", List{}},
		{"map", NewMap()},
		{"compound units", Number{Value: 1, Units: Units{Num: []string{"px", "px"}}}},
		{"function", &Function{Name: "f"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ToCSS(tc.v, false)
			if err == nil {
				t.Fatal("expected error")
			}
			var de *diag.Error
			if !errors.As(err, &de) || de.Kind != diag.TypeError {
				t.Errorf("unexpected error %v", err)
			}
		})
	}
}

func TestToCSS_Strings(t *testing.T) {
	s := Quoted("a b")
	if got, _ := ToCSS(s, false); got != `"a b"` {
		t.Errorf("ToCSS() = %q", got)
	}
	if got, _ := ToCSSUnquoted(s, false); got != "a b" {
		t.Errorf("ToCSSUnquoted() = %q", got)
	}
	if got, _ := ToCSS(List{Items: []Value{Unquoted("a"), NullValue, Unquoted("b")}, Sep: SepSpace}, false); got != "a b" {
		t.Errorf("nulls should be skipped, got %q", got)
	}
	if got := QuoteString("line\nbreak"); got != `"line\a break"` {
		t.Errorf("QuoteString() = %q", got)
	}
}

func TestMapCopies(t *testing.T) {
	a := Unquoted("a")
	m := NewMap()
	m.Put(a, Unitless(1))

	n := m.Set(a, Unitless(2))
	if v, _ := m.Get(a); !Equal(v, Unitless(1)) {
		t.Errorf("Set modified original map: %s", Inspect(v))
	}
	if v, _ := n.Get(Quoted("a")); !Equal(v, Unitless(2)) {
		t.Errorf("Get() = %s", Inspect(v))
	}

	n = n.Set(Unquoted("b"), Unitless(3))
	if n.Len() != 2 || m.Len() != 1 {
		t.Errorf("Len() = %d, %d", n.Len(), m.Len())
	}

	r := n.Remove(a, Unquoted("missing"))
	if r.Len() != 1 || r.Has(a) || !n.Has(a) {
		t.Errorf("Remove() = %s from %s", Inspect(r), Inspect(n))
	}
}

func TestUnits(t *testing.T) {
	if !Unit("px").Compatible(Unit("in")) {
		t.Error("px and in should be compatible")
	}
	if Unit("px").Compatible(Unit("s")) {
		t.Error("px and s should not be compatible")
	}
	if !Unit("").Compatible(Unit("s")) {
		t.Error("unitless is compatible with anything")
	}
	if !(Units{Num: []string{"px", "s"}}).Equal(Units{Num: []string{"S", "px"}}) {
		t.Error("units should compare as case-insensitive multisets")
	}

	v, err := NewNumber(1, "in").ConvertTo(Unit("px"))
	if err != nil || v != 96 {
		t.Errorf("ConvertTo(px) = %v, %v", v, err)
	}
	if _, err := NewNumber(1, "in").ConvertTo(Unit("deg")); err == nil {
		t.Error("expected conversion error")
	}
}

func TestFuzzyRound(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{0.5, 1},
		{1.49, 1},
		{2.49999999999999, 3},
		{-0.5, -1},
		{-1.2, -1},
	}
	for _, tc := range cases {
		if got := FuzzyRound(tc.in); got != tc.want {
			t.Errorf("FuzzyRound(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
