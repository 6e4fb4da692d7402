package diag

import (
	"errors"
	"fmt"
	"testing"

	"sassy/codemap"
)

func TestKindString(t *testing.T) {
	cases := []struct {
		k    Kind
		want string
	}{
		{ParseError, "ParseError"},
		{UndefinedFunction, "UndefinedFunction"},
		{StackDepth, "StackDepth"},
		{Kind(42), "Kind(42)"},
	}
	for _, tc := range cases {
		if got := tc.k.String(); got != tc.want {
			t.Errorf("String() = %q, want %q", got, tc.want)
		}
	}
}

func TestNew(t *testing.T) {
	e := New(UserError, "%s", "100% done")
	if e.Message != "100% done" || e.Kind != UserError {
		t.Errorf("New() = %+v", e)
	}
	e = At(TypeError, codemap.Span{Lo: 1, Hi: 3}, "%s is not a %s.", "a", "map")
	if e.Message != "a is not a map." || e.Span.Lo != 1 || e.Kind != TypeError {
		t.Errorf("At() = %+v", e)
	}
}

func TestWithSpan(t *testing.T) {
	span := codemap.Span{Lo: 5, Hi: 7}

	if WithSpan(nil, span) != nil {
		t.Error("nil error should stay nil")
	}

	var de *Error
	err := WithSpan(errors.New("plain"), span)
	if !errors.As(err, &de) || de.Kind != TypeError || de.Span != span {
		t.Errorf("foreign error converted to %+v", err)
	}

	inner := At(UnitError, codemap.Span{Lo: 1, Hi: 2}, "inner")
	err = WithSpan(fmt.Errorf("wrapped: %w", inner), span)
	if !errors.As(err, &de) || de.Span.Lo != 1 {
		t.Errorf("existing location replaced: %+v", de)
	}

	err = WithSpan(New(UnitError, "bare"), span)
	if !errors.As(err, &de) || de.Span != span || de.Kind != UnitError {
		t.Errorf("location not attached: %+v", de)
	}
}

func TestFormat(t *testing.T) {
	loc := codemap.Loc{File: "x.scss", Line: 1, Col: 5, LineText: "a { b }", Offset: 4, Width: 1}

	cases := []struct {
		name    string
		trace   []TraceLine
		unicode bool
		want    string
	}{
		{
			name: "ascii without trace",
			want: "Error: boom\n" +
				"  ,\n" +
				"1 | a { b }\n" +
				"  |     ^\n" +
				"  '\n" +
				"  x.scss 1:5  root stylesheet",
		},
		{
			name:    "unicode",
			unicode: true,
			want: "Error: boom\n" +
				"  ╷\n" +
				"1 │ a { b }\n" +
				"  │     ^\n" +
				"  ╵\n" +
				"  x.scss 1:5  root stylesheet",
		},
		{
			name:  "trace",
			trace: []TraceLine{{Where: "_m.scss 3:4", Name: "m()"}, {Where: "x.scss 10:1"}},
			want: "Error: boom\n" +
				"  ,\n" +
				"1 | a { b }\n" +
				"  |     ^\n" +
				"  '\n" +
				"  _m.scss 3:4  m()\n" +
				"  x.scss 10:1  root stylesheet",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Format("boom", loc, tc.trace, tc.unicode); got != tc.want {
				t.Errorf("Format() =\n%s\nwant\n%s", got, tc.want)
			}
		})
	}
}

func TestFormat_Tabs(t *testing.T) {
	loc := codemap.Loc{File: "t.scss", Line: 12, Col: 3, LineText: "\t\tfoo", Offset: 2, Width: 3}
	want := "Error: bad\n" +
		"   ,\n" +
		"12 | \t\tfoo\n" +
		"   | \t\t^^^\n" +
		"   '\n" +
		"  t.scss 12:3  root stylesheet"
	if got := Format("bad", loc, nil, false); got != want {
		t.Errorf("Format() =\n%q\nwant\n%q", got, want)
	}
}
