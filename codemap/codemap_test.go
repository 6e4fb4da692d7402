package codemap

import (
	"testing"
)

func TestSpanTo(t *testing.T) {
	cases := []struct {
		name string
		a, b Span
		want Span
	}{
		{"zero left", Span{}, Span{3, 5}, Span{3, 5}},
		{"zero right", Span{3, 5}, Span{}, Span{3, 5}},
		{"disjoint", Span{3, 5}, Span{8, 9}, Span{3, 9}},
		{"reversed", Span{8, 9}, Span{3, 5}, Span{3, 9}},
		{"inner", Span{1, 10}, Span{3, 5}, Span{1, 10}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.a.To(tc.b); got != tc.want {
				t.Errorf("To() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestMapFiles(t *testing.T) {
	m := New()
	a := m.AddFile("a.scss", "abc")
	b := m.AddFile("b.scss", "defg")

	if a.Base() == 0 {
		t.Error("first file must not start at zero offset")
	}
	if b.Base() <= a.Base()+len(a.Src) {
		t.Errorf("files overlap: %d and %d", a.Base(), b.Base())
	}
	if got := m.File(b.Span(1, 2)); got != b {
		t.Errorf("File() = %v, want b", got)
	}
	if got := m.File(a.Span(3, 3)); got != a {
		t.Error("end of file span should belong to file")
	}
	if got := m.File(Span{}); got != nil {
		t.Error("zero span should not resolve")
	}
	if got := b.Text(b.Span(1, 3)); got != "ef" {
		t.Errorf("Text() = %q", got)
	}
	if got := a.Text(b.Span(0, 2)); got != "" {
		t.Errorf("Text() of foreign span = %q", got)
	}
	if len(m.Files()) != 2 {
		t.Errorf("Files() = %d", len(m.Files()))
	}
}

func TestLookUp(t *testing.T) {
	m := New()
	m.AddFile("first.scss", "x")
	f := m.AddFile("main.scss", "a {\n  color: red;\r\n}\n")

	loc, ok := m.LookUp(f.Span(6, 11))
	if !ok {
		t.Fatal("LookUp() failed")
	}
	want := Loc{
		File:     "main.scss",
		Line:     2,
		Col:      3,
		EndLine:  2,
		EndCol:   8,
		LineText: "  color: red;",
		Offset:   2,
		Width:    5,
	}
	if loc != want {
		t.Errorf("LookUp() = %+v, want %+v", loc, want)
	}

	// span crossing end of line is cut at the line end
	loc, _ = m.LookUp(f.Span(13, 20))
	if loc.Width != 4 || loc.Offset != 9 {
		t.Errorf("multi line span Offset/Width = %d/%d", loc.Offset, loc.Width)
	}

	if _, ok := m.LookUp(Span{}); ok {
		t.Error("zero span resolved")
	}
	if _, ok := New().LookUp(Span{1, 2}); ok {
		t.Error("span resolved in empty map")
	}
}
