package common

import (
	"testing"
)

func TestParseOutputStyle(t *testing.T) {
	for _, name := range OutputStyleNames() {
		s, err := ParseOutputStyle(name)
		if err != nil {
			t.Fatalf("ParseOutputStyle(%q) error: %v", name, err)
		}
		if s.String() != name {
			t.Errorf("round trip %q -> %q", name, s.String())
		}
	}
	if s, err := ParseOutputStyle("Compressed"); err != nil || s != OutputStyleCompressed {
		t.Errorf("case insensitive parse failed: %v, %v", s, err)
	}
	if _, err := ParseOutputStyle("nested"); err == nil {
		t.Error("expected error for unsupported style")
	}
	if got := OutputStyle(7).String(); got != "OutputStyle(7)" {
		t.Errorf("String() = %q", got)
	}
}

func TestOutputStyleText(t *testing.T) {
	var s OutputStyle
	if err := s.UnmarshalText([]byte("compressed")); err != nil || s != OutputStyleCompressed {
		t.Fatalf("UnmarshalText() = %v, %v", s, err)
	}
	data, err := s.MarshalText()
	if err != nil || string(data) != "compressed" {
		t.Errorf("MarshalText() = %q, %v", data, err)
	}
	if err := s.UnmarshalText([]byte("bogus")); err == nil || s != OutputStyleCompressed {
		t.Error("failed unmarshal must not change value")
	}
}

func TestInputSyntaxForPath(t *testing.T) {
	cases := []struct {
		syntax InputSyntax
		path   string
		want   InputSyntax
	}{
		{InputSyntaxAuto, "a/b.scss", InputSyntaxScss},
		{InputSyntaxAuto, "a/b.SASS", InputSyntaxSass},
		{InputSyntaxAuto, "b.css", InputSyntaxCss},
		{InputSyntaxAuto, "stdin", InputSyntaxScss},
		{InputSyntaxSass, "b.scss", InputSyntaxSass},
	}
	for _, tc := range cases {
		if got := tc.syntax.ForPath(tc.path); got != tc.want {
			t.Errorf("%v.ForPath(%q) = %v, want %v", tc.syntax, tc.path, got, tc.want)
		}
	}
}

func TestParseInputSyntax(t *testing.T) {
	var s InputSyntax
	if err := s.UnmarshalText([]byte("SASS")); err != nil || s != InputSyntaxSass {
		t.Errorf("UnmarshalText() = %v, %v", s, err)
	}
	if _, err := ParseInputSyntax("less"); err == nil {
		t.Error("expected error")
	}
	if len(InputSyntaxNames()) != 4 {
		t.Errorf("InputSyntaxNames() = %v", InputSyntaxNames())
	}
}
