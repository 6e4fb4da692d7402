package compiler

import (
	"testing"
)

// runCases compiles each input in expanded style, empty want means output
// must repeat input.
func runCases(t *testing.T, tests []struct{ name, input, want string }) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := tt.want
			if want == "" {
				want = tt.input
			}
			got, err := FromString(tt.input, testOptions())
			if err != nil {
				t.Fatalf("FromString() error:\n%v", err)
			}
			if got != want {
				t.Errorf("FromString(%q)\ngot:  %q\nwant: %q", tt.input, got, want)
			}
		})
	}
}

func TestColorLiterals(t *testing.T) {
	runCases(t, []struct{ name, input, want string }{
		{"named color case", "a {\n  color: OrAnGe;\n}\n", ""},
		{"hex color case", "a {\n  color: #FfFfFf;\n}\n", ""},
		{"hex8 10000000", "a {\n  color: #10000000;\n}\n", ""},
		{"hex8 12312312", "a {\n  color: #12312312;\n}\n", ""},
		{"hex8 ab234cff", "a {\n  color: #ab234cff;\n}\n", ""},
		{"hex6 000000", "a {\n  color: #000000;\n}\n", ""},
		{"hex6 123123", "a {\n  color: #123123;\n}\n", ""},
		{"hex6 ab234c", "a {\n  color: #ab234c;\n}\n", ""},
		{"hex4 0000", "a {\n  color: #0000;\n}\n", ""},
		{"hex4 123a", "a {\n  color: #123a;\n}\n", ""},
		{"hex4 ab2f", "a {\n  color: #ab2f;\n}\n", ""},
		{"hex3 000", "a {\n  color: #000;\n}\n", ""},
		{"hex3 123", "a {\n  color: #123;\n}\n", ""},
		{"hex3 ab2", "a {\n  color: #ab2;\n}\n", ""},
	})
}

func TestColorFunctions(t *testing.T) {
	runCases(t, []struct{ name, input, want string }{
		{"rgb to named color", "a {\n  color: rgb(0, 0, 0);\n}\n", "a {\n  color: black;\n}\n"},
		{"rgba to named color", "a {\n  color: rgb(255, 0, 0, 255);\n}\n", "a {\n  color: red;\n}\n"},
		{"rgb binop", "a {\n  color: rgb(1, 2, 1+2);\n}\n", "a {\n  color: #010203;\n}\n"},
		{"rgb pads 0", "a {\n  color: rgb(1, 2, 3);\n}\n", "a {\n  color: #010203;\n}\n"},
		{"rgba percent", "a {\n  color: rgba(159%, 169, 169%, 50%);\n}\n", "a {\n  color: rgba(255, 169, 255, 0.5);\n}\n"},
		{"rgba percent round up", "a {\n  color: rgba(59%, 169, 69%, 50%);\n}\n", "a {\n  color: rgba(150, 169, 176, 0.5);\n}\n"},
		{"rgb double digits", "a {\n  color: rgb(254, 255, 255);\n}\n", "a {\n  color: #feffff;\n}\n"},
		{"rgb white", "a {\n  color: rgb(255, 255, 255);\n}\n", "a {\n  color: white;\n}\n"},
		{"alpha of hex4", "a {\n  color: alpha(#0123);\n}\n", "a {\n  color: 0.2;\n}\n"},
		{"alpha of named color", "a {\n  color: alpha(red);\n}\n", "a {\n  color: 1;\n}\n"},
		{"opacity of number", "a {\n  color: opacity(1);\n}\n", ""},
		{"opacity of number with unit", "a {\n  color: opacity(1px);\n}\n", ""},
		{"rgba opacity over 1", "a {\n  color: rgba(1, 2, 3, 3);\n}\n", "a {\n  color: #010203;\n}\n"},
		{"rgba negative alpha", "a {\n  color: rgba(1, 2, 3, -10%);\n}\n", "a {\n  color: rgba(1, 2, 3, 0);\n}\n"},
		{"rgba opacity decimal", "a {\n  color: rgba(1, 2, 3, .6);\n}\n", "a {\n  color: rgba(1, 2, 3, 0.6);\n}\n"},
		{"rgba opacity percent", "a {\n  color: rgba(1, 2, 3, 50%);\n}\n", "a {\n  color: rgba(1, 2, 3, 0.5);\n}\n"},
		{"hsl", "a {\n  color: hsl(193, 67%, 99);\n}\n", "a {\n  color: #fbfdfe;\n}\n"},
		{"hsla", "a {\n  color: hsla(193, 67%, 99, .6);\n}\n", "a {\n  color: rgba(251, 253, 254, 0.6);\n}\n"},
		{"hsl named", "a {\n  color: hsl($hue: 193, $saturation: 67%, $luminance: 99);\n}\n", "a {\n  color: #fbfdfe;\n}\n"},
		{"hsla named", "a {\n  color: hsla($hue: 193, $saturation: 67%, $luminance: 99, $alpha: .6);\n}\n", "a {\n  color: rgba(251, 253, 254, 0.6);\n}\n"},
		{"hue", "$a: hsl(193, 67%, 28%);\n\na {\n  color: hue($a);\n}\n", "a {\n  color: 193deg;\n}\n"},
		{"saturation", "$a: hsl(193, 67%, 28%);\n\na {\n  color: saturation($a);\n}\n", "a {\n  color: 67%;\n}\n"},
		{"saturation unitless", "$a: hsl(1, 1, 10);\n\na {\n  color: saturation($a);\n}\n", "a {\n  color: 1%;\n}\n"},
		{"lightness", "$a: hsl(193, 67%, 28%);\n\na {\n  color: lightness($a);\n}\n", "a {\n  color: 28%;\n}\n"},
		{"invert", "a {\n  color: invert(white);\n}\n", "a {\n  color: black;\n}\n"},
		{"invert weight percent", "a {\n  color: invert(white, 20%);\n}\n", "a {\n  color: #cccccc;\n}\n"},
		{"invert weight unitless", "a {\n  color: invert(white, 20);\n}\n", "a {\n  color: #cccccc;\n}\n"},
	})
}

func TestColorOperations(t *testing.T) {
	runCases(t, []struct{ name, input, want string }{
		{"color plus ident", "a {\n  color: red + foo;\n}\n", "a {\n  color: redfoo;\n}\n"},
		{"ident plus color", "a {\n  color: foo + red;\n}\n", "a {\n  color: foored;\n}\n"},
		{"color minus ident", "a {\n  color: red - foo;\n}\n", "a {\n  color: red-foo;\n}\n"},
		{"color minus double quoted", "a {\n  color: red - \"foo\";\n}\n", "a {\n  color: red-\"foo\";\n}\n"},
		{"color minus single quoted", "a {\n  color: red - 'foo';\n}\n", "a {\n  color: red-\"foo\";\n}\n"},
		{"color minus important", "a {\n  color: red - !important;\n}\n", "a {\n  color: red-!important;\n}\n"},
		{"color minus null", "a {\n  color: red - null;\n}\n", "a {\n  color: red-;\n}\n"},
		{"ident minus color", "a {\n  color: foo - red;\n}\n", "a {\n  color: foo-red;\n}\n"},
	})
}
