package value

import (
	"math"

	"github.com/tdewolff/parse/v2/css"
)

// Color is RGB color with alpha. Channels are kept as integers, hue,
// saturation and lightness are cached when color was built from them so that
// hsl() round trips exactly.
type Color struct {
	r, g, b uint8
	a       float64

	hsl *[3]float64
	// original spelling of a literal, dropped on any computation
	spelled string
}

func (Color) isValue()         {}
func (Color) TypeName() string { return "color" }

func channel(f float64) uint8 {
	f = FuzzyRound(f)
	switch {
	case f < 0:
		return 0
	case f > 255:
		return 255
	}
	return uint8(f)
}

func clampAlpha(a float64) float64 {
	if math.IsNaN(a) {
		return 0
	}
	return FuzzyClamp(a, 0, 1)
}

// RGBA makes color from channels in 0..255, values are rounded and clamped,
// alpha is clamped to [0,1].
func RGBA(r, g, b, a float64) Color {
	return Color{r: channel(r), g: channel(g), b: channel(b), a: clampAlpha(a)}
}

// HSLA makes color from hue in degrees, saturation and lightness in 0..100.
func HSLA(h, s, l, a float64) Color {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	s = FuzzyClamp(s, 0, 100)
	l = FuzzyClamp(l, 0, 100)
	r, g, b := css.HSL2RGB(h/360, s/100, l/100)
	c := Color{r: channel(r * 255), g: channel(g * 255), b: channel(b * 255), a: clampAlpha(a)}
	c.hsl = &[3]float64{h, s, l}
	return c
}

// HWBA makes color from hue, whiteness and blackness in 0..100.
func HWBA(h, w, bl, a float64) Color {
	w = FuzzyClamp(w, 0, 100) / 100
	bl = FuzzyClamp(bl, 0, 100) / 100
	if sum := w + bl; sum > 1 {
		w /= sum
		bl /= sum
	}
	factor := 1 - w - bl
	base := HSLA(h, 100, 50, 1)
	conv := func(c uint8) float64 {
		return (float64(c)/255*factor + w) * 255
	}
	return RGBA(conv(base.r), conv(base.g), conv(base.b), a)
}

// Spelled attaches original literal text to color.
func (c Color) Spelled(text string) Color {
	c.spelled = text
	return c
}

// Spelling returns literal text color was created from, if untouched.
func (c Color) Spelling() string {
	return c.spelled
}

func (c Color) Red() uint8     { return c.r }
func (c Color) Green() uint8   { return c.g }
func (c Color) Blue() uint8    { return c.b }
func (c Color) Alpha() float64 { return c.a }

// WithAlpha returns color with replaced alpha.
func (c Color) WithAlpha(a float64) Color {
	n := Color{r: c.r, g: c.g, b: c.b, a: clampAlpha(a), hsl: c.hsl}
	return n
}

// HSL returns hue in degrees, saturation and lightness in per cent.
func (c Color) HSL() (h, s, l float64) {
	if c.hsl != nil {
		return c.hsl[0], c.hsl[1], c.hsl[2]
	}
	r, g, b := float64(c.r)/255, float64(c.g)/255, float64(c.b)/255
	mx := math.Max(r, math.Max(g, b))
	mn := math.Min(r, math.Min(g, b))
	delta := mx - mn

	switch {
	case mx == mn:
		h = 0
	case mx == r:
		h = 60 * (g - b) / delta
	case mx == g:
		h = 120 + 60*(b-r)/delta
	default:
		h = 240 + 60*(r-g)/delta
	}
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}

	l = 50 * (mx + mn)
	switch {
	case mx == mn:
		s = 0
	case l < 50:
		s = 100 * delta / (mx + mn)
	default:
		s = 100 * delta / (2 - mx - mn)
	}
	return h, s, l
}

// HWB returns hue, whiteness and blackness.
func (c Color) HWB() (h, w, b float64) {
	h, _, _ = c.HSL()
	mn := math.Min(float64(c.r), math.Min(float64(c.g), float64(c.b)))
	mx := math.Max(float64(c.r), math.Max(float64(c.g), float64(c.b)))
	return h, mn / 255 * 100, 100 - mx/255*100
}

// channelOp applies f to every channel, alpha is kept.
func (c Color) channelOp(f func(float64) float64) Color {
	return RGBA(f(float64(c.r)), f(float64(c.g)), f(float64(c.b)), c.a)
}

func hexDigit(v uint8) byte {
	const digits = "0123456789abcdef"
	return digits[v]
}

func (c Color) hex() string {
	b := []byte{'#', hexDigit(c.r >> 4), hexDigit(c.r & 15), hexDigit(c.g >> 4), hexDigit(c.g & 15), hexDigit(c.b >> 4), hexDigit(c.b & 15)}
	return string(b)
}

func (c Color) canShortHex() bool {
	return c.r>>4 == c.r&15 && c.g>>4 == c.g&15 && c.b>>4 == c.b&15
}

func (c Color) shortHex() string {
	return string([]byte{'#', hexDigit(c.r & 15), hexDigit(c.g & 15), hexDigit(c.b & 15)})
}

// IEHex returns #AARRGGBB representation used by ie-hex-str().
func (c Color) IEHex() string {
	a := channel(c.a * 255)
	const digits = "0123456789ABCDEF"
	out := []byte{'#'}
	for _, v := range []uint8{a, c.r, c.g, c.b} {
		out = append(out, digits[v>>4], digits[v&15])
	}
	return string(out)
}
