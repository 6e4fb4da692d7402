package value

import (
	"math"
	"slices"
	"strings"
)

// Units is compound unit, numerator and denominator multisets of atomic units.
type Units struct {
	Num []string
	Den []string
}

// Unit makes simple single numerator unit, empty string means unitless.
func Unit(u string) Units {
	if u == "" {
		return Units{}
	}
	return Units{Num: []string{u}}
}

// IsNone reports whether number is unitless.
func (u Units) IsNone() bool {
	return len(u.Num) == 0 && len(u.Den) == 0
}

// IsSingle reports whether units consist of one numerator.
func (u Units) IsSingle() bool {
	return len(u.Num) == 1 && len(u.Den) == 0
}

// Has reports whether units is exactly single unit u.
func (u Units) Has(unit string) bool {
	return u.IsSingle() && strings.EqualFold(u.Num[0], unit)
}

// Equal compares units as multisets, case-insensitively.
func (u Units) Equal(o Units) bool {
	return sameSet(u.Num, o.Num) && sameSet(u.Den, o.Den)
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	if len(a) == 1 {
		return strings.EqualFold(a[0], b[0])
	}
	x := make([]string, len(a))
	y := make([]string, len(b))
	for i := range a {
		x[i], y[i] = strings.ToLower(a[i]), strings.ToLower(b[i])
	}
	slices.Sort(x)
	slices.Sort(y)
	return slices.Equal(x, y)
}

// Inverse swaps numerator and denominator.
func (u Units) Inverse() Units {
	return Units{Num: u.Den, Den: u.Num}
}

// String renders units the way inspect() shows them: px*em/s, px^-1,
// (px*em)^-1.
func (u Units) String() string {
	switch {
	case len(u.Num) == 0 && len(u.Den) == 0:
		return ""
	case len(u.Num) == 0 && len(u.Den) == 1:
		return u.Den[0] + "^-1"
	case len(u.Num) == 0:
		return "(" + strings.Join(u.Den, "*") + ")^-1"
	case len(u.Den) == 0:
		return strings.Join(u.Num, "*")
	}
	return strings.Join(u.Num, "*") + "/" + strings.Join(u.Den, "*")
}

type dimension int

const (
	dimNone dimension = iota
	dimLength
	dimAngle
	dimTime
	dimFrequency
	dimResolution
)

type unitInfo struct {
	dim dimension
	// size of the unit in terms of the canonical unit of its dimension:
	// px, deg, s, Hz and dppx.
	factor float64
}

var knownUnits = map[string]unitInfo{
	"px": {dimLength, 1},
	"in": {dimLength, 96},
	"cm": {dimLength, 96 / 2.54},
	"mm": {dimLength, 96 / 25.4},
	"q":  {dimLength, 96 / 101.6},
	"pt": {dimLength, 4.0 / 3.0},
	"pc": {dimLength, 16},

	"deg":  {dimAngle, 1},
	"grad": {dimAngle, 0.9},
	"rad":  {dimAngle, 180 / math.Pi},
	"turn": {dimAngle, 360},

	"s":  {dimTime, 1},
	"ms": {dimTime, 0.001},

	"hz":  {dimFrequency, 1},
	"khz": {dimFrequency, 1000},

	"dppx": {dimResolution, 1},
	"dpi":  {dimResolution, 1.0 / 96},
	"dpcm": {dimResolution, 2.54 / 96},
}

// exact factors between units of the same dimension that suffer from float
// rounding when derived from the canonical sizes.
var exactFactors = map[[2]string]float64{
	{"cm", "mm"}: 10,
	{"mm", "cm"}: 0.1,
	{"cm", "q"}:  40,
	{"q", "cm"}:  0.025,
	{"mm", "q"}:  4,
	{"q", "mm"}:  0.25,
	{"in", "cm"}: 2.54,
	{"in", "mm"}: 25.4,
	{"in", "pt"}: 72,
	{"in", "pc"}: 6,
	{"pc", "pt"}: 12,
	{"s", "ms"}:  1000,
	{"turn", "deg"}: 360,
}

// conversionFactor returns how many `to` units fit into one `from` unit.
func conversionFactor(from, to string) (float64, bool) {
	if strings.EqualFold(from, to) {
		return 1, true
	}
	f, t := strings.ToLower(from), strings.ToLower(to)
	if v, ok := exactFactors[[2]string{f, t}]; ok {
		return v, true
	}
	fi, ok1 := knownUnits[f]
	ti, ok2 := knownUnits[t]
	if !ok1 || !ok2 || fi.dim != ti.dim {
		return 0, false
	}
	return fi.factor / ti.factor, true
}

// IsKnownUnit reports whether unit takes part in conversions.
func IsKnownUnit(u string) bool {
	_, ok := knownUnits[strings.ToLower(u)]
	return ok
}

// convertibleTo returns factor converting value in units u into units to,
// false if units are not compatible.
func (u Units) convertibleTo(to Units) (float64, bool) {
	if len(u.Num) != len(to.Num) || len(u.Den) != len(to.Den) {
		return 0, false
	}
	factor := 1.0
	ok := func(from, target []string, mul bool) bool {
		rest := slices.Clone(target)
		for _, f := range from {
			found := false
			for i, t := range rest {
				if c, ok := conversionFactor(f, t); ok {
					if mul {
						factor *= c
					} else {
						factor /= c
					}
					rest = slices.Delete(rest, i, i+1)
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	}
	if !ok(u.Num, to.Num, true) || !ok(u.Den, to.Den, false) {
		return 0, false
	}
	return factor, true
}

// Compatible reports whether numbers with given units can be added.
func (u Units) Compatible(o Units) bool {
	if u.IsNone() || o.IsNone() {
		return true
	}
	_, ok := u.convertibleTo(o)
	return ok
}

// multiplyUnits multiplies value in units a by unit b cancelling convertible
// pairs, returns new value multiplier and resulting units.
func multiplyUnits(a, b Units) (float64, Units) {
	factor := 1.0
	var num []string
	den2 := slices.Clone(b.Den)
	for _, n := range a.Num {
		if i := slices.IndexFunc(den2, func(d string) bool {
			_, ok := conversionFactor(n, d)
			return ok
		}); i >= 0 {
			c, _ := conversionFactor(n, den2[i])
			factor *= c
			den2 = slices.Delete(den2, i, i+1)
			continue
		}
		num = append(num, n)
	}
	den1 := slices.Clone(a.Den)
	for _, n := range b.Num {
		if i := slices.IndexFunc(den1, func(d string) bool {
			_, ok := conversionFactor(n, d)
			return ok
		}); i >= 0 {
			c, _ := conversionFactor(n, den1[i])
			factor *= c
			den1 = slices.Delete(den1, i, i+1)
			continue
		}
		num = append(num, n)
	}
	return factor, Units{Num: num, Den: append(den1, den2...)}
}
