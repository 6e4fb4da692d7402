package value

import (
	"math"
	"strconv"
	"strings"
)

// Precision is number of fractional digits kept in output.
const Precision = 10

const epsilon = 1e-11

func fuzzyEquals(a, b float64) bool {
	if a == b {
		return true
	}
	return math.Abs(a-b) < epsilon
}

func fuzzyLessThan(a, b float64) bool {
	return a < b && !fuzzyEquals(a, b)
}

func fuzzyLessThanOrEquals(a, b float64) bool {
	return a < b || fuzzyEquals(a, b)
}

// fuzzyAsInt returns integer value of f if it is one within epsilon.
func fuzzyAsInt(f float64) (int, bool) {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	r := math.Round(f)
	if fuzzyEquals(f, r) && math.Abs(r) < 1<<53 {
		return int(r), true
	}
	return 0, false
}

// FuzzyRound rounds half away from zero with epsilon tolerance for .5.
func FuzzyRound(f float64) float64 {
	if f > 0 {
		if fuzzyLessThan(frac(f), 0.5) {
			return math.Floor(f)
		}
		return math.Ceil(f)
	}
	if fuzzyLessThanOrEquals(frac(f), 0.5) {
		return math.Floor(f)
	}
	return math.Ceil(f)
}

// positive fractional part as dart % 1 computes it
func frac(f float64) float64 {
	m := math.Mod(f, 1)
	if m < 0 {
		m++
	}
	return m
}

// FuzzyClamp clamps f to [lo, hi] snapping values that are within epsilon of
// the bounds.
func FuzzyClamp(f, lo, hi float64) float64 {
	if fuzzyLessThanOrEquals(f, lo) {
		return lo
	}
	if fuzzyLessThanOrEquals(hi, f) {
		return hi
	}
	return f
}

// Number is numeric value with compound units.
type Number struct {
	Value float64
	Units Units
	// slash keeps operands of slash separated number literals like 12px/30px
	// until the number is used arithmetically.
	slash *[2]Number
}

func (Number) isValue()         {}
func (Number) TypeName() string { return "number" }

// NewNumber makes number with a single (or no) unit.
func NewNumber(v float64, unit string) Number {
	return Number{Value: v, Units: Unit(unit)}
}

// Unitless makes number without units.
func Unitless(v float64) Number {
	return Number{Value: v}
}

// WithSlash returns number that prints as numerator/denominator.
func (n Number) WithSlash(num, den Number) Number {
	n.slash = &[2]Number{num.WithoutSlash(), den.WithoutSlash()}
	return n
}

// WithoutSlash drops slash division memory.
func (n Number) WithoutSlash() Number {
	n.slash = nil
	return n
}

// HasSlash reports whether number still remembers slash form.
func (n Number) HasSlash() bool {
	return n.slash != nil
}

// Slash returns remembered operands.
func (n Number) Slash() (Number, Number, bool) {
	if n.slash == nil {
		return Number{}, Number{}, false
	}
	return n.slash[0], n.slash[1], true
}

// IsUnitless reports whether number has no units.
func (n Number) IsUnitless() bool {
	return n.Units.IsNone()
}

// HasUnit reports whether number has exactly single unit u.
func (n Number) HasUnit(u string) bool {
	return n.Units.Has(u)
}

// UnitString renders units.
func (n Number) UnitString() string {
	return n.Units.String()
}

// IsInt reports whether value is integer within epsilon.
func (n Number) IsInt() bool {
	_, ok := fuzzyAsInt(n.Value)
	return ok
}

// AsInt returns value as integer or error naming the argument.
func (n Number) AsInt() (int, error) {
	i, ok := fuzzyAsInt(n.Value)
	if !ok {
		return 0, typeErr("%s is not an int.", Inspect(n))
	}
	return i, nil
}

// ConvertTo converts number into units, unitless numbers are accepted as is.
func (n Number) ConvertTo(u Units) (float64, error) {
	if n.Units.IsNone() || u.IsNone() {
		return n.Value, nil
	}
	f, ok := n.Units.convertibleTo(u)
	if !ok {
		return 0, unitErr("Incompatible units %s and %s.", n.Units.String(), u.String())
	}
	return n.Value * f, nil
}

// ValueInRange returns value if it is within [lo, hi] fuzzily.
func (n Number) ValueInRange(lo, hi float64, name string) (float64, error) {
	v := n.Value
	if fuzzyLessThan(v, lo) || fuzzyLessThan(hi, v) {
		return 0, typeErr("%s: Expected %s to be within %s%s and %s%s.", name, Inspect(n),
			formatNumber(lo, false), n.Units.String(), formatNumber(hi, false), n.Units.String())
	}
	return FuzzyClamp(v, lo, hi), nil
}

func (n Number) equal(o Number) bool {
	if n.Units.IsNone() != o.Units.IsNone() {
		return false
	}
	if n.Units.IsNone() {
		return fuzzyEquals(n.Value, o.Value)
	}
	f, ok := o.Units.convertibleTo(n.Units)
	if !ok {
		return false
	}
	return fuzzyEquals(n.Value, o.Value*f)
}

// coerce returns both values expressed in the units of n.
func (n Number) coerce(o Number, op string) (float64, float64, Units, error) {
	if n.Units.IsNone() {
		return n.Value, o.Value, o.Units, nil
	}
	if o.Units.IsNone() {
		return n.Value, o.Value, n.Units, nil
	}
	f, ok := o.Units.convertibleTo(n.Units)
	if !ok {
		return 0, 0, Units{}, unitErr("Incompatible units %s and %s.", o.Units.String(), n.Units.String())
	}
	return n.Value, o.Value * f, n.Units, nil
}

// formatNumber writes number the way CSS output shows it: integers without
// fraction, at most Precision fractional digits, no exponent.
func formatNumber(f float64, compressed bool) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	if i, ok := fuzzyAsInt(f); ok {
		return strconv.Itoa(i)
	}
	s := strconv.FormatFloat(f, 'f', Precision, 64)
	if strings.IndexByte(s, '.') >= 0 {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	if s == "-0" {
		return "0"
	}
	if compressed {
		if strings.HasPrefix(s, "0.") {
			s = s[1:]
		} else if strings.HasPrefix(s, "-0.") {
			s = "-" + s[2:]
		}
	}
	return s
}

// FormatNumber exposes number formatting for callers building raw text.
func FormatNumber(f float64) string {
	return formatNumber(f, false)
}
