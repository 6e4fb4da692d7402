package value

import (
	"math"

	"sassy/diag"
)

func unitErr(format string, args ...any) error {
	return diag.New(diag.UnitError, format, args...)
}

func undefinedOp(a Value, op string, b Value) error {
	return typeErr("Undefined operation \"%s %s %s\".", Inspect(a), op, Inspect(b))
}

// cssText is serialization used by string fallbacks of operators, quotes are
// kept.
func cssText(v Value) (string, error) {
	return serialize(v, false, false, true)
}

func concatFallback(a, b Value, sep string) (Value, error) {
	if _, ok := a.(*Calculation); ok {
		return nil, undefinedOp(a, sep, b)
	}
	if _, ok := b.(*Calculation); ok {
		return nil, undefinedOp(a, sep, b)
	}
	l, err := cssText(a)
	if err != nil {
		return nil, err
	}
	r, err := cssText(b)
	if err != nil {
		return nil, err
	}
	return Unquoted(l + sep + r), nil
}

// Add implements a + b.
func Add(a, b Value) (Value, error) {
	switch x := a.(type) {
	case Number:
		switch y := b.(type) {
		case Number:
			l, r, u, err := x.coerce(y, "+")
			if err != nil {
				return nil, err
			}
			return Number{Value: l + r, Units: u}, nil
		case Color:
			return nil, undefinedOp(a, "+", b)
		}
	case Color:
		switch y := b.(type) {
		case Number:
			if !y.IsUnitless() {
				return nil, undefinedOp(a, "+", b)
			}
			return x.channelOp(func(c float64) float64 { return c + y.Value }), nil
		case Color:
			return nil, undefinedOp(a, "+", b)
		}
	case String:
		switch y := b.(type) {
		case String:
			return String{Text: x.Text + y.Text, Quoted: x.Quoted}, nil
		case *Calculation:
			return nil, undefinedOp(a, "+", b)
		}
		r, err := cssText(b)
		if err != nil {
			return nil, err
		}
		return String{Text: x.Text + r, Quoted: x.Quoted}, nil
	case *Calculation:
		return nil, undefinedOp(a, "+", b)
	}
	if y, ok := b.(String); ok {
		l, err := cssText(a)
		if err != nil {
			return nil, err
		}
		return String{Text: l + y.Text, Quoted: y.Quoted}, nil
	}
	if _, ok := b.(*Calculation); ok {
		return nil, undefinedOp(a, "+", b)
	}
	return concatFallback(a, b, "")
}

// Sub implements a - b.
func Sub(a, b Value) (Value, error) {
	switch x := a.(type) {
	case Number:
		switch y := b.(type) {
		case Number:
			l, r, u, err := x.coerce(y, "-")
			if err != nil {
				return nil, err
			}
			return Number{Value: l - r, Units: u}, nil
		case Color:
			return nil, undefinedOp(a, "-", b)
		}
	case Color:
		switch y := b.(type) {
		case Number:
			if !y.IsUnitless() {
				return nil, undefinedOp(a, "-", b)
			}
			return x.channelOp(func(c float64) float64 { return c - y.Value }), nil
		case Color:
			return nil, undefinedOp(a, "-", b)
		}
	}
	return concatFallback(a, b, "-")
}

// Mul implements a * b.
func Mul(a, b Value) (Value, error) {
	switch x := a.(type) {
	case Number:
		if y, ok := b.(Number); ok {
			f, u := multiplyUnits(x.Units, y.Units)
			return Number{Value: x.Value * y.Value * f, Units: u}, nil
		}
	case Color:
		if y, ok := b.(Number); ok && y.IsUnitless() {
			return x.channelOp(func(c float64) float64 { return c * y.Value }), nil
		}
	}
	return nil, undefinedOp(a, "*", b)
}

// Div implements a / b for values that are not slash separated literals.
func Div(a, b Value) (Value, error) {
	switch x := a.(type) {
	case Number:
		switch y := b.(type) {
		case Number:
			f, u := multiplyUnits(x.Units, y.Units.Inverse())
			return Number{Value: x.Value / y.Value * f, Units: u}, nil
		case Color:
			return nil, undefinedOp(a, "/", b)
		}
	case Color:
		switch y := b.(type) {
		case Number:
			if !y.IsUnitless() {
				return nil, undefinedOp(a, "/", b)
			}
			return x.channelOp(func(c float64) float64 { return c / y.Value }), nil
		case Color:
			return nil, undefinedOp(a, "/", b)
		}
	}
	return concatFallback(a, b, "/")
}

// Rem implements a % b, result takes sign of the divisor.
func Rem(a, b Value) (Value, error) {
	x, ok1 := a.(Number)
	y, ok2 := b.(Number)
	if !ok1 || !ok2 {
		return nil, undefinedOp(a, "%", b)
	}
	l, r, u, err := x.coerce(y, "%")
	if err != nil {
		return nil, err
	}
	return Number{Value: modulo(l, r), Units: u}, nil
}

func modulo(a, b float64) float64 {
	if b == 0 {
		return math.NaN()
	}
	if math.IsInf(b, 0) {
		if math.IsInf(a, 0) || math.IsNaN(a) {
			return math.NaN()
		}
		if (a < 0) != (b < 0) && a != 0 {
			return b
		}
		return a
	}
	m := math.Mod(a, b)
	if m != 0 && (m < 0) != (b < 0) {
		m += b
	}
	return m
}

func compare(a, b Value, op string) (int, error) {
	x, ok1 := a.(Number)
	y, ok2 := b.(Number)
	if !ok1 || !ok2 {
		return 0, undefinedOp(a, op, b)
	}
	l, r, _, err := x.coerce(y, op)
	if err != nil {
		return 0, err
	}
	switch {
	case fuzzyEquals(l, r):
		return 0, nil
	case l < r:
		return -1, nil
	}
	return 1, nil
}

// Lt implements a < b.
func Lt(a, b Value) (Value, error) {
	c, err := compare(a, b, "<")
	return FromBool(c < 0), err
}

// Lte implements a <= b.
func Lte(a, b Value) (Value, error) {
	c, err := compare(a, b, "<=")
	return FromBool(c <= 0), err
}

// Gt implements a > b.
func Gt(a, b Value) (Value, error) {
	c, err := compare(a, b, ">")
	return FromBool(c > 0), err
}

// Gte implements a >= b.
func Gte(a, b Value) (Value, error) {
	c, err := compare(a, b, ">=")
	return FromBool(c >= 0), err
}

// Eq implements a == b.
func Eq(a, b Value) Value {
	return FromBool(Equal(a, b))
}

// Neq implements a != b.
func Neq(a, b Value) Value {
	return FromBool(!Equal(a, b))
}

// And implements short circuit free a and b, operands already evaluated.
func And(a, b Value) Value {
	if !Truthy(a) {
		return a
	}
	return b
}

// Or implements a or b.
func Or(a, b Value) Value {
	if Truthy(a) {
		return a
	}
	return b
}

// Not implements not a.
func Not(a Value) Value {
	return FromBool(!Truthy(a))
}

// UnaryPlus implements +a.
func UnaryPlus(a Value) (Value, error) {
	if n, ok := a.(Number); ok {
		return n.WithoutSlash(), nil
	}
	s, err := cssText(a)
	if err != nil {
		return nil, err
	}
	return Unquoted("+" + s), nil
}

// UnaryMinus implements -a.
func UnaryMinus(a Value) (Value, error) {
	if n, ok := a.(Number); ok {
		return Number{Value: -n.Value, Units: n.Units}, nil
	}
	s, err := cssText(a)
	if err != nil {
		return nil, err
	}
	return Unquoted("-" + s), nil
}

// UnaryDivide implements /a.
func UnaryDivide(a Value) (Value, error) {
	s, err := cssText(a)
	if err != nil {
		return nil, err
	}
	return Unquoted("/" + s), nil
}
