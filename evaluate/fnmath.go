package evaluate

import (
	"math"
	"math/rand/v2"

	"sassy/diag"
	"sassy/value"
)

func numberFn(name string, fn func(n value.Number) (value.Value, error)) builtinFn {
	return func(_ *Visitor, args []value.Value) (value.Value, error) {
		n, err := argNumber(args[0], name)
		if err != nil {
			return nil, err
		}
		return fn(n)
	}
}

// roundingFn keeps units of the argument.
func roundingFn(f func(float64) float64) builtinFn {
	return numberFn("number", func(n value.Number) (value.Value, error) {
		return value.Number{Value: f(n.Value), Units: n.Units}, nil
	})
}

func unitlessFn(f func(float64) float64, unit string) builtinFn {
	return numberFn("number", func(n value.Number) (value.Value, error) {
		if err := expectUnitless(n, "number"); err != nil {
			return nil, err
		}
		return value.NewNumber(f(n.Value), unit), nil
	})
}

func trigFn(f func(float64) float64) builtinFn {
	return numberFn("number", func(n value.Number) (value.Value, error) {
		rad, err := n.ConvertTo(value.Unit("rad"))
		if err != nil || !(n.IsUnitless() || n.Units.IsSingle()) {
			return nil, diag.New(diag.UnitError, "$number: Expected %s to be an angle.", value.Inspect(n))
		}
		return value.Unitless(f(rad)), nil
	})
}

// extremum implements global min() and max() called with values the parser
// could not keep as calculation.
func extremum(better func(a, b value.Value) (value.Value, error)) builtinFn {
	return func(_ *Visitor, args []value.Value) (value.Value, error) {
		var best *value.Number
		for _, it := range args[0].(*value.ArgList).Items {
			n, ok := it.(value.Number)
			if !ok {
				return nil, diag.New(diag.TypeError, "%s is not a number.", value.Inspect(it))
			}
			if best == nil {
				best = &n
				continue
			}
			b, err := better(n, *best)
			if err != nil {
				return nil, err
			}
			if value.Truthy(b) {
				best = &n
			}
		}
		if best == nil {
			return nil, diag.New(diag.TypeError, "At least one argument must be passed.")
		}
		return *best, nil
	}
}

func percentageFn(_ *Visitor, args []value.Value) (value.Value, error) {
	n, err := argNumber(args[0], "number")
	if err != nil {
		return nil, err
	}
	if err := expectUnitless(n, "number"); err != nil {
		return nil, err
	}
	return value.NewNumber(n.Value*100, "%"), nil
}

func randomFn(_ *Visitor, args []value.Value) (value.Value, error) {
	if value.IsNull(args[0]) {
		return value.Unitless(rand.Float64()), nil
	}
	n, err := argNumber(args[0], "limit")
	if err != nil {
		return nil, err
	}
	limit, err := argInt(n, "limit")
	if err != nil {
		return nil, err
	}
	if limit < 1 {
		return nil, diag.New(diag.TypeError, "$limit: Must be greater than 0, was %s.", value.Inspect(n))
	}
	return value.Unitless(float64(rand.IntN(limit) + 1)), nil
}

func unitFn(_ *Visitor, args []value.Value) (value.Value, error) {
	n, err := argNumber(args[0], "number")
	if err != nil {
		return nil, err
	}
	return value.Quoted(n.UnitString()), nil
}

func isUnitlessFn(_ *Visitor, args []value.Value) (value.Value, error) {
	n, err := argNumber(args[0], "number")
	if err != nil {
		return nil, err
	}
	return value.FromBool(n.IsUnitless()), nil
}

func comparableFn(_ *Visitor, args []value.Value) (value.Value, error) {
	a, err := argNumber(args[0], "number1")
	if err != nil {
		return nil, err
	}
	b, err := argNumber(args[1], "number2")
	if err != nil {
		return nil, err
	}
	return value.FromBool(a.Units.Compatible(b.Units)), nil
}

func powFn(_ *Visitor, args []value.Value) (value.Value, error) {
	base, err := argNumber(args[0], "base")
	if err != nil {
		return nil, err
	}
	exp, err := argNumber(args[1], "exponent")
	if err != nil {
		return nil, err
	}
	if err := expectUnitless(base, "base"); err != nil {
		return nil, err
	}
	if err := expectUnitless(exp, "exponent"); err != nil {
		return nil, err
	}
	return value.Unitless(math.Pow(base.Value, exp.Value)), nil
}

func logFn(_ *Visitor, args []value.Value) (value.Value, error) {
	n, err := argNumber(args[0], "number")
	if err != nil {
		return nil, err
	}
	if err := expectUnitless(n, "number"); err != nil {
		return nil, err
	}
	if value.IsNull(args[1]) {
		return value.Unitless(math.Log(n.Value)), nil
	}
	base, err := argNumber(args[1], "base")
	if err != nil {
		return nil, err
	}
	if err := expectUnitless(base, "base"); err != nil {
		return nil, err
	}
	return value.Unitless(math.Log(n.Value) / math.Log(base.Value)), nil
}

func atan2Fn(_ *Visitor, args []value.Value) (value.Value, error) {
	y, err := argNumber(args[0], "y")
	if err != nil {
		return nil, err
	}
	x, err := argNumber(args[1], "x")
	if err != nil {
		return nil, err
	}
	if y.IsUnitless() != x.IsUnitless() {
		return nil, diag.New(diag.UnitError, "$x: %s and %s must either both have units or both be unitless.",
			value.Inspect(y), value.Inspect(x))
	}
	xv, err := x.ConvertTo(y.Units)
	if err != nil {
		return nil, diag.New(diag.UnitError, "$x: %s and %s have incompatible units.", value.Inspect(y), value.Inspect(x))
	}
	return value.NewNumber(math.Atan2(y.Value, xv)*180/math.Pi, "deg"), nil
}

func hypotFn(_ *Visitor, args []value.Value) (value.Value, error) {
	items := args[0].(*value.ArgList).Items
	if len(items) == 0 {
		return nil, diag.New(diag.TypeError, "At least one argument must be passed.")
	}
	var first value.Number
	sum := 0.0
	for i, it := range items {
		n, ok := it.(value.Number)
		if !ok {
			return nil, diag.New(diag.TypeError, "Argument %d is not a number.", i+1)
		}
		if i == 0 {
			first = n
		} else if n.IsUnitless() != first.IsUnitless() {
			return nil, diag.New(diag.UnitError, "Argument 1 %s and argument %d %s must either both have units or both be unitless.",
				value.Inspect(first), i+1, value.Inspect(n))
		}
		f, err := n.ConvertTo(first.Units)
		if err != nil {
			return nil, diag.New(diag.UnitError, "Argument 1 and argument %d have incompatible units.", i+1)
		}
		sum += f * f
	}
	return value.Number{Value: math.Sqrt(sum), Units: first.Units}, nil
}

func clampFn(_ *Visitor, args []value.Value) (value.Value, error) {
	var ns [3]value.Number
	for i, name := range []string{"min", "number", "max"} {
		n, err := argNumber(args[i], name)
		if err != nil {
			return nil, err
		}
		ns[i] = n
	}
	lo, n, hi := ns[0], ns[1], ns[2]
	if lo.IsUnitless() != n.IsUnitless() || lo.IsUnitless() != hi.IsUnitless() {
		return nil, diag.New(diag.UnitError, "$min: %s and %s must either both have units or both be unitless.",
			value.Inspect(lo), value.Inspect(n))
	}
	if gt, err := value.Gt(lo, n); err != nil {
		return nil, err
	} else if value.Truthy(gt) {
		return lo, nil
	}
	if gt, err := value.Gt(n, hi); err != nil {
		return nil, err
	} else if value.Truthy(gt) {
		return hi, nil
	}
	return n, nil
}

func divFn(_ *Visitor, args []value.Value) (value.Value, error) {
	return value.Div(args[0], args[1])
}

func init() {
	defineGlobal(
		newBuiltin("percentage", "$number", percentageFn),
		newBuiltin("round", "$number", roundingFn(value.FuzzyRound)),
		newBuiltin("ceil", "$number", roundingFn(math.Ceil)),
		newBuiltin("floor", "$number", roundingFn(math.Floor)),
		newBuiltin("abs", "$number", roundingFn(math.Abs)),
		newBuiltin("min", "$numbers...", extremum(value.Lt)),
		newBuiltin("max", "$numbers...", extremum(value.Gt)),
		newBuiltin("random", "$limit: null", randomFn),
		newBuiltin("unit", "$number", unitFn),
		newBuiltin("unitless", "$number", isUnitlessFn),
		newBuiltin("comparable", "$number1, $number2", comparableFn),
	)

	m := defineModule("math")
	exposeGlobals(m, "percentage", "round", "ceil", "floor", "abs", "min", "max", "random", "unit",
		"unitless=is-unitless", "comparable=compatible")
	m.DefineFunc(newBuiltin("div", "$number1, $number2", divFn)).
		DefineFunc(newBuiltin("pow", "$base, $exponent", powFn)).
		DefineFunc(newBuiltin("sqrt", "$number", unitlessFn(math.Sqrt, ""))).
		DefineFunc(newBuiltin("log", "$number, $base: null", logFn)).
		DefineFunc(newBuiltin("sin", "$number", trigFn(math.Sin))).
		DefineFunc(newBuiltin("cos", "$number", trigFn(math.Cos))).
		DefineFunc(newBuiltin("tan", "$number", trigFn(math.Tan))).
		DefineFunc(newBuiltin("asin", "$number", unitlessFn(func(f float64) float64 { return math.Asin(f) * 180 / math.Pi }, "deg"))).
		DefineFunc(newBuiltin("acos", "$number", unitlessFn(func(f float64) float64 { return math.Acos(f) * 180 / math.Pi }, "deg"))).
		DefineFunc(newBuiltin("atan", "$number", unitlessFn(func(f float64) float64 { return math.Atan(f) * 180 / math.Pi }, "deg"))).
		DefineFunc(newBuiltin("atan2", "$y, $x", atan2Fn)).
		DefineFunc(newBuiltin("hypot", "$numbers...", hypotFn)).
		DefineFunc(newBuiltin("clamp", "$min, $number, $max", clampFn))

	m.DefineVar("e", value.Unitless(math.E)).
		DefineVar("pi", value.Unitless(math.Pi)).
		DefineVar("epsilon", value.Unitless(math.Nextafter(1, 2)-1)).
		DefineVar("max-safe-integer", value.Unitless(1<<53-1)).
		DefineVar("min-safe-integer", value.Unitless(-(1<<53 - 1))).
		DefineVar("max-number", value.Unitless(math.MaxFloat64)).
		DefineVar("min-number", value.Unitless(math.SmallestNonzeroFloat64))
}
