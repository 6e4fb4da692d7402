package evaluate

import (
	"math"
	"regexp"
	"strings"

	"sassy/diag"
	"sassy/value"
)

var specialPrefixes = []string{"calc(", "var(", "env(", "clamp(", "min(", "max("}

func isVar(val value.Value) bool {
	s, ok := val.(value.String)
	return ok && !s.Quoted && strings.HasPrefix(strings.ToLower(s.Text), "var(")
}

// isSpecialNumber reports values which may evaluate to a number in the
// browser, functions receiving them are emitted as plain CSS.
func isSpecialNumber(val value.Value) bool {
	switch t := val.(type) {
	case *value.Calculation:
		return true
	case value.String:
		if t.Quoted {
			return false
		}
		text := strings.ToLower(t.Text)
		for _, p := range specialPrefixes {
			if strings.HasPrefix(text, p) {
				return true
			}
		}
	}
	return false
}

func functionString(name string, args ...value.Value) (value.Value, error) {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		text, err := value.ToCSS(a, false)
		if err != nil {
			return nil, err
		}
		parts = append(parts, text)
	}
	return value.Unquoted(name + "(" + strings.Join(parts, ", ") + ")"), nil
}

// percentageOrUnitless scales % numbers to [0, max], unitless ones are
// taken as is. The result is clamped.
func percentageOrUnitless(n value.Number, max float64, name string) (float64, error) {
	var f float64
	switch {
	case n.IsUnitless():
		f = n.Value
	case n.HasUnit("%"):
		f = max * n.Value / 100
	default:
		return 0, diag.New(diag.UnitError, "$%s: Expected %s to have no units or \"%%\".", name, value.Inspect(n))
	}
	return math.Max(0, math.Min(f, max)), nil
}

func alphaValue(val value.Value) (float64, error) {
	if val == nil {
		return 1, nil
	}
	n, err := argNumber(val, "alpha")
	if err != nil {
		return 0, err
	}
	return percentageOrUnitless(n, 1, "alpha")
}

// angleValue returns hue in degrees, numbers in units not convertible to an
// angle keep their value.
func angleValue(n value.Number) float64 {
	if f, err := n.ConvertTo(value.Unit("deg")); err == nil {
		return f
	}
	return n.Value
}

func rgbImpl(name string, args []value.Value) (value.Value, error) {
	for _, a := range args {
		if isSpecialNumber(a) {
			return functionString(name, args...)
		}
	}
	var ch [3]float64
	for i, pname := range []string{"red", "green", "blue"} {
		n, err := argNumber(args[i], pname)
		if err != nil {
			return nil, err
		}
		if ch[i], err = percentageOrUnitless(n, 255, pname); err != nil {
			return nil, err
		}
	}
	var alpha value.Value
	if len(args) > 3 {
		alpha = args[3]
	}
	a, err := alphaValue(alpha)
	if err != nil {
		return nil, err
	}
	return value.RGBA(ch[0], ch[1], ch[2], a), nil
}

func rgbTwoArg(name string, args []value.Value) (value.Value, error) {
	first, second := args[0], args[1]
	if isVar(first) {
		return functionString(name, args...)
	}
	if c, ok := first.(value.Color); ok && isSpecialNumber(second) {
		return functionString(name, value.Unitless(float64(c.Red())), value.Unitless(float64(c.Green())),
			value.Unitless(float64(c.Blue())), second)
	}
	if isVar(second) {
		return functionString(name, args...)
	}
	c, err := argColor(first, "color")
	if err != nil {
		return nil, err
	}
	a, err := alphaValue(second)
	if err != nil {
		return nil, err
	}
	return c.WithAlpha(a), nil
}

func hslImpl(name string, args []value.Value) (value.Value, error) {
	for _, a := range args {
		if isSpecialNumber(a) {
			return functionString(name, args...)
		}
	}
	var ns [3]value.Number
	for i, pname := range []string{"hue", "saturation", "lightness"} {
		n, err := argNumber(args[i], pname)
		if err != nil {
			return nil, err
		}
		ns[i] = n
	}
	var alpha value.Value
	if len(args) > 3 {
		alpha = args[3]
	}
	a, err := alphaValue(alpha)
	if err != nil {
		return nil, err
	}
	return value.HSLA(angleValue(ns[0]), ns[1].Value, ns[2].Value, a), nil
}

func hwbImpl(args []value.Value) (value.Value, error) {
	var ns [3]value.Number
	for i, pname := range []string{"hue", "whiteness", "blackness"} {
		n, err := argNumber(args[i], pname)
		if err != nil {
			return nil, err
		}
		ns[i] = n
	}
	w, err := percentValue(ns[1], "whiteness")
	if err != nil {
		return nil, err
	}
	b, err := percentValue(ns[2], "blackness")
	if err != nil {
		return nil, err
	}
	var alpha value.Value
	if len(args) > 3 {
		alpha = args[3]
	}
	a, err := alphaValue(alpha)
	if err != nil {
		return nil, err
	}
	return value.HWBA(angleValue(ns[0]), w, b, a), nil
}

// channels splits single space separated argument of rgb(), hsl() and hwb()
// into components, an alpha may follow after slash. Non-nil plain is
// returned when the argument can't be checked before the browser sees it.
func channels(name string, names []string, arg value.Value) (list []value.Value, plain value.Value, err error) {
	if isVar(arg) {
		plain, err = functionString(name, arg)
		return nil, plain, err
	}

	var alpha value.Value
	l := value.AsList(arg)
	if l.Sep == value.SepSlash {
		if len(l.Items) != 2 {
			was := "were"
			if len(l.Items) == 1 {
				was = "was"
			}
			return nil, nil, diag.New(diag.TypeError, "Only 2 slash-separated elements allowed, but %d %s passed.", len(l.Items), was)
		}
		arg, alpha = l.Items[0], l.Items[1]
		l = value.AsList(arg)
	}

	if l.Sep == value.SepComma || l.Brackets {
		var b strings.Builder
		b.WriteString("$channels must be")
		if l.Brackets {
			b.WriteString(" an unbracketed")
		}
		if l.Sep == value.SepComma {
			if l.Brackets {
				b.WriteString(",")
			} else {
				b.WriteString(" a")
			}
			b.WriteString(" space-separated")
		}
		b.WriteString(" list.")
		return nil, nil, diag.New(diag.TypeError, "%s", b.String())
	}

	items := l.Items
	switch {
	case len(items) > 3:
		return nil, nil, diag.New(diag.TypeError, "Only 3 elements allowed, but %d were passed.", len(items))
	case len(items) < 3:
		for _, it := range items {
			if isVar(it) {
				plain, err = functionString(name, arg)
				return nil, plain, err
			}
		}
		if len(items) > 0 && isVarSlash(items[len(items)-1]) {
			plain, err = functionString(name, arg)
			return nil, plain, err
		}
		return nil, nil, diag.New(diag.TypeError, "Missing element %s.", names[len(items)])
	}

	if alpha != nil {
		return append(items[:3:3], alpha), nil, nil
	}
	switch t := items[2].(type) {
	case value.Number:
		if num, den, ok := t.Slash(); ok {
			return []value.Value{items[0], items[1], num, den}, nil, nil
		}
	case value.String:
		if !t.Quoted && strings.Contains(t.Text, "/") {
			plain, err = functionString(name, arg)
			return nil, plain, err
		}
	}
	return items, nil, nil
}

func isVarSlash(val value.Value) bool {
	s, ok := val.(value.String)
	return ok && !s.Quoted && strings.Contains(s.Text, "/") && strings.Contains(strings.ToLower(s.Text), "var(")
}

func channelsFn(name string, names []string, impl func(string, []value.Value) (value.Value, error)) builtinFn {
	return func(_ *Visitor, args []value.Value) (value.Value, error) {
		list, plain, err := channels(name, names, args[0])
		if err != nil || plain != nil {
			return plain, err
		}
		return impl(name, list)
	}
}

func rgbFunc(name string) *builtinFunc {
	impl := func(_ *Visitor, args []value.Value) (value.Value, error) { return rgbImpl(name, args) }
	return newBuiltin(name, "$red, $green, $blue, $alpha", impl).
		or("$red, $green, $blue", impl).
		or("$color, $alpha", func(_ *Visitor, args []value.Value) (value.Value, error) { return rgbTwoArg(name, args) }).
		or("$channels", channelsFn(name, []string{"$red", "$green", "$blue"}, rgbImpl))
}

func hslFunc(name string) *builtinFunc {
	impl := func(_ *Visitor, args []value.Value) (value.Value, error) { return hslImpl(name, args) }
	return newBuiltin(name, "$hue, $saturation, $lightness, $alpha", impl).
		or("$hue, $saturation, $lightness", impl).
		or("$hue, $saturation, $luminance, $alpha: 1", impl).
		or("$hue, $saturation", func(_ *Visitor, args []value.Value) (value.Value, error) {
			if isVar(args[0]) || isVar(args[1]) {
				return functionString(name, args...)
			}
			return nil, diag.New(diag.TypeError, "Missing argument $lightness.")
		}).
		or("$channels", channelsFn(name, []string{"$hue", "$saturation", "$lightness"}, hslImpl))
}

func colorArg(fn func(c value.Color) (value.Value, error)) builtinFn {
	return func(_ *Visitor, args []value.Value) (value.Value, error) {
		c, err := argColor(args[0], "color")
		if err != nil {
			return nil, err
		}
		return fn(c)
	}
}

func channelFn(get func(c value.Color) value.Value) builtinFn {
	return colorArg(func(c value.Color) (value.Value, error) { return get(c), nil })
}

// colorAmount reads color and amount in range [0, max].
func colorAmount(args []value.Value, max float64) (value.Color, float64, error) {
	c, err := argColor(args[0], "color")
	if err != nil {
		return c, 0, err
	}
	n, err := argNumber(args[1], "amount")
	if err != nil {
		return c, 0, err
	}
	amount, err := n.ValueInRange(0, max, "$amount")
	return c, amount, err
}

func withHSL(c value.Color, fn func(h, s, l float64) (float64, float64, float64)) value.Color {
	h, s, l := fn(c.HSL())
	return value.HSLA(h, s, l, c.Alpha())
}

func clamp(f, lo, hi float64) float64 {
	return math.Max(lo, math.Min(f, hi))
}

func lightnessFn(sign float64) builtinFn {
	return func(_ *Visitor, args []value.Value) (value.Value, error) {
		c, amount, err := colorAmount(args, 100)
		if err != nil {
			return nil, err
		}
		return withHSL(c, func(h, s, l float64) (float64, float64, float64) {
			return h, s, clamp(l+sign*amount, 0, 100)
		}), nil
	}
}

func saturationFn(sign float64) builtinFn {
	return func(_ *Visitor, args []value.Value) (value.Value, error) {
		c, amount, err := colorAmount(args, 100)
		if err != nil {
			return nil, err
		}
		return withHSL(c, func(h, s, l float64) (float64, float64, float64) {
			return h, clamp(s+sign*amount, 0, 100), l
		}), nil
	}
}

func opacityFn(sign float64) builtinFn {
	return func(_ *Visitor, args []value.Value) (value.Value, error) {
		c, amount, err := colorAmount(args, 1)
		if err != nil {
			return nil, err
		}
		return c.WithAlpha(clamp(c.Alpha()+sign*amount, 0, 1)), nil
	}
}

func mixColors(c1, c2 value.Color, weight value.Number) (value.Color, error) {
	w, err := percentValue(weight, "weight")
	if err != nil {
		return value.Color{}, err
	}
	scale := w / 100
	normalized := scale*2 - 1
	alphaDistance := c1.Alpha() - c2.Alpha()

	combined := normalized
	if normalized*alphaDistance != -1 {
		combined = (normalized + alphaDistance) / (1 + normalized*alphaDistance)
	}
	w1 := (combined + 1) / 2
	w2 := 1 - w1
	mixCh := func(a, b uint8) float64 { return float64(a)*w1 + float64(b)*w2 }
	return value.RGBA(
		mixCh(c1.Red(), c2.Red()),
		mixCh(c1.Green(), c2.Green()),
		mixCh(c1.Blue(), c2.Blue()),
		c1.Alpha()*scale+c2.Alpha()*(1-scale)), nil
}

func mixFn(_ *Visitor, args []value.Value) (value.Value, error) {
	c1, err := argColor(args[0], "color1")
	if err != nil {
		return nil, err
	}
	c2, err := argColor(args[1], "color2")
	if err != nil {
		return nil, err
	}
	w, err := argNumber(args[2], "weight")
	if err != nil {
		return nil, err
	}
	return mixColors(c1, c2, w)
}

func invertFn(_ *Visitor, args []value.Value) (value.Value, error) {
	w, err := argNumber(args[1], "weight")
	if err != nil {
		return nil, err
	}
	if _, ok := args[0].(value.Number); ok {
		if w.Value != 100 || !w.HasUnit("%") {
			return nil, diag.New(diag.TypeError, "Only one argument may be passed to the plain-CSS invert() function.")
		}
		return functionString("invert", args[0])
	}
	c, err := argColor(args[0], "color")
	if err != nil {
		return nil, err
	}
	inverse := value.RGBA(255-float64(c.Red()), 255-float64(c.Green()), 255-float64(c.Blue()), c.Alpha())
	return mixColors(inverse, c, w)
}

func grayscaleFn(_ *Visitor, args []value.Value) (value.Value, error) {
	if _, ok := args[0].(value.Number); ok {
		return functionString("grayscale", args[0])
	}
	c, err := argColor(args[0], "color")
	if err != nil {
		return nil, err
	}
	return withHSL(c, func(h, _, l float64) (float64, float64, float64) { return h, 0, l }), nil
}

var msFilter = regexp.MustCompile(`^[a-zA-Z]+\s*=`)

func isMSFilter(val value.Value) bool {
	s, ok := val.(value.String)
	return ok && !s.Quoted && msFilter.MatchString(s.Text)
}

func alphaFunc() *builtinFunc {
	return newBuiltin("alpha", "$color", func(_ *Visitor, args []value.Value) (value.Value, error) {
		if isMSFilter(args[0]) {
			return functionString("alpha", args[0])
		}
		c, err := argColor(args[0], "color")
		if err != nil {
			return nil, err
		}
		return value.Unitless(c.Alpha()), nil
	}).or("$args...", func(_ *Visitor, args []value.Value) (value.Value, error) {
		list := args[0].(*value.ArgList)
		all := len(list.Items) > 0
		for _, it := range list.Items {
			all = all && isMSFilter(it)
		}
		if all {
			return functionString("alpha", list.Items...)
		}
		if len(list.Items) == 0 {
			return nil, diag.New(diag.TypeError, "Missing argument $color.")
		}
		return nil, diag.New(diag.TypeError, "Only 1 argument allowed, but %d were passed.", len(list.Items))
	})
}

func opacityFunc(_ *Visitor, args []value.Value) (value.Value, error) {
	if _, ok := args[0].(value.Number); ok {
		return functionString("opacity", args[0])
	}
	c, err := argColor(args[0], "color")
	if err != nil {
		return nil, err
	}
	return value.Unitless(c.Alpha()), nil
}

type colorUpdate int

const (
	updateAdjust colorUpdate = iota
	updateScale
	updateChange
)

// updateComponents implements adjust, scale and change functions; every
// component is passed by name.
func updateComponents(mode colorUpdate) builtinFn {
	return func(_ *Visitor, args []value.Value) (value.Value, error) {
		c, err := argColor(args[0], "color")
		if err != nil {
			return nil, err
		}
		rest := args[1].(*value.ArgList)
		if len(rest.Items) > 0 {
			return nil, diag.New(diag.TypeError, "Only one positional argument is allowed. All other arguments must be passed by name.")
		}
		rest.KeywordsAccessed = true

		keywords := make(map[string]value.Value, len(rest.Keywords))
		var order []string
		for _, kw := range rest.Keywords {
			keywords[kw.Name] = kw.Value
			order = append(order, kw.Name)
		}
		param := func(name string) (*value.Number, error) {
			val, ok := keywords[name]
			if !ok {
				return nil, nil
			}
			delete(keywords, name)
			n, err := argNumber(val, name)
			if err != nil {
				return nil, err
			}
			return &n, nil
		}

		var p [9]*value.Number
		names := []string{"red", "green", "blue", "hue", "saturation", "lightness", "whiteness", "blackness", "alpha"}
		for i, name := range names {
			if mode == updateScale && name == "hue" {
				continue
			}
			if p[i], err = param(name); err != nil {
				return nil, err
			}
		}
		if len(keywords) > 0 {
			var unknown []string
			for _, name := range order {
				if _, ok := keywords[name]; ok {
					unknown = append(unknown, name)
				}
			}
			return nil, unknownNamed(unknown)
		}
		red, green, blue, hue, sat, light, white, black, alpha := p[0], p[1], p[2], p[3], p[4], p[5], p[6], p[7], p[8]

		hasRGB := red != nil || green != nil || blue != nil
		hasSL := sat != nil || light != nil
		hasWB := white != nil || black != nil
		if hasRGB && (hasSL || hasWB || hue != nil) {
			kind := "HSL"
			if hasWB {
				kind = "HWB"
			}
			return nil, diag.New(diag.TypeError, "RGB parameters may not be passed along with %s parameters.", kind)
		}
		if hasSL && hasWB {
			return nil, diag.New(diag.TypeError, "HSL parameters may not be passed along with HWB parameters.")
		}

		update := func(n *value.Number, current, max float64, name string) (float64, error) {
			if n == nil {
				return current, nil
			}
			switch mode {
			case updateChange:
				return n.ValueInRange(0, max, "$"+name)
			case updateAdjust:
				d, err := n.ValueInRange(-max, max, "$"+name)
				if err != nil {
					return 0, err
				}
				return clamp(current+d, 0, max), nil
			}
			if err := expectUnit(*n, "%", name); err != nil {
				return 0, err
			}
			f, err := n.ValueInRange(-100, 100, "$"+name)
			if err != nil {
				return 0, err
			}
			f /= 100
			if f > 0 {
				return current + (max-current)*f, nil
			}
			return current + current*f, nil
		}
		newHue := func(current float64) float64 {
			switch {
			case hue == nil:
				return current
			case mode == updateChange:
				return angleValue(*hue)
			}
			return current + angleValue(*hue)
		}

		a, err := update(alpha, c.Alpha(), 1, "alpha")
		if err != nil {
			return nil, err
		}
		switch {
		case hasRGB:
			r, err := update(red, float64(c.Red()), 255, "red")
			if err != nil {
				return nil, err
			}
			g, err := update(green, float64(c.Green()), 255, "green")
			if err != nil {
				return nil, err
			}
			b, err := update(blue, float64(c.Blue()), 255, "blue")
			if err != nil {
				return nil, err
			}
			return value.RGBA(r, g, b, a), nil
		case hasWB:
			h, w, b := c.HWB()
			if w, err = update(white, w, 100, "whiteness"); err != nil {
				return nil, err
			}
			if b, err = update(black, b, 100, "blackness"); err != nil {
				return nil, err
			}
			return value.HWBA(newHue(h), w, b, a), nil
		case hue != nil || hasSL:
			h, s, l := c.HSL()
			if s, err = update(sat, s, 100, "saturation"); err != nil {
				return nil, err
			}
			if l, err = update(light, l, 100, "lightness"); err != nil {
				return nil, err
			}
			return value.HSLA(newHue(h), s, l, a), nil
		case alpha != nil:
			return c.WithAlpha(a), nil
		}
		return c, nil
	}
}

func init() {
	defineGlobal(
		rgbFunc("rgb"), rgbFunc("rgba"), hslFunc("hsl"), hslFunc("hsla"),
		newBuiltin("red", "$color", channelFn(func(c value.Color) value.Value { return value.Unitless(float64(c.Red())) })),
		newBuiltin("green", "$color", channelFn(func(c value.Color) value.Value { return value.Unitless(float64(c.Green())) })),
		newBuiltin("blue", "$color", channelFn(func(c value.Color) value.Value { return value.Unitless(float64(c.Blue())) })),
		newBuiltin("hue", "$color", channelFn(func(c value.Color) value.Value {
			h, _, _ := c.HSL()
			return value.NewNumber(h, "deg")
		})),
		newBuiltin("saturation", "$color", channelFn(func(c value.Color) value.Value {
			_, s, _ := c.HSL()
			return value.NewNumber(s, "%")
		})),
		newBuiltin("lightness", "$color", channelFn(func(c value.Color) value.Value {
			_, _, l := c.HSL()
			return value.NewNumber(l, "%")
		})),
		newBuiltin("whiteness", "$color", channelFn(func(c value.Color) value.Value {
			_, w, _ := c.HWB()
			return value.NewNumber(w, "%")
		})),
		newBuiltin("blackness", "$color", channelFn(func(c value.Color) value.Value {
			_, _, b := c.HWB()
			return value.NewNumber(b, "%")
		})),
		alphaFunc(),
		newBuiltin("opacity", "$color", opacityFunc),
		newBuiltin("mix", "$color1, $color2, $weight: 50%", mixFn),
		newBuiltin("invert", "$color, $weight: 100%", invertFn),
		newBuiltin("grayscale", "$color", grayscaleFn),
		newBuiltin("complement", "$color", colorArg(func(c value.Color) (value.Value, error) {
			return withHSL(c, func(h, s, l float64) (float64, float64, float64) { return h + 180, s, l }), nil
		})),
		newBuiltin("adjust-hue", "$color, $degrees", func(_ *Visitor, args []value.Value) (value.Value, error) {
			c, err := argColor(args[0], "color")
			if err != nil {
				return nil, err
			}
			d, err := argNumber(args[1], "degrees")
			if err != nil {
				return nil, err
			}
			return withHSL(c, func(h, s, l float64) (float64, float64, float64) { return h + d.Value, s, l }), nil
		}),
		newBuiltin("lighten", "$color, $amount", lightnessFn(1)),
		newBuiltin("darken", "$color, $amount", lightnessFn(-1)),
		newBuiltin("saturate", "$amount", func(_ *Visitor, args []value.Value) (value.Value, error) {
			n, err := argNumber(args[0], "amount")
			if err != nil {
				return nil, err
			}
			return functionString("saturate", n)
		}).or("$color, $amount", saturationFn(1)),
		newBuiltin("desaturate", "$color, $amount", saturationFn(-1)),
		newBuiltin("opacify", "$color, $amount", opacityFn(1)),
		newBuiltin("fade-in", "$color, $amount", opacityFn(1)),
		newBuiltin("transparentize", "$color, $amount", opacityFn(-1)),
		newBuiltin("fade-out", "$color, $amount", opacityFn(-1)),
		newBuiltin("adjust-color", "$color, $kwargs...", updateComponents(updateAdjust)),
		newBuiltin("scale-color", "$color, $kwargs...", updateComponents(updateScale)),
		newBuiltin("change-color", "$color, $kwargs...", updateComponents(updateChange)),
		newBuiltin("ie-hex-str", "$color", colorArg(func(c value.Color) (value.Value, error) {
			return value.Unquoted(c.IEHex()), nil
		})),
	)

	hwb := func(_ *Visitor, args []value.Value) (value.Value, error) { return hwbImpl(args) }
	m := defineModule("color")
	exposeGlobals(m, "red", "green", "blue", "hue", "saturation", "lightness", "whiteness", "blackness",
		"alpha", "opacity", "mix", "invert", "grayscale", "complement", "ie-hex-str",
		"adjust-color=adjust", "scale-color=scale", "change-color=change")
	m.DefineFunc(newBuiltin("hwb", "$hue, $whiteness, $blackness, $alpha: 1", hwb).
		or("$channels", channelsFn("hwb", []string{"$hue", "$whiteness", "$blackness"},
			func(_ string, args []value.Value) (value.Value, error) { return hwbImpl(args) })))
}
