package evaluate

import (
	"strings"

	"sassy/diag"
	"sassy/selector"
	"sassy/value"
)

// selectorText accepts strings, space separated lists of strings and comma
// lists of either.
func selectorText(val value.Value, name string) (string, error) {
	if text, ok := selectorTextOf(val, true); ok {
		return text, nil
	}
	return "", diag.New(diag.TypeError,
		"$%s: %s is not a valid selector: it must be a string,\na list of strings, or a list of lists of strings.",
		name, value.Inspect(val))
}

func selectorTextOf(val value.Value, allowComma bool) (string, bool) {
	switch t := val.(type) {
	case value.String:
		return t.Text, true
	case value.List, *value.ArgList:
		l := value.AsList(t)
		if len(l.Items) == 0 {
			return "", false
		}
		var parts []string
		switch l.Sep {
		case value.SepComma:
			if !allowComma {
				return "", false
			}
			for _, it := range l.Items {
				s, ok := selectorTextOf(it, false)
				if !ok {
					return "", false
				}
				parts = append(parts, s)
			}
			return strings.Join(parts, ", "), true
		case value.SepSlash:
			return "", false
		}
		for _, it := range l.Items {
			s, ok := it.(value.String)
			if !ok {
				return "", false
			}
			parts = append(parts, s.Text)
		}
		return strings.Join(parts, " "), true
	}
	return "", false
}

func selectorArg(val value.Value, name string, allowParent bool) (*selector.List, error) {
	text, err := selectorText(val, name)
	if err != nil {
		return nil, err
	}
	l, err := selector.Parse(text, allowParent, true)
	if err != nil {
		return nil, diag.New(diag.ParseError, "$%s: %v", name, err)
	}
	return l, nil
}

func selectorsArgs(args []value.Value) ([]value.Value, error) {
	items := restItems(args[0])
	if len(items) == 0 {
		return nil, diag.New(diag.TypeError, "$selectors: At least one selector must be passed.")
	}
	return items, nil
}

func selectorNestFn(_ *Visitor, args []value.Value) (value.Value, error) {
	items, err := selectorsArgs(args)
	if err != nil {
		return nil, err
	}
	cur, err := selectorArg(items[0], "selectors", false)
	if err != nil {
		return nil, err
	}
	for _, it := range items[1:] {
		next, err := selectorArg(it, "selectors", true)
		if err != nil {
			return nil, err
		}
		if cur, err = next.Resolve(cur, true); err != nil {
			return nil, err
		}
	}
	return selectorValue(cur), nil
}

func selectorAppendFn(_ *Visitor, args []value.Value) (value.Value, error) {
	items, err := selectorsArgs(args)
	if err != nil {
		return nil, err
	}
	cur, err := selectorArg(items[0], "selectors", false)
	if err != nil {
		return nil, err
	}
	for _, it := range items[1:] {
		next, err := selectorArg(it, "selectors", false)
		if err != nil {
			return nil, err
		}
		if cur, err = selector.Append(cur, next); err != nil {
			return nil, err
		}
	}
	return selectorValue(cur), nil
}

// extenderFor registers extender for every simple selector of the
// compound targets.
func extenderFor(extendee, extender *selector.List) (*selector.Extender, error) {
	x := selector.NewExtender()
	for _, c := range extendee.Complex {
		if len(c.Components) != 1 {
			return nil, diag.New(diag.TypeError, "Can't extend complex selector %s.", c.String())
		}
		compound, ok := c.Components[0].(*selector.Compound)
		if !ok {
			return nil, diag.New(diag.TypeError, "Can't extend complex selector %s.", c.String())
		}
		for _, s := range compound.Simple {
			x.Add(extender, s, "", true, nil)
		}
	}
	return x, nil
}

func selectorExtendFn(replace bool) builtinFn {
	return func(_ *Visitor, args []value.Value) (value.Value, error) {
		sel, err := selectorArg(args[0], "selector", false)
		if err != nil {
			return nil, err
		}
		extendee, err := selectorArg(args[1], "extendee", false)
		if err != nil {
			return nil, err
		}
		extender, err := selectorArg(args[2], "extender", false)
		if err != nil {
			return nil, err
		}
		x, err := extenderFor(extendee, extender)
		if err != nil {
			return nil, err
		}
		if replace {
			return selectorValue(x.Replace(sel)), nil
		}
		return selectorValue(x.Extend(sel, "")), nil
	}
}

func selectorUnifyFn(_ *Visitor, args []value.Value) (value.Value, error) {
	a, err := selectorArg(args[0], "selector1", false)
	if err != nil {
		return nil, err
	}
	b, err := selectorArg(args[1], "selector2", false)
	if err != nil {
		return nil, err
	}
	u := selector.Unify(a, b)
	if u == nil {
		return value.NullValue, nil
	}
	return selectorValue(u), nil
}

func isSuperselectorFn(_ *Visitor, args []value.Value) (value.Value, error) {
	a, err := selectorArg(args[0], "super", false)
	if err != nil {
		return nil, err
	}
	b, err := selectorArg(args[1], "sub", false)
	if err != nil {
		return nil, err
	}
	return value.FromBool(selector.IsSuperselector(a, b)), nil
}

func simpleSelectorsFn(_ *Visitor, args []value.Value) (value.Value, error) {
	text, err := selectorText(args[0], "selector")
	if err != nil {
		return nil, err
	}
	c, err := selector.ParseCompound(text)
	if err != nil {
		return nil, diag.New(diag.ParseError, "$selector: %v", err)
	}
	simple := c.SimpleSelectors()
	items := make([]value.Value, 0, len(simple))
	for _, s := range simple {
		items = append(items, value.Unquoted(s))
	}
	return value.List{Items: items, Sep: value.SepComma}, nil
}

func selectorParseFn(_ *Visitor, args []value.Value) (value.Value, error) {
	l, err := selectorArg(args[0], "selector", false)
	if err != nil {
		return nil, err
	}
	return selectorValue(l), nil
}

func init() {
	defineGlobal(
		newBuiltin("selector-nest", "$selectors...", selectorNestFn),
		newBuiltin("selector-append", "$selectors...", selectorAppendFn),
		newBuiltin("selector-extend", "$selector, $extendee, $extender", selectorExtendFn(false)),
		newBuiltin("selector-replace", "$selector, $original, $replacement", selectorExtendFn(true)),
		newBuiltin("selector-unify", "$selector1, $selector2", selectorUnifyFn),
		newBuiltin("is-superselector", "$super, $sub", isSuperselectorFn),
		newBuiltin("simple-selectors", "$selector", simpleSelectorsFn),
		newBuiltin("selector-parse", "$selector", selectorParseFn),
	)

	m := defineModule("selector")
	exposeGlobals(m, "selector-nest=nest", "selector-append=append", "selector-extend=extend",
		"selector-replace=replace", "selector-unify=unify", "is-superselector", "simple-selectors",
		"selector-parse=parse")
}
