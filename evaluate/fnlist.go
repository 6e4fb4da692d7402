package evaluate

import (
	"slices"

	"sassy/diag"
	"sassy/value"
)

// listIndex converts 1-based index, negative ones count from the end.
func listIndex(l value.List, val value.Value, name string) (int, error) {
	n, err := argNumber(val, name)
	if err != nil {
		return 0, err
	}
	i, err := argInt(n, name)
	if err != nil {
		return 0, err
	}
	if i == 0 {
		return 0, diag.New(diag.TypeError, "$%s: List index may not be 0.", name)
	}
	if abs := max(i, -i); abs > len(l.Items) {
		return 0, diag.New(diag.TypeError, "$%s: Invalid index %d for a list with %d elements.", name, i, len(l.Items))
	}
	if i < 0 {
		return len(l.Items) + i, nil
	}
	return i - 1, nil
}

func parseSeparator(val value.Value, name string) (value.Separator, bool, error) {
	s, err := argString(val, name)
	if err != nil {
		return 0, false, err
	}
	switch s.Text {
	case "auto":
		return value.SepUndecided, true, nil
	case "space":
		return value.SepSpace, false, nil
	case "comma":
		return value.SepComma, false, nil
	case "slash":
		return value.SepSlash, false, nil
	}
	return 0, false, diag.New(diag.TypeError, "$%s: Must be \"space\", \"comma\", \"slash\", or \"auto\".", name)
}

func lengthFn(_ *Visitor, args []value.Value) (value.Value, error) {
	return value.Unitless(float64(len(value.AsList(args[0]).Items))), nil
}

func nthFn(_ *Visitor, args []value.Value) (value.Value, error) {
	l := value.AsList(args[0])
	i, err := listIndex(l, args[1], "n")
	if err != nil {
		return nil, err
	}
	return l.Items[i], nil
}

func setNthFn(_ *Visitor, args []value.Value) (value.Value, error) {
	l := value.AsList(args[0])
	i, err := listIndex(l, args[1], "n")
	if err != nil {
		return nil, err
	}
	items := slices.Clone(l.Items)
	items[i] = args[2]
	return value.List{Items: items, Sep: l.Sep, Brackets: l.Brackets}, nil
}

func joinFn(_ *Visitor, args []value.Value) (value.Value, error) {
	l1, l2 := value.AsList(args[0]), value.AsList(args[1])
	sep, auto, err := parseSeparator(args[2], "separator")
	if err != nil {
		return nil, err
	}
	if auto {
		switch {
		case l1.Sep != value.SepUndecided:
			sep = l1.Sep
		case l2.Sep != value.SepUndecided:
			sep = l2.Sep
		default:
			sep = value.SepSpace
		}
	}
	brackets := value.Truthy(args[3])
	if s, ok := args[3].(value.String); ok && s.Text == "auto" {
		brackets = l1.Brackets
	}
	items := append(slices.Clone(l1.Items), l2.Items...)
	return value.List{Items: items, Sep: sep, Brackets: brackets}, nil
}

func appendFn(_ *Visitor, args []value.Value) (value.Value, error) {
	l := value.AsList(args[0])
	sep, auto, err := parseSeparator(args[2], "separator")
	if err != nil {
		return nil, err
	}
	if auto {
		sep = l.Sep
		if sep == value.SepUndecided {
			sep = value.SepSpace
		}
	}
	items := append(slices.Clone(l.Items), args[1])
	return value.List{Items: items, Sep: sep, Brackets: l.Brackets}, nil
}

func zipFn(_ *Visitor, args []value.Value) (value.Value, error) {
	var lists []value.List
	for _, it := range args[0].(*value.ArgList).Items {
		lists = append(lists, value.AsList(it))
	}
	n := 0
	if len(lists) > 0 {
		n = len(lists[0].Items)
		for _, l := range lists[1:] {
			n = min(n, len(l.Items))
		}
	}
	out := make([]value.Value, 0, n)
	for i := range n {
		row := make([]value.Value, 0, len(lists))
		for _, l := range lists {
			row = append(row, l.Items[i])
		}
		out = append(out, value.List{Items: row, Sep: value.SepSpace})
	}
	return value.List{Items: out, Sep: value.SepComma}, nil
}

func indexFn(_ *Visitor, args []value.Value) (value.Value, error) {
	l := value.AsList(args[0])
	for i, it := range l.Items {
		if value.Equal(it, args[1]) {
			return value.Unitless(float64(i + 1)), nil
		}
	}
	return value.NullValue, nil
}

func separatorFn(_ *Visitor, args []value.Value) (value.Value, error) {
	return value.Unquoted(value.AsList(args[0]).Sep.String()), nil
}

func isBracketedFn(_ *Visitor, args []value.Value) (value.Value, error) {
	return value.FromBool(value.AsList(args[0]).Brackets), nil
}

func slashFn(_ *Visitor, args []value.Value) (value.Value, error) {
	items := args[0].(*value.ArgList).Items
	if len(items) == 1 {
		items = value.AsList(items[0]).Items
	}
	if len(items) < 2 {
		return nil, diag.New(diag.TypeError, "At least two elements are required.")
	}
	return value.List{Items: slices.Clone(items), Sep: value.SepSlash}, nil
}

func init() {
	defineGlobal(
		newBuiltin("length", "$list", lengthFn),
		newBuiltin("nth", "$list, $n", nthFn),
		newBuiltin("set-nth", "$list, $n, $value", setNthFn),
		newBuiltin("join", "$list1, $list2, $separator: auto, $bracketed: auto", joinFn),
		newBuiltin("append", "$list, $val, $separator: auto", appendFn),
		newBuiltin("zip", "$lists...", zipFn),
		newBuiltin("index", "$list, $value", indexFn),
		newBuiltin("list-separator", "$list", separatorFn),
		newBuiltin("is-bracketed", "$list", isBracketedFn),
	)

	m := defineModule("list")
	exposeGlobals(m, "length", "nth", "set-nth", "join", "append", "zip", "index", "is-bracketed",
		"list-separator=separator")
	m.DefineFunc(newBuiltin("slash", "$elements...", slashFn))
}
