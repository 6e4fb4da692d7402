package evaluate

import (
	"strings"

	"github.com/google/uuid"

	"sassy/diag"
	"sassy/value"
)

// codepointForIndex converts 1-based index, negative ones count from the
// end, into 0-based rune offset.
func codepointForIndex(index, length int, allowNegative bool) int {
	switch {
	case index == 0:
		return 0
	case index > 0:
		return min(index-1, length)
	}
	res := length + index
	if res < 0 && !allowNegative {
		return 0
	}
	return res
}

func stringIndexArg(val value.Value, name string) (int, error) {
	n, err := argNumber(val, name)
	if err != nil {
		return 0, err
	}
	if err := expectUnitless(n, name); err != nil {
		return 0, err
	}
	return argInt(n, name)
}

func unquoteFn(_ *Visitor, args []value.Value) (value.Value, error) {
	s, err := argString(args[0], "string")
	if err != nil {
		return nil, err
	}
	return value.Unquoted(s.Text), nil
}

func quoteFn(_ *Visitor, args []value.Value) (value.Value, error) {
	s, err := argString(args[0], "string")
	if err != nil {
		return nil, err
	}
	return value.Quoted(s.Text), nil
}

func strLengthFn(_ *Visitor, args []value.Value) (value.Value, error) {
	s, err := argString(args[0], "string")
	if err != nil {
		return nil, err
	}
	return value.Unitless(float64(len([]rune(s.Text)))), nil
}

func strInsertFn(_ *Visitor, args []value.Value) (value.Value, error) {
	s, err := argString(args[0], "string")
	if err != nil {
		return nil, err
	}
	ins, err := argString(args[1], "insert")
	if err != nil {
		return nil, err
	}
	index, err := stringIndexArg(args[2], "index")
	if err != nil {
		return nil, err
	}
	runes := []rune(s.Text)
	if index < 0 {
		// insert after the index counted from the end
		index = len(runes) + index + 2
	}
	at := codepointForIndex(index, len(runes), false)
	out := string(runes[:at]) + ins.Text + string(runes[at:])
	return value.String{Text: out, Quoted: s.Quoted}, nil
}

func strIndexFn(_ *Visitor, args []value.Value) (value.Value, error) {
	s, err := argString(args[0], "string")
	if err != nil {
		return nil, err
	}
	sub, err := argString(args[1], "substring")
	if err != nil {
		return nil, err
	}
	i := strings.Index(s.Text, sub.Text)
	if i < 0 {
		return value.NullValue, nil
	}
	return value.Unitless(float64(len([]rune(s.Text[:i])) + 1)), nil
}

func strSliceFn(_ *Visitor, args []value.Value) (value.Value, error) {
	s, err := argString(args[0], "string")
	if err != nil {
		return nil, err
	}
	start, err := stringIndexArg(args[1], "start-at")
	if err != nil {
		return nil, err
	}
	end, err := stringIndexArg(args[2], "end-at")
	if err != nil {
		return nil, err
	}
	runes := []rune(s.Text)
	empty := value.String{Quoted: s.Quoted}
	if end == 0 {
		return empty, nil
	}
	from := codepointForIndex(start, len(runes), false)
	to := codepointForIndex(end, len(runes), true)
	if to == len(runes) {
		to--
	}
	if to < from {
		return empty, nil
	}
	return value.String{Text: string(runes[from : to+1]), Quoted: s.Quoted}, nil
}

func caseFn(conv func(rune) rune) builtinFn {
	return func(_ *Visitor, args []value.Value) (value.Value, error) {
		s, err := argString(args[0], "string")
		if err != nil {
			return nil, err
		}
		return value.String{Text: strings.Map(conv, s.Text), Quoted: s.Quoted}, nil
	}
}

func asciiUpper(r rune) rune {
	if r >= 'a' && r <= 'z' {
		return r - 'a' + 'A'
	}
	return r
}

func asciiLower(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r - 'A' + 'a'
	}
	return r
}

func uniqueIDFn(_ *Visitor, _ []value.Value) (value.Value, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, diag.New(diag.TypeError, "unable to generate id: %v", err)
	}
	hex := strings.ReplaceAll(id.String(), "-", "")
	return value.Unquoted("u" + hex[:16]), nil
}

func splitFn(_ *Visitor, args []value.Value) (value.Value, error) {
	s, err := argString(args[0], "string")
	if err != nil {
		return nil, err
	}
	sep, err := argString(args[1], "separator")
	if err != nil {
		return nil, err
	}
	limit := -1
	if !value.IsNull(args[2]) {
		if limit, err = argInt(args[2], "limit"); err != nil {
			return nil, err
		}
		if limit < 1 {
			return nil, diag.New(diag.TypeError, "$limit: Must be 1 or greater, was %d.", limit)
		}
		limit++
	}

	var parts []string
	if sep.Text == "" {
		for i, r := range []rune(s.Text) {
			if limit > 0 && i == limit-1 {
				parts = append(parts, string([]rune(s.Text)[i:]))
				break
			}
			parts = append(parts, string(r))
		}
	} else {
		parts = strings.SplitN(s.Text, sep.Text, limit)
	}
	items := make([]value.Value, 0, len(parts))
	for _, p := range parts {
		items = append(items, value.String{Text: p, Quoted: s.Quoted})
	}
	return value.List{Items: items, Sep: value.SepComma, Brackets: true}, nil
}

func init() {
	defineGlobal(
		newBuiltin("unquote", "$string", unquoteFn),
		newBuiltin("quote", "$string", quoteFn),
		newBuiltin("str-length", "$string", strLengthFn),
		newBuiltin("str-insert", "$string, $insert, $index", strInsertFn),
		newBuiltin("str-index", "$string, $substring", strIndexFn),
		newBuiltin("str-slice", "$string, $start-at, $end-at: -1", strSliceFn),
		newBuiltin("to-upper-case", "$string", caseFn(asciiUpper)),
		newBuiltin("to-lower-case", "$string", caseFn(asciiLower)),
		newBuiltin("unique-id", "", uniqueIDFn),
	)

	m := defineModule("string")
	exposeGlobals(m, "unquote", "quote", "str-length=length", "str-insert=insert", "str-index=index",
		"str-slice=slice", "to-upper-case", "to-lower-case", "unique-id")
	m.DefineFunc(newBuiltin("split", "$string, $separator, $limit: null", splitFn))
}
