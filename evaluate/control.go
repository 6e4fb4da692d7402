package evaluate

import (
	"sassy/ast"
	"sassy/diag"
	"sassy/value"
)

// Flow control frames are semi-global: at module level assignments inside
// them update existing globals.

func (v *Visitor) ifRule(n *ast.IfRule) (value.Value, error) {
	body, matched := n.Else, n.Else != nil
	for _, c := range n.Clauses {
		cond, err := v.expr(c.Cond)
		if err != nil {
			return nil, err
		}
		if value.Truthy(cond) {
			body, matched = c.Body, true
			break
		}
	}
	if !matched {
		return nil, nil
	}
	var ret value.Value
	err := v.env.Scoped(true, func() (err error) {
		ret, err = v.handleReturn(body)
		return err
	})
	return ret, err
}

func (v *Visitor) eachRule(n *ast.EachRule) (value.Value, error) {
	list, err := v.expr(n.List)
	if err != nil {
		return nil, err
	}
	var ret value.Value
	err = v.env.Scoped(true, func() error {
		for _, item := range value.AsList(list).Items {
			if len(n.Vars) == 1 {
				v.env.SetLocalVar(n.Vars[0], withoutSlash(item))
			} else {
				parts := value.AsList(item).Items
				for i, name := range n.Vars {
					var val value.Value = value.NullValue
					if i < len(parts) {
						val = withoutSlash(parts[i])
					}
					v.env.SetLocalVar(name, val)
				}
			}
			r, err := v.handleReturn(n.Body)
			if err != nil || r != nil {
				ret = r
				return err
			}
		}
		return nil
	})
	return ret, err
}

func (v *Visitor) forRule(n *ast.ForRule) (value.Value, error) {
	fromVal, err := v.expr(n.From)
	if err != nil {
		return nil, err
	}
	fromNum, ok := fromVal.(value.Number)
	if !ok {
		return nil, diag.At(diag.TypeError, n.From.Pos(), "%s is not a number.", value.Inspect(fromVal))
	}
	toVal, err := v.expr(n.To)
	if err != nil {
		return nil, err
	}
	toNum, ok := toVal.(value.Number)
	if !ok {
		return nil, diag.At(diag.TypeError, n.To.Pos(), "%s is not a number.", value.Inspect(toVal))
	}

	from, err := fromNum.AsInt()
	if err != nil {
		return nil, diag.WithSpan(err, n.From.Pos())
	}
	converted, err := toNum.ConvertTo(fromNum.Units)
	if err != nil {
		return nil, diag.WithSpan(err, n.To.Pos())
	}
	to, err := value.Unitless(converted).AsInt()
	if err != nil {
		return nil, diag.WithSpan(err, n.To.Pos())
	}

	dir := 1
	if from > to {
		dir = -1
	}
	if n.Inclusive {
		to += dir
	}
	if from == to {
		return nil, nil
	}

	var ret value.Value
	err = v.env.Scoped(true, func() error {
		for i := from; i != to; i += dir {
			v.env.SetLocalVar(n.Var, value.Number{Value: float64(i), Units: fromNum.Units})
			r, err := v.handleReturn(n.Body)
			if err != nil || r != nil {
				ret = r
				return err
			}
		}
		return nil
	})
	return ret, err
}

func (v *Visitor) whileRule(n *ast.WhileRule) (value.Value, error) {
	var ret value.Value
	err := v.env.Scoped(true, func() error {
		for {
			cond, err := v.expr(n.Cond)
			if err != nil {
				return err
			}
			if !value.Truthy(cond) {
				return nil
			}
			r, err := v.handleReturn(n.Body)
			if err != nil || r != nil {
				ret = r
				return err
			}
		}
	})
	return ret, err
}
