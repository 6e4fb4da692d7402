package evaluate

import (
	"strings"

	"sassy/ast"
	"sassy/codemap"
	"sassy/diag"
	"sassy/scope"
	"sassy/selector"
	"sassy/value"
)

// interpolate renders interpolation into text, strings contribute their
// contents without quotes.
func (v *Visitor) interpolate(i *ast.Interpolation, trim bool) (string, error) {
	if i == nil {
		return "", nil
	}
	var b strings.Builder
	for _, part := range i.Parts {
		switch p := part.(type) {
		case string:
			b.WriteString(p)
		case ast.Expr:
			val, err := v.expr(p)
			if err != nil {
				return "", err
			}
			if s, ok := val.(value.String); ok {
				b.WriteString(s.Text)
				continue
			}
			text, err := value.ToCSSUnquoted(val, false)
			if err != nil {
				return "", diag.WithSpan(err, p.Pos())
			}
			b.WriteString(text)
		}
	}
	if trim {
		return strings.TrimSpace(b.String()), nil
	}
	return b.String(), nil
}

func (v *Visitor) expr(e ast.Expr) (value.Value, error) {
	switch n := e.(type) {
	case *ast.NumberExpr:
		return value.NewNumber(n.Value, n.Unit), nil
	case *ast.ColorExpr:
		return n.Color, nil
	case *ast.BoolExpr:
		return value.FromBool(n.Value), nil
	case *ast.NullExpr:
		return value.NullValue, nil
	case *ast.ValueExpr:
		return n.Value, nil
	case *ast.StringExpr:
		text, err := v.interpolate(n.Text, false)
		if err != nil {
			return nil, err
		}
		return value.String{Text: text, Quoted: n.Quoted}, nil
	case *ast.VariableExpr:
		var (
			val value.Value
			err error
		)
		if n.Namespace != "" {
			val, err = v.env.NamespaceVar(n.Namespace, n.Name)
		} else {
			val, err = v.env.Var(n.Name)
		}
		if err != nil {
			return nil, diag.WithSpan(err, n.Span)
		}
		return val, nil
	case *ast.ListExpr:
		items := make([]value.Value, 0, len(n.Items))
		for _, item := range n.Items {
			val, err := v.expr(item)
			if err != nil {
				return nil, err
			}
			items = append(items, val)
		}
		return value.List{Items: items, Sep: n.Sep, Brackets: n.Brackets}, nil
	case *ast.MapExpr:
		m := value.NewMap()
		for _, pair := range n.Pairs {
			key, err := v.expr(pair[0])
			if err != nil {
				return nil, err
			}
			val, err := v.expr(pair[1])
			if err != nil {
				return nil, err
			}
			if m.Has(key) {
				return nil, diag.At(diag.TypeError, pair[0].Pos(), "Duplicate key.")
			}
			m.Put(key, val)
		}
		return m, nil
	case *ast.ParenExpr:
		val, err := v.expr(n.Inner)
		if err != nil {
			return nil, err
		}
		return withoutSlash(val), nil
	case *ast.BinaryExpr:
		return v.binary(n)
	case *ast.UnaryExpr:
		return v.unary(n)
	case *ast.FunctionExpr:
		return v.call(n)
	case *ast.InterpolatedFunctionExpr:
		name, err := v.interpolate(n.Name, false)
		if err != nil {
			return nil, err
		}
		return v.plainCall(name, n.Args, n.Span)
	case *ast.IfExpr:
		return v.ifExpr(n)
	case *ast.SelectorExpr:
		rule := v.currentStyleRule()
		if rule == nil {
			return value.NullValue, nil
		}
		return selectorValue(rule.Origin), nil
	case *ast.CalcExpr:
		return v.calculation(n)
	}
	return nil, diag.At(diag.UnsupportedConstruct, e.Pos(), "Unsupported expression %T.", e)
}

func (v *Visitor) binary(n *ast.BinaryExpr) (value.Value, error) {
	left, err := v.expr(n.Left)
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case ast.OpAnd:
		if !value.Truthy(left) {
			return left, nil
		}
		return v.expr(n.Right)
	case ast.OpOr:
		if value.Truthy(left) {
			return left, nil
		}
		return v.expr(n.Right)
	}

	right, err := v.expr(n.Right)
	if err != nil {
		return nil, err
	}
	var res value.Value
	switch n.Op {
	case ast.OpSingleEq:
		l, err := value.ToCSS(left, false)
		if err != nil {
			return nil, diag.WithSpan(err, n.Left.Pos())
		}
		r, err := value.ToCSS(right, false)
		if err != nil {
			return nil, diag.WithSpan(err, n.Right.Pos())
		}
		return value.Unquoted(l + "=" + r), nil
	case ast.OpEq:
		return value.Eq(left, right), nil
	case ast.OpNeq:
		return value.Neq(left, right), nil
	case ast.OpPlus:
		res, err = value.Add(left, right)
	case ast.OpMinus:
		res, err = value.Sub(left, right)
	case ast.OpTimes:
		res, err = value.Mul(left, right)
	case ast.OpDiv:
		res, err = value.Div(left, right)
		if err == nil && n.AllowsSlash {
			l, lok := left.(value.Number)
			r, rok := right.(value.Number)
			q, qok := res.(value.Number)
			if lok && rok && qok {
				res = q.WithSlash(l, r)
			}
		}
	case ast.OpMod:
		res, err = value.Rem(left, right)
	case ast.OpLt:
		res, err = value.Lt(left, right)
	case ast.OpLte:
		res, err = value.Lte(left, right)
	case ast.OpGt:
		res, err = value.Gt(left, right)
	case ast.OpGte:
		res, err = value.Gte(left, right)
	default:
		return nil, diag.At(diag.UnsupportedConstruct, n.Span, "Unsupported operator %s.", n.Op)
	}
	if err != nil {
		return nil, diag.WithSpan(err, n.Span)
	}
	return res, nil
}

func (v *Visitor) unary(n *ast.UnaryExpr) (value.Value, error) {
	operand, err := v.expr(n.Operand)
	if err != nil {
		return nil, err
	}
	var res value.Value
	switch n.Op {
	case ast.OpNot:
		return value.Not(operand), nil
	case ast.OpUnaryPlus:
		res, err = value.UnaryPlus(operand)
	case ast.OpUnaryMinus:
		res, err = value.UnaryMinus(operand)
	case ast.OpUnaryDivide:
		res, err = value.UnaryDivide(operand)
	}
	if err != nil {
		return nil, diag.WithSpan(err, n.Span)
	}
	return res, nil
}

var ifParams = mustParams("$condition, $if-true, $if-false")

func (v *Visitor) ifExpr(n *ast.IfExpr) (value.Value, error) {
	a := n.Args
	if a == nil {
		a = &ast.ArgInvocation{}
	}
	named := make(map[string]value.Value, len(a.Named))
	exprs := make(map[string]ast.Expr, len(a.Named))
	var order []string
	for _, na := range a.Named {
		named[na.Name] = value.NullValue
		exprs[na.Name] = na.Value
		order = append(order, na.Name)
	}
	if err := verify(ifParams, len(a.Positional), named, order); err != nil {
		return nil, diag.WithSpan(err, n.Span)
	}
	arg := func(i int, name string) ast.Expr {
		if i < len(a.Positional) {
			return a.Positional[i]
		}
		return exprs[name]
	}
	cond, err := v.expr(arg(0, "condition"))
	if err != nil {
		return nil, err
	}
	branch := arg(2, "if-false")
	if value.Truthy(cond) {
		branch = arg(1, "if-true")
	}
	val, err := v.expr(branch)
	if err != nil {
		return nil, err
	}
	return withoutSlash(val), nil
}

// lookupFunction finds function visible from the current environment,
// built-in global functions come last.
func (v *Visitor) lookupFunction(ns, name string) (scope.Callable, error) {
	name = strings.ReplaceAll(name, "_", "-")
	if ns != "" {
		return v.env.NamespaceFunc(ns, name)
	}
	c, err := v.env.Func(name)
	if err != nil || c != nil {
		return c, err
	}
	if b, ok := globalFunctions[name]; ok {
		return b, nil
	}
	return nil, nil
}

func (v *Visitor) call(n *ast.FunctionExpr) (value.Value, error) {
	c, err := v.lookupFunction(n.Namespace, n.Name)
	if err != nil {
		return nil, diag.WithSpan(err, n.Span)
	}
	if c == nil {
		if n.Namespace != "" {
			return nil, diag.At(diag.UndefinedFunction, n.Span, "Undefined function.")
		}
		return v.plainCall(n.Name, n.Args, n.Span)
	}
	return v.callFunction(c, n.Args, n.Span)
}

// plainCall renders call of a function unknown to the compiler as CSS text.
func (v *Visitor) plainCall(name string, a *ast.ArgInvocation, span codemap.Span) (value.Value, error) {
	if a != nil && (len(a.Named) > 0 || a.KeywordRest != nil) {
		return nil, diag.At(diag.TypeError, span, "Plain CSS functions don't support keyword arguments.")
	}
	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('(')
	first := true
	write := func(e ast.Expr) error {
		val, err := v.expr(e)
		if err != nil {
			return err
		}
		text, err := value.ToCSS(val, false)
		if err != nil {
			return diag.WithSpan(err, e.Pos())
		}
		if !first {
			b.WriteString(", ")
		}
		first = false
		b.WriteString(text)
		return nil
	}
	if a != nil {
		for _, e := range a.Positional {
			if err := write(e); err != nil {
				return nil, err
			}
		}
		if a.Rest != nil {
			if err := write(a.Rest); err != nil {
				return nil, err
			}
		}
	}
	b.WriteByte(')')
	return value.Unquoted(b.String()), nil
}

// callValues invokes callable with already evaluated arguments, used by
// meta.call() and friends.
func (v *Visitor) callValues(c scope.Callable, positional []value.Value, named []value.KeywordArg, span codemap.Span) (value.Value, error) {
	return v.callFunction(c, valueArgs(positional, named, span), span)
}

func valueArgs(positional []value.Value, named []value.KeywordArg, span codemap.Span) *ast.ArgInvocation {
	a := &ast.ArgInvocation{Node: ast.At(span)}
	for _, p := range positional {
		a.Positional = append(a.Positional, &ast.ValueExpr{Node: ast.At(span), Value: p})
	}
	for _, kw := range named {
		a.Named = append(a.Named, ast.NamedArg{Name: kw.Name, Value: &ast.ValueExpr{Node: ast.At(span), Value: kw.Value}})
	}
	return a
}

// selectorValue converts selector into comma list of space separated lists
// of compounds and combinators.
func selectorValue(l *selector.List) value.Value {
	items := make([]value.Value, 0, len(l.Complex))
	for _, c := range l.Complex {
		parts := make([]value.Value, 0, len(c.Components))
		for _, comp := range c.Components {
			switch t := comp.(type) {
			case *selector.Compound:
				parts = append(parts, value.Unquoted(t.String()))
			case selector.Combinator:
				parts = append(parts, value.Unquoted(string(t)))
			}
		}
		items = append(items, value.List{Items: parts, Sep: value.SepSpace})
	}
	return value.List{Items: items, Sep: value.SepComma}
}

func (v *Visitor) calculation(n *ast.CalcExpr) (value.Value, error) {
	switch n.Name {
	case "calc":
		if len(n.Args) != 1 {
			return nil, diag.At(diag.TypeError, n.Span, "calc() requires exactly 1 argument.")
		}
	case "clamp":
		if len(n.Args) < 3 {
			was := "were"
			if len(n.Args) == 1 {
				was = "was"
			}
			return nil, diag.At(diag.TypeError, n.Span, "3 arguments required, but only %d %s passed.", len(n.Args), was)
		}
		if len(n.Args) > 3 {
			return nil, diag.At(diag.TypeError, n.Span, "Only 3 arguments allowed, but %d were passed.", len(n.Args))
		}
	}
	args := make([]any, 0, len(n.Args))
	for _, e := range n.Args {
		a, err := v.calcArg(e)
		if err != nil {
			return nil, err
		}
		args = append(args, a)
	}
	res, err := value.NewCalculation(n.Name, args)
	if err != nil {
		return nil, diag.WithSpan(err, n.Span)
	}
	return res, nil
}

var calcOps = map[ast.BinOp]byte{ast.OpPlus: '+', ast.OpMinus: '-', ast.OpTimes: '*', ast.OpDiv: '/'}

func (v *Visitor) calcArg(e ast.Expr) (any, error) {
	switch n := e.(type) {
	case *ast.NumberExpr:
		return value.NewNumber(n.Value, n.Unit), nil
	case *ast.ParenExpr:
		inner, err := v.calcArg(n.Inner)
		if err != nil {
			return nil, err
		}
		if s, ok := inner.(value.String); ok {
			return value.Unquoted("(" + s.Text + ")"), nil
		}
		return inner, nil
	case *ast.StringExpr:
		if !n.Quoted {
			text, err := v.interpolate(n.Text, false)
			if err != nil {
				return nil, err
			}
			return value.Unquoted(text), nil
		}
	case *ast.CalcExpr:
		return v.calculation(n)
	case *ast.BinaryExpr:
		op, ok := calcOps[n.Op]
		if !ok {
			break
		}
		left, err := v.calcArg(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := v.calcArg(n.Right)
		if err != nil {
			return nil, err
		}
		if op == '+' || op == '-' {
			l, lok := left.(value.Number)
			r, rok := right.(value.Number)
			if lok && rok && !possiblyCompatible(l, r) {
				return nil, diag.At(diag.UnitError, n.Span, "%s and %s are incompatible.", value.Inspect(l), value.Inspect(r))
			}
		}
		res, err := value.CalcOperate(op, left, right)
		if err != nil {
			return nil, diag.WithSpan(err, n.Span)
		}
		return res, nil
	}

	val, err := v.expr(e)
	if err != nil {
		return nil, err
	}
	switch t := val.(type) {
	case value.Number:
		return t.WithoutSlash(), nil
	case *value.Calculation:
		return t, nil
	case value.String:
		if !t.Quoted {
			return t, nil
		}
	}
	return nil, diag.At(diag.TypeError, e.Pos(), "Value %s can't be used in a calculation.", value.Inspect(val))
}

// possiblyCompatible reports whether numbers may be added at render time.
// Unknown units are assumed to be compatible with anything but known units
// of another dimension.
func possiblyCompatible(a, b value.Number) bool {
	if a.IsUnitless() != b.IsUnitless() {
		return false
	}
	if a.IsUnitless() {
		return true
	}
	if !a.Units.IsSingle() || !b.Units.IsSingle() {
		return a.Units.Compatible(b.Units)
	}
	ua, ub := strings.ToLower(a.UnitString()), strings.ToLower(b.UnitString())
	if ua == ub || !value.IsKnownUnit(ua) || !value.IsKnownUnit(ub) {
		return true
	}
	return a.Units.Compatible(b.Units)
}
