package evaluate

import (
	"slices"
	"strings"

	"sassy/css"
	"sassy/diag"
	"sassy/scope"
	"sassy/selector"
	"sassy/value"
)

var features = []string{
	"global-variable-shadowing",
	"extend-selector-pseudoclass",
	"units-level-3",
	"at-error",
	"custom-property",
}

func normalized(s value.String) string {
	return strings.ReplaceAll(s.Text, "_", "-")
}

// moduleArg returns module for optional $module argument, nil when null.
func (v *Visitor) moduleArg(val value.Value) (*scope.Module, error) {
	if value.IsNull(val) {
		return nil, nil
	}
	s, err := argString(val, "module")
	if err != nil {
		return nil, err
	}
	m, err := v.env.Namespace(s.Text)
	if err != nil {
		return nil, diag.New(diag.TypeError, "There is no module with namespace \"%s\".", s.Text)
	}
	return m, nil
}

func featureExistsFn(_ *Visitor, args []value.Value) (value.Value, error) {
	s, err := argString(args[0], "feature")
	if err != nil {
		return nil, err
	}
	return value.FromBool(slices.Contains(features, s.Text)), nil
}

func inspectFn(_ *Visitor, args []value.Value) (value.Value, error) {
	return value.Unquoted(value.Inspect(args[0])), nil
}

func typeOfFn(_ *Visitor, args []value.Value) (value.Value, error) {
	return value.Unquoted(args[0].TypeName()), nil
}

func keywordsFn(_ *Visitor, args []value.Value) (value.Value, error) {
	a, ok := args[0].(*value.ArgList)
	if !ok {
		return nil, notA("args", args[0], "an argument list")
	}
	a.KeywordsAccessed = true
	return a.KeywordMap(), nil
}

func variableExistsFn(v *Visitor, args []value.Value) (value.Value, error) {
	s, err := argString(args[0], "name")
	if err != nil {
		return nil, err
	}
	return value.FromBool(v.env.HasVar(normalized(s))), nil
}

func globalVariableExistsFn(v *Visitor, args []value.Value) (value.Value, error) {
	s, err := argString(args[0], "name")
	if err != nil {
		return nil, err
	}
	m, err := v.moduleArg(args[1])
	if err != nil {
		return nil, err
	}
	if m != nil {
		_, ok := m.Var(normalized(s))
		return value.FromBool(ok), nil
	}
	return value.FromBool(v.env.HasGlobalVar(normalized(s))), nil
}

func functionExistsFn(v *Visitor, args []value.Value) (value.Value, error) {
	s, err := argString(args[0], "name")
	if err != nil {
		return nil, err
	}
	m, err := v.moduleArg(args[1])
	if err != nil {
		return nil, err
	}
	if m != nil {
		_, ok := m.Func(normalized(s))
		return value.FromBool(ok), nil
	}
	c, err := v.lookupFunction("", s.Text)
	if err != nil {
		return nil, err
	}
	return value.FromBool(c != nil), nil
}

func (v *Visitor) lookupMixin(name string, m *scope.Module) (scope.Callable, error) {
	if m != nil {
		c, _ := m.Mixin(name)
		return c, nil
	}
	return v.env.Mixin(name)
}

func mixinExistsFn(v *Visitor, args []value.Value) (value.Value, error) {
	s, err := argString(args[0], "name")
	if err != nil {
		return nil, err
	}
	m, err := v.moduleArg(args[1])
	if err != nil {
		return nil, err
	}
	c, err := v.lookupMixin(normalized(s), m)
	if err != nil {
		return nil, err
	}
	return value.FromBool(c != nil), nil
}

func contentExistsFn(v *Visitor, _ []value.Value) (value.Value, error) {
	if !v.inMixin {
		return nil, diag.New(diag.TypeError, "content-exists() may only be called within a mixin.")
	}
	return value.FromBool(v.env.Content != nil), nil
}

func getFunctionFn(v *Visitor, args []value.Value) (value.Value, error) {
	s, err := argString(args[0], "name")
	if err != nil {
		return nil, err
	}
	asCSS := value.Truthy(args[1])
	if asCSS && !value.IsNull(args[2]) {
		return nil, diag.New(diag.TypeError, "$css and $module may not both be passed at once.")
	}
	if asCSS {
		return &value.Function{Name: s.Text, Callable: &plainFunction{name: s.Text}}, nil
	}
	var c scope.Callable
	if value.IsNull(args[2]) {
		c, err = v.lookupFunction("", s.Text)
	} else {
		var m *scope.Module
		if m, err = v.moduleArg(args[2]); err == nil {
			c, _ = m.Func(normalized(s))
		}
	}
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, diag.New(diag.UndefinedFunction, "Function not found: %s", value.Inspect(s))
	}
	return &value.Function{Name: c.CallableName(), Callable: c}, nil
}

func callFn(v *Visitor, args []value.Value) (value.Value, error) {
	rest := args[1].(*value.ArgList)
	var c scope.Callable
	switch f := args[0].(type) {
	case value.String:
		found, err := v.lookupFunction("", f.Text)
		if err != nil {
			return nil, err
		}
		if c = found; c == nil {
			c = &plainFunction{name: f.Text}
		}
	case *value.Function:
		c = f.Callable.(scope.Callable)
	default:
		return nil, notA("function", args[0], "a function reference")
	}
	rest.KeywordsAccessed = true
	return v.callValues(c, rest.Items, rest.Keywords, v.callSpan)
}

func getMixinFn(v *Visitor, args []value.Value) (value.Value, error) {
	s, err := argString(args[0], "name")
	if err != nil {
		return nil, err
	}
	m, err := v.moduleArg(args[1])
	if err != nil {
		return nil, err
	}
	c, err := v.lookupMixin(normalized(s), m)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, diag.New(diag.UndefinedMixin, "Mixin not found: %s", value.Inspect(s))
	}
	return &value.Mixin{Name: c.CallableName(), Callable: c}, nil
}

func mixinArg(val value.Value) (scope.Callable, error) {
	m, ok := val.(*value.Mixin)
	if !ok {
		return nil, notA("mixin", val, "a mixin reference")
	}
	return m.Callable.(scope.Callable), nil
}

func acceptsContentFn(_ *Visitor, args []value.Value) (value.Value, error) {
	c, err := mixinArg(args[0])
	if err != nil {
		return nil, err
	}
	switch m := c.(type) {
	case *builtinMixin:
		return value.FromBool(m.acceptsContent), nil
	case *userMixin:
		return value.FromBool(m.decl.UsesContent), nil
	}
	return value.False, nil
}

func (v *Visitor) namespaceArg(val value.Value) (*scope.Module, error) {
	s, err := argString(val, "module")
	if err != nil {
		return nil, err
	}
	m, err := v.env.Namespace(s.Text)
	if err != nil {
		return nil, diag.New(diag.TypeError, "There is no module with namespace \"%s\".", s.Text)
	}
	return m, nil
}

func moduleVariablesFn(v *Visitor, args []value.Value) (value.Value, error) {
	m, err := v.namespaceArg(args[0])
	if err != nil {
		return nil, err
	}
	out := value.NewMap()
	for _, name := range m.VarNames() {
		val, _ := m.Var(name)
		out.Put(value.Quoted(name), val)
	}
	return out, nil
}

func moduleFunctionsFn(v *Visitor, args []value.Value) (value.Value, error) {
	m, err := v.namespaceArg(args[0])
	if err != nil {
		return nil, err
	}
	out := value.NewMap()
	for _, name := range m.FuncNames() {
		c, _ := m.Func(name)
		out.Put(value.Quoted(name), &value.Function{Name: name, Callable: c})
	}
	return out, nil
}

func moduleMixinsFn(v *Visitor, args []value.Value) (value.Value, error) {
	m, err := v.namespaceArg(args[0])
	if err != nil {
		return nil, err
	}
	out := value.NewMap()
	for _, name := range m.MixinNames() {
		c, _ := m.Mixin(name)
		out.Put(value.Quoted(name), &value.Mixin{Name: name, Callable: c})
	}
	return out, nil
}

func calcNameFn(_ *Visitor, args []value.Value) (value.Value, error) {
	c, ok := args[0].(*value.Calculation)
	if !ok {
		return nil, notA("calc", args[0], "a calculation")
	}
	return value.Quoted(c.Name), nil
}

func calcArgsFn(_ *Visitor, args []value.Value) (value.Value, error) {
	c, ok := args[0].(*value.Calculation)
	if !ok {
		return nil, notA("calc", args[0], "a calculation")
	}
	items := make([]value.Value, 0, len(c.Args))
	for _, a := range c.Args {
		switch t := a.(type) {
		case value.Value:
			items = append(items, t)
		default:
			text, err := value.ToCSS(&value.Calculation{Name: "calc", Args: []any{a}}, false)
			if err != nil {
				return nil, err
			}
			items = append(items, value.Unquoted(strings.TrimSuffix(strings.TrimPrefix(text, "calc("), ")")))
		}
	}
	return value.List{Items: items, Sep: value.SepComma}, nil
}

func applyMixinFn(v *Visitor, args []value.Value, content *contentBlock) error {
	c, err := mixinArg(args[0])
	if err != nil {
		return err
	}
	rest := args[1].(*value.ArgList)
	rest.KeywordsAccessed = true
	return v.applyMixin(c, content, valueArgs(rest.Items, rest.Keywords, v.callSpan), v.callSpan)
}

func loadCSSFn(v *Visitor, args []value.Value, _ *contentBlock) error {
	s, err := argString(args[0], "url")
	if err != nil {
		return err
	}
	cfg := emptyConfig()
	if !value.IsNull(args[1]) {
		with, err := argMap(args[1], "with")
		if err != nil {
			return err
		}
		cfg.explicit = true
		cfg.span = v.callSpan
		for _, p := range with.Pairs {
			key, err := argString(p.Key, "with")
			if err != nil {
				return err
			}
			name := normalized(key)
			if _, dup := cfg.values[name]; dup {
				return diag.New(diag.TypeError, "The variable $%s was configured twice.", name)
			}
			cfg.set(name, &configuredValue{value: p.Value, span: v.callSpan})
		}
	}
	m, err := v.loadModule(s.Text, "load-css()", v.callSpan, cfg)
	if err != nil {
		return err
	}
	if err := assertConfigEmpty(cfg); err != nil {
		return err
	}
	if m.IsBuiltin() {
		return nil
	}
	for _, mod := range sortModules(m) {
		if mod.CSS == nil {
			continue
		}
		for _, n := range mod.CSS.Body {
			if err := v.insertCSS(n); err != nil {
				return err
			}
		}
	}
	return nil
}

// insertCSS copies already evaluated CSS into the current position, style
// rules are nested in the current style rule.
func (v *Visitor) insertCSS(n css.Node) error {
	switch t := n.(type) {
	case *css.Style:
		cp := *t
		v.parent.Append(&cp)
	case *css.Comment:
		cp := *t
		v.parent.Append(&cp)
	case *css.Import:
		cp := *t
		v.addImport(&cp)
	case *css.RuleSet:
		var parentSel *selector.List
		if v.styleRule != nil {
			parentSel = v.styleRule.Origin
		}
		resolved, err := t.Origin.Resolve(parentSel, !v.atRootExcludingStyleRule)
		if err != nil {
			return err
		}
		rule := &css.RuleSet{Base: css.Base{Span: t.Span}, Selector: resolved, Origin: resolved, Media: v.mediaKey()}
		oldExcluding, oldRule := v.atRootExcludingStyleRule, v.styleRule
		v.atRootExcludingStyleRule = false
		defer func() { v.atRootExcludingStyleRule = oldExcluding }()
		return v.withParent(rule, isStyleRule, false, func() error {
			v.styleRule = rule
			defer func() { v.styleRule = oldRule }()
			return v.insertChildren(t)
		})
	case *css.Media:
		return v.withMedia(t.Queries, t.Span, func() error { return v.insertChildren(t) })
	case *css.Supports, *css.Keyframes, *css.KeyframesRuleSet:
		p := n.(css.Parent)
		return v.withParent(css.Copy(p), isStyleRule, false, func() error { return v.insertChildren(p) })
	case *css.AtRule:
		if !t.HasBody {
			cp := *t
			v.parent.Append(&cp)
			return nil
		}
		return v.withParent(css.Copy(t), isStyleRule, false, func() error {
			if v.currentStyleRule() == nil {
				return v.insertChildren(t)
			}
			return v.inStyleRuleCopy(func() error { return v.insertChildren(t) })
		})
	}
	return nil
}

func (v *Visitor) insertChildren(p css.Parent) error {
	for _, n := range p.Children() {
		if err := v.insertCSS(n); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	defineGlobal(
		newBuiltin("feature-exists", "$feature", featureExistsFn),
		newBuiltin("inspect", "$value", inspectFn),
		newBuiltin("type-of", "$value", typeOfFn),
		newBuiltin("keywords", "$args", keywordsFn),
		newBuiltin("variable-exists", "$name", variableExistsFn),
		newBuiltin("global-variable-exists", "$name, $module: null", globalVariableExistsFn),
		newBuiltin("function-exists", "$name, $module: null", functionExistsFn),
		newBuiltin("mixin-exists", "$name, $module: null", mixinExistsFn),
		newBuiltin("content-exists", "", contentExistsFn),
		newBuiltin("get-function", "$name, $css: false, $module: null", getFunctionFn),
		newBuiltin("call", "$function, $args...", callFn),
	)

	m := defineModule("meta")
	exposeGlobals(m, "feature-exists", "inspect", "type-of", "keywords", "variable-exists",
		"global-variable-exists", "function-exists", "mixin-exists", "content-exists", "get-function", "call")
	m.DefineFunc(newBuiltin("module-variables", "$module", moduleVariablesFn)).
		DefineFunc(newBuiltin("module-functions", "$module", moduleFunctionsFn)).
		DefineFunc(newBuiltin("module-mixins", "$module", moduleMixinsFn)).
		DefineFunc(newBuiltin("get-mixin", "$name, $module: null", getMixinFn)).
		DefineFunc(newBuiltin("accepts-content", "$mixin", acceptsContentFn)).
		DefineFunc(newBuiltin("calc-name", "$calc", calcNameFn)).
		DefineFunc(newBuiltin("calc-args", "$calc", calcArgsFn))
	m.DefineMixin(&builtinMixin{name: "load-css", params: mustParams("$url, $with: null"), fn: loadCSSFn}).
		DefineMixin(&builtinMixin{name: "apply", params: mustParams("$mixin, $args..."), acceptsContent: true, fn: applyMixinFn})
}
