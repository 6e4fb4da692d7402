package evaluate

import (
	"fmt"
	"slices"
	"strings"

	"sassy/ast"
	"sassy/codemap"
	"sassy/diag"
	"sassy/parse"
	"sassy/scope"
	"sassy/value"
)

type userFunction struct {
	decl *ast.FunctionRule
	env  *scope.Env
}

func (f *userFunction) CallableName() string { return f.decl.Name }

type userMixin struct {
	decl *ast.MixinRule
	env  *scope.Env
}

func (m *userMixin) CallableName() string { return m.decl.Name }

// contentBlock is block passed to @include, it runs in the environment of
// the include site.
type contentBlock struct {
	block *ast.ContentBlock
	env   *scope.Env
}

// plainFunction is CSS function returned by get-function($css: true).
type plainFunction struct {
	name string
}

func (f *plainFunction) CallableName() string { return f.name }

type builtinFn func(v *Visitor, args []value.Value) (value.Value, error)

type overload struct {
	params *ast.ArgDecl
	fn     builtinFn
}

type builtinFunc struct {
	name      string
	overloads []overload
}

func (b *builtinFunc) CallableName() string { return b.name }

func mustParams(sig string) *ast.ArgDecl {
	decl, err := parse.Parameters(sig)
	if err != nil {
		panic(fmt.Sprintf("bad signature %q: %v", sig, err))
	}
	return decl
}

func newBuiltin(name, sig string, fn builtinFn) *builtinFunc {
	return &builtinFunc{name: name, overloads: []overload{{params: mustParams(sig), fn: fn}}}
}

// or adds overload tried after the existing ones.
func (b *builtinFunc) or(sig string, fn builtinFn) *builtinFunc {
	b.overloads = append(b.overloads, overload{params: mustParams(sig), fn: fn})
	return b
}

func (b *builtinFunc) pick(positional int, named map[string]value.Value) overload {
	for _, o := range b.overloads {
		if matches(o.params, positional, named) {
			return o
		}
	}
	return b.overloads[len(b.overloads)-1]
}

// renamed returns copy of b registered under another name, module members
// are often shorter than their global counterparts.
func (b *builtinFunc) renamed(name string) *builtinFunc {
	c := *b
	c.name = name
	return &c
}

type builtinMixin struct {
	name           string
	params         *ast.ArgDecl
	acceptsContent bool
	fn             func(v *Visitor, args []value.Value, content *contentBlock) error
}

func (m *builtinMixin) CallableName() string { return m.name }

// argResults holds evaluated call site arguments.
type argResults struct {
	positional []value.Value
	named      map[string]value.Value
	order      []string
	sep        value.Separator
}

func (a *argResults) setNamed(name string, val value.Value) {
	if _, ok := a.named[name]; !ok {
		a.order = append(a.order, name)
	}
	a.named[name] = val
}

func (a *argResults) take(name string) (value.Value, bool) {
	val, ok := a.named[name]
	if ok {
		delete(a.named, name)
		a.order = slices.DeleteFunc(a.order, func(s string) bool { return s == name })
	}
	return val, ok
}

func (a *argResults) keywords() []value.KeywordArg {
	out := make([]value.KeywordArg, 0, len(a.order))
	for _, name := range a.order {
		out = append(out, value.KeywordArg{Name: name, Value: a.named[name]})
	}
	return out
}

func withoutSlash(val value.Value) value.Value {
	if n, ok := val.(value.Number); ok && n.HasSlash() {
		return n.WithoutSlash()
	}
	return val
}

func (v *Visitor) evalArgs(a *ast.ArgInvocation) (*argResults, error) {
	res := &argResults{named: make(map[string]value.Value), sep: value.SepUndecided}
	if a == nil {
		return res, nil
	}
	for _, e := range a.Positional {
		val, err := v.expr(e)
		if err != nil {
			return nil, err
		}
		res.positional = append(res.positional, withoutSlash(val))
	}
	for _, na := range a.Named {
		val, err := v.expr(na.Value)
		if err != nil {
			return nil, err
		}
		res.setNamed(na.Name, withoutSlash(val))
	}
	if a.Rest == nil {
		return res, nil
	}

	rest, err := v.expr(a.Rest)
	if err != nil {
		return nil, err
	}
	switch t := rest.(type) {
	case *value.Map:
		if err := addRestMap(res, t); err != nil {
			return nil, diag.WithSpan(err, a.Rest.Pos())
		}
	case value.List:
		for _, item := range t.Items {
			res.positional = append(res.positional, withoutSlash(item))
		}
		res.sep = t.Sep
	case *value.ArgList:
		for _, item := range t.Items {
			res.positional = append(res.positional, withoutSlash(item))
		}
		res.sep = t.Sep
		for _, kw := range t.Keywords {
			res.setNamed(kw.Name, withoutSlash(kw.Value))
		}
	default:
		res.positional = append(res.positional, withoutSlash(rest))
	}

	if a.KeywordRest == nil {
		return res, nil
	}
	kwRest, err := v.expr(a.KeywordRest)
	if err != nil {
		return nil, err
	}
	m, ok := kwRest.(*value.Map)
	if !ok {
		if l, isList := kwRest.(value.List); isList && len(l.Items) == 0 {
			return res, nil
		}
		return nil, diag.At(diag.TypeError, a.KeywordRest.Pos(), "Variable keyword arguments must be a map (was %s).", value.Inspect(kwRest))
	}
	if err := addRestMap(res, m); err != nil {
		return nil, diag.WithSpan(err, a.KeywordRest.Pos())
	}
	return res, nil
}

func addRestMap(res *argResults, m *value.Map) error {
	for _, p := range m.Pairs {
		s, ok := p.Key.(value.String)
		if !ok {
			return diag.New(diag.TypeError, "Variable keyword argument map must have string keys.\n%s is not a string in %s.",
				value.Inspect(p.Key), value.Inspect(m))
		}
		res.setNamed(strings.ReplaceAll(s.Text, "_", "-"), withoutSlash(p.Value))
	}
	return nil
}

func params(decl *ast.ArgDecl) []ast.Param {
	if decl == nil {
		return nil
	}
	return decl.Params
}

func hasRest(decl *ast.ArgDecl) bool {
	return decl != nil && decl.Rest != ""
}

func matches(decl *ast.ArgDecl, positional int, named map[string]value.Value) bool {
	ps := params(decl)
	used := 0
	for i, p := range ps {
		_, byName := named[p.Name]
		switch {
		case i < positional:
			if byName {
				return false
			}
		case byName:
			used++
		case p.Default == nil:
			return false
		}
	}
	if hasRest(decl) {
		return true
	}
	return positional <= len(ps) && used >= len(named)
}

func plural(word string, n int) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

func sentence(items []string, conj string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	}
	return strings.Join(items[:len(items)-1], ", ") + " " + conj + " " + items[len(items)-1]
}

func unknownNamed(names []string) error {
	vars := make([]string, 0, len(names))
	for _, n := range names {
		vars = append(vars, "$"+n)
	}
	return diag.New(diag.TypeError, "No %s named %s.", plural("argument", len(names)), sentence(vars, "or"))
}

func verify(decl *ast.ArgDecl, positional int, named map[string]value.Value, order []string) error {
	ps := params(decl)
	used := 0
	for i, p := range ps {
		_, byName := named[p.Name]
		switch {
		case i < positional:
			if byName {
				return diag.New(diag.TypeError, "Argument $%s was passed both by position and by name.", p.Name)
			}
		case byName:
			used++
		case p.Default == nil:
			return diag.New(diag.TypeError, "Missing argument $%s.", p.Name)
		}
	}
	if hasRest(decl) {
		return nil
	}
	if positional > len(ps) {
		kind := ""
		if len(named) > 0 {
			kind = "positional "
		}
		was := "was"
		if positional != 1 {
			was = "were"
		}
		return diag.New(diag.TypeError, "Only %d %s%s allowed, but %d %s passed.",
			len(ps), kind, plural("argument", len(ps)), positional, was)
	}
	if used < len(named) {
		var unknown []string
		for _, name := range order {
			if !slices.ContainsFunc(ps, func(p ast.Param) bool { return p.Name == name }) {
				unknown = append(unknown, name)
			}
		}
		return unknownNamed(unknown)
	}
	return nil
}

// runUser invokes user defined callable: arguments are evaluated at the call
// site, bound in a new frame of the closure environment and run executes the
// body there.
func (v *Visitor) runUser(a *ast.ArgInvocation, decl *ast.ArgDecl, closure *scope.Env, name string,
	span codemap.Span, run func() (value.Value, error)) (value.Value, error) {

	res, err := v.evalArgs(a)
	if err != nil {
		return nil, err
	}
	var ret value.Value
	err = v.withFrame(name, span, func() error {
		old := v.env
		v.env = closure.Closure()
		defer func() { v.env = old }()
		return v.env.Scoped(false, func() error {
			if err := verify(decl, len(res.positional), res.named, res.order); err != nil {
				return diag.WithSpan(err, span)
			}
			ps := params(decl)
			for i := 0; i < min(len(res.positional), len(ps)); i++ {
				v.env.SetLocalVar(ps[i].Name, res.positional[i])
			}
			for _, p := range ps[min(len(res.positional), len(ps)):] {
				val, ok := res.take(p.Name)
				if !ok {
					if val, err = v.expr(p.Default); err != nil {
						return err
					}
					val = withoutSlash(val)
				}
				v.env.SetLocalVar(p.Name, val)
			}

			var rest *value.ArgList
			if hasRest(decl) {
				var items []value.Value
				if len(res.positional) > len(ps) {
					items = slices.Clone(res.positional[len(ps):])
				}
				rest = &value.ArgList{List: value.List{Items: items, Sep: restSeparator(res.sep)}, Keywords: res.keywords()}
				v.env.SetLocalVar(decl.Rest, rest)
			}

			if ret, err = run(); err != nil {
				return err
			}
			if rest != nil && len(res.order) > 0 && !rest.KeywordsAccessed {
				return diag.WithSpan(unknownNamed(res.order), span)
			}
			return nil
		})
	})
	return ret, err
}

func restSeparator(sep value.Separator) value.Separator {
	if sep == value.SepUndecided {
		return value.SepComma
	}
	return sep
}

// bindBuiltin evaluates arguments into the parameter order of the chosen
// overload, rest arguments become trailing ArgList.
func (v *Visitor) bindBuiltin(a *ast.ArgInvocation, span codemap.Span, pick func(int, map[string]value.Value) overload) (
	overload, []value.Value, *value.ArgList, *argResults, error) {

	res, err := v.evalArgs(a)
	if err != nil {
		return overload{}, nil, nil, nil, err
	}
	o := pick(len(res.positional), res.named)
	if err := verify(o.params, len(res.positional), res.named, res.order); err != nil {
		return overload{}, nil, nil, nil, diag.WithSpan(err, span)
	}
	args := slices.Clone(res.positional)
	ps := params(o.params)
	for _, p := range ps[min(len(args), len(ps)):] {
		val, ok := res.take(p.Name)
		if !ok {
			if val, err = v.expr(p.Default); err != nil {
				return overload{}, nil, nil, nil, err
			}
			val = withoutSlash(val)
		}
		args = append(args, val)
	}
	var rest *value.ArgList
	if hasRest(o.params) {
		var items []value.Value
		if len(args) > len(ps) {
			items = slices.Clone(args[len(ps):])
			args = args[:len(ps)]
		}
		rest = &value.ArgList{List: value.List{Items: items, Sep: restSeparator(res.sep)}, Keywords: res.keywords()}
		args = append(args, rest)
	}
	return o, args, rest, res, nil
}

func (v *Visitor) runBuiltin(b *builtinFunc, a *ast.ArgInvocation, span codemap.Span) (value.Value, error) {
	o, args, rest, res, err := v.bindBuiltin(a, span, b.pick)
	if err != nil {
		return nil, err
	}
	oldSpan := v.callSpan
	v.callSpan = span
	ret, err := o.fn(v, args)
	v.callSpan = oldSpan
	if err != nil {
		return nil, diag.WithSpan(err, span)
	}
	if rest != nil && len(res.order) > 0 && !rest.KeywordsAccessed {
		return nil, diag.WithSpan(unknownNamed(res.order), span)
	}
	return ret, nil
}

// callFunction invokes any function callable.
func (v *Visitor) callFunction(c scope.Callable, a *ast.ArgInvocation, span codemap.Span) (value.Value, error) {
	old := v.inFunction
	v.inFunction = true
	defer func() { v.inFunction = old }()

	switch f := c.(type) {
	case *builtinFunc:
		return v.runBuiltin(f, a, span)
	case *userFunction:
		ret, err := v.runUser(a, f.decl.Params, f.env, f.decl.Name+"()", span, func() (value.Value, error) {
			ret, err := v.handleReturn(f.decl.Body)
			if err != nil {
				return nil, err
			}
			if ret == nil {
				return nil, diag.At(diag.TypeError, f.decl.Span, "Function finished without @return.")
			}
			return ret, nil
		})
		if err != nil {
			return nil, err
		}
		return withoutSlash(ret), nil
	case *plainFunction:
		return v.plainCall(f.name, a, span)
	}
	return nil, diag.At(diag.UndefinedFunction, span, "%s is not a function.", c.CallableName())
}

func (v *Visitor) include(n *ast.IncludeRule) error {
	var (
		m   scope.Callable
		err error
	)
	if n.Namespace != "" {
		m, err = v.env.NamespaceMixin(n.Namespace, n.Name)
	} else {
		m, err = v.env.Mixin(n.Name)
	}
	if err != nil {
		return diag.WithSpan(err, n.Span)
	}
	if m == nil {
		return diag.At(diag.UndefinedMixin, n.Span, "Undefined mixin.")
	}
	var content *contentBlock
	if n.Content != nil {
		content = &contentBlock{block: n.Content, env: v.env.Closure()}
	}
	return v.applyMixin(m, content, n.Args, n.Span)
}

func (v *Visitor) applyMixin(c scope.Callable, content *contentBlock, a *ast.ArgInvocation, span codemap.Span) error {
	switch m := c.(type) {
	case *builtinMixin:
		if content != nil && !m.acceptsContent {
			return diag.At(diag.TypeError, span, "Mixin doesn't accept a content block.")
		}
		return v.withFrame(m.name+"()", span, func() error {
			pick := func(int, map[string]value.Value) overload { return overload{params: m.params} }
			_, args, rest, res, err := v.bindBuiltin(a, span, pick)
			if err != nil {
				return err
			}
			oldSpan := v.callSpan
			v.callSpan = span
			err = m.fn(v, args, content)
			v.callSpan = oldSpan
			if err != nil {
				return diag.WithSpan(err, span)
			}
			if rest != nil && len(res.order) > 0 && !rest.KeywordsAccessed {
				return diag.WithSpan(unknownNamed(res.order), span)
			}
			return nil
		})
	case *userMixin:
		if content != nil && !m.decl.UsesContent {
			return diag.At(diag.TypeError, span, "Mixin doesn't accept a content block.")
		}
		_, err := v.runUser(a, m.decl.Params, m.env, m.decl.Name+"()", span, func() (value.Value, error) {
			v.env.Content = content
			oldInMixin := v.inMixin
			v.inMixin = true
			defer func() { v.inMixin = oldInMixin }()
			return nil, v.children(m.decl.Body)
		})
		return err
	}
	return diag.At(diag.UndefinedMixin, span, "%s is not a mixin.", c.CallableName())
}

func (v *Visitor) contentRule(n *ast.ContentRule) error {
	cb, _ := v.env.Content.(*contentBlock)
	if cb == nil {
		return nil
	}
	_, err := v.runUser(n.Args, cb.block.Params, cb.env, "@content", n.Span, func() (value.Value, error) {
		return nil, v.children(cb.block.Body)
	})
	return err
}
