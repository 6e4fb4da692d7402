// Package evaluate executes parsed stylesheets: it runs control flow, calls
// mixins and functions, loads modules and builds the tree of plain CSS
// statements ready to be serialized.
package evaluate

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"sassy/ast"
	"sassy/codemap"
	"sassy/css"
	"sassy/diag"
	"sassy/scope"
	"sassy/selector"
	"sassy/value"
	"sassy/vfs"
)

// DefaultMaxDepth limits nesting of mixin, function and import invocations.
const DefaultMaxDepth = 2000

// Options controls evaluation.
type Options struct {
	// LoadPaths are searched after the directory of the importing file.
	LoadPaths []string
	FS        vfs.FS
	// Encoding is charset of loaded files, empty means UTF-8.
	Encoding string
	// Quiet suppresses @debug and @warn output.
	Quiet    bool
	MaxDepth int
}

// compilation is state shared by all stylesheets of one run.
type compilation struct {
	log      *zap.Logger
	opts     Options
	files    *codemap.Map
	extender *selector.Extender

	sheets  map[string]*ast.Stylesheet
	modules map[string]*scope.Module
	configs map[string]*configuration
	active  map[string]bool

	parents map[css.Parent]css.Parent
	stack   []diag.Frame
}

// Visitor evaluates one stylesheet. Modules loaded by it are evaluated by
// visitors of their own sharing the compilation.
type Visitor struct {
	*compilation

	url   string
	plain bool
	env   *scope.Env

	root   *css.Root
	parent css.Parent

	// styleRule is innermost style rule ignoring @at-root.
	styleRule                *css.RuleSet
	atRootExcludingStyleRule bool
	media                    []css.MediaQuery
	mediaSources             []css.MediaQuery
	inKeyframes              bool
	inUnknownAtRule          bool
	inFunction               bool
	inMixin                  bool
	declName                 string
	callSpan                 codemap.Span

	endOfImports int
	outOfOrder   []css.Node
	// importDepth counts @import files being evaluated into this visitor.
	importDepth int

	config   *configuration
	upstream []*scope.Module
}

// New creates visitor for the entry stylesheet of a compilation. Files loaded
// during evaluation are registered in files.
func New(files *codemap.Map, opts Options, log *zap.Logger) *Visitor {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.FS == nil {
		opts.FS = vfs.Null{}
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	c := &compilation{
		log:      log.Named("evaluate"),
		opts:     opts,
		files:    files,
		extender: selector.NewExtender(),
		sheets:   make(map[string]*ast.Stylesheet),
		modules:  make(map[string]*scope.Module),
		configs:  make(map[string]*configuration),
		active:   make(map[string]bool),
		parents:  make(map[css.Parent]css.Parent),
	}
	return c.visitor("", emptyConfig())
}

func (c *compilation) visitor(url string, cfg *configuration) *Visitor {
	root := &css.Root{}
	return &Visitor{compilation: c, url: url, env: scope.New(), root: root, parent: root, config: cfg}
}

// Run evaluates sheet as the entry point and returns combined CSS of the
// stylesheet and every module it loaded, with extensions applied.
func (v *Visitor) Run(sheet *ast.Stylesheet) (*css.Root, error) {
	v.url = sheet.URL
	if v.url != "" {
		v.active[v.url] = true
		defer delete(v.active, v.url)
	}
	v.log.Debug("Evaluating stylesheet", zap.String("url", sheet.URL))
	if err := v.stylesheet(sheet); err != nil {
		return nil, err
	}
	root := v.combine()
	if err := v.applyExtends(root); err != nil {
		return nil, err
	}
	return root, nil
}

func (v *Visitor) stylesheet(sheet *ast.Stylesheet) error {
	v.plain = sheet.Plain
	if err := v.children(sheet.Body); err != nil {
		return err
	}
	v.finishImports()
	return nil
}

func (v *Visitor) finishImports() {
	if len(v.outOfOrder) == 0 {
		return
	}
	body := v.root.Body
	out := make([]css.Node, 0, len(body)+len(v.outOfOrder))
	out = append(out, body[:v.endOfImports]...)
	out = append(out, v.outOfOrder...)
	out = append(out, body[v.endOfImports:]...)
	v.root.Body = out
	v.outOfOrder = nil
}

// children runs statements which may not produce @return value.
func (v *Visitor) children(body []ast.Stmt) error {
	for _, s := range body {
		if _, err := v.exec(s); err != nil {
			return err
		}
	}
	return nil
}

// handleReturn runs statements stopping at the first @return.
func (v *Visitor) handleReturn(body []ast.Stmt) (value.Value, error) {
	for _, s := range body {
		ret, err := v.exec(s)
		if err != nil || ret != nil {
			return ret, err
		}
	}
	return nil, nil
}

// exec runs single statement, non nil value is result of @return.
func (v *Visitor) exec(s ast.Stmt) (value.Value, error) {
	switch n := s.(type) {
	case *ast.StyleRule:
		return nil, v.styleRuleStmt(n)
	case *ast.Declaration:
		return nil, v.declaration(n)
	case *ast.VariableDecl:
		return nil, v.variableDecl(n)
	case *ast.MixinRule:
		v.env.SetMixin(n.Name, &userMixin{decl: n, env: v.env.Closure()})
	case *ast.FunctionRule:
		v.env.SetFunc(n.Name, &userFunction{decl: n, env: v.env.Closure()})
	case *ast.IncludeRule:
		return nil, v.include(n)
	case *ast.ContentRule:
		return nil, v.contentRule(n)
	case *ast.ReturnRule:
		val, err := v.expr(n.Value)
		if err != nil {
			return nil, err
		}
		return withoutSlash(val), nil
	case *ast.IfRule:
		return v.ifRule(n)
	case *ast.EachRule:
		return v.eachRule(n)
	case *ast.ForRule:
		return v.forRule(n)
	case *ast.WhileRule:
		return v.whileRule(n)
	case *ast.MediaRule:
		return nil, v.mediaRule(n)
	case *ast.SupportsRule:
		return nil, v.supportsRule(n)
	case *ast.AtRootRule:
		return nil, v.atRoot(n)
	case *ast.AtRule:
		return nil, v.atRule(n)
	case *ast.ImportRule:
		return nil, v.importRule(n)
	case *ast.UseRule:
		return nil, v.useRule(n)
	case *ast.ForwardRule:
		return nil, v.forwardRule(n)
	case *ast.ExtendRule:
		return nil, v.extendRule(n)
	case *ast.DebugRule:
		return nil, v.debugRule(n)
	case *ast.WarnRule:
		return nil, v.warnRule(n)
	case *ast.ErrorRule:
		return nil, v.errorRule(n)
	case *ast.LoudComment:
		return nil, v.loudComment(n)
	case *ast.SilentComment, *ast.CharsetRule:
	default:
		return nil, diag.At(diag.UnsupportedConstruct, s.Pos(), "Unsupported statement %T.", s)
	}
	return nil, nil
}

// currentStyleRule is style rule output of declarations goes to, nil
// inside @at-root excluding rules.
func (v *Visitor) currentStyleRule() *css.RuleSet {
	if v.atRootExcludingStyleRule {
		return nil
	}
	return v.styleRule
}

func (v *Visitor) mediaKey() string {
	if v.media == nil {
		return ""
	}
	return css.FormatMediaQueries(v.media, false)
}

func isStyleRule(p css.Parent) bool {
	_, ok := p.(*css.RuleSet)
	return ok
}

func (v *Visitor) appendTo(p css.Parent, n css.Node) {
	p.Append(n)
	if np, ok := n.(css.Parent); ok {
		v.parents[np] = p
	}
}

// addChild appends n to the current parent. Parents matching through are
// skipped, if the parent reached already has visible siblings after it a
// copy is made so that output order matches source order.
func (v *Visitor) addChild(n css.Node, through func(css.Parent) bool) {
	parent := v.parent
	if through != nil {
		for through(parent) {
			gp, ok := v.parents[parent]
			if !ok {
				break
			}
			parent = gp
		}
		if v.hasFollowingSibling(parent) {
			gp := v.parents[parent]
			kids := gp.Children()
			if last, ok := kids[len(kids)-1].(css.Parent); ok && equalIgnoringChildren(parent, last) {
				parent = last
			} else {
				cp := css.Copy(parent)
				v.appendTo(gp, cp)
				parent = cp
			}
		}
	}
	v.appendTo(parent, n)
}

func (v *Visitor) hasFollowingSibling(p css.Parent) bool {
	gp, ok := v.parents[p]
	if !ok {
		return false
	}
	kids := gp.Children()
	i := slices.IndexFunc(kids, func(n css.Node) bool { return n == css.Node(p) })
	if i < 0 {
		return false
	}
	for _, sib := range kids[i+1:] {
		if !css.IsInvisible(sib, false) {
			return true
		}
	}
	return false
}

func equalIgnoringChildren(a, b css.Parent) bool {
	switch x := a.(type) {
	case *css.RuleSet:
		y, ok := b.(*css.RuleSet)
		return ok && x.Selector == y.Selector
	case *css.Media:
		y, ok := b.(*css.Media)
		return ok && css.EqualMediaQueries(x.Queries, y.Queries)
	case *css.Supports:
		y, ok := b.(*css.Supports)
		return ok && x.Condition == y.Condition
	case *css.AtRule:
		y, ok := b.(*css.AtRule)
		return ok && x.Name == y.Name && x.Params == y.Params
	case *css.Keyframes:
		y, ok := b.(*css.Keyframes)
		return ok && x.Name == y.Name && x.Params == y.Params
	case *css.KeyframesRuleSet:
		y, ok := b.(*css.KeyframesRuleSet)
		return ok && slices.Equal(x.Selector, y.Selector)
	}
	return false
}

// withParent adds node and runs fn with node as current parent, optionally
// in a new variable scope.
func (v *Visitor) withParent(node css.Parent, through func(css.Parent) bool, scoped bool, fn func() error) error {
	v.addChild(node, through)
	old := v.parent
	v.parent = node
	defer func() { v.parent = old }()
	if !scoped {
		return fn()
	}
	return v.env.Scoped(false, fn)
}

// inStyleRuleCopy runs fn inside a copy of the current style rule, used by
// at-rules nested in style rules so that declarations have a home.
func (v *Visitor) inStyleRuleCopy(fn func() error) error {
	cp := css.Copy(v.currentStyleRule()).(*css.RuleSet)
	cp.Media = v.mediaKey()
	return v.withParent(cp, nil, false, fn)
}

// withFrame pushes invocation frame, errors leaving the innermost frame get
// the stack trace attached.
func (v *Visitor) withFrame(name string, span codemap.Span, fn func() error) error {
	if len(v.stack) >= v.opts.MaxDepth {
		return diag.At(diag.StackDepth, span, "Stack depth exceeded.")
	}
	v.stack = append(v.stack, diag.Frame{Name: name, Span: span})
	err := fn()
	if err != nil {
		var de *diag.Error
		if errors.As(err, &de) && de.Trace == nil {
			de.Trace = make([]diag.Frame, len(v.stack))
			for i, f := range v.stack {
				de.Trace[len(v.stack)-1-i] = f
			}
		}
	}
	v.stack = v.stack[:len(v.stack)-1]
	return err
}

func (v *Visitor) styleRuleStmt(n *ast.StyleRule) error {
	if v.declName != "" {
		return diag.At(diag.ParseError, n.Span, "Style rules may not be used within nested declarations.")
	}
	text, err := v.interpolate(n.Selector, true)
	if err != nil {
		return err
	}

	if v.inKeyframes {
		rule := &css.KeyframesRuleSet{Base: css.Base{Span: n.Span}, Selector: keyframeSelectors(text)}
		return v.withParent(rule, isStyleRule, true, func() error { return v.children(n.Body) })
	}

	parsed, err := selector.Parse(text, !v.plain, !v.plain)
	if err != nil {
		return diag.WithSpan(err, n.Selector.Span)
	}
	var parentSel *selector.List
	if v.styleRule != nil {
		parentSel = v.styleRule.Origin
	}
	resolved, err := parsed.Resolve(parentSel, !v.atRootExcludingStyleRule)
	if err != nil {
		return diag.WithSpan(err, n.Selector.Span)
	}
	rule := &css.RuleSet{Base: css.Base{Span: n.Span}, Selector: resolved, Origin: resolved, Media: v.mediaKey()}

	oldExcluding, oldRule := v.atRootExcludingStyleRule, v.styleRule
	v.atRootExcludingStyleRule = false
	err = v.withParent(rule, isStyleRule, true, func() error {
		v.styleRule = rule
		defer func() { v.styleRule = oldRule }()
		return v.children(n.Body)
	})
	v.atRootExcludingStyleRule = oldExcluding
	if err != nil {
		return err
	}

	if v.currentStyleRule() == nil {
		if kids := v.parent.Children(); len(kids) > 0 {
			kids[len(kids)-1].SetGroupEnd(true)
		}
	}
	return nil
}

func keyframeSelectors(text string) []string {
	parts := strings.Split(text, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}

func (v *Visitor) declaration(n *ast.Declaration) error {
	if v.currentStyleRule() == nil && !v.inUnknownAtRule && !v.inKeyframes {
		return diag.At(diag.ParseError, n.Span, "Declarations may only be used within style rules.")
	}
	if v.declName != "" && n.IsCustom {
		return diag.At(diag.ParseError, n.Span, "Declarations whose names begin with \"--\" may not be nested.")
	}
	name, err := v.interpolate(n.Name, false)
	if err != nil {
		return err
	}
	if v.declName != "" {
		name = v.declName + "-" + name
	}

	if n.Value != nil {
		val, err := v.expr(n.Value)
		if err != nil {
			return err
		}
		valueSpan := n.ValueSpan
		if valueSpan.IsZero() {
			valueSpan = n.Value.Pos()
		}
		switch {
		case !value.IsBlank(val) || isEmptyList(val):
			if !n.IsCustom {
				if _, err := value.ToCSS(val, false); err != nil {
					return diag.WithSpan(err, valueSpan)
				}
			}
			v.parent.Append(&css.Style{Base: css.Base{Span: n.Span}, Name: name, Value: val, Custom: n.IsCustom})
		case strings.HasPrefix(name, "--"):
			return diag.At(diag.ParseError, valueSpan, "Custom property values may not be empty.")
		}
	}

	if len(n.Body) > 0 {
		old := v.declName
		v.declName = name
		defer func() { v.declName = old }()
		return v.env.Scoped(false, func() error { return v.children(n.Body) })
	}
	return nil
}

func isEmptyList(val value.Value) bool {
	l, ok := val.(value.List)
	return ok && len(l.Items) == 0
}

func (v *Visitor) variableDecl(n *ast.VariableDecl) error {
	if n.Default {
		if n.Namespace == "" && v.env.AtRoot() {
			if cv, ok := v.config.remove(n.Name); ok && !value.IsNull(cv.value) {
				return diag.WithSpan(v.env.SetVar(n.Name, cv.value, true), n.Span)
			}
		}
		cur, err := v.optionalVar(n.Namespace, n.Name)
		if err != nil {
			return diag.WithSpan(err, n.Span)
		}
		if cur != nil && !value.IsNull(cur) {
			return nil
		}
	}

	val, err := v.expr(n.Value)
	if err != nil {
		return err
	}
	val = withoutSlash(val)
	if n.Namespace != "" {
		return diag.WithSpan(v.env.SetNamespaceVar(n.Namespace, n.Name, val), n.Span)
	}
	return diag.WithSpan(v.env.SetVar(n.Name, val, n.Global), n.Span)
}

// optionalVar returns nil for variables that do not exist.
func (v *Visitor) optionalVar(ns, name string) (value.Value, error) {
	if ns != "" {
		m, err := v.env.Namespace(ns)
		if err != nil {
			return nil, err
		}
		val, _ := m.Var(name)
		return val, nil
	}
	if !v.env.HasVar(name) {
		return nil, nil
	}
	return v.env.Var(name)
}

func (v *Visitor) mediaRule(n *ast.MediaRule) error {
	if v.declName != "" {
		return diag.At(diag.ParseError, n.Span, "Media rules may not be used within nested declarations.")
	}
	text, err := v.interpolate(n.Query, true)
	if err != nil {
		return err
	}
	queries, err := css.ParseMediaQueries(text)
	if err != nil {
		return diag.WithSpan(err, n.Query.Span)
	}
	return v.withMedia(queries, n.Span, func() error { return v.children(n.Body) })
}

// withMedia runs fn inside @media merged with the enclosing queries.
func (v *Visitor) withMedia(queries []css.MediaQuery, span codemap.Span, fn func() error) error {
	use := queries
	var sources []css.MediaQuery
	if v.media != nil {
		if merged, ok := css.MergeMediaQueries(v.media, queries); ok {
			if len(merged) == 0 {
				return nil
			}
			use = merged
			sources = appendQueries(appendQueries(slices.Clone(v.mediaSources), v.media), queries)
		}
	}

	through := func(p css.Parent) bool {
		if isStyleRule(p) {
			return true
		}
		m, ok := p.(*css.Media)
		return ok && len(sources) > 0 && allQueriesIn(m.Queries, sources)
	}
	rule := &css.Media{Base: css.Base{Span: span}, Queries: use}
	return v.withParent(rule, through, true, func() error {
		oldMedia, oldSources := v.media, v.mediaSources
		v.media, v.mediaSources = use, sources
		defer func() { v.media, v.mediaSources = oldMedia, oldSources }()
		if v.currentStyleRule() != nil {
			return v.inStyleRuleCopy(fn)
		}
		return fn()
	})
}

func containsQuery(qs []css.MediaQuery, q css.MediaQuery) bool {
	return slices.ContainsFunc(qs, func(o css.MediaQuery) bool {
		return css.EqualMediaQueries([]css.MediaQuery{o}, []css.MediaQuery{q})
	})
}

func appendQueries(set, qs []css.MediaQuery) []css.MediaQuery {
	for _, q := range qs {
		if !containsQuery(set, q) {
			set = append(set, q)
		}
	}
	return set
}

func allQueriesIn(qs, set []css.MediaQuery) bool {
	for _, q := range qs {
		if !containsQuery(set, q) {
			return false
		}
	}
	return true
}

func (v *Visitor) supportsRule(n *ast.SupportsRule) error {
	if v.declName != "" {
		return diag.At(diag.ParseError, n.Span, "Supports rules may not be used within nested declarations.")
	}
	cond, err := v.interpolate(n.Condition, true)
	if err != nil {
		return err
	}
	rule := &css.Supports{Base: css.Base{Span: n.Span}, Condition: cond}
	return v.withParent(rule, isStyleRule, true, func() error {
		if v.currentStyleRule() != nil {
			return v.inStyleRuleCopy(func() error { return v.children(n.Body) })
		}
		return v.children(n.Body)
	})
}

// unvendor strips vendor prefix, "-webkit-keyframes" becomes "keyframes".
func unvendor(name string) string {
	if len(name) < 2 || name[0] != '-' || name[1] == '-' {
		return name
	}
	if i := strings.IndexByte(name[2:], '-'); i >= 0 {
		return name[i+3:]
	}
	return name
}

func (v *Visitor) atRule(n *ast.AtRule) error {
	if v.declName != "" {
		return diag.At(diag.ParseError, n.Span, "At-rules may not be used within nested declarations.")
	}
	name, err := v.interpolate(n.Name, false)
	if err != nil {
		return err
	}
	params := ""
	if n.Params != nil {
		if params, err = v.interpolate(n.Params, true); err != nil {
			return err
		}
	}
	if !n.HasBody {
		v.parent.Append(&css.AtRule{Base: css.Base{Span: n.Span}, Name: name, Params: params})
		return nil
	}

	wasInKeyframes, wasInUnknown := v.inKeyframes, v.inUnknownAtRule
	defer func() { v.inKeyframes, v.inUnknownAtRule = wasInKeyframes, wasInUnknown }()

	var node css.Parent
	if unvendor(name) == "keyframes" {
		v.inKeyframes = true
		node = &css.Keyframes{Base: css.Base{Span: n.Span}, Name: name, Params: params}
	} else {
		v.inUnknownAtRule = true
		node = &css.AtRule{Base: css.Base{Span: n.Span}, Name: name, Params: params, HasBody: true}
	}
	return v.withParent(node, isStyleRule, true, func() error {
		if v.currentStyleRule() == nil || v.inKeyframes || name == "font-face" {
			return v.children(n.Body)
		}
		return v.inStyleRuleCopy(func() error { return v.children(n.Body) })
	})
}

func (v *Visitor) loudComment(n *ast.LoudComment) error {
	if v.inFunction {
		return nil
	}
	if v.parent == css.Parent(v.root) && v.endOfImports == len(v.root.Body) {
		v.endOfImports++
	}
	text, err := v.interpolate(n.Text, false)
	if err != nil {
		return err
	}
	if !strings.HasSuffix(text, "*/") {
		text += " */"
	}
	col := 0
	if loc, ok := v.files.LookUp(n.Span); ok {
		col = loc.Col - 1
	}
	v.parent.Append(&css.Comment{Base: css.Base{Span: n.Span}, Text: text, Column: col})
	return nil
}

func (v *Visitor) extendRule(n *ast.ExtendRule) error {
	rule := v.currentStyleRule()
	if rule == nil || v.declName != "" {
		return diag.At(diag.ParseError, n.Span, "@extend may only be used within style rules.")
	}
	text, err := v.interpolate(n.Selector, true)
	if err != nil {
		return err
	}
	list, err := selector.Parse(text, false, true)
	if err != nil {
		return diag.WithSpan(err, n.Selector.Span)
	}
	for _, complex := range list.Complex {
		if len(complex.Components) != 1 {
			return diag.At(diag.ParseError, n.Selector.Span, "complex selectors may not be extended.")
		}
		compound, ok := complex.Components[0].(*selector.Compound)
		if !ok {
			return diag.At(diag.ParseError, n.Selector.Span, "complex selectors may not be extended.")
		}
		if len(compound.Simple) != 1 {
			parts := make([]string, 0, len(compound.Simple))
			for _, s := range compound.Simple {
				parts = append(parts, selector.SimpleString(s))
			}
			return diag.At(diag.ParseError, n.Selector.Span,
				"compound selectors may no longer be extended.\nConsider `@extend %s` instead.\nSee https://sass-lang.com/d/extend-compound for details.\n",
				strings.Join(parts, ", "))
		}
		v.extender.Add(rule.Origin, compound.Simple[0], v.mediaKey(), n.Optional, n.Span)
	}
	return nil
}

func (v *Visitor) where(span codemap.Span) string {
	loc, ok := v.files.LookUp(span)
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%s:%d", loc.File, loc.Line)
}

func (v *Visitor) debugRule(n *ast.DebugRule) error {
	val, err := v.expr(n.Value)
	if err != nil {
		return err
	}
	if v.opts.Quiet {
		return nil
	}
	msg := value.Inspect(val)
	if s, ok := val.(value.String); ok {
		msg = s.Text
	}
	v.log.Debug(fmt.Sprintf("%s DEBUG: %s", v.where(n.Span), msg))
	return nil
}

func (v *Visitor) warnRule(n *ast.WarnRule) error {
	val, err := v.expr(n.Value)
	if err != nil {
		return err
	}
	if v.opts.Quiet {
		return nil
	}
	msg := ""
	if s, ok := val.(value.String); ok {
		msg = s.Text
	} else if msg, err = value.ToCSS(val, false); err != nil {
		return diag.WithSpan(err, n.Value.Pos())
	}
	fields := []zap.Field{zap.String("at", v.where(n.Span))}
	if len(v.stack) > 0 {
		names := make([]string, 0, len(v.stack))
		for i := len(v.stack) - 1; i >= 0; i-- {
			names = append(names, v.stack[i].Name+" at "+v.where(v.stack[i].Span))
		}
		fields = append(fields, zap.Strings("stack", names))
	}
	v.log.Warn("WARNING: "+msg, fields...)
	return nil
}

func (v *Visitor) errorRule(n *ast.ErrorRule) error {
	val, err := v.expr(n.Value)
	if err != nil {
		return err
	}
	return diag.At(diag.UserError, n.Span, "%s", value.Inspect(val))
}
