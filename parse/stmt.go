package parse

import (
	"strings"

	"sassy/ast"
)

func (p *parser) statements(root bool) ([]ast.Stmt, error) {
	var out []ast.Stmt
	for {
		p.wsNoComments()
		if p.s.EOF() {
			if !root {
				return nil, p.s.Errorf(`expected "}".`)
			}
			return out, nil
		}
		lo := p.s.Pos()
		var (
			st  ast.Stmt
			err error
		)
		c := p.s.Peek(0)
		switch {
		case c == '}':
			if root {
				return nil, p.s.Errorf(`unmatched "}".`)
			}
			return out, nil
		case c == ';':
			p.s.Move(1)
			continue
		case c == '/' && p.s.Peek(1) == '/' && !p.plain:
			text := p.silentComment()
			st = &ast.SilentComment{Node: ast.At(p.s.Span(lo)), Text: text}
		case c == '/' && p.s.Peek(1) == '*':
			st, err = p.loudComment()
		case c == '$' && p.plain:
			if _, err := p.variableName(); err != nil {
				return nil, err
			}
			return nil, p.s.ErrorAt(lo, p.s.Pos(), "Sass variables aren't allowed in plain CSS.")
		case c == '$':
			st, err = p.variableDecl(lo, "")
		case c == '@':
			st, err = p.atRule(root)
		default:
			if ns, ok := p.namespacedVariable(); ok {
				st, err = p.variableDecl(lo, ns)
				break
			}
			st, err = p.declarationOrStyleRule()
		}
		if err != nil {
			return nil, err
		}
		if st != nil {
			out = append(out, st)
		}
	}
}

// block parses { statements }.
func (p *parser) block() ([]ast.Stmt, error) {
	p.ws()
	if err := p.expectByte('{'); err != nil {
		return nil, err
	}
	body, err := p.statements(false)
	if err != nil {
		return nil, err
	}
	if err := p.expectByte('}'); err != nil {
		return nil, err
	}
	return body, nil
}

// endStatement consumes terminating semicolon, closing brace and end of input
// terminate statement as well.
func (p *parser) endStatement() error {
	p.ws()
	switch {
	case p.s.EOF(), p.s.Peek(0) == '}':
		return nil
	case p.s.Peek(0) == ';':
		p.s.Move(1)
		return nil
	}
	return p.s.Errorf(`expected ";".`)
}

func (p *parser) loudComment() (ast.Stmt, error) {
	lo := p.s.Pos()
	interp := &ast.Interpolation{}
	var text strings.Builder
	text.WriteString("/*")
	p.s.Move(2)
	for {
		if p.s.EOF() {
			return nil, p.s.ErrorAt(lo, p.s.Pos(), `expected more input.`)
		}
		switch {
		case p.s.Scan("*/"):
			text.WriteString("*/")
			interp.Add(text.String())
			interp.Node = ast.At(p.s.Span(lo))
			return &ast.LoudComment{Node: ast.At(p.s.Span(lo)), Text: interp}, nil
		case p.s.Peek(0) == '#' && p.s.Peek(1) == '{' && !p.plain:
			interp.Add(text.String())
			text.Reset()
			e, err := p.interpolationExpr()
			if err != nil {
				return nil, err
			}
			interp.Add(e)
		default:
			text.WriteByte(p.s.Next())
		}
	}
}

// namespacedVariable detects ns.$name at cursor and consumes ns. part.
func (p *parser) namespacedVariable() (string, bool) {
	if p.plain || !p.lookingAtIdentifier(0) {
		return "", false
	}
	start := p.s.Pos()
	ns, err := p.identifier()
	if err == nil && p.s.Peek(0) == '.' && p.s.Peek(1) == '$' {
		p.s.Move(1)
		return ns, true
	}
	p.s.Rewind(start)
	return "", false
}

func (p *parser) variableDecl(lo int, ns string) (ast.Stmt, error) {
	name, err := p.variableName()
	if err != nil {
		return nil, err
	}
	p.ws()
	if err := p.expectByte(':'); err != nil {
		return nil, err
	}
	p.ws()
	val, err := p.expressionList()
	if err != nil {
		return nil, err
	}
	decl := &ast.VariableDecl{Namespace: ns, Name: name, Value: val}
	for {
		p.ws()
		if p.s.Peek(0) != '!' {
			break
		}
		flo := p.s.Pos()
		p.s.Move(1)
		switch {
		case p.scanWord("default"):
			decl.Default = true
		case p.scanWord("global"):
			if ns != "" {
				return nil, p.s.ErrorAt(flo, p.s.Pos(), "!global isn't allowed for variables in other modules.")
			}
			decl.Global = true
		default:
			return nil, p.s.ErrorAt(flo, p.s.Pos(), "Invalid flag name.")
		}
	}
	if err := p.endStatement(); err != nil {
		return nil, err
	}
	decl.Node = ast.At(p.s.Span(lo))
	return decl, nil
}

// lookahead finds first of { ; } at nesting level zero.
func (p *parser) lookahead() byte {
	start := p.s.Pos()
	defer p.s.Rewind(start)
	depth := 0
	for !p.s.EOF() {
		c := p.s.Peek(0)
		switch {
		case c == '"' || c == '\'':
			if p.skipString() != nil {
				return 0
			}
			continue
		case c == '/' && p.s.Peek(1) == '*':
			if p.skipLoudComment() != nil {
				return 0
			}
			continue
		case c == '/' && p.s.Peek(1) == '/' && !p.plain && depth == 0:
			p.silentComment()
			continue
		case c == '\\':
			p.s.Move(2)
			continue
		case c == '#' && p.s.Peek(1) == '{' && !p.plain:
			if _, err := p.interpolationExpr(); err != nil {
				return 0
			}
			continue
		case c == '(' || c == '[':
			depth++
		case c == ')' || c == ']':
			depth--
		case depth <= 0 && (c == '{' || c == ';' || c == '}'):
			return c
		}
		p.s.Move(1)
	}
	return 0
}

// looksLikeNestedProperty is true for "name: {" and "name: value {" forms.
func (p *parser) looksLikeNestedProperty() bool {
	start := p.s.Pos()
	defer p.s.Rewind(start)
	if p.s.Peek(0) == '-' && p.s.Peek(1) == '-' {
		return true
	}
	if _, err := p.interpolatedIdentifier(); err != nil {
		return false
	}
	p.ws()
	if p.s.Peek(0) != ':' {
		return false
	}
	p.s.Move(1)
	c := p.s.Peek(0)
	return isWhitespace(c) || c == '{'
}

func (p *parser) declarationOrStyleRule() (ast.Stmt, error) {
	term := p.lookahead()
	if term == '{' && !p.looksLikeNestedProperty() {
		return p.styleRule()
	}
	if term != '{' && !p.inStyleRule && !p.hasColonAhead() {
		return p.styleRule()
	}
	return p.declaration()
}

// hasColonAhead checks for property-like start of statement.
func (p *parser) hasColonAhead() bool {
	start := p.s.Pos()
	defer p.s.Rewind(start)
	if p.s.Peek(0) == '*' {
		p.s.Move(1)
	}
	if _, err := p.interpolatedIdentifier(); err != nil {
		return false
	}
	p.ws()
	return p.s.Peek(0) == ':'
}

func (p *parser) styleRule() (ast.Stmt, error) {
	lo := p.s.Pos()
	sel, err := p.rawUntil("{;}", false)
	if err != nil {
		return nil, err
	}
	if len(sel.Parts) == 0 {
		return nil, p.s.Errorf("Expected selector.")
	}
	if p.s.Peek(0) != '{' {
		return nil, p.s.Errorf(`expected "{".`)
	}
	saved := p.inStyleRule
	p.inStyleRule = true
	body, err := p.block()
	p.inStyleRule = saved
	if err != nil {
		return nil, err
	}
	return &ast.StyleRule{Node: ast.At(p.s.Span(lo)), Selector: sel, Body: body}, nil
}

func (p *parser) declaration() (ast.Stmt, error) {
	lo := p.s.Pos()
	name := &ast.Interpolation{}
	if p.s.Peek(0) == '*' {
		// *zoom: 1 hack
		name.Add(string(p.s.Next()))
	}
	id, err := p.interpolatedIdentifier()
	if err != nil {
		return nil, err
	}
	for _, part := range id.Parts {
		name.Add(part)
	}
	name.Node = id.Node
	p.ws()
	if err := p.expectByte(':'); err != nil {
		return nil, err
	}
	decl := &ast.Declaration{Name: name}

	if strings.HasPrefix(name.Initial(), "--") {
		decl.IsCustom = true
		vlo := p.s.Pos()
		v, err := p.customValue()
		if err != nil {
			return nil, err
		}
		decl.Value = &ast.StringExpr{Node: ast.At(p.s.Span(vlo)), Text: v}
		decl.ValueSpan = p.s.Span(vlo)
		if err := p.endStatement(); err != nil {
			return nil, err
		}
		decl.Node = ast.At(p.s.Span(lo))
		return decl, nil
	}

	p.ws()
	if p.s.Peek(0) != '{' {
		vlo := p.s.Pos()
		if p.plain {
			raw, err := p.rawUntil(";}", false)
			if err != nil {
				return nil, err
			}
			decl.Value = &ast.StringExpr{Node: ast.At(p.s.Span(vlo)), Text: raw}
		} else {
			v, err := p.expressionList()
			if err != nil {
				return nil, err
			}
			decl.Value = v
		}
		decl.ValueSpan = p.s.Span(vlo)
		p.ws()
	}
	if p.s.Peek(0) == '{' && !p.plain {
		body, err := p.block()
		if err != nil {
			return nil, err
		}
		decl.Body = body
		decl.Node = ast.At(p.s.Span(lo))
		return decl, nil
	}
	if decl.Value == nil {
		return nil, p.s.Errorf("Expected expression.")
	}
	if err := p.endStatement(); err != nil {
		return nil, err
	}
	decl.Node = ast.At(p.s.Span(lo))
	return decl, nil
}

// customValue reads value of custom property keeping it verbatim, braces
// are balanced.
func (p *parser) customValue() (*ast.Interpolation, error) {
	lo := p.s.Pos()
	interp := &ast.Interpolation{}
	var text strings.Builder
	var stack []byte
	for !p.s.EOF() {
		c := p.s.Peek(0)
		if len(stack) == 0 && (c == ';' || c == '}') {
			break
		}
		switch {
		case c == '"' || c == '\'':
			if err := p.rawString(interp, &text); err != nil {
				return nil, err
			}
			continue
		case c == '#' && p.s.Peek(1) == '{' && !p.plain:
			if text.Len() > 0 {
				interp.Add(text.String())
				text.Reset()
			}
			e, err := p.interpolationExpr()
			if err != nil {
				return nil, err
			}
			interp.Add(e)
			continue
		case c == '/' && p.s.Peek(1) == '*':
			clo := p.s.Pos()
			if err := p.skipLoudComment(); err != nil {
				return nil, err
			}
			text.WriteString(p.s.Text(clo, p.s.Pos()))
			continue
		case c == '\\':
			text.WriteString(p.escape())
			continue
		case c == '(':
			stack = append(stack, ')')
		case c == '[':
			stack = append(stack, ']')
		case c == '{':
			stack = append(stack, '}')
		case c == ')' || c == ']' || c == '}':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				return nil, p.s.Errorf(`expected "%c".`, c)
			}
			stack = stack[:len(stack)-1]
		}
		text.WriteByte(p.s.Next())
	}
	if text.Len() > 0 {
		interp.Add(text.String())
	}
	trimInterpolation(interp, true)
	interp.Node = ast.At(p.s.Span(lo))
	if len(interp.Parts) == 0 {
		return nil, p.s.Errorf("Expected token.")
	}
	return interp, nil
}

// ruleEnd moves cursor to the end of at-rule prelude and returns offset
// right after its last non blank byte.
func (p *parser) ruleEnd() int {
	end := p.s.Pos()
	for !p.s.EOF() {
		c := p.s.Peek(0)
		if c == ';' || c == '{' || c == '}' {
			break
		}
		p.s.Move(1)
		if !isWhitespace(c) {
			end = p.s.Pos()
		}
	}
	return end
}

func (p *parser) atRule(root bool) (ast.Stmt, error) {
	lo := p.s.Pos()
	p.s.Move(1)
	nameInterp, err := p.interpolatedIdentifier()
	if err != nil {
		return nil, err
	}
	name, plainName := nameInterp.Plain()
	if !plainName {
		return p.unknownAtRule(lo, nameInterp)
	}
	p.wsNoComments()

	if p.plain {
		switch name {
		case "import":
			return p.importRule(lo)
		case "charset":
			return p.charsetRule(lo)
		case "media":
			return p.mediaRule(lo)
		case "supports":
			return p.supportsRule(lo)
		case "at-root", "content", "debug", "each", "error", "extend", "for",
			"function", "if", "include", "mixin", "return", "warn", "while":
			return nil, p.s.ErrorAt(lo, p.ruleEnd(), "This at-rule isn't allowed in plain CSS.")
		}
		return p.unknownAtRule(lo, nameInterp)
	}

	switch name {
	case "use":
		if !root {
			return nil, p.s.ErrorAt(lo, p.s.Pos(), "This at-rule is not allowed here.")
		}
		return p.useRule(lo)
	case "forward":
		if !root {
			return nil, p.s.ErrorAt(lo, p.s.Pos(), "This at-rule is not allowed here.")
		}
		return p.forwardRule(lo)
	case "import":
		return p.importRule(lo)
	case "charset":
		return p.charsetRule(lo)
	case "mixin":
		return p.mixinRule(lo)
	case "include":
		return p.includeRule(lo)
	case "content":
		return p.contentRule(lo)
	case "function":
		return p.functionRule(lo)
	case "return":
		v, err := p.expressionList()
		if err != nil {
			return nil, err
		}
		if err := p.endStatement(); err != nil {
			return nil, err
		}
		return &ast.ReturnRule{Node: ast.At(p.s.Span(lo)), Value: v}, nil
	case "if":
		return p.ifRule(lo)
	case "else":
		return nil, p.s.ErrorAt(lo, p.s.Pos(), "This at-rule is not allowed here.")
	case "each":
		return p.eachRule(lo)
	case "for":
		return p.forRule(lo)
	case "while":
		cond, err := p.expressionList()
		if err != nil {
			return nil, err
		}
		body, err := p.block()
		if err != nil {
			return nil, err
		}
		return &ast.WhileRule{Node: ast.At(p.s.Span(lo)), Cond: cond, Body: body}, nil
	case "media":
		return p.mediaRule(lo)
	case "supports":
		return p.supportsRule(lo)
	case "at-root":
		return p.atRootRule(lo)
	case "extend":
		return p.extendRule(lo)
	case "debug", "warn", "error":
		v, err := p.expressionList()
		if err != nil {
			return nil, err
		}
		if err := p.endStatement(); err != nil {
			return nil, err
		}
		node := ast.At(p.s.Span(lo))
		switch name {
		case "debug":
			return &ast.DebugRule{Node: node, Value: v}, nil
		case "warn":
			return &ast.WarnRule{Node: node, Value: v}, nil
		}
		return &ast.ErrorRule{Node: node, Value: v}, nil
	}
	return p.unknownAtRule(lo, nameInterp)
}

func (p *parser) unknownAtRule(lo int, name *ast.Interpolation) (ast.Stmt, error) {
	rule := &ast.AtRule{Name: name}
	params, err := p.rawUntil("{;}", true)
	if err != nil {
		return nil, err
	}
	if len(params.Parts) > 0 {
		rule.Params = params
	}
	if p.s.Peek(0) == '{' {
		saved := p.inStyleRule
		// declarations are allowed in @font-face, @page and friends
		p.inStyleRule = true
		body, err := p.block()
		p.inStyleRule = saved
		if err != nil {
			return nil, err
		}
		rule.Body = body
		rule.HasBody = true
	} else if err := p.endStatement(); err != nil {
		return nil, err
	}
	rule.Node = ast.At(p.s.Span(lo))
	return rule, nil
}

func (p *parser) charsetRule(lo int) (ast.Stmt, error) {
	if _, err := p.rawUntil(";}", true); err != nil {
		return nil, err
	}
	if err := p.endStatement(); err != nil {
		return nil, err
	}
	return &ast.CharsetRule{Node: ast.At(p.s.Span(lo))}, nil
}

func (p *parser) mixinRule(lo int) (ast.Stmt, error) {
	name, err := p.identifier()
	if err != nil {
		return nil, err
	}
	p.ws()
	params := &ast.ArgDecl{}
	if p.s.Peek(0) == '(' {
		if params, err = p.argDecl(); err != nil {
			return nil, err
		}
	}
	if p.inMixin {
		return nil, p.s.ErrorAt(lo, p.s.Pos(), "Mixins may not contain mixin declarations.")
	}
	p.inMixin, p.usesContent = true, false
	body, err := p.block()
	uses := p.usesContent
	p.inMixin, p.usesContent = false, false
	if err != nil {
		return nil, err
	}
	return &ast.MixinRule{Node: ast.At(p.s.Span(lo)), Name: normalizeName(name), Params: params, Body: body, UsesContent: uses}, nil
}

func (p *parser) functionRule(lo int) (ast.Stmt, error) {
	name, err := p.identifier()
	if err != nil {
		return nil, err
	}
	p.ws()
	params, err := p.argDecl()
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(name) {
	case "calc", "element", "expression", "url", "and", "or", "not", "clamp":
		return nil, p.s.ErrorAt(lo, p.s.Pos(), "Invalid function name.")
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	return &ast.FunctionRule{Node: ast.At(p.s.Span(lo)), Name: normalizeName(name), Params: params, Body: body}, nil
}

func (p *parser) includeRule(lo int) (ast.Stmt, error) {
	ns := ""
	name, err := p.identifier()
	if err != nil {
		return nil, err
	}
	if p.s.Peek(0) == '.' {
		p.s.Move(1)
		ns = name
		if name, err = p.identifier(); err != nil {
			return nil, err
		}
	}
	rule := &ast.IncludeRule{Namespace: ns, Name: normalizeName(name), Args: &ast.ArgInvocation{}}
	p.ws()
	if p.s.Peek(0) == '(' {
		if rule.Args, err = p.argInvocation(); err != nil {
			return nil, err
		}
	}
	p.ws()
	clo := p.s.Pos()
	var params *ast.ArgDecl
	if p.scanWord("using") {
		p.ws()
		if params, err = p.argDecl(); err != nil {
			return nil, err
		}
		p.ws()
		if p.s.Peek(0) != '{' {
			return nil, p.s.Errorf(`expected "{".`)
		}
	}
	if p.s.Peek(0) == '{' {
		if params == nil {
			params = &ast.ArgDecl{}
		}
		saved := p.inMixin
		savedUses := p.usesContent
		p.inMixin = false
		body, err := p.block()
		p.inMixin, p.usesContent = saved, savedUses
		if err != nil {
			return nil, err
		}
		rule.Content = &ast.ContentBlock{Node: ast.At(p.s.Span(clo)), Params: params, Body: body}
	} else if err := p.endStatement(); err != nil {
		return nil, err
	}
	rule.Node = ast.At(p.s.Span(lo))
	return rule, nil
}

func (p *parser) contentRule(lo int) (ast.Stmt, error) {
	if !p.inMixin {
		return nil, p.s.ErrorAt(lo, p.s.Pos(), "@content is only allowed within mixin declarations.")
	}
	p.usesContent = true
	args := &ast.ArgInvocation{}
	if p.s.Peek(0) == '(' {
		var err error
		if args, err = p.argInvocation(); err != nil {
			return nil, err
		}
	}
	if err := p.endStatement(); err != nil {
		return nil, err
	}
	return &ast.ContentRule{Node: ast.At(p.s.Span(lo)), Args: args}, nil
}

func (p *parser) ifRule(lo int) (ast.Stmt, error) {
	rule := &ast.IfRule{}
	for {
		cond, err := p.expressionList()
		if err != nil {
			return nil, err
		}
		body, err := p.block()
		if err != nil {
			return nil, err
		}
		rule.Clauses = append(rule.Clauses, ast.IfClause{Cond: cond, Body: body})

		mark := p.s.Pos()
		p.ws()
		if !p.s.Scan("@else") {
			p.s.Rewind(mark)
			break
		}
		// @elseif is accepted as @else if
		elseIf := p.scanWord("if")
		if !elseIf {
			p.ws()
			elseIf = p.scanWord("if")
		}
		if elseIf {
			p.ws()
			continue
		}
		body, err = p.block()
		if err != nil {
			return nil, err
		}
		rule.Else = body
		if rule.Else == nil {
			rule.Else = []ast.Stmt{}
		}
		break
	}
	rule.Node = ast.At(p.s.Span(lo))
	return rule, nil
}

func (p *parser) eachRule(lo int) (ast.Stmt, error) {
	var vars []string
	for {
		p.ws()
		v, err := p.variableName()
		if err != nil {
			return nil, err
		}
		vars = append(vars, v)
		p.ws()
		if p.s.Peek(0) != ',' {
			break
		}
		p.s.Move(1)
	}
	if !p.scanWord("in") {
		return nil, p.s.Errorf(`Expected "in".`)
	}
	p.ws()
	list, err := p.expressionList()
	if err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	return &ast.EachRule{Node: ast.At(p.s.Span(lo)), Vars: vars, List: list, Body: body}, nil
}

func (p *parser) forRule(lo int) (ast.Stmt, error) {
	v, err := p.variableName()
	if err != nil {
		return nil, err
	}
	p.ws()
	if !p.scanWord("from") {
		return nil, p.s.Errorf(`Expected "from".`)
	}
	p.ws()
	saved := p.stop
	p.stop = []string{"to", "through"}
	from, err := p.expressionList()
	p.stop = saved
	if err != nil {
		return nil, err
	}
	p.ws()
	rule := &ast.ForRule{Var: v, From: from}
	switch {
	case p.scanWord("through"):
		rule.Inclusive = true
	case p.scanWord("to"):
	default:
		return nil, p.s.Errorf(`Expected "to" or "through".`)
	}
	p.ws()
	if rule.To, err = p.expressionList(); err != nil {
		return nil, err
	}
	if rule.Body, err = p.block(); err != nil {
		return nil, err
	}
	rule.Node = ast.At(p.s.Span(lo))
	return rule, nil
}

func (p *parser) mediaRule(lo int) (ast.Stmt, error) {
	query, err := p.queryInterp("{")
	if err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	return &ast.MediaRule{Node: ast.At(p.s.Span(lo)), Query: query, Body: body}, nil
}

func (p *parser) supportsRule(lo int) (ast.Stmt, error) {
	cond, err := p.queryInterp("{")
	if err != nil {
		return nil, err
	}
	body, err := p.block()
	if err != nil {
		return nil, err
	}
	return &ast.SupportsRule{Node: ast.At(p.s.Span(lo)), Condition: cond, Body: body}, nil
}

func (p *parser) atRootRule(lo int) (ast.Stmt, error) {
	rule := &ast.AtRootRule{}
	p.ws()
	switch p.s.Peek(0) {
	case '(':
		q, err := p.queryInterp("{")
		if err != nil {
			return nil, err
		}
		rule.Query = q
		if rule.Body, err = p.block(); err != nil {
			return nil, err
		}
	case '{':
		body, err := p.block()
		if err != nil {
			return nil, err
		}
		rule.Body = body
	default:
		st, err := p.styleRule()
		if err != nil {
			return nil, err
		}
		rule.Body = []ast.Stmt{st}
	}
	rule.Node = ast.At(p.s.Span(lo))
	return rule, nil
}

func (p *parser) extendRule(lo int) (ast.Stmt, error) {
	sel, err := p.rawUntil("!;}", false)
	if err != nil {
		return nil, err
	}
	if len(sel.Parts) == 0 {
		return nil, p.s.Errorf("Expected selector.")
	}
	rule := &ast.ExtendRule{Selector: sel}
	if p.s.Peek(0) == '!' {
		p.s.Move(1)
		if !p.scanWord("optional") {
			return nil, p.s.Errorf(`Expected "optional".`)
		}
		rule.Optional = true
	}
	if err := p.endStatement(); err != nil {
		return nil, err
	}
	rule.Node = ast.At(p.s.Span(lo))
	return rule, nil
}

// importRule splits arguments of @import into Sass imports and plain CSS
// imports which are kept in output.
func (p *parser) importRule(lo int) (ast.Stmt, error) {
	rule := &ast.ImportRule{}
	for {
		p.ws()
		imp, err := p.importArgument()
		if err != nil {
			return nil, err
		}
		rule.Imports = append(rule.Imports, imp)
		p.ws()
		if p.s.Peek(0) != ',' {
			break
		}
		p.s.Move(1)
	}
	if err := p.endStatement(); err != nil {
		return nil, err
	}
	rule.Node = ast.At(p.s.Span(lo))
	return rule, nil
}

func (p *parser) importArgument() (any, error) {
	lo := p.s.Pos()
	if p.s.LookingAtFold("url(") {
		e, err := p.singleExpression()
		if err != nil {
			return nil, err
		}
		url := exprInterpolation(e)
		return p.staticImport(lo, url)
	}
	c := p.s.Peek(0)
	if c != '"' && c != '\'' {
		return nil, p.s.Errorf("Expected string.")
	}
	text, err := p.plainString()
	if err != nil {
		return nil, err
	}
	hi := p.s.Pos()
	span := p.s.Span(lo)
	mark := p.s.Pos()
	p.ws()
	next := p.s.Peek(0)
	p.s.Rewind(mark)
	if isPlainImportURL(text) || p.plain || next != ',' && next != ';' && next != '}' && !p.s.EOF() {
		url := ast.PlainInterpolation(p.s.Text(lo, hi), span)
		return p.staticImport(lo, url)
	}
	return ast.DynamicImport{URL: text, Span: span}, nil
}

func (p *parser) staticImport(lo int, url *ast.Interpolation) (any, error) {
	p.wsNoComments()
	imp := ast.StaticImport{URL: url}
	c := p.s.Peek(0)
	if c != ',' && c != ';' && c != '}' && !p.s.EOF() {
		mods, err := p.queryInterp(";}")
		if err != nil {
			return nil, err
		}
		imp.Modifiers = mods
	}
	imp.Span = p.s.Span(lo)
	return imp, nil
}

func isPlainImportURL(url string) bool {
	if len(url) < 5 {
		return false
	}
	return strings.HasSuffix(url, ".css") || strings.HasPrefix(url, "http://") ||
		strings.HasPrefix(url, "https://") || strings.HasPrefix(url, "//")
}

func exprInterpolation(e ast.Expr) *ast.Interpolation {
	if s, ok := e.(*ast.StringExpr); ok && !s.Quoted {
		return s.Text
	}
	return &ast.Interpolation{Node: ast.At(e.Pos()), Parts: []any{e}}
}

// plainString reads quoted string without interpolation and decodes escapes.
func (p *parser) plainString() (string, error) {
	lo := p.s.Pos()
	e, err := p.quotedString()
	if err != nil {
		return "", err
	}
	s, ok := e.Text.Plain()
	if !ok {
		return "", p.s.ErrorAt(lo, p.s.Pos(), "Interpolation isn't allowed in plain CSS.")
	}
	return s, nil
}

func (p *parser) useRule(lo int) (ast.Stmt, error) {
	url, err := p.plainString()
	if err != nil {
		return nil, err
	}
	rule := &ast.UseRule{URL: url}
	p.ws()
	if p.scanWord("as") {
		p.ws()
		if p.s.Peek(0) == '*' {
			p.s.Move(1)
			rule.Namespace = "*"
		} else {
			ns, err := p.identifier()
			if err != nil {
				return nil, err
			}
			rule.Namespace = ns
		}
		p.ws()
	}
	if p.scanWord("with") {
		if rule.Config, err = p.configuration(false); err != nil {
			return nil, err
		}
	}
	if err := p.endStatement(); err != nil {
		return nil, err
	}
	rule.Node = ast.At(p.s.Span(lo))
	return rule, nil
}

func (p *parser) forwardRule(lo int) (ast.Stmt, error) {
	url, err := p.plainString()
	if err != nil {
		return nil, err
	}
	rule := &ast.ForwardRule{URL: url}
	p.ws()
	if p.scanWord("as") {
		p.ws()
		prefix, err := p.identifier()
		if err != nil && p.s.Peek(0) != '*' {
			return nil, err
		}
		if err := p.expectByte('*'); err != nil {
			return nil, err
		}
		rule.Prefix = prefix
		p.ws()
	}
	switch {
	case p.scanWord("show"):
		if rule.Show, err = p.memberList(); err != nil {
			return nil, err
		}
	case p.scanWord("hide"):
		if rule.Hide, err = p.memberList(); err != nil {
			return nil, err
		}
	}
	p.ws()
	if p.scanWord("with") {
		if rule.Config, err = p.configuration(true); err != nil {
			return nil, err
		}
	}
	if err := p.endStatement(); err != nil {
		return nil, err
	}
	rule.Node = ast.At(p.s.Span(lo))
	return rule, nil
}

func (p *parser) memberList() ([]string, error) {
	var out []string
	for {
		p.ws()
		if p.s.Peek(0) == '$' {
			name, err := p.variableName()
			if err != nil {
				return nil, err
			}
			out = append(out, "$"+name)
		} else {
			name, err := p.identifier()
			if err != nil {
				return nil, err
			}
			out = append(out, normalizeName(name))
		}
		p.ws()
		if p.s.Peek(0) != ',' {
			return out, nil
		}
		p.s.Move(1)
	}
}

// configuration parses with ($name: value, ...) clause.
func (p *parser) configuration(allowDefault bool) ([]ast.ConfiguredVar, error) {
	p.ws()
	if err := p.expectByte('('); err != nil {
		return nil, err
	}
	var out []ast.ConfiguredVar
	for {
		p.ws()
		if p.s.Peek(0) == ')' {
			break
		}
		vlo := p.s.Pos()
		name, err := p.variableName()
		if err != nil {
			return nil, err
		}
		p.ws()
		if err := p.expectByte(':'); err != nil {
			return nil, err
		}
		p.ws()
		v, err := p.spaceList()
		if err != nil {
			return nil, err
		}
		cv := ast.ConfiguredVar{Name: name, Value: v}
		p.ws()
		if allowDefault && p.s.Scan("!default") {
			cv.Default = true
			p.ws()
		}
		cv.Span = p.s.Span(vlo)
		for _, prev := range out {
			if prev.Name == name {
				return nil, p.s.ErrorAt(vlo, p.s.Pos(), "The same variable may only be configured once.")
			}
		}
		out = append(out, cv)
		if p.s.Peek(0) != ',' {
			break
		}
		p.s.Move(1)
	}
	if err := p.expectByte(')'); err != nil {
		return nil, err
	}
	return out, nil
}

// argDecl parses parameter list of mixin or function.
func (p *parser) argDecl() (*ast.ArgDecl, error) {
	lo := p.s.Pos()
	if err := p.expectByte('('); err != nil {
		return nil, err
	}
	decl := &ast.ArgDecl{}
	seen := map[string]bool{}
	for {
		p.ws()
		if p.s.Peek(0) == ')' {
			break
		}
		plo := p.s.Pos()
		name, err := p.variableName()
		if err != nil {
			return nil, err
		}
		if seen[name] {
			return nil, p.s.ErrorAt(plo, p.s.Pos(), "Duplicate argument.")
		}
		seen[name] = true
		p.ws()
		if p.s.Scan("...") {
			decl.Rest = name
			p.ws()
			p.s.Scan(",")
			p.ws()
			break
		}
		param := ast.Param{Name: name}
		if p.s.Peek(0) == ':' {
			p.s.Move(1)
			p.ws()
			if param.Default, err = p.spaceList(); err != nil {
				return nil, err
			}
		}
		param.Span = p.s.Span(plo)
		decl.Params = append(decl.Params, param)
		p.ws()
		if p.s.Peek(0) != ',' {
			break
		}
		p.s.Move(1)
	}
	if err := p.expectByte(')'); err != nil {
		return nil, err
	}
	decl.Node = ast.At(p.s.Span(lo))
	return decl, nil
}

// argInvocation parses call arguments.
func (p *parser) argInvocation() (*ast.ArgInvocation, error) {
	lo := p.s.Pos()
	if err := p.expectByte('('); err != nil {
		return nil, err
	}
	savedStop, savedEq := p.stop, p.singleEq
	p.stop, p.singleEq = nil, true
	defer func() { p.stop, p.singleEq = savedStop, savedEq }()

	args := &ast.ArgInvocation{}
	for {
		p.ws()
		if p.s.Peek(0) == ')' {
			break
		}
		alo := p.s.Pos()
		if p.s.Peek(0) == '$' {
			name, err := p.variableName()
			if err == nil {
				p.ws()
				if p.s.Peek(0) == ':' {
					p.s.Move(1)
					p.ws()
					v, err := p.spaceList()
					if err != nil {
						return nil, err
					}
					for _, n := range args.Named {
						if n.Name == name {
							return nil, p.s.ErrorAt(alo, p.s.Pos(), "Duplicate argument.")
						}
					}
					args.Named = append(args.Named, ast.NamedArg{Name: name, Value: v})
					p.ws()
					if p.s.Peek(0) != ',' {
						break
					}
					p.s.Move(1)
					continue
				}
			}
			p.s.Rewind(alo)
		}
		v, err := p.spaceList()
		if err != nil {
			return nil, err
		}
		p.ws()
		if p.s.Scan("...") {
			switch {
			case args.Rest == nil:
				args.Rest = v
			case args.KeywordRest == nil:
				args.KeywordRest = v
			default:
				return nil, p.s.ErrorAt(alo, p.s.Pos(), `expected ")".`)
			}
		} else {
			if args.Rest != nil || len(args.Named) > 0 {
				return nil, p.s.ErrorAt(alo, p.s.Pos(), "Positional arguments must come before keyword arguments.")
			}
			args.Positional = append(args.Positional, v)
		}
		p.ws()
		if p.s.Peek(0) != ',' {
			break
		}
		p.s.Move(1)
	}
	if err := p.expectByte(')'); err != nil {
		return nil, err
	}
	args.Node = ast.At(p.s.Span(lo))
	return args, nil
}
