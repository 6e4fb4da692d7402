package evaluate

import (
	"slices"
	"strings"

	"sassy/ast"
	"sassy/css"
	"sassy/diag"
)

// atRootQuery is parsed "(with: ...)" or "(without: ...)" of @at-root.
type atRootQuery struct {
	include bool
	names   []string
}

var defaultAtRootQuery = atRootQuery{names: []string{"rule"}}

func parseAtRootQuery(text string) (atRootQuery, error) {
	s := strings.TrimSpace(text)
	rest, ok := strings.CutPrefix(s, "(")
	if !ok {
		return atRootQuery{}, diag.New(diag.ParseError, `expected "(".`)
	}
	rest = strings.TrimSpace(rest)
	var q atRootQuery
	switch {
	case strings.HasPrefix(strings.ToLower(rest), "without"):
		rest = rest[len("without"):]
	case strings.HasPrefix(strings.ToLower(rest), "with"):
		q.include = true
		rest = rest[len("with"):]
	default:
		return atRootQuery{}, diag.New(diag.ParseError, `expected "with" or "without".`)
	}
	rest = strings.TrimSpace(rest)
	if rest, ok = strings.CutPrefix(rest, ":"); !ok {
		return atRootQuery{}, diag.New(diag.ParseError, `expected ":".`)
	}
	end := strings.IndexByte(rest, ')')
	if end < 0 || strings.TrimSpace(rest[end+1:]) != "" {
		return atRootQuery{}, diag.New(diag.ParseError, `expected ")".`)
	}
	for _, name := range strings.Fields(rest[:end]) {
		q.names = append(q.names, strings.ToLower(name))
	}
	if len(q.names) == 0 {
		return atRootQuery{}, diag.New(diag.ParseError, "Expected identifier.")
	}
	return q, nil
}

func (q atRootQuery) all() bool {
	return slices.Contains(q.names, "all")
}

func (q atRootQuery) excludesName(name string) bool {
	return (q.all() || slices.Contains(q.names, name)) != q.include
}

func (q atRootQuery) excludesStyleRules() bool {
	return (q.all() || slices.Contains(q.names, "rule")) != q.include
}

func (q atRootQuery) excludes(p css.Parent) bool {
	if q.all() {
		return !q.include
	}
	switch t := p.(type) {
	case *css.RuleSet:
		return q.excludesStyleRules()
	case *css.Media:
		return q.excludesName("media")
	case *css.Supports:
		return q.excludesName("supports")
	case *css.AtRule:
		return q.excludesName(strings.ToLower(t.Name))
	case *css.Keyframes:
		return q.excludesName(strings.ToLower(t.Name))
	}
	return false
}

func (v *Visitor) atRoot(n *ast.AtRootRule) error {
	query := defaultAtRootQuery
	if n.Query != nil {
		text, err := v.interpolate(n.Query, true)
		if err != nil {
			return err
		}
		if query, err = parseAtRootQuery(text); err != nil {
			return diag.WithSpan(err, n.Query.Span)
		}
	}

	var included []css.Parent
	for p := v.parent; p != css.Parent(v.root); {
		if !query.excludes(p) {
			included = append(included, p)
		}
		gp, ok := v.parents[p]
		if !ok {
			break
		}
		p = gp
	}
	root := v.trimIncluded(&included)

	run := func() error { return v.children(n.Body) }
	if root == v.parent {
		return v.env.Scoped(false, run)
	}

	inner := root
	if len(included) > 0 {
		inner = css.Copy(included[0])
		outer := inner
		for _, p := range included[1:] {
			cp := css.Copy(p)
			v.appendTo(cp, outer)
			outer = cp
		}
		v.appendTo(root, outer)
	}
	return v.scopeForAtRoot(inner, query, included, run)
}

// trimIncluded finds node the at-root copies go into: the outermost node of
// the innermost contiguous run of included parents reaching the root.
// Included nodes from that one outwards are dropped from the list.
func (v *Visitor) trimIncluded(nodes *[]css.Parent) css.Parent {
	list := *nodes
	if len(list) == 0 {
		return v.root
	}
	parent := v.parent
	innermost := -1
	for i, n := range list {
		for parent != n {
			innermost = -1
			gp, ok := v.parents[parent]
			if !ok {
				return v.root
			}
			parent = gp
		}
		if innermost < 0 {
			innermost = i
		}
		gp, ok := v.parents[parent]
		if !ok {
			return v.root
		}
		parent = gp
	}
	if parent != css.Parent(v.root) {
		return v.root
	}
	root := list[innermost]
	*nodes = list[:innermost]
	return root
}

func (v *Visitor) scopeForAtRoot(newParent css.Parent, q atRootQuery, included []css.Parent, fn func() error) error {
	oldParent := v.parent
	v.parent = newParent
	defer func() { v.parent = oldParent }()

	if q.excludesStyleRules() {
		old := v.atRootExcludingStyleRule
		v.atRootExcludingStyleRule = true
		defer func() { v.atRootExcludingStyleRule = old }()
	}
	if v.media != nil && q.excludesName("media") {
		oldMedia, oldSources := v.media, v.mediaSources
		v.media, v.mediaSources = nil, nil
		defer func() { v.media, v.mediaSources = oldMedia, oldSources }()
	}
	if v.inKeyframes && q.excludesName("keyframes") {
		v.inKeyframes = false
		defer func() { v.inKeyframes = true }()
	}
	if v.inUnknownAtRule && !slices.ContainsFunc(included, func(p css.Parent) bool {
		_, ok := p.(*css.AtRule)
		return ok
	}) {
		v.inUnknownAtRule = false
		defer func() { v.inUnknownAtRule = true }()
	}
	return v.env.Scoped(false, fn)
}
