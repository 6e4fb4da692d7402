package selector

import (
	"slices"

	"sassy/diag"
)

// Resolve combines list nested inside parent. Every & is replaced by each
// parent complex selector, selectors without & are joined to the parent with
// a descendant combinator when implicitParent is set. Result order is parent
// major and duplicates are kept.
func (l *List) Resolve(parent *List, implicitParent bool) (*List, error) {
	if parent == nil {
		if l.HasParent() {
			return nil, diag.New(diag.ParseError, "Top-level selectors may not contain the parent selector \"&\".")
		}
		return l, nil
	}

	groups := make([][]*Complex, 0, len(l.Complex))
	for _, complex := range l.Complex {
		if !complex.hasParent() {
			if !implicitParent {
				groups = append(groups, []*Complex{complex})
				continue
			}
			joined := make([]*Complex, 0, len(parent.Complex))
			for _, pc := range parent.Complex {
				joined = append(joined, &Complex{
					Components: append(slices.Clone(pc.Components), complex.Components...),
					LineBreak:  complex.LineBreak || pc.LineBreak,
				})
			}
			groups = append(groups, joined)
			continue
		}

		acc := [][]Component{{}}
		lineBreaks := []bool{false}
		for _, comp := range complex.Components {
			compound, ok := comp.(*Compound)
			if !ok {
				for i := range acc {
					acc[i] = append(acc[i], comp)
				}
				continue
			}
			resolved, err := compound.resolve(parent)
			if err != nil {
				return nil, err
			}
			if resolved == nil {
				for i := range acc {
					acc[i] = append(acc[i], compound)
				}
				continue
			}
			next := make([][]Component, 0, len(acc)*len(resolved))
			nextBreaks := make([]bool, 0, len(acc)*len(resolved))
			for i, prefix := range acc {
				for _, r := range resolved {
					next = append(next, append(slices.Clone(prefix), r.Components...))
					nextBreaks = append(nextBreaks, lineBreaks[i] || r.LineBreak)
				}
			}
			acc, lineBreaks = next, nextBreaks
		}
		group := make([]*Complex, 0, len(acc))
		for i, comps := range acc {
			group = append(group, &Complex{Components: comps, LineBreak: complex.LineBreak || lineBreaks[i]})
		}
		groups = append(groups, group)
	}
	return &List{Complex: flattenVertically(groups)}, nil
}

// flattenVertically takes first elements of every group, then second ones
// and so on.
func flattenVertically(groups [][]*Complex) []*Complex {
	var out []*Complex
	for i := 0; ; i++ {
		taken := false
		for _, g := range groups {
			if i < len(g) {
				out = append(out, g[i])
				taken = true
			}
		}
		if !taken {
			return out
		}
	}
}

func (c *Complex) hasParent() bool {
	for _, comp := range c.Components {
		if cc, ok := comp.(*Compound); ok && cc.hasParent() {
			return true
		}
	}
	return false
}

// resolve returns nil if compound does not reference parent at all.
func (c *Compound) resolve(parent *List) ([]*Complex, error) {
	hasPseudoParent := false
	for _, s := range c.Simple {
		if ps, ok := s.(Pseudo); ok && ps.Selector != nil && ps.Selector.HasParent() {
			hasPseudoParent = true
			break
		}
	}
	ref, isParent := Simple(nil), false
	if len(c.Simple) > 0 {
		ref = c.Simple[0]
		_, isParent = ref.(Parent)
	}
	if !hasPseudoParent && !isParent {
		return nil, nil
	}

	members := c.Simple
	if hasPseudoParent {
		members = make([]Simple, len(c.Simple))
		for i, s := range c.Simple {
			ps, ok := s.(Pseudo)
			if ok && ps.Selector != nil && ps.Selector.HasParent() {
				sel, err := ps.Selector.Resolve(parent, false)
				if err != nil {
					return nil, err
				}
				ps.Selector = sel
				s = ps
			}
			members[i] = s
		}
	}
	if !isParent {
		return []*Complex{{Components: []Component{&Compound{Simple: members}}}}, nil
	}

	p := ref.(Parent)
	if len(members) == 1 && p.Suffix == "" {
		return parent.Clone().Complex, nil
	}

	out := make([]*Complex, 0, len(parent.Complex))
	for _, pc := range parent.Complex {
		last := pc.LastCompound()
		if last == nil {
			return nil, diag.New(diag.ParseError, "Parent \"%s\" is incompatible with this selector.", pc.String())
		}
		simples := slices.Clone(last.Simple)
		if p.Suffix != "" {
			suffixed, err := addSuffix(simples[len(simples)-1], p.Suffix)
			if err != nil {
				return nil, diag.New(diag.ParseError, "Parent \"%s\" is incompatible with this selector.", pc.String())
			}
			simples[len(simples)-1] = suffixed
		}
		simples = append(simples, members[1:]...)
		comps := slices.Clone(pc.Components)
		comps[len(comps)-1] = &Compound{Simple: simples}
		out = append(out, &Complex{Components: comps, LineBreak: pc.LineBreak})
	}
	return out, nil
}

func addSuffix(s Simple, suffix string) (Simple, error) {
	switch t := s.(type) {
	case Type:
		t.Name += suffix
		return t, nil
	case Class:
		t.Name += suffix
		return t, nil
	case ID:
		t.Name += suffix
		return t, nil
	case Placeholder:
		t.Name += suffix
		return t, nil
	case Pseudo:
		if t.Arg == "" && t.Selector == nil {
			t.Name += suffix
			return t, nil
		}
	}
	return nil, diag.New(diag.ParseError, "Invalid parent selector")
}

// Replace drops parent context: & is resolved against parent but selectors
// without & are left alone. Used by @at-root when nesting is shallow.
func (l *List) Replace(parent *List) (*List, error) {
	return l.Resolve(parent, false)
}
