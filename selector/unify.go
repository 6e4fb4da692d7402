package selector

import (
	"slices"

	"sassy/diag"
)

// unifyCompound merges simple selectors of ext into base, returns nil when
// the result can never match anything.
func unifyCompound(ext, base []Simple) []Simple {
	result := slices.Clone(base)
	for _, s := range ext {
		result = unifySimple(s, result)
		if result == nil {
			return nil
		}
	}
	return result
}

func isPseudoElement(s Simple) bool {
	p, ok := s.(Pseudo)
	return ok && p.Element
}

func unifySimple(s Simple, compound []Simple) []Simple {
	switch t := s.(type) {
	case Type, Universal:
		if len(compound) > 0 {
			switch compound[0].(type) {
			case Type, Universal:
				u := unifyTypes(t, compound[0])
				if u == nil {
					return nil
				}
				return append([]Simple{u}, compound[1:]...)
			}
		}
		if u, ok := t.(Universal); ok && (u.Namespace == nil || *u.Namespace == "*") && len(compound) > 0 {
			return compound
		}
		return append([]Simple{s}, compound...)
	case ID:
		for _, c := range compound {
			if id, ok := c.(ID); ok && id != t {
				return nil
			}
		}
	case Pseudo:
		if t.Element {
			for _, c := range compound {
				if isPseudoElement(c) && !c.equal(s) {
					return nil
				}
			}
		}
	}

	if slices.ContainsFunc(compound, s.equal) {
		return compound
	}
	result := make([]Simple, 0, len(compound)+1)
	added := false
	for _, c := range compound {
		if !added {
			_, cIsPseudo := c.(Pseudo)
			sp, sIsPseudo := s.(Pseudo)
			switch {
			case !sIsPseudo && cIsPseudo,
				sIsPseudo && !sp.Element && isPseudoElement(c):
				result = append(result, s)
				added = true
			}
		}
		result = append(result, c)
	}
	if !added {
		result = append(result, s)
	}
	return result
}

func unifyNS(a, b *string) (*string, bool) {
	switch {
	case a == nil || *a == "*":
		return b, true
	case b == nil || *b == "*":
		return a, true
	case *a == *b:
		return a, true
	}
	return nil, false
}

func typeParts(s Simple) (ns *string, name string, universal bool) {
	switch t := s.(type) {
	case Type:
		return t.Namespace, t.Name, false
	case Universal:
		return t.Namespace, "", true
	}
	return nil, "", true
}

func unifyTypes(a, b Simple) Simple {
	ns1, n1, u1 := typeParts(a)
	ns2, n2, u2 := typeParts(b)
	ns, ok := unifyNS(ns1, ns2)
	if !ok {
		return nil
	}
	switch {
	case u1 && u2:
		return Universal{Namespace: ns}
	case u1:
		return Type{Namespace: ns, Name: n2}
	case u2:
		return Type{Namespace: ns, Name: n1}
	case n1 == n2:
		return Type{Namespace: ns, Name: n1}
	}
	return nil
}

// Unify returns selector matching elements matched by both lists, nil when
// no such selector exists.
func Unify(a, b *List) *List {
	out := &List{}
	for _, c1 := range a.Complex {
		for _, c2 := range b.Complex {
			for _, c := range unifyComplex(c1, c2) {
				out.Complex = appendUnique(out.Complex, c)
			}
		}
	}
	if len(out.Complex) == 0 {
		return nil
	}
	return out
}

func unifyComplex(c1, c2 *Complex) []*Complex {
	l1, l2 := c1.LastCompound(), c2.LastCompound()
	if l1 == nil || l2 == nil {
		return nil
	}
	unified := unifyCompound(l2.Simple, l1.Simple)
	if unified == nil {
		return nil
	}
	p1 := c1.Components[:len(c1.Components)-1]
	p2 := c2.Components[:len(c2.Components)-1]
	var out []*Complex
	for _, prefix := range weave(p1, p2) {
		comps := append(slices.Clone(prefix), &Compound{Simple: unified})
		out = append(out, &Complex{Components: comps})
	}
	return out
}

// UnifyCompounds unifies two compound selectors, nil if impossible.
func UnifyCompounds(a, b *Compound) *Compound {
	s := unifyCompound(b.Simple, a.Simple)
	if s == nil {
		return nil
	}
	return &Compound{Simple: s}
}

// IsSuperselector reports whether a matches every element b matches.
func IsSuperselector(a, b *List) bool {
	for _, c2 := range b.Complex {
		if !slices.ContainsFunc(a.Complex, func(c1 *Complex) bool { return complexIsSuper(c1, c2) }) {
			return false
		}
	}
	return true
}

func complexIsSuper(c1, c2 *Complex) bool {
	l1, l2 := c1.LastCompound(), c2.LastCompound()
	if l1 == nil || l2 == nil || !compoundIsSuper(l1, l2) {
		return false
	}
	return prefixIsSuper(c1.Components[:len(c1.Components)-1], c2.Components[:len(c2.Components)-1])
}

// prefixIsSuper matches context of the last compounds. Both slices are
// prefixes left after removing the final compound, so they end either with a
// combinator or with a compound (descendant).
func prefixIsSuper(a, b []Component) bool {
	if len(a) == 0 {
		return true
	}
	if len(b) == 0 {
		return false
	}
	combA, restA := splitCombinator(a)
	combB, restB := splitCombinator(b)
	if len(restA) == 0 {
		// dangling combinator
		return false
	}
	lastA, ok := restA[len(restA)-1].(*Compound)
	if !ok {
		return false
	}
	restA = restA[:len(restA)-1]

	if combA != "" {
		if combA != combB || len(restB) == 0 {
			return false
		}
		lastB, ok := restB[len(restB)-1].(*Compound)
		if !ok || !compoundIsSuper(lastA, lastB) {
			return false
		}
		return prefixIsSuper(restA, restB[:len(restB)-1])
	}

	// descendant in a matches any ancestor in b
	for j := len(restB) - 1; j >= 0; j-- {
		lastB, ok := restB[j].(*Compound)
		if !ok || !compoundIsSuper(lastA, lastB) {
			continue
		}
		if prefixIsSuper(restA, restB[:j]) {
			return true
		}
	}
	return false
}

func splitCombinator(comps []Component) (Combinator, []Component) {
	if c, ok := comps[len(comps)-1].(Combinator); ok {
		return c, comps[:len(comps)-1]
	}
	return "", comps
}

func compoundIsSuper(a, b *Compound) bool {
	for _, s := range a.Simple {
		switch t := s.(type) {
		case Universal:
			if t.Namespace == nil || *t.Namespace == "*" {
				continue
			}
		case Pseudo:
			if t.Selector != nil && !t.Element {
				switch t.NormalizedName() {
				case "is", "matches", "any", "where":
					if pseudoArgSuper(t, b) {
						continue
					}
				}
			}
		}
		if !b.Has(s) {
			return false
		}
	}
	for _, s := range b.Simple {
		if isPseudoElement(s) && !a.Has(s) {
			return false
		}
	}
	return true
}

func pseudoArgSuper(p Pseudo, b *Compound) bool {
	single := &List{Complex: []*Complex{{Components: []Component{b}}}}
	return IsSuperselector(p.Selector, single)
}

// SimpleSelectors lists simple selectors of compound as text.
func (c *Compound) SimpleSelectors() []string {
	out := make([]string, 0, len(c.Simple))
	for _, s := range c.Simple {
		out = append(out, SimpleString(s))
	}
	return out
}

// Append joins a and b without descendant combinator: "a" + ".b" is "a.b".
func Append(a, b *List) (*List, error) {
	out := &List{}
	for _, pc := range a.Complex {
		for _, cc := range b.Complex {
			first, ok := cc.Components[0].(*Compound)
			if !ok {
				return nil, errCantAppend(cc, pc)
			}
			last := pc.LastCompound()
			if last == nil {
				return nil, errCantAppend(cc, pc)
			}
			s := first.Simple
			if len(s) > 0 {
				if _, isType := s[0].(Type); isType && len(s) >= 1 {
					suffixed, err := addSuffix(last.Simple[len(last.Simple)-1], s[0].(Type).Name)
					if err != nil {
						return nil, errCantAppend(cc, pc)
					}
					merged := append(slices.Clone(last.Simple[:len(last.Simple)-1]), suffixed)
					merged = append(merged, s[1:]...)
					out.Complex = append(out.Complex, joinLast(pc, merged, cc))
					continue
				}
				if _, isUniversal := s[0].(Universal); isUniversal {
					return nil, errCantAppend(cc, pc)
				}
			}
			merged := append(slices.Clone(last.Simple), s...)
			out.Complex = append(out.Complex, joinLast(pc, merged, cc))
		}
	}
	return out, nil
}

func joinLast(parent *Complex, merged []Simple, child *Complex) *Complex {
	comps := slices.Clone(parent.Components[:len(parent.Components)-1])
	comps = append(comps, &Compound{Simple: merged})
	comps = append(comps, child.Components[1:]...)
	return &Complex{Components: comps}
}

func errCantAppend(child, parent *Complex) error {
	return diag.New(diag.TypeError, "Can't append %s to %s.", child.String(), parent.String())
}
