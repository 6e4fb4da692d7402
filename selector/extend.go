package selector

import (
	"slices"
)

// Extension is single @extend registered with an Extender.
type Extension struct {
	Extender *Complex
	Target   Simple
	// Media identifies media context @extend appeared in, empty when outside
	// of any media query.
	Media    string
	Optional bool
	// Payload is opaque to this package, evaluator keeps source location here.
	Payload any

	used bool
}

// Used reports whether extension matched at least one selector.
func (e *Extension) Used() bool {
	return e.used
}

// Extender collects extensions and rewrites selectors of finished rules.
type Extender struct {
	exts []*Extension
}

// NewExtender creates empty extender.
func NewExtender() *Extender {
	return &Extender{}
}

// Add registers extension of target by every complex selector of extender.
func (e *Extender) Add(extender *List, target Simple, media string, optional bool, payload any) {
	for _, c := range extender.Complex {
		e.exts = append(e.exts, &Extension{Extender: c, Target: target, Media: media, Optional: optional, Payload: payload})
	}
}

// Len returns number of registered extensions.
func (e *Extender) Len() int {
	return len(e.exts)
}

// Unsatisfied returns mandatory extensions that never matched.
func (e *Extender) Unsatisfied() []*Extension {
	var out []*Extension
	seen := map[any]bool{}
	for _, x := range e.exts {
		if x.Optional || x.used {
			continue
		}
		// one report per @extend rule
		if x.Payload != nil {
			key := x.Payload
			if seen[key] {
				continue
			}
			seen[key] = true
		}
		out = append(out, x)
	}
	// an @extend with several extenders is satisfied when any of them matched
	return slices.DeleteFunc(out, func(x *Extension) bool {
		for _, y := range e.exts {
			if y.used && y.Payload != nil && y.Payload == x.Payload && y.Target.equal(x.Target) {
				return true
			}
		}
		return false
	})
}

// maximum chain of transitive extensions followed for one selector
const maxExtendDepth = 16

// Extend returns list with selectors generated by registered extensions
// appended after every original complex selector.
func (e *Extender) Extend(l *List, media string) *List {
	if len(e.exts) == 0 {
		return l
	}
	out := &List{}
	for _, c := range l.Complex {
		out.Complex = appendUnique(out.Complex, c)
		for _, n := range e.extendComplex(c, media, 0) {
			out.Complex = appendUnique(out.Complex, n)
		}
	}
	return out
}

// Replace returns l where complex selectors matching target were replaced by
// their extensions, used by selector.replace().
func (e *Extender) Replace(l *List) *List {
	out := &List{}
	for _, c := range l.Complex {
		ext := e.extendComplex(c, "", maxExtendDepth-1)
		if len(ext) == 0 {
			out.Complex = appendUnique(out.Complex, c)
			continue
		}
		for _, n := range ext {
			out.Complex = appendUnique(out.Complex, n)
		}
	}
	return out
}

func appendUnique(list []*Complex, c *Complex) []*Complex {
	for _, x := range list {
		if x.Equal(c) {
			return list
		}
	}
	return append(list, c)
}

func (e *Extender) extendComplex(c *Complex, media string, depth int) []*Complex {
	if depth >= maxExtendDepth {
		return nil
	}
	var out []*Complex
	for i, comp := range c.Components {
		compound, ok := comp.(*Compound)
		if !ok {
			continue
		}
		for j, s := range compound.Simple {
			for _, x := range e.exts {
				if !x.Target.equal(s) || x.Media != "" && x.Media != media {
					continue
				}
				last := x.Extender.LastCompound()
				if last == nil {
					continue
				}
				rest := slices.Delete(slices.Clone(compound.Simple), j, j+1)
				unified := unifyCompound(last.Simple, rest)
				if unified == nil {
					continue
				}
				x.used = true
				extPrefix := x.Extender.Components[:len(x.Extender.Components)-1]
				for _, prefix := range weave(c.Components[:i], extPrefix) {
					comps := slices.Clone(prefix)
					comps = append(comps, &Compound{Simple: unified})
					comps = append(comps, c.Components[i+1:]...)
					n := &Complex{Components: comps, LineBreak: c.LineBreak || x.Extender.LineBreak}
					if n.Equal(c) || containsComplex(out, n) {
						continue
					}
					out = append(out, n)
					for _, m := range e.extendComplex(n, media, depth+1) {
						if !m.Equal(c) && !containsComplex(out, m) {
							out = append(out, m)
						}
					}
				}
			}
		}
	}
	return out
}

func containsComplex(list []*Complex, c *Complex) bool {
	return slices.ContainsFunc(list, c.Equal)
}

func descendantOnly(comps []Component) bool {
	for _, c := range comps {
		if _, ok := c.(Combinator); ok {
			return false
		}
	}
	return true
}

func sameComponents(a, b []Component) bool {
	return (&Complex{Components: a}).Equal(&Complex{Components: b})
}

// weave merges selector context of original selector and extender. When both
// are plain descendant sequences both interleavings are produced.
func weave(prefix, extPrefix []Component) [][]Component {
	switch {
	case len(extPrefix) == 0:
		return [][]Component{prefix}
	case len(prefix) == 0:
		return [][]Component{extPrefix}
	case sameComponents(prefix, extPrefix):
		return [][]Component{prefix}
	}
	if descendantOnly(prefix) && descendantOnly(extPrefix) {
		a := append(slices.Clone(prefix), extPrefix...)
		b := append(slices.Clone(extPrefix), prefix...)
		return [][]Component{a, b}
	}
	return [][]Component{append(slices.Clone(extPrefix), prefix...)}
}
