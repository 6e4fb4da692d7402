package evaluate

import (
	"sassy/codemap"
	"sassy/css"
	"sassy/diag"
	"sassy/selector"
)

// applyExtends rewrites selectors of every rule once the whole tree is
// built, extensions apply regardless of source order.
func (v *Visitor) applyExtends(root *css.Root) error {
	if v.extender.Len() == 0 {
		return nil
	}
	var walk func(p css.Parent)
	walk = func(p css.Parent) {
		for _, n := range p.Children() {
			if rs, ok := n.(*css.RuleSet); ok {
				rs.Selector = v.extender.Extend(rs.Origin, rs.Media)
			}
			if cp, ok := n.(css.Parent); ok {
				walk(cp)
			}
		}
	}
	walk(root)

	if missing := v.extender.Unsatisfied(); len(missing) > 0 {
		x := missing[0]
		span, _ := x.Payload.(codemap.Span)
		return diag.At(diag.TypeError, span,
			"The target selector was not found.\nUse \"@extend %s !optional\" to avoid this error.", selector.SimpleString(x.Target))
	}
	return nil
}
