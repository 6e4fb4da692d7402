package evaluate

import (
	"slices"
	"strings"

	"sassy/ast"
	"sassy/codemap"
	"sassy/diag"
	"sassy/value"
)

type configuredValue struct {
	value value.Value
	span  codemap.Span
}

// configuration holds variables passed to a module with "with (...)".
// Configurations passed through @forward are views of the original one:
// removing variable from a view removes it from the original.
type configuration struct {
	// set on the original only
	values   map[string]*configuredValue
	order    []string
	explicit bool
	span     codemap.Span

	// set on views only
	parent *configuration
	prefix string
	show   []string
	hide   []string
}

func emptyConfig() *configuration {
	return &configuration{values: make(map[string]*configuredValue)}
}

func (c *configuration) original() *configuration {
	for c.parent != nil {
		c = c.parent
	}
	return c
}

func (c *configuration) isExplicit() bool {
	return c.original().explicit
}

func (c *configuration) visible(outer string) bool {
	if len(c.show) > 0 {
		return slices.Contains(c.show, "$"+outer)
	}
	return !slices.Contains(c.hide, "$"+outer)
}

// outer maps variable name seen by the configured module into the name in
// the original configuration.
func (c *configuration) outer(name string) (string, bool) {
	if c.parent == nil {
		return name, true
	}
	o := c.prefix + name
	if !c.visible(o) {
		return "", false
	}
	return c.parent.outer(o)
}

func (c *configuration) names() []string {
	if c.parent == nil {
		return slices.Clone(c.order)
	}
	var out []string
	for _, n := range c.parent.names() {
		if strings.HasPrefix(n, c.prefix) && c.visible(n) {
			out = append(out, n[len(c.prefix):])
		}
	}
	return out
}

func (c *configuration) get(name string) (*configuredValue, bool) {
	o, ok := c.outer(name)
	if !ok {
		return nil, false
	}
	cv, ok := c.original().values[o]
	return cv, ok
}

func (c *configuration) remove(name string) (*configuredValue, bool) {
	o, ok := c.outer(name)
	if !ok {
		return nil, false
	}
	root := c.original()
	cv, ok := root.values[o]
	if ok {
		delete(root.values, o)
		root.order = slices.DeleteFunc(root.order, func(s string) bool { return s == o })
	}
	return cv, ok
}

func (c *configuration) set(name string, cv *configuredValue) {
	if _, ok := c.values[name]; !ok {
		c.order = append(c.order, name)
	}
	c.values[name] = cv
}

func (c *configuration) isEmpty() bool {
	return len(c.names()) == 0
}

func (c *configuration) sameOriginal(o *configuration) bool {
	return c.original() == o.original()
}

// throughForward returns view of c visible to module forwarded with the
// given prefix and filters.
func (c *configuration) throughForward(prefix string, show, hide []string) *configuration {
	if c.isEmpty() {
		return emptyConfig()
	}
	return &configuration{parent: c, prefix: prefix, show: show, hide: hide}
}

func (v *Visitor) explicitConfig(vars []ast.ConfiguredVar, span codemap.Span) (*configuration, error) {
	cfg := emptyConfig()
	cfg.explicit = true
	cfg.span = span
	for _, cv := range vars {
		val, err := v.expr(cv.Value)
		if err != nil {
			return nil, err
		}
		cfg.set(cv.Name, &configuredValue{value: withoutSlash(val), span: cv.Span})
	}
	return cfg, nil
}

// forwardConfig combines configuration passed from downstream with
// "@forward ... with (...)" of the current module. Variables marked
// !default are only used when downstream does not configure them.
func (v *Visitor) forwardConfig(adjusted *configuration, n *ast.ForwardRule) (*configuration, error) {
	cfg := emptyConfig()
	for _, name := range adjusted.names() {
		cv, _ := adjusted.get(name)
		cfg.set(name, cv)
	}
	for _, fv := range n.Config {
		if fv.Default {
			if old, ok := adjusted.remove(fv.Name); ok && !value.IsNull(old.value) {
				cfg.set(fv.Name, old)
				continue
			}
		}
		val, err := v.expr(fv.Value)
		if err != nil {
			return nil, err
		}
		cfg.set(fv.Name, &configuredValue{value: withoutSlash(val), span: fv.Span})
	}
	if adjusted.isExplicit() || adjusted.isEmpty() {
		cfg.explicit = true
		cfg.span = n.Span
	}
	return cfg, nil
}

// removeUsed drops from upstream variables consumed while the module was
// configured with downstream.
func removeUsed(upstream, downstream *configuration, except []string) {
	for _, name := range upstream.names() {
		if slices.Contains(except, name) {
			continue
		}
		if _, ok := downstream.values[name]; !ok {
			upstream.remove(name)
		}
	}
}

func assertConfigEmpty(cfg *configuration) error {
	if !cfg.isExplicit() {
		return nil
	}
	names := cfg.names()
	if len(names) == 0 {
		return nil
	}
	cv, _ := cfg.get(names[0])
	return diag.At(diag.TypeError, cv.span, "This variable was not declared with !default in the @used module.")
}
