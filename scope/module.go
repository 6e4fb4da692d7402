package scope

import (
	"slices"
	"strings"

	"sassy/css"
	"sassy/diag"
	"sassy/value"
)

// Module is loaded stylesheet or built-in library exposed under a
// namespace.
type Module struct {
	URL string
	// CSS is output of the module evaluation, nil for built-in modules.
	CSS *css.Root
	// Upstream lists modules loaded by this one, their CSS goes first.
	Upstream []*Module

	env *Env

	builtin bool
	vars    *members[value.Value]
	funcs   *members[Callable]
	mixins  *members[Callable]
}

// NewBuiltin makes empty built-in module.
func NewBuiltin(url string) *Module {
	return &Module{
		URL:     url,
		builtin: true,
		vars:    newMembers[value.Value](),
		funcs:   newMembers[Callable](),
		mixins:  newMembers[Callable](),
	}
}

// IsBuiltin reports modules provided by the compiler.
func (m *Module) IsBuiltin() bool {
	return m.builtin
}

// DefineVar adds variable to built-in module.
func (m *Module) DefineVar(name string, v value.Value) *Module {
	m.vars.set(name, v)
	return m
}

// DefineFunc adds function to built-in module.
func (m *Module) DefineFunc(c Callable) *Module {
	m.funcs.set(c.CallableName(), c)
	return m
}

// DefineMixin adds mixin to built-in module.
func (m *Module) DefineMixin(c Callable) *Module {
	m.mixins.set(c.CallableName(), c)
	return m
}

func (m *Module) hasVar(name string) bool {
	_, ok := m.Var(name)
	return ok
}

func (m *Module) hasFunc(name string) bool {
	_, ok := m.Func(name)
	return ok
}

func (m *Module) hasMixin(name string) bool {
	_, ok := m.Mixin(name)
	return ok
}

// Var returns member variable.
func (m *Module) Var(name string) (value.Value, bool) {
	if m.builtin {
		return m.vars.get(name)
	}
	if v, ok := m.env.vars[0].get(name); ok {
		return v, true
	}
	for _, f := range m.env.Forwards() {
		if inner, ok := f.translate("$" + name); ok {
			if v, ok := f.Module.Var(inner[1:]); ok {
				return v, true
			}
		}
	}
	return nil, false
}

// SetVar assigns existing member variable.
func (m *Module) SetVar(name string, v value.Value) error {
	if m.builtin {
		if m.vars.has(name) {
			return diag.New(diag.TypeError, "Cannot modify built-in variable.")
		}
		return diag.New(diag.UndefinedVariable, "Undefined variable.")
	}
	if m.env.vars[0].has(name) {
		m.env.vars[0].set(name, v)
		return nil
	}
	for _, f := range m.env.Forwards() {
		if inner, ok := f.translate("$" + name); ok && f.Module.hasVar(inner[1:]) {
			return f.Module.SetVar(inner[1:], v)
		}
	}
	return diag.New(diag.UndefinedVariable, "Undefined variable.")
}

// Func returns member function.
func (m *Module) Func(name string) (Callable, bool) {
	if m.builtin {
		return m.funcs.get(name)
	}
	if c, ok := m.env.funcs[0].get(name); ok {
		return c, true
	}
	for _, f := range m.env.Forwards() {
		if inner, ok := f.translate(name); ok {
			if c, ok := f.Module.Func(inner); ok {
				return c, true
			}
		}
	}
	return nil, false
}

// Mixin returns member mixin.
func (m *Module) Mixin(name string) (Callable, bool) {
	if m.builtin {
		return m.mixins.get(name)
	}
	if c, ok := m.env.mixins[0].get(name); ok {
		return c, true
	}
	for _, f := range m.env.Forwards() {
		if inner, ok := f.translate(name); ok {
			if c, ok := f.Module.Mixin(inner); ok {
				return c, true
			}
		}
	}
	return nil, false
}

// VarNames lists public variables in declaration order.
func (m *Module) VarNames() []string {
	if m.builtin {
		return m.vars.names()
	}
	names := publicNames(m.env.vars[0].names())
	for _, f := range m.env.Forwards() {
		for _, n := range f.Module.VarNames() {
			if outer, ok := f.expose("$" + n); ok {
				names = append(names, outer[1:])
			}
		}
	}
	return names
}

// FuncNames lists public functions in declaration order.
func (m *Module) FuncNames() []string {
	if m.builtin {
		return m.funcs.names()
	}
	names := publicNames(m.env.funcs[0].names())
	for _, f := range m.env.Forwards() {
		for _, n := range f.Module.FuncNames() {
			if outer, ok := f.expose(n); ok {
				names = append(names, outer)
			}
		}
	}
	return names
}

// MixinNames lists public mixins in declaration order.
func (m *Module) MixinNames() []string {
	if m.builtin {
		return m.mixins.names()
	}
	names := publicNames(m.env.mixins[0].names())
	for _, f := range m.env.Forwards() {
		for _, n := range f.Module.MixinNames() {
			if outer, ok := f.expose(n); ok {
				names = append(names, outer)
			}
		}
	}
	return names
}

func publicNames(names []string) []string {
	res := names[:0]
	for _, n := range names {
		if !IsPrivate(n) {
			res = append(res, n)
		}
	}
	return res
}

// Forward is module re-exported by @forward, optionally prefixed and
// filtered. Variable names in Show and Hide keep leading $.
type Forward struct {
	Module *Module
	Prefix string
	Show   []string
	Hide   []string
}

// visible checks filters against exposed name.
func (f *Forward) visible(outer string) bool {
	if len(f.Show) > 0 {
		return slices.Contains(f.Show, outer)
	}
	return !slices.Contains(f.Hide, outer)
}

// translate maps exposed name into upstream member name.
func (f *Forward) translate(outer string) (string, bool) {
	if !f.visible(outer) {
		return "", false
	}
	sigil := ""
	name := outer
	if strings.HasPrefix(name, "$") {
		sigil, name = "$", name[1:]
	}
	if !strings.HasPrefix(name, f.Prefix) {
		return "", false
	}
	inner := name[len(f.Prefix):]
	if IsPrivate(inner) {
		return "", false
	}
	return sigil + inner, true
}

// expose maps upstream member name into exposed one.
func (f *Forward) expose(inner string) (string, bool) {
	sigil := ""
	name := inner
	if strings.HasPrefix(name, "$") {
		sigil, name = "$", name[1:]
	}
	outer := sigil + f.Prefix + name
	return outer, f.visible(outer)
}
