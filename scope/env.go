// Package scope implements lexical environment of the evaluator: stacks of
// variable, function and mixin frames plus module namespaces created by @use
// and @forward.
package scope

import (
	"slices"

	"sassy/diag"
	"sassy/value"
)

// Callable is user defined or built-in function or mixin.
type Callable interface {
	CallableName() string
}

// members is insertion ordered name table.
type members[T any] struct {
	m     map[string]T
	order []string
}

func newMembers[T any]() *members[T] {
	return &members[T]{m: make(map[string]T)}
}

func (s *members[T]) get(name string) (T, bool) {
	v, ok := s.m[name]
	return v, ok
}

func (s *members[T]) has(name string) bool {
	_, ok := s.m[name]
	return ok
}

func (s *members[T]) set(name string, v T) {
	if _, ok := s.m[name]; !ok {
		s.order = append(s.order, name)
	}
	s.m[name] = v
}

func (s *members[T]) names() []string {
	return slices.Clone(s.order)
}

// modules is module state shared by an environment and all its closures.
type modules struct {
	namespaces map[string]*Module
	global     []*Module
	forwarded  []*Forward
	used       []*Module
}

// Env is a stack of frames. Frame zero is module (global) scope.
type Env struct {
	vars   []*members[value.Value]
	funcs  []*members[Callable]
	mixins []*members[Callable]

	// semiGlobal is set while only flow control frames separate current
	// frame from the root, assignments to existing globals then update them.
	semiGlobal bool

	mods *modules

	// Content is content block passed to the currently executing mixin.
	Content any
}

// New returns environment with single root frame.
func New() *Env {
	return &Env{
		vars:       []*members[value.Value]{newMembers[value.Value]()},
		funcs:      []*members[Callable]{newMembers[Callable]()},
		mixins:     []*members[Callable]{newMembers[Callable]()},
		semiGlobal: true,
		mods:       &modules{namespaces: make(map[string]*Module)},
	}
}

// Closure captures environment for later invocation of a callable defined in
// it. Frames are shared, later modifications of them are visible.
func (e *Env) Closure() *Env {
	return &Env{
		vars:    slices.Clone(e.vars),
		funcs:   slices.Clone(e.funcs),
		mixins:  slices.Clone(e.mixins),
		mods:    e.mods,
		Content: e.Content,
	}
}

// AtRoot reports whether current frame is the root one.
func (e *Env) AtRoot() bool {
	return len(e.vars) == 1
}

// Depth returns number of frames.
func (e *Env) Depth() int {
	return len(e.vars)
}

// Push adds frame, returned function removes it. Flow control constructs
// pass semiGlobal.
func (e *Env) Push(semiGlobal bool) func() {
	was := e.semiGlobal
	e.semiGlobal = semiGlobal && was
	e.vars = append(e.vars, newMembers[value.Value]())
	e.funcs = append(e.funcs, newMembers[Callable]())
	e.mixins = append(e.mixins, newMembers[Callable]())
	n := len(e.vars)
	return func() {
		e.vars = e.vars[:n-1]
		e.funcs = e.funcs[:n-1]
		e.mixins = e.mixins[:n-1]
		e.semiGlobal = was
	}
}

// Scoped runs fn inside new frame, frame is removed even if fn fails.
func (e *Env) Scoped(semiGlobal bool, fn func() error) error {
	pop := e.Push(semiGlobal)
	defer pop()
	return fn()
}

// Var looks variable up walking frames outwards and then global modules.
func (e *Env) Var(name string) (value.Value, error) {
	for i := len(e.vars) - 1; i >= 0; i-- {
		if v, ok := e.vars[i].get(name); ok {
			return v, nil
		}
	}
	m, err := e.globalModule(name, (*Module).hasVar, "variable")
	if err != nil {
		return nil, err
	}
	if m != nil {
		v, _ := m.Var(name)
		return v, nil
	}
	return nil, diag.New(diag.UndefinedVariable, "Undefined variable.")
}

// HasVar reports whether variable is visible.
func (e *Env) HasVar(name string) bool {
	_, err := e.Var(name)
	return err == nil
}

// HasGlobalVar reports whether variable exists at module level.
func (e *Env) HasGlobalVar(name string) bool {
	if e.vars[0].has(name) {
		return true
	}
	m, _ := e.globalModule(name, (*Module).hasVar, "variable")
	return m != nil
}

// GlobalVar returns module level variable.
func (e *Env) GlobalVar(name string) (value.Value, bool) {
	if v, ok := e.vars[0].get(name); ok {
		return v, true
	}
	if m, _ := e.globalModule(name, (*Module).hasVar, "variable"); m != nil {
		return m.Var(name)
	}
	return nil, false
}

// SetVar assigns variable. Global assignment and assignment at root go to
// the root frame (or to the global module declaring it). Otherwise the
// nearest frame declaring the name is updated, new variables are local.
func (e *Env) SetVar(name string, v value.Value, global bool) error {
	if global || e.AtRoot() {
		if !e.vars[0].has(name) {
			m, err := e.globalModule(name, (*Module).hasVar, "variable")
			if err != nil {
				return err
			}
			if m != nil {
				return m.SetVar(name, v)
			}
		}
		e.vars[0].set(name, v)
		return nil
	}
	idx := -1
	for i := len(e.vars) - 1; i >= 0; i-- {
		if e.vars[i].has(name) {
			idx = i
			break
		}
	}
	if idx < 0 || idx == 0 && !e.semiGlobal {
		idx = len(e.vars) - 1
	}
	e.vars[idx].set(name, v)
	return nil
}

// SetLocalVar declares variable in the current frame.
func (e *Env) SetLocalVar(name string, v value.Value) {
	e.vars[len(e.vars)-1].set(name, v)
}

// Func looks function up.
func (e *Env) Func(name string) (Callable, error) {
	return lookupCallable(e, e.funcs, name, (*Module).hasFunc, (*Module).Func, "function")
}

// Mixin looks mixin up.
func (e *Env) Mixin(name string) (Callable, error) {
	return lookupCallable(e, e.mixins, name, (*Module).hasMixin, (*Module).Mixin, "mixin")
}

func lookupCallable(e *Env, frames []*members[Callable], name string,
	has func(*Module, string) bool, get func(*Module, string) (Callable, bool), kind string,
) (Callable, error) {
	for i := len(frames) - 1; i >= 0; i-- {
		if c, ok := frames[i].get(name); ok {
			return c, nil
		}
	}
	m, err := e.globalModule(name, has, kind)
	if err != nil || m == nil {
		return nil, err
	}
	c, _ := get(m, name)
	return c, nil
}

// SetFunc declares function in the current frame.
func (e *Env) SetFunc(name string, c Callable) {
	e.funcs[len(e.funcs)-1].set(name, c)
}

// SetMixin declares mixin in the current frame.
func (e *Env) SetMixin(name string, c Callable) {
	e.mixins[len(e.mixins)-1].set(name, c)
}

func (e *Env) globalModule(name string, has func(*Module, string) bool, kind string) (*Module, error) {
	var found *Module
	for _, m := range e.mods.global {
		if !has(m, name) {
			continue
		}
		if found != nil && found != m {
			return nil, diag.New(diag.TypeError, "This %s is available from multiple global modules.", kind)
		}
		found = m
	}
	return found, nil
}

// Namespace returns module registered by @use.
func (e *Env) Namespace(ns string) (*Module, error) {
	m, ok := e.mods.namespaces[ns]
	if !ok {
		return nil, diag.New(diag.UndefinedVariable, "There is no module with the namespace \"%s\".", ns)
	}
	return m, nil
}

// AddNamespace registers module under namespace, "*" makes its members
// global.
func (e *Env) AddNamespace(ns string, m *Module) error {
	e.mods.used = append(e.mods.used, m)
	if ns == "*" {
		e.AddGlobalModule(m)
		return nil
	}
	if _, ok := e.mods.namespaces[ns]; ok {
		return diag.New(diag.ImportError, "There's already a module with namespace \"%s\".", ns)
	}
	e.mods.namespaces[ns] = m
	return nil
}

// AddGlobalModule makes module members visible without namespace.
func (e *Env) AddGlobalModule(m *Module) {
	if !slices.Contains(e.mods.global, m) {
		e.mods.global = append(e.mods.global, m)
	}
}

// AddForward exposes module through this environment's module.
func (e *Env) AddForward(f *Forward) {
	e.mods.forwarded = append(e.mods.forwarded, f)
}

// Forwards returns modules forwarded by this environment.
func (e *Env) Forwards() []*Forward {
	return e.mods.forwarded
}

// Used returns modules loaded with @use in load order.
func (e *Env) Used() []*Module {
	return e.mods.used
}

// NamespaceVar reads member variable of a namespace.
func (e *Env) NamespaceVar(ns, name string) (value.Value, error) {
	m, err := e.Namespace(ns)
	if err != nil {
		return nil, err
	}
	if IsPrivate(name) {
		return nil, privateErr()
	}
	v, ok := m.Var(name)
	if !ok {
		return nil, diag.New(diag.UndefinedVariable, "Undefined variable.")
	}
	return v, nil
}

// SetNamespaceVar assigns member variable of a namespace.
func (e *Env) SetNamespaceVar(ns, name string, v value.Value) error {
	m, err := e.Namespace(ns)
	if err != nil {
		return err
	}
	if IsPrivate(name) {
		return privateErr()
	}
	return m.SetVar(name, v)
}

// NamespaceFunc looks function up in a namespace, missing function is
// reported with nil callable.
func (e *Env) NamespaceFunc(ns, name string) (Callable, error) {
	m, err := e.Namespace(ns)
	if err != nil {
		return nil, err
	}
	if IsPrivate(name) {
		return nil, privateErr()
	}
	c, _ := m.Func(name)
	return c, nil
}

// NamespaceMixin looks mixin up in a namespace.
func (e *Env) NamespaceMixin(ns, name string) (Callable, error) {
	m, err := e.Namespace(ns)
	if err != nil {
		return nil, err
	}
	if IsPrivate(name) {
		return nil, privateErr()
	}
	c, _ := m.Mixin(name)
	return c, nil
}

// ToModule exposes root frame and forwarded modules as a module.
func (e *Env) ToModule(url string) *Module {
	return &Module{URL: url, env: e}
}

// IsPrivate reports member names hidden from other modules.
func IsPrivate(name string) bool {
	return len(name) > 0 && (name[0] == '-' || name[0] == '_')
}

func privateErr() error {
	return diag.New(diag.TypeError, "Private members can't be accessed from outside their modules.")
}
