package evaluate

import (
	"strings"

	"sassy/diag"
	"sassy/scope"
	"sassy/value"
)

// Built-in functions and modules are registered by init functions of the
// fn*.go files and read-only afterwards.
var (
	globalFunctions = make(map[string]*builtinFunc)
	builtinModules  = make(map[string]*scope.Module)
)

func defineGlobal(fns ...*builtinFunc) {
	for _, f := range fns {
		globalFunctions[f.name] = f
	}
}

// defineModule registers sass:name module.
func defineModule(name string) *scope.Module {
	m := scope.NewBuiltin("sass:" + name)
	builtinModules[name] = m
	return m
}

// exposeGlobals adds global functions to module, "global=member" renames
// them.
func exposeGlobals(m *scope.Module, names ...string) {
	for _, n := range names {
		global, member, ok := strings.Cut(n, "=")
		if !ok {
			member = global
		}
		f, found := globalFunctions[global]
		if !found {
			panic("unknown global function " + global)
		}
		m.DefineFunc(f.renamed(member))
	}
}

func builtinModule(name string) *scope.Module {
	return builtinModules[name]
}

func notA(name string, val value.Value, what string) error {
	return diag.New(diag.TypeError, "$%s: %s is not %s.", name, value.Inspect(val), what)
}

func argNumber(val value.Value, name string) (value.Number, error) {
	n, ok := val.(value.Number)
	if !ok {
		return value.Number{}, notA(name, val, "a number")
	}
	return n, nil
}

func argInt(val value.Value, name string) (int, error) {
	n, err := argNumber(val, name)
	if err != nil {
		return 0, err
	}
	i, err := n.AsInt()
	if err != nil {
		return 0, diag.New(diag.TypeError, "$%s: %s is not an int.", name, value.Inspect(n))
	}
	return i, nil
}

func argColor(val value.Value, name string) (value.Color, error) {
	c, ok := val.(value.Color)
	if !ok {
		return value.Color{}, notA(name, val, "a color")
	}
	return c, nil
}

func argString(val value.Value, name string) (value.String, error) {
	s, ok := val.(value.String)
	if !ok {
		return value.String{}, notA(name, val, "a string")
	}
	return s, nil
}

// argMap accepts maps and empty lists.
func argMap(val value.Value, name string) (*value.Map, error) {
	switch t := val.(type) {
	case *value.Map:
		return t, nil
	case value.List:
		if len(t.Items) == 0 {
			return value.NewMap(), nil
		}
	case *value.ArgList:
		if len(t.Items) == 0 {
			t.KeywordsAccessed = true
			return t.KeywordMap(), nil
		}
	}
	return nil, notA(name, val, "a map")
}

func expectUnit(n value.Number, unit, name string) error {
	if !n.HasUnit(unit) {
		return diag.New(diag.UnitError, "$%s: Expected %s to have unit \"%s\".", name, value.Inspect(n), unit)
	}
	return nil
}

func expectUnitless(n value.Number, name string) error {
	if !n.IsUnitless() {
		return diag.New(diag.UnitError, "$%s: Expected %s to have no units.", name, value.Inspect(n))
	}
	return nil
}

// percentValue accepts number with % unit or unitless one.
func percentValue(n value.Number, name string) (float64, error) {
	return n.ValueInRange(0, 100, "$"+name)
}
