package scope_test

import (
	"errors"
	"reflect"
	"testing"

	"sassy/diag"
	"sassy/scope"
	"sassy/value"
)

type fn string

func (f fn) CallableName() string { return string(f) }

func num(f float64) value.Value { return value.Unitless(f) }

func mustVar(t *testing.T, e *scope.Env, name string) value.Value {
	t.Helper()
	v, err := e.Var(name)
	if err != nil {
		t.Fatalf("Var(%q): %v", name, err)
	}
	return v
}

func TestEnv_LocalShadowsGlobal(t *testing.T) {
	e := scope.New()
	if err := e.SetVar("x", num(1), false); err != nil {
		t.Fatal(err)
	}
	err := e.Scoped(false, func() error {
		if err := e.SetVar("x", num(2), false); err != nil {
			return err
		}
		if got := mustVar(t, e, "x"); !value.Equal(got, num(2)) {
			t.Errorf("inner x = %v", got)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := mustVar(t, e, "x"); !value.Equal(got, num(1)) {
		t.Errorf("global x changed to %v", got)
	}
}

func TestEnv_NestedAssignmentUpdatesNearest(t *testing.T) {
	e := scope.New()
	pop := e.Push(false)
	defer pop()
	e.SetLocalVar("y", num(1))
	err := e.Scoped(false, func() error {
		return e.SetVar("y", num(5), false)
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := mustVar(t, e, "y"); !value.Equal(got, num(5)) {
		t.Errorf("y = %v, want 5", got)
	}
}

func TestEnv_SemiGlobal(t *testing.T) {
	e := scope.New()
	_ = e.SetVar("x", num(1), false)

	// flow control at root updates existing global
	_ = e.Scoped(true, func() error { return e.SetVar("x", num(2), false) })
	if got := mustVar(t, e, "x"); !value.Equal(got, num(2)) {
		t.Errorf("x = %v, want 2", got)
	}

	// flow control inside a rule does not
	_ = e.Scoped(false, func() error {
		return e.Scoped(true, func() error { return e.SetVar("x", num(3), false) })
	})
	if got := mustVar(t, e, "x"); !value.Equal(got, num(2)) {
		t.Errorf("x = %v, want 2", got)
	}
}

func TestEnv_Global(t *testing.T) {
	e := scope.New()
	_ = e.Scoped(false, func() error {
		return e.SetVar("g", num(7), true)
	})
	if !e.HasGlobalVar("g") {
		t.Error("expected global g")
	}
}

func TestEnv_Undefined(t *testing.T) {
	e := scope.New()
	_, err := e.Var("nope")
	var de *diag.Error
	if !errors.As(err, &de) || de.Kind != diag.UndefinedVariable {
		t.Fatalf("expected UndefinedVariable, got %v", err)
	}
}

func TestEnv_PopOnError(t *testing.T) {
	e := scope.New()
	want := errors.New("boom")
	err := e.Scoped(false, func() error { return want })
	if !errors.Is(err, want) {
		t.Fatalf("unexpected error %v", err)
	}
	if e.Depth() != 1 {
		t.Errorf("frame leaked, depth %d", e.Depth())
	}
}

func TestEnv_SeparateNamespaces(t *testing.T) {
	e := scope.New()
	e.SetFunc("a", fn("a"))
	_ = e.SetVar("a", num(1), false)
	if _, err := e.Mixin("a"); err != nil {
		t.Fatal(err)
	}
	if c, _ := e.Mixin("a"); c != nil {
		t.Error("function leaked into mixin namespace")
	}
	if c, _ := e.Func("a"); c == nil {
		t.Error("function not found")
	}
}

func TestEnv_Closure(t *testing.T) {
	e := scope.New()
	c := e.Closure()
	_ = e.SetVar("late", num(1), false)
	if got := mustVar(t, c, "late"); !value.Equal(got, num(1)) {
		t.Errorf("closure does not see later globals: %v", got)
	}
}

func TestModules(t *testing.T) {
	lib := scope.New()
	_ = lib.SetVar("color", value.Unquoted("red"), false)
	_ = lib.SetVar("-secret", num(1), false)
	lib.SetMixin("m", fn("m"))
	libMod := lib.ToModule("lib")

	fwd := scope.New()
	fwd.AddForward(&scope.Forward{Module: libMod, Prefix: "lib-", Hide: []string{"lib-m"}})
	fwdMod := fwd.ToModule("fwd")

	e := scope.New()
	if err := e.AddNamespace("lib", libMod); err != nil {
		t.Fatal(err)
	}
	if err := e.AddNamespace("lib", libMod); err == nil {
		t.Error("expected duplicate namespace error")
	}
	if err := e.AddNamespace("*", fwdMod); err != nil {
		t.Fatal(err)
	}

	v, err := e.NamespaceVar("lib", "color")
	if err != nil || !value.Equal(v, value.Unquoted("red")) {
		t.Errorf("lib.$color = %v, %v", v, err)
	}
	if _, err := e.NamespaceVar("lib", "-secret"); err == nil {
		t.Error("private member accessible")
	}
	if _, err := e.NamespaceVar("nope", "x"); err == nil {
		t.Error("expected missing namespace error")
	}
	if got := mustVar(t, e, "lib-color"); !value.Equal(got, value.Unquoted("red")) {
		t.Errorf("$lib-color = %v", got)
	}
	if m, _ := e.Mixin("lib-m"); m != nil {
		t.Error("hidden mixin visible")
	}
	if got := libMod.VarNames(); !reflect.DeepEqual(got, []string{"color"}) {
		t.Errorf("VarNames = %v", got)
	}
	if got := fwdMod.VarNames(); !reflect.DeepEqual(got, []string{"lib-color"}) {
		t.Errorf("forwarded VarNames = %v", got)
	}

	if err := e.SetNamespaceVar("lib", "color", value.Unquoted("blue")); err != nil {
		t.Fatal(err)
	}
	if v, _ := lib.Var("color"); !value.Equal(v, value.Unquoted("blue")) {
		t.Errorf("module variable not updated: %v", v)
	}
}

func TestBuiltinModule(t *testing.T) {
	m := scope.NewBuiltin("sass:math").DefineVar("pi", num(3.14)).DefineFunc(fn("abs"))
	if err := m.SetVar("pi", num(3)); err == nil {
		t.Error("built-in variable modified")
	}
	if _, ok := m.Func("abs"); !ok {
		t.Error("abs missing")
	}
	if !m.IsBuiltin() {
		t.Error("IsBuiltin false")
	}
}
