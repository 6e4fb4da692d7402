package evaluate

import (
	"sassy/diag"
	"sassy/value"
)

func restItems(val value.Value) []value.Value {
	return val.(*value.ArgList).Items
}

// nestedGet follows keys through nested maps.
func nestedGet(m *value.Map, keys []value.Value) (value.Value, bool) {
	var cur value.Value = m
	for _, k := range keys {
		cm, ok := cur.(*value.Map)
		if !ok {
			return nil, false
		}
		if cur, ok = cm.Get(k); !ok {
			return nil, false
		}
	}
	return cur, true
}

// modifyNested replaces value at path of keys with result of modify.
// Intermediate non-map values are replaced with maps when addNesting.
func modifyNested(m *value.Map, keys []value.Value, modify func(old value.Value) value.Value, addNesting bool) *value.Map {
	if len(keys) == 1 {
		old, _ := m.Get(keys[0])
		return m.Set(keys[0], modify(old))
	}
	inner, ok := m.Get(keys[0])
	im, isMap := inner.(*value.Map)
	switch {
	case ok && isMap:
	case addNesting:
		im = value.NewMap()
	default:
		return m
	}
	return m.Set(keys[0], modifyNested(im, keys[1:], modify, addNesting))
}

func mapGetFn(_ *Visitor, args []value.Value) (value.Value, error) {
	m, err := argMap(args[0], "map")
	if err != nil {
		return nil, err
	}
	keys := append([]value.Value{args[1]}, restItems(args[2])...)
	if v, ok := nestedGet(m, keys); ok {
		return v, nil
	}
	return value.NullValue, nil
}

func mapHasKeyFn(_ *Visitor, args []value.Value) (value.Value, error) {
	m, err := argMap(args[0], "map")
	if err != nil {
		return nil, err
	}
	keys := append([]value.Value{args[1]}, restItems(args[2])...)
	_, ok := nestedGet(m, keys)
	return value.FromBool(ok), nil
}

func mergeMaps(a, b *value.Map) *value.Map {
	out := &value.Map{Pairs: append([]value.Pair(nil), a.Pairs...)}
	for _, p := range b.Pairs {
		out.Put(p.Key, p.Value)
	}
	return out
}

func mapMergeFn(_ *Visitor, args []value.Value) (value.Value, error) {
	m1, err := argMap(args[0], "map1")
	if err != nil {
		return nil, err
	}
	m2, err := argMap(args[1], "map2")
	if err != nil {
		return nil, err
	}
	return mergeMaps(m1, m2), nil
}

func mapMergeNestedFn(_ *Visitor, args []value.Value) (value.Value, error) {
	m1, err := argMap(args[0], "map1")
	if err != nil {
		return nil, err
	}
	rest := restItems(args[1])
	if len(rest) == 0 {
		return nil, diag.New(diag.TypeError, "Expected $args to contain a key.")
	}
	if len(rest) == 1 {
		return nil, diag.New(diag.TypeError, "Expected $args to contain a map.")
	}
	keys, last := rest[:len(rest)-1], rest[len(rest)-1]
	m2, err := argMap(last, "map2")
	if err != nil {
		return nil, err
	}
	return modifyNested(m1, keys, func(old value.Value) value.Value {
		if om, ok := old.(*value.Map); ok {
			return mergeMaps(om, m2)
		}
		return m2
	}, true), nil
}

func mapRemoveFn(_ *Visitor, args []value.Value) (value.Value, error) {
	m, err := argMap(args[0], "map")
	if err != nil {
		return nil, err
	}
	return m, nil
}

func mapRemoveKeysFn(_ *Visitor, args []value.Value) (value.Value, error) {
	m, err := argMap(args[0], "map")
	if err != nil {
		return nil, err
	}
	keys := append([]value.Value{args[1]}, restItems(args[2])...)
	return m.Remove(keys...), nil
}

func mapKeysFn(_ *Visitor, args []value.Value) (value.Value, error) {
	m, err := argMap(args[0], "map")
	if err != nil {
		return nil, err
	}
	out := make([]value.Value, 0, m.Len())
	for _, p := range m.Pairs {
		out = append(out, p.Key)
	}
	return value.List{Items: out, Sep: value.SepComma}, nil
}

func mapValuesFn(_ *Visitor, args []value.Value) (value.Value, error) {
	m, err := argMap(args[0], "map")
	if err != nil {
		return nil, err
	}
	out := make([]value.Value, 0, m.Len())
	for _, p := range m.Pairs {
		out = append(out, p.Value)
	}
	return value.List{Items: out, Sep: value.SepComma}, nil
}

func mapSetFn(_ *Visitor, args []value.Value) (value.Value, error) {
	m, err := argMap(args[0], "map")
	if err != nil {
		return nil, err
	}
	rest := restItems(args[1])
	switch len(rest) {
	case 0:
		return nil, diag.New(diag.TypeError, "Expected $args to contain a key.")
	case 1:
		return nil, diag.New(diag.TypeError, "Expected $args to contain a value.")
	}
	keys, val := rest[:len(rest)-1], rest[len(rest)-1]
	return modifyNested(m, keys, func(value.Value) value.Value { return val }, true), nil
}

func deepMerge(a, b *value.Map) *value.Map {
	out := &value.Map{Pairs: append([]value.Pair(nil), a.Pairs...)}
	for _, p := range b.Pairs {
		old, ok := out.Get(p.Key)
		om, oldMap := old.(*value.Map)
		nm, newMap := p.Value.(*value.Map)
		if ok && oldMap && newMap {
			out.Put(p.Key, deepMerge(om, nm))
			continue
		}
		out.Put(p.Key, p.Value)
	}
	return out
}

func deepMergeFn(_ *Visitor, args []value.Value) (value.Value, error) {
	m1, err := argMap(args[0], "map1")
	if err != nil {
		return nil, err
	}
	m2, err := argMap(args[1], "map2")
	if err != nil {
		return nil, err
	}
	return deepMerge(m1, m2), nil
}

func deepRemoveFn(_ *Visitor, args []value.Value) (value.Value, error) {
	m, err := argMap(args[0], "map")
	if err != nil {
		return nil, err
	}
	keys := append([]value.Value{args[1]}, restItems(args[2])...)
	if len(keys) == 1 {
		return m.Remove(keys[0]), nil
	}
	last := keys[len(keys)-1]
	return modifyNested(m, keys[:len(keys)-1], func(old value.Value) value.Value {
		if om, ok := old.(*value.Map); ok {
			return om.Remove(last)
		}
		return old
	}, false), nil
}

func init() {
	defineGlobal(
		newBuiltin("map-get", "$map, $key, $keys...", mapGetFn),
		newBuiltin("map-merge", "$map1, $map2", mapMergeFn).or("$map1, $args...", mapMergeNestedFn),
		newBuiltin("map-remove", "$map", mapRemoveFn).or("$map, $key, $keys...", mapRemoveKeysFn),
		newBuiltin("map-keys", "$map", mapKeysFn),
		newBuiltin("map-values", "$map", mapValuesFn),
		newBuiltin("map-has-key", "$map, $key, $keys...", mapHasKeyFn),
	)

	m := defineModule("map")
	exposeGlobals(m, "map-get=get", "map-merge=merge", "map-remove=remove", "map-keys=keys",
		"map-values=values", "map-has-key=has-key")
	m.DefineFunc(newBuiltin("set", "$map, $args...", mapSetFn)).
		DefineFunc(newBuiltin("deep-merge", "$map1, $map2", deepMergeFn)).
		DefineFunc(newBuiltin("deep-remove", "$map, $key, $keys...", deepRemoveFn))
}
