package scripting

import (
	"fmt"
	"sort"

	lua "github.com/yuin/gopher-lua"
)

// ToLValue converts a Go value into a Lua value owned by L.
// Supported: nil, bool, int, float64, string, lua.LValue, []string, []any,
// map[string]int and map[string]any (nested values follow the same rules).
// Map keys are inserted in sorted order so table iteration in scripts is
// deterministic for a given input.
func ToLValue(L *lua.LState, v any) (lua.LValue, error) {
	switch x := v.(type) {
	case nil:
		return lua.LNil, nil
	case lua.LValue:
		return x, nil
	case bool:
		return lua.LBool(x), nil
	case int:
		return lua.LNumber(x), nil
	case float64:
		return lua.LNumber(x), nil
	case string:
		return lua.LString(x), nil
	case []string:
		t := L.NewTable()
		for _, s := range x {
			t.Append(lua.LString(s))
		}
		return t, nil
	case []any:
		t := L.NewTable()
		for i, e := range x {
			lv, err := ToLValue(L, e)
			if err != nil {
				return lua.LNil, fmt.Errorf("index %d: %w", i+1, err)
			}
			t.Append(lv)
		}
		return t, nil
	case map[string]int:
		t := L.NewTable()
		for _, k := range sortedKeys(x) {
			t.RawSetString(k, lua.LNumber(x[k]))
		}
		return t, nil
	case map[string]any:
		t := L.NewTable()
		for _, k := range sortedKeys(x) {
			lv, err := ToLValue(L, x[k])
			if err != nil {
				return lua.LNil, fmt.Errorf("key %q: %w", k, err)
			}
			t.RawSetString(k, lv)
		}
		return t, nil
	default:
		return lua.LNil, fmt.Errorf("unsupported type %T", v)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
