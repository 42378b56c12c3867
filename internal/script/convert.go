package script

import lua "github.com/yuin/gopher-lua"

// luaToInterface converts a Lua value into a plain Go value suitable for
// json.Marshal. Lua tables are treated as JSON arrays if every key is a
// contiguous 1-based integer, otherwise as JSON objects.
func luaToInterface(v lua.LValue) interface{} {
	switch val := v.(type) {
	case lua.LBool:
		return bool(val)
	case lua.LNumber:
		return float64(val)
	case lua.LString:
		return string(val)
	case *lua.LTable:
		if isArrayTable(val) {
			n := val.Len()
			arr := make([]interface{}, n)
			for i := 1; i <= n; i++ {
				arr[i-1] = luaToInterface(val.RawGetInt(i))
			}
			return arr
		}
		obj := make(map[string]interface{})
		val.ForEach(func(k, v lua.LValue) {
			obj[k.String()] = luaToInterface(v)
		})
		return obj
	default:
		return nil
	}
}

func isArrayTable(t *lua.LTable) bool {
	n := t.Len()
	count := 0
	t.ForEach(func(k, _ lua.LValue) { count++ })
	if n == 0 {
		return count == 0
	}
	return count == n
}

// interfaceToLua converts a decoded JSON value back into a Lua value.
func interfaceToLua(L *lua.LState, v interface{}) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(val)
	case float64:
		return lua.LNumber(val)
	case string:
		return lua.LString(val)
	case []interface{}:
		t := L.NewTable()
		for i, item := range val {
			t.RawSetInt(i+1, interfaceToLua(L, item))
		}
		return t
	case map[string]interface{}:
		t := L.NewTable()
		for k, item := range val {
			t.RawSetString(k, interfaceToLua(L, item))
		}
		return t
	default:
		return lua.LNil
	}
}
