package plugin

import (
	"fmt"

	"github.com/Shopify/go-lua"
)

// pushValue converts a JSON-representable Go value into the equivalent Lua
// value on top of the stack. Unknown types degrade to their string form.
func pushValue(l *lua.State, v any) {
	switch t := v.(type) {
	case nil:
		l.PushNil()
	case bool:
		l.PushBoolean(t)
	case string:
		l.PushString(t)
	case float64:
		l.PushNumber(t)
	case int:
		l.PushNumber(float64(t))
	case int64:
		l.PushNumber(float64(t))
	case []any:
		l.CreateTable(len(t), 0)
		for i, item := range t {
			pushValue(l, item)
			l.RawSetInt(-2, i+1)
		}
	case map[string]any:
		l.CreateTable(0, len(t))
		for k, item := range t {
			pushValue(l, item)
			l.SetField(-2, k)
		}
	case map[string]string:
		l.CreateTable(0, len(t))
		for k, item := range t {
			l.PushString(item)
			l.SetField(-2, k)
		}
	default:
		l.PushString(fmt.Sprint(t))
	}
}

// toValue converts the Lua value at index back into a JSON-representable Go
// value. Tables with sequential integer keys become arrays, everything else
// a string-keyed map.
func toValue(l *lua.State, index int) any {
	switch l.TypeOf(index) {
	case lua.TypeNil:
		return nil
	case lua.TypeBoolean:
		return l.ToBoolean(index)
	case lua.TypeNumber:
		n, _ := l.ToNumber(index)
		return n
	case lua.TypeString:
		s, _ := l.ToString(index)
		return s
	case lua.TypeTable:
		return tableToValue(l, index)
	default:
		return nil
	}
}

func tableToValue(l *lua.State, index int) any {
	abs := l.AbsIndex(index)

	if n := l.RawLength(abs); n > 0 {
		arr := make([]any, 0, n)
		for i := 1; i <= n; i++ {
			l.RawGetInt(abs, i)
			arr = append(arr, toValue(l, -1))
			l.Pop(1)
		}
		return arr
	}

	m := make(map[string]any)
	l.PushNil()
	for l.Next(abs) {
		// key at -2, value at -1
		if l.TypeOf(-2) == lua.TypeString {
			key, _ := l.ToString(-2)
			m[key] = toValue(l, -1)
		}
		l.Pop(1)
	}
	return m
}
