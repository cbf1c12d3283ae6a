package plugin

import (
	"context"
	"fmt"
	"sync"

	"github.com/Shopify/go-lua"

	"github.com/Labs64/labs64.io-auditflow/common/envelope"
)

// Lua entry-point names mirror the plugin contract: an override transformer
// script defines transform(event), an override sink defines
// process(event, properties). Both take and return Lua tables.
const (
	transformSymbol = "transform"
	processSymbol   = "process"
)

// luaModule holds one loaded override script. A Lua state is not safe for
// concurrent use, so invocations are serialized per plugin; each request is
// otherwise independent.
type luaModule struct {
	id    string
	path  string
	mu    sync.Mutex
	state *lua.State
}

func loadLuaModule(id, path, symbol string) (*luaModule, error) {
	state := lua.NewState()
	lua.OpenLibraries(state)

	if err := lua.LoadFile(state, path, ""); err != nil {
		return nil, &LoadError{ID: id, Path: path, Err: err}
	}
	if err := state.ProtectedCall(0, 0, 0); err != nil {
		return nil, &LoadError{ID: id, Path: path, Err: err}
	}

	state.Global(symbol)
	defined := state.TypeOf(-1) == lua.TypeFunction
	state.Pop(1)
	if !defined {
		return nil, &ContractError{ID: id, Path: path, Symbol: symbol}
	}

	return &luaModule{id: id, path: path, state: state}, nil
}

// call invokes the entry function with args and returns its single result.
func (m *luaModule) call(symbol string, args ...any) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.Global(symbol)
	for _, arg := range args {
		pushValue(m.state, arg)
	}
	if err := m.state.ProtectedCall(len(args), 1, 0); err != nil {
		return nil, fmt.Errorf("plugin %q failed: %w", m.id, err)
	}
	result := toValue(m.state, -1)
	m.state.Pop(1)
	return result, nil
}

type luaTransformer struct{ *luaModule }

func (t luaTransformer) Transform(_ context.Context, event envelope.Event) (envelope.Event, error) {
	result, err := t.call(transformSymbol, map[string]any(event))
	if err != nil {
		return nil, err
	}
	out, ok := result.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("transformer %q must return a table, got %T", t.id, result)
	}
	return envelope.Event(out), nil
}

type luaSink struct{ *luaModule }

func (s luaSink) Process(_ context.Context, event envelope.Event, props Properties) (Result, error) {
	result, err := s.call(processSymbol, map[string]any(event), map[string]string(props))
	if err != nil {
		return nil, err
	}
	out, ok := result.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("sink %q must return a table, got %T", s.id, result)
	}
	return Result(out), nil
}

// LoadLuaTransformer is the override Loader for transformer registries.
func LoadLuaTransformer(id, path string) (Transformer, error) {
	mod, err := loadLuaModule(id, path, transformSymbol)
	if err != nil {
		return nil, err
	}
	return luaTransformer{mod}, nil
}

// LoadLuaSink is the override Loader for sink registries.
func LoadLuaSink(id, path string) (Sink, error) {
	mod, err := loadLuaModule(id, path, processSymbol)
	if err != nil {
		return nil, err
	}
	return luaSink{mod}, nil
}
