// Package script runs user Lua scripts that take part in editing.
//
// A script registers callbacks on the global marksync table:
//
//	marksync.on_input(function(text, sel)
//	  if text == "'" then return "`" end -- rewrite the insert
//	end)
//	marksync.on_update(function(update)
//	  marksync.log("line " .. update.line)
//	end)
//
// An on_input callback may return true to swallow the insert, a string to
// replace the inserted text, or nothing to let it through. Scripts run in
// a reduced standard library without file or process access.
//
// marksync.set returns an error message when the setting is rejected. The
// setter decides when the change lands: the app applies settings made from
// on_update after the current transaction has been observed, and only logs
// their errors.
package script

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/dshills/marksync/internal/bridge"
	"github.com/dshills/marksync/internal/engine"
	"github.com/dshills/marksync/internal/input"
)

// DefaultTimeout bounds a single callback.
const DefaultTimeout = 100 * time.Millisecond

var (
	// ErrClosed is returned when using a closed engine.
	ErrClosed = errors.New("script engine closed")
	// ErrBusy is returned when a callback triggers another script run.
	ErrBusy = errors.New("script engine busy")
)

// SetFunc applies a configuration value from a script.
type SetFunc func(path string, value any) error

// Engine hosts the Lua state and the registered callbacks.
type Engine struct {
	input.BaseHook

	mu       sync.Mutex
	L        *lua.LState
	onInput  []*lua.LFunction
	onUpdate []*lua.LFunction
	timeout  time.Duration
	set      SetFunc
	logger   *zap.Logger
	closed   bool
	running  bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithTimeout sets the per-callback timeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithSetter lets scripts change configuration through marksync.set.
func WithSetter(fn SetFunc) Option {
	return func(e *Engine) {
		e.set = fn
	}
}

// WithLogger sets the logger used by marksync.log and for script errors.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an engine with an empty, sandboxed Lua state.
func New(opts ...Option) *Engine {
	e := &Engine{
		timeout: DefaultTimeout,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.L = lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(e.L)
	e.installAPI()
	return e
}

func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require"} {
		L.SetGlobal(name, lua.LNil)
	}
}

func (e *Engine) installAPI() {
	mod := e.L.NewTable()
	e.L.SetFuncs(mod, map[string]lua.LGFunction{
		"on_input":  e.luaOnInput,
		"on_update": e.luaOnUpdate,
		"log":       e.luaLog,
		"set":       e.luaSet,
	})
	e.L.SetGlobal("marksync", mod)
}

func (e *Engine) luaOnInput(L *lua.LState) int {
	fn := L.CheckFunction(1)
	e.mu.Lock()
	e.onInput = append(e.onInput, fn)
	e.mu.Unlock()
	return 0
}

func (e *Engine) luaOnUpdate(L *lua.LState) int {
	fn := L.CheckFunction(1)
	e.mu.Lock()
	e.onUpdate = append(e.onUpdate, fn)
	e.mu.Unlock()
	return 0
}

func (e *Engine) luaLog(L *lua.LState) int {
	e.logger.Info(L.CheckString(1), zap.String("source", "script"))
	return 0
}

func (e *Engine) luaSet(L *lua.LState) int {
	path := L.CheckString(1)
	if e.set == nil {
		L.RaiseError("marksync.set is not available")
		return 0
	}
	if err := e.set(path, toGo(L.Get(2))); err != nil {
		L.Push(lua.LString(err.Error()))
		return 1
	}
	return 0
}

// LoadFile runs a script file.
func (e *Engine) LoadFile(path string) error {
	return e.run(func(L *lua.LState) error { return L.DoFile(path) })
}

// LoadString runs script source.
func (e *Engine) LoadString(code string) error {
	return e.run(func(L *lua.LState) error { return L.DoString(code) })
}

// Handlers returns the number of registered input and update callbacks.
func (e *Engine) Handlers() (onInput, onUpdate int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.onInput), len(e.onUpdate)
}

// run executes fn on the Lua state. Runs do not nest: a script that
// changes configuration may cause updates that would call back into Lua.
func (e *Engine) run(fn func(L *lua.LState) error) (err error) {
	e.mu.Lock()
	switch {
	case e.closed:
		e.mu.Unlock()
		return ErrClosed
	case e.running:
		e.mu.Unlock()
		return ErrBusy
	}
	e.running = true
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()
	e.L.SetContext(ctx)
	defer e.L.RemoveContext()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	if err := fn(e.L); err != nil {
		return fmt.Errorf("script: %w", err)
	}
	return nil
}

// PreInsert runs the on_input callbacks. Script errors are logged and the
// insert continues unchanged.
func (e *Engine) PreInsert(ev *input.InsertEvent) bool {
	e.mu.Lock()
	handlers := append([]*lua.LFunction(nil), e.onInput...)
	e.mu.Unlock()

	for _, fn := range handlers {
		var ret lua.LValue
		err := e.run(func(L *lua.LState) error {
			if err := L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true},
				lua.LString(ev.Text), selectionTable(L, ev.State)); err != nil {
				return err
			}
			ret = L.Get(-1)
			L.Pop(1)
			return nil
		})
		if err != nil {
			e.logger.Warn("on_input failed", zap.Error(err))
			continue
		}
		switch v := ret.(type) {
		case lua.LBool:
			if bool(v) {
				return true
			}
		case lua.LString:
			ev.Text = string(v)
		}
	}
	return false
}

// OnUpdate runs the on_update callbacks with a view update.
func (e *Engine) OnUpdate(u bridge.ViewUpdate) {
	e.mu.Lock()
	handlers := append([]*lua.LFunction(nil), e.onUpdate...)
	e.mu.Unlock()

	for _, fn := range handlers {
		err := e.run(func(L *lua.LState) error {
			return L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, updateTable(L, u))
		})
		if err != nil && !errors.Is(err, ErrBusy) {
			e.logger.Warn("on_update failed", zap.Error(err))
		}
	}
}

// Close releases the Lua state.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || e.running {
		return
	}
	e.closed = true
	e.L.Close()
}

func selectionTable(L *lua.LState, state *engine.State) lua.LValue {
	t := L.NewTable()
	if state == nil {
		return t
	}
	main := state.Selection().Main()
	L.SetField(t, "anchor", lua.LNumber(main.Anchor))
	L.SetField(t, "head", lua.LNumber(main.Head))
	L.SetField(t, "empty", lua.LBool(main.IsEmpty()))
	L.SetField(t, "text", lua.LString(state.SliceDoc(main.Start(), main.End())))
	L.SetField(t, "ranges", lua.LNumber(state.Selection().Count()))
	return t
}

func updateTable(L *lua.LState, u bridge.ViewUpdate) lua.LValue {
	t := L.NewTable()
	L.SetField(t, "content_edited", lua.LBool(u.ContentEdited))
	L.SetField(t, "composition_ended", lua.LBool(u.CompositionEnded))
	L.SetField(t, "is_dirty", lua.LBool(u.IsDirty))
	L.SetField(t, "line", lua.LNumber(u.SelectedLineColumn.Line))
	L.SetField(t, "column", lua.LNumber(u.SelectedLineColumn.Column))
	L.SetField(t, "selection_length", lua.LNumber(u.SelectionLength))
	return t
}

func toGo(v lua.LValue) any {
	switch v := v.(type) {
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		f := float64(v)
		if f == float64(int64(f)) {
			return int64(f)
		}
		return f
	case lua.LString:
		return string(v)
	case *lua.LTable:
		m := make(map[string]any)
		v.ForEach(func(k, val lua.LValue) {
			m[k.String()] = toGo(val)
		})
		return m
	default:
		return nil
	}
}
