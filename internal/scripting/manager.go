package scripting

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// ErrNoScript is returned when a hook is called on a script name that was never loaded.
var ErrNoScript = errors.New("scripting: no such script")

// vm is one sandboxed LState. An LState is single-threaded, so every call
// holds mu for its whole duration.
type vm struct {
	mu    sync.Mutex
	L     *lua.LState
	limit int
}

// Manager owns one sandboxed LState per loaded script and exposes hook dispatch.
//
// Manager is safe for concurrent use. Calls into the same script are
// serialized; different scripts run concurrently.
type Manager struct {
	mu     sync.RWMutex
	vms    map[string]*vm
	logger *zap.Logger

	// Injected after construction. nil = duel.spells() returns an empty list.
	Spells func() []SpellInfo
}

// NewManager creates a Manager.
//
// Precondition: logger must be non-nil.
// Postcondition: Returns a non-nil Manager with no scripts loaded.
func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		panic("scripting.NewManager: logger must not be nil")
	}
	return &Manager{
		vms:    make(map[string]*vm),
		logger: logger,
	}
}

// LoadFile creates a sandboxed VM for name, registers the duel.* module,
// then executes the Lua file at path.
//
// Precondition: name must be non-empty.
// Postcondition: the VM replaces any earlier one under name; returns error on Lua load failure.
func (m *Manager) LoadFile(name, path string, instLimit int) error {
	return m.load(name, []string{path}, instLimit)
}

// LoadDir is LoadFile for every *.lua file in dir, executed in lexicographic order
// into a single VM.
//
// Precondition: dir must be a readable directory.
func (m *Manager) LoadDir(name, dir string, instLimit int) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("scripting: reading script dir %q for %q: %w", dir, name, err)
	}
	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(luaFiles)
	return m.load(name, luaFiles, instLimit)
}

// LoadString loads Lua source held in memory under name.
//
// Precondition: name must be non-empty.
func (m *Manager) LoadString(name, src string, instLimit int) error {
	return m.build(name, instLimit, func(L *lua.LState) error {
		if err := L.DoString(src); err != nil {
			return fmt.Errorf("scripting: loading %q: %w", name, err)
		}
		return nil
	})
}

func (m *Manager) load(name string, files []string, instLimit int) error {
	return m.build(name, instLimit, func(L *lua.LState) error {
		for _, path := range files {
			if err := L.DoFile(path); err != nil {
				return fmt.Errorf("scripting: loading %q for %q: %w", path, name, err)
			}
		}
		return nil
	})
}

// build creates the VM for name, runs exec in it, and installs it on success.
func (m *Manager) build(name string, instLimit int, exec func(*lua.LState) error) error {
	if name == "" {
		return errors.New("scripting: script name must not be empty")
	}
	L := NewSandboxedState(instLimit)
	m.RegisterModules(L, name)
	if err := exec(L); err != nil {
		L.Close()
		return err
	}
	m.install(name, &vm{L: L, limit: instLimit})
	m.logger.Debug("scripting: script loaded", zap.String("script", name))
	return nil
}

func (m *Manager) install(name string, v *vm) {
	m.mu.Lock()
	old := m.vms[name]
	m.vms[name] = v
	m.mu.Unlock()
	if old != nil {
		old.mu.Lock()
		old.L.Close()
		old.mu.Unlock()
	}
}

func (m *Manager) lookup(name string) (*vm, error) {
	m.mu.RLock()
	v, ok := m.vms[name]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoScript, name)
	}
	return v, nil
}

// HasHook reports whether the script loaded under name defines a global function hook.
func (m *Manager) HasHook(name, hook string) bool {
	v, err := m.lookup(name)
	if err != nil {
		return false
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.L.GetGlobal(hook).Type() == lua.LTFunction
}

// CallHook calls the named Lua global function in the VM loaded under name.
// Returns (LNil, nil) if the hook is not defined. Each call gets a fresh
// instruction budget. Lua runtime errors, including an exhausted budget,
// are logged at Warn level and returned.
//
// Precondition: args must be valid lua.LValue instances.
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(name, hook string, args ...lua.LValue) (lua.LValue, error) {
	return m.call(name, hook, func(*lua.LState) ([]lua.LValue, error) { return args, nil })
}

// Call is CallHook for plain Go arguments, converted with ToLValue inside
// the target VM.
func (m *Manager) Call(name, hook string, args ...any) (lua.LValue, error) {
	return m.call(name, hook, func(L *lua.LState) ([]lua.LValue, error) {
		out := make([]lua.LValue, 0, len(args))
		for i, a := range args {
			lv, err := ToLValue(L, a)
			if err != nil {
				return nil, fmt.Errorf("scripting: argument %d to %s: %w", i+1, hook, err)
			}
			out = append(out, lv)
		}
		return out, nil
	})
}

func (m *Manager) call(name, hook string, build func(*lua.LState) ([]lua.LValue, error)) (lua.LValue, error) {
	v, err := m.lookup(name)
	if err != nil {
		return lua.LNil, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	L := v.L

	fn := L.GetGlobal(hook)
	if fn == lua.LNil {
		return lua.LNil, nil
	}
	args, err := build(L)
	if err != nil {
		return lua.LNil, err
	}

	cancel := armLimit(L, v.limit)
	defer cancel()

	if err := L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, args...); err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("script", name),
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, fmt.Errorf("scripting: %s.%s: %w", name, hook, err)
	}

	ret := L.Get(-1)
	L.Pop(1)
	return ret, nil
}

// Close releases every loaded VM.
//
// Postcondition: subsequent calls return ErrNoScript.
func (m *Manager) Close() {
	m.mu.Lock()
	vms := m.vms
	m.vms = make(map[string]*vm)
	m.mu.Unlock()
	for _, v := range vms {
		v.mu.Lock()
		v.L.Close()
		v.mu.Unlock()
	}
}
