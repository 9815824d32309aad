package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// SpellInfo is the catalog view exposed to scripts.
type SpellInfo struct {
	Name     string
	Cost     int
	Duration int
}

// RegisterModules registers the duel.* Lua table into L for the script
// loaded under name:
//
//	duel.spells()   -> array of {name, cost, duration}, catalog order
//	duel.cost(name) -> cost, or nil for an unknown spell
//	duel.log(msg)   -> writes msg to the debug log
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: duel global is defined in L.
func (m *Manager) RegisterModules(L *lua.LState, name string) {
	mod := L.NewTable()
	L.SetField(mod, "spells", L.NewFunction(func(L *lua.LState) int {
		list := L.NewTable()
		for _, s := range m.spells() {
			entry := L.NewTable()
			entry.RawSetString("name", lua.LString(s.Name))
			entry.RawSetString("cost", lua.LNumber(s.Cost))
			entry.RawSetString("duration", lua.LNumber(s.Duration))
			list.Append(entry)
		}
		L.Push(list)
		return 1
	}))
	L.SetField(mod, "cost", L.NewFunction(func(L *lua.LState) int {
		want := L.CheckString(1)
		for _, s := range m.spells() {
			if s.Name == want {
				L.Push(lua.LNumber(s.Cost))
				return 1
			}
		}
		L.Push(lua.LNil)
		return 1
	}))
	L.SetField(mod, "log", L.NewFunction(func(L *lua.LState) int {
		m.logger.Debug("scripting: script log",
			zap.String("script", name),
			zap.String("msg", L.CheckString(1)),
		)
		return 0
	}))
	L.SetGlobal("duel", mod)
}

func (m *Manager) spells() []SpellInfo {
	if m.Spells == nil {
		return nil
	}
	return m.Spells()
}
