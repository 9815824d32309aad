package scripting_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/spellduel/internal/scripting"
)

func catalog() []scripting.SpellInfo {
	return []scripting.SpellInfo{
		{Name: "Drain", Cost: 73},
		{Name: "Magic Missile", Cost: 53},
		{Name: "Poison", Cost: 173, Duration: 6},
	}
}

func TestModules_Spells(t *testing.T) {
	mgr, _ := newTestManager(t)
	mgr.Spells = catalog
	require.NoError(t, mgr.LoadString("m", `
		function summary()
			local out = ""
			for _, s in ipairs(duel.spells()) do
				out = out .. s.name .. "/" .. s.cost .. "/" .. s.duration .. ";"
			end
			return out
		end
	`, 0))
	ret, err := mgr.CallHook("m", "summary")
	require.NoError(t, err)
	assert.Equal(t, lua.LString("Drain/73/0;Magic Missile/53/0;Poison/173/6;"), ret)
}

func TestModules_Cost(t *testing.T) {
	mgr, _ := newTestManager(t)
	mgr.Spells = catalog
	require.NoError(t, mgr.LoadString("m", `function cost(n) return duel.cost(n) end`, 0))

	ret, err := mgr.CallHook("m", "cost", lua.LString("Poison"))
	require.NoError(t, err)
	assert.Equal(t, lua.LNumber(173), ret)

	ret, err = mgr.CallHook("m", "cost", lua.LString("Fireball"))
	require.NoError(t, err)
	assert.Equal(t, lua.LNil, ret)
}

func TestModules_NoCatalogInjected(t *testing.T) {
	mgr, _ := newTestManager(t)
	require.NoError(t, mgr.LoadString("m", `function n() return #duel.spells() end`, 0))
	ret, err := mgr.CallHook("m", "n")
	require.NoError(t, err)
	assert.Equal(t, lua.LNumber(0), ret)
}

func TestModules_Log(t *testing.T) {
	mgr, logs := newTestManager(t)
	require.NoError(t, mgr.LoadString("chatty", `function speak() duel.log("casting poison") end`, 0))
	_, err := mgr.CallHook("chatty", "speak")
	require.NoError(t, err)

	entries := logs.FilterMessage("scripting: script log").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zap.DebugLevel, entries[0].Level)
	assert.Equal(t, "chatty", entries[0].ContextMap()["script"])
	assert.Equal(t, "casting poison", entries[0].ContextMap()["msg"])
}
