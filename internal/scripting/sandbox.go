// Package scripting runs autoplay scripts in sandboxed GopherLua states.
// It does not import the duel packages; the spell catalog reaches scripts
// through Manager.Spells.
package scripting

import (
	"context"
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"
)

// DefaultInstructionLimit is the opcode budget for one load or one hook call
// when none is configured.
const DefaultInstructionLimit = 100_000

// strippedGlobals are removed from every state after the base library opens.
var strippedGlobals = []string{"dofile", "loadfile", "load", "collectgarbage", "require", "print"}

// opcodeBudget cancels itself once Done has been polled left times.
// GopherLua polls Done once per opcode when a context is set.
type opcodeBudget struct {
	context.Context
	left   atomic.Int64
	cancel context.CancelFunc
}

func (b *opcodeBudget) Done() <-chan struct{} {
	if b.left.Add(-1) <= 0 {
		b.cancel()
	}
	return b.Context.Done()
}

func effectiveLimit(instLimit int) int {
	if instLimit <= 0 {
		return DefaultInstructionLimit
	}
	return instLimit
}

// armLimit gives L a fresh budget of instLimit opcodes, or the default for 0.
// The returned func releases the budget.
func armLimit(L *lua.LState, instLimit int) context.CancelFunc {
	ctx, cancel := context.WithCancel(context.Background())
	b := &opcodeBudget{Context: ctx, cancel: cancel}
	b.left.Store(int64(effectiveLimit(instLimit)))
	L.SetContext(b)
	return cancel
}

// NewSandboxedState returns a state with only the base, table, string and math
// libraries, without file loading, module loading, collectgarbage or print,
// and with an armed opcode budget of instLimit (0 for the default).
//
// The caller owns the state and must Close it.
func NewSandboxedState(instLimit int) *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, open := range []lua.LGFunction{lua.OpenBase, lua.OpenTable, lua.OpenString, lua.OpenMath} {
		open(L)
	}
	for _, name := range strippedGlobals {
		L.SetGlobal(name, lua.LNil)
	}
	armLimit(L, instLimit) //nolint:govet // the budget cancels itself when spent
	return L
}
