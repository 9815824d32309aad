// Package autoplay drives a duel turn by turn with a scripted player.
package autoplay

import (
	"context"
	"errors"
	"fmt"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/spellduel/internal/game/duel"
	"github.com/cory-johannsen/spellduel/internal/game/spell"
	"github.com/cory-johannsen/spellduel/internal/scripting"
)

// Hook is the Lua global the player script must define. It receives the
// state table and returns the name of the spell to cast.
const Hook = "choose_spell"

// ErrTurnLimit is returned when the duel is still in progress after maxTurns player turns.
var ErrTurnLimit = errors.New("autoplay: turn limit reached")

// ScriptCaller is the interface required by the Player to consult a script.
type ScriptCaller interface {
	// Call invokes a named Lua function in the given script's VM with Go
	// arguments. Returns (LNil, nil) if the function is not defined.
	Call(script, hook string, args ...any) (lua.LValue, error)
}

// ChoiceError reports a hook result that does not name a castable spell.
type ChoiceError struct {
	Turn   int
	Choice string
	Err    error
}

func (e *ChoiceError) Error() string {
	if e.Choice == "" {
		return fmt.Sprintf("autoplay: turn %d: %s returned no spell", e.Turn, Hook)
	}
	return fmt.Sprintf("autoplay: turn %d: %s returned %q: %v", e.Turn, Hook, e.Choice, e.Err)
}

func (e *ChoiceError) Unwrap() error { return e.Err }

// Player picks each cast by calling the script's choose_spell hook.
//
// Invariant: caller must not be nil.
type Player struct {
	caller ScriptCaller
	script string
	logger *zap.Logger
}

// NewPlayer constructs a Player for the script loaded under the given name.
//
// Precondition: caller must not be nil. A nil logger disables logging.
func NewPlayer(caller ScriptCaller, script string, logger *zap.Logger) *Player {
	if caller == nil {
		panic("autoplay.NewPlayer: caller must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Player{caller: caller, script: script, logger: logger}
}

// Play runs one recorded duel to completion. On each player turn the script
// sees the state before effects tick; the state table holds
// player_hp, player_mana, player_armor, boss_hp, boss_damage, mana_spent,
// turn and active (spell name -> remaining ticks of the player's effects;
// the longest-lived copy when stacking is allowed).
//
// Precondition: ctx must not be nil; maxTurns <= 0 means no limit.
// Postcondition: the Result covers every half-turn played. A script error,
// an unusable choice, a rejected cast, cancellation and ErrTurnLimit all
// return the partial Result together with the error.
func (p *Player) Play(ctx context.Context, player, boss duel.Combatant, rules duel.Rules, maxTurns int) (duel.Result, error) {
	d := duel.New(player, boss, rules)
	d.Record()

	for turn := 1; d.State() == duel.InProgress; turn++ {
		if err := ctx.Err(); err != nil {
			return d.Result(), fmt.Errorf("autoplay cancelled: %w", err)
		}
		if maxTurns > 0 && turn > maxTurns {
			return d.Result(), fmt.Errorf("%w after %d turns", ErrTurnLimit, maxTurns)
		}

		name, err := p.choose(d, turn)
		if err != nil {
			return d.Result(), err
		}
		p.logger.Debug("autoplay choice",
			zap.Int("turn", turn),
			zap.String("spell", string(name)),
		)

		if _, err := d.Advance(duel.RolePlayer, duel.Cast(name)); err != nil {
			return d.Result(), fmt.Errorf("autoplay: turn %d: %w", turn, err)
		}
		if d.State() != duel.InProgress {
			break
		}
		if _, err := d.Advance(duel.RoleBoss, duel.BasicAttack()); err != nil {
			return d.Result(), fmt.Errorf("autoplay: turn %d: %w", turn, err)
		}
	}

	res := d.Result()
	p.logger.Info("autoplay finished",
		zap.String("script", p.script),
		zap.String("outcome", res.Outcome.String()),
		zap.Int("mana", res.ManaSpent),
		zap.Int("casts", len(res.Cast)),
	)
	return res, nil
}

func (p *Player) choose(d *duel.Duel, turn int) (spell.Name, error) {
	ret, err := p.caller.Call(p.script, Hook, StateTable(d, turn))
	if err != nil {
		return "", fmt.Errorf("autoplay: turn %d: %w", turn, err)
	}
	s, ok := ret.(lua.LString)
	if !ok || s == "" {
		return "", &ChoiceError{Turn: turn}
	}
	name, err := spell.Parse(string(s))
	if err != nil {
		return "", &ChoiceError{Turn: turn, Choice: string(s), Err: err}
	}
	return name, nil
}

// StateTable builds the argument passed to the choose_spell hook.
func StateTable(d *duel.Duel, turn int) map[string]any {
	player, boss := d.Player(), d.Boss()
	active := make(map[string]int, len(player.Effects))
	for _, e := range player.Effects {
		name := string(e.Spell.Name)
		if e.Remaining > active[name] {
			active[name] = e.Remaining
		}
	}
	return map[string]any{
		"player_hp":    player.HP,
		"player_mana":  player.Mana,
		"player_armor": player.Armor,
		"boss_hp":      boss.HP,
		"boss_damage":  boss.Damage,
		"mana_spent":   d.ManaSpent(),
		"turn":         turn,
		"active":       active,
	}
}

// Catalog exposes the spell catalog to scripts; assign it to
// scripting.Manager.Spells.
func Catalog() []scripting.SpellInfo {
	names := spell.Names()
	out := make([]scripting.SpellInfo, 0, len(names))
	for _, n := range names {
		d := spell.MustLookup(n)
		out = append(out, scripting.SpellInfo{Name: string(d.Name), Cost: d.Cost, Duration: d.Duration})
	}
	return out
}
