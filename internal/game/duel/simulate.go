package duel

import (
	"fmt"

	"github.com/cory-johannsen/spellduel/internal/game/spell"
)

// Snapshot is one side's vital numbers at the end of a half-turn.
type Snapshot struct {
	HP    int `yaml:"hp"`
	Armor int `yaml:"armor"`
	Mana  int `yaml:"mana,omitempty"`
}

// Event records what happened during one half-turn.
type Event struct {
	HalfTurn     int
	Actor        Role
	Action       Action
	Attrition    int
	EffectDamage int
	ActionDamage int
	// Performed is false when the actor died, or won, before acting.
	Performed bool
	Rejected  string
	Player    Snapshot
	Boss      Snapshot
	State     State
}

// Narrative renders the event as one line of text.
func (e Event) Narrative() string {
	head := fmt.Sprintf("[%d] %s", e.HalfTurn, e.Actor)
	switch {
	case e.Rejected != "":
		return fmt.Sprintf("%s tries to %s: %s.", head, e.Action, e.Rejected)
	case !e.Performed:
		return fmt.Sprintf("%s never acts: %s (effects dealt %d).", head, e.State, e.EffectDamage)
	case e.Action.Kind == ActionBasicAttack:
		return fmt.Sprintf("%s attacks for %d damage (effects dealt %d); player hp %d armor %d.",
			head, e.ActionDamage, e.EffectDamage, e.Player.HP, e.Player.Armor)
	default:
		return fmt.Sprintf("%s casts %s (effects dealt %d); player hp %d mana %d, boss hp %d.",
			head, e.Action.Spell, e.EffectDamage, e.Player.HP, e.Player.Mana, e.Boss.HP)
	}
}

// Result is the outcome of playing a spell sequence.
type Result struct {
	Outcome   State
	ManaSpent int
	// Cast lists the spells that were actually cast; it is shorter than the
	// input when the duel ended early or a cast was rejected.
	Cast      []spell.Name
	HalfTurns int
	Player    Combatant
	Boss      Combatant
	Events    []Event
}

// Result summarizes the duel in its current state.
func (d *Duel) Result() Result {
	return Result{
		Outcome:   d.state,
		ManaSpent: d.spent,
		Cast:      d.Cast(),
		HalfTurns: d.halfTurns,
		Player:    d.Player(),
		Boss:      d.Boss(),
		Events:    d.Events(),
	}
}

// Simulate plays spells in order, each player cast followed by a boss attack,
// until the duel ends or the sequence runs out. Running out without a winner
// reports InProgress.
//
// Postcondition: Result.ManaSpent is the sum of the costs of Result.Cast. A rejected
// cast returns the partial result alongside the *InvalidCastError or
// *DuplicateEffectError.
func Simulate(player, boss Combatant, spells []spell.Name, rules Rules) (Result, error) {
	d := New(player, boss, rules)
	d.Record()
	for _, name := range spells {
		if d.State() != InProgress {
			break
		}
		if _, err := d.Advance(RolePlayer, Cast(name)); err != nil {
			return d.Result(), err
		}
		if d.State() != InProgress {
			break
		}
		if _, err := d.Advance(RoleBoss, BasicAttack()); err != nil {
			return d.Result(), err
		}
	}
	return d.Result(), nil
}
