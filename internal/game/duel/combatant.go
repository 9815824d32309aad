// Package duel implements the one-on-one wizard duel: combatants, timed spell
// effects, and the half-turn state machine.
package duel

import "github.com/cory-johannsen/spellduel/internal/game/spell"

// Role distinguishes the player-wizard from the boss.
type Role int

const (
	RolePlayer Role = iota
	RoleBoss
)

// String returns a human-readable role label.
func (r Role) String() string {
	switch r {
	case RolePlayer:
		return "player"
	case RoleBoss:
		return "boss"
	default:
		return "unknown"
	}
}

// Opponent returns the other side of the duel.
func (r Role) Opponent() Role {
	if r == RolePlayer {
		return RoleBoss
	}
	return RolePlayer
}

// ActiveEffect is one sustained spell currently running on its caster.
type ActiveEffect struct {
	Spell     *spell.Definition
	Remaining int
}

// Combatant is one side of the duel.
//
// The boss has no mana pool and never casts; Damage is only meaningful for the boss.
// Effects lists the sustained spells this combatant cast, in cast order.
type Combatant struct {
	Role    Role
	HP      int
	Armor   int
	Mana    int
	Damage  int
	Effects []ActiveEffect
}

// NewPlayer returns a player-wizard with no armor and no active effects.
func NewPlayer(hp, mana int) Combatant {
	return Combatant{Role: RolePlayer, HP: hp, Mana: mana}
}

// NewBoss returns a boss that deals damage with each basic attack.
func NewBoss(hp, damage int) Combatant {
	return Combatant{Role: RoleBoss, HP: hp, Damage: damage}
}

// IsDead reports whether the combatant is at or below zero hit points.
func (c Combatant) IsDead() bool { return c.HP <= 0 }

// Hit applies incoming damage reduced by armor, never below zero, and returns
// the damage actually dealt.
//
// Postcondition: Returns max(0, dmg - Armor); HP is reduced by the returned amount.
func (c *Combatant) Hit(dmg int) int {
	dealt := max(0, dmg-c.Armor)
	c.HP -= dealt
	return dealt
}

// Effect returns the first active effect started by the named spell.
func (c Combatant) Effect(name spell.Name) (ActiveEffect, bool) {
	for _, e := range c.Effects {
		if e.Spell.Name == name {
			return e, true
		}
	}
	return ActiveEffect{}, false
}

// Clone returns a deep copy whose effect list can be mutated independently.
func (c Combatant) Clone() Combatant {
	out := c
	if c.Effects != nil {
		out.Effects = make([]ActiveEffect, len(c.Effects))
		copy(out.Effects, c.Effects)
	}
	return out
}
