package duel

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/spellduel/internal/game/spell"
)

// State is the outcome of a duel so far.
type State int

const (
	InProgress State = iota
	PlayerWon
	PlayerLost
)

// String returns a human-readable state label.
func (s State) String() string {
	switch s {
	case InProgress:
		return "in progress"
	case PlayerWon:
		return "player won"
	case PlayerLost:
		return "player lost"
	default:
		return "unknown"
	}
}

// ActionKind identifies what a combatant does on its half-turn.
// The zero value (ActionUnknown) is intentionally invalid.
type ActionKind int

const (
	ActionUnknown ActionKind = iota
	ActionCast
	ActionBasicAttack
)

// Action is the move performed after effects have ticked.
type Action struct {
	Kind  ActionKind
	Spell spell.Name // set for ActionCast only
}

// Cast returns the player action casting name.
func Cast(name spell.Name) Action { return Action{Kind: ActionCast, Spell: name} }

// BasicAttack returns the boss's only action.
func BasicAttack() Action { return Action{Kind: ActionBasicAttack} }

// String returns a human-readable action label.
func (a Action) String() string {
	switch a.Kind {
	case ActionCast:
		return fmt.Sprintf("cast %s", a.Spell)
	case ActionBasicAttack:
		return "basic attack"
	default:
		return "unknown"
	}
}

// Rules are the tunable parts of the duel.
type Rules struct {
	// AllowStacking lets a sustained spell be cast while its effect is still
	// active; the second copy ticks independently. When false such a cast is
	// a DuplicateEffectError.
	AllowStacking bool
	// PlayerAttrition is the hit points the player loses at the start of each
	// of their half-turns, before effects tick.
	PlayerAttrition int
}

var (
	// ErrDuelOver is returned when an action is attempted after the duel has ended.
	ErrDuelOver = errors.New("duel is over")
	// ErrOutOfTurn is returned when a side acts on the other side's half-turn.
	ErrOutOfTurn = errors.New("acting out of turn")
)

// InvalidCastError reports a cast the player cannot afford.
type InvalidCastError struct {
	Spell spell.Name
	Mana  int
	Cost  int
}

func (e *InvalidCastError) Error() string {
	return fmt.Sprintf("cannot cast %s: costs %d mana, have %d", e.Spell, e.Cost, e.Mana)
}

// DuplicateEffectError reports a cast of a sustained spell whose effect is still active.
type DuplicateEffectError struct {
	Spell     spell.Name
	Remaining int
}

func (e *DuplicateEffectError) Error() string {
	return fmt.Sprintf("cannot cast %s: effect still active for %d turns", e.Spell, e.Remaining)
}

// InvalidActionError reports an action the acting side cannot perform.
type InvalidActionError struct {
	Actor  Role
	Action Action
}

func (e *InvalidActionError) Error() string {
	return fmt.Sprintf("%s cannot %s", e.Actor, e.Action)
}

// IsRejectedCast reports whether err marks a dead-end branch: a cast the player
// could not afford or an effect that is already running.
func IsRejectedCast(err error) bool {
	var invalid *InvalidCastError
	var dup *DuplicateEffectError
	return errors.As(err, &invalid) || errors.As(err, &dup)
}

// Duel is the state machine for one player against one boss.
// It is not safe for concurrent use; use Clone to branch.
type Duel struct {
	player    Combatant
	boss      Combatant
	rules     Rules
	state     State
	next      Role
	spent     int
	halfTurns int
	cast      []spell.Name
	// failed holds the error that ended the duel abnormally; the duel must be discarded.
	failed error

	record bool
	events []Event
}

// New starts a duel with the player to act first.
// A boss that starts at or below zero hit points is already beaten.
func New(player, boss Combatant, rules Rules) *Duel {
	d := &Duel{
		player: player.Clone(),
		boss:   boss.Clone(),
		rules:  rules,
		next:   RolePlayer,
	}
	d.player.Role = RolePlayer
	d.boss.Role = RoleBoss
	d.resolve()
	return d
}

// Record turns on the per-half-turn event trace.
func (d *Duel) Record() { d.record = true }

// State returns the current outcome.
func (d *Duel) State() State { return d.state }

// Next returns the side whose half-turn comes next.
func (d *Duel) Next() Role { return d.next }

// ManaSpent returns the total cost of all spells successfully cast.
func (d *Duel) ManaSpent() int { return d.spent }

// HalfTurns returns the number of half-turns played.
func (d *Duel) HalfTurns() int { return d.halfTurns }

// Player returns a copy of the player's current state.
func (d *Duel) Player() Combatant { return d.player.Clone() }

// Boss returns a copy of the boss's current state.
func (d *Duel) Boss() Combatant { return d.boss.Clone() }

// Cast returns the spells successfully cast so far, in order.
func (d *Duel) Cast() []spell.Name {
	out := make([]spell.Name, len(d.cast))
	copy(out, d.cast)
	return out
}

// Events returns the recorded trace; empty unless Record was called.
func (d *Duel) Events() []Event {
	out := make([]Event, len(d.events))
	copy(out, d.events)
	return out
}

// Clone returns an independent copy of the duel, sharing no mutable state.
func (d *Duel) Clone() *Duel {
	out := *d
	out.player = d.player.Clone()
	out.boss = d.boss.Clone()
	out.cast = make([]spell.Name, len(d.cast), len(d.cast)+1)
	copy(out.cast, d.cast)
	if d.events != nil {
		out.events = make([]Event, len(d.events))
		copy(out.events, d.events)
	}
	return &out
}

// Advance plays one half-turn for actor.
//
// Both sides' effects tick first (the opponent's, then the actor's) and their
// damage is applied across. If that kills either side the duel resolves and the
// action is skipped. Otherwise the action runs: the player casts, or the boss
// attacks for max(1, Damage - player armor).
//
// Precondition: actor == Next(); the player may only cast and the boss may only attack.
// Postcondition: rejected casts return *InvalidCastError or *DuplicateEffectError;
// an unknown spell returns a wrapped *spell.UnknownSpellError. After any error
// from the action itself the duel is spent and every later call returns the same error.
func (d *Duel) Advance(actor Role, action Action) (State, error) {
	if d.failed != nil {
		return d.state, d.failed
	}
	if d.state != InProgress {
		return d.state, ErrDuelOver
	}
	if actor != d.next {
		return d.state, fmt.Errorf("%w: %s acted on the %s's half-turn", ErrOutOfTurn, actor, d.next)
	}
	if !allowed(actor, action) {
		return d.state, &InvalidActionError{Actor: actor, Action: action}
	}

	d.halfTurns++
	d.next = actor.Opponent()
	self, opp := d.sides(actor)
	ev := Event{HalfTurn: d.halfTurns, Actor: actor, Action: action}

	if actor == RolePlayer && d.rules.PlayerAttrition > 0 {
		self.HP -= d.rules.PlayerAttrition
		ev.Attrition = d.rules.PlayerAttrition
		if d.resolve() != InProgress {
			d.emit(ev)
			return d.state, nil
		}
	}

	fromOpp := Tick(opp)
	fromSelf := Tick(self)
	ev.EffectDamage = self.Hit(fromOpp) + opp.Hit(fromSelf)
	if d.resolve() != InProgress {
		d.emit(ev)
		return d.state, nil
	}

	switch action.Kind {
	case ActionCast:
		if err := d.castSpell(self, opp, action.Spell); err != nil {
			d.failed = err
			ev.Rejected = err.Error()
			d.emit(ev)
			return d.state, err
		}
		ev.Performed = true
	case ActionBasicAttack:
		ev.ActionDamage = opp.HP
		opp.HP -= max(1, self.Damage-opp.Armor)
		ev.ActionDamage -= opp.HP
		ev.Performed = true
	}

	d.resolve()
	d.emit(ev)
	return d.state, nil
}

func allowed(actor Role, action Action) bool {
	switch action.Kind {
	case ActionCast:
		return actor == RolePlayer
	case ActionBasicAttack:
		return actor == RoleBoss
	default:
		return false
	}
}

func (d *Duel) sides(actor Role) (self, opp *Combatant) {
	if actor == RolePlayer {
		return &d.player, &d.boss
	}
	return &d.boss, &d.player
}

func (d *Duel) castSpell(caster, target *Combatant, name spell.Name) error {
	def, err := spell.Lookup(name)
	if err != nil {
		return fmt.Errorf("casting: %w", err)
	}
	if caster.Mana-def.Cost < 0 {
		return &InvalidCastError{Spell: name, Mana: caster.Mana, Cost: def.Cost}
	}
	if def.Sustained() && !d.rules.AllowStacking {
		if e, ok := caster.Effect(name); ok {
			return &DuplicateEffectError{Spell: name, Remaining: e.Remaining}
		}
	}

	caster.Mana -= def.Cost
	d.spent += def.Cost
	d.cast = append(d.cast, name)

	if def.Damage > 0 {
		target.Hit(def.Damage)
	}
	caster.HP += def.Heal
	caster.Armor += def.Armor
	if def.Sustained() {
		caster.Effects = append(caster.Effects, ActiveEffect{Spell: def, Remaining: def.Duration})
	}
	return nil
}

// resolve re-derives the state from both sides' hit points.
// A dead boss wins over a dead player.
func (d *Duel) resolve() State {
	switch {
	case d.boss.IsDead():
		d.state = PlayerWon
	case d.player.IsDead():
		d.state = PlayerLost
	default:
		d.state = InProgress
	}
	return d.state
}

func (d *Duel) emit(ev Event) {
	if !d.record {
		return
	}
	ev.Player = Snapshot{HP: d.player.HP, Armor: d.player.Armor, Mana: d.player.Mana}
	ev.Boss = Snapshot{HP: d.boss.HP, Armor: d.boss.Armor}
	ev.State = d.state
	d.events = append(d.events, ev)
}
