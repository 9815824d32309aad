// Package spell holds the fixed catalog of spells a wizard can cast.
package spell

import (
	"fmt"
	"strings"
)

// Name identifies a spell in the catalog.
type Name string

const (
	Drain        Name = "Drain"
	MagicMissile Name = "Magic Missile"
	Poison       Name = "Poison"
	Recharge     Name = "Recharge"
	Shield       Name = "Shield"
)

// Definition is the static description of one spell.
//
// Instant deltas (Damage, Heal, Armor) resolve once when the spell is cast.
// Tick deltas resolve on every tick while the spell's effect is active.
// ExpireArmor is applied once, on the tick the effect runs out.
type Definition struct {
	Name     Name `yaml:"name"`
	Cost     int  `yaml:"cost"`
	Duration int  `yaml:"duration"` // 0 = instant

	Damage int `yaml:"damage,omitempty"` // to the opponent
	Heal   int `yaml:"heal,omitempty"`   // to the caster
	Armor  int `yaml:"armor,omitempty"`  // to the caster

	TickDamage int `yaml:"tick_damage,omitempty"` // to the opponent
	TickArmor  int `yaml:"tick_armor,omitempty"`   // to the caster
	TickMana   int `yaml:"tick_mana,omitempty"`    // to the caster
	TickHeal   int `yaml:"tick_heal,omitempty"`    // to the caster

	ExpireArmor int `yaml:"expire_armor,omitempty"` // to the caster
}

// Sustained reports whether casting the spell starts a timed effect.
func (d *Definition) Sustained() bool { return d.Duration > 0 }

// UnknownSpellError is returned by Lookup and Parse for names outside the catalog.
// It indicates a caller bug, never a legitimate game state.
type UnknownSpellError struct {
	Name string
}

func (e *UnknownSpellError) Error() string {
	return fmt.Sprintf("unknown spell %q", e.Name)
}

// catalog is ordered alphabetically by name; the search relies on this order
// as its tie-break.
var catalog = []Definition{
	{Name: Drain, Cost: 73, Damage: 2, Heal: 2},
	{Name: MagicMissile, Cost: 53, Damage: 4},
	{Name: Poison, Cost: 173, Duration: 6, TickDamage: 3},
	{Name: Recharge, Cost: 229, Duration: 5, TickMana: 101},
	{Name: Shield, Cost: 113, Duration: 6, Armor: 7, ExpireArmor: -7},
}

var byName = func() map[Name]*Definition {
	m := make(map[Name]*Definition, len(catalog))
	for i := range catalog {
		m[catalog[i].Name] = &catalog[i]
	}
	return m
}()

// Lookup returns the definition for name.
//
// Postcondition: Returns a non-nil *Definition, or a *UnknownSpellError.
// The returned definition is shared and must not be modified.
func Lookup(name Name) (*Definition, error) {
	d, ok := byName[name]
	if !ok {
		return nil, &UnknownSpellError{Name: string(name)}
	}
	return d, nil
}

// MustLookup is Lookup for names known at compile time. It panics on an unknown name.
func MustLookup(name Name) *Definition {
	d, err := Lookup(name)
	if err != nil {
		panic(err)
	}
	return d
}

// Names returns every spell name in alphabetical order.
func Names() []Name {
	out := make([]Name, len(catalog))
	for i := range catalog {
		out[i] = catalog[i].Name
	}
	return out
}

// Cheapest returns the lowest cost of any spell in the catalog.
func Cheapest() int {
	lowest := catalog[0].Cost
	for _, d := range catalog[1:] {
		if d.Cost < lowest {
			lowest = d.Cost
		}
	}
	return lowest
}

// Parse resolves a loosely written spell name. Case, underscores, hyphens and
// repeated spaces are ignored, so "magic_missile", "MAGIC-MISSILE" and
// "Magic Missile" all resolve to MagicMissile.
func Parse(s string) (Name, error) {
	key := normalize(s)
	for i := range catalog {
		if normalize(string(catalog[i].Name)) == key {
			return catalog[i].Name, nil
		}
	}
	return "", &UnknownSpellError{Name: s}
}

// ParseList parses a comma separated list of spell names.
// Empty elements are skipped.
func ParseList(s string) ([]Name, error) {
	var out []Name
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		n, err := Parse(part)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func normalize(s string) string {
	s = strings.ToLower(s)
	s = strings.NewReplacer("_", " ", "-", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}
