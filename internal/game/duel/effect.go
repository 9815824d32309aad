package duel

// Tick applies one turn of every effect owned by c.
//
// Each effect applies its armor, mana and heal deltas to c, adds its damage to
// the returned total, and loses one turn. Effects reaching zero apply their
// expiry delta and are removed. The caller must apply the returned damage to
// c's opponent.
//
// Postcondition: every surviving effect has exactly one turn less; a combatant
// without effects is unchanged and 0 is returned.
func Tick(c *Combatant) int {
	if len(c.Effects) == 0 {
		return 0
	}
	outgoing := 0
	kept := c.Effects[:0]
	for _, e := range c.Effects {
		c.Armor += e.Spell.TickArmor
		c.Mana += e.Spell.TickMana
		c.HP += e.Spell.TickHeal
		outgoing += e.Spell.TickDamage

		e.Remaining--
		if e.Remaining <= 0 {
			c.Armor += e.Spell.ExpireArmor
			continue
		}
		kept = append(kept, e)
	}
	// Clear the tail so expired definitions are not retained by the backing array.
	for i := len(kept); i < len(c.Effects); i++ {
		c.Effects[i] = ActiveEffect{}
	}
	c.Effects = kept
	return outgoing
}
