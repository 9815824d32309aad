package spell_test

import (
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/spellduel/internal/game/spell"
)

func TestLookup_Catalog(t *testing.T) {
	tests := []struct {
		name     spell.Name
		cost     int
		duration int
	}{
		{spell.MagicMissile, 53, 0},
		{spell.Drain, 73, 0},
		{spell.Shield, 113, 6},
		{spell.Poison, 173, 6},
		{spell.Recharge, 229, 5},
	}
	for _, tc := range tests {
		d, err := spell.Lookup(tc.name)
		require.NoError(t, err, "spell %q", tc.name)
		assert.Equal(t, tc.name, d.Name)
		assert.Equal(t, tc.cost, d.Cost, "cost of %q", tc.name)
		assert.Equal(t, tc.duration, d.Duration, "duration of %q", tc.name)
		assert.Equal(t, tc.duration > 0, d.Sustained())
	}
}

func TestLookup_Deltas(t *testing.T) {
	mm := spell.MustLookup(spell.MagicMissile)
	assert.Equal(t, 4, mm.Damage)

	drain := spell.MustLookup(spell.Drain)
	assert.Equal(t, 2, drain.Damage)
	assert.Equal(t, 2, drain.Heal)

	shield := spell.MustLookup(spell.Shield)
	assert.Equal(t, 7, shield.Armor)
	assert.Equal(t, -7, shield.ExpireArmor)
	assert.Zero(t, shield.TickArmor)

	poison := spell.MustLookup(spell.Poison)
	assert.Equal(t, 3, poison.TickDamage)

	recharge := spell.MustLookup(spell.Recharge)
	assert.Equal(t, 101, recharge.TickMana)
}

func TestLookup_Unknown(t *testing.T) {
	_, err := spell.Lookup("Fireball")
	require.Error(t, err)
	var unknown *spell.UnknownSpellError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "Fireball", unknown.Name)
}

func TestMustLookup_PanicsOnUnknown(t *testing.T) {
	assert.Panics(t, func() { spell.MustLookup("Fireball") })
}

func TestNames_Alphabetical(t *testing.T) {
	names := spell.Names()
	require.Len(t, names, 5)
	assert.True(t, sort.SliceIsSorted(names, func(i, j int) bool { return names[i] < names[j] }))
	assert.Equal(t, spell.Drain, names[0])
	assert.Equal(t, spell.Shield, names[4])
}

func TestCheapest(t *testing.T) {
	assert.Equal(t, 53, spell.Cheapest())
}

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want spell.Name
	}{
		{"Magic Missile", spell.MagicMissile},
		{"magic_missile", spell.MagicMissile},
		{"MAGIC-MISSILE", spell.MagicMissile},
		{"  magic   missile ", spell.MagicMissile},
		{"drain", spell.Drain},
		{"SHIELD", spell.Shield},
		{"Poison", spell.Poison},
		{"recharge", spell.Recharge},
	}
	for _, tc := range tests {
		got, err := spell.Parse(tc.in)
		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
	}
}

func TestParse_Unknown(t *testing.T) {
	_, err := spell.Parse("magicmissile")
	var unknown *spell.UnknownSpellError
	assert.True(t, errors.As(err, &unknown))
}

func TestParseList(t *testing.T) {
	got, err := spell.ParseList("poison, magic_missile,,")
	require.NoError(t, err)
	assert.Equal(t, []spell.Name{spell.Poison, spell.MagicMissile}, got)

	_, err = spell.ParseList("poison,fireball")
	assert.Error(t, err)
}

func TestPropertyParse_RoundTripsCatalogNames(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		name := rapid.SampledFrom(spell.Names()).Draw(rt, "name")
		got, err := spell.Parse(string(name))
		require.NoError(rt, err)
		assert.Equal(rt, name, got)
	})
}
