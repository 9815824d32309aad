package duel

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

var (
	hitPointsLine = regexp.MustCompile(`^Hit Points: (\d+)$`)
	damageLine    = regexp.MustCompile(`^Damage: (\d+)$`)
)

// ParseBoss reads boss stats written as "Hit Points: N" and "Damage: N" lines.
// Other lines are ignored.
//
// Postcondition: Returns a boss Combatant, or an error if either stat is missing.
func ParseBoss(r io.Reader) (Combatant, error) {
	hp, dmg := -1, -1
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if m := hitPointsLine.FindStringSubmatch(line); m != nil {
			v, err := strconv.Atoi(m[1])
			if err != nil {
				return Combatant{}, fmt.Errorf("parsing hit points %q: %w", m[1], err)
			}
			hp = v
		} else if m := damageLine.FindStringSubmatch(line); m != nil {
			v, err := strconv.Atoi(m[1])
			if err != nil {
				return Combatant{}, fmt.Errorf("parsing damage %q: %w", m[1], err)
			}
			dmg = v
		}
	}
	if err := sc.Err(); err != nil {
		return Combatant{}, fmt.Errorf("reading boss stats: %w", err)
	}
	if hp < 0 || dmg < 0 {
		return Combatant{}, errors.New("boss stats must contain both \"Hit Points\" and \"Damage\" lines")
	}
	return NewBoss(hp, dmg), nil
}
