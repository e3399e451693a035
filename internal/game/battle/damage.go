package battle

import (
	"math"

	"github.com/Dadudekc/shinobi-arena/internal/game/character"
)

// Damage computes the hit points removed by a strike:
// floor(base * (attacker offense) / (defender resilience)), never below 1.
//
// Postcondition: Returns a value >= 1 for any base >= 0.
func Damage(base int, attacker, defender character.Attributes) int {
	raw := float64(base) * attacker.Offense() / defender.Resilience()
	d := int(math.Floor(raw))
	if d < 1 {
		return 1
	}
	return d
}

// guardedDamage halves incoming damage for a guarding target, never below 1.
func guardedDamage(d int) int {
	h := d / 2
	if h < 1 {
		return 1
	}
	return h
}
