package battle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/Dadudekc/shinobi-arena/internal/game/character"
)

func TestDamageWorkedExample(t *testing.T) {
	attacker := character.Attributes{Strength: 20, Ninjutsu: 10}
	defender := character.Attributes{Defense: 10, Willpower: 10}
	assert.Equal(t, 15, Damage(10, attacker, defender))
}

func TestDamageFloorsFractions(t *testing.T) {
	attacker := character.Attributes{Strength: 10, Ninjutsu: 5}
	defender := character.Attributes{Defense: 10, Willpower: 10}
	// 10 * 7.5 / 10 = 7.5 -> 7
	assert.Equal(t, 7, Damage(10, attacker, defender))
}

func TestDamageNeverBelowOne(t *testing.T) {
	attacker := character.Attributes{Strength: 1, Ninjutsu: 0}
	defender := character.Attributes{Defense: 100, Willpower: 100}
	assert.Equal(t, 1, Damage(1, attacker, defender))
	assert.Equal(t, 1, Damage(0, attacker, defender))
}

func TestDamagePropertyAtLeastOne(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		base := rapid.IntRange(0, 200).Draw(rt, "base")
		attacker := character.Attributes{
			Strength: rapid.IntRange(0, 100).Draw(rt, "str"),
			Ninjutsu: rapid.IntRange(0, 100).Draw(rt, "nin"),
		}
		defender := character.Attributes{
			Defense:   rapid.IntRange(0, 100).Draw(rt, "def"),
			Willpower: rapid.IntRange(0, 100).Draw(rt, "wil"),
		}
		if d := Damage(base, attacker, defender); d < 1 {
			rt.Errorf("damage %d below minimum", d)
		}
	})
}

func TestGuardedDamageHalvesWithFloor(t *testing.T) {
	assert.Equal(t, 7, guardedDamage(15))
	assert.Equal(t, 1, guardedDamage(2))
	assert.Equal(t, 1, guardedDamage(1))
}
