// Package character defines the combatant domain model shared by the
// battle engine and the persistence layer.
package character

import "errors"

// ErrNotFound is returned by snapshot stores when an agent ID resolves to no
// character.
var ErrNotFound = errors.New("character not found")

// Attributes holds the combat-relevant stats for a shinobi.
type Attributes struct {
	Strength  int `yaml:"strength"`
	Speed     int `yaml:"speed"`
	Ninjutsu  int `yaml:"ninjutsu"`
	Taijutsu  int `yaml:"taijutsu"`
	Genjutsu  int `yaml:"genjutsu"`
	Willpower int `yaml:"willpower"`
	Defense   int `yaml:"defense"`
}

// Offense returns the attacker-side contribution to the damage formula.
func (a Attributes) Offense() float64 {
	return float64(a.Strength+a.Ninjutsu) / 2.0
}

// Resilience returns the defender-side contribution to the damage formula.
// Never returns less than 1 so the damage divisor stays positive.
func (a Attributes) Resilience() float64 {
	r := float64(a.Defense+a.Willpower) / 2.0
	if r < 1 {
		return 1
	}
	return r
}

// Record tracks a shinobi's lifetime fight outcomes.
type Record struct {
	Wins   int
	Losses int
	Draws  int
}

// Snapshot is a character's full persistent state as seen by the arena.
//
// ID is the owning agent's identifier (a Discord-style snowflake string for
// players, a template ID for NPCs). Zero-valued restriction flags mean the
// character is free to fight.
type Snapshot struct {
	ID     string
	Name   string
	Rank   string
	Level  int
	NPC    bool
	Status string

	HP        int
	MaxHP     int
	Chakra    int
	MaxChakra int
	Stamina   int

	Attributes Attributes

	// Jutsu lists the technique names this character knows, by catalog name.
	Jutsu         []string
	StatusEffects []string

	// Engagement flags set by other game systems. A character with any of
	// these set cannot enter a regular arena fight.
	InSpecialBattle bool
	InClanWar       bool
	InTournament    bool

	Record Record
}

// Restricted reports whether the character is locked by another game system.
func (s *Snapshot) Restricted() bool {
	return s.InSpecialBattle || s.InClanWar || s.InTournament
}

// Conscious reports whether the character has hit points remaining.
func (s *Snapshot) Conscious() bool {
	return s.HP > 0
}

// ClampVitals forces HP and chakra into their valid [0, max] ranges.
//
// Postcondition: 0 <= HP <= MaxHP and 0 <= Chakra <= MaxChakra.
func (s *Snapshot) ClampVitals() {
	if s.HP < 0 {
		s.HP = 0
	}
	if s.HP > s.MaxHP {
		s.HP = s.MaxHP
	}
	if s.Chakra < 0 {
		s.Chakra = 0
	}
	if s.Chakra > s.MaxChakra {
		s.Chakra = s.MaxChakra
	}
}

// Clone returns a deep copy so battle-local mutation never aliases the
// caller's snapshot.
func (s *Snapshot) Clone() *Snapshot {
	c := *s
	c.Jutsu = append([]string(nil), s.Jutsu...)
	c.StatusEffects = append([]string(nil), s.StatusEffects...)
	return &c
}
