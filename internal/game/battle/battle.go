// Package battle implements the turn-based fight state machine and the
// engine that tracks every live encounter.
package battle

import (
	"fmt"
	"time"

	"github.com/Dadudekc/shinobi-arena/internal/game/character"
)

// End reasons recorded on a finished battle.
const (
	ReasonKnockout = "knockout"
	ReasonForfeit  = "forfeit"
	ReasonTimeout  = "timeout"
	ReasonAdmin    = "admin"
)

// Participant is one side of a battle: a working copy of the character plus
// battle-local state.
type Participant struct {
	Character *character.Snapshot
	// Guarding is set by a defend action and consumed by the next hit taken.
	Guarding   bool
	LastAction string
}

// Battle holds the live state of a single two-sided encounter.
//
// Invariant: TurnNumber starts at 1 and increments by exactly 1 per resolved
// action. Odd turns belong to the attacker, even turns to the defender.
type Battle struct {
	// ID is the canonical fight identifier derived from both agent IDs.
	ID       string
	Attacker *Participant
	Defender *Participant

	TurnNumber int
	Active     bool

	StartedAt    time.Time
	LastActionAt time.Time

	// Winner is the agent ID of the victor, empty for a draw or while active.
	Winner    string
	EndReason string

	// Log is the bounded, timestamped action log, oldest first.
	Log    []string
	maxLog int
}

// FightID returns the canonical battle identifier for two agents. The lower
// ID sorts first, so both orderings of the same pair produce the same ID.
func FightID(a, b string) string {
	if a < b {
		return a + "_" + b
	}
	return b + "_" + a
}

// NewBattle creates an active battle between two cloned character snapshots.
//
// Precondition: attacker and defender must be distinct non-nil snapshots.
// Postcondition: The battle is Active with TurnNumber 1 and an empty log.
func NewBattle(attacker, defender *character.Snapshot, maxLog int, now time.Time) *Battle {
	return &Battle{
		ID:         FightID(attacker.ID, defender.ID),
		Attacker:   &Participant{Character: attacker.Clone()},
		Defender:   &Participant{Character: defender.Clone()},
		TurnNumber: 1,
		Active:     true,
		StartedAt:  now,
		maxLog:     maxLog,
	}
}

// CurrentActor returns the participant whose turn it is.
//
// Postcondition: Returns the attacker on odd turns and the defender on even
// turns.
func (b *Battle) CurrentActor() *Participant {
	if b.TurnNumber%2 == 1 {
		return b.Attacker
	}
	return b.Defender
}

// ParticipantByID returns the side owned by agentID, or nil.
func (b *Battle) ParticipantByID(agentID string) *Participant {
	switch agentID {
	case b.Attacker.Character.ID:
		return b.Attacker
	case b.Defender.Character.ID:
		return b.Defender
	}
	return nil
}

// Opponent returns the side facing agentID, or nil if agentID is not a
// participant.
func (b *Battle) Opponent(agentID string) *Participant {
	switch agentID {
	case b.Attacker.Character.ID:
		return b.Defender
	case b.Defender.Character.ID:
		return b.Attacker
	}
	return nil
}

// HasActed reports whether any action has been resolved yet.
func (b *Battle) HasActed() bool {
	return !b.LastActionAt.IsZero()
}

// TurnsCompleted returns the number of actions resolved so far. TurnNumber
// always points at the next unplayed turn, so a fight decided on its first
// action reports 1.
func (b *Battle) TurnsCompleted() int {
	return b.TurnNumber - 1
}

// Clone returns a deep copy of the battle that can be read without holding
// any engine lock.
func (b *Battle) Clone() *Battle {
	c := *b
	c.Attacker = b.Attacker.clone()
	c.Defender = b.Defender.clone()
	c.Log = append([]string(nil), b.Log...)
	return &c
}

func (p *Participant) clone() *Participant {
	return &Participant{
		Character:  p.Character.Clone(),
		Guarding:   p.Guarding,
		LastAction: p.LastAction,
	}
}

// AppendLog adds a timestamped entry, evicting the oldest when the log is
// full.
//
// Postcondition: len(Log) <= maxLog; the newest entry is last.
func (b *Battle) AppendLog(now time.Time, format string, args ...any) {
	entry := fmt.Sprintf("[%s] %s", now.Format("15:04:05"), fmt.Sprintf(format, args...))
	b.Log = append(b.Log, entry)
	if b.maxLog > 0 && len(b.Log) > b.maxLog {
		b.Log = b.Log[len(b.Log)-b.maxLog:]
	}
}

// finish marks the battle over with the given winner and reason.
func (b *Battle) finish(winner, reason string, now time.Time) {
	b.Active = false
	b.Winner = winner
	b.EndReason = reason
	switch {
	case winner != "":
		p := b.ParticipantByID(winner)
		b.AppendLog(now, "%s wins the battle (%s)", p.Character.Name, reason)
	default:
		b.AppendLog(now, "The battle ends in a draw (%s)", reason)
	}
}
