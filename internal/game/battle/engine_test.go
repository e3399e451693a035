package battle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Dadudekc/shinobi-arena/internal/config"
	"github.com/Dadudekc/shinobi-arena/internal/game/character"
)

func testBattleConfig() config.BattleConfig {
	return config.BattleConfig{
		BaseDamage:    10,
		MaxLogLines:   50,
		HistorySize:   100,
		MaxLevelDiff:  5,
		IdleTimeout:   5 * time.Minute,
		SweepInterval: 30 * time.Second,
	}
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return NewEngine(testCatalog(t), testBattleConfig(), zap.NewNop())
}

func fighter(id, name string, hp, chakra int) *character.Snapshot {
	return &character.Snapshot{
		ID: id, Name: name, Level: 5,
		HP: hp, MaxHP: hp,
		Chakra: chakra, MaxChakra: chakra,
		Stamina: 50,
		Attributes: character.Attributes{
			Strength: 20, Ninjutsu: 10, Defense: 10, Willpower: 10,
		},
		Jutsu: []string{"Fireball Jutsu", "Poison Cloud"},
	}
}

func TestStartRejectsBusyAgents(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Start(fighter("1", "Itama", 100, 50), fighter("2", "Kawarama", 100, 50))
	require.NoError(t, err)

	_, err = e.Start(fighter("1", "Itama", 100, 50), fighter("3", "Touka", 100, 50))
	require.ErrorIs(t, err, ErrAgentBusy)

	_, err = e.Start(fighter("4", "Hikaku", 100, 50), fighter("2", "Kawarama", 100, 50))
	require.ErrorIs(t, err, ErrAgentBusy)
}

func TestProcessActionBasicAttack(t *testing.T) {
	e := newTestEngine(t)
	b, err := e.Start(fighter("1", "Itama", 100, 50), fighter("2", "Kawarama", 100, 50))
	require.NoError(t, err)

	// str 20 + nin 10 vs def 10 + wil 10 at base 10 deals 15.
	got, err := e.ProcessAction(b.ID, "1", "Basic Attack")
	require.NoError(t, err)
	assert.Equal(t, 85, got.Defender.Character.HP)
	assert.Equal(t, 2, got.TurnNumber)
	assert.Equal(t, NameAttack, got.Attacker.LastAction)
	assert.True(t, got.HasActed())
	assert.True(t, got.Active)
	require.NotEmpty(t, got.Log)
	assert.Contains(t, got.Log[len(got.Log)-1], "basic attack for 15 damage")
}

func TestProcessActionTechniqueSpendsChakraAndAppliesEffect(t *testing.T) {
	e := newTestEngine(t)
	b, err := e.Start(fighter("1", "Itama", 100, 50), fighter("2", "Kawarama", 100, 50))
	require.NoError(t, err)

	got, err := e.ProcessAction(b.ID, "1", "poison cloud")
	require.NoError(t, err)
	assert.Equal(t, 20, got.Attacker.Character.Chakra)
	assert.Equal(t, 85, got.Defender.Character.HP)
	assert.Contains(t, got.Defender.Character.StatusEffects, "poisoned")
}

func TestProcessActionDefendHalvesNextHit(t *testing.T) {
	e := newTestEngine(t)
	b, err := e.Start(fighter("1", "Itama", 100, 50), fighter("2", "Kawarama", 100, 50))
	require.NoError(t, err)

	_, err = e.ProcessAction(b.ID, "1", "Defend")
	require.NoError(t, err)
	got, err := e.ProcessAction(b.ID, "2", "Basic Attack")
	require.NoError(t, err)

	// 15 damage halved to 7, guard consumed.
	assert.Equal(t, 93, got.Attacker.Character.HP)
	assert.False(t, got.Attacker.Guarding)

	_, err = e.ProcessAction(b.ID, "1", "Pass")
	require.NoError(t, err)
	got, err = e.ProcessAction(b.ID, "2", "Basic Attack")
	require.NoError(t, err)
	assert.Equal(t, 78, got.Attacker.Character.HP)
}

func TestProcessActionEnforcesTurnOrder(t *testing.T) {
	e := newTestEngine(t)
	b, err := e.Start(fighter("1", "Itama", 100, 50), fighter("2", "Kawarama", 100, 50))
	require.NoError(t, err)

	_, err = e.ProcessAction(b.ID, "2", "Basic Attack")
	require.ErrorIs(t, err, ErrInvalidAction)

	_, err = e.ProcessAction(b.ID, "9", "Basic Attack")
	require.ErrorIs(t, err, ErrInvalidAction)

	_, err = e.ProcessAction(b.ID, "1", "Shadow Clone")
	require.ErrorIs(t, err, ErrInvalidAction)

	// Failed calls leave the turn untouched.
	got, ok := e.Battle(b.ID)
	require.True(t, ok)
	assert.Equal(t, 1, got.TurnNumber)
}

func TestKnockoutEndsBattle(t *testing.T) {
	e := newTestEngine(t)
	b, err := e.Start(fighter("1", "Itama", 100, 50), fighter("2", "Kawarama", 15, 50))
	require.NoError(t, err)

	got, err := e.ProcessAction(b.ID, "1", "Basic Attack")
	require.NoError(t, err)
	assert.False(t, got.Active)
	assert.Equal(t, "1", got.Winner)
	assert.Equal(t, ReasonKnockout, got.EndReason)
	assert.Equal(t, 0, got.Defender.Character.HP)

	// Both agents are free to fight again.
	_, err = e.Start(fighter("1", "Itama", 100, 50), fighter("3", "Touka", 100, 50))
	assert.NoError(t, err)
}

func TestSimultaneousKnockoutGoesToDefender(t *testing.T) {
	e := newTestEngine(t)
	b, err := e.Start(fighter("1", "Itama", 100, 50), fighter("2", "Kawarama", 15, 50))
	require.NoError(t, err)

	// Drop the attacker to zero out of band, then land a killing blow. Both
	// sides are down when the end check runs; the attacker is examined first
	// so the defender takes the win.
	e.active[b.ID].Attacker.Character.HP = 0
	got, err := e.ProcessAction(b.ID, "1", "Basic Attack")
	require.NoError(t, err)
	assert.False(t, got.Active)
	assert.Equal(t, "2", got.Winner)
}

func TestEndedBattleVisibleButNotActionable(t *testing.T) {
	e := newTestEngine(t)
	b, err := e.Start(fighter("1", "Itama", 100, 50), fighter("2", "Kawarama", 15, 50))
	require.NoError(t, err)
	_, err = e.ProcessAction(b.ID, "1", "Basic Attack")
	require.NoError(t, err)

	got, ok := e.Battle(b.ID)
	require.True(t, ok)
	assert.False(t, got.Active)

	_, err = e.ProcessAction(b.ID, "2", "Basic Attack")
	require.ErrorIs(t, err, ErrBattleNotFound)

	_, ok = e.ActiveBattleForAgent("1")
	assert.False(t, ok)
}

func TestEndForfeit(t *testing.T) {
	e := newTestEngine(t)
	b, err := e.Start(fighter("1", "Itama", 100, 50), fighter("2", "Kawarama", 100, 50))
	require.NoError(t, err)

	got, err := e.End(b.ID, "2", ReasonForfeit)
	require.NoError(t, err)
	assert.Equal(t, "2", got.Winner)
	assert.Equal(t, ReasonForfeit, got.EndReason)

	_, err = e.End(b.ID, "2", ReasonForfeit)
	assert.ErrorIs(t, err, ErrBattleNotFound)
}

func TestEndRejectsNonParticipantWinner(t *testing.T) {
	e := newTestEngine(t)
	b, err := e.Start(fighter("1", "Itama", 100, 50), fighter("2", "Kawarama", 100, 50))
	require.NoError(t, err)

	_, err = e.End(b.ID, "9", ReasonAdmin)
	require.ErrorIs(t, err, ErrInvalidAction)

	got, ok := e.Battle(b.ID)
	require.True(t, ok)
	assert.True(t, got.Active)
}

func TestSweepIdleEndsStaleBattles(t *testing.T) {
	e := newTestEngine(t)
	base := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	now := base
	e.now = func() time.Time { return now }

	b, err := e.Start(fighter("1", "Itama", 100, 50), fighter("2", "Kawarama", 100, 50))
	require.NoError(t, err)
	_, err = e.ProcessAction(b.ID, "1", "Pass")
	require.NoError(t, err)

	now = base.Add(4 * time.Minute)
	assert.Empty(t, e.SweepIdle())

	// Idle time exactly at the timeout is still within it.
	now = base.Add(5 * time.Minute)
	assert.Empty(t, e.SweepIdle())

	now = base.Add(5*time.Minute + time.Second)
	swept := e.SweepIdle()
	require.Len(t, swept, 1)
	assert.Equal(t, "", swept[0].Winner)
	assert.Equal(t, ReasonTimeout, swept[0].EndReason)

	got, ok := e.Battle(b.ID)
	require.True(t, ok)
	assert.False(t, got.Active)
}

func TestSweepIdleEndsUntouchedBattles(t *testing.T) {
	e := newTestEngine(t)
	base := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	now := base
	e.now = func() time.Time { return now }

	// No action ever submitted; the start time anchors the idle clock and
	// the plain timeout applies.
	_, err := e.Start(fighter("1", "Itama", 100, 50), fighter("2", "Kawarama", 100, 50))
	require.NoError(t, err)

	now = base.Add(4 * time.Minute)
	assert.Empty(t, e.SweepIdle())

	now = base.Add(6 * time.Minute)
	swept := e.SweepIdle()
	require.Len(t, swept, 1)
	assert.Equal(t, ReasonTimeout, swept[0].EndReason)
}

func TestReturnedBattlesAreDetached(t *testing.T) {
	e := newTestEngine(t)
	b, err := e.Start(fighter("1", "Itama", 100, 50), fighter("2", "Kawarama", 100, 50))
	require.NoError(t, err)

	got, err := e.ProcessAction(b.ID, "1", "Basic Attack")
	require.NoError(t, err)

	// Mutating a returned copy never reaches the live battle.
	got.Defender.Character.HP = 1
	got.Log = append(got.Log, "tampered")
	got.Active = false

	live, ok := e.Battle(b.ID)
	require.True(t, ok)
	assert.Equal(t, 85, live.Defender.Character.HP)
	assert.True(t, live.Active)
	assert.NotContains(t, live.Log, "tampered")
}

func TestTurnNumberIncrementsByOnePerAction(t *testing.T) {
	e := newTestEngine(t)
	b, err := e.Start(fighter("1", "Itama", 500, 50), fighter("2", "Kawarama", 500, 50))
	require.NoError(t, err)

	actors := []string{"1", "2", "1", "2", "1"}
	for i, id := range actors {
		got, err := e.ProcessAction(b.ID, id, "Pass")
		require.NoError(t, err)
		assert.Equal(t, i+2, got.TurnNumber)
	}
}
