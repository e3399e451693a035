package arena

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dadudekc/shinobi-arena/internal/game/battle"
	"github.com/Dadudekc/shinobi-arena/internal/game/character"
)

func endedBattle(t *testing.T, attackerID, defenderID, winner string) *battle.Battle {
	t.Helper()
	b := battle.NewBattle(
		&character.Snapshot{ID: attackerID, Name: "A-" + attackerID},
		&character.Snapshot{ID: defenderID, Name: "D-" + defenderID, NPC: true},
		50, time.Now())
	b.Active = false
	b.Winner = winner
	b.EndReason = battle.ReasonKnockout
	return b
}

func TestHistoryRecordsBothSides(t *testing.T) {
	h := NewHistory(100)
	h.Record(endedBattle(t, "1", "2", "1"), time.Now())

	winners := h.Query("1", 1, 10, nil)
	require.Equal(t, 1, winners.TotalBattles)
	assert.Equal(t, OutcomeWin, winners.Battles[0].Outcome)
	assert.Equal(t, "2", winners.Battles[0].OpponentID)
	assert.Equal(t, KindNPC, winners.Battles[0].OpponentKind)

	losers := h.Query("2", 1, 10, nil)
	require.Equal(t, 1, losers.TotalBattles)
	assert.Equal(t, OutcomeLoss, losers.Battles[0].Outcome)
	assert.Equal(t, KindPlayer, losers.Battles[0].OpponentKind)
}

func TestHistoryRecordsCompletedTurns(t *testing.T) {
	h := NewHistory(100)
	b := endedBattle(t, "1", "2", "1")
	// TurnNumber points past the final resolved action, so a fight decided
	// by its first action sits at 2.
	b.TurnNumber = 2
	h.Record(b, time.Now())

	assert.Equal(t, 1, h.Query("1", 1, 10, nil).Battles[0].Turns)
}

func TestHistoryDrawOutcome(t *testing.T) {
	h := NewHistory(100)
	h.Record(endedBattle(t, "1", "2", ""), time.Now())
	assert.Equal(t, OutcomeDraw, h.Query("1", 1, 10, nil).Battles[0].Outcome)
	assert.Equal(t, OutcomeDraw, h.Query("2", 1, 10, nil).Battles[0].Outcome)
}

func TestHistoryNewestFirstAndCapped(t *testing.T) {
	h := NewHistory(3)
	for i := 0; i < 5; i++ {
		h.Record(endedBattle(t, "1", fmt.Sprintf("opp-%d", i), "1"), time.Now())
	}

	page := h.Query("1", 1, 10, nil)
	require.Equal(t, 3, page.TotalBattles)
	assert.Equal(t, "opp-4", page.Battles[0].OpponentID)
	assert.Equal(t, "opp-2", page.Battles[2].OpponentID)
}

func TestHistoryFilters(t *testing.T) {
	h := NewHistory(100)
	h.Record(endedBattle(t, "1", "2", "1"), time.Now())
	h.Record(endedBattle(t, "1", "3", "3"), time.Now())
	h.Record(endedBattle(t, "1", "2", ""), time.Now())

	wins := h.Query("1", 1, 10, map[string]string{"outcome": OutcomeWin})
	require.Equal(t, 1, wins.TotalBattles)
	assert.Equal(t, "2", wins.Battles[0].OpponentID)

	vs2 := h.Query("1", 1, 10, map[string]string{"opponent_id": "2"})
	assert.Equal(t, 2, vs2.TotalBattles)

	none := h.Query("1", 1, 10, map[string]string{"bogus_key": "x"})
	assert.Equal(t, 0, none.TotalBattles)
}

func TestHistoryPaginationClampsPage(t *testing.T) {
	h := NewHistory(100)
	for i := 0; i < 7; i++ {
		h.Record(endedBattle(t, "1", fmt.Sprintf("opp-%d", i), "1"), time.Now())
	}

	page := h.Query("1", 99, 3, nil)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 3, page.CurrentPage)
	assert.Len(t, page.Battles, 1)

	page = h.Query("1", -1, 3, nil)
	assert.Equal(t, 1, page.CurrentPage)
	assert.Len(t, page.Battles, 3)

	empty := h.Query("nobody", 5, 10, nil)
	assert.Equal(t, 1, empty.TotalPages)
	assert.Equal(t, 1, empty.CurrentPage)
	assert.Equal(t, 0, empty.TotalBattles)
}
