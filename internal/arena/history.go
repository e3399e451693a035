package arena

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Dadudekc/shinobi-arena/internal/game/battle"
)

// Outcomes stored per history entry, from the owning agent's point of view.
const (
	OutcomeWin  = "win"
	OutcomeLoss = "loss"
	OutcomeDraw = "draw"
)

// Opponent kinds used for history filtering.
const (
	KindPlayer = "player"
	KindNPC    = "npc"
)

// Entry is one finished fight as seen by one agent.
type Entry struct {
	ID           string
	BattleID     string
	OpponentID   string
	OpponentName string
	OpponentKind string
	Outcome      string
	EndReason    string
	Turns        int
	EndedAt      time.Time
}

// matches reports whether the entry satisfies every exact-match filter.
// Unknown filter keys match nothing.
func (e *Entry) matches(filters map[string]string) bool {
	for key, want := range filters {
		var got string
		switch key {
		case "outcome":
			got = e.Outcome
		case "opponent_kind":
			got = e.OpponentKind
		case "opponent_id":
			got = e.OpponentID
		case "end_reason":
			got = e.EndReason
		}
		if got != want {
			return false
		}
	}
	return true
}

// Page is one page of an agent's battle history.
type Page struct {
	Battles      []*Entry
	TotalPages   int
	TotalBattles int
	CurrentPage  int
	PageSize     int
}

// History keeps a bounded, newest-first record of finished fights per agent.
// All methods are safe for concurrent use.
type History struct {
	mu      sync.RWMutex
	byAgent map[string][]*Entry
	cap     int
}

// NewHistory creates an empty history store keeping at most cap entries per
// agent. A cap <= 0 means unbounded.
func NewHistory(cap int) *History {
	return &History{byAgent: make(map[string][]*Entry), cap: cap}
}

// Record stores a finished battle in both participants' histories.
//
// Precondition: b must be ended.
// Postcondition: Each side gains one entry at the front of its history; the
// oldest entry is evicted when an agent exceeds the cap.
func (h *History) Record(b *battle.Battle, endedAt time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.recordSide(b, b.Attacker, b.Defender, endedAt)
	h.recordSide(b, b.Defender, b.Attacker, endedAt)
}

func (h *History) recordSide(b *battle.Battle, owner, opponent *battle.Participant, endedAt time.Time) {
	outcome := OutcomeDraw
	switch b.Winner {
	case owner.Character.ID:
		outcome = OutcomeWin
	case opponent.Character.ID:
		outcome = OutcomeLoss
	}
	kind := KindPlayer
	if opponent.Character.NPC {
		kind = KindNPC
	}

	id := owner.Character.ID
	entries := append([]*Entry{{
		ID:           uuid.NewString(),
		BattleID:     b.ID,
		OpponentID:   opponent.Character.ID,
		OpponentName: opponent.Character.Name,
		OpponentKind: kind,
		Outcome:      outcome,
		EndReason:    b.EndReason,
		Turns:        b.TurnsCompleted(),
		EndedAt:      endedAt,
	}}, h.byAgent[id]...)
	if h.cap > 0 && len(entries) > h.cap {
		entries = entries[:h.cap]
	}
	h.byAgent[id] = entries
}

// Query returns one page of an agent's history, newest first, after applying
// the exact-match filters.
//
// Postcondition: CurrentPage is clamped into [1, TotalPages]; TotalPages is
// at least 1 even when no entries match.
func (h *History) Query(agentID string, page, pageSize int, filters map[string]string) Page {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if pageSize < 1 {
		pageSize = 10
	}

	var matched []*Entry
	for _, e := range h.byAgent[agentID] {
		if e.matches(filters) {
			matched = append(matched, e)
		}
	}

	totalPages := (len(matched) + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > len(matched) {
		start = len(matched)
	}
	if end > len(matched) {
		end = len(matched)
	}

	return Page{
		Battles:      matched[start:end],
		TotalPages:   totalPages,
		TotalBattles: len(matched),
		CurrentPage:  page,
		PageSize:     pageSize,
	}
}
