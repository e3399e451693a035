package battle

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Dadudekc/shinobi-arena/internal/config"
	"github.com/Dadudekc/shinobi-arena/internal/game/character"
	"github.com/Dadudekc/shinobi-arena/internal/game/technique"
)

// Sentinel errors returned by Engine operations. Callers classify failures
// with errors.Is; the wrapped message carries the detail.
var (
	ErrBattleNotFound = errors.New("battle not found")
	ErrAgentBusy      = errors.New("agent already in battle")
	ErrInvalidAction  = errors.New("invalid action")
)

// Engine manages all active battles, keyed by fight ID.
// All methods are safe for concurrent use.
type Engine struct {
	catalog *technique.Catalog
	cfg     config.BattleConfig
	logger  *zap.Logger
	now     func() time.Time

	mu      sync.RWMutex
	active  map[string]*Battle
	byAgent map[string]string
	// ended is a bounded ring of finished battles, newest last, so state
	// queries keep working after a fight concludes.
	ended []*Battle
}

// NewEngine creates an empty battle Engine.
//
// Precondition: catalog and logger must not be nil.
// Postcondition: Returns a non-nil Engine ready for use.
func NewEngine(catalog *technique.Catalog, cfg config.BattleConfig, logger *zap.Logger) *Engine {
	return &Engine{
		catalog: catalog,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
		active:  make(map[string]*Battle),
		byAgent: make(map[string]string),
	}
}

// Start begins a new battle between attacker and defender.
//
// Precondition: attacker and defender must be distinct, conscious snapshots.
// Postcondition: Returns a detached copy of the new Battle, or ErrAgentBusy
// if either agent is already fighting. Both snapshots are cloned; the
// caller's copies are never mutated.
func (e *Engine) Start(attacker, defender *character.Snapshot) (*Battle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if id, busy := e.byAgent[attacker.ID]; busy {
		return nil, fmt.Errorf("agent %q is in battle %q: %w", attacker.ID, id, ErrAgentBusy)
	}
	if id, busy := e.byAgent[defender.ID]; busy {
		return nil, fmt.Errorf("agent %q is in battle %q: %w", defender.ID, id, ErrAgentBusy)
	}

	now := e.now()
	b := NewBattle(attacker, defender, e.cfg.MaxLogLines, now)
	b.AppendLog(now, "%s challenges %s", attacker.Name, defender.Name)

	e.active[b.ID] = b
	e.byAgent[attacker.ID] = b.ID
	e.byAgent[defender.ID] = b.ID

	e.logger.Info("battle started",
		zap.String("battle_id", b.ID),
		zap.String("attacker", attacker.ID),
		zap.String("defender", defender.ID))
	return b.Clone(), nil
}

// ProcessAction resolves one turn of an active battle.
//
// Precondition: battleID must name an active battle, agentID must own the
// current turn, and action must match an available action name.
// Postcondition: On success TurnNumber advances by exactly 1 and the action
// is logged; the returned Battle is a detached copy of the post-action state.
// If either side reaches 0 HP the battle finishes; when both do on the same
// turn, the attacker is checked first and the defender takes the win. Failed
// calls leave the battle unchanged.
func (e *Engine) ProcessAction(battleID, agentID, action string) (*Battle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	b, ok := e.active[battleID]
	if !ok {
		return nil, fmt.Errorf("battle %q: %w", battleID, ErrBattleNotFound)
	}
	actor := b.CurrentActor()
	if b.ParticipantByID(agentID) == nil {
		return nil, fmt.Errorf("agent %q is not in battle %q: %w", agentID, battleID, ErrInvalidAction)
	}
	if actor.Character.ID != agentID {
		return nil, fmt.Errorf("it is not agent %q's turn: %w", agentID, ErrInvalidAction)
	}
	resolved, ok := actor.Resolve(action, e.catalog)
	if !ok {
		return nil, fmt.Errorf("action %q is not available to agent %q: %w", action, agentID, ErrInvalidAction)
	}

	now := e.now()
	target := b.Opponent(agentID)
	e.apply(b, actor, target, resolved, now)

	actor.LastAction = resolved.Name
	b.LastActionAt = now
	b.TurnNumber++

	// Attacker is checked first so a simultaneous knockout goes to the
	// defender.
	switch {
	case !b.Attacker.Character.Conscious():
		e.finishLocked(b, b.Defender.Character.ID, ReasonKnockout, now)
	case !b.Defender.Character.Conscious():
		e.finishLocked(b, b.Attacker.Character.ID, ReasonKnockout, now)
	}
	return b.Clone(), nil
}

// apply mutates the battle for one resolved action.
func (e *Engine) apply(b *Battle, actor, target *Participant, a Action, now time.Time) {
	switch a.Kind {
	case KindAttack:
		dmg := e.strike(target, e.cfg.BaseDamage, actor)
		b.AppendLog(now, "%s hits %s with a basic attack for %d damage", actor.Character.Name, target.Character.Name, dmg)
	case KindTechnique:
		t := a.Technique
		switch t.CostType {
		case technique.CostStamina:
			actor.Character.Stamina -= t.CostAmount
		default:
			actor.Character.Chakra -= t.CostAmount
		}
		actor.Character.ClampVitals()
		dmg := e.strike(target, t.BaseDamage, actor)
		b.AppendLog(now, "%s uses %s on %s for %d damage", actor.Character.Name, t.Name, target.Character.Name, dmg)
		if t.Effect != "" && !hasEffect(target.Character, t.Effect) {
			target.Character.StatusEffects = append(target.Character.StatusEffects, t.Effect)
			b.AppendLog(now, "%s is now %s", target.Character.Name, t.Effect)
		}
	case KindDefend:
		actor.Guarding = true
		b.AppendLog(now, "%s takes a defensive stance", actor.Character.Name)
	case KindPass:
		b.AppendLog(now, "%s passes", actor.Character.Name)
	}
}

// strike applies damage to target, consuming its guard if set, and returns
// the hit points removed.
func (e *Engine) strike(target *Participant, base int, actor *Participant) int {
	dmg := Damage(base, actor.Character.Attributes, target.Character.Attributes)
	if target.Guarding {
		dmg = guardedDamage(dmg)
		target.Guarding = false
	}
	target.Character.HP -= dmg
	target.Character.ClampVitals()
	return dmg
}

func hasEffect(c *character.Snapshot, effect string) bool {
	for _, e := range c.StatusEffects {
		if e == effect {
			return true
		}
	}
	return false
}

// End finishes an active battle with an explicit winner and reason, used for
// forfeits and administrative stops.
//
// Precondition: winnerID must be a participant's agent ID or empty for a
// draw.
// Postcondition: Returns a detached copy of the finished Battle, or
// ErrBattleNotFound.
func (e *Engine) End(battleID, winnerID, reason string) (*Battle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	b, ok := e.active[battleID]
	if !ok {
		return nil, fmt.Errorf("battle %q: %w", battleID, ErrBattleNotFound)
	}
	if winnerID != "" && b.ParticipantByID(winnerID) == nil {
		return nil, fmt.Errorf("agent %q is not in battle %q: %w", winnerID, battleID, ErrInvalidAction)
	}
	e.finishLocked(b, winnerID, reason, e.now())
	return b.Clone(), nil
}

// finishLocked retires b from the active set. Caller must hold e.mu.
func (e *Engine) finishLocked(b *Battle, winnerID, reason string, now time.Time) {
	b.finish(winnerID, reason, now)
	delete(e.active, b.ID)
	delete(e.byAgent, b.Attacker.Character.ID)
	delete(e.byAgent, b.Defender.Character.ID)

	e.ended = append(e.ended, b)
	if e.cfg.HistorySize > 0 && len(e.ended) > e.cfg.HistorySize {
		e.ended = e.ended[len(e.ended)-e.cfg.HistorySize:]
	}

	e.logger.Info("battle ended",
		zap.String("battle_id", b.ID),
		zap.String("winner", winnerID),
		zap.String("reason", reason),
		zap.Int("turns", b.TurnsCompleted()))
}

// Battle returns a detached copy of the battle with the given ID, active or
// finished.
//
// Postcondition: Returns (battle, true) if found, or (nil, false) otherwise.
// Finished battles remain visible until evicted from the bounded history.
func (e *Engine) Battle(battleID string) (*Battle, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if b, ok := e.active[battleID]; ok {
		return b.Clone(), true
	}
	for i := len(e.ended) - 1; i >= 0; i-- {
		if e.ended[i].ID == battleID {
			return e.ended[i].Clone(), true
		}
	}
	return nil, false
}

// ActiveBattleForAgent returns a detached copy of the live battle agentID is
// fighting in.
func (e *Engine) ActiveBattleForAgent(agentID string) (*Battle, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	id, ok := e.byAgent[agentID]
	if !ok {
		return nil, false
	}
	return e.active[id].Clone(), true
}

// SweepIdle finishes every active battle whose idle time exceeds the
// configured timeout, recording each as a timed-out draw. A battle with no
// action yet is timed from its start; idle time exactly at the timeout does
// not sweep.
//
// Postcondition: Returns the battles finished by this sweep.
func (e *Engine) SweepIdle() []*Battle {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	var swept []*Battle
	for _, b := range e.active {
		last := b.LastActionAt
		if !b.HasActed() {
			last = b.StartedAt
		}
		if now.Sub(last) <= e.cfg.IdleTimeout {
			continue
		}
		e.finishLocked(b, "", ReasonTimeout, now)
		swept = append(swept, b.Clone())
	}
	return swept
}
