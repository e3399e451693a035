package arena

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Dadudekc/shinobi-arena/internal/config"
	"github.com/Dadudekc/shinobi-arena/internal/game/battle"
	"github.com/Dadudekc/shinobi-arena/internal/game/character"
	"github.com/Dadudekc/shinobi-arena/internal/game/technique"
)

// CharacterStore resolves agent IDs to combatant snapshots and persists
// fight outcomes. Get returns character.ErrNotFound for unknown IDs.
type CharacterStore interface {
	Get(ctx context.Context, id string) (*character.Snapshot, error)
	Save(ctx context.Context, snapshot *character.Snapshot) error
	IsRestricted(ctx context.Context, id string) (bool, error)
}

// ActionChooser picks an action name for a computer-controlled side. The
// returned name must come from the available list; implementations never
// fail.
type ActionChooser interface {
	ChooseAction(ctx context.Context, b *battle.Battle, agentID string, available []battle.Action) string
}

// Manager is the battle orchestrator: it owns precondition checks, drives
// computer-controlled turns, and translates engine results into the public
// result vocabulary.
type Manager struct {
	store   CharacterStore
	engine  *battle.Engine
	catalog *technique.Catalog
	oracle  ActionChooser
	history *History
	cfg     config.BattleConfig
	logger  *zap.Logger
}

// NewManager wires the orchestrator.
//
// Precondition: All collaborators must be non-nil.
func NewManager(store CharacterStore, engine *battle.Engine, catalog *technique.Catalog, chooser ActionChooser, cfg config.BattleConfig, logger *zap.Logger) *Manager {
	return &Manager{
		store:   store,
		engine:  engine,
		catalog: catalog,
		oracle:  chooser,
		history: NewHistory(cfg.HistorySize),
		cfg:     cfg,
		logger:  logger,
	}
}

// recoverStatus converts a panic during a public operation into a
// SYSTEM_ERROR result, leaving the engine's last committed state intact.
func (m *Manager) recoverStatus(op string, s *Status) {
	if r := recover(); r != nil {
		m.logger.Error("panic during operation",
			zap.String("op", op),
			zap.Any("panic", r),
			zap.Stack("stack"))
		*s = failure(CodeSystemError, "internal error")
	}
}

// StartBattle begins a fight between two agents after checking every
// precondition in order, short-circuiting on the first failure.
//
// Postcondition: On success a new active battle exists and the result
// carries its ID, the battle type, and the level difference. On failure no
// fight is created.
func (m *Manager) StartBattle(ctx context.Context, agentID, opponentID string) (res StartResult) {
	defer m.recoverStatus("start_battle", &res.Status)

	if agentID == opponentID {
		res.Status = failure(CodeInvalidOpponent, "you cannot fight yourself")
		return res
	}

	agent, st := m.resolve(ctx, agentID, CodePlayerNotFound)
	if !st.OK() {
		res.Status = st
		return res
	}
	opponent, st := m.resolve(ctx, opponentID, CodeOpponentNotFound)
	if !st.OK() {
		res.Status = st
		return res
	}

	if _, busy := m.engine.ActiveBattleForAgent(agentID); busy {
		res.Status = failure(CodeBattleInProgress, "you are already in a battle")
		return res
	}
	if _, busy := m.engine.ActiveBattleForAgent(opponentID); busy {
		res.Status = failure(CodeInvalidOpponent, fmt.Sprintf("%s is already in a battle", opponent.Name))
		return res
	}

	levelDiff := agent.Level - opponent.Level
	if levelDiff < 0 {
		levelDiff = -levelDiff
	}
	battleType := TypePvP
	if agent.NPC || opponent.NPC {
		battleType = TypePvE
	}
	if battleType == TypePvP && levelDiff > m.cfg.MaxLevelDiff {
		res.Status = failure(CodeInvalidOpponent, fmt.Sprintf("level difference %d exceeds the limit of %d", levelDiff, m.cfg.MaxLevelDiff))
		return res
	}

	if restricted, st := m.restricted(ctx, agentID); !st.OK() {
		res.Status = st
		return res
	} else if restricted {
		res.Status = failure(CodeBattleInProgress, "you are engaged in another event")
		return res
	}
	if restricted, st := m.restricted(ctx, opponentID); !st.OK() {
		res.Status = st
		return res
	} else if restricted {
		res.Status = failure(CodeInvalidOpponent, fmt.Sprintf("%s is engaged in another event", opponent.Name))
		return res
	}

	if !agent.Conscious() {
		res.Status = failure(CodeInvalidAction, "you are in no condition to fight")
		return res
	}
	if !opponent.Conscious() {
		res.Status = failure(CodeInvalidOpponent, fmt.Sprintf("%s is in no condition to fight", opponent.Name))
		return res
	}

	b, err := m.engine.Start(agent, opponent)
	if err != nil {
		if errors.Is(err, battle.ErrAgentBusy) {
			res.Status = failure(CodeBattleInProgress, "a battle for this pair already exists")
			return res
		}
		m.logger.Error("engine start failed", zap.Error(err))
		res.Status = failure(CodeSystemError, "internal error")
		return res
	}

	res.Status = Status{Code: CodeOK, Message: fmt.Sprintf("%s challenges %s", agent.Name, opponent.Name)}
	res.BattleID = b.ID
	res.BattleType = battleType
	res.LevelDiff = levelDiff
	return res
}

// resolve loads a snapshot, mapping a missing character to notFoundCode.
func (m *Manager) resolve(ctx context.Context, id string, notFoundCode Code) (*character.Snapshot, Status) {
	s, err := m.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, character.ErrNotFound) {
			return nil, failure(notFoundCode, fmt.Sprintf("no character found for %q", id))
		}
		m.logger.Error("character lookup failed", zap.String("agent", id), zap.Error(err))
		return nil, failure(CodeSystemError, "internal error")
	}
	return s, Status{Code: CodeOK}
}

func (m *Manager) restricted(ctx context.Context, id string) (bool, Status) {
	restricted, err := m.store.IsRestricted(ctx, id)
	if err != nil {
		m.logger.Error("restriction check failed", zap.String("agent", id), zap.Error(err))
		return false, failure(CodeSystemError, "internal error")
	}
	return restricted, Status{Code: CodeOK}
}

// ProcessAction submits one action for agentID. When battleID is empty, the
// agent's active battle is used. If the fight stays active and the next turn
// belongs to a computer-controlled side, that side's turn is resolved before
// returning.
//
// Postcondition: On success the returned battle reflects every turn resolved
// by this call. Invalid actions leave the fight untouched.
func (m *Manager) ProcessAction(ctx context.Context, agentID, action, battleID string) (res ActionResult) {
	defer m.recoverStatus("process_action", &res.Status)

	if battleID == "" {
		b, ok := m.engine.ActiveBattleForAgent(agentID)
		if !ok {
			res.Status = failure(CodeBattleNotFound, "you have no active battle")
			return res
		}
		battleID = b.ID
	}

	b, err := m.engine.ProcessAction(battleID, agentID, action)
	if err != nil {
		res.Status = m.mapEngineError(err)
		return res
	}

	if b.Active {
		b = m.driveNPCTurn(ctx, b)
	}
	if !b.Active {
		m.finalize(ctx, b)
	}

	res.Status = Status{Code: CodeOK, Message: b.Log[len(b.Log)-1]}
	res.Battle = b
	return res
}

// driveNPCTurn resolves the current turn when it belongs to a
// computer-controlled participant, returning the post-turn state. A battle
// ended underneath us (admin stop, sweep) is not an error; the turn is
// simply abandoned.
func (m *Manager) driveNPCTurn(ctx context.Context, b *battle.Battle) *battle.Battle {
	actor := b.CurrentActor()
	if !actor.Character.NPC {
		return b
	}

	available := actor.Available(m.catalog)
	name := m.oracle.ChooseAction(ctx, b, actor.Character.ID, available)
	updated, err := m.engine.ProcessAction(b.ID, actor.Character.ID, name)
	if err != nil {
		if errors.Is(err, battle.ErrBattleNotFound) {
			return b
		}
		// The chooser contract guarantees an available action, so a pass
		// always succeeds. Anything else is a catalog or state bug.
		m.logger.Error("npc turn failed",
			zap.String("battle_id", b.ID),
			zap.String("agent", actor.Character.ID),
			zap.String("action", name),
			zap.Error(err))
		return b
	}
	return updated
}

func (m *Manager) mapEngineError(err error) Status {
	switch {
	case errors.Is(err, battle.ErrBattleNotFound):
		return failure(CodeBattleNotFound, "no such active battle")
	case errors.Is(err, battle.ErrInvalidAction):
		return failure(CodeInvalidAction, err.Error())
	default:
		m.logger.Error("engine call failed", zap.Error(err))
		return failure(CodeSystemError, "internal error")
	}
}

// finalize records a finished battle in the history store and persists each
// participant's vitals and win/loss/draw record. Persistence failures are
// logged and do not undo the fight's outcome.
func (m *Manager) finalize(ctx context.Context, b *battle.Battle) {
	endedAt := time.Now()
	m.history.Record(b, endedAt)
	m.persistSide(ctx, b, b.Attacker, b.Defender)
	m.persistSide(ctx, b, b.Defender, b.Attacker)
}

func (m *Manager) persistSide(ctx context.Context, b *battle.Battle, owner, opponent *battle.Participant) {
	stored, err := m.store.Get(ctx, owner.Character.ID)
	if err != nil {
		m.logger.Warn("outcome persistence: lookup failed",
			zap.String("agent", owner.Character.ID),
			zap.Error(err))
		return
	}

	stored.HP = owner.Character.HP
	stored.Chakra = owner.Character.Chakra
	stored.Stamina = owner.Character.Stamina
	stored.StatusEffects = append([]string(nil), owner.Character.StatusEffects...)
	stored.ClampVitals()

	switch b.Winner {
	case owner.Character.ID:
		stored.Record.Wins++
	case opponent.Character.ID:
		stored.Record.Losses++
	default:
		stored.Record.Draws++
	}

	if err := m.store.Save(ctx, stored); err != nil {
		m.logger.Warn("outcome persistence: save failed",
			zap.String("agent", owner.Character.ID),
			zap.Error(err))
	}
}

// GetState returns a battle by ID, active or recently ended.
func (m *Manager) GetState(battleID string) (*battle.Battle, bool) {
	return m.engine.Battle(battleID)
}

// GetHistory returns one page of an agent's finished fights, newest first.
func (m *Manager) GetHistory(agentID string, page, pageSize int, filters map[string]string) Page {
	return m.history.Query(agentID, page, pageSize, filters)
}

// ForceEnd stops a battle outside the normal turn flow, for operator use.
// An empty winnerID records a draw.
func (m *Manager) ForceEnd(ctx context.Context, battleID, winnerID string) (res ActionResult) {
	defer m.recoverStatus("force_end", &res.Status)

	b, err := m.engine.End(battleID, winnerID, battle.ReasonAdmin)
	if err != nil {
		res.Status = m.mapEngineError(err)
		return res
	}
	m.finalize(ctx, b)

	res.Status = Status{Code: CodeOK, Message: "battle stopped"}
	res.Battle = b
	return res
}

// SweepIdle ends every idle battle and persists the resulting draws. It lets
// the Manager stand in as the sweeper's idle source.
func (m *Manager) SweepIdle() []*battle.Battle {
	swept := m.engine.SweepIdle()
	for _, b := range swept {
		m.finalize(context.Background(), b)
	}
	return swept
}
