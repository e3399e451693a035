// Package arena is the public battle orchestration surface: precondition
// checks, the stable result vocabulary, per-agent history, and driving the
// computer-controlled side's turns.
package arena

import "github.com/Dadudekc/shinobi-arena/internal/game/battle"

// Code classifies the outcome of a public operation. Failures are reported
// through these values, never as errors crossing the public boundary.
type Code string

const (
	CodeOK               Code = "OK"
	CodePlayerNotFound   Code = "PLAYER_NOT_FOUND"
	CodeOpponentNotFound Code = "OPPONENT_NOT_FOUND"
	CodeBattleInProgress Code = "BATTLE_IN_PROGRESS"
	CodeInvalidOpponent  Code = "INVALID_OPPONENT"
	CodeBattleNotFound   Code = "BATTLE_NOT_FOUND"
	CodeInvalidAction    Code = "INVALID_ACTION"
	CodeSystemError      Code = "SYSTEM_ERROR"
)

// Battle types reported by StartBattle.
const (
	TypePvP = "pvp"
	TypePvE = "pve"
)

// Status is the {code, message} pair every public operation returns.
type Status struct {
	Code    Code
	Message string
}

// OK reports whether the operation succeeded.
func (s Status) OK() bool {
	return s.Code == CodeOK
}

func failure(code Code, message string) Status {
	return Status{Code: code, Message: message}
}

// StartResult is the outcome of StartBattle.
type StartResult struct {
	Status
	BattleID   string
	BattleType string
	LevelDiff  int
}

// ActionResult is the outcome of ProcessAction and ForceEnd.
type ActionResult struct {
	Status
	Battle *battle.Battle
}
