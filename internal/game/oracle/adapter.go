package oracle

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Dadudekc/shinobi-arena/internal/game/battle"
)

// Adapter turns battle state into a model prompt and the model's reply into
// a legal action name. It never fails: any generation problem or unusable
// reply degrades to a pass.
type Adapter struct {
	gen    Generator
	logger *zap.Logger
}

// NewAdapter creates an Adapter over the given generator.
//
// Precondition: gen and logger must not be nil.
func NewAdapter(gen Generator, logger *zap.Logger) *Adapter {
	return &Adapter{gen: gen, logger: logger}
}

// ChooseAction picks the acting side's next move.
//
// Precondition: b must be active and agentID must own the current turn.
// Postcondition: Returns the exact canonical name of an action from the
// actor's available list. Generation failures and unmatched replies both
// yield Pass; no error ever escapes.
func (a *Adapter) ChooseAction(ctx context.Context, b *battle.Battle, agentID string, available []battle.Action) string {
	actor := b.ParticipantByID(agentID)
	if actor == nil || len(available) == 0 {
		return battle.NamePass
	}

	reply, err := a.gen.Generate(ctx, systemPrompt(actor), battlePrompt(b, actor, available))
	if err != nil {
		a.logger.Warn("oracle generation failed, passing",
			zap.String("battle_id", b.ID),
			zap.String("agent", agentID),
			zap.Error(err))
		return battle.NamePass
	}

	name, ok := MatchReply(reply, available)
	if !ok {
		a.logger.Warn("oracle reply did not match an available action, passing",
			zap.String("battle_id", b.ID),
			zap.String("agent", agentID),
			zap.String("reply", reply))
		return battle.NamePass
	}
	return name
}

// MatchReply finds the available action whose name equals the reply,
// ignoring case and surrounding whitespace.
//
// Postcondition: Returns the canonical action name with its original casing,
// or ("", false) when nothing matches.
func MatchReply(reply string, available []battle.Action) (string, bool) {
	want := strings.ToLower(strings.TrimSpace(reply))
	for _, a := range available {
		if strings.ToLower(a.Name) == want {
			return a.Name, true
		}
	}
	return "", false
}

// systemPrompt describes the acting character's persona.
func systemPrompt(actor *battle.Participant) string {
	c := actor.Character
	rank := c.Rank
	if rank == "" {
		rank = "unranked"
	}
	return fmt.Sprintf(
		"You are %s, a %s shinobi of level %d. "+
			"Fight methodically: test your opponent, manage your chakra, and escalate only as needed.",
		c.Name, rank, c.Level)
}

// battlePrompt summarizes the fight and lists the legal actions.
func battlePrompt(b *battle.Battle, actor *battle.Participant, available []battle.Action) string {
	opp := b.Opponent(actor.Character.ID)

	costs := make([]string, 0, len(available))
	for _, a := range available {
		cost := 0
		if a.Technique != nil {
			cost = a.Technique.CostAmount
		}
		costs = append(costs, fmt.Sprintf("%s (Cost: %d)", a.Name, cost))
	}

	lastAction := "none yet"
	if opp.LastAction != "" {
		lastAction = fmt.Sprintf("%s used %s", opp.Character.Name, opp.LastAction)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Current situation (turn %d)\n", b.TurnNumber)
	fmt.Fprintf(&sb, "- Your status: HP %d/%d, Chakra %d/%d, Effects: %s\n",
		actor.Character.HP, actor.Character.MaxHP,
		actor.Character.Chakra, actor.Character.MaxChakra,
		effectList(actor.Character.StatusEffects))
	fmt.Fprintf(&sb, "- Opponent (%s) status: HP %d/%d, Chakra %d/%d, Effects: %s\n",
		opp.Character.Name,
		opp.Character.HP, opp.Character.MaxHP,
		opp.Character.Chakra, opp.Character.MaxChakra,
		effectList(opp.Character.StatusEffects))
	fmt.Fprintf(&sb, "- Last opposing action: %s\n", lastAction)
	fmt.Fprintf(&sb, "Your available actions: [%s]\n", strings.Join(costs, ", "))
	sb.WriteString("Choose the most tactical action from the list above. Output ONLY the exact name of the chosen action.")
	return sb.String()
}

func effectList(effects []string) string {
	if len(effects) == 0 {
		return "none"
	}
	return strings.Join(effects, ", ")
}
