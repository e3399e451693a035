package battle

import (
	"strings"

	"github.com/Dadudekc/shinobi-arena/internal/game/technique"
)

// Kind classifies an action a participant can take on their turn.
type Kind string

const (
	KindAttack    Kind = "attack"
	KindTechnique Kind = "technique"
	KindDefend    Kind = "defend"
	KindPass      Kind = "pass"
)

// Names of the free actions every participant always has.
const (
	NameAttack = "Basic Attack"
	NameDefend = "Defend"
	NamePass   = "Pass"
)

// Action is a resolved, affordable action ready to apply.
type Action struct {
	Kind Kind
	// Name is the canonical display name.
	Name string
	// Technique is set only for KindTechnique.
	Technique *technique.Technique
}

// CanAfford reports whether the participant has the resources to pay for t.
func (p *Participant) CanAfford(t *technique.Technique) bool {
	switch t.CostType {
	case technique.CostStamina:
		return p.Character.Stamina >= t.CostAmount
	default:
		return p.Character.Chakra >= t.CostAmount
	}
}

// Available returns the actions the participant may legally take right now:
// the three free actions plus every known, affordable technique.
//
// Postcondition: The result always contains at least Basic Attack, Defend,
// and Pass, in that order, followed by techniques in the character's known
// order.
func (p *Participant) Available(catalog *technique.Catalog) []Action {
	actions := []Action{
		{Kind: KindAttack, Name: NameAttack},
		{Kind: KindDefend, Name: NameDefend},
		{Kind: KindPass, Name: NamePass},
	}
	for _, name := range p.Character.Jutsu {
		t, ok := catalog.Lookup(name)
		if !ok || !p.CanAfford(t) {
			continue
		}
		actions = append(actions, Action{Kind: KindTechnique, Name: t.Name, Technique: t})
	}
	return actions
}

// Resolve matches a raw action name to one of the participant's available
// actions, ignoring case and surrounding whitespace.
//
// Postcondition: Returns (action, true) iff the name matches an entry of
// Available, so a resolved technique is always known and affordable.
func (p *Participant) Resolve(name string, catalog *technique.Catalog) (Action, bool) {
	want := strings.ToLower(strings.TrimSpace(name))
	for _, a := range p.Available(catalog) {
		if strings.ToLower(a.Name) == want {
			return a, true
		}
	}
	return Action{}, false
}
