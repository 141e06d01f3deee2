package combat

import "github.com/mirefall/mirefall/internal/game/content"

// ActionKind identifies what a combatant chose to do on their turn.
// The zero value (ActionUnknown) is intentionally invalid.
type ActionKind int

const (
	ActionUnknown ActionKind = iota // zero value; intentionally invalid
	ActionAttack
	ActionDefend
	ActionItem
	ActionSkill
	ActionFlee
)

// String returns the human-readable name of the ActionKind.
func (a ActionKind) String() string {
	switch a {
	case ActionAttack:
		return "attack"
	case ActionDefend:
		return "defend"
	case ActionItem:
		return "item"
	case ActionSkill:
		return "skill"
	case ActionFlee:
		return "flee"
	default:
		return "unknown"
	}
}

// NeedsDefinition reports whether the action kind requires a content
// definition looked up by DefID.
func (a ActionKind) NeedsDefinition() bool {
	return a == ActionItem || a == ActionSkill
}

// Action is a transient value describing one chosen move. Target selection is
// not part of the Action; it is resolved afterwards through the targeting
// protocol.
type Action struct {
	Kind ActionKind
	// DefID names the item or skill definition; required for ActionItem and
	// ActionSkill, empty otherwise.
	DefID string
	// TargetOverride forces a target type instead of the definition's
	// declared one. Empty means use the default for the kind.
	TargetOverride content.TargetType
}

// TargetType resolves the effective target type for the action given the
// looked-up definition (nil for attack).
//
// Postcondition: Returns TargetOverride when set, else the definition's
// declared target, else TargetEnemySingle.
func (a Action) TargetType(def *content.Definition) content.TargetType {
	if a.TargetOverride != "" {
		return a.TargetOverride
	}
	if def != nil && def.Target != "" {
		return def.Target
	}
	return content.TargetEnemySingle
}
