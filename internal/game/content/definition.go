// Package content provides the immutable definition registry for Mirefall:
// item, skill, and monster definitions authored in YAML and loaded once at
// startup with a load-then-freeze lifecycle.
package content

import (
	"errors"
	"fmt"
)

// DefKind distinguishes the two usable-definition namespaces.
type DefKind string

const (
	DefItem  DefKind = "item"
	DefSkill DefKind = "skill"
)

// TargetType declares who a definition (or an attack) may be aimed at.
type TargetType string

const (
	TargetEnemySingle TargetType = "enemy_single"
	TargetEnemyAll    TargetType = "enemy_all"
	TargetAllySingle  TargetType = "ally_single"
	TargetAllyAll     TargetType = "ally_all"
	TargetSelf        TargetType = "self"
)

// validTargets is the set of valid TargetType values.
var validTargets = map[TargetType]bool{
	TargetEnemySingle: true,
	TargetEnemyAll:    true,
	TargetAllySingle:  true,
	TargetAllyAll:     true,
	TargetSelf:        true,
}

// Opposing reports whether the target type aims at the caster's opposing roster.
func (t TargetType) Opposing() bool {
	return t == TargetEnemySingle || t == TargetEnemyAll
}

// All reports whether the target type resolves to every possible target.
func (t TargetType) All() bool {
	return t == TargetEnemyAll || t == TargetAllyAll
}

// EffectAction identifies what an item or skill effect does when applied.
type EffectAction string

const (
	EffectRestoreHP EffectAction = "restore_hp"
	EffectRestoreEP EffectAction = "restore_ep"
	EffectDamageHP  EffectAction = "damage_hp"
)

// validEffects is the set of valid EffectAction values.
var validEffects = map[EffectAction]bool{
	EffectRestoreHP: true,
	EffectRestoreEP: true,
	EffectDamageHP:  true,
}

// Effect is the single numeric effect an item or skill applies per target.
type Effect struct {
	Action EffectAction `yaml:"action"`
	Amount int          `yaml:"amount"`
}

// Definition is an immutable item or skill template loaded from YAML and
// referenced by id during combat. Definitions are never mutated after load.
type Definition struct {
	ID     string     `yaml:"id"`
	Name   string     `yaml:"name"`
	Cost   int        `yaml:"cost"`
	Effect Effect     `yaml:"effect"`
	Target TargetType `yaml:"target"`
}

// Validate checks that the Definition satisfies its invariants.
//
// Precondition: d is non-nil.
// Postcondition: returns nil iff all fields are valid.
func (d *Definition) Validate() error {
	var errs []error
	if d.ID == "" {
		errs = append(errs, errors.New("ID must not be empty"))
	}
	if d.Name == "" {
		errs = append(errs, errors.New("Name must not be empty"))
	}
	if d.Cost < 0 {
		errs = append(errs, errors.New("Cost must be >= 0"))
	}
	if !validEffects[d.Effect.Action] {
		errs = append(errs, fmt.Errorf("Effect.Action must be one of restore_hp, restore_ep, damage_hp; got %q", d.Effect.Action))
	}
	if d.Effect.Amount < 0 {
		errs = append(errs, errors.New("Effect.Amount must be >= 0"))
	}
	if !validTargets[d.Target] {
		errs = append(errs, fmt.Errorf("Target must be a valid target type; got %q", d.Target))
	}
	if len(errs) > 0 {
		return fmt.Errorf("definition %q validation failed: %v", d.ID, errs)
	}
	return nil
}
