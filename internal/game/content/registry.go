package content

import (
	"fmt"

	"github.com/mirefall/mirefall/internal/game/dice"
)

// Registry holds all loaded item, skill, and monster definitions indexed by
// ID. Registration happens during startup; Freeze seals the registry before
// it is handed to any combat session. A frozen Registry is safe for
// concurrent reads.
//
// Invariant: once frozen, the registry is never mutated again.
type Registry struct {
	items    map[string]*Definition
	skills   map[string]*Definition
	monsters map[string]*MonsterTemplate
	frozen   bool
}

// NewRegistry returns an empty, unfrozen Registry.
//
// Postcondition: all internal maps are initialised.
func NewRegistry() *Registry {
	return &Registry{
		items:    make(map[string]*Definition),
		skills:   make(map[string]*Definition),
		monsters: make(map[string]*MonsterTemplate),
	}
}

// RegisterItem adds d to the item namespace.
//
// Precondition:  d must not be nil and must validate.
// Postcondition: Definition(DefItem, d.ID) returns (d, true); returns error
// if the registry is frozen or d.ID is already registered.
func (r *Registry) RegisterItem(d *Definition) error {
	if r.frozen {
		return fmt.Errorf("content: Registry.RegisterItem: registry is frozen")
	}
	if _, exists := r.items[d.ID]; exists {
		return fmt.Errorf("content: Registry.RegisterItem: item ID %q already registered", d.ID)
	}
	r.items[d.ID] = d
	return nil
}

// RegisterSkill adds d to the skill namespace.
//
// Precondition:  d must not be nil and must validate.
// Postcondition: Definition(DefSkill, d.ID) returns (d, true); returns error
// if the registry is frozen or d.ID is already registered.
func (r *Registry) RegisterSkill(d *Definition) error {
	if r.frozen {
		return fmt.Errorf("content: Registry.RegisterSkill: registry is frozen")
	}
	if _, exists := r.skills[d.ID]; exists {
		return fmt.Errorf("content: Registry.RegisterSkill: skill ID %q already registered", d.ID)
	}
	r.skills[d.ID] = d
	return nil
}

// RegisterMonster adds t to the monster namespace.
//
// Precondition:  t must not be nil and must validate.
// Postcondition: Monster(t.ID) returns (t, true); returns error if the
// registry is frozen or t.ID is already registered.
func (r *Registry) RegisterMonster(t *MonsterTemplate) error {
	if r.frozen {
		return fmt.Errorf("content: Registry.RegisterMonster: registry is frozen")
	}
	if _, exists := r.monsters[t.ID]; exists {
		return fmt.Errorf("content: Registry.RegisterMonster: monster ID %q already registered", t.ID)
	}
	r.monsters[t.ID] = t
	return nil
}

// Freeze seals the registry against further registration. Idempotent.
//
// Postcondition: Frozen() returns true; all Register* calls fail.
func (r *Registry) Freeze() {
	r.frozen = true
}

// Frozen reports whether the registry has been sealed.
func (r *Registry) Frozen() bool {
	return r.frozen
}

// Definition returns the item or skill definition for kind and id.
//
// Postcondition: ok is true iff the id is registered under kind.
func (r *Registry) Definition(kind DefKind, id string) (*Definition, bool) {
	switch kind {
	case DefItem:
		d, ok := r.items[id]
		return d, ok
	case DefSkill:
		d, ok := r.skills[id]
		return d, ok
	default:
		return nil, false
	}
}

// Monster returns the monster template for id.
//
// Postcondition: ok is true iff the id is registered.
func (r *Registry) Monster(id string) (*MonsterTemplate, bool) {
	t, ok := r.monsters[id]
	return t, ok
}

// Monsters returns all registered monster templates in unspecified order.
//
// Postcondition: len(result) == number of registered monster templates.
func (r *Registry) Monsters() []*MonsterTemplate {
	out := make([]*MonsterTemplate, 0, len(r.monsters))
	for _, t := range r.monsters {
		out = append(out, t)
	}
	return out
}

// RandomMonster selects a monster template using spawn-weight probability.
// Templates with higher spawn_weight are proportionally more likely; a
// template with weight 0 is never selected.
//
// Precondition: src must be non-nil.
// Postcondition: Returns (template, true), or (nil, false) when no template
// has positive weight.
func (r *Registry) RandomMonster(src dice.Source) (*MonsterTemplate, bool) {
	total := 0
	ordered := r.Monsters()
	for _, t := range ordered {
		total += t.SpawnWeight
	}
	if total <= 0 {
		return nil, false
	}
	roll := src.Intn(total)
	cumulative := 0
	for _, t := range ordered {
		cumulative += t.SpawnWeight
		if roll < cumulative {
			return t, true
		}
	}
	return nil, false
}
