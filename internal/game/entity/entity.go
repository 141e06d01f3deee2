// Package entity constructs combat-ready player and monster instances.
package entity

import (
	"github.com/google/uuid"

	"github.com/mirefall/mirefall/internal/game/combat"
	"github.com/mirefall/mirefall/internal/game/content"
	"github.com/mirefall/mirefall/internal/game/dice"
)

// Baseline player statistics. Progression systems adjust the live record;
// these are the values a fresh character starts from.
const (
	PlayerMaxHP      = 20
	PlayerMaxEP      = 10
	PlayerAtk        = 5
	PlayerDef        = 1
	PlayerHit        = 75
	PlayerEva        = 5
	PlayerCritChance = 5
	PlayerCritMult   = 1.5
	PlayerSpeed      = 10
)

// NewPlayer creates the player combatant with baseline stats and the starting
// loadout.
//
// Postcondition: The returned combatant is allied, human-controlled, at full
// HP and EP, and carries a unique id.
func NewPlayer(name string) *combat.Combatant {
	return &combat.Combatant{
		ID:         uuid.NewString(),
		Name:       name,
		Faction:    combat.FactionAlly,
		Controller: combat.ControllerHuman,
		HP:         PlayerMaxHP,
		MaxHP:      PlayerMaxHP,
		EP:         PlayerMaxEP,
		MaxEP:      PlayerMaxEP,
		Atk:        PlayerAtk,
		Def:        PlayerDef,
		Hit:        PlayerHit,
		Eva:        PlayerEva,
		CritChance: PlayerCritChance,
		CritMult:   PlayerCritMult,
		Speed:      PlayerSpeed,
		Inventory:  []string{"potion", "potion", "ether"},
		Skills:     []string{"fireball", "heal"},
	}
}

// NewMonster instantiates a combatant from a monster template, rolling each
// ranged stat independently.
//
// Precondition: tmpl must have passed Validate; src must not be nil.
// Postcondition: Every rolled stat lies within its template range; the
// instance is an enemy, AI-controlled, at full HP and EP.
func NewMonster(tmpl *content.MonsterTemplate, src dice.Source) *combat.Combatant {
	maxHP := roll(src, tmpl.MaxHP)
	maxEP := roll(src, tmpl.MaxEP)
	return &combat.Combatant{
		ID:         uuid.NewString(),
		Name:       tmpl.Name,
		Faction:    combat.FactionEnemy,
		Controller: combat.ControllerAI,
		HP:         maxHP,
		MaxHP:      maxHP,
		EP:         maxEP,
		MaxEP:      maxEP,
		Atk:        roll(src, tmpl.Atk),
		Def:        roll(src, tmpl.Def),
		Hit:        roll(src, tmpl.Hit),
		Eva:        roll(src, tmpl.Eva),
		CritChance: roll(src, tmpl.CritChance),
		CritMult:   tmpl.CritMult,
		Speed:      roll(src, tmpl.Speed),
		AIScript:   tmpl.AIScript,
		XPReward:   roll(src, tmpl.XPReward),
	}
}

func roll(src dice.Source, r content.StatRange) int {
	return dice.Between(src, r.Min, r.Max)
}

// Mob is a monster instance placed on the dungeon map. Its combat record is
// shared with the session when an encounter starts, so damage taken in combat
// persists on the map mob.
type Mob struct {
	*combat.Combatant
	// X, Y are the mob's tile coordinates.
	X int
	Y int
}

// MobIDs returns the combatant ids of the given mobs, preserving order.
func MobIDs(mobs []*Mob) []string {
	ids := make([]string, 0, len(mobs))
	for _, m := range mobs {
		ids = append(ids, m.ID)
	}
	return ids
}
